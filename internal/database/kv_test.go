package database

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err, "failed to open test db")
	t.Cleanup(func() { db.Close() })
	return db
}

func TestGetValueMissing(t *testing.T) {
	db := openTestDB(t)

	v, ok, err := db.GetValue("absent")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, v)
}

func TestPutValueOverwrites(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, db.PutValue("corpus", `[1]`))
	require.NoError(t, db.PutValue("corpus", `[1,2]`))

	v, ok, err := db.GetValue("corpus")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[1,2]`, v)
}

func keys(t *testing.T, db *DB) []string {
	t.Helper()
	entries, err := db.Entries()
	require.NoError(t, err)
	var out []string
	for _, e := range entries {
		out = append(out, e.Key)
	}
	return out
}

func TestDeleteValueAndEntries(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.PutValue("b", "22"))
	require.NoError(t, db.PutValue("a", "1"))

	entries, err := db.Entries()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "a", entries[0].Key)
	assert.Equal(t, 1, entries[0].Size)
	assert.Equal(t, 2, entries[1].Size)
	assert.NotEmpty(t, entries[1].UpdatedAt)

	require.NoError(t, db.DeleteValue("a"))
	require.NoError(t, db.DeleteValue("never-written"))
	assert.Equal(t, []string{"b"}, keys(t, db))
}

func TestPathReturnsOpenedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "kv.db")
	db, err := Open(path)
	require.NoError(t, err)
	defer db.Close()
	assert.Equal(t, path, db.Path())
}

func TestOpenErrorNamesPath(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	path := filepath.Join(blocker, "kv.db")
	_, err := Open(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), path)
}

func TestClosedStoreErrorsNameKey(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "closed.db"))
	require.NoError(t, err)
	require.NoError(t, db.Close())

	err = db.PutValue("smartgrade_knowledge_base", "[]")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"smartgrade_knowledge_base"`)
}
