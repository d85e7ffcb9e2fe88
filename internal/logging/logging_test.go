package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zap.DebugLevel, ParseLevel("debug"))
	assert.Equal(t, zap.WarnLevel, ParseLevel("WARNING"))
	assert.Equal(t, zap.ErrorLevel, ParseLevel(" error "))
	assert.Equal(t, zap.InfoLevel, ParseLevel("INFO"))
	assert.Equal(t, zap.InfoLevel, ParseLevel("chatty"))
}

func TestInitWritesJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "smartgrade.log")

	flush, err := Init(Options{Level: "INFO", File: path})
	require.NoError(t, err)

	zap.S().Infow("item graded", "item", "abc")
	zap.S().Debug("hidden at info level")
	flush()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)
	assert.Contains(t, out, `"msg":"item graded"`)
	assert.Contains(t, out, `"item":"abc"`)
	assert.False(t, strings.Contains(out, "hidden at info level"))
}

func TestVerboseForcesDebug(t *testing.T) {
	logger, err := New(Options{Level: "ERROR", Verbose: true})
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zap.DebugLevel))
}
