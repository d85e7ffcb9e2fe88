package channel

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TobiSchelling/SmartGrade/internal/homework"
)

type fakePreviews struct {
	mu       sync.Mutex
	live     map[string]bool
	released []string
	fail     bool
}

func newFakePreviews() *fakePreviews {
	return &fakePreviews{live: map[string]bool{}}
}

func (f *fakePreviews) Acquire(id string, _ []byte) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return "", errors.New("cannot decode")
	}
	f.live[id] = true
	return "preview:" + id, nil
}

func (f *fakePreviews) Release(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.live, id)
	f.released = append(f.released, id)
}

func uploads(names ...string) []Upload {
	out := make([]Upload, len(names))
	for i, n := range names {
		out[i] = Upload{Name: n, Data: []byte(n)}
	}
	return out
}

func TestAddBindsSubjectAndPreview(t *testing.T) {
	prev := newFakePreviews()
	s := NewStore(prev)

	added := s.Add(uploads("a.jpg", "b.jpg"), homework.SubjectMath)
	require.Len(t, added, 2)
	assert.NotEqual(t, added[0].ID, added[1].ID)
	for _, it := range added {
		assert.Equal(t, homework.SubjectMath, it.Subject)
		assert.Equal(t, homework.StatusPending, it.Status)
		assert.Equal(t, "preview:"+it.ID, it.Preview)
		assert.Nil(t, it.Result)
		assert.Empty(t, it.ErrorMessage)
	}
	assert.Len(t, prev.live, 2)
	assert.Equal(t, 2, s.Len())
}

func TestAddSurvivesPreviewFailure(t *testing.T) {
	prev := newFakePreviews()
	prev.fail = true
	s := NewStore(prev)

	added := s.Add(uploads("broken.heic"), homework.SubjectChinese)
	require.Len(t, added, 1)
	assert.Empty(t, added[0].Preview)
	assert.Equal(t, 1, s.Len())
}

func TestFilterBySubjectKeepsInsertionOrder(t *testing.T) {
	s := NewStore(nil)
	s.Add(uploads("m1"), homework.SubjectMath)
	s.Add(uploads("c1"), homework.SubjectChinese)
	s.Add(uploads("m2", "m3"), homework.SubjectMath)

	var names []string
	for _, it := range s.FilterBySubject(homework.SubjectMath) {
		names = append(names, it.Name)
	}
	assert.Equal(t, []string{"m1", "m2", "m3"}, names)
	assert.Empty(t, s.FilterBySubject(homework.SubjectEnglish))
}

func TestRemoveReleasesPreview(t *testing.T) {
	prev := newFakePreviews()
	s := NewStore(prev)
	it := s.Add(uploads("a"), homework.SubjectMath)[0]

	_, err := s.UpdateStatus(it.ID, homework.StatusProcessing, nil, "")
	require.NoError(t, err)
	assert.True(t, s.Remove(it.ID))
	assert.False(t, s.Remove(it.ID))
	assert.Equal(t, []string{it.ID}, prev.released)
	assert.Empty(t, prev.live)
	assert.Zero(t, s.Len())
}

func TestUpdateStatusKeepsInvariant(t *testing.T) {
	s := NewStore(nil)
	it := s.Add(uploads("a"), homework.SubjectMath)[0]
	res := &homework.AnalysisResult{OCRText: "2+2=5", Correction: "# 评分: 40"}

	found, err := s.UpdateStatus(it.ID, homework.StatusError, res, "boom")
	require.NoError(t, err)
	require.True(t, found)
	got, _ := s.Get(it.ID)
	assert.Nil(t, got.Result)
	assert.Equal(t, "boom", got.ErrorMessage)

	_, err = s.UpdateStatus(it.ID, homework.StatusCompleted, res, "ignored")
	require.NoError(t, err)
	got, _ = s.Get(it.ID)
	require.NotNil(t, got.Result)
	assert.Equal(t, "2+2=5", got.Result.OCRText)
	assert.Empty(t, got.ErrorMessage)

	_, err = s.UpdateStatus(it.ID, homework.StatusPending, nil, "")
	require.NoError(t, err)
	got, _ = s.Get(it.ID)
	assert.Nil(t, got.Result)
	assert.Empty(t, got.ErrorMessage)
	assert.Equal(t, []byte("a"), got.Image)
	assert.Equal(t, homework.SubjectMath, got.Subject)
}

func TestUpdateStatusErrorFallbackMessage(t *testing.T) {
	s := NewStore(nil)
	it := s.Add(uploads("a"), homework.SubjectMath)[0]

	_, err := s.UpdateStatus(it.ID, homework.StatusError, nil, "")
	require.NoError(t, err)
	got, _ := s.Get(it.ID)
	assert.Equal(t, DefaultErrorMessage, got.ErrorMessage)
}

func TestUpdateStatusRejectsBrokenTransitions(t *testing.T) {
	s := NewStore(nil)
	it := s.Add(uploads("a"), homework.SubjectMath)[0]

	_, err := s.UpdateStatus(it.ID, homework.StatusCompleted, nil, "")
	assert.ErrorIs(t, err, ErrInvalidStatus)

	_, err = s.UpdateStatus(it.ID, homework.Status("archived"), nil, "")
	assert.ErrorIs(t, err, ErrInvalidStatus)

	got, _ := s.Get(it.ID)
	assert.Equal(t, homework.StatusPending, got.Status)
}

func TestUpdateStatusOnRemovedItemIsNoop(t *testing.T) {
	s := NewStore(nil)
	it := s.Add(uploads("a"), homework.SubjectMath)[0]
	s.Remove(it.ID)

	found, err := s.UpdateStatus(it.ID, homework.StatusCompleted, &homework.AnalysisResult{}, "")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Zero(t, s.Len())
}

func TestReturnedItemsAreCopies(t *testing.T) {
	s := NewStore(nil)
	it := s.Add(uploads("a"), homework.SubjectMath)[0]
	_, err := s.UpdateStatus(it.ID, homework.StatusCompleted, &homework.AnalysisResult{OCRText: "orig"}, "")
	require.NoError(t, err)

	got, _ := s.Get(it.ID)
	got.Result.OCRText = "mutated"
	got.Status = homework.StatusError

	again, _ := s.Get(it.ID)
	assert.Equal(t, "orig", again.Result.OCRText)
	assert.Equal(t, homework.StatusCompleted, again.Status)
}

func TestConcurrentReadersAndWriters(t *testing.T) {
	s := NewStore(newFakePreviews())
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for _, it := range s.Add(uploads("x", "y"), homework.SubjectEnglish) {
				_, _ = s.UpdateStatus(it.ID, homework.StatusProcessing, nil, "")
			}
		}()
		go func() {
			defer wg.Done()
			_ = s.FilterBySubject(homework.SubjectEnglish)
		}()
	}
	wg.Wait()
	assert.Equal(t, 16, s.Len())
}
