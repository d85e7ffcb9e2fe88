// Package channel holds the uploaded items of the session, partitioned by
// subject.
package channel

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/TobiSchelling/SmartGrade/internal/homework"
)

// ErrInvalidStatus is returned for a status update that would break the
// status/result/message invariant.
var ErrInvalidStatus = errors.New("invalid status update")

// DefaultErrorMessage is stored when a failure carries no message.
const DefaultErrorMessage = "处理失败"

// Upload is one file handed in by the caller.
type Upload struct {
	Name string
	Data []byte
}

// Previews hands out display handles for uploaded images.
type Previews interface {
	Acquire(id string, data []byte) (string, error)
	Release(id string)
}

// Store is the ordered, in-memory collection of uploaded items. It is safe
// for concurrent use.
type Store struct {
	mu       sync.RWMutex
	items    []homework.Item
	previews Previews
	now      func() time.Time
}

// NewStore creates an empty store. previews may be nil.
func NewStore(previews Previews) *Store {
	return &Store{previews: previews, now: time.Now}
}

// Add appends one pending item per upload, bound to subject, and returns
// copies of the new items in upload order.
func (s *Store) Add(uploads []Upload, subject homework.Subject) []homework.Item {
	added := make([]homework.Item, 0, len(uploads))
	for _, u := range uploads {
		it := homework.Item{
			ID:        uuid.NewString(),
			Name:      u.Name,
			Image:     u.Data,
			Subject:   subject,
			Status:    homework.StatusPending,
			CreatedAt: s.now(),
		}
		if s.previews != nil {
			uri, err := s.previews.Acquire(it.ID, u.Data)
			if err != nil {
				zap.S().Warnw("preview unavailable", "file", u.Name, "error", err)
			}
			it.Preview = uri
		}
		added = append(added, it)
	}

	s.mu.Lock()
	s.items = append(s.items, added...)
	s.mu.Unlock()

	return cloneAll(added)
}

// Remove deletes the item regardless of its status and releases its preview.
func (s *Store) Remove(id string) bool {
	s.mu.Lock()
	idx := s.indexOf(id)
	if idx < 0 {
		s.mu.Unlock()
		return false
	}
	s.items = append(s.items[:idx], s.items[idx+1:]...)
	s.mu.Unlock()

	if s.previews != nil {
		s.previews.Release(id)
	}
	return true
}

// FilterBySubject returns copies of the subject's items in insertion order.
func (s *Store) FilterBySubject(subject homework.Subject) []homework.Item {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []homework.Item
	for _, it := range s.items {
		if it.Subject == subject {
			out = append(out, clone(it))
		}
	}
	return out
}

// Get returns a copy of the item.
func (s *Store) Get(id string) (homework.Item, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return homework.Item{}, false
	}
	return clone(s.items[idx]), true
}

// Len returns the number of items across all subjects.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// UpdateStatus is the only way an item's lifecycle fields change. Only the
// fields that belong to status are kept: result for completed, errMsg for
// error. The first return value is false when the item no longer exists.
func (s *Store) UpdateStatus(id string, status homework.Status, result *homework.AnalysisResult, errMsg string) (bool, error) {
	if !status.Valid() {
		return false, fmt.Errorf("%w: unknown status %q", ErrInvalidStatus, status)
	}
	if status == homework.StatusCompleted && result == nil {
		return false, fmt.Errorf("%w: completed without a result", ErrInvalidStatus)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return false, nil
	}

	it := &s.items[idx]
	it.Status = status
	it.Result = nil
	it.ErrorMessage = ""
	switch status {
	case homework.StatusCompleted:
		r := *result
		it.Result = &r
	case homework.StatusError:
		if errMsg == "" {
			errMsg = DefaultErrorMessage
		}
		it.ErrorMessage = errMsg
	case homework.StatusPending, homework.StatusProcessing:
	}
	return true, nil
}

func (s *Store) indexOf(id string) int {
	for i := range s.items {
		if s.items[i].ID == id {
			return i
		}
	}
	return -1
}

func clone(it homework.Item) homework.Item {
	if it.Result != nil {
		r := *it.Result
		if r.Score != nil {
			score := *r.Score
			r.Score = &score
		}
		it.Result = &r
	}
	return it
}

func cloneAll(items []homework.Item) []homework.Item {
	out := make([]homework.Item, len(items))
	for i, it := range items {
		out[i] = clone(it)
	}
	return out
}
