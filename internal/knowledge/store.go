// Package knowledge holds the per-subject reference corpus used to enrich
// grading prompts.
package knowledge

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/TobiSchelling/SmartGrade/internal/homework"
)

// StorageKey is the single key the whole corpus is stored under.
const StorageKey = "smartgrade_knowledge_base"

// ErrNotFound is returned when an identifier does not match any entry.
var ErrNotFound = errors.New("knowledge item not found")

// PersistenceError reports that the durable store could not be read or
// written.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("knowledge store %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// KV is the durable key/value backend. *database.DB implements it.
type KV interface {
	GetValue(key string) (string, bool, error)
	PutValue(key, value string) error
	DeleteValue(key string) error
}

// Item is one reference entry.
type Item struct {
	ID        string           `json:"id"`
	Title     string           `json:"title"`
	Content   string           `json:"content"`
	Subject   homework.Subject `json:"subject"`
	Keywords  []string         `json:"keywords"`
	CreatedAt time.Time        `json:"createdAt"`
	UpdatedAt time.Time        `json:"updatedAt"`
}

// NewItem is the caller-supplied part of an entry; the store assigns the
// identifier and timestamps.
type NewItem struct {
	Title    string           `validate:"required"`
	Content  string           `validate:"required"`
	Subject  homework.Subject `validate:"required,oneof=chinese math english"`
	Keywords []string         `validate:"dive,required"`
}

// Patch lists the fields to change in Update. Nil fields are left as is.
type Patch struct {
	Title    *string
	Content  *string
	Subject  *homework.Subject
	Keywords *[]string
}

// SearchResult is returned by Search.
type SearchResult struct {
	Items []Item
	Total int
}

// Summary describes the corpus of one subject.
type Summary struct {
	ID          string
	Name        string
	Description string
	Subject     homework.Subject
	ItemCount   int
}

// Store is the knowledge corpus persisted as one JSON document.
type Store struct {
	kv       KV
	validate *validator.Validate
	now      func() time.Time

	// mu serializes read-modify-write cycles within this process.
	mu sync.Mutex
}

// NewStore creates a store over kv. Call Initialize before use.
func NewStore(kv KV) *Store {
	return &Store{
		kv:       kv,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Initialize seeds the default corpus when nothing has been stored yet.
// It is idempotent and only writes on the first call against an empty store.
func (s *Store) Initialize() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok, err := s.kv.GetValue(StorageKey)
	if err != nil {
		return &PersistenceError{Op: "read", Err: err}
	}
	if ok {
		return nil
	}

	if err := s.save(defaultItems(s.now())); err != nil {
		return err
	}
	zap.S().Info("default knowledge base initialized")
	return nil
}

// Reset discards the stored corpus and seeds the defaults again.
func (s *Store) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.kv.DeleteValue(StorageKey); err != nil {
		return &PersistenceError{Op: "delete", Err: err}
	}
	if err := s.save(defaultItems(s.now())); err != nil {
		return err
	}
	zap.S().Info("knowledge base reset to defaults")
	return nil
}

// All returns the full corpus.
func (s *Store) All() ([]Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// BySubject returns the entries of one subject.
func (s *Store) BySubject(subject homework.Subject) ([]Item, error) {
	all, err := s.All()
	if err != nil {
		return nil, err
	}
	return filterSubject(all, subject), nil
}

// Search matches query case-insensitively against title, content and
// keywords. A blank query returns every entry (of subject, when given).
func (s *Store) Search(query string, subject *homework.Subject) (SearchResult, error) {
	var (
		items []Item
		err   error
	)
	if subject != nil {
		items, err = s.BySubject(*subject)
	} else {
		items, err = s.All()
	}
	if err != nil {
		return SearchResult{}, err
	}

	if strings.TrimSpace(query) == "" {
		return SearchResult{Items: items, Total: len(items)}, nil
	}

	q := strings.ToLower(query)
	var matched []Item
	for _, it := range items {
		if matches(it, q) {
			matched = append(matched, it)
		}
	}
	return SearchResult{Items: matched, Total: len(matched)}, nil
}

func matches(it Item, lowerQuery string) bool {
	if strings.Contains(strings.ToLower(it.Title), lowerQuery) ||
		strings.Contains(strings.ToLower(it.Content), lowerQuery) {
		return true
	}
	for _, kw := range it.Keywords {
		if strings.Contains(strings.ToLower(kw), lowerQuery) {
			return true
		}
	}
	return false
}

// Get returns one entry by identifier.
func (s *Store) Get(id string) (Item, error) {
	all, err := s.All()
	if err != nil {
		return Item{}, err
	}
	for _, it := range all {
		if it.ID == id {
			return it, nil
		}
	}
	return Item{}, ErrNotFound
}

// Add validates n, assigns an identifier and timestamps, and persists the
// corpus.
func (s *Store) Add(n NewItem) (Item, error) {
	if err := s.validate.Struct(n); err != nil {
		return Item{}, fmt.Errorf("invalid knowledge item: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.load()
	if err != nil {
		return Item{}, err
	}

	now := s.now()
	item := Item{
		ID:        fmt.Sprintf("%s-%s", n.Subject, uuid.NewString()),
		Title:     n.Title,
		Content:   n.Content,
		Subject:   n.Subject,
		Keywords:  append([]string{}, n.Keywords...),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.save(append(all, item)); err != nil {
		return Item{}, err
	}
	return item, nil
}

// Update merges p into the entry with the given identifier and refreshes its
// update time.
func (s *Store) Update(id string, p Patch) (Item, error) {
	if p.Subject != nil && !p.Subject.Valid() {
		return Item{}, fmt.Errorf("invalid knowledge item: unknown subject %q", *p.Subject)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.load()
	if err != nil {
		return Item{}, err
	}

	idx := -1
	for i := range all {
		if all[i].ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		return Item{}, ErrNotFound
	}

	it := all[idx]
	if p.Title != nil {
		it.Title = *p.Title
	}
	if p.Content != nil {
		it.Content = *p.Content
	}
	if p.Subject != nil {
		it.Subject = *p.Subject
	}
	if p.Keywords != nil {
		it.Keywords = append([]string{}, (*p.Keywords)...)
	}
	it.UpdatedAt = s.now()
	all[idx] = it

	if err := s.save(all); err != nil {
		return Item{}, err
	}
	return it, nil
}

// Delete removes an entry and reports whether one was removed.
func (s *Store) Delete(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.load()
	if err != nil {
		return false, err
	}

	kept := all[:0:0]
	for _, it := range all {
		if it.ID != id {
			kept = append(kept, it)
		}
	}
	if len(kept) == len(all) {
		return false, nil
	}
	if err := s.save(kept); err != nil {
		return false, err
	}
	return true, nil
}

// Summary describes the corpus of one subject.
func (s *Store) Summary(subject homework.Subject) (Summary, error) {
	items, err := s.BySubject(subject)
	if err != nil {
		return Summary{}, err
	}
	label := subject.Label()
	return Summary{
		ID:          "kb-" + string(subject),
		Name:        label + "知识库",
		Description: label + "学科相关的知识点、解题方法和学习资源",
		Subject:     subject,
		ItemCount:   len(items),
	}, nil
}

func (s *Store) load() ([]Item, error) {
	raw, ok, err := s.kv.GetValue(StorageKey)
	if err != nil {
		return nil, &PersistenceError{Op: "read", Err: err}
	}
	if !ok || raw == "" {
		return nil, nil
	}
	var items []Item
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, &PersistenceError{Op: "decode", Err: err}
	}
	return items, nil
}

func (s *Store) save(items []Item) error {
	if items == nil {
		items = []Item{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return &PersistenceError{Op: "encode", Err: err}
	}
	if err := s.kv.PutValue(StorageKey, string(data)); err != nil {
		return &PersistenceError{Op: "write", Err: err}
	}
	return nil
}

func filterSubject(items []Item, subject homework.Subject) []Item {
	var out []Item
	for _, it := range items {
		if it.Subject == subject {
			out = append(out, it)
		}
	}
	return out
}
