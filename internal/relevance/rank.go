// Package relevance scores knowledge entries against homework text.
package relevance

import (
	"sort"
	"strings"

	"github.com/TobiSchelling/SmartGrade/internal/homework"
	"github.com/TobiSchelling/SmartGrade/internal/knowledge"
)

// DefaultLimit is the number of entries returned when no limit is given.
const DefaultLimit = 3

const (
	titleWeight   = 3
	contentWeight = 2
	keywordWeight = 1
)

// Source supplies the entries of one subject. *knowledge.Store implements it.
type Source interface {
	BySubject(subject homework.Subject) ([]knowledge.Item, error)
}

// Ranker picks the reference entries most related to a piece of homework.
type Ranker struct {
	source Source
}

// NewRanker creates a ranker over source.
func NewRanker(source Source) *Ranker {
	return &Ranker{source: source}
}

// Rank returns at most limit entries of subject with a positive score, best
// first. Equal scores keep corpus order.
func (r *Ranker) Rank(text string, subject homework.Subject, limit int) ([]knowledge.Item, error) {
	items, err := r.source.BySubject(subject)
	if err != nil {
		return nil, err
	}
	return Top(items, text, subject, limit), nil
}

type scored struct {
	item  knowledge.Item
	score int
}

// Top ranks items in memory. Entries of other subjects are ignored.
func Top(items []knowledge.Item, text string, subject homework.Subject, limit int) []knowledge.Item {
	if limit <= 0 {
		limit = DefaultLimit
	}

	lowerText := strings.ToLower(text)
	var candidates []scored
	for _, it := range items {
		if it.Subject != subject {
			continue
		}
		if s := Score(it, lowerText); s > 0 {
			candidates = append(candidates, scored{item: it, score: s})
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	out := make([]knowledge.Item, len(candidates))
	for i, c := range candidates {
		out[i] = c.item
	}
	return out
}

// Score computes the containment score of one entry. The reference text is
// searched for inside the homework text: a title found in it scores 3, the
// whole content 2, and each keyword 1. lowerText must already be lowercased.
func Score(it knowledge.Item, lowerText string) int {
	score := 0
	if contains(lowerText, it.Title) {
		score += titleWeight
	}
	if contains(lowerText, it.Content) {
		score += contentWeight
	}
	for _, kw := range it.Keywords {
		if contains(lowerText, kw) {
			score += keywordWeight
		}
	}
	return score
}

// contains reports whether needle occurs in lowerText. Blank needles never
// match, otherwise every entry would score against every text.
func contains(lowerText, needle string) bool {
	needle = strings.ToLower(strings.TrimSpace(needle))
	if needle == "" {
		return false
	}
	return strings.Contains(lowerText, needle)
}
