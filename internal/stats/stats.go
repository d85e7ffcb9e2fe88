// Package stats keeps the running totals shown on the dashboard.
package stats

import (
	"sync"
	"unicode/utf8"

	"github.com/TobiSchelling/SmartGrade/internal/homework"
)

// Tracker accumulates statistics over completed items. It is safe for
// concurrent use.
type Tracker struct {
	mu    sync.Mutex
	stats homework.Statistics
}

// NewTracker returns a tracker with every subject bucket at zero.
func NewTracker() *Tracker {
	return &Tracker{stats: homework.NewStatistics()}
}

// EstimateTokens approximates token usage as the character count of the
// texts exchanged with the services.
func EstimateTokens(texts ...string) int {
	n := 0
	for _, t := range texts {
		n += utf8.RuneCountInString(t)
	}
	return n
}

// Record counts one completed item.
func (t *Tracker) Record(subject homework.Subject, ocrText, correction string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stats.FilesProcessed++
	t.stats.TotalTokensUsed += EstimateTokens(ocrText, correction)
	t.stats.SubjectDistribution[subject]++
}

// Snapshot returns a copy that later updates do not touch.
func (t *Tracker) Snapshot() homework.Statistics {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := t.stats
	out.SubjectDistribution = make(map[homework.Subject]int, len(t.stats.SubjectDistribution))
	for k, v := range t.stats.SubjectDistribution {
		out.SubjectDistribution[k] = v
	}
	return out
}
