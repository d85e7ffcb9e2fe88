package homework

import (
	"fmt"
	"strings"
	"time"
)

// Subject is one of the fixed academic subjects. Every channel, knowledge
// entry and statistics bucket is keyed by a Subject.
type Subject string

const (
	SubjectChinese Subject = "chinese"
	SubjectMath    Subject = "math"
	SubjectEnglish Subject = "english"
)

// Subjects lists every subject in display order.
var Subjects = []Subject{SubjectChinese, SubjectMath, SubjectEnglish}

var subjectLabels = map[Subject]string{
	SubjectChinese: "语文",
	SubjectMath:    "数学",
	SubjectEnglish: "英语",
}

// Label returns the display name used in prompts and reports.
func (s Subject) Label() string {
	if l, ok := subjectLabels[s]; ok {
		return l
	}
	return string(s)
}

// Valid reports whether s is one of the known subjects.
func (s Subject) Valid() bool {
	_, ok := subjectLabels[s]
	return ok
}

// ParseSubject accepts a slug ("math") or a display label ("数学").
func ParseSubject(v string) (Subject, error) {
	v = strings.TrimSpace(v)
	if s := Subject(strings.ToLower(v)); s.Valid() {
		return s, nil
	}
	for s, label := range subjectLabels {
		if label == v {
			return s, nil
		}
	}
	return "", fmt.Errorf("unknown subject %q (want one of chinese, math, english)", v)
}

// Status is the lifecycle state of an uploaded item.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusError      Status = "error"
)

// Valid reports whether st is one of the four lifecycle states.
func (st Status) Valid() bool {
	switch st {
	case StatusPending, StatusProcessing, StatusCompleted, StatusError:
		return true
	default:
		return false
	}
}

// Selectable reports whether a batch run picks up an item in this state.
func (st Status) Selectable() bool {
	switch st {
	case StatusPending, StatusError:
		return true
	case StatusProcessing, StatusCompleted:
		return false
	default:
		return false
	}
}

// AnalysisResult is produced once per successfully graded item.
type AnalysisResult struct {
	OCRText    string `json:"ocrText"`
	Correction string `json:"correction"`
	Score      *int   `json:"score,omitempty"`
	Feedback   string `json:"feedback,omitempty"`
}

// Item is one uploaded homework image bound to a subject channel.
//
// Result is non-nil iff Status is completed and ErrorMessage is non-empty iff
// Status is error; the channel store keeps this invariant on every update.
type Item struct {
	ID           string
	Name         string
	Image        []byte
	Preview      string
	Subject      Subject
	Status       Status
	Result       *AnalysisResult
	ErrorMessage string
	CreatedAt    time.Time
}

// Statistics is the running aggregate over completed items.
type Statistics struct {
	FilesProcessed      int             `json:"filesProcessed"`
	TotalTokensUsed     int             `json:"totalTokensUsed"`
	SubjectDistribution map[Subject]int `json:"subjectDistribution"`
}

// NewStatistics returns zeroed statistics with every subject bucket present.
func NewStatistics() Statistics {
	dist := make(map[Subject]int, len(Subjects))
	for _, s := range Subjects {
		dist[s] = 0
	}
	return Statistics{SubjectDistribution: dist}
}
