// Package pipeline runs the OCR and grading steps over a channel's items.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/TobiSchelling/SmartGrade/internal/channel"
	"github.com/TobiSchelling/SmartGrade/internal/homework"
	"github.com/TobiSchelling/SmartGrade/internal/knowledge"
	"github.com/TobiSchelling/SmartGrade/internal/llm"
	"github.com/TobiSchelling/SmartGrade/internal/prompt"
	"github.com/TobiSchelling/SmartGrade/internal/relevance"
	"github.com/TobiSchelling/SmartGrade/internal/stats"
)

// ErrBatchInProgress is returned when a batch is started while another one
// is still running.
var ErrBatchInProgress = errors.New("a batch is already in progress")

// Step labels published while an item is worked on.
const (
	LabelOCR     = "正在识别图片文字..."
	LabelGrading = "正在进行智能批改..."
)

// Ranker picks reference entries for a piece of homework.
type Ranker interface {
	Rank(text string, subject homework.Subject, limit int) ([]knowledge.Item, error)
}

// StepResult holds the result of a single pipeline step.
type StepResult struct {
	Name    string
	Summary string
	Err     error
}

// ItemResult is the outcome of one item in a batch.
type ItemResult struct {
	ItemID  string
	Name    string
	Status  homework.Status
	Skipped bool
	Steps   []StepResult
	Err     error
}

// BatchResult holds the results of one batch run.
type BatchResult struct {
	Subject homework.Subject
	Items   []ItemResult
}

// Completed counts items that finished successfully.
func (r *BatchResult) Completed() int {
	return r.count(homework.StatusCompleted)
}

// Failed counts items that ended in the error state.
func (r *BatchResult) Failed() int {
	return r.count(homework.StatusError)
}

func (r *BatchResult) count(st homework.Status) int {
	n := 0
	for _, it := range r.Items {
		if !it.Skipped && it.Status == st {
			n++
		}
	}
	return n
}

// Options tunes an Orchestrator.
type Options struct {
	// RelevanceLimit caps the reference entries per prompt.
	RelevanceLimit int
	// ItemTimeout bounds OCR plus grading of one item. Zero means no bound.
	ItemTimeout time.Duration
}

// Orchestrator grades the pending items of a channel, one at a time. Only one
// batch runs at any moment across all channels.
type Orchestrator struct {
	ocr    llm.OCR
	grader llm.Grader
	ranker Ranker
	items  *channel.Store
	stats  *stats.Tracker
	opts   Options

	gate       *semaphore.Weighted
	processing atomic.Bool

	mu    sync.Mutex
	label string
}

// New creates an orchestrator. ranker may be nil, in which case prompts carry
// no reference knowledge.
func New(ocr llm.OCR, grader llm.Grader, ranker Ranker, items *channel.Store, tracker *stats.Tracker, opts Options) *Orchestrator {
	if opts.RelevanceLimit <= 0 {
		opts.RelevanceLimit = relevance.DefaultLimit
	}
	return &Orchestrator{
		ocr:    ocr,
		grader: grader,
		ranker: ranker,
		items:  items,
		stats:  tracker,
		opts:   opts,
		gate:   semaphore.NewWeighted(1),
	}
}

// Processing reports whether a batch is running.
func (o *Orchestrator) Processing() bool {
	return o.processing.Load()
}

// StatusLabel returns the step label of the running batch, or "" when idle.
func (o *Orchestrator) StatusLabel() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.label
}

func (o *Orchestrator) setLabel(l string) {
	o.mu.Lock()
	o.label = l
	o.mu.Unlock()
}

// Selectable returns the items of subject that a batch would pick up.
func (o *Orchestrator) Selectable(subject homework.Subject) []homework.Item {
	var out []homework.Item
	for _, it := range o.items.FilterBySubject(subject) {
		if it.Status.Selectable() {
			out = append(out, it)
		}
	}
	return out
}

// RunBatch grades every pending or failed item of subject in order. Item
// failures are recorded on the item and never abort the batch. A cancelled
// ctx stops the batch after the current item.
func (o *Orchestrator) RunBatch(ctx context.Context, subject homework.Subject) (*BatchResult, error) {
	r := &BatchResult{Subject: subject}
	if len(o.Selectable(subject)) == 0 {
		return r, nil
	}

	if !o.gate.TryAcquire(1) {
		return nil, ErrBatchInProgress
	}
	o.processing.Store(true)
	defer func() {
		o.setLabel("")
		o.processing.Store(false)
		o.gate.Release(1)
	}()

	selected := o.Selectable(subject)
	zap.S().Infow("batch started", "subject", subject, "items", len(selected))
	start := time.Now()

	for _, it := range selected {
		if err := ctx.Err(); err != nil {
			zap.S().Warnw("batch cancelled", "subject", subject, "error", err)
			break
		}
		r.Items = append(r.Items, o.processItem(ctx, it))
	}

	zap.S().Infow("batch finished",
		"subject", subject,
		"completed", r.Completed(),
		"failed", r.Failed(),
		"elapsed", time.Since(start).Round(time.Millisecond))
	return r, nil
}

func (o *Orchestrator) processItem(ctx context.Context, it homework.Item) ItemResult {
	res := ItemResult{ItemID: it.ID, Name: it.Name}

	found, err := o.items.UpdateStatus(it.ID, homework.StatusProcessing, nil, "")
	if err != nil || !found {
		res.Skipped = true
		zap.S().Debugw("item gone before processing", "id", it.ID)
		return res
	}
	res.Status = homework.StatusProcessing

	if o.opts.ItemTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.opts.ItemTimeout)
		defer cancel()
	}

	result, err := o.analyze(ctx, it, &res)
	if err != nil {
		res.Err = err
		res.Status = homework.StatusError
		msg := err.Error()
		if _, uerr := o.items.UpdateStatus(it.ID, homework.StatusError, nil, msg); uerr != nil {
			zap.S().Errorw("recording item failure", "id", it.ID, "error", uerr)
		}
		zap.S().Warnw("item failed", "file", it.Name, "error", err)
		return res
	}

	found, err = o.items.UpdateStatus(it.ID, homework.StatusCompleted, result, "")
	if err != nil {
		res.Err = err
		res.Status = homework.StatusError
		return res
	}
	o.stats.Record(it.Subject, result.OCRText, result.Correction)
	res.Status = homework.StatusCompleted
	summary := "result stored"
	if !found {
		summary = "item removed, result discarded"
	}
	res.Steps = append(res.Steps, StepResult{Name: "Commit", Summary: summary})
	zap.S().Infow("item graded", "file", it.Name, "score", scoreLabel(result))
	return res
}

// analyze runs encode, OCR, rank, prompt and grading for one item.
func (o *Orchestrator) analyze(ctx context.Context, it homework.Item, res *ItemResult) (*homework.AnalysisResult, error) {
	step := func(name, summary string, err error) {
		res.Steps = append(res.Steps, StepResult{Name: name, Summary: summary, Err: err})
	}

	img, err := llm.EncodeImage(it.Image)
	if err != nil {
		step("Encode", "", err)
		return nil, err
	}
	step("Encode", fmt.Sprintf("%d bytes", len(it.Image)), nil)

	o.setLabel(LabelOCR)
	text, err := o.ocr.ExtractText(ctx, img)
	if err != nil {
		step("OCR", "", err)
		return nil, err
	}
	step("OCR", fmt.Sprintf("%d characters", stats.EstimateTokens(text)), nil)

	o.setLabel(LabelGrading)
	ranked := o.rank(text, it.Subject)
	step("Rank", fmt.Sprintf("%d reference entries", len(ranked)), nil)

	systemPrompt := prompt.Build(it.Subject, ranked)

	correction, err := o.grader.GradeText(ctx, text, systemPrompt)
	if err != nil {
		step("Grade", "", err)
		return nil, err
	}
	step("Grade", fmt.Sprintf("%d characters", stats.EstimateTokens(correction)), nil)

	return newResult(text, correction), nil
}

func (o *Orchestrator) rank(text string, subject homework.Subject) []knowledge.Item {
	if o.ranker == nil {
		return nil
	}
	ranked, err := o.ranker.Rank(text, subject, o.opts.RelevanceLimit)
	if err != nil {
		zap.S().Warnw("knowledge unavailable, grading without references", "subject", subject, "error", err)
		return nil
	}
	return ranked
}

func newResult(ocrText, correction string) *homework.AnalysisResult {
	r := &homework.AnalysisResult{
		OCRText:    ocrText,
		Correction: correction,
		Feedback:   homework.ExtractFeedback(correction),
	}
	if s, ok := homework.ExtractScore(correction); ok {
		if n, err := strconv.Atoi(s); err == nil {
			r.Score = &n
		}
	}
	return r
}

func scoreLabel(r *homework.AnalysisResult) string {
	if r.Score == nil {
		return "-"
	}
	return strconv.Itoa(*r.Score)
}
