// Package workspace is the session facade used by presentation code: it
// tracks which channel is open and forwards uploads and batch runs.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/TobiSchelling/SmartGrade/internal/channel"
	"github.com/TobiSchelling/SmartGrade/internal/homework"
	"github.com/TobiSchelling/SmartGrade/internal/pipeline"
	"github.com/TobiSchelling/SmartGrade/internal/stats"
)

// View is the screen the session is on.
type View string

const (
	ViewHome      View = "home"
	ViewWorkspace View = "workspace"
)

// ErrBusy is returned by GoHome while a batch is running.
var ErrBusy = errors.New("a batch is running")

// Workspace holds the session state shared by all channels.
type Workspace struct {
	items *channel.Store
	orch  *pipeline.Orchestrator
	stats *stats.Tracker

	mu      sync.Mutex
	view    View
	subject homework.Subject
}

// New creates a workspace on the home view with the first subject selected.
func New(items *channel.Store, orch *pipeline.Orchestrator, tracker *stats.Tracker) *Workspace {
	return &Workspace{
		items:   items,
		orch:    orch,
		stats:   tracker,
		view:    ViewHome,
		subject: homework.Subjects[0],
	}
}

// EnterChannel opens the channel of subject.
func (w *Workspace) EnterChannel(subject homework.Subject) error {
	if !subject.Valid() {
		return fmt.Errorf("unknown subject %q", subject)
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.subject = subject
	w.view = ViewWorkspace
	return nil
}

// GoHome returns to the channel overview. It is refused while a batch runs.
func (w *Workspace) GoHome() error {
	if w.orch.Processing() {
		return ErrBusy
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.view = ViewHome
	return nil
}

// View returns the current screen.
func (w *Workspace) View() View {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.view
}

// CurrentSubject returns the selected subject.
func (w *Workspace) CurrentSubject() homework.Subject {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.subject
}

// AddFiles binds uploads to subject. Files keep that subject even if the
// user switches channels later.
func (w *Workspace) AddFiles(files []channel.Upload, subject homework.Subject) ([]homework.Item, error) {
	if !subject.Valid() {
		return nil, fmt.Errorf("unknown subject %q", subject)
	}
	return w.items.Add(files, subject), nil
}

// RemoveFile drops an item, whatever its status.
func (w *Workspace) RemoveFile(id string) bool {
	return w.items.Remove(id)
}

// Items returns the items of the open channel.
func (w *Workspace) Items() []homework.Item {
	return w.items.FilterBySubject(w.CurrentSubject())
}

// RunBatch grades the pending items of the open channel.
func (w *Workspace) RunBatch(ctx context.Context) (*pipeline.BatchResult, error) {
	return w.orch.RunBatch(ctx, w.CurrentSubject())
}

// CurrentStatusLabel returns the step label of the running batch.
func (w *Workspace) CurrentStatusLabel() string {
	return w.orch.StatusLabel()
}

// Processing reports whether a batch is running.
func (w *Workspace) Processing() bool {
	return w.orch.Processing()
}

// Stats returns a snapshot of the running totals.
func (w *Workspace) Stats() homework.Statistics {
	return w.stats.Snapshot()
}
