package session

import (
	"context"
	"sync"
	"time"

	"github.com/wolfman30/chispart-landing/internal/page"
	"github.com/wolfman30/chispart-landing/internal/schedule"
	"github.com/wolfman30/chispart-landing/pkg/logging"
)

// Sink receives the element-tree patches produced by each handler run.
type Sink interface {
	Push(patches []page.Patch) error
}

// Session is one page load of a visitor: the shared state record, the element
// tree, the transient widgets the controllers own, and the delayed tasks they
// started. ID names the page load; VisitorID is the namespace for anything
// stored on the visitor's behalf and is shared by all of their tabs.
//
// Handlers run through Do and timer callbacks through After; both hold the
// session lock, so every state change happens within one uninterrupted call.
type Session struct {
	ID        string
	VisitorID string
	Page  *page.Document
	State State

	Overlay   page.Slot
	Tooltip   page.Slot
	Highlight page.Slot
	Toast     page.Slot

	// TourSettle is the pending highlight/tooltip draw of the current tour step.
	TourSettle *schedule.Task
	// Payment is the pending mocked charge.
	Payment *schedule.Task

	Logger *logging.Logger

	mu       sync.Mutex
	tasks    *schedule.Group
	writes   *schedule.Queue
	clock    schedule.Clock
	sink     Sink
	lastSeen time.Time
	closed   bool
}

// New creates a session around doc. VisitorID defaults to id.
func New(id string, doc *page.Document, clock schedule.Clock, logger *logging.Logger) *Session {
	if doc == nil {
		doc = page.New()
	}
	if clock == nil {
		clock = schedule.Real()
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Session{
		ID:        id,
		VisitorID: id,
		Page:      doc,
		State:     State{Stage: StageBrowsing},
		Logger:    logger.With("session_id", id),
		tasks:     schedule.NewGroup(context.Background(), clock),
		writes:    schedule.NewQueue(),
		clock:     clock,
		lastSeen:  clock.Now(),
	}
}

// Do runs fn with the session locked and pushes the resulting patches.
// It is a no-op on a closed session.
func (s *Session) Do(fn func(*Session)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.lastSeen = s.clock.Now()
	fn(s)
	s.flushLocked()
}

// After schedules fn to run with the session locked once d has elapsed.
// The task is cancelled if the session closes first. Call it from inside a
// handler; it does not take the lock itself.
func (s *Session) After(d time.Duration, fn func(*Session)) *schedule.Task {
	return s.tasks.After(d, func(ctx context.Context) {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.closed || ctx.Err() != nil {
			return
		}
		fn(s)
		s.flushLocked()
	})
}

// Background runs fn without the session lock, after every job queued before
// it. Use it for storage I/O started by a handler; fn must not touch the page
// or the state. Queued jobs still run after Close.
func (s *Session) Background(fn func()) {
	s.writes.Push(fn)
}

// WaitBackground blocks until every queued background job has finished.
func (s *Session) WaitBackground() {
	s.writes.Wait()
}

// Now reads the session clock.
func (s *Session) Now() time.Time {
	return s.clock.Now()
}

// Attach routes future patches to sink and returns the current page so the
// client can start from a full render. Patches produced while detached are
// dropped since the snapshot supersedes them.
func (s *Session) Attach(sink Sink) *page.Node {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sink = sink
	s.lastSeen = s.clock.Now()
	s.Page.Drain()
	return s.Page.Snapshot()
}

// Detach stops pushing to sink if it is still the attached one.
func (s *Session) Detach(sink Sink) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sink == sink {
		s.sink = nil
	}
}

// Touch marks the session as active.
func (s *Session) Touch() {
	s.mu.Lock()
	s.lastSeen = s.clock.Now()
	s.mu.Unlock()
}

// LastSeen returns the time of the last handler run or touch.
func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// Snapshot copies the state record.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.State.Clone()
}

// Render returns the current page and state together, for clients that poll
// instead of holding a channel open.
func (s *Session) Render() (*page.Node, State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = s.clock.Now()
	return s.Page.Snapshot(), s.State.Clone()
}

// PendingTasks reports how many delayed effects are still waiting.
func (s *Session) PendingTasks() int {
	return s.tasks.Len()
}

// Close cancels every pending task and detaches the sink. Later Do calls are ignored.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.sink = nil
	s.mu.Unlock()
	s.tasks.Close()
}

// Closed reports whether Close was called.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Session) flushLocked() {
	patches := s.Page.Drain()
	if len(patches) == 0 || s.sink == nil {
		return
	}
	if err := s.sink.Push(patches); err != nil {
		s.Logger.Debug("session: push failed, detaching sink", "error", err)
		s.sink = nil
	}
}
