package schedule

import (
	"context"
	"sync"
	"time"
)

// Task is a delayed callback with its own cancellation context.
type Task struct {
	group  *Group
	ctx    context.Context
	cancel context.CancelFunc
	timer  Timer
	done   chan struct{}
	once   sync.Once
}

// Context is cancelled when the task is cancelled, its group closes, or it has run.
func (t *Task) Context() context.Context {
	return t.ctx
}

// Done is closed once the task either ran or was cancelled.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Cancel stops the task. It reports whether the callback was prevented from
// starting. The context is cancelled either way, so a callback that already
// fired but has not yet acquired its caller's lock can still observe it.
func (t *Task) Cancel() bool {
	if t == nil {
		return false
	}
	t.cancel()
	g := t.group
	g.mu.Lock()
	_, live := g.tasks[t]
	delete(g.tasks, t)
	g.mu.Unlock()
	if !live {
		return false
	}
	if t.timer != nil {
		t.timer.Stop()
	}
	t.finish()
	return true
}

func (t *Task) fire(fn func(context.Context)) {
	g := t.group
	g.mu.Lock()
	_, live := g.tasks[t]
	delete(g.tasks, t)
	g.mu.Unlock()
	defer t.finish()
	if !live || t.ctx.Err() != nil {
		return
	}
	fn(t.ctx)
	t.cancel()
}

func (t *Task) finish() {
	t.once.Do(func() { close(t.done) })
}

// Group tracks the pending tasks of one owner (a visitor session). Closing the
// group cancels everything still waiting.
type Group struct {
	clock  Clock
	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	tasks  map[*Task]struct{}
	closed bool
}

// NewGroup creates a task group bound to parent.
func NewGroup(parent context.Context, clock Clock) *Group {
	if parent == nil {
		parent = context.Background()
	}
	if clock == nil {
		clock = Real()
	}
	ctx, cancel := context.WithCancel(parent)
	return &Group{
		clock:  clock,
		ctx:    ctx,
		cancel: cancel,
		tasks:  make(map[*Task]struct{}),
	}
}

// Clock returns the group's time source.
func (g *Group) Clock() Clock {
	return g.clock
}

// After schedules fn to run once d has elapsed. On a closed group the returned
// task is already done and fn never runs.
func (g *Group) After(d time.Duration, fn func(ctx context.Context)) *Task {
	ctx, cancel := context.WithCancel(g.ctx)
	t := &Task{group: g, ctx: ctx, cancel: cancel, done: make(chan struct{})}

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		cancel()
		t.finish()
		return t
	}
	g.tasks[t] = struct{}{}
	t.timer = g.clock.AfterFunc(d, func() { t.fire(fn) })
	return t
}

// Len reports how many tasks are still pending.
func (g *Group) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.tasks)
}

// Close cancels every pending task and rejects new ones.
func (g *Group) Close() {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return
	}
	g.closed = true
	tasks := make([]*Task, 0, len(g.tasks))
	for t := range g.tasks {
		tasks = append(tasks, t)
	}
	g.mu.Unlock()

	g.cancel()
	for _, t := range tasks {
		t.Cancel()
	}
}
