package schedule

import "sync"

// Queue runs jobs one at a time in the order they were pushed, on a goroutine
// of its own. Push never blocks on a running job.
type Queue struct {
	mu      sync.Mutex
	jobs    []func()
	running bool
	pending sync.WaitGroup
}

// NewQueue creates an empty queue. No goroutine runs while it is idle.
func NewQueue() *Queue {
	return &Queue{}
}

// Push appends fn to the queue.
func (q *Queue) Push(fn func()) {
	if fn == nil {
		return
	}
	q.pending.Add(1)
	q.mu.Lock()
	q.jobs = append(q.jobs, fn)
	if q.running {
		q.mu.Unlock()
		return
	}
	q.running = true
	q.mu.Unlock()
	go q.drain()
}

func (q *Queue) drain() {
	for {
		q.mu.Lock()
		if len(q.jobs) == 0 {
			q.running = false
			q.mu.Unlock()
			return
		}
		fn := q.jobs[0]
		q.jobs[0] = nil
		q.jobs = q.jobs[1:]
		q.mu.Unlock()

		q.run(fn)
	}
}

func (q *Queue) run(fn func()) {
	defer q.pending.Done()
	fn()
}

// Len reports how many jobs are waiting, not counting one that is running.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.jobs)
}

// Wait blocks until every pushed job has finished.
func (q *Queue) Wait() {
	q.pending.Wait()
}
