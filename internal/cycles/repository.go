package cycles

import (
	"context"
	"sync"
)

// Repository stores cycles. Implementations return copies, so callers may
// keep what they get without holding a lock.
type Repository interface {
	Create(ctx context.Context, c *Cycle) error
	Get(ctx context.Context, id string) (*Cycle, error)
	List(ctx context.Context) ([]*Cycle, error)
	AppendMessages(ctx context.Context, id string, msgs ...Message) (*Cycle, error)
	SetGitHubLink(ctx context.Context, id string, link GitHubLink) (*Cycle, error)
}

// InMemoryRepository keeps cycles in process memory, in creation order.
type InMemoryRepository struct {
	mu     sync.RWMutex
	cycles map[string]*Cycle
	order  []string
}

// NewInMemoryRepository creates an empty repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{cycles: make(map[string]*Cycle)}
}

func (r *InMemoryRepository) Create(_ context.Context, c *Cycle) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.cycles[c.ID]; !ok {
		r.order = append(r.order, c.ID)
	}
	r.cycles[c.ID] = c.clone()
	return nil
}

func (r *InMemoryRepository) Get(_ context.Context, id string) (*Cycle, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.cycles[id]
	if !ok {
		return nil, ErrCycleNotFound
	}
	return c.clone(), nil
}

func (r *InMemoryRepository) List(_ context.Context) ([]*Cycle, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Cycle, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.cycles[id].clone())
	}
	return out, nil
}

func (r *InMemoryRepository) AppendMessages(_ context.Context, id string, msgs ...Message) (*Cycle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.cycles[id]
	if !ok {
		return nil, ErrCycleNotFound
	}
	c.Messages = append(c.Messages, msgs...)
	return c.clone(), nil
}

func (r *InMemoryRepository) SetGitHubLink(_ context.Context, id string, link GitHubLink) (*Cycle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.cycles[id]
	if !ok {
		return nil, ErrCycleNotFound
	}
	c.GitHubLink = &link
	return c.clone(), nil
}
