package shortener

import (
	"context"
	"errors"
	"sync"

	"github.com/sundayezeilo/shortlink/internal/errx"
)

var (
	errNoSuchLink = errors.New("no such link")
	errLinkExists = errors.New("link id already exists")
)

// MemoryRepository is an in-process Repository. It backs tests and the
// memory store driver; nothing survives a restart.
type MemoryRepository struct {
	mu    sync.RWMutex
	links map[string]string
}

var _ Repository = (*MemoryRepository)(nil)

// NewMemoryRepository returns an empty MemoryRepository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{links: make(map[string]string)}
}

func (m *MemoryRepository) Get(ctx context.Context, id string) (Link, error) {
	const op = "shortener.memory.Get"

	if err := ctx.Err(); err != nil {
		return Link{}, errx.E(op, errx.Storage, err)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	target, ok := m.links[id]
	if !ok {
		return Link{}, errx.E(op, errx.NotFound, errNoSuchLink)
	}
	return Link{ID: id, TargetURL: target}, nil
}

func (m *MemoryRepository) Insert(ctx context.Context, link Link) (Link, error) {
	const op = "shortener.memory.Insert"

	if err := ctx.Err(); err != nil {
		return Link{}, errx.E(op, errx.Storage, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.links[link.ID]; ok {
		return Link{}, errx.E(op, errx.Conflict, errLinkExists)
	}
	m.links[link.ID] = link.TargetURL
	return link, nil
}

func (m *MemoryRepository) UpdateTarget(ctx context.Context, id, targetURL string) (int64, error) {
	const op = "shortener.memory.UpdateTarget"

	if err := ctx.Err(); err != nil {
		return 0, errx.E(op, errx.Storage, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.links[id]; !ok {
		return 0, nil
	}
	m.links[id] = targetURL
	return 1, nil
}

// Len returns the number of stored links.
func (m *MemoryRepository) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.links)
}
