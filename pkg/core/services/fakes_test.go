package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/wadjakorntonsri/funnel-gateway/pkg/core/domain"
)

// memStore is an in-memory LinkStore guarded by one mutex.
type memStore struct {
	mu      sync.Mutex
	links   map[string]*domain.Link
	order   []string
	nextID  int64
	creates int
	failErr error
}

func newMemStore() *memStore {
	return &memStore{links: make(map[string]*domain.Link)}
}

func (m *memStore) Create(_ context.Context, slug, target string) (*domain.Link, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creates++
	if m.failErr != nil {
		return nil, m.failErr
	}
	if _, ok := m.links[slug]; ok {
		return nil, domain.ErrDuplicateSlug
	}
	m.nextID++
	l := &domain.Link{ID: m.nextID, Slug: slug, Target: target, CreatedAt: time.Now().UTC()}
	m.links[slug] = l
	m.order = append(m.order, slug)
	cp := *l
	return &cp, nil
}

func (m *memStore) FindBySlug(_ context.Context, slug string) (*domain.Link, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.links[slug]
	if !ok {
		return nil, domain.ErrLinkNotFound
	}
	cp := *l
	return &cp, nil
}

func (m *memStore) IncrementClicks(_ context.Context, slug string) (*domain.Link, error) {
	return m.bump(slug, func(l *domain.Link) { l.Clicks++ })
}

func (m *memStore) IncrementCompleted(_ context.Context, slug string) (*domain.Link, error) {
	return m.bump(slug, func(l *domain.Link) { l.Completed++ })
}

func (m *memStore) bump(slug string, f func(*domain.Link)) (*domain.Link, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return nil, m.failErr
	}
	l, ok := m.links[slug]
	if !ok {
		return nil, domain.ErrLinkNotFound
	}
	f(l)
	cp := *l
	return &cp, nil
}

func (m *memStore) ListAll(_ context.Context) ([]domain.Link, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return nil, m.failErr
	}
	out := make([]domain.Link, 0, len(m.order))
	for _, s := range m.order {
		out = append(out, *m.links[s])
	}
	return out, nil
}

func (m *memStore) Ping(context.Context) error { return nil }
func (m *memStore) Close() error               { return nil }

// scriptedGenerator returns its slugs in order, then repeats the last one.
type scriptedGenerator struct {
	mu    sync.Mutex
	slugs []string
	calls int
}

func (g *scriptedGenerator) NewSlug() (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	i := g.calls
	g.calls++
	if len(g.slugs) == 0 {
		return "", errors.New("no slugs scripted")
	}
	if i >= len(g.slugs) {
		i = len(g.slugs) - 1
	}
	return g.slugs[i], nil
}
