package services

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/wadjakorntonsri/funnel-gateway/pkg/core/domain"
	"github.com/wadjakorntonsri/funnel-gateway/pkg/metrics"
	"go.uber.org/zap/zaptest"
)

var slugPattern = regexp.MustCompile(`^[A-Z0-9]{6}$`)

func TestRandomSlugGenerator(t *testing.T) {
	gen := NewRandomSlugGenerator(0)
	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		slug, err := gen.NewSlug()
		if err != nil {
			t.Fatalf("NewSlug: %v", err)
		}
		if !slugPattern.MatchString(slug) {
			t.Fatalf("slug %q does not match %s", slug, slugPattern)
		}
		seen[slug] = true
	}
	// 36^6 possibilities; 200 draws colliding more than once would mean a broken source.
	if len(seen) < 199 {
		t.Errorf("only %d distinct slugs out of 200", len(seen))
	}
}

func TestSlugAllocatorRetriesOnCollision(t *testing.T) {
	store := newMemStore()
	m := metrics.New()
	gen := &scriptedGenerator{slugs: []string{"AAAAAA", "AAAAAA", "AAAAAA", "BBBBBB"}}
	alloc := NewSlugAllocator(store, gen, 10, m, zaptest.NewLogger(t))

	first, err := alloc.Allocate(context.Background(), "https://example.com/1")
	if err != nil {
		t.Fatalf("first Allocate: %v", err)
	}
	second, err := alloc.Allocate(context.Background(), "https://example.com/2")
	if err != nil {
		t.Fatalf("second Allocate: %v", err)
	}

	if first.Slug != "AAAAAA" || second.Slug != "BBBBBB" {
		t.Errorf("slugs = %q, %q; want AAAAAA, BBBBBB", first.Slug, second.Slug)
	}
	if first.Clicks != 0 || first.Completed != 0 {
		t.Errorf("new link counters = %d/%d, want 0/0", first.Clicks, first.Completed)
	}
	want := `
# HELP funnel_slug_collisions_total Slug draws rejected by the store as duplicates
# TYPE funnel_slug_collisions_total counter
funnel_slug_collisions_total 2
`
	if err := testutil.GatherAndCompare(m.Registry(), strings.NewReader(want), "funnel_slug_collisions_total"); err != nil {
		t.Error(err)
	}
}

func TestSlugAllocatorExhausted(t *testing.T) {
	store := newMemStore()
	gen := &scriptedGenerator{slugs: []string{"SAME01"}}
	alloc := NewSlugAllocator(store, gen, 3, metrics.New(), zaptest.NewLogger(t))

	if _, err := alloc.Allocate(context.Background(), "https://example.com"); err != nil {
		t.Fatalf("first Allocate: %v", err)
	}
	_, err := alloc.Allocate(context.Background(), "https://example.com")
	if !errors.Is(err, domain.ErrAllocationExhausted) {
		t.Fatalf("err = %v, want ErrAllocationExhausted", err)
	}
	if store.creates != 4 {
		t.Errorf("store saw %d creates, want 4", store.creates)
	}
}

func TestSlugAllocatorStoreError(t *testing.T) {
	store := newMemStore()
	boom := errors.New("disk on fire")
	store.failErr = boom
	alloc := NewSlugAllocator(store, NewRandomSlugGenerator(6), 5, metrics.New(), zaptest.NewLogger(t))

	_, err := alloc.Allocate(context.Background(), "https://example.com")
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
	if store.creates != 1 {
		t.Errorf("store error must not be retried; creates = %d", store.creates)
	}
}

func TestSlugAllocatorCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	alloc := NewSlugAllocator(newMemStore(), NewRandomSlugGenerator(6), 5, metrics.New(), zaptest.NewLogger(t))

	if _, err := alloc.Allocate(ctx, "https://example.com"); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestSlugAllocatorConcurrentDistinct(t *testing.T) {
	store := newMemStore()
	// Tiny alphabet forces collisions under concurrency.
	gen := &RandomSlugGenerator{Length: 3, Alphabet: "AB"}
	alloc := NewSlugAllocator(store, gen, 1000, metrics.New(), zaptest.NewLogger(t))

	const n = 8 // 2^3 slugs available
	var wg sync.WaitGroup
	slugs := make(chan string, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			link, err := alloc.Allocate(context.Background(), "https://example.com")
			if err != nil {
				t.Errorf("Allocate: %v", err)
				return
			}
			slugs <- link.Slug
		}()
	}
	wg.Wait()
	close(slugs)

	seen := make(map[string]bool)
	for s := range slugs {
		if seen[s] {
			t.Errorf("slug %q handed out twice", s)
		}
		seen[s] = true
	}
	if len(seen) != n {
		t.Errorf("got %d distinct slugs, want %d", len(seen), n)
	}
}
