// Package storetest holds the behavioral checks every ports.LinkStore
// implementation must pass.
package storetest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/wadjakorntonsri/funnel-gateway/pkg/core/domain"
	"github.com/wadjakorntonsri/funnel-gateway/pkg/ports"
)

// Factory returns an empty store; cleanup is registered on t.
type Factory func(t *testing.T) ports.LinkStore

// Run executes the contract against stores produced by newStore.
func Run(t *testing.T, newStore Factory) {
	tests := []struct {
		name string
		fn   func(t *testing.T, s ports.LinkStore)
	}{
		{"CreateStartsAtZero", testCreateStartsAtZero},
		{"DuplicateSlug", testDuplicateSlug},
		{"NotFound", testNotFound},
		{"IncrementsAreIndependent", testIncrementsAreIndependent},
		{"ConcurrentIncrements", testConcurrentIncrements},
		{"ConcurrentCreateSameSlug", testConcurrentCreateSameSlug},
		{"ListAllCreationOrder", testListAllCreationOrder},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.fn(t, newStore(t))
		})
	}
}

func testCreateStartsAtZero(t *testing.T, s ports.LinkStore) {
	ctx := context.Background()
	link, err := s.Create(ctx, "ABC123", "https://example.com/offer")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if link.ID <= 0 {
		t.Errorf("expected positive id, got %d", link.ID)
	}
	if link.Slug != "ABC123" || link.Target != "https://example.com/offer" {
		t.Errorf("unexpected link: %+v", link)
	}
	if link.Clicks != 0 || link.Completed != 0 {
		t.Errorf("expected zero counters, got clicks=%d completed=%d", link.Clicks, link.Completed)
	}
	if link.CreatedAt.IsZero() {
		t.Error("created_at not set")
	}

	found, err := s.FindBySlug(ctx, "ABC123")
	if err != nil {
		t.Fatalf("FindBySlug: %v", err)
	}
	if found.ID != link.ID || found.Target != link.Target {
		t.Errorf("FindBySlug mismatch: %+v vs %+v", found, link)
	}
}

func testDuplicateSlug(t *testing.T, s ports.LinkStore) {
	ctx := context.Background()
	if _, err := s.Create(ctx, "DUP000", "https://a.example"); err != nil {
		t.Fatalf("first Create: %v", err)
	}
	_, err := s.Create(ctx, "DUP000", "https://b.example")
	if !errors.Is(err, domain.ErrDuplicateSlug) {
		t.Fatalf("expected ErrDuplicateSlug, got %v", err)
	}

	found, err := s.FindBySlug(ctx, "DUP000")
	if err != nil {
		t.Fatalf("FindBySlug: %v", err)
	}
	if found.Target != "https://a.example" {
		t.Errorf("duplicate insert changed target to %q", found.Target)
	}
}

func testNotFound(t *testing.T, s ports.LinkStore) {
	ctx := context.Background()

	if _, err := s.FindBySlug(ctx, "NOPE00"); !errors.Is(err, domain.ErrLinkNotFound) {
		t.Errorf("FindBySlug: expected ErrLinkNotFound, got %v", err)
	}
	if _, err := s.IncrementClicks(ctx, "NOPE00"); !errors.Is(err, domain.ErrLinkNotFound) {
		t.Errorf("IncrementClicks: expected ErrLinkNotFound, got %v", err)
	}
	if _, err := s.IncrementCompleted(ctx, "NOPE00"); !errors.Is(err, domain.ErrLinkNotFound) {
		t.Errorf("IncrementCompleted: expected ErrLinkNotFound, got %v", err)
	}

	links, err := s.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if len(links) != 0 {
		t.Errorf("increments on unknown slug created records: %+v", links)
	}
}

func testIncrementsAreIndependent(t *testing.T, s ports.LinkStore) {
	ctx := context.Background()
	if _, err := s.Create(ctx, "CNT000", "https://example.com"); err != nil {
		t.Fatalf("Create: %v", err)
	}

	for i := 1; i <= 3; i++ {
		link, err := s.IncrementClicks(ctx, "CNT000")
		if err != nil {
			t.Fatalf("IncrementClicks: %v", err)
		}
		if link.Clicks != int64(i) || link.Completed != 0 {
			t.Fatalf("after %d clicks got %+v", i, link)
		}
	}

	link, err := s.IncrementCompleted(ctx, "CNT000")
	if err != nil {
		t.Fatalf("IncrementCompleted: %v", err)
	}
	if link.Clicks != 3 || link.Completed != 1 {
		t.Errorf("expected clicks=3 completed=1, got %+v", link)
	}
	if link.Target != "https://example.com" || link.Slug != "CNT000" {
		t.Errorf("increment returned wrong record: %+v", link)
	}
}

func testConcurrentIncrements(t *testing.T, s ports.LinkStore) {
	ctx := context.Background()
	if _, err := s.Create(ctx, "RACE00", "https://example.com"); err != nil {
		t.Fatalf("Create: %v", err)
	}

	const k = 50
	var wg sync.WaitGroup
	errs := make(chan error, 2*k)
	for i := 0; i < k; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			if _, err := s.IncrementClicks(ctx, "RACE00"); err != nil {
				errs <- err
			}
		}()
		go func() {
			defer wg.Done()
			if _, err := s.IncrementCompleted(ctx, "RACE00"); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent increment: %v", err)
	}

	link, err := s.FindBySlug(ctx, "RACE00")
	if err != nil {
		t.Fatalf("FindBySlug: %v", err)
	}
	if link.Clicks != k || link.Completed != k {
		t.Errorf("lost updates: clicks=%d completed=%d, want %d each", link.Clicks, link.Completed, k)
	}
}

func testConcurrentCreateSameSlug(t *testing.T, s ports.LinkStore) {
	ctx := context.Background()

	const n = 20
	var wg sync.WaitGroup
	var mu sync.Mutex
	created, duplicates := 0, 0
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := s.Create(ctx, "SAME00", fmt.Sprintf("https://example.com/%d", i))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				created++
			case errors.Is(err, domain.ErrDuplicateSlug):
				duplicates++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	if created != 1 || duplicates != n-1 {
		t.Errorf("expected exactly one winner, got created=%d duplicates=%d", created, duplicates)
	}
}

func testListAllCreationOrder(t *testing.T, s ports.LinkStore) {
	ctx := context.Background()
	slugs := []string{"ZZZ111", "AAA222", "MMM333"}
	for _, slug := range slugs {
		if _, err := s.Create(ctx, slug, "https://example.com/"+slug); err != nil {
			t.Fatalf("Create %s: %v", slug, err)
		}
	}

	links, err := s.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if len(links) != len(slugs) {
		t.Fatalf("expected %d links, got %d", len(slugs), len(links))
	}
	for i, slug := range slugs {
		if links[i].Slug != slug {
			t.Errorf("position %d: got %s, want %s", i, links[i].Slug, slug)
		}
	}
}
