package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/wadjakorntonsri/funnel-gateway/pkg/adapters/repository/storetest"
	"github.com/wadjakorntonsri/funnel-gateway/pkg/ports"
)

func newMiniRepo(t *testing.T) (*RedisRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	repo := NewRepository(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "test:")
	t.Cleanup(func() { _ = repo.Close() })
	return repo, mr
}

func TestRedisRepositoryContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) ports.LinkStore {
		repo, _ := newMiniRepo(t)
		return repo
	})
}

func TestRedisRepositoryKeyLayout(t *testing.T) {
	repo, mr := newMiniRepo(t)
	ctx := context.Background()

	if _, err := repo.Create(ctx, "KEY001", "https://example.com"); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := repo.IncrementClicks(ctx, "KEY001"); err != nil {
		t.Fatalf("IncrementClicks: %v", err)
	}

	if got := mr.HGet("test:link:KEY001", "clicks"); got != "1" {
		t.Errorf("clicks field = %q, want 1", got)
	}
	if got, _ := mr.Get("test:link:seq"); got != "1" {
		t.Errorf("sequence = %q, want 1", got)
	}
	members, err := mr.ZMembers("test:links")
	if err != nil || len(members) != 1 || members[0] != "KEY001" {
		t.Errorf("index members = %v (err %v)", members, err)
	}
}

func TestNewRedisRepositoryFromURL(t *testing.T) {
	mr := miniredis.RunT(t)
	repo, err := NewRedisRepository(context.Background(), "redis://"+mr.Addr()+"/0")
	if err != nil {
		t.Fatalf("NewRedisRepository: %v", err)
	}
	defer repo.Close()

	if err := repo.Ping(context.Background()); err != nil {
		t.Errorf("Ping: %v", err)
	}

	if _, err := NewRedisRepository(context.Background(), "not a url"); err == nil {
		t.Error("expected error for malformed url")
	}
}
