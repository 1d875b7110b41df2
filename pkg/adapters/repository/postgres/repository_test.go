package postgres

import (
	"os"
	"testing"

	"github.com/wadjakorntonsri/funnel-gateway/pkg/adapters/repository/storetest"
	"github.com/wadjakorntonsri/funnel-gateway/pkg/ports"
)

// Runs only against a live database, e.g.
// POSTGRES_TEST_DSN="host=localhost user=postgres password=postgres dbname=funnel_test sslmode=disable"
func TestPostgresRepositoryContract(t *testing.T) {
	dsn := os.Getenv("POSTGRES_TEST_DSN")
	if dsn == "" {
		t.Skip("POSTGRES_TEST_DSN not set")
	}

	storetest.Run(t, func(t *testing.T) ports.LinkStore {
		repo, err := NewPostgresRepository(dsn)
		if err != nil {
			t.Fatalf("NewPostgresRepository: %v", err)
		}
		if err := repo.db.Exec("TRUNCATE links RESTART IDENTITY").Error; err != nil {
			t.Fatalf("truncate: %v", err)
		}
		t.Cleanup(func() { _ = repo.Close() })
		return repo
	})
}
