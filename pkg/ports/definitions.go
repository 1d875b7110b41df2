package ports

import (
	"context"

	"github.com/wadjakorntonsri/funnel-gateway/pkg/core/domain"
)

// LinkStore defines durable storage for links.
// Every mutating call must be a single atomic storage operation.
type LinkStore interface {
	// Create inserts a link with zero counters. Fails with domain.ErrDuplicateSlug
	// if the slug is taken; the check happens inside the insert itself.
	Create(ctx context.Context, slug, target string) (*domain.Link, error)
	FindBySlug(ctx context.Context, slug string) (*domain.Link, error)
	IncrementClicks(ctx context.Context, slug string) (*domain.Link, error)
	IncrementCompleted(ctx context.Context, slug string) (*domain.Link, error)
	ListAll(ctx context.Context) ([]domain.Link, error) // creation order

	Ping(ctx context.Context) error
	Close() error
}

// SlugGenerator draws candidate slugs
type SlugGenerator interface {
	NewSlug() (string, error)
}

// GatewayService defines the visitor transitions and admin link operations
type GatewayService interface {
	Visit(ctx context.Context, slug string) (*domain.Link, error)
	// Complete records a completion and returns where to send the visitor.
	// Unknown slugs resolve to the home location without an error.
	Complete(ctx context.Context, slug string) (string, error)
	CreateLink(ctx context.Context, target string) (*domain.ShortLink, error)
	ListLinks(ctx context.Context) ([]domain.Link, error)
}

// AdminAuthenticator issues and verifies admin credentials
type AdminAuthenticator interface {
	Login(ctx context.Context, password string) (*domain.AdminSession, error)
	Authorize(token string) error
}
