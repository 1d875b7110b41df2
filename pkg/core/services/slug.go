package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"

	"github.com/wadjakorntonsri/funnel-gateway/pkg/core/domain"
	"github.com/wadjakorntonsri/funnel-gateway/pkg/metrics"
	"github.com/wadjakorntonsri/funnel-gateway/pkg/ports"
	"go.uber.org/zap"
)

const (
	SlugAlphabet           = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	DefaultSlugLength      = 6
	DefaultSlugMaxAttempts = 256
)

// RandomSlugGenerator draws each character uniformly from Alphabet.
type RandomSlugGenerator struct {
	Length   int
	Alphabet string
}

func NewRandomSlugGenerator(length int) *RandomSlugGenerator {
	if length < 1 {
		length = DefaultSlugLength
	}
	return &RandomSlugGenerator{Length: length, Alphabet: SlugAlphabet}
}

func (g *RandomSlugGenerator) NewSlug() (string, error) {
	n := big.NewInt(int64(len(g.Alphabet)))
	b := make([]byte, g.Length)
	for i := range b {
		num, err := rand.Int(rand.Reader, n)
		if err != nil {
			return "", err
		}
		b[i] = g.Alphabet[num.Int64()]
	}
	return string(b), nil
}

// SlugAllocator mints links under fresh slugs. The store's insert is the
// uniqueness check; a collision just means another draw.
type SlugAllocator struct {
	store       ports.LinkStore
	gen         ports.SlugGenerator
	maxAttempts int
	metrics     *metrics.Metrics
	log         *zap.Logger
}

func NewSlugAllocator(store ports.LinkStore, gen ports.SlugGenerator, maxAttempts int, m *metrics.Metrics, log *zap.Logger) *SlugAllocator {
	if maxAttempts < 1 {
		maxAttempts = DefaultSlugMaxAttempts
	}
	return &SlugAllocator{store: store, gen: gen, maxAttempts: maxAttempts, metrics: m, log: log}
}

func (a *SlugAllocator) Allocate(ctx context.Context, target string) (*domain.Link, error) {
	for attempt := 1; attempt <= a.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		slug, err := a.gen.NewSlug()
		if err != nil {
			return nil, fmt.Errorf("generate slug: %w", err)
		}

		link, err := a.store.Create(ctx, slug, target)
		if err == nil {
			return link, nil
		}
		if !errors.Is(err, domain.ErrDuplicateSlug) {
			return nil, err
		}

		a.metrics.SlugCollision()
		a.log.Debug("slug collision, retrying",
			zap.String("slug", slug),
			zap.Int("attempt", attempt),
		)
	}
	return nil, fmt.Errorf("%w after %d attempts", domain.ErrAllocationExhausted, a.maxAttempts)
}
