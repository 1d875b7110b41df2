package services

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"github.com/wadjakorntonsri/funnel-gateway/pkg/core/domain"
	"github.com/wadjakorntonsri/funnel-gateway/pkg/metrics"
	"github.com/wadjakorntonsri/funnel-gateway/pkg/ports"
	"github.com/wadjakorntonsri/funnel-gateway/pkg/tracing"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const maxTargetLength = 2048

type GatewayOptions struct {
	BaseURL string // prefix for short URLs, e.g. https://go.example.com
	HomeURL string // where unknown completions land
}

type GatewayService struct {
	store   ports.LinkStore
	alloc   *SlugAllocator
	baseURL string
	homeURL string
	metrics *metrics.Metrics
	log     *zap.Logger
}

func NewGatewayService(store ports.LinkStore, alloc *SlugAllocator, opts GatewayOptions, m *metrics.Metrics, log *zap.Logger) *GatewayService {
	home := opts.HomeURL
	if home == "" {
		home = "/"
	}
	return &GatewayService{
		store:   store,
		alloc:   alloc,
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		homeURL: home,
		metrics: m,
		log:     log,
	}
}

// Visit counts the first stage of the funnel. Every call counts.
func (s *GatewayService) Visit(ctx context.Context, slug string) (*domain.Link, error) {
	ctx, span := tracing.Tracer().Start(ctx, "visit", trace.WithAttributes(attribute.String("funnel.slug", slug)))
	defer span.End()

	link, err := s.store.IncrementClicks(ctx, slug)
	switch {
	case errors.Is(err, domain.ErrLinkNotFound):
		s.metrics.Visit(metrics.ResultNotFound)
		return nil, err
	case err != nil:
		s.metrics.Visit(metrics.ResultError)
		recordError(span, err)
		return nil, err
	}

	s.metrics.Visit(metrics.ResultOK)
	span.SetAttributes(attribute.Int64("funnel.clicks", link.Clicks))
	return link, nil
}

// Complete counts the second stage and returns the destination. Unknown
// slugs go home instead of failing.
func (s *GatewayService) Complete(ctx context.Context, slug string) (string, error) {
	ctx, span := tracing.Tracer().Start(ctx, "complete", trace.WithAttributes(attribute.String("funnel.slug", slug)))
	defer span.End()

	link, err := s.store.IncrementCompleted(ctx, slug)
	switch {
	case errors.Is(err, domain.ErrLinkNotFound):
		s.metrics.Completion(metrics.ResultNotFound)
		return s.homeURL, nil
	case err != nil:
		s.metrics.Completion(metrics.ResultError)
		recordError(span, err)
		return "", err
	}

	s.metrics.Completion(metrics.ResultOK)
	return link.Target, nil
}

func (s *GatewayService) CreateLink(ctx context.Context, target string) (*domain.ShortLink, error) {
	ctx, span := tracing.Tracer().Start(ctx, "create_link")
	defer span.End()

	target, err := ValidateTarget(target)
	if err != nil {
		return nil, err
	}

	link, err := s.alloc.Allocate(ctx, target)
	if err != nil {
		recordError(span, err)
		return nil, err
	}

	s.metrics.LinkCreated()
	span.SetAttributes(attribute.String("funnel.slug", link.Slug))
	s.log.Info("link created",
		zap.Int64("id", link.ID),
		zap.String("slug", link.Slug),
		zap.String("target", link.Target),
	)
	return &domain.ShortLink{Link: *link, ShortURL: s.ShortURL(link.Slug)}, nil
}

func (s *GatewayService) ListLinks(ctx context.Context) ([]domain.Link, error) {
	ctx, span := tracing.Tracer().Start(ctx, "list_links")
	defer span.End()

	links, err := s.store.ListAll(ctx)
	if err != nil {
		recordError(span, err)
		return nil, err
	}
	return links, nil
}

func (s *GatewayService) ShortURL(slug string) string {
	return s.baseURL + "/go/" + slug
}

// ValidateTarget trims raw and accepts only absolute http(s) URLs with a host.
func ValidateTarget(raw string) (string, error) {
	target := strings.TrimSpace(raw)
	if target == "" || len(target) > maxTargetLength {
		return "", domain.ErrInvalidTarget
	}
	u, err := url.Parse(target)
	if err != nil {
		return "", domain.ErrInvalidTarget
	}
	scheme := strings.ToLower(u.Scheme)
	if (scheme != "http" && scheme != "https") || u.Host == "" {
		return "", domain.ErrInvalidTarget
	}
	return target, nil
}

func recordError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// Ensure interface compliance
var _ ports.GatewayService = (*GatewayService)(nil)
