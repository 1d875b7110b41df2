package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/wadjakorntonsri/funnel-gateway/pkg/adapters/handler"
	"github.com/wadjakorntonsri/funnel-gateway/pkg/adapters/repository"
	"github.com/wadjakorntonsri/funnel-gateway/pkg/config"
	"github.com/wadjakorntonsri/funnel-gateway/pkg/core/services"
	"github.com/wadjakorntonsri/funnel-gateway/pkg/metrics"
	"github.com/wadjakorntonsri/funnel-gateway/pkg/ports"
	"go.uber.org/zap"
)

// App is the process-wide object graph. It is built once and closed once.
type App struct {
	Config  *config.Config
	Store   ports.LinkStore
	Gateway *services.GatewayService
	Auth    *services.AdminAuth
	Metrics *metrics.Metrics
	Handler http.Handler
}

// New opens the store selected by cfg.DatabaseURL and wires the services and router.
func New(ctx context.Context, cfg *config.Config, log *zap.Logger) (*App, error) {
	store, err := repository.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", repository.Backend(cfg.DatabaseURL), err)
	}

	a, err := NewWithStore(cfg, store, log)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	return a, nil
}

// NewWithStore wires everything around an already open store.
func NewWithStore(cfg *config.Config, store ports.LinkStore, log *zap.Logger) (*App, error) {
	m := metrics.New()

	auth, err := services.NewAdminAuth(services.AdminAuthOptions{
		Password:     cfg.AdminPassword,
		PasswordHash: cfg.AdminPasswordHash,
		Secret:       []byte(cfg.JWTSecret),
	}, m, log)
	if err != nil {
		return nil, err
	}

	alloc := services.NewSlugAllocator(store, services.NewRandomSlugGenerator(cfg.SlugLength), cfg.SlugMaxAttempts, m, log)
	gateway := services.NewGatewayService(store, alloc, services.GatewayOptions{
		BaseURL: cfg.BaseURL,
		HomeURL: cfg.HomeURL,
	}, m, log)

	return &App{
		Config:  cfg,
		Store:   store,
		Gateway: gateway,
		Auth:    auth,
		Metrics: m,
		Handler: handler.NewRouter(cfg, gateway, auth, m, log),
	}, nil
}

func (a *App) Close() error {
	return a.Store.Close()
}
