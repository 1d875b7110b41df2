package handler

import (
	"net/http"

	"github.com/wadjakorntonsri/funnel-gateway/pkg/config"
	"github.com/wadjakorntonsri/funnel-gateway/pkg/metrics"
	"github.com/wadjakorntonsri/funnel-gateway/pkg/ports"
	"go.uber.org/zap"
)

// NewRouter creates and configures the main application router
func NewRouter(cfg *config.Config, service ports.GatewayService, auth ports.AdminAuthenticator, m *metrics.Metrics, log *zap.Logger) http.Handler {
	h := NewHTTPHandler(service, cfg.BaseURL, cfg.InterstitialSeconds, log)
	authHandler := NewAuthHandler(auth, cfg.IsProduction(), log)
	mw := NewMiddleware(auth, m, log)

	mux := http.NewServeMux()

	// Public Routes
	mux.HandleFunc("GET /{$}", h.Home)
	mux.HandleFunc("GET /health", h.Health)
	mux.Handle("GET /metrics", m.Handler())
	mux.HandleFunc("GET /go/{slug}", h.Visit)
	mux.HandleFunc("GET /redirect/{slug}", h.Redirect)

	// Admin
	mux.HandleFunc("GET /admin", authHandler.LoginForm)
	mux.HandleFunc("POST /admin/login", authHandler.Login)
	mux.Handle("GET /admin/panel", mw.AuthMiddleware(http.HandlerFunc(h.Panel)))
	mux.Handle("POST /admin/create", mw.AuthMiddleware(http.HandlerFunc(h.Create)))

	return mw.Recover(mw.Observe(mux))
}
