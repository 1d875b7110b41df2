package handler

import (
	"context"
	"net/http"
	"sync"

	"github.com/wadjakorntonsri/funnel-gateway/pkg/app"
	"github.com/wadjakorntonsri/funnel-gateway/pkg/config"
	"github.com/wadjakorntonsri/funnel-gateway/pkg/logger"
	"go.uber.org/zap"
)

var (
	once    sync.Once
	mux     http.Handler
	initErr error
)

func setup() {
	cfg := config.Load()

	log, err := logger.New(logger.Options{Level: cfg.LogLevel, Service: "funnel-gateway"})
	if err != nil {
		initErr = err
		return
	}
	if err := cfg.Validate(); err != nil {
		initErr = err
		log.Error("invalid configuration", zap.Error(err))
		return
	}

	// Note: On Vercel, db.sqlite is ephemeral unless DATABASE_URL points at Turso, Redis or Postgres
	a, err := app.New(context.Background(), cfg, log)
	if err != nil {
		initErr = err
		log.Error("startup failed", zap.Error(err))
		return
	}
	mux = a.Handler
}

// Handler is the entrypoint for Vercel
func Handler(w http.ResponseWriter, r *http.Request) {
	once.Do(setup)
	if initErr != nil {
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
		return
	}
	mux.ServeHTTP(w, r)
}
