package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/wadjakorntonsri/funnel-gateway/pkg/core/domain"
	"github.com/wadjakorntonsri/funnel-gateway/pkg/metrics"
	"github.com/wadjakorntonsri/funnel-gateway/pkg/ports"
	"github.com/wadjakorntonsri/funnel-gateway/pkg/tracing"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	TokenIssuer       = "funnel-gateway"
	adminSubject      = "admin"
	DefaultSessionTTL = 24 * time.Hour
)

type AdminAuthOptions struct {
	Password     string // plaintext, hashed once at construction
	PasswordHash string // bcrypt hash; wins over Password when set
	Secret       []byte // HMAC key; random when empty
	TTL          time.Duration
	Cost         int // bcrypt cost for Password, 0 means bcrypt.DefaultCost
}

// AdminAuth is the single-password gate in front of the admin surface.
// Credentials are HS256 JWTs that carry nothing but an id and an expiry.
type AdminAuth struct {
	hash    []byte
	secret  []byte
	ttl     time.Duration
	now     func() time.Time
	metrics *metrics.Metrics
	log     *zap.Logger
}

func NewAdminAuth(opts AdminAuthOptions, m *metrics.Metrics, log *zap.Logger) (*AdminAuth, error) {
	var hash []byte
	switch {
	case opts.PasswordHash != "":
		hash = []byte(opts.PasswordHash)
		if _, err := bcrypt.Cost(hash); err != nil {
			return nil, fmt.Errorf("admin password hash: %w", err)
		}
	case opts.Password != "":
		cost := opts.Cost
		if cost == 0 {
			cost = bcrypt.DefaultCost
		}
		h, err := bcrypt.GenerateFromPassword([]byte(opts.Password), cost)
		if err != nil {
			return nil, fmt.Errorf("hash admin password: %w", err)
		}
		hash = h
	default:
		return nil, errors.New("admin password is not configured")
	}

	secret := opts.Secret
	if len(secret) == 0 {
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return nil, fmt.Errorf("generate signing secret: %w", err)
		}
		log.Warn("JWT_SECRET not set, admin sessions will not survive a restart")
	}

	ttl := opts.TTL
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}

	return &AdminAuth{
		hash:    hash,
		secret:  secret,
		ttl:     ttl,
		now:     time.Now,
		metrics: m,
		log:     log,
	}, nil
}

func (a *AdminAuth) Login(ctx context.Context, password string) (*domain.AdminSession, error) {
	_, span := tracing.Tracer().Start(ctx, "admin_login")
	defer span.End()

	if err := bcrypt.CompareHashAndPassword(a.hash, []byte(password)); err != nil {
		a.metrics.AdminLogin(metrics.ResultDenied)
		a.log.Warn("admin login rejected")
		return nil, domain.ErrForbidden
	}

	now := a.now()
	expiresAt := now.Add(a.ttl)
	claims := jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   adminSubject,
		Issuer:    TokenIssuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		a.metrics.AdminLogin(metrics.ResultError)
		recordError(span, err)
		return nil, fmt.Errorf("sign admin token: %w", err)
	}

	a.metrics.AdminLogin(metrics.ResultOK)
	a.log.Info("admin login", zap.String("jti", claims.ID))
	return &domain.AdminSession{Token: token, ExpiresAt: expiresAt}, nil
}

// Authorize accepts only unexpired tokens this instance signed.
func (a *AdminAuth) Authorize(token string) error {
	if token == "" {
		return domain.ErrForbidden
	}
	_, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		return a.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(TokenIssuer),
		jwt.WithSubject(adminSubject),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil {
		a.log.Debug("admin credential rejected", zap.Error(err))
		return domain.ErrForbidden
	}
	return nil
}

func (a *AdminAuth) TTL() time.Duration { return a.ttl }

// Ensure interface compliance
var _ ports.AdminAuthenticator = (*AdminAuth)(nil)
