package session

import (
	"GymFinance/internal/entity"
	contextPkg "GymFinance/pkg/context"
	jwtPkg "GymFinance/pkg/jwt"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

var ErrNoCredentials = errors.New("no credentials available to establish a session")

type IGuard interface {
	Ensure(ctx context.Context) (context.Context, error)
}

type Option func(*guard)

func WithTTL(ttl time.Duration) Option {
	return func(g *guard) {
		g.ttl = ttl
	}
}

func WithClock(now func() time.Time) Option {
	return func(g *guard) {
		g.now = now
	}
}

// WithServiceAccount sets the principal used when a call arrives without one.
func WithServiceAccount(account entity.UserLoginData) Option {
	return func(g *guard) {
		g.account = account
	}
}

type guard struct {
	log     *logrus.Logger
	secret  []byte
	account entity.UserLoginData
	ttl     time.Duration
	now     func() time.Time

	mu        sync.Mutex
	principal entity.UserLoginData
	expiresAt time.Time
}

func New(log *logrus.Logger, secret string, options ...Option) IGuard {
	g := &guard{
		log:    log,
		secret: []byte(secret),
		account: entity.UserLoginData{
			ID:       "finance-service",
			Email:    "finance-service@localhost",
			Username: "finance-service",
		},
		ttl: 15 * time.Minute,
		now: time.Now,
	}
	for _, option := range options {
		option(g)
	}
	return g
}

// Ensure returns a context carrying an authenticated principal. Callers that
// already carry one pass through untouched; otherwise a service session is
// signed and reused until shortly before it expires.
func (g *guard) Ensure(ctx context.Context) (context.Context, error) {
	if _, ok := contextPkg.GetPrincipal(ctx); ok {
		return ctx, nil
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.principal.ID != "" && g.now().Add(30*time.Second).Before(g.expiresAt) {
		return contextPkg.WithPrincipal(ctx, g.principal), nil
	}

	if len(g.secret) == 0 {
		return ctx, ErrNoCredentials
	}

	expiresAt := g.now().Add(g.ttl)
	token, _, err := jwtPkg.SignWithSecret(map[string]interface{}{
		"id":       g.account.ID,
		"email":    g.account.Email,
		"username": g.account.Username,
	}, expiresAt, g.secret)
	if err != nil {
		return ctx, fmt.Errorf("sign service session: %w", err)
	}

	parsed, err := jwtPkg.ParseToken(token, g.secret)
	if err != nil {
		return ctx, fmt.Errorf("verify service session: %w", err)
	}

	principal, err := jwtPkg.UserFromClaims(parsed)
	if err != nil {
		return ctx, err
	}

	g.principal = principal
	g.expiresAt = expiresAt

	g.log.WithFields(logrus.Fields{
		"request_id": contextPkg.GetRequestID(ctx),
		"principal":  principal.ID,
		"expires_at": expiresAt.Format(time.RFC3339),
	}).Debug("Established service session")

	return contextPkg.WithPrincipal(ctx, principal), nil
}
