package middleware

import (
	"GymFinance/internal/entity"
	"GymFinance/pkg/handlerUtil"
	"GymFinance/pkg/response"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

var (
	ErrTooManyRequests = response.NewError(http.StatusTooManyRequests, "too many requests")
)

const defaultLimiterIdle = 10 * time.Minute

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// rateLimiter keeps one token bucket per client. Buckets untouched for
// idleAfter are dropped.
type rateLimiter struct {
	mu        sync.Mutex
	clients   map[string]*clientLimiter
	rate      rate.Limit
	burstSize int
	idleAfter time.Duration
	lastPrune time.Time
	now       func() time.Time
}

func newRateLimiter(reqRate rate.Limit, burstSize int) *rateLimiter {
	return &rateLimiter{
		clients:   make(map[string]*clientLimiter),
		rate:      reqRate,
		burstSize: burstSize,
		idleAfter: defaultLimiterIdle,
		now:       time.Now,
	}
}

// take spends one token for key. It returns zero when the request may pass,
// or how long the client has to wait otherwise.
func (r *rateLimiter) take(key string) time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	r.prune(now)

	client, ok := r.clients[key]
	if !ok {
		client = &clientLimiter{limiter: rate.NewLimiter(r.rate, r.burstSize)}
		r.clients[key] = client
	}
	client.lastSeen = now

	reservation := client.limiter.ReserveN(now, 1)
	if !reservation.OK() {
		return time.Second
	}
	delay := reservation.DelayFrom(now)
	if delay > 0 {
		reservation.CancelAt(now)
	}
	return delay
}

func (r *rateLimiter) prune(now time.Time) {
	if now.Sub(r.lastPrune) < r.idleAfter {
		return
	}
	r.lastPrune = now

	for key, client := range r.clients {
		if now.Sub(client.lastSeen) >= r.idleAfter {
			delete(r.clients, key)
		}
	}
}

func (r *rateLimiter) size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.clients)
}

// clientKey prefers the authenticated user so clients behind one NAT do not
// share a bucket.
func clientKey(ctx *fiber.Ctx) string {
	if user, ok := ctx.Locals("user").(entity.UserLoginData); ok && user.ID != "" {
		return "user:" + user.ID
	}
	return "ip:" + ctx.IP()
}

func (m *middleware) NewRateLimiter(ctx *fiber.Ctx) error {
	key := clientKey(ctx)

	wait := m.rateLimitter.take(key)
	if wait <= 0 {
		return ctx.Next()
	}

	requestID := m.GetRequestID(ctx)
	m.log.WithFields(logrus.Fields{
		"request_id":  requestID,
		"client":      key,
		"retry_after": wait.String(),
	}).Warn("Too many requests")

	ctx.Set(fiber.HeaderRetryAfter, strconv.Itoa(int(math.Ceil(wait.Seconds()))))
	return handlerUtil.New(m.log).Handle(ctx, requestID, ErrTooManyRequests, ctx.Path(), "rate_limit")
}
