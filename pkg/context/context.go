package context

import (
	"GymFinance/internal/entity"
	"context"
	"github.com/gofiber/fiber/v2"
)

const RequestIDKey = "request_id"

type principalKey struct{}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

func GetRequestID(ctx context.Context) string {
	requestID, ok := ctx.Value(RequestIDKey).(string)
	if !ok || requestID == "" {
		return "unknown"
	}
	return requestID
}

// WithPrincipal attaches the authenticated caller to ctx.
func WithPrincipal(ctx context.Context, principal entity.UserLoginData) context.Context {
	return context.WithValue(ctx, principalKey{}, principal)
}

func GetPrincipal(ctx context.Context) (entity.UserLoginData, bool) {
	principal, ok := ctx.Value(principalKey{}).(entity.UserLoginData)
	if !ok || principal.ID == "" {
		return entity.UserLoginData{}, false
	}
	return principal, true
}

func FromFiberCtx(c *fiber.Ctx) context.Context {
	ctx := context.Background()

	requestID, ok := c.Locals("X-Request-ID").(string)
	if !ok || requestID == "" {
		requestID = c.Get("X-Request-ID")

		if requestID == "" {
			requestID = "unknown"
		}
	}

	ctx = WithRequestID(ctx, requestID)

	if user, ok := c.Locals("user").(entity.UserLoginData); ok {
		ctx = WithPrincipal(ctx, user)
	}

	return ctx
}
