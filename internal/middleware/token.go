package middleware

import (
	"GymFinance/pkg/handlerUtil"
	jwtPkg "GymFinance/pkg/jwt"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"strings"
)

type tokenMiddleware struct {
	secretEnvKey string
}

func newTokenMiddleware() *tokenMiddleware {
	return &tokenMiddleware{secretEnvKey: jwtPkg.AccessTokenSecretEnv}
}

func (m *middleware) unauthorized(ctx *fiber.Ctx) error {
	return handlerUtil.New(m.log).HandleUnauthorized(ctx, m.GetRequestID(ctx), "Unauthorized, access token invalid or expired")
}

func (m *middleware) NewTokenMiddleware(ctx *fiber.Ctx) error {
	requestID := m.GetRequestID(ctx)
	authHeader := ctx.Get("Authorization")

	if authHeader == "" {
		m.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"path":       ctx.Path(),
		}).Warn("Authorization header is missing")
		return m.unauthorized(ctx)
	}

	if !strings.HasPrefix(authHeader, "Bearer ") {
		m.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"path":       ctx.Path(),
		}).Warn("Authorization header format is invalid")
		return m.unauthorized(ctx)
	}

	userToken, err := jwtPkg.VerifyTokenHeader(ctx, m.token.secretEnvKey)
	if err != nil {
		m.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Warn("Token verification failed")
		return m.unauthorized(ctx)
	}

	user, err := jwtPkg.UserFromClaims(userToken)
	if err != nil {
		m.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Warn("Token claims check")
		return m.unauthorized(ctx)
	}
	ctx.Locals("user", user)

	m.log.WithFields(logrus.Fields{
		"request_id": requestID,
		"user_id":    user.ID,
	}).Debug("Authentication successful")
	return ctx.Next()
}
