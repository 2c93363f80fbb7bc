package jwtPkg

import (
	"GymFinance/internal/entity"
	"errors"
	"fmt"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	"os"
	"strings"
	"time"
)

const AccessTokenSecretEnv = "JWT_ACCESS_TOKEN_SECRET"

var ErrMissingClaims = errors.New("token claims are missing required fields")

func Sign(Data map[string]interface{}, ExpiredAt time.Duration) (string, int64, error) {
	JWTSecretKey := os.Getenv(AccessTokenSecretEnv)
	if JWTSecretKey == "" {
		return "", 0, fmt.Errorf("%s not set", AccessTokenSecretEnv)
	}

	return SignWithSecret(Data, time.Now().Add(ExpiredAt), []byte(JWTSecretKey))
}

func SignWithSecret(data map[string]interface{}, expiresAt time.Time, secret []byte) (string, int64, error) {
	if len(secret) == 0 {
		return "", 0, errors.New("JWT secret not configured")
	}

	claims := jwt.MapClaims{}
	claims["exp"] = expiresAt.Unix()
	claims["authorization"] = true

	for i, v := range data {
		claims[i] = v
	}

	logrus.WithField("claim_count", len(claims)).Debug("Creating token with claims")

	to := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	accessToken, err := to.SignedString(secret)
	if err != nil {
		logrus.WithError(err).Error("Failed to sign token")
		return "", 0, err
	}

	return accessToken, expiresAt.Unix(), nil
}

func ParseToken(accessToken string, secret []byte) (*jwt.Token, error) {
	if len(secret) == 0 {
		return nil, errors.New("JWT secret not configured")
	}

	return jwt.Parse(accessToken, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	})
}

func VerifyTokenHeader(c *fiber.Ctx, secretEnvKey string) (*jwt.Token, error) {
	log := logrus.WithField("func", "VerifyTokenHeader")

	header := c.Get("Authorization")
	if header == "" {
		log.Error("Empty Authorization header")
		return nil, errors.New("empty Authorization header")
	}

	parts := strings.Split(header, "Bearer ")
	if len(parts) != 2 {
		log.WithField("header_parts", len(parts)).Error("Invalid Authorization format")
		return nil, errors.New("invalid Authorization format")
	}

	accessToken := strings.TrimSpace(parts[1])
	if accessToken == "" {
		log.Error("Empty token after Bearer")
		return nil, errors.New("empty token")
	}

	token, err := ParseToken(accessToken, []byte(os.Getenv(secretEnvKey)))
	if err != nil {
		log.WithError(err).Error("Failed to parse JWT token")
		return nil, err
	}

	log.Debug("Token successfully verified")
	return token, nil
}

// UserFromClaims extracts the login data carried by a verified token.
func UserFromClaims(token *jwt.Token) (entity.UserLoginData, error) {
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return entity.UserLoginData{}, ErrMissingClaims
	}

	id, _ := claims["id"].(string)
	email, _ := claims["email"].(string)
	username, _ := claims["username"].(string)
	if id == "" || email == "" || username == "" {
		return entity.UserLoginData{}, ErrMissingClaims
	}

	return entity.UserLoginData{
		ID:       id,
		Email:    email,
		Username: username,
	}, nil
}

func GetUserLoginData(c *fiber.Ctx) (entity.UserLoginData, error) {
	userData := c.Locals("user")

	user, ok := userData.(entity.UserLoginData)
	if !ok {
		return entity.UserLoginData{}, fiber.ErrUnauthorized
	}

	return user, nil
}
