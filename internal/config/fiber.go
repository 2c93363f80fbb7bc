package config

import (
	"GymFinance/pkg/handlerUtil"
	"time"

	"github.com/gofiber/fiber/v2"
	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
)

const (
	fiberBodyLimit    = 4 * 1024 * 1024
	fiberReadTimeout  = 15 * time.Second
	fiberWriteTimeout = 15 * time.Second
	fiberIdleTimeout  = 60 * time.Second
)

// NewFiber builds the HTTP app. Router level failures (unknown routes, wrong
// methods, refused upgrades) are answered with the same JSON error body the
// handlers use.
func NewFiber(logger *logrus.Logger) *fiber.App {
	errHandler := handlerUtil.New(logger)

	return fiber.New(fiber.Config{
		AppName:           "Gym Finance",
		BodyLimit:         fiberBodyLimit,
		ReadTimeout:       fiberReadTimeout,
		WriteTimeout:      fiberWriteTimeout,
		IdleTimeout:       fiberIdleTimeout,
		StrictRouting:     true,
		CaseSensitive:     true,
		EnablePrintRoutes: logger.IsLevelEnabled(logrus.DebugLevel),
		JSONEncoder:       jsoniter.Marshal,
		JSONDecoder:       jsoniter.Unmarshal,
		ErrorHandler:      errHandler.HandleFiberError,
	})
}
