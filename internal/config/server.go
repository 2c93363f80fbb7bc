package config

import (
	"GymFinance/database/postgres"
	financeHandler "GymFinance/internal/api/finance/handler"
	financeRepository "GymFinance/internal/api/finance/repository"
	financeService "GymFinance/internal/api/finance/service"
	"GymFinance/internal/middleware"
	"GymFinance/pkg/cache"
	jwtPkg "GymFinance/pkg/jwt"
	"GymFinance/pkg/redis"
	"GymFinance/pkg/retry"
	"GymFinance/pkg/session"
	"GymFinance/pkg/utils"
	"context"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

type ServerOption func(*Server) error

type Server struct {
	engine       *fiber.App
	db           *sqlx.DB
	log          *logrus.Logger
	middleware   middleware.Middleware
	validator    *validator.Validate
	utils        utils.IUtils
	handlers     []handler
	redisServer  redis.IRedis
	queryCache   cache.ICache
	sessionGuard session.IGuard
	finance      FinanceSettings
	financeStore financeService.IFinanceStore
}

type handler interface {
	Start(srv fiber.Router)
}

func NewServer(options ...ServerOption) (*Server, error) {
	server := &Server{}

	for _, option := range options {
		if err := option(server); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	if server.engine == nil {
		return nil, fmt.Errorf("fiber app is required")
	}
	if server.log == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return server, nil
}

func WithFiber(fiberApp *fiber.App) ServerOption {
	return func(s *Server) error {
		s.engine = fiberApp
		return nil
	}
}

func WithLogger(logger *logrus.Logger) ServerOption {
	return func(s *Server) error {
		s.log = logger
		return nil
	}
}

func WithValidator(validator *validator.Validate) ServerOption {
	return func(s *Server) error {
		s.validator = validator
		return nil
	}
}

func WithDatabase() ServerOption {
	return func(s *Server) error {
		db, err := postgres.New()
		if err != nil {
			if s.log != nil {
				s.log.Errorf("Failed to connect to database: %v", err)
			}
			return fmt.Errorf("failed to create database connection: %w", err)
		}
		s.db = db
		return nil
	}
}

// WithRedisServer backs the query cache with Redis. Without it an in-process
// cache is used.
func WithRedisServer(redisServer redis.IRedis) ServerOption {
	return func(s *Server) error {
		s.redisServer = redisServer
		s.queryCache = redisServer
		return nil
	}
}

func WithFinanceSettings(settings FinanceSettings) ServerOption {
	return func(s *Server) error {
		s.finance = settings
		return nil
	}
}

func WithSessionGuard() ServerOption {
	return func(s *Server) error {
		if s.log == nil {
			return fmt.Errorf("logger must be initialized before session guard")
		}
		s.sessionGuard = session.New(s.log, os.Getenv(jwtPkg.AccessTokenSecretEnv))
		return nil
	}
}

func WithMiddleware() ServerOption {
	return func(s *Server) error {
		if s.log == nil {
			return fmt.Errorf("logger must be initialized before middleware")
		}
		s.middleware = middleware.New(s.log)
		return nil
	}
}

func WithUtils() ServerOption {
	return func(s *Server) error {
		s.utils = utils.New()
		return nil
	}
}

func (s *Server) RegisterHandler() {
	if s.queryCache == nil {
		s.queryCache = cache.NewMemory()
	}
	if s.sessionGuard == nil {
		s.sessionGuard = session.New(s.log, os.Getenv(jwtPkg.AccessTokenSecretEnv))
	}

	// Finance Domain
	financeRepo := financeRepository.New(s.db, s.log, s.sessionGuard,
		financeRepository.WithRetrier(retry.New(s.finance.Retry, retry.WithLogger(s.log))),
		financeRepository.WithUtils(s.utils),
	)
	s.financeStore = financeService.NewFinanceStore(s.log, financeRepo,
		financeService.WithRefreshInterval(s.finance.RefreshInterval),
		financeService.WithCache(s.queryCache, s.finance.CacheTTL),
		financeService.WithPeriod(s.finance.DefaultPeriod),
	)
	financeHandlers := financeHandler.New(s.log, s.validator, s.middleware, s.financeStore)

	s.setupHealthCheck()
	s.handlers = append(s.handlers, financeHandlers)
}

func (s *Server) Run(ctx context.Context) error {
	s.engine.Use(s.middleware.NewRequestIDMiddleware())
	s.engine.Use(s.middleware.NewLoggingMiddleware())
	router := s.engine.Group("/api/v1")

	for _, h := range s.handlers {
		h.Start(router)
	}

	if err := s.financeStore.Start(ctx); err != nil {
		s.log.WithField("error", err.Error()).Warn("Initial finance load failed, serving empty state until the next refresh")
	}

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "3000"
	}

	return s.engine.Listen(fmt.Sprintf(":%s", port))
}

func (s *Server) Shutdown() error {
	if s.financeStore != nil {
		s.financeStore.Dispose()
	}

	err := s.engine.Shutdown()

	if s.redisServer != nil {
		if closeErr := s.redisServer.Close(); closeErr != nil {
			s.log.WithField("error", closeErr.Error()).Warn("Failed to close redis client")
		}
	}
	if s.db != nil {
		if closeErr := s.db.Close(); closeErr != nil {
			s.log.WithField("error", closeErr.Error()).Warn("Failed to close database")
		}
	}

	return err
}

func (s *Server) setupHealthCheck() {
	s.engine.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.JSON(fiber.Map{
			"message": "Server is Healthy!",
		})
	})
}
