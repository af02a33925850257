package server

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sifan077/ListingBank/config"
	"github.com/sifan077/ListingBank/internal/app/repository"
	"github.com/sifan077/ListingBank/internal/app/service"
	inthttp "github.com/sifan077/ListingBank/internal/http/handler"
	"github.com/sifan077/ListingBank/internal/http/middleware"
	httpUtil "github.com/sifan077/ListingBank/internal/http/util"
	"go.uber.org/zap"
)

// Dependencies bundles infrastructure dependencies required by the HTTP server.
type Dependencies struct {
	Logger        *zap.Logger
	Postgres      inthttp.Pinger
	Redis         *redis.Client
	RateLimit     config.RateLimitConfig
	Listings      service.ListingService
	Notifications repository.AdminNotificationRepository
	Tokens        *httpUtil.TokenVerifier
}

// Server wraps the Fiber application and its dependencies.
type Server struct {
	app  *fiber.App
	deps Dependencies
}

// New creates a new HTTP server instance with default routes.
func New(deps Dependencies) *Server {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	app := fiber.New(fiber.Config{
		AppName:      "ListingBank",
		ErrorHandler: errorHandler(deps.Logger),
	})

	s := &Server{
		app:  app,
		deps: deps,
	}

	s.registerRoutes()
	return s
}

// App exposes the underlying Fiber application, mainly for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen starts the Fiber server on the given address.
func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr)
}

// Shutdown gracefully stops the Fiber server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func (s *Server) registerRoutes() {
	log := s.deps.Logger

	s.app.Use(middleware.Recovery(log))
	s.app.Use(middleware.RequestID())
	s.app.Use(middleware.Logger(log))
	s.app.Use(middleware.CORS())

	inthttp.NewHealthHandler(log, s.deps.Postgres).Register(s.app)

	api := s.app.Group("/api", middleware.Auth(s.deps.Tokens, log))
	if s.deps.Redis != nil {
		api.Use(middleware.RateLimit(s.deps.Redis, s.deps.RateLimit, log))
	}

	inthttp.NewListingHandler(inthttp.ListingDeps{
		Logger:         log,
		ListingService: s.deps.Listings,
	}).Register(api)

	if s.deps.Notifications != nil {
		admin := api.Group("/admin", middleware.RequireRole(middleware.RoleAdmin))
		inthttp.NewAdminHandler(log, s.deps.Notifications).Register(admin)
	}
}

func errorHandler(logger *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return c.Status(fe.Code).JSON(fiber.Map{
				"error": fe.Message,
			})
		}

		logger.Error("unhandled request error", zap.Error(err), zap.String("path", c.Path()))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "internal server error",
		})
	}
}
