// Package server contains the HTTP handlers and page flow of the application.
package server

import (
	"context"
	"time"

	"warbler/internal/config"
	"warbler/internal/middleware"
	"warbler/internal/notifications"
	"warbler/internal/repository"
	"warbler/internal/service"
	"warbler/internal/views"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/filesystem"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// requestTimeout bounds the store calls made while serving one request.
const requestTimeout = 10 * time.Second

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	sessions       *session.Store
	notifier       *notifications.Notifier
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc

	authService    *service.AuthService
	userService    *service.UserService
	messageService *service.MessageService
	followService  *service.FollowService
	likeService    *service.LikeService
}

// NewServerWithDeps creates a Server using already-initialized dependencies,
// usually from bootstrap.InitRuntime. redisClient may be nil.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	userRepo := repository.NewUserRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	followRepo := repository.NewFollowRepository(db)
	likeRepo := repository.NewLikeRepository(db)

	notifier := notifications.NewNotifier(redisClient)

	s := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("warbler"),
		sessions:       newSessionStore(cfg, redisClient),
		notifier:       notifier,
		authService:    service.NewAuthService(userRepo, cfg.BcryptCost),
		userService:    service.NewUserService(userRepo, messageRepo, followRepo),
		messageService: service.NewMessageService(messageRepo, likeRepo, cfg.TimelineLimit),
		followService:  service.NewFollowService(followRepo, userRepo, notifier),
		likeService:    service.NewLikeService(likeRepo, messageRepo, userRepo, notifier),
	}
	s.app = s.newApp()
	return s, nil
}

// App returns the configured Fiber application.
func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) newApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "Warbler",
		Views:                 views.NewEngine(),
		ViewsLayout:           views.DefaultLayout,
		ErrorHandler:          s.ErrorHandler,
		DisableStartupMessage: true,
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	app.Use(middleware.TracingMiddleware())

	// Context Middleware to propagate Request ID and trace ID
	app.Use(middleware.ContextMiddleware())

	// Prometheus Metrics
	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	// Security headers
	app.Use(helmet.New())

	// Structured Logging middleware (after requestid and context middleware)
	app.Use(middleware.StructuredLogger())

	// Global rate limiting per IP
	app.Use(limiter.New(limiter.Config{
		Max:        300,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return s.config.Env == "test" || isProbePath(c.Path())
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).SendString("Too many requests, please try again later.")
		},
	}))

	app.Use("/static", filesystem.New(filesystem.Config{
		Root:   views.Static(),
		MaxAge: 3600,
	}))

	// CSRF tokens live in the session; every POST form carries one
	app.Use(s.CSRF())

	// Session identity for every page below
	app.Use(s.Identity())
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	// Health checks
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)

	// Metrics endpoint for Prometheus
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	app.Get("/", s.Home)

	// Auth routes
	app.Get("/signup", s.SignupPage)
	app.Post("/signup", middleware.RateLimit(
		s.redis, s.config.Env, 5, 10*time.Minute, "signup", s.rateLimited("/signup")), s.Signup)
	app.Get("/login", s.LoginPage)
	app.Post("/login", middleware.RateLimit(
		s.redis, s.config.Env, 10, 5*time.Minute, "login", s.rateLimited("/login")), s.Login)
	app.Get("/logout", s.Logout)

	// User routes. Fixed paths before /:id.
	users := app.Group("/users")
	users.Get("/", s.ListUsers)
	users.Get("/profile", s.LoginRequired(), s.EditProfilePage)
	users.Post("/profile", s.LoginRequired(), s.UpdateProfile)
	users.Post("/delete", s.LoginRequired(), s.DeleteUser)
	users.Post("/follow/:id", s.LoginRequired(), s.Follow)
	users.Post("/stop-following/:id", s.LoginRequired(), s.StopFollowing)
	users.Post("/add_like/:id", s.LoginRequired(), s.AddLike)
	users.Get("/:id/following", s.LoginRequired(), s.ShowFollowing)
	users.Get("/:id/followers", s.LoginRequired(), s.ShowFollowers)
	users.Get("/:id/likes", s.LoginRequired(), s.ShowLikes)
	users.Get("/:id", s.ShowUser)

	// Message routes
	messages := app.Group("/messages")
	messages.Get("/new", s.LoginRequired(), s.NewMessagePage)
	messages.Post("/new", s.LoginRequired(), s.CreateMessage)
	messages.Post("/:id/delete", s.LoginRequired(), s.DeleteMessage)
	messages.Get("/:id", s.ShowMessage)
}

// StartSubscriber logs notification traffic until the server shuts down.
func (s *Server) StartSubscriber(ctx context.Context) error {
	return s.notifier.StartPatternSubscriber(ctx, func(channel, payload string) {
		middleware.Logger.DebugContext(ctx, "notification published",
			"channel", channel,
			"payload", payload,
		)
	})
}

// Start starts the server
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.shutdownCtx = ctx
	s.shutdownFn = cancel

	if err := s.StartSubscriber(s.shutdownCtx); err != nil {
		middleware.Logger.Warn("notification subscriber not started", "error", err)
	}

	middleware.Logger.Info("server starting", "port", s.config.Port)
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", "error", err)
		}
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			middleware.Logger.Error("error closing sql DB", "error", cerr)
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			middleware.Logger.Error("error closing redis", "error", rerr)
		}
	}

	middleware.Logger.Info("server shutdown complete")
	return nil
}

// requestContext derives the bounded context used for store calls.
func requestContext(c *fiber.Ctx) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.UserContext(), requestTimeout)
}

func isProbePath(path string) bool {
	switch path {
	case "/health", "/health/live", "/health/ready", "/metrics":
		return true
	}
	return false
}
