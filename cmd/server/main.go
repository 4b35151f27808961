package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"movie-discovery-likes/internal/config"
	"movie-discovery-likes/internal/database"
	"movie-discovery-likes/internal/handler"
	"movie-discovery-likes/internal/identity"
	"movie-discovery-likes/internal/middleware"
	"movie-discovery-likes/internal/models"
	"movie-discovery-likes/internal/render"
	"movie-discovery-likes/internal/repository"
	"movie-discovery-likes/internal/service"
	"movie-discovery-likes/internal/session"
	"movie-discovery-likes/internal/tmdb"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Structured logging
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect to PostgreSQL
	db, err := database.NewPostgres(ctx, cfg.DB)
	if err != nil {
		slog.Error("failed to connect to PostgreSQL", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Connect to Redis (non-fatal if unavailable)
	rdb, err := database.NewRedis(ctx, cfg.Redis)
	if err != nil {
		slog.Warn("Redis unavailable, running without cache or rate limiting", "error", err)
	}

	// Initialize layers
	likeRepo := repository.NewLikeRepository(db)
	recRepo := repository.NewRecommendationRepository(db)
	metadata := service.NewMetadataService(tmdb.NewClient(cfg.TMDB), rdb)
	likes := service.NewLikeService(likeRepo)
	recs := service.NewRecommendationService(recRepo, likeRepo, metadata, cfg.RecommendLimit, cfg.SimilarSeeds)

	pages := session.NewRegistry(likeRepo, cfg.Session.PageTTL, cfg.Session.MaxPages)
	go pages.Run(ctx, time.Minute)

	signer := identity.NewSigner(cfg.Session.Secret)
	h := handler.NewHandler(render.New(), pages, metadata, likes, recs, signer, handler.CookieConfig{
		Name:   cfg.Session.CookieName,
		TTL:    cfg.Session.TTL,
		Secure: cfg.Session.CookieSecure,
	})

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "Movie Likes",
		ServerHeader: "Movie-Likes",
		JSONEncoder:  json.Marshal,
		JSONDecoder:  json.Unmarshal,
		ErrorHandler: func(c fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			slog.Error("unhandled error", "error", err, "status", code)
			return c.Status(code).JSON(models.ErrorResponse{Error: err.Error()})
		},
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New())
	app.Use(middleware.Identity(signer, cfg.Session.CookieName))

	// Swagger docs
	swaggerYAML, err := os.ReadFile("docs/swagger.yaml")
	if err != nil {
		slog.Warn("swagger.yaml not found, swagger UI will be unavailable", "error", err)
	} else {
		handler.RegisterSwagger(app, swaggerYAML)
	}

	app.Get("/health", h.Health)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// Pages, fragments, writes and API routes are rate limited
	limiter := middleware.NewRateLimiter(rdb, cfg.RateLimit.Max, cfg.RateLimit.WindowSeconds)

	app.Get("/", limiter.Handler(), h.SearchPage)
	app.Get("/search/results", limiter.Handler(), h.SearchFragment)
	app.Get("/profile", limiter.Handler(), h.ProfilePage)
	app.Get("/profile/liked", limiter.Handler(), h.LikedFragment)
	app.Get("/recommendations", limiter.Handler(), h.RecommendationsPage)
	app.Get("/recommendations/list", limiter.Handler(), h.RecommendationsFragment)
	app.Post("/logout", h.Logout)
	if cfg.DevLogin {
		slog.Warn("development login enabled")
		app.Post("/dev/session", h.DevSession)
	}

	app.Post("/likes/:id", limiter.Handler(), h.ToggleLike)

	api := app.Group("/api", limiter.Handler())
	api.Get("/recommendations/", h.GetRecommendations)
	api.Get("/metadata/search", h.SearchMovies)
	api.Get("/metadata/movies/:id", h.GetMovie)
	api.Get("/metadata/movies/:id/similar", h.GetSimilar)
	api.Get("/metadata/lists/:kind", h.GetCatalogList)

	go func() {
		addr := ":" + cfg.Port
		slog.Info("starting movie likes server", "addr", addr)
		if err := app.Listen(addr); err != nil {
			slog.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down movie likes server...")

	// Shutdown HTTP server first (stop accepting new requests)
	if err := app.Shutdown(); err != nil {
		slog.Error("error shutting down HTTP server", "error", err)
	}

	if rdb != nil {
		if err := rdb.Close(); err != nil {
			slog.Error("error closing Redis connection", "error", err)
		}
	}
	slog.Info("movie likes server shutdown complete")
}
