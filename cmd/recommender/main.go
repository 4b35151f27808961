// Command recommender recomputes movie_recommendations from every stored
// like. Run it on a schedule; the web server only reads its output.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"movie-discovery-likes/internal/config"
	"movie-discovery-likes/internal/database"
	"movie-discovery-likes/internal/recommend"
	"movie-discovery-likes/internal/repository"
)

func main() {
	cfg := config.LoadBatch()
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("recommendation refresh failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	db, err := database.NewPostgres(ctx, cfg.DB)
	if err != nil {
		return err
	}
	defer db.Close()

	likeRepo := repository.NewLikeRepository(db)
	recRepo := repository.NewRecommendationRepository(db)

	start := time.Now()
	likes, err := likeRepo.ListAllLikes(ctx)
	if err != nil {
		return err
	}
	if len(likes) == 0 {
		slog.Info("no liked movies found, nothing to score")
		return nil
	}
	slog.Info("loaded likes", "count", len(likes))

	recs, err := recommend.NewCoLike(recommend.Config{MaxPerUser: cfg.RecommendLimit}).Score(ctx, likes)
	if err != nil {
		return err
	}
	slog.Info("scored recommendations", "count", len(recs))

	if err := recRepo.ReplaceRecommendations(ctx, recs, repository.DefaultBatchSize); err != nil {
		return err
	}
	slog.Info("recommendations updated", "count", len(recs), "duration", time.Since(start))
	return nil
}
