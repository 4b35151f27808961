package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq"

	"movie-discovery-likes/internal/config"
)

// NewPostgres creates a new PostgreSQL connection and runs migrations.
func NewPostgres(ctx context.Context, cfg config.DBConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)

	slog.Info("connected to PostgreSQL", "db", cfg.DBName)

	if err := Migrate(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return db, nil
}

// Migrate creates the liked_movies and movie_recommendations tables.
// The composite primary keys keep one row per (user, movie).
func Migrate(ctx context.Context, db *sql.DB) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS liked_movies (
			user_id TEXT NOT NULL,
			movie_id BIGINT NOT NULL,
			title VARCHAR(500) NOT NULL,
			poster_path VARCHAR(500),
			release_date VARCHAR(10),
			created_at TIMESTAMPTZ DEFAULT NOW(),
			PRIMARY KEY (user_id, movie_id)
		)`,
		`CREATE TABLE IF NOT EXISTS movie_recommendations (
			user_id TEXT NOT NULL,
			movie_id BIGINT NOT NULL,
			score DOUBLE PRECISION NOT NULL,
			generated_at TIMESTAMPTZ DEFAULT NOW(),
			PRIMARY KEY (user_id, movie_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_liked_movies_created_at ON liked_movies(user_id, created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_recommendations_user_score ON movie_recommendations(user_id, score DESC)`,
	}

	for _, m := range migrations {
		if _, err := db.ExecContext(ctx, m); err != nil {
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, m)
		}
	}

	slog.Info("database migrations completed")
	return nil
}
