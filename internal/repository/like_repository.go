package repository

import (
	"context"
	"database/sql"
	"time"

	"movie-discovery-likes/internal/apperr"
	"movie-discovery-likes/internal/metrics"
	"movie-discovery-likes/internal/models"
)

// LikeRepository reads and writes the liked_movies table.
type LikeRepository struct {
	db *sql.DB
}

// NewLikeRepository creates a new LikeRepository.
func NewLikeRepository(db *sql.DB) *LikeRepository {
	return &LikeRepository{db: db}
}

// ListLiked returns every movie the user has liked, oldest first.
// An empty slice means the user has no likes.
func (r *LikeRepository) ListLiked(ctx context.Context, userID string) (likes []models.LikedMovie, err error) {
	defer observe("list_liked", "liked_movies", time.Now(), &err)

	rows, err := r.db.QueryContext(ctx, `
		SELECT user_id, movie_id, title, COALESCE(poster_path, ''),
			COALESCE(release_date, ''), created_at
		FROM liked_movies
		WHERE user_id = $1
		ORDER BY created_at, movie_id
	`, userID)
	if err != nil {
		return nil, apperr.Remote("list liked", err)
	}
	defer rows.Close()

	likes = make([]models.LikedMovie, 0)
	for rows.Next() {
		var l models.LikedMovie
		if err := rows.Scan(&l.UserID, &l.MovieID, &l.Title, &l.PosterPath, &l.ReleaseDate, &l.CreatedAt); err != nil {
			return nil, apperr.Remote("scan liked", err)
		}
		likes = append(likes, l)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Remote("list liked", err)
	}
	return likes, nil
}

// AddLike stores a like. Liking an already liked movie is a no-op.
func (r *LikeRepository) AddLike(ctx context.Context, userID string, m models.LikedMovie) (err error) {
	defer observe("add_like", "liked_movies", time.Now(), &err)

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO liked_movies (user_id, movie_id, title, poster_path, release_date)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, movie_id) DO NOTHING
	`, userID, m.MovieID, m.Title, nullableString(m.PosterPath), nullableString(m.ReleaseDate))
	return apperr.Remote("add like", err)
}

// RemoveLike deletes a like. Removing a like that does not exist succeeds.
func (r *LikeRepository) RemoveLike(ctx context.Context, userID string, movieID models.MovieID) (err error) {
	defer observe("remove_like", "liked_movies", time.Now(), &err)

	_, err = r.db.ExecContext(ctx, `
		DELETE FROM liked_movies WHERE user_id = $1 AND movie_id = $2
	`, userID, movieID)
	return apperr.Remote("remove like", err)
}

// ListAllLikes returns every like of every user, used by the batch recommender.
func (r *LikeRepository) ListAllLikes(ctx context.Context) (likes []models.LikedMovie, err error) {
	defer observe("list_all_likes", "liked_movies", time.Now(), &err)

	rows, err := r.db.QueryContext(ctx, `
		SELECT user_id, movie_id, title, COALESCE(poster_path, ''),
			COALESCE(release_date, ''), created_at
		FROM liked_movies
		ORDER BY user_id, movie_id
	`)
	if err != nil {
		return nil, apperr.Remote("list all likes", err)
	}
	defer rows.Close()

	for rows.Next() {
		var l models.LikedMovie
		if err := rows.Scan(&l.UserID, &l.MovieID, &l.Title, &l.PosterPath, &l.ReleaseDate, &l.CreatedAt); err != nil {
			return nil, apperr.Remote("scan like", err)
		}
		likes = append(likes, l)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Remote("list all likes", err)
	}
	return likes, nil
}

func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func observe(op, table string, start time.Time, err *error) {
	metrics.StoreQueryDuration.WithLabelValues(op, table).Observe(time.Since(start).Seconds())
	if *err != nil {
		metrics.StoreQueryErrors.WithLabelValues(op, table).Inc()
	}
}
