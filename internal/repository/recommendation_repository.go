package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"movie-discovery-likes/internal/apperr"
	"movie-discovery-likes/internal/models"
)

// DefaultBatchSize is the number of rows written per INSERT by ReplaceRecommendations.
const DefaultBatchSize = 500

// RecommendationRepository reads and writes the movie_recommendations table.
type RecommendationRepository struct {
	db *sql.DB
}

// NewRecommendationRepository creates a new RecommendationRepository.
func NewRecommendationRepository(db *sql.DB) *RecommendationRepository {
	return &RecommendationRepository{db: db}
}

// ListRecommendations returns the user's top recommendations, highest score first.
// Ordering and the limit are applied by the store.
func (r *RecommendationRepository) ListRecommendations(ctx context.Context, userID string, limit int) (recs []models.Recommendation, err error) {
	defer observe("list_recommendations", "movie_recommendations", time.Now(), &err)

	rows, err := r.db.QueryContext(ctx, `
		SELECT user_id, movie_id, score, generated_at
		FROM movie_recommendations
		WHERE user_id = $1
		ORDER BY score DESC, movie_id
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, apperr.Remote("list recommendations", err)
	}
	defer rows.Close()

	recs = make([]models.Recommendation, 0)
	for rows.Next() {
		var rec models.Recommendation
		if err := rows.Scan(&rec.UserID, &rec.MovieID, &rec.Score, &rec.GeneratedAt); err != nil {
			return nil, apperr.Remote("scan recommendation", err)
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Remote("list recommendations", err)
	}
	return recs, nil
}

// ReplaceRecommendations swaps the whole table for recs in one transaction,
// inserting batchSize rows per statement.
func (r *RecommendationRepository) ReplaceRecommendations(ctx context.Context, recs []models.Recommendation, batchSize int) (err error) {
	defer observe("replace_recommendations", "movie_recommendations", time.Now(), &err)

	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return apperr.Remote("begin replace", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM movie_recommendations`); err != nil {
		return apperr.Remote("clear recommendations", err)
	}

	for start := 0; start < len(recs); start += batchSize {
		end := min(start+batchSize, len(recs))
		query, args := buildInsert(recs[start:end])
		if _, err = tx.ExecContext(ctx, query, args...); err != nil {
			return apperr.Remote(fmt.Sprintf("insert batch at %d", start), err)
		}
	}

	if err = tx.Commit(); err != nil {
		return apperr.Remote("commit replace", err)
	}
	return nil
}

func buildInsert(batch []models.Recommendation) (string, []interface{}) {
	var b strings.Builder
	b.WriteString("INSERT INTO movie_recommendations (user_id, movie_id, score) VALUES ")
	args := make([]interface{}, 0, len(batch)*3)
	for i, rec := range batch {
		if i > 0 {
			b.WriteString(", ")
		}
		n := i * 3
		fmt.Fprintf(&b, "($%d, $%d, $%d)", n+1, n+2, n+3)
		args = append(args, rec.UserID, rec.MovieID, rec.Score)
	}
	b.WriteString(" ON CONFLICT (user_id, movie_id) DO UPDATE SET score = EXCLUDED.score, generated_at = NOW()")
	return b.String(), args
}
