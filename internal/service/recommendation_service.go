package service

import (
	"context"
	"fmt"
	"log/slog"

	"movie-discovery-likes/internal/apperr"
	"movie-discovery-likes/internal/models"
)

// RecommendationStore reads precomputed recommendations.
type RecommendationStore interface {
	ListRecommendations(ctx context.Context, userID string, limit int) ([]models.Recommendation, error)
}

// LikedLister reads a user's likes in store order.
type LikedLister interface {
	ListLiked(ctx context.Context, userID string) ([]models.LikedMovie, error)
}

// Outcome says why a recommendation list is what it is.
type Outcome int

const (
	OutcomeStored    Outcome = iota // precomputed rows
	OutcomeSimilar                  // similar titles of liked movies
	OutcomeNoLikes                  // nothing stored and nothing liked
	OutcomeNoneFound                // liked movies produced no similar titles
)

type Recommendations struct {
	Movies  []models.Movie
	Outcome Outcome
}

type RecommendationService struct {
	recs     RecommendationStore
	likes    LikedLister
	metadata *MetadataService
	limit    int
	seeds    int
}

func NewRecommendationService(recs RecommendationStore, likes LikedLister, metadata *MetadataService, limit, seeds int) *RecommendationService {
	return &RecommendationService{recs: recs, likes: likes, metadata: metadata, limit: limit, seeds: seeds}
}

// For builds the recommendation list for userID. Stored recommendations win;
// without them it falls back to titles similar to the user's first liked
// movies.
func (s *RecommendationService) For(ctx context.Context, userID string) (Recommendations, error) {
	if userID == "" {
		return Recommendations{}, apperr.ErrAnonymous
	}

	stored, err := s.recs.ListRecommendations(ctx, userID, s.limit)
	if err != nil {
		return Recommendations{}, err
	}
	if len(stored) > 0 {
		return Recommendations{Movies: s.enrich(ctx, stored), Outcome: OutcomeStored}, nil
	}

	liked, err := s.likes.ListLiked(ctx, userID)
	if err != nil {
		return Recommendations{}, err
	}
	if len(liked) == 0 {
		return Recommendations{Outcome: OutcomeNoLikes}, nil
	}

	movies := s.similar(ctx, liked)
	if len(movies) == 0 {
		return Recommendations{Outcome: OutcomeNoneFound}, nil
	}
	return Recommendations{Movies: movies, Outcome: OutcomeSimilar}, nil
}

// enrich attaches metadata to stored rows. A row whose lookup failed still
// shows up, with a placeholder title and no rating.
func (s *RecommendationService) enrich(ctx context.Context, stored []models.Recommendation) []models.Movie {
	ids := make([]models.MovieID, len(stored))
	for i, r := range stored {
		ids[i] = r.MovieID
	}
	details := s.metadata.FetchMany(ctx, ids)

	movies := make([]models.Movie, 0, len(stored))
	for _, r := range stored {
		score := r.Score
		res := details[r.MovieID]
		if res.Err != nil {
			slog.Warn("recommendation detail lookup failed", "movie_id", r.MovieID, "error", res.Err)
			movies = append(movies, models.Movie{
				ID:    r.MovieID,
				Title: fmt.Sprintf("Movie #%d", r.MovieID),
				Score: &score,
			})
			continue
		}
		m := res.Value
		m.ID = r.MovieID
		m.Score = &score
		movies = append(movies, m)
	}
	return movies
}

func (s *RecommendationService) similar(ctx context.Context, liked []models.LikedMovie) []models.Movie {
	exclude := make(map[models.MovieID]struct{}, len(liked))
	for _, l := range liked {
		exclude[l.MovieID] = struct{}{}
	}

	n := min(s.seeds, len(liked))
	seeds := make([]models.MovieID, n)
	for i := range n {
		seeds[i] = liked[i].MovieID
	}

	var movies []models.Movie
	for _, res := range s.metadata.SimilarMany(ctx, seeds) {
		if res.Err != nil {
			slog.Warn("similar lookup failed", "movie_id", res.ID, "error", res.Err)
			continue
		}
		for _, m := range res.Value {
			if _, seen := exclude[m.ID]; seen {
				continue
			}
			exclude[m.ID] = struct{}{}
			movies = append(movies, m)
		}
	}
	if s.limit > 0 && len(movies) > s.limit {
		movies = movies[:s.limit]
	}
	return movies
}
