package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"movie-discovery-likes/internal/apperr"
	"movie-discovery-likes/internal/metrics"
	"movie-discovery-likes/internal/models"
)

const (
	listCacheTTL   = 5 * time.Minute
	detailCacheTTL = 30 * time.Minute

	// fetchConcurrency bounds in-flight metadata lookups per fan-out.
	fetchConcurrency = 8
)

// MetadataSource is the metadata API as seen by the services.
type MetadataSource interface {
	SearchByTitle(ctx context.Context, query string) ([]models.Movie, error)
	GetByID(ctx context.Context, id models.MovieID) (models.Movie, error)
	ListSimilar(ctx context.Context, id models.MovieID) ([]models.Movie, error)
	ListCatalog(ctx context.Context, list models.CatalogList) ([]models.Movie, error)
}

// Result is the outcome of one lookup in a fan-out, tagged with the id it was
// issued for.
type Result[T any] struct {
	ID    models.MovieID
	Value T
	Err   error
}

// MetadataService adds a Redis read-through cache and concurrent fan-out on
// top of the metadata client.
type MetadataService struct {
	source MetadataSource
	redis  *redis.Client
}

// NewMetadataService creates a new MetadataService. rdb may be nil.
func NewMetadataService(source MetadataSource, rdb *redis.Client) *MetadataService {
	return &MetadataService{source: source, redis: rdb}
}

// Search runs a title search. Blank queries fail with a ValidationError
// before any I/O.
func (s *MetadataService) Search(ctx context.Context, query string) ([]models.Movie, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperr.ErrEmptyQuery
	}
	key := "tmdb:search:" + strings.ToLower(query)
	return cached(ctx, s, key, listCacheTTL, func() ([]models.Movie, error) {
		return s.source.SearchByTitle(ctx, query)
	})
}

// Catalog returns a curated list.
func (s *MetadataService) Catalog(ctx context.Context, list models.CatalogList) ([]models.Movie, error) {
	return cached(ctx, s, "tmdb:list:"+string(list), listCacheTTL, func() ([]models.Movie, error) {
		return s.source.ListCatalog(ctx, list)
	})
}

// Detail returns one movie.
func (s *MetadataService) Detail(ctx context.Context, id models.MovieID) (models.Movie, error) {
	return cached(ctx, s, fmt.Sprintf("tmdb:movie:%d", id), detailCacheTTL, func() (models.Movie, error) {
		return s.source.GetByID(ctx, id)
	})
}

// Similar returns titles similar to id.
func (s *MetadataService) Similar(ctx context.Context, id models.MovieID) ([]models.Movie, error) {
	return cached(ctx, s, fmt.Sprintf("tmdb:similar:%d", id), listCacheTTL, func() ([]models.Movie, error) {
		return s.source.ListSimilar(ctx, id)
	})
}

// FetchMany looks up every id concurrently. Each result carries its own id
// and error; one failure never affects the others.
func (s *MetadataService) FetchMany(ctx context.Context, ids []models.MovieID) map[models.MovieID]Result[models.Movie] {
	results := fanOut(ctx, ids, s.Detail)
	out := make(map[models.MovieID]Result[models.Movie], len(results))
	for _, r := range results {
		out[r.ID] = r
	}
	return out
}

// SimilarMany fetches similar titles for every seed concurrently. Results
// keep the order of seeds.
func (s *MetadataService) SimilarMany(ctx context.Context, seeds []models.MovieID) []Result[[]models.Movie] {
	return fanOut(ctx, seeds, s.Similar)
}

// fanOut runs fn for every id with bounded concurrency. The returned slice is
// indexed like ids, whatever order the calls finish in.
func fanOut[T any](ctx context.Context, ids []models.MovieID, fn func(context.Context, models.MovieID) (T, error)) []Result[T] {
	results := make([]Result[T], len(ids))
	var g errgroup.Group
	g.SetLimit(fetchConcurrency)
	for i, id := range ids {
		g.Go(func() error {
			v, err := fn(ctx, id)
			results[i] = Result[T]{ID: id, Value: v, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func cached[T any](ctx context.Context, s *MetadataService, key string, ttl time.Duration, load func() (T, error)) (T, error) {
	if raw, err := s.getFromCache(ctx, key); err == nil {
		var v T
		if json.Unmarshal([]byte(raw), &v) == nil {
			metrics.MetadataCache.WithLabelValues("hit").Inc()
			slog.Debug("cache hit", "key", key)
			return v, nil
		}
	}
	metrics.MetadataCache.WithLabelValues("miss").Inc()

	v, err := load()
	if err != nil {
		return v, err
	}
	if data, err := json.Marshal(v); err == nil {
		s.setCache(ctx, key, string(data), ttl)
	}
	return v, nil
}

// ---- Redis Helpers ----

func (s *MetadataService) getFromCache(ctx context.Context, key string) (string, error) {
	if s.redis == nil {
		return "", fmt.Errorf("redis not available")
	}
	return s.redis.Get(ctx, key).Result()
}

func (s *MetadataService) setCache(ctx context.Context, key, value string, ttl time.Duration) {
	if s.redis == nil {
		return
	}
	if err := s.redis.Set(ctx, key, value, ttl).Err(); err != nil {
		slog.Error("failed to set cache", "key", key, "error", err)
	}
}
