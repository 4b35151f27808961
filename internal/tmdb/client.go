package tmdb

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"movie-discovery-likes/internal/apperr"
	"movie-discovery-likes/internal/config"
	"movie-discovery-likes/internal/metrics"
	"movie-discovery-likes/internal/models"
)

const breakerName = "tmdb-api"

// Client is the TMDB API client. It runs server-side only so the credential
// never reaches the browser.
type Client struct {
	apiKey      string
	accessToken string
	baseURL     string
	http        *http.Client
	limiter     *rate.Limiter
	cb          *gobreaker.CircuitBreaker[[]byte]
}

// NewClient creates a new TMDB API client.
func NewClient(cfg config.TMDBConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	perSec := cfg.RatePerSec
	if perSec <= 0 {
		perSec = 40
	}

	metrics.CircuitBreakerState.WithLabelValues(breakerName).Set(0)

	return &Client{
		apiKey:      cfg.APIKey,
		accessToken: cfg.AccessToken,
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		http: &http.Client{
			Timeout: timeout,
		},
		limiter: rate.NewLimiter(rate.Limit(perSec), max(1, int(perSec))),
		cb: gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
			Name:        breakerName,
			MaxRequests: 3,
			Interval:    time.Minute,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				if counts.Requests < 10 {
					return false
				}
				return float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
			},
			// A 4xx or a cancelled caller is not an outage.
			IsSuccessful: func(err error) bool {
				if errors.Is(err, context.Canceled) {
					return true
				}
				var me *apperr.MetadataError
				if errors.As(err, &me) && me.Status >= 400 && me.Status < 500 {
					return true
				}
				return err == nil
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				slog.Warn("circuit breaker state change", "name", name, "from", from.String(), "to", to.String())
				metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			},
		}),
	}
}

// ---- TMDB Response Types ----

// ListResponse is the paged list shape shared by search, similar and curated lists.
type ListResponse struct {
	Page         int         `json:"page"`
	Results      []TMDBMovie `json:"results"`
	TotalPages   int         `json:"total_pages"`
	TotalResults int         `json:"total_results"`
}

// TMDBMovie is a movie as returned by TMDB list and detail endpoints.
type TMDBMovie struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	PosterPath  string  `json:"poster_path"`
	ReleaseDate string  `json:"release_date"`
	VoteAverage float64 `json:"vote_average"`
}

// Movie normalizes the TMDB shape into the shared record.
func (m TMDBMovie) Movie() models.Movie {
	rating := m.VoteAverage
	return models.Movie{
		ID:          models.MovieID(m.ID),
		Title:       m.Title,
		PosterPath:  m.PosterPath,
		ReleaseDate: m.ReleaseDate,
		Rating:      &rating,
	}
}

// ---- Client Methods ----

// SearchByTitle runs a free-text title search. A blank query is rejected
// without a network call.
func (c *Client) SearchByTitle(ctx context.Context, query string) ([]models.Movie, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperr.ErrEmptyQuery
	}
	return c.list(ctx, "search", "/search/movie", url.Values{"query": {query}})
}

// GetByID fetches one movie.
func (c *Client) GetByID(ctx context.Context, id models.MovieID) (models.Movie, error) {
	body, err := c.get(ctx, "get movie", fmt.Sprintf("/movie/%d", id), nil)
	if err != nil {
		return models.Movie{}, err
	}
	var m TMDBMovie
	if err := json.Unmarshal(body, &m); err != nil {
		return models.Movie{}, &apperr.MetadataError{Op: "get movie", Err: fmt.Errorf("decode: %w", err)}
	}
	return m.Movie(), nil
}

// ListSimilar returns titles similar to id.
func (c *Client) ListSimilar(ctx context.Context, id models.MovieID) ([]models.Movie, error) {
	return c.list(ctx, "similar", fmt.Sprintf("/movie/%d/similar", id), nil)
}

// ListNowPlaying returns the now-playing catalog.
func (c *Client) ListNowPlaying(ctx context.Context) ([]models.Movie, error) {
	return c.list(ctx, "now_playing", "/movie/now_playing", nil)
}

// ListPopular returns the popular catalog.
func (c *Client) ListPopular(ctx context.Context) ([]models.Movie, error) {
	return c.list(ctx, "popular", "/movie/popular", nil)
}

// ListTopRated returns the top-rated catalog.
func (c *Client) ListTopRated(ctx context.Context) ([]models.Movie, error) {
	return c.list(ctx, "top_rated", "/movie/top_rated", nil)
}

// ListCatalog dispatches to the curated list named by l.
func (c *Client) ListCatalog(ctx context.Context, l models.CatalogList) ([]models.Movie, error) {
	switch l {
	case models.ListNowPlaying:
		return c.ListNowPlaying(ctx)
	case models.ListTopRated:
		return c.ListTopRated(ctx)
	default:
		return c.ListPopular(ctx)
	}
}

func (c *Client) list(ctx context.Context, op, path string, params url.Values) ([]models.Movie, error) {
	body, err := c.get(ctx, op, path, params)
	if err != nil {
		return nil, err
	}
	var resp ListResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &apperr.MetadataError{Op: op, Err: fmt.Errorf("decode: %w", err)}
	}
	movies := make([]models.Movie, 0, len(resp.Results))
	for _, m := range resp.Results {
		movies = append(movies, m.Movie())
	}
	return movies, nil
}

func (c *Client) get(ctx context.Context, op, path string, params url.Values) ([]byte, error) {
	// waiting on the limiter stays outside the breaker so a caller giving up
	// in the queue never counts as an upstream failure
	if err := c.limiter.Wait(ctx); err != nil {
		metrics.MetadataRequests.WithLabelValues(op, "cancelled").Inc()
		return nil, &apperr.MetadataError{Op: op, Err: err}
	}

	start := time.Now()
	body, err := c.cb.Execute(func() ([]byte, error) {
		return c.doGet(ctx, op, path, params)
	})
	metrics.MetadataDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())

	switch {
	case err == nil:
		metrics.MetadataRequests.WithLabelValues(op, "success").Inc()
		return body, nil
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.MetadataRequests.WithLabelValues(op, "rejected").Inc()
		return nil, &apperr.MetadataError{Op: op, Err: err}
	default:
		metrics.MetadataRequests.WithLabelValues(op, "failure").Inc()
		return nil, err
	}
}

func (c *Client) doGet(ctx context.Context, op, path string, params url.Values) ([]byte, error) {
	if params == nil {
		params = url.Values{}
	}
	if c.accessToken == "" {
		params.Set("api_key", c.apiKey)
	}
	target := c.baseURL + path
	if len(params) > 0 {
		target += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, &apperr.MetadataError{Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if c.accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.accessToken)
	}

	slog.Debug("fetching TMDB", "op", op, "path", path)
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &apperr.MetadataError{Op: op, Err: fmt.Errorf("HTTP request failed: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &apperr.MetadataError{
			Op:     op,
			Status: resp.StatusCode,
			Err:    fmt.Errorf("TMDB API returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &apperr.MetadataError{Op: op, Status: resp.StatusCode, Err: err}
	}
	return body, nil
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
