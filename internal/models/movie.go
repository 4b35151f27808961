package models

import (
	"strconv"
	"time"
)

const (
	TMDBImageBaseW200 = "https://image.tmdb.org/t/p/w200"
	PlaceholderPoster = "https://via.placeholder.com/200x300?text=No+Image"
	NotAvailable      = "N/A"
)

// MovieID identifies a movie in the metadata catalog.
type MovieID int64

// String returns the decimal form used as the like-state key.
func (id MovieID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// ParseMovieID accepts the integer or numeric string forms of an id.
func ParseMovieID(s string) (MovieID, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n <= 0 {
		return 0, strconv.ErrSyntax
	}
	return MovieID(n), nil
}

// Movie is the record shape rendered by every page. Optional fields are nil
// or empty when the source did not provide them.
type Movie struct {
	ID          MovieID  `json:"id"`
	Title       string   `json:"title"`
	PosterPath  string   `json:"poster_path,omitempty"`
	ReleaseDate string   `json:"release_date,omitempty"`
	Rating      *float64 `json:"vote_average,omitempty"`
	Score       *float64 `json:"score,omitempty"`
}

// LikedMovie is a persisted liked_movies row. Title, poster and release date
// are copies taken at like time.
type LikedMovie struct {
	UserID      string    `json:"user_id"`
	MovieID     MovieID   `json:"movie_id"`
	Title       string    `json:"title"`
	PosterPath  string    `json:"poster_path"`
	ReleaseDate string    `json:"release_date"`
	CreatedAt   time.Time `json:"created_at"`
}

// Movie converts the stored row into the rendering shape.
func (l LikedMovie) Movie() Movie {
	return Movie{
		ID:          l.MovieID,
		Title:       l.Title,
		PosterPath:  l.PosterPath,
		ReleaseDate: l.ReleaseDate,
	}
}

// Recommendation is a persisted movie_recommendations row. Higher scores
// are shown first.
type Recommendation struct {
	UserID      string    `json:"user_id"`
	MovieID     MovieID   `json:"movie_id"`
	Score       float64   `json:"score"`
	GeneratedAt time.Time `json:"generated_at"`
}

// CatalogList names a curated metadata list.
type CatalogList string

const (
	ListNowPlaying CatalogList = "now_playing"
	ListPopular    CatalogList = "popular"
	ListTopRated   CatalogList = "top_rated"
)

// ParseCatalogList falls back to popular for unknown names.
func ParseCatalogList(s string) CatalogList {
	switch CatalogList(s) {
	case ListNowPlaying, ListTopRated:
		return CatalogList(s)
	default:
		return ListPopular
	}
}

// RecommendationsResponse is the body of the internal recommendation API.
type RecommendationsResponse struct {
	Results []Movie `json:"results"`
}

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	Error string `json:"error"`
}
