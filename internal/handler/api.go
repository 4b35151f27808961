package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gofiber/fiber/v3"

	"movie-discovery-likes/internal/apperr"
	"movie-discovery-likes/internal/middleware"
	"movie-discovery-likes/internal/models"
)

// Health returns service health status.
// @Summary Health check
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func (h *Handler) Health(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "ok",
		"service": "movie-likes",
	})
}

// GetRecommendations returns the recommendation list of the signed-in user.
// @Summary Get recommendations for a user
// @Tags recommendations
// @Produce json
// @Param user_id query string true "User ID; must match the signed-in user"
// @Success 200 {object} models.RecommendationsResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Failure 502 {object} models.ErrorResponse
// @Router /api/recommendations/ [get]
func (h *Handler) GetRecommendations(c fiber.Ctx) error {
	user := middleware.User(c)
	if user.Anonymous() {
		return c.Status(fiber.StatusUnauthorized).JSON(models.ErrorResponse{Error: "sign in required"})
	}
	if c.Query("user_id") != user.ID() {
		return c.Status(fiber.StatusForbidden).JSON(models.ErrorResponse{Error: "user_id does not match the signed-in user"})
	}

	recs, err := h.recs.For(c.Context(), user.ID())
	if err != nil {
		slog.Error("failed to get recommendations", "user_id", user.ID(), "error", err)
		status := fiber.StatusInternalServerError
		if apperr.IsRemote(err) || apperr.IsMetadata(err) {
			status = fiber.StatusBadGateway
		}
		return c.Status(status).JSON(models.ErrorResponse{Error: "failed to retrieve recommendations"})
	}

	results := recs.Movies
	if results == nil {
		results = []models.Movie{}
	}
	return c.JSON(models.RecommendationsResponse{Results: results})
}

// SearchMovies proxies a title search.
// @Summary Search movies by title
// @Tags metadata
// @Produce json
// @Param q query string true "Title query"
// @Success 200 {object} models.RecommendationsResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 502 {object} models.ErrorResponse
// @Router /api/metadata/search [get]
func (h *Handler) SearchMovies(c fiber.Ctx) error {
	movies, err := h.catalog.Search(c.Context(), c.Query("q"))
	if err != nil {
		return metadataError(c, "search", err)
	}
	return c.JSON(models.RecommendationsResponse{Results: movies})
}

// GetMovie proxies a single movie lookup.
// @Summary Get movie detail
// @Tags metadata
// @Produce json
// @Param id path int true "Movie ID"
// @Success 200 {object} models.Movie
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 502 {object} models.ErrorResponse
// @Router /api/metadata/movies/{id} [get]
func (h *Handler) GetMovie(c fiber.Ctx) error {
	id, err := models.ParseMovieID(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{Error: "invalid movie ID"})
	}
	movie, err := h.catalog.Detail(c.Context(), id)
	if err != nil {
		return metadataError(c, "movie detail", err)
	}
	return c.JSON(movie)
}

// GetSimilar proxies the similar-titles lookup.
// @Summary List similar movies
// @Tags metadata
// @Produce json
// @Param id path int true "Movie ID"
// @Success 200 {object} models.RecommendationsResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 502 {object} models.ErrorResponse
// @Router /api/metadata/movies/{id}/similar [get]
func (h *Handler) GetSimilar(c fiber.Ctx) error {
	id, err := models.ParseMovieID(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{Error: "invalid movie ID"})
	}
	movies, err := h.catalog.Similar(c.Context(), id)
	if err != nil {
		return metadataError(c, "similar", err)
	}
	return c.JSON(models.RecommendationsResponse{Results: movies})
}

// GetCatalogList proxies a curated list.
// @Summary List curated movies
// @Tags metadata
// @Produce json
// @Param kind path string true "List" Enums(now_playing,popular,top_rated)
// @Success 200 {object} models.RecommendationsResponse
// @Failure 502 {object} models.ErrorResponse
// @Router /api/metadata/lists/{kind} [get]
func (h *Handler) GetCatalogList(c fiber.Ctx) error {
	movies, err := h.catalog.Catalog(c.Context(), models.ParseCatalogList(c.Params("kind")))
	if err != nil {
		return metadataError(c, "catalog", err)
	}
	return c.JSON(models.RecommendationsResponse{Results: movies})
}

// metadataError maps metadata failures onto API statuses. Upstream 404s stay
// 404 and other upstream failures are a 502. Anything that never reached
// the upstream is a 500.
func metadataError(c fiber.Ctx, op string, err error) error {
	var ve *apperr.ValidationError
	if errors.As(err, &ve) {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{Error: ve.Error()})
	}
	var me *apperr.MetadataError
	if errors.As(err, &me) && me.Status == http.StatusNotFound {
		return c.Status(fiber.StatusNotFound).JSON(models.ErrorResponse{Error: "movie not found"})
	}
	slog.Error("metadata request failed", "operation", op, "error", err)
	if !apperr.IsMetadata(err) {
		return c.Status(fiber.StatusInternalServerError).JSON(models.ErrorResponse{Error: "internal error"})
	}
	return c.Status(fiber.StatusBadGateway).JSON(models.ErrorResponse{Error: "metadata service unavailable"})
}

func isEmptyQuery(err error) bool {
	return errors.Is(err, apperr.ErrEmptyQuery)
}
