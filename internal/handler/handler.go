package handler

import (
	"bytes"
	"context"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v3"

	"movie-discovery-likes/internal/identity"
	"movie-discovery-likes/internal/middleware"
	"movie-discovery-likes/internal/models"
	"movie-discovery-likes/internal/render"
	"movie-discovery-likes/internal/service"
	"movie-discovery-likes/internal/session"
)

// PageSessionHeader carries the page id on every htmx request.
const PageSessionHeader = "X-Page-Session"

// Catalog is the cached metadata service.
type Catalog interface {
	Search(ctx context.Context, query string) ([]models.Movie, error)
	Catalog(ctx context.Context, list models.CatalogList) ([]models.Movie, error)
	Detail(ctx context.Context, id models.MovieID) (models.Movie, error)
	Similar(ctx context.Context, id models.MovieID) ([]models.Movie, error)
}

// Liker reads and writes a page user's likes.
type Liker interface {
	Liked(ctx context.Context, page *session.Page) ([]models.LikedMovie, error)
	Like(ctx context.Context, page *session.Page, m models.LikedMovie) error
	Unlike(ctx context.Context, page *session.Page, id models.MovieID) error
}

// Recommender builds a user's recommendation list.
type Recommender interface {
	For(ctx context.Context, userID string) (service.Recommendations, error)
}

// Handler serves the page shells, the htmx fragments and the JSON API.
type Handler struct {
	render  *render.Renderer
	pages   *session.Registry
	catalog Catalog
	likes   Liker
	recs    Recommender
	signer  *identity.Signer
	cookie  CookieConfig
}

// CookieConfig names and times the session cookie.
type CookieConfig struct {
	Name   string
	TTL    time.Duration
	Secure bool
}

// NewHandler creates a new Handler.
func NewHandler(r *render.Renderer, pages *session.Registry, catalog Catalog, likes Liker, recs Recommender, signer *identity.Signer, cookie CookieConfig) *Handler {
	return &Handler{
		render:  r,
		pages:   pages,
		catalog: catalog,
		likes:   likes,
		recs:    recs,
		signer:  signer,
		cookie:  cookie,
	}
}

// page resolves the page session of an htmx request. Requests without a live
// page id get an unregistered page. When the like-state load fails the page
// comes back with Loaded false.
func (h *Handler) page(c fiber.Ctx) *session.Page {
	user := middleware.User(c)
	p, err := h.pages.Attach(c.Context(), c.Get(PageSessionHeader), user)
	if err != nil {
		slog.Error("failed to load like-state", "user_id", user.ID(), "error", err)
	}
	return p
}

// html renders into a buffer first so a template error never leaves a
// half-written fragment.
func (h *Handler) html(c fiber.Ctx, status int, fn func(buf *bytes.Buffer) error) error {
	var buf bytes.Buffer
	if err := fn(&buf); err != nil {
		return err
	}
	c.Type("html", "utf-8")
	return c.Status(status).Send(buf.Bytes())
}

func (h *Handler) message(c fiber.Ctx, status int, m render.Message) error {
	return h.html(c, status, func(buf *bytes.Buffer) error {
		return h.render.Message(buf, m)
	})
}
