package handler

import (
	"bytes"
	"log/slog"

	"github.com/gofiber/fiber/v3"

	"movie-discovery-likes/internal/metrics"
	"movie-discovery-likes/internal/middleware"
	"movie-discovery-likes/internal/models"
	"movie-discovery-likes/internal/render"
	"movie-discovery-likes/internal/service"
	"movie-discovery-likes/internal/session"
)

// Fixed page messages.
const (
	msgProfileLogin   = "Please log in to see your liked movies."
	msgProfileLoading = "Loading liked movies..."
	msgProfileEmpty   = "You haven't liked any movies yet."
	msgProfileError   = "Failed to load liked movies."

	msgRecsLogin     = "Please log in to see your recommendations."
	msgRecsLoading   = "Loading recommendations..."
	msgRecsNoLikes   = "No recommendations yet. Like some movies first!"
	msgRecsNoneFound = "No recommendations available based on your liked movies."
	msgRecsError     = "Error loading recommendations."

	msgSearchEmpty   = "Please enter a movie name."
	msgSearchLoading = "Loading..."
	msgSearchNone    = "No movies found."
	msgSearchError   = "Error loading results."
	msgSearchLogin   = "Log in to like movies."
)

// shell opens a fresh page session and renders its shell. A like-state load
// failure does not block the shell; the fragment request retries the load.
func (h *Handler) shell(c fiber.Ctx, s render.Shell, anonymousPrompt string) error {
	user := middleware.User(c)
	s.SignedIn = !user.Anonymous()

	if user.Anonymous() && anonymousPrompt != "" {
		prompt := render.Info(anonymousPrompt)
		s.Prompt = &prompt
		s.Fragment = ""
	} else {
		p, err := h.pages.Open(c.Context(), "", user)
		if err != nil {
			slog.Error("failed to load like-state", "user_id", user.ID(), "error", err)
		}
		s.PageID = p.ID
	}

	return h.html(c, fiber.StatusOK, func(buf *bytes.Buffer) error {
		return h.render.Page(buf, s)
	})
}

// SearchPage serves the search page shell.
func (h *Handler) SearchPage(c fiber.Ctx) error {
	return h.shell(c, render.Shell{
		Title:     "Movie Search",
		Heading:   "Search movies",
		Search:    true,
		Container: "results",
		Fragment:  "/search/results?list=" + string(models.ListPopular),
		Loading:   msgSearchLoading,
	}, "")
}

// ProfilePage serves the liked-movies page shell.
func (h *Handler) ProfilePage(c fiber.Ctx) error {
	return h.shell(c, render.Shell{
		Title:     "Profile",
		Heading:   "Your liked movies",
		Container: "liked-movies",
		Fragment:  "/profile/liked",
		Loading:   msgProfileLoading,
	}, msgProfileLogin)
}

// RecommendationsPage serves the recommendations page shell.
func (h *Handler) RecommendationsPage(c fiber.Ctx) error {
	return h.shell(c, render.Shell{
		Title:     "Recommendations",
		Heading:   "Recommended for you",
		Container: "recommendations",
		Fragment:  "/recommendations/list",
		Loading:   msgRecsLoading,
	}, msgRecsLogin)
}

// LikedFragment renders the user's liked movies, each with an unlike control
// that removes its card.
func (h *Handler) LikedFragment(c fiber.Ctx) error {
	if middleware.User(c).Anonymous() {
		return h.message(c, fiber.StatusOK, render.Info(msgProfileLogin))
	}
	p := h.page(c)

	liked, err := h.likes.Liked(c.Context(), p)
	if err != nil {
		slog.Error("failed to list liked movies", "user_id", p.User.ID(), "error", err)
		return h.message(c, fiber.StatusOK, render.Failure(msgProfileError))
	}
	if len(liked) == 0 {
		return h.message(c, fiber.StatusOK, render.Info(msgProfileEmpty))
	}

	cards := make([]render.CardView, len(liked))
	for i, l := range liked {
		cards[i] = render.NewCard(l.Movie(), render.CardOptions{
			Toggle: true,
			Liked:  true,
			View:   render.ViewCard,
		})
	}
	return h.cards(c, cards)
}

// RecommendationsFragment renders the recommendation list with ratings and
// like controls.
func (h *Handler) RecommendationsFragment(c fiber.Ctx) error {
	if middleware.User(c).Anonymous() {
		return h.message(c, fiber.StatusOK, render.Info(msgRecsLogin))
	}
	p := h.page(c)
	if !p.Loaded {
		return h.message(c, fiber.StatusOK, render.Failure(msgRecsError))
	}

	recs, err := h.recs.For(c.Context(), p.User.ID())
	if err != nil {
		slog.Error("failed to load recommendations", "user_id", p.User.ID(), "error", err)
		return h.message(c, fiber.StatusOK, render.Failure(msgRecsError))
	}

	switch recs.Outcome {
	case service.OutcomeNoLikes:
		return h.message(c, fiber.StatusOK, render.Info(msgRecsNoLikes))
	case service.OutcomeNoneFound:
		return h.message(c, fiber.StatusOK, render.Info(msgRecsNoneFound))
	}
	return h.cards(c, movieCards(recs.Movies, p, true))
}

// SearchFragment runs a title search, or lists a curated catalog when no
// query was submitted. Responses overtaken by a newer search from the same
// page are dropped with 204 so they never replace newer results.
func (h *Handler) SearchFragment(c fiber.Ctx) error {
	p := h.page(c)
	seq := p.BeginSearch()

	var (
		movies []models.Movie
		err    error
	)
	if c.Request().URI().QueryArgs().Has("q") {
		movies, err = h.catalog.Search(c.Context(), c.Query("q"))
	} else {
		movies, err = h.catalog.Catalog(c.Context(), models.ParseCatalogList(c.Query("list")))
	}

	if !p.IsLatestSearch(seq) {
		metrics.StaleSearchResponses.Inc()
		return c.SendStatus(fiber.StatusNoContent)
	}

	switch {
	case isEmptyQuery(err):
		return h.message(c, fiber.StatusOK, render.Info(msgSearchEmpty))
	case err != nil:
		slog.Error("search failed", "query", c.Query("q"), "error", err)
		return h.message(c, fiber.StatusOK, render.Failure(msgSearchError))
	case len(movies) == 0:
		return h.message(c, fiber.StatusOK, render.Info(msgSearchNone))
	}

	if p.User.Anonymous() {
		return h.html(c, fiber.StatusOK, func(buf *bytes.Buffer) error {
			if err := h.render.Message(buf, render.Info(msgSearchLogin)); err != nil {
				return err
			}
			return h.render.Cards(buf, movieCards(movies, p, false))
		})
	}
	if !p.Loaded {
		return h.message(c, fiber.StatusOK, render.Failure(msgSearchError))
	}
	return h.cards(c, movieCards(movies, p, true))
}

func (h *Handler) cards(c fiber.Ctx, cards []render.CardView) error {
	return h.html(c, fiber.StatusOK, func(buf *bytes.Buffer) error {
		return h.render.Cards(buf, cards)
	})
}

func movieCards(movies []models.Movie, p *session.Page, toggle bool) []render.CardView {
	cards := make([]render.CardView, len(movies))
	for i, m := range movies {
		cards[i] = render.NewCard(m, render.CardOptions{
			Toggle:     toggle,
			Liked:      toggle && p.Likes.IsLiked(m.ID),
			View:       render.ViewButton,
			ShowRating: true,
		})
	}
	return cards
}
