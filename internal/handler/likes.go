package handler

import (
	"bytes"
	"errors"
	"log/slog"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v3"

	"movie-discovery-likes/internal/apperr"
	"movie-discovery-likes/internal/middleware"
	"movie-discovery-likes/internal/models"
	"movie-discovery-likes/internal/render"
	"movie-discovery-likes/internal/validation"
)

const (
	msgLikeFailed   = "Error liking movie."
	msgUnlikeFailed = "Error unliking movie."
)

// ToggleLike likes or unlikes a movie for the signed-in user and re-renders
// the control. The local like-state only changes after the store confirmed
// the write; on failure the unchanged control comes back together with a
// showAlert event.
func (h *Handler) ToggleLike(c fiber.Ctx) error {
	id, err := models.ParseMovieID(c.Params("id"))
	if err != nil {
		return h.message(c, fiber.StatusBadRequest, render.Failure("Invalid movie."))
	}

	user := middleware.User(c)
	if user.Anonymous() {
		return h.message(c, fiber.StatusUnauthorized, render.Info(msgSearchLogin))
	}

	var req validation.LikeRequest
	if err := c.Bind().Form(&req); err != nil {
		return h.message(c, fiber.StatusBadRequest, render.Failure("Invalid request."))
	}
	if err := validation.ValidateStruct(&req); err != nil {
		slog.Warn("rejected like toggle", "movie_id", id, "error", err)
		return h.message(c, fiber.StatusBadRequest, render.Failure("Invalid request."))
	}

	p := h.page(c)
	like := req.Action == "like"
	if like {
		err = h.likes.Like(c.Context(), p, req.Liked(user.ID(), id))
	} else {
		err = h.likes.Unlike(c.Context(), p, id)
	}

	movie := models.Movie{ID: id, Title: req.Title, PosterPath: req.PosterPath, ReleaseDate: req.ReleaseDate}
	liked := like
	if err != nil {
		if errors.Is(err, apperr.ErrAnonymous) {
			return h.message(c, fiber.StatusUnauthorized, render.Info(msgSearchLogin))
		}
		alert := msgLikeFailed
		if !like {
			alert = msgUnlikeFailed
		}
		if err := setAlert(c, alert); err != nil {
			return err
		}
		liked = !like
	}

	card := render.NewCard(movie, render.CardOptions{Toggle: true, Liked: liked, View: req.View})
	if card.View == render.ViewCard {
		// an unliked card leaves the liked list
		if !liked {
			return c.Status(fiber.StatusOK).SendString("")
		}
		return h.html(c, fiber.StatusOK, func(buf *bytes.Buffer) error {
			return h.render.Card(buf, card)
		})
	}
	return h.html(c, fiber.StatusOK, func(buf *bytes.Buffer) error {
		return h.render.Toggle(buf, card)
	})
}

// setAlert asks the page to show a blocking alert once the response is
// swapped in.
func setAlert(c fiber.Ctx, text string) error {
	b, err := json.Marshal(map[string]string{"showAlert": text})
	if err != nil {
		return err
	}
	c.Set("HX-Trigger", string(b))
	return nil
}
