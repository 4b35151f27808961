package handler

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v3"

	"movie-discovery-likes/internal/identity"
	"movie-discovery-likes/internal/models"
)

// Logout clears the session cookie and returns to the search page.
func (h *Handler) Logout(c fiber.Ctx) error {
	c.Cookie(&fiber.Cookie{
		Name:     h.cookie.Name,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return c.Redirect().Status(fiber.StatusSeeOther).To("/")
}

// DevSession signs in as the posted user_id without a password. It is only
// routed when DEV_LOGIN is enabled.
func (h *Handler) DevSession(c fiber.Ctx) error {
	user := identity.Resolve(c.FormValue("user_id"))
	if user.Anonymous() {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{Error: "user_id is required"})
	}

	token, err := h.signer.Issue(user.ID(), h.cookie.TTL)
	if err != nil {
		slog.Error("failed to issue session", "user_id", user.ID(), "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(models.ErrorResponse{Error: "failed to issue session"})
	}

	c.Cookie(&fiber.Cookie{
		Name:     h.cookie.Name,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(h.cookie.TTL),
		HTTPOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	slog.Info("dev session issued", "user_id", user.ID())
	return c.Redirect().Status(fiber.StatusSeeOther).To("/")
}
