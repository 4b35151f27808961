package service

import (
	"context"
	"log/slog"

	"movie-discovery-likes/internal/apperr"
	"movie-discovery-likes/internal/metrics"
	"movie-discovery-likes/internal/models"
	"movie-discovery-likes/internal/session"
)

// LikeStore is the write side of the liked-movie store.
type LikeStore interface {
	ListLiked(ctx context.Context, userID string) ([]models.LikedMovie, error)
	AddLike(ctx context.Context, userID string, m models.LikedMovie) error
	RemoveLike(ctx context.Context, userID string, movieID models.MovieID) error
}

type LikeService struct {
	store LikeStore
}

func NewLikeService(store LikeStore) *LikeService {
	return &LikeService{store: store}
}

// Liked lists the page user's likes, oldest first.
func (s *LikeService) Liked(ctx context.Context, page *session.Page) ([]models.LikedMovie, error) {
	if page.User.Anonymous() {
		return nil, apperr.ErrAnonymous
	}
	return s.store.ListLiked(ctx, page.User.ID())
}

// Like persists m for the page user and only then marks it liked in the
// page's like-state.
func (s *LikeService) Like(ctx context.Context, page *session.Page, m models.LikedMovie) error {
	if page.User.Anonymous() {
		metrics.LikeToggles.WithLabelValues("like", "anonymous").Inc()
		return apperr.ErrAnonymous
	}
	if err := s.store.AddLike(ctx, page.User.ID(), m); err != nil {
		metrics.LikeToggles.WithLabelValues("like", "error").Inc()
		slog.Error("failed to like movie", "user_id", page.User.ID(), "movie_id", m.MovieID, "error", err)
		return err
	}
	page.Likes.MarkLiked(m.MovieID)
	metrics.LikeToggles.WithLabelValues("like", "ok").Inc()
	return nil
}

// Unlike deletes the like for id and only then clears it from the page's
// like-state.
func (s *LikeService) Unlike(ctx context.Context, page *session.Page, id models.MovieID) error {
	if page.User.Anonymous() {
		metrics.LikeToggles.WithLabelValues("unlike", "anonymous").Inc()
		return apperr.ErrAnonymous
	}
	if err := s.store.RemoveLike(ctx, page.User.ID(), id); err != nil {
		metrics.LikeToggles.WithLabelValues("unlike", "error").Inc()
		slog.Error("failed to unlike movie", "user_id", page.User.ID(), "movie_id", id, "error", err)
		return err
	}
	page.Likes.MarkUnliked(id)
	metrics.LikeToggles.WithLabelValues("unlike", "ok").Inc()
	return nil
}
