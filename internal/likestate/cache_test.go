package likestate

import (
	"context"
	"errors"
	"testing"

	"movie-discovery-likes/internal/models"
)

type fakeLister struct {
	likes []models.LikedMovie
	err   error
	calls int
}

func (f *fakeLister) ListLiked(_ context.Context, _ string) ([]models.LikedMovie, error) {
	f.calls++
	return f.likes, f.err
}

func TestCache_Load(t *testing.T) {
	store := &fakeLister{likes: []models.LikedMovie{{MovieID: 1}, {MovieID: 2}}}
	c := New(store)

	if err := c.Load(context.Background(), "u1"); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	for id := models.MovieID(0); id <= 5; id++ {
		want := id == 1 || id == 2
		if got := c.IsLiked(id); got != want {
			t.Errorf("IsLiked(%d) = %v, want %v", id, got, want)
		}
	}
}

func TestCache_LoadReplaces(t *testing.T) {
	store := &fakeLister{likes: []models.LikedMovie{{MovieID: 1}}}
	c := New(store)
	c.MarkLiked(99)

	if err := c.Load(context.Background(), "u1"); err != nil {
		t.Fatal(err)
	}
	if c.IsLiked(99) {
		t.Error("Load() should replace previous contents")
	}
	if !c.IsLiked(1) {
		t.Error("IsLiked(1) = false after load")
	}
}

func TestCache_LoadFailureKeepsContents(t *testing.T) {
	store := &fakeLister{likes: []models.LikedMovie{{MovieID: 7}}}
	c := New(store)
	if err := c.Load(context.Background(), "u1"); err != nil {
		t.Fatal(err)
	}

	store.err = errors.New("store down")
	if err := c.Load(context.Background(), "u1"); err == nil {
		t.Fatal("Load() error = nil, want failure")
	}
	if !c.IsLiked(7) {
		t.Error("failed Load() must not clear the cache")
	}
}

func TestCache_MarkLikedUnliked(t *testing.T) {
	c := New(&fakeLister{})

	c.MarkLiked(3)
	if !c.IsLiked(3) {
		t.Error("IsLiked(3) = false after MarkLiked")
	}

	c.MarkUnliked(3)
	if c.IsLiked(3) {
		t.Error("IsLiked(3) = true after MarkUnliked")
	}

	// unliking something never liked is a no-op
	c.MarkUnliked(42)
	if c.IsLiked(42) {
		t.Error("IsLiked(42) = true after MarkUnliked")
	}
}
