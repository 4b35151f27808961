// Package likestate keeps the set of movies the current user has liked for
// the lifetime of one page session.
package likestate

import (
	"context"
	"sync"

	"movie-discovery-likes/internal/models"
)

// Lister loads the persisted likes of a user.
type Lister interface {
	ListLiked(ctx context.Context, userID string) ([]models.LikedMovie, error)
}

// Cache is the set of liked movie ids for one user. Membership reflects the
// store as of the last Load plus confirmed writes since; it is never
// re-verified against the store.
type Cache struct {
	mu    sync.RWMutex
	ids   map[string]struct{}
	store Lister
}

// New creates an empty cache backed by store.
func New(store Lister) *Cache {
	return &Cache{ids: make(map[string]struct{}), store: store}
}

// Load replaces the cache contents with the user's persisted likes. On error
// the previous contents are kept.
func (c *Cache) Load(ctx context.Context, userID string) error {
	likes, err := c.store.ListLiked(ctx, userID)
	if err != nil {
		return err
	}
	ids := make(map[string]struct{}, len(likes))
	for _, l := range likes {
		ids[l.MovieID.String()] = struct{}{}
	}

	c.mu.Lock()
	c.ids = ids
	c.mu.Unlock()
	return nil
}

// IsLiked reports whether id is in the set.
func (c *Cache) IsLiked(id models.MovieID) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.ids[id.String()]
	return ok
}

// MarkLiked adds id. Call only after the store confirmed the like.
func (c *Cache) MarkLiked(id models.MovieID) {
	c.mu.Lock()
	c.ids[id.String()] = struct{}{}
	c.mu.Unlock()
}

// MarkUnliked removes id. Call only after the store confirmed the delete.
func (c *Cache) MarkUnliked(id models.MovieID) {
	c.mu.Lock()
	delete(c.ids, id.String())
	c.mu.Unlock()
}
