// Package session holds per-page-view state: who is looking, what they have
// liked, and which search request is the latest one.
package session

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"movie-discovery-likes/internal/identity"
	"movie-discovery-likes/internal/likestate"
	"movie-discovery-likes/internal/metrics"
)

// Page is the state of one rendered page. It is created when the page shell
// is served and looked up by ID on every follow-up request from that page.
type Page struct {
	ID     string
	User   identity.User
	Likes  *likestate.Cache
	Loaded bool

	searchSeq atomic.Uint64
}

// BeginSearch issues the next search sequence number for this page.
func (p *Page) BeginSearch() uint64 {
	return p.searchSeq.Add(1)
}

// IsLatestSearch reports whether seq is still the newest search issued.
func (p *Page) IsLatestSearch(seq uint64) bool {
	return p.searchSeq.Load() == seq
}

type entry struct {
	page    *Page
	expires time.Time
}

// DefaultMaxPages bounds the registry when no limit is configured.
const DefaultMaxPages = 10000

// Registry keeps live pages in memory until their TTL lapses. It holds at
// most maxPages; registering past that evicts the page closest to expiry.
type Registry struct {
	mu       sync.Mutex
	pages    map[string]*entry
	ttl      time.Duration
	maxPages int
	store    likestate.Lister
	now      func() time.Time
}

// NewRegistry creates a registry whose pages load likes from store.
func NewRegistry(store likestate.Lister, ttl time.Duration, maxPages int) *Registry {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	if maxPages <= 0 {
		maxPages = DefaultMaxPages
	}
	return &Registry{
		pages:    make(map[string]*entry),
		ttl:      ttl,
		maxPages: maxPages,
		store:    store,
		now:      time.Now,
	}
}

// Open returns the live page id belonging to user, or registers a new one.
// A new page for a signed-in user loads its like-state; when that load fails
// the page is still returned, unregistered and with Loaded false, together
// with the error.
func (r *Registry) Open(ctx context.Context, id string, user identity.User) (*Page, error) {
	if p := r.lookup(id, user); p != nil {
		return p, nil
	}

	p, err := r.newPage(ctx, user)
	if err != nil {
		return p, err
	}
	r.register(p)
	return p, nil
}

// Attach returns the live page id belonging to user. Unknown, expired or
// foreign ids get a throwaway page that is never registered, so follow-up
// requests cannot grow the registry.
func (r *Registry) Attach(ctx context.Context, id string, user identity.User) (*Page, error) {
	if p := r.lookup(id, user); p != nil {
		return p, nil
	}
	return r.newPage(ctx, user)
}

// Len returns the number of registered pages, expired or not.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pages)
}

func (r *Registry) newPage(ctx context.Context, user identity.User) (*Page, error) {
	p := &Page{
		ID:    uuid.NewString(),
		User:  user,
		Likes: likestate.New(r.store),
	}
	if !user.Anonymous() {
		if err := p.Likes.Load(ctx, user.ID()); err != nil {
			return p, err
		}
	}
	p.Loaded = true
	return p, nil
}

func (r *Registry) register(p *Page) {
	r.mu.Lock()
	now := r.now()
	if len(r.pages) >= r.maxPages {
		r.evictLocked(now)
	}
	r.pages[p.ID] = &entry{page: p, expires: now.Add(r.ttl)}
	n := len(r.pages)
	r.mu.Unlock()
	metrics.PageSessions.Set(float64(n))
}

// evictLocked drops expired pages, then the page closest to expiry if the
// registry is still full.
func (r *Registry) evictLocked(now time.Time) {
	var (
		oldestID string
		oldest   time.Time
	)
	for id, e := range r.pages {
		if now.After(e.expires) {
			delete(r.pages, id)
			continue
		}
		if oldestID == "" || e.expires.Before(oldest) {
			oldestID, oldest = id, e.expires
		}
	}
	if len(r.pages) >= r.maxPages && oldestID != "" {
		delete(r.pages, oldestID)
		metrics.PageEvictions.Inc()
	}
}

func (r *Registry) lookup(id string, user identity.User) *Page {
	if id == "" {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.pages[id]
	if !ok {
		return nil
	}
	if r.now().After(e.expires) {
		delete(r.pages, id)
		return nil
	}
	// a page id never crosses users
	if e.page.User != user {
		return nil
	}
	e.expires = r.now().Add(r.ttl)
	return e.page
}

// Sweep drops expired pages and returns how many remain.
func (r *Registry) Sweep() int {
	r.mu.Lock()
	now := r.now()
	for id, e := range r.pages {
		if now.After(e.expires) {
			delete(r.pages, id)
		}
	}
	n := len(r.pages)
	r.mu.Unlock()
	metrics.PageSessions.Set(float64(n))
	return n
}

// Run sweeps every interval until ctx is done.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep()
		}
	}
}
