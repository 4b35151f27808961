package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"movie-discovery-likes/internal/apperr"
	"movie-discovery-likes/internal/identity"
	"movie-discovery-likes/internal/likestate"
	"movie-discovery-likes/internal/models"
	"movie-discovery-likes/internal/session"
)

type fakeSource struct {
	mu       sync.Mutex
	movies   map[models.MovieID]models.Movie
	similar  map[models.MovieID][]models.Movie
	failing  map[models.MovieID]bool
	searches int
}

func (f *fakeSource) SearchByTitle(_ context.Context, query string) ([]models.Movie, error) {
	f.mu.Lock()
	f.searches++
	f.mu.Unlock()
	return []models.Movie{{ID: 1, Title: query}}, nil
}

func (f *fakeSource) GetByID(_ context.Context, id models.MovieID) (models.Movie, error) {
	// stagger completion so results finish out of order
	time.Sleep(time.Duration(10-int(id)%10) * time.Millisecond)
	if f.failing[id] {
		return models.Movie{}, &apperr.MetadataError{Op: "get movie", Status: 500, Err: errors.New("boom")}
	}
	return f.movies[id], nil
}

func (f *fakeSource) ListSimilar(_ context.Context, id models.MovieID) ([]models.Movie, error) {
	if f.failing[id] {
		return nil, &apperr.MetadataError{Op: "list similar", Err: errors.New("boom")}
	}
	return f.similar[id], nil
}

func (f *fakeSource) ListCatalog(_ context.Context, _ models.CatalogList) ([]models.Movie, error) {
	return []models.Movie{{ID: 9, Title: "Popular"}}, nil
}

func rating(v float64) *float64 { return &v }

func TestMetadataService_SearchBlank(t *testing.T) {
	src := &fakeSource{}
	svc := NewMetadataService(src, nil)

	for _, q := range []string{"", "   ", "\t"} {
		_, err := svc.Search(context.Background(), q)
		if !apperr.IsValidation(err) {
			t.Errorf("Search(%q) error = %v, want ValidationError", q, err)
		}
	}
	if src.searches != 0 {
		t.Errorf("searches = %d, want 0", src.searches)
	}
}

func TestMetadataService_FetchManyPartialFailure(t *testing.T) {
	src := &fakeSource{
		movies: map[models.MovieID]models.Movie{
			1: {ID: 1, Title: "One", Rating: rating(7)},
			2: {ID: 2, Title: "Two"},
			4: {ID: 4, Title: "Four"},
			5: {ID: 5, Title: "Five"},
		},
		failing: map[models.MovieID]bool{3: true},
	}
	svc := NewMetadataService(src, nil)

	ids := []models.MovieID{1, 2, 3, 4, 5}
	got := svc.FetchMany(context.Background(), ids)

	if len(got) != len(ids) {
		t.Fatalf("FetchMany() returned %d results, want %d", len(got), len(ids))
	}
	for _, id := range ids {
		r, ok := got[id]
		if !ok {
			t.Errorf("missing result for %d", id)
			continue
		}
		if r.ID != id {
			t.Errorf("result for %d carries id %d", id, r.ID)
		}
		if id == 3 {
			if !apperr.IsMetadata(r.Err) {
				t.Errorf("result 3 error = %v, want MetadataError", r.Err)
			}
			continue
		}
		if r.Err != nil {
			t.Errorf("result %d error = %v", id, r.Err)
		}
		if r.Value.ID != id {
			t.Errorf("result %d holds movie %d", id, r.Value.ID)
		}
	}
}

type fakeLikeStore struct {
	likes   []models.LikedMovie
	err     error
	added   []models.LikedMovie
	removed []models.MovieID
}

func (f *fakeLikeStore) ListLiked(_ context.Context, _ string) ([]models.LikedMovie, error) {
	return f.likes, f.err
}

func (f *fakeLikeStore) AddLike(_ context.Context, _ string, m models.LikedMovie) error {
	if f.err != nil {
		return f.err
	}
	f.added = append(f.added, m)
	return nil
}

func (f *fakeLikeStore) RemoveLike(_ context.Context, _ string, id models.MovieID) error {
	if f.err != nil {
		return f.err
	}
	f.removed = append(f.removed, id)
	return nil
}

func newPage(user identity.User, store likestate.Lister) *session.Page {
	return &session.Page{ID: "p1", User: user, Likes: likestate.New(store), Loaded: true}
}

func TestLikeService_Toggle(t *testing.T) {
	tests := []struct {
		name      string
		user      identity.User
		storeErr  error
		wantErr   func(error) bool
		wantLiked bool
	}{
		{"success", identity.Resolve("u1"), nil, nil, true},
		{"store failure", identity.Resolve("u1"), apperr.Remote("add like", errors.New("down")), apperr.IsRemote, false},
		{"anonymous", identity.Anonymous, nil, apperr.IsValidation, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeLikeStore{err: tt.storeErr}
			svc := NewLikeService(store)
			page := newPage(tt.user, store)

			err := svc.Like(context.Background(), page, models.LikedMovie{MovieID: 42, Title: "Answer"})
			if tt.wantErr == nil && err != nil {
				t.Fatalf("Like() error = %v", err)
			}
			if tt.wantErr != nil && !tt.wantErr(err) {
				t.Fatalf("Like() error = %v, wrong kind", err)
			}
			if got := page.Likes.IsLiked(42); got != tt.wantLiked {
				t.Errorf("IsLiked(42) = %v, want %v", got, tt.wantLiked)
			}
			if tt.user.Anonymous() && len(store.added) != 0 {
				t.Error("anonymous like must not write")
			}
		})
	}
}

func TestLikeService_UnlikeFailureKeepsCache(t *testing.T) {
	store := &fakeLikeStore{}
	svc := NewLikeService(store)
	page := newPage(identity.Resolve("u1"), store)
	page.Likes.MarkLiked(7)

	store.err = errors.New("down")
	if err := svc.Unlike(context.Background(), page, 7); err == nil {
		t.Fatal("Unlike() error = nil, want failure")
	}
	if !page.Likes.IsLiked(7) {
		t.Error("failed unlike must leave the cache unchanged")
	}

	store.err = nil
	if err := svc.Unlike(context.Background(), page, 7); err != nil {
		t.Fatal(err)
	}
	if page.Likes.IsLiked(7) {
		t.Error("IsLiked(7) = true after unlike")
	}
}

type fakeRecStore struct {
	recs []models.Recommendation
	err  error
}

func (f *fakeRecStore) ListRecommendations(_ context.Context, _ string, _ int) ([]models.Recommendation, error) {
	return f.recs, f.err
}

func TestRecommendationService_Stored(t *testing.T) {
	src := &fakeSource{
		movies: map[models.MovieID]models.Movie{
			10: {ID: 10, Title: "Ten", Rating: rating(8.1)},
		},
		failing: map[models.MovieID]bool{11: true},
	}
	recs := &fakeRecStore{recs: []models.Recommendation{
		{MovieID: 10, Score: 4.5},
		{MovieID: 11, Score: 3.25},
	}}
	svc := NewRecommendationService(recs, &fakeLikeStore{}, NewMetadataService(src, nil), 20, 5)

	got, err := svc.For(context.Background(), "u1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Outcome != OutcomeStored || len(got.Movies) != 2 {
		t.Fatalf("For() = %+v, want 2 stored movies", got)
	}
	if got.Movies[0].Title != "Ten" || *got.Movies[0].Score != 4.5 {
		t.Errorf("first = %+v", got.Movies[0])
	}
	failed := got.Movies[1]
	if failed.Title != "Movie #11" || failed.Rating != nil || *failed.Score != 3.25 {
		t.Errorf("failed lookup rendered as %+v", failed)
	}
}

func TestRecommendationService_Fallbacks(t *testing.T) {
	liked := []models.LikedMovie{{MovieID: 1}, {MovieID: 2}, {MovieID: 3}}
	src := &fakeSource{
		similar: map[models.MovieID][]models.Movie{
			1: {{ID: 2}, {ID: 20}, {ID: 21}},
			2: {{ID: 20}, {ID: 22}},
		},
		failing: map[models.MovieID]bool{3: true},
	}

	tests := []struct {
		name    string
		likes   []models.LikedMovie
		seeds   int
		want    Outcome
		wantIDs []models.MovieID
	}{
		{"no likes", nil, 5, OutcomeNoLikes, nil},
		{"similar deduplicated", liked, 5, OutcomeSimilar, []models.MovieID{20, 21, 22}},
		{"seed limit", liked, 1, OutcomeSimilar, []models.MovieID{20, 21}},
		// likes arrive oldest first, so the earliest like seeds the list
		{"earliest like seeds first", []models.LikedMovie{{MovieID: 2}, {MovieID: 1}}, 1, OutcomeSimilar, []models.MovieID{20, 22}},
		{"none found", []models.LikedMovie{{MovieID: 3}}, 5, OutcomeNoneFound, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewRecommendationService(&fakeRecStore{}, &fakeLikeStore{likes: tt.likes}, NewMetadataService(src, nil), 20, tt.seeds)
			got, err := svc.For(context.Background(), "u1")
			if err != nil {
				t.Fatal(err)
			}
			if got.Outcome != tt.want {
				t.Errorf("Outcome = %v, want %v", got.Outcome, tt.want)
			}
			if len(got.Movies) != len(tt.wantIDs) {
				t.Fatalf("got %d movies, want %d", len(got.Movies), len(tt.wantIDs))
			}
			for i, id := range tt.wantIDs {
				if got.Movies[i].ID != id {
					t.Errorf("Movies[%d] = %d, want %d", i, got.Movies[i].ID, id)
				}
			}
		})
	}
}

func TestRecommendationService_StoreFailure(t *testing.T) {
	recs := &fakeRecStore{err: apperr.Remote("list recommendations", errors.New("down"))}
	svc := NewRecommendationService(recs, &fakeLikeStore{}, NewMetadataService(&fakeSource{}, nil), 20, 5)

	if _, err := svc.For(context.Background(), "u1"); !apperr.IsRemote(err) {
		t.Errorf("For() error = %v, want RemoteError", err)
	}
	if _, err := svc.For(context.Background(), ""); !apperr.IsValidation(err) {
		t.Errorf("For(\"\") error = %v, want ValidationError", err)
	}
}
