// Package recommend scores unliked movies for every user from the co-like
// structure of all likes. It backs the batch job that refreshes the
// movie_recommendations table; nothing here runs in the request path.
package recommend

import (
	"context"
	"math"
	"sort"

	"movie-discovery-likes/internal/models"
)

const (
	minScore = 1.0
	maxScore = 5.0
)

// Config tunes the scorer.
type Config struct {
	// MaxPerUser caps how many recommendations are kept per user.
	MaxPerUser int

	// MinCoLikes drops item pairs liked together by fewer users.
	MinCoLikes int
}

// CoLike is an item-item recommender. Two movies are similar when the same
// users like both; similarity is the cosine of their liker sets.
type CoLike struct {
	maxPerUser int
	minCoLikes int
}

// NewCoLike creates a scorer, applying defaults for zero config values.
func NewCoLike(cfg Config) *CoLike {
	if cfg.MaxPerUser < 1 {
		cfg.MaxPerUser = 50
	}
	if cfg.MinCoLikes < 1 {
		cfg.MinCoLikes = 1
	}
	return &CoLike{maxPerUser: cfg.MaxPerUser, minCoLikes: cfg.MinCoLikes}
}

// Score returns recommendations for every user with at least one candidate.
// A candidate's raw score is the summed similarity to the user's likes,
// scaled per user onto 1-5 so the best candidate scores 5. Already liked
// movies are never recommended. Output is ordered by user, then score.
func (s *CoLike) Score(ctx context.Context, likes []models.LikedMovie) ([]models.Recommendation, error) {
	userItems := make(map[string]map[models.MovieID]struct{})
	for _, l := range likes {
		items, ok := userItems[l.UserID]
		if !ok {
			items = make(map[models.MovieID]struct{})
			userItems[l.UserID] = items
		}
		items[l.MovieID] = struct{}{}
	}

	itemCounts := make(map[models.MovieID]int)
	coLikes := make(map[models.MovieID]map[models.MovieID]int)
	for _, items := range userItems {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		ids := sortedIDs(items)
		for i, a := range ids {
			itemCounts[a]++
			for _, b := range ids[i+1:] {
				addPair(coLikes, a, b)
				addPair(coLikes, b, a)
			}
		}
	}

	users := make([]string, 0, len(userItems))
	for u := range userItems {
		users = append(users, u)
	}
	sort.Strings(users)

	var out []models.Recommendation
	for _, u := range users {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out = append(out, s.scoreUser(u, userItems[u], coLikes, itemCounts)...)
	}
	return out, nil
}

func (s *CoLike) scoreUser(user string, liked map[models.MovieID]struct{}, coLikes map[models.MovieID]map[models.MovieID]int, itemCounts map[models.MovieID]int) []models.Recommendation {
	raw := make(map[models.MovieID]float64)
	for a := range liked {
		for b, n := range coLikes[a] {
			if n < s.minCoLikes {
				continue
			}
			if _, seen := liked[b]; seen {
				continue
			}
			raw[b] += float64(n) / math.Sqrt(float64(itemCounts[a]*itemCounts[b]))
		}
	}
	if len(raw) == 0 {
		return nil
	}

	best := 0.0
	for _, v := range raw {
		best = max(best, v)
	}

	recs := make([]models.Recommendation, 0, len(raw))
	for id, v := range raw {
		recs = append(recs, models.Recommendation{
			UserID:  user,
			MovieID: id,
			Score:   minScore + (maxScore-minScore)*v/best,
		})
	}
	sort.Slice(recs, func(i, j int) bool {
		if recs[i].Score != recs[j].Score {
			return recs[i].Score > recs[j].Score
		}
		return recs[i].MovieID < recs[j].MovieID
	})
	if len(recs) > s.maxPerUser {
		recs = recs[:s.maxPerUser]
	}
	return recs
}

func addPair(m map[models.MovieID]map[models.MovieID]int, a, b models.MovieID) {
	if m[a] == nil {
		m[a] = make(map[models.MovieID]int)
	}
	m[a][b]++
}

func sortedIDs(set map[models.MovieID]struct{}) []models.MovieID {
	ids := make([]models.MovieID, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
