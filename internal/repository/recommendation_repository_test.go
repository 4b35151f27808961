package repository

import (
	"strings"
	"testing"

	"movie-discovery-likes/internal/models"
)

func TestBuildInsert(t *testing.T) {
	batch := []models.Recommendation{
		{UserID: "u1", MovieID: 10, Score: 4.5},
		{UserID: "u2", MovieID: 11, Score: 3.25},
	}

	query, args := buildInsert(batch)

	if !strings.Contains(query, "($1, $2, $3), ($4, $5, $6)") {
		t.Errorf("query placeholders wrong: %s", query)
	}
	if !strings.HasSuffix(query, "generated_at = NOW()") {
		t.Errorf("query should upsert on conflict: %s", query)
	}
	if len(args) != 6 {
		t.Fatalf("len(args) = %d, want 6", len(args))
	}
	if args[3] != "u2" || args[4] != models.MovieID(11) || args[5] != 3.25 {
		t.Errorf("second row args = %v", args[3:])
	}
}

func TestNullableString(t *testing.T) {
	if got := nullableString(""); got != nil {
		t.Errorf("nullableString(\"\") = %v, want nil", got)
	}
	if got := nullableString("/p.jpg"); got != "/p.jpg" {
		t.Errorf("nullableString(\"/p.jpg\") = %v", got)
	}
}
