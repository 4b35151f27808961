//go:build integration

package repository

import (
	"context"
	"database/sql"
	"fmt"
	"os/exec"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"movie-discovery-likes/internal/database"
	"movie-discovery-likes/internal/models"
)

func skipIfNoDocker(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if exec.CommandContext(ctx, "docker", "info").Run() != nil {
		t.Skip("Skipping test: Docker not available")
	}
}

func startPostgres(t *testing.T) *sql.DB {
	t.Helper()
	skipIfNoDocker(t)

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "postgres",
				"POSTGRES_PASSWORD": "postgres",
				"POSTGRES_DB":       "movie_likes",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("start postgres container: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("Warning: failed to terminate container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatal(err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatal(err)
	}

	dsn := fmt.Sprintf("host=%s port=%s user=postgres password=postgres dbname=movie_likes sslmode=disable", host, port.Port())
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.PingContext(ctx); err != nil {
		t.Fatalf("ping: %v", err)
	}
	if err := database.Migrate(ctx, db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestLikeRepository_Integration(t *testing.T) {
	db := startPostgres(t)
	repo := NewLikeRepository(db)
	ctx := context.Background()

	likes, err := repo.ListLiked(ctx, "u1")
	if err != nil {
		t.Fatalf("ListLiked() error = %v", err)
	}
	if likes == nil || len(likes) != 0 {
		t.Fatalf("ListLiked() = %v, want empty non-nil slice", likes)
	}

	m := models.LikedMovie{MovieID: 27205, Title: "Inception", PosterPath: "/p.jpg", ReleaseDate: "2010-07-15"}
	for i := 0; i < 2; i++ {
		if err := repo.AddLike(ctx, "u1", m); err != nil {
			t.Fatalf("AddLike() #%d error = %v", i, err)
		}
	}

	likes, err = repo.ListLiked(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if len(likes) != 1 {
		t.Fatalf("duplicate like stored: got %d rows", len(likes))
	}
	if likes[0].Title != "Inception" || likes[0].PosterPath != "/p.jpg" {
		t.Errorf("stored like = %+v", likes[0])
	}

	if err := repo.RemoveLike(ctx, "u1", 999); err != nil {
		t.Errorf("RemoveLike(missing) error = %v, want nil", err)
	}
	if err := repo.RemoveLike(ctx, "u1", 27205); err != nil {
		t.Fatalf("RemoveLike() error = %v", err)
	}
	likes, _ = repo.ListLiked(ctx, "u1")
	if len(likes) != 0 {
		t.Errorf("like still present after remove: %v", likes)
	}

	for _, id := range []models.MovieID{500, 100} {
		if err := repo.AddLike(ctx, "u1", models.LikedMovie{MovieID: id, Title: "t"}); err != nil {
			t.Fatal(err)
		}
		time.Sleep(10 * time.Millisecond)
	}
	likes, _ = repo.ListLiked(ctx, "u1")
	if len(likes) != 2 || likes[0].MovieID != 500 || likes[1].MovieID != 100 {
		t.Errorf("ListLiked() = %v, want oldest like first", likes)
	}
}

func TestRecommendationRepository_Integration(t *testing.T) {
	db := startPostgres(t)
	repo := NewRecommendationRepository(db)
	ctx := context.Background()

	recs := make([]models.Recommendation, 0, 7)
	for i := 1; i <= 7; i++ {
		recs = append(recs, models.Recommendation{UserID: "u1", MovieID: models.MovieID(i), Score: float64(i)})
	}
	recs = append(recs, models.Recommendation{UserID: "u2", MovieID: 1, Score: 5})

	if err := repo.ReplaceRecommendations(ctx, recs, 3); err != nil {
		t.Fatalf("ReplaceRecommendations() error = %v", err)
	}

	got, err := repo.ListRecommendations(ctx, "u1", 3)
	if err != nil {
		t.Fatalf("ListRecommendations() error = %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	for i, want := range []models.MovieID{7, 6, 5} {
		if got[i].MovieID != want {
			t.Errorf("got[%d].MovieID = %d, want %d", i, got[i].MovieID, want)
		}
	}

	if err := repo.ReplaceRecommendations(ctx, nil, 0); err != nil {
		t.Fatal(err)
	}
	got, _ = repo.ListRecommendations(ctx, "u1", 10)
	if len(got) != 0 {
		t.Errorf("table not cleared: %v", got)
	}
}
