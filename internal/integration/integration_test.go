package integration

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	"flag-quiz-service/internal/app"
	"flag-quiz-service/internal/domain"
	pgloader "flag-quiz-service/internal/infra/postgres"
	pgmigrations "flag-quiz-service/internal/infra/postgres/migrations"
	infraredis "flag-quiz-service/internal/infra/redis"
	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"
)

func TestQuizFlowEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	seedCountries(t, ctx, pgURL, sampleCountries())

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	loader := pgloader.NewCountryLoader(pool)

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	catalog := infraredis.NewCatalog(redisClient, loader, 5*time.Minute)
	questionService := app.NewQuestionService(catalog)
	progressService := app.NewProgressService(
		infraredis.NewScoreStore(redisClient),
		infraredis.NewProgressStore(redisClient),
	)

	questions, err := questionService.Generate(ctx, "easy", 3)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(questions) != 3 {
		t.Fatalf("expected 3 questions, got %d", len(questions))
	}
	for _, q := range questions {
		if len(q.Options) != 4 {
			t.Fatalf("question %d has %d options", q.ID, len(q.Options))
		}
	}

	result, err := progressService.Submit(ctx, domain.ScoreSubmission{
		UserID:            "u1",
		GameType:          "flag",
		Difficulty:        "easy",
		Score:             70,
		QuestionsAnswered: 10,
		CorrectAnswers:    7,
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !result.NewBestScore || result.BestScore != 70 {
		t.Fatalf("unexpected submission result %+v", result)
	}
	if len(result.UnlockedLevels) != 2 || result.UnlockedLevels[1] != domain.DifficultyMedium {
		t.Fatalf("expected medium unlocked, got %v", result.UnlockedLevels)
	}

	entries, err := progressService.QueryLeaderboard(ctx, "flag", domain.DifficultyEasy, 10)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(entries) != 1 || entries[0].UserID != "u1" || entries[0].Score != 70 {
		t.Fatalf("unexpected leaderboard %+v", entries)
	}

	view, err := progressService.QueryProgress(ctx, "u1", "flag")
	if err != nil {
		t.Fatalf("progress: %v", err)
	}
	if view.HighScores[domain.DifficultyEasy] != 70 || view.TotalGamesPlayed != 1 {
		t.Fatalf("unexpected progress %+v", view)
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "quiz", "POSTGRES_PASSWORD": "quizpass", "POSTGRES_DB": "quizdb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://quiz:quizpass@%s:%s/quizdb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func seedCountries(t *testing.T, ctx context.Context, dsn string, countries []domain.Country) {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	for _, country := range countries {
		if _, err := db.ExecContext(ctx,
			`INSERT INTO countries (id, name, flag, difficulty) VALUES (?, ?, ?, ?) ON CONFLICT (id) DO NOTHING`,
			country.ID, country.Name, country.Flag, string(country.Difficulty),
		); err != nil {
			t.Fatalf("insert country: %v", err)
		}
	}
}

func sampleCountries() []domain.Country {
	return []domain.Country{
		{ID: 1, Name: "France", Flag: "/flags/fr.png", Difficulty: domain.DifficultyEasy},
		{ID: 2, Name: "Japan", Flag: "/flags/jp.png", Difficulty: domain.DifficultyEasy},
		{ID: 3, Name: "Brazil", Flag: "/flags/br.png", Difficulty: domain.DifficultyEasy},
		{ID: 4, Name: "Canada", Flag: "/flags/ca.png", Difficulty: domain.DifficultyEasy},
		{ID: 5, Name: "Italy", Flag: "/flags/it.png", Difficulty: domain.DifficultyEasy},
		{ID: 6, Name: "Moldova", Flag: "/flags/md.png", Difficulty: domain.DifficultyHard},
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
