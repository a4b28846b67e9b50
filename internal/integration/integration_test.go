package integration

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"

	"knowledge-quiz/internal/app"
	"knowledge-quiz/internal/bank"
	"knowledge-quiz/internal/clock"
	"knowledge-quiz/internal/domain"
	"knowledge-quiz/internal/infra/postgres"
	pgmigrations "knowledge-quiz/internal/infra/postgres/migrations"
	infraredis "knowledge-quiz/internal/infra/redis"
)

var scienceAnswers = []int{2, 0, 2, 2, 2, 2, 1}

func TestCompletedRunEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	migrateAndSeed(t, ctx, pgURL)

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	defer redisClient.Close()

	loader := postgres.NewTopicLoader(pool)
	topics := infraredis.NewTopicRepository(redisClient, loader, 5*time.Minute)
	sessions := infraredis.NewSessionStore(redisClient, 5*time.Minute)
	records := postgres.NewRecordStore(pool)
	clk := clock.NewManual(time.Date(2026, time.October, 16, 15, 4, 0, 0, time.UTC))
	service := app.NewQuizService(sessions, topics, records, app.Options{Clock: clk})

	listed, err := service.Topics(ctx)
	if err != nil {
		t.Fatalf("topics: %v", err)
	}
	if len(listed) != 3 || listed[0].ID != "science" || listed[2].ID != "movies" || listed[0].QuestionCount != 7 {
		t.Fatalf("expected bank order from postgres, got %+v", listed)
	}

	m, release := service.Connect("u1", nil)
	if err := m.SelectTopic(ctx, "science"); err != nil {
		t.Fatalf("select: %v", err)
	}
	if err := m.StartQuiz(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	if n, _ := redisClient.Exists(ctx, "quiz:topic:science", "quiz:player:u1").Result(); n != 2 {
		t.Fatalf("expected topic cache and liveness keys in redis, got %d", n)
	}

	for i, answer := range scienceAnswers {
		if _, err := m.SubmitAnswer(answer); err != nil {
			t.Fatalf("submit %d: %v", i, err)
		}
		clk.Advance(1500 * time.Millisecond)
	}
	if m.State() != domain.StateResults {
		t.Fatalf("expected results, got %s", m.State())
	}

	// a fresh leaderboard over the same table sees the run
	board := app.NewLeaderboard(postgres.NewRecordStore(pool), 50, nil)
	entries := board.List(ctx)
	if len(entries) != 1 || entries[0].Score != 7 || entries[0].Percentage != 100 || entries[0].Date != "Oct 16, 2026, 03:04 PM" {
		t.Fatalf("unexpected stored entries %+v", entries)
	}

	release()
	if n, _ := redisClient.Exists(ctx, "quiz:player:u1").Result(); n != 0 {
		t.Fatalf("expected liveness key removed")
	}
}

func TestRecordStoresSerializeAppends(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	migrateAndSeed(t, ctx, pgURL)
	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()
	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	defer redisClient.Close()

	stores := map[string]app.RecordStore{
		"postgres": postgres.NewRecordStore(pool),
		"redis":    infraredis.NewRecordStore(redisClient, "kq:"),
	}
	for name, store := range stores {
		t.Run(name, func(t *testing.T) {
			board := app.NewLeaderboard(store, 50, nil)
			at := time.Date(2026, time.October, 16, 15, 4, 0, 0, time.UTC)

			var wg sync.WaitGroup
			for i := 0; i < 20; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					entry := app.NewLeaderboardEntry("movies", i%8, 7, at.Add(time.Duration(i)*time.Second))
					if err := board.Append(ctx, entry); err != nil {
						t.Errorf("append %d: %v", i, err)
					}
				}(i)
			}
			wg.Wait()

			if got := len(board.List(ctx)); got != 20 {
				t.Fatalf("expected 20 entries, got %d", got)
			}

			c := board.RequestClear()
			if err := board.Clear(ctx, c.ID); err != nil {
				t.Fatalf("clear: %v", err)
			}
			if got := len(board.TopRanked(ctx, 5)); got != 0 {
				t.Fatalf("expected empty ranking after clear, got %d", got)
			}
		})
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

func migrateAndSeed(t *testing.T, ctx context.Context, dsn string) {
	t.Helper()
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

	pool, err := pgxpool.Connect(ctx, dsn)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()
	if err := postgres.SeedTopics(ctx, pool, bank.Default()); err != nil {
		t.Fatalf("seed topics: %v", err)
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
