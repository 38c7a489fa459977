package integration

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"
	"testing"
	"time"

	"character-quiz-bot/internal/app"
	"character-quiz-bot/internal/domain"
	pgcontent "character-quiz-bot/internal/infra/postgres"
	pgmigrations "character-quiz-bot/internal/infra/postgres/migrations"
	infraredis "character-quiz-bot/internal/infra/redis"
	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"
)

const questionsJSON = `[
  {"question": "Что бы ты выбрал?", "options": [
    {"text": "Меч", "scores": {"Гарри Поттер": 2}},
    {"text": "Книгу", "scores": {"Гермиона Грейнджер": 2}}
  ]},
  {"question": "Любимое место?", "options": [
    {"text": "Библиотека", "scores": {"Гермиона Грейнджер": 2}},
    {"text": "Поле для квиддича", "scores": {"Гарри Поттер": 2}}
  ]}
]`

// Key order here decides ties, so the database column must keep it.
const outcomesJSON = `{
  "Гермиона Грейнджер": {"name": "Гермиона Грейнджер", "description": "Умнейшая ведьма", "image": "hermione.jpg"},
  "Гарри Поттер": {"name": "Гарри Поттер", "description": "Мальчик, который выжил", "image": "harry.jpg"}
}`

func TestQuizEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	seedContent(t, ctx, pgURL, domain.RawContent{Questions: []byte(questionsJSON), Outcomes: []byte(outcomesJSON)})

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

	logger := log.New(&bytes.Buffer{}, "", 0)
	cache := infraredis.NewContentCache(redisClient, pgcontent.NewContentLoader(pool), 5*time.Minute)
	content := app.LoadContent(ctx, cache, logger)
	if !content.Available() || content.QuestionCount() != 2 {
		t.Fatalf("expected content loaded from postgres, err=%v", content.Err())
	}
	if names := content.Catalog().Names(); names[0] != "Гермиона Грейнджер" {
		t.Fatalf("expected catalog order preserved, got %v", names)
	}

	sessions := infraredis.NewSessionStore(redisClient, 5*time.Minute)
	engine := app.NewEngine(content, sessions, app.WithLogger(logger))
	service := app.NewQuizService(engine)

	out := service.Handle(ctx, domain.StartRequested("u1"))
	if len(out) != 1 || out[0].Question == nil || out[0].Question.Total != 2 {
		t.Fatalf("expected first question, got %+v", out)
	}
	// Harry +2 then Hermione +2: the tie goes to the first outcome in the catalog.
	service.Handle(ctx, domain.OptionChosen("u1", 0))
	out = service.Handle(ctx, domain.OptionChosen("u1", 0))
	if len(out) != 1 || out[0].Result == nil {
		t.Fatalf("expected result, got %+v", out)
	}
	if out[0].Result.Outcome != "Гермиона Грейнджер" {
		t.Fatalf("expected tie to resolve to Hermione, got %+v", out[0].Result)
	}

	// A second load is served by Redis.
	if _, err := pool.Exec(ctx, `DELETE FROM quiz_content`); err != nil {
		t.Fatalf("clear table: %v", err)
	}
	if _, err := cache.LoadQuestions(ctx); err != nil {
		t.Fatalf("expected cached questions, got %v", err)
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

func seedContent(t *testing.T, ctx context.Context, dsn string, raw domain.RawContent) {
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
	if err := pgcontent.NewContentWriter(db).SaveContent(ctx, raw); err != nil {
		t.Fatalf("seed content: %v", err)
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
