package integration

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"kibaro-cli/internal/app"
	"kibaro-cli/internal/domain"
	infraredis "kibaro-cli/internal/infra/redis"
	"kibaro-cli/internal/infra/sqlstore"
	"kibaro-cli/internal/testutil/fakeapi"
	"kibaro-cli/internal/transport/rest"

	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func TestOfflineScoresSurviveOnPostgres(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()

	db, err := sqlstore.Open(sqlstore.DriverPostgres, pgURL)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()
	if err := sqlstore.Migrate(ctx, db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	queue := sqlstore.NewOfflineQueue(db)

	down := fakeapi.New()
	down.Close()
	offline := app.NewScoreRecorder(rest.New(down.BaseURL(), nil), queue, nil)
	queued, err := offline.RecordChapter(ctx, "c1", 4)
	if err != nil || !queued {
		t.Fatalf("expected score queued, got queued=%v err=%v", queued, err)
	}

	api := fakeapi.New()
	defer api.Close()
	online := app.NewScoreRecorder(rest.New(api.BaseURL(), nil), queue, nil)
	sent, err := online.Flush(ctx, 10)
	if err != nil || sent != 1 {
		t.Fatalf("flush: sent=%d err=%v", sent, err)
	}
	batches := api.SyncedBatches()
	if len(batches) != 1 || batches[0][0] != (domain.ScoreSubmission{Points: 4, QuizType: domain.QuizTypeChapter, ChapterID: "c1"}) {
		t.Fatalf("unexpected batches %+v", batches)
	}
	if n, _ := queue.PendingCount(ctx); n != 0 {
		t.Fatalf("expected empty queue, got %d", n)
	}
}

func TestSessionAndChapterCacheOnRedis(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()
	client, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	defer client.Close()

	creds := infraredis.NewCredentialStore(client, "kibaro:session:it", time.Hour)
	api := fakeapi.New()
	var session *app.SessionStore
	restClient := rest.New(api.BaseURL(), rest.TokenFunc(func() string { return session.Token() }))
	session = app.NewSessionStore(restClient, creds)
	if _, err := session.Login(ctx, "awa@kibaro.gn", "secret"); err != nil {
		t.Fatalf("login: %v", err)
	}

	restored := app.NewSessionStore(restClient, creds)
	if err := restored.Load(ctx); err != nil || restored.State() != app.StateAuthenticated {
		t.Fatalf("expected restored session, state=%s err=%v", restored.State(), err)
	}

	quizzes := app.NewChapterQuizzes(restClient, infraredis.NewChapterCache(client, time.Hour))
	if _, cached, err := quizzes.Load(ctx, "c1"); err != nil || cached {
		t.Fatalf("online load: cached=%v err=%v", cached, err)
	}
	api.Close()
	quiz, cached, err := quizzes.Load(ctx, "c1")
	if err != nil || !cached || len(quiz.Questions) != 2 {
		t.Fatalf("offline load: cached=%v err=%v quiz=%+v", cached, err, quiz)
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "kibaro", "POSTGRES_PASSWORD": "kibaropass", "POSTGRES_DB": "kibaro"},
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
	dsn := fmt.Sprintf("postgres://kibaro:kibaropass@%s:%s/kibaro?sslmode=disable", host, port.Port())
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

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(opts), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
