package integration

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
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

	"cohort-portal-service/internal/app"
	"cohort-portal-service/internal/docstore"
	"cohort-portal-service/internal/domain"
	pgstore "cohort-portal-service/internal/infra/postgres"
	pgmigrations "cohort-portal-service/internal/infra/postgres/migrations"
	infraredis "cohort-portal-service/internal/infra/redis"
)

func TestPortalOnPostgresWithRedisQuizCache(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	migrateDatabase(t, ctx, pgURL)

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

	store := pgstore.NewStore(pool)
	runScenario(t, ctx, store, infraredis.NewQuizCache(redisClient, app.NewQuizLoader(store), 5*time.Minute))
}

func TestPortalOnRedisStore(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()
	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	defer redisClient.Close()

	store := infraredis.NewStore(redisClient)
	runScenario(t, ctx, store, infraredis.NewQuizCache(redisClient, app.NewQuizLoader(store), 5*time.Minute))
}

// runScenario walks one cohort through sign-in, grouping, a proposal, review
// and a quiz against a real store.
func runScenario(t *testing.T, ctx context.Context, store docstore.Store, cache app.QuizCache) {
	t.Helper()
	profiles := app.NewProfileService(store, nil)
	groups := app.NewGroupService(store, nil)
	proposals := app.NewProposalService(store, nil)
	lessons := app.NewLessonService(store, nil)
	quizzes := app.NewQuizService(store, cache, nil)
	portal := app.NewPortal(profiles, groups, proposals)

	for _, uid := range []string{"c1", "p1", "p2"} {
		if _, err := profiles.Resolve(ctx, &domain.Identity{UserID: uid, Email: uid + "@example.test"}); err != nil {
			t.Fatalf("resolve %s: %v", uid, err)
		}
	}
	if err := profiles.SetRole(ctx, "c1", domain.RoleCoordinator); err != nil {
		t.Fatalf("promote: %v", err)
	}
	coordinators, err := profiles.Coordinators(ctx)
	if err != nil || len(coordinators) != 1 || coordinators[0].UserID != "c1" {
		t.Fatalf("coordinators: %v %+v", err, coordinators)
	}

	group, err := groups.StartGroup(ctx, "Alpha", "p1")
	if err != nil {
		t.Fatalf("create group: %v", err)
	}
	if _, err := groups.EnterGroup(ctx, group.ID, "p2"); err != nil {
		t.Fatalf("join group: %v", err)
	}
	mine, err := groups.FindMyGroup(ctx, "p2")
	if err != nil || mine == nil || mine.ID != group.ID || len(mine.Members) != 2 {
		t.Fatalf("find my group: %v %+v", err, mine)
	}

	proposal, err := proposals.Submit(ctx, mine, "p2", app.NewProposal{CoordinatorID: "c1", Title: "Robot", Description: "Build it"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := proposals.Submit(ctx, mine, "p1", app.NewProposal{CoordinatorID: "c1", Title: "Other", Description: "Again"}); !errors.Is(err, domain.ErrProposalExists) {
		t.Fatalf("expected ErrProposalExists, got %v", err)
	}
	if _, err := proposals.UpdateProgress(ctx, proposal.ID, "Wheels done", "p1"); err != nil {
		t.Fatalf("progress: %v", err)
	}
	if _, err := proposals.SetStatus(ctx, proposal.ID, domain.StatusAccepted, "c1"); err != nil {
		t.Fatalf("status: %v", err)
	}

	view, err := portal.ProjectView(ctx, domain.UserProfile{UserID: "c1", Role: domain.RoleCoordinator})
	if err != nil {
		t.Fatalf("coordinator view: %v", err)
	}
	cv, ok := view.(app.CoordinatorProjectView)
	if !ok || len(cv.Proposals) != 1 || cv.Proposals[0].Status != domain.StatusAccepted {
		t.Fatalf("unexpected coordinator view %+v", view)
	}
	if p := cv.Proposals[0].Progress; p == nil || *p != "Wheels done" {
		t.Fatalf("progress not stored: %v", p)
	}

	recent, err := proposals.Since(ctx, time.Now().Add(-time.Hour))
	if err != nil || len(recent) != 1 {
		t.Fatalf("since: %v %d", err, len(recent))
	}

	lesson, err := lessons.Create(ctx, "c1", app.NewLesson{Title: "Intro", Level: domain.LevelBeginner, Content: "Hello"})
	if err != nil {
		t.Fatalf("lesson: %v", err)
	}
	if _, err := quizzes.Author(ctx, app.NewQuiz{
		LessonID:  lesson.ID,
		Questions: []app.QuestionInput{{Question: "2+2?", Options: []string{"3", "4"}, Answer: "4"}},
	}); err != nil {
		t.Fatalf("author quiz: %v", err)
	}
	result, err := quizzes.Take(ctx, "p1", lesson.ID, []string{"4"})
	if err != nil || result.Score != 1 {
		t.Fatalf("take: %v %+v", err, result)
	}
	results, err := quizzes.Results(ctx, "p1")
	if err != nil || len(results) != 1 || len(results[0].Questions) != 1 {
		t.Fatalf("results: %v %+v", err, results)
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "portal", "POSTGRES_PASSWORD": "portalpass", "POSTGRES_DB": "portaldb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForLog("database system is ready to accept connections").WithOccurrence(2).WithStartupTimeout(60 * time.Second),
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
	dsn := fmt.Sprintf("postgres://portal:portalpass@%s:%s/portaldb?sslmode=disable", host, port.Port())
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

func migrateDatabase(t *testing.T, ctx context.Context, dsn string) {
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
