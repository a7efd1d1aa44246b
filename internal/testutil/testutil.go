package testutil

import (
	"context"
	"fmt"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dom/wedge-builds/internal/api"
	"github.com/dom/wedge-builds/internal/catalog"
	"github.com/dom/wedge-builds/internal/config"
	"github.com/dom/wedge-builds/internal/ratelimit"
	"github.com/dom/wedge-builds/internal/repository"
	"github.com/dom/wedge-builds/internal/repository/local"
	repoPostgres "github.com/dom/wedge-builds/internal/repository/postgres"
	"github.com/dom/wedge-builds/internal/service"
	"github.com/dom/wedge-builds/internal/websocket"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	gormPostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// TestDB manages a testcontainers PostgreSQL instance
type TestDB struct {
	Container testcontainers.Container
	DB        *gorm.DB
	DSN       string
}

// NewTestDB starts a PostgreSQL container and migrates the document store
// tables. It skips the test under -short since it needs Docker.
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container-backed test in short mode")
	}

	ctx := context.Background()

	container, err := tcPostgres.Run(ctx,
		"postgres:15-alpine",
		tcPostgres.WithDatabase("test_wedge_builds"),
		tcPostgres.WithUsername("test"),
		tcPostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	testDB := &TestDB{Container: container}
	t.Cleanup(testDB.Cleanup)

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	db, err := gorm.Open(gormPostgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(repoPostgres.Models...); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	testDB.DB = db
	testDB.DSN = dsn
	return testDB
}

// Cleanup terminates the container
func (tdb *TestDB) Cleanup() {
	if tdb.Container != nil {
		tdb.Container.Terminate(context.Background())
	}
}

// Truncate clears all tables for test isolation
func (tdb *TestDB) Truncate(t *testing.T) {
	t.Helper()

	for _, table := range []string{"builds", "user_sessions", "users"} {
		if err := tdb.DB.Exec(fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table)).Error; err != nil {
			t.Logf("warning: failed to truncate %s: %v", table, err)
		}
	}
}

// NewLocalStore opens an in-memory local store closed at test end.
func NewLocalStore(t *testing.T) *local.Store {
	t.Helper()

	store, err := local.Open("", zap.NewNop())
	if err != nil {
		t.Fatalf("failed to open local store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

// TestConfig returns a configuration suitable for testing
func TestConfig() *config.Config {
	return &config.Config{
		Port:               "0",
		Environment:        "test",
		CORSOrigins:        []string{"*"},
		JWTSecret:          "test-jwt-secret-key-for-testing-only",
		JWTExpirationHours: 1,
		BackendTimeout:     2 * time.Second,
		NotifyPollInterval: 50 * time.Millisecond,
		VoteRatePerSecond:  100,
		VoteRateBurst:      100,
		LogLevel:           "error",
	}
}

// TestServer holds all components for integration testing
type TestServer struct {
	Server   *httptest.Server
	DB       *TestDB
	Store    *local.Store
	Repos    *repository.Repositories
	Services *service.Services
	Hub      *websocket.Hub
	Limiter  *ratelimit.Limiter
	Config   *config.Config
}

// NewTestServer creates a complete test server with all dependencies
func NewTestServer(t *testing.T) *TestServer {
	return NewTestServerWithConfig(t, TestConfig())
}

// NewTestServerWithConfig is NewTestServer with a caller-supplied config.
func NewTestServerWithConfig(t *testing.T, cfg *config.Config) *TestServer {
	t.Helper()

	testDB := NewTestDB(t)
	store := NewLocalStore(t)

	repos := repoPostgres.NewRepositories(testDB.DB)
	repos.Draft = store.Drafts()
	repos.Notification = store.Notifications()

	cat, err := catalog.Load()
	if err != nil {
		t.Fatalf("failed to load catalog: %v", err)
	}

	log := zap.NewNop()
	hub := websocket.NewHub(log)
	go hub.Run()

	services := service.NewServices(repos, cat, cfg, log)
	services.Build.SetVoteListener(hub)

	limiter := ratelimit.New(cfg.VoteRatePerSecond, cfg.VoteRateBurst)
	server := httptest.NewServer(api.NewRouter(services, hub, limiter, cfg, log))

	t.Cleanup(func() {
		server.Close()
		hub.Stop()
		limiter.Stop()
	})

	return &TestServer{
		Server:   server,
		DB:       testDB,
		Store:    store,
		Repos:    repos,
		Services: services,
		Hub:      hub,
		Limiter:  limiter,
		Config:   cfg,
	}
}

// BaseURL returns the test server's base URL
func (ts *TestServer) BaseURL() string {
	return ts.Server.URL
}

// APIURL returns the full API URL for a given path
func (ts *TestServer) APIURL(path string) string {
	return fmt.Sprintf("%s/api/v1%s", ts.Server.URL, path)
}

// WebSocketURL returns the WebSocket URL with token
func (ts *TestServer) WebSocketURL(token string) string {
	wsURL := "ws" + ts.Server.URL[4:] // Replace "http" with "ws"
	return fmt.Sprintf("%s/api/v1/ws?token=%s", wsURL, token)
}
