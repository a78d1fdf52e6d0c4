package integration

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/gorm"

	schema "github.com/doodlesbykumbi/bouncer-in-go/db"
	"github.com/doodlesbykumbi/bouncer-in-go/pkg/audit"
	"github.com/doodlesbykumbi/bouncer-in-go/pkg/bouncer"
	"github.com/doodlesbykumbi/bouncer-in-go/pkg/cache"
	"github.com/doodlesbykumbi/bouncer-in-go/pkg/db"
	gormstore "github.com/doodlesbykumbi/bouncer-in-go/pkg/store/gorm"
)

// TestContext holds all the resources needed for integration tests
type TestContext struct {
	DB          *gorm.DB
	RawDB       *sql.DB
	Container   testcontainers.Container
	DatabaseURL string
	Redis       *miniredis.Miniredis
	Audit       *audit.Store

	clients []*redis.Client
}

// NewTestContext starts a PostgreSQL testcontainer, migrates it and starts
// an in-process Redis for the shared cache generation.
func NewTestContext(ctx context.Context) (*TestContext, error) {
	pgContainer, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("bouncer_test"),
		tcpostgres.WithUsername("bouncer"),
		tcpostgres.WithPassword("bouncer"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start postgres container: %w", err)
	}

	// Get connection string for the host (not container network)
	host, err := pgContainer.Host(ctx)
	if err != nil {
		_ = pgContainer.Terminate(ctx)
		return nil, fmt.Errorf("failed to get container host: %w", err)
	}
	port, err := pgContainer.MappedPort(ctx, "5432")
	if err != nil {
		_ = pgContainer.Terminate(ctx)
		return nil, fmt.Errorf("failed to get container port: %w", err)
	}
	connStr := fmt.Sprintf("postgres://bouncer:bouncer@%s:%s/bouncer_test?sslmode=disable", host, port.Port())

	if err := runMigrations(connStr); err != nil {
		_ = pgContainer.Terminate(ctx)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	gdb, err := db.Connect(db.Config{URL: connStr})
	if err != nil {
		_ = pgContainer.Terminate(ctx)
		return nil, err
	}
	rawDB, err := gdb.DB()
	if err != nil {
		_ = pgContainer.Terminate(ctx)
		return nil, fmt.Errorf("failed to get raw db: %w", err)
	}

	auditStore, err := audit.OpenStore(connStr)
	if err != nil {
		_ = rawDB.Close()
		_ = pgContainer.Terminate(ctx)
		return nil, fmt.Errorf("failed to open audit store: %w", err)
	}

	mr, err := miniredis.Run()
	if err != nil {
		_ = auditStore.Close()
		_ = rawDB.Close()
		_ = pgContainer.Terminate(ctx)
		return nil, fmt.Errorf("failed to start redis: %w", err)
	}

	return &TestContext{
		DB:          gdb,
		RawDB:       rawDB,
		Container:   pgContainer,
		DatabaseURL: connStr,
		Redis:       mr,
		Audit:       auditStore,
	}, nil
}

// runMigrations applies the embedded schema
func runMigrations(dbURL string) error {
	src, err := iofs.New(schema.Migrations, "migrations")
	if err != nil {
		return err
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, dbURL)
	if err != nil {
		return err
	}
	defer func() { _, _ = m.Close() }()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

// NewEngine returns an engine over the test database. Engines created by
// one TestContext share the Redis generation, so each one sees the others'
// mutations through its own cache.
func (tc *TestContext) NewEngine() *bouncer.Engine {
	client := redis.NewClient(&redis.Options{Addr: tc.Redis.Addr()})
	tc.clients = append(tc.clients, client)

	decisions := cache.NewDecisions(cache.NewRedisGeneration(client, cache.DefaultRedisKey), 0)
	recorder := audit.NewRecorder(audit.NewLogger(io.Discard), tc.Audit)
	ownership := bouncer.NewOwnership("").OwnedVia("user", "id")

	return bouncer.New(gormstore.New(tc.DB),
		bouncer.WithCache(decisions),
		bouncer.WithAudit(recorder),
		bouncer.WithOwnership(ownership),
	)
}

// Reset empties every table between scenarios
func (tc *TestContext) Reset(ctx context.Context) error {
	tc.Redis.FlushAll()
	return tc.DB.WithContext(ctx).Exec(
		`TRUNCATE abilities, roles, assigned_roles, permissions, messages RESTART IDENTITY CASCADE`,
	).Error
}

// Close cleans up all test resources
func (tc *TestContext) Close(ctx context.Context) {
	for _, c := range tc.clients {
		_ = c.Close()
	}
	if tc.Redis != nil {
		tc.Redis.Close()
	}
	if tc.Audit != nil {
		_ = tc.Audit.Close()
	}
	if tc.RawDB != nil {
		_ = tc.RawDB.Close()
	}
	if tc.Container != nil {
		_ = tc.Container.Terminate(ctx)
	}
}
