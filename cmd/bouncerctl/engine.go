package main

import (
	"context"
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/doodlesbykumbi/bouncer-in-go/pkg/audit"
	"github.com/doodlesbykumbi/bouncer-in-go/pkg/bouncer"
	"github.com/doodlesbykumbi/bouncer-in-go/pkg/cache"
	"github.com/doodlesbykumbi/bouncer-in-go/pkg/config"
	"github.com/doodlesbykumbi/bouncer-in-go/pkg/db"
	"github.com/doodlesbykumbi/bouncer-in-go/pkg/metrics"
	gormstore "github.com/doodlesbykumbi/bouncer-in-go/pkg/store/gorm"
)

// engineOpener opens the engine a command runs against. The returned func
// releases its connections. reg may be nil.
type engineOpener func(reg prometheus.Registerer) (*bouncer.Engine, func(), error)

// openEngine builds an engine over DATABASE_URL configured from
// bouncer.yml and the environment.
func openEngine(reg prometheus.Registerer) (*bouncer.Engine, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}

	database, err := db.Connect(db.Config{LogLevel: cfg.LogLevel})
	if err != nil {
		return nil, nil, err
	}
	closers := []func() error{func() error { return db.Close(database) }}

	ownership := bouncer.NewOwnership(cfg.DefaultOwnerField)
	for typ, field := range cfg.Owners {
		ownership.OwnedVia(typ, field)
	}
	opts := []bouncer.Option{
		bouncer.WithOwnership(ownership),
		bouncer.WithMetrics(metrics.New(reg)),
	}

	if cfg.CacheEnabled {
		var gen cache.Generation = cache.NewLocalGeneration()
		if cfg.CacheBackend == config.CacheBackendRedis {
			client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
			closers = append(closers, client.Close)
			gen = cache.NewRedisGeneration(client, cfg.RedisKey)
		}
		opts = append(opts, bouncer.WithCache(cache.NewDecisions(gen, cfg.CacheMaxEntries)))
	}

	if cfg.AuditEnabled {
		store, err := audit.OpenStore(cfg.AuditDatabaseURL)
		if err != nil {
			closeAll(closers)
			return nil, nil, fmt.Errorf("failed to open audit store: %w", err)
		}
		recorder := audit.NewRecorder(audit.NewLogger(os.Stderr), store)
		closers = append(closers, recorder.Close)
		opts = append(opts, bouncer.WithAudit(recorder))
	}

	return bouncer.New(gormstore.New(database), opts...), func() { closeAll(closers) }, nil
}

func closeAll(closers []func() error) {
	for i := len(closers) - 1; i >= 0; i-- {
		_ = closers[i]()
	}
}

// withEngine opens an engine for the duration of fn. The context carries
// the --actor flag for the audit trail.
func withEngine(cmd *cobra.Command, open engineOpener, fn func(context.Context, *bouncer.Engine) error) error {
	engine, release, err := open(nil)
	if err != nil {
		return err
	}
	defer release()

	actor, _ := cmd.Flags().GetString("actor")
	return fn(bouncer.WithActor(cmd.Context(), actor), engine)
}
