package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/doodlesbykumbi/bouncer-in-go/pkg/bouncer"
)

// reloadDelay coalesces the burst of events editors emit for one save
const reloadDelay = 250 * time.Millisecond

func newSeedWatchCmd(open engineOpener) *cobra.Command {
	watchCmd := &cobra.Command{
		Use:   "watch <file>",
		Short: "Load a seed file and reload it whenever it changes",
		Long: `Load a seed file and reload it whenever it changes.

The directory holding the file is watched, so editors that replace the
file on save are picked up. A document that fails to load is reported and
leaves the previous state in place.

Example:
  bouncerctl seed watch /etc/bouncer/permissions.yml
  bouncerctl seed watch --metrics-addr :9090 permissions.yml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			metricsAddr, _ := cmd.Flags().GetString("metrics-addr")

			reg := prometheus.NewRegistry()
			engine, release, err := open(reg)
			if err != nil {
				return err
			}
			defer release()

			if metricsAddr != "" {
				go serveMetrics(metricsAddr, reg)
			}

			ctx := bouncer.WithActor(cmd.Context(), actorOf(cmd))
			return watchSeed(ctx, engine, args[0], actorOf(cmd))
		},
	}
	watchCmd.Flags().String("metrics-addr", "", "Serve Prometheus metrics on this address")
	return watchCmd
}

func metricsRouter(reg *prometheus.Registry) *mux.Router {
	router := mux.NewRouter()
	router.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{})).
		Methods(http.MethodGet)
	return router
}

func serveMetrics(addr string, reg *prometheus.Registry) {
	srv := &http.Server{
		Handler:      handlers.LoggingHandler(os.Stderr, metricsRouter(reg)),
		Addr:         addr,
		WriteTimeout: 15 * time.Second,
		ReadTimeout:  15 * time.Second,
	}
	log.Printf("Serving metrics on %s/metrics", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Printf("Metrics server stopped: %v", err)
	}
}

func watchSeed(ctx context.Context, engine *bouncer.Engine, filename, actor string) error {
	filename, err := filepath.Abs(filename)
	if err != nil {
		return err
	}

	reload := func() {
		result, err := loadSeedFile(ctx, engine, filename, actor, false)
		if err != nil {
			log.Printf("Error loading seed: %v", err)
			return
		}
		log.Printf("Seed loaded from %s (%d abilities, %d roles, %d grants, %d memberships)",
			filename, result.Abilities, result.Roles, result.Grants, result.Memberships)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	dir := filepath.Dir(filename)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	reload()
	log.Printf("Watching %s for seed changes", filename)

	var pending <-chan time.Time
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != filename {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				pending = time.After(reloadDelay)
			}
		case <-pending:
			pending = nil
			log.Printf("File modified, reloading seed...")
			reload()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Printf("Watcher error: %v", err)
		case <-ctx.Done():
			log.Println("Shutting down...")
			return nil
		}
	}
}
