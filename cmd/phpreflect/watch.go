package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/jward/phpreflect"
	"github.com/jward/phpreflect/internal/watcher"
)

var (
	flagDebounce    time.Duration
	flagMetricsAddr string
)

var watchCmd = &cobra.Command{
	Use:   "watch [path]",
	Short: "Index, then keep the registry current as PHP files change",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runWatch,
}

func init() {
	watchCmd.Flags().DurationVar(&flagDebounce, "debounce", 0, "delay before re-indexing a batch of changes (default: watch.debounce from config)")
	watchCmd.Flags().StringVar(&flagMetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address, e.g. :9090")
}

func runWatch(cmd *cobra.Command, args []string) error {
	targetDir, err := resolveTargetDir(args)
	if err != nil {
		return err
	}
	repoRoot := findRepoRoot(targetDir)
	cfg, err := loadConfig(repoRoot)
	if err != nil {
		return err
	}
	dbPath := resolveDBPath(repoRoot, cfg)
	if dbPath != phpreflect.MemoryPath {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", filepath.Dir(dbPath), err)
		}
	}

	opts, err := engineOptions(cfg)
	if err != nil {
		return err
	}
	engine, err := phpreflect.New(dbPath, opts...)
	if err != nil {
		return fmt.Errorf("creating engine: %w", err)
	}
	defer engine.Close()

	ctx, stop := signal.NotifyContext(cmdContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	roots := indexRoots(args, targetDir, repoRoot, cfg)
	for _, root := range roots {
		if err := engine.IndexDirectory(ctx, root); err != nil {
			return fmt.Errorf("indexing %s: %w", root, err)
		}
	}

	exclude, err := cfg.Excluder()
	if err != nil {
		return err
	}
	debounce := cfg.Watch.Debounce
	if flagDebounce > 0 {
		debounce = flagDebounce
	}
	w, err := watcher.New(debounce, exclude, log, func(paths []string) {
		if err := engine.Refresh(ctx, paths); err != nil {
			log.WithError(err).Warn("refresh failed")
			return
		}
		log.WithField("files", len(paths)).Info("refreshed")
	})
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer w.Close()
	if err := w.Watch(ctx, roots); err != nil {
		return fmt.Errorf("watching: %w", err)
	}

	if flagMetricsAddr != "" {
		srv := serveMetrics(flagMetricsAddr)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	log.WithFields(logrus.Fields{"roots": roots, "db": dbPath}).Info("watching")
	<-ctx.Done()
	log.Info("stopping")
	return nil
}

func serveMetrics(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("metrics server failed")
		}
	}()
	log.WithField("addr", addr).Info("metrics server starting")
	return srv
}
