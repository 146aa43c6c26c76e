// Package app wires configuration, refresh loops, storage, and the REST
// server into the airwatch daemon.
package app

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/airwatchio/airwatch/internal/log"
	"github.com/airwatchio/airwatch/internal/server"
	"github.com/airwatchio/airwatch/internal/storage"
	"github.com/airwatchio/airwatch/pkg/config"
	"github.com/airwatchio/airwatch/pkg/monitor"
)

// Default refresh intervals per cadence. Annual collections load once and
// are not refreshed.
const (
	defaultLatestRefresh = 10 * time.Minute
	defaultDailyRefresh  = 24 * time.Hour
)

// App represents the main application
type App struct {
	configProvider config.ConfigProvider
	logger         *zap.SugaredLogger
}

// New creates a new application instance
func New(configProvider config.ConfigProvider, logger *zap.SugaredLogger) *App {
	return &App{
		configProvider: configProvider,
		logger:         logger,
	}
}

// Run starts the application and blocks until shutdown
func (a *App) Run(ctx context.Context) error {
	var wg sync.WaitGroup

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	collections, err := a.configProvider.GetCollections()
	if err != nil {
		return err
	}
	storageCfg, err := a.configProvider.GetStorageConfig()
	if err != nil {
		return err
	}
	serverCfg, err := a.configProvider.GetServerConfig()
	if err != nil {
		return err
	}

	var snapshots *storage.SnapshotStore
	if storageCfg != nil && storageCfg.SQLite != nil {
		snapshots, err = storage.NewSnapshotStore(storageCfg.SQLite.Path)
		if err != nil {
			return err
		}
		defer snapshots.Close()
	}

	var archive *storage.ArchiveClient
	if storageCfg != nil && storageCfg.TimescaleDB != nil {
		archive = storage.NewArchiveClient(storageCfg.TimescaleDB.ConnectionString, a.logger)
		if err := archive.Connect(); err != nil {
			return err
		}
	}

	registry := server.NewRegistry()
	for _, collection := range collections {
		wg.Add(1)
		go func(c config.CollectionData) {
			defer wg.Done()
			a.runCollection(ctx, c, registry, snapshots, archive)
		}(collection)
	}

	if serverCfg != nil {
		ctrl, err := server.NewController(ctx, &wg, *serverCfg, registry, a.logger)
		if err != nil {
			return err
		}
		ctrl.Start()
	}

	log.Info("Application started successfully")

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigs:
		log.Info("shutdown signal received, initiating graceful shutdown...")
	case <-ctx.Done():
		log.Info("context cancelled, shutting down...")
	}

	cancel()
	log.Info("waiting for all workers to terminate...")
	wg.Wait()
	log.Info("shutdown complete")
	return nil
}

// runCollection loads one collection and keeps it refreshed at its
// cadence's interval.
func (a *App) runCollection(ctx context.Context, c config.CollectionData, registry *server.Registry, snapshots *storage.SnapshotStore, archive *storage.ArchiveClient) {
	refresh := func() {
		if err := a.refreshCollection(ctx, c, registry, snapshots, archive); err != nil {
			a.logger.Errorw("collection refresh failed", "collection", c.Name, "error", err)
		}
	}
	refresh()

	interval := refreshInterval(c)
	if interval == 0 {
		// Annual archives are static; a single load suffices.
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			refresh()
		}
	}
}

func refreshInterval(c config.CollectionData) time.Duration {
	if c.RefreshMinutes > 0 {
		return time.Duration(c.RefreshMinutes) * time.Minute
	}
	switch c.Cadence {
	case "latest":
		return defaultLatestRefresh
	case "daily":
		return defaultDailyRefresh
	default:
		return 0
	}
}

func (a *App) refreshCollection(ctx context.Context, c config.CollectionData, registry *server.Registry, snapshots *storage.SnapshotStore, archive *storage.ArchiveClient) error {
	m := monitor.NewEmpty()

	var opts monitor.LoadOptions
	switch c.Cadence {
	case "latest":
		opts = monitor.LatestLoadOptions(c.BaseURL, c.Feed)
	case "daily":
		opts = monitor.DailyLoadOptions(c.BaseURL, c.Feed)
	case "annual":
		opts = monitor.AnnualLoadOptions(c.BaseURL, c.Feed, c.Year)
	default:
		opts = monitor.LoadOptions{
			BaseName:    c.Feed,
			BaseURL:     c.BaseURL,
			MetaColumns: monitor.CoreMetadataColumns,
		}
	}
	if c.AllColumns {
		opts.MetaColumns = nil
	}
	opts.Logger = a.logger

	var err error
	if err = m.LoadCustom(ctx, opts); err != nil {
		return err
	}

	if c.DropEmpty {
		if m, err = m.DropEmpty(); err != nil {
			return err
		}
	}
	if c.Timezone != "" {
		if m, err = m.TrimDate(c.Timezone, false); err != nil {
			return err
		}
	}

	registry.Put(c.Name, m)
	a.logger.Infow("collection refreshed",
		"collection", c.Name, "deployments", m.Count(), "rows", m.RowCount())

	if snapshots != nil {
		records, err := m.StatusRecords()
		if err != nil {
			return err
		}
		if _, err := snapshots.RecordSnapshot(c.Name, records); err != nil {
			return err
		}
	}
	if archive != nil {
		if err := archive.ArchiveMonitor(c.Name, m); err != nil {
			return err
		}
	}
	return nil
}
