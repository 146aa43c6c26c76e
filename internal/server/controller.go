package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/airwatchio/airwatch/pkg/config"
)

// Controller represents the REST server controller
type Controller struct {
	ctx      context.Context
	wg       *sync.WaitGroup
	cfg      config.ServerData
	registry *Registry
	Server   http.Server
	logger   *zap.SugaredLogger
	handlers *Handlers
}

// NewController creates a new REST server controller
func NewController(ctx context.Context, wg *sync.WaitGroup, cfg config.ServerData, registry *Registry, logger *zap.SugaredLogger) (*Controller, error) {
	if cfg.Port == 0 {
		return nil, fmt.Errorf("server: a listen port must be configured")
	}
	ctrl := &Controller{
		ctx:      ctx,
		wg:       wg,
		cfg:      cfg,
		registry: registry,
		logger:   logger,
	}
	ctrl.handlers = NewHandlers(ctrl)

	router := mux.NewRouter()
	router.HandleFunc("/api/collections", ctrl.handlers.ListCollections).Methods(http.MethodGet)
	router.HandleFunc("/api/collections/{name}/ids", ctrl.handlers.CollectionIDs).Methods(http.MethodGet)
	router.HandleFunc("/api/collections/{name}/meta", ctrl.handlers.CollectionMeta).Methods(http.MethodGet)
	router.HandleFunc("/api/collections/{name}/status", ctrl.handlers.CollectionStatus).Methods(http.MethodGet)
	router.HandleFunc("/api/collections/{name}/geojson", ctrl.handlers.CollectionGeoJSON).Methods(http.MethodGet)

	ctrl.Server = http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.ListenAddr, cfg.Port),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	return ctrl, nil
}

// Start launches the HTTP server and a goroutine that shuts it down when
// the controller's context is cancelled.
func (c *Controller) Start() {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.logger.Infof("REST server listening on %s", c.Server.Addr)
		if err := c.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			c.logger.Errorf("REST server error: %v", err)
		}
	}()

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		<-c.ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := c.Server.Shutdown(shutdownCtx); err != nil {
			c.logger.Errorf("REST server shutdown error: %v", err)
		}
	}()
}
