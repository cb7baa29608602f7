package server

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	apihttp "github.com/spatialdeck/backend/internal/api/http"
	"github.com/spatialdeck/backend/internal/api/middleware"
	"github.com/spatialdeck/backend/internal/api/ws"
	"github.com/spatialdeck/backend/internal/domain/catalog"
	"github.com/spatialdeck/backend/internal/domain/codec"
	"github.com/spatialdeck/backend/internal/domain/registry"
	"github.com/spatialdeck/backend/internal/domain/restore"
	"github.com/spatialdeck/backend/internal/domain/workspace"
	"github.com/spatialdeck/backend/internal/infrastructure/config"
	"github.com/spatialdeck/backend/internal/infrastructure/logging"
	"github.com/spatialdeck/backend/internal/infrastructure/monitoring"
	"github.com/spatialdeck/backend/internal/storage"
)

// Server wraps the HTTP server and the workspace engine it fronts.
type Server struct {
	router       *gin.Engine
	registry     *registry.Registry
	codec        *codec.Codec
	catalog      *catalog.Catalog
	store        *storage.DiskStore
	workspaces   *workspace.Manager
	orchestrator *restore.Orchestrator
	hub          *ws.Hub
	watcher      *catalog.Watcher
	watchCancel  context.CancelFunc
	logger       *logging.Logger
	config       *config.Config
	metrics      *monitoring.Metrics
}

// New assembles the engine and its HTTP surface.
func New(cfg *config.Config) (*Server, error) {
	var logger *logging.Logger
	if cfg.Logging.Development {
		logger = logging.NewDevelopment()
	} else {
		logger = logging.NewDefault()
	}

	logger.Info("Initializing workspace server",
		zap.String("port", cfg.Server.Port),
		zap.String("storage_root", cfg.Storage.Root),
		zap.Bool("compress", cfg.Storage.Compress),
	)

	metrics := monitoring.NewMetrics()

	store, err := storage.NewDiskStore(cfg.Storage.Root, cfg.Storage.Compress, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open document store: %w", err)
	}

	reg := registry.New().WithMetrics(metrics)
	cdc := codec.New()
	cat := catalog.New().WithMetrics(metrics)
	workspaces := workspace.NewManager(reg, cdc, store, cat, logger).WithMetrics(metrics)

	hub := ws.NewHub().WithMetrics(metrics)
	orchestrator := restore.New(reg, cdc, store, logger).
		WithMetrics(metrics).
		WithProgress(func(state restore.State, done, total int) {
			hub.Broadcast("restore_progress", map[string]interface{}{
				"state": string(state),
				"done":  done,
				"total": total,
			})
		})

	// Index whatever is already on disk, then keep the catalog current.
	var watcher *catalog.Watcher
	var watchCancel context.CancelFunc
	if cfg.Storage.Watch {
		watcher, err = catalog.NewWatcher(cat, store, cdc, logger)
		if err != nil {
			logger.Warn("Catalog watcher unavailable", zap.Error(err))
		} else {
			var watchCtx context.Context
			watchCtx, watchCancel = context.WithCancel(context.Background())
			if err := watcher.Rescan(watchCtx); err != nil {
				logger.Warn("Initial catalog rescan failed", zap.Error(err))
			}
			go watcher.Run(watchCtx)
		}
	}

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	if cfg.RateLimit.Enabled {
		router.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		}))
	}

	handlers := apihttp.NewHandlers(reg, workspaces, cat, orchestrator, hub, logger)
	wsHandler := ws.NewHandler(hub, logger)

	router.GET("/", handlers.Root)
	router.GET("/health", handlers.Health)

	// Window management
	router.GET("/windows", handlers.ListWindows)
	router.POST("/windows", handlers.CreateWindow)
	router.GET("/windows/:id", handlers.GetWindow)
	router.PATCH("/windows/:id", handlers.UpdateWindow)
	router.DELETE("/windows/:id", handlers.CloseWindow)
	router.DELETE("/windows", handlers.CloseAllWindows)

	// Workspace persistence
	router.POST("/workspaces/save", handlers.SaveWorkspace)
	router.GET("/workspaces", handlers.ListWorkspaces)
	router.GET("/workspaces/search", handlers.SearchWorkspaces)
	router.GET("/workspaces/:name", handlers.GetWorkspace)
	router.POST("/workspaces/:name/restore", handlers.RestoreWorkspace)
	router.DELETE("/workspaces/:name", handlers.DeleteWorkspace)

	// Event stream
	router.GET("/stream", wsHandler.HandleConnection)

	// Metrics
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/metrics/json", func(c *gin.Context) {
		c.JSON(200, metrics.Snapshot())
	})

	logger.Info("Server initialized successfully")

	return &Server{
		router:       router,
		registry:     reg,
		codec:        cdc,
		catalog:      cat,
		store:        store,
		workspaces:   workspaces,
		orchestrator: orchestrator,
		hub:          hub,
		watcher:      watcher,
		watchCancel:  watchCancel,
		logger:       logger,
		config:       cfg,
		metrics:      metrics,
	}, nil
}

// Run starts the HTTP server.
func (s *Server) Run() error {
	addr := s.config.Server.Host + ":" + s.config.Server.Port
	s.logger.Info("Starting HTTP server", zap.String("addr", addr))
	return s.router.Run(addr)
}

// Close gracefully shuts down the server.
func (s *Server) Close() error {
	s.logger.Info("Shutting down server...")
	if s.watchCancel != nil {
		s.watchCancel()
	}
	s.logger.Sync()
	return nil
}
