package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"fieldcatalog/catalog"
	"fieldcatalog/importer"
	"fieldcatalog/internal/config"
	"fieldcatalog/matching"
	"fieldcatalog/server/handlers"
	"fieldcatalog/server/middleware"
)

// Version is overridden at build time with -ldflags.
var Version = "dev"

// Server is the HTTP front of the field catalog.
type Server struct {
	config     *config.Config
	store      *catalog.Store
	matcher    *matching.Matcher
	httpServer *http.Server
}

// New opens the catalog database and wires the matcher from the
// configured (or embedded) alias table and taxonomy.
func New(cfg *config.Config) (*Server, error) {
	store, err := catalog.OpenStoreWithConfig(cfg.DatabasePath, catalog.DBConfig{
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	})
	if err != nil {
		return nil, err
	}

	matcher, err := buildMatcher(cfg)
	if err != nil {
		store.Close()
		return nil, err
	}

	configureLogging(cfg.LogLevel)

	return &Server{
		config:  cfg,
		store:   store,
		matcher: matcher,
	}, nil
}

func buildMatcher(cfg *config.Config) (*matching.Matcher, error) {
	aliases := matching.DefaultAliasTable()
	if cfg.AliasTablePath != "" {
		loaded, err := matching.LoadAliasTable(cfg.AliasTablePath)
		if err != nil {
			return nil, fmt.Errorf("load alias table: %w", err)
		}
		aliases = loaded
	}

	taxonomy := matching.DefaultTaxonomy()
	if cfg.TaxonomyPath != "" {
		loaded, err := matching.LoadTaxonomy(cfg.TaxonomyPath)
		if err != nil {
			return nil, fmt.Errorf("load taxonomy: %w", err)
		}
		taxonomy = loaded
	}

	return matching.NewMatcher(aliases, taxonomy), nil
}

func configureLogging(level string) {
	var slogLevel slog.Level
	switch strings.ToUpper(level) {
	case "DEBUG":
		slogLevel = slog.LevelDebug
	case "WARN":
		slogLevel = slog.LevelWarn
	case "ERROR":
		slogLevel = slog.LevelError
	default:
		slogLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slogLevel})
	slog.SetDefault(slog.New(handler))
}

// Router builds the gin engine with all middleware and routes. Exposed
// for httptest in handler tests.
func (s *Server) Router() *gin.Engine {
	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.GinRequestIDMiddleware())
	router.Use(middleware.GinCORSMiddleware())
	router.Use(middleware.GinGzipMiddleware())
	router.Use(middleware.GinLoggerMiddleware())
	router.Use(middleware.GinRecoveryMiddleware())
	router.Use(middleware.GinRateLimitMiddleware(s.config.RateLimitRPS, s.config.RateLimitBurst))

	importService := importer.NewImportServiceWithMatcher(s.store, s.matcher)

	matchHandler := handlers.NewMatchHandler(s.store, s.matcher)
	fieldsHandler := handlers.NewFieldsHandler(s.store)
	duplicatesHandler := handlers.NewDuplicatesHandler(s.store)
	importHandler := handlers.NewImportHandler(s.store, importService)
	healthHandler := handlers.NewHealthHandler(s.store, Version)

	api := router.Group("/api")
	{
		api.GET("/health", healthHandler.HandleHealth)

		api.GET("/fields", fieldsHandler.HandleListFields)
		api.POST("/fields", fieldsHandler.HandleCreateField)
		api.POST("/fields/match", matchHandler.HandleMatchField)
		api.POST("/fields/match/batch", matchHandler.HandleMatchBatch)
		api.GET("/fields/:key", fieldsHandler.HandleGetField)
		api.PATCH("/fields/:key", fieldsHandler.HandleUpdateField)

		api.GET("/duplicates", duplicatesHandler.HandleListDuplicates)
		api.POST("/duplicates/merge", duplicatesHandler.HandleMergeDuplicates)

		api.POST("/application-types", importHandler.HandleCreateApplicationType)
		api.POST("/import/csv", importHandler.HandleImportCSV)
		api.POST("/import/xlsx", importHandler.HandleImportXLSX)
		api.POST("/import/html", importHandler.HandleImportHTML)
	}

	return router
}

// Start runs the HTTP server until it is shut down.
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:         ":" + s.config.Port,
		Handler:      s.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	slog.Info("starting HTTP server", "addr", s.httpServer.Addr, "version", Version)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown stops the HTTP server gracefully and closes the database.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.store.Close()
			return fmt.Errorf("shutdown http server: %w", err)
		}
	}
	return s.store.Close()
}

// Store exposes the catalog store, used by the command line tools.
func (s *Server) Store() *catalog.Store {
	return s.store
}
