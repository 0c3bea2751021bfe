package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/nidhogg/mentat/internal/admission"
	"github.com/nidhogg/mentat/internal/api"
	"github.com/nidhogg/mentat/internal/attention"
	"github.com/nidhogg/mentat/internal/config"
	"github.com/nidhogg/mentat/internal/graphsource"
	"github.com/nidhogg/mentat/internal/persist"
	"github.com/nidhogg/mentat/internal/runner"
	"github.com/nidhogg/mentat/internal/telemetry"
	"github.com/nidhogg/mentat/internal/vectorstore"
)

func main() {
	_ = godotenv.Load()

	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	logger.Info("Starting Mentat...")

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "configs/mentat.json"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		logger.Fatal("failed to load config", zap.String("path", cfgPath), zap.Error(err))
	}
	logger.Info("Config loaded", zap.String("path", cfgPath))

	// The engine is the only component that must come up; everything
	// around it degrades with a warning.
	engine, err := attention.New(cfg.Engine, logger)
	if err != nil {
		logger.Fatal("invalid engine config", zap.Error(err))
	}
	scheduler := admission.New(logger)

	// Graph supplier: Neo4j when configured, otherwise a local file.
	var source graphsource.Source
	if cfg.Database.Neo4j.URI != "" {
		neoSource, neoErr := graphsource.NewNeo4jSource(cfg.Database.Neo4j.URI, cfg.Database.Neo4j.User, cfg.Database.Neo4j.Password, logger)
		if neoErr != nil {
			logger.Warn("Neo4j unavailable, graph snapshots disabled", zap.Error(neoErr))
		} else {
			source = neoSource
			defer neoSource.Close(context.Background())
		}
	}
	if source == nil {
		graphPath := os.Getenv("GRAPH_PATH")
		if graphPath == "" {
			graphPath = "configs/graph.json"
		}
		source = graphsource.NewFileSource(graphPath)
		logger.Info("Using file graph source", zap.String("path", graphPath))
	}

	// Snapshot persistence.
	var pgStore *persist.Store
	if cfg.Database.Postgres.DSN != "" {
		ps, pgErr := persist.New(cfg.Database.Postgres.DSN, logger)
		if pgErr != nil {
			logger.Warn("PostgreSQL unavailable, running without persistence", zap.Error(pgErr))
		} else {
			if mErr := ps.Migrate(context.Background(), "migrations"); mErr != nil {
				logger.Fatal("migration failed", zap.Error(mErr))
			}
			pgStore = ps

			snap, loadErr := ps.LoadLatest(context.Background())
			switch {
			case errors.Is(loadErr, persist.ErrNoSnapshot):
				logger.Info("No persisted attention snapshot, starting fresh")
			case loadErr != nil:
				logger.Warn("failed to load attention snapshot", zap.Error(loadErr))
			default:
				engine.Restore(snap.Values, snap.Bank)
				logger.Info("Attention snapshot restored",
					zap.String("snapshot", snap.ID),
					zap.Int("values", len(snap.Values)))
			}
		}
	}

	// Cycle telemetry.
	var bus *telemetry.Bus
	if cfg.Database.Redis.URL != "" {
		b, busErr := telemetry.NewBus(cfg.Database.Redis.URL, logger)
		if busErr != nil {
			logger.Warn("Redis unavailable, running without telemetry", zap.Error(busErr))
		} else {
			bus = b
			logger.Info("Telemetry bus initialized")
		}
	}

	// Node embedding index.
	var index *vectorstore.Index
	if cfg.Database.Qdrant.Host != "" {
		ix, ixErr := vectorstore.NewIndex(vectorstore.Config{
			Host: cfg.Database.Qdrant.Host,
			Port: cfg.Database.Qdrant.Port,
		}, "mentat-nodes")
		if ixErr != nil {
			logger.Warn("Qdrant unavailable, running without vector index", zap.Error(ixErr))
		} else {
			index = ix
		}
	}

	var persister runner.Persister
	if pgStore != nil {
		persister = pgStore
	}
	var publisher runner.Publisher
	if bus != nil {
		publisher = bus
	}
	run := runner.New(engine, source, persister, publisher, cfg.Cycle.Interval(), logger)
	if index != nil {
		run.SetIndexer(index)
	}

	runCtx, cancelRun := context.WithCancel(context.Background())
	go run.Start(runCtx)

	handler := api.NewHandler(engine, scheduler, run, index, logger)

	port := fmt.Sprintf("%d", cfg.Server.Port)
	if port == "0" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: handler.Router(),
	}

	go func() {
		logger.Info("Mentat listening", zap.String("port", port))
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down Mentat...")
	cancelRun()
	ctx := context.Background()
	srv.Shutdown(ctx)
	if pgStore != nil {
		pgStore.Close()
	}
	if bus != nil {
		bus.Close()
	}
	if index != nil {
		index.Close()
	}
}
