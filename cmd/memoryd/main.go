// Command memoryd runs the memory engine's MCP tool surface over stdio
// alongside a read-only admin HTTP server.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/JaimeStill/persistent-context/internal/adminhttp"
	"github.com/JaimeStill/persistent-context/internal/cognitive"
	"github.com/JaimeStill/persistent-context/internal/config"
	"github.com/JaimeStill/persistent-context/internal/content"
	"github.com/JaimeStill/persistent-context/internal/coordinator"
	"github.com/JaimeStill/persistent-context/internal/decay"
	"github.com/JaimeStill/persistent-context/internal/embedder"
	"github.com/JaimeStill/persistent-context/internal/llmscore"
	"github.com/JaimeStill/persistent-context/internal/mcptools"
	"github.com/JaimeStill/persistent-context/internal/search"
	"github.com/JaimeStill/persistent-context/internal/session"
	"github.com/JaimeStill/persistent-context/internal/logger"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	appLogger := logger.Setup(&cfg.Logging)
	appLogger.Info("starting memoryd",
		"data_dir", cfg.Data.Dir,
		"embedder_model", cfg.Embedder.Model,
		"admin_addr", cfg.AdminHTTP.Addr,
	)

	emb := embedder.NewHashProjection(cfg.Embedder.Dim)
	scorer := llmscore.NewHeuristic()

	pool := coordinator.NewPool(
		cfg.Data.Dir, emb, scorer,
		search.Config{
			Alpha:               cfg.Search.EntanglementAlpha,
			CandidateMultiplier: cfg.Search.CandidateMultiplier,
			MinCandidates:       cfg.Search.MinCandidates,
		},
		cognitive.Config{
			QueueCapacity: cfg.Cognitive.QueueCapacity,
			BatchSize:     cfg.Cognitive.BatchSize,
			BatchTimeout:  cfg.Cognitive.BatchTimeout,
			CacheSize:     cfg.Cognitive.CacheSize,
			CacheTTL:      cfg.Cognitive.CacheTTL,
		},
		decay.Config{
			Lambda:   cfg.Decay.Lambda,
			Floor:    cfg.Decay.Floor,
			Interval: cfg.Decay.Interval,
		},
		appLogger.Logger,
	)

	fetcher := content.NewHTTPFetcher(15 * time.Second)
	resolver := content.NewResolver(fetcher, fetcher)

	sessions := session.New(resolver, session.Config{
		GCInterval:         cfg.Session.GCInterval,
		CompletedRetention: cfg.Session.CompletedRetention,
		FailedRetention:    cfg.Session.FailedRetention,
	}, appLogger.Logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sessions.StartGC(ctx)

	admin := adminhttp.New(&cfg.AdminHTTP, pool, appLogger.Logger)
	if err := admin.Start(); err != nil {
		appLogger.Error("admin http server failed to start", "error", err)
		os.Exit(1)
	}
	appLogger.Info("admin http server started", "addr", cfg.AdminHTTP.Addr)

	toolServer := mcptools.New(pool, sessions, appLogger.Logger)
	srv := mcp.NewServer(&mcp.Implementation{Name: cfg.MCP.Name, Version: cfg.MCP.Version}, nil)
	toolServer.Register(srv)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := srv.Run(ctx, &mcp.StdioTransport{}); err != nil {
			appLogger.Error("mcp server stopped", "error", err)
			quit <- syscall.SIGTERM
		}
	}()

	<-quit
	appLogger.Info("shutdown signal received")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.AdminHTTP.ShutdownTimeout)
	defer shutdownCancel()

	if err := admin.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("admin http shutdown error", "error", err)
	}
	sessions.StopGC()
	pool.ShutdownAll()
	cancel()

	appLogger.Info("memoryd stopped")
}
