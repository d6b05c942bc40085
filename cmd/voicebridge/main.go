package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/axmenrecycling/voicebridge/internal/caller"
	"github.com/axmenrecycling/voicebridge/internal/callbacks"
	"github.com/axmenrecycling/voicebridge/internal/config"
	"github.com/axmenrecycling/voicebridge/internal/feed"
	"github.com/axmenrecycling/voicebridge/internal/httpapi"
	"github.com/axmenrecycling/voicebridge/internal/knowledge"
	"github.com/axmenrecycling/voicebridge/internal/memstore"
	"github.com/axmenrecycling/voicebridge/internal/observability"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	metrics := observability.NewMetrics(cfg.MetricsNamespace)
	ctx := context.Background()

	memory, err := memstore.NewStore(cfg.MemoryBackend, cfg.MemoryAPIBaseURL, cfg.MemoryAPIKey, cfg.MemoryHTTPTimeout)
	if err != nil {
		log.Fatalf("memory store init failed: %v", err)
	}
	defer memory.Close()
	if _, mock := memory.(*memstore.MockStore); mock {
		log.Printf("memory backend: mock (no MEMORY_API_KEY configured)")
	} else {
		log.Printf("memory backend: api (%s)", cfg.MemoryAPIBaseURL)
	}

	var (
		knowledgeStore knowledge.Store
		callbackStore  callbacks.Store
	)
	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("connect postgres: %v", err)
		}
		defer pool.Close()

		knowledgeStore, err = knowledge.NewPostgresStore(ctx, pool)
		if err != nil {
			log.Fatalf("knowledge store init failed: %v", err)
		}
		callbackStore, err = callbacks.NewPostgresStore(ctx, pool)
		if err != nil {
			log.Fatalf("callback store init failed: %v", err)
		}
		log.Printf("knowledge backend: postgres")
	} else {
		knowledgeStore = knowledge.NewMockStore()
		callbackStore = callbacks.NewMockStore()
		log.Printf("knowledge backend: mock (DATABASE_URL not set)")
	}

	resolver := caller.NewResolver(memory, metrics)
	persister := caller.NewPersister(memory, metrics)
	lookup := knowledge.NewLookup(knowledgeStore, metrics, cfg.ShopPhoneNumber)
	callbackSvc := callbacks.NewService(callbackStore, metrics)
	hub := feed.NewHub()

	api := httpapi.New(cfg, resolver, persister, lookup, callbackSvc, hub, metrics)
	httpServer := &http.Server{
		Addr:    cfg.BindAddr,
		Handler: api.Router(),
	}

	go func() {
		log.Printf("server listening on %s", cfg.BindAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Printf("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
		_ = httpServer.Close()
	}

	log.Printf("shutdown complete")
}
