package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	analysishandler "ontoreg/internal/analysis/handler"
	"ontoreg/internal/audit"
	"ontoreg/internal/change"
	httprouter "ontoreg/internal/http"
	ighandler "ontoreg/internal/importgraph/handler"
	igmetrics "ontoreg/internal/importgraph/metrics"
	igmodels "ontoreg/internal/importgraph/models"
	"ontoreg/internal/importgraph/resolver"
	igsvc "ontoreg/internal/importgraph/service"
	igstore "ontoreg/internal/importgraph/store"
	"ontoreg/internal/impact"
	impactmetrics "ontoreg/internal/impact/metrics"
	nshandler "ontoreg/internal/namespace/handler"
	nsmetrics "ontoreg/internal/namespace/metrics"
	nssvc "ontoreg/internal/namespace/service"
	nsstore "ontoreg/internal/namespace/store"
	"ontoreg/internal/platform/config"
	"ontoreg/internal/platform/httpserver"
	"ontoreg/internal/platform/kafka"
	"ontoreg/internal/platform/logger"
	platformmetrics "ontoreg/internal/platform/metrics"
	platformredis "ontoreg/internal/platform/redis"
	verhandler "ontoreg/internal/version/handler"
	vermetrics "ontoreg/internal/version/metrics"
	vermodels "ontoreg/internal/version/models"
	versvc "ontoreg/internal/version/service"
	verstore "ontoreg/internal/version/store"
	id "ontoreg/pkg/domain"
	"ontoreg/pkg/platform/locks"
)

// versionStore is the union of every consumer's slice of the version store:
// the lifecycle service, the namespace cascade, the diff detector and the
// impact analyzer.
type versionStore interface {
	versvc.Store
	CountByNamespace(ctx context.Context, nsID id.NamespaceID) (int, error)
	DeleteByNamespace(ctx context.Context, nsID id.NamespaceID) error
	ListClassesByNamespace(ctx context.Context, nsID id.NamespaceID) ([]*vermodels.ClassDefinition, error)
}

// edgeStore is the union of the import graph service, the resolver, the
// namespace cascade and the impact analyzer.
type edgeStore interface {
	igsvc.Store
	All(ctx context.Context) ([]*igmodels.ImportEdge, error)
	CountIncident(ctx context.Context, nsID id.NamespaceID) (int, error)
	DeleteIncident(ctx context.Context, nsID id.NamespaceID) ([]id.NamespaceID, error)
}

// main wires configuration, stores, services and the HTTP surface. Business
// logic lives in the internal feature packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		namespaces nssvc.Store
		versions   versionStore
		edges      edgeStore
	)
	if cfg.Postgres.DSN != "" {
		db, err := sql.Open("postgres", cfg.Postgres.DSN)
		if err != nil {
			log.Error("failed to open postgres", "error", err.Error())
			os.Exit(1)
		}
		if err := db.PingContext(ctx); err != nil {
			log.Error("failed to reach postgres", "error", err.Error())
			os.Exit(1)
		}
		defer db.Close()
		namespaces = nsstore.NewPostgres(db)
		versions = verstore.NewPostgres(db)
		edges = igstore.NewPostgres(db)
		log.Info("using postgres stores")
	} else {
		namespaces = nsstore.NewInMemory()
		versions = verstore.NewInMemory()
		edges = igstore.NewInMemory()
		log.Info("using in-memory stores")
	}
	seeded := nsstore.SeedDefaultNamespaces(ctx, namespaces)
	log.Info("seeded default namespaces", "count", len(seeded))

	// Audit pipeline: publisher buffers, worker drains to kafka or slog.
	publisher := audit.NewPublisher(log, 256)
	var sink audit.Sink = audit.NewLogSink(log)
	producer, err := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	if err != nil {
		log.Error("failed to connect kafka", "error", err.Error())
		os.Exit(1)
	}
	if producer != nil {
		sink = producer
		defer producer.Close()
		log.Info("audit events publishing to kafka", "topic", cfg.Kafka.Topic)
	}
	worker := audit.NewWorker(publisher.Inbox(), sink, log)
	go worker.Run(ctx)

	// Optional redis diff cache.
	var diffCache change.Cache
	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("failed to connect redis", "error", err.Error())
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		diffCache = change.NewRedisCache(redisClient, cfg.DiffCacheTTL, log)
		log.Info("diff cache enabled")
	}

	keyed := locks.New()
	res := resolver.New(edges)
	httpMetrics := platformmetrics.New()

	namespaceService := nssvc.New(namespaces, versions, edges, res, log,
		nssvc.WithMetrics(nsmetrics.New()),
		nssvc.WithAudit(publisher),
	)
	importService := igsvc.New(edges, namespaces, versions, res, keyed, log,
		igsvc.WithMetrics(igmetrics.New()),
		igsvc.WithAudit(publisher),
	)
	analyzer := impact.New(res, namespaces, edges, versions, log,
		impact.WithMetrics(impactmetrics.New()),
	)
	versionService := versvc.New(versions, namespaces, edges, namespaceService, keyed, log,
		versvc.WithMetrics(vermetrics.New()),
		versvc.WithAudit(publisher),
		versvc.WithImpactAdvisor(analyzer),
	)
	detector := change.NewDetector(versions, diffCache, log)

	router := httprouter.NewRouter(
		nshandler.New(namespaceService, log, httpMetrics, cfg.AdminToken),
		verhandler.New(versionService, log, httpMetrics),
		ighandler.New(importService, log, httpMetrics),
		analysishandler.New(detector, analyzer, log, httpMetrics),
	)

	srv := httpserver.New(cfg.Addr, router)

	log.Info("starting ontoreg", "addr", cfg.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err.Error())
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err.Error())
		os.Exit(1)
	}
	cancel()
}
