package main

import (
	"context"
	"log/slog"
	stdhttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lineage/internal/audit"
	"lineage/internal/directory"
	"lineage/internal/engine"
	enginemetrics "lineage/internal/engine/metrics"
	"lineage/internal/engine/tracer"
	notifmetrics "lineage/internal/notification/metrics"
	notifservice "lineage/internal/notification/service"
	notifstore "lineage/internal/notification/store"
	personstore "lineage/internal/person/store"
	"lineage/internal/platform/config"
	"lineage/internal/platform/database"
	"lineage/internal/platform/health"
	"lineage/internal/platform/kafka/producer"
	"lineage/internal/platform/logger"
	"lineage/internal/platform/redis"
	"lineage/internal/processed"
	"lineage/internal/seeder"
	"lineage/internal/similarity"
	"lineage/internal/suggestion"
	httptransport "lineage/internal/transport/http"
	"lineage/internal/tree"
	treemetrics "lineage/internal/tree/metrics"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	log.Info("initializing lineage",
		"addr", cfg.Server.Addr,
		"environment", cfg.Server.Environment,
	)

	// Optional infrastructure: each backend degrades to in-process
	// equivalents when not configured, which keeps development setups and
	// tests databaseless.
	pool, err := database.New(cfg.Database)
	if err != nil {
		log.Error("database init failed", "error", err)
		os.Exit(1)
	}
	redisClient, err := redis.New(cfg.Redis)
	if err != nil {
		log.Error("redis init failed", "error", err)
		os.Exit(1)
	}
	kafkaProducer, err := producer.New(cfg.Kafka, log)
	if err != nil {
		log.Error("kafka init failed", "error", err)
		os.Exit(1)
	}

	var (
		persons     personstore.Store
		notifs      notifstore.Store
		marks       processed.Store
		auditStore  audit.Store
		resolver    directory.Resolver
		memResolver *directory.InMemoryResolver
	)
	if pool != nil {
		log.Info("using postgresql storage")
		persons = personstore.NewPostgres(pool.DB())
		notifs = notifstore.NewPostgres(pool.DB())
		marks = processed.NewPostgres(pool.DB())
		auditStore = audit.NewPostgresStore(pool.DB())
		resolver = directory.NewPostgres(pool.DB())
	} else {
		log.Warn("DATABASE_URL not set, using in-memory storage")
		persons = personstore.New()
		notifs = notifstore.New()
		marks = processed.NewInMemoryStore()
		auditStore = audit.NewInMemoryStore()
		memResolver = directory.NewInMemory()
		resolver = memResolver
	}

	if cfg.Server.SeedDemo {
		if memResolver != nil {
			if err := seeder.New(persons, memResolver, log).SeedAll(context.Background()); err != nil {
				log.Error("demo seeding failed", "error", err)
			}
		} else {
			log.Warn("LINEAGE_SEED_DEMO ignored with postgresql storage")
		}
	}

	auditOpts := []audit.PublisherOption{
		audit.WithAsyncBuffer(256),
		audit.WithPublisherLogger(log),
	}
	if kafkaProducer != nil {
		auditOpts = append(auditOpts, audit.WithKafkaSink(kafkaProducer, cfg.Kafka.Topic))
	}
	auditor := audit.NewPublisher(auditStore, auditOpts...)

	notifications := notifservice.New(notifs, resolver,
		notifservice.WithLogger(log),
		notifservice.WithMetrics(notifmetrics.New()),
		notifservice.WithAuditor(auditor),
	)

	engineMetrics := enginemetrics.New()
	analyzer := engine.New(
		persons,
		similarity.NewScorer(),
		suggestion.NewGenerator(resolver),
		notifications,
		resolver,
		engine.WithLogger(log),
		engine.WithMetrics(engineMetrics),
		engine.WithAuditor(auditor),
		engine.WithTracer(tracer.NewOTel()),
	)
	worker := engine.NewWorker(analyzer, cfg.Engine.QueueSize, cfg.Engine.Workers,
		engine.WithWorkerLogger(log),
		engine.WithWorkerMetrics(engineMetrics),
		engine.WithAnalysisTimeout(time.Minute),
	)

	var treeCache tree.Cache
	if redisClient != nil {
		log.Info("using redis tree cache", "ttl", cfg.Tree.CacheTTL)
		treeCache = tree.NewRedisCache(redisClient, cfg.Tree.CacheTTL, log)
	} else {
		treeCache = tree.NewMemoryCache(cfg.Tree.CacheTTL)
	}
	builder := tree.NewBuilder(persons,
		tree.WithCache(treeCache),
		tree.WithLogger(log),
		tree.WithMetrics(treemetrics.New()),
	)

	tracker := processed.NewTracker(marks,
		processed.WithLogger(log),
		processed.WithAuditor(auditor),
	)

	healthHandler := health.New(cfg.Server.Environment)
	if pool != nil {
		healthHandler.RegisterCheck("postgresql", func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return pool.Health(ctx)
		})
	}
	if redisClient != nil {
		healthHandler.RegisterCheck("redis", func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return redisClient.Health(ctx)
		})
	}

	router := httptransport.NewRouter(httptransport.Handlers{
		Persons:       httptransport.NewPersonHandler(persons, worker, builder, log),
		Trees:         httptransport.NewTreeHandler(builder, log),
		Notifications: httptransport.NewNotificationHandler(notifications, log),
		Processed:     httptransport.NewProcessedHandler(tracker, log),
		Health:        healthHandler,
	}, log)

	srv := &stdhttp.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("starting http server", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && err != stdhttp.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server gracefully")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}

	shutdown(log, worker, auditor, kafkaProducer, redisClient, pool)
	log.Info("server stopped")
}

// shutdown drains background work before releasing connections so in-flight
// analyses and audit events land.
func shutdown(log *slog.Logger, worker *engine.Worker, auditor *audit.Publisher, kafkaProducer *producer.Producer, redisClient *redis.Client, pool *database.Pool) {
	worker.Close()
	auditor.Close()
	if kafkaProducer != nil {
		if err := kafkaProducer.Close(); err != nil {
			log.Error("kafka close failed", "error", err)
		}
	}
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			log.Error("redis close failed", "error", err)
		}
	}
	if pool != nil {
		if err := pool.Close(); err != nil {
			log.Error("database close failed", "error", err)
		}
	}
}
