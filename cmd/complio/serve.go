package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	actionhandler "complio/internal/actions/handler"
	actionservice "complio/internal/actions/service"
	actionstore "complio/internal/actions/store"
	httpapi "complio/internal/http"
	nchandler "complio/internal/nonconformance/handler"
	ncmetrics "complio/internal/nonconformance/metrics"
	ncservice "complio/internal/nonconformance/service"
	ncstore "complio/internal/nonconformance/store"
	permithandler "complio/internal/permit/handler"
	permitmetrics "complio/internal/permit/metrics"
	permitservice "complio/internal/permit/service"
	permitstore "complio/internal/permit/store"
	"complio/internal/platform/config"
	"complio/internal/platform/database"
	"complio/internal/platform/httpserver"
	"complio/internal/platform/lock"
	"complio/internal/platform/logger"
	"complio/internal/platform/metrics"
	platformredis "complio/internal/platform/redis"
	"complio/internal/rag"
	raghandler "complio/internal/rag/handler"
	"complio/internal/ratelimit"
	audit "complio/pkg/platform/audit"
	"complio/pkg/platform/audit/kafka"
	"complio/pkg/platform/audit/publisher"
	"complio/pkg/platform/middleware/auth"
	"complio/pkg/platform/tx"
)

func newServeCommand() *cobra.Command {
	var migrate bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg, migrate)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", false, "apply pending migrations before serving")
	return cmd
}

// backends holds the persistence choices shared by every module.
type backends struct {
	db     *sql.DB
	tx     tx.Runner
	locker lock.Locker
	limits ratelimit.Store
	events audit.Emitter
	health map[string]httpapi.HealthCheck
}

func openBackends(ctx context.Context, cfg config.Config, migrate bool, reg prometheus.Registerer, log *slog.Logger) (*backends, func(), error) {
	b := &backends{
		tx:     tx.NewInMemoryRunner(),
		locker: lock.NewSharded(),
		limits: ratelimit.NewInMemory(),
		events: audit.Nop{},
		health: map[string]httpapi.HealthCheck{},
	}
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	if cfg.Database.URL != "" {
		db, err := database.Open(ctx, cfg.Database)
		if err != nil {
			return nil, cleanup, err
		}
		closers = append(closers, func() { _ = db.Close() })
		if migrate {
			if err := database.Migrate(db, database.Up); err != nil {
				return nil, cleanup, fmt.Errorf("migrate: %w", err)
			}
		}
		b.db = db
		b.tx = tx.NewSQLRunner(db)
		b.health["database"] = db.PingContext
		log.InfoContext(ctx, "using postgres stores")
	} else {
		log.WarnContext(ctx, "DATABASE_URL not set, using in-memory stores")
	}

	rc, err := platformredis.New(ctx, cfg.Redis)
	if err != nil {
		return nil, cleanup, err
	}
	if rc != nil {
		closers = append(closers, func() { _ = rc.Close() })
		b.locker = lock.NewRedis(rc.Client, cfg.Workflow.LockTTL)
		b.limits = ratelimit.NewRedis(rc.Client)
		b.health["redis"] = rc.Health
		log.InfoContext(ctx, "using redis entity locks and rate limits")
	}

	if len(cfg.Audit.Brokers) > 0 {
		sink, err := kafka.NewSink(kafka.Config{Brokers: cfg.Audit.Brokers, Topic: cfg.Audit.Topic})
		if err != nil {
			return nil, cleanup, err
		}
		closers = append(closers, sink.Close)
		if err := sink.EnsureTopic(ctx, int32(cfg.Audit.Partitions), int16(cfg.Audit.ReplicationFactor)); err != nil { // #nosec G115 -- validated small positive ints
			return nil, cleanup, err
		}
		pub := publisher.NewPublisher(sink,
			publisher.WithAsyncBuffer(cfg.Audit.BufferSize),
			publisher.WithLogger(log),
			publisher.WithMetrics(publisher.NewMetrics(reg)),
		)
		// Runs before sink.Close so queued events drain first.
		closers = append(closers, pub.Close)
		b.events = pub
		b.health["audit_stream"] = sink.Ping
		log.InfoContext(ctx, "publishing audit events", "topic", cfg.Audit.Topic)
	}
	return b, cleanup, nil
}

func serve(ctx context.Context, cfg config.Config, migrate bool) error {
	log := logger.New(cfg.Server.LogLevel)
	slog.SetDefault(log)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	b, cleanup, err := openBackends(ctx, cfg, migrate, reg, log)
	defer cleanup()
	if err != nil {
		return err
	}

	router, err := newAPI(ctx, cfg, b, reg, log)
	if err != nil {
		return err
	}

	srv := httpserver.New(cfg.Server.Addr, router)
	errCh := make(chan error, 1)
	go func() {
		log.InfoContext(ctx, "starting complio", "addr", cfg.Server.Addr, "version", Version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}

// newAPI wires every module onto the chosen backends and returns the router.
func newAPI(ctx context.Context, cfg config.Config, b *backends, reg *prometheus.Registry, log *slog.Logger) (http.Handler, error) {
	var (
		actionStore actionservice.Store = actionstore.NewInMemory()
		ncStore     ncservice.Store     = ncstore.NewInMemory()
		permitStore permitservice.Store = permitstore.NewInMemory()
	)
	if b.db != nil {
		actionStore = actionstore.NewPostgres(b.db)
		ncStore = ncstore.NewPostgres(b.db)
		permitStore = permitstore.NewPostgres(b.db)
	}

	actions := actionservice.New(actionStore, actionservice.WithLogger(log))
	cases, err := ncservice.New(ncStore, actions,
		ncservice.WithLogger(log),
		ncservice.WithMetrics(ncmetrics.New(reg)),
		ncservice.WithTxRunner(b.tx),
		ncservice.WithLocker(b.locker),
		ncservice.WithCascadeConcurrency(cfg.Workflow.CascadeConcurrency),
		ncservice.WithAuditPublisher(b.events),
	)
	if err != nil {
		return nil, fmt.Errorf("init nonconformance service: %w", err)
	}
	permits, err := permitservice.New(permitStore,
		permitservice.WithLogger(log),
		permitservice.WithMetrics(permitmetrics.New(reg)),
		permitservice.WithTxRunner(b.tx),
		permitservice.WithLocker(b.locker),
		permitservice.WithAuditPublisher(b.events),
	)
	if err != nil {
		return nil, fmt.Errorf("init permit service: %w", err)
	}

	authMiddleware := auth.HeaderActor
	if cfg.Server.JWTSigningKey != "" {
		authMiddleware = auth.RequireAuth(auth.NewHS256Validator(cfg.Server.JWTSigningKey), log)
	} else {
		log.WarnContext(ctx, "JWT_SIGNING_KEY not set, trusting "+auth.ActorHeader+" header")
	}

	return httpapi.NewRouter(httpapi.Config{
		Logger: log,
		Auth:   authMiddleware,
		RateLimit: ratelimit.Middleware(b.limits,
			ratelimit.Limit{Requests: cfg.RateLimit.Requests, Window: cfg.RateLimit.Window},
			log, ratelimit.NewMetrics(reg)),
		Metrics:     metrics.New(reg),
		Gatherer:    reg,
		HealthCheck: b.health,
	},
		raghandler.New(rag.New(cfg.RAG), log),
		actionhandler.New(actions, log),
		nchandler.New(cases, log),
		permithandler.New(permits, log),
	), nil
}
