package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"complytrack/internal/compliance/audit"
	"complytrack/internal/compliance/events"
	"complytrack/internal/compliance/handler"
	"complytrack/internal/compliance/lock"
	compliancemetrics "complytrack/internal/compliance/metrics"
	"complytrack/internal/compliance/risk"
	"complytrack/internal/compliance/service"
	"complytrack/internal/compliance/store/memory"
	"complytrack/internal/compliance/store/postgres"
	"complytrack/internal/compliance/sweep"
	jwttoken "complytrack/internal/jwt_token"
	"complytrack/internal/platform/config"
	"complytrack/internal/platform/httpserver"
	"complytrack/internal/platform/logger"
	"complytrack/internal/platform/metrics"
	"complytrack/internal/platform/middleware"
	"complytrack/internal/platform/redis"
	"complytrack/pkg/platform/circuit"
	"complytrack/pkg/platform/httputil"
	adminmw "complytrack/pkg/platform/middleware/admin"
	authmw "complytrack/pkg/platform/middleware/auth"
	"complytrack/pkg/platform/middleware/metadata"
	"complytrack/pkg/platform/middleware/requesttime"
)

const shutdownTimeout = 10 * time.Second

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}

// readiness probes a dependency; nil probes are skipped.
type readiness func(ctx context.Context) error

func run(ctx context.Context, cfg config.Server, log *slog.Logger) error {
	var probes []readiness

	store, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()
	if pg, ok := store.(*postgres.Store); ok {
		probes = append(probes, pg.Ping)
	}

	policy := risk.DefaultPolicy()
	if cfg.PolicyFile != "" {
		if policy, err = risk.LoadPolicy(cfg.PolicyFile); err != nil {
			return err
		}
		log.Info("loaded risk policy", "path", cfg.PolicyFile)
	}

	complianceMetrics := compliancemetrics.New()
	auditLog := audit.NewLog(store,
		audit.WithLogger(log),
		audit.WithMetrics(audit.NewMetrics()),
		audit.WithResolver(store),
	)
	opts := []service.Option{
		service.WithLogger(log),
		service.WithMetrics(complianceMetrics),
		service.WithPolicy(policy),
		service.WithAuditLog(auditLog),
	}

	redisClient, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
		probes = append(probes, redisClient.Health)
		opts = append(opts, service.WithLocker(lock.NewRedis(redisClient.Client,
			lock.WithTTL(cfg.Redis.LockTTL),
			lock.WithMaxWait(cfg.Redis.LockMaxWait),
			lock.WithLogger(log),
		)))
		log.Info("using redis item locks")
	}

	if len(cfg.Kafka.Brokers) > 0 {
		publisher, err := events.NewKafka(cfg.Kafka.Brokers, cfg.Kafka.Topic,
			events.WithLogger(log),
			events.WithMetrics(events.NewMetrics()),
			events.WithBreaker(circuit.New("events", circuit.WithFailureThreshold(5), circuit.WithCooldown(30*time.Second))),
		)
		if err != nil {
			return err
		}
		defer publisher.Close()
		if err := publisher.EnsureTopic(ctx, 3, 1); err != nil {
			log.Warn("could not ensure event topic", "topic", cfg.Kafka.Topic, "error", err)
		}
		opts = append(opts, service.WithPublisher(publisher))
		log.Info("publishing events to kafka", "topic", cfg.Kafka.Topic)
	}

	svc := service.New(store, opts...)
	worker := sweep.New(svc,
		sweep.WithInterval(cfg.Sweep.Interval),
		sweep.WithConcurrency(cfg.Sweep.Concurrency),
		sweep.WithLogger(log),
		sweep.WithMetrics(complianceMetrics),
	)

	jwtService := jwttoken.NewJWTService(cfg.JWTSigningKey, cfg.JWTIssuer, cfg.JWTAudience)
	router := newRouter(cfg, log, handler.New(svc, worker, log), jwttoken.NewJWTServiceAdapter(jwtService), probes, metrics.New())
	srv := httpserver.New(cfg.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting complytrack", "addr", cfg.Addr, "env", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	if cfg.Sweep.Enabled {
		g.Go(func() error {
			if err := worker.Run(gctx); !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// openStore returns the postgres store when a database is configured and the
// in-memory store otherwise.
func openStore(ctx context.Context, cfg config.Server, log *slog.Logger) (interface {
	service.Store
	audit.EntityResolver
}, func(), error) {
	if cfg.DatabaseURL == "" {
		log.Warn("no database configured, using in-memory store")
		return memory.New(), func() {}, nil
	}
	db, err := postgres.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	if err := postgres.Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return postgres.New(db, postgres.WithTxTimeout(cfg.DatabaseTxTimeout)), func() { closeDB(db, log) }, nil
}

func closeDB(db *sql.DB, log *slog.Logger) {
	if err := db.Close(); err != nil {
		log.Error("close database", "error", err)
	}
}

func newRouter(cfg config.Server, log *slog.Logger, h *handler.Handler, validator authmw.JWTValidator, probes []readiness, httpMetrics *metrics.Metrics) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(log))
	r.Use(middleware.RequestID)
	r.Use(metadata.ClientMetadata)
	r.Use(requesttime.Middleware)
	r.Use(middleware.LatencyMiddleware(httpMetrics))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		for _, probe := range probes {
			if err := probe(ctx); err != nil {
				log.WarnContext(ctx, "readiness probe failed", "error", err)
				httputil.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(middleware.Logger(log))
		r.Use(middleware.Timeout(30 * time.Second))
		r.Use(middleware.ContentTypeJSON)
		r.Use(authmw.RequireActor(validator, log))
		h.Register(r)
	})
	r.Group(func(r chi.Router) {
		r.Use(middleware.Logger(log))
		r.Use(adminmw.RequireAdminToken(cfg.AdminToken, log))
		h.RegisterAdmin(r)
	})
	return r
}
