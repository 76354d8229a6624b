// Package main is the entry point of the practicas hub API.
//
// The architecture follows Clean Architecture and DDD:
//   - Domain: pipeline state machines and business rules, no external deps
//   - Application: use case orchestration (Commands/Queries/Event handlers)
//   - Infrastructure: PostgreSQL, Redis, object storage, event bus
//   - Interface: the HTTP REST API
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/fesc-practicas/practicas-hub/config"
	"github.com/fesc-practicas/practicas-hub/internal/application/command"
	"github.com/fesc-practicas/practicas-hub/internal/application/eventhandler"
	"github.com/fesc-practicas/practicas-hub/internal/application/query"
	"github.com/fesc-practicas/practicas-hub/internal/infrastructure/messaging"
	"github.com/fesc-practicas/practicas-hub/internal/infrastructure/persistence/postgres"
	"github.com/fesc-practicas/practicas-hub/internal/infrastructure/persistence/redis"
	"github.com/fesc-practicas/practicas-hub/internal/infrastructure/storage"
	httpserver "github.com/fesc-practicas/practicas-hub/internal/interface/http"
	"github.com/fesc-practicas/practicas-hub/pkg/logger"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "practicas",
		Short:        "Hub de practicas profesionales",
		Long:         "API for the professional practicum pipeline: preinscriptions, company requests and practicum tracking.",
		SilenceUsage: true,
	}
	root.AddCommand(newServeCmd(), newMigrateCmd())
	return root
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "migrate {up|down|status}",
		Short:     "Run database migrations",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"up", "down", "status"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(cmd.Context(), args[0])
		},
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// SERVE
// ══════════════════════════════════════════════════════════════════════════════

func runServe() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logLevel := logger.ParseLevel(cfg.Observability.LogLevel)
	if cfg.App.Debug {
		logLevel = logger.LevelDebug
	}
	log := logger.New(logger.Options{Output: os.Stdout, Level: logLevel, AddCaller: true})

	log.Info("starting practicas hub",
		logger.String("version", cfg.App.Version),
		logger.String("environment", string(cfg.App.Environment)),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ─────────────────────────────────────────────────────────────────────────
	// Infrastructure
	// ─────────────────────────────────────────────────────────────────────────

	conn, err := postgres.NewConnection(ctx, postgresConfig(cfg))
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer conn.Close()
	log.Info("connected to PostgreSQL")

	var cache *redis.Cache
	if !cfg.Redis.Disabled {
		cache, err = redis.NewCache(redisConfig(cfg))
		if err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		defer cache.Close()
		log.Info("connected to Redis")
	} else {
		log.Warn("redis disabled, running without cache and rate limiting")
	}

	files, err := storage.NewFileStore(storageConfig(cfg), log)
	if err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	if err := files.EnsureBucket(ctx); err != nil {
		return fmt.Errorf("storage bucket: %w", err)
	}
	log.Info("object storage ready", logger.String("bucket", cfg.Storage.Bucket))

	// ─────────────────────────────────────────────────────────────────────────
	// Event bus + dispatcher
	// ─────────────────────────────────────────────────────────────────────────

	bus := messaging.NewInMemoryEventBus(messaging.InMemoryEventBusConfig{
		AsyncMode:      true,
		WorkerPoolSize: 10,
		Logger:         log,
		EnableMetrics:  true,
	})
	defer bus.Close()

	dispatcher := messaging.NewDispatcher(messaging.DefaultDispatcherConfig(bus))
	dispatcher.Use(messaging.RecoveryMiddleware(log))
	dispatcher.Use(messaging.LoggingMiddleware(log))
	defer dispatcher.Stop()

	var completionCache query.CompletionCache
	if cache != nil {
		redisCompletion := redis.NewCompletionCache(cache)
		completionCache = redisCompletion

		invalidator := eventhandler.NewOnRecursoActualizadoHandler(redisCompletion, log)
		if err := invalidator.Register(dispatcher); err != nil {
			return fmt.Errorf("register event handlers: %w", err)
		}
	}

	if err := dispatcher.Start(); err != nil {
		return fmt.Errorf("start dispatcher: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// Repositories and services
	// ─────────────────────────────────────────────────────────────────────────

	practicantes := postgres.NewPracticanteRepository(conn)
	solicitudes := postgres.NewSolicitudRepository(conn)
	procesos := postgres.NewProcesoRepository(conn)
	recursos := postgres.NewRecursoRepository(conn)
	seguimientos := postgres.NewSeguimientoRepository(conn)
	cuentas := postgres.NewCuentasService(conn)

	// ─────────────────────────────────────────────────────────────────────────
	// Application handlers
	// ─────────────────────────────────────────────────────────────────────────

	getCompletion := query.NewGetCompletionHandler(procesos, recursos, completionCache)

	deps := httpserver.Dependencies{
		SubmitPreinscripcion: command.NewSubmitPreinscripcionHandler(practicantes, bus),
		SubmitComprobante:    command.NewSubmitComprobanteHandler(practicantes, bus),
		ValidatePayment:      command.NewValidatePaymentHandler(practicantes, bus),
		CreateStudentAccount: command.NewCreateStudentAccountHandler(practicantes, cuentas, bus),
		CrearSolicitud:       command.NewCrearSolicitudHandler(solicitudes, bus),
		ReviewSolicitud:      command.NewReviewSolicitudHandler(solicitudes, bus),
		GetOrCreateProceso:   command.NewGetOrCreateProcesoHandler(procesos, bus),
		UpdateSeccion:        command.NewUpdateSeccionHandler(procesos, recursos, seguimientos, bus),
		AttachAnexo:          command.NewAttachAnexoHandler(procesos, procesos, bus),
		ToggleConsultoria:    command.NewToggleConsultoriaHandler(procesos, bus),
		ReviewRecurso:        command.NewReviewRecursoHandler(recursos, bus),
		Seguimientos:         command.NewSeguimientoHandler(seguimientos, seguimientos, bus),

		GetCompletion:       getCompletion,
		GetProcesoDetalle:   query.NewGetProcesoDetalleHandler(procesos, recursos, seguimientos, getCompletion),
		GetSeguimientoStats: query.NewGetSeguimientoStatsHandler(seguimientos, recursos),
		GetSolicitudes:      query.NewGetSolicitudesHandler(solicitudes),
		GetTablero:          query.NewGetTableroPracticantesHandler(practicantes),

		Tokens: httpserver.NewTokenManager(httpserver.AuthConfig{
			Secret:   cfg.Auth.Secret,
			Issuer:   cfg.Auth.Issuer,
			TokenTTL: cfg.Auth.TokenTTL,
		}),
		Credentials:   cuentas,
		Files:         files,
		HealthChecker: &healthChecker{conn: conn, cache: cache},
		Logger:        log,
	}

	if cache != nil {
		deps.RateLimiter = redis.NewRateLimiter(cache, cfg.HTTP.RateLimitPerMinute)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// HTTP server
	// ─────────────────────────────────────────────────────────────────────────

	server := httpserver.NewServer(httpConfig(cfg), deps)

	errCh := server.StartAsync()
	log.Info("HTTP server listening", logger.String("address", server.Address()))

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown", logger.Err(err))
	}

	log.Info("practicas hub stopped")
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATE
// ══════════════════════════════════════════════════════════════════════════════

func runMigrate(ctx context.Context, direction string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	conn, err := postgres.NewConnection(ctx, postgresConfig(cfg))
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer conn.Close()

	migrator := postgres.NewMigrator(conn)

	switch direction {
	case "up":
		if err := migrator.Migrate(ctx); err != nil {
			return fmt.Errorf("migrate up: %w", err)
		}
		fmt.Println("migrations applied")
	case "down":
		if err := migrator.Rollback(ctx); err != nil {
			return fmt.Errorf("migrate down: %w", err)
		}
		fmt.Println("last migration rolled back")
	case "status":
		migrations, err := migrator.Status(ctx)
		if err != nil {
			return fmt.Errorf("migrate status: %w", err)
		}
		for _, m := range migrations {
			state := "pending"
			if m.IsApplied {
				state = "applied"
			}
			fmt.Printf("%3d  %-40s %s\n", m.Version, m.Name, state)
		}
	default:
		return fmt.Errorf("unknown direction %q (want up, down or status)", direction)
	}

	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// CONFIG MAPPING & HEALTH
// ══════════════════════════════════════════════════════════════════════════════

func postgresConfig(cfg *config.Config) postgres.Config {
	pg := postgres.DefaultConfig()
	pg.Host = cfg.Database.Host
	pg.Port = cfg.Database.Port
	pg.Database = cfg.Database.Database
	pg.User = cfg.Database.User
	pg.Password = cfg.Database.Password
	pg.SSLMode = cfg.Database.SSLMode
	pg.MaxConns = cfg.Database.MaxConns
	pg.MinConns = cfg.Database.MinConns
	pg.MaxConnLifetime = cfg.Database.MaxConnLifetime
	pg.MaxConnIdleTime = cfg.Database.MaxConnIdleTime
	return pg
}

func redisConfig(cfg *config.Config) redis.Config {
	rd := redis.DefaultConfig()
	rd.Host = cfg.Redis.Host
	rd.Port = cfg.Redis.Port
	rd.Password = cfg.Redis.Password
	rd.DB = cfg.Redis.DB
	rd.PoolSize = cfg.Redis.PoolSize
	rd.MinIdleConns = cfg.Redis.MinIdleConns
	rd.DialTimeout = cfg.Redis.DialTimeout
	rd.ReadTimeout = cfg.Redis.ReadTimeout
	rd.WriteTimeout = cfg.Redis.WriteTimeout
	return rd
}

func storageConfig(cfg *config.Config) storage.Config {
	st := storage.DefaultConfig()
	st.Endpoint = cfg.Storage.Endpoint
	st.AccessKey = cfg.Storage.AccessKey
	st.SecretKey = cfg.Storage.SecretKey
	st.Bucket = cfg.Storage.Bucket
	st.Region = cfg.Storage.Region
	st.UseSSL = cfg.Storage.UseSSL
	st.PresignExpiry = cfg.Storage.PresignExpiry
	st.MaxFileSize = cfg.Storage.MaxFileSize
	return st
}

func httpConfig(cfg *config.Config) httpserver.Config {
	hc := httpserver.DefaultConfig()
	hc.Host = cfg.HTTP.Host
	hc.Port = cfg.HTTP.Port
	hc.ReadTimeout = cfg.HTTP.ReadTimeout
	hc.WriteTimeout = cfg.HTTP.WriteTimeout
	hc.IdleTimeout = cfg.HTTP.IdleTimeout
	hc.MaxUploadBytes = cfg.HTTP.MaxUploadBytes
	hc.EnableCORS = cfg.HTTP.EnableCORS
	hc.AllowedOrigins = cfg.HTTP.AllowedOrigins
	hc.RateLimitPerMinute = cfg.HTTP.RateLimitPerMinute
	return hc
}

// healthChecker probes the backing services for the readiness endpoint.
type healthChecker struct {
	conn  *postgres.Connection
	cache *redis.Cache
}

func (h *healthChecker) Check(ctx context.Context) httpserver.HealthStatus {
	status := httpserver.HealthStatus{
		Healthy:    true,
		Components: make(map[string]string),
		CheckedAt:  time.Now().UTC(),
	}

	if err := h.conn.Ping(ctx); err != nil {
		status.Healthy = false
		status.Components["postgres"] = err.Error()
	} else {
		status.Components["postgres"] = "ok"
	}

	if h.cache != nil {
		if err := h.cache.Ping(ctx); err != nil {
			// Degraded but alive: the hub works without its cache.
			status.Components["redis"] = err.Error()
		} else {
			status.Components["redis"] = "ok"
		}
	}

	return status
}
