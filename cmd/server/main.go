// Package main is the wellness-api server and its maintenance commands.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/arnold/wellness-api/internal/cache"
	"github.com/arnold/wellness-api/internal/config"
	"github.com/arnold/wellness-api/internal/database"
	"github.com/arnold/wellness-api/internal/events"
	"github.com/arnold/wellness-api/internal/handlers"
	"github.com/arnold/wellness-api/internal/logging"
	"github.com/arnold/wellness-api/internal/metrics"
	"github.com/arnold/wellness-api/internal/middleware"
	"github.com/arnold/wellness-api/internal/models"
	"github.com/arnold/wellness-api/internal/repository/gormstore"
	"github.com/arnold/wellness-api/internal/routes"
	"github.com/arnold/wellness-api/internal/services"
	"github.com/arnold/wellness-api/internal/workers"
)

func main() {
	if err := rootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "wellness-api",
		Short:         "Group wellness engagement API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(serveCmd(), migrateCmd(), cleanupCmd(), tokenCmd())
	return cmd
}

// app is everything the commands share after config and logging are up.
type app struct {
	cfg     *config.Config
	log     *zap.Logger
	store   *gormstore.Store
	reg     *prometheus.Registry
	metrics *metrics.Metrics
	closers []func()
}

func bootstrap() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	log, err := logging.New(cfg.LogLevel, cfg.Development)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	db, err := database.Open(cfg.DatabaseURL, cfg.Development)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := database.Migrate(db); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	return &app{
		cfg:     cfg,
		log:     log,
		store:   gormstore.New(db),
		reg:     reg,
		metrics: metrics.New(reg),
	}, nil
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	_ = a.log.Sync()
}

// pipeline wires the optional integrations. Each one is skipped with a
// warning when it is not configured or cannot connect.
func (a *app) pipeline(ctx context.Context, broadcaster services.Broadcaster) *services.Pipeline {
	deps := services.PipelineDeps{
		Store:       a.store,
		Log:         a.log,
		Clock:       services.SystemClock,
		Metrics:     a.metrics,
		Broadcaster: broadcaster,
	}

	if a.cfg.RedisAddr != "" {
		c, err := cache.Connect(ctx, a.cfg.RedisAddr, a.cfg.RedisPassword, a.cfg.RedisDB, time.Duration(a.cfg.AnalyticsTTL)*time.Second)
		if err != nil {
			a.log.Warn("analytics cache disabled", zap.String("addr", a.cfg.RedisAddr), zap.Error(err))
		} else {
			deps.Cache = c
			a.closers = append(a.closers, func() { _ = c.Close() })
		}
	}

	if a.cfg.NATSURL != "" {
		sink, err := events.ConnectNATS(a.cfg.NATSURL, a.log.Named("nats"))
		if err != nil {
			a.log.Warn("event publishing disabled", zap.String("url", a.cfg.NATSURL), zap.Error(err))
		} else {
			deps.Sinks = append(deps.Sinks, sink)
			a.closers = append(a.closers, sink.Close)
		}
	}

	pusher := services.NewFCMPusher(ctx, a.cfg.FCMServiceAccount, a.store.Users(), a.log.Named("push"))
	if pusher.Enabled() {
		deps.Pusher = pusher
	}

	return services.NewPipeline(deps)
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the cleanup scheduler",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap()
			if err != nil {
				return err
			}
			defer a.close()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			hub := handlers.NewHub(a.store.Members(), a.log.Named("ws"))
			p := a.pipeline(ctx, hub)

			cleaner := workers.NewCleaner(a.store, p, a.log.Named("cleanup"), a.metrics, services.SystemClock)
			scheduler, err := workers.NewScheduler(cleaner, a.cfg.CleanupSchedule, a.log.Named("cron"))
			if err != nil {
				return err
			}
			scheduler.Start()

			server := fiber.New(fiber.Config{
				AppName:               "wellness-api",
				DisableStartupMessage: !a.cfg.Development,
			})
			routes.Setup(server, handlers.New(p, a.store, hub, a.log.Named("handlers")), hub, routes.Options{
				JWTSecret: a.cfg.JWTSecret,
				Users:     a.store.Users(),
				Log:       a.log,
				Gatherer:  a.reg,
			})

			errCh := make(chan error, 1)
			go func() {
				a.log.Info("listening", zap.String("port", a.cfg.Port))
				errCh <- server.Listen(":" + a.cfg.Port)
			}()

			select {
			case err := <-errCh:
				scheduler.Stop(context.Background())
				return err
			case <-ctx.Done():
			}

			a.log.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			scheduler.Stop(shutdownCtx)
			return server.ShutdownWithContext(shutdownCtx)
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap()
			if err != nil {
				return err
			}
			defer a.close()
			a.log.Info("migrations applied")
			return nil
		},
	}
}

func cleanupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Run the retention cleanup once",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap()
			if err != nil {
				return err
			}
			defer a.close()

			p := a.pipeline(cmd.Context(), nil)
			report, err := workers.NewCleaner(a.store, p, a.log.Named("cleanup"), a.metrics, services.SystemClock).RunOnce(cmd.Context())
			fmt.Fprintf(cmd.OutOrStdout(), "notifications=%d feed=%d entries=%d groups=%d\n",
				report.ExpiredNotifications, report.FeedPruned, report.EntriesPruned, report.GroupsReconciled)
			return err
		},
	}
}

// tokenCmd issues a development token signed with the configured secret.
func tokenCmd() *cobra.Command {
	var (
		userID string
		email  string
		name   string
		role   string
		ttl    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a signed access token for local testing",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			id := uuid.New()
			if userID != "" {
				if id, err = uuid.Parse(userID); err != nil {
					return fmt.Errorf("invalid --user: %w", err)
				}
			}

			token, err := middleware.GenerateToken(cfg.JWTSecret, id, email, name, models.UserRole(role), ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "User ID (random when empty)")
	cmd.Flags().StringVar(&email, "email", "", "Email claim")
	cmd.Flags().StringVar(&name, "name", "", "Display name claim")
	cmd.Flags().StringVar(&role, "role", "", "Role claim (participant, sponsor, admin, super_admin)")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "Token lifetime")
	return cmd
}
