package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"notaryportal/internal/api"
	"notaryportal/internal/availability"
	"notaryportal/internal/backend"
	"notaryportal/internal/booking"
	"notaryportal/internal/config"
	"notaryportal/internal/events"
	"notaryportal/internal/metrics"
	"notaryportal/internal/scheduler"
	"notaryportal/internal/session"
	"notaryportal/internal/web"
)

const (
	appName = "notary-portal"
	Version = "0.3.0"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type globalFlags struct {
	configPath string
	logLevel   string
}

func rootCmd() *cobra.Command {
	var flags globalFlags

	cmd := &cobra.Command{
		Use:   "portal",
		Short: "Client portal for the mobile and online notary service",
		Long: `Serves the notary client portal: public pages, the JSON API used by the
booking front-end, and background jobs that keep the slot cache warm.

Running without a subcommand is the same as "portal serve".`,
		SilenceUsage: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			_ = godotenv.Load()
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), flags)
		},
	}

	cmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "Config file path (default $PORTAL_CONFIG_PATH or "+config.DefaultPath+")")
	cmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "Log level (debug, info, warn, error); overrides logging.level")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the portal HTTP server",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return serve(cmd.Context(), flags)
			},
		},
		slotsCmd(&flags),
		clientCmd(&flags),
		hoursCmd(&flags),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(*cobra.Command, []string) {
				fmt.Printf("%s version %s\n", appName, Version)
			},
		},
	)
	return cmd
}

func newLogger(level string) zerolog.Logger {
	output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	logger := zerolog.New(output).With().Timestamp().Logger()
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	return logger.Level(lvl)
}

// setup loads config and builds the backend client shared by every command.
func setup(flags globalFlags) (*config.Config, *backend.Client, *redis.Client, zerolog.Logger, error) {
	path := flags.configPath
	if path == "" {
		path = os.Getenv("PORTAL_CONFIG_PATH")
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, nil, newLogger(flags.logLevel), fmt.Errorf("load config: %w", err)
	}

	level := cfg.Logging.Level
	if flags.logLevel != "" {
		level = flags.logLevel
	}
	logger := newLogger(level)

	opts := cfg.BackendOptions()
	opts.Logger = logger
	client := backend.New(opts)

	var rdb *redis.Client
	if cfg.Redis.Address != "" && cfg.CacheTTL() > 0 {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.Redis.Address, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		client.UseRedisCache(rdb, cfg.CacheTTL())
	}
	return cfg, client, rdb, logger, nil
}

func serve(parent context.Context, flags globalFlags) error {
	if parent == nil {
		parent = context.Background()
	}
	cfg, client, rdb, logger, err := setup(flags)
	if err != nil {
		return err
	}
	if rdb != nil {
		defer rdb.Close()
	}

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	hours := config.NewHoursStore(availability.DefaultBusinessHours())
	var loadedOnce bool
	err = config.WatchHours(ctx, cfg.HoursPath(), logger, func(h *availability.BusinessHours) {
		hours.Set(*h)
		if !loadedOnce {
			loadedOnce = true
			return
		}
		// Edits after startup are pushed so the backend calendar matches the file.
		pushCtx, cancel := context.WithTimeout(ctx, cfg.BackendTimeout())
		defer cancel()
		if err := client.SaveAvailability(pushCtx, *h); err != nil {
			logger.Error().Err(err).Msg("push business hours to backend")
		}
	})
	if err != nil {
		logger.Warn().Err(err).Str("path", cfg.HoursPath()).Msg("business hours file unavailable; using defaults")
	}

	bus := events.NewEventBus(logger)
	events.RegisterDefaults(bus, logger)

	svc := booking.NewService(client, hours, bus, booking.Options{
		AutoSetup:      cfg.Availability.AutoSetup,
		LocalFallback:  cfg.Availability.LocalFallback,
		MaxAdvanceDays: cfg.Availability.MaxAdvanceDays,
		Location:       cfg.Location(),
	}, &logger)

	pages, err := web.NewPages(client, logger)
	if err != nil {
		return err
	}

	ready := func(ctx context.Context) error {
		if rdb != nil {
			if err := rdb.Ping(ctx).Err(); err != nil {
				return fmt.Errorf("redis not ready: %w", err)
			}
		}
		if err := client.HealthCheck(ctx); err != nil {
			return fmt.Errorf("backend not ready: %w", err)
		}
		return nil
	}

	srv := api.NewHTTPServer(cfg.ServerPort(), api.Deps{
		Booking:        svc,
		Account:        client,
		Sessions:       session.NewManager(cfg.Session.Secret, cfg.SessionCookieName(), cfg.SessionTTL(), cfg.Session.Secure),
		Bus:            bus,
		Pages:          pages,
		Ready:          ready,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	}, logger)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		startHealthServer(ctx, cfg.HealthCheckPort(), ready, &logger)
	}()

	if cfg.Monitoring.PrometheusEnabled {
		metrics.Register()
		wg.Add(1)
		go func() {
			defer wg.Done()
			startMetricsServer(ctx, cfg.PrometheusPort(), &logger)
		}()
	}

	if cfg.Scheduler.Enabled {
		sched, err := scheduler.New(scheduler.Config{
			WarmupCron: cfg.WarmupCron(),
			WarmupDays: cfg.WarmupDays(),
			HealthCron: cfg.HealthCron(),
			Location:   cfg.Location(),
		}, client, client, hours, logger)
		if err != nil {
			return err
		}
		sched.Start(ctx)
		defer sched.Stop()
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()
	logger.Info().Str("version", Version).Msg("notary portal started")

	select {
	case err = <-errCh:
		stop()
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		err = srv.Shutdown(shutdownCtx)
	}
	wg.Wait()
	logger.Info().Msg("notary portal stopped")
	return err
}

func startHealthServer(ctx context.Context, port int, ready func(context.Context) error, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctxPing, cancel := context.WithTimeout(r.Context(), time.Second)
		defer cancel()
		if err := ready(ctxPing); err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	runServer(ctx, &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux, ReadHeaderTimeout: 5 * time.Second}, "health", logger)
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	runServer(ctx, &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux, ReadHeaderTimeout: 5 * time.Second}, "metrics", logger)
}

func runServer(ctx context.Context, srv *http.Server, name string, logger *zerolog.Logger) {
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error().Err(err).Str("server", name).Msg("server error")
	}
}

func slotsCmd(flags *globalFlags) *cobra.Command {
	var (
		date    string
		refresh bool
	)
	cmd := &cobra.Command{
		Use:   "slots",
		Short: "Print the bookable slots for a date",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, client, rdb, logger, err := setup(*flags)
			if err != nil {
				return err
			}
			if rdb != nil {
				defer rdb.Close()
			}
			if refresh {
				client.Invalidate(cmd.Context(), "slots:*")
			}

			hours := config.NewHoursStore(availability.DefaultBusinessHours())
			if h, err := config.LoadHours(cfg.HoursPath()); err == nil {
				hours.Set(*h)
			}
			svc := booking.NewService(client, hours, nil, booking.Options{
				LocalFallback: cfg.Availability.LocalFallback,
				Location:      cfg.Location(),
			}, &logger)

			if date == "" {
				date = svc.Now().Format(availability.DateLayout)
			}
			res, err := svc.AvailableSlots(cmd.Context(), date, svc.Now())
			if err != nil {
				return err
			}
			availability.SortByStart(res.Slots)
			fmt.Printf("%s (%s): %s\n", res.Date, res.Source, strings.Join(availability.Times(res.Slots), " "))
			for _, w := range res.Warnings {
				fmt.Printf("  warning: %v\n", w)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "Date as YYYY-MM-DD (default today)")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "Drop cached slots before querying")
	return cmd
}

// clientCmd prints what the backend knows about one client; useful when
// answering support requests.
func clientCmd(flags *globalFlags) *cobra.Command {
	var (
		userID   string
		pending  bool
		requests bool
	)
	cmd := &cobra.Command{
		Use:   "client",
		Short: "Show a client's session info and jobs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if userID == "" {
				return errors.New("--id is required")
			}
			_, client, rdb, _, err := setup(*flags)
			if err != nil {
				return err
			}
			if rdb != nil {
				defer rdb.Close()
			}

			info, err := client.Session(cmd.Context(), userID)
			if err != nil {
				return fmt.Errorf("session: %w", err)
			}

			list := client.ListJobs
			switch {
			case pending:
				list = client.PendingJobs
			case requests:
				list = client.ClientRequests
			}
			jobs, err := list(cmd.Context(), userID)
			if err != nil {
				return fmt.Errorf("jobs: %w", err)
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(map[string]any{
				"session": info,
				"jobs":    jobs,
			})
		},
	}
	cmd.Flags().StringVar(&userID, "id", "", "Client user id")
	cmd.Flags().BoolVar(&pending, "pending", false, "Only pending jobs")
	cmd.Flags().BoolVar(&requests, "requests", false, "Only the client's own requests")
	cmd.MarkFlagsMutuallyExclusive("pending", "requests")
	return cmd
}

func hoursCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hours",
		Short: "Inspect or publish business hours",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Print the business hours from the hours file",
			RunE: func(*cobra.Command, []string) error {
				cfg, _, rdb, _, err := setup(*flags)
				if err != nil {
					return err
				}
				if rdb != nil {
					defer rdb.Close()
				}
				h, err := config.LoadHours(cfg.HoursPath())
				if err != nil {
					return err
				}
				fmt.Printf("%s-%s, %s, %d minute slots\n", h.OfficeStart, h.OfficeEnd, h.DaysString(), h.SlotMinutes)
				return nil
			},
		},
		&cobra.Command{
			Use:   "push",
			Short: "Save the business hours to the backend calendar",
			RunE: func(cmd *cobra.Command, _ []string) error {
				cfg, client, rdb, logger, err := setup(*flags)
				if err != nil {
					return err
				}
				if rdb != nil {
					defer rdb.Close()
				}
				h, err := config.LoadHours(cfg.HoursPath())
				if err != nil {
					return err
				}
				if err := client.SaveAvailability(cmd.Context(), *h); err != nil {
					return err
				}
				logger.Info().Str("days", h.DaysString()).Msg("business hours saved")
				return nil
			},
		},
	)
	return cmd
}
