package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"calactions/internal/actions"
	"calactions/internal/config"
	"calactions/internal/google"
	"calactions/internal/instrumentation"
	"calactions/internal/logging"
	"calactions/internal/rasa"
	"calactions/internal/server"
)

// googleFlags bundles the Google Calendar access flags shared by the serve,
// mcp and auth commands. A flag overrides the environment-resolved settings
// only when it was set explicitly.
type googleFlags struct {
	credentialsFile string
	tokenStore      string
	tokenFile       string
	tokenDB         string
	account         string
	calendarID      string
}

func (f *googleFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.credentialsFile, "credentials-file", "credentials.json", "Path to the Google OAuth client secret JSON. Can also use CALACTIONS_CREDENTIALS_FILE env var.")
	cmd.Flags().StringVar(&f.tokenStore, "token-store", config.TokenStoreFile, "Token store backend: file or sqlite. Can also use CALACTIONS_TOKEN_STORE env var.")
	cmd.Flags().StringVar(&f.tokenFile, "token-file", "token.json", "Token path for the file store. Can also use CALACTIONS_TOKEN_FILE env var.")
	cmd.Flags().StringVar(&f.tokenDB, "token-db", "tokens.db", "Database path for the sqlite store. Can also use CALACTIONS_TOKEN_DB env var.")
	cmd.Flags().StringVar(&f.account, "account", google.DefaultAccount, "Account name within the token store. Can also use CALACTIONS_ACCOUNT env var.")
	cmd.Flags().StringVar(&f.calendarID, "calendar-id", "primary", "Calendar to operate on. Can also use CALACTIONS_CALENDAR_ID env var.")
}

// apply copies explicitly set flags over the environment-resolved settings.
// Flags win over environment variables; unset flags leave the settings alone.
func (f *googleFlags) apply(cmd *cobra.Command, settings *config.Settings) error {
	if cmd.Flags().Changed("credentials-file") {
		settings.CredentialsFile = f.credentialsFile
	}
	if cmd.Flags().Changed("token-store") {
		store := strings.ToLower(strings.TrimSpace(f.tokenStore))
		if store != config.TokenStoreFile && store != config.TokenStoreSQLite {
			return fmt.Errorf("invalid token store %q: must be %q or %q", f.tokenStore, config.TokenStoreFile, config.TokenStoreSQLite)
		}
		settings.TokenStore = store
	}
	if cmd.Flags().Changed("token-file") {
		settings.TokenFile = f.tokenFile
	}
	if cmd.Flags().Changed("token-db") {
		settings.TokenDB = f.tokenDB
	}
	if cmd.Flags().Changed("account") {
		settings.Account = f.account
	}
	if cmd.Flags().Changed("calendar-id") {
		settings.CalendarID = f.calendarID
	}
	return nil
}

func newServeCmd() *cobra.Command {
	var (
		debugMode bool
		host      string
		port      int
		gf        googleFlags
		// Metrics server configuration
		metricsEnabled bool
		metricsAddr    string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the Rasa action server",
		Long: `Start the HTTP action server the dialogue manager calls to run custom
actions.

Endpoints:
  - POST /webhook   run an action and return its events and responses
  - GET  /actions   list the registered action names
  - GET  /health    liveness probe (also /healthz and /readyz)

Google Calendar access requires a stored OAuth token. Run 'calactions auth'
once to authorize; the serve command never prompts.

Configuration is resolved from a .env file and CALACTIONS_* environment
variables. Flags override individual values.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := config.Load()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("debug") {
				settings.Debug = debugMode
			}
			if cmd.Flags().Changed("host") {
				settings.Host = host
			}
			if cmd.Flags().Changed("port") {
				settings.Port = port
			}
			if err := gf.apply(cmd, &settings); err != nil {
				return err
			}

			// Load metrics config from environment if not set via flags
			if !cmd.Flags().Changed("metrics-enabled") {
				if v := os.Getenv("METRICS_ENABLED"); v != "" {
					metricsEnabled = v == "true"
				}
			}
			if !cmd.Flags().Changed("metrics-addr") {
				if addr := os.Getenv("METRICS_ADDR"); addr != "" {
					metricsAddr = addr
				}
			}

			return runServe(settings, metricsEnabled, metricsAddr)
		},
	}

	cmd.Flags().BoolVar(&debugMode, "debug", false, "Enable debug logging. Can also use CALACTIONS_DEBUG env var.")
	cmd.Flags().StringVar(&host, "host", "0.0.0.0", "Address to bind the action server to. Can also use CALACTIONS_HOST env var.")
	cmd.Flags().IntVar(&port, "port", 5055, "Port for the action server. Can also use CALACTIONS_PORT env var.")
	gf.register(cmd)

	// Metrics server flags
	cmd.Flags().BoolVar(&metricsEnabled, "metrics-enabled", true, "Enable the metrics server on a dedicated port. Can also use METRICS_ENABLED env var.")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", server.DefaultMetricsAddr, "Metrics server address. Can also use METRICS_ADDR env var.")

	return cmd
}

func runServe(settings config.Settings, metricsEnabled bool, metricsAddr string) error {
	// Setup graceful shutdown
	shutdownCtx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger := setupLogger(settings.Debug)

	// Initialize instrumentation provider
	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version

	provider, err := instrumentation.NewProvider(shutdownCtx, instrConfig)
	if err != nil {
		return fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), server.DefaultShutdownTimeout)
		defer cancel()
		if err := provider.Shutdown(ctx); err != nil {
			logger.Error("instrumentation shutdown failed", logging.Err(err))
		}
	}()

	// Start metrics server if enabled
	var metricsServer *server.MetricsServer
	if metricsEnabled && provider.Enabled() {
		metricsServer, err = server.NewMetricsServer(server.MetricsServerConfig{
			Addr:                    metricsAddr,
			Enabled:                 true,
			InstrumentationProvider: provider,
		})
		if err != nil {
			return fmt.Errorf("failed to create metrics server: %w", err)
		}
		go func() {
			if err := metricsServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server failed", logging.Err(err))
			}
		}()
	}

	// Google Calendar credentials
	manager, closeStore, err := newCredentialManager(settings, logger, provider.Metrics())
	if err != nil {
		return err
	}
	defer func() {
		if err := closeStore(); err != nil {
			logger.Error("closing token store failed", logging.Err(err))
		}
	}()

	serverContext, err := server.NewServerContext(shutdownCtx, settings, manager, provider.Metrics(), logger)
	if err != nil {
		return fmt.Errorf("failed to create server context: %w", err)
	}

	// Register the calendar actions, instrumented for metrics and audit logs
	audit := instrumentation.NewAuditLoggerWithConfig(logger, instrConfig.AuditLogging)
	executor := rasa.NewExecutor(logger)
	executor.Register(
		actions.Instrument(actions.NewAddEvent(serverContext, logger), provider.Metrics(), audit),
		actions.Instrument(actions.NewGetEvents(serverContext, logger), provider.Metrics(), audit),
	)

	webhookServer, err := server.NewWebhookServer(server.WebhookServerConfig{
		Addr:     fmt.Sprintf("%s:%d", settings.Host, settings.Port),
		Executor: executor,
		Metrics:  provider.Metrics(),
		Health:   server.NewHealthChecker(serverContext),
		Logger:   logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create action server: %w", err)
	}

	serverErr := make(chan error, 1)
	go func() {
		defer close(serverErr)
		if err := webhookServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("action server failed: %w", err)
		}
		return nil
	case <-shutdownCtx.Done():
	}

	logger.Info("shutting down", slog.Duration("timeout", settings.ShutdownTimeout))

	// Stop the action server first so in-flight webhook requests drain, then
	// the metrics server, then the server context holding the Google client.
	drainCtx, drainCancel := context.WithTimeout(context.Background(), settings.ShutdownTimeout)
	defer drainCancel()
	if err := webhookServer.Shutdown(drainCtx); err != nil {
		logger.Error("action server shutdown failed", logging.Err(err))
	}
	if metricsServer != nil {
		if err := metricsServer.Shutdown(drainCtx); err != nil {
			logger.Error("metrics server shutdown failed", logging.Err(err))
		}
	}
	if err := serverContext.Shutdown(); err != nil {
		logger.Error("server context shutdown failed", logging.Err(err))
	}

	logger.Info("action server stopped")
	return nil
}

// setupLogger builds the process logger and installs it as the slog default.
// Logs go to stderr so the MCP stdio transport keeps stdout for the protocol
// stream.
func setupLogger(debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}

// newCredentialManager opens the configured token store and wraps it in a
// credential manager. The returned close function releases the store; it is
// a no-op for the file store.
func newCredentialManager(settings config.Settings, logger *slog.Logger, metrics *instrumentation.Metrics, opts ...google.ManagerOption) (*google.Manager, func() error, error) {
	conf, err := google.LoadOAuthConfig(settings.CredentialsFile)
	if err != nil {
		return nil, nil, err
	}

	var (
		store      google.TokenStore
		closeStore = func() error { return nil }
	)
	switch settings.TokenStore {
	case config.TokenStoreSQLite:
		sqliteStore, err := google.NewSQLiteTokenStore(settings.TokenDB)
		if err != nil {
			return nil, nil, fmt.Errorf("opening sqlite token store: %w", err)
		}
		store = sqliteStore
		closeStore = sqliteStore.Close
	default:
		store = google.NewFileTokenStore(settings.TokenFile)
	}

	if metrics != nil {
		opts = append(opts, google.WithTokenMetrics(metrics))
	}
	return google.NewManager(conf, store, settings.Account, logger, opts...), closeStore, nil
}
