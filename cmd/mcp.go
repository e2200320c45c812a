package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"calactions/internal/actions"
	"calactions/internal/config"
	"calactions/internal/instrumentation"
	"calactions/internal/logging"
	"calactions/internal/mcptools"
	"calactions/internal/rasa"
	"calactions/internal/server"
)

func newMCPCmd() *cobra.Command {
	var (
		debugMode bool
		gf        googleFlags
	)

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start the MCP server on stdio",
		Long: `Start a Model Context Protocol (MCP) server that exposes the calendar
actions as tools for AI assistants.

Tools:
  - calendar_add_event    add a one-hour event, refusing occupied time slots
  - calendar_get_events   list the events of the coming year

The protocol runs on stdin/stdout; logs go to stderr. Google Calendar access
requires a stored OAuth token. Run 'calactions auth' once to authorize.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := config.Load()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("debug") {
				settings.Debug = debugMode
			}
			if err := gf.apply(cmd, &settings); err != nil {
				return err
			}
			return runMCP(settings)
		},
	}

	cmd.Flags().BoolVar(&debugMode, "debug", false, "Enable debug logging. Can also use CALACTIONS_DEBUG env var.")
	gf.register(cmd)

	return cmd
}

func runMCP(settings config.Settings) error {
	shutdownCtx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger := setupLogger(settings.Debug)

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
	defer func() {
		if err := serverContext.Shutdown(); err != nil {
			logger.Error("server context shutdown failed", logging.Err(err))
		}
	}()

	// The tool wrapper instruments every call, so the executor runs the
	// bare actions to keep one metric and one audit entry per invocation.
	executor := rasa.NewExecutor(logger)
	executor.Register(
		actions.NewAddEvent(serverContext, logger),
		actions.NewGetEvents(serverContext, logger),
	)

	mcpSrv := mcpserver.NewMCPServer("calactions", version,
		mcpserver.WithToolCapabilities(true),
	)

	audit := instrumentation.NewAuditLoggerWithConfig(logger, instrConfig.AuditLogging)
	if err := mcptools.RegisterCalendarTools(mcpSrv, executor, provider.Metrics(), audit); err != nil {
		return err
	}

	return runStdioServer(mcpSrv)
}

// runStdioServer serves the MCP protocol on stdin/stdout until the stream
// closes.
func runStdioServer(mcpSrv *mcpserver.MCPServer) error {
	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := mcpserver.ServeStdio(mcpSrv); err != nil {
			serverDone <- err
		}
	}()

	err := <-serverDone
	if err != nil {
		return fmt.Errorf("server stopped with error: %w", err)
	}
	return nil
}
