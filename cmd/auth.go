package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/oauth2"

	"calactions/internal/config"
	"calactions/internal/google"
	"calactions/internal/logging"
)

func newAuthCmd() *cobra.Command {
	var (
		debugMode bool
		force     bool
		gf        googleFlags
	)

	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authorize Google Calendar access",
		Long: `Run the interactive Google OAuth flow and persist the resulting token.

The command prints an authorization URL, waits for the verification code on
stdin and stores the token under the configured account. The serve and mcp
commands then use the stored token without prompting.

An existing usable token is kept unless --force is given.`,
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
			return runAuth(settings, force)
		},
	}

	cmd.Flags().BoolVar(&debugMode, "debug", false, "Enable debug logging. Can also use CALACTIONS_DEBUG env var.")
	cmd.Flags().BoolVar(&force, "force", false, "Run the authorization flow even when a usable token is stored.")
	gf.register(cmd)

	return cmd
}

func runAuth(settings config.Settings, force bool) error {
	ctx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger := setupLogger(settings.Debug)

	manager, closeStore, err := newCredentialManager(settings, logger, nil,
		google.WithInteractive(true))
	if err != nil {
		return err
	}
	defer func() {
		if err := closeStore(); err != nil {
			logger.Error("closing token store failed", logging.Err(err))
		}
	}()

	var token *oauth2.Token
	if force {
		token, err = manager.Authorize(ctx)
	} else {
		// Token runs the console flow only when the stored token is
		// missing or no longer refreshes.
		token, err = manager.Token(ctx)
	}
	if err != nil {
		return fmt.Errorf("authorization failed: %w", err)
	}

	if token.Expiry.IsZero() {
		fmt.Printf("Authorized account %q\n", settings.Account)
		return nil
	}
	fmt.Printf("Authorized account %q, access token valid until %s\n",
		settings.Account, token.Expiry.Format(time.RFC3339))
	return nil
}
