package google

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"

	"golang.org/x/oauth2"
	calendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"calactions/internal/logging"
)

// TokenMetricsRecorder counts authorization and token refresh outcomes.
// The result value is "success" or "failure". instrumentation.Metrics
// satisfies this interface.
type TokenMetricsRecorder interface {
	RecordOAuthAuth(ctx context.Context, result string)
	RecordOAuthTokenRefresh(ctx context.Context, result string)
}

// Manager owns the OAuth credential lifecycle for one account: it loads the
// persisted token, refreshes it when expired, persists it back after a
// refresh or first authorization, and builds authenticated Calendar service
// handles.
type Manager struct {
	conf    *oauth2.Config
	store   TokenStore
	account string
	logger  *slog.Logger
	metrics TokenMetricsRecorder

	interactive bool
	in          io.Reader
	out         io.Writer
}

// ManagerOption customizes a Manager.
type ManagerOption func(*Manager)

// WithInteractive allows the manager to run the console authorization flow
// when no usable token is stored. Servers leave this off and direct the
// user to the auth command instead.
func WithInteractive(interactive bool) ManagerOption {
	return func(m *Manager) { m.interactive = interactive }
}

// WithConsole overrides the reader and writer used by the console
// authorization flow. Defaults are stdin and stderr.
func WithConsole(in io.Reader, out io.Writer) ManagerOption {
	return func(m *Manager) {
		m.in = in
		m.out = out
	}
}

// WithTokenMetrics records authorization and refresh outcomes on the given
// recorder.
func WithTokenMetrics(rec TokenMetricsRecorder) ManagerOption {
	return func(m *Manager) { m.metrics = rec }
}

// NewManager creates a credential manager for the given account backed by
// the token store. If logger is nil, slog.Default() is used.
func NewManager(conf *oauth2.Config, store TokenStore, account string, logger *slog.Logger, opts ...ManagerOption) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	m := &Manager{
		conf:    conf,
		store:   store,
		account: account,
		logger:  logger,
		in:      os.Stdin,
		out:     os.Stderr,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Account returns the account name this manager is bound to.
func (m *Manager) Account() string {
	return m.account
}

// HasToken reports whether a token is stored for the manager's account.
func (m *Manager) HasToken(ctx context.Context) bool {
	_, err := m.store.Load(ctx, m.account)
	return err == nil
}

// Token returns a valid OAuth token, refreshing and persisting it when the
// stored one has expired. Without a stored token it runs the console flow
// in interactive mode and fails otherwise.
func (m *Manager) Token(ctx context.Context) (*oauth2.Token, error) {
	stored, err := m.store.Load(ctx, m.account)
	if err != nil {
		if !errors.Is(err, ErrNoToken) {
			return nil, fmt.Errorf("loading token: %w", err)
		}
		if !m.interactive {
			return nil, fmt.Errorf("no Google token for account %q, run `calactions auth` first: %w", m.account, err)
		}
		return m.Authorize(ctx)
	}

	fresh, err := m.conf.TokenSource(ctx, stored).Token()
	if err != nil {
		m.recordRefresh(ctx, "failure")
		if m.interactive {
			m.logger.Warn("stored token unusable, starting authorization flow",
				logging.Account(m.account),
				logging.Err(err))
			return m.Authorize(ctx)
		}
		return nil, fmt.Errorf("refreshing token for account %q: %w", m.account, err)
	}

	if fresh.AccessToken != stored.AccessToken {
		if err := m.store.Save(ctx, m.account, fresh); err != nil {
			return nil, fmt.Errorf("persisting refreshed token: %w", err)
		}
		m.recordRefresh(ctx, "success")
		m.logger.Info("token refreshed",
			logging.Operation("google.token_refresh"),
			logging.Account(m.account))
	}

	return fresh, nil
}

func (m *Manager) recordRefresh(ctx context.Context, result string) {
	if m.metrics != nil {
		m.metrics.RecordOAuthTokenRefresh(ctx, result)
	}
}

func (m *Manager) recordAuth(ctx context.Context, result string) {
	if m.metrics != nil {
		m.metrics.RecordOAuthAuth(ctx, result)
	}
}

// Authorize runs the console authorization flow and persists the resulting
// token. It prompts on the manager's console writer and reads the
// authorization code from its console reader.
func (m *Manager) Authorize(ctx context.Context) (*oauth2.Token, error) {
	authURL := m.conf.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
	fmt.Fprintf(m.out, "Go to the following link in your browser then type the authorization code:\n%v\n", authURL)

	var code string
	if _, err := fmt.Fscan(m.in, &code); err != nil {
		return nil, fmt.Errorf("reading authorization code: %w", err)
	}

	token, err := m.conf.Exchange(ctx, code)
	if err != nil {
		m.recordAuth(ctx, "failure")
		return nil, fmt.Errorf("exchanging authorization code: %w", err)
	}

	if err := m.store.Save(ctx, m.account, token); err != nil {
		return nil, fmt.Errorf("persisting token: %w", err)
	}

	m.recordAuth(ctx, "success")
	m.logger.Info("authorization complete",
		logging.Operation("google.authorize"),
		logging.Account(m.account))
	return token, nil
}

// HTTPClient returns an OAuth-authenticated HTTP client.
// The client is configured to use HTTP/1.1 to avoid HTTP/2 protocol errors
// against Google APIs.
func (m *Manager) HTTPClient(ctx context.Context) (*http.Client, error) {
	token, err := m.Token(ctx)
	if err != nil {
		return nil, err
	}

	client := oauth2.NewClient(ctx, m.conf.TokenSource(ctx, token))

	// Force HTTP/1.1 by disabling HTTP/2
	if transport, ok := client.Transport.(*oauth2.Transport); ok {
		transport.Base = &http.Transport{
			ForceAttemptHTTP2: false,
		}
	}

	return client, nil
}

// CalendarService builds an authenticated Calendar service handle.
func (m *Manager) CalendarService(ctx context.Context) (*calendar.Service, error) {
	client, err := m.HTTPClient(ctx)
	if err != nil {
		return nil, err
	}

	svc, err := calendar.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("creating calendar service: %w", err)
	}
	return svc, nil
}
