package server

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"calactions/internal/actions"
	"calactions/internal/calendar"
	"calactions/internal/config"
	"calactions/internal/google"
	"calactions/internal/instrumentation"
	"calactions/internal/logging"
)

// ServerContext holds the shared state of the action server: the runtime
// settings, the credential manager and the calendar client handed to action
// handlers. It satisfies the handlers' service provider interface.
type ServerContext struct {
	ctx      context.Context
	cancel   context.CancelFunc
	settings config.Settings
	manager  *google.Manager
	metrics  *instrumentation.Metrics
	logger   *slog.Logger

	mu       sync.RWMutex
	calendar actions.CalendarAPI
	shutdown bool
}

// NewServerContext creates a new server context.
//
// When a token is already stored the calendar client is created eagerly so
// the first webhook request does not pay the setup cost. A failure here is
// only logged; creation is retried on first use, which lets the server start
// before the account has been authorized.
func NewServerContext(ctx context.Context, settings config.Settings, manager *google.Manager, metrics *instrumentation.Metrics, logger *slog.Logger) (*ServerContext, error) {
	if manager == nil {
		return nil, fmt.Errorf("credential manager is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	shutdownCtx, cancel := context.WithCancel(ctx)

	sc := &ServerContext{
		ctx:      shutdownCtx,
		cancel:   cancel,
		settings: settings,
		manager:  manager,
		metrics:  metrics,
		logger:   logger,
	}

	if manager.HasToken(shutdownCtx) {
		api, err := sc.buildCalendar(shutdownCtx)
		if err != nil {
			logger.Warn("calendar client unavailable at startup, will retry on first use",
				logging.Account(manager.Account()),
				logging.Err(err))
		} else {
			sc.calendar = api
		}
	}

	return sc, nil
}

// Context returns the server's lifetime context. It is cancelled when
// Shutdown is called.
func (sc *ServerContext) Context() context.Context {
	return sc.ctx
}

// Settings returns the runtime settings the server was started with.
func (sc *ServerContext) Settings() config.Settings {
	return sc.settings
}

// Account returns the Google account the server is bound to.
func (sc *ServerContext) Account() string {
	return sc.manager.Account()
}

// Calendar returns the calendar client, creating and caching it on first
// use. The client is built on the server's lifetime context rather than the
// request context because it outlives the request that triggered creation.
func (sc *ServerContext) Calendar(ctx context.Context) (actions.CalendarAPI, error) {
	sc.mu.RLock()
	api := sc.calendar
	sc.mu.RUnlock()
	if api != nil {
		return api, nil
	}

	sc.mu.Lock()
	defer sc.mu.Unlock()

	// Another request may have created the client while we waited for the
	// lock.
	if sc.calendar != nil {
		return sc.calendar, nil
	}
	if sc.shutdown {
		return nil, fmt.Errorf("server is shutting down")
	}

	api, err := sc.buildCalendar(sc.ctx)
	if err != nil {
		return nil, err
	}
	sc.calendar = api
	return api, nil
}

// buildCalendar creates an authenticated calendar client wrapped with Google
// API instrumentation.
func (sc *ServerContext) buildCalendar(ctx context.Context) (actions.CalendarAPI, error) {
	svc, err := sc.manager.CalendarService(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating calendar client: %w", err)
	}
	client := calendar.NewClient(svc, sc.settings.CalendarID, sc.logger)
	return newInstrumentedCalendar(client, sc.metrics, sc.manager.Account()), nil
}

// SetCalendar replaces the cached calendar client.
func (sc *ServerContext) SetCalendar(api actions.CalendarAPI) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.calendar = api
}

// HasCalendar reports whether the calendar client has been created.
func (sc *ServerContext) HasCalendar() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.calendar != nil
}

// IsShutdown returns whether the server context has been shut down.
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.shutdown
}

// Shutdown cancels the server context. It is safe to call more than once.
func (sc *ServerContext) Shutdown() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil
	}

	sc.shutdown = true
	sc.cancel()
	return nil
}
