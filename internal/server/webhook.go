package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"calactions/internal/instrumentation"
	"calactions/internal/logging"
	"calactions/internal/rasa"
)

const (
	// DefaultWebhookAddr is the default address for the action server.
	DefaultWebhookAddr = ":5055"

	// DefaultWebhookReadTimeout is how long reading request headers may take.
	DefaultWebhookReadTimeout = 10 * time.Second

	// DefaultWebhookWriteTimeout bounds a full action run, including the
	// Google API calls an action makes.
	DefaultWebhookWriteTimeout = 60 * time.Second

	// DefaultWebhookIdleTimeout is how long keep-alive connections are held.
	DefaultWebhookIdleTimeout = 120 * time.Second

	// headerRequestID carries the correlation ID back to the caller.
	headerRequestID = "X-Request-Id"
)

// WebhookServerConfig holds configuration for the action server.
type WebhookServerConfig struct {
	// Addr is the address to bind the action server to (e.g., ":5055").
	Addr string

	// Executor routes action requests to registered actions.
	Executor *rasa.Executor

	// Metrics records HTTP request metrics. A no-op recorder is used
	// when nil.
	Metrics *instrumentation.Metrics

	// Health serves the health endpoints. A default checker is created
	// when nil.
	Health *HealthChecker

	// Logger is the request logger. Defaults to slog.Default().
	Logger *slog.Logger
}

// WebhookServer is the HTTP server the dialogue manager talks to. It exposes
// POST /webhook for action execution, GET /actions for discovery and the
// health endpoints.
type WebhookServer struct {
	httpServer *http.Server
	addr       string
	executor   *rasa.Executor
	metrics    *instrumentation.Metrics
	health     *HealthChecker
	logger     *slog.Logger
}

// NewWebhookServer creates a new action server with the given configuration.
func NewWebhookServer(config WebhookServerConfig) (*WebhookServer, error) {
	if config.Executor == nil {
		return nil, fmt.Errorf("executor is required for webhook server")
	}
	if config.Addr == "" {
		config.Addr = DefaultWebhookAddr
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.Metrics == nil {
		config.Metrics = &instrumentation.Metrics{}
	}
	if config.Health == nil {
		config.Health = NewHealthChecker(nil)
	}

	return &WebhookServer{
		addr:     config.Addr,
		executor: config.Executor,
		metrics:  config.Metrics,
		health:   config.Health,
		logger:   config.Logger,
	}, nil
}

// Handler returns the server's HTTP handler. Exposed so tests can drive the
// full routing and instrumentation stack without binding a port.
func (s *WebhookServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/webhook", s.handleWebhook)
	mux.HandleFunc("/actions", s.handleActions)
	s.health.RegisterHealthEndpoints(mux)
	return s.instrument(mux)
}

// Start starts the action server in a blocking manner.
// Call this in a goroutine if you need non-blocking operation.
func (s *WebhookServer) Start() error {
	s.httpServer = &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: DefaultWebhookReadTimeout,
		WriteTimeout:      DefaultWebhookWriteTimeout,
		IdleTimeout:       DefaultWebhookIdleTimeout,
	}

	s.health.SetReady(true)
	s.logger.Info("starting action server",
		slog.String("addr", s.addr),
		slog.Any("actions", s.executor.ActionNames()))
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the action server. Readiness goes false
// first so load balancers stop routing to the draining server.
func (s *WebhookServer) Shutdown(ctx context.Context) error {
	s.health.SetReady(false)
	if s.httpServer != nil {
		s.logger.Info("shutting down action server")
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

// Addr returns the configured address for the action server.
func (s *WebhookServer) Addr() string {
	return s.addr
}

// handleWebhook executes the action named in the request and replies with
// the events and responses it produced.
func (s *WebhookServer) handleWebhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeJSON(w, http.StatusMethodNotAllowed, errorBody{Error: "method not allowed"})
		return
	}

	var req rasa.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.logger.Warn("malformed action request",
			logging.RequestID(RequestIDFromContext(r.Context())),
			logging.Err(err))
		s.writeJSON(w, http.StatusBadRequest, errorBody{Error: fmt.Sprintf("invalid request body: %v", err)})
		return
	}

	resp, err := s.executor.Run(r.Context(), &req)
	if err != nil {
		var notFound *rasa.ActionNotFoundError
		if errors.As(err, &notFound) {
			s.writeJSON(w, http.StatusNotFound, actionNotFoundBody{
				Error:      notFound.Error(),
				ActionName: notFound.Name,
			})
			return
		}
		s.logger.Error("action request failed",
			logging.RequestID(RequestIDFromContext(r.Context())),
			logging.Action(req.NextAction),
			logging.Err(err))
		s.writeJSON(w, http.StatusInternalServerError, errorBody{Error: "action execution failed"})
		return
	}

	s.writeJSON(w, http.StatusOK, resp)
}

// handleActions lists the registered actions in the discovery shape the
// dialogue manager expects, one {"name": ...} object per action.
func (s *WebhookServer) handleActions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeJSON(w, http.StatusMethodNotAllowed, errorBody{Error: "method not allowed"})
		return
	}

	names := s.executor.ActionNames()
	list := make([]actionInfo, 0, len(names))
	for _, name := range names {
		list = append(list, actionInfo{Name: name})
	}
	s.writeJSON(w, http.StatusOK, list)
}

// errorBody is the JSON error payload for failed requests.
type errorBody struct {
	Error string `json:"error"`
}

// actionNotFoundBody is the error payload for requests naming an action the
// server does not register.
type actionNotFoundBody struct {
	Error      string `json:"error"`
	ActionName string `json:"action_name"`
}

// actionInfo is one entry of the GET /actions listing.
type actionInfo struct {
	Name string `json:"name"`
}

func (s *WebhookServer) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("writing response failed", logging.Err(err))
	}
}

type contextKey int

const requestIDKey contextKey = 0

// RequestIDFromContext returns the correlation ID assigned to the request,
// or an empty string outside a request.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// instrument assigns each request a correlation ID, tracks in-flight
// requests and records one HTTP metric and one log line per request.
func (s *WebhookServer) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.NewString()
		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		w.Header().Set(headerRequestID, requestID)

		s.metrics.IncrementInFlightRequests(ctx)
		defer s.metrics.DecrementInFlightRequests(ctx)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r.WithContext(ctx))
		duration := time.Since(start)

		s.metrics.RecordHTTPRequest(ctx, r.Method, routeLabel(r.URL.Path), rec.status, duration)

		s.logger.Info("request completed",
			logging.RequestID(requestID),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", rec.status),
			slog.Duration(logging.KeyDuration, duration))
	})
}

// routeLabel normalizes the request path for the metrics label so unmatched
// paths cannot grow the label set.
func routeLabel(path string) string {
	switch path {
	case "/webhook", "/actions", "/health", "/healthz", "/readyz", "/healthz/detailed":
		return path
	default:
		return "other"
	}
}

// statusRecorder captures the response status code for instrumentation.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
