package rasa

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"calactions/internal/logging"
)

// Action handles one named custom action. Implementations send user-facing
// messages through the dispatcher and return the conversation events to
// apply; they convert their own domain failures into messages and reserve
// the error return for programming or transport faults.
type Action interface {
	// Name returns the action name the dialogue manager invokes.
	Name() string

	// Run executes the action against the conversation state.
	Run(ctx context.Context, dispatcher *Dispatcher, tracker *Tracker, domain Domain) ([]Event, error)
}

// ActionNotFoundError reports a request for an action that is not
// registered with the executor.
type ActionNotFoundError struct {
	Name string
}

func (e *ActionNotFoundError) Error() string {
	return fmt.Sprintf("no registered action found for name %q", e.Name)
}

// Executor routes webhook requests to registered actions.
//
// Registration happens at startup; Run may be called concurrently once the
// server is accepting requests.
type Executor struct {
	mu      sync.RWMutex
	actions map[string]Action
	logger  *slog.Logger
}

// NewExecutor creates an executor with no registered actions. If logger is
// nil, slog.Default() is used.
func NewExecutor(logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{
		actions: make(map[string]Action),
		logger:  logger,
	}
}

// Register adds actions to the executor. Registering a second action under
// an existing name replaces the first.
func (e *Executor) Register(actions ...Action) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, action := range actions {
		e.actions[action.Name()] = action
	}
}

// ActionNames returns the registered action names in sorted order.
func (e *Executor) ActionNames() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	names := make([]string, 0, len(e.actions))
	for name := range e.actions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Run executes the action named by the request and assembles the webhook
// response. It returns an *ActionNotFoundError when the action is unknown.
func (e *Executor) Run(ctx context.Context, req *Request) (*Response, error) {
	e.mu.RLock()
	action, ok := e.actions[req.NextAction]
	e.mu.RUnlock()

	if !ok {
		e.logger.Warn("unknown action requested",
			logging.Action(req.NextAction),
			logging.SenderHash(req.SenderID))
		return nil, &ActionNotFoundError{Name: req.NextAction}
	}

	// The tracker's sender ID may be empty in older dialogue manager
	// versions; fall back to the top-level field.
	tracker := req.Tracker
	if tracker.SenderID == "" {
		tracker.SenderID = req.SenderID
	}

	dispatcher := NewDispatcher()
	start := time.Now()

	events, err := action.Run(ctx, dispatcher, &tracker, req.Domain)
	elapsed := time.Since(start)

	if err != nil {
		e.logger.Error("action failed",
			logging.Action(req.NextAction),
			logging.SenderHash(tracker.SenderID),
			slog.Duration(logging.KeyDuration, elapsed),
			logging.Err(err))
		return nil, fmt.Errorf("running action %q: %w", req.NextAction, err)
	}

	if events == nil {
		events = []Event{}
	}

	e.logger.Info("action completed",
		logging.Action(req.NextAction),
		logging.SenderHash(tracker.SenderID),
		slog.Duration(logging.KeyDuration, elapsed),
		logging.Status(logging.StatusSuccess))

	return &Response{
		Events:    events,
		Responses: dispatcher.Messages(),
	}, nil
}
