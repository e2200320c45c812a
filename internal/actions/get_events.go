package actions

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"calactions/internal/logging"
	"calactions/internal/rasa"
)

// upcomingWindowDays is how far ahead the get-events action looks.
const upcomingWindowDays = 365

// GetEvents implements action_get_event: it lists the events of the coming
// year and utters them one per line.
type GetEvents struct {
	provider ServiceProvider
	logger   *slog.Logger

	// now is the clock; tests override it.
	now func() time.Time
}

// NewGetEvents creates the get-events action. If logger is nil,
// slog.Default() is used.
func NewGetEvents(provider ServiceProvider, logger *slog.Logger) *GetEvents {
	if logger == nil {
		logger = slog.Default()
	}
	return &GetEvents{provider: provider, logger: logger, now: time.Now}
}

// Name returns the action name the dialogue manager invokes.
func (a *GetEvents) Name() string {
	return "action_get_event"
}

// Run executes the get-events action. It mutates no slots.
func (a *GetEvents) Run(ctx context.Context, dispatcher *rasa.Dispatcher, tracker *rasa.Tracker, _ rasa.Domain) ([]rasa.Event, error) {
	client, err := a.provider.Calendar(ctx)
	if err != nil {
		a.logger.Error("calendar service unavailable",
			logging.Action(a.Name()),
			logging.Err(err))
		dispatcher.Utter(msgServiceUnavailable)
		return nil, nil
	}

	now := a.now().UTC()

	// A failed listing reads as an empty calendar rather than an error
	// message.
	upcoming, err := client.ListEvents(ctx, now, now.AddDate(0, 0, upcomingWindowDays))
	if err != nil {
		a.logger.Warn("listing events failed, reporting none",
			logging.Action(a.Name()),
			logging.SenderHash(tracker.SenderID),
			logging.Err(err))
	}

	if len(upcoming) == 0 {
		dispatcher.Utter(msgNoUpcomingEvents)
		return nil, nil
	}

	lines := make([]string, 0, len(upcoming))
	for _, event := range upcoming {
		summary := event.Summary
		if summary == "" {
			summary = "No Title"
		}
		lines = append(lines, fmt.Sprintf("%s: %s", event.StartRaw, summary))
	}
	dispatcher.Utter("Your upcoming events:\n" + strings.Join(lines, "\n"))

	return nil, nil
}
