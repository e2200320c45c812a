package actions

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"calactions/internal/calendar"
	"calactions/internal/logging"
	"calactions/internal/rasa"
)

// Slot names the add-event action reads.
const (
	SlotEventName = "event"
	SlotEventTime = "time"
)

// Fixed policies of the add-event action.
const (
	// TimeLayout is the required slot format, DD/MM/YY HH:MM:SS.
	TimeLayout = "02/01/06 15:04:05"

	// EventTimeZone is the named zone every created event carries.
	EventTimeZone = "Asia/Ho_Chi_Minh"

	// EventDuration is the fixed length of created events.
	EventDuration = time.Hour

	defaultLocation    = "Default Location"
	defaultDescription = "Automatically added event"
)

// Messages uttered by the actions, verbatim.
const (
	msgMissingInput       = "Please provide both the event name and time."
	msgServiceUnavailable = "Failed to initialize Google Calendar service."
	msgInsertFailed       = "Failed to add the event due to an internal error."
	msgNoUpcomingEvents   = "You have no upcoming events."
)

// AddEvent implements action_add_event: it reads the event name and time
// from the conversation slots, refuses the slot when the calendar already
// holds an event in the window, and inserts a one-hour event otherwise.
type AddEvent struct {
	provider ServiceProvider
	logger   *slog.Logger
}

// NewAddEvent creates the add-event action. If logger is nil,
// slog.Default() is used.
func NewAddEvent(provider ServiceProvider, logger *slog.Logger) *AddEvent {
	if logger == nil {
		logger = slog.Default()
	}
	return &AddEvent{provider: provider, logger: logger}
}

// Name returns the action name the dialogue manager invokes.
func (a *AddEvent) Name() string {
	return "action_add_event"
}

// Run executes the add-event action. Every path returns a reset of all
// slots so the next add starts from a clean conversation state.
func (a *AddEvent) Run(ctx context.Context, dispatcher *rasa.Dispatcher, tracker *rasa.Tracker, _ rasa.Domain) ([]rasa.Event, error) {
	events := []rasa.Event{rasa.AllSlotsReset()}

	name, _ := tracker.StringSlot(SlotEventName)
	timeText, _ := tracker.StringSlot(SlotEventTime)
	if name == "" || timeText == "" {
		dispatcher.Utter(msgMissingInput)
		return events, nil
	}

	loc, err := time.LoadLocation(EventTimeZone)
	if err != nil {
		return nil, fmt.Errorf("loading location %s: %w", EventTimeZone, err)
	}

	start, err := time.ParseInLocation(TimeLayout, timeText, loc)
	if err != nil {
		dispatcher.Utter(fmt.Sprintf("Time parsing error: %v. Please ensure the time is in 'DD/MM/YY HH:MM:SS' format.", err))
		return events, nil
	}
	end := start.Add(EventDuration)

	client, err := a.provider.Calendar(ctx)
	if err != nil {
		a.logger.Error("calendar service unavailable",
			logging.Action(a.Name()),
			logging.Err(err))
		dispatcher.Utter(msgServiceUnavailable)
		return events, nil
	}

	// A failed conflict check is treated as "no conflicts" so a flaky read
	// cannot block event creation. Creation failures below stay loud.
	existing, err := client.ListEvents(ctx, start, end)
	if err != nil {
		a.logger.Warn("conflict check failed, proceeding without it",
			logging.Action(a.Name()),
			logging.Err(err))
	}
	if len(existing) > 0 {
		conflict := existing[0]
		dispatcher.Utter(fmt.Sprintf("Cannot create new event because the time slot is already taken by '%s' at %s.",
			conflict.Summary, conflict.StartRaw))
		return events, nil
	}

	_, err = client.InsertEvent(ctx, calendar.EventInput{
		Summary:     name,
		Location:    defaultLocation,
		Description: defaultDescription,
		Start:       start,
		End:         end,
		TimeZone:    EventTimeZone,
	})
	if err != nil {
		a.logger.Error("event creation failed",
			logging.Action(a.Name()),
			logging.SenderHash(tracker.SenderID),
			logging.Err(err))
		dispatcher.Utter(msgInsertFailed)
		return events, nil
	}

	dispatcher.Utter(fmt.Sprintf("Event '%s' successfully added to your calendar from %s to %s.",
		name, start.Format(TimeLayout), end.Format(TimeLayout)))
	return events, nil
}
