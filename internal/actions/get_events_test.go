package actions

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"calactions/internal/calendar"
	"calactions/internal/rasa"
)

func TestGetEventsName(t *testing.T) {
	action := NewGetEvents(&fakeProvider{}, discardLogger())
	assert.Equal(t, "action_get_event", action.Name())
}

func TestGetEventsUpcoming(t *testing.T) {
	cal := &fakeCalendar{
		listResult: []calendar.EventSummary{
			{Summary: "Team Sync", StartRaw: "2024-06-01T09:00:00+07:00"},
			{Summary: "", StartRaw: "2024-06-02"},
		},
	}
	action := NewGetEvents(&fakeProvider{api: cal}, discardLogger())
	now := time.Date(2024, 5, 30, 12, 0, 0, 0, time.FixedZone("ICT", 7*3600))
	action.now = func() time.Time { return now }
	dispatcher := rasa.NewDispatcher()

	events, err := action.Run(context.Background(), dispatcher, slotTracker(nil), nil)
	require.NoError(t, err)
	assert.Empty(t, events)

	// The window is one year from now, in UTC.
	require.Len(t, cal.listCalls, 1)
	assert.True(t, cal.listCalls[0].timeMin.Equal(now))
	assert.Equal(t, time.UTC, cal.listCalls[0].timeMin.Location())
	assert.True(t, cal.listCalls[0].timeMax.Equal(now.UTC().AddDate(0, 0, 365)))

	messages := dispatcher.Messages()
	require.Len(t, messages, 1)
	assert.Equal(t,
		"Your upcoming events:\n2024-06-01T09:00:00+07:00: Team Sync\n2024-06-02: No Title",
		messages[0].Text)
}

func TestGetEventsEmpty(t *testing.T) {
	cal := &fakeCalendar{}
	action := NewGetEvents(&fakeProvider{api: cal}, discardLogger())
	dispatcher := rasa.NewDispatcher()

	events, err := action.Run(context.Background(), dispatcher, slotTracker(nil), nil)
	require.NoError(t, err)
	assert.Empty(t, events)

	messages := dispatcher.Messages()
	require.Len(t, messages, 1)
	assert.Equal(t, "You have no upcoming events.", messages[0].Text)
}

func TestGetEventsListErrorReportsNone(t *testing.T) {
	cal := &fakeCalendar{listErr: errors.New("backend unavailable")}
	action := NewGetEvents(&fakeProvider{api: cal}, discardLogger())
	dispatcher := rasa.NewDispatcher()

	events, err := action.Run(context.Background(), dispatcher, slotTracker(nil), nil)
	require.NoError(t, err)
	assert.Empty(t, events)

	messages := dispatcher.Messages()
	require.Len(t, messages, 1)
	assert.Equal(t, "You have no upcoming events.", messages[0].Text)
}

func TestGetEventsServiceUnavailable(t *testing.T) {
	action := NewGetEvents(&fakeProvider{err: errors.New("no token")}, discardLogger())
	dispatcher := rasa.NewDispatcher()

	events, err := action.Run(context.Background(), dispatcher, slotTracker(nil), nil)
	require.NoError(t, err)
	assert.Empty(t, events)

	messages := dispatcher.Messages()
	require.Len(t, messages, 1)
	assert.Equal(t, "Failed to initialize Google Calendar service.", messages[0].Text)
}
