package rasa

import "encoding/json"

// Request is the payload the dialogue manager POSTs to /webhook when it
// schedules a custom action.
type Request struct {
	NextAction string  `json:"next_action"`
	SenderID   string  `json:"sender_id"`
	Tracker    Tracker `json:"tracker"`
	Domain     Domain  `json:"domain"`
	Version    string  `json:"version"`
}

// Response is the reply to an action request: the state-mutation events to
// apply to the conversation and the messages to utter.
type Response struct {
	Events    []Event   `json:"events"`
	Responses []Message `json:"responses"`
}

// Tracker carries the conversation state at the time the action was
// scheduled.
type Tracker struct {
	SenderID         string           `json:"sender_id"`
	Slots            map[string]any   `json:"slots"`
	LatestMessage    map[string]any   `json:"latest_message"`
	LatestActionName string           `json:"latest_action_name"`
	Events           []map[string]any `json:"events"`
	ActiveLoop       map[string]any   `json:"active_loop"`
	Paused           bool             `json:"paused"`
}

// Slot returns the raw value of a slot, or nil when the slot is absent.
func (t *Tracker) Slot(name string) any {
	if t.Slots == nil {
		return nil
	}
	return t.Slots[name]
}

// StringSlot returns a slot's value as a string. The second return value is
// false when the slot is absent, nil, or not a string.
func (t *Tracker) StringSlot(name string) (string, bool) {
	value, ok := t.Slot(name).(string)
	return value, ok
}

// Domain holds the assistant's domain definition. Actions rarely inspect it;
// it is passed through untyped.
type Domain map[string]any

// Message is one outgoing chat message. Fields beyond Text mirror the rich
// response options of the dialogue manager and are omitted when empty.
type Message struct {
	Text    string         `json:"text,omitempty"`
	Image   string         `json:"image,omitempty"`
	Buttons []Button       `json:"buttons,omitempty"`
	Custom  map[string]any `json:"custom,omitempty"`
}

// Button is an inline reply option attached to a message.
type Button struct {
	Title   string `json:"title"`
	Payload string `json:"payload"`
}

// Event type names on the wire.
const (
	EventTypeSlot          = "slot"
	EventTypeAllSlotsReset = "reset_slots"
)

// Event is a conversation state mutation returned by an action.
type Event struct {
	Type  string
	Name  string
	Value any
}

// SlotSet returns an event that sets one slot to a value.
func SlotSet(name string, value any) Event {
	return Event{Type: EventTypeSlot, Name: name, Value: value}
}

// AllSlotsReset returns an event that clears every slot of the conversation.
func AllSlotsReset() Event {
	return Event{Type: EventTypeAllSlotsReset}
}

// MarshalJSON renders the event in the dialogue manager's wire shape, e.g.
// {"event":"slot","name":"time","value":null} or {"event":"reset_slots"}.
func (e Event) MarshalJSON() ([]byte, error) {
	m := map[string]any{"event": e.Type}
	if e.Type == EventTypeSlot {
		m["name"] = e.Name
		m["value"] = e.Value
	}
	return json.Marshal(m)
}

// UnmarshalJSON accepts the wire shape produced by MarshalJSON.
func (e *Event) UnmarshalJSON(data []byte) error {
	var m struct {
		Event string `json:"event"`
		Name  string `json:"name"`
		Value any    `json:"value"`
	}
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	e.Type = m.Event
	e.Name = m.Name
	e.Value = m.Value
	return nil
}
