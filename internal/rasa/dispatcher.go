package rasa

// Dispatcher collects the messages an action sends back to the user during
// one invocation. It is handed to Action.Run and drained into the webhook
// response afterwards.
type Dispatcher struct {
	messages []Message
}

// NewDispatcher returns an empty dispatcher for one action invocation.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{}
}

// Utter queues a plain text message.
func (d *Dispatcher) Utter(text string) {
	d.messages = append(d.messages, Message{Text: text})
}

// UtterMessage queues a fully specified message.
func (d *Dispatcher) UtterMessage(msg Message) {
	d.messages = append(d.messages, msg)
}

// Messages returns the queued messages in utterance order. The slice is
// never nil so it marshals as an empty JSON array.
func (d *Dispatcher) Messages() []Message {
	if d.messages == nil {
		return []Message{}
	}
	return d.messages
}
