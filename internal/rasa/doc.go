// Package rasa implements the action-server side of the Rasa webhook
// protocol.
//
// The dialogue manager POSTs an action request carrying the conversation
// tracker; the server runs the named custom action and replies with the
// messages to utter and the state-mutation events to apply. This package
// provides the wire types, a dispatcher that collects outgoing messages,
// and an executor that routes requests to registered actions.
//
// # Usage
//
//	executor := rasa.NewExecutor(logger)
//	executor.Register(actions.NewAddEvent(provider), actions.NewGetEvents(provider))
//
//	resp, err := executor.Run(ctx, req)
//
// Actions implement the Action interface:
//
//	type Action interface {
//	    Name() string
//	    Run(ctx context.Context, dispatcher *Dispatcher, tracker *Tracker, domain Domain) ([]Event, error)
//	}
package rasa
