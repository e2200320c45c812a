// Package actions implements the custom actions the dialogue manager can
// invoke: adding a calendar event and listing upcoming events.
//
// Actions acquire their calendar client per invocation through the
// ServiceProvider interface, so tests can substitute fakes and a broken
// credential never outlives one request. Domain failures (missing input,
// unparseable times, unreachable calendar) become chat messages; the error
// return is reserved for faults the dialogue manager should see as a server
// error.
package actions
