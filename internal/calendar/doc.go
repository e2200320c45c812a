// Package calendar provides a client for interacting with the Google
// Calendar API.
//
// The client is bound to a single calendar and exposes the two operations
// the action handlers need: inserting an event and listing events within a
// time range. Event timestamps are kept both parsed and verbatim as the
// service returned them, since user-facing messages echo the wire value.
//
// Example usage:
//
//	svc, err := manager.CalendarService(ctx)
//	if err != nil {
//	    return err
//	}
//	client := calendar.NewClient(svc, "primary", logger)
//
//	events, err := client.ListEvents(ctx, time.Now(), time.Now().AddDate(1, 0, 0))
//	if err != nil {
//	    return err
//	}
package calendar
