package server

import (
	"context"
	"time"

	"calactions/internal/actions"
	"calactions/internal/calendar"
	"calactions/internal/instrumentation"
)

// instrumentedCalendar decorates a calendar client with Google API operation
// metrics and client spans. A nil metrics handle disables recording without
// changing behavior.
type instrumentedCalendar struct {
	api     actions.CalendarAPI
	metrics *instrumentation.Metrics
	account string
}

func newInstrumentedCalendar(api actions.CalendarAPI, metrics *instrumentation.Metrics, account string) *instrumentedCalendar {
	return &instrumentedCalendar{
		api:     api,
		metrics: metrics,
		account: account,
	}
}

// ListEvents lists events through the wrapped client and records the
// operation outcome.
func (c *instrumentedCalendar) ListEvents(ctx context.Context, timeMin, timeMax time.Time) ([]calendar.EventSummary, error) {
	ctx, span := instrumentation.StartGoogleAPISpan(ctx,
		instrumentation.ServiceCalendar, instrumentation.OperationList,
		instrumentation.NewSpanAttributeBuilder().
			WithAccount(c.account).
			WithReadOnly(true).
			Build()...)
	defer span.End()

	start := time.Now()
	events, err := c.api.ListEvents(ctx, timeMin, timeMax)
	c.record(ctx, instrumentation.OperationList, err, time.Since(start))

	if err != nil {
		instrumentation.SetSpanError(span, err)
		return nil, err
	}
	instrumentation.SetSpanSuccess(span)
	return events, nil
}

// InsertEvent creates an event through the wrapped client and records the
// operation outcome.
func (c *instrumentedCalendar) InsertEvent(ctx context.Context, input calendar.EventInput) (*calendar.EventSummary, error) {
	ctx, span := instrumentation.StartGoogleAPISpan(ctx,
		instrumentation.ServiceCalendar, instrumentation.OperationInsert,
		instrumentation.NewSpanAttributeBuilder().
			WithAccount(c.account).
			WithReadOnly(false).
			Build()...)
	defer span.End()

	start := time.Now()
	created, err := c.api.InsertEvent(ctx, input)
	c.record(ctx, instrumentation.OperationInsert, err, time.Since(start))

	if err != nil {
		instrumentation.SetSpanError(span, err)
		return nil, err
	}
	if created != nil {
		span.SetAttributes(instrumentation.NewSpanAttributeBuilder().
			WithEventID(created.ID).
			Build()...)
	}
	instrumentation.SetSpanSuccess(span)
	return created, nil
}

func (c *instrumentedCalendar) record(ctx context.Context, operation string, err error, duration time.Duration) {
	if c.metrics == nil {
		return
	}
	status := instrumentation.StatusSuccess
	if err != nil {
		status = instrumentation.StatusError
	}
	c.metrics.RecordGoogleAPIOperation(ctx, instrumentation.ServiceCalendar, operation, status, duration)
}
