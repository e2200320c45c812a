package actions

import (
	"context"
	"time"

	"calactions/internal/instrumentation"
	"calactions/internal/rasa"
)

// Instrumented wraps an action with tracing, metrics and audit logging. It
// opens one span and records one invocation metric and one audit entry per
// run.
type Instrumented struct {
	action  rasa.Action
	metrics *instrumentation.Metrics
	audit   *instrumentation.AuditLogger
}

// Instrument decorates an action with instrumentation. When neither metrics
// nor an audit logger is configured the action is returned unwrapped.
func Instrument(action rasa.Action, metrics *instrumentation.Metrics, audit *instrumentation.AuditLogger) rasa.Action {
	if metrics == nil && audit == nil {
		return action
	}
	return &Instrumented{action: action, metrics: metrics, audit: audit}
}

// Name returns the wrapped action's name.
func (i *Instrumented) Name() string {
	return i.action.Name()
}

// Run times the wrapped action and records the invocation.
func (i *Instrumented) Run(ctx context.Context, dispatcher *rasa.Dispatcher, tracker *rasa.Tracker, domain rasa.Domain) ([]rasa.Event, error) {
	ctx, span := instrumentation.StartActionSpan(ctx, i.Name(),
		instrumentation.NewSpanAttributeBuilder().
			WithSender(tracker.SenderID).
			Build()...)
	defer span.End()

	start := time.Now()
	invocation := instrumentation.NewActionInvocation(i.Name()).
		WithSpanContext(ctx).
		WithSender(tracker.SenderID)

	events, err := i.action.Run(ctx, dispatcher, tracker, domain)
	duration := time.Since(start)

	status := instrumentation.StatusSuccess
	if err != nil {
		status = instrumentation.StatusError
		invocation.CompleteWithError(err)
		instrumentation.SetSpanError(span, err)
	} else {
		invocation.CompleteSuccess()
		instrumentation.SetSpanSuccess(span)
	}

	if i.metrics != nil {
		i.metrics.RecordActionInvocationWithSender(ctx, i.Name(), status, tracker.SenderID, duration)
	}
	if i.audit != nil {
		i.audit.LogActionInvocation(invocation)
	}

	return events, err
}
