package service

import (
	"context"

	"github.com/robertarktes/event-registrations/internal/observability"
	"github.com/robertarktes/event-registrations/internal/service/ports"
)

// auditTrail writes to the Auditor without ever failing the caller.
type auditTrail struct {
	auditor ports.Auditor
	logger  observability.Logger
}

func (a auditTrail) record(ctx context.Context, action, actor string, data map[string]interface{}) {
	if a.auditor == nil {
		return
	}
	if err := a.auditor.LogEvent(ctx, action, actor, data); err != nil {
		observability.FromContext(ctx, a.logger).
			WithField("action", action).
			WithError(err).
			Warn("audit log failed")
	}
}
