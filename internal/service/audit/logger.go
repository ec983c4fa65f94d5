package audit

import (
	"context"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-admin/pkg/logger"
)

// Recorder writes audit entries without failing the caller's operation.
type Recorder interface {
	Log(ctx context.Context, userID uuid.UUID, action, entityType string, entityID uuid.UUID, opts *LogOptions)
}

type AuditLogger struct {
	service *Service
	logger  *logger.Logger
}

func NewAuditLogger(service *Service, log *logger.Logger) *AuditLogger {
	if log == nil {
		log = logger.Nop()
	}
	return &AuditLogger{
		service: service,
		logger:  log.With("audit"),
	}
}

// Log records the entry, logging failures instead of returning them. The
// write survives cancellation of the request context.
func (l *AuditLogger) Log(ctx context.Context, userID uuid.UUID, action, entityType string, entityID uuid.UUID, opts *LogOptions) {
	if err := l.service.Log(context.WithoutCancel(ctx), userID, action, entityType, entityID, opts); err != nil {
		l.logger.Error(err, "failed to write audit log",
			"action", action,
			"entity_type", entityType,
			"entity_id", entityID.String(),
		)
	}
}
