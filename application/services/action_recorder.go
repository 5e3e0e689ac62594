package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"musicstore/application/ports"
	"musicstore/domain/core/entities"
	"musicstore/domain/events"
)

// ActionRecorder persists ActionLog entries and announces them.
type ActionRecorder struct {
	repo      ports.ActionLogRepository
	publisher ports.EventPublisher
	logger    *zap.Logger
	now       func() time.Time
}

func NewActionRecorder(repo ports.ActionLogRepository, publisher ports.EventPublisher, logger *zap.Logger) *ActionRecorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ActionRecorder{repo: repo, publisher: publisher, logger: logger, now: time.Now}
}

// Record stores one entry. A storage failure is returned to the caller; a
// publishing failure is only logged.
func (r *ActionRecorder) Record(ctx context.Context, controller, action, ip string) (*entities.ActionLog, error) {
	entry := entities.NewActionLog(controller, action, ip, r.now())
	if err := r.repo.Append(ctx, entry); err != nil {
		return nil, err
	}

	if r.publisher != nil {
		event := events.NewActionLogged(entry.ActionLogID, controller, action, ip, entry.DateTime)
		if err := r.publisher.Publish(ctx, event); err != nil {
			r.logger.Warn("action log event not published", zap.String("action_log_id", entry.ActionLogID), zap.Error(err))
		}
	}
	return entry, nil
}

// Entries lists recorded actions newest first.
func (r *ActionRecorder) Entries(ctx context.Context) ([]entities.ActionLog, error) {
	return r.repo.List(ctx)
}

// Reset removes every recorded action.
func (r *ActionRecorder) Reset(ctx context.Context) error {
	return r.repo.Truncate(ctx)
}
