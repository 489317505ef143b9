package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/boissonnick/contractoros/internal/events"
	"github.com/boissonnick/contractoros/internal/payrollexport"
	"github.com/boissonnick/contractoros/internal/shared/apperror"

	"github.com/jackc/pgx/v5/pgconn"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// ConsumeTimeEntryLifecycle keeps payroll export lines in step with the
// entry lifecycle: approvals record a line, rejections and deletions void it.
// Events the export flow does not care about are committed and skipped.
func ConsumeTimeEntryLifecycle(
	ctx context.Context,
	reader *kafkago.Reader,
	exportService payrollexport.Service,
	logger *zap.Logger,
) {
	log := logger.Named("kafka.consumer.timeentry_lifecycle")
	log.Info("time entry lifecycle consumer started")

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Info("time entry lifecycle consumer stopped")
				return
			}
			log.Error("fetch time entry lifecycle message failed", zap.Error(err))
			continue
		}

		var event events.TimeEntryEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			log.Error("decode time entry event failed", zap.Error(err))
			_ = reader.CommitMessages(ctx, msg)
			continue
		}

		if err := dispatch(ctx, exportService, event); err != nil {
			// Duplicate event is safe to skip.
			if isDuplicateLineViolation(err) {
				log.Warn("export line already recorded for event, skipping",
					zap.String("entry_id", event.EntryID),
					zap.String("org_id", event.OrgID),
				)
				_ = reader.CommitMessages(ctx, msg)
				continue
			}

			// Malformed events never become processable, drop them.
			var appErr *apperror.AppError
			if errors.As(err, &appErr) && appErr.Code == apperror.CodeInvalidInput {
				log.Error("discarding malformed time entry event",
					zap.String("event_type", event.EventType),
					zap.String("entry_id", event.EntryID),
					zap.Error(err),
				)
				_ = reader.CommitMessages(ctx, msg)
				continue
			}

			log.Error("handle time entry event failed",
				zap.String("event_type", event.EventType),
				zap.String("entry_id", event.EntryID),
				zap.String("org_id", event.OrgID),
				zap.Error(err),
			)
			continue
		}

		if err := reader.CommitMessages(ctx, msg); err != nil {
			log.Error("commit time entry lifecycle message failed", zap.Error(err))
			continue
		}
	}
}

func dispatch(ctx context.Context, exportService payrollexport.Service, e events.TimeEntryEvent) error {
	switch e.EventType {
	case events.TimeEntryApproved:
		return exportService.RecordApproval(ctx, e)
	case events.TimeEntryRejected, events.TimeEntryDeleted:
		return exportService.Void(ctx, e.OrgID, e.EntryID)
	default:
		return nil
	}
}

func isDuplicateLineViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" && pgErr.ConstraintName == "uq_payroll_export_lines_entry"
	}

	errMsg := strings.ToLower(err.Error())
	return strings.Contains(errMsg, "duplicate key value") && strings.Contains(errMsg, "uq_payroll_export_lines_entry")
}
