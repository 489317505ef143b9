package consumer

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/boissonnick/contractoros/internal/events"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

type fakeExportService struct {
	recordApprovalFn func(ctx context.Context, e events.TimeEntryEvent) error
	voidFn           func(ctx context.Context, orgID, entryID string) error
}

func (f *fakeExportService) RecordApproval(ctx context.Context, e events.TimeEntryEvent) error {
	if f.recordApprovalFn != nil {
		return f.recordApprovalFn(ctx, e)
	}
	return nil
}

func (f *fakeExportService) Void(ctx context.Context, orgID, entryID string) error {
	if f.voidFn != nil {
		return f.voidFn(ctx, orgID, entryID)
	}
	return nil
}

func TestDispatch(t *testing.T) {
	ctx := context.Background()

	t.Run("approved events record an export line", func(t *testing.T) {
		recorded := false
		svc := &fakeExportService{
			recordApprovalFn: func(ctx context.Context, e events.TimeEntryEvent) error {
				recorded = true
				assert.Equal(t, "entry-1", e.EntryID)
				return nil
			},
			voidFn: func(ctx context.Context, orgID, entryID string) error {
				t.Fatal("approved events must not void")
				return nil
			},
		}

		err := dispatch(ctx, svc, events.TimeEntryEvent{
			EventType: events.TimeEntryApproved,
			EntryID:   "entry-1",
			OrgID:     "org-1",
		})

		assert.NoError(t, err)
		assert.True(t, recorded)
	})

	t.Run("rejected and deleted events void the line", func(t *testing.T) {
		for _, eventType := range []string{events.TimeEntryRejected, events.TimeEntryDeleted} {
			voided := false
			svc := &fakeExportService{
				voidFn: func(ctx context.Context, orgID, entryID string) error {
					voided = true
					assert.Equal(t, "org-1", orgID)
					assert.Equal(t, "entry-1", entryID)
					return nil
				},
			}

			err := dispatch(ctx, svc, events.TimeEntryEvent{
				EventType: eventType,
				EntryID:   "entry-1",
				OrgID:     "org-1",
			})

			assert.NoError(t, err)
			assert.True(t, voided, eventType)
		}
	})

	t.Run("lifecycle events without payroll impact are ignored", func(t *testing.T) {
		svc := &fakeExportService{
			recordApprovalFn: func(ctx context.Context, e events.TimeEntryEvent) error {
				t.Fatal("event must be ignored")
				return nil
			},
			voidFn: func(ctx context.Context, orgID, entryID string) error {
				t.Fatal("event must be ignored")
				return nil
			},
		}

		for _, eventType := range []string{events.TimeEntryCreated, events.TimeEntryUpdated, events.TimeEntrySubmitted, "time_entry.unknown"} {
			assert.NoError(t, dispatch(ctx, svc, events.TimeEntryEvent{EventType: eventType}))
		}
	})
}

func TestIsDuplicateLineViolation(t *testing.T) {
	t.Run("unique violation on the export line index", func(t *testing.T) {
		err := &pgconn.PgError{Code: "23505", ConstraintName: "uq_payroll_export_lines_entry"}
		assert.True(t, isDuplicateLineViolation(err))
	})

	t.Run("wrapped unique violation still matches", func(t *testing.T) {
		err := fmt.Errorf("create line: %w", &pgconn.PgError{Code: "23505", ConstraintName: "uq_payroll_export_lines_entry"})
		assert.True(t, isDuplicateLineViolation(err))
	})

	t.Run("driver message without a typed error matches on text", func(t *testing.T) {
		err := errors.New(`ERROR: duplicate key value violates unique constraint "uq_payroll_export_lines_entry" (SQLSTATE 23505)`)
		assert.True(t, isDuplicateLineViolation(err))
	})

	t.Run("other constraints are not duplicates", func(t *testing.T) {
		assert.False(t, isDuplicateLineViolation(&pgconn.PgError{Code: "23505", ConstraintName: "uq_time_entries_active_session"}))
		assert.False(t, isDuplicateLineViolation(&pgconn.PgError{Code: "23503", ConstraintName: "uq_payroll_export_lines_entry"}))
		assert.False(t, isDuplicateLineViolation(errors.New("connection reset")))
	})
}
