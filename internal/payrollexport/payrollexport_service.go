package payrollexport

import (
	"context"
	"database/sql"

	"github.com/boissonnick/contractoros/internal/events"
	"github.com/boissonnick/contractoros/internal/shared/apperror"
	"github.com/boissonnick/contractoros/internal/timecalc"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

//go:generate mockgen -source=payrollexport_service.go -destination=mock/payrollexport_service_mock.go -package=mock
type Service interface {
	RecordApproval(ctx context.Context, e events.TimeEntryEvent) error
	Void(ctx context.Context, orgID, entryID string) error
}

type service struct {
	db     *sql.DB
	repo   Repository
	logger *zap.Logger
}

func NewService(db *sql.DB, repo Repository, logger ...*zap.Logger) Service {
	l := zap.L().Named("payrollexport.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("payrollexport.service")
	}
	return &service{db: db, repo: repo, logger: l}
}

// RecordApproval writes the export line for an approved entry. The unique
// index on entry_id makes redelivered events surface as a duplicate error,
// which the consumer treats as already handled.
func (s *service) RecordApproval(ctx context.Context, e events.TimeEntryEvent) error {
	orgID, err := uuid.Parse(e.OrgID)
	if err != nil {
		return apperror.InvalidField("org_id")
	}
	entryID, err := uuid.Parse(e.EntryID)
	if err != nil {
		return apperror.InvalidField("entry_id")
	}
	userID, err := uuid.Parse(e.UserID)
	if err != nil {
		return apperror.InvalidField("user_id")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	line := &PayrollExportLine{
		ID:              uuid.New(),
		OrgID:           orgID,
		EntryID:         entryID,
		UserID:          userID,
		WorkDate:        timecalc.StartOfDay(e.ClockIn),
		Minutes:         e.TotalMinutes,
		HourlyRateCents: e.HourlyRateCents,
		AmountCents:     int64(e.TotalMinutes) * e.HourlyRateCents / 60,
	}
	if err := qtx.Create(ctx, line); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	s.logger.Info("payroll export line recorded",
		zap.String("org_id", e.OrgID),
		zap.String("entry_id", e.EntryID),
		zap.String("user_id", e.UserID),
		zap.Int("minutes", line.Minutes),
		zap.Int64("amount_cents", line.AmountCents),
	)
	return nil
}

// Void flags an exported line after its entry is rejected or deleted. Entries
// that were never exported void zero rows and that is not an error.
func (s *service) Void(ctx context.Context, orgID, entryID string) error {
	if _, err := uuid.Parse(orgID); err != nil {
		return apperror.InvalidField("org_id")
	}
	if _, err := uuid.Parse(entryID); err != nil {
		return apperror.InvalidField("entry_id")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	voided, err := qtx.VoidByEntry(ctx, orgID, entryID)
	if err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	if voided > 0 {
		s.logger.Info("payroll export line voided",
			zap.String("org_id", orgID),
			zap.String("entry_id", entryID),
		)
	}
	return nil
}
