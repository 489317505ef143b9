package timeentry

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/boissonnick/contractoros/internal/audit"
	"github.com/boissonnick/contractoros/internal/events"
	"github.com/boissonnick/contractoros/internal/identity"
	"github.com/boissonnick/contractoros/internal/messaging/kafka"
	"github.com/boissonnick/contractoros/internal/shared/clock"
	"github.com/boissonnick/contractoros/internal/shared/contextutil"
	"github.com/boissonnick/contractoros/internal/timecalc"
	timeentryerrors "github.com/boissonnick/contractoros/internal/timeentry/errors"
)

// Authorizer gates the approval actions. The engine never inspects roles
// itself; it asks the collaborator.
type Authorizer interface {
	CanApprove(ctx context.Context, orgID, userID string) (bool, error)
}

//go:generate mockgen -source=timeentry_service.go -destination=mock/timeentry_service_mock.go -package=mock
type Service interface {
	ClockIn(ctx context.Context, p identity.Principal, req ClockInRequest) (TimeEntryResponse, error)
	ClockOut(ctx context.Context, p identity.Principal, req ClockOutRequest) (TimeEntryResponse, error)
	StartBreak(ctx context.Context, p identity.Principal, req StartBreakRequest) (TimeEntryResponse, error)
	EndBreak(ctx context.Context, p identity.Principal) (TimeEntryResponse, error)
	CreateManual(ctx context.Context, p identity.Principal, req CreateManualEntryRequest) (TimeEntryResponse, error)
	GetByID(ctx context.Context, orgID, id string) (TimeEntryResponse, error)
	List(ctx context.Context, orgID string, f Filter) ([]TimeEntryResponse, int64, error)
	History(ctx context.Context, orgID, id string) ([]EditRecordResponse, error)
	Update(ctx context.Context, p identity.Principal, id string, req UpdateEntryRequest) (TimeEntryResponse, error)
	Submit(ctx context.Context, p identity.Principal, id string) (TimeEntryResponse, error)
	Approve(ctx context.Context, p identity.Principal, id string) (TimeEntryResponse, error)
	Reject(ctx context.Context, p identity.Principal, id, reason string) (TimeEntryResponse, error)
	Delete(ctx context.Context, p identity.Principal, id string) error
}

type service struct {
	db      *sql.DB
	repo    Repository
	edits   audit.Repository
	authz   Authorizer
	clk     clock.Clock
	outbox  kafka.OutboxRepository
	watcher Watcher
	logger  *zap.Logger
}

func NewService(
	db *sql.DB,
	repo Repository,
	edits audit.Repository,
	authz Authorizer,
	clk clock.Clock,
	logger ...*zap.Logger,
) Service {
	return NewServiceWithOutbox(db, repo, edits, authz, clk, nil, nil, logger...)
}

func NewServiceWithOutbox(
	db *sql.DB,
	repo Repository,
	edits audit.Repository,
	authz Authorizer,
	clk clock.Clock,
	outboxRepo kafka.OutboxRepository,
	watcher Watcher,
	logger ...*zap.Logger,
) Service {
	l := zap.L().Named("timeentry.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("timeentry.service")
	}
	return &service{
		db:      db,
		repo:    repo,
		edits:   edits,
		authz:   authz,
		clk:     clk,
		outbox:  outboxRepo,
		watcher: watcher,
		logger:  l,
	}
}

func (s *service) ClockIn(ctx context.Context, p identity.Principal, req ClockInRequest) (TimeEntryResponse, error) {
	rid := contextutil.GetRequestID(ctx)
	s.logger.Debug("clock in requested",
		zap.String("request_id", rid),
		zap.String("org_id", p.OrgID),
		zap.String("user_id", p.UserID),
	)

	orgUUID, userUUID, err := parsePrincipal(p)
	if err != nil {
		s.logger.Warn("clock in principal invalid", zap.Error(err))
		return TimeEntryResponse{}, err
	}

	projectID, err := parseOptionalUUID(req.ProjectID, timeentryerrors.ErrInvalidProjectID)
	if err != nil {
		return TimeEntryResponse{}, err
	}
	taskID, err := parseOptionalUUID(req.TaskID, timeentryerrors.ErrInvalidTaskID)
	if err != nil {
		return TimeEntryResponse{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("clock in begin tx failed", zap.Error(err))
		return TimeEntryResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	// Fast path; the partial unique index catches the race on commit.
	existing, err := qtx.FindOpenByUser(ctx, p.OrgID, p.UserID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("clock in open entry lookup failed", zap.Error(err))
		return TimeEntryResponse{}, err
	}
	if err == nil && existing != nil {
		s.logger.Warn("clock in conflict, session already open",
			zap.String("user_id", p.UserID),
			zap.String("entry_id", existing.ID.String()),
		)
		return TimeEntryResponse{}, timeentryerrors.ErrActiveSessionExists
	}

	now := s.clk.Now().UTC()
	e := &TimeEntry{
		ID:        uuid.New(),
		OrgID:     orgUUID,
		UserID:    userUUID,
		UserName:  p.UserName,
		UserRole:  p.Role,
		Kind:      KindClock,
		Status:    StatusActive,
		ClockIn:   now,
		ProjectID: projectID,
		TaskID:    taskID,
		Notes:     req.Notes,
	}
	if p.HourlyRateCents > 0 {
		rate := p.HourlyRateCents
		e.HourlyRateCents = &rate
	}
	if req.Location != nil {
		lat, lng, at, err := parseLocation(*req.Location)
		if err != nil {
			return TimeEntryResponse{}, err
		}
		e.ClockInLat, e.ClockInLng, e.ClockInLocAt = lat, lng, at
	}

	if err := qtx.Create(ctx, e); err != nil {
		s.logger.Error("clock in persist failed", zap.Error(err))
		return TimeEntryResponse{}, mapRepositoryError(err)
	}

	if err := s.enqueueEvent(ctx, tx, rid, e, events.TimeEntryCreated); err != nil {
		return TimeEntryResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("clock in commit failed", zap.Error(err))
		return TimeEntryResponse{}, mapRepositoryError(err)
	}

	s.notify(ctx, e, "clock_in")
	s.logger.Info("clock in success",
		zap.String("request_id", rid),
		zap.String("entry_id", e.ID.String()),
		zap.String("user_id", p.UserID),
	)
	return mapToResponse(*e), nil
}

func (s *service) ClockOut(ctx context.Context, p identity.Principal, req ClockOutRequest) (TimeEntryResponse, error) {
	rid := contextutil.GetRequestID(ctx)
	s.logger.Debug("clock out requested",
		zap.String("request_id", rid),
		zap.String("org_id", p.OrgID),
		zap.String("user_id", p.UserID),
	)

	if _, _, err := parsePrincipal(p); err != nil {
		return TimeEntryResponse{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("clock out begin tx failed", zap.Error(err))
		return TimeEntryResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	e, err := qtx.FindOpenByUser(ctx, p.OrgID, p.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return TimeEntryResponse{}, timeentryerrors.ErrNoActiveSession
		}
		s.logger.Error("clock out open entry lookup failed", zap.Error(err))
		return TimeEntryResponse{}, err
	}

	now := s.clk.Now().UTC()

	// A trailing open break is closed at the clock-out instant before totals
	// are finalized.
	if ob := e.OpenBreak(); ob != nil {
		end := now
		dur := timecalc.RoundMinutes(end.Sub(ob.StartTime))
		ob.EndTime = &end
		ob.DurationMinutes = &dur
		if err := qtx.UpdateBreak(ctx, ob); err != nil {
			s.logger.Error("clock out close break failed", zap.Error(err))
			return TimeEntryResponse{}, err
		}
	}

	totals := timecalc.ComputeTotals(e.ClockIn, now, e.BreakSpans(), now)
	e.ClockOut = &now
	e.Status = StatusCompleted
	e.TotalMinutes = totals.WorkedMinutes
	e.TotalBreakMinutes = totals.BreakMinutes
	if req.Notes != nil {
		e.Notes = req.Notes
	}
	if req.Location != nil {
		lat, lng, at, err := parseLocation(*req.Location)
		if err != nil {
			return TimeEntryResponse{}, err
		}
		e.ClockOutLat, e.ClockOutLng, e.ClockOutLocAt = lat, lng, at
	}

	if err := qtx.Update(ctx, e); err != nil {
		s.logger.Error("clock out persist failed", zap.Error(err))
		return TimeEntryResponse{}, mapRepositoryError(err)
	}

	if err := s.enqueueEvent(ctx, tx, rid, e, events.TimeEntryUpdated); err != nil {
		return TimeEntryResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("clock out commit failed", zap.Error(err))
		return TimeEntryResponse{}, err
	}

	s.notify(ctx, e, "clock_out")
	s.logger.Info("clock out success",
		zap.String("request_id", rid),
		zap.String("entry_id", e.ID.String()),
		zap.Int("total_minutes", e.TotalMinutes),
		zap.Int("total_break_minutes", e.TotalBreakMinutes),
	)
	return mapToResponse(*e), nil
}

func (s *service) StartBreak(ctx context.Context, p identity.Principal, req StartBreakRequest) (TimeEntryResponse, error) {
	rid := contextutil.GetRequestID(ctx)
	s.logger.Debug("start break requested",
		zap.String("request_id", rid),
		zap.String("user_id", p.UserID),
		zap.String("break_type", req.BreakType),
	)

	if _, _, err := parsePrincipal(p); err != nil {
		return TimeEntryResponse{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("start break begin tx failed", zap.Error(err))
		return TimeEntryResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	e, err := qtx.FindOpenByUser(ctx, p.OrgID, p.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return TimeEntryResponse{}, timeentryerrors.ErrNoActiveSession
		}
		return TimeEntryResponse{}, err
	}
	if e.Status != StatusActive {
		s.logger.Warn("start break on non-active entry",
			zap.String("entry_id", e.ID.String()),
			zap.String("status", e.Status),
		)
		return TimeEntryResponse{}, timeentryerrors.ErrEntryNotActive
	}

	now := s.clk.Now().UTC()
	b := Break{
		ID:        uuid.New(),
		EntryID:   e.ID,
		OrgID:     e.OrgID,
		BreakType: req.BreakType,
		IsPaid:    req.IsPaid,
		StartTime: now,
	}
	if err := qtx.CreateBreak(ctx, &b); err != nil {
		s.logger.Error("start break persist failed", zap.Error(err))
		return TimeEntryResponse{}, err
	}

	e.Status = StatusPaused
	if err := qtx.Update(ctx, e); err != nil {
		s.logger.Error("start break status persist failed", zap.Error(err))
		return TimeEntryResponse{}, err
	}
	e.Breaks = append(e.Breaks, b)

	if err := s.enqueueEvent(ctx, tx, rid, e, events.TimeEntryUpdated); err != nil {
		return TimeEntryResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("start break commit failed", zap.Error(err))
		return TimeEntryResponse{}, err
	}

	s.notify(ctx, e, "start_break")
	s.logger.Info("start break success",
		zap.String("entry_id", e.ID.String()),
		zap.String("break_id", b.ID.String()),
	)
	return mapToResponse(*e), nil
}

func (s *service) EndBreak(ctx context.Context, p identity.Principal) (TimeEntryResponse, error) {
	rid := contextutil.GetRequestID(ctx)
	s.logger.Debug("end break requested",
		zap.String("request_id", rid),
		zap.String("user_id", p.UserID),
	)

	if _, _, err := parsePrincipal(p); err != nil {
		return TimeEntryResponse{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("end break begin tx failed", zap.Error(err))
		return TimeEntryResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	e, err := qtx.FindOpenByUser(ctx, p.OrgID, p.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return TimeEntryResponse{}, timeentryerrors.ErrNoActiveSession
		}
		return TimeEntryResponse{}, err
	}
	if e.Status != StatusPaused {
		return TimeEntryResponse{}, timeentryerrors.ErrEntryNotPaused
	}
	ob := e.OpenBreak()
	if ob == nil {
		return TimeEntryResponse{}, timeentryerrors.ErrNoOpenBreak
	}

	now := s.clk.Now().UTC()
	dur := timecalc.RoundMinutes(now.Sub(ob.StartTime))
	ob.EndTime = &now
	ob.DurationMinutes = &dur
	if err := qtx.UpdateBreak(ctx, ob); err != nil {
		s.logger.Error("end break persist failed", zap.Error(err))
		return TimeEntryResponse{}, err
	}

	e.Status = StatusActive
	if err := qtx.Update(ctx, e); err != nil {
		s.logger.Error("end break status persist failed", zap.Error(err))
		return TimeEntryResponse{}, err
	}

	if err := s.enqueueEvent(ctx, tx, rid, e, events.TimeEntryUpdated); err != nil {
		return TimeEntryResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("end break commit failed", zap.Error(err))
		return TimeEntryResponse{}, err
	}

	s.notify(ctx, e, "end_break")
	s.logger.Info("end break success",
		zap.String("entry_id", e.ID.String()),
		zap.Int("break_minutes", dur),
	)
	return mapToResponse(*e), nil
}

func (s *service) CreateManual(ctx context.Context, p identity.Principal, req CreateManualEntryRequest) (TimeEntryResponse, error) {
	rid := contextutil.GetRequestID(ctx)
	s.logger.Debug("create manual entry requested",
		zap.String("request_id", rid),
		zap.String("org_id", p.OrgID),
		zap.String("user_id", p.UserID),
	)

	orgUUID, userUUID, err := parsePrincipal(p)
	if err != nil {
		return TimeEntryResponse{}, err
	}

	clockIn, err := parseInstant(req.ClockIn)
	if err != nil {
		return TimeEntryResponse{}, err
	}
	clockOut, err := parseInstant(req.ClockOut)
	if err != nil {
		return TimeEntryResponse{}, err
	}
	if clockOut.Before(clockIn) {
		return TimeEntryResponse{}, timeentryerrors.ErrClockOutBeforeClockIn
	}

	projectID, err := parseOptionalUUID(req.ProjectID, timeentryerrors.ErrInvalidProjectID)
	if err != nil {
		return TimeEntryResponse{}, err
	}
	taskID, err := parseOptionalUUID(req.TaskID, timeentryerrors.ErrInvalidTaskID)
	if err != nil {
		return TimeEntryResponse{}, err
	}

	entryID := uuid.New()
	breaks, err := buildBreaks(entryID, orgUUID, req.Breaks, false)
	if err != nil {
		return TimeEntryResponse{}, err
	}

	e := &TimeEntry{
		ID:        entryID,
		OrgID:     orgUUID,
		UserID:    userUUID,
		UserName:  p.UserName,
		UserRole:  p.Role,
		Kind:      KindManual,
		Status:    StatusCompleted,
		ClockIn:   clockIn,
		ClockOut:  &clockOut,
		ProjectID: projectID,
		TaskID:    taskID,
		Notes:     req.Notes,
		Breaks:    breaks,
	}
	if p.HourlyRateCents > 0 {
		rate := p.HourlyRateCents
		e.HourlyRateCents = &rate
	}

	totals := timecalc.ComputeTotals(clockIn, clockOut, e.BreakSpans(), clockOut)
	e.TotalMinutes = totals.WorkedMinutes
	e.TotalBreakMinutes = totals.BreakMinutes

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("create manual entry begin tx failed", zap.Error(err))
		return TimeEntryResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	if err := qtx.Create(ctx, e); err != nil {
		s.logger.Error("create manual entry persist failed", zap.Error(err))
		return TimeEntryResponse{}, mapRepositoryError(err)
	}
	if err := qtx.ReplaceBreaks(ctx, p.OrgID, e.ID.String(), breaks); err != nil {
		s.logger.Error("create manual entry breaks persist failed", zap.Error(err))
		return TimeEntryResponse{}, err
	}

	if err := s.enqueueEvent(ctx, tx, rid, e, events.TimeEntryCreated); err != nil {
		return TimeEntryResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("create manual entry commit failed", zap.Error(err))
		return TimeEntryResponse{}, err
	}

	s.notify(ctx, e, "create_manual")
	s.logger.Info("create manual entry success",
		zap.String("request_id", rid),
		zap.String("entry_id", e.ID.String()),
		zap.Int("total_minutes", e.TotalMinutes),
	)
	return mapToResponse(*e), nil
}

func (s *service) GetByID(ctx context.Context, orgID, id string) (TimeEntryResponse, error) {
	if _, err := uuid.Parse(id); err != nil {
		return TimeEntryResponse{}, timeentryerrors.ErrInvalidEntryID
	}
	e, err := s.repo.FindByID(ctx, orgID, id)
	if err != nil {
		return TimeEntryResponse{}, mapRepositoryError(err)
	}
	return mapToResponse(*e), nil
}

func (s *service) List(ctx context.Context, orgID string, f Filter) ([]TimeEntryResponse, int64, error) {
	rows, total, err := s.repo.Query(ctx, orgID, f)
	if err != nil {
		return nil, 0, err
	}
	return mapToListResponse(rows), total, nil
}

func (s *service) History(ctx context.Context, orgID, id string) ([]EditRecordResponse, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, timeentryerrors.ErrInvalidEntryID
	}
	if _, err := s.repo.FindByID(ctx, orgID, id); err != nil {
		return nil, mapRepositoryError(err)
	}

	rows, err := s.edits.ListByEntry(ctx, orgID, id)
	if err != nil {
		return nil, err
	}

	resp := make([]EditRecordResponse, len(rows))
	for i, r := range rows {
		resp[i] = EditRecordResponse{
			EditedAt:     r.EditedAt.UTC().Format(time.RFC3339),
			EditedBy:     r.EditedBy.String(),
			EditedByName: r.EditedByName,
			Field:        r.Field,
			OldValue:     r.OldValue,
			NewValue:     r.NewValue,
			Reason:       r.Reason,
		}
	}
	return resp, nil
}

func (s *service) Update(ctx context.Context, p identity.Principal, id string, req UpdateEntryRequest) (TimeEntryResponse, error) {
	rid := contextutil.GetRequestID(ctx)
	s.logger.Debug("update entry requested",
		zap.String("request_id", rid),
		zap.String("entry_id", id),
		zap.String("actor_id", p.UserID),
	)

	_, actorUUID, err := parsePrincipal(p)
	if err != nil {
		return TimeEntryResponse{}, err
	}
	if _, err := uuid.Parse(id); err != nil {
		return TimeEntryResponse{}, timeentryerrors.ErrInvalidEntryID
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("update entry begin tx failed", zap.Error(err))
		return TimeEntryResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	e, err := qtx.FindByID(ctx, p.OrgID, id)
	if err != nil {
		return TimeEntryResponse{}, mapRepositoryError(err)
	}
	if e.Status == StatusApproved {
		s.logger.Warn("update rejected, entry approved", zap.String("entry_id", id))
		return TimeEntryResponse{}, timeentryerrors.ErrApprovedEntryImmutable
	}

	oldView := auditView(e)
	timesChanged := false

	if req.ClockIn != nil {
		in, err := parseInstant(*req.ClockIn)
		if err != nil {
			return TimeEntryResponse{}, err
		}
		e.ClockIn = in
		timesChanged = true
	}
	if req.ClockOut != nil {
		if e.ClockOut == nil {
			// Open entries are closed by the clock-out action, never by edit.
			return TimeEntryResponse{}, timeentryerrors.ErrEntryStillOpen
		}
		out, err := parseInstant(*req.ClockOut)
		if err != nil {
			return TimeEntryResponse{}, err
		}
		e.ClockOut = &out
		timesChanged = true
	}
	if e.ClockOut != nil && e.ClockOut.Before(e.ClockIn) {
		return TimeEntryResponse{}, timeentryerrors.ErrClockOutBeforeClockIn
	}
	if req.ProjectID != nil {
		projectID, err := parseOptionalUUID(req.ProjectID, timeentryerrors.ErrInvalidProjectID)
		if err != nil {
			return TimeEntryResponse{}, err
		}
		e.ProjectID = projectID
	}
	if req.TaskID != nil {
		taskID, err := parseOptionalUUID(req.TaskID, timeentryerrors.ErrInvalidTaskID)
		if err != nil {
			return TimeEntryResponse{}, err
		}
		e.TaskID = taskID
	}
	if req.Notes != nil {
		e.Notes = req.Notes
	}
	if req.Breaks != nil {
		allowOpen := e.Status == StatusPaused
		breaks, err := buildBreaks(e.ID, e.OrgID, *req.Breaks, allowOpen)
		if err != nil {
			return TimeEntryResponse{}, err
		}
		if err := qtx.ReplaceBreaks(ctx, p.OrgID, id, breaks); err != nil {
			s.logger.Error("update entry replace breaks failed", zap.Error(err))
			return TimeEntryResponse{}, err
		}
		e.Breaks = breaks
		timesChanged = true
	}

	if timesChanged && e.ClockOut != nil {
		totals := timecalc.ComputeTotals(e.ClockIn, *e.ClockOut, e.BreakSpans(), *e.ClockOut)
		e.TotalMinutes = totals.WorkedMinutes
		e.TotalBreakMinutes = totals.BreakMinutes
	}

	now := s.clk.Now().UTC()
	changes := audit.Diff(oldView, auditView(e))
	if len(changes) > 0 {
		records := audit.Records(e.OrgID, e.ID, actorUUID, p.UserName, now, req.Reason, changes)
		if err := s.edits.WithTx(tx).Append(ctx, records); err != nil {
			s.logger.Error("update entry audit append failed", zap.Error(err))
			return TimeEntryResponse{}, err
		}
	}

	if err := qtx.Update(ctx, e); err != nil {
		s.logger.Error("update entry persist failed", zap.Error(err))
		return TimeEntryResponse{}, mapRepositoryError(err)
	}

	if err := s.enqueueEvent(ctx, tx, rid, e, events.TimeEntryUpdated); err != nil {
		return TimeEntryResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("update entry commit failed", zap.Error(err))
		return TimeEntryResponse{}, err
	}

	s.notify(ctx, e, "update")
	s.logger.Info("update entry success",
		zap.String("request_id", rid),
		zap.String("entry_id", id),
		zap.Int("changed_fields", len(changes)),
	)
	return mapToResponse(*e), nil
}

func (s *service) Submit(ctx context.Context, p identity.Principal, id string) (TimeEntryResponse, error) {
	return s.transitionStatus(ctx, p, id, StatusPendingApproval, nil)
}

func (s *service) Approve(ctx context.Context, p identity.Principal, id string) (TimeEntryResponse, error) {
	return s.transitionStatus(ctx, p, id, StatusApproved, nil)
}

func (s *service) Reject(ctx context.Context, p identity.Principal, id, reason string) (TimeEntryResponse, error) {
	return s.transitionStatus(ctx, p, id, StatusRejected, &reason)
}

func (s *service) transitionStatus(ctx context.Context, p identity.Principal, id, targetStatus string, rejectionReason *string) (TimeEntryResponse, error) {
	rid := contextutil.GetRequestID(ctx)
	s.logger.Debug("entry status transition requested",
		zap.String("request_id", rid),
		zap.String("entry_id", id),
		zap.String("actor_id", p.UserID),
		zap.String("target_status", targetStatus),
	)

	_, actorUUID, err := parsePrincipal(p)
	if err != nil {
		return TimeEntryResponse{}, err
	}
	if _, err := uuid.Parse(id); err != nil {
		return TimeEntryResponse{}, timeentryerrors.ErrInvalidEntryID
	}

	if targetStatus == StatusApproved || targetStatus == StatusRejected {
		allowed, err := s.authz.CanApprove(ctx, p.OrgID, p.UserID)
		if err != nil {
			s.logger.Error("approval permission check failed", zap.Error(err))
			return TimeEntryResponse{}, err
		}
		if !allowed {
			s.logger.Warn("approval not permitted",
				zap.String("actor_id", p.UserID),
				zap.String("target_status", targetStatus),
			)
			return TimeEntryResponse{}, timeentryerrors.ErrApprovalNotPermitted
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("entry status transition begin tx failed", zap.Error(err))
		return TimeEntryResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	e, err := qtx.FindByID(ctx, p.OrgID, id)
	if err != nil {
		return TimeEntryResponse{}, mapRepositoryError(err)
	}
	if !CanTransition(e.Status, targetStatus) {
		s.logger.Warn("entry status transition invalid",
			zap.String("entry_id", id),
			zap.String("from_status", e.Status),
			zap.String("to_status", targetStatus),
		)
		return TimeEntryResponse{}, timeentryerrors.ErrInvalidStatusTransition
	}

	now := s.clk.Now().UTC()
	e.Status = targetStatus
	eventType := events.TimeEntrySubmitted

	switch targetStatus {
	case StatusPendingApproval:
		e.SubmittedAt = &now
	case StatusApproved:
		eventType = events.TimeEntryApproved
		e.ApprovedBy = &actorUUID
		e.ApprovedByName = strPtr(p.UserName)
		e.ApprovedAt = &now
		e.RejectedBy = nil
		e.RejectedByName = nil
		e.RejectedAt = nil
		e.RejectionReason = nil
	case StatusRejected:
		eventType = events.TimeEntryRejected
		if rejectionReason == nil || *rejectionReason == "" {
			return TimeEntryResponse{}, timeentryerrors.ErrRejectionReasonRequired
		}
		e.RejectedBy = &actorUUID
		e.RejectedByName = strPtr(p.UserName)
		e.RejectedAt = &now
		e.RejectionReason = rejectionReason
		e.ApprovedBy = nil
		e.ApprovedByName = nil
		e.ApprovedAt = nil
	}

	if err := qtx.Update(ctx, e); err != nil {
		s.logger.Error("entry status transition persist failed",
			zap.String("entry_id", id),
			zap.String("target_status", targetStatus),
			zap.Error(err),
		)
		return TimeEntryResponse{}, mapRepositoryError(err)
	}

	if err := s.enqueueEvent(ctx, tx, rid, e, eventType); err != nil {
		return TimeEntryResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("entry status transition commit failed", zap.Error(err))
		return TimeEntryResponse{}, err
	}

	s.notify(ctx, e, targetStatus)
	s.logger.Info("entry status transition success",
		zap.String("request_id", rid),
		zap.String("entry_id", id),
		zap.String("status", targetStatus),
	)
	return mapToResponse(*e), nil
}

func (s *service) Delete(ctx context.Context, p identity.Principal, id string) error {
	rid := contextutil.GetRequestID(ctx)
	s.logger.Debug("delete entry requested",
		zap.String("request_id", rid),
		zap.String("entry_id", id),
		zap.String("actor_id", p.UserID),
	)

	if _, _, err := parsePrincipal(p); err != nil {
		return err
	}
	if _, err := uuid.Parse(id); err != nil {
		return timeentryerrors.ErrInvalidEntryID
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("delete entry begin tx failed", zap.Error(err))
		return err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	e, err := qtx.FindByID(ctx, p.OrgID, id)
	if err != nil {
		return mapRepositoryError(err)
	}
	if e.Status == StatusApproved {
		s.logger.Warn("delete rejected, entry approved", zap.String("entry_id", id))
		return timeentryerrors.ErrApprovedEntryUndeletable
	}

	if err := qtx.Delete(ctx, p.OrgID, id); err != nil {
		s.logger.Error("delete entry persist failed", zap.Error(err))
		return err
	}

	if err := s.enqueueEvent(ctx, tx, rid, e, events.TimeEntryDeleted); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("delete entry commit failed", zap.Error(err))
		return err
	}

	s.notify(ctx, e, "delete")
	s.logger.Info("delete entry success",
		zap.String("request_id", rid),
		zap.String("entry_id", id),
	)
	return nil
}

func (s *service) enqueueEvent(ctx context.Context, tx *sql.Tx, rid string, e *TimeEntry, eventType string) error {
	if s.outbox == nil {
		return nil
	}

	rate := int64(0)
	if e.HourlyRateCents != nil {
		rate = *e.HourlyRateCents
	}
	event := events.TimeEntryEvent{
		EventType:       eventType,
		RequestID:       rid,
		EntryID:         e.ID.String(),
		OrgID:           e.OrgID.String(),
		UserID:          e.UserID.String(),
		Status:          e.Status,
		Kind:            e.Kind,
		ClockIn:         e.ClockIn.UTC(),
		TotalMinutes:    e.TotalMinutes,
		HourlyRateCents: rate,
		OccurredAt:      s.clk.Now().UTC(),
	}

	payload, err := json.Marshal(event)
	if err != nil {
		s.logger.Error("marshal entry event failed", zap.String("request_id", rid), zap.Error(err))
		return err
	}

	if err := s.outbox.WithTx(tx).Create(ctx, kafka.OutboxEvent{
		ID:            uuid.NewString(),
		RequestID:     rid,
		AggregateType: "time_entry",
		AggregateID:   e.ID.String(),
		EventType:     eventType,
		Topic:         events.TimeEntryLifecycleTopic,
		Payload:       payload,
		Status:        kafka.OutboxStatusPending,
	}); err != nil {
		s.logger.Error("entry outbox persist failed",
			zap.String("entry_id", e.ID.String()),
			zap.String("event_type", eventType),
			zap.Error(err),
		)
		return err
	}
	return nil
}

func (s *service) notify(ctx context.Context, e *TimeEntry, action string) {
	if s.watcher == nil {
		return
	}
	s.watcher.Publish(ctx, Change{
		OrgID:   e.OrgID.String(),
		UserID:  e.UserID.String(),
		EntryID: e.ID.String(),
		Action:  action,
	})
}

func parsePrincipal(p identity.Principal) (uuid.UUID, uuid.UUID, error) {
	orgUUID, err := uuid.Parse(p.OrgID)
	if err != nil {
		return uuid.Nil, uuid.Nil, timeentryerrors.ErrInvalidOrgID
	}
	userUUID, err := uuid.Parse(p.UserID)
	if err != nil {
		return uuid.Nil, uuid.Nil, timeentryerrors.ErrInvalidActorID
	}
	return orgUUID, userUUID, nil
}

func parseOptionalUUID(v *string, invalid error) (*uuid.UUID, error) {
	if v == nil || *v == "" {
		return nil, nil
	}
	id, err := uuid.Parse(*v)
	if err != nil {
		return nil, invalid
	}
	return &id, nil
}

func parseInstant(v string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, timeentryerrors.ErrInvalidTimestampFormat
	}
	return t.UTC(), nil
}

func parseLocation(loc LocationDTO) (*float64, *float64, *time.Time, error) {
	at, err := parseInstant(loc.Timestamp)
	if err != nil {
		return nil, nil, nil, err
	}
	lat := loc.Lat
	lng := loc.Lng
	return &lat, &lng, &at, nil
}

// buildBreaks validates and materializes a caller-supplied break set.
// At most one break may be open, and only when allowOpen is set.
func buildBreaks(entryID, orgID uuid.UUID, inputs []BreakInput, allowOpen bool) ([]Break, error) {
	breaks := make([]Break, 0, len(inputs))
	openSeen := false

	for _, in := range inputs {
		start, err := parseInstant(in.StartTime)
		if err != nil {
			return nil, err
		}

		b := Break{
			ID:        uuid.New(),
			EntryID:   entryID,
			OrgID:     orgID,
			BreakType: in.BreakType,
			IsPaid:    in.IsPaid,
			StartTime: start,
		}

		if in.EndTime == nil {
			if !allowOpen || openSeen {
				return nil, timeentryerrors.ErrOpenBreakNotAllowed
			}
			openSeen = true
		} else {
			end, err := parseInstant(*in.EndTime)
			if err != nil {
				return nil, err
			}
			if end.Before(start) {
				return nil, timeentryerrors.ErrBreakEndBeforeStart
			}
			dur := timecalc.RoundMinutes(end.Sub(start))
			b.EndTime = &end
			b.DurationMinutes = &dur
		}

		breaks = append(breaks, b)
	}
	return breaks, nil
}

// auditView flattens the editable fields into the stringified form stored in
// the edit log. Timestamps render as RFC3339, the break set as compact JSON.
func auditView(e *TimeEntry) map[string]string {
	v := map[string]string{
		"clock_in":   e.ClockIn.UTC().Format(time.RFC3339),
		"clock_out":  "",
		"project_id": "",
		"task_id":    "",
		"notes":      "",
		"breaks":     breaksDigest(e.Breaks),
	}
	if e.ClockOut != nil {
		v["clock_out"] = e.ClockOut.UTC().Format(time.RFC3339)
	}
	if e.ProjectID != nil {
		v["project_id"] = e.ProjectID.String()
	}
	if e.TaskID != nil {
		v["task_id"] = e.TaskID.String()
	}
	if e.Notes != nil {
		v["notes"] = *e.Notes
	}
	return v
}

type breakDigest struct {
	Type   string  `json:"type"`
	Start  string  `json:"start"`
	End    *string `json:"end,omitempty"`
	IsPaid bool    `json:"is_paid"`
}

func breaksDigest(breaks []Break) string {
	if len(breaks) == 0 {
		return "[]"
	}
	digests := make([]breakDigest, len(breaks))
	for i, b := range breaks {
		digests[i] = breakDigest{
			Type:   b.BreakType,
			Start:  b.StartTime.UTC().Format(time.RFC3339),
			IsPaid: b.IsPaid,
		}
		if b.EndTime != nil {
			end := b.EndTime.UTC().Format(time.RFC3339)
			digests[i].End = &end
		}
	}
	out, err := json.Marshal(digests)
	if err != nil {
		return "[]"
	}
	return string(out)
}

func strPtr(s string) *string {
	return &s
}

func fmtInstant(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func fmtInstantPtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	v := fmtInstant(*t)
	return &v
}

func uuidPtrString(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	v := id.String()
	return &v
}

func mapToResponse(e TimeEntry) TimeEntryResponse {
	resp := TimeEntryResponse{
		ID:                e.ID.String(),
		OrgID:             e.OrgID.String(),
		UserID:            e.UserID.String(),
		UserName:          e.UserName,
		UserRole:          e.UserRole,
		Kind:              e.Kind,
		Status:            e.Status,
		ClockIn:           fmtInstant(e.ClockIn),
		ClockOut:          fmtInstantPtr(e.ClockOut),
		ProjectID:         uuidPtrString(e.ProjectID),
		TaskID:            uuidPtrString(e.TaskID),
		Notes:             e.Notes,
		HourlyRateCents:   e.HourlyRateCents,
		TotalMinutes:      e.TotalMinutes,
		TotalBreakMinutes: e.TotalBreakMinutes,
		SubmittedAt:       fmtInstantPtr(e.SubmittedAt),
		ApprovedByName:    e.ApprovedByName,
		ApprovedAt:        fmtInstantPtr(e.ApprovedAt),
		RejectedByName:    e.RejectedByName,
		RejectedAt:        fmtInstantPtr(e.RejectedAt),
		RejectionReason:   e.RejectionReason,
		CreatedAt:         fmtInstant(e.CreatedAt),
		UpdatedAt:         fmtInstant(e.UpdatedAt),
	}
	resp.ApprovedBy = uuidPtrString(e.ApprovedBy)
	resp.RejectedBy = uuidPtrString(e.RejectedBy)

	if e.ClockInLat != nil && e.ClockInLng != nil && e.ClockInLocAt != nil {
		resp.ClockInLoc = &LocationDTO{Lat: *e.ClockInLat, Lng: *e.ClockInLng, Timestamp: fmtInstant(*e.ClockInLocAt)}
	}
	if e.ClockOutLat != nil && e.ClockOutLng != nil && e.ClockOutLocAt != nil {
		resp.ClockOutLoc = &LocationDTO{Lat: *e.ClockOutLat, Lng: *e.ClockOutLng, Timestamp: fmtInstant(*e.ClockOutLocAt)}
	}

	resp.Breaks = make([]BreakResponse, len(e.Breaks))
	for i, b := range e.Breaks {
		resp.Breaks[i] = BreakResponse{
			ID:              b.ID.String(),
			BreakType:       b.BreakType,
			StartTime:       fmtInstant(b.StartTime),
			EndTime:         fmtInstantPtr(b.EndTime),
			DurationMinutes: b.DurationMinutes,
			IsPaid:          b.IsPaid,
		}
	}
	return resp
}

func mapToListResponse(rows []TimeEntry) []TimeEntryResponse {
	resp := make([]TimeEntryResponse, len(rows))
	for i, e := range rows {
		resp[i] = mapToResponse(e)
	}
	return resp
}
