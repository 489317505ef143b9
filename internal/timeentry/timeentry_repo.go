package timeentry

import (
	"context"
	"database/sql"
	"time"

	"github.com/boissonnick/contractoros/internal/tenant"

	"gorm.io/gorm"
)

// Filter narrows a Query call. Nil / empty fields are ignored.
type Filter struct {
	UserID      *string
	ProjectID   *string
	Statuses    []string
	ClockInFrom *time.Time
	ClockInTo   *time.Time
	Page        int
	PageSize    int
}

//go:generate mockgen -source=timeentry_repo.go -destination=mock/timeentry_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Create(ctx context.Context, e *TimeEntry) error
	FindByID(ctx context.Context, orgID, id string) (*TimeEntry, error)
	FindOpenByUser(ctx context.Context, orgID, userID string) (*TimeEntry, error)
	Query(ctx context.Context, orgID string, f Filter) ([]TimeEntry, int64, error)
	Update(ctx context.Context, e *TimeEntry) error
	Delete(ctx context.Context, orgID, id string) error
	CreateBreak(ctx context.Context, b *Break) error
	UpdateBreak(ctx context.Context, b *Break) error
	ReplaceBreaks(ctx context.Context, orgID, entryID string, breaks []Break) error
}

type repository struct {
	db *gorm.DB
	tx *sql.Tx
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *sql.Tx) Repository {
	return &repository{db: r.db, tx: tx}
}

// conn routes statements through the enclosing transaction when one is set.
func (r *repository) conn(ctx context.Context) *gorm.DB {
	db := r.db.WithContext(ctx)
	if r.tx != nil {
		db = db.Session(&gorm.Session{NewDB: true}).WithContext(ctx)
		db.Statement.ConnPool = r.tx
	}
	return db
}

func breaksByStartTime(db *gorm.DB) *gorm.DB {
	return db.Order("start_time ASC")
}

func (r *repository) Create(ctx context.Context, e *TimeEntry) error {
	return r.conn(ctx).Omit("Breaks").Create(e).Error
}

func (r *repository) FindByID(ctx context.Context, orgID, id string) (*TimeEntry, error) {
	var e TimeEntry
	err := r.conn(ctx).
		Preload("Breaks", breaksByStartTime).
		Scopes(tenant.Scope(orgID)).
		First(&e, "id = ?", id).Error
	return &e, err
}

func (r *repository) FindOpenByUser(ctx context.Context, orgID, userID string) (*TimeEntry, error) {
	var e TimeEntry
	err := r.conn(ctx).
		Preload("Breaks", breaksByStartTime).
		Scopes(tenant.Scope(orgID)).
		Where("user_id = ?", userID).
		Where("status IN ?", []string{StatusActive, StatusPaused}).
		First(&e).Error
	return &e, err
}

func (r *repository) Query(ctx context.Context, orgID string, f Filter) ([]TimeEntry, int64, error) {
	q := r.conn(ctx).
		Model(&TimeEntry{}).
		Scopes(tenant.Scope(orgID))

	if f.UserID != nil && *f.UserID != "" {
		q = q.Where("user_id = ?", *f.UserID)
	}
	if f.ProjectID != nil && *f.ProjectID != "" {
		q = q.Where("project_id = ?", *f.ProjectID)
	}
	if len(f.Statuses) > 0 {
		q = q.Where("status IN ?", f.Statuses)
	}
	if f.ClockInFrom != nil {
		q = q.Where("clock_in >= ?", *f.ClockInFrom)
	}
	if f.ClockInTo != nil {
		q = q.Where("clock_in <= ?", *f.ClockInTo)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if f.PageSize > 0 {
		page := f.Page
		if page < 1 {
			page = 1
		}
		q = q.Offset((page - 1) * f.PageSize).Limit(f.PageSize)
	}

	var rows []TimeEntry
	err := q.
		Preload("Breaks", breaksByStartTime).
		Order("clock_in DESC").
		Find(&rows).Error
	return rows, total, err
}

func (r *repository) Update(ctx context.Context, e *TimeEntry) error {
	return r.conn(ctx).Omit("Breaks").Save(e).Error
}

func (r *repository) Delete(ctx context.Context, orgID, id string) error {
	return r.conn(ctx).
		Scopes(tenant.Scope(orgID)).
		Delete(&TimeEntry{}, "id = ?", id).Error
}

func (r *repository) CreateBreak(ctx context.Context, b *Break) error {
	return r.conn(ctx).Create(b).Error
}

func (r *repository) UpdateBreak(ctx context.Context, b *Break) error {
	return r.conn(ctx).Save(b).Error
}

func (r *repository) ReplaceBreaks(ctx context.Context, orgID, entryID string, breaks []Break) error {
	db := r.conn(ctx)
	if err := db.
		Scopes(tenant.Scope(orgID)).
		Where("entry_id = ?", entryID).
		Delete(&Break{}).Error; err != nil {
		return err
	}
	if len(breaks) == 0 {
		return nil
	}
	return db.Create(&breaks).Error
}
