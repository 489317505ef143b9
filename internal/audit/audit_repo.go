package audit

import (
	"context"
	"database/sql"

	"github.com/boissonnick/contractoros/internal/tenant"

	"gorm.io/gorm"
)

//go:generate mockgen -source=audit_repo.go -destination=mock/audit_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Append(ctx context.Context, edits []TimeEntryEdit) error
	ListByEntry(ctx context.Context, orgID, entryID string) ([]TimeEntryEdit, error)
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

func (r *repository) Append(ctx context.Context, edits []TimeEntryEdit) error {
	if len(edits) == 0 {
		return nil
	}
	return r.conn(ctx).Create(&edits).Error
}

func (r *repository) ListByEntry(ctx context.Context, orgID, entryID string) ([]TimeEntryEdit, error) {
	var rows []TimeEntryEdit
	err := r.conn(ctx).
		Scopes(tenant.Scope(orgID)).
		Where("entry_id = ?", entryID).
		Order("edited_at ASC, id ASC").
		Find(&rows).Error
	return rows, err
}
