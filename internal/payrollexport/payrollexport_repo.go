package payrollexport

import (
	"context"
	"database/sql"

	"github.com/boissonnick/contractoros/internal/tenant"

	"gorm.io/gorm"
)

//go:generate mockgen -source=payrollexport_repo.go -destination=mock/payrollexport_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Create(ctx context.Context, line *PayrollExportLine) error
	VoidByEntry(ctx context.Context, orgID, entryID string) (int64, error)
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

// conn routes statements through the attached transaction when one is set.
func (r *repository) conn(ctx context.Context) *gorm.DB {
	db := r.db.Session(&gorm.Session{NewDB: true}).WithContext(ctx)
	if r.tx != nil {
		db.Statement.ConnPool = r.tx
	}
	return db
}

func (r *repository) Create(ctx context.Context, line *PayrollExportLine) error {
	return r.conn(ctx).Create(line).Error
}

// VoidByEntry marks the line for an entry as voided and reports how many rows
// changed. Zero rows means the entry was never exported, which is fine.
func (r *repository) VoidByEntry(ctx context.Context, orgID, entryID string) (int64, error) {
	res := r.conn(ctx).
		Model(&PayrollExportLine{}).
		Scopes(tenant.Scope(orgID)).
		Where("entry_id = ?", entryID).
		Where("voided = ?", false).
		Update("voided", true)
	return res.RowsAffected, res.Error
}
