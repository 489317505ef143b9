package payrollexport

import (
	"time"

	"github.com/google/uuid"
)

// PayrollExportLine is the payroll-facing projection of an approved entry.
// One line per entry; a line is voided, never deleted, so downstream payroll
// runs can reconcile against what they already exported.
type PayrollExportLine struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey"`
	OrgID           uuid.UUID `gorm:"type:uuid;index"`
	EntryID         uuid.UUID `gorm:"type:uuid;uniqueIndex:uq_payroll_export_lines_entry"`
	UserID          uuid.UUID `gorm:"type:uuid;index"`
	WorkDate        time.Time
	Minutes         int
	HourlyRateCents int64
	AmountCents     int64
	Voided          bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
