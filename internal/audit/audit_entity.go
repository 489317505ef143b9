package audit

import (
	"time"

	"github.com/google/uuid"
)

// TimeEntryEdit is one field-level change to a time entry. Rows are only ever
// inserted; the table has no update or delete path.
type TimeEntryEdit struct {
	ID           uuid.UUID `gorm:"column:id;type:uuid;primaryKey;default:gen_random_uuid()"`
	OrgID        uuid.UUID `gorm:"column:org_id;type:uuid;not null;index"`
	EntryID      uuid.UUID `gorm:"column:entry_id;type:uuid;not null;index"`
	EditedAt     time.Time `gorm:"column:edited_at;type:timestamptz;not null"`
	EditedBy     uuid.UUID `gorm:"column:edited_by;type:uuid;not null"`
	EditedByName string    `gorm:"column:edited_by_name;type:varchar(120);not null"`
	Field        string    `gorm:"column:field;type:varchar(60);not null"`
	OldValue     string    `gorm:"column:old_value;type:text;not null"`
	NewValue     string    `gorm:"column:new_value;type:text;not null"`
	Reason       *string   `gorm:"column:reason;type:text"`
	CreatedAt    time.Time `gorm:"column:created_at"`
}

func (TimeEntryEdit) TableName() string {
	return "time_entry_edits"
}
