package timeentry

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/boissonnick/contractoros/internal/timecalc"
)

// TimeEntry is one clocked period of work. The single-active-session rule is
// enforced by uq_time_entries_active_session, a partial unique index on
// (org_id, user_id) covering the active and paused statuses; see migrations.
type TimeEntry struct {
	ID       uuid.UUID `gorm:"column:id;type:uuid;primaryKey;default:gen_random_uuid()"`
	OrgID    uuid.UUID `gorm:"column:org_id;type:uuid;not null;index"`
	UserID   uuid.UUID `gorm:"column:user_id;type:uuid;not null;index"`
	UserName string    `gorm:"column:user_name;type:varchar(120);not null"`
	UserRole string    `gorm:"column:user_role;type:varchar(30);not null"`

	Kind   string `gorm:"column:kind;type:varchar(10);not null"`
	Status string `gorm:"column:status;type:varchar(20);not null;index"`

	ClockIn  time.Time  `gorm:"column:clock_in;type:timestamptz;not null;index"`
	ClockOut *time.Time `gorm:"column:clock_out;type:timestamptz"`

	ProjectID *uuid.UUID `gorm:"column:project_id;type:uuid;index"`
	TaskID    *uuid.UUID `gorm:"column:task_id;type:uuid"`
	Notes     *string    `gorm:"column:notes;type:text"`

	HourlyRateCents *int64 `gorm:"column:hourly_rate_cents"`

	ClockInLat    *float64   `gorm:"column:clock_in_lat"`
	ClockInLng    *float64   `gorm:"column:clock_in_lng"`
	ClockInLocAt  *time.Time `gorm:"column:clock_in_loc_at;type:timestamptz"`
	ClockOutLat   *float64   `gorm:"column:clock_out_lat"`
	ClockOutLng   *float64   `gorm:"column:clock_out_lng"`
	ClockOutLocAt *time.Time `gorm:"column:clock_out_loc_at;type:timestamptz"`

	TotalMinutes      int `gorm:"column:total_minutes;not null;default:0"`
	TotalBreakMinutes int `gorm:"column:total_break_minutes;not null;default:0"`

	SubmittedAt     *time.Time `gorm:"column:submitted_at;type:timestamptz"`
	ApprovedBy      *uuid.UUID `gorm:"column:approved_by;type:uuid"`
	ApprovedByName  *string    `gorm:"column:approved_by_name;type:varchar(120)"`
	ApprovedAt      *time.Time `gorm:"column:approved_at;type:timestamptz"`
	RejectedBy      *uuid.UUID `gorm:"column:rejected_by;type:uuid"`
	RejectedByName  *string    `gorm:"column:rejected_by_name;type:varchar(120)"`
	RejectedAt      *time.Time `gorm:"column:rejected_at;type:timestamptz"`
	RejectionReason *string    `gorm:"column:rejection_reason;type:text"`

	CreatedAt time.Time      `gorm:"column:created_at"`
	UpdatedAt time.Time      `gorm:"column:updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"column:deleted_at;index"`

	Breaks []Break `gorm:"foreignKey:EntryID;references:ID"`
}

func (TimeEntry) TableName() string {
	return "time_entries"
}

// Break is one rest period inside an entry. EndTime is nil while the break
// is open, which is only legal while the parent entry is paused.
type Break struct {
	ID              uuid.UUID  `gorm:"column:id;type:uuid;primaryKey;default:gen_random_uuid()"`
	EntryID         uuid.UUID  `gorm:"column:entry_id;type:uuid;not null;index"`
	OrgID           uuid.UUID  `gorm:"column:org_id;type:uuid;not null;index"`
	BreakType       string     `gorm:"column:break_type;type:varchar(10);not null"`
	IsPaid          bool       `gorm:"column:is_paid;not null;default:false"`
	StartTime       time.Time  `gorm:"column:start_time;type:timestamptz;not null"`
	EndTime         *time.Time `gorm:"column:end_time;type:timestamptz"`
	DurationMinutes *int       `gorm:"column:duration_minutes"`
	CreatedAt       time.Time  `gorm:"column:created_at"`
}

func (Break) TableName() string {
	return "time_entry_breaks"
}

// OpenBreak returns the break still missing an end time, or nil.
func (e *TimeEntry) OpenBreak() *Break {
	for i := range e.Breaks {
		if e.Breaks[i].EndTime == nil {
			return &e.Breaks[i]
		}
	}
	return nil
}

// BreakSpans projects the entry's breaks for the duration calculator.
func (e *TimeEntry) BreakSpans() []timecalc.BreakSpan {
	spans := make([]timecalc.BreakSpan, 0, len(e.Breaks))
	for _, b := range e.Breaks {
		spans = append(spans, timecalc.BreakSpan{
			Start:  b.StartTime,
			End:    b.EndTime,
			IsPaid: b.IsPaid,
		})
	}
	return spans
}
