package events

import "time"

const TimeEntryLifecycleTopic = "contractor.timeentry.lifecycle.v1"

const (
	TimeEntryCreated   = "time_entry.created"
	TimeEntryUpdated   = "time_entry.updated"
	TimeEntrySubmitted = "time_entry.submitted"
	TimeEntryApproved  = "time_entry.approved"
	TimeEntryRejected  = "time_entry.rejected"
	TimeEntryDeleted   = "time_entry.deleted"
)

// TimeEntryEvent is the lifecycle payload published through the outbox.
// Minutes and rate fields are only meaningful once the entry is completed.
type TimeEntryEvent struct {
	EventType       string    `json:"event_type"`
	RequestID       string    `json:"request_id,omitempty"`
	EntryID         string    `json:"entry_id"`
	OrgID           string    `json:"org_id"`
	UserID          string    `json:"user_id"`
	Status          string    `json:"status"`
	Kind            string    `json:"kind"`
	ClockIn         time.Time `json:"clock_in"`
	TotalMinutes    int       `json:"total_minutes"`
	HourlyRateCents int64     `json:"hourly_rate_cents"`
	OccurredAt      time.Time `json:"occurred_at"`
}
