package timeentry

type LocationDTO struct {
	Lat       float64 `json:"lat" binding:"required"`
	Lng       float64 `json:"lng" binding:"required"`
	Timestamp string  `json:"timestamp" binding:"required"`
}

type ClockInRequest struct {
	ProjectID *string      `json:"project_id"`
	TaskID    *string      `json:"task_id"`
	Notes     *string      `json:"notes"`
	Location  *LocationDTO `json:"location"`
}

type ClockOutRequest struct {
	Notes    *string      `json:"notes"`
	Location *LocationDTO `json:"location"`
}

type StartBreakRequest struct {
	BreakType string `json:"break_type" binding:"required,oneof=rest meal other"`
	IsPaid    bool   `json:"is_paid"`
}

type BreakInput struct {
	BreakType string  `json:"break_type" binding:"required,oneof=rest meal other"`
	IsPaid    bool    `json:"is_paid"`
	StartTime string  `json:"start_time" binding:"required"`
	EndTime   *string `json:"end_time"`
}

type CreateManualEntryRequest struct {
	ClockIn   string       `json:"clock_in" binding:"required"`
	ClockOut  string       `json:"clock_out" binding:"required"`
	ProjectID *string      `json:"project_id"`
	TaskID    *string      `json:"task_id"`
	Notes     *string      `json:"notes"`
	Breaks    []BreakInput `json:"breaks" binding:"omitempty,dive"`
}

// UpdateEntryRequest carries the mutable fields. Nil means "leave unchanged";
// Breaks, when present, replaces the whole break set.
type UpdateEntryRequest struct {
	ClockIn   *string       `json:"clock_in"`
	ClockOut  *string       `json:"clock_out"`
	ProjectID *string       `json:"project_id"`
	TaskID    *string       `json:"task_id"`
	Notes     *string       `json:"notes"`
	Breaks    *[]BreakInput `json:"breaks" binding:"omitempty,dive"`
	Reason    *string       `json:"reason"`
}

type RejectEntryRequest struct {
	Reason string `json:"reason"`
}

type BreakResponse struct {
	ID              string  `json:"id"`
	BreakType       string  `json:"type"`
	StartTime       string  `json:"start_time"`
	EndTime         *string `json:"end_time,omitempty"`
	DurationMinutes *int    `json:"duration_minutes,omitempty"`
	IsPaid          bool    `json:"is_paid"`
}

type TimeEntryResponse struct {
	ID                string          `json:"id"`
	OrgID             string          `json:"org_id"`
	UserID            string          `json:"user_id"`
	UserName          string          `json:"user_name"`
	UserRole          string          `json:"user_role"`
	Kind              string          `json:"kind"`
	Status            string          `json:"status"`
	ClockIn           string          `json:"clock_in"`
	ClockOut          *string         `json:"clock_out,omitempty"`
	ProjectID         *string         `json:"project_id,omitempty"`
	TaskID            *string         `json:"task_id,omitempty"`
	Notes             *string         `json:"notes,omitempty"`
	HourlyRateCents   *int64          `json:"hourly_rate_cents,omitempty"`
	ClockInLoc        *LocationDTO    `json:"clock_in_location,omitempty"`
	ClockOutLoc       *LocationDTO    `json:"clock_out_location,omitempty"`
	TotalMinutes      int             `json:"total_minutes"`
	TotalBreakMinutes int             `json:"total_break_minutes"`
	Breaks            []BreakResponse `json:"breaks"`
	SubmittedAt       *string         `json:"submitted_at,omitempty"`
	ApprovedBy        *string         `json:"approved_by,omitempty"`
	ApprovedByName    *string         `json:"approved_by_name,omitempty"`
	ApprovedAt        *string         `json:"approved_at,omitempty"`
	RejectedBy        *string         `json:"rejected_by,omitempty"`
	RejectedByName    *string         `json:"rejected_by_name,omitempty"`
	RejectedAt        *string         `json:"rejected_at,omitempty"`
	RejectionReason   *string         `json:"rejection_reason,omitempty"`
	CreatedAt         string          `json:"created_at"`
	UpdatedAt         string          `json:"updated_at"`
}

type EditRecordResponse struct {
	EditedAt     string  `json:"edited_at"`
	EditedBy     string  `json:"edited_by"`
	EditedByName string  `json:"edited_by_name"`
	Field        string  `json:"field"`
	OldValue     string  `json:"old_value"`
	NewValue     string  `json:"new_value"`
	Reason       *string `json:"reason,omitempty"`
}
