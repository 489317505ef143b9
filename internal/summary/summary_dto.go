package summary

// ProjectBreakdown is one row of a summary's per-project minute split.
// Entries recorded without a project are grouped under "unassigned".
type ProjectBreakdown struct {
	ProjectID string `json:"project_id"`
	Minutes   int    `json:"minutes"`
}

type DailySummaryResponse struct {
	Date            string             `json:"date"`
	UserID          string             `json:"user_id"`
	EntryCount      int                `json:"entry_count"`
	TotalMinutes    int                `json:"total_minutes"`
	BreakMinutes    int                `json:"break_minutes"`
	RegularMinutes  int                `json:"regular_minutes"`
	OvertimeMinutes int                `json:"overtime_minutes"`
	RegularHours    float64            `json:"regular_hours"`
	OvertimeHours   float64            `json:"overtime_hours"`
	Projects        []ProjectBreakdown `json:"projects"`
}

// WeeklySummaryResponse covers the seven days starting at WeekStart. Days
// holds a daily summary for each day that has entries; regular and overtime
// are recomputed against the weekly threshold, not summed from the days.
type WeeklySummaryResponse struct {
	WeekStart       string                 `json:"week_start"`
	UserID          string                 `json:"user_id"`
	EntryCount      int                    `json:"entry_count"`
	TotalMinutes    int                    `json:"total_minutes"`
	BreakMinutes    int                    `json:"break_minutes"`
	RegularMinutes  int                    `json:"regular_minutes"`
	OvertimeMinutes int                    `json:"overtime_minutes"`
	RegularHours    float64                `json:"regular_hours"`
	OvertimeHours   float64                `json:"overtime_hours"`
	Projects        []ProjectBreakdown     `json:"projects"`
	Days            []DailySummaryResponse `json:"days"`
}
