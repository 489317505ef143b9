package timeentry

const (
	StatusActive          = "active"
	StatusPaused          = "paused"
	StatusCompleted       = "completed"
	StatusPendingApproval = "pending_approval"
	StatusApproved        = "approved"
	StatusRejected        = "rejected"
)

const (
	KindClock  = "clock"
	KindManual = "manual"
)

const (
	BreakTypeRest  = "rest"
	BreakTypeMeal  = "meal"
	BreakTypeOther = "other"
)

// transitions is the full status machine. Anything absent is illegal;
// approved and rejected have no outgoing edges.
var transitions = map[string][]string{
	StatusActive:          {StatusPaused, StatusCompleted},
	StatusPaused:          {StatusActive, StatusCompleted},
	StatusCompleted:       {StatusPendingApproval},
	StatusPendingApproval: {StatusApproved, StatusRejected},
	StatusApproved:        {},
	StatusRejected:        {},
}

// CanTransition reports whether moving from one status to another is legal.
func CanTransition(from, to string) bool {
	for _, t := range transitions[from] {
		if t == to {
			return true
		}
	}
	return false
}

// IsOpen reports whether a status still occupies the caller's single
// active session slot.
func IsOpen(status string) bool {
	return status == StatusActive || status == StatusPaused
}

// IsValidStatus reports whether s is one of the six known statuses.
func IsValidStatus(s string) bool {
	_, ok := transitions[s]
	return ok
}
