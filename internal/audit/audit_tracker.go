package audit

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// FieldChange pairs a field name with its stringified before and after values.
type FieldChange struct {
	Field    string
	OldValue string
	NewValue string
}

// Diff compares two stringified views of the same record and returns one
// change per differing field, ordered by field name so output is stable.
// A field missing from one side diffs against the empty string.
func Diff(oldView, newView map[string]string) []FieldChange {
	fields := make(map[string]struct{}, len(oldView)+len(newView))
	for f := range oldView {
		fields[f] = struct{}{}
	}
	for f := range newView {
		fields[f] = struct{}{}
	}

	names := make([]string, 0, len(fields))
	for f := range fields {
		names = append(names, f)
	}
	sort.Strings(names)

	var changes []FieldChange
	for _, f := range names {
		oldVal := oldView[f]
		newVal := newView[f]
		if oldVal == newVal {
			continue
		}
		changes = append(changes, FieldChange{Field: f, OldValue: oldVal, NewValue: newVal})
	}
	return changes
}

// Records turns changes into append-ready rows stamped with the actor and
// instant of the edit.
func Records(
	orgID, entryID, actorID uuid.UUID,
	actorName string,
	at time.Time,
	reason *string,
	changes []FieldChange,
) []TimeEntryEdit {
	rows := make([]TimeEntryEdit, 0, len(changes))
	for _, ch := range changes {
		rows = append(rows, TimeEntryEdit{
			ID:           uuid.New(),
			OrgID:        orgID,
			EntryID:      entryID,
			EditedAt:     at,
			EditedBy:     actorID,
			EditedByName: actorName,
			Field:        ch.Field,
			OldValue:     ch.OldValue,
			NewValue:     ch.NewValue,
			Reason:       reason,
		})
	}
	return rows
}
