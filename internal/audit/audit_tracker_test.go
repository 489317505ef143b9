package audit_test

import (
	"testing"
	"time"

	"github.com/boissonnick/contractoros/internal/audit"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestDiff(t *testing.T) {
	t.Run("returns one change per differing field sorted by name", func(t *testing.T) {
		oldView := map[string]string{
			"notes":      "",
			"clock_out":  "2026-03-02T16:00:00Z",
			"project_id": "proj-7",
		}
		newView := map[string]string{
			"notes":      "stayed for the pour",
			"clock_out":  "2026-03-02T17:00:00Z",
			"project_id": "proj-7",
		}

		changes := audit.Diff(oldView, newView)

		assert.Equal(t, []audit.FieldChange{
			{Field: "clock_out", OldValue: "2026-03-02T16:00:00Z", NewValue: "2026-03-02T17:00:00Z"},
			{Field: "notes", OldValue: "", NewValue: "stayed for the pour"},
		}, changes)
	})

	t.Run("field missing from one side diffs against empty string", func(t *testing.T) {
		changes := audit.Diff(
			map[string]string{"task_id": "task-3"},
			map[string]string{"notes": "swapped to cleanup"},
		)

		assert.Equal(t, []audit.FieldChange{
			{Field: "notes", OldValue: "", NewValue: "swapped to cleanup"},
			{Field: "task_id", OldValue: "task-3", NewValue: ""},
		}, changes)
	})

	t.Run("identical views produce no changes", func(t *testing.T) {
		view := map[string]string{"clock_in": "2026-03-02T08:00:00Z", "notes": "n"}
		assert.Empty(t, audit.Diff(view, view))
	})
}

func TestRecords(t *testing.T) {
	orgID := uuid.New()
	entryID := uuid.New()
	actorID := uuid.New()
	editedAt := time.Date(2026, 3, 2, 18, 0, 0, 0, time.UTC)
	reason := "forgot to clock out"

	changes := []audit.FieldChange{
		{Field: "clock_out", OldValue: "2026-03-02T16:00:00Z", NewValue: "2026-03-02T17:00:00Z"},
		{Field: "notes", OldValue: "", NewValue: "stayed for the pour"},
	}

	rows := audit.Records(orgID, entryID, actorID, "Dana Brick", editedAt, &reason, changes)

	assert.Len(t, rows, 2)
	for i, row := range rows {
		assert.NotEqual(t, uuid.Nil, row.ID)
		assert.Equal(t, orgID, row.OrgID)
		assert.Equal(t, entryID, row.EntryID)
		assert.Equal(t, actorID, row.EditedBy)
		assert.Equal(t, "Dana Brick", row.EditedByName)
		assert.Equal(t, editedAt, row.EditedAt)
		if assert.NotNil(t, row.Reason) {
			assert.Equal(t, reason, *row.Reason)
		}
		assert.Equal(t, changes[i].Field, row.Field)
		assert.Equal(t, changes[i].OldValue, row.OldValue)
		assert.Equal(t, changes[i].NewValue, row.NewValue)
	}
	assert.NotEqual(t, rows[0].ID, rows[1].ID)

	t.Run("no changes append nothing", func(t *testing.T) {
		assert.Empty(t, audit.Records(orgID, entryID, actorID, "Dana Brick", editedAt, nil, nil))
	})
}
