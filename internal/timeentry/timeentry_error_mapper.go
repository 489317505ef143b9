package timeentry

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	timeentryerrors "github.com/boissonnick/contractoros/internal/timeentry/errors"
)

// mapRepositoryError translates storage errors into the engine taxonomy.
// The partial unique index on (org_id, user_id) for open statuses is the
// authority on the single-active-session rule; its violation is a conflict,
// not an internal error.
func mapRepositoryError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return timeentryerrors.ErrEntryNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == "23505" && pgErr.ConstraintName == "uq_time_entries_active_session" {
			return timeentryerrors.ErrActiveSessionExists
		}
	}

	errMsg := strings.ToLower(err.Error())
	if strings.Contains(errMsg, "duplicate key value") && strings.Contains(errMsg, "uq_time_entries_active_session") {
		return timeentryerrors.ErrActiveSessionExists
	}

	return err
}
