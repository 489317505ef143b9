package timeentryerrors

import (
	"net/http"

	"github.com/boissonnick/contractoros/internal/shared/apperror"
)

var (
	ErrInvalidOrgID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid org id",
		http.StatusBadRequest,
	)
	ErrInvalidActorID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid actor id",
		http.StatusBadRequest,
	)
	ErrInvalidEntryID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid entry id",
		http.StatusBadRequest,
	)
	ErrInvalidProjectID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid project id",
		http.StatusBadRequest,
	)
	ErrInvalidTaskID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid task id",
		http.StatusBadRequest,
	)
	ErrActiveSessionExists = apperror.New(
		apperror.CodeConflict,
		"an active or paused entry already exists for this user",
		http.StatusConflict,
	)
	ErrEntryNotFound = apperror.New(
		apperror.CodeNotFound,
		"time entry not found",
		http.StatusNotFound,
	)
	ErrNoActiveSession = apperror.New(
		apperror.CodeInvalidState,
		"no active or paused entry for this user",
		http.StatusBadRequest,
	)
	ErrEntryNotActive = apperror.New(
		apperror.CodeInvalidState,
		"entry is not active",
		http.StatusBadRequest,
	)
	ErrEntryNotPaused = apperror.New(
		apperror.CodeInvalidState,
		"entry is not paused",
		http.StatusBadRequest,
	)
	ErrNoOpenBreak = apperror.New(
		apperror.CodeInvalidState,
		"entry has no open break",
		http.StatusBadRequest,
	)
	ErrInvalidStatusTransition = apperror.New(
		apperror.CodeInvalidState,
		"invalid entry status transition",
		http.StatusBadRequest,
	)
	ErrApprovedEntryImmutable = apperror.New(
		apperror.CodeInvalidState,
		"approved entries cannot be edited",
		http.StatusBadRequest,
	)
	ErrApprovedEntryUndeletable = apperror.New(
		apperror.CodeInvalidState,
		"approved entries cannot be deleted",
		http.StatusBadRequest,
	)
	ErrRejectionReasonRequired = apperror.New(
		apperror.CodeInvalidInput,
		"rejection_reason is required when rejecting an entry",
		http.StatusBadRequest,
	)
	ErrApprovalNotPermitted = apperror.New(
		apperror.CodeForbidden,
		"caller role is not permitted to approve or reject entries",
		http.StatusForbidden,
	)
	ErrClockOutBeforeClockIn = apperror.New(
		apperror.CodeInvalidInput,
		"clock_out must be at or after clock_in",
		http.StatusBadRequest,
	)
	ErrBreakEndBeforeStart = apperror.New(
		apperror.CodeInvalidInput,
		"break end_time must be at or after start_time",
		http.StatusBadRequest,
	)
	ErrOpenBreakNotAllowed = apperror.New(
		apperror.CodeInvalidInput,
		"manual entries cannot contain an open break",
		http.StatusBadRequest,
	)
	ErrEntryStillOpen = apperror.New(
		apperror.CodeInvalidState,
		"clock_out cannot be set by edit while the entry is open",
		http.StatusBadRequest,
	)
	ErrInvalidTimestampFormat = apperror.New(
		apperror.CodeInvalidInput,
		"invalid timestamp format, expected RFC3339",
		http.StatusBadRequest,
	)
)
