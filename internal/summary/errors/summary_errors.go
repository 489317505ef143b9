package summaryerrors

import (
	"net/http"

	"github.com/boissonnick/contractoros/internal/shared/apperror"
)

var (
	ErrInvalidDate = apperror.New(
		apperror.CodeInvalidInput,
		"date must be formatted as YYYY-MM-DD",
		http.StatusBadRequest,
	)

	ErrInvalidWeekStart = apperror.New(
		apperror.CodeInvalidInput,
		"week_start must be formatted as YYYY-MM-DD",
		http.StatusBadRequest,
	)

	ErrInvalidUserID = apperror.New(
		apperror.CodeInvalidInput,
		"user_id must be a valid UUID",
		http.StatusBadRequest,
	)

	ErrSummaryForbidden = apperror.New(
		apperror.CodeForbidden,
		"not permitted to read another user's summaries",
		http.StatusForbidden,
	)
)
