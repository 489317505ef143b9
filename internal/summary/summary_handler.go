package summary

import (
	"net/http"
	"time"

	"github.com/boissonnick/contractoros/internal/identity"
	"github.com/boissonnick/contractoros/internal/shared/apperror"
	"github.com/boissonnick/contractoros/internal/shared/response"
	summaryerrors "github.com/boissonnick/contractoros/internal/summary/errors"
	"github.com/boissonnick/contractoros/internal/timecalc"

	"github.com/gin-gonic/gin"
)

const dateLayout = "2006-01-02"

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) writeServiceError(c *gin.Context, err error) {
	httpErr := apperror.ToHTTP(err)
	response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, httpErr.Details)
}

func (h *Handler) Daily(c *gin.Context) {
	p, ok := identity.FromGin(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, apperror.CodeUnauthorized, "authentication required", nil)
		return
	}

	userID := c.DefaultQuery("user_id", p.UserID)

	date := time.Now()
	if v := c.Query("date"); v != "" {
		parsed, err := time.ParseInLocation(dateLayout, v, time.Local)
		if err != nil {
			h.writeServiceError(c, summaryerrors.ErrInvalidDate)
			return
		}
		date = parsed
	}

	resp, err := h.service.GetDaily(c.Request.Context(), p, userID, date)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) Weekly(c *gin.Context) {
	p, ok := identity.FromGin(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, apperror.CodeUnauthorized, "authentication required", nil)
		return
	}

	userID := c.DefaultQuery("user_id", p.UserID)

	weekStart := timecalcWeekDefault()
	if v := c.Query("week_start"); v != "" {
		parsed, err := time.ParseInLocation(dateLayout, v, time.Local)
		if err != nil {
			h.writeServiceError(c, summaryerrors.ErrInvalidWeekStart)
			return
		}
		weekStart = parsed
	}

	resp, err := h.service.GetWeekly(c.Request.Context(), p, userID, weekStart)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}

// timecalcWeekDefault is the Monday of the current week, used when week_start
// is omitted.
func timecalcWeekDefault() time.Time {
	start, _ := timecalc.WeekRange(time.Now())
	return start
}
