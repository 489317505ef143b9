package rbac

import (
	"net/http"
	"strings"

	"github.com/boissonnick/contractoros/internal/domain"
	"github.com/boissonnick/contractoros/internal/identity"
	"github.com/boissonnick/contractoros/internal/shared/apperror"
	"github.com/boissonnick/contractoros/internal/shared/response"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// Enforce answers a permission probe. The org always comes from the caller's
// token, and the subject defaults to the caller, so a member can only inspect
// their own access within their own org.
func (h *Handler) Enforce(c *gin.Context) {
	p, ok := identity.FromGin(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, apperror.CodeUnauthorized, "authentication required", nil)
		return
	}

	var req domain.EnforceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpErr := apperror.ToHTTP(apperror.MapValidationError(err))
		response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, httpErr.Details)
		return
	}

	req.OrgID = p.OrgID
	req.UserID = strings.TrimSpace(req.UserID)
	if req.UserID == "" {
		req.UserID = p.UserID
	}
	req.Resource = strings.TrimSpace(req.Resource)
	req.Action = strings.TrimSpace(req.Action)

	allowed, err := h.service.Enforce(req)
	if err != nil {
		httpErr := apperror.ToHTTP(err)
		response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, httpErr.Details)
		return
	}

	response.Success(c, http.StatusOK, domain.EnforceResponse{Allowed: allowed}, nil)
}

func (h *Handler) ListRoles(c *gin.Context) {
	p, ok := identity.FromGin(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, apperror.CodeUnauthorized, "authentication required", nil)
		return
	}

	roles, err := h.service.ListRoles(p.OrgID)
	if err != nil {
		httpErr := apperror.ToHTTP(err)
		response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, httpErr.Details)
		return
	}

	response.Success(c, http.StatusOK, roles, nil)
}
