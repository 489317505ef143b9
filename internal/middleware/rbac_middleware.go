package middleware

import (
	"net/http"

	"github.com/boissonnick/contractoros/internal/domain"
	"github.com/boissonnick/contractoros/internal/identity"
	"github.com/boissonnick/contractoros/internal/shared/apperror"
	"github.com/boissonnick/contractoros/internal/shared/response"

	"github.com/gin-gonic/gin"
)

// RBACService is a local interface so this package stays import-cycle free;
// the rbac package's Service satisfies it.
type RBACService interface {
	Enforce(req domain.EnforceRequest) (bool, error)
}

func RBACAuthorize(service RBACService, resource, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := identity.FromGin(c)
		if !ok {
			response.Error(c, http.StatusUnauthorized, apperror.CodeUnauthorized, "missing auth context", nil)
			c.Abort()
			return
		}

		allowed, err := service.Enforce(domain.EnforceRequest{
			UserID:   p.UserID,
			OrgID:    p.OrgID,
			Resource: resource,
			Action:   action,
		})
		if err != nil {
			response.Error(c, http.StatusInternalServerError, apperror.CodeInternalError, "authorization check failed", nil)
			c.Abort()
			return
		}

		if !allowed {
			response.Error(c, http.StatusForbidden, apperror.CodeForbidden,
				"you do not have permission to access this resource",
				resource+":"+action,
			)
			c.Abort()
			return
		}

		c.Next()
	}
}
