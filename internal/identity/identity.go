package identity

import (
	"github.com/gin-gonic/gin"
)

// Gin context keys set by middleware.AuthMiddleware.
const (
	KeyOrgID           = "org_id"
	KeyUserID          = "user_id"
	KeyUserName        = "user_name"
	KeyRole            = "role"
	KeyHourlyRateCents = "hourly_rate_cents"
)

// Principal is the resolved caller identity. The engine consumes it as-is;
// issuing and verifying credentials happens upstream.
type Principal struct {
	OrgID           string
	UserID          string
	UserName        string
	Role            string
	HourlyRateCents int64
}

// FromGin assembles the principal from the keys AuthMiddleware stored on the
// request context. ok is false when the request never passed authentication.
func FromGin(c *gin.Context) (Principal, bool) {
	orgID := c.GetString(KeyOrgID)
	userID := c.GetString(KeyUserID)
	if orgID == "" || userID == "" {
		return Principal{}, false
	}

	return Principal{
		OrgID:           orgID,
		UserID:          userID,
		UserName:        c.GetString(KeyUserName),
		Role:            c.GetString(KeyRole),
		HourlyRateCents: c.GetInt64(KeyHourlyRateCents),
	}, true
}
