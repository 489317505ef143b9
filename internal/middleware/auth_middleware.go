package middleware

import (
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/boissonnick/contractoros/internal/identity"
	"github.com/boissonnick/contractoros/internal/shared/apperror"
	"github.com/boissonnick/contractoros/internal/shared/response"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// AuthMiddleware verifies the bearer token and stores the caller's identity
// claims on the request context. Identity issuance lives outside this service;
// the token is trusted once its signature checks out.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		var tokenString string

		authHeader := c.GetHeader("Authorization")
		tokenString, found := strings.CutPrefix(authHeader, "Bearer ")
		if !found {
			tokenString = ""
		}

		if tokenString == "" {
			if cookie, err := c.Cookie("access_token"); err == nil {
				tokenString = cookie
			}
		}

		if tokenString == "" {
			response.Error(c, http.StatusUnauthorized, apperror.CodeUnauthorized, "token not found", nil)
			c.Abort()
			return
		}

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method")
			}
			return []byte(os.Getenv("JWT_SECRET")), nil
		})

		if err != nil || !token.Valid {
			message := "invalid token"
			if err != nil && strings.Contains(err.Error(), "expired") {
				message = "token expired"
			}
			response.Error(c, http.StatusUnauthorized, apperror.CodeUnauthorized, message, nil)
			c.Abort()
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			response.Error(c, http.StatusUnauthorized, apperror.CodeUnauthorized, "invalid token claims", nil)
			c.Abort()
			return
		}

		userID, ok := claims["user_id"].(string)
		if !ok || userID == "" {
			response.Error(c, http.StatusUnauthorized, apperror.CodeUnauthorized, "user_id not found in token", nil)
			c.Abort()
			return
		}

		orgID, ok := claims["org_id"].(string)
		if !ok || orgID == "" {
			response.Error(c, http.StatusUnauthorized, apperror.CodeUnauthorized, "org_id not found in token", nil)
			c.Abort()
			return
		}

		userName, _ := claims["user_name"].(string)
		role, _ := claims["role"].(string)

		// JSON numbers arrive as float64.
		var rateCents int64
		if rate, ok := claims["hourly_rate_cents"].(float64); ok {
			rateCents = int64(rate)
		}

		c.Set(identity.KeyUserID, userID)
		c.Set(identity.KeyOrgID, orgID)
		c.Set(identity.KeyUserName, userName)
		c.Set(identity.KeyRole, role)
		c.Set(identity.KeyHourlyRateCents, rateCents)

		c.Next()
	}
}

// RoleMiddleware gates a route on the raw role claim. Casbin policies cover
// normal authorization; this is for admin surfaces that must stay reachable
// before any org policy exists.
func RoleMiddleware(allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userRole := c.GetString(identity.KeyRole)
		if userRole == "" {
			response.Error(c, http.StatusForbidden, apperror.CodeForbidden, "access denied", nil)
			c.Abort()
			return
		}

		isAllowed := false
		for _, role := range allowedRoles {
			if userRole == role {
				isAllowed = true
				break
			}
		}

		if !isAllowed {
			response.Error(c, http.StatusForbidden, apperror.CodeForbidden, "access denied", nil)
			c.Abort()
			return
		}

		c.Next()
	}
}
