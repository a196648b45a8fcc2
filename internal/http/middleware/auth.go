// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements identity resolution for the single-user journal API.
// The backend trusts an opaque user identifier supplied by the edge: either a
// bearer token (Authorization: Bearer <id>) or the X-User-ID header. There is
// no account system or token verification here; the identifier only scopes
// data, so a missing one is a hard 401 rather than a silent default.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// userIDKey is the Gin context key under which the resolved user ID is stored.
const userIDKey = "userID"

// maxUserIDLen caps accepted identifiers; anything longer is rejected.
const maxUserIDLen = 128

// UserID returns the identity resolved by RequireUser. Empty when the
// middleware did not run (e.g., on unauthenticated routes).
func UserID(c *gin.Context) string {
	if v, ok := c.Get(userIDKey); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// RequireUser resolves the caller's identity and aborts with 401 when none is
// present. Resolution order:
//
//  1. Authorization: Bearer <opaque-id>
//  2. X-User-ID: <opaque-id>
//
// The resolved ID is stored in the context under "userID" for handlers,
// logging, and rate limiting.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := bearerToken(c.GetHeader("Authorization"))
		if uid == "" {
			uid = strings.TrimSpace(c.GetHeader("X-User-ID"))
		}
		if uid == "" || len(uid) > maxUserIDLen {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"request_id": c.Writer.Header().Get("X-Request-ID"),
				"code":       "unauthorized",
				"message":    "user identity required",
			})
			return
		}
		c.Set(userIDKey, uid)
		c.Next()
	}
}

// bearerToken extracts the credential from an Authorization header value,
// returning "" when the scheme is not Bearer or the token is empty.
func bearerToken(h string) string {
	const prefix = "bearer "
	h = strings.TrimSpace(h)
	if len(h) <= len(prefix) || !strings.EqualFold(h[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(h[len(prefix):])
}
