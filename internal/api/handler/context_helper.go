package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/alarmdryros/cuadrilla-app-sub000/pkg/response"
)

// MustGetUserID extracts user_id from the gin context. When the JWT
// middleware did not inject it a 401 is written and ok is false; the
// caller should return immediately.
func MustGetUserID(c *gin.Context) (string, bool) {
	v, exists := c.Get("user_id")
	if !exists {
		response.Unauthorized(c, 10002, "not authenticated")
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		response.Unauthorized(c, 10002, "not authenticated")
		return "", false
	}
	return s, true
}

// MustGetRole extracts role from the gin context.
func MustGetRole(c *gin.Context) (string, bool) {
	v, exists := c.Get("role")
	if !exists {
		response.Unauthorized(c, 10002, "not authenticated")
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		response.Unauthorized(c, 10002, "not authenticated")
		return "", false
	}
	return s, true
}

// GetMemberID extracts the caller's linked member_id, empty when the
// account is not linked to a roster entry.
func GetMemberID(c *gin.Context) string {
	v, exists := c.Get("member_id")
	if !exists {
		return ""
	}
	s, _ := v.(string)
	return s
}
