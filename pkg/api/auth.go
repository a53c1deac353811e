package api

import "github.com/gin-gonic/gin"

// extractAuthor reads the acting user from oauth2-proxy headers, the same
// priority order the teacher's auth.go used: X-Forwarded-User >
// X-Forwarded-Email > a generic fallback for direct API callers.
func extractAuthor(c *gin.Context) string {
	if user := c.GetHeader("X-Forwarded-User"); user != "" {
		return user
	}
	if email := c.GetHeader("X-Forwarded-Email"); email != "" {
		return email
	}
	return "api-client"
}
