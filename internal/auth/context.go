package auth

import "github.com/gin-gonic/gin"

const userIDHeader = "X-User-Id"

// Actor returns the acting user id from the request, or nil when the caller
// is anonymous. The gateway in front of this service sets the header after
// token validation.
func Actor(c *gin.Context) *string {
	if id := c.GetHeader(userIDHeader); id != "" {
		return &id
	}
	return nil
}
