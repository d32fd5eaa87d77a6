package middleware

import (
	"net/http"

	"storefront/model"

	"github.com/gin-gonic/gin"
)

type ContextKeys string

const (
	UserContext ContextKeys = "userInfo"
)

// UserContextData returns the principal set by Authenticate, or the zero value.
func UserContextData(c *gin.Context) model.Principal {
	value, ok := c.Get(string(UserContext))
	if !ok {
		return model.Principal{}
	}
	principal, _ := value.(model.Principal)
	return principal
}

func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !UserContextData(c).IsAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, authFailure{Auth: "Failed", Message: "Action Forbidden"})
			return
		}
		c.Next()
	}
}
