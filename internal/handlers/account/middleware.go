package account

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Nazarious-ucu/rain-forecast-app/internal/models"
	"github.com/Nazarious-ucu/rain-forecast-app/internal/services/auth"
)

const identityKey = "identity"

// RequireLogin resolves the session cookie and stores the identity on the context.
// Requests without a valid session are handed to onDenied and aborted.
func (h *Handler) RequireLogin(onDenied gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := c.Cookie(h.cookie.Name)

		id, err := h.auth.Identify(c.Request.Context(), token)
		if err != nil {
			if !errors.Is(err, auth.ErrSessionNotFound) {
				h.logger.Error().Ctx(c.Request.Context()).Err(err).Msg("session lookup failed")
			}
			onDenied(c)
			c.Abort()
			return
		}

		c.Set(identityKey, id)
		c.Next()
	}
}

func RedirectToLogin(c *gin.Context) {
	c.Redirect(http.StatusFound, "/login")
}

func DenyJSON(c *gin.Context) {
	c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
}

func IdentityFrom(c *gin.Context) (models.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return models.Identity{}, false
	}
	id, ok := v.(models.Identity)
	return id, ok
}
