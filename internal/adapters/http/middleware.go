package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/classroom/internal/adapters/signal"
	"github.com/dkeye/classroom/internal/auth"
)

const identityKey = "identity"

// RequirePrivileged admits only requests whose bearer credential carries an
// instructor or administrator role.
func RequirePrivileged(v auth.Verifier, timeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()

		id, err := auth.Authenticate(ctx, v, signal.CredentialFromRequest(c.Request))
		if err != nil {
			log.Warn().Err(err).Str("module", "adapters.http").Str("path", c.FullPath()).Msg("api request rejected")
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		if !id.Role.Privileged() {
			log.Warn().Str("module", "adapters.http").Str("participant", id.ParticipantID).Str("role", string(id.Role)).Msg("api request forbidden")
			c.AbortWithStatus(http.StatusForbidden)
			return
		}
		c.Set(identityKey, id)
		c.Next()
	}
}
