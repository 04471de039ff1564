package server

import (
	"ctchen222/tictactoe-solo/internal/api/response"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
)

// requireSessionToken admits a request only if it carries a token issued for
// the session named in the path, either as a Bearer header or a token query
// parameter. Browsers cannot set headers on a WebSocket upgrade.
func (s *Server) requireSessionToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			token = c.Query("token")
		}
		if token == "" {
			response.AbortWithError(c, response.NewError(http.StatusUnauthorized, "missing session token"))
			return
		}

		sessionID, err := s.tokens.Verify(token)
		if err != nil {
			trace.SpanFromContext(c.Request.Context()).RecordError(err)
			response.AbortWithError(c, response.NewError(http.StatusUnauthorized, "invalid session token"))
			return
		}
		if sessionID != c.Param("id") {
			response.AbortWithError(c, response.NewError(http.StatusUnauthorized, "token does not match session"))
			return
		}

		c.Next()
	}
}

func bearerToken(header string) string {
	const prefix = "bearer "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}
