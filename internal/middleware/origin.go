package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/emre/registrar/internal/app/models/dto"
)

// OriginGate allow-lists the client origins permitted to invoke the
// service. Requests carrying no Origin header are permitted: that is
// same-origin and non-browser traffic, and letting it through is
// deliberate. Disallowed origins are rejected before any handler runs.
type OriginGate struct {
	allowed map[string]struct{}
}

// NewOriginGate creates a gate for the configured allow-list.
func NewOriginGate(allowedOrigins []string) *OriginGate {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		allowed[strings.TrimRight(strings.TrimSpace(origin), "/")] = struct{}{}
	}
	return &OriginGate{allowed: allowed}
}

// IsAllowed reports whether the Origin header value may call the API.
func (g *OriginGate) IsAllowed(origin string) bool {
	if origin == "" {
		return true
	}
	_, ok := g.allowed[strings.TrimRight(origin, "/")]
	return ok
}

// Handler returns the gin middleware enforcing the allow-list and
// answering CORS preflights for allowed origins.
func (g *OriginGate) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")

		if !g.IsAllowed(origin) {
			c.AbortWithStatusJSON(http.StatusForbidden, dto.NewErrorResponse(
				dto.NewErrorDetail(dto.ErrorCodeOriginRejected, "Origin not allowed")))
			return
		}

		if origin != "" {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Content-Type")
			c.Header("Vary", "Origin")
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
