package http

import (
	stdhttp "net/http"
	"strconv"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Lobby/internal/adapters/signal"
)

const clientTokenSessionKey = "ct"

// ClientTokenMiddleware gives every browser a stable token kept in the
// session cookie and exposes it under signal.ClientTokenKey.
func ClientTokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := sessions.Default(c)
		token, _ := sess.Get(clientTokenSessionKey).(string)
		if token == "" {
			token = uuid.NewString()
			sess.Set(clientTokenSessionKey, token)
			if err := sess.Save(); err != nil {
				log.Warn().Err(err).Str("module", "adapters.http").Msg("save session")
			}
		}
		c.Set(signal.ClientTokenKey, token)
		c.Next()
	}
}

// SecurityHeaders sets the usual hardening headers on every response.
func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("Content-Security-Policy", "default-src 'self'; connect-src 'self' ws: wss:; frame-ancestors 'self'; object-src 'none'")
		h.Set("Cross-Origin-Opener-Policy", "same-origin")
		h.Set("Cross-Origin-Resource-Policy", "same-origin")
		h.Set("Origin-Agent-Cluster", "?1")
		h.Set("Referrer-Policy", "no-referrer")
		h.Set("Strict-Transport-Security", "max-age=15552000; includeSubDomains")
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-DNS-Prefetch-Control", "off")
		h.Set("X-Frame-Options", "SAMEORIGIN")
		h.Set("X-Permitted-Cross-Domain-Policies", "none")
		c.Next()
	}
}

func newCORS(origins []string) *cors.Cors {
	return cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{stdhttp.MethodGet, stdhttp.MethodPost},
		AllowCredentials: true,
	})
}

// CORS adapts an rs/cors policy to gin. Preflight requests end here.
func CORS(policy *cors.Cors) gin.HandlerFunc {
	return func(c *gin.Context) {
		policy.HandlerFunc(c.Writer, c.Request)
		if c.Request.Method == stdhttp.MethodOptions && c.GetHeader("Access-Control-Request-Method") != "" {
			c.AbortWithStatus(stdhttp.StatusNoContent)
			return
		}
		c.Next()
	}
}

// RateLimit answers 429 once a client IP spends its window.
func RateLimit(l *IPRateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, remaining, reset := l.Take(c.ClientIP())

		secs := int(time.Until(reset).Round(time.Second) / time.Second)
		if secs < 0 {
			secs = 0
		}
		h := c.Writer.Header()
		h.Set("RateLimit-Limit", strconv.Itoa(l.Limit()))
		h.Set("RateLimit-Remaining", strconv.Itoa(remaining))
		h.Set("RateLimit-Reset", strconv.Itoa(secs))

		if !ok {
			log.Warn().Str("module", "adapters.http").Str("ip", c.ClientIP()).Str("path", c.Request.URL.Path).Msg("rate limited")
			c.AbortWithStatusJSON(stdhttp.StatusTooManyRequests, gin.H{"error": "Too many requests, try again in a minute."})
			return
		}
		c.Next()
	}
}
