package server

import (
	"math"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	obscontext "github.com/smallbiznis/greenpack/internal/observability/context"
)

const (
	contextUserIDKey   = "user_id"
	contextFormKindKey = "form_kind"
)

// WebAuthRequired rejects requests without a live session cookie.
func (s *Server) WebAuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := s.sessions.ReadToken(c)
		if !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		session, err := s.authsvc.Authenticate(c.Request.Context(), token)
		if err != nil {
			s.sessions.Clear(c)
			AbortWithError(c, err)
			return
		}

		s.bindSession(c, session.UserID.String())
		c.Next()
	}
}

// OptionalAuth attaches the session user when present and never rejects.
func (s *Server) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := s.sessions.ReadToken(c)
		if ok {
			if session, err := s.authsvc.Authenticate(c.Request.Context(), token); err == nil {
				s.bindSession(c, session.UserID.String())
			}
		}
		c.Next()
	}
}

func (s *Server) bindSession(c *gin.Context, userID string) {
	c.Set(contextUserIDKey, userID)
	ctx := obscontext.WithActor(c.Request.Context(), "user", userID)
	c.Request = c.Request.WithContext(ctx)
}

// FormRateLimit throttles public form endpoints per client IP.
func (s *Server) FormRateLimit(endpoint string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(contextFormKindKey, endpoint)

		if !s.formLimiter.Enabled() {
			c.Next()
			return
		}

		client := strings.TrimSpace(obscontext.ClientFromContext(c.Request.Context()).IP)
		if client == "" {
			client = c.ClientIP()
		}

		res := s.formLimiter.Allow(c.Request.Context(), endpoint, client)
		if res.Limit > 0 {
			c.Header("X-RateLimit-Limit", strconv.Itoa(res.Limit))
			c.Header("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
		}
		if !res.Allowed {
			if res.RetryAfter > 0 {
				c.Header("Retry-After", strconv.Itoa(int(math.Ceil(res.RetryAfter.Seconds()))))
			}
			AbortWithError(c, ErrRateLimited)
			return
		}
		c.Next()
	}
}
