package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

type testCleanupRequest struct {
	EmailPrefix string `json:"email_prefix"`
}

type cleanupStatement struct {
	table string
	query string
	args  []any
}

// TestCleanup removes rows created by end-to-end runs. Never routed in production.
func (s *Server) TestCleanup(c *gin.Context) {
	if s.cfg.IsProduction() || s.db == nil {
		AbortWithError(c, ErrNotFound)
		return
	}

	var req testCleanupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	prefix := strings.ToLower(strings.TrimSpace(req.EmailPrefix))
	if prefix == "" {
		AbortWithError(c, newValidationError("email_prefix", "required", "email_prefix is required"))
		return
	}

	ctx := c.Request.Context()
	like := prefix + "%"

	var userIDs []int64
	if err := s.db.WithContext(ctx).
		Table("users").
		Select("id").
		Where("LOWER(email) LIKE ?", like).
		Scan(&userIDs).Error; err != nil {
		AbortWithError(c, err)
		return
	}

	deleted := map[string]int64{}
	statements := []cleanupStatement{
		{"inquiries", `DELETE FROM inquiries WHERE LOWER(email) LIKE ?`, []any{like}},
		{"newsletter_subscribers", `DELETE FROM newsletter_subscribers WHERE LOWER(email) LIKE ?`, []any{like}},
	}
	if len(userIDs) > 0 {
		statements = append(statements,
			cleanupStatement{"sessions", `DELETE FROM sessions WHERE user_id IN ?`, []any{userIDs}},
			cleanupStatement{"users", `DELETE FROM users WHERE id IN ?`, []any{userIDs}},
		)
	}

	for _, stmt := range statements {
		res := s.db.WithContext(ctx).Exec(stmt.query, stmt.args...)
		if res.Error != nil {
			AbortWithError(c, res.Error)
			return
		}
		deleted[stmt.table] = res.RowsAffected
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok", "deleted": deleted})
}
