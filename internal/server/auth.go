package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	auditdomain "github.com/smallbiznis/greenpack/internal/audit/domain"
	authdomain "github.com/smallbiznis/greenpack/internal/auth/domain"
)

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func (s *Server) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	email := strings.TrimSpace(req.Email)
	result, err := s.authsvc.Login(c.Request.Context(), authdomain.LoginRequest{
		Email:     email,
		Password:  req.Password,
		UserAgent: c.Request.UserAgent(),
		IPAddress: c.ClientIP(),
	})
	if err != nil {
		if s.auditSvc != nil {
			_ = s.auditSvc.AuditLog(c.Request.Context(), string(auditdomain.ActorTypeAnonymous), nil, "user.login_failed", "user", nil, map[string]any{
				"email": email,
			})
		}
		AbortWithError(c, err)
		return
	}

	s.sessions.Set(c, result.RawToken, result.ExpiresAt)

	if s.auditSvc != nil && result.User != nil {
		userID := result.User.ID.String()
		_ = s.auditSvc.AuditLog(c.Request.Context(), string(auditdomain.ActorTypeUser), &userID, "user.login", "user", &userID, map[string]any{
			"email": result.User.Email,
		})
	}

	c.JSON(http.StatusOK, result.Session)
}

func (s *Server) ChangePassword(c *gin.Context) {
	userID, ok := s.userIDFromSession(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	currentPassword := strings.TrimSpace(req.CurrentPassword)
	newPassword := strings.TrimSpace(req.NewPassword)
	if currentPassword == "" {
		AbortWithError(c, newValidationError("current_password", "required", "current password is required"))
		return
	}
	if newPassword == "" {
		AbortWithError(c, newValidationError("new_password", "required", "new password is required"))
		return
	}
	if currentPassword == newPassword {
		AbortWithError(c, newValidationError("new_password", "must_differ", "new password must be different"))
		return
	}

	if err := s.authsvc.ChangePassword(c.Request.Context(), authdomain.ChangePasswordRequest{
		UserID:          userID,
		CurrentPassword: currentPassword,
		NewPassword:     newPassword,
	}); err != nil {
		AbortWithError(c, err)
		return
	}

	if s.auditSvc != nil {
		actorID := userID.String()
		_ = s.auditSvc.AuditLog(c.Request.Context(), string(auditdomain.ActorTypeUser), &actorID, "user.password_changed", "user", &actorID, nil)
	}

	c.Status(http.StatusNoContent)
}

func (s *Server) Logout(c *gin.Context) {
	token, ok := s.sessions.ReadToken(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	if err := s.authsvc.Logout(c.Request.Context(), token); err != nil {
		AbortWithError(c, err)
		return
	}

	s.sessions.Clear(c)
	c.Status(http.StatusNoContent)
}

func (s *Server) Me(c *gin.Context) {
	userID, ok := s.userIDFromSession(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	user, err := s.authsvc.GetUser(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, authdomain.ErrUserNotFound) {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		AbortWithError(c, err)
		return
	}

	passwordState := "rotated"
	if user.LastPasswordChanged == nil {
		passwordState = "initial"
	}

	c.JSON(http.StatusOK, &authdomain.SessionView{Metadata: map[string]any{
		"user_id":        user.ID.String(),
		"email":          user.Email,
		"full_name":      user.FullName,
		"phone":          user.Phone,
		"role":           string(user.Role),
		"is_staff":       user.Role.Staff(),
		"password_state": passwordState,
	}})
}

func (s *Server) userIDFromSession(c *gin.Context) (snowflake.ID, bool) {
	raw := strings.TrimSpace(c.GetString(contextUserIDKey))
	if raw == "" {
		return 0, false
	}
	id, err := snowflake.ParseString(raw)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}

type setUserRoleRequest struct {
	Role string `json:"role"`
}

func (s *Server) SetUserRole(c *gin.Context) {
	targetID, err := snowflake.ParseString(strings.TrimSpace(c.Param("id")))
	if err != nil || targetID == 0 {
		AbortWithError(c, authdomain.ErrUserNotFound)
		return
	}

	var req setUserRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	role := authdomain.Role(strings.ToLower(strings.TrimSpace(req.Role)))
	user, err := s.authsvc.SetRole(c.Request.Context(), targetID, role)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if s.auditSvc != nil {
		var actorID *string
		if id, ok := s.userIDFromSession(c); ok {
			value := id.String()
			actorID = &value
		}
		target := user.ID.String()
		_ = s.auditSvc.AuditLog(c.Request.Context(), string(auditdomain.ActorTypeUser), actorID, "user.role_changed", "user", &target, map[string]any{
			"role": string(user.Role),
		})
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{
		"id":    user.ID.String(),
		"email": user.Email,
		"role":  string(user.Role),
	}})
}
