package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) GetAdminDashboard(c *gin.Context) {
	resp, err := s.dashboardSvc.AdminOverview(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetMyDashboard(c *gin.Context) {
	userID, ok := s.userIDFromSession(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	resp, err := s.dashboardSvc.CustomerOverview(c.Request.Context(), userID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
