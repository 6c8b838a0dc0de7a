package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	sustainabilitydomain "github.com/smallbiznis/greenpack/internal/sustainability/domain"
)

func (s *Server) ListSustainabilityMetrics(c *gin.Context) {
	window, err := parseTimeRange("from", c.Query("from"), "to", c.Query("to"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.sustainabilitySvc.List(c.Request.Context(), window.fromOrZero(), window.toOrZero())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetSustainabilitySummary(c *gin.Context) {
	resp, err := s.sustainabilitySvc.Summary(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) RecordSustainabilityMetric(c *gin.Context) {
	var req sustainabilitydomain.RecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.sustainabilitySvc.Record(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
