package server

import (
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/greenpack/internal/impact"
	"github.com/smallbiznis/greenpack/internal/providers/pdf"
)

type impactEstimateResponse struct {
	Input    impact.UsageInput `json:"input"`
	Estimate impact.Estimate   `json:"estimate"`
}

func (s *Server) bindUsageInput(c *gin.Context) (impact.UsageInput, error) {
	var in impact.UsageInput
	var err error
	if c.Request.Method == http.MethodPost {
		err = c.ShouldBindJSON(&in)
	} else {
		err = c.ShouldBindQuery(&in)
	}
	if err != nil {
		return impact.UsageInput{}, invalidRequestError()
	}
	return in, nil
}

// EstimateImpact serves both the GET (query) and POST (JSON) estimator.
func (s *Server) EstimateImpact(c *gin.Context) {
	in, err := s.bindUsageInput(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	estimate, err := s.factors.Get().Calculate(in)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	s.obsMetrics.RecordImpactEstimate(c.Request.Context(), "json")

	c.JSON(http.StatusOK, impactEstimateResponse{Input: in, Estimate: estimate})
}

func (s *Server) ImpactReportPDF(c *gin.Context) {
	in, err := s.bindUsageInput(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	estimate, err := s.factors.Get().Calculate(in)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	report, err := s.pdf.GenerateImpactReport(c.Request.Context(), pdf.ImpactReportData{
		CompanyName: strings.TrimSpace(c.Query("company")),
		GeneratedAt: time.Now().UTC().Format("2006-01-02"),
		Input:       in,
		Estimate:    estimate,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if report == nil {
		AbortWithError(c, ErrServiceUnavailable)
		return
	}
	s.obsMetrics.RecordImpactEstimate(c.Request.Context(), "pdf")

	body, err := io.ReadAll(report)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="impact-report.pdf"`)
	c.Data(http.StatusOK, "application/pdf", body)
}
