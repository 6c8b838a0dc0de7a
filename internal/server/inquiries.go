package server

import (
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	inquirydomain "github.com/smallbiznis/greenpack/internal/inquiry/domain"
)

type listInquiriesQuery struct {
	pageQuery
	Status string `form:"status"`
}

type updateInquiryStatusRequest struct {
	Status string `json:"status"`
}

type assignInquiryRequest struct {
	AssigneeID string `json:"assignee_id"`
}

func (s *Server) ListInquiries(c *gin.Context) {
	var query listInquiriesQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.inquirySvc.List(c.Request.Context(), inquirydomain.ListRequest{
		Pagination: query.pagination(),
		Status:     inquirydomain.Status(strings.TrimSpace(query.Status)),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp.Inquiries, "page_info": resp.PageInfo})
}

func (s *Server) ListMyInquiries(c *gin.Context) {
	userID, ok := s.userIDFromSession(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	resp, err := s.inquirySvc.ListByUser(c.Request.Context(), userID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateInquiryStatus(c *gin.Context) {
	id, ok := inquiryIDParam(c)
	if !ok {
		return
	}

	var req updateInquiryStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.inquirySvc.UpdateStatus(c.Request.Context(), id, inquirydomain.Status(strings.TrimSpace(req.Status)))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) AssignInquiry(c *gin.Context) {
	id, ok := inquiryIDParam(c)
	if !ok {
		return
	}

	var req assignInquiryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	assigneeID, err := parseOptionalSnowflakeID(req.AssigneeID)
	if err != nil || assigneeID == nil {
		AbortWithError(c, inquirydomain.ErrInvalidAssignee)
		return
	}

	resp, err := s.inquirySvc.Assign(c.Request.Context(), id, *assigneeID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func inquiryIDParam(c *gin.Context) (snowflake.ID, bool) {
	id, err := snowflake.ParseString(strings.TrimSpace(c.Param("id")))
	if err != nil || id == 0 {
		AbortWithError(c, inquirydomain.ErrInvalidID)
		return 0, false
	}
	return id, true
}
