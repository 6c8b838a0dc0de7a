package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	subscriberdomain "github.com/smallbiznis/greenpack/internal/subscriber/domain"
)

type listSubscribersQuery struct {
	pageQuery
	ActiveOnly string `form:"active"`
}

func (s *Server) ListSubscribers(c *gin.Context) {
	var query listSubscribersQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	active, err := parseOptionalBool(query.ActiveOnly)
	if err != nil {
		AbortWithError(c, newValidationError("active", "invalid_active", "invalid active"))
		return
	}

	resp, err := s.subscriberSvc.List(c.Request.Context(), subscriberdomain.ListRequest{
		Pagination: query.pagination(),
		ActiveOnly: active != nil && *active,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp.Subscribers, "page_info": resp.PageInfo})
}
