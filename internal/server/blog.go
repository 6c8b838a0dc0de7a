package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	blogdomain "github.com/smallbiznis/greenpack/internal/blog/domain"
)

type listBlogPostsQuery struct {
	pageQuery
}

func (s *Server) ListBlogPosts(c *gin.Context) {
	var query listBlogPostsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.blogSvc.ListPublished(c.Request.Context(), blogdomain.ListRequest{
		Pagination: query.pagination(),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp.Posts, "page_info": resp.PageInfo})
}

func (s *Server) GetBlogPost(c *gin.Context) {
	resp, err := s.blogSvc.GetBySlug(c.Request.Context(), strings.TrimSpace(c.Param("slug")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) CreateBlogPost(c *gin.Context) {
	userID, ok := s.userIDFromSession(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req blogdomain.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.AuthorID = userID.String()

	resp, err := s.blogSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) PublishBlogPost(c *gin.Context) {
	resp, err := s.blogSvc.Publish(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
