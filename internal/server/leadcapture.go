package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	inquirydomain "github.com/smallbiznis/greenpack/internal/inquiry/domain"
	"github.com/smallbiznis/greenpack/internal/leadcapture"
	subscriberdomain "github.com/smallbiznis/greenpack/internal/subscriber/domain"
)

type unsubscribeRequest struct {
	Email string `json:"email"`
}

func (s *Server) GetFormOptions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"product_types":    leadcapture.ProductTypes,
		"inquiry_statuses": inquirydomain.Statuses,
	})
}

func (s *Server) SubmitInquiry(c *gin.Context) {
	fields, ok := bindFormFields(c)
	if !ok {
		return
	}

	inquiry, err := s.inquirySvc.Submit(c.Request.Context(), inquirydomain.SubmitRequest{
		Fields:  fields,
		Session: s.sessionInfo(c),
	})
	s.observeLead(string(leadcapture.KindInquiry), err)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": inquiry})
}

func (s *Server) SubscribeNewsletter(c *gin.Context) {
	s.subscribe(c, leadcapture.KindNewsletter)
}

func (s *Server) JoinCommunity(c *gin.Context) {
	s.subscribe(c, leadcapture.KindCommunity)
}

func (s *Server) subscribe(c *gin.Context, kind leadcapture.FormKind) {
	fields, ok := bindFormFields(c)
	if !ok {
		return
	}

	subscriber, err := s.subscriberSvc.Subscribe(c.Request.Context(), subscriberdomain.SubscribeRequest{
		Kind:    kind,
		Fields:  fields,
		Session: s.sessionInfo(c),
	})
	s.observeLead(string(kind), err)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": subscriber})
}

func (s *Server) Unsubscribe(c *gin.Context) {
	var req unsubscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if strings.TrimSpace(req.Email) == "" {
		AbortWithError(c, newValidationError("email", "required", "email is required"))
		return
	}

	if err := s.subscriberSvc.Unsubscribe(c.Request.Context(), req.Email); err != nil {
		AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// bindFormFields accepts a flat JSON object of strings, or a urlencoded form.
func bindFormFields(c *gin.Context) (map[string]string, bool) {
	fields := map[string]string{}
	if strings.HasPrefix(c.ContentType(), "application/json") {
		if err := c.ShouldBindJSON(&fields); err != nil {
			AbortWithError(c, invalidRequestError())
			return nil, false
		}
		return fields, true
	}

	if err := c.Request.ParseForm(); err != nil {
		AbortWithError(c, invalidRequestError())
		return nil, false
	}
	for key, values := range c.Request.PostForm {
		if len(values) > 0 {
			fields[key] = values[0]
		}
	}
	return fields, true
}

// sessionInfo resolves the optional session user into the form's session.
func (s *Server) sessionInfo(c *gin.Context) *leadcapture.SessionInfo {
	userID, ok := s.userIDFromSession(c)
	if !ok {
		return nil
	}
	user, err := s.authsvc.GetUser(c.Request.Context(), userID)
	if err != nil || user == nil {
		return &leadcapture.SessionInfo{UserID: userID}
	}
	return &leadcapture.SessionInfo{UserID: user.ID, Email: user.Email}
}

func (s *Server) observeLead(kind string, err error) {
	outcome := "accepted"
	if err != nil {
		outcome = "failed"
		var validationErr *leadcapture.ValidationError
		if errors.As(err, &validationErr) {
			outcome = "invalid"
		}
	}
	s.httpMetrics.ObserveLead(kind, outcome)
}
