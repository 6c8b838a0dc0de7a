package server

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/greenpack/internal/upload"
)

// UploadAttachment stores the multipart "file" part and returns its public URL.
func (s *Server) UploadAttachment(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		AbortWithError(c, newValidationError("file", "required", "file is required"))
		return
	}

	maxBytes := s.cfg.Upload.MaxBytes
	if maxBytes <= 0 {
		maxBytes = upload.DefaultMaxBytes
	}
	if fileHeader.Size > maxBytes {
		AbortWithError(c, upload.ErrFileTooLarge)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	defer file.Close()

	// one extra byte lets the service see oversize bodies with a lying header
	data, err := io.ReadAll(io.LimitReader(file, maxBytes+1))
	if err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	result, err := s.uploadSvc.UploadAttachment(c.Request.Context(), fileHeader.Filename, data)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": result})
}
