// Package upload stores customer attachments (logos, artwork) and returns
// their public URL.
package upload

import (
	"context"
	"errors"
	"fmt"
)

//go:generate mockgen -source=upload.go -destination=./mocks/mock_uploader.go -package=mocks

// Uploader is the object-storage collaborator.
type Uploader interface {
	Upload(ctx context.Context, path string, data []byte) (string, error)
}

type Service interface {
	UploadAttachment(ctx context.Context, filename string, data []byte) (Result, error)
}

type Result struct {
	Path string `json:"path"`
	URL  string `json:"url"`
}

var (
	ErrEmptyFile       = errors.New("empty_file")
	ErrFileTooLarge    = errors.New("file_too_large")
	ErrUnsupportedType = errors.New("unsupported_file_type")

	// ErrObjectExists is returned by an Uploader asked to write a key that is already taken.
	ErrObjectExists = errors.New("object_exists")
)

// UploadError reports a failure of the storage backend for one object.
type UploadError struct {
	Path string
	Err  error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload %s: %v", e.Path, e.Err)
}

func (e *UploadError) Unwrap() error {
	return e.Err
}
