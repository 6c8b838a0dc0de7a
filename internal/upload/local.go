package upload

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

const (
	DriverLocal = "local"

	// LocalRoute is where the HTTP server exposes LocalUploader files.
	LocalRoute = "/uploads"
)

// LocalUploader writes objects below a directory on disk.
type LocalUploader struct {
	dir           string
	publicBaseURL string
}

func NewLocalUploader(dir, publicBaseURL string) *LocalUploader {
	return &LocalUploader{
		dir:           dir,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
	}
}

func (u *LocalUploader) Dir() string {
	return u.dir
}

func (u *LocalUploader) Upload(ctx context.Context, key string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	clean := filepath.Clean("/" + key)
	target := filepath.Join(u.dir, clean)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", err
	}
	f, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return "", ErrObjectExists
		}
		return "", err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(target)
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}

	return fmt.Sprintf("%s%s%s", u.publicBaseURL, LocalRoute, filepath.ToSlash(clean)), nil
}
