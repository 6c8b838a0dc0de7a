package upload

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/smallbiznis/greenpack/internal/clock"
	"github.com/smallbiznis/greenpack/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	DefaultMaxBytes = 5 << 20
	keyPrefix       = "logos"

	// maxKeyAttempts bounds the suffixed retries after a same-millisecond collision.
	maxKeyAttempts = 5
)

var allowedExtensions = map[string]struct{}{
	"png": {}, "jpg": {}, "jpeg": {}, "gif": {}, "svg": {}, "webp": {},
	"pdf": {}, "ai": {}, "eps": {},
}

type Params struct {
	fx.In

	Log      *zap.Logger
	Uploader Uploader
	Clock    clock.Clock
	Metrics  *metrics.Metrics `optional:"true"`
	Settings Settings
}

// Settings carries the driver name for metrics and the size limit.
type Settings struct {
	Driver   string
	MaxBytes int64
}

type service struct {
	log      *zap.Logger
	uploader Uploader
	clock    clock.Clock
	metrics  *metrics.Metrics
	driver   string
	maxBytes int64
}

func NewService(p Params) Service {
	maxBytes := p.Settings.MaxBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &service{
		log:      p.Log.Named("upload.service"),
		uploader: p.Uploader,
		clock:    p.Clock,
		metrics:  p.Metrics,
		driver:   p.Settings.Driver,
		maxBytes: maxBytes,
	}
}

func (s *service) UploadAttachment(ctx context.Context, filename string, data []byte) (Result, error) {
	if len(data) == 0 {
		return Result{}, ErrEmptyFile
	}
	if int64(len(data)) > s.maxBytes {
		return Result{}, ErrFileTooLarge
	}

	ext := extension(filename)
	if _, ok := allowedExtensions[ext]; !ok {
		return Result{}, ErrUnsupportedType
	}

	stamp := s.clock.Now().UnixMilli()
	key := ObjectKey(stamp, ext)
	url, err := s.uploader.Upload(ctx, key, data)
	for attempt := 1; errors.Is(err, ErrObjectExists) && attempt <= maxKeyAttempts; attempt++ {
		key = fmt.Sprintf("%s/%d-%d.%s", keyPrefix, stamp, attempt, ext)
		url, err = s.uploader.Upload(ctx, key, data)
	}
	if err != nil {
		s.log.Warn("attachment upload failed", zap.String("path", key), zap.Error(err))
		s.metrics.RecordUpload(ctx, s.driver, "failed")
		return Result{}, &UploadError{Path: key, Err: err}
	}

	s.metrics.RecordUpload(ctx, s.driver, "ok")
	return Result{Path: key, URL: url}, nil
}

// ObjectKey names an attachment "logos/<unix-ms>.<ext>".
func ObjectKey(unixMilli int64, ext string) string {
	return fmt.Sprintf("%s/%d.%s", keyPrefix, unixMilli, ext)
}

func extension(filename string) string {
	ext := strings.TrimPrefix(filepath.Ext(strings.TrimSpace(filename)), ".")
	return strings.ToLower(ext)
}
