package upload_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/smallbiznis/greenpack/internal/clock"
	"github.com/smallbiznis/greenpack/internal/upload"
	"github.com/smallbiznis/greenpack/internal/upload/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newService(t *testing.T, uploader upload.Uploader, maxBytes int64) (upload.Service, *clock.FakeClock) {
	t.Helper()
	fake := clock.NewFakeClock(time.UnixMilli(1714557600123))
	svc := upload.NewService(upload.Params{
		Log:      zap.NewNop(),
		Uploader: uploader,
		Clock:    fake,
		Settings: upload.Settings{Driver: "test", MaxBytes: maxBytes},
	})
	return svc, fake
}

func TestUploadAttachmentBuildsTimestampKey(t *testing.T) {
	ctrl := gomock.NewController(t)
	uploader := mocks.NewMockUploader(ctrl)
	svc, _ := newService(t, uploader, 0)

	uploader.EXPECT().
		Upload(gomock.Any(), "logos/1714557600123.png", []byte("img")).
		Return("https://cdn.example.com/logos/1714557600123.png", nil)

	res, err := svc.UploadAttachment(context.Background(), "Brand Logo.PNG", []byte("img"))
	require.NoError(t, err)
	assert.Equal(t, "logos/1714557600123.png", res.Path)
	assert.Equal(t, "https://cdn.example.com/logos/1714557600123.png", res.URL)
}

func TestUploadAttachmentWrapsCollaboratorFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	uploader := mocks.NewMockUploader(ctrl)
	svc, _ := newService(t, uploader, 0)

	boom := errors.New("bucket unavailable")
	uploader.EXPECT().Upload(gomock.Any(), gomock.Any(), gomock.Any()).Return("", boom)

	_, err := svc.UploadAttachment(context.Background(), "art.pdf", []byte("%PDF"))
	var uploadErr *upload.UploadError
	require.ErrorAs(t, err, &uploadErr)
	assert.Equal(t, "logos/1714557600123.pdf", uploadErr.Path)
	assert.ErrorIs(t, err, boom)
}

func TestUploadAttachmentRejectsBadFiles(t *testing.T) {
	ctrl := gomock.NewController(t)
	uploader := mocks.NewMockUploader(ctrl)
	svc, _ := newService(t, uploader, 4)

	_, err := svc.UploadAttachment(context.Background(), "a.png", nil)
	assert.ErrorIs(t, err, upload.ErrEmptyFile)

	_, err = svc.UploadAttachment(context.Background(), "a.png", []byte("12345"))
	assert.ErrorIs(t, err, upload.ErrFileTooLarge)

	_, err = svc.UploadAttachment(context.Background(), "a.exe", []byte("MZ"))
	assert.ErrorIs(t, err, upload.ErrUnsupportedType)

	_, err = svc.UploadAttachment(context.Background(), "noext", []byte("x"))
	assert.ErrorIs(t, err, upload.ErrUnsupportedType)
}

func TestObjectKey(t *testing.T) {
	assert.Equal(t, "logos/42.svg", upload.ObjectKey(42, "svg"))
}

func TestUploadAttachmentSuffixesKeyOnCollision(t *testing.T) {
	ctrl := gomock.NewController(t)
	uploader := mocks.NewMockUploader(ctrl)
	svc, _ := newService(t, uploader, 0)

	gomock.InOrder(
		uploader.EXPECT().
			Upload(gomock.Any(), "logos/1714557600123.jpg", []byte("two")).
			Return("", upload.ErrObjectExists),
		uploader.EXPECT().
			Upload(gomock.Any(), "logos/1714557600123-1.jpg", []byte("two")).
			Return("/uploads/logos/1714557600123-1.jpg", nil),
	)

	res, err := svc.UploadAttachment(context.Background(), "b.jpg", []byte("two"))
	require.NoError(t, err)
	assert.Equal(t, "logos/1714557600123-1.jpg", res.Path)
}

func TestUploadAttachmentSameMillisecondKeepsBothFiles(t *testing.T) {
	dir := t.TempDir()
	svc, _ := newService(t, upload.NewLocalUploader(dir, "http://x"), 0)

	first, err := svc.UploadAttachment(context.Background(), "alice.png", []byte("ALICE"))
	require.NoError(t, err)
	second, err := svc.UploadAttachment(context.Background(), "bob.png", []byte("BOB"))
	require.NoError(t, err)

	assert.NotEqual(t, first.URL, second.URL)
	raw, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(first.Path)))
	require.NoError(t, err)
	assert.Equal(t, "ALICE", string(raw))
	raw, err = os.ReadFile(filepath.Join(dir, filepath.FromSlash(second.Path)))
	require.NoError(t, err)
	assert.Equal(t, "BOB", string(raw))
}

func TestUploadAttachmentGivesUpAfterRepeatedCollisions(t *testing.T) {
	ctrl := gomock.NewController(t)
	uploader := mocks.NewMockUploader(ctrl)
	svc, _ := newService(t, uploader, 0)

	uploader.EXPECT().Upload(gomock.Any(), gomock.Any(), gomock.Any()).Return("", upload.ErrObjectExists).Times(6)

	_, err := svc.UploadAttachment(context.Background(), "c.png", []byte("x"))
	var uploadErr *upload.UploadError
	require.ErrorAs(t, err, &uploadErr)
	assert.ErrorIs(t, err, upload.ErrObjectExists)
}
