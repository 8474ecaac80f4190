package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
)

// ErrStorageDisabled is returned by the disabled uploader when object
// storage is not configured.
var ErrStorageDisabled = errors.New("object storage is not configured")

type UploadResult struct {
	Key      string
	Location string
	ETag     string
}

type FileUploader interface {
	Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*UploadResult, error)

	Delete(ctx context.Context, key string) error

	GetPublicURL(key string) string
}

type disabledUploader struct{}

// NewDisabledUploader используется, когда R2 не настроен.
func NewDisabledUploader() FileUploader { return disabledUploader{} }

func (disabledUploader) Upload(context.Context, string, string, io.Reader) (*UploadResult, error) {
	return nil, ErrStorageDisabled
}
func (disabledUploader) Delete(context.Context, string) error { return ErrStorageDisabled }
func (disabledUploader) GetPublicURL(string) string           { return "" }

// AvatarKey builds a fresh object key for a user's avatar.
func AvatarKey(userID uuid.UUID, ext string) string {
	return fmt.Sprintf("avatars/%s/%s%s", userID, uuid.NewString(), ext)
}

// ExtensionFromContentType maps the allowed avatar image types to a file extension.
func ExtensionFromContentType(contentType string) (string, error) {
	ct := strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
	switch ct {
	case "image/jpeg", "image/jpg":
		return ".jpg", nil
	case "image/png":
		return ".png", nil
	case "image/gif":
		return ".gif", nil
	case "image/webp":
		return ".webp", nil
	default:
		return "", fmt.Errorf("unsupported image content type: '%s'", contentType)
	}
}
