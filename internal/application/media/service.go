// Package media owns listing photo storage: uploads from the admin editor and
// the short-lived URLs the detail page renders.
package media

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/rentx/rentx-api/internal/domain"
	"github.com/rentx/rentx-api/internal/pkg/id"
)

// DefaultURLTTL bounds how long a fetched image link stays valid.
const DefaultURLTTL = 15 * time.Minute

// ObjectStore is the minimal interface the service requires from the S3
// store.
type ObjectStore interface {
	Upload(ctx context.Context, key string, r io.Reader, contentType string) (string, error)
	UploadBase64(ctx context.Context, key, b64Data string) (string, error)
	PresignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
	Delete(ctx context.Context, key string) error
}

type Service struct {
	store ObjectStore
}

func NewService(store ObjectStore) *Service {
	return &Service{store: store}
}

// Upload stores an image stream under a fresh key scoped to the listing and
// returns the key together with the stored location.
func (s *Service) Upload(ctx context.Context, propertyID, filename, contentType string, r io.Reader) (key, location string, err error) {
	key, err = objectKey(propertyID, filename)
	if err != nil {
		return "", "", err
	}
	location, err = s.store.Upload(ctx, key, r, contentType)
	if err != nil {
		return "", "", err
	}
	return key, location, nil
}

// UploadBase64 stores a base64 payload, the shape the editor posts when the
// image comes from a canvas rather than a file picker.
func (s *Service) UploadBase64(ctx context.Context, propertyID, filename, b64Data string) (key, location string, err error) {
	key, err = objectKey(propertyID, filename)
	if err != nil {
		return "", "", err
	}
	location, err = s.store.UploadBase64(ctx, key, b64Data)
	if err != nil {
		return "", "", err
	}
	return key, location, nil
}

// URL returns a presigned link for a stored image.
func (s *Service) URL(ctx context.Context, key string) (string, error) {
	return s.store.PresignedURL(ctx, key, DefaultURLTTL)
}

func (s *Service) Delete(ctx context.Context, key string) error {
	return s.store.Delete(ctx, key)
}

// objectKey builds "properties/<id>/<ulid><ext>". The original filename only
// contributes its extension; everything else is ignored to keep keys safe.
func objectKey(propertyID, filename string) (string, error) {
	if propertyID == "" {
		return "", fmt.Errorf("property id required: %w", domain.ErrBadRequest)
	}
	ext := strings.ToLower(path.Ext(filename))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".webp":
	default:
		return "", fmt.Errorf("unsupported image type %q: %w", ext, domain.ErrBadRequest)
	}
	return fmt.Sprintf("properties/%s/%s%s", propertyID, id.New(), ext), nil
}
