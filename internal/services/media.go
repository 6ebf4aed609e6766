package services

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/rs/xid"

	"github.com/komodohub/komodo-hub-backend/internal/observability"
	"github.com/komodohub/komodo-hub-backend/internal/platform/apierr"
	"github.com/komodohub/komodo-hub-backend/internal/platform/gcp"
	"github.com/komodohub/komodo-hub-backend/internal/platform/logger"
)

const (
	MediaCategoryImage = "image"
	MediaCategoryVideo = "video"
	MediaCategoryCover = "cover"
)

const (
	MaxImageBytes int64 = 5 << 20
	MaxVideoBytes int64 = 100 << 20
	MaxCoverBytes int64 = 10 << 20
)

var allowedMediaExt = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true,
	".mp4": true, ".mov": true, ".m4v": true, ".webm": true, ".avi": true,
}

// Upload describes one incoming multipart file.
type Upload struct {
	Category    string
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

type MediaService interface {
	Upload(ctx context.Context, in Upload) (string, error)
}

type mediaService struct {
	log   *logger.Logger
	store MediaStore
}

func NewMediaService(log *logger.Logger, store MediaStore) MediaService {
	return &mediaService{log: log.With("service", "MediaService"), store: store}
}

// MaxUploadBytes is the ceiling for a category, or the largest ceiling when the
// category is unknown.
func MaxUploadBytes(category string) int64 {
	switch category {
	case MediaCategoryImage:
		return MaxImageBytes
	case MediaCategoryCover:
		return MaxCoverBytes
	default:
		return MaxVideoBytes
	}
}

func mediaFolder(category string) string {
	if category == MediaCategoryCover {
		return "profile_covers"
	}
	return "community_posts"
}

func resolveContentType(in Upload) string {
	ct := strings.ToLower(strings.TrimSpace(in.ContentType))
	if i := strings.Index(ct, ";"); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	if ct == "" || ct == "application/octet-stream" {
		ct = gcp.ContentTypeForKey(in.Filename)
	}
	return ct
}

// validateUpload returns the resolved content type and object extension.
func validateUpload(in Upload) (string, string, error) {
	category := strings.ToLower(strings.TrimSpace(in.Category))
	ct := resolveContentType(in)
	ext := strings.ToLower(path.Ext(in.Filename))

	var wantPrefix string
	switch category {
	case MediaCategoryImage, MediaCategoryCover:
		wantPrefix = "image/"
	case MediaCategoryVideo:
		wantPrefix = "video/"
	default:
		return "", "", apierr.BadRequest("invalid_media_category", "Upload type must be image, video or cover")
	}
	if !strings.HasPrefix(ct, wantPrefix) || (ext != "" && !allowedMediaExt[ext]) {
		return "", "", apierr.BadRequest("unsupported_media_type", fmt.Sprintf("Unsupported file type %q for %s upload", ct, category))
	}
	if in.Size > MaxUploadBytes(category) {
		return "", "", apierr.BadRequest("file_too_large", fmt.Sprintf("File exceeds the %dMB limit for %s uploads", MaxUploadBytes(category)>>20, category))
	}
	if ext == "" {
		ext = "." + strings.TrimPrefix(ct, wantPrefix)
	}
	return ct, ext, nil
}

func (s *mediaService) Upload(ctx context.Context, in Upload) (string, error) {
	if in.Body == nil {
		return "", apierr.BadRequest("missing_file", "No file provided")
	}
	in.Category = strings.ToLower(strings.TrimSpace(in.Category))
	ct, ext, err := validateUpload(in)
	if err != nil {
		observability.Current().ObserveUpload(in.Category, "rejected", in.Size)
		return "", err
	}
	if s.store == nil {
		observability.Current().ObserveUpload(in.Category, "unavailable", in.Size)
		return "", apierr.New(http.StatusServiceUnavailable, "storage_unavailable", ErrStorageUnavailable)
	}

	// The reader may be longer than the declared size.
	limited := io.LimitReader(in.Body, MaxUploadBytes(in.Category)+1)
	counter := &countingReader{r: limited}
	key := mediaFolder(in.Category) + "/" + xid.New().String() + ext
	if err := s.store.UploadFile(withCtx(ctx), key, ct, counter); err != nil {
		observability.Current().ObserveUpload(in.Category, "error", counter.n)
		return "", apierr.Internal("upload_failed", err)
	}
	if counter.n > MaxUploadBytes(in.Category) {
		if derr := s.store.DeleteFile(withCtx(ctx), key); derr != nil {
			s.log.Warn("Failed to remove oversized upload", "key", key, "error", derr)
		}
		observability.Current().ObserveUpload(in.Category, "rejected", counter.n)
		return "", apierr.BadRequest("file_too_large", fmt.Sprintf("File exceeds the %dMB limit for %s uploads", MaxUploadBytes(in.Category)>>20, in.Category))
	}

	observability.Current().ObserveUpload(in.Category, "ok", counter.n)
	s.log.Info("Stored upload", "key", key, "category", in.Category, "bytes", counter.n)
	return s.store.GetPublicURL(key), nil
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
