package services

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/komodohub/komodo-hub-backend/internal/platform/dbctx"
)

var ErrStorageUnavailable = errors.New("media storage is not configured")

// MediaStore is the slice of the object store the services use.
type MediaStore interface {
	UploadFile(dbc dbctx.Context, key, contentType string, file io.Reader) error
	DeleteFile(dbc dbctx.Context, key string) error
	GetPublicURL(key string) string
}

// IsUniqueViolation recognises duplicate-key errors from both drivers.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}

func parseID(raw string) (uuid.UUID, bool) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil || id == uuid.Nil {
		return uuid.Nil, false
	}
	return id, true
}

func withCtx(ctx context.Context) dbctx.Context {
	return dbctx.Context{Ctx: ctx}
}
