package services

import (
	"context"
	"io"
	"time"

	"github.com/File-Sharing-BondBridg/Storage-Platform/internal/models"
)

// FileRecordStore is the metadata persistence consumed by FileService.
// Implemented by storage.FileStore; faked in tests.
type FileRecordStore interface {
	Create(ctx context.Context, meta models.FileMeta) error
	Read(ctx context.Context, ownerID, filename string) (models.FileMeta, error)
	List(ctx context.Context, ownerID string, offset, limit int, sortField string, desc bool) ([]models.FileMeta, error)
	Search(ctx context.Context, ownerID, pattern string, limit int) ([]models.FileMeta, error)
	Count(ctx context.Context, ownerID string) (int64, error)
	SumSize(ctx context.Context, ownerID string) (int64, error)
	Delete(ctx context.Context, ownerID, filename string) (models.FileMeta, bool, error)
	DeleteAllForOwner(ctx context.Context, ownerID string) (int64, error)
	UpdateScanStatus(ctx context.Context, fileID, status string, scannedAt time.Time) error
}

// BlobStore is the binary storage paired one-to-one with file records.
type BlobStore interface {
	Put(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	DeleteByPrefix(ctx context.Context, prefix string) error
}

// UserRecordStore is the account persistence consumed by UserService.
type UserRecordStore interface {
	Create(ctx context.Context, user models.User) (models.User, error)
	ByID(ctx context.Context, userID string) (models.User, error)
	ByUsername(ctx context.Context, username string) (models.User, error)
	ByEmail(ctx context.Context, email string) (models.User, error)
	ListByFilter(ctx context.Context, filter models.UserFilter, offset, limit int, sortField string, desc bool) ([]models.User, int64, error)
	Update(ctx context.Context, userID string, update models.UserUpdate) (models.User, error)
	Delete(ctx context.Context, userID string) (bool, error)
}

// EventPublisher publishes lifecycle events. A nil publisher disables
// events without changing the request outcome.
type EventPublisher interface {
	Publish(subject string, payload interface{}) error
}
