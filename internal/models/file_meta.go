package models

import (
	"time"
)

// FileMeta is the metadata row kept for every stored blob. The blob itself
// lives in MinIO under the key OwnerID/ID.
type FileMeta struct {
	ID         string    `json:"id"`
	Filename   string    `json:"filename"`
	OwnerID    string    `json:"user_id"`
	Size       int64     `json:"size"`
	MD5        string    `json:"md5"`
	UploadedAt time.Time `json:"uploaded_at"`
	ScanStatus string    `json:"scan_status,omitempty"`
}

// ObjectName is the blob key paired with this row. Keys are prefixed with
// the owner id so a whole user storage can be purged by prefix.
func (m FileMeta) ObjectName() string {
	return m.OwnerID + "/" + m.ID
}

type UserFileStats struct {
	FileCount int64 `json:"count"`
}

type StorageUsage struct {
	StorageUsed int64 `json:"storage_used"`
}
