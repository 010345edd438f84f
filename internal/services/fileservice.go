package services

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"log"
	"mime"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/File-Sharing-BondBridg/Storage-Platform/internal/authz"
	"github.com/File-Sharing-BondBridg/Storage-Platform/internal/configuration"
	"github.com/File-Sharing-BondBridg/Storage-Platform/internal/events"
	"github.com/File-Sharing-BondBridg/Storage-Platform/internal/models"
	"github.com/File-Sharing-BondBridg/Storage-Platform/internal/validation"
)

// FileService implements the file use cases: every operation resolves
// the effective storage owner through the gate, then delegates to the
// record store and blob store.
type FileService struct {
	gate    *authz.Gate
	records FileRecordStore
	blobs   BlobStore
	bus     EventPublisher
	upload  configuration.UploadPolicy
}

func NewFileService(gate *authz.Gate, records FileRecordStore, blobs BlobStore, bus EventPublisher, upload configuration.UploadPolicy) *FileService {
	return &FileService{
		gate:    gate,
		records: records,
		blobs:   blobs,
		bus:     bus,
		upload:  upload,
	}
}

// Upload validates, then creates the metadata row and the blob. The row
// insert goes first: its unique index is what makes concurrent duplicate
// uploads lose cleanly. If the blob write fails afterwards, the row is
// rolled back so neither side persists alone.
func (s *FileService) Upload(ctx context.Context, caller authz.Identity, targetOwnerID, filename string, content io.Reader) (models.FileMeta, error) {
	if err := s.gate.RequireUpload(caller); err != nil {
		return models.FileMeta{}, err
	}
	ownerID, err := s.gate.ResolveOwner(caller, targetOwnerID)
	if err != nil {
		return models.FileMeta{}, err
	}

	// content validation happens before any store mutation
	if err := validation.CheckFile(filename, s.upload.ExtensionWhitelist); err != nil {
		return models.FileMeta{}, err
	}

	data, err := io.ReadAll(io.LimitReader(content, s.upload.SizeLimit+1))
	if err != nil {
		return models.FileMeta{}, fmt.Errorf("failed to read upload: %w", err)
	}
	if int64(len(data)) > s.upload.SizeLimit {
		return models.FileMeta{}, &validation.FileValidationError{Filename: filename, Reason: "file too big"}
	}

	digest := md5.Sum(data)
	meta := models.FileMeta{
		ID:         uuid.New().String(),
		Filename:   filename,
		OwnerID:    ownerID,
		Size:       int64(len(data)),
		MD5:        hex.EncodeToString(digest[:]),
		UploadedAt: time.Now().UTC(),
		ScanStatus: "pending",
	}

	if err := s.records.Create(ctx, meta); err != nil {
		return models.FileMeta{}, err
	}

	contentType := mime.TypeByExtension(filepath.Ext(filename))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	if err := s.blobs.Put(ctx, meta.ObjectName(), bytes.NewReader(data), meta.Size, contentType); err != nil {
		// roll the row back so no orphan metadata survives
		if _, _, delErr := s.records.Delete(ctx, ownerID, filename); delErr != nil {
			log.Printf("Warning: failed to roll back metadata for %s: %v", meta.ID, delErr)
		}
		return models.FileMeta{}, fmt.Errorf("failed to upload to storage: %w", err)
	}

	s.publish(events.SubjectFileUploaded, events.FileUploadedEvent{
		FileID:     meta.ID,
		ObjectName: meta.ObjectName(),
		OwnerID:    ownerID,
		Filename:   filename,
	})
	return meta, nil
}

// Download streams a file's content. NotFound surfaces from the record
// store when the (owner, filename) pair is absent.
func (s *FileService) Download(ctx context.Context, caller authz.Identity, targetOwnerID, filename string) (models.FileMeta, io.ReadCloser, error) {
	if err := s.gate.RequireDownload(caller); err != nil {
		return models.FileMeta{}, nil, err
	}
	ownerID, err := s.gate.ResolveOwner(caller, targetOwnerID)
	if err != nil {
		return models.FileMeta{}, nil, err
	}

	meta, err := s.records.Read(ctx, ownerID, filename)
	if err != nil {
		return models.FileMeta{}, nil, err
	}
	rc, err := s.blobs.Get(ctx, meta.ObjectName())
	if err != nil {
		return models.FileMeta{}, nil, err
	}
	return meta, rc, nil
}

// Info returns a single file's metadata.
func (s *FileService) Info(ctx context.Context, caller authz.Identity, targetOwnerID, filename string) (models.FileMeta, error) {
	if err := s.gate.RequireView(caller); err != nil {
		return models.FileMeta{}, err
	}
	ownerID, err := s.gate.ResolveOwner(caller, targetOwnerID)
	if err != nil {
		return models.FileMeta{}, err
	}
	return s.records.Read(ctx, ownerID, filename)
}

// List returns one sorted page of an owner's files.
func (s *FileService) List(ctx context.Context, caller authz.Identity, targetOwnerID string, offset, limit int, sortBy string, desc bool) ([]models.FileMeta, error) {
	if err := s.gate.RequireView(caller); err != nil {
		return nil, err
	}
	ownerID, err := s.gate.ResolveOwner(caller, targetOwnerID)
	if err != nil {
		return nil, err
	}
	return s.records.List(ctx, ownerID, offset, limit, sortBy, desc)
}

// Search matches an owner's filenames against a regex pattern.
func (s *FileService) Search(ctx context.Context, caller authz.Identity, targetOwnerID, pattern string, limit int) ([]models.FileMeta, error) {
	if err := s.gate.RequireView(caller); err != nil {
		return nil, err
	}
	ownerID, err := s.gate.ResolveOwner(caller, targetOwnerID)
	if err != nil {
		return nil, err
	}
	return s.records.Search(ctx, ownerID, pattern, limit)
}

// Count returns how many files an owner has.
func (s *FileService) Count(ctx context.Context, caller authz.Identity, targetOwnerID string) (int64, error) {
	if err := s.gate.RequireView(caller); err != nil {
		return 0, err
	}
	ownerID, err := s.gate.ResolveOwner(caller, targetOwnerID)
	if err != nil {
		return 0, err
	}
	return s.records.Count(ctx, ownerID)
}

// Usage returns an owner's total stored bytes, 0 when they have none.
func (s *FileService) Usage(ctx context.Context, caller authz.Identity, targetOwnerID string) (int64, error) {
	if err := s.gate.RequireView(caller); err != nil {
		return 0, err
	}
	ownerID, err := s.gate.ResolveOwner(caller, targetOwnerID)
	if err != nil {
		return 0, err
	}
	return s.records.SumSize(ctx, ownerID)
}

// Delete removes the record and its blob. Reports found=false for a
// missing file; the handler turns that into a 404.
func (s *FileService) Delete(ctx context.Context, caller authz.Identity, targetOwnerID, filename string) (bool, error) {
	if err := s.gate.RequireDelete(caller); err != nil {
		return false, err
	}
	ownerID, err := s.gate.ResolveOwner(caller, targetOwnerID)
	if err != nil {
		return false, err
	}

	meta, found, err := s.records.Delete(ctx, ownerID, filename)
	if err != nil || !found {
		return found, err
	}

	if err := s.blobs.Delete(ctx, meta.ObjectName()); err != nil {
		// row is already gone; report but do not resurrect it
		log.Printf("Warning: failed to delete blob %s: %v", meta.ObjectName(), err)
	}

	s.publish(events.SubjectFileDeleted, events.FileDeletedEvent{
		FileID:     meta.ID,
		ObjectName: meta.ObjectName(),
		OwnerID:    ownerID,
	})
	return true, nil
}

// PurgeOwner wipes all records and blobs of a deleted user. Driven by
// the users.deleted event, not by any HTTP endpoint.
func (s *FileService) PurgeOwner(ctx context.Context, ownerID string) error {
	count, err := s.records.DeleteAllForOwner(ctx, ownerID)
	if err != nil {
		return err
	}
	log.Printf("Deleted %d file records for user %s", count, ownerID)

	return s.blobs.DeleteByPrefix(ctx, ownerID+"/")
}

func (s *FileService) publish(subject string, payload interface{}) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Publish(subject, payload); err != nil {
		log.Printf("Warning: failed to publish %s: %v", subject, err)
	}
}
