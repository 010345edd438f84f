package services

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/File-Sharing-BondBridg/Storage-Platform/internal/authz"
	"github.com/File-Sharing-BondBridg/Storage-Platform/internal/configuration"
	"github.com/File-Sharing-BondBridg/Storage-Platform/internal/models"
	"github.com/File-Sharing-BondBridg/Storage-Platform/internal/storage"
	"github.com/File-Sharing-BondBridg/Storage-Platform/internal/validation"
)

var (
	uploader = authz.Identity{UserID: "u1", Role: models.RoleUploader}
	viewer   = authz.Identity{UserID: "v1", Role: models.RoleViewer}
	admin    = authz.Identity{UserID: "a1", Role: models.RoleAdmin}
)

func newTestFileService(records *fakeFileStore, blobs *fakeBlobStore, bus *fakeBus) *FileService {
	gate := authz.New(authz.Policy{
		View:     []models.Role{models.RoleViewer, models.RoleUploader, models.RoleAdmin},
		Download: []models.Role{models.RoleUploader, models.RoleAdmin},
		Upload:   []models.Role{models.RoleUploader, models.RoleAdmin},
		Delete:   []models.Role{models.RoleUploader, models.RoleAdmin},
	})
	var pub EventPublisher
	if bus != nil {
		pub = bus
	}
	return NewFileService(gate, records, blobs, pub, configuration.UploadPolicy{
		SizeLimit: 1 << 20,
		ExtensionWhitelist: map[string]bool{
			".pdf": true, ".txt": true, ".csv": true,
		},
	})
}

func mustUpload(t *testing.T, s *FileService, caller authz.Identity, owner, filename, content string) models.FileMeta {
	t.Helper()
	meta, err := s.Upload(context.Background(), caller, owner, filename, strings.NewReader(content))
	require.NoError(t, err)
	return meta
}

func TestUploadDownloadRoundTrip(t *testing.T) {
	records := &fakeFileStore{}
	blobs := newFakeBlobStore()
	s := newTestFileService(records, blobs, nil)

	content := "hello, blob store"
	meta := mustUpload(t, s, uploader, "", "a.txt", content)

	assert.Equal(t, "a.txt", meta.Filename)
	assert.Equal(t, "u1", meta.OwnerID)
	assert.Equal(t, int64(len(content)), meta.Size)
	digest := md5.Sum([]byte(content))
	assert.Equal(t, hex.EncodeToString(digest[:]), meta.MD5)

	gotMeta, rc, err := s.Download(context.Background(), uploader, "", "a.txt")
	require.NoError(t, err)
	defer rc.Close()
	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, content, string(got))
	assert.Equal(t, meta.ID, gotMeta.ID)

	// delete then read misses
	found, err := s.Delete(context.Background(), uploader, "", "a.txt")
	require.NoError(t, err)
	assert.True(t, found)

	_, _, err = s.Download(context.Background(), uploader, "", "a.txt")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestUploadDuplicateFilename(t *testing.T) {
	records := &fakeFileStore{}
	blobs := newFakeBlobStore()
	s := newTestFileService(records, blobs, nil)

	mustUpload(t, s, uploader, "", "a.txt", "first")

	_, err := s.Upload(context.Background(), uploader, "", "a.txt", strings.NewReader("second"))
	assert.ErrorIs(t, err, storage.ErrAlreadyExists)

	// exactly one record and one blob survive
	count, _ := records.Count(context.Background(), "u1")
	assert.Equal(t, int64(1), count)
	assert.Len(t, blobs.blobs, 1)

	// same filename under another owner is fine
	_, err = s.Upload(context.Background(), admin, "other", "a.txt", strings.NewReader("third"))
	assert.NoError(t, err)
}

func TestUploadValidationBeforeAnyWrite(t *testing.T) {
	records := &fakeFileStore{}
	blobs := newFakeBlobStore()
	s := newTestFileService(records, blobs, nil)

	_, err := s.Upload(context.Background(), uploader, "", "evil.exe", strings.NewReader("x"))
	var verr *validation.FileValidationError
	assert.ErrorAs(t, err, &verr)

	assert.Empty(t, records.files)
	assert.Empty(t, blobs.blobs)
}

func TestUploadTooBig(t *testing.T) {
	s := newTestFileService(&fakeFileStore{}, newFakeBlobStore(), nil)

	big := bytes.Repeat([]byte("x"), (1<<20)+1)
	_, err := s.Upload(context.Background(), uploader, "", "big.txt", bytes.NewReader(big))
	var verr *validation.FileValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestUploadBlobFailureRollsBackRecord(t *testing.T) {
	records := &fakeFileStore{}
	blobs := newFakeBlobStore()
	blobs.failPut = errors.New("minio down")
	s := newTestFileService(records, blobs, nil)

	_, err := s.Upload(context.Background(), uploader, "", "a.txt", strings.NewReader("data"))
	assert.Error(t, err)

	// the metadata row must not survive the failed blob write
	assert.Empty(t, records.files)
}

func TestUploadRoleGate(t *testing.T) {
	s := newTestFileService(&fakeFileStore{}, newFakeBlobStore(), nil)

	_, err := s.Upload(context.Background(), viewer, "", "a.txt", strings.NewReader("x"))
	assert.ErrorIs(t, err, authz.ErrPermissionDenied)
}

func TestListPaginationAndSort(t *testing.T) {
	records := &fakeFileStore{}
	s := newTestFileService(records, newFakeBlobStore(), nil)

	mustUpload(t, s, uploader, "", "a.txt", strings.Repeat("x", 10))
	mustUpload(t, s, uploader, "", "b.txt", strings.Repeat("x", 20))

	ctx := context.Background()

	files, err := s.List(ctx, uploader, "", 0, 10, "size", true)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "b.txt", files[0].Filename)
	assert.Equal(t, "a.txt", files[1].Filename)

	used, err := s.Usage(ctx, uploader, "")
	require.NoError(t, err)
	assert.Equal(t, int64(30), used)

	count, err := s.Count(ctx, uploader, "")
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	found, err := s.Delete(ctx, uploader, "", "a.txt")
	require.NoError(t, err)
	assert.True(t, found)

	count, _ = s.Count(ctx, uploader, "")
	assert.Equal(t, int64(1), count)
	used, _ = s.Usage(ctx, uploader, "")
	assert.Equal(t, int64(20), used)

	// offset past the end is empty, not an error
	files, err = s.List(ctx, uploader, "", 50, 10, "size", true)
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestUsageZeroForEmptyOwner(t *testing.T) {
	s := newTestFileService(&fakeFileStore{}, newFakeBlobStore(), nil)

	used, err := s.Usage(context.Background(), uploader, "")
	require.NoError(t, err)
	assert.Equal(t, int64(0), used)
}

func TestSearchByPattern(t *testing.T) {
	records := &fakeFileStore{}
	s := newTestFileService(records, newFakeBlobStore(), nil)

	mustUpload(t, s, uploader, "", "report-2024.txt", "a")
	mustUpload(t, s, uploader, "", "report-2025.txt", "b")
	mustUpload(t, s, uploader, "", "notes.txt", "c")

	files, err := s.Search(context.Background(), uploader, "", `report-\d+`, 10)
	require.NoError(t, err)
	assert.Len(t, files, 2)

	files, err = s.Search(context.Background(), uploader, "", `report-\d+`, 1)
	require.NoError(t, err)
	assert.Len(t, files, 1)
}

func TestCrossOwnerAccessDenied(t *testing.T) {
	records := &fakeFileStore{}
	s := newTestFileService(records, newFakeBlobStore(), nil)
	ctx := context.Background()

	mustUpload(t, s, admin, "other", "a.txt", "secret")

	_, err := s.List(ctx, uploader, "other", 0, 10, "", true)
	assert.ErrorIs(t, err, authz.ErrPermissionDenied)

	_, _, err = s.Download(ctx, uploader, "other", "a.txt")
	assert.ErrorIs(t, err, authz.ErrPermissionDenied)

	_, err = s.Delete(ctx, uploader, "other", "a.txt")
	assert.ErrorIs(t, err, authz.ErrPermissionDenied)

	_, err = s.Usage(ctx, uploader, "other")
	assert.ErrorIs(t, err, authz.ErrPermissionDenied)

	_, err = s.Count(ctx, uploader, "other")
	assert.ErrorIs(t, err, authz.ErrPermissionDenied)

	_, err = s.Search(ctx, uploader, "other", "a", 10)
	assert.ErrorIs(t, err, authz.ErrPermissionDenied)

	// the admin is allowed through for all of them
	_, err = s.List(ctx, admin, "other", 0, 10, "", true)
	assert.NoError(t, err)
}

func TestDeleteMissingReportsFalse(t *testing.T) {
	s := newTestFileService(&fakeFileStore{}, newFakeBlobStore(), nil)

	found, err := s.Delete(context.Background(), uploader, "", "nope.txt")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestUploadAndDeletePublishEvents(t *testing.T) {
	bus := &fakeBus{}
	s := newTestFileService(&fakeFileStore{}, newFakeBlobStore(), bus)
	ctx := context.Background()

	mustUpload(t, s, uploader, "", "a.txt", "x")
	_, err := s.Delete(ctx, uploader, "", "a.txt")
	require.NoError(t, err)

	assert.Equal(t, []string{"files.uploaded", "files.deleted"}, bus.published)
}

func TestPurgeOwner(t *testing.T) {
	records := &fakeFileStore{}
	blobs := newFakeBlobStore()
	s := newTestFileService(records, blobs, nil)
	ctx := context.Background()

	mustUpload(t, s, admin, "gone", "a.txt", "x")
	mustUpload(t, s, admin, "gone", "b.txt", "y")
	mustUpload(t, s, admin, "stays", "c.txt", "z")

	require.NoError(t, s.PurgeOwner(ctx, "gone"))

	count, _ := records.Count(ctx, "gone")
	assert.Equal(t, int64(0), count)
	count, _ = records.Count(ctx, "stays")
	assert.Equal(t, int64(1), count)
	assert.Len(t, blobs.blobs, 1)
}
