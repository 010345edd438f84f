package services

import (
	"bytes"
	"context"
	"io"
	"regexp"
	"sort"
	"time"

	"github.com/File-Sharing-BondBridg/Storage-Platform/internal/models"
	"github.com/File-Sharing-BondBridg/Storage-Platform/internal/sortspec"
	"github.com/File-Sharing-BondBridg/Storage-Platform/internal/storage"
)

// In-memory doubles mirroring the storage contracts, including the
// clamp and conflict semantics the SQL stores enforce.

type fakeFileStore struct {
	files []models.FileMeta
	// failCreate simulates a database outage
	failCreate error
}

func (f *fakeFileStore) Create(_ context.Context, meta models.FileMeta) error {
	if f.failCreate != nil {
		return f.failCreate
	}
	for _, m := range f.files {
		if m.OwnerID == meta.OwnerID && m.Filename == meta.Filename {
			return storage.ErrAlreadyExists
		}
	}
	f.files = append(f.files, meta)
	return nil
}

func (f *fakeFileStore) Read(_ context.Context, ownerID, filename string) (models.FileMeta, error) {
	for _, m := range f.files {
		if m.OwnerID == ownerID && m.Filename == filename {
			return m, nil
		}
	}
	return models.FileMeta{}, storage.ErrNotFound
}

func (f *fakeFileStore) List(_ context.Context, ownerID string, offset, limit int, sortField string, desc bool) ([]models.FileMeta, error) {
	offset, limit = sortspec.ClampPage(offset, limit)
	field := sortspec.ResolveFileSort(sortField)

	owned := []models.FileMeta{}
	for _, m := range f.files {
		if m.OwnerID == ownerID {
			owned = append(owned, m)
		}
	}

	sort.SliceStable(owned, func(i, j int) bool {
		var less bool
		switch field {
		case "filename":
			less = owned[i].Filename < owned[j].Filename
		case "size":
			less = owned[i].Size < owned[j].Size
		default:
			less = owned[i].UploadedAt.Before(owned[j].UploadedAt)
		}
		if desc {
			return !less
		}
		return less
	})

	if offset >= len(owned) {
		return []models.FileMeta{}, nil
	}
	owned = owned[offset:]
	if len(owned) > limit {
		owned = owned[:limit]
	}
	return owned, nil
}

func (f *fakeFileStore) Search(_ context.Context, ownerID, pattern string, limit int) ([]models.FileMeta, error) {
	limit = sortspec.ClampSearchLimit(limit)
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	out := []models.FileMeta{}
	for _, m := range f.files {
		if m.OwnerID == ownerID && re.MatchString(m.Filename) {
			out = append(out, m)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (f *fakeFileStore) Count(_ context.Context, ownerID string) (int64, error) {
	var n int64
	for _, m := range f.files {
		if m.OwnerID == ownerID {
			n++
		}
	}
	return n, nil
}

func (f *fakeFileStore) SumSize(_ context.Context, ownerID string) (int64, error) {
	var sum int64
	for _, m := range f.files {
		if m.OwnerID == ownerID {
			sum += m.Size
		}
	}
	return sum, nil
}

func (f *fakeFileStore) Delete(_ context.Context, ownerID, filename string) (models.FileMeta, bool, error) {
	for i, m := range f.files {
		if m.OwnerID == ownerID && m.Filename == filename {
			f.files = append(f.files[:i], f.files[i+1:]...)
			return m, true, nil
		}
	}
	return models.FileMeta{}, false, nil
}

func (f *fakeFileStore) DeleteAllForOwner(_ context.Context, ownerID string) (int64, error) {
	kept := f.files[:0]
	var removed int64
	for _, m := range f.files {
		if m.OwnerID == ownerID {
			removed++
		} else {
			kept = append(kept, m)
		}
	}
	f.files = kept
	return removed, nil
}

func (f *fakeFileStore) UpdateScanStatus(_ context.Context, fileID, status string, _ time.Time) error {
	for i, m := range f.files {
		if m.ID == fileID {
			f.files[i].ScanStatus = status
		}
	}
	return nil
}

type fakeBlobStore struct {
	blobs map[string][]byte
	// failPut simulates a blob backend outage
	failPut error
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{blobs: map[string][]byte{}}
}

func (b *fakeBlobStore) Put(_ context.Context, key string, reader io.Reader, _ int64, _ string) error {
	if b.failPut != nil {
		return b.failPut
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	b.blobs[key] = data
	return nil
}

func (b *fakeBlobStore) Get(_ context.Context, key string) (io.ReadCloser, error) {
	data, ok := b.blobs[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (b *fakeBlobStore) Delete(_ context.Context, key string) error {
	delete(b.blobs, key)
	return nil
}

func (b *fakeBlobStore) DeleteByPrefix(_ context.Context, prefix string) error {
	for key := range b.blobs {
		if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
			delete(b.blobs, key)
		}
	}
	return nil
}

type fakeUserStore struct {
	users []models.User
}

func (u *fakeUserStore) Create(_ context.Context, user models.User) (models.User, error) {
	for _, existing := range u.users {
		if existing.Username == user.Username || existing.Email == user.Email {
			return models.User{}, storage.ErrConflict
		}
	}
	user.JoinedAt = time.Now().UTC()
	u.users = append(u.users, user)
	return user, nil
}

func (u *fakeUserStore) ByID(_ context.Context, userID string) (models.User, error) {
	for _, user := range u.users {
		if user.UserID == userID {
			return user, nil
		}
	}
	return models.User{}, storage.ErrNotFound
}

func (u *fakeUserStore) ByUsername(_ context.Context, username string) (models.User, error) {
	for _, user := range u.users {
		if user.Username == username {
			return user, nil
		}
	}
	return models.User{}, storage.ErrNotFound
}

func (u *fakeUserStore) ByEmail(_ context.Context, email string) (models.User, error) {
	for _, user := range u.users {
		if user.Email == email {
			return user, nil
		}
	}
	return models.User{}, storage.ErrNotFound
}

func (u *fakeUserStore) ListByFilter(_ context.Context, filter models.UserFilter, offset, limit int, sortField string, desc bool) ([]models.User, int64, error) {
	offset, limit = sortspec.ClampPage(offset, limit)

	matched := []models.User{}
	for _, user := range u.users {
		if filter.UserID != "" && user.UserID != filter.UserID {
			continue
		}
		if filter.Username != "" && !contains(user.Username, filter.Username) {
			continue
		}
		if filter.Email != "" && !contains(user.Email, filter.Email) {
			continue
		}
		if filter.Role != "" && user.Role != filter.Role {
			continue
		}
		matched = append(matched, user)
	}
	total := int64(len(matched))

	field := sortspec.ResolveUserSort(sortField)
	sort.SliceStable(matched, func(i, j int) bool {
		var less bool
		switch field {
		case "username":
			less = matched[i].Username < matched[j].Username
		case "email":
			less = matched[i].Email < matched[j].Email
		default:
			less = matched[i].JoinedAt.Before(matched[j].JoinedAt)
		}
		if desc {
			return !less
		}
		return less
	})

	if offset >= len(matched) {
		return []models.User{}, total, nil
	}
	matched = matched[offset:]
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, total, nil
}

func contains(s, substr string) bool {
	return bytes.Contains([]byte(s), []byte(substr))
}

func (u *fakeUserStore) Update(_ context.Context, userID string, update models.UserUpdate) (models.User, error) {
	for i, user := range u.users {
		if user.UserID != userID {
			continue
		}
		if update.Role != nil {
			user.Role = *update.Role
		}
		if update.StorageAllowance != nil {
			user.StorageAllowance = *update.StorageAllowance
		}
		if update.IsActive != nil {
			user.IsActive = *update.IsActive
		}
		u.users[i] = user
		return user, nil
	}
	return models.User{}, storage.ErrNotFound
}

func (u *fakeUserStore) Delete(_ context.Context, userID string) (bool, error) {
	for i, user := range u.users {
		if user.UserID == userID {
			u.users = append(u.users[:i], u.users[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

type fakeBus struct {
	published []string
}

func (b *fakeBus) Publish(subject string, _ interface{}) error {
	b.published = append(b.published, subject)
	return nil
}
