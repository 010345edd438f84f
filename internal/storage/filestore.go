package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/lib/pq"

	"github.com/File-Sharing-BondBridg/Storage-Platform/internal/models"
	"github.com/File-Sharing-BondBridg/Storage-Platform/internal/sortspec"
)

// FileStore handles the PostgreSQL metadata side of the file service.
// Every operation is scoped by owner id.
type FileStore struct {
	db *sql.DB
}

// NewFileStore connects to PostgreSQL and prepares the files table.
func NewFileStore(connectionString string) (*FileStore, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping PostgreSQL: %v", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	s := &FileStore{db: db}
	if err := s.createTables(); err != nil {
		return nil, fmt.Errorf("failed to create tables: %v", err)
	}

	log.Println("Connected to PostgreSQL successfully")
	return s, nil
}

func (s *FileStore) createTables() error {
	query := `
    CREATE TABLE IF NOT EXISTS files (
        id UUID PRIMARY KEY,
        filename VARCHAR(255) NOT NULL,
        owner_id VARCHAR(36) NOT NULL,
        size BIGINT NOT NULL,
        md5 CHAR(32) NOT NULL,
        uploaded_at TIMESTAMPTZ NOT NULL,
        scan_status VARCHAR(50) DEFAULT 'pending',
        scanned_at TIMESTAMPTZ
    );
    `
	if _, err := s.db.Exec(query); err != nil {
		return err
	}

	// The unique index makes concurrent duplicate creates lose with a
	// constraint violation instead of silently overwriting.
	indexQuery := `
    CREATE UNIQUE INDEX IF NOT EXISTS idx_files_owner_filename ON files(owner_id, filename);
    CREATE INDEX IF NOT EXISTS idx_files_uploaded_at ON files(uploaded_at DESC);
    CREATE INDEX IF NOT EXISTS idx_files_size ON files(size DESC);
    `
	_, err := s.db.Exec(indexQuery)
	return err
}

const fileColumns = `id, filename, owner_id, size, md5, uploaded_at, scan_status`

func scanFileMeta(row interface{ Scan(...interface{}) error }) (models.FileMeta, error) {
	var m models.FileMeta
	err := row.Scan(&m.ID, &m.Filename, &m.OwnerID, &m.Size, &m.MD5, &m.UploadedAt, &m.ScanStatus)
	return m, err
}

// Create inserts a metadata row. A duplicate (owner, filename) surfaces
// as ErrAlreadyExists via the unique index, so exactly one of two
// concurrent creates for the same pair wins.
func (s *FileStore) Create(ctx context.Context, meta models.FileMeta) error {
	query := `
    INSERT INTO files (id, filename, owner_id, size, md5, uploaded_at, scan_status)
    VALUES ($1, $2, $3, $4, $5, $6, $7)
    `
	_, err := s.db.ExecContext(ctx, query,
		meta.ID, meta.Filename, meta.OwnerID, meta.Size, meta.MD5, meta.UploadedAt, meta.ScanStatus,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			return ErrAlreadyExists
		}
		return fmt.Errorf("failed to save file metadata: %w", err)
	}
	return nil
}

// Read returns the metadata row for (owner, filename), or ErrNotFound.
func (s *FileStore) Read(ctx context.Context, ownerID, filename string) (models.FileMeta, error) {
	query := fmt.Sprintf(`SELECT %s FROM files WHERE owner_id = $1 AND filename = $2`, fileColumns)
	meta, err := scanFileMeta(s.db.QueryRowContext(ctx, query, ownerID, filename))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.FileMeta{}, ErrNotFound
		}
		return models.FileMeta{}, fmt.Errorf("failed to read file metadata: %w", err)
	}
	return meta, nil
}

// List returns one sorted page of an owner's files. sortField must come
// from the sortspec allow-list; offset and limit are clamped here as the
// last line of defense regardless of what the handler did.
func (s *FileStore) List(ctx context.Context, ownerID string, offset, limit int, sortField string, desc bool) ([]models.FileMeta, error) {
	offset, limit = sortspec.ClampPage(offset, limit)
	query := fmt.Sprintf(
		`SELECT %s FROM files WHERE owner_id = $1 ORDER BY %s %s, id ASC OFFSET $2 LIMIT $3`,
		fileColumns, sortspec.ResolveFileSort(sortField), sortspec.Direction(desc),
	)

	rows, err := s.db.QueryContext(ctx, query, ownerID, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}
	defer rows.Close()

	return collectFileMeta(rows)
}

// Search matches filenames against an unanchored POSIX regex.
func (s *FileStore) Search(ctx context.Context, ownerID, pattern string, limit int) ([]models.FileMeta, error) {
	limit = sortspec.ClampSearchLimit(limit)
	query := fmt.Sprintf(
		`SELECT %s FROM files WHERE owner_id = $1 AND filename ~ $2 ORDER BY uploaded_at DESC LIMIT $3`,
		fileColumns,
	)

	rows, err := s.db.QueryContext(ctx, query, ownerID, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search files: %w", err)
	}
	defer rows.Close()

	return collectFileMeta(rows)
}

func collectFileMeta(rows *sql.Rows) ([]models.FileMeta, error) {
	files := []models.FileMeta{}
	for rows.Next() {
		meta, err := scanFileMeta(rows)
		if err != nil {
			log.Printf("Error scanning row: %v", err)
			continue
		}
		files = append(files, meta)
	}
	return files, rows.Err()
}

// Count returns the total number of files an owner has.
func (s *FileStore) Count(ctx context.Context, ownerID string) (int64, error) {
	var total int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM files WHERE owner_id = $1`, ownerID).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to count files: %w", err)
	}
	return total, nil
}

// SumSize returns an owner's total stored bytes, 0 when they have none.
func (s *FileStore) SumSize(ctx context.Context, ownerID string) (int64, error) {
	var used int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(size), 0) FROM files WHERE owner_id = $1`, ownerID,
	).Scan(&used)
	if err != nil {
		return 0, fmt.Errorf("failed to sum storage usage: %w", err)
	}
	return used, nil
}

// Delete removes the row for (owner, filename) and returns it. A miss
// reports found=false, never an error.
func (s *FileStore) Delete(ctx context.Context, ownerID, filename string) (models.FileMeta, bool, error) {
	query := fmt.Sprintf(`DELETE FROM files WHERE owner_id = $1 AND filename = $2 RETURNING %s`, fileColumns)
	meta, err := scanFileMeta(s.db.QueryRowContext(ctx, query, ownerID, filename))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.FileMeta{}, false, nil
		}
		return models.FileMeta{}, false, fmt.Errorf("failed to delete file metadata: %w", err)
	}
	return meta, true, nil
}

// DeleteAllForOwner wipes an owner's rows; used by the user-deleted
// event handler. Returns the number of rows removed.
func (s *FileStore) DeleteAllForOwner(ctx context.Context, ownerID string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM files WHERE owner_id = $1`, ownerID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete files for owner %s: %w", ownerID, err)
	}
	count, _ := res.RowsAffected()
	return count, nil
}

// UpdateScanStatus records the ClamAV verdict for a file.
func (s *FileStore) UpdateScanStatus(ctx context.Context, fileID, status string, scannedAt time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE files SET scan_status = $1, scanned_at = $2 WHERE id = $3`,
		status, scannedAt, fileID,
	)
	if err != nil {
		log.Printf("Error updating scan status for %s: %v", fileID, err)
	}
	return err
}

// Close releases the connection pool.
func (s *FileStore) Close() error {
	return s.db.Close()
}
