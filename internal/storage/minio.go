package storage

import (
	"context"
	"fmt"
	"io"
	"log"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// BlobStore wraps the MinIO bucket holding the file contents. Object
// keys are <owner_id>/<file_id>; the paired metadata row lives in the
// FileStore and the two are written and removed together.
type BlobStore struct {
	client     *minio.Client
	bucketName string
}

// NewBlobStore creates the MinIO client and the bucket if missing.
func NewBlobStore(endpoint, accessKey, secretKey, bucket string, useSSL bool) (*BlobStore, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %v", err)
	}

	exists, err := client.BucketExists(context.Background(), bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket existence: %v", err)
	}
	if !exists {
		if err := client.MakeBucket(context.Background(), bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket: %v", err)
		}
		log.Printf("Created bucket: %s", bucket)
	}

	log.Println("Connected to MinIO successfully")
	return &BlobStore{client: client, bucketName: bucket}, nil
}

// CheckConnection is used by health checks.
func (b *BlobStore) CheckConnection(ctx context.Context) error {
	if b == nil || b.client == nil {
		return fmt.Errorf("minio service not initialized")
	}
	_, err := b.client.BucketExists(ctx, b.bucketName)
	return err
}

// Put writes a blob under the given key.
func (b *BlobStore) Put(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error {
	_, err := b.client.PutObject(ctx, b.bucketName, key, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	return err
}

// Get opens a blob for streaming. The caller must close the reader.
// A missing key surfaces as ErrNotFound on first read.
func (b *BlobStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	obj, err := b.client.GetObject(ctx, b.bucketName, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	// GetObject is lazy; stat now so a missing object fails here
	if _, err := obj.Stat(); err != nil {
		obj.Close()
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return obj, nil
}

// Delete removes a blob.
func (b *BlobStore) Delete(ctx context.Context, key string) error {
	return b.client.RemoveObject(ctx, b.bucketName, key, minio.RemoveObjectOptions{})
}

// DeleteByPrefix removes every blob under the prefix; used when a user
// is deleted and their whole storage goes away.
func (b *BlobStore) DeleteByPrefix(ctx context.Context, prefix string) error {
	log.Printf("[MinIO] Starting deletion for prefix: %s (bucket: %s)", prefix, b.bucketName)

	objectsCh := b.client.ListObjects(ctx, b.bucketName, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	})

	errorCh := b.client.RemoveObjects(ctx, b.bucketName, objectsCh, minio.RemoveObjectsOptions{})
	for removeErr := range errorCh {
		if removeErr.Err != nil {
			log.Printf("[MinIO] Failed to delete object %s: %v", removeErr.ObjectName, removeErr.Err)
			return removeErr.Err
		}
	}

	log.Printf("[MinIO] Deleted objects with prefix: %s", prefix)
	return nil
}
