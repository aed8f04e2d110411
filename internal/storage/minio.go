package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/zenit-qa/zenit/internal/config"
)

// PresignExpiry bounds how long download links stay valid
const PresignExpiry = 15 * time.Minute

// ErrObjectNotFound is returned when a key does not exist in the bucket
var ErrObjectNotFound = errors.New("object not found")

var contentTypes = map[string]string{
	".csv":      "text/csv",
	".txt":      "text/plain; charset=utf-8",
	".md":       "text/markdown; charset=utf-8",
	".markdown": "text/markdown; charset=utf-8",
	".json":     "application/json",
}

// MinIOClient stores requirement uploads and session exports in one bucket
type MinIOClient struct {
	client     *minio.Client
	bucketName string
	uploadPath string
	exportPath string
}

// NewMinIOClient creates a new MinIO client
func NewMinIOClient(cfg config.StorageConfig) (*MinIOClient, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("creating minio client: %w", err)
	}

	return &MinIOClient{
		client:     client,
		bucketName: cfg.Bucket,
		uploadPath: strings.Trim(cfg.UploadPath, "/"),
		exportPath: strings.Trim(cfg.ExportPath, "/"),
	}, nil
}

// EnsureBucket creates the bucket if it doesn't exist
func (m *MinIOClient) EnsureBucket(ctx context.Context) error {
	exists, err := m.client.BucketExists(ctx, m.bucketName)
	if err != nil {
		return fmt.Errorf("checking bucket existence: %w", err)
	}

	if !exists {
		err = m.client.MakeBucket(ctx, m.bucketName, minio.MakeBucketOptions{})
		if err != nil {
			return fmt.Errorf("creating bucket: %w", err)
		}
	}

	return nil
}

// Health checks that the bucket is reachable
func (m *MinIOClient) Health(ctx context.Context) error {
	_, err := m.client.BucketExists(ctx, m.bucketName)
	return err
}

// ContentType guesses the stored content type from a file name
func ContentType(filename string) string {
	if ct, ok := contentTypes[strings.ToLower(path.Ext(filename))]; ok {
		return ct
	}
	return "application/octet-stream"
}

// UploadKey builds the object key of an uploaded requirements document.
// Only the base name of filename is kept.
func UploadKey(prefix, filename string, id uuid.UUID) string {
	name := path.Base(strings.ReplaceAll(filename, `\`, "/"))
	if name == "." || name == "/" {
		name = "document"
	}
	return path.Join(prefix, id.String(), name)
}

// ExportKey builds the object key of a session CSV export
func ExportKey(prefix string, sessionID uuid.UUID, at time.Time) string {
	return path.Join(prefix, sessionID.String(), at.UTC().Format("20060102T150405Z")+".csv")
}

// SaveUpload stores an uploaded requirements document and returns its key
func (m *MinIOClient) SaveUpload(ctx context.Context, filename string, data []byte) (string, error) {
	key := UploadKey(m.uploadPath, filename, uuid.New())
	if err := m.Upload(ctx, key, data, ContentType(filename)); err != nil {
		return "", err
	}
	return key, nil
}

// SaveExport stores a session export and returns its key
func (m *MinIOClient) SaveExport(ctx context.Context, sessionID uuid.UUID, data []byte) (string, error) {
	key := ExportKey(m.exportPath, sessionID, time.Now())
	if err := m.Upload(ctx, key, data, "text/csv"); err != nil {
		return "", err
	}
	return key, nil
}

// Upload uploads any file to MinIO
func (m *MinIOClient) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	reader := bytes.NewReader(data)

	_, err := m.client.PutObject(ctx, m.bucketName, key, reader, int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("uploading object: %w", err)
	}

	return nil
}

// Download downloads a file from MinIO
func (m *MinIOClient) Download(ctx context.Context, key string) ([]byte, error) {
	obj, err := m.client.GetObject(ctx, m.bucketName, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("getting object: %w", err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, key)
		}
		return nil, fmt.Errorf("reading object: %w", err)
	}
	return data, nil
}

// GetPresignedURL returns a presigned URL for downloading
func (m *MinIOClient) GetPresignedURL(ctx context.Context, key string) (string, error) {
	url, err := m.client.PresignedGetObject(ctx, m.bucketName, key, PresignExpiry, nil)
	if err != nil {
		return "", fmt.Errorf("generating presigned URL: %w", err)
	}
	return url.String(), nil
}
