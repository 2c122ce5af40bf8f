package objectstore

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path"
	"path/filepath"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Config contains the information required to talk to an object store.
type Config struct {
	Provider  string
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	UseSSL    bool
	// ScratchDir is the process-local area fetched files land in.
	// Defaults to the OS temp directory.
	ScratchDir string
}

// ErrNotFound reports an object absent from its bucket. It is distinct
// from transport failures so callers can treat mid-flight deletions as a
// hard miss rather than a retryable error.
var ErrNotFound = errors.New("object not found")

// TransferError reports an I/O failure moving a blob. These are
// transient: each gateway call is independently retryable by the caller.
type TransferError struct {
	Op     string
	Bucket string
	Key    string
	Err    error
}

func (e *TransferError) Error() string {
	return fmt.Sprintf("%s s3://%s/%s: %v", e.Op, e.Bucket, e.Key, e.Err)
}

func (e *TransferError) Unwrap() error { return e.Err }

// Client represents the blob transfer capabilities the pipeline expects.
// No state is retained between calls.
type Client interface {
	// Exists reports whether bucket/key holds an object. Absence is not
	// an error; only transport failures are.
	Exists(ctx context.Context, bucket, key string) (bool, error)
	// Fetch downloads bucket/key into the scratch area and returns the
	// local path. Returns ErrNotFound when the object is absent.
	Fetch(ctx context.Context, bucket, key string) (string, error)
	// Push uploads a local file to bucket/key and returns the confirmed key.
	Push(ctx context.Context, localPath, bucket, key string) (string, error)
	Close() error
}

// New creates an object store client based on the given configuration.
func New(cfg Config) (Client, error) {
	switch cfg.Provider {
	case "minio", "s3":
		return newMinioClient(cfg)
	default:
		return nil, fmt.Errorf("unsupported object store provider: %s", cfg.Provider)
	}
}

type minioClient struct {
	client     *minio.Client
	scratchDir string
}

func newMinioClient(cfg Config) (Client, error) {
	cl, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio client: %w", err)
	}

	scratch := cfg.ScratchDir
	if scratch == "" {
		scratch = os.TempDir()
	}
	if err := os.MkdirAll(scratch, 0o755); err != nil {
		return nil, fmt.Errorf("create scratch dir: %w", err)
	}

	return &minioClient{client: cl, scratchDir: scratch}, nil
}

func (m *minioClient) Exists(ctx context.Context, bucket, key string) (bool, error) {
	_, err := m.client.StatObject(ctx, bucket, key, minio.StatObjectOptions{})
	if err != nil {
		if isNoSuchKey(err) {
			return false, nil
		}
		return false, &TransferError{Op: "stat", Bucket: bucket, Key: key, Err: err}
	}
	return true, nil
}

func (m *minioClient) Fetch(ctx context.Context, bucket, key string) (string, error) {
	localPath := filepath.Join(m.scratchDir, path.Base(key))
	if err := m.client.FGetObject(ctx, bucket, key, localPath, minio.GetObjectOptions{}); err != nil {
		if isNoSuchKey(err) {
			return "", fmt.Errorf("fetch s3://%s/%s: %w", bucket, key, ErrNotFound)
		}
		return "", &TransferError{Op: "fetch", Bucket: bucket, Key: key, Err: err}
	}
	return localPath, nil
}

func (m *minioClient) Push(ctx context.Context, localPath, bucket, key string) (string, error) {
	if _, err := m.client.FPutObject(ctx, bucket, key, localPath, minio.PutObjectOptions{}); err != nil {
		return "", &TransferError{Op: "push", Bucket: bucket, Key: key, Err: err}
	}
	return key, nil
}

func (m *minioClient) Close() error {
	return nil
}

func isNoSuchKey(err error) bool {
	resp := minio.ToErrorResponse(err)
	return resp.StatusCode == http.StatusNotFound || resp.Code == "NoSuchKey"
}
