package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

var (
	// ErrArtifactExists means the artifact name is already taken
	ErrArtifactExists = errors.New("artifact already exists")
	// ErrArtifactNotFound means no artifact is stored under the name
	ErrArtifactNotFound = errors.New("artifact not found")
	// ErrInvalidArtifactName means the name failed sanitization
	ErrInvalidArtifactName = errors.New("invalid artifact name")
)

// ArtifactStore persists extracted text under a unique name. Write must fail
// on a name collision rather than overwrite.
type ArtifactStore interface {
	Write(ctx context.Context, name string, text string) error
	Read(ctx context.Context, name string) ([]byte, error)
}

// SanitizeArtifactName validates a storage key. Path separators and dot-dot
// sequences are rejected outright; names never reach the filesystem or object
// store unchecked.
func SanitizeArtifactName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: empty name", ErrInvalidArtifactName)
	}
	if strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return "", fmt.Errorf("%w: %q", ErrInvalidArtifactName, name)
	}
	if strings.HasPrefix(name, ".") {
		return "", fmt.Errorf("%w: %q", ErrInvalidArtifactName, name)
	}
	for _, ch := range name {
		if ch < 0x20 || ch == 0x7f {
			return "", fmt.Errorf("%w: control character in %q", ErrInvalidArtifactName, name)
		}
	}
	return name, nil
}

// GenerateArtifactName returns a unique text-file name. The timestamp keeps
// listings sorted; the uuid suffix makes concurrent saves collision-free.
func GenerateArtifactName() string {
	stamp := time.Now().UTC().Format("20060102_150405")
	return fmt.Sprintf("ocr_%s_%s.txt", stamp, uuid.NewString()[:8])
}

// FileStore keeps artifacts as files under a single directory
type FileStore struct {
	dir string
}

// NewFileStore creates the export directory if needed
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create export directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Write stores the text, failing if the name is already taken
func (s *FileStore) Write(ctx context.Context, name string, text string) error {
	name, err := SanitizeArtifactName(name)
	if err != nil {
		return err
	}

	// O_EXCL enforces the no-overwrite invariant
	f, err := os.OpenFile(filepath.Join(s.dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return fmt.Errorf("%w: %s", ErrArtifactExists, name)
		}
		return fmt.Errorf("failed to create artifact: %w", err)
	}

	if _, err := f.WriteString(text); err != nil {
		f.Close()
		os.Remove(f.Name())
		return fmt.Errorf("failed to write artifact: %w", err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write artifact: %w", err)
	}

	return nil
}

// Read returns the stored text bytes
func (s *FileStore) Read(ctx context.Context, name string) ([]byte, error) {
	name, err := SanitizeArtifactName(name)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrArtifactNotFound, name)
		}
		return nil, fmt.Errorf("failed to read artifact: %w", err)
	}

	return data, nil
}

// S3Store keeps artifacts in an S3-compatible bucket
type S3Store struct {
	client *minio.Client
	bucket string
	region string
}

// NewS3Store creates a new S3-backed artifact store
func NewS3Store(endpoint, accessKey, secretKey, bucket, region string, useSSL bool) (*S3Store, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 client: %w", err)
	}

	return &S3Store{
		client: client,
		bucket: bucket,
		region: region,
	}, nil
}

// EnsureBucket creates the bucket if it doesn't exist
func (s *S3Store) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}

	if !exists {
		err = s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{
			Region: s.region,
		})
		if err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	return nil
}

// Write stores the text, failing if the key already exists
func (s *S3Store) Write(ctx context.Context, name string, text string) error {
	name, err := SanitizeArtifactName(name)
	if err != nil {
		return err
	}

	// Object stores overwrite silently, so check existence first. Stat-then-put
	// is not atomic: concurrent writes to the same explicit name can still race,
	// unlike the O_EXCL filesystem path. Generated names are uuid-unique, so
	// only client-supplied names carry the weaker guarantee.
	_, err = s.client.StatObject(ctx, s.bucket, name, minio.StatObjectOptions{})
	if err == nil {
		return fmt.Errorf("%w: %s", ErrArtifactExists, name)
	}
	if minio.ToErrorResponse(err).Code != "NoSuchKey" {
		return fmt.Errorf("failed to check artifact existence: %w", err)
	}

	reader := strings.NewReader(text)
	_, err = s.client.PutObject(ctx, s.bucket, name, reader, int64(reader.Len()), minio.PutObjectOptions{
		ContentType: "text/plain; charset=utf-8",
	})
	if err != nil {
		return fmt.Errorf("failed to write artifact: %w", err)
	}

	return nil
}

// Read returns the stored text bytes
func (s *S3Store) Read(ctx context.Context, name string) ([]byte, error) {
	name, err := SanitizeArtifactName(name)
	if err != nil {
		return nil, err
	}

	obj, err := s.client.GetObject(ctx, s.bucket, name, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get artifact: %w", err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, fmt.Errorf("%w: %s", ErrArtifactNotFound, name)
		}
		return nil, fmt.Errorf("failed to read artifact: %w", err)
	}

	return data, nil
}
