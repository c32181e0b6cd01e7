package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const (
	maxAvatarSize   = 6 * 1024 * 1024
	presignedURLTTL = 15 * time.Minute
	avatarKeyPrefix = "avatars"
)

var (
	ErrFileTooBig      = errors.New("file size exceeds the 6MB limit")
	ErrInvalidFileType = errors.New("only JPEG and PNG images are allowed")
	ErrUploadFailed    = errors.New("failed to upload file")
	ErrDeleteFailed    = errors.New("failed to delete file")
	ErrStorageURL      = errors.New("failed to generate storage URL")
	ErrForeignObject   = errors.New("object does not belong to this user")

	allowedAvatarTypes = map[string]struct{}{
		"image/jpeg": {},
		"image/png":  {},
	}
)

// AvatarStorage stores profile images in object storage and hands out
// short-lived read URLs.
type AvatarStorage interface {
	Upload(ctx context.Context, userID uuid.UUID, file io.Reader, size int64) (string, error)
	Delete(ctx context.Context, userID uuid.UUID, objectKey string) error
	URL(ctx context.Context, objectKey string) (string, error)
}

type MinIOAvatarStorage struct {
	client   *minio.Client
	bucket   string
	initOnce sync.Once
	initErr  error
}

func NewMinIOAvatarStorage(endpoint, accessKey, secretKey, bucket string, useSSL bool) (*MinIOAvatarStorage, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}
	return &MinIOAvatarStorage{client: client, bucket: bucket}, nil
}

// lazyInit creates the bucket on first use so a missing object store
// does not block startup.
func (s *MinIOAvatarStorage) lazyInit(ctx context.Context) error {
	s.initOnce.Do(func() {
		exists, err := s.client.BucketExists(ctx, s.bucket)
		if err != nil {
			s.initErr = fmt.Errorf("check bucket: %w", err)
			return
		}
		if !exists {
			if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
				s.initErr = fmt.Errorf("create bucket: %w", err)
			}
		}
	})
	return s.initErr
}

// Upload validates size and sniffs the content type from the leading
// bytes rather than trusting a client-supplied header, then writes the
// object under the caller's namespace.
func (s *MinIOAvatarStorage) Upload(ctx context.Context, userID uuid.UUID, file io.Reader, size int64) (string, error) {
	if size > maxAvatarSize {
		return "", ErrFileTooBig
	}

	head := make([]byte, 512)
	n, err := io.ReadFull(file, head)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return "", fmt.Errorf("%w: read head: %v", ErrUploadFailed, err)
	}
	head = head[:n]

	contentType := strings.ToLower(strings.TrimSpace(http.DetectContentType(head)))
	if _, ok := allowedAvatarTypes[contentType]; !ok {
		return "", ErrInvalidFileType
	}
	if err := s.lazyInit(ctx); err != nil {
		return "", err
	}

	objectKey := fmt.Sprintf("%s/%s/%s%s", avatarKeyPrefix, userID, uuid.New(), avatarExtension(contentType))
	body := io.MultiReader(bytes.NewReader(head), file)
	_, err = s.client.PutObject(ctx, s.bucket, objectKey, body, size, minio.PutObjectOptions{
		ContentType: contentType,
		UserMetadata: map[string]string{
			"User-Id":     userID.String(),
			"Uploaded-At": time.Now().UTC().Format(time.RFC3339),
		},
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	return objectKey, nil
}

// Delete removes an object after checking it sits under the caller's
// namespace.
func (s *MinIOAvatarStorage) Delete(ctx context.Context, userID uuid.UUID, objectKey string) error {
	if strings.TrimSpace(objectKey) == "" {
		return nil
	}
	if strings.Contains(objectKey, "..") {
		return ErrForeignObject
	}
	prefix := fmt.Sprintf("%s/%s/", avatarKeyPrefix, userID)
	if !strings.HasPrefix(objectKey, prefix) {
		return ErrForeignObject
	}
	if err := s.lazyInit(ctx); err != nil {
		return err
	}
	if err := s.client.RemoveObject(ctx, s.bucket, objectKey, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("%w: %v", ErrDeleteFailed, err)
	}
	return nil
}

func (s *MinIOAvatarStorage) URL(ctx context.Context, objectKey string) (string, error) {
	if strings.TrimSpace(objectKey) == "" {
		return "", fmt.Errorf("%w: empty object key", ErrStorageURL)
	}
	if err := s.lazyInit(ctx); err != nil {
		return "", err
	}
	presigned, err := s.client.PresignedGetObject(ctx, s.bucket, objectKey, presignedURLTTL, url.Values{})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrStorageURL, err)
	}
	return presigned.String(), nil
}

// Client exposes the underlying object store client for readiness probes.
func (s *MinIOAvatarStorage) Client() *minio.Client { return s.client }

func avatarExtension(contentType string) string {
	switch contentType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	default:
		return ""
	}
}
