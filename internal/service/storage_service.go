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
	maxProfileImageSize = 5 * 1024 * 1024
	presignedURLTTL     = 15 * time.Minute
	profileImagePrefix  = "profile-images"
)

var (
	ErrFileTooBig          = errors.New("file size exceeds 5MB limit")
	ErrInvalidFileType     = errors.New("invalid file type, only JPEG and PNG images are allowed")
	ErrBucketInitFailed    = errors.New("failed to prepare storage bucket")
	ErrUploadFailed        = errors.New("failed to upload file")
	ErrURLGenerationFailed = errors.New("failed to generate presigned URL")
	ErrForeignObjectKey    = errors.New("object key does not belong to this user")

	allowedImageTypes = map[string]struct{}{
		"image/jpeg": {},
		"image/png":  {},
	}
)

// StorageService holds the user profile images.
type StorageService interface {
	// UploadProfileImage stores the image and returns its object key.
	UploadProfileImage(ctx context.Context, userID string, file io.Reader, size int64) (string, error)
	// DeleteProfileImage removes an image after checking the key belongs to
	// the given user.
	DeleteProfileImage(ctx context.Context, userID, objectKey string) error
	// ProfileImageURL returns a short-lived presigned GET URL.
	ProfileImageURL(ctx context.Context, objectKey string) (string, error)
}

// MinIOStorageService keeps profile images in a MinIO/S3 bucket. The bucket
// check happens on first use, not at startup, so the service can boot while
// storage is still coming up.
type MinIOStorageService struct {
	client   *minio.Client
	bucket   string
	initOnce sync.Once
	initErr  error
}

func NewMinIOStorageService(endpoint, accessKey, secretKey, bucket string, useSSL bool) (*MinIOStorageService, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}
	return &MinIOStorageService{client: client, bucket: bucket}, nil
}

func (s *MinIOStorageService) lazyInit(ctx context.Context) error {
	s.initOnce.Do(func() {
		exists, err := s.client.BucketExists(ctx, s.bucket)
		if err != nil {
			s.initErr = fmt.Errorf("%w: %v", ErrBucketInitFailed, err)
			return
		}
		if !exists {
			if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
				s.initErr = fmt.Errorf("%w: %v", ErrBucketInitFailed, err)
			}
		}
	})
	return s.initErr
}

// UploadProfileImage sniffs the content type from the first bytes rather than
// trusting a client header, then streams the file into the bucket under a key
// namespaced by user id.
func (s *MinIOStorageService) UploadProfileImage(ctx context.Context, userID string, file io.Reader, size int64) (string, error) {
	if size > maxProfileImageSize {
		return "", ErrFileTooBig
	}

	head := make([]byte, 512)
	n, err := io.ReadFull(file, head)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return "", fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	head = head[:n]

	contentType := strings.ToLower(strings.TrimSpace(http.DetectContentType(head)))
	if _, ok := allowedImageTypes[contentType]; !ok {
		return "", ErrInvalidFileType
	}

	if err := s.lazyInit(ctx); err != nil {
		return "", err
	}

	objectKey := fmt.Sprintf("%s/%s/%s%s", profileImagePrefix, userID, uuid.NewString(), imageExtension(contentType))
	body := io.MultiReader(bytes.NewReader(head), file)
	_, err = s.client.PutObject(ctx, s.bucket, objectKey, body, size, minio.PutObjectOptions{
		ContentType: contentType,
		UserMetadata: map[string]string{
			"User-Id":     userID,
			"Uploaded-At": time.Now().UTC().Format(time.RFC3339),
		},
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	return objectKey, nil
}

func (s *MinIOStorageService) DeleteProfileImage(ctx context.Context, userID, objectKey string) error {
	if strings.TrimSpace(objectKey) == "" {
		return nil
	}
	if strings.Contains(objectKey, "..") {
		return ErrForeignObjectKey
	}
	if !strings.HasPrefix(objectKey, fmt.Sprintf("%s/%s/", profileImagePrefix, userID)) {
		return ErrForeignObjectKey
	}
	if err := s.lazyInit(ctx); err != nil {
		return err
	}
	return s.client.RemoveObject(ctx, s.bucket, objectKey, minio.RemoveObjectOptions{})
}

func (s *MinIOStorageService) ProfileImageURL(ctx context.Context, objectKey string) (string, error) {
	if strings.TrimSpace(objectKey) == "" {
		return "", fmt.Errorf("%w: empty object key", ErrURLGenerationFailed)
	}
	if err := s.lazyInit(ctx); err != nil {
		return "", err
	}
	presigned, err := s.client.PresignedGetObject(ctx, s.bucket, objectKey, presignedURLTTL, url.Values{})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrURLGenerationFailed, err)
	}
	return presigned.String(), nil
}

func imageExtension(contentType string) string {
	switch contentType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	default:
		return ""
	}
}
