package storage

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

var ErrBadImage = errors.New("image must be a base64 data URL")

// objectAPI is the part of *minio.Client the image store uses.
type objectAPI interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error
}

type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	// PublicURL is prepended to object keys in returned image URLs. It
	// defaults to the endpoint.
	PublicURL string
}

// ImageStore uploads product images and hands back their public URL.
type ImageStore struct {
	api       objectAPI
	bucket    string
	publicURL string
}

func NewImageStore(ctx context.Context, cfg Config) (*ImageStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}
	public := cfg.PublicURL
	if public == "" {
		scheme := "http"
		if cfg.UseSSL {
			scheme = "https"
		}
		public = scheme + "://" + cfg.Endpoint
	}
	return newImageStore(ctx, client, cfg.Bucket, public)
}

func newImageStore(ctx context.Context, api objectAPI, bucket, publicURL string) (*ImageStore, error) {
	s := &ImageStore{api: api, bucket: bucket, publicURL: strings.TrimRight(publicURL, "/")}

	exists, err := api.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if !exists {
		if err := api.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
	}
	return s, nil
}

// Upload stores a data URL image and returns its public URL. Plain http(s)
// URLs are returned untouched; an empty image stays empty.
func (s *ImageStore) Upload(ctx context.Context, image string) (string, error) {
	if image == "" || strings.HasPrefix(image, "http://") || strings.HasPrefix(image, "https://") {
		return image, nil
	}
	contentType, data, err := decodeDataURL(image)
	if err != nil {
		return "", err
	}

	key := "products/" + uuid.NewString() + extension(contentType)
	_, err = s.api.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", fmt.Errorf("failed to upload object: %w", err)
	}
	return s.objectURL(key), nil
}

// Delete removes an image previously returned by Upload. URLs that point
// elsewhere are ignored.
func (s *ImageStore) Delete(ctx context.Context, imageURL string) error {
	prefix := s.objectURL("")
	if !strings.HasPrefix(imageURL, prefix) {
		return nil
	}
	key := strings.TrimPrefix(imageURL, prefix)
	if err := s.api.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}

func (s *ImageStore) objectURL(key string) string {
	return s.publicURL + "/" + s.bucket + "/" + key
}

func decodeDataURL(v string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(v, "data:")
	if !ok {
		return "", nil, ErrBadImage
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, ErrBadImage
	}
	contentType, isBase64 := strings.CutSuffix(meta, ";base64")
	if !isBase64 || !strings.HasPrefix(contentType, "image/") {
		return "", nil, ErrBadImage
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrBadImage, err)
	}
	return contentType, data, nil
}

func extension(contentType string) string {
	switch contentType {
	case "image/png":
		return ".png"
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	case "image/svg+xml":
		return ".svg"
	}
	return ""
}

// Nop keeps image values as given.
type Nop struct{}

func (Nop) Upload(_ context.Context, image string) (string, error) { return image, nil }
func (Nop) Delete(context.Context, string) error                   { return nil }
