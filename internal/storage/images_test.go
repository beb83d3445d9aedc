package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeObjects struct {
	bucketExists bool
	made         bool
	puts         map[string][]byte
	types        map[string]string
	removed      []string
	putErr       error
}

func newFakeObjects() *fakeObjects {
	return &fakeObjects{puts: map[string][]byte{}, types: map[string]string{}}
}

func (f *fakeObjects) BucketExists(context.Context, string) (bool, error) { return f.bucketExists, nil }

func (f *fakeObjects) MakeBucket(context.Context, string, minio.MakeBucketOptions) error {
	f.made = true
	return nil
}

func (f *fakeObjects) PutObject(_ context.Context, _, key string, r io.Reader, _ int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	if f.putErr != nil {
		return minio.UploadInfo{}, f.putErr
	}
	b, _ := io.ReadAll(r)
	f.puts[key] = b
	f.types[key] = opts.ContentType
	return minio.UploadInfo{Key: key, Size: int64(len(b))}, nil
}

func (f *fakeObjects) RemoveObject(_ context.Context, _, key string, _ minio.RemoveObjectOptions) error {
	f.removed = append(f.removed, key)
	return nil
}

// "hi" base64 encoded
const pngDataURL = "data:image/png;base64,aGk="

func TestImageStore_UploadAndDelete(t *testing.T) {
	ctx := context.Background()
	api := newFakeObjects()
	s, err := newImageStore(ctx, api, "products", "http://cdn.local/")
	require.NoError(t, err)
	assert.True(t, api.made)

	url, err := s.Upload(ctx, pngDataURL)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(url, "http://cdn.local/products/products/"))
	assert.True(t, strings.HasSuffix(url, ".png"))

	require.Len(t, api.puts, 1)
	for key, body := range api.puts {
		assert.Equal(t, "hi", string(body))
		assert.Equal(t, "image/png", api.types[key])
	}

	require.NoError(t, s.Delete(ctx, url))
	require.Len(t, api.removed, 1)
	assert.True(t, strings.HasPrefix(api.removed[0], "products/"))

	require.NoError(t, s.Delete(ctx, "https://elsewhere.example/img.png"))
	assert.Len(t, api.removed, 1)
}

func TestImageStore_PassThroughAndErrors(t *testing.T) {
	ctx := context.Background()
	api := newFakeObjects()
	api.bucketExists = true
	s, err := newImageStore(ctx, api, "b", "http://minio:9000")
	require.NoError(t, err)
	assert.False(t, api.made)

	got, err := s.Upload(ctx, "https://img.example/a.jpg")
	require.NoError(t, err)
	assert.Equal(t, "https://img.example/a.jpg", got)

	got, err = s.Upload(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, got)

	for _, bad := range []string{"plain", "data:text/plain;base64,aGk=", "data:image/png,raw", "data:image/png;base64,!!!"} {
		_, err := s.Upload(ctx, bad)
		assert.ErrorIs(t, err, ErrBadImage, bad)
	}

	api.putErr = errors.New("disk full")
	_, err = s.Upload(ctx, pngDataURL)
	assert.ErrorIs(t, err, api.putErr)
	assert.Empty(t, api.puts)
}
