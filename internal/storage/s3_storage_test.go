package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	objects map[string][]byte
	types   map[string]string
	getErr  error
}

func (f *fakeS3) GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	data, ok := f.objects[aws.ToString(params.Key)]
	if !ok {
		return nil, &types.NoSuchKey{Message: aws.String("missing")}
	}
	return &s3.GetObjectOutput{
		Body:        io.NopCloser(bytes.NewReader(data)),
		ContentType: aws.String(f.types[aws.ToString(params.Key)]),
	}, nil
}

func (f *fakeS3) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}
	f.objects[aws.ToString(params.Key)] = data
	f.types[aws.ToString(params.Key)] = aws.ToString(params.ContentType)
	return &s3.PutObjectOutput{}, nil
}

func newFakeStorage() (*s3Storage, *fakeS3) {
	f := &fakeS3{objects: map[string][]byte{}, types: map[string]string{}}
	return &s3Storage{bucket: "test-bucket", maxSizeBytes: 1024, client: f}, f
}

func TestNewUploadKey(t *testing.T) {
	key, err := NewUploadKey("64b7f0c2a1b2c3d4e5f60718", `C:\photos\Front Door (1).JPG`, "image/jpeg")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(key, "properties/64b7f0c2a1b2c3d4e5f60718/"))
	assert.True(t, strings.HasSuffix(key, "_Front-Door-1.jpg"), key)
	assert.True(t, IsUploadKeyFor(key, "64b7f0c2a1b2c3d4e5f60718"))
	assert.False(t, IsUploadKeyFor(key, "64b7f0c2a1b2c3d4e5f60719"))

	key, err = NewUploadKey("p1", "../../..", "IMAGE/PNG")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(key, "_photo.png"), key)

	_, err = NewUploadKey("p1", "doc.pdf", "application/pdf")
	assert.ErrorIs(t, err, ErrUnsupportedContentType)
}

func TestIsUploadKeyFor_RejectsNestedKeys(t *testing.T) {
	assert.False(t, IsUploadKeyFor("properties/p1/sub/x.jpg", "p1"))
	assert.False(t, IsUploadKeyFor("other/p1/x.jpg", "p1"))
}

func TestGetObject(t *testing.T) {
	s, f := newFakeStorage()
	ctx := context.Background()

	require.NoError(t, s.PutObject(ctx, "properties/p1/a.jpg", []byte("jpeg-bytes"), "image/jpeg"))
	data, contentType, err := s.GetObject(ctx, "properties/p1/a.jpg")
	require.NoError(t, err)
	assert.Equal(t, []byte("jpeg-bytes"), data)
	assert.Equal(t, "image/jpeg", contentType)

	_, _, err = s.GetObject(ctx, "properties/p1/missing.jpg")
	assert.ErrorIs(t, err, ErrObjectNotFound)

	f.getErr = errors.New("connection reset")
	_, _, err = s.GetObject(ctx, "properties/p1/a.jpg")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrObjectNotFound)
}

func TestGetObject_ReadsAtMostOneByteOverLimit(t *testing.T) {
	s, f := newFakeStorage()
	f.objects["big"] = bytes.Repeat([]byte{1}, 4096)

	data, _, err := s.GetObject(context.Background(), "big")
	require.NoError(t, err)
	assert.Len(t, data, 1025)
}
