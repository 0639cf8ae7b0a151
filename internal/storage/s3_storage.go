package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	aws_config "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"

	"github.com/bmcgrane302/properview/internal/config"
)

const presignExpiry = 15 * time.Minute

var (
	// ErrObjectNotFound is returned when the requested key does not exist.
	ErrObjectNotFound = errors.New("object not found")
	// ErrUnsupportedContentType is returned for uploads that are not images.
	ErrUnsupportedContentType = errors.New("unsupported content type")
)

var allowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
}

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// IS3Storage is the object store used for property photos.
type IS3Storage interface {
	GeneratePresignedPutURL(ctx context.Context, propertyID, filename, contentType string) (url string, key string, err error)
	GetObject(ctx context.Context, key string) ([]byte, string, error)
	PutObject(ctx context.Context, key string, data []byte, contentType string) error
}

// s3API is the subset of *s3.Client used here.
type s3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// s3Storage implements IS3Storage.
type s3Storage struct {
	bucket        string
	maxSizeBytes  int64
	client        s3API
	presignClient *s3.PresignClient
}

// NewS3Storage creates a new S3 storage service from static credentials.
func NewS3Storage(ctx context.Context, cfg *config.Config) (IS3Storage, error) {
	awsCfg, err := aws_config.LoadDefaultConfig(ctx,
		aws_config.WithRegion(cfg.AwsRegion),
		aws_config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AwsAccessKeyID,
			cfg.AwsSecretAccessKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.AwsS3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.AwsS3Endpoint)
			o.UsePathStyle = true
		}
	})

	return &s3Storage{
		bucket:        cfg.AwsS3Bucket,
		maxSizeBytes:  int64(cfg.ImageMaxSizeMB) * 1024 * 1024,
		client:        client,
		presignClient: s3.NewPresignClient(client),
	}, nil
}

// GeneratePresignedPutURL returns a short-lived upload URL and the object key it writes to.
func (s *s3Storage) GeneratePresignedPutURL(ctx context.Context, propertyID, filename, contentType string) (string, string, error) {
	key, err := NewUploadKey(propertyID, filename, contentType)
	if err != nil {
		return "", "", err
	}

	req, err := s.presignClient.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(presignExpiry))
	if err != nil {
		return "", "", fmt.Errorf("failed to generate presigned PUT URL for key %s: %w", key, err)
	}

	log.Printf("Generated presigned upload URL for key: %s", key)
	return req.URL, key, nil
}

// GetObject downloads an object and returns its bytes and content type.
func (s *s3Storage) GetObject(ctx context.Context, key string) ([]byte, string, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, "", fmt.Errorf("s3 key %s: %w", key, ErrObjectNotFound)
		}
		return nil, "", fmt.Errorf("failed to get s3 object %s: %w", key, err)
	}
	defer out.Body.Close()

	reader := io.Reader(out.Body)
	if s.maxSizeBytes > 0 {
		reader = io.LimitReader(out.Body, s.maxSizeBytes+1)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read s3 object %s: %w", key, err)
	}
	return data, aws.ToString(out.ContentType), nil
}

// PutObject uploads data under key, replacing any existing object.
func (s *s3Storage) PutObject(ctx context.Context, key string, data []byte, contentType string) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("failed to put s3 object %s: %w", key, err)
	}
	return nil
}

// NewUploadKey builds properties/<propertyID>/<uuid>_<sanitised filename>.
func NewUploadKey(propertyID, filename, contentType string) (string, error) {
	ext, ok := allowedImageTypes[strings.ToLower(strings.TrimSpace(contentType))]
	if !ok {
		return "", fmt.Errorf("%q: %w", contentType, ErrUnsupportedContentType)
	}

	base := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	base = strings.TrimSuffix(base, path.Ext(base))
	base = strings.Trim(unsafeFilenameChars.ReplaceAllString(base, "-"), "-.")
	if base == "" || base == "." {
		base = "photo"
	}
	if len(base) > 64 {
		base = base[:64]
	}

	return fmt.Sprintf("properties/%s/%s_%s%s", propertyID, uuid.NewString(), base, ext), nil
}

// IsUploadKeyFor reports whether key was issued by NewUploadKey for propertyID.
func IsUploadKeyFor(key, propertyID string) bool {
	prefix := "properties/" + propertyID + "/"
	return strings.HasPrefix(key, prefix) && !strings.Contains(strings.TrimPrefix(key, prefix), "/")
}
