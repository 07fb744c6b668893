package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/cespare/xxhash/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/rpupo63/foodgram-backend/config"
	"github.com/rpupo63/foodgram-backend/errs"
)

// ImageStore persists decoded recipe images and returns the public URL.
type ImageStore interface {
	Save(ctx context.Context, img Image) (string, error)
}

// Image is a decoded data URI.
type Image struct {
	Data        []byte
	Ext         string
	ContentType string
}

var imageTypes = map[string]string{
	"image/png":  "png",
	"image/jpeg": "jpg",
	"image/jpg":  "jpg",
	"image/gif":  "gif",
	"image/webp": "webp",
}

// DecodeDataURI parses "data:image/<type>;base64,<payload>".
func DecodeDataURI(uri string) (Image, error) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(uri), "data:")
	if !ok {
		return Image{}, errs.NewInvalidImageError("expected a base64 data URI")
	}

	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return Image{}, errs.NewInvalidImageError("missing image payload")
	}

	contentType, ok := strings.CutSuffix(meta, ";base64")
	if !ok {
		return Image{}, errs.NewInvalidImageError("image payload must be base64 encoded")
	}
	contentType = strings.ToLower(contentType)

	ext, ok := imageTypes[contentType]
	if !ok {
		return Image{}, errs.NewInvalidImageError(fmt.Sprintf("unsupported image type %q", contentType))
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return Image{}, errs.NewInvalidImageError("image payload is not valid base64")
	}
	if len(data) == 0 {
		return Image{}, errs.NewInvalidImageError("image payload is empty")
	}

	if contentType == "image/jpg" {
		contentType = "image/jpeg"
	}
	return Image{Data: data, Ext: ext, ContentType: contentType}, nil
}

// imageKey names an image by its content so identical uploads share a file.
func imageKey(img Image) string {
	return fmt.Sprintf("recipes/%016x.%s", xxhash.Sum64(img.Data), img.Ext)
}

func joinURL(base, key string) string {
	return strings.TrimSuffix(base, "/") + "/" + key
}

// LocalImageStore writes images below root and serves them under baseURL.
type LocalImageStore struct {
	root    string
	baseURL string
	logger  zerolog.Logger
}

func NewLocalImageStore(root, baseURL string) *LocalImageStore {
	return &LocalImageStore{
		root:    root,
		baseURL: baseURL,
		logger:  log.With().Str("serviceName", "localImageStore").Logger(),
	}
}

func (s *LocalImageStore) Root() string {
	return s.root
}

func (s *LocalImageStore) Save(_ context.Context, img Image) (string, error) {
	key := imageKey(img)
	path := filepath.Join(s.root, filepath.FromSlash(key))

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", errs.NewMediaStorageError("store", err)
	}
	if err := os.WriteFile(path, img.Data, 0o644); err != nil {
		return "", errs.NewMediaStorageError("store", err)
	}

	s.logger.Debug().Str("key", key).Int("bytes", len(img.Data)).Msg("image stored")
	return joinURL(s.baseURL, key), nil
}

type s3PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3ImageStore uploads images to a bucket.
type S3ImageStore struct {
	client    s3PutObjectAPI
	bucket    string
	publicURL string
	logger    zerolog.Logger
}

// NewS3ImageStore builds a store; an empty publicURL falls back to the
// virtual-hosted bucket URL for region.
func NewS3ImageStore(client s3PutObjectAPI, bucket, region, publicURL string) *S3ImageStore {
	if publicURL == "" {
		publicURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", bucket, region)
	}
	return &S3ImageStore{
		client:    client,
		bucket:    bucket,
		publicURL: publicURL,
		logger:    log.With().Str("serviceName", "s3ImageStore").Logger(),
	}
}

func (s *S3ImageStore) Save(ctx context.Context, img Image) (string, error) {
	key := imageKey(img)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(img.Data),
		ContentType:   aws.String(img.ContentType),
		ContentLength: aws.Int64(int64(len(img.Data))),
	})
	if err != nil {
		s.logger.Error().Err(err).Str("key", key).Msg("image upload failed")
		return "", errs.NewMediaStorageError("upload", err)
	}

	s.logger.Debug().Str("key", key).Int("bytes", len(img.Data)).Msg("image uploaded")
	return joinURL(s.publicURL, key), nil
}

// NewImageStore picks the backend named by MEDIA_BACKEND.
func NewImageStore(ctx context.Context, c map[string]string) (ImageStore, error) {
	switch backend := config.GetString(c, "MEDIA_BACKEND", "local"); backend {
	case "local":
		return NewLocalImageStore(
			config.GetString(c, "MEDIA_ROOT", "media"),
			config.GetString(c, "MEDIA_URL", "/media"),
		), nil
	case "s3":
		bucket := config.GetString(c, "S3_BUCKET", "")
		if bucket == "" {
			return nil, errs.NewConfigMissingError("S3_BUCKET")
		}
		region := config.GetString(c, "S3_REGION", config.GetString(c, "AWS_REGION", "us-east-1"))

		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
		if err != nil {
			return nil, fmt.Errorf("failed to load aws config: %w", err)
		}
		return NewS3ImageStore(s3.NewFromConfig(awsCfg), bucket, region, config.GetString(c, "S3_PUBLIC_URL", "")), nil
	default:
		return nil, errs.NewConfigInvalidError("MEDIA_BACKEND", fmt.Sprintf("unsupported value %q", backend))
	}
}
