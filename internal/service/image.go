package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/platebook/backend/config"
)

// ImageStore persists decoded image payloads and returns a retrievable
// URL. The S3 implementation is used in production; tests substitute
// an in-memory store.
type ImageStore interface {
	Upload(ctx context.Context, data []byte, contentType, keyPrefix string) (string, error)
	Delete(ctx context.Context, url string) error
}

// S3ImageStore stores images in an S3 bucket with public-read URLs.
type S3ImageStore struct {
	s3Config *config.S3Config
}

func NewS3ImageStore(s3Config *config.S3Config) *S3ImageStore {
	return &S3ImageStore{s3Config: s3Config}
}

func (s *S3ImageStore) Upload(ctx context.Context, data []byte, contentType, keyPrefix string) (string, error) {
	ext := "bin"
	if i := strings.Index(contentType, "/"); i >= 0 && i < len(contentType)-1 {
		ext = contentType[i+1:]
	}
	key := fmt.Sprintf("%s/%s.%s", keyPrefix, uuid.New().String(), ext)

	_, err := s.s3Config.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.s3Config.BucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}

	return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", s.s3Config.BucketName, key), nil
}

func (s *S3ImageStore) Delete(ctx context.Context, url string) error {
	prefix := fmt.Sprintf("https://%s.s3.amazonaws.com/", s.s3Config.BucketName)
	if !strings.HasPrefix(url, prefix) {
		// Not one of ours; nothing to delete.
		return nil
	}
	key := strings.TrimPrefix(url, prefix)

	_, err := s.s3Config.Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.s3Config.BucketName),
		Key:    aws.String(key),
	})
	return err
}

// DecodeBase64Image decodes an image payload sent either as a bare
// base64 string or as a data URI ("data:image/png;base64,..."). It
// returns the raw bytes and the declared content type.
func DecodeBase64Image(payload string) ([]byte, string, error) {
	contentType := "image/png"
	raw := payload

	if strings.HasPrefix(payload, "data:") {
		meta, rest, ok := strings.Cut(payload, ",")
		if !ok {
			return nil, "", fmt.Errorf("malformed data URI")
		}
		meta = strings.TrimPrefix(meta, "data:")
		meta = strings.TrimSuffix(meta, ";base64")
		if meta != "" {
			contentType = meta
		}
		raw = rest
	}

	data, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil, "", fmt.Errorf("invalid base64 payload: %w", err)
	}
	if len(data) == 0 {
		return nil, "", fmt.Errorf("empty image payload")
	}
	return data, contentType, nil
}
