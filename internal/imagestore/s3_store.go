package imagestore

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/google/uuid"
)

// S3Store uploads public-read objects and serves them through an optional CDN
// prefix instead of the raw bucket URL.
type S3Store struct {
	bucket    string
	cdnPrefix string
	uploader  *s3manager.Uploader
}

func NewS3Store(region, bucket, cdnPrefix string) (*S3Store, error) {
	sess, err := session.NewSession(&aws.Config{Region: aws.String(region)})
	if err != nil {
		return nil, err
	}
	return &S3Store{
		bucket:    bucket,
		cdnPrefix: strings.TrimSuffix(cdnPrefix, "/"),
		uploader:  s3manager.NewUploader(sess),
	}, nil
}

func (s *S3Store) Upload(ctx context.Context, img Image, folder string) (string, error) {
	key := fmt.Sprintf("%s/%s%s", folder, uuid.New().String(), extFor(img.ContentType))
	out, err := s.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		ACL:         aws.String("public-read"),
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(img.Data),
		ContentType: aws.String(img.ContentType),
	})
	if err != nil {
		return "", fmt.Errorf("imagestore: upload: %w", err)
	}
	if s.cdnPrefix != "" {
		return s.cdnPrefix + "/" + key, nil
	}
	return out.Location, nil
}

func extFor(contentType string) string {
	switch contentType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		return ""
	}
}
