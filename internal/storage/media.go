package storage

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"path"
	"strings"
	"time"

	appconfig "vet-backend/internal/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// MediaStore uploads product images to an S3-compatible bucket (R2) and
// resolves their public URLs.
type MediaStore struct {
	client    *s3.Client
	bucket    string
	publicURL string
}

// NewMediaStore builds the S3 client from the media config. Returns nil
// when media storage is not configured; callers treat that as uploads
// disabled.
func NewMediaStore(ctx context.Context, cfg *appconfig.Config) (*MediaStore, error) {
	if cfg.Media.Bucket == "" || cfg.Media.AccessKey == "" {
		return nil, nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.Media.AccessKey,
			cfg.Media.SecretKey,
			"",
		)),
		awsconfig.WithRegion(cfg.Media.Region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to configure media client: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Media.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Media.Endpoint)
		}
	})

	return &MediaStore{
		client:    client,
		bucket:    cfg.Media.Bucket,
		publicURL: strings.TrimRight(cfg.Media.PublicURL, "/"),
	}, nil
}

// UploadProductImage stores an image under products/<id>/ and returns its
// public URL. The object key carries a random suffix so re-uploads never
// collide.
func (m *MediaStore) UploadProductImage(ctx context.Context, productID int, filename, contentType string, data []byte) (string, error) {
	suffix := make([]byte, 8)
	if _, err := rand.Read(suffix); err != nil {
		return "", err
	}

	ext := path.Ext(filename)
	key := fmt.Sprintf("products/%d/%d-%s%s", productID, time.Now().Unix(), hex.EncodeToString(suffix), ext)

	_, err := m.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(m.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload image: %w", err)
	}

	return m.publicURL + "/" + key, nil
}

// DeleteObject removes a stored object by its public URL
func (m *MediaStore) DeleteObject(ctx context.Context, url string) error {
	key := strings.TrimPrefix(url, m.publicURL+"/")
	if key == url || key == "" {
		return fmt.Errorf("url %q is not under the media public base", url)
	}

	_, err := m.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(m.bucket),
		Key:    aws.String(key),
	})
	return err
}

// Ping lists the bucket with a limit of one to verify connectivity
func (m *MediaStore) Ping(ctx context.Context) error {
	_, err := m.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket:  aws.String(m.bucket),
		MaxKeys: aws.Int32(1),
	})
	return err
}
