package services

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"field-agent/internal/config"
)

// ObjectPutter is the part of the S3 client the archive needs
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// ScreenshotArchive copies payment screenshots to an S3-compatible bucket
// (Cloudflare R2) under <prefix>/<user>/<collection id><ext>
type ScreenshotArchive struct {
	Client ObjectPutter
	Bucket string
	Prefix string
}

// NewScreenshotArchive returns nil when archiving is disabled or incomplete
func NewScreenshotArchive(ctx context.Context, cfg config.ArchiveConfig) (*ScreenshotArchive, error) {
	if !cfg.Ready() {
		return nil, nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)),
		awsconfig.WithRegion(cfg.Region),
	)
	if err != nil {
		return nil, fmt.Errorf("configure archive client: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = true
	})

	return &ScreenshotArchive{Client: client, Bucket: cfg.Bucket, Prefix: cfg.Prefix}, nil
}

// Key builds the object key for a screenshot
func (a *ScreenshotArchive) Key(userID, collectionID, localPath string) string {
	ext := strings.ToLower(filepath.Ext(localPath))
	name := collectionID + ext
	return path.Join(strings.Trim(a.Prefix, "/"), userID, name)
}

// Upload stores the file at localPath and returns its object key
func (a *ScreenshotArchive) Upload(ctx context.Context, userID, collectionID, localPath string) (string, error) {
	file, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("open screenshot: %w", err)
	}
	defer file.Close()

	key := a.Key(userID, collectionID, localPath)
	contentType := mime.TypeByExtension(filepath.Ext(localPath))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	_, err = a.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.Bucket),
		Key:         aws.String(key),
		Body:        file,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("upload screenshot %s: %w", key, err)
	}
	return key, nil
}
