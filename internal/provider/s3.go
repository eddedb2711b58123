package provider

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/skyvault/skyvault/internal/config"
)

// S3Provider stores objects in AWS S3 or any S3-compatible endpoint.
type S3Provider struct {
	client *s3.Client
	cfg    config.S3Config
	log    *zap.Logger
}

// NewS3Provider constructs the S3 provider. Missing credentials or bucket
// name leave the client nil; the provider then reports itself unavailable
// on every check instead of crashing the process.
func NewS3Provider(ctx context.Context, cfg config.S3Config, log *zap.Logger) *S3Provider {
	p := &S3Provider{cfg: cfg, log: log}

	if cfg.AccessKeyID == "" || cfg.SecretAccessKey == "" || cfg.Bucket == "" {
		log.Warn("s3 provider missing credentials or bucket name, provider will be unavailable")
		return p
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		),
	)
	if err != nil {
		log.Warn("s3 provider configuration failed, provider will be unavailable", zap.Error(err))
		return p
	}

	p.client = s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		if cfg.UsePathStyle {
			o.UsePathStyle = true
		}
	})

	log.Info("s3 provider initialized",
		zap.String("bucket", cfg.Bucket),
		zap.String("region", cfg.Region),
		zap.Bool("custom_endpoint", cfg.Endpoint != ""),
	)
	return p
}

func (p *S3Provider) Name() string { return "s3" }

// IsAvailable issues a HeadBucket against the configured bucket.
func (p *S3Provider) IsAvailable(ctx context.Context) bool {
	if p.client == nil {
		return false
	}
	_, err := p.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(p.cfg.Bucket)})
	if err != nil {
		p.log.Warn("s3 bucket unavailable", zap.String("bucket", p.cfg.Bucket), zap.Error(err))
		return false
	}
	return true
}

// Upload writes the object and returns its descriptor including a direct URL.
func (p *S3Provider) Upload(ctx context.Context, data []byte, filename, contentType string, userID uuid.UUID, description *string) (Object, error) {
	if p.client == nil {
		return Object{}, errors.New("s3 client not configured")
	}

	fileID := uuid.New()
	key := objectKey(userID, fileID, filename)

	meta := map[string]string{"userid": userID.String()}
	if description != nil {
		meta["description"] = *description
	}

	_, err := p.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.cfg.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
		Metadata:    meta,
	})
	if err != nil {
		return Object{}, fmt.Errorf("put object %q: %w", key, err)
	}

	return Object{
		ID:          fileID,
		Filename:    filename,
		ContentType: contentType,
		Size:        int64(len(data)),
		UserID:      userID,
		Path:        key,
		URL:         p.objectURL(key),
		Description: description,
	}, nil
}

// SignedDownloadURL produces a presigned GET URL that forces an attachment
// content disposition with the stored filename.
func (p *S3Provider) SignedDownloadURL(ctx context.Context, path, filename string) (string, error) {
	if p.client == nil {
		return "", errors.New("s3 client not configured")
	}

	presigner := s3.NewPresignClient(p.client)
	req, err := presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket:                     aws.String(p.cfg.Bucket),
		Key:                        aws.String(path),
		ResponseContentDisposition: aws.String(fmt.Sprintf("attachment; filename=%q", filename)),
	}, func(o *s3.PresignOptions) {
		o.Expires = p.cfg.SignedURLTTL
	})
	if err != nil {
		return "", fmt.Errorf("presign get %q: %w", path, err)
	}
	return req.URL, nil
}

// DownloadStream opens the stored bytes for reading.
func (p *S3Provider) DownloadStream(ctx context.Context, path string) (io.ReadCloser, error) {
	if p.client == nil {
		return nil, errors.New("s3 client not configured")
	}

	out, err := p.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(p.cfg.Bucket),
		Key:    aws.String(path),
	})
	if err != nil {
		var notFound *types.NoSuchKey
		if errors.As(err, &notFound) {
			return nil, ErrObjectNotFound
		}
		return nil, fmt.Errorf("get object %q: %w", path, err)
	}
	return out.Body, nil
}

func (p *S3Provider) objectURL(key string) string {
	if p.cfg.Endpoint != "" {
		return fmt.Sprintf("%s/%s/%s", strings.TrimRight(p.cfg.Endpoint, "/"), p.cfg.Bucket, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", p.cfg.Bucket, p.cfg.Region, key)
}
