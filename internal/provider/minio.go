package provider

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"

	"github.com/skyvault/skyvault/internal/config"
)

// MinIOProvider stores objects in a MinIO deployment. It supports streamed
// downloads but not signed download URLs, which exercises the orchestrator's
// capability check.
type MinIOProvider struct {
	client *minio.Client
	cfg    config.MinIOConfig
	log    *zap.Logger
}

// NewMinIOProvider constructs the MinIO provider. A missing endpoint or
// credentials leave the client nil and the provider permanently unavailable.
func NewMinIOProvider(cfg config.MinIOConfig, log *zap.Logger) *MinIOProvider {
	p := &MinIOProvider{cfg: cfg, log: log}

	if cfg.Endpoint == "" || cfg.AccessKeyID == "" || cfg.SecretAccessKey == "" {
		log.Warn("minio provider missing endpoint or credentials, provider will be unavailable")
		return p
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		log.Warn("minio provider client setup failed, provider will be unavailable", zap.Error(err))
		return p
	}

	p.client = client
	log.Info("minio provider initialized",
		zap.String("endpoint", cfg.Endpoint),
		zap.String("bucket", cfg.Bucket),
	)
	return p
}

func (p *MinIOProvider) Name() string { return "minio" }

// IsAvailable checks the bucket exists, creating it on first contact.
func (p *MinIOProvider) IsAvailable(ctx context.Context) bool {
	if p.client == nil {
		return false
	}

	exists, err := p.client.BucketExists(ctx, p.cfg.Bucket)
	if err != nil {
		p.log.Warn("minio availability check failed", zap.String("bucket", p.cfg.Bucket), zap.Error(err))
		return false
	}
	if !exists {
		if err := p.client.MakeBucket(ctx, p.cfg.Bucket, minio.MakeBucketOptions{Region: p.cfg.Region}); err != nil {
			p.log.Warn("minio bucket creation failed", zap.String("bucket", p.cfg.Bucket), zap.Error(err))
			return false
		}
		p.log.Info("minio bucket created", zap.String("bucket", p.cfg.Bucket))
	}
	return true
}

// Upload writes the object and returns its descriptor.
func (p *MinIOProvider) Upload(ctx context.Context, data []byte, filename, contentType string, userID uuid.UUID, description *string) (Object, error) {
	if p.client == nil {
		return Object{}, errors.New("minio client not configured")
	}

	fileID := uuid.New()
	key := objectKey(userID, fileID, filename)

	userMeta := map[string]string{"Userid": userID.String()}
	if description != nil {
		userMeta["Description"] = *description
	}

	_, err := p.client.PutObject(ctx, p.cfg.Bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType:  contentType,
		UserMetadata: userMeta,
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
		Description: description,
	}, nil
}

// DownloadStream opens the stored bytes for reading. StatObject runs first
// so a missing key surfaces as ErrObjectNotFound instead of a lazy read error.
func (p *MinIOProvider) DownloadStream(ctx context.Context, path string) (io.ReadCloser, error) {
	if p.client == nil {
		return nil, errors.New("minio client not configured")
	}

	if _, err := p.client.StatObject(ctx, p.cfg.Bucket, path, minio.StatObjectOptions{}); err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, ErrObjectNotFound
		}
		return nil, fmt.Errorf("stat object %q: %w", path, err)
	}

	obj, err := p.client.GetObject(ctx, p.cfg.Bucket, path, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get object %q: %w", path, err)
	}
	return obj, nil
}
