package provider

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/sas"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/skyvault/skyvault/internal/config"
)

// AzureProvider stores objects as block blobs in an Azure Storage container.
type AzureProvider struct {
	client     *azblob.Client
	credential *azblob.SharedKeyCredential
	cfg        config.AzureConfig
	log        *zap.Logger
}

// NewAzureProvider constructs the Azure Blob provider. Missing account
// credentials leave the client nil and the provider permanently unavailable.
func NewAzureProvider(cfg config.AzureConfig, log *zap.Logger) *AzureProvider {
	p := &AzureProvider{cfg: cfg, log: log}

	if cfg.AccountName == "" || cfg.AccountKey == "" {
		log.Warn("azure provider missing storage account credentials, provider will be unavailable")
		return p
	}

	credential, err := azblob.NewSharedKeyCredential(cfg.AccountName, cfg.AccountKey)
	if err != nil {
		log.Warn("azure provider credential setup failed, provider will be unavailable", zap.Error(err))
		return p
	}

	serviceURL := fmt.Sprintf("https://%s.blob.core.windows.net/", cfg.AccountName)
	client, err := azblob.NewClientWithSharedKeyCredential(serviceURL, credential, nil)
	if err != nil {
		log.Warn("azure provider client setup failed, provider will be unavailable", zap.Error(err))
		return p
	}

	p.client = client
	p.credential = credential
	log.Info("azure provider initialized",
		zap.String("account", cfg.AccountName),
		zap.String("container", cfg.Container),
	)
	return p
}

func (p *AzureProvider) Name() string { return "azure" }

// IsAvailable fetches the container properties as a lightweight permission check.
func (p *AzureProvider) IsAvailable(ctx context.Context) bool {
	if p.client == nil {
		return false
	}
	containerClient := p.client.ServiceClient().NewContainerClient(p.cfg.Container)
	if _, err := containerClient.GetProperties(ctx, nil); err != nil {
		p.log.Warn("azure container unavailable", zap.String("container", p.cfg.Container), zap.Error(err))
		return false
	}
	return true
}

// Upload writes the blob and returns its descriptor with the blob URL.
func (p *AzureProvider) Upload(ctx context.Context, data []byte, filename, contentType string, userID uuid.UUID, description *string) (Object, error) {
	if p.client == nil {
		return Object{}, errors.New("azure blob client not configured")
	}

	fileID := uuid.New()
	blobName := objectKey(userID, fileID, filename)

	_, err := p.client.UploadBuffer(ctx, p.cfg.Container, blobName, data, &azblob.UploadBufferOptions{
		HTTPHeaders: &blob.HTTPHeaders{
			BlobContentType: to.Ptr(contentType),
		},
	})
	if err != nil {
		return Object{}, fmt.Errorf("upload blob %q: %w", blobName, err)
	}

	url := p.client.ServiceClient().NewContainerClient(p.cfg.Container).NewBlobClient(blobName).URL()

	return Object{
		ID:          fileID,
		Filename:    filename,
		ContentType: contentType,
		Size:        int64(len(data)),
		UserID:      userID,
		Path:        blobName,
		URL:         url,
		Description: description,
	}, nil
}

// SignedDownloadURL produces a read-only SAS URL that forces an attachment
// content disposition with the stored filename.
func (p *AzureProvider) SignedDownloadURL(_ context.Context, path, filename string) (string, error) {
	if p.client == nil || p.credential == nil {
		return "", errors.New("azure blob client not configured")
	}

	now := time.Now().UTC()
	values := sas.BlobSignatureValues{
		Protocol:           sas.ProtocolHTTPS,
		StartTime:          now,
		ExpiryTime:         now.Add(p.cfg.SASTokenTTL),
		Permissions:        to.Ptr(sas.BlobPermissions{Read: true}).String(),
		ContainerName:      p.cfg.Container,
		BlobName:           path,
		ContentDisposition: fmt.Sprintf("attachment; filename=%q", filename),
	}

	query, err := values.SignWithSharedKey(p.credential)
	if err != nil {
		return "", fmt.Errorf("sign sas for %q: %w", path, err)
	}

	blobURL := p.client.ServiceClient().NewContainerClient(p.cfg.Container).NewBlobClient(path).URL()
	return blobURL + "?" + query.Encode(), nil
}
