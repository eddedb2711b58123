package file

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/skyvault/skyvault/internal/provider"
	"github.com/skyvault/skyvault/internal/quota"
)

const (
	fallbackContentType   = "application/octet-stream"
	defaultAttemptTimeout = 30 * time.Second
)

type metadataStore interface {
	Create(ctx context.Context, meta Metadata) (Metadata, error)
	Get(ctx context.Context, fileID uuid.UUID) (Metadata, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]Metadata, error)
}

type quotaLedger interface {
	HasCapacity(ctx context.Context, userID uuid.UUID, sizeBytes int64) (bool, error)
	Consume(ctx context.Context, userID uuid.UUID, sizeBytes int64) (quota.Record, error)
	Summary(ctx context.Context, userID uuid.UUID) (quota.Summary, error)
}

type providerSet interface {
	Ordered() []provider.Provider
	ByName(name string) (provider.Provider, bool)
}

// Service orchestrates uploads across the configured storage providers:
// quota gating, ordered failover, metadata persistence, and provider
// re-location for downloads.
type Service struct {
	repo           metadataStore
	quota          quotaLedger
	providers      providerSet
	attemptTimeout time.Duration
	log            *zap.Logger
}

// NewService constructs the storage orchestrator. attemptTimeout bounds each
// provider's availability check and upload so one hung backend cannot stall
// the whole failover loop.
func NewService(repo metadataStore, ledger quotaLedger, providers providerSet, attemptTimeout time.Duration, log *zap.Logger) *Service {
	if attemptTimeout <= 0 {
		attemptTimeout = defaultAttemptTimeout
	}
	return &Service{
		repo:           repo,
		quota:          ledger,
		providers:      providers,
		attemptTimeout: attemptTimeout,
		log:            log,
	}
}

// Upload stores the file on the first provider that accepts it and records
// metadata and quota consumption. Quota is charged strictly after confirmed
// storage, never for a failed attempt.
func (s *Service) Upload(ctx context.Context, userID uuid.UUID, in UploadInput) (Metadata, error) {
	filename := sanitizeFilename(in.Filename)
	size := int64(len(in.Data))

	// The content type is determined once and reused across failover
	// attempts, not re-sniffed per provider.
	contentType := determineContentType(in.ContentType, in.Data)

	ok, err := s.quota.HasCapacity(ctx, userID, size)
	if err != nil {
		return Metadata{}, fmt.Errorf("check quota: %w", err)
	}
	if !ok {
		summary, err := s.quota.Summary(ctx, userID)
		if err != nil {
			return Metadata{}, fmt.Errorf("load quota summary: %w", err)
		}
		uploadsTotal.WithLabelValues("quota_exceeded").Inc()
		s.log.Warn("upload rejected by quota",
			zap.String("user_id", userID.String()),
			zap.Int64("attempted_bytes", size),
			zap.Int64("remaining_bytes", summary.RemainingBytes),
		)
		return Metadata{}, &QuotaExceededError{
			RemainingBytes: summary.RemainingBytes,
			AttemptedBytes: size,
		}
	}

	obj, err := s.uploadWithFailover(ctx, in.Data, filename, contentType, userID, in.Description)
	if err != nil {
		uploadsTotal.WithLabelValues("failed").Inc()
		return Metadata{}, err
	}

	meta := Metadata{
		ID:          obj.ID,
		UserID:      userID,
		Filename:    obj.Filename,
		ContentType: obj.ContentType,
		SizeBytes:   obj.Size,
		Path:        obj.Path,
		Provider:    obj.ProviderName,
		Description: obj.Description,
	}
	if obj.URL != "" {
		meta.URL = &obj.URL
	}

	stored, err := s.repo.Create(ctx, meta)
	if err != nil {
		uploadsTotal.WithLabelValues("failed").Inc()
		return Metadata{}, fmt.Errorf("persist file metadata: %w", err)
	}

	if _, err := s.quota.Consume(ctx, userID, size); err != nil {
		return Metadata{}, fmt.Errorf("record quota usage: %w", err)
	}

	uploadsTotal.WithLabelValues("stored").Inc()
	uploadsByProvider.WithLabelValues(stored.Provider).Inc()
	uploadedBytesTotal.Add(float64(size))

	s.log.Info("file uploaded",
		zap.String("file_id", stored.ID.String()),
		zap.String("user_id", userID.String()),
		zap.String("provider", stored.Provider),
		zap.Int64("size_bytes", size),
	)
	return stored, nil
}

// storedObject couples a provider's upload result with the provider's name.
type storedObject struct {
	provider.Object
	ProviderName string
}

// uploadWithFailover tries the providers in their configured order and
// returns the first success. Unavailable providers are skipped, failing
// providers are recorded and the loop moves on; the aggregate error carries
// the last underlying failure.
func (s *Service) uploadWithFailover(ctx context.Context, data []byte, filename, contentType string, userID uuid.UUID, description *string) (storedObject, error) {
	var lastErr error

	for _, p := range s.providers.Ordered() {
		attemptCtx, cancel := context.WithTimeout(ctx, s.attemptTimeout)

		if !p.IsAvailable(attemptCtx) {
			cancel()
			providerSkipsTotal.WithLabelValues(p.Name(), "unavailable").Inc()
			s.log.Warn("provider unavailable, trying next", zap.String("provider", p.Name()))
			continue
		}

		obj, err := p.Upload(attemptCtx, data, filename, contentType, userID, description)
		cancel()
		if err != nil {
			lastErr = err
			providerSkipsTotal.WithLabelValues(p.Name(), "error").Inc()
			s.log.Error("provider upload failed, trying next",
				zap.String("provider", p.Name()),
				zap.Error(err),
			)
			continue
		}

		return storedObject{Object: obj, ProviderName: p.Name()}, nil
	}

	return storedObject{}, &AllProvidersFailedError{LastErr: lastErr}
}

// Get returns the metadata for a file id.
func (s *Service) Get(ctx context.Context, fileID uuid.UUID) (Metadata, error) {
	return s.repo.Get(ctx, fileID)
}

// List returns all files owned by the user.
func (s *Service) List(ctx context.Context, userID uuid.UUID) ([]Metadata, error) {
	return s.repo.ListByUser(ctx, userID)
}

// QuotaSummary returns the user's current-month usage.
func (s *Service) QuotaSummary(ctx context.Context, userID uuid.UUID) (quota.Summary, error) {
	return s.quota.Summary(ctx, userID)
}

// Status reports each configured provider's availability.
func (s *Service) Status(ctx context.Context) map[string]bool {
	status := make(map[string]bool)
	for _, p := range s.providers.Ordered() {
		attemptCtx, cancel := context.WithTimeout(ctx, s.attemptTimeout)
		status[p.Name()] = p.IsAvailable(attemptCtx)
		cancel()
	}
	return status
}

// DownloadURL resolves a time-limited signed URL for the file from its
// owning provider.
func (s *Service) DownloadURL(ctx context.Context, fileID, userID uuid.UUID) (DownloadURLData, error) {
	meta, p, err := s.resolveOwningProvider(ctx, fileID, userID)
	if err != nil {
		return DownloadURLData{}, err
	}

	signer, ok := p.(provider.URLSigner)
	if !ok {
		s.log.Error("provider does not sign download urls",
			zap.String("provider", meta.Provider),
			zap.String("file_id", fileID.String()),
		)
		return DownloadURLData{}, ErrDownloadNotSupported
	}

	url, err := signer.SignedDownloadURL(ctx, meta.Path, meta.Filename)
	if err != nil {
		s.log.Error("download url generation failed",
			zap.String("provider", meta.Provider),
			zap.String("file_id", fileID.String()),
			zap.Error(err),
		)
		return DownloadURLData{}, &UnavailableError{Provider: meta.Provider, Cause: err}
	}

	return DownloadURLData{
		DownloadURL: url,
		Filename:    meta.Filename,
		ContentType: meta.ContentType,
	}, nil
}

// DownloadStream opens the stored bytes from the file's owning provider.
func (s *Service) DownloadStream(ctx context.Context, fileID, userID uuid.UUID) (Metadata, io.ReadCloser, error) {
	meta, p, err := s.resolveOwningProvider(ctx, fileID, userID)
	if err != nil {
		return Metadata{}, nil, err
	}

	streamer, ok := p.(provider.Streamer)
	if !ok {
		s.log.Error("provider does not stream downloads",
			zap.String("provider", meta.Provider),
			zap.String("file_id", fileID.String()),
		)
		return Metadata{}, nil, ErrDownloadNotSupported
	}

	stream, err := streamer.DownloadStream(ctx, meta.Path)
	if err != nil {
		if errors.Is(err, provider.ErrObjectNotFound) {
			return Metadata{}, nil, ErrFileNotFound
		}
		s.log.Error("download stream failed",
			zap.String("provider", meta.Provider),
			zap.String("file_id", fileID.String()),
			zap.Error(err),
		)
		return Metadata{}, nil, &UnavailableError{Provider: meta.Provider, Cause: err}
	}

	return meta, stream, nil
}

// resolveOwningProvider loads the metadata, enforces ownership, and locates
// the provider named by the metadata row. Order matters: a missing file is
// NotFound, a foreign file is Forbidden regardless of provider state, a
// missing provider is configuration drift, and a down provider is a
// retry-later condition checked before any capability call.
func (s *Service) resolveOwningProvider(ctx context.Context, fileID, userID uuid.UUID) (Metadata, provider.Provider, error) {
	meta, err := s.repo.Get(ctx, fileID)
	if err != nil {
		return Metadata{}, nil, err
	}

	if meta.UserID != userID {
		return Metadata{}, nil, ErrForbidden
	}

	p, ok := s.providers.ByName(meta.Provider)
	if !ok {
		s.log.Error("provider named by metadata is not configured",
			zap.String("provider", meta.Provider),
			zap.String("file_id", fileID.String()),
		)
		return Metadata{}, nil, fmt.Errorf("%w: %s", ErrProviderNotConfigured, meta.Provider)
	}

	attemptCtx, cancel := context.WithTimeout(ctx, s.attemptTimeout)
	available := p.IsAvailable(attemptCtx)
	cancel()
	if !available {
		s.log.Warn("owning provider unavailable for download",
			zap.String("provider", meta.Provider),
			zap.String("file_id", fileID.String()),
		)
		return Metadata{}, nil, &UnavailableError{Provider: meta.Provider}
	}

	return meta, p, nil
}

func determineContentType(supplied string, data []byte) string {
	if supplied != "" {
		return supplied
	}
	// mimetype sniffs magic bytes and itself falls back to
	// application/octet-stream when inconclusive.
	if detected := mimetype.Detect(data).String(); detected != "" {
		return detected
	}
	return fallbackContentType
}

func sanitizeFilename(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "upload"
	}
	return name
}
