// Package provider defines the capability contract implemented by every
// object-storage backend, plus the concrete S3, Azure Blob and MinIO
// implementations. Providers are constructed once at startup from
// configuration and are safe for concurrent use; a provider with missing
// credentials constructs into a permanently unavailable instance instead
// of failing the process.
package provider

import (
	"context"
	"errors"
	"io"

	"github.com/google/uuid"
)

// ErrObjectNotFound is returned by DownloadStream when the stored path no
// longer exists in the backend.
var ErrObjectNotFound = errors.New("object not found in backend")

// Object describes a successfully stored object as reported by a provider.
// Path is backend-specific and opaque to everything except the provider
// that produced it.
type Object struct {
	ID          uuid.UUID
	Filename    string
	ContentType string
	Size        int64
	UserID      uuid.UUID
	Path        string
	URL         string
	Description *string
}

// Provider is the uniform contract each storage backend implements.
type Provider interface {
	// Name returns the stable identifier persisted into file metadata
	// (e.g. "s3"). It must be constant and side-effect free.
	Name() string

	// IsAvailable performs a lightweight existence/permission check against
	// the backend. It returns false both when the backend is down and when
	// the provider is misconfigured; it never panics.
	IsAvailable(ctx context.Context) bool

	// Upload writes data under a key scoped to the user and returns the
	// stored object's descriptor. Metadata is only returned for a fully
	// successful write.
	Upload(ctx context.Context, data []byte, filename, contentType string, userID uuid.UUID, description *string) (Object, error)
}

// URLSigner is an optional capability: producing a time-limited signed
// download URL that forces an attachment content disposition.
type URLSigner interface {
	SignedDownloadURL(ctx context.Context, path, filename string) (string, error)
}

// Streamer is an optional capability: opening a readable stream of the
// stored bytes.
type Streamer interface {
	DownloadStream(ctx context.Context, path string) (io.ReadCloser, error)
}

// objectKey builds the backend key for a new upload. The layout is shared
// by all providers so operators can correlate objects across backends.
func objectKey(userID uuid.UUID, fileID uuid.UUID, filename string) string {
	return userID.String() + "/" + fileID.String() + "-" + filename
}
