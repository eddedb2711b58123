package file

import (
	"time"

	"github.com/google/uuid"
)

// Metadata is the durable record of a successfully stored file. It is the
// system of record independent of which provider holds the bytes: Provider
// names the owning backend and Path is only meaningful to that backend.
type Metadata struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"user_id"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
	Path        string    `json:"path"`
	Provider    string    `json:"provider"`
	URL         *string   `json:"url,omitempty"`
	Description *string   `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// UploadInput carries the caller-supplied upload fields. ContentType and
// Description are optional; an empty ContentType triggers sniffing.
type UploadInput struct {
	Data        []byte
	Filename    string
	ContentType string
	Description *string
}

// DownloadURLData is the resolved download link plus the headers a client
// needs to present the file.
type DownloadURLData struct {
	DownloadURL string `json:"download_url"`
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
}
