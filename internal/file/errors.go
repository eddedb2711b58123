package file

import (
	"errors"
	"fmt"
)

var (
	// ErrFileNotFound signals that the referenced file id does not exist.
	ErrFileNotFound = errors.New("file not found")
	// ErrForbidden is returned when the requester does not own the file.
	ErrForbidden = errors.New("access to this file is denied")
	// ErrProviderNotConfigured marks configuration drift: a metadata row
	// names a provider that is no longer configured. Operator-facing, not
	// a missing-file condition.
	ErrProviderNotConfigured = errors.New("storage provider not configured")
	// ErrDownloadNotSupported is returned when the owning provider does not
	// implement the requested download capability.
	ErrDownloadNotSupported = errors.New("download capability not implemented for this provider")
)

const bytesInMB = 1024 * 1024

// QuotaExceededError rejects an upload that would overrun the monthly cap.
// It carries the figures the user needs to act on.
type QuotaExceededError struct {
	RemainingBytes int64
	AttemptedBytes int64
}

func (e *QuotaExceededError) Error() string {
	remainingMB := e.RemainingBytes / bytesInMB
	attemptedMB := (e.AttemptedBytes + bytesInMB - 1) / bytesInMB
	return fmt.Sprintf(
		"monthly storage quota exceeded: %d MB remaining but tried to upload %d MB, quota resets next month",
		remainingMB, attemptedMB,
	)
}

// AllProvidersFailedError means every configured provider was unavailable
// or failed during the upload failover loop.
type AllProvidersFailedError struct {
	LastErr error
}

func (e *AllProvidersFailedError) Error() string {
	if e.LastErr == nil {
		return "all storage providers failed: no provider was available"
	}
	return fmt.Sprintf("all storage providers failed, last error: %v", e.LastErr)
}

func (e *AllProvidersFailedError) Unwrap() error { return e.LastErr }

// UnavailableError wraps a provider that is down or failed while resolving
// a download; the message tells the user to retry later.
type UnavailableError struct {
	Provider string
	Cause    error
}

func (e *UnavailableError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("storage provider %s is currently unavailable, please try again later", e.Provider)
	}
	return fmt.Sprintf("storage provider %s is currently unavailable, please try again later: %v", e.Provider, e.Cause)
}

func (e *UnavailableError) Unwrap() error { return e.Cause }
