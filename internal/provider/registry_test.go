package provider

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/skyvault/skyvault/internal/config"
)

type stubProvider struct {
	name string
}

func (s *stubProvider) Name() string                      { return s.name }
func (s *stubProvider) IsAvailable(context.Context) bool  { return true }
func (s *stubProvider) Upload(context.Context, []byte, string, string, uuid.UUID, *string) (Object, error) {
	return Object{}, nil
}

func TestRegistryPreservesOrder(t *testing.T) {
	reg, err := NewRegistry(&stubProvider{name: "s3"}, &stubProvider{name: "azure"}, &stubProvider{name: "minio"})
	if err != nil {
		t.Fatalf("NewRegistry returned error: %v", err)
	}

	ordered := reg.Ordered()
	want := []string{"s3", "azure", "minio"}
	if len(ordered) != len(want) {
		t.Fatalf("expected %d providers, got %d", len(want), len(ordered))
	}
	for i, name := range want {
		if ordered[i].Name() != name {
			t.Fatalf("position %d: expected %q, got %q", i, name, ordered[i].Name())
		}
	}
}

func TestRegistryRejectsDuplicateNames(t *testing.T) {
	_, err := NewRegistry(&stubProvider{name: "s3"}, &stubProvider{name: "s3"})
	if err == nil {
		t.Fatalf("expected error for duplicate provider name")
	}
}

func TestRegistryByName(t *testing.T) {
	reg, err := NewRegistry(&stubProvider{name: "azure"})
	if err != nil {
		t.Fatalf("NewRegistry returned error: %v", err)
	}

	if _, ok := reg.ByName("azure"); !ok {
		t.Fatalf("expected azure to resolve")
	}
	if _, ok := reg.ByName("s3"); ok {
		t.Fatalf("expected s3 to be absent")
	}
}

func TestUnconfiguredProvidersReportUnavailable(t *testing.T) {
	log := zap.NewNop()
	ctx := context.Background()

	providers := []Provider{
		NewS3Provider(ctx, config.S3Config{}, log),
		NewAzureProvider(config.AzureConfig{}, log),
		NewMinIOProvider(config.MinIOConfig{}, log),
	}

	for _, p := range providers {
		// The check must be idempotent: repeated calls return false
		// without panicking.
		if p.IsAvailable(ctx) {
			t.Fatalf("provider %s: expected unavailable without configuration", p.Name())
		}
		if p.IsAvailable(ctx) {
			t.Fatalf("provider %s: expected unavailable on second check", p.Name())
		}
	}
}

func TestProviderNamesAreStable(t *testing.T) {
	log := zap.NewNop()
	ctx := context.Background()

	if got := NewS3Provider(ctx, config.S3Config{}, log).Name(); got != "s3" {
		t.Fatalf("expected s3, got %q", got)
	}
	if got := NewAzureProvider(config.AzureConfig{}, log).Name(); got != "azure" {
		t.Fatalf("expected azure, got %q", got)
	}
	if got := NewMinIOProvider(config.MinIOConfig{}, log).Name(); got != "minio" {
		t.Fatalf("expected minio, got %q", got)
	}
}
