package file

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	uploadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "skyvault_uploads_total",
		Help: "Upload attempts by outcome (stored, quota_exceeded, failed).",
	}, []string{"status"})

	uploadsByProvider = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "skyvault_provider_uploads_total",
		Help: "Successful uploads by owning provider.",
	}, []string{"provider"})

	uploadedBytesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "skyvault_uploaded_bytes_total",
		Help: "Total bytes accepted into storage.",
	})

	providerSkipsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "skyvault_provider_skips_total",
		Help: "Failover steps that skipped a provider (unavailable or errored).",
	}, []string{"provider", "reason"})
)
