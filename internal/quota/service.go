package quota

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// recordStore abstracts the persistence layer.
type recordStore interface {
	GetOrCreate(ctx context.Context, userID uuid.UUID, month, year int) (Record, error)
	AddUsage(ctx context.Context, userID uuid.UUID, month, year int, delta int64) (Record, error)
}

// Service answers capacity questions and records consumption against the
// monthly per-user limit. Capacity check and consume are deliberately
// separate calls: two concurrent uploads by the same user can both pass the
// check before either consumes, overrunning the cap by one in-flight file.
// That window is accepted; callers must not rely on Consume to enforce the
// limit.
type Service struct {
	store   recordStore
	limit   int64
	nowFunc func() time.Time
	log     *zap.Logger
}

// NewService constructs a quota service with the monthly limit in bytes.
func NewService(store recordStore, limitBytes int64, log *zap.Logger) *Service {
	return &Service{
		store:   store,
		limit:   limitBytes,
		nowFunc: time.Now,
		log:     log,
	}
}

// Limit returns the monthly cap in bytes.
func (s *Service) Limit() int64 {
	return s.limit
}

// CurrentPeriod returns the record for the current calendar month,
// creating it with zero usage on first access.
func (s *Service) CurrentPeriod(ctx context.Context, userID uuid.UUID) (Record, error) {
	month, year := s.period()
	rec, err := s.store.GetOrCreate(ctx, userID, month, year)
	if err != nil {
		return Record{}, err
	}
	if rec.UsedBytes == 0 {
		s.log.Debug("quota period opened",
			zap.String("user_id", userID.String()),
			zap.Int("month", month),
			zap.Int("year", year),
		)
	}
	return rec, nil
}

// HasCapacity reports whether the user can upload sizeBytes more this month.
func (s *Service) HasCapacity(ctx context.Context, userID uuid.UUID, sizeBytes int64) (bool, error) {
	rec, err := s.CurrentPeriod(ctx, userID)
	if err != nil {
		return false, err
	}
	return sizeBytes <= s.limit-rec.UsedBytes, nil
}

// Consume records sizeBytes of usage for the current month and returns the
// updated record. It does not re-check capacity; callers gate with
// HasCapacity first.
func (s *Service) Consume(ctx context.Context, userID uuid.UUID, sizeBytes int64) (Record, error) {
	month, year := s.period()

	// Make sure the row exists before incrementing; the first upload of a
	// month may consume without a prior capacity check in admin flows.
	if _, err := s.store.GetOrCreate(ctx, userID, month, year); err != nil {
		return Record{}, err
	}

	rec, err := s.store.AddUsage(ctx, userID, month, year, sizeBytes)
	if err != nil {
		return Record{}, err
	}

	s.log.Info("quota consumed",
		zap.String("user_id", userID.String()),
		zap.Int64("added_bytes", sizeBytes),
		zap.Int64("used_bytes", rec.UsedBytes),
	)
	return rec, nil
}

// Summary returns the user's usage for the current month. RemainingBytes
// floors at zero; PercentUsed is a plain ratio and may exceed 100.
func (s *Service) Summary(ctx context.Context, userID uuid.UUID) (Summary, error) {
	rec, err := s.CurrentPeriod(ctx, userID)
	if err != nil {
		return Summary{}, err
	}

	remaining := s.limit - rec.UsedBytes
	if remaining < 0 {
		remaining = 0
	}

	return Summary{
		UsedBytes:      rec.UsedBytes,
		TotalBytes:     s.limit,
		RemainingBytes: remaining,
		PercentUsed:    float64(rec.UsedBytes) / float64(s.limit) * 100,
	}, nil
}

func (s *Service) period() (month, year int) {
	now := s.nowFunc()
	return int(now.Month()), now.Year()
}
