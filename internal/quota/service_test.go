package quota

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type periodKey struct {
	userID uuid.UUID
	month  int
	year   int
}

type fakeStore struct {
	records       map[periodKey]Record
	createCalls   int
	addUsageCalls int
}

func newFakeStore() *fakeStore {
	return &fakeStore{records: make(map[periodKey]Record)}
}

func (f *fakeStore) GetOrCreate(ctx context.Context, userID uuid.UUID, month, year int) (Record, error) {
	f.createCalls++
	key := periodKey{userID: userID, month: month, year: year}
	if rec, ok := f.records[key]; ok {
		return rec, nil
	}
	rec := Record{
		ID:        uuid.New(),
		UserID:    userID,
		Month:     month,
		Year:      year,
		UsedBytes: 0,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	f.records[key] = rec
	return rec, nil
}

func (f *fakeStore) AddUsage(ctx context.Context, userID uuid.UUID, month, year int, delta int64) (Record, error) {
	f.addUsageCalls++
	key := periodKey{userID: userID, month: month, year: year}
	rec := f.records[key]
	rec.UsedBytes += delta
	rec.UpdatedAt = time.Now()
	f.records[key] = rec
	return rec, nil
}

func newTestService(store *fakeStore, limit int64) *Service {
	svc := NewService(store, limit, zap.NewNop())
	svc.nowFunc = func() time.Time {
		return time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC)
	}
	return svc
}

func TestCurrentPeriodCreatesLazily(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, 1000)
	userID := uuid.New()

	rec, err := svc.CurrentPeriod(context.Background(), userID)
	if err != nil {
		t.Fatalf("CurrentPeriod returned error: %v", err)
	}
	if rec.UsedBytes != 0 {
		t.Fatalf("expected fresh record with 0 bytes, got %d", rec.UsedBytes)
	}
	if rec.Month != 3 || rec.Year != 2026 {
		t.Fatalf("expected period 3/2026, got %d/%d", rec.Month, rec.Year)
	}
}

func TestNewMonthStartsFreshRecord(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, 1000)
	userID := uuid.New()

	if _, err := svc.Consume(context.Background(), userID, 800); err != nil {
		t.Fatalf("Consume returned error: %v", err)
	}

	// Advance into April: the lookup key changes, so usage resets
	// without any rollover job.
	svc.nowFunc = func() time.Time {
		return time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC)
	}

	ok, err := svc.HasCapacity(context.Background(), userID, 1000)
	if err != nil {
		t.Fatalf("HasCapacity returned error: %v", err)
	}
	if !ok {
		t.Fatalf("expected full capacity in the new month")
	}
}

func TestHasCapacityBoundary(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, 1000)
	userID := uuid.New()

	if _, err := svc.Consume(context.Background(), userID, 400); err != nil {
		t.Fatalf("Consume returned error: %v", err)
	}

	ok, err := svc.HasCapacity(context.Background(), userID, 600)
	if err != nil {
		t.Fatalf("HasCapacity returned error: %v", err)
	}
	if !ok {
		t.Fatalf("expected exactly-fitting upload to pass")
	}

	ok, err = svc.HasCapacity(context.Background(), userID, 601)
	if err != nil {
		t.Fatalf("HasCapacity returned error: %v", err)
	}
	if ok {
		t.Fatalf("expected oversize upload to be rejected")
	}
}

func TestConsumeAddsNumerically(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, 1_000_000)
	userID := uuid.New()

	// 100 + 23 must be 123, never the string concatenation "10023".
	if _, err := svc.Consume(context.Background(), userID, 100); err != nil {
		t.Fatalf("Consume returned error: %v", err)
	}
	if _, err := svc.Consume(context.Background(), userID, 23); err != nil {
		t.Fatalf("Consume returned error: %v", err)
	}

	summary, err := svc.Summary(context.Background(), userID)
	if err != nil {
		t.Fatalf("Summary returned error: %v", err)
	}
	if summary.UsedBytes != 123 {
		t.Fatalf("expected used bytes 123, got %d", summary.UsedBytes)
	}
}

func TestSummaryFloorsRemainingAtZero(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, 1000)
	userID := uuid.New()

	// Simulate the documented overrun: consume without a capacity gate.
	if _, err := svc.Consume(context.Background(), userID, 1500); err != nil {
		t.Fatalf("Consume returned error: %v", err)
	}

	summary, err := svc.Summary(context.Background(), userID)
	if err != nil {
		t.Fatalf("Summary returned error: %v", err)
	}
	if summary.RemainingBytes != 0 {
		t.Fatalf("expected remaining floored at 0, got %d", summary.RemainingBytes)
	}
	if summary.PercentUsed <= 100 {
		t.Fatalf("expected percent used above 100, got %f", summary.PercentUsed)
	}
	if summary.TotalBytes != 1000 {
		t.Fatalf("expected total 1000, got %d", summary.TotalBytes)
	}
}
