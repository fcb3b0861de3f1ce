package numerator

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
)

type mockRow struct {
	val int64
	err error
}

func (m *mockRow) Scan(dest ...any) error {
	if m.err != nil {
		return m.err
	}
	if len(dest) > 0 {
		if ptr, ok := dest[0].(*int64); ok {
			*ptr = m.val
		}
	}
	return nil
}

type mockQuerier struct {
	mu           sync.Mutex
	currentValue int64
	calls        int
}

func (m *mockQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++

	// Strict passes (key); cached passes (key, increment).
	var increment int64 = 1
	if len(args) == 2 {
		if val, ok := args[1].(int64); ok {
			increment = val
		}
	}

	m.currentValue += increment
	return &mockRow{val: m.currentValue}
}

var testPeriod = time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)

func TestGetNextNumber_Strict(t *testing.T) {
	q := &mockQuerier{}
	svc := New(q)
	ctx := context.Background()
	cfg := DefaultConfig("CLM")

	num, err := svc.GetNextNumber(ctx, cfg, nil, testPeriod)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if num != "CLM-2026-00001" {
		t.Errorf("expected CLM-2026-00001, got %s", num)
	}

	num, err = svc.GetNextNumber(ctx, cfg, nil, testPeriod)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if num != "CLM-2026-00002" {
		t.Errorf("expected CLM-2026-00002, got %s", num)
	}
}

func TestGetNextNumber_Cached(t *testing.T) {
	q := &mockQuerier{}
	svc := New(q)
	ctx := context.Background()
	cfg := DefaultConfig("PAY")

	opts := &Options{
		Strategy:  StrategyCached,
		RangeSize: 10,
	}

	num, err := svc.GetNextNumber(ctx, cfg, opts, testPeriod)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if num != "PAY-2026-00001" {
		t.Errorf("expected PAY-2026-00001, got %s", num)
	}
	if q.currentValue != 10 {
		t.Errorf("expected reserved range up to 10, got %d", q.currentValue)
	}

	// The rest of the range comes from memory, no extra DB calls.
	for i := 2; i <= 10; i++ {
		if _, err := svc.GetNextNumber(ctx, cfg, opts, testPeriod); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if q.calls != 1 {
		t.Errorf("expected 1 DB call for the whole range, got %d", q.calls)
	}

	// The 11th number triggers a refill.
	num, err = svc.GetNextNumber(ctx, cfg, opts, testPeriod)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if num != "PAY-2026-00011" {
		t.Errorf("expected PAY-2026-00011, got %s", num)
	}
	if q.calls != 2 {
		t.Errorf("expected refill DB call, got %d calls", q.calls)
	}
}

func TestGetNextNumber_ResetPeriods(t *testing.T) {
	q := &mockQuerier{}
	svc := New(q)
	ctx := context.Background()

	cfg := DefaultConfig("INV")
	cfg.ResetPeriod = "month"

	key := svc.buildKey(cfg, testPeriod)
	if key != "INV_2026_03" {
		t.Errorf("expected INV_2026_03, got %s", key)
	}

	cfg.ResetPeriod = "never"
	key = svc.buildKey(cfg, testPeriod)
	if key != "INV" {
		t.Errorf("expected INV, got %s", key)
	}

	_, err := svc.GetNextNumber(ctx, cfg, nil, testPeriod)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestParseNumber(t *testing.T) {
	cases := map[string]int64{
		"INV-2026-00042": 42,
		"CLM-00007":      7,
		"garbage":        -1,
	}

	for input, want := range cases {
		if got := ParseNumber(input); got != want {
			t.Errorf("ParseNumber(%q) = %d, want %d", input, got, want)
		}
	}
}
