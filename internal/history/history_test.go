package history

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewStore(":memory:")
	if err != nil {
		t.Fatalf("opening in-memory store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sample(category string, price float64) *Record {
	return &Record{
		Category:     category,
		TitleHash:    HashTitle("Samsung Galaxy S23 Ultra"),
		Completeness: 0.875,
		Confidence:   "high",
		Price:        price,
		PriceMin:     price * 0.95,
		PriceMax:     price * 1.05,
		ModelVersion: "2025.08.1",
		DurationMS:   3,
	}
}

func TestAddAndRecent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.Add(ctx, sample("mobile", 185000))
	if err != nil {
		t.Fatal(err)
	}
	if id == 0 {
		t.Error("expected a nonzero id")
	}

	records, err := s.Recent(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	r := records[0]
	if r.Category != "mobile" || r.Price != 185000 || r.Confidence != "high" {
		t.Errorf("round trip mismatch: %+v", r)
	}
	if r.TitleHash != HashTitle("Samsung Galaxy S23 Ultra") {
		t.Errorf("title hash mismatch: %q", r.TitleHash)
	}
	if r.CreatedAt.IsZero() {
		t.Error("created_at not populated")
	}
}

func TestRecent_NewestFirstAndLimited(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i, price := range []float64{1000, 2000, 3000} {
		if _, err := s.Add(ctx, sample("laptop", price)); err != nil {
			t.Fatalf("add %d: %v", i, err)
		}
	}

	records, err := s.Recent(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if records[0].Price != 3000 || records[1].Price != 2000 {
		t.Errorf("wrong order: %v then %v", records[0].Price, records[1].Price)
	}
}

func TestRecent_DefaultLimit(t *testing.T) {
	s := newTestStore(t)
	records, err := s.Recent(context.Background(), 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 0 {
		t.Errorf("empty store should yield no records, got %d", len(records))
	}
}

func TestStats(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, cat := range []string{"mobile", "mobile", "furniture"} {
		if _, err := s.Add(ctx, sample(cat, 5000)); err != nil {
			t.Fatal(err)
		}
	}

	st, err := s.Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if st.RecordCount != 3 {
		t.Errorf("record count = %d, want 3", st.RecordCount)
	}
	if st.ByCategory["mobile"] != 2 || st.ByCategory["furniture"] != 1 {
		t.Errorf("per-category counts wrong: %+v", st.ByCategory)
	}
}

func TestAdd_ConcurrentWriters(t *testing.T) {
	// MCP tool handlers dispatch concurrently, so concurrent Add calls
	// against one on-disk store must all land instead of failing with
	// SQLITE_BUSY.
	s, err := NewStore(filepath.Join(t.TempDir(), "pricer.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	ctx := context.Background()

	const writers = 64
	errs := make([]error, writers)
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.Add(ctx, sample("mobile", float64(1000*(i+1))))
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Errorf("concurrent add %d failed: %v", i, err)
		}
	}
	st, err := s.Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if st.RecordCount != writers {
		t.Errorf("record count = %d, want %d", st.RecordCount, writers)
	}
}

func TestAdd_NilRecord(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.Add(context.Background(), nil); err == nil {
		t.Error("expected error for nil record")
	}
}

func TestHashTitle_NormalizesCaseAndSpace(t *testing.T) {
	a := HashTitle("  Samsung Galaxy S23  ")
	b := HashTitle("samsung galaxy s23")
	if a != b {
		t.Errorf("hashes differ: %s vs %s", a, b)
	}
	if len(a) != 16 {
		t.Errorf("hash length = %d, want 16 hex chars", len(a))
	}
	if a == HashTitle("samsung galaxy s24") {
		t.Error("different titles should hash differently")
	}
}
