package history

import (
	"os"
	"testing"
	"time"

	"nickandperla.net/manipulator/internal/sim"
)

func newTestRecord(original string, at time.Time) Record {
	before := []sim.Sample{{ID: 1, Position: sim.Position{X: 2, Y: 3}}}
	after := []sim.Sample{{ID: 1, Position: sim.Position{X: 5, Y: 5}}}
	return NewRecord(original, "opt:"+original, before, after, at)
}

func TestNewRecord(t *testing.T) {
	at := time.Date(2026, 3, 7, 9, 5, 1, 0, time.UTC)
	before := []sim.Sample{{ID: 1, Position: sim.Position{X: 1, Y: 1}}}
	r := NewRecord("ЛЛЛ", "3Л", before, before, at)
	if r.ID == "" {
		t.Error("expected non-empty id")
	}
	if r.Date != "07.03.2026" || r.Time != "09:05:01" {
		t.Errorf("unexpected date/time %q %q", r.Date, r.Time)
	}
	before[0].Position.X = 7
	if r.SamplesBefore[0].Position.X != 1 || r.SamplesAfter[0].Position.X != 1 {
		t.Error("record shares sample storage with caller")
	}
	if other := NewRecord("ЛЛЛ", "3Л", nil, nil, at); other.ID == r.ID {
		t.Error("expected distinct ids")
	}
}

func testStore(t *testing.T, s Store) {
	t.Helper()
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	first := newTestRecord("Л", base)
	second := newTestRecord("П", base.Add(time.Second))
	third := newTestRecord("В", base.Add(2*time.Second))
	for _, r := range []Record{first, second, third} {
		if err := s.Add(r); err != nil {
			t.Fatalf("Add failed: %v", err)
		}
	}

	all, err := s.List(0)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 records, got %d", len(all))
	}
	if all[0].ID != third.ID || all[2].ID != first.ID {
		t.Errorf("expected newest first, got %s %s %s", all[0].Original, all[1].Original, all[2].Original)
	}
	if all[0].Optimized != "opt:В" {
		t.Errorf("expected 'opt:В', got %q", all[0].Optimized)
	}
	if !all[0].Completed.Equal(third.Completed) {
		t.Errorf("expected completed %v, got %v", third.Completed, all[0].Completed)
	}
	if len(all[0].SamplesAfter) != 1 || all[0].SamplesAfter[0].Position != (sim.Position{X: 5, Y: 5}) {
		t.Errorf("unexpected samples after: %+v", all[0].SamplesAfter)
	}

	limited, err := s.List(2)
	if err != nil {
		t.Fatalf("List with limit failed: %v", err)
	}
	if len(limited) != 2 || limited[0].ID != third.ID {
		t.Errorf("unexpected limited list: %+v", limited)
	}

	got, err := s.Get(second.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got == nil || got.Original != "П" {
		t.Fatalf("expected record 'П', got %+v", got)
	}

	// Mutating a returned record must not reach the store.
	got.SamplesBefore[0].Position.X = 99
	again, _ := s.Get(second.ID)
	if again.SamplesBefore[0].Position.X != 2 {
		t.Error("store record was mutated through a returned copy")
	}

	missing, err := s.Get("nope")
	if err != nil {
		t.Fatalf("Get missing failed: %v", err)
	}
	if missing != nil {
		t.Errorf("expected nil for missing record, got %+v", missing)
	}
}

func TestMemoryStore(t *testing.T) {
	s := NewMemory()
	defer s.Close()

	empty, err := s.List(0)
	if err != nil || empty != nil {
		t.Fatalf("expected empty list, got %v, %v", empty, err)
	}
	testStore(t, s)
}

func TestSQLiteStore(t *testing.T) {
	f, err := os.CreateTemp("", "manipulator-test-*.db")
	if err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}
	path := f.Name()
	f.Close()
	defer os.Remove(path)

	s, err := NewSQLite(path)
	if err != nil {
		t.Fatalf("Failed to create SQLite store: %v", err)
	}
	testStore(t, s)
	s.Close()

	// Reopen to verify persistence
	s2, err := NewSQLite(path)
	if err != nil {
		t.Fatalf("Failed to reopen SQLite store: %v", err)
	}
	defer s2.Close()

	all, err := s2.List(0)
	if err != nil {
		t.Fatalf("List after reopen failed: %v", err)
	}
	if len(all) != 3 || all[0].Original != "В" {
		t.Errorf("unexpected records after reopen: %+v", all)
	}
}

func TestSQLiteInMemory(t *testing.T) {
	s, err := NewSQLite(":memory:")
	if err != nil {
		t.Fatalf("NewSQLite: %v", err)
	}
	defer s.Close()
	testStore(t, s)
}

func TestSQLiteRejectsUnknownSchema(t *testing.T) {
	f, err := os.CreateTemp("", "manipulator-schema-*.db")
	if err != nil {
		t.Fatalf("temp file: %v", err)
	}
	path := f.Name()
	f.Close()
	defer os.Remove(path)

	s, err := NewSQLite(path)
	if err != nil {
		t.Fatalf("NewSQLite: %v", err)
	}
	if err := s.setMetadataUnlocked("schema_version", "99"); err != nil {
		t.Fatalf("set version: %v", err)
	}
	s.Close()

	if _, err := NewSQLite(path); err == nil {
		t.Error("expected error for unsupported schema version")
	}
}
