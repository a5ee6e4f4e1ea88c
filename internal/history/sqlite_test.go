package history

import (
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testRecord(id string) *Record {
	return &Record{
		ID:         id,
		StartedAt:  time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		Aborted:    true,
		TimedOut:   false,
		Elapsed:    1500 * time.Millisecond,
		Transcript: "# Command 1: echo hi\nhi\n\nERROR: Command failed with exit code 1",
		Commands: []CommandRecord{
			{Position: 1, Command: "echo hi", ExitCode: 0, Output: "hi"},
			{Position: 2, Command: "exit 1", ExitCode: 1, Output: ""},
		},
	}
}

func TestSQLite_SaveLoad(t *testing.T) {
	s := newTestStore(t)

	want := testRecord("run-1")
	if err := s.Save(want); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := s.Load("run-1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Transcript != want.Transcript {
		t.Errorf("Transcript = %q, want %q", got.Transcript, want.Transcript)
	}
	if !got.Aborted || got.TimedOut {
		t.Errorf("Aborted/TimedOut = %v/%v, want true/false", got.Aborted, got.TimedOut)
	}
	if got.Elapsed != want.Elapsed {
		t.Errorf("Elapsed = %v, want %v", got.Elapsed, want.Elapsed)
	}
	if !got.StartedAt.Equal(want.StartedAt) {
		t.Errorf("StartedAt = %v, want %v", got.StartedAt, want.StartedAt)
	}
	if len(got.Commands) != 2 {
		t.Fatalf("len(Commands) = %d, want 2", len(got.Commands))
	}
	if got.Commands[1].ExitCode != 1 || got.Commands[1].Command != "exit 1" {
		t.Errorf("Commands[1] = %+v", got.Commands[1])
	}
}

func TestSQLite_LoadMissing(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.Load("no-such-run"); err == nil {
		t.Fatal("expected error for missing run")
	}
}

func TestSQLite_SaveReplaces(t *testing.T) {
	s := newTestStore(t)

	rec := testRecord("run-1")
	if err := s.Save(rec); err != nil {
		t.Fatalf("Save: %v", err)
	}
	rec.Commands = rec.Commands[:1]
	rec.Transcript = "updated"
	if err := s.Save(rec); err != nil {
		t.Fatalf("re-Save: %v", err)
	}

	got, err := s.Load("run-1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Transcript != "updated" {
		t.Errorf("Transcript = %q, want updated", got.Transcript)
	}
	if len(got.Commands) != 1 {
		t.Errorf("len(Commands) = %d, want 1 after replace", len(got.Commands))
	}
}

func TestSQLite_List(t *testing.T) {
	s := newTestStore(t)

	for i, id := range []string{"a", "b", "c"} {
		rec := testRecord(id)
		rec.StartedAt = rec.StartedAt.Add(time.Duration(i) * time.Hour)
		if err := s.Save(rec); err != nil {
			t.Fatalf("Save(%s): %v", id, err)
		}
	}

	got, err := s.List(2)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	// Newest first.
	if got[0].ID != "c" || got[1].ID != "b" {
		t.Errorf("order = %s,%s, want c,b", got[0].ID, got[1].ID)
	}
	if got[0].Commands != 2 {
		t.Errorf("Commands = %d, want 2", got[0].Commands)
	}
}
