package history

import (
	"fmt"
	"testing"
)

// countingStore records how many times the backing store is hit.
type countingStore struct {
	saves int
	loads int
	recs  map[string]*Record
}

func newCountingStore() *countingStore {
	return &countingStore{recs: make(map[string]*Record)}
}

func (c *countingStore) Save(rec *Record) error {
	c.saves++
	c.recs[rec.ID] = rec
	return nil
}

func (c *countingStore) Load(id string) (*Record, error) {
	c.loads++
	rec, ok := c.recs[id]
	if !ok {
		return nil, fmt.Errorf("run %s not found", id)
	}
	return rec, nil
}

func (c *countingStore) List(limit int) ([]Summary, error) {
	var out []Summary
	for id := range c.recs {
		out = append(out, Summary{ID: id})
	}
	return out, nil
}

func TestLRU_SavePopulatesCache(t *testing.T) {
	back := newCountingStore()
	s := NewLRUStore(2, back)

	if err := s.Save(&Record{ID: "a"}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if back.saves != 1 {
		t.Errorf("backing saves = %d, want 1", back.saves)
	}

	if _, err := s.Load("a"); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if back.loads != 0 {
		t.Errorf("backing loads = %d, want 0 (cache hit)", back.loads)
	}
}

func TestLRU_EvictsLeastRecent(t *testing.T) {
	back := newCountingStore()
	s := NewLRUStore(2, back)

	for _, id := range []string{"a", "b", "c"} {
		if err := s.Save(&Record{ID: id}); err != nil {
			t.Fatalf("Save(%s): %v", id, err)
		}
	}

	// "a" was evicted; loading it hits the backing store.
	if _, err := s.Load("a"); err != nil {
		t.Fatalf("Load(a): %v", err)
	}
	if back.loads != 1 {
		t.Errorf("backing loads = %d, want 1 (miss on evicted entry)", back.loads)
	}

	// "c" is still cached.
	if _, err := s.Load("c"); err != nil {
		t.Fatalf("Load(c): %v", err)
	}
	if back.loads != 1 {
		t.Errorf("backing loads = %d, want 1 (hit on cached entry)", back.loads)
	}
}

func TestLRU_MissingRunPropagatesError(t *testing.T) {
	s := NewLRUStore(2, newCountingStore())
	if _, err := s.Load("nope"); err == nil {
		t.Fatal("expected error for missing run")
	}
}

func TestLRU_ListDelegates(t *testing.T) {
	back := newCountingStore()
	s := NewLRUStore(2, back)
	if err := s.Save(&Record{ID: "a"}); err != nil {
		t.Fatal(err)
	}
	got, err := s.List(10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 1 || got[0].ID != "a" {
		t.Errorf("List = %+v", got)
	}
}
