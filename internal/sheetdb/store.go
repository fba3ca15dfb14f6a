package sheetdb

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/evensia-dev/evensia/internal/common"
)

// Recorder is the contract shared by the embedded store and the remote
// scripting-endpoint client.
type Recorder interface {
	// List returns every row of a sheet.
	List(ctx context.Context, sheet string) ([]Record, error)
	// Create appends a record using the given action tag and returns the
	// record as acknowledged by the store.
	Create(ctx context.Context, sheet, action string, rec Record) (Record, error)
}

// Store is the embedded sheet engine: named tables behind one lock, with
// per-sheet JSON persistence running in background goroutines.
type Store struct {
	mu        sync.RWMutex
	tables    map[string]*Table
	persister *Persistence
	wg        sync.WaitGroup
	now       func() time.Time
}

// NewStore initializes a store from previously persisted sheets. The
// persister may be nil for a purely in-memory store.
func NewStore(initial map[string]tableSnapshot, p *Persistence) *Store {
	tables := make(map[string]*Table, len(initial))
	for name, snap := range initial {
		tables[name] = fromSnapshot(snap)
	}
	return &Store{
		tables:    tables,
		persister: p,
		now:       time.Now,
	}
}

// Wait blocks until all background persistence tasks complete.
func (s *Store) Wait() {
	s.wg.Wait()
}

// Sheets returns the names of all existing sheets.
func (s *Store) Sheets() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.tables))
	for name := range s.tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// List implements Recorder. Unlike create, reads never auto-create a sheet.
func (s *Store) List(_ context.Context, sheet string) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tables[sheet]
	if !ok {
		return nil, common.ErrSheetNotFound
	}
	return t.Records(), nil
}

// Create implements Recorder. rsvp and upload_photo stamp creation timestamps
// when the caller left them out; otherwise all three append actions behave
// identically.
func (s *Store) Create(ctx context.Context, sheet, action string, rec Record) (Record, error) {
	return s.CreateOrdered(ctx, sheet, action, rec, nil)
}

// CreateOrdered is Create with an explicit field order for the column
// registry. A nil order falls back to sorted field names.
func (s *Store) CreateOrdered(_ context.Context, sheet, action string, rec Record, fieldOrder []string) (Record, error) {
	stamped := stampAction(action, rec, s.now())
	if fieldOrder == nil {
		fieldOrder = sortedFields(stamped)
	} else {
		fieldOrder = appendMissing(fieldOrder, stamped)
	}

	s.mu.Lock()
	t, ok := s.tables[sheet]
	if !ok {
		t = NewTable()
		s.tables[sheet] = t
	}
	t.Append(stamped, fieldOrder)
	snap := t.snapshot()
	s.mu.Unlock()

	s.persist(sheet, snap)
	return stamped, nil
}

// Update overwrites fields of the row whose id column matches id.
func (s *Store) Update(_ context.Context, sheet, id string, rec Record) error {
	s.mu.Lock()
	t, ok := s.tables[sheet]
	if !ok {
		s.mu.Unlock()
		return common.ErrSheetNotFound
	}
	i := t.findRow(id)
	if i < 0 {
		s.mu.Unlock()
		return fmt.Errorf("record %s: %w", id, common.ErrNotFound)
	}
	t.update(i, rec, sortedFields(rec))
	snap := t.snapshot()
	s.mu.Unlock()

	s.persist(sheet, snap)
	return nil
}

// Delete removes the row whose id column matches id.
func (s *Store) Delete(_ context.Context, sheet, id string) error {
	s.mu.Lock()
	t, ok := s.tables[sheet]
	if !ok {
		s.mu.Unlock()
		return common.ErrSheetNotFound
	}
	i := t.findRow(id)
	if i < 0 {
		s.mu.Unlock()
		return fmt.Errorf("record %s: %w", id, common.ErrNotFound)
	}
	t.deleteRow(i)
	snap := t.snapshot()
	s.mu.Unlock()

	s.persist(sheet, snap)
	return nil
}

// Headers returns a sheet's column registry in first-seen order.
func (s *Store) Headers(sheet string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tables[sheet]
	if !ok {
		return nil, common.ErrSheetNotFound
	}
	return t.Headers(), nil
}

func (s *Store) persist(sheet string, snap tableSnapshot) {
	if s.persister == nil {
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.persister.SaveSheet(sheet, snap)
	}()
}

// stampAction applies the server-side timestamp behavior of the rsvp and
// upload_photo actions without mutating the caller's map.
func stampAction(action string, rec Record, now time.Time) Record {
	out := make(Record, len(rec)+2)
	for k, v := range rec {
		out[k] = v
	}
	iso := now.UTC().Format(time.RFC3339)
	switch action {
	case ActionRSVP:
		if isEmpty(out["created_at"]) {
			out["created_at"] = iso
		}
		if isEmpty(out["updated_at"]) {
			out["updated_at"] = iso
		}
	case ActionUploadPhoto:
		if isEmpty(out["createdAt"]) {
			out["createdAt"] = iso
		}
	}
	return out
}

func isEmpty(v any) bool {
	return v == nil || v == ""
}

func sortedFields(rec Record) []string {
	names := make([]string, 0, len(rec))
	for name := range rec {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// appendMissing extends order with any record fields it does not mention,
// so stamped timestamps still land in the registry.
func appendMissing(order []string, rec Record) []string {
	seen := make(map[string]bool, len(order))
	for _, name := range order {
		seen[name] = true
	}
	out := append([]string(nil), order...)
	for _, name := range sortedFields(rec) {
		if !seen[name] {
			out = append(out, name)
		}
	}
	return out
}
