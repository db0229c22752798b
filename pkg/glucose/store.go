package glucose

import (
	"errors"
	"fmt"
	"sync"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// ErrDuplicateSequenceNumber is matched by every *DuplicateError
var ErrDuplicateSequenceNumber = errors.New("duplicate sequence number")

// DuplicateError reports a record or context whose sequence number is already held.
// BLE retransmissions surface as this error; callers decide whether it is benign.
type DuplicateError struct {
	SequenceNumber uint16
	What           string // "record" or "context"
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("%s: %s #%d", ErrDuplicateSequenceNumber, e.What, e.SequenceNumber)
}

func (e *DuplicateError) Unwrap() error { return ErrDuplicateSequenceNumber }

// Entry pairs a record with its context, if one has arrived
type Entry struct {
	Record  *Record  `json:"record"`
	Context *Context `json:"context,omitempty"`
}

// RecordStore accumulates the records and contexts of one measurement session.
// Records are kept in ascending sequence-number order. Contexts that arrive before
// their record are held until it shows up.
//
// A single mutex guards the whole store, so it may be shared between the
// notification delivery context and readers.
type RecordStore struct {
	mu      sync.Mutex
	records *orderedmap.OrderedMap[uint16, *Entry]
	pending map[uint16]*Context
}

// NewRecordStore creates an empty store
func NewRecordStore() *RecordStore {
	return &RecordStore{
		records: orderedmap.New[uint16, *Entry](),
		pending: make(map[uint16]*Context),
	}
}

// InsertRecord adds rec, attaching any context already buffered for its sequence number.
func (s *RecordStore) InsertRecord(rec *Record) error {
	if rec == nil {
		return errors.New("nil record")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	seq := rec.SequenceNumber
	if _, exists := s.records.Get(seq); exists {
		return &DuplicateError{SequenceNumber: seq, What: "record"}
	}

	entry := &Entry{Record: rec}
	if ctx, ok := s.pending[seq]; ok {
		entry.Context = ctx
		delete(s.pending, seq)
	}
	s.records.Set(seq, entry)

	// Records mostly arrive in order, so walk back from the tail to find the slot.
	var mark *orderedmap.Pair[uint16, *Entry]
	for p := s.records.Newest().Prev(); p != nil && p.Key > seq; p = p.Prev() {
		mark = p
	}
	if mark != nil {
		if err := s.records.MoveBefore(seq, mark.Key); err != nil {
			return fmt.Errorf("failed to order record #%d: %w", seq, err)
		}
	}
	return nil
}

// MergeContext attaches ctx to the record with the same sequence number, or buffers it
// until that record is inserted. A second context for the same number is a duplicate.
func (s *RecordStore) MergeContext(ctx *Context) error {
	if ctx == nil {
		return errors.New("nil context")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	seq := ctx.SequenceNumber
	if entry, ok := s.records.Get(seq); ok {
		if entry.Context != nil {
			return &DuplicateError{SequenceNumber: seq, What: "context"}
		}
		entry.Context = ctx
		return nil
	}

	if _, ok := s.pending[seq]; ok {
		return &DuplicateError{SequenceNumber: seq, What: "context"}
	}
	s.pending[seq] = ctx
	return nil
}

// AllRecords returns a snapshot of the entries in ascending sequence-number order
func (s *RecordStore) AllRecords() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Entry, 0, s.records.Len())
	for p := s.records.Oldest(); p != nil; p = p.Next() {
		out = append(out, *p.Value)
	}
	return out
}

// Get returns the entry for seq
func (s *RecordStore) Get(seq uint16) (Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.records.Get(seq)
	if !ok {
		return Entry{}, false
	}
	return *entry, true
}

// Len returns the number of records held
func (s *RecordStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.records.Len()
}

// PendingContexts returns the number of contexts still waiting for their record
func (s *RecordStore) PendingContexts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// LastSequenceNumber returns the highest sequence number held
func (s *RecordStore) LastSequenceNumber() (uint16, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	newest := s.records.Newest()
	if newest == nil {
		return 0, false
	}
	return newest.Key, true
}

// Clear drops every record and every buffered context in one step
func (s *RecordStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = orderedmap.New[uint16, *Entry]()
	s.pending = make(map[uint16]*Context)
}
