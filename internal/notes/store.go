package notes

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"example.com/notes-api/internal/errs"
	"example.com/notes-api/internal/stringsx"
)

// ErrNotFound is returned when no note has the requested id.
var ErrNotFound = errs.New(errs.NotFound, "Note not found")

// MemoryStore owns the process-lifetime collection of notes.
// Each method runs atomically with respect to the others.
type MemoryStore struct {
	mu    sync.RWMutex
	notes []Note

	now   func() time.Time
	newID func() string
}

// StoreOption configures a MemoryStore.
type StoreOption func(*MemoryStore)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) StoreOption {
	return func(s *MemoryStore) { s.now = now }
}

// WithIDGenerator replaces the random UUID generator.
func WithIDGenerator(newID func() string) StoreOption {
	return func(s *MemoryStore) { s.newID = newID }
}

func NewMemoryStore(opts ...StoreOption) *MemoryStore {
	s := &MemoryStore{
		notes: make([]Note, 0, 32),
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create assigns an id and timestamps and appends the note.
func (s *MemoryStore) Create(_ context.Context, in NewNote) (Note, error) {
	if err := checkText(in.Title, in.Content); err != nil {
		return Note{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	n := Note{
		ID:        s.uniqueID(),
		Title:     in.Title,
		Content:   in.Content,
		Tags:      append(make([]string, 0, len(in.Tags)), in.Tags...),
		Priority:  in.Priority,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if n.Priority == "" {
		n.Priority = PriorityMedium
	}
	s.notes = append(s.notes, n)
	return n.Clone(), nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexOf(id)
	if i < 0 {
		return Note{}, ErrNotFound
	}
	return s.notes[i].Clone(), nil
}

// Update applies the fields present in p and refreshes UpdatedAt.
func (s *MemoryStore) Update(_ context.Context, id string, p Patch) (Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return Note{}, ErrNotFound
	}

	n := s.notes[i].Clone()
	if p.Title != nil {
		n.Title = *p.Title
	}
	if p.Content != nil {
		n.Content = *p.Content
	}
	if p.Tags != nil {
		n.Tags = append(make([]string, 0, len(*p.Tags)), *p.Tags...)
	}
	if p.Priority != nil {
		n.Priority = *p.Priority
	}
	if err := checkText(n.Title, n.Content); err != nil {
		return Note{}, err
	}
	n.UpdatedAt = s.after(n.UpdatedAt)

	s.notes[i] = n
	return n.Clone(), nil
}

// Delete removes the note and returns it.
func (s *MemoryStore) Delete(_ context.Context, id string) (Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return Note{}, ErrNotFound
	}
	deleted := s.notes[i]
	s.notes = slices.Delete(s.notes, i, i+1)
	return deleted, nil
}

// ListAll returns every note in insertion order. The result is a copy.
func (s *MemoryStore) ListAll(_ context.Context) ([]Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Note, len(s.notes))
	for i, n := range s.notes {
		out[i] = n.Clone()
	}
	return out, nil
}

// Seed inserts fully formed notes, keeping their ids. Missing timestamps
// and priority are filled in.
func (s *MemoryStore) Seed(_ context.Context, seed []Note) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	seen := make(map[string]struct{}, len(seed))
	for _, n := range seed {
		if n.ID == "" {
			return errs.New(errs.InvalidArgument, "seed note without id")
		}
		if _, dup := seen[n.ID]; dup || s.indexOf(n.ID) >= 0 {
			return errs.New(errs.InvalidArgument, fmt.Sprintf("duplicate note id %q", n.ID))
		}
		if err := checkText(n.Title, n.Content); err != nil {
			return err
		}
		seen[n.ID] = struct{}{}
	}

	for _, n := range seed {
		n = n.Clone()
		if n.Priority == "" {
			n.Priority = PriorityMedium
		}
		if n.CreatedAt.IsZero() {
			n.CreatedAt = now
		}
		if n.UpdatedAt.Before(n.CreatedAt) {
			n.UpdatedAt = n.CreatedAt
		}
		n.CreatedAt, n.UpdatedAt = n.CreatedAt.UTC(), n.UpdatedAt.UTC()
		s.notes = append(s.notes, n)
	}
	return nil
}

// Len returns the number of live notes.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.notes)
}

func (s *MemoryStore) indexOf(id string) int {
	return slices.IndexFunc(s.notes, func(n Note) bool { return n.ID == id })
}

func (s *MemoryStore) uniqueID() string {
	for {
		id := s.newID()
		if s.indexOf(id) < 0 {
			return id
		}
	}
}

// after returns the current time, nudged forward so it is strictly later
// than prev even when the clock has not advanced.
func (s *MemoryStore) after(prev time.Time) time.Time {
	now := s.now().UTC()
	if !now.After(prev) {
		now = prev.Add(time.Nanosecond)
	}
	return now
}

func checkText(title, content string) error {
	var fields []errs.FieldError
	if stringsx.IsEmpty(title) {
		fields = append(fields, errs.FieldError{Field: "title", Message: msgTitle})
	}
	if stringsx.IsEmpty(content) {
		fields = append(fields, errs.FieldError{Field: "content", Message: msgContent})
	}
	if len(fields) > 0 {
		return errs.Invalid(MsgValidationFailed, fields)
	}
	return nil
}
