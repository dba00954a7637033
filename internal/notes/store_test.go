package notes

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"example.com/notes-api/internal/errs"
)

// fakeClock advances by step on every reading.
type fakeClock struct {
	t    time.Time
	step time.Duration
}

func (c *fakeClock) Now() time.Time {
	now := c.t
	c.t = c.t.Add(c.step)
	return now
}

func seqIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("note-%d", n)
	}
}

func newTestStore(step time.Duration) *MemoryStore {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), step: step}
	return NewMemoryStore(WithClock(clock.Now), WithIDGenerator(seqIDs()))
}

func TestMemoryStore_CreateGet(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(time.Second)

	n, err := s.Create(ctx, NewNote{Title: "A", Content: "B"})
	require.NoError(t, err)
	require.Equal(t, "note-1", n.ID)
	require.Equal(t, PriorityMedium, n.Priority)
	require.Equal(t, []string{}, n.Tags)
	require.Equal(t, n.CreatedAt, n.UpdatedAt)

	got, err := s.Get(ctx, n.ID)
	require.NoError(t, err)
	require.Equal(t, n, got)
}

func TestMemoryStore_DefaultIDsAreUUIDs(t *testing.T) {
	s := NewMemoryStore()
	n, err := s.Create(context.Background(), NewNote{Title: "t", Content: "c"})
	require.NoError(t, err)
	require.Len(t, n.ID, 36)
	require.NoError(t, NewValidator().ValidateID(n.ID))
}

func TestMemoryStore_RejectsBlankText(t *testing.T) {
	s := newTestStore(time.Second)
	_, err := s.Create(context.Background(), NewNote{Title: "  ", Content: "x"})
	require.True(t, errs.Is(err, errs.InvalidArgument))
	require.Equal(t, "title", errs.FieldsOf(err)[0].Field)
	require.Zero(t, s.Len())
}

func TestMemoryStore_UpdatePartial(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(time.Second)

	orig, err := s.Create(ctx, NewNote{Title: "t", Content: "c", Tags: []string{"x"}, Priority: PriorityLow})
	require.NoError(t, err)

	title := "t2"
	upd, err := s.Update(ctx, orig.ID, Patch{Title: &title})
	require.NoError(t, err)
	require.Equal(t, "t2", upd.Title)
	require.Equal(t, orig.Content, upd.Content)
	require.Equal(t, orig.Tags, upd.Tags)
	require.Equal(t, orig.Priority, upd.Priority)
	require.Equal(t, orig.CreatedAt, upd.CreatedAt)
	require.True(t, upd.UpdatedAt.After(orig.UpdatedAt))
}

func TestMemoryStore_UpdateStrictlyAdvancesWithFrozenClock(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(0)

	n, err := s.Create(ctx, NewNote{Title: "t", Content: "c"})
	require.NoError(t, err)

	first, err := s.Update(ctx, n.ID, Patch{})
	require.NoError(t, err)
	second, err := s.Update(ctx, n.ID, Patch{})
	require.NoError(t, err)

	require.True(t, first.UpdatedAt.After(n.UpdatedAt))
	require.True(t, second.UpdatedAt.After(first.UpdatedAt))
}

func TestMemoryStore_UpdateRejectsBlankTitle(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(time.Second)
	n, err := s.Create(ctx, NewNote{Title: "t", Content: "c"})
	require.NoError(t, err)

	blank := " "
	_, err = s.Update(ctx, n.ID, Patch{Title: &blank})
	require.True(t, errs.Is(err, errs.InvalidArgument))

	got, err := s.Get(ctx, n.ID)
	require.NoError(t, err)
	require.Equal(t, n, got)
}

func TestMemoryStore_NotFound(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(time.Second)

	_, err := s.Get(ctx, "missing")
	require.ErrorIs(t, err, ErrNotFound)
	_, err = s.Update(ctx, "missing", Patch{})
	require.ErrorIs(t, err, ErrNotFound)
	_, err = s.Delete(ctx, "missing")
	require.ErrorIs(t, err, ErrNotFound)
	require.True(t, errs.Is(err, errs.NotFound))
}

func TestMemoryStore_DeleteThenGet(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(time.Second)

	a, _ := s.Create(ctx, NewNote{Title: "a", Content: "c"})
	b, _ := s.Create(ctx, NewNote{Title: "b", Content: "c"})

	deleted, err := s.Delete(ctx, a.ID)
	require.NoError(t, err)
	require.Equal(t, a, deleted)

	_, err = s.Get(ctx, a.ID)
	require.ErrorIs(t, err, ErrNotFound)

	all, err := s.ListAll(ctx)
	require.NoError(t, err)
	require.Equal(t, []Note{b}, all)
}

func TestMemoryStore_ReturnedNotesDoNotAlias(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(time.Second)

	tags := []string{"one"}
	n, err := s.Create(ctx, NewNote{Title: "t", Content: "c", Tags: tags})
	require.NoError(t, err)
	tags[0] = "mutated"
	n.Tags[0] = "mutated too"

	all, _ := s.ListAll(ctx)
	all[0].Tags[0] = "again"

	got, err := s.Get(ctx, n.ID)
	require.NoError(t, err)
	require.Equal(t, []string{"one"}, got.Tags)
}

func TestMemoryStore_Seed(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(time.Second)

	require.NoError(t, s.Seed(ctx, DemoNotes()))
	n, err := s.Get(ctx, "demo-1")
	require.NoError(t, err)
	require.Equal(t, "Welcome to DevStream", n.Title)
	require.False(t, n.CreatedAt.IsZero())
	require.Equal(t, n.CreatedAt, n.UpdatedAt)

	err = s.Seed(ctx, DemoNotes())
	require.True(t, errs.Is(err, errs.InvalidArgument))
	require.Equal(t, 1, s.Len())

	err = s.Seed(ctx, []Note{{Title: "t", Content: "c"}})
	require.Error(t, err)
}

func TestMemoryStore_ConcurrentCreates(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	const workers = 16
	done := make(chan struct{})
	for i := 0; i < workers; i++ {
		go func() {
			defer func() { done <- struct{}{} }()
			for j := 0; j < 25; j++ {
				if _, err := s.Create(ctx, NewNote{Title: "t", Content: "c"}); err != nil {
					t.Error(err)
				}
			}
		}()
	}
	for i := 0; i < workers; i++ {
		<-done
	}

	all, err := s.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, workers*25)

	seen := map[string]bool{}
	for _, n := range all {
		require.False(t, seen[n.ID], "duplicate id %s", n.ID)
		seen[n.ID] = true
	}
}

// =============================================================================
// Property: partial updates leave untouched fields byte-identical
// =============================================================================

func testUpdate_UntouchedFields(t *rapid.T) {
	ctx := context.Background()
	s := newTestStore(time.Millisecond)

	orig, err := s.Create(ctx, NewNote{
		Title:    rapid.StringMatching(`[A-Za-z0-9]{1,20}`).Draw(t, "title"),
		Content:  rapid.StringMatching(`[A-Za-z0-9 ]{0,40}[a-z]`).Draw(t, "content"),
		Tags:     rapid.SliceOfN(rapid.StringMatching(`[a-z]{1,8}`), 0, 5).Draw(t, "tags"),
		Priority: rapid.SampledFrom([]Priority{PriorityLow, PriorityMedium, PriorityHigh}).Draw(t, "priority"),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	var p Patch
	if rapid.Bool().Draw(t, "touchTitle") {
		v := rapid.StringMatching(`[a-z]{1,10}`).Draw(t, "newTitle")
		p.Title = &v
	}
	if rapid.Bool().Draw(t, "touchPriority") {
		v := rapid.SampledFrom([]Priority{PriorityLow, PriorityHigh}).Draw(t, "newPriority")
		p.Priority = &v
	}

	upd, err := s.Update(ctx, orig.ID, p)
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	if p.Title == nil && upd.Title != orig.Title {
		t.Fatalf("title changed: %q -> %q", orig.Title, upd.Title)
	}
	if p.Priority == nil && upd.Priority != orig.Priority {
		t.Fatalf("priority changed: %q -> %q", orig.Priority, upd.Priority)
	}
	if upd.Content != orig.Content {
		t.Fatalf("content changed")
	}
	if fmt.Sprint(upd.Tags) != fmt.Sprint(orig.Tags) {
		t.Fatalf("tags changed: %v -> %v", orig.Tags, upd.Tags)
	}
	if !upd.CreatedAt.Equal(orig.CreatedAt) {
		t.Fatalf("createdAt changed")
	}
	if !upd.UpdatedAt.After(orig.UpdatedAt) {
		t.Fatalf("updatedAt did not advance: %v -> %v", orig.UpdatedAt, upd.UpdatedAt)
	}
}

func TestUpdate_UntouchedFields(t *testing.T) {
	rapid.Check(t, testUpdate_UntouchedFields)
}

// =============================================================================
// Property: delete followed by get is always NotFound
// =============================================================================

func testDelete_ThenGetNotFound(t *rapid.T) {
	ctx := context.Background()
	s := newTestStore(time.Second)

	count := rapid.IntRange(1, 10).Draw(t, "count")
	ids := make([]string, count)
	for i := range ids {
		n, err := s.Create(ctx, NewNote{Title: "t", Content: "c"})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		ids[i] = n.ID
	}

	victim := rapid.SampledFrom(ids).Draw(t, "victim")
	if _, err := s.Delete(ctx, victim); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.Get(ctx, victim); !errs.Is(err, errs.NotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
	if s.Len() != count-1 {
		t.Fatalf("expected %d notes, got %d", count-1, s.Len())
	}
}

func TestDelete_ThenGetNotFound(t *testing.T) {
	rapid.Check(t, testDelete_ThenGetNotFound)
}
