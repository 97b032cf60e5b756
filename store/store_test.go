package store

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ByLCY/folio/highlight"
)

func openMemory(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	clock := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	s.Now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	return s
}

func TestAddAssignsIDAndTimestamp(t *testing.T) {
	s := openMemory(t)
	ctx := context.Background()
	h, err := s.Add(ctx, highlight.Draft{Text: "quick brown", Color: highlight.Green, Scope: "ch1", Tags: []string{"a"}})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if _, err := uuid.Parse(h.ID); err != nil {
		t.Fatalf("id is not a uuid: %q", h.ID)
	}
	if !h.CreatedAt.Equal(time.Date(2026, 5, 1, 8, 0, 1, 0, time.UTC)) {
		t.Fatalf("unexpected timestamp %v", h.CreatedAt)
	}

	got, err := s.List(ctx, "ch1")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || !reflect.DeepEqual(got[0], h) {
		t.Fatalf("stored highlight differs:\n got %+v\nwant %+v", got, h)
	}
}

func TestAddRejectsInvalidDraft(t *testing.T) {
	s := openMemory(t)
	if err := s.AddHighlight(highlight.Draft{Text: " ", Color: highlight.Red, Scope: "x"}); !errors.Is(err, highlight.ErrEmptyText) {
		t.Fatalf("expected ErrEmptyText, got %v", err)
	}
	if err := s.AddHighlight(highlight.Draft{Text: "x", Color: "pink", Scope: "x"}); !errors.Is(err, highlight.ErrUnknownColor) {
		t.Fatalf("expected ErrUnknownColor, got %v", err)
	}
}

func TestListFiltersByScope(t *testing.T) {
	s := openMemory(t)
	for _, d := range []highlight.Draft{
		{Text: "a", Color: highlight.Yellow, Scope: "ch1"},
		{Text: "b", Color: highlight.Blue, Scope: "ch2"},
		{Text: "c", Color: highlight.Red, Scope: "ch1"},
	} {
		if err := s.AddHighlight(d); err != nil {
			t.Fatal(err)
		}
	}
	ch1, err := s.List(context.Background(), "ch1")
	if err != nil {
		t.Fatal(err)
	}
	if len(ch1) != 2 || ch1[0].Text != "a" || ch1[1].Text != "c" {
		t.Fatalf("unexpected ch1 list: %+v", ch1)
	}
	all, err := s.All(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 || all[2].Scope != "ch2" {
		t.Fatalf("unexpected full list: %+v", all)
	}
}

func TestRemove(t *testing.T) {
	s := openMemory(t)
	ctx := context.Background()
	h, err := s.Add(ctx, highlight.Draft{Text: "fox", Color: highlight.Red, Scope: "ch1"})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.RemoveHighlight(h.ID); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if err := s.RemoveHighlight(h.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if left, _ := s.List(ctx, "ch1"); len(left) != 0 {
		t.Fatalf("highlight should be gone: %+v", left)
	}
}

func TestImportKeepsIdentityAndPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "folio.db")
	s, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	in := highlight.Highlight{ID: "h1", Text: "jumps", Color: highlight.Blue, Scope: "ch2", Note: "n",
		CreatedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	if _, err := s.Import(context.Background(), in); err != nil {
		t.Fatalf("Import: %v", err)
	}
	s.Close()

	reopened, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer reopened.Close()
	got, err := reopened.List(context.Background(), "ch2")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || !reflect.DeepEqual(got[0], in) {
		t.Fatalf("imported highlight differs:\n got %+v\nwant %+v", got, in)
	}
}
