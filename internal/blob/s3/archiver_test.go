package s3blob

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/quantfold/hftsim/internal/domain"
)

type fakeWriter struct {
	path string
	data []byte
}

func (w *fakeWriter) Put(_ context.Context, path string, data io.Reader, _ string) error {
	w.path = path
	b, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	w.data = b
	return nil
}

type fakeFillStore struct {
	fills   []domain.Fill
	deleted *time.Time
}

func (s *fakeFillStore) ListBefore(_ context.Context, before time.Time) ([]domain.Fill, error) {
	var out []domain.Fill
	for _, f := range s.fills {
		if f.FilledAt.Before(before) {
			out = append(out, f)
		}
	}
	return out, nil
}

func (s *fakeFillStore) DeleteBefore(_ context.Context, before time.Time) (int64, error) {
	s.deleted = &before
	return int64(len(s.fills)), nil
}

func TestArchiveFillsUploadsJSONLAndPrunes(t *testing.T) {
	cutoff := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	store := &fakeFillStore{fills: []domain.Fill{
		{ID: "a", Symbol: "ACME", Side: domain.SideBuy, Price: 101, Size: 5, FilledAt: cutoff.Add(-time.Hour)},
		{ID: "b", Symbol: "ACME", Side: domain.SideSell, Price: 100, Size: 3, FilledAt: cutoff.Add(-2 * time.Hour)},
	}}
	writer := &fakeWriter{}

	n, err := NewArchiver(writer, store).ArchiveFills(context.Background(), cutoff)
	if err != nil {
		t.Fatalf("archive: %v", err)
	}
	if n != 2 {
		t.Fatalf("archived = %d, want 2", n)
	}
	if writer.path != "archive/fills/2026-08.jsonl" {
		t.Fatalf("path = %q", writer.path)
	}
	lines := bytes.Split(bytes.TrimSpace(writer.data), []byte("\n"))
	if len(lines) != 2 {
		t.Fatalf("jsonl lines = %d, want 2", len(lines))
	}
	if !strings.Contains(string(lines[0]), `"id":"a"`) {
		t.Fatalf("first line missing fill id: %s", lines[0])
	}
	if store.deleted == nil || !store.deleted.Equal(cutoff) {
		t.Fatalf("prune cutoff = %v, want %v", store.deleted, cutoff)
	}
}

func TestArchiveFillsEmptyIsNoop(t *testing.T) {
	store := &fakeFillStore{}
	writer := &fakeWriter{}

	n, err := NewArchiver(writer, store).ArchiveFills(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("archive: %v", err)
	}
	if n != 0 {
		t.Fatalf("archived = %d, want 0", n)
	}
	if writer.path != "" {
		t.Fatalf("unexpected upload to %q", writer.path)
	}
	if store.deleted != nil {
		t.Fatal("prune must not run for empty archive")
	}
}
