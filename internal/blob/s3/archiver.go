package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/quantfold/hftsim/internal/domain"
)

// FillArchiveStore provides the read and delete access the archiver needs.
// The Postgres FillStore satisfies it implicitly.
type FillArchiveStore interface {
	ListBefore(ctx context.Context, before time.Time) ([]domain.Fill, error)
	DeleteBefore(ctx context.Context, before time.Time) (int64, error)
}

// Archiver moves aged fills out of the primary store into object storage.
// Fills older than the cutoff are serialized to JSONL, uploaded to
// archive/fills/YYYY-MM.jsonl, and then deleted from the store.
type Archiver struct {
	writer domain.BlobWriter
	fills  FillArchiveStore
}

// NewArchiver creates a new Archiver.
func NewArchiver(writer domain.BlobWriter, fills FillArchiveStore) *Archiver {
	return &Archiver{writer: writer, fills: fills}
}

// ArchiveFills queries all fills before the cutoff, serializes them to
// JSONL, and uploads the file. The archived records are deleted from the
// primary store only after the upload succeeds. Returns the number of fills
// archived.
func (a *Archiver) ArchiveFills(ctx context.Context, before time.Time) (int64, error) {
	fills, err := a.fills.ListBefore(ctx, before)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive fills query: %w", err)
	}
	if len(fills) == 0 {
		return 0, nil
	}

	buf, err := marshalJSONL(fills)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive fills marshal: %w", err)
	}

	path := archivePath("fills", before)
	if err := a.writer.Put(ctx, path, bytes.NewReader(buf), "application/x-ndjson"); err != nil {
		return 0, fmt.Errorf("s3blob: archive fills upload: %w", err)
	}

	if _, err := a.fills.DeleteBefore(ctx, before); err != nil {
		return int64(len(fills)), fmt.Errorf("s3blob: archive fills prune: %w", err)
	}

	return int64(len(fills)), nil
}

// archivePath builds the S3 key for an archive file, partitioned by the
// year-month of the cutoff time.
//
//	archive/fills/2026-08.jsonl
func archivePath(kind string, before time.Time) string {
	return fmt.Sprintf("archive/%s/%s.jsonl", kind, before.Format("2006-01"))
}

// marshalJSONL serialises a slice of values as newline-delimited JSON. Each
// element is marshalled as a single compact JSON line followed by '\n'.
func marshalJSONL[T any](records []T) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	for i, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return nil, fmt.Errorf("jsonl encode record %d: %w", i, err)
		}
	}
	return buf.Bytes(), nil
}
