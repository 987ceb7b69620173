package domain

import (
	"context"
	"io"
	"time"
)

// FillStore persists executed fills. Fills are the only state this system
// persists; book state is deliberately kept in memory only.
type FillStore interface {
	Insert(ctx context.Context, fill Fill) error
	InsertBatch(ctx context.Context, fills []Fill) error
	ListBySymbol(ctx context.Context, symbol string, limit int) ([]Fill, error)
	ListBefore(ctx context.Context, before time.Time) ([]Fill, error)
	DeleteBefore(ctx context.Context, before time.Time) (int64, error)
}

// BlobWriter uploads a named object to blob storage. Implemented by the S3
// writer and used by the fill archiver.
type BlobWriter interface {
	Put(ctx context.Context, path string, data io.Reader, contentType string) error
}
