// Package store declares the persistence interfaces for postings, sources
// and ingestion runs. Implementations live in internal/storage; this
// package must not import database drivers or concrete clients.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/vagahub/engine/internal/jobs"
)

// ErrNotFound signals that the requested record does not exist.
var ErrNotFound = errors.New("record not found")

// PostingStore persists canonical job postings and answers the lookups the
// merge step needs.
type PostingStore interface {
	// FindBySourceKey looks a posting up by its (vendor, source name,
	// source job id) identity.
	FindBySourceKey(ctx context.Context, vendor jobs.VendorType, sourceName, sourceJobID string) (*jobs.Posting, error)
	// FindBySourceURL looks a posting up by its canonical source URL.
	FindBySourceURL(ctx context.Context, sourceURL string) (*jobs.Posting, error)
	// FindByFingerprint looks a posting up by its content fingerprint.
	FindByFingerprint(ctx context.Context, fingerprint string) (*jobs.Posting, error)
	// Insert stores a new posting.
	Insert(ctx context.Context, posting *jobs.Posting) error
	// Update overwrites an existing posting by id.
	Update(ctx context.Context, posting *jobs.Posting) error
	// Get returns a posting by id.
	Get(ctx context.Context, id uuid.UUID) (*jobs.Posting, error)
	// ListStale returns non-expired postings of a (vendor, source) whose LastSeenAt
	// is strictly before the cutoff.
	ListStale(ctx context.Context, vendor jobs.VendorType, sourceName string, cutoff time.Time) ([]*jobs.Posting, error)
}

// SourceStore persists the configured sources.
type SourceStore interface {
	// Ensure inserts the source when missing and returns its descriptor.
	Ensure(ctx context.Context, name string, vendor jobs.VendorType, baseURL string) (jobs.SourceDescriptor, error)
	// List returns every known source.
	List(ctx context.Context) ([]jobs.SourceDescriptor, error)
}

// RunStore persists ingestion run records.
type RunStore interface {
	// Create inserts a new run in its initial state.
	Create(ctx context.Context, run *jobs.RunRecord) error
	// Update overwrites the run's status, counters and finish time.
	Update(ctx context.Context, run *jobs.RunRecord) error
	// Get returns a run by id.
	Get(ctx context.Context, id uuid.UUID) (jobs.RunRecord, error)
	// List returns runs ordered by start time descending.
	List(ctx context.Context, limit, offset int) ([]jobs.RunRecord, error)
}
