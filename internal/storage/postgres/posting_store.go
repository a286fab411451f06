package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/vagahub/engine/internal/jobs"
	"github.com/vagahub/engine/internal/store"
)

// PostingStore implements store.PostingStore. Postings are kept as a JSONB
// document alongside the indexed identity columns the merge lookups need.
type PostingStore struct {
	pool dbPool
}

// NewPostingStore builds a PostingStore on an existing pool.
func NewPostingStore(pool dbPool) *PostingStore {
	return &PostingStore{pool: pool}
}

// FindBySourceKey implements store.PostingStore.
func (s *PostingStore) FindBySourceKey(ctx context.Context, vendor jobs.VendorType, sourceName, sourceJobID string) (*jobs.Posting, error) {
	query := `SELECT doc FROM postings WHERE source_vendor = $1 AND source_name = $2 AND source_job_id = $3;`
	return s.queryPosting(ctx, query, string(vendor), sourceName, sourceJobID)
}

// FindBySourceURL implements store.PostingStore.
func (s *PostingStore) FindBySourceURL(ctx context.Context, sourceURL string) (*jobs.Posting, error) {
	query := `SELECT doc FROM postings WHERE lower(source_url) = lower($1);`
	return s.queryPosting(ctx, query, sourceURL)
}

// FindByFingerprint implements store.PostingStore.
func (s *PostingStore) FindByFingerprint(ctx context.Context, fingerprint string) (*jobs.Posting, error) {
	query := `SELECT doc FROM postings WHERE fingerprint = $1 LIMIT 1;`
	return s.queryPosting(ctx, query, fingerprint)
}

// Get implements store.PostingStore.
func (s *PostingStore) Get(ctx context.Context, id uuid.UUID) (*jobs.Posting, error) {
	query := `SELECT doc FROM postings WHERE id = $1;`
	return s.queryPosting(ctx, query, id)
}

// Insert implements store.PostingStore.
func (s *PostingStore) Insert(ctx context.Context, posting *jobs.Posting) error {
	doc, err := json.Marshal(posting)
	if err != nil {
		return fmt.Errorf("marshal posting: %w", err)
	}
	query := `
		INSERT INTO postings (id, source_vendor, source_name, source_job_id, source_url, fingerprint, status, last_seen_at, doc)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);
	`
	_, err = s.pool.Exec(ctx, query,
		posting.ID,
		string(posting.Source.Vendor),
		posting.Source.Name,
		posting.Source.SourceJobID,
		posting.Source.URL,
		posting.Dedupe.Fingerprint,
		posting.Status.String(),
		posting.LastSeenAt,
		doc,
	)
	if err != nil {
		return fmt.Errorf("insert posting: %w", err)
	}
	return nil
}

// Update implements store.PostingStore.
func (s *PostingStore) Update(ctx context.Context, posting *jobs.Posting) error {
	doc, err := json.Marshal(posting)
	if err != nil {
		return fmt.Errorf("marshal posting: %w", err)
	}
	query := `
		UPDATE postings
		SET source_vendor = $2, source_name = $3, source_job_id = $4, source_url = $5,
			fingerprint = $6, status = $7, last_seen_at = $8, doc = $9
		WHERE id = $1;
	`
	tag, err := s.pool.Exec(ctx, query,
		posting.ID,
		string(posting.Source.Vendor),
		posting.Source.Name,
		posting.Source.SourceJobID,
		posting.Source.URL,
		posting.Dedupe.Fingerprint,
		posting.Status.String(),
		posting.LastSeenAt,
		doc,
	)
	if err != nil {
		return fmt.Errorf("update posting: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

// ListStale implements store.PostingStore.
func (s *PostingStore) ListStale(ctx context.Context, vendor jobs.VendorType, sourceName string, cutoff time.Time) ([]*jobs.Posting, error) {
	query := `
		SELECT doc FROM postings
		WHERE source_vendor = $1 AND source_name = $2 AND status <> 'Expired' AND last_seen_at < $3
		ORDER BY last_seen_at ASC;
	`
	rows, err := s.pool.Query(ctx, query, string(vendor), sourceName, cutoff)
	if err != nil {
		return nil, fmt.Errorf("list stale postings: %w", err)
	}
	defer rows.Close()

	var stale []*jobs.Posting
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("scan posting row: %w", err)
		}
		posting, err := unmarshalPosting(doc)
		if err != nil {
			return nil, err
		}
		stale = append(stale, posting)
	}
	return stale, rows.Err()
}

func (s *PostingStore) queryPosting(ctx context.Context, query string, args ...any) (*jobs.Posting, error) {
	var doc []byte
	err := s.pool.QueryRow(ctx, query, args...).Scan(&doc)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("query posting: %w", err)
	}
	return unmarshalPosting(doc)
}

func unmarshalPosting(doc []byte) (*jobs.Posting, error) {
	var posting jobs.Posting
	if err := json.Unmarshal(doc, &posting); err != nil {
		return nil, fmt.Errorf("unmarshal posting: %w", err)
	}
	return &posting, nil
}
