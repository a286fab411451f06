package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/vagahub/engine/internal/jobs"
)

// SourceStore implements store.SourceStore.
type SourceStore struct {
	pool dbPool
}

// NewSourceStore builds a SourceStore on an existing pool.
func NewSourceStore(pool dbPool) *SourceStore {
	return &SourceStore{pool: pool}
}

// Ensure implements store.SourceStore.
func (s *SourceStore) Ensure(ctx context.Context, name string, vendor jobs.VendorType, baseURL string) (jobs.SourceDescriptor, error) {
	insert := `
		INSERT INTO sources (id, name, vendor, base_url, enabled)
		VALUES ($1, $2, $3, $4, TRUE)
		ON CONFLICT (name, vendor) DO NOTHING;
	`
	if _, err := s.pool.Exec(ctx, insert, uuid.New(), name, string(vendor), baseURL); err != nil {
		return jobs.SourceDescriptor{}, fmt.Errorf("ensure source: %w", err)
	}

	query := `SELECT id, name, vendor, base_url, enabled FROM sources WHERE name = $1 AND vendor = $2;`
	var d jobs.SourceDescriptor
	var vendorText string
	err := s.pool.QueryRow(ctx, query, name, string(vendor)).Scan(&d.ID, &d.Name, &vendorText, &d.BaseURL, &d.Enabled)
	if err != nil {
		return jobs.SourceDescriptor{}, fmt.Errorf("get source: %w", err)
	}
	d.Vendor = jobs.VendorType(vendorText)
	return d, nil
}

// List implements store.SourceStore.
func (s *SourceStore) List(ctx context.Context) ([]jobs.SourceDescriptor, error) {
	query := `SELECT id, name, vendor, base_url, enabled FROM sources ORDER BY name;`
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list sources: %w", err)
	}
	defer rows.Close()

	var out []jobs.SourceDescriptor
	for rows.Next() {
		var d jobs.SourceDescriptor
		var vendorText string
		if err := rows.Scan(&d.ID, &d.Name, &vendorText, &d.BaseURL, &d.Enabled); err != nil {
			return nil, fmt.Errorf("scan source row: %w", err)
		}
		d.Vendor = jobs.VendorType(vendorText)
		out = append(out, d)
	}
	return out, rows.Err()
}
