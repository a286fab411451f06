// Package search defines the index abstraction postings are pushed into
// after every insert, merge or expiry. Implementations live in the
// subpackages; Noop serves deployments that run without a search backend.
package search

import (
	"context"
	"time"

	"github.com/vagahub/engine/internal/jobs"
)

// Document is the flattened search projection of a posting.
type Document struct {
	ID             string     `json:"id"`
	Title          string     `json:"title"`
	CompanyName    string     `json:"companyName"`
	LocationText   string     `json:"locationText"`
	WorkMode       string     `json:"workMode"`
	Seniority      string     `json:"seniority"`
	EmploymentType string     `json:"employmentType"`
	Tags           []string   `json:"tags"`
	PostedAt       *time.Time `json:"postedAt,omitempty"`
	CapturedAt     time.Time  `json:"capturedAt"`
	SourceName     string     `json:"sourceName"`
	SourceURL      string     `json:"sourceUrl"`
	Fingerprint    string     `json:"fingerprint"`
	Status         string     `json:"status"`
}

// FromPosting projects a posting into its search document.
func FromPosting(p *jobs.Posting) Document {
	return Document{
		ID:             p.ID.String(),
		Title:          p.Title,
		CompanyName:    p.Company.Name,
		LocationText:   p.LocationText,
		WorkMode:       p.WorkMode.String(),
		Seniority:      p.Seniority.String(),
		EmploymentType: p.Employment.String(),
		Tags:           append([]string(nil), p.Tags...),
		PostedAt:       p.PostedAt,
		CapturedAt:     p.CapturedAt,
		SourceName:     p.Source.Name,
		SourceURL:      p.Source.URL,
		Fingerprint:    p.Dedupe.Fingerprint,
		Status:         p.Status.String(),
	}
}

// Index receives posting documents keyed by id; pushing an existing id
// replaces the stored document.
type Index interface {
	// EnsureReady prepares the backing index (mappings, settings).
	EnsureReady(ctx context.Context) error
	// Upsert adds or replaces documents.
	Upsert(ctx context.Context, docs []Document) error
	// Search runs a free-text query.
	Search(ctx context.Context, query string, limit int) ([]Document, error)
	// Close releases the backing resources.
	Close() error
}

// Noop is an Index that drops everything.
type Noop struct{}

// EnsureReady implements Index.
func (Noop) EnsureReady(context.Context) error { return nil }

// Upsert implements Index.
func (Noop) Upsert(context.Context, []Document) error { return nil }

// Search implements Index.
func (Noop) Search(context.Context, string, int) ([]Document, error) { return nil, nil }

// Close implements Index.
func (Noop) Close() error { return nil }
