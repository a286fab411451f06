// Package source defines the adapter contract every external job site
// implements, plus the adapters themselves. An adapter only fetches and
// parses; canonicalization, dedupe and persistence belong to the ingest
// pipeline.
package source

import (
	"context"
	"time"

	"github.com/vagahub/engine/internal/jobs"
)

// Options bounds one adapter run.
type Options struct {
	// MaxItems caps how many candidates the adapter may emit.
	MaxItems int
	// MaxDetailFetch caps how many detail pages the adapter may fetch to
	// enrich descriptions.
	MaxDetailFetch int
}

// Candidate is one job observation as the adapter saw it, before
// canonicalization.
type Candidate struct {
	Title              string
	CompanyName        string
	LocationText       string
	URL                string
	SourceJobID        string
	DescriptionText    string
	SalaryText         string
	WorkModeText       string
	EmploymentTypeText string
	PostedAt           *time.Time
	Metadata           map[string]any
}

// Result carries either a candidate or an adapter-level error. Errors do
// not terminate the stream; the pipeline counts them and moves on.
type Result struct {
	Candidate Candidate
	Err       error
}

// Source is one configured external site.
type Source interface {
	// Name is the configured source name, unique per deployment.
	Name() string
	// Vendor identifies the adapter shape.
	Vendor() jobs.VendorType
	// BaseURL is the listing entry point.
	BaseURL() string
	// Fetch streams candidates until the listing is exhausted, the option
	// budget is reached, or ctx is done. The channel is closed when the
	// adapter finishes.
	Fetch(ctx context.Context, opts Options) <-chan Result
}

// emit sends a result unless ctx is done first.
func emit(ctx context.Context, out chan<- Result, r Result) bool {
	select {
	case <-ctx.Done():
		return false
	case out <- r:
		return true
	}
}
