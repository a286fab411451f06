// Package ingest runs the per-source ingestion pipeline: canonicalize
// adapter candidates, dedupe against the record store, merge what changed,
// expire what disappeared, and account for all of it in a run record.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vagahub/engine/internal/fingerprint"
	"github.com/vagahub/engine/internal/infer"
	"github.com/vagahub/engine/internal/jobs"
	"github.com/vagahub/engine/internal/parse"
	"github.com/vagahub/engine/internal/search"
	"github.com/vagahub/engine/internal/source"
	"github.com/vagahub/engine/internal/store"
	"github.com/vagahub/engine/internal/telemetry"
)

// Clock abstracts time.Now for deterministic tests.
type Clock interface {
	Now() time.Time
}

// Config bounds pipeline behavior.
type Config struct {
	// ExpireAfter is how long a posting may go unseen before the sweep
	// marks it Expired.
	ExpireAfter time.Duration
}

// Pipeline executes ingestion runs.
type Pipeline struct {
	cfg      Config
	postings store.PostingStore
	sources  store.SourceStore
	runs     store.RunStore
	index    search.Index
	clock    Clock
	logger   *zap.Logger
}

// New builds a Pipeline.
func New(
	cfg Config,
	postings store.PostingStore,
	sources store.SourceStore,
	runs store.RunStore,
	index search.Index,
	clock Clock,
	logger *zap.Logger,
) *Pipeline {
	if cfg.ExpireAfter <= 0 {
		cfg.ExpireAfter = 14 * 24 * time.Hour
	}
	if index == nil {
		index = search.Noop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		cfg:      cfg,
		postings: postings,
		sources:  sources,
		runs:     runs,
		index:    index,
		clock:    clock,
		logger:   logger,
	}
}

// RunOnce executes one full run against one source. A failure mid-run
// marks the run Failed with an error sample; the error is also returned.
// The run record is persisted in both cases.
func (p *Pipeline) RunOnce(ctx context.Context, src source.Source, opts source.Options) (jobs.RunRecord, error) {
	descriptor, err := p.sources.Ensure(ctx, src.Name(), src.Vendor(), src.BaseURL())
	if err != nil {
		return jobs.RunRecord{}, fmt.Errorf("ensure source %s: %w", src.Name(), err)
	}

	now := p.clock.Now()
	run := jobs.RunRecord{
		ID:        uuid.New(),
		SourceID:  descriptor.ID,
		StartedAt: now,
		Status:    jobs.RunRunning,
	}
	if err := p.runs.Create(ctx, &run); err != nil {
		return jobs.RunRecord{}, fmt.Errorf("create run: %w", err)
	}

	telemetry.IncActiveRuns()
	defer telemetry.DecActiveRuns()

	runErr := p.process(ctx, src, opts, &run.Counters)
	if runErr != nil {
		run.Status = jobs.RunFailed
		run.Counters.Errors++
		run.ErrorSample = runErr.Error()
	} else {
		run.Status = jobs.RunSuccess
	}

	finished := p.clock.Now()
	run.FinishedAt = &finished
	if err := p.runs.Update(ctx, &run); err != nil {
		p.logger.Error("persist run record failed", zap.String("run_id", run.ID.String()), zap.Error(err))
	}
	telemetry.ObserveRun(src.Name(), string(run.Status), finished.Sub(run.StartedAt))

	p.logger.Info("ingestion run finished",
		zap.String("source", src.Name()),
		zap.String("run_id", run.ID.String()),
		zap.String("status", string(run.Status)),
		zap.Int("fetched", run.Counters.Fetched),
		zap.Int("parsed", run.Counters.Parsed),
		zap.Int("normalized", run.Counters.Normalized),
		zap.Int("indexed", run.Counters.Indexed),
		zap.Int("duplicates", run.Counters.Duplicates),
		zap.Int("errors", run.Counters.Errors),
		zap.Duration("took", finished.Sub(run.StartedAt)))

	return run, runErr
}

func (p *Pipeline) process(ctx context.Context, src source.Source, opts source.Options, counters *jobs.Counters) error {
	// Cancelling unblocks the adapter goroutine when the loop exits early.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	limit := opts.ItemLimit()
	seen := 0
	for result := range src.Fetch(ctx, opts) {
		if err := ctx.Err(); err != nil {
			return err
		}
		if result.Err != nil {
			counters.Errors++
			telemetry.ObserveItem(src.Name(), "error")
			p.logger.Warn("source item failed", zap.String("source", src.Name()), zap.Error(result.Err))
			continue
		}
		// Adapters cap themselves; the cap here holds even when one
		// misbehaves.
		if seen >= limit {
			break
		}
		seen++
		counters.Fetched++
		telemetry.ObserveItem(src.Name(), "fetched")

		candidate := result.Candidate
		if strings.TrimSpace(candidate.Title) == "" || candidate.URL == "" || candidate.SourceJobID == "" {
			counters.Errors++
			telemetry.ObserveItem(src.Name(), "error")
			p.logger.Warn("candidate missing identity fields",
				zap.String("source", src.Name()),
				zap.String("url", candidate.URL))
			continue
		}
		counters.Parsed++
		telemetry.ObserveItem(src.Name(), "parsed")

		posting := p.canonicalize(src, candidate)
		counters.Normalized++
		telemetry.ObserveItem(src.Name(), "normalized")

		if err := p.upsert(ctx, src.Name(), posting, counters); err != nil {
			return err
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return p.expire(ctx, src, counters)
}

// canonicalize turns an adapter candidate into a canonical posting with
// inferred facets and a content fingerprint.
func (p *Pipeline) canonicalize(src source.Source, c source.Candidate) *jobs.Posting {
	now := p.clock.Now()
	title := strings.TrimSpace(c.Title)
	company := strings.TrimSpace(c.CompanyName)
	if company == "" {
		company = "Unknown"
	}
	location := strings.TrimSpace(c.LocationText)

	combined := strings.Join([]string{title, location, c.WorkModeText, c.EmploymentTypeText, c.DescriptionText}, " ")

	workMode := infer.WorkMode(c.WorkModeText)
	if workMode == jobs.WorkModeUnknown {
		workMode = infer.WorkMode(combined)
	}
	employment := infer.EmploymentType(c.EmploymentTypeText)
	if employment == jobs.EmploymentUnknown {
		employment = infer.EmploymentType(combined)
	}

	return &jobs.Posting{
		ID: uuid.New(),
		Source: jobs.SourceRef{
			Name:        src.Name(),
			Vendor:      src.Vendor(),
			URL:         c.URL,
			SourceJobID: c.SourceJobID,
		},
		Title:           title,
		Company:         jobs.CompanyRef{Name: company},
		LocationText:    location,
		WorkMode:        workMode,
		Seniority:       infer.Seniority(title + " " + c.DescriptionText),
		Employment:      employment,
		Salary:          parse.SalaryRange(c.SalaryText),
		DescriptionText: strings.TrimSpace(c.DescriptionText),
		Tags:            infer.Tags(title, c.DescriptionText),
		Languages:       infer.Languages(title + " " + c.DescriptionText),
		PostedAt:        c.PostedAt,
		CapturedAt:      now,
		LastSeenAt:      now,
		Status:          jobs.StatusActive,
		Dedupe: jobs.DedupeInfo{
			Fingerprint: fingerprint.Compute(company, title, location, workMode.String()),
		},
		Metadata: c.Metadata,
	}
}

// upsert matches the incoming posting against the store by source key,
// then source URL, then fingerprint, and either inserts it or merges it
// into the match.
func (p *Pipeline) upsert(ctx context.Context, sourceName string, incoming *jobs.Posting, counters *jobs.Counters) error {
	existing, err := p.match(ctx, incoming)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("match posting: %w", err)
	}

	if existing == nil {
		if err := p.postings.Insert(ctx, incoming); err != nil {
			return fmt.Errorf("insert posting: %w", err)
		}
		if err := p.index.Upsert(ctx, []search.Document{search.FromPosting(incoming)}); err != nil {
			return fmt.Errorf("index posting: %w", err)
		}
		counters.Indexed++
		telemetry.ObserveItem(sourceName, "indexed")
		return nil
	}

	changed := merge(existing, incoming)
	existing.LastSeenAt = incoming.LastSeenAt
	if err := p.postings.Update(ctx, existing); err != nil {
		return fmt.Errorf("update posting: %w", err)
	}
	if changed {
		if err := p.index.Upsert(ctx, []search.Document{search.FromPosting(existing)}); err != nil {
			return fmt.Errorf("index posting: %w", err)
		}
		counters.Indexed++
		telemetry.ObserveItem(sourceName, "indexed")
	} else {
		counters.Duplicates++
		telemetry.ObserveItem(sourceName, "duplicate")
	}
	return nil
}

func (p *Pipeline) match(ctx context.Context, incoming *jobs.Posting) (*jobs.Posting, error) {
	existing, err := p.postings.FindBySourceKey(ctx,
		incoming.Source.Vendor, incoming.Source.Name, incoming.Source.SourceJobID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	existing, err = p.postings.FindBySourceURL(ctx, incoming.Source.URL)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	return p.postings.FindByFingerprint(ctx, incoming.Dedupe.Fingerprint)
}

// expire sweeps postings of this source unseen for longer than ExpireAfter.
func (p *Pipeline) expire(ctx context.Context, src source.Source, counters *jobs.Counters) error {
	sourceName := src.Name()
	cutoff := p.clock.Now().Add(-p.cfg.ExpireAfter)
	stale, err := p.postings.ListStale(ctx, src.Vendor(), sourceName, cutoff)
	if err != nil {
		return fmt.Errorf("list stale postings: %w", err)
	}
	for _, posting := range stale {
		posting.Status = jobs.StatusExpired
		if err := p.postings.Update(ctx, posting); err != nil {
			return fmt.Errorf("expire posting %s: %w", posting.ID, err)
		}
		if err := p.index.Upsert(ctx, []search.Document{search.FromPosting(posting)}); err != nil {
			return fmt.Errorf("index expired posting: %w", err)
		}
		telemetry.ObserveItem(sourceName, "expired")
	}
	if len(stale) > 0 {
		p.logger.Info("expired stale postings",
			zap.String("source", sourceName),
			zap.Int("count", len(stale)))
	}
	return nil
}
