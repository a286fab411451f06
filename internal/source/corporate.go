package source

import (
	"context"

	"go.uber.org/zap"

	"github.com/vagahub/engine/internal/fetch"
	"github.com/vagahub/engine/internal/jobs"
	"github.com/vagahub/engine/internal/parse"
)

// corporate scrapes a company careers page with no known vendor behind it.
// Structured JSON-LD postings are preferred; pages without any fall back
// to anchor heuristics plus detail-page fetches.
type corporate struct {
	base
}

// NewCorporate builds the generic careers-page adapter.
func NewCorporate(name, baseURL string, client *fetch.Client, logger *zap.Logger) Source {
	return &corporate{base: base{
		name:    name,
		vendor:  jobs.VendorCorporateCareers,
		baseURL: baseURL,
		client:  client,
		logger:  logger,
	}}
}

func (s *corporate) Fetch(ctx context.Context, opts Options) <-chan Result {
	out := make(chan Result)
	go func() {
		defer close(out)

		body, err := s.fetchPage(ctx, s.baseURL)
		if err != nil {
			emit(ctx, out, Result{Err: err})
			return
		}
		page := string(body)

		listed := parse.JobPostings(page, s.baseURL)
		fromAnchors := false
		if len(listed) == 0 {
			listed = parse.CareerAnchorJobs(page, s.baseURL)
			fromAnchors = true
		}
		if len(listed) == 0 {
			// Careers pages that render the listing client-side leave
			// nothing to parse in the fetched markup.
			s.logger.Info("no parseable listings, page likely scripted",
				zap.String("source", s.name),
				zap.String("url", s.baseURL))
			return
		}

		budget := detailBudget{remaining: opts.DetailLimit()}
		emitted := 0
		for _, job := range listed {
			if emitted >= opts.ItemLimit() {
				break
			}
			candidate := candidateFromJob(job)
			if candidate.SourceJobID == "" {
				candidate.SourceJobID = parse.StableSourceJobID(job)
			}

			// Anchor rows carry almost nothing; the detail page usually has
			// a JSON-LD posting or at least a description block.
			if fromAnchors && budget.take() {
				s.enrich(ctx, &candidate)
			}

			if !emit(ctx, out, Result{Candidate: candidate}) {
				return
			}
			emitted++
		}
	}()
	return out
}

func (s *corporate) enrich(ctx context.Context, candidate *Candidate) {
	detail, err := s.fetchPage(ctx, candidate.URL)
	if err != nil {
		s.logger.Warn("career detail fetch failed",
			zap.String("source", s.name),
			zap.String("url", candidate.URL),
			zap.Error(err))
		return
	}
	page := string(detail)

	if postings := parse.JobPostings(page, candidate.URL); len(postings) > 0 {
		full := postings[0]
		if full.Title != "" {
			candidate.Title = full.Title
		}
		if full.Company != "" {
			candidate.CompanyName = full.Company
		}
		if full.LocationText != "" {
			candidate.LocationText = full.LocationText
		}
		if full.DescriptionText != "" {
			candidate.DescriptionText = full.DescriptionText
		}
		if full.SalaryText != "" {
			candidate.SalaryText = full.SalaryText
		}
		if full.PostedAt != nil {
			candidate.PostedAt = full.PostedAt
		}
		return
	}

	candidate.DescriptionText = parse.DetailDescription(page)
}
