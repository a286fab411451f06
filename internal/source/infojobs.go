package source

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/vagahub/engine/internal/fetch"
	"github.com/vagahub/engine/internal/jobs"
	"github.com/vagahub/engine/internal/parse"
)

// infoJobs scrapes an InfoJobs result page. Listing rows carry the title,
// company and place; descriptions come from the per-job detail pages.
type infoJobs struct {
	base
}

// NewInfoJobs builds the InfoJobs board adapter.
func NewInfoJobs(name, baseURL string, client *fetch.Client, logger *zap.Logger) Source {
	return &infoJobs{base: base{
		name:    name,
		vendor:  jobs.VendorInfoJobs,
		baseURL: baseURL,
		client:  client,
		logger:  logger,
	}}
}

func (s *infoJobs) Fetch(ctx context.Context, opts Options) <-chan Result {
	out := make(chan Result)
	go func() {
		defer close(out)

		body, err := s.fetchPage(ctx, s.baseURL)
		if err != nil {
			emit(ctx, out, Result{Err: err})
			return
		}

		listed := parse.BoardJobs(string(body), s.baseURL, parse.IsBoardJobURL)
		budget := detailBudget{remaining: opts.DetailLimit()}
		emitted := 0
		skipped := 0
		for _, job := range listed {
			if emitted >= opts.ItemLimit() {
				break
			}
			if !usableListing(job) {
				skipped++
				continue
			}
			candidate := candidateFromJob(job)
			candidate.SourceJobID = parse.StableSourceJobID(job)

			if candidate.DescriptionText == "" && budget.take() {
				detail, err := s.fetchPage(ctx, job.URL)
				if err != nil {
					if !emit(ctx, out, Result{Err: err}) {
						return
					}
					continue
				}
				candidate.DescriptionText = parse.DetailDescription(string(detail))
			}

			if !emit(ctx, out, Result{Candidate: candidate}) {
				return
			}
			emitted++
		}
		if skipped > 0 {
			s.logger.Debug("skipped low quality listings",
				zap.String("source", s.name), zap.Int("count", skipped))
		}
	}()
	return out
}

// usableListing drops rows the board rendered without real content:
// truncated titles, no company, no place.
func usableListing(job parse.Job) bool {
	if len(strings.TrimSpace(job.Title)) < 6 {
		return false
	}
	company := strings.TrimSpace(job.Company)
	if company == "" || strings.EqualFold(company, "unknown") {
		return false
	}
	return strings.TrimSpace(job.LocationText) != ""
}

func candidateFromJob(job parse.Job) Candidate {
	return Candidate{
		Title:              job.Title,
		CompanyName:        job.Company,
		LocationText:       job.LocationText,
		URL:                job.URL,
		SourceJobID:        job.SourceJobID,
		DescriptionText:    job.DescriptionText,
		SalaryText:         job.SalaryText,
		WorkModeText:       job.WorkModeText,
		EmploymentTypeText: job.EmploymentTypeText,
		PostedAt:           job.PostedAt,
	}
}
