package source

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/vagahub/engine/internal/fetch"
	"github.com/vagahub/engine/internal/jobs"
	"github.com/vagahub/engine/internal/parse"
)

// gupy scrapes a Gupy tenant portal. Tenants expose the job list either as
// a JSON endpoint or embedded in the page payload; both shapes carry the
// same job objects.
type gupy struct {
	base
}

// NewGupy builds the Gupy portal adapter.
func NewGupy(name, baseURL string, client *fetch.Client, logger *zap.Logger) Source {
	return &gupy{base: base{
		name:    name,
		vendor:  jobs.VendorGupy,
		baseURL: baseURL,
		client:  client,
		logger:  logger,
	}}
}

// endpointCandidates lists the URLs tried in order until one yields jobs.
func (s *gupy) endpointCandidates() []string {
	trimmed := strings.TrimSuffix(s.baseURL, "/")
	candidates := []string{trimmed + "/jobs.json", trimmed + "/jobs", trimmed}
	if !strings.HasSuffix(trimmed, ".json") {
		candidates = append(candidates, trimmed+".json")
	}
	return candidates
}

func (s *gupy) Fetch(ctx context.Context, opts Options) <-chan Result {
	out := make(chan Result)
	go func() {
		defer close(out)

		listed, endpoint, err := s.list(ctx)
		if err != nil {
			emit(ctx, out, Result{Err: err})
			return
		}

		emitted := 0
		for _, job := range listed {
			if emitted >= opts.ItemLimit() {
				break
			}
			candidate := candidateFromJob(job)
			if candidate.SourceJobID == "" {
				candidate.SourceJobID = parse.StableSourceJobID(job)
			}
			candidate.Metadata = map[string]any{"endpoint": endpoint}
			if !emit(ctx, out, Result{Candidate: candidate}) {
				return
			}
			emitted++
		}
	}()
	return out
}

func (s *gupy) list(ctx context.Context) ([]parse.Job, string, error) {
	var lastErr error
	for _, endpoint := range s.endpointCandidates() {
		if err := ctx.Err(); err != nil {
			return nil, "", err
		}
		body, err := s.fetchPage(ctx, endpoint)
		if err != nil {
			lastErr = err
			continue
		}
		payload := string(body)
		if parse.LooksLikeJSON(payload) {
			if listed := parse.VendorJobs(payload, s.baseURL); len(listed) > 0 {
				return listed, endpoint, nil
			}
			continue
		}
		for _, embedded := range parse.ExtractEmbeddedJSON(payload) {
			if listed := parse.VendorJobs(embedded, s.baseURL); len(listed) > 0 {
				return listed, endpoint, nil
			}
		}
	}
	if lastErr != nil {
		return nil, "", fmt.Errorf("gupy listing: %w", lastErr)
	}
	return nil, "", nil
}
