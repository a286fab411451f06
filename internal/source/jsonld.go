package source

import (
	"context"

	"go.uber.org/zap"

	"github.com/vagahub/engine/internal/fetch"
	"github.com/vagahub/engine/internal/jobs"
	"github.com/vagahub/engine/internal/parse"
)

// jsonLD reads schema.org JobPosting blocks from a single page. Useful for
// sites that publish a full structured listing and need no heuristics.
type jsonLD struct {
	base
}

// NewJSONLD builds the structured-data adapter.
func NewJSONLD(name, baseURL string, client *fetch.Client, logger *zap.Logger) Source {
	return &jsonLD{base: base{
		name:    name,
		vendor:  jobs.VendorJSONLD,
		baseURL: baseURL,
		client:  client,
		logger:  logger,
	}}
}

func (s *jsonLD) Fetch(ctx context.Context, opts Options) <-chan Result {
	out := make(chan Result)
	go func() {
		defer close(out)

		body, err := s.fetchPage(ctx, s.baseURL)
		if err != nil {
			emit(ctx, out, Result{Err: err})
			return
		}

		emitted := 0
		for _, job := range parse.JobPostings(string(body), s.baseURL) {
			if emitted >= opts.ItemLimit() {
				break
			}
			candidate := candidateFromJob(job)
			if !emit(ctx, out, Result{Candidate: candidate}) {
				return
			}
			emitted++
		}
	}()
	return out
}
