package source

import (
	"context"
	"regexp"

	"go.uber.org/zap"

	"github.com/vagahub/engine/internal/fetch"
	"github.com/vagahub/engine/internal/jobs"
	"github.com/vagahub/engine/internal/parse"
)

// vagas.com.br detail URLs look like /vagas/v2543210/titulo-da-vaga.
var vagasJobURLRegex = regexp.MustCompile(`(?i)/vagas/v(\d+)(?:/|$)`)

// vagasBoard scrapes a vagas.com.br listing page.
type vagasBoard struct {
	base
}

// NewVagas builds the vagas.com.br board adapter.
func NewVagas(name, baseURL string, client *fetch.Client, logger *zap.Logger) Source {
	return &vagasBoard{base: base{
		name:    name,
		vendor:  jobs.VendorVagas,
		baseURL: baseURL,
		client:  client,
		logger:  logger,
	}}
}

func (s *vagasBoard) Fetch(ctx context.Context, opts Options) <-chan Result {
	out := make(chan Result)
	go func() {
		defer close(out)

		body, err := s.fetchPage(ctx, s.baseURL)
		if err != nil {
			emit(ctx, out, Result{Err: err})
			return
		}

		listed := parse.BoardJobs(string(body), s.baseURL, isVagasJobURL)
		budget := detailBudget{remaining: opts.DetailLimit()}
		emitted := 0
		for _, job := range listed {
			if emitted >= opts.ItemLimit() {
				break
			}
			candidate := candidateFromJob(job)
			if id := vagasJobID(job.URL); id != "" {
				candidate.SourceJobID = id
			} else {
				candidate.SourceJobID = parse.StableSourceJobID(job)
			}

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
	}()
	return out
}

func isVagasJobURL(rawURL string) bool {
	return vagasJobURLRegex.MatchString(rawURL)
}

func vagasJobID(rawURL string) string {
	m := vagasJobURLRegex.FindStringSubmatch(rawURL)
	if m == nil {
		return ""
	}
	return m[1]
}
