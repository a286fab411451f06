package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/vagahub/engine/internal/fetch"
	"github.com/vagahub/engine/internal/jobs"
	"github.com/vagahub/engine/internal/parse"
)

// workdayMaxPages bounds the listing pagination regardless of budgets.
const workdayMaxPages = 10

// workday talks to the Workday CXS endpoint behind a tenant career site.
// The listing is a paged JSON POST; details are one JSON GET per job.
type workday struct {
	base
	tenant   string
	siteName string
	sitePath string
	host     string
	scheme   string
}

// NewWorkday builds an adapter for a myworkdayjobs.com career site. The
// tenant and site name are derived from the base URL, e.g.
// https://acme.wd1.myworkdayjobs.com/en-US/acmecareers.
func NewWorkday(name, baseURL string, client *fetch.Client, logger *zap.Logger) Source {
	host, path := hostAndPath(baseURL)
	scheme := "https"
	if u, err := url.Parse(baseURL); err == nil && u.Scheme != "" {
		scheme = u.Scheme
	}
	tenant := strings.SplitN(host, ".", 2)[0]
	siteName := ""
	if segments := strings.Split(strings.Trim(path, "/"), "/"); len(segments) > 0 {
		siteName = segments[len(segments)-1]
	}
	return &workday{
		base: base{
			name:    name,
			vendor:  jobs.VendorWorkday,
			baseURL: baseURL,
			client:  client,
			logger:  logger,
		},
		tenant:   tenant,
		siteName: siteName,
		sitePath: path,
		host:     host,
		scheme:   scheme,
	}
}

type workdayListRequest struct {
	AppliedFacets map[string]any `json:"appliedFacets"`
	Limit         int            `json:"limit"`
	Offset        int            `json:"offset"`
	SearchText    string         `json:"searchText"`
}

func (s *workday) Fetch(ctx context.Context, opts Options) <-chan Result {
	out := make(chan Result)
	go func() {
		defer close(out)

		budget := detailBudget{remaining: opts.DetailLimit()}
		maxItems := opts.ItemLimit()
		emitted := 0

		for page := 0; page < workdayMaxPages && emitted < maxItems; page++ {
			items, err := s.listPage(ctx, page, maxItems)
			if err != nil {
				emit(ctx, out, Result{Err: err})
				return
			}
			if len(items) == 0 {
				break
			}
			for _, item := range items {
				if emitted >= maxItems {
					break
				}
				candidate := Candidate{
					Title:              item.Title,
					LocationText:       item.LocationText,
					URL:                item.SourceURL,
					SourceJobID:        item.SourceJobID,
					EmploymentTypeText: item.EmploymentTypeText,
					PostedAt:           item.PostedAt,
				}
				if budget.take() {
					description, err := s.detail(ctx, item)
					if err != nil {
						s.logger.Warn("workday detail fetch failed",
							zap.String("source", s.name),
							zap.String("job_id", item.SourceJobID),
							zap.Error(err))
					} else {
						candidate.DescriptionText = description
					}
				}
				if !emit(ctx, out, Result{Candidate: candidate}) {
					return
				}
				emitted++
			}
		}
	}()
	return out
}

func (s *workday) listPage(ctx context.Context, page, maxItems int) ([]parse.WorkdayListItem, error) {
	payload, err := json.Marshal(workdayListRequest{
		AppliedFacets: map[string]any{},
		Limit:         maxItems,
		Offset:        page * maxItems,
		SearchText:    "",
	})
	if err != nil {
		return nil, err
	}

	headers := http.Header{}
	headers.Set("Content-Type", "application/json")
	headers.Set("Accept", "application/json")

	resp, err := s.client.Do(ctx, fetch.Request{
		URL:                   fmt.Sprintf("%s://%s/wday/cxs/%s/%s/jobs", s.scheme, s.host, s.tenant, s.siteName),
		Method:                http.MethodPost,
		Body:                  payload,
		Headers:               headers,
		BlockedOnUnauthorized: true,
	})
	if err != nil {
		return nil, err
	}
	if resp.Outcome != fetch.OutcomeOK {
		return nil, fmt.Errorf("workday listing page %d: %s (status %d)", page, resp.Outcome, resp.StatusCode)
	}
	return parse.WorkdayListing(string(resp.Body), s.host, s.sitePath, s.siteName), nil
}

func (s *workday) detail(ctx context.Context, item parse.WorkdayListItem) (string, error) {
	path := parse.WorkdayDetailPath(s.tenant, s.siteName, item.ExternalPath, item.SourceJobID)
	headers := http.Header{}
	headers.Set("Accept", "application/json")

	resp, err := s.client.Do(ctx, fetch.Request{
		URL:                   s.scheme + "://" + s.host + path,
		Method:                http.MethodGet,
		Headers:               headers,
		BlockedOnUnauthorized: true,
	})
	if err != nil {
		return "", err
	}
	if resp.Outcome != fetch.OutcomeOK {
		return "", fmt.Errorf("workday detail: %s (status %d)", resp.Outcome, resp.StatusCode)
	}
	return parse.WorkdayDetailDescription(string(resp.Body)), nil
}
