package source

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/vagahub/engine/internal/fetch"
	"github.com/vagahub/engine/internal/jobs"
)

// Budget defaults applied when Options leaves a field zero.
const (
	defaultMaxItems       = 20
	defaultMaxDetailFetch = 20
)

// ItemLimit resolves the per-run item cap, falling back to the default.
func (o Options) ItemLimit() int {
	if o.MaxItems > 0 {
		return o.MaxItems
	}
	return defaultMaxItems
}

// DetailLimit resolves the detail-fetch cap, falling back to the default.
func (o Options) DetailLimit() int {
	if o.MaxDetailFetch > 0 {
		return o.MaxDetailFetch
	}
	return defaultMaxDetailFetch
}

// base carries what every adapter needs.
type base struct {
	name    string
	vendor  jobs.VendorType
	baseURL string
	client  *fetch.Client
	logger  *zap.Logger
}

func (b *base) Name() string            { return b.name }
func (b *base) Vendor() jobs.VendorType { return b.vendor }
func (b *base) BaseURL() string         { return b.baseURL }

// fetchPage gets one URL and turns a blocked or failed outcome into an
// error so callers handle exactly one failure path.
func (b *base) fetchPage(ctx context.Context, pageURL string) ([]byte, error) {
	resp, err := b.client.Get(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	if resp.Outcome != fetch.OutcomeOK {
		return nil, fmt.Errorf("fetch %s: %s (status %d)", pageURL, resp.Outcome, resp.StatusCode)
	}
	return resp.Body, nil
}

// detailBudget doles out detail-page fetches up to the configured cap.
type detailBudget struct {
	remaining int
}

func (d *detailBudget) take() bool {
	if d.remaining <= 0 {
		return false
	}
	d.remaining--
	return true
}

func hostAndPath(rawURL string) (host, path string) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", ""
	}
	return u.Host, strings.TrimSuffix(u.Path, "/")
}
