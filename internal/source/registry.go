package source

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/vagahub/engine/internal/fetch"
	"github.com/vagahub/engine/internal/jobs"
)

// Config declares one source to build an adapter for.
type Config struct {
	Name    string
	Vendor  jobs.VendorType
	BaseURL string
	// FixtureDir is only read by the fixture vendor.
	FixtureDir string
}

// New builds the adapter for a configured source.
func New(cfg Config, client *fetch.Client, logger *zap.Logger) (Source, error) {
	if cfg.Name == "" {
		return nil, fmt.Errorf("source name is required")
	}
	switch cfg.Vendor {
	case jobs.VendorInfoJobs:
		return NewInfoJobs(cfg.Name, cfg.BaseURL, client, logger), nil
	case jobs.VendorVagas:
		return NewVagas(cfg.Name, cfg.BaseURL, client, logger), nil
	case jobs.VendorWorkday:
		return NewWorkday(cfg.Name, cfg.BaseURL, client, logger), nil
	case jobs.VendorGupy:
		return NewGupy(cfg.Name, cfg.BaseURL, client, logger), nil
	case jobs.VendorCorporateCareers:
		return NewCorporate(cfg.Name, cfg.BaseURL, client, logger), nil
	case jobs.VendorJSONLD:
		return NewJSONLD(cfg.Name, cfg.BaseURL, client, logger), nil
	case jobs.VendorFixture:
		return NewFixture(cfg.Name, cfg.FixtureDir, logger), nil
	default:
		return nil, fmt.Errorf("unknown source vendor %q", cfg.Vendor)
	}
}
