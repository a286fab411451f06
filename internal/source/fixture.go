package source

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/vagahub/engine/internal/jobs"
)

// fixture replays canned candidates from JSON files on disk. It exists for
// local development and end-to-end checks without touching any site.
type fixture struct {
	name    string
	dir     string
	pattern string
	logger  *zap.Logger
}

// NewFixture builds an adapter that reads sample_source_*.json files from
// dir, sorted by file name.
func NewFixture(name, dir string, logger *zap.Logger) Source {
	return &fixture{
		name:    name,
		dir:     dir,
		pattern: "sample_source_*.json",
		logger:  logger,
	}
}

func (s *fixture) Name() string            { return s.name }
func (s *fixture) Vendor() jobs.VendorType { return jobs.VendorFixture }
func (s *fixture) BaseURL() string         { return "file://" + s.dir }

type fixtureItem struct {
	Title              string     `json:"title"`
	CompanyName        string     `json:"companyName"`
	LocationText       string     `json:"locationText"`
	URL                string     `json:"url"`
	SourceJobID        string     `json:"sourceJobId"`
	DescriptionText    string     `json:"descriptionText"`
	SalaryText         string     `json:"salaryText"`
	WorkModeText       string     `json:"workModeText"`
	EmploymentTypeText string     `json:"employmentTypeText"`
	PostedAt           *time.Time `json:"postedAt"`
}

func (s *fixture) Fetch(ctx context.Context, opts Options) <-chan Result {
	out := make(chan Result)
	go func() {
		defer close(out)

		paths, err := filepath.Glob(filepath.Join(s.dir, s.pattern))
		if err != nil {
			emit(ctx, out, Result{Err: err})
			return
		}
		sort.Strings(paths)

		emitted := 0
		for _, path := range paths {
			items, err := readFixture(path)
			if err != nil {
				if !emit(ctx, out, Result{Err: err}) {
					return
				}
				continue
			}
			for _, item := range items {
				if emitted >= opts.ItemLimit() {
					return
				}
				candidate := Candidate{
					Title:              item.Title,
					CompanyName:        item.CompanyName,
					LocationText:       item.LocationText,
					URL:                item.URL,
					SourceJobID:        item.SourceJobID,
					DescriptionText:    item.DescriptionText,
					SalaryText:         item.SalaryText,
					WorkModeText:       item.WorkModeText,
					EmploymentTypeText: item.EmploymentTypeText,
					PostedAt:           item.PostedAt,
					Metadata:           map[string]any{"fixture": filepath.Base(path)},
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

func readFixture(path string) ([]fixtureItem, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	var items []fixtureItem
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("decode fixture %s: %w", path, err)
	}
	return items, nil
}
