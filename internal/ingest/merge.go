package ingest

import (
	"strings"

	"github.com/vagahub/engine/internal/jobs"
)

// descriptionGrowth is how many characters longer an incoming description
// must be before it replaces a non-empty current one.
const descriptionGrowth = 40

// merge folds an incoming observation into the current posting, mutating
// current in place. It reports whether anything index-relevant changed.
// LastSeenAt is the caller's responsibility and never affects the flag.
func merge(current, incoming *jobs.Posting) bool {
	changed := false

	if current.Status != jobs.StatusActive {
		current.Status = jobs.StatusActive
		changed = true
	}

	if betterDescription(current.DescriptionText, incoming.DescriptionText) {
		current.DescriptionText = incoming.DescriptionText
		changed = true
	}

	if merged, grew := unionTags(current.Tags, incoming.Tags); grew {
		current.Tags = merged
		changed = true
	}

	if betterSalary(current.Salary, incoming.Salary) {
		current.Salary = incoming.Salary
		changed = true
	}

	// PostedAt only moves earlier: sources re-touch listings and later
	// dates are bumps, not the original publication.
	if incoming.PostedAt != nil && (current.PostedAt == nil || incoming.PostedAt.Before(*current.PostedAt)) {
		current.PostedAt = incoming.PostedAt
		changed = true
	}

	if current.Dedupe.Fingerprint != incoming.Dedupe.Fingerprint {
		current.Dedupe.Fingerprint = incoming.Dedupe.Fingerprint
		current.Title = incoming.Title
		current.Company = incoming.Company
		current.LocationText = incoming.LocationText
		current.WorkMode = incoming.WorkMode
		changed = true
	}
	if current.Seniority == jobs.SeniorityUnknown && incoming.Seniority != jobs.SeniorityUnknown {
		current.Seniority = incoming.Seniority
		changed = true
	}
	if current.Employment == jobs.EmploymentUnknown && incoming.Employment != jobs.EmploymentUnknown {
		current.Employment = incoming.Employment
		changed = true
	}
	if len(incoming.Languages) > 0 && len(current.Languages) == 0 {
		current.Languages = incoming.Languages
		changed = true
	}

	// Source identifiers, capture time and metadata track the latest
	// observation without counting as a content change.
	current.Source = incoming.Source
	current.CapturedAt = incoming.CapturedAt
	if incoming.Metadata != nil {
		current.Metadata = incoming.Metadata
	}

	return changed
}

func betterDescription(current, incoming string) bool {
	if strings.TrimSpace(incoming) == "" {
		return false
	}
	if strings.TrimSpace(current) == "" {
		return true
	}
	return len(incoming) > len(current)+descriptionGrowth
}

func betterSalary(current, incoming *jobs.SalaryRange) bool {
	if incoming == nil {
		return false
	}
	if current == nil {
		return true
	}
	return incoming.PopulatedFields() > current.PopulatedFields()
}

// unionTags merges incoming tags into current, trimmed and lowercased,
// preserving first-seen order.
func unionTags(current, incoming []string) ([]string, bool) {
	seen := make(map[string]struct{}, len(current))
	merged := make([]string, 0, len(current)+len(incoming))
	for _, tag := range current {
		clean := strings.ToLower(strings.TrimSpace(tag))
		if clean == "" {
			continue
		}
		if _, dup := seen[clean]; dup {
			continue
		}
		seen[clean] = struct{}{}
		merged = append(merged, clean)
	}
	grew := false
	for _, tag := range incoming {
		clean := strings.ToLower(strings.TrimSpace(tag))
		if clean == "" {
			continue
		}
		if _, dup := seen[clean]; dup {
			continue
		}
		seen[clean] = struct{}{}
		merged = append(merged, clean)
		grew = true
	}
	return merged, grew
}
