// Package parse turns raw source payloads (HTML pages, embedded JSON blobs,
// vendor REST responses) into intermediate job records. Every parser is a
// pure function over text: no network, no storage, fixture-testable.
package parse

import "time"

// Job is the pre-canonicalization intermediate produced by the parsers.
// Adapters enrich it into a jobs.Posting.
type Job struct {
	Title              string
	Company            string
	LocationText       string
	URL                string
	SourceJobID        string
	SalaryText         string
	WorkModeText       string
	EmploymentTypeText string
	DescriptionText    string
	PostedAt           *time.Time
}
