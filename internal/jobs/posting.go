// Package jobs defines the canonical data model shared by the ingestion
// pipeline, the record store, and the search index.
package jobs

import (
	"time"

	"github.com/google/uuid"
)

// WorkMode classifies where the work happens.
type WorkMode int

// Work modes inferred from free text.
const (
	WorkModeUnknown WorkMode = iota
	WorkModeRemote
	WorkModeHybrid
	WorkModeOnsite
)

func (m WorkMode) String() string {
	switch m {
	case WorkModeRemote:
		return "Remote"
	case WorkModeHybrid:
		return "Hybrid"
	case WorkModeOnsite:
		return "Onsite"
	default:
		return "Unknown"
	}
}

// Seniority classifies the experience level a posting asks for.
type Seniority int

// Seniority levels, lowest to highest.
const (
	SeniorityUnknown Seniority = iota
	SeniorityIntern
	SeniorityJunior
	SeniorityMid
	SenioritySenior
	SeniorityStaff
	SeniorityLead
	SeniorityPrincipal
)

func (s Seniority) String() string {
	switch s {
	case SeniorityIntern:
		return "Intern"
	case SeniorityJunior:
		return "Junior"
	case SeniorityMid:
		return "Mid"
	case SenioritySenior:
		return "Senior"
	case SeniorityStaff:
		return "Staff"
	case SeniorityLead:
		return "Lead"
	case SeniorityPrincipal:
		return "Principal"
	default:
		return "Unknown"
	}
}

// EmploymentType classifies the contract shape.
type EmploymentType int

// Employment types common on Brazilian boards (CLT and PJ included).
const (
	EmploymentUnknown EmploymentType = iota
	EmploymentCLT
	EmploymentPJ
	EmploymentContractor
	EmploymentInternship
	EmploymentTemporary
)

func (e EmploymentType) String() string {
	switch e {
	case EmploymentCLT:
		return "CLT"
	case EmploymentPJ:
		return "PJ"
	case EmploymentContractor:
		return "Contractor"
	case EmploymentInternship:
		return "Internship"
	case EmploymentTemporary:
		return "Temporary"
	default:
		return "Unknown"
	}
}

// Status is the posting lifecycle state. Transitions only Active -> Expired;
// a posting re-observed by its source is forced back to Active.
type Status int

const (
	StatusUnknown Status = iota
	StatusActive
	StatusExpired
)

func (s Status) String() string {
	switch s {
	case StatusActive:
		return "Active"
	case StatusExpired:
		return "Expired"
	default:
		return "Unknown"
	}
}

// VendorType identifies the shape of an external source.
type VendorType string

// Known vendor shapes, one adapter each.
const (
	VendorInfoJobs         VendorType = "infojobs"
	VendorVagas            VendorType = "vagas"
	VendorWorkday          VendorType = "workday"
	VendorGupy             VendorType = "gupy"
	VendorCorporateCareers VendorType = "corporate"
	VendorJSONLD           VendorType = "jsonld"
	VendorFixture          VendorType = "fixture"
)

// SourceRef identifies where a posting was observed.
type SourceRef struct {
	Name        string
	Vendor      VendorType
	URL         string
	SourceJobID string
}

// CompanyRef names the hiring company.
type CompanyRef struct {
	Name     string
	Website  string
	Industry string
}

// LocationRef is the structured location, when one could be derived.
type LocationRef struct {
	Country string
	State   string
	City    string
}

// SalaryRange holds whatever salary fields the source exposed.
type SalaryRange struct {
	Min      *float64
	Max      *float64
	Currency string
	Period   string
}

// PopulatedFields counts how many of the four salary fields carry a value.
// Merge rules only replace a salary with a strictly better-populated one.
func (s SalaryRange) PopulatedFields() int {
	n := 0
	if s.Min != nil {
		n++
	}
	if s.Max != nil {
		n++
	}
	if s.Currency != "" {
		n++
	}
	if s.Period != "" {
		n++
	}
	return n
}

// DedupeInfo carries the identity fingerprint. ClusterID is reserved for
// cross-source clustering and stays empty in this pipeline.
type DedupeInfo struct {
	Fingerprint string
	ClusterID   string
}

// Posting is the canonical, deduplicated representation of one job
// advertisement, independent of the source format it was scraped from.
type Posting struct {
	ID uuid.UUID

	Source   SourceRef
	Title    string
	Company  CompanyRef
	Location *LocationRef

	LocationText string
	WorkMode     WorkMode
	Seniority    Seniority
	Employment   EmploymentType
	Salary       *SalaryRange

	DescriptionText string
	Tags            []string
	Languages       []string

	// PostedAt is source-declared; once known it only moves earlier.
	PostedAt   *time.Time
	CapturedAt time.Time
	LastSeenAt time.Time

	Status Status
	Dedupe DedupeInfo

	Metadata map[string]any
}
