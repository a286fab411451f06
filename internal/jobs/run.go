package jobs

import (
	"time"

	"github.com/google/uuid"
)

// RunStatus is the lifecycle of one ingestion run.
type RunStatus string

// Run statuses persisted with the run record.
const (
	RunRunning RunStatus = "Running"
	RunSuccess RunStatus = "Success"
	RunFailed  RunStatus = "Failed"
)

// Counters accumulates per-run statistics.
type Counters struct {
	Fetched    int
	Parsed     int
	Normalized int
	Indexed    int
	Duplicates int
	Errors     int
}

// RunRecord is append-only telemetry for one orchestrator execution
// against one source.
type RunRecord struct {
	ID         uuid.UUID
	SourceID   uuid.UUID
	StartedAt  time.Time
	FinishedAt *time.Time
	Status     RunStatus
	Counters   Counters
	// ErrorSample holds the first failure message when Status is Failed.
	ErrorSample string
}

// SourceDescriptor registers one configured source. Identity is
// (Name, Vendor).
type SourceDescriptor struct {
	ID      uuid.UUID
	Name    string
	Vendor  VendorType
	BaseURL string
	Enabled bool
}
