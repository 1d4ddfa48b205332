package migrate

import (
	"fmt"
	"time"

	"github.com/ignite/billing-migrator/internal/pkg/logger"
)

// Status classifies the outcome of processing one source item.
type Status string

const (
	StatusCreated Status = "created"
	StatusUpdated Status = "updated"
	StatusDeleted Status = "deleted"
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
)

// ItemResult is the outcome for a single source item.
type ItemResult struct {
	ID     string `json:"id"`
	Status Status `json:"status"`
	Reason string `json:"reason,omitempty"`
}

// StageReport accumulates per-item outcomes for one pipeline stage. It is
// the audit trail: console output is informational only.
type StageReport struct {
	Stage   string `json:"stage"`
	Created int    `json:"created"`
	Updated int    `json:"updated"`
	Deleted int    `json:"deleted,omitempty"`
	Skipped int    `json:"skipped"`
	Failed  int    `json:"failed"`

	// PartialFetches names every fetch that was truncated by a pagination
	// error. The stage still ran over whatever was retrieved.
	PartialFetches []string `json:"partial_fetches,omitempty"`

	Items []ItemResult `json:"items,omitempty"`
}

func newStageReport(stage string) StageReport {
	return StageReport{Stage: stage}
}

func (r *StageReport) created(id string) {
	r.Created++
	r.Items = append(r.Items, ItemResult{ID: id, Status: StatusCreated})
}

func (r *StageReport) updated(id string) {
	r.Updated++
	r.Items = append(r.Items, ItemResult{ID: id, Status: StatusUpdated})
}

func (r *StageReport) deleted(id string) {
	r.Deleted++
	r.Items = append(r.Items, ItemResult{ID: id, Status: StatusDeleted})
}

func (r *StageReport) skipped(id, reason string) {
	r.Skipped++
	r.Items = append(r.Items, ItemResult{ID: id, Status: StatusSkipped, Reason: reason})
	logger.Warn("item skipped", "stage", r.Stage, "id", id, "reason", reason)
}

func (r *StageReport) failed(id string, err error) {
	r.Failed++
	r.Items = append(r.Items, ItemResult{ID: id, Status: StatusFailed, Reason: err.Error()})
	logger.Error("item failed", "stage", r.Stage, "id", id, "error", err)
}

func (r *StageReport) partialFetch(what string, err error) {
	r.PartialFetches = append(r.PartialFetches, fmt.Sprintf("%s: %v", what, err))
	logger.Warn("fetch truncated", "stage", r.Stage, "fetch", what, "error", err)
}

// RunReport is the aggregate outcome of one migration run.
type RunReport struct {
	RunID      string        `json:"run_id"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	Stages     []StageReport `json:"stages"`
}

// TotalFailed sums failed items across all stages.
func (r *RunReport) TotalFailed() int {
	n := 0
	for _, s := range r.Stages {
		n += s.Failed
	}
	return n
}

// Partial reports whether any fetch was truncated during the run.
func (r *RunReport) Partial() bool {
	for _, s := range r.Stages {
		if len(s.PartialFetches) > 0 {
			return true
		}
	}
	return false
}
