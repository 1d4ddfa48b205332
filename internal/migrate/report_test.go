package migrate

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStageReportCounters(t *testing.T) {
	report := newStageReport("customers")
	report.created("1")
	report.created("2")
	report.updated("3")
	report.skipped("4", "no email")
	report.failed("5", errors.New("status 500"))

	assert.Equal(t, 2, report.Created)
	assert.Equal(t, 1, report.Updated)
	assert.Equal(t, 1, report.Skipped)
	assert.Equal(t, 1, report.Failed)
	assert.Len(t, report.Items, 5)

	assert.Equal(t, ItemResult{ID: "4", Status: StatusSkipped, Reason: "no email"}, report.Items[3])
	assert.Equal(t, ItemResult{ID: "5", Status: StatusFailed, Reason: "status 500"}, report.Items[4])
}

func TestRunReportAggregates(t *testing.T) {
	run := &RunReport{Stages: []StageReport{
		{Stage: "customers", Failed: 2},
		{Stage: "plans"},
		{Stage: "invoices", Failed: 1},
	}}
	assert.Equal(t, 3, run.TotalFailed())
	assert.False(t, run.Partial())

	run.Stages[1].PartialFetches = []string{"source products: status 500"}
	assert.True(t, run.Partial())
}
