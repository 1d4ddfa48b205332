package migrate

import (
	"context"

	"github.com/ignite/billing-migrator/internal/pkg/logger"
)

// Purger wipes all destination data ahead of a clean re-import: customers
// first (deleting a customer cascades to their invoices), then plans.
// Disabled by default; a migration normally relies on upserts instead.
type Purger struct {
	dest DestinationAPI
}

// NewPurger creates a destination purger.
func NewPurger(dest DestinationAPI) *Purger {
	return &Purger{dest: dest}
}

// Run deletes every destination customer and plan. Per-item failures are
// recorded and skipped like any other stage.
func (p *Purger) Run(ctx context.Context) StageReport {
	report := newStageReport("purge")

	customers, err := p.dest.FetchAllCustomers(ctx)
	if err != nil {
		report.partialFetch("destination customers", err)
	}
	logger.Info("purging destination customers", "count", len(customers))
	for _, c := range customers {
		if err := p.dest.DeleteCustomer(ctx, c.UUID); err != nil {
			report.failed(c.UUID, err)
			continue
		}
		report.deleted(c.UUID)
	}

	plans, err := p.dest.FetchAllPlans(ctx)
	if err != nil {
		report.partialFetch("destination plans", err)
	}
	logger.Info("purging destination plans", "count", len(plans))
	for _, pl := range plans {
		if err := p.dest.DeletePlan(ctx, pl.UUID); err != nil {
			report.failed(pl.UUID, err)
			continue
		}
		report.deleted(pl.UUID)
	}

	return report
}
