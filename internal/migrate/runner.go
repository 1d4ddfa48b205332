package migrate

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/ignite/billing-migrator/internal/pkg/logger"
)

// Options configures a migration run.
type Options struct {
	// InvoiceStrategy selects stage 4 behavior: StrategyGrouped or
	// StrategyDerived.
	InvoiceStrategy string
	// PurgeDestination wipes all destination data before importing.
	PurgeDestination bool
}

// Runner executes the four pipeline stages in fixed order: customers,
// plans, subscriptions, invoices. Strictly sequential; destination
// customers are re-fetched after stage 1 and plans after stage 2 so later
// stages see what the earlier ones created.
type Runner struct {
	source SourceAPI
	dest   DestinationAPI
	opts   Options
}

// NewRunner creates a runner over the two API clients.
func NewRunner(source SourceAPI, dest DestinationAPI, opts Options) *Runner {
	if opts.InvoiceStrategy == "" {
		opts.InvoiceStrategy = StrategyGrouped
	}
	return &Runner{source: source, dest: dest, opts: opts}
}

// Run executes the whole migration and returns its report. Per-item and
// per-fetch failures are recorded in the report and never abort the run;
// the only returned error is context cancellation.
func (r *Runner) Run(ctx context.Context) (*RunReport, error) {
	report := &RunReport{
		RunID:     uuid.NewString(),
		StartedAt: time.Now().UTC(),
	}
	logger.SetRunID(report.RunID)
	logger.Info("migration run starting", "invoice_strategy", r.opts.InvoiceStrategy, "purge", r.opts.PurgeDestination)

	if r.opts.PurgeDestination {
		stage := NewPurger(r.dest).Run(ctx)
		report.Stages = append(report.Stages, stage)
	}

	// Stage 1: customers.
	var fetchNotes []string
	sourceCustomers, err := r.source.FetchAllCustomers(ctx)
	fetchNotes = recordFetch(fetchNotes, "source customers", err)
	destCustomers, err := r.dest.FetchAllCustomers(ctx)
	fetchNotes = recordFetch(fetchNotes, "destination customers", err)

	stage := NewCustomerReconciler(r.dest).Run(ctx, sourceCustomers, destCustomers)
	stage.PartialFetches = append(fetchNotes, stage.PartialFetches...)
	report.Stages = append(report.Stages, stage)

	// Later stages must see the customers stage 1 just created.
	destCustomers, err = r.dest.FetchAllCustomers(ctx)
	refetchNote := recordFetch(nil, "destination customers (refresh)", err)

	// Stage 2: plans.
	fetchNotes = refetchNote
	products, err := r.source.FetchAllProducts(ctx)
	fetchNotes = recordFetch(fetchNotes, "source products", err)

	stage = NewPlanMapper(r.source, r.dest).Run(ctx, products)
	stage.PartialFetches = append(fetchNotes, stage.PartialFetches...)
	report.Stages = append(report.Stages, stage)

	destPlans, err := r.dest.FetchAllPlans(ctx)
	planRefetchNote := recordFetch(nil, "destination plans (refresh)", err)

	// Stage 3: subscription events.
	fetchNotes = nil
	subscriptions, err := r.source.FetchAllSubscriptions(ctx)
	fetchNotes = recordFetch(fetchNotes, "source subscriptions", err)

	stage = NewEventTranslator(r.source, r.dest).Run(ctx, subscriptions, destCustomers)
	stage.PartialFetches = append(fetchNotes, stage.PartialFetches...)
	report.Stages = append(report.Stages, stage)

	// Stage 4: invoices.
	fetchNotes = planRefetchNote
	inputs := InvoiceInputs{
		Subscriptions: subscriptions,
		Customers:     destCustomers,
		Plans:         destPlans,
	}
	switch r.opts.InvoiceStrategy {
	case StrategyDerived:
		inputs.Redemptions, err = r.source.FetchAllDiscountRedemptions(ctx)
		fetchNotes = recordFetch(fetchNotes, "source discount redemptions", err)
	default:
		inputs.Invoices, err = r.source.FetchAllSubscriptionInvoices(ctx)
		fetchNotes = recordFetch(fetchNotes, "source subscription invoices", err)
	}

	stage = NewInvoiceSynthesizer(r.source, r.dest, r.opts.InvoiceStrategy).Run(ctx, inputs)
	stage.PartialFetches = append(fetchNotes, stage.PartialFetches...)
	report.Stages = append(report.Stages, stage)

	report.FinishedAt = time.Now().UTC()
	logger.Info("migration run finished",
		"failed", report.TotalFailed(), "partial", report.Partial(),
		"duration", report.FinishedAt.Sub(report.StartedAt).String())

	if ctx.Err() != nil {
		return report, ctx.Err()
	}
	return report, nil
}

// recordFetch appends a truncation note when a fetch-all returned an error
// alongside its partial result.
func recordFetch(notes []string, what string, err error) []string {
	if err == nil {
		return notes
	}
	logger.Warn("fetch truncated", "fetch", what, "error", err)
	return append(notes, what+": "+err.Error())
}
