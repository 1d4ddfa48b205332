package migrate

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/ignite/billing-migrator/internal/chartmogul"
	"github.com/ignite/billing-migrator/internal/lemonsqueezy"
	"github.com/ignite/billing-migrator/internal/pkg/logger"
)

// PlanMapper turns source products and their variants into destination
// plans. A product with no variants becomes a single plan keyed on the
// product id; otherwise every variant becomes its own plan keyed on
// "{product.id}-{variant.id}". Plan creation upserts by external_id, so the
// stage is safe to re-run.
type PlanMapper struct {
	source SourceAPI
	dest   DestinationAPI
}

// NewPlanMapper creates a plan mapper.
func NewPlanMapper(source SourceAPI, dest DestinationAPI) *PlanMapper {
	return &PlanMapper{source: source, dest: dest}
}

// Run maps every product. Each plan creation is independent: one variant
// failing never aborts its siblings or the other products.
func (m *PlanMapper) Run(ctx context.Context, products []lemonsqueezy.Product) StageReport {
	report := newStageReport("plans")

	logger.Info("mapping plans", "products", len(products))

	for _, product := range products {
		variants, err := m.source.FetchAllVariants(ctx, product.ID)
		if err != nil {
			report.partialFetch("variants for product "+product.ID, err)
		}

		if len(variants) == 0 {
			if err != nil {
				// Nothing retrieved at all; don't misread a failed fetch
				// as a variant-less product.
				report.failed(product.ID, fmt.Errorf("variants unavailable: %w", err))
				continue
			}
			plan := planFromProduct(product)
			if err := m.dest.CreatePlan(ctx, plan); err != nil {
				report.failed(product.ID, err)
				continue
			}
			report.created(product.ID)
			logger.Debug("created plan from product", "name", plan.Name, "external_id", plan.ExternalID)
			continue
		}

		for _, variant := range variants {
			plan := planFromVariant(product, variant)
			if err := m.dest.CreatePlan(ctx, plan); err != nil {
				report.failed(plan.ExternalID, err)
				continue
			}
			report.created(plan.ExternalID)
			logger.Debug("created plan from variant", "name", plan.Name, "external_id", plan.ExternalID)
		}
	}

	return report
}

// planFromProduct builds the plan for a variant-less product. The interval
// comes from the product name alone; interval_count is always 1.
func planFromProduct(product lemonsqueezy.Product) chartmogul.NewPlan {
	unit := "month"
	if nameLooksAnnual(product.Attributes.Name) {
		unit = "year"
	}
	return chartmogul.NewPlan{
		Name:          product.Attributes.Name,
		IntervalUnit:  unit,
		IntervalCount: 1,
		ExternalID:    product.ID,
	}
}

// planFromVariant builds the plan for one product variant. Explicit interval
// fields win when the variant is a subscription and carries them; otherwise
// the variant name, then the product name, decide between year and month.
func planFromVariant(product lemonsqueezy.Product, variant lemonsqueezy.Variant) chartmogul.NewPlan {
	attrs := variant.Attributes

	unit := "month"
	count := 1
	if attrs.IsSubscription && attrs.Interval != "" {
		unit = attrs.Interval
		if attrs.IntervalCount > 0 {
			count = attrs.IntervalCount
		}
	} else if nameLooksAnnual(attrs.Name) || nameLooksAnnual(product.Attributes.Name) {
		unit = "year"
	}

	return chartmogul.NewPlan{
		Name:          product.Attributes.Name + " - " + attrs.Name,
		IntervalUnit:  unit,
		IntervalCount: count,
		ExternalID:    product.ID + "-" + variant.ID,
	}
}

// nameLooksAnnual reports whether a product or variant name marks a yearly
// billing interval.
func nameLooksAnnual(name string) bool {
	lower := strings.ToLower(name)
	return strings.Contains(lower, "annual") || strings.Contains(lower, "yearly")
}

// subscriptionPlanExternalID computes the external id of the plan a
// subscription bills against. Must stay in lockstep with the ids assigned
// by planFromProduct and planFromVariant or the plan reference dangles.
func subscriptionPlanExternalID(attrs lemonsqueezy.SubscriptionAttributes) string {
	if attrs.VariantID != 0 {
		return fmt.Sprintf("%d-%d", attrs.ProductID, attrs.VariantID)
	}
	return strconv.Itoa(attrs.ProductID)
}
