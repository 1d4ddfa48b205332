package migrate

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/ignite/billing-migrator/internal/chartmogul"
	"github.com/ignite/billing-migrator/internal/lemonsqueezy"
	"github.com/ignite/billing-migrator/internal/pkg/logger"
)

// Invoice synthesis strategies. "grouped" replays the source platform's own
// subscription invoices; "derived" reconstructs one invoice per subscription
// from its order and discount redemption. The two differ in external_id
// scheme, amount semantics and transaction rules — they are alternative
// historical behaviors, not interchangeable views of the same data.
const (
	StrategyGrouped = "grouped"
	StrategyDerived = "derived"
)

// InvoiceInputs carries everything stage 4 needs, pre-fetched by the runner.
// Invoices is only populated for the grouped strategy, Redemptions only for
// the derived one.
type InvoiceInputs struct {
	Subscriptions []lemonsqueezy.Subscription
	Invoices      []lemonsqueezy.SubscriptionInvoice
	Redemptions   []lemonsqueezy.DiscountRedemption
	Customers     []chartmogul.Customer
	Plans         []chartmogul.Plan
}

// InvoiceSynthesizer builds destination invoices with line items and
// transactions. Imports upsert by external_id, so re-runs are safe.
type InvoiceSynthesizer struct {
	source   SourceAPI
	dest     DestinationAPI
	strategy string
}

// NewInvoiceSynthesizer creates an invoice synthesizer using the given
// strategy (StrategyGrouped or StrategyDerived).
func NewInvoiceSynthesizer(source SourceAPI, dest DestinationAPI, strategy string) *InvoiceSynthesizer {
	return &InvoiceSynthesizer{source: source, dest: dest, strategy: strategy}
}

// Run synthesizes and imports invoices per the configured strategy.
func (s *InvoiceSynthesizer) Run(ctx context.Context, in InvoiceInputs) StageReport {
	if s.strategy == StrategyDerived {
		return s.runDerived(ctx, in)
	}
	return s.runGrouped(ctx, in)
}

// runGrouped is the primary flow: group the source platform's subscription
// invoices by subscription, resolve customer and plan once per group, then
// import one destination invoice per source invoice in billing order.
func (s *InvoiceSynthesizer) runGrouped(ctx context.Context, in InvoiceInputs) StageReport {
	report := newStageReport("invoices")

	subsByID := make(map[string]lemonsqueezy.Subscription, len(in.Subscriptions))
	for _, sub := range in.Subscriptions {
		subsByID[sub.ID] = sub
	}
	byEmail := customersByEmail(in.Customers)
	byPlanID := plansByExternalID(in.Plans)

	// Group by subscription_id, preserving the fetch order of first
	// appearance so runs stay deterministic.
	groups := make(map[string][]lemonsqueezy.SubscriptionInvoice)
	var groupOrder []string
	for _, inv := range in.Invoices {
		subID := strconv.Itoa(inv.Attributes.SubscriptionID)
		if inv.Attributes.SubscriptionID == 0 {
			continue
		}
		if _, ok := groups[subID]; !ok {
			groupOrder = append(groupOrder, subID)
		}
		groups[subID] = append(groups[subID], inv)
	}

	logger.Info("synthesizing invoices", "strategy", StrategyGrouped,
		"invoices", len(in.Invoices), "subscriptions", len(groupOrder))

	for _, subID := range groupOrder {
		invoices := groups[subID]

		sub, ok := subsByID[subID]
		if !ok {
			report.skipped(subID, "subscription not found in source snapshot")
			continue
		}
		customer, ok := byEmail[sub.Attributes.UserEmail]
		if !ok {
			report.skipped(subID, "customer not found in destination: "+sub.Attributes.UserEmail)
			continue
		}
		planExternalID := subscriptionPlanExternalID(sub.Attributes)
		plan, ok := byPlanID[planExternalID]
		if !ok {
			report.skipped(subID, "plan not found for external_id: "+planExternalID)
			continue
		}

		sortInvoicesByBillingDate(invoices)

		for _, inv := range invoices {
			destInvoice, err := groupedInvoice(inv, sub, customer, plan)
			if err != nil {
				report.failed(inv.ID, err)
				continue
			}
			if err := s.dest.ImportInvoice(ctx, customer.UUID, destInvoice); err != nil {
				report.failed(inv.ID, err)
				continue
			}
			report.created(inv.ID)
			logger.Debug("imported invoice", "external_id", destInvoice.ExternalID)
		}
	}

	return report
}

// groupedInvoice builds the destination invoice for one source invoice.
// The line item amount is the invoice's total — the final charged amount
// after discount and tax — never the subtotal.
func groupedInvoice(inv lemonsqueezy.SubscriptionInvoice, sub lemonsqueezy.Subscription, customer chartmogul.Customer, plan chartmogul.Plan) (chartmogul.Invoice, error) {
	attrs := inv.Attributes

	date := attrs.BillingAt
	if date == "" {
		date = attrs.CreatedAt
	}
	start, err := time.Parse(time.RFC3339, date)
	if err != nil {
		return chartmogul.Invoice{}, fmt.Errorf("invoice %s: unparseable billing date %q: %w", inv.ID, date, err)
	}
	end := advanceServicePeriod(start, plan.IntervalUnit, plan.IntervalCount)

	lineItem := chartmogul.LineItem{
		Type:                   "subscription",
		SubscriptionExternalID: sub.ID,
		PlanUUID:               plan.UUID,
		ServicePeriodStart:     date,
		ServicePeriodEnd:       end.Format(time.RFC3339),
		AmountInCents:          attrs.Total,
		Quantity:               1,
		TaxAmountInCents:       attrs.Tax,
		DiscountAmountInCents:  attrs.DiscountTotal,
		DiscountCode:           attrs.DiscountCode,
		DiscountDescription:    attrs.DiscountDescription,
	}

	transactions := []chartmogul.Transaction{}
	switch attrs.Status {
	case "refunded":
		transactions = append(transactions, chartmogul.Transaction{
			Date:   date,
			Type:   chartmogul.TransactionRefund,
			Result: chartmogul.ResultSuccessful,
		})
	case "paid":
		transactions = append(transactions, chartmogul.Transaction{
			Date:   date,
			Type:   chartmogul.TransactionPayment,
			Result: chartmogul.ResultSuccessful,
		})
	}

	return chartmogul.Invoice{
		ExternalID:         "ls-inv-" + inv.ID,
		Date:               date,
		DueDate:            date,
		Currency:           attrs.Currency,
		CustomerExternalID: customer.ExternalID,
		LineItems:          []chartmogul.LineItem{lineItem},
		Transactions:       transactions,
	}, nil
}

// runDerived is the alternate flow: one invoice per subscription, built from
// its order and the first discount redemption matching that order. Amounts
// are subtotal minus the redeemed discount; a payment transaction is
// recorded only while the subscription is active.
func (s *InvoiceSynthesizer) runDerived(ctx context.Context, in InvoiceInputs) StageReport {
	report := newStageReport("invoices")

	byEmail := customersByEmail(in.Customers)
	byPlanID := plansByExternalID(in.Plans)

	// First redemption per order wins; the join is not unique-enforced.
	redemptionsByOrder := make(map[int]lemonsqueezy.DiscountRedemption)
	for _, red := range in.Redemptions {
		if _, ok := redemptionsByOrder[red.Attributes.OrderID]; !ok {
			redemptionsByOrder[red.Attributes.OrderID] = red
		}
	}

	logger.Info("synthesizing invoices", "strategy", StrategyDerived,
		"subscriptions", len(in.Subscriptions))

	for _, sub := range in.Subscriptions {
		attrs := sub.Attributes

		customer, ok := byEmail[attrs.UserEmail]
		if !ok {
			report.skipped(sub.ID, "customer not found in destination: "+attrs.UserEmail)
			continue
		}
		planExternalID := subscriptionPlanExternalID(attrs)
		plan, ok := byPlanID[planExternalID]
		if !ok {
			report.skipped(sub.ID, "plan not found for external_id: "+planExternalID)
			continue
		}
		order, err := s.source.FetchOrder(ctx, strconv.Itoa(attrs.OrderID))
		if err != nil {
			report.skipped(sub.ID, "order "+strconv.Itoa(attrs.OrderID)+" unavailable: "+err.Error())
			continue
		}

		start, err := time.Parse(time.RFC3339, attrs.CreatedAt)
		if err != nil {
			report.failed(sub.ID, fmt.Errorf("unparseable created_at %q: %w", attrs.CreatedAt, err))
			continue
		}
		end := advanceServicePeriod(start, plan.IntervalUnit, plan.IntervalCount)

		amount := order.Attributes.Subtotal
		discountAmount := 0
		discountCode := ""
		discountName := ""
		if red, ok := redemptionsByOrder[attrs.OrderID]; ok {
			discountAmount = red.Attributes.Amount
			amount -= discountAmount
			discountCode = red.Attributes.DiscountCode
			discountName = red.Attributes.DiscountName
		}

		lineItem := chartmogul.LineItem{
			Type:                   "subscription",
			SubscriptionExternalID: sub.ID,
			PlanUUID:               plan.UUID,
			ServicePeriodStart:     attrs.CreatedAt,
			ServicePeriodEnd:       end.Format(time.RFC3339),
			AmountInCents:          amount,
			Quantity:               1,
			TaxAmountInCents:       order.Attributes.Tax,
			DiscountAmountInCents:  discountAmount,
			DiscountCode:           discountCode,
			DiscountDescription:    discountName,
		}

		transactions := []chartmogul.Transaction{}
		if attrs.Status == statusActive {
			transactions = append(transactions, chartmogul.Transaction{
				Date:   attrs.CreatedAt,
				Type:   chartmogul.TransactionPayment,
				Result: chartmogul.ResultSuccessful,
			})
		}

		destInvoice := chartmogul.Invoice{
			ExternalID:         "inv-" + sub.ID,
			Date:               attrs.CreatedAt,
			DueDate:            attrs.CreatedAt,
			Currency:           order.Attributes.Currency,
			CustomerExternalID: customer.ExternalID,
			LineItems:          []chartmogul.LineItem{lineItem},
			Transactions:       transactions,
		}

		if err := s.dest.ImportInvoice(ctx, customer.UUID, destInvoice); err != nil {
			report.failed(sub.ID, err)
			continue
		}
		report.created(sub.ID)
		logger.Debug("imported invoice", "external_id", destInvoice.ExternalID)
	}

	return report
}

// sortInvoicesByBillingDate orders a group ascending by billing_at, falling
// back to created_at. Unparseable dates sort first; the sort is stable so
// ties keep fetch order.
func sortInvoicesByBillingDate(invoices []lemonsqueezy.SubscriptionInvoice) {
	sort.SliceStable(invoices, func(i, j int) bool {
		return invoiceBillingTime(invoices[i]).Before(invoiceBillingTime(invoices[j]))
	})
}

func invoiceBillingTime(inv lemonsqueezy.SubscriptionInvoice) time.Time {
	date := inv.Attributes.BillingAt
	if date == "" {
		date = inv.Attributes.CreatedAt
	}
	t, err := time.Parse(time.RFC3339, date)
	if err != nil {
		return time.Time{}
	}
	return t
}

// advanceServicePeriod moves start forward by the plan interval using
// calendar arithmetic, not fixed durations: one month past Jan 15 is Feb 15
// regardless of the number of days in between.
func advanceServicePeriod(start time.Time, intervalUnit string, intervalCount int) time.Time {
	if intervalCount <= 0 {
		intervalCount = 1
	}
	if intervalUnit == "year" {
		return start.AddDate(intervalCount, 0, 0)
	}
	return start.AddDate(0, intervalCount, 0)
}
