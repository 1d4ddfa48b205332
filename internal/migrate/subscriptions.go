package migrate

import (
	"context"
	"strconv"

	"github.com/ignite/billing-migrator/internal/chartmogul"
	"github.com/ignite/billing-migrator/internal/lemonsqueezy"
	"github.com/ignite/billing-migrator/internal/pkg/logger"
)

// Subscription statuses that translate into destination events.
const (
	statusActive    = "active"
	statusCancelled = "cancelled"
	statusExpired   = "expired"
)

// EventTranslator emits one lifecycle event per source subscription: a
// scheduled start for active subscriptions, a cancellation for cancelled or
// expired ones. Any other status produces no event. Idempotency across runs
// rests on the destination deduplicating events by external_id.
type EventTranslator struct {
	source SourceAPI
	dest   DestinationAPI
}

// NewEventTranslator creates a subscription event translator.
func NewEventTranslator(source SourceAPI, dest DestinationAPI) *EventTranslator {
	return &EventTranslator{source: source, dest: dest}
}

// Run translates every subscription. The destination customer is resolved
// from the refreshed snapshot; the order supplies currency and amount.
// Missing customer or order skips the subscription.
func (t *EventTranslator) Run(ctx context.Context, subs []lemonsqueezy.Subscription, customers []chartmogul.Customer) StageReport {
	report := newStageReport("subscriptions")
	byEmail := customersByEmail(customers)

	logger.Info("translating subscriptions", "count", len(subs))

	for _, sub := range subs {
		attrs := sub.Attributes

		customer, ok := byEmail[attrs.UserEmail]
		if !ok {
			report.skipped(sub.ID, "customer not found in destination: "+attrs.UserEmail)
			continue
		}

		order, err := t.source.FetchOrder(ctx, strconv.Itoa(attrs.OrderID))
		if err != nil {
			report.skipped(sub.ID, "order "+strconv.Itoa(attrs.OrderID)+" unavailable: "+err.Error())
			continue
		}

		event, ok := subscriptionEvent(sub, customer.ExternalID, order)
		if !ok {
			report.skipped(sub.ID, "status "+attrs.Status+" produces no event")
			continue
		}

		if err := t.dest.CreateSubscriptionEvent(ctx, event); err != nil {
			report.failed(sub.ID, err)
			continue
		}
		report.created(sub.ID)
		logger.Debug("created subscription event", "external_id", event.ExternalID, "type", event.EventType)
	}

	return report
}

// subscriptionEvent maps a subscription's status to its destination event.
// The mapping is total over {active, cancelled, expired}; everything else
// returns ok=false.
func subscriptionEvent(sub lemonsqueezy.Subscription, customerExternalID string, order *lemonsqueezy.Order) (chartmogul.SubscriptionEvent, bool) {
	attrs := sub.Attributes

	event := chartmogul.SubscriptionEvent{
		CustomerExternalID:     customerExternalID,
		SubscriptionExternalID: sub.ID,
		PlanExternalID:         subscriptionPlanExternalID(attrs),
		Currency:               order.Attributes.Currency,
		AmountInCents:          order.Attributes.Subtotal,
		Quantity:               1,
		EventOrder:             1,
	}

	switch attrs.Status {
	case statusActive:
		event.ExternalID = sub.ID + "-start"
		event.EventType = chartmogul.EventSubscriptionStartScheduled
		event.EventDate = attrs.CreatedAt
		event.EffectiveDate = attrs.CreatedAt
	case statusCancelled:
		event.ExternalID = sub.ID + "-cancelled"
		event.EventType = chartmogul.EventSubscriptionCancelled
		event.EventDate = attrs.UpdatedAt
		event.EffectiveDate = attrs.UpdatedAt
	case statusExpired:
		date := attrs.EndsAt
		if date == "" {
			date = attrs.UpdatedAt
		}
		event.ExternalID = sub.ID + "-expired"
		event.EventType = chartmogul.EventSubscriptionCancelled
		event.EventDate = date
		event.EffectiveDate = date
	default:
		return chartmogul.SubscriptionEvent{}, false
	}

	return event, true
}
