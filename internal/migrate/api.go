package migrate

import (
	"context"

	"github.com/ignite/billing-migrator/internal/chartmogul"
	"github.com/ignite/billing-migrator/internal/lemonsqueezy"
)

// SourceAPI is the slice of the LemonSqueezy client the pipeline consumes.
// Fetch-all methods return whatever was accumulated before a pagination
// failure along with the error, so a stage can record a partial fetch.
type SourceAPI interface {
	FetchAllCustomers(ctx context.Context) ([]lemonsqueezy.Customer, error)
	FetchAllProducts(ctx context.Context) ([]lemonsqueezy.Product, error)
	FetchAllVariants(ctx context.Context, productID string) ([]lemonsqueezy.Variant, error)
	FetchAllSubscriptions(ctx context.Context) ([]lemonsqueezy.Subscription, error)
	FetchAllSubscriptionInvoices(ctx context.Context) ([]lemonsqueezy.SubscriptionInvoice, error)
	FetchAllDiscountRedemptions(ctx context.Context) ([]lemonsqueezy.DiscountRedemption, error)
	FetchOrder(ctx context.Context, orderID string) (*lemonsqueezy.Order, error)
}

// DestinationAPI is the slice of the ChartMogul client the pipeline consumes.
// CreatePlan, CreateSubscriptionEvent and ImportInvoice are upserts keyed on
// external_id; CreateCustomer is not, which is why the customer stage matches
// by email before deciding between create and update.
type DestinationAPI interface {
	FetchAllCustomers(ctx context.Context) ([]chartmogul.Customer, error)
	FetchAllPlans(ctx context.Context) ([]chartmogul.Plan, error)
	CreateCustomer(ctx context.Context, customer chartmogul.NewCustomer) error
	UpdateCustomer(ctx context.Context, uuid string, update chartmogul.CustomerUpdate) error
	DeleteCustomer(ctx context.Context, uuid string) error
	CreatePlan(ctx context.Context, plan chartmogul.NewPlan) error
	DeletePlan(ctx context.Context, uuid string) error
	CreateSubscriptionEvent(ctx context.Context, event chartmogul.SubscriptionEvent) error
	ImportInvoice(ctx context.Context, customerUUID string, invoice chartmogul.Invoice) error
}

var (
	_ SourceAPI      = (*lemonsqueezy.Client)(nil)
	_ DestinationAPI = (*chartmogul.Client)(nil)
)

// customersByEmail indexes destination customers by email, the lookup key
// used throughout a run. Exact, case-sensitive match.
func customersByEmail(customers []chartmogul.Customer) map[string]chartmogul.Customer {
	byEmail := make(map[string]chartmogul.Customer, len(customers))
	for _, c := range customers {
		if c.Email == "" {
			continue
		}
		if _, ok := byEmail[c.Email]; !ok {
			byEmail[c.Email] = c
		}
	}
	return byEmail
}

// plansByExternalID indexes destination plans by their external id.
func plansByExternalID(plans []chartmogul.Plan) map[string]chartmogul.Plan {
	byID := make(map[string]chartmogul.Plan, len(plans))
	for _, p := range plans {
		if p.ExternalID == "" {
			continue
		}
		if _, ok := byID[p.ExternalID]; !ok {
			byID[p.ExternalID] = p
		}
	}
	return byID
}
