package migrate

import (
	"context"
	"fmt"

	"github.com/ignite/billing-migrator/internal/chartmogul"
	"github.com/ignite/billing-migrator/internal/lemonsqueezy"
)

// fakeSource implements SourceAPI from in-memory fixtures.
type fakeSource struct {
	customers     []lemonsqueezy.Customer
	products      []lemonsqueezy.Product
	variants      map[string][]lemonsqueezy.Variant
	subscriptions []lemonsqueezy.Subscription
	invoices      []lemonsqueezy.SubscriptionInvoice
	redemptions   []lemonsqueezy.DiscountRedemption
	orders        map[string]lemonsqueezy.Order

	customersErr error
	variantsErr  map[string]error

	orderFetches []string
}

func (f *fakeSource) FetchAllCustomers(ctx context.Context) ([]lemonsqueezy.Customer, error) {
	return f.customers, f.customersErr
}

func (f *fakeSource) FetchAllProducts(ctx context.Context) ([]lemonsqueezy.Product, error) {
	return f.products, nil
}

func (f *fakeSource) FetchAllVariants(ctx context.Context, productID string) ([]lemonsqueezy.Variant, error) {
	if err, ok := f.variantsErr[productID]; ok {
		return f.variants[productID], err
	}
	return f.variants[productID], nil
}

func (f *fakeSource) FetchAllSubscriptions(ctx context.Context) ([]lemonsqueezy.Subscription, error) {
	return f.subscriptions, nil
}

func (f *fakeSource) FetchAllSubscriptionInvoices(ctx context.Context) ([]lemonsqueezy.SubscriptionInvoice, error) {
	return f.invoices, nil
}

func (f *fakeSource) FetchAllDiscountRedemptions(ctx context.Context) ([]lemonsqueezy.DiscountRedemption, error) {
	return f.redemptions, nil
}

func (f *fakeSource) FetchOrder(ctx context.Context, orderID string) (*lemonsqueezy.Order, error) {
	f.orderFetches = append(f.orderFetches, orderID)
	order, ok := f.orders[orderID]
	if !ok {
		return nil, fmt.Errorf("order %s not found", orderID)
	}
	return &order, nil
}

// importedInvoice pairs an imported invoice with the customer it was
// imported under.
type importedInvoice struct {
	CustomerUUID string
	Invoice      chartmogul.Invoice
}

// fakeDest implements DestinationAPI with stateful create semantics:
// created customers and plans show up in subsequent fetches, which is what
// lets runner tests exercise the between-stage refetch.
type fakeDest struct {
	customers []chartmogul.Customer
	plans     []chartmogul.Plan

	created        []chartmogul.NewCustomer
	updated        map[string]chartmogul.CustomerUpdate
	deletedPeople  []string
	createdPlans   []chartmogul.NewPlan
	deletedPlans   []string
	events         []chartmogul.SubscriptionEvent
	importedInvs   []importedInvoice
	customerFetches int

	failEmails map[string]error
	planErr    error
	eventErr   error
	importErr  error
}

func newFakeDest() *fakeDest {
	return &fakeDest{updated: make(map[string]chartmogul.CustomerUpdate)}
}

func (f *fakeDest) FetchAllCustomers(ctx context.Context) ([]chartmogul.Customer, error) {
	f.customerFetches++
	out := make([]chartmogul.Customer, len(f.customers))
	copy(out, f.customers)
	return out, nil
}

func (f *fakeDest) FetchAllPlans(ctx context.Context) ([]chartmogul.Plan, error) {
	out := make([]chartmogul.Plan, len(f.plans))
	copy(out, f.plans)
	return out, nil
}

func (f *fakeDest) CreateCustomer(ctx context.Context, customer chartmogul.NewCustomer) error {
	if err := f.failEmails[customer.Email]; err != nil {
		return err
	}
	f.created = append(f.created, customer)
	f.customers = append(f.customers, chartmogul.Customer{
		UUID:       "cus_" + customer.ExternalID,
		ExternalID: customer.ExternalID,
		Email:      customer.Email,
		Company:    customer.Company,
		Country:    customer.Country,
		State:      customer.State,
		City:       customer.City,
	})
	return nil
}

func (f *fakeDest) UpdateCustomer(ctx context.Context, uuid string, update chartmogul.CustomerUpdate) error {
	if err := f.failEmails[update.Email]; err != nil {
		return err
	}
	f.updated[uuid] = update
	return nil
}

func (f *fakeDest) DeleteCustomer(ctx context.Context, uuid string) error {
	f.deletedPeople = append(f.deletedPeople, uuid)
	return nil
}

func (f *fakeDest) CreatePlan(ctx context.Context, plan chartmogul.NewPlan) error {
	if f.planErr != nil {
		return f.planErr
	}
	f.createdPlans = append(f.createdPlans, plan)
	// Upsert by external_id.
	for i, existing := range f.plans {
		if existing.ExternalID == plan.ExternalID {
			f.plans[i] = chartmogul.Plan{
				UUID:          existing.UUID,
				ExternalID:    plan.ExternalID,
				Name:          plan.Name,
				IntervalUnit:  plan.IntervalUnit,
				IntervalCount: plan.IntervalCount,
			}
			return nil
		}
	}
	f.plans = append(f.plans, chartmogul.Plan{
		UUID:          "pl_" + plan.ExternalID,
		ExternalID:    plan.ExternalID,
		Name:          plan.Name,
		IntervalUnit:  plan.IntervalUnit,
		IntervalCount: plan.IntervalCount,
	})
	return nil
}

func (f *fakeDest) DeletePlan(ctx context.Context, uuid string) error {
	f.deletedPlans = append(f.deletedPlans, uuid)
	return nil
}

func (f *fakeDest) CreateSubscriptionEvent(ctx context.Context, event chartmogul.SubscriptionEvent) error {
	if f.eventErr != nil {
		return f.eventErr
	}
	f.events = append(f.events, event)
	return nil
}

func (f *fakeDest) ImportInvoice(ctx context.Context, customerUUID string, invoice chartmogul.Invoice) error {
	if f.importErr != nil {
		return f.importErr
	}
	f.importedInvs = append(f.importedInvs, importedInvoice{CustomerUUID: customerUUID, Invoice: invoice})
	return nil
}
