package chartmogul

// Customer is a ChartMogul customer. UUID is assigned by ChartMogul;
// ExternalID is set once at creation and carries the source-platform
// customer id. Email is the lookup key used during a run.
type Customer struct {
	UUID       string `json:"uuid"`
	ExternalID string `json:"external_id"`
	Email      string `json:"email"`
	Company    string `json:"company"`
	Country    string `json:"country"`
	State      string `json:"state"`
	City       string `json:"city"`
}

// PrimaryContact is the contact block attached to a customer.
type PrimaryContact struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
}

// NewCustomer is the create payload for a customer. DataSourceUUID is
// stamped by the client.
type NewCustomer struct {
	ExternalID     string         `json:"external_id"`
	DataSourceUUID string         `json:"data_source_uuid,omitempty"`
	Company        string         `json:"company"`
	Country        string         `json:"country"`
	State          string         `json:"state"`
	City           string         `json:"city"`
	LeadCreatedAt  string         `json:"lead_created_at,omitempty"`
	Email          string         `json:"email"`
	PrimaryContact PrimaryContact `json:"primary_contact"`
}

// CustomerUpdate is the PATCH payload for an existing customer. The
// external_id is deliberately absent: it is immutable after creation.
type CustomerUpdate struct {
	Company        string         `json:"company"`
	Country        string         `json:"country"`
	State          string         `json:"state"`
	City           string         `json:"city"`
	DataSourceUUID string         `json:"data_source_uuid,omitempty"`
	Email          string         `json:"email"`
	PrimaryContact PrimaryContact `json:"primary_contact"`
}

// Plan is a ChartMogul billing-interval template.
type Plan struct {
	UUID          string `json:"uuid"`
	ExternalID    string `json:"external_id"`
	Name          string `json:"name"`
	IntervalUnit  string `json:"interval_unit"`
	IntervalCount int    `json:"interval_count"`
}

// NewPlan is the create payload for a plan. The import endpoint upserts by
// external_id: re-posting the same external_id never produces a duplicate.
type NewPlan struct {
	Name           string `json:"name"`
	IntervalUnit   string `json:"interval_unit"`
	IntervalCount  int    `json:"interval_count"`
	ExternalID     string `json:"external_id"`
	DataSourceUUID string `json:"data_source_uuid,omitempty"`
}

// SubscriptionEvent is a destination-side lifecycle record representing MRR
// movement. The API deduplicates on external_id, which makes re-posting the
// same event across runs an upsert.
type SubscriptionEvent struct {
	ExternalID             string `json:"external_id"`
	CustomerExternalID     string `json:"customer_external_id"`
	DataSourceUUID         string `json:"data_source_uuid,omitempty"`
	EventType              string `json:"event_type"`
	EventDate              string `json:"event_date"`
	EffectiveDate          string `json:"effective_date"`
	SubscriptionExternalID string `json:"subscription_external_id"`
	PlanExternalID         string `json:"plan_external_id"`
	Currency               string `json:"currency"`
	AmountInCents          int    `json:"amount_in_cents"`
	Quantity               int    `json:"quantity"`
	EventOrder             int    `json:"event_order"`
}

// Subscription event types.
const (
	EventSubscriptionStartScheduled = "subscription_start_scheduled"
	EventSubscriptionCancelled      = "subscription_cancelled"
)

// LineItem is one charge line on an imported invoice.
type LineItem struct {
	Type                   string `json:"type"`
	SubscriptionExternalID string `json:"subscription_external_id"`
	PlanUUID               string `json:"plan_uuid"`
	ServicePeriodStart     string `json:"service_period_start"`
	ServicePeriodEnd       string `json:"service_period_end"`
	AmountInCents          int    `json:"amount_in_cents"`
	Quantity               int    `json:"quantity"`
	TaxAmountInCents       int    `json:"tax_amount_in_cents"`
	DiscountAmountInCents  int    `json:"discount_amount_in_cents"`
	DiscountCode           string `json:"discount_code"`
	DiscountDescription    string `json:"discount_description"`
}

// Transaction records a payment or refund attempt against an invoice.
type Transaction struct {
	Date   string `json:"date"`
	Type   string `json:"type"`
	Result string `json:"result"`
}

// Transaction types and results.
const (
	TransactionPayment = "payment"
	TransactionRefund  = "refund"
	ResultSuccessful   = "successful"
)

// Invoice is the import payload for one invoice. Imports are upserts keyed
// on external_id.
type Invoice struct {
	ExternalID         string        `json:"external_id"`
	Date               string        `json:"date"`
	DueDate            string        `json:"due_date"`
	Currency           string        `json:"currency"`
	CustomerExternalID string        `json:"customer_external_id"`
	DataSourceUUID     string        `json:"data_source_uuid,omitempty"`
	LineItems          []LineItem    `json:"line_items"`
	Transactions       []Transaction `json:"transactions"`
}
