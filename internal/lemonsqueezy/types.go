package lemonsqueezy

// The LemonSqueezy API is JSON:API shaped: every resource is an {id, attributes}
// pair and list endpoints carry meta.page pagination markers.

// pageMeta is the page marker block on paginated list responses.
type pageMeta struct {
	CurrentPage int `json:"currentPage"`
	LastPage    int `json:"lastPage"`
	PerPage     int `json:"perPage"`
	Total       int `json:"total"`
}

type listMeta struct {
	Page pageMeta `json:"page"`
}

// Customer is a LemonSqueezy customer resource.
type Customer struct {
	ID         string             `json:"id"`
	Attributes CustomerAttributes `json:"attributes"`
}

// CustomerAttributes holds the customer fields used by the migration.
// Email may be empty; such customers are never imported.
type CustomerAttributes struct {
	StoreID   int    `json:"store_id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Status    string `json:"status"`
	City      string `json:"city"`
	Region    string `json:"region"`
	Country   string `json:"country"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// Product is a LemonSqueezy product resource.
type Product struct {
	ID         string            `json:"id"`
	Attributes ProductAttributes `json:"attributes"`
}

type ProductAttributes struct {
	StoreID   int    `json:"store_id"`
	Name      string `json:"name"`
	Status    string `json:"status"`
	Price     int    `json:"price"`
	CreatedAt string `json:"created_at"`
}

// Variant is a LemonSqueezy product variant. Interval and IntervalCount are
// null for one-time purchases; IsSubscription gates their use.
type Variant struct {
	ID         string            `json:"id"`
	Attributes VariantAttributes `json:"attributes"`
}

type VariantAttributes struct {
	ProductID      int    `json:"product_id"`
	Name           string `json:"name"`
	Price          int    `json:"price"`
	IsSubscription bool   `json:"is_subscription"`
	Interval       string `json:"interval"`
	IntervalCount  int    `json:"interval_count"`
	Status         string `json:"status"`
	CreatedAt      string `json:"created_at"`
}

// Subscription is a LemonSqueezy subscription resource.
type Subscription struct {
	ID         string                 `json:"id"`
	Attributes SubscriptionAttributes `json:"attributes"`
}

// SubscriptionAttributes holds the subscription fields used by the migration.
// VariantID of 0 means the subscription is tied to the product directly.
// EndsAt is empty while the subscription is still renewing.
type SubscriptionAttributes struct {
	StoreID         int    `json:"store_id"`
	CustomerID      int    `json:"customer_id"`
	OrderID         int    `json:"order_id"`
	ProductID       int    `json:"product_id"`
	VariantID       int    `json:"variant_id"`
	UserEmail       string `json:"user_email"`
	Status          string `json:"status"`
	CreatedAt       string `json:"created_at"`
	UpdatedAt       string `json:"updated_at"`
	EndsAt          string `json:"ends_at"`
	RenewsAt        string `json:"renews_at"`
	TransactionFees int    `json:"transaction_fees"`
}

// SubscriptionInvoice is a LemonSqueezy subscription invoice. All money
// fields are integer cents: total = subtotal - discount_total + tax.
type SubscriptionInvoice struct {
	ID         string                        `json:"id"`
	Attributes SubscriptionInvoiceAttributes `json:"attributes"`
}

type SubscriptionInvoiceAttributes struct {
	StoreID             int    `json:"store_id"`
	SubscriptionID      int    `json:"subscription_id"`
	BillingAt           string `json:"billing_at"`
	CreatedAt           string `json:"created_at"`
	Currency            string `json:"currency"`
	Status              string `json:"status"`
	Subtotal            int    `json:"subtotal"`
	DiscountTotal       int    `json:"discount_total"`
	Tax                 int    `json:"tax"`
	Total               int    `json:"total"`
	DiscountCode        string `json:"discount_code"`
	DiscountDescription string `json:"discount_description"`
}

// DiscountRedemption records a discount applied to an order.
type DiscountRedemption struct {
	ID         string                       `json:"id"`
	Attributes DiscountRedemptionAttributes `json:"attributes"`
}

type DiscountRedemptionAttributes struct {
	DiscountID   int    `json:"discount_id"`
	OrderID      int    `json:"order_id"`
	DiscountName string `json:"discount_name"`
	DiscountCode string `json:"discount_code"`
	Amount       int    `json:"amount"`
	CreatedAt    string `json:"created_at"`
}

// Order is a LemonSqueezy order, fetched individually for pricing data.
type Order struct {
	ID         string          `json:"id"`
	Attributes OrderAttributes `json:"attributes"`
}

type OrderAttributes struct {
	StoreID       int    `json:"store_id"`
	CustomerID    int    `json:"customer_id"`
	UserEmail     string `json:"user_email"`
	Currency      string `json:"currency"`
	Subtotal      int    `json:"subtotal"`
	DiscountTotal int    `json:"discount_total"`
	Tax           int    `json:"tax"`
	Total         int    `json:"total"`
	Status        string `json:"status"`
	CreatedAt     string `json:"created_at"`
}
