package lemonsqueezy

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Client is the LemonSqueezy API client.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// Config holds the settings needed to build a Client.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// NewClient creates a new LemonSqueezy API client.
func NewClient(config Config) *Client {
	timeout := config.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: config.BaseURL,
		apiKey:  config.APIKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// doRequest performs an authenticated request against the API.
func (c *Client) doRequest(ctx context.Context, method, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/vnd.api+json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	return respBody, nil
}

// listResponse is the common shape of paginated list endpoints. Meta is a
// pointer because a handful of endpoints omit it; those terminate on an
// empty page instead.
type listResponse[T any] struct {
	Meta *listMeta `json:"meta"`
	Data []T       `json:"data"`
}

// fetchAllPages walks a paginated list endpoint from page 1 until the page
// marker (or an empty page, when no marker exists) signals the end. On a
// page failure it returns everything accumulated so far together with the
// error, so the caller can tell a complete fetch from a truncated one.
func fetchAllPages[T any](ctx context.Context, c *Client, endpoint string, extra url.Values) ([]T, error) {
	var all []T
	for pageNum := 1; ; pageNum++ {
		params := url.Values{}
		for k, vs := range extra {
			for _, v := range vs {
				params.Add(k, v)
			}
		}
		params.Set("page[number]", strconv.Itoa(pageNum))

		body, err := c.doRequest(ctx, http.MethodGet, endpoint+"?"+params.Encode())
		if err != nil {
			return all, fmt.Errorf("fetch %s page %d: %w", endpoint, pageNum, err)
		}

		var resp listResponse[T]
		if err := json.Unmarshal(body, &resp); err != nil {
			return all, fmt.Errorf("parse %s page %d: %w", endpoint, pageNum, err)
		}

		all = append(all, resp.Data...)

		if resp.Meta != nil && resp.Meta.Page.LastPage > 0 {
			if resp.Meta.Page.CurrentPage >= resp.Meta.Page.LastPage {
				return all, nil
			}
		} else if len(resp.Data) == 0 {
			return all, nil
		}
	}
}

// FetchAllCustomers retrieves every customer in the store.
func (c *Client) FetchAllCustomers(ctx context.Context) ([]Customer, error) {
	return fetchAllPages[Customer](ctx, c, "/customers", nil)
}

// FetchAllProducts retrieves every product in the store.
func (c *Client) FetchAllProducts(ctx context.Context) ([]Product, error) {
	return fetchAllPages[Product](ctx, c, "/products", nil)
}

// FetchAllVariants retrieves every variant of the given product.
func (c *Client) FetchAllVariants(ctx context.Context, productID string) ([]Variant, error) {
	return fetchAllPages[Variant](ctx, c, "/variants", url.Values{
		"filter[product_id]": {productID},
	})
}

// FetchAllSubscriptions retrieves every subscription in the store.
func (c *Client) FetchAllSubscriptions(ctx context.Context) ([]Subscription, error) {
	return fetchAllPages[Subscription](ctx, c, "/subscriptions", nil)
}

// FetchAllSubscriptionInvoices retrieves every subscription invoice in the store.
func (c *Client) FetchAllSubscriptionInvoices(ctx context.Context) ([]SubscriptionInvoice, error) {
	return fetchAllPages[SubscriptionInvoice](ctx, c, "/subscription-invoices", nil)
}

// FetchAllDiscountRedemptions retrieves every discount redemption in the store.
func (c *Client) FetchAllDiscountRedemptions(ctx context.Context) ([]DiscountRedemption, error) {
	return fetchAllPages[DiscountRedemption](ctx, c, "/discount-redemptions", nil)
}

// FetchOrder retrieves a single order by id.
func (c *Client) FetchOrder(ctx context.Context, orderID string) (*Order, error) {
	body, err := c.doRequest(ctx, http.MethodGet, "/orders/"+orderID)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Data Order `json:"data"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parse order %s: %w", orderID, err)
	}
	if resp.Data.ID == "" {
		return nil, fmt.Errorf("order %s not found", orderID)
	}

	return &resp.Data, nil
}
