package chartmogul

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// maxPerPage is the largest page size the list endpoints accept.
const maxPerPage = 200

// pageDelay is the fixed pause between page requests to stay under the API
// rate limit. This is a flat delay, not a limiter with backoff.
const pageDelay = 100 * time.Millisecond

// Client is the ChartMogul API client. All import-style writes (plans,
// subscription events, invoices) are upserts keyed on external_id, so
// re-running a migration does not duplicate destination data.
type Client struct {
	baseURL        string
	apiKey         string
	dataSourceUUID string
	httpClient     *http.Client
}

// Config holds the settings needed to build a Client.
type Config struct {
	BaseURL        string
	APIKey         string
	DataSourceUUID string
	Timeout        time.Duration
}

// NewClient creates a new ChartMogul API client.
func NewClient(config Config) *Client {
	timeout := config.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:        config.BaseURL,
		apiKey:         config.APIKey,
		dataSourceUUID: config.DataSourceUUID,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// doRequest performs an authenticated request. ChartMogul uses HTTP basic
// auth with the API key as username and an empty password.
func (c *Client) doRequest(ctx context.Context, method, endpoint string, body interface{}) ([]byte, error) {
	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.apiKey, "")

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

// fetchAllCursorPages walks a cursor-paginated list endpoint until has_more
// goes false, pausing pageDelay between requests. On a page failure it
// returns everything accumulated so far together with the error.
func fetchAllCursorPages[T any](ctx context.Context, c *Client, endpoint, collectionKey string) ([]T, error) {
	var all []T
	cursor := ""

	for {
		params := url.Values{}
		params.Set("per_page", fmt.Sprint(maxPerPage))
		if cursor != "" {
			params.Set("cursor", cursor)
		}

		body, err := c.doRequest(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
		if err != nil {
			return all, fmt.Errorf("fetch %s: %w", endpoint, err)
		}

		var envelope map[string]json.RawMessage
		if err := json.Unmarshal(body, &envelope); err != nil {
			return all, fmt.Errorf("parse %s page: %w", endpoint, err)
		}

		var entries []T
		if raw, ok := envelope[collectionKey]; ok {
			if err := json.Unmarshal(raw, &entries); err != nil {
				return all, fmt.Errorf("parse %s entries: %w", endpoint, err)
			}
		}
		all = append(all, entries...)

		var hasMore bool
		if raw, ok := envelope["has_more"]; ok {
			_ = json.Unmarshal(raw, &hasMore)
		}
		if !hasMore {
			return all, nil
		}
		if raw, ok := envelope["cursor"]; ok {
			_ = json.Unmarshal(raw, &cursor)
		}

		select {
		case <-time.After(pageDelay):
		case <-ctx.Done():
			return all, ctx.Err()
		}
	}
}

// FetchAllCustomers retrieves every customer in the account.
func (c *Client) FetchAllCustomers(ctx context.Context) ([]Customer, error) {
	return fetchAllCursorPages[Customer](ctx, c, "/customers", "entries")
}

// FetchAllPlans retrieves every plan in the account.
func (c *Client) FetchAllPlans(ctx context.Context) ([]Plan, error) {
	return fetchAllCursorPages[Plan](ctx, c, "/plans", "plans")
}

// FetchAllInvoices retrieves every invoice in the account.
func (c *Client) FetchAllInvoices(ctx context.Context) ([]Invoice, error) {
	return fetchAllCursorPages[Invoice](ctx, c, "/invoices", "invoices")
}

// CreateCustomer creates a customer in the configured data source.
func (c *Client) CreateCustomer(ctx context.Context, customer NewCustomer) error {
	customer.DataSourceUUID = c.dataSourceUUID
	_, err := c.doRequest(ctx, http.MethodPost, "/customers", customer)
	return err
}

// UpdateCustomer patches an existing customer by uuid.
func (c *Client) UpdateCustomer(ctx context.Context, uuid string, update CustomerUpdate) error {
	update.DataSourceUUID = c.dataSourceUUID
	_, err := c.doRequest(ctx, http.MethodPatch, "/customers/"+uuid, update)
	return err
}

// DeleteCustomer deletes a customer and, by cascade, their invoices.
func (c *Client) DeleteCustomer(ctx context.Context, uuid string) error {
	_, err := c.doRequest(ctx, http.MethodDelete, "/customers/"+uuid, nil)
	return err
}

// CreatePlan imports a plan. The endpoint upserts by external_id.
func (c *Client) CreatePlan(ctx context.Context, plan NewPlan) error {
	plan.DataSourceUUID = c.dataSourceUUID
	_, err := c.doRequest(ctx, http.MethodPost, "/import/plans", plan)
	return err
}

// DeletePlan deletes a plan by uuid.
func (c *Client) DeletePlan(ctx context.Context, uuid string) error {
	_, err := c.doRequest(ctx, http.MethodDelete, "/plans/"+uuid, nil)
	return err
}

// CreateSubscriptionEvent posts one lifecycle event. The API deduplicates
// on the event's external_id.
func (c *Client) CreateSubscriptionEvent(ctx context.Context, event SubscriptionEvent) error {
	event.DataSourceUUID = c.dataSourceUUID
	payload := map[string]SubscriptionEvent{"subscription_event": event}
	_, err := c.doRequest(ctx, http.MethodPost, "/subscription_events", payload)
	return err
}

// ImportInvoice imports one invoice under the given customer.
func (c *Client) ImportInvoice(ctx context.Context, customerUUID string, invoice Invoice) error {
	invoice.DataSourceUUID = c.dataSourceUUID
	payload := map[string][]Invoice{"invoices": {invoice}}
	_, err := c.doRequest(ctx, http.MethodPost, "/import/customers/"+customerUUID+"/invoices", payload)
	return err
}
