package chartmogul

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(url string) *Client {
	return NewClient(Config{
		BaseURL:        url,
		APIKey:         "test-api-key",
		DataSourceUUID: "ds_test",
	})
}

func TestFetchAllCustomersFollowsCursor(t *testing.T) {
	var requests []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		require.True(t, ok, "expected basic auth")
		assert.Equal(t, "test-api-key", user)
		assert.Equal(t, "", pass)
		assert.Equal(t, "200", r.URL.Query().Get("per_page"))

		cursor := r.URL.Query().Get("cursor")
		requests = append(requests, cursor)

		if cursor == "" {
			fmt.Fprint(w, `{
				"entries": [
					{"uuid": "cus_1", "external_id": "1", "email": "jane@example.com"},
					{"uuid": "cus_2", "external_id": "2", "email": "bob@example.com"}
				],
				"has_more": true,
				"cursor": "abc"
			}`)
			return
		}
		assert.Equal(t, "abc", cursor)
		fmt.Fprint(w, `{
			"entries": [{"uuid": "cus_3", "external_id": "3", "email": "carol@example.com"}],
			"has_more": false
		}`)
	}))
	defer server.Close()

	customers, err := newTestClient(server.URL).FetchAllCustomers(context.Background())
	require.NoError(t, err)

	assert.Len(t, customers, 3)
	assert.Equal(t, []string{"", "abc"}, requests)
	assert.Equal(t, "cus_3", customers[2].UUID)
}

func TestFetchAllPlansPartialOnError(t *testing.T) {
	call := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		call++
		if call == 1 {
			fmt.Fprint(w, `{
				"plans": [{"uuid": "pl_1", "external_id": "10", "interval_unit": "month", "interval_count": 1}],
				"has_more": true,
				"cursor": "next"
			}`)
			return
		}
		http.Error(w, `{"error":"rate limited"}`, http.StatusTooManyRequests)
	}))
	defer server.Close()

	plans, err := newTestClient(server.URL).FetchAllPlans(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")

	// Accumulated records survive the truncation.
	require.Len(t, plans, 1)
	assert.Equal(t, "10", plans[0].ExternalID)
}

func TestCreateCustomerStampsDataSource(t *testing.T) {
	var got map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/customers", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		fmt.Fprint(w, `{"uuid": "cus_new"}`)
	}))
	defer server.Close()

	err := newTestClient(server.URL).CreateCustomer(context.Background(), NewCustomer{
		ExternalID: "1",
		Company:    "Jane Doe",
		Email:      "jane@example.com",
		PrimaryContact: PrimaryContact{
			FirstName: "Jane",
			LastName:  "Doe",
			Email:     "jane@example.com",
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "ds_test", got["data_source_uuid"])
	assert.Equal(t, "1", got["external_id"])
	contact := got["primary_contact"].(map[string]interface{})
	assert.Equal(t, "Jane", contact["first_name"])
	assert.Equal(t, "Doe", contact["last_name"])
}

func TestUpdateCustomerPatchesByUUID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/customers/cus_1", r.URL.Path)

		var got map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		// Updates never carry an external_id: it is immutable after creation.
		_, hasExternal := got["external_id"]
		assert.False(t, hasExternal)
		fmt.Fprint(w, `{}`)
	}))
	defer server.Close()

	err := newTestClient(server.URL).UpdateCustomer(context.Background(), "cus_1", CustomerUpdate{
		Company: "Jane Doe",
		Email:   "jane@example.com",
	})
	require.NoError(t, err)
}

func TestCreateSubscriptionEventWrapsPayload(t *testing.T) {
	var got map[string]SubscriptionEvent
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/subscription_events", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		fmt.Fprint(w, `{}`)
	}))
	defer server.Close()

	err := newTestClient(server.URL).CreateSubscriptionEvent(context.Background(), SubscriptionEvent{
		ExternalID:             "123-start",
		CustomerExternalID:     "1",
		EventType:              EventSubscriptionStartScheduled,
		SubscriptionExternalID: "123",
		PlanExternalID:         "10-100",
		Currency:               "USD",
		AmountInCents:          1000,
		Quantity:               1,
		EventOrder:             1,
	})
	require.NoError(t, err)

	event, ok := got["subscription_event"]
	require.True(t, ok, "payload must be wrapped under subscription_event")
	assert.Equal(t, "ds_test", event.DataSourceUUID)
	assert.Equal(t, EventSubscriptionStartScheduled, event.EventType)
}

func TestImportInvoice(t *testing.T) {
	var got map[string][]Invoice
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/import/customers/cus_1/invoices", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		fmt.Fprint(w, `{"invoices": []}`)
	}))
	defer server.Close()

	err := newTestClient(server.URL).ImportInvoice(context.Background(), "cus_1", Invoice{
		ExternalID:         "ls-inv-500",
		Currency:           "USD",
		CustomerExternalID: "1",
		LineItems: []LineItem{{
			Type:          "subscription",
			AmountInCents: 880,
			Quantity:      1,
		}},
		Transactions: []Transaction{{Type: TransactionPayment, Result: ResultSuccessful}},
	})
	require.NoError(t, err)

	invoices, ok := got["invoices"]
	require.True(t, ok)
	require.Len(t, invoices, 1)
	assert.Equal(t, "ls-inv-500", invoices[0].ExternalID)
	assert.Equal(t, "ds_test", invoices[0].DataSourceUUID)
}

func TestErrorIncludesResponseBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"errors":{"email":"is invalid"}}`, http.StatusUnprocessableEntity)
	}))
	defer server.Close()

	err := newTestClient(server.URL).CreateCustomer(context.Background(), NewCustomer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is invalid")
	assert.Contains(t, err.Error(), "422")
}

func TestDeleteCustomerAndPlan(t *testing.T) {
	var paths []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		paths = append(paths, r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	require.NoError(t, client.DeleteCustomer(context.Background(), "cus_1"))
	require.NoError(t, client.DeletePlan(context.Background(), "pl_1"))
	assert.Equal(t, []string{"/customers/cus_1", "/plans/pl_1"}, paths)
}
