package migrate

import (
	"context"
	"strings"

	"github.com/ignite/billing-migrator/internal/chartmogul"
	"github.com/ignite/billing-migrator/internal/lemonsqueezy"
	"github.com/ignite/billing-migrator/internal/pkg/logger"
)

// CustomerReconciler matches source customers to destination customers by
// email and issues an update or a create per customer. The email match is
// what makes a re-run idempotent: customers created on a previous run are
// found in the refreshed destination snapshot and updated, never recreated.
type CustomerReconciler struct {
	dest DestinationAPI
}

// NewCustomerReconciler creates a customer reconciler.
func NewCustomerReconciler(dest DestinationAPI) *CustomerReconciler {
	return &CustomerReconciler{dest: dest}
}

// Run reconciles every source customer against the destination snapshot.
// Customers without an email are skipped with no API call. Per-customer
// failures never stop the loop.
func (r *CustomerReconciler) Run(ctx context.Context, source []lemonsqueezy.Customer, existing []chartmogul.Customer) StageReport {
	report := newStageReport("customers")
	byEmail := customersByEmail(existing)

	logger.Info("reconciling customers", "source", len(source), "destination", len(existing))

	for _, cust := range source {
		attrs := cust.Attributes
		if attrs.Email == "" {
			report.skipped(cust.ID, "no email")
			continue
		}

		company := attrs.Name
		if company == "" {
			company = attrs.Email
		}
		first, last := splitName(attrs.Name)
		contact := chartmogul.PrimaryContact{
			FirstName: first,
			LastName:  last,
			Email:     attrs.Email,
		}

		if found, ok := byEmail[attrs.Email]; ok {
			err := r.dest.UpdateCustomer(ctx, found.UUID, chartmogul.CustomerUpdate{
				Company:        company,
				Country:        attrs.Country,
				State:          attrs.Region,
				City:           attrs.City,
				Email:          attrs.Email,
				PrimaryContact: contact,
			})
			if err != nil {
				report.failed(cust.ID, err)
				continue
			}
			report.updated(cust.ID)
			logger.Debug("updated customer", "email", attrs.Email, "uuid", found.UUID)
			continue
		}

		err := r.dest.CreateCustomer(ctx, chartmogul.NewCustomer{
			ExternalID:     cust.ID,
			Company:        company,
			Country:        attrs.Country,
			State:          attrs.Region,
			City:           attrs.City,
			LeadCreatedAt:  attrs.CreatedAt,
			Email:          attrs.Email,
			PrimaryContact: contact,
		})
		if err != nil {
			report.failed(cust.ID, err)
			continue
		}
		report.created(cust.ID)
		logger.Debug("created customer", "email", attrs.Email, "external_id", cust.ID)
	}

	return report
}

// splitName breaks a full name on the first space: first token becomes the
// first name, the remainder the last name. Both empty when name is absent.
func splitName(name string) (first, last string) {
	if name == "" {
		return "", ""
	}
	parts := strings.SplitN(name, " ", 2)
	first = parts[0]
	if len(parts) == 2 {
		last = parts[1]
	}
	return first, last
}
