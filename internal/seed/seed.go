// Package seed loads demo data so a fresh instance has something to show
// on the dashboard. Intended for local development, gated by SEED_DEMO_DATA.
package seed

import (
	"context"
	"log/slog"

	locationsapp "github.com/swiftcourier/courier-api/internal/domains/locations/application"
	locationdomain "github.com/swiftcourier/courier-api/internal/domains/locations/domain"
	productsapp "github.com/swiftcourier/courier-api/internal/domains/products/application"
	shipmentports "github.com/swiftcourier/courier-api/internal/domains/shipments/ports"
	usersapp "github.com/swiftcourier/courier-api/internal/domains/users/application"
	userdomain "github.com/swiftcourier/courier-api/internal/domains/users/domain"
)

// Services groups everything the seeder writes through. Going through the
// services rather than the repositories keeps history trails and events
// consistent with normal operation.
type Services struct {
	Shipments shipmentports.Service
	Locations *locationsapp.Service
	Products  *productsapp.Service
	Users     *usersapp.Service
}

// Run inserts demo users, locations, products, and packages. Errors on
// individual records are logged and skipped so a partial seed still boots.
func Run(ctx context.Context, svcs Services, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}

	if svcs.Users != nil {
		users := []struct {
			username, password, email string
			role                      userdomain.Role
		}{
			{"admin", "admin123!", "admin@swiftcourier.test", userdomain.RoleAdmin},
			{"demo", "demo1234!", "demo@swiftcourier.test", userdomain.RoleCustomer},
		}
		for _, u := range users {
			if _, err := svcs.Users.Register(ctx, u.username, u.password, u.email, u.role); err != nil {
				logger.Warn("seed user skipped", slog.String("username", u.username), slog.String("error", err.Error()))
			}
		}
	}

	if svcs.Locations != nil {
		locations := []locationsapp.CreateInput{
			{Name: "Oakland Hub", Type: locationdomain.TypeHub, Address: "2100 Embarcadero", City: "Oakland", State: "CA", PostalCode: "94606", Country: "US"},
			{Name: "Denver Warehouse", Type: locationdomain.TypeWarehouse, Address: "4900 Ironton St", City: "Denver", State: "CO", PostalCode: "80239", Country: "US"},
			{Name: "Chicago Office", Type: locationdomain.TypeOffice, Address: "233 S Wacker Dr", City: "Chicago", State: "IL", PostalCode: "60606", Country: "US"},
		}
		for _, input := range locations {
			if _, err := svcs.Locations.Create(ctx, input); err != nil {
				logger.Warn("seed location skipped", slog.String("name", input.Name), slog.String("error", err.Error()))
			}
		}
	}

	if svcs.Products != nil {
		products := []productsapp.CreateInput{
			{Name: "Standard Shipping", Description: "3-5 business days", SKU: "SHIP-STD", Category: "shipping", PriceCents: 899},
			{Name: "Express Shipping", Description: "1-2 business days", SKU: "SHIP-EXP", Category: "shipping", PriceCents: 1999},
			{Name: "Overnight Shipping", Description: "Next business day", SKU: "SHIP-ONX", Category: "shipping", PriceCents: 3499},
			{Name: "Signature Confirmation", Description: "Recipient signature required", SKU: "ADDON-SIG", Category: "addon", PriceCents: 350},
		}
		for _, input := range products {
			if _, err := svcs.Products.Create(ctx, input); err != nil {
				logger.Warn("seed product skipped", slog.String("sku", input.SKU), slog.String("error", err.Error()))
			}
		}
	}

	if svcs.Shipments != nil {
		packages := []shipmentports.CreatePackageInput{
			{TrackingNumber: "SC1234567890", ServiceType: "express", CostCents: 1999, CurrentLocation: "Oakland Hub", HandlingFlags: []string{"fragile"}, CreatedBy: "seed"},
			{TrackingNumber: "SC2345678901", ServiceType: "standard", CostCents: 899, CurrentLocation: "Denver Warehouse", CreatedBy: "seed"},
			{TrackingNumber: "SC3456789012", ServiceType: "overnight", CostCents: 3499, CurrentLocation: "Chicago Office", HandlingFlags: []string{"signature_required"}, CreatedBy: "seed"},
		}
		for _, input := range packages {
			if _, err := svcs.Shipments.CreatePackage(ctx, input); err != nil {
				logger.Warn("seed package skipped", slog.String("trackingNumber", input.TrackingNumber), slog.String("error", err.Error()))
			}
		}
	}

	logger.Info("demo data seeded")
}
