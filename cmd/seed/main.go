// Command seed loads a demo catalog and a few pharmacies into the configured
// store, plus the admin account named by ADMIN_EMAIL and ADMIN_PASSWORD.
// Records that already exist are skipped.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/shopspring/decimal"

	"github.com/dukerupert/epharmacy/internal"
	"github.com/dukerupert/epharmacy/internal/bootstrap"
	"github.com/dukerupert/epharmacy/internal/domain"
	"github.com/dukerupert/epharmacy/internal/storage"
)

var pharmacies = []domain.Pharmacy{
	{Name: "Central Pharmacy", Address: "12 Market St", Phone: "+1-555-0100", Rating: 4.6, IsActive: true, Location: domain.GeoPoint{Lng: -122.4194, Lat: 37.7749}},
	{Name: "Harbor Health", Address: "800 Embarcadero", Phone: "+1-555-0101", Rating: 4.2, IsActive: true, Location: domain.GeoPoint{Lng: -122.3937, Lat: 37.7955}},
	{Name: "Mission Drugs", Address: "2100 Mission St", Phone: "+1-555-0102", Rating: 3.9, IsActive: true, Location: domain.GeoPoint{Lng: -122.4194, Lat: 37.7625}},
	{Name: "Sunset Apothecary", Address: "1500 Irving St", Phone: "+1-555-0103", Rating: 4.0, IsActive: false, Location: domain.GeoPoint{Lng: -122.4730, Lat: 37.7638}},
}

var products = []domain.Product{
	{Title: "Paracetamol 500mg", Slug: "paracetamol-500mg", Brand: "Panadol", Form: "tablet", Price: decimal.RequireFromString("4.99"), Stock: 120, Tags: []string{"pain", "fever"}, Description: "Pain and fever relief."},
	{Title: "Ibuprofen 200mg", Slug: "ibuprofen-200mg", Brand: "Advil", Form: "tablet", Price: decimal.RequireFromString("6.49"), Stock: 80, Tags: []string{"pain", "inflammation"}, Description: "Anti-inflammatory pain relief."},
	{Title: "Cetirizine 10mg", Slug: "cetirizine-10mg", Brand: "Zyrtec", Form: "tablet", Price: decimal.RequireFromString("8.99"), Stock: 60, Tags: []string{"allergy"}, Description: "24 hour allergy relief."},
	{Title: "Cough Syrup 100ml", Slug: "cough-syrup-100ml", Brand: "Benylin", Form: "syrup", Price: decimal.RequireFromString("7.25"), Stock: 40, Tags: []string{"cough", "cold"}, Description: "Soothes dry and chesty coughs."},
	{Title: "Vitamin C 1000mg", Slug: "vitamin-c-1000mg", Brand: "Redoxon", Form: "tablet", Price: decimal.RequireFromString("9.99"), Stock: 200, Tags: []string{"vitamins", "immunity"}, Description: "Effervescent vitamin C."},
	{Title: "Amoxicillin 500mg", Slug: "amoxicillin-500mg", Brand: "Amoxil", Form: "capsule", Price: decimal.RequireFromString("12.50"), Stock: 30, Tags: []string{"antibiotic"}, RxRequired: true, Description: "Prescription antibiotic."},
	{Title: "Omeprazole 20mg", Slug: "omeprazole-20mg", Brand: "Prilosec", Form: "capsule", Price: decimal.RequireFromString("11.75"), Stock: 3, Tags: []string{"digestive"}, Description: "Heartburn relief."},
	{Title: "Saline Nasal Spray", Slug: "saline-nasal-spray", Brand: "Sterimar", Form: "spray", Price: decimal.RequireFromString("5.40"), Stock: 0, Tags: []string{"cold", "allergy"}, Description: "Drug-free nasal rinse."},
}

func run() error {
	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}
	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)

	if cfg.Store.Driver == internal.DriverMemory {
		logger.Warn("STORE_DRIVER is memory; seeded data will not outlive this process")
	}

	ctx := context.Background()
	store, err := storage.Open(ctx, cfg.Store, storage.Options{Migrate: true}, logger)
	if err != nil {
		return fmt.Errorf("store initialization failed: %w", err)
	}
	defer store.Close(ctx)

	if err := bootstrap.EnsureAdmin(ctx, store.Users(), &bootstrap.AdminConfig{
		Email:    cfg.Admin.Email,
		Password: cfg.Admin.Password,
	}, logger); err != nil {
		return err
	}

	storeID, err := seedPharmacies(ctx, store.Pharmacies(), logger)
	if err != nil {
		return err
	}

	for i := range products {
		p := products[i]
		p.StoreID = storeID
		err := store.Products().Create(ctx, &p)
		switch {
		case errors.Is(err, domain.ErrDuplicate):
			logger.Info("product exists, skipping", "slug", p.Slug)
		case err != nil:
			return fmt.Errorf("failed to create product %q: %w", p.Slug, err)
		default:
			logger.Info("product created", "id", p.ID, "slug", p.Slug)
		}
	}

	logger.Info("seed complete", "pharmacies", len(pharmacies), "products", len(products))
	return nil
}

// seedPharmacies creates the demo pharmacies unless any already exist and
// returns the ID products are assigned to.
func seedPharmacies(ctx context.Context, ps domain.PharmacyStore, logger *slog.Logger) (string, error) {
	existing, total, err := ps.List(ctx, domain.PharmacyFilter{Page: domain.PageRequest{Page: 1, Limit: 1}})
	if err != nil {
		return "", fmt.Errorf("failed to list pharmacies: %w", err)
	}
	if total > 0 {
		logger.Info("pharmacies exist, skipping", "count", total)
		return existing[0].ID, nil
	}

	var storeID string
	for i := range pharmacies {
		p := pharmacies[i]
		if err := ps.Create(ctx, &p); err != nil {
			return "", fmt.Errorf("failed to create pharmacy %q: %w", p.Name, err)
		}
		if storeID == "" {
			storeID = p.ID
		}
		logger.Info("pharmacy created", "id", p.ID, "name", p.Name)
	}
	return storeID, nil
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
