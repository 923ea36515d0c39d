package core

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"supplymarket_api/internal/core/models"
	"supplymarket_api/internal/geo"
	"supplymarket_api/internal/storage"
)

// DemoPassword is shared by every seeded account.
const DemoPassword = "password123"

var (
	bole      = geo.Coordinate{Latitude: 8.9806, Longitude: 38.7578}
	megenagna = geo.Coordinate{Latitude: 9.0227, Longitude: 38.7468}
	merkato   = geo.Coordinate{Latitude: 9.0300, Longitude: 38.7500}
	kaliti    = geo.Coordinate{Latitude: 8.8500, Longitude: 38.7200}
)

func ptr[T any](v T) *T { return &v }

func day(s string) time.Time {
	t, _ := time.Parse(time.DateOnly, s)
	return t
}

// SeedDemo fills an empty store with a small Addis Ababa marketplace. Each
// collection is seeded only when it is empty, so running it twice is a no-op.
func SeedDemo(ctx context.Context, repo *storage.Repository, hashCost int) error {
	if len(repo.Users()) == 0 {
		hash, err := bcrypt.GenerateFromPassword([]byte(DemoPassword), hashCost)
		if err != nil {
			return fmt.Errorf("hash demo password: %w", err)
		}
		users := demoUsers(hash)
		for _, u := range users {
			if err := repo.SaveUser(ctx, u); err != nil {
				return fmt.Errorf("seed user %s: %w", u.ID, err)
			}
		}
		log.WithField("count", len(users)).Info("Seeded demo users")
	} else {
		log.Info("Users already present, skipping demo users")
	}

	if len(repo.Suppliers()) == 0 {
		suppliers := demoSuppliers()
		for _, s := range suppliers {
			if err := repo.SaveSupplier(ctx, s); err != nil {
				return fmt.Errorf("seed supplier %s: %w", s.ID, err)
			}
		}
		log.WithField("count", len(suppliers)).Info("Seeded demo suppliers")
	}

	if len(repo.Offers()) == 0 {
		offers := demoOffers()
		if err := repo.SaveOffers(ctx, offers); err != nil {
			return fmt.Errorf("seed offers: %w", err)
		}
		log.WithField("count", len(offers)).Info("Seeded demo offers")
	}

	if len(repo.TINs()) == 0 {
		tin := demoTIN()
		if err := repo.AddTIN(ctx, tin); err != nil {
			return fmt.Errorf("seed tin %s: %w", tin.ID, err)
		}
		log.WithField("tin", tin.Number).Info("Seeded demo TIN")
	}
	return nil
}

func demoUsers(hash []byte) []models.User {
	return []models.User{
		{
			ID:           "user1",
			Name:         "Mehari Admin",
			Email:        "meharinageb@gmail.com",
			PasswordHash: hash,
			Role:         models.RoleCompany,
			CompanyName:  "Mehari General Supplies",
			Phone:        "+251909919154",
			Address:      "Bole, Addis Ababa",
			Location:     ptr(bole),
			RegisteredAt: day("2023-01-15"),
		},
		{
			ID:           "user2",
			Name:         "John Customer",
			Email:        "customer@example.com",
			PasswordHash: hash,
			Role:         models.RoleCustomer,
			Phone:        "+251 912 345 678",
			Address:      "Megenagna, Addis Ababa",
			Location:     ptr(megenagna),
			RegisteredAt: day("2023-02-20"),
		},
	}
}

// comp2 and comp3 have no login; their offers are still searchable.
func demoSuppliers() []models.Supplier {
	created := day("2023-01-15")
	return []models.Supplier{
		{
			ID:          "comp1",
			UserID:      "user1",
			Name:        "Mehari General Supplies",
			Description: "Premium supplier for various industrial and consumer goods",
			Address:     "Bole, Addis Ababa",
			Location:    bole,
			Rating:      ptr(4.8),
			TotalOrders: 124,
			Established: "2020",
			CreatedAt:   created,
			UpdatedAt:   created,
		},
		{
			ID:          "comp2",
			UserID:      "user3",
			Name:        "Ethio Industrial Supplies",
			Description: "Industrial materials wholesale",
			Address:     "Merkato, Addis Ababa",
			Location:    merkato,
			Rating:      ptr(4.5),
			TotalOrders: 89,
			Established: "2019",
			CreatedAt:   created,
			UpdatedAt:   created,
		},
		{
			ID:          "comp3",
			UserID:      "user4",
			Name:        "Addis Pharmaceuticals & Medical Supplies",
			Description: "Specialized in medical and pharmaceutical products",
			Address:     "Kaliti, Addis Ababa",
			Location:    kaliti,
			Rating:      ptr(4.7),
			TotalOrders: 156,
			Established: "2018",
			CreatedAt:   created,
			UpdatedAt:   created,
		},
	}
}

func demoOffers() []models.Offer {
	return []models.Offer{
		{
			ID:               "mat1",
			SupplierID:       "comp1",
			Name:             "Portland Cement",
			Category:         "Construction",
			Description:      "High quality Portland cement for construction",
			UnitPrice:        decimal.NewFromInt(850),
			Unit:             "50kg bag",
			Available:        500,
			MinOrderQuantity: 10,
			Rating:           ptr(4.5),
		},
		{
			ID:               "mat2",
			SupplierID:       "comp1",
			Name:             "Medical Gloves",
			Category:         "Healthcare",
			Description:      "Disposable latex-free medical gloves",
			UnitPrice:        decimal.NewFromInt(120),
			Unit:             "Box (100 pcs)",
			Available:        1000,
			MinOrderQuantity: 5,
			Rating:           ptr(4.7),
		},
		{
			ID:               "mat3",
			SupplierID:       "comp2",
			Name:             "Fertilizer Urea",
			Category:         "Agriculture",
			Description:      "Agricultural grade urea fertilizer",
			UnitPrice:        decimal.NewFromInt(950),
			Unit:             "50kg bag",
			Available:        2000,
			MinOrderQuantity: 20,
			Rating:           ptr(4.3),
		},
		{
			ID:               "mat4",
			SupplierID:       "comp3",
			Name:             "Desktop Computers",
			Category:         "Information Technology",
			Description:      "Dell Optiplex desktop computers",
			Brand:            "Dell",
			Model:            "Optiplex 7090",
			UnitPrice:        decimal.NewFromInt(25000),
			Unit:             "Piece",
			Available:        50,
			MinOrderQuantity: 1,
			Rating:           ptr(4.6),
		},
	}
}

func demoTIN() models.TIN {
	return models.TIN{
		ID:              "tin1",
		UserID:          "user1",
		Number:          "ET0001234567",
		BusinessName:    "Mehari General Supplies",
		BusinessType:    "General Trading",
		Region:          "Addis Ababa",
		Woreda:          "Bole",
		Kebele:          "03",
		BusinessAddress: "Bole, Addis Ababa",
		RegisteredOn:    day("2020-05-15"),
		CreatedAt:       day("2023-01-15"),
	}
}
