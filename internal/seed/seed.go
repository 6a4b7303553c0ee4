// Package seed provisions demo data for local development: one partner
// account with a store and a handful of surplus listings, plus a consumer
// account to reserve them with.
package seed

import (
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	authdomain "github.com/resqfood/resq/internal/auth/domain"
	"github.com/resqfood/resq/internal/auth/password"
	"github.com/resqfood/resq/internal/authcontext"
	productdomain "github.com/resqfood/resq/internal/product/domain"
	profiledomain "github.com/resqfood/resq/internal/profile/domain"
	storedomain "github.com/resqfood/resq/internal/store/domain"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	demoPartnerEmail  = "partner@resq.local"
	demoConsumerEmail = "consumer@resq.local"
	demoPassword      = "resq-demo-password"
)

type listingSeed struct {
	title         string
	description   string
	originalPrice int64
	discountPrice int64
	stock         int
	co2Saved      float64
}

var demoListings = []listingSeed{
	{"Surprise pastry box", "Assorted pastries from today's bake", 12000, 4000, 5, 1.2},
	{"Lunch bowl", "Chef's choice warm bowl", 15000, 6000, 3, 0.9},
	{"Bread bundle", "Sourdough and rolls from this morning", 9000, 3000, 8, 0.7},
}

// EnsureDemoData inserts the demo rows if they are absent. Idempotent:
// keyed on the demo partner's email.
func EnsureDemoData(db *gorm.DB, genID *snowflake.Node, log *zap.Logger) error {
	var count int64
	if err := db.Model(&authdomain.Account{}).Where("email = ?", demoPartnerEmail).Count(&count).Error; err != nil {
		return fmt.Errorf("check demo partner: %w", err)
	}
	if count > 0 {
		return nil
	}

	hash, err := password.Hash(demoPassword)
	if err != nil {
		return fmt.Errorf("hash demo password: %w", err)
	}

	now := time.Now().UTC()
	return db.Transaction(func(tx *gorm.DB) error {
		partner := &authdomain.Account{
			ID:           genID.Generate(),
			Email:        demoPartnerEmail,
			PasswordHash: hash,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := tx.Create(partner).Error; err != nil {
			return err
		}
		if err := tx.Create(&profiledomain.Profile{
			AccountID: partner.ID,
			FullName:  "Demo Partner",
			Role:      authcontext.RolePartner,
			CreatedAt: now,
			UpdatedAt: now,
		}).Error; err != nil {
			return err
		}

		consumer := &authdomain.Account{
			ID:           genID.Generate(),
			Email:        demoConsumerEmail,
			PasswordHash: hash,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := tx.Create(consumer).Error; err != nil {
			return err
		}
		if err := tx.Create(&profiledomain.Profile{
			AccountID: consumer.ID,
			FullName:  "Demo Consumer",
			Role:      authcontext.RoleConsumer,
			CreatedAt: now,
			UpdatedAt: now,
		}).Error; err != nil {
			return err
		}

		store := &storedomain.Store{
			ID:        genID.Generate(),
			OwnerID:   partner.ID,
			Name:      "Demo Bakery",
			Slug:      "demo-bakery",
			Address:   "Jl. Sudirman No. 1, Jakarta",
			Latitude:  -6.2088,
			Longitude: 106.8456,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := tx.Create(store).Error; err != nil {
			return err
		}

		for _, l := range demoListings {
			desc := l.description
			if err := tx.Create(&productdomain.Product{
				ID:            genID.Generate(),
				StoreID:       store.ID,
				Title:         l.title,
				Description:   &desc,
				OriginalPrice: l.originalPrice,
				DiscountPrice: l.discountPrice,
				StockQuantity: l.stock,
				ExpiryDate:    now.Add(24 * time.Hour),
				CO2Saved:      l.co2Saved,
				CreatedAt:     now,
				UpdatedAt:     now,
			}).Error; err != nil {
				return err
			}
		}

		log.Info("demo data seeded",
			zap.String("partner_email", demoPartnerEmail),
			zap.String("consumer_email", demoConsumerEmail),
		)
		return nil
	})
}
