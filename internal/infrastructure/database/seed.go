package database

import (
	"context"
	"errors"

	"metallix-backend/internal/domain"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// SeedMetal is one row of the initial catalogue.
type SeedMetal struct {
	Name   string
	Symbol string
	Rate   decimal.Decimal
	Unit   string
}

// DefaultMetals is the initial catalogue, rates per kg.
var DefaultMetals = []SeedMetal{
	{Name: "Gold", Symbol: "AU", Rate: decimal.NewFromInt(180000), Unit: "kg"},
	{Name: "Silver", Symbol: "AG", Rate: decimal.NewFromInt(2200), Unit: "kg"},
	{Name: "Copper", Symbol: "CU", Rate: decimal.NewFromInt(1800), Unit: "kg"},
	{Name: "Brass", Symbol: "BR", Rate: decimal.NewFromInt(1200), Unit: "kg"},
}

// SeedAdmin describes the bootstrap administrator.
type SeedAdmin struct {
	Name     string
	CNIC     string
	Phone    string
	Password string
}

var ErrSeedPassword = errors.New("seed: admin password is required")

// Seed inserts missing metals (with an opening history row) and the admin user.
// Existing rows are left untouched, so running it twice is a no-op.
func Seed(ctx context.Context, db *gorm.DB, metals []SeedMetal, admin SeedAdmin) error {
	if admin.Password == "" {
		return ErrSeedPassword
	}
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, m := range metals {
			var existing domain.Metal
			err := tx.Where("symbol = ?", m.Symbol).First(&existing).Error
			if err == nil {
				continue
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			metal := domain.Metal{Name: m.Name, Symbol: m.Symbol, CurrentRate: m.Rate, Unit: m.Unit, IsActive: true}
			if err := tx.Create(&metal).Error; err != nil {
				return err
			}
			if err := tx.Create(&domain.RateHistory{MetalID: metal.ID, Rate: m.Rate}).Error; err != nil {
				return err
			}
			log.Info().Str("symbol", m.Symbol).Str("rate", m.Rate.String()).Msg("seeded metal")
		}

		var count int64
		if err := tx.Model(&domain.User{}).Where("cnic = ?", admin.CNIC).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(admin.Password), 12)
		if err != nil {
			return err
		}
		if err := tx.Create(&domain.User{
			Name:         admin.Name,
			CNIC:         admin.CNIC,
			Phone:        admin.Phone,
			PasswordHash: string(hash),
			Role:         domain.RoleAdmin,
			IsActive:     true,
		}).Error; err != nil {
			return err
		}
		log.Info().Str("cnic", admin.CNIC).Msg("seeded admin user")
		return nil
	})
}
