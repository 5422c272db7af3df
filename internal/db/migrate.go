package db

import (
	"encoding/json"
	"fmt"

	"github.com/lepoa-store/club-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Migrate creates or updates the schema and seeds static reference data.
func Migrate(conn *gorm.DB) error {
	if conn == nil {
		return fmt.Errorf("db: nil connection")
	}

	if errMigrate := conn.AutoMigrate(
		&models.Customer{},
		&models.Admin{},
		&models.LoyaltyAccount{},
		&models.LedgerEntry{},
		&models.Tier{},
		&models.Reward{},
		&models.Redemption{},
		&models.GiftRule{},
		&models.Order{},
		&models.OrderItem{},
		&models.LiveCart{},
		&models.Setting{},
	); errMigrate != nil {
		return fmt.Errorf("db: migrate: %w", errMigrate)
	}

	if errSeed := seedTiers(conn); errSeed != nil {
		return fmt.Errorf("db: seed tiers: %w", errSeed)
	}
	return nil
}

// seedTiers upserts the tier ladder.
//
// The four rows cover every non-negative annual-points total: each MaxPoints
// equals the next tier's MinPoints and the top tier is open-ended. Multipliers
// and benefit copy come from the storefront program definition.
func seedTiers(conn *gorm.DB) error {
	gold := int64(1000)
	platinum := int64(3000)
	black := int64(6000)

	tiers := []models.Tier{
		{
			ID:         models.TierPoa,
			Name:       "Poá",
			Rank:       0,
			MinPoints:  0,
			MaxPoints:  &gold,
			Multiplier: 1.0,
			Color:      "bg-stone-500",
			Benefits: mustJSON([]string{
				"Acumule 1 ponto a cada R$ 1 gasto",
				"Acesso antecipado a promoções",
				"Presente de aniversário",
			}),
		},
		{
			ID:         models.TierPoaGold,
			Name:       "Poá Gold",
			Rank:       1,
			MinPoints:  gold,
			MaxPoints:  &platinum,
			Multiplier: 1.1,
			Color:      "#C5A572",
			Benefits: mustJSON([]string{
				"Todos os benefícios Poá",
				"Acumule 1.1 pontos a cada R$ 1 gasto",
				"Frete grátis em 1 pedido por mês",
				"Consultoria de estilo express",
			}),
		},
		{
			ID:         models.TierPoaPlatinum,
			Name:       "Poá Platinum",
			Rank:       2,
			MinPoints:  platinum,
			MaxPoints:  &black,
			Multiplier: 1.2,
			Color:      "#E5E4E2",
			Benefits: mustJSON([]string{
				"Todos os benefícios Gold",
				"Acumule 1.2 pontos a cada R$ 1 gasto",
				"Frete grátis ilimitado",
				"Acesso a eventos exclusivos",
			}),
		},
		{
			ID:         models.TierPoaBlack,
			Name:       "Poá Black",
			Rank:       3,
			MinPoints:  black,
			MaxPoints:  nil,
			Multiplier: 1.3,
			Color:      "#000000",
			Benefits: mustJSON([]string{
				"Todos os benefícios Platinum",
				"Acumule 1.3 pontos a cada R$ 1 gasto",
				"Concierge pessoal",
				"Presentes exclusivos da marca",
			}),
		},
	}

	return conn.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(&tiers).Error
}

func mustJSON(v any) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return data
}
