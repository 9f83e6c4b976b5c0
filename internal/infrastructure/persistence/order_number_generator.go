package persistence

import (
	"context"
	"time"

	"github.com/linkmarket/backend/internal/domain/order"
	"github.com/linkmarket/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormOrderNumberGenerator hands out order numbers from a per-year counter row.
// The increment runs as a single UPDATE so concurrent callers never share a value.
type GormOrderNumberGenerator struct {
	db *gorm.DB
}

// NewGormOrderNumberGenerator creates a new GormOrderNumberGenerator
func NewGormOrderNumberGenerator(db *gorm.DB) *GormOrderNumberGenerator {
	return &GormOrderNumberGenerator{db: db}
}

// NextOrderNumber returns the next number for the year of at, e.g. LM-2026-00042
func (g *GormOrderNumberGenerator) NextOrderNumber(ctx context.Context, at time.Time) (string, error) {
	year := at.UTC().Year()
	var next int64
	err := g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		seed := models.OrderNumberSequenceModel{Year: year, LastValue: 0}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&seed).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.OrderNumberSequenceModel{}).
			Where("year = ?", year).
			Update("last_value", gorm.Expr("last_value + 1")).Error; err != nil {
			return err
		}
		return tx.Model(&models.OrderNumberSequenceModel{}).
			Where("year = ?", year).
			Pluck("last_value", &next).Error
	})
	if err != nil {
		return "", err
	}
	return order.FormatOrderNumber(year, next), nil
}

// Ensure GormOrderNumberGenerator implements order.NumberGenerator
var _ order.NumberGenerator = (*GormOrderNumberGenerator)(nil)
