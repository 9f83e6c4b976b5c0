package telemetry

import (
	"context"

	"gorm.io/gorm"
)

// GormMarketplaceStats implements MarketplaceStats with GROUP BY queries
// over the media_outlets and orders tables.
type GormMarketplaceStats struct {
	db *gorm.DB
}

// NewGormMarketplaceStats creates a new GormMarketplaceStats
func NewGormMarketplaceStats(db *gorm.DB) *GormMarketplaceStats {
	return &GormMarketplaceStats{db: db}
}

// OutletsByStatus counts outlets per status
func (p *GormMarketplaceStats) OutletsByStatus(ctx context.Context) (map[string]int64, error) {
	return p.countByStatus(ctx, "media_outlets")
}

// OrdersByStatus counts orders per status
func (p *GormMarketplaceStats) OrdersByStatus(ctx context.Context) (map[string]int64, error) {
	return p.countByStatus(ctx, "orders")
}

func (p *GormMarketplaceStats) countByStatus(ctx context.Context, table string) (map[string]int64, error) {
	type row struct {
		Status string `gorm:"column:status"`
		Count  int64  `gorm:"column:count"`
	}
	var rows []row
	err := p.db.WithContext(ctx).
		Table(table).
		Select("status, COUNT(*) AS count").
		Group("status").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, r := range rows {
		out[r.Status] = r.Count
	}
	return out, nil
}

var _ MarketplaceStats = (*GormMarketplaceStats)(nil)
