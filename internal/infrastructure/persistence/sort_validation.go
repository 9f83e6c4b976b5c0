package persistence

import (
	"strings"
)

// ValidateSortOrder validates and normalizes the sort order to ASC or DESC.
// Returns "DESC" as the default if the input is invalid or empty.
func ValidateSortOrder(orderDir string) string {
	normalized := strings.ToUpper(strings.TrimSpace(orderDir))
	if normalized == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ProfileSortFields maps profile sort keys to columns
var ProfileSortFields = map[string]string{
	"created_at":    "created_at",
	"email":         "email",
	"full_name":     "full_name",
	"last_login_at": "last_login_at",
}

// OutletSortFields maps marketplace sort keys to columns
var OutletSortFields = map[string]string{
	"created_at": "created_at",
	"name":       "name",
	"price":      "base_price",
	"da":         "domain_authority",
	"traffic":    "monthly_traffic",
}

// OrderSortFields maps order sort keys to columns
var OrderSortFields = map[string]string{
	"created_at":   "created_at",
	"order_number": "order_number",
	"total":        "total",
	"status":       "status",
	"paid_at":      "paid_at",
}

// PublisherItemSortFields maps publisher item sort keys to qualified columns
var PublisherItemSortFields = map[string]string{
	"created_at": "order_items.created_at",
	"price":      "order_items.price",
	"status":     "order_items.status",
}
