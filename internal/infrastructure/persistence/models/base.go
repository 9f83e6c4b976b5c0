package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/linkmarket/backend/internal/domain/shared"
	"github.com/linkmarket/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// BaseModel provides common persistence fields for all models.
// It maps to the domain's BaseEntity.
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// FromDomainBaseEntity populates BaseModel from domain BaseEntity
func (m *BaseModel) FromDomainBaseEntity(e shared.BaseEntity) {
	m.ID = e.ID
	m.CreatedAt = e.CreatedAt
	m.UpdatedAt = e.UpdatedAt
}

// AggregateModel provides common persistence fields for aggregate roots.
// It extends BaseModel with version for optimistic locking.
type AggregateModel struct {
	BaseModel
	Version int `gorm:"not null;default:1"`
}

// FromDomainAggregateRoot populates AggregateModel from domain BaseAggregateRoot
func (m *AggregateModel) FromDomainAggregateRoot(a shared.BaseAggregateRoot) {
	m.FromDomainBaseEntity(a.BaseEntity)
	m.Version = a.Version
}

// SetVersion sets the stored version before a guarded update
func (m *AggregateModel) SetVersion(v int) {
	m.Version = v
}

// ToAggregateRoot rebuilds the domain base without pending events
func (m *AggregateModel) ToAggregateRoot() shared.BaseAggregateRoot {
	return shared.BaseAggregateRoot{
		BaseEntity: shared.BaseEntity{
			ID:        m.ID,
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		Version: m.Version,
	}
}

// money rebuilds a Money from its stored amount and currency code
func money(amount decimal.Decimal, currency string) valueobject.Money {
	m, err := valueobject.NewMoney(amount, currencyOf(currency))
	if err != nil {
		return valueobject.NewMoneyUSD(amount)
	}
	return m
}

// currencyOf parses a stored currency code, falling back to the default currency
func currencyOf(code string) valueobject.Currency {
	c, err := valueobject.ParseCurrency(code)
	if err != nil {
		return valueobject.DefaultCurrency
	}
	return c
}

// JSONColumn stores any value as JSON (jsonb in Postgres, text in SQLite)
type JSONColumn[T any] struct {
	Data T
}

// NewJSONColumn wraps a value for JSON storage
func NewJSONColumn[T any](data T) JSONColumn[T] {
	return JSONColumn[T]{Data: data}
}

// Value implements driver.Valuer
func (j JSONColumn[T]) Value() (driver.Value, error) {
	b, err := json.Marshal(j.Data)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner
func (j *JSONColumn[T]) Scan(value any) error {
	var bytes []byte
	switch v := value.(type) {
	case nil:
		return nil
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to scan JSON column: unsupported type")
	}
	if len(bytes) == 0 {
		return nil
	}
	return json.Unmarshal(bytes, &j.Data)
}
