package valueobject

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMoney(t *testing.T) {
	t.Run("creates money with valid amount and currency", func(t *testing.T) {
		m, err := NewMoney(decimal.NewFromFloat(100.50), USD)
		require.NoError(t, err)
		assert.Equal(t, USD, m.Currency())
		assert.True(t, m.Amount().Equal(decimal.NewFromFloat(100.50)))
	})

	t.Run("returns error for empty currency", func(t *testing.T) {
		_, err := NewMoney(decimal.NewFromFloat(100), "")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "currency cannot be empty")
	})
}

func TestParseCurrency(t *testing.T) {
	c, err := ParseCurrency(" usd ")
	require.NoError(t, err)
	assert.Equal(t, USD, c)

	_, err = ParseCurrency("CNY")
	assert.Error(t, err)
}

func TestMoney_AddRejectsMixedCurrencies(t *testing.T) {
	usd := MustUSD("10")
	eur, err := NewMoneyFromString("10", EUR)
	require.NoError(t, err)

	_, err = usd.Add(eur)
	assert.Error(t, err)

	sum, err := usd.Add(MustUSD("2.50"))
	require.NoError(t, err)
	assert.Equal(t, "12.50", sum.StringFixed(2))
}

func TestMoney_Cents(t *testing.T) {
	tests := []struct {
		amount string
		cents  int64
	}{
		{"0", 0},
		{"1", 100},
		{"19.99", 1999},
		{"12.345", 1235},
		{"150.004", 15000},
	}
	for _, tt := range tests {
		t.Run(tt.amount, func(t *testing.T) {
			assert.Equal(t, tt.cents, MustUSD(tt.amount).Cents())
		})
	}
}

func TestFromCents(t *testing.T) {
	m := FromCents(12345, USD)
	assert.Equal(t, "123.45", m.StringFixed(2))
	assert.Equal(t, int64(12345), m.Cents())
}

func TestMoney_MultiplyAndRound(t *testing.T) {
	base := MustUSD("120")
	m := base.Multiply(decimal.RequireFromString("1.335")).Round(2)
	assert.Equal(t, "160.20", m.StringFixed(2))
}

func TestMoney_JSON(t *testing.T) {
	data, err := json.Marshal(MustUSD("99.5"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"amount":"99.50","currency":"USD"}`, string(data))

	var back Money
	require.NoError(t, json.Unmarshal(data, &back))
	assert.True(t, back.Equals(MustUSD("99.50")))

	var noCurrency Money
	require.NoError(t, json.Unmarshal([]byte(`{"amount":"5"}`), &noCurrency))
	assert.Equal(t, USD, noCurrency.Currency())
}

func TestSum(t *testing.T) {
	total, err := Sum(USD, MustUSD("1.10"), MustUSD("2.20"), MustUSD("3.30"))
	require.NoError(t, err)
	assert.Equal(t, "6.60", total.StringFixed(2))

	empty, err := Sum(USD)
	require.NoError(t, err)
	assert.True(t, empty.IsZero())
}
