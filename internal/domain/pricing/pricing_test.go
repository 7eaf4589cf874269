package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestSubtotal(t *testing.T) {
	tests := []struct {
		name  string
		lines []Line
		want  decimal.Decimal
	}{
		{
			name: "single line",
			lines: []Line{
				{Price: d("8.50"), Quantity: 2},
			},
			want: d("17.00"),
		},
		{
			name: "mixed lines",
			lines: []Line{
				{Price: d("10.00"), Quantity: 2},
				{Price: d("4.95"), Quantity: 3},
			},
			want: d("34.85"),
		},
		{
			name:  "empty cart",
			lines: nil,
			want:  decimal.Zero,
		},
		{
			name: "sub-penny unit prices round once at the sum",
			lines: []Line{
				{Price: d("0.333"), Quantity: 3},
			},
			want: d("1.00"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Subtotal(tt.lines)
			assert.True(t, tt.want.Equal(got), "want %s, got %s", tt.want, got)
		})
	}
}

func TestDiscount(t *testing.T) {
	tests := []struct {
		name     string
		subtotal decimal.Decimal
		typ      DiscountType
		value    decimal.Decimal
		want     decimal.Decimal
	}{
		{
			name:     "percentage",
			subtotal: d("20.00"),
			typ:      DiscountPercentage,
			value:    d("10"),
			want:     d("2.00"),
		},
		{
			name:     "percentage rounds to 2dp",
			subtotal: d("10.55"),
			typ:      DiscountPercentage,
			value:    d("15"),
			want:     d("1.58"),
		},
		{
			name:     "fixed",
			subtotal: d("20.00"),
			typ:      DiscountFixed,
			value:    d("5"),
			want:     d("5.00"),
		},
		{
			name:     "fixed clamped at subtotal",
			subtotal: d("3.00"),
			typ:      DiscountFixed,
			value:    d("5"),
			want:     d("3.00"),
		},
		{
			name:     "percentage over 100 clamped at subtotal",
			subtotal: d("10.00"),
			typ:      DiscountPercentage,
			value:    d("150"),
			want:     d("10.00"),
		},
		{
			name:     "negative value floored at zero",
			subtotal: d("10.00"),
			typ:      DiscountFixed,
			value:    d("-2"),
			want:     decimal.Zero,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Discount(tt.subtotal, tt.typ, tt.value)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "want %s, got %s", tt.want, got)
		})
	}
}

func TestDiscount_UnknownType(t *testing.T) {
	_, err := Discount(d("10.00"), DiscountType("bogo"), d("1"))
	require.ErrorIs(t, err, ErrUnknownDiscountType)
}

func TestTotal(t *testing.T) {
	assert.True(t, d("15.00").Equal(Total(d("20.00"), d("5.00"))))
	assert.True(t, decimal.Zero.Equal(Total(d("5.00"), d("9.00"))), "discount never drives total negative")
}

// finalTotal = S * (1 - P/100) for percentage codes across a value sweep.
func TestPercentageProperty(t *testing.T) {
	subtotal := d("40.00")
	for p := 0; p <= 100; p += 5 {
		value := decimal.NewFromInt(int64(p))
		disc, err := Discount(subtotal, DiscountPercentage, value)
		require.NoError(t, err)

		want := subtotal.Mul(decimal.NewFromInt(1).Sub(value.Div(hundred))).Round(2)
		got := Total(subtotal, disc)
		assert.True(t, want.Equal(got), "P=%d: want %s, got %s", p, want, got)
	}
}
