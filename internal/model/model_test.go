package model

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name    string
		in      any
		want    string
		wantErr bool
	}{
		{"decimal", decimal.RequireFromString("12.34"), "12.34", false},
		{"int64", int64(7), "7", false},
		{"int", 9, "9", false},
		{"float64", 19.5, "19.5", false},
		{"plain string", "100.00", "100", false},
		{"currency string", "$1,250.50", "1250.5", false},
		{"spaces and code", " 42.10 USD ", "42.1", false},
		{"bytes", []byte("3.5"), "3.5", false},
		{"negative", "-4", "-4", false},
		{"prefix with dot", "Rs. 1,200", "1200", false},
		{"prefix without space", "Rs.1200.50", "1200.5", false},
		{"word prefix", "Rupees 100", "100", false},
		{"european grouping", "1.234,56", "", true},
		{"two numbers", "10 - 20", "", true},
		{"bad grouping", "12,34", "", true},
		{"empty", "", "", true},
		{"no digits", "n/a", "", true},
		{"nil", nil, "", true},
		{"unsupported", true, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAmount(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestPriceItems(t *testing.T) {
	lines, subtotal, discount, total := PriceItems([]InvoiceItemRequest{
		{ProductID: 1, Quantity: 3, Price: decimal.RequireFromString("9.99"), Discount: decimal.RequireFromString("15")},
		{ProductID: 2, Quantity: 1, Price: decimal.RequireFromString("0.05")},
	})
	require.Len(t, lines, 2)
	// 29.97 * 0.85 = 25.4745
	assert.Equal(t, "25.47", lines[0].FinalPrice.String())
	assert.Equal(t, "0.05", lines[1].FinalPrice.String())
	assert.Equal(t, "30.02", subtotal.String())
	assert.Equal(t, "25.52", total.String())
	assert.Equal(t, "4.5", discount.String())
	assert.True(t, subtotal.Sub(discount).Equal(total))
}

func TestInvoiceCreateRequest_Validate(t *testing.T) {
	ok := InvoiceItemRequest{ProductID: 1, Quantity: 1, Price: decimal.NewFromInt(1)}
	assert.NoError(t, InvoiceCreateRequest{Items: []InvoiceItemRequest{ok}}.Validate())
	assert.Error(t, InvoiceCreateRequest{}.Validate())

	bad := ok
	bad.Quantity = 0
	assert.Error(t, InvoiceCreateRequest{Items: []InvoiceItemRequest{bad}}.Validate())

	bad = ok
	bad.Discount = decimal.NewFromInt(101)
	assert.Error(t, InvoiceCreateRequest{Items: []InvoiceItemRequest{bad}}.Validate())
}

func TestNeedsReceivable(t *testing.T) {
	party := int64(1)
	zero := int64(0)
	assert.True(t, (&Invoice{PartyID: &party, Total: decimal.NewFromInt(1)}).NeedsReceivable())
	assert.False(t, (&Invoice{Total: decimal.NewFromInt(1)}).NeedsReceivable())
	assert.False(t, (&Invoice{PartyID: &zero, Total: decimal.NewFromInt(1)}).NeedsReceivable())
	assert.False(t, (&Invoice{PartyID: &party, Total: decimal.Zero}).NeedsReceivable())
}

func TestCanTransition(t *testing.T) {
	all := []OrderStatus{OrderPending, OrderCompleted, OrderCancelled}
	allowed := map[[2]OrderStatus]bool{
		{OrderPending, OrderCompleted}: true,
		{OrderPending, OrderCancelled}: true,
	}
	for _, from := range all {
		for _, to := range all {
			assert.Equal(t, allowed[[2]OrderStatus{from, to}], CanTransition(from, to), "%s -> %s", from, to)
		}
	}
	assert.False(t, OrderStatus("shipped").Valid())
}

func TestOrderCreateRequest_Demand(t *testing.T) {
	ids, demand := OrderCreateRequest{Items: []OrderItem{
		{ProductID: 4, Quantity: 1},
		{ProductID: 2, Quantity: 3},
		{ProductID: 4, Quantity: 2},
	}}.Demand()
	assert.Equal(t, []int64{4, 2}, ids)
	assert.Equal(t, 3, demand[4])
	assert.Equal(t, 3, demand[2])
}

func TestTransactionPatch_Apply(t *testing.T) {
	base := Transaction{ID: 1, PartyID: 1, Type: TransactionDebit, Amount: decimal.NewFromInt(10), Description: "a"}
	credit := TransactionCredit
	party := int64(2)
	got := TransactionPatch{Type: &credit, PartyID: &party}.Apply(base)
	assert.Equal(t, TransactionCredit, got.Type)
	assert.Equal(t, int64(2), got.PartyID)
	assert.Equal(t, "a", got.Description)
	assert.Equal(t, TransactionDebit, base.Type, "original untouched")
}

func TestCalendarDate(t *testing.T) {
	tests := []struct {
		name string
		in   time.Time
		want time.Time
	}{
		{"ahead of utc", time.Date(2024, 3, 1, 0, 30, 0, 0, time.FixedZone("IST", 5*3600+1800)), time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
		{"behind utc", time.Date(2024, 2, 29, 23, 0, 0, 0, time.FixedZone("EST", -5*3600)), time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)},
		{"utc", time.Date(2024, 3, 2, 17, 45, 0, 0, time.UTC), time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CalendarDate(tt.in))
		})
	}

	parsed, err := time.Parse(time.RFC3339, "2024-03-01T00:30:00+05:30")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-01", CalendarDate(parsed).Format(time.DateOnly))
}
