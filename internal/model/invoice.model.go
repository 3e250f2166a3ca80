package model

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

type LedgerStatus string

const (
	LedgerPending LedgerStatus = "pending"
	LedgerLinked  LedgerStatus = "linked"
	LedgerFailed  LedgerStatus = "failed"
	// LedgerNone marks invoices that produce no receivable (no party or zero total).
	LedgerNone LedgerStatus = "none"
)

type InvoiceItem struct {
	ProductID  int64           `json:"product_id"`
	Quantity   int             `json:"quantity"`
	Price      decimal.Decimal `json:"price"`
	Discount   decimal.Decimal `json:"discount"`
	FinalPrice decimal.Decimal `json:"final_price"`
}

// Invoice records a sale. TransactionID points at the single receivable the
// invoice produced once LedgerStatus is linked.
type Invoice struct {
	ID            int64           `json:"id"`
	InvoiceNumber string          `json:"invoice_number"`
	PartyID       *int64          `json:"party_id,omitempty"`
	Date          time.Time       `json:"date"`
	Items         []InvoiceItem   `json:"items"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	Discount      decimal.Decimal `json:"discount"`
	Total         decimal.Decimal `json:"total"`
	TransactionID *int64          `json:"transaction_id,omitempty"`
	LedgerStatus  LedgerStatus    `json:"ledger_status"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// NeedsReceivable reports whether the invoice must be mirrored in the ledger.
func (i *Invoice) NeedsReceivable() bool {
	return i.PartyID != nil && *i.PartyID != 0 && i.Total.IsPositive()
}

type InvoiceItemRequest struct {
	ProductID int64           `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Discount  decimal.Decimal `json:"discount"`
}

type InvoiceCreateRequest struct {
	InvoiceNumber string               `json:"invoice_number"`
	PartyID       *int64               `json:"party_id,omitempty"`
	Date          time.Time            `json:"date"`
	Items         []InvoiceItemRequest `json:"items"`
}

var hundred = decimal.NewFromInt(100)

func (r InvoiceCreateRequest) Validate() error {
	if len(r.Items) == 0 {
		return errors.New("items are required")
	}
	for _, it := range r.Items {
		if it.Quantity <= 0 {
			return errors.New("item quantity must be positive")
		}
		if it.Price.IsNegative() {
			return errors.New("item price cannot be negative")
		}
		if it.Discount.IsNegative() || it.Discount.GreaterThan(hundred) {
			return errors.New("item discount must be between 0 and 100")
		}
	}
	return nil
}

// PriceItems computes line final prices and the invoice totals, rounded to
// two places: subtotal before discounts, aggregate discount amount, total.
func PriceItems(items []InvoiceItemRequest) (lines []InvoiceItem, subtotal, discount, total decimal.Decimal) {
	lines = make([]InvoiceItem, 0, len(items))
	for _, it := range items {
		gross := it.Price.Mul(decimal.NewFromInt(int64(it.Quantity)))
		final := gross.Mul(hundred.Sub(it.Discount)).Div(hundred).Round(2)
		subtotal = subtotal.Add(gross)
		total = total.Add(final)
		lines = append(lines, InvoiceItem{
			ProductID:  it.ProductID,
			Quantity:   it.Quantity,
			Price:      it.Price,
			Discount:   it.Discount,
			FinalPrice: final,
		})
	}
	subtotal = subtotal.Round(2)
	total = total.Round(2)
	discount = subtotal.Sub(total)
	return lines, subtotal, discount, total
}

type InvoiceFilter struct {
	PartyID      *int64
	LedgerStatus *LedgerStatus
}
