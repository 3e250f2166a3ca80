package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TransactionDebit  TransactionType = "debit"
	TransactionCredit TransactionType = "credit"
)

func (t TransactionType) Valid() bool {
	return t == TransactionDebit || t == TransactionCredit
}

// Transaction is a single ledger entry against one party. Amount is always
// positive; direction is carried by Type.
type Transaction struct {
	ID          int64           `json:"id"`
	PartyID     int64           `json:"party_id"`
	UserID      *int64          `json:"user_id,omitempty"`
	InvoiceID   *int64          `json:"invoice_id,omitempty"`
	Type        TransactionType `json:"type"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	Reference   string          `json:"reference,omitempty"`
	Date        time.Time       `json:"date"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

type TransactionCreateRequest struct {
	PartyID     int64           `json:"party_id"`
	UserID      *int64          `json:"user_id,omitempty"`
	InvoiceID   *int64          `json:"-"`
	Type        TransactionType `json:"type"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	Reference   string          `json:"reference"`
	Date        time.Time       `json:"date"`
}

// TransactionPatch carries the fields of an edit; nil fields are left unchanged.
type TransactionPatch struct {
	PartyID     *int64           `json:"party_id,omitempty"`
	Type        *TransactionType `json:"type,omitempty"`
	Amount      *decimal.Decimal `json:"amount,omitempty"`
	Description *string          `json:"description,omitempty"`
	Reference   *string          `json:"reference,omitempty"`
	Date        *time.Time       `json:"date,omitempty"`
}

// Apply returns a copy of t with the patch applied.
func (p TransactionPatch) Apply(t Transaction) Transaction {
	if p.PartyID != nil {
		t.PartyID = *p.PartyID
	}
	if p.Type != nil {
		t.Type = *p.Type
	}
	if p.Amount != nil {
		t.Amount = *p.Amount
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Reference != nil {
		t.Reference = *p.Reference
	}
	if p.Date != nil {
		t.Date = *p.Date
	}
	return t
}

// TransactionResult is returned by ledger writes. The write itself has
// committed even when BalanceStale is set; the affected balances will be
// corrected by the next successful recompute.
type TransactionResult struct {
	Transaction  *Transaction    `json:"transaction,omitempty"`
	Balances     []*PartyBalance `json:"balances"`
	BalanceStale bool            `json:"balance_stale"`
}

// TransactionFilter selects the ledger entries of one party or one user.
type TransactionFilter struct {
	PartyID *int64
	UserID  *int64
}

// CalendarDate keeps the calendar day of t as seen in its own zone and
// returns it as midnight UTC.
func CalendarDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
