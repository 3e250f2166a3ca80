package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// PartyBalance is the summary of one party's ledger, computed on demand.
type PartyBalance struct {
	PartyID      int64           `json:"party_id"`
	PartyName    string          `json:"party_name"`
	TotalCredit  decimal.Decimal `json:"total_credit"`
	TotalDebit   decimal.Decimal `json:"total_debit"`
	Balance      decimal.Decimal `json:"balance"`
	LastActivity *time.Time      `json:"last_activity,omitempty"`
}

// StatementLine is one transaction of a statement with the balance after it.
type StatementLine struct {
	Transaction    *Transaction    `json:"transaction"`
	RunningBalance decimal.Decimal `json:"running_balance"`
}

type Statement struct {
	Party   *Party          `json:"party"`
	Lines   []StatementLine `json:"lines"`
	Balance decimal.Decimal `json:"balance"`
}
