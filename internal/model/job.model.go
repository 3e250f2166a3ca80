package model

import "time"

type JobKind string

const (
	JobInvoiceLink      JobKind = "invoice_link"
	JobBalanceRecompute JobKind = "balance_recompute"
)

// ReconcileJob asks the reconciler to repair state a request left behind:
// an invoice without its receivable or a party with a stale balance.
type ReconcileJob struct {
	ID        string    `json:"id"`
	Kind      JobKind   `json:"kind"`
	InvoiceID int64     `json:"invoice_id,omitempty"`
	PartyID   int64     `json:"party_id,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
