// Package ledger holds the pure computations over a party's transactions.
// Nothing here touches the store: callers fetch transactions and persist results.
package ledger

import (
	"sort"
	"time"

	"github.com/nimasrn/backoffice-ledger/internal/model"
	"github.com/shopspring/decimal"
)

// Totals is the fold of a transaction set.
type Totals struct {
	TotalCredit  decimal.Decimal
	TotalDebit   decimal.Decimal
	Balance      decimal.Decimal
	LastActivity *time.Time
	Count        int
}

// Signed returns the effect of tx on the party balance: debits raise what the
// party owes, credits lower it. Unknown types contribute nothing.
func Signed(tx *model.Transaction) decimal.Decimal {
	switch tx.Type {
	case model.TransactionDebit:
		return tx.Amount
	case model.TransactionCredit:
		return tx.Amount.Neg()
	default:
		return decimal.Zero
	}
}

// Chronological returns a copy of txs ordered by business date, then by
// creation order.
func Chronological(txs []*model.Transaction) []*model.Transaction {
	out := make([]*model.Transaction, 0, len(txs))
	for _, tx := range txs {
		if tx != nil {
			out = append(out, tx)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
	return out
}

// Running is the prefix sum of Signed over the chronological order. Its last
// value is the authoritative balance; statements display every step.
func Running(txs []*model.Transaction) []model.StatementLine {
	ordered := Chronological(txs)
	lines := make([]model.StatementLine, len(ordered))
	running := decimal.Zero
	for i, tx := range ordered {
		running = running.Add(Signed(tx))
		lines[i] = model.StatementLine{Transaction: tx, RunningBalance: running}
	}
	return lines
}

// Fold computes credit and debit totals, the balance and the last activity
// date. The balance is read off the running sum so both paths cannot diverge.
func Fold(txs []*model.Transaction) Totals {
	t := Totals{
		TotalCredit: decimal.Zero,
		TotalDebit:  decimal.Zero,
		Balance:     decimal.Zero,
	}
	lines := Running(txs)
	for _, line := range lines {
		tx := line.Transaction
		switch tx.Type {
		case model.TransactionDebit:
			t.TotalDebit = t.TotalDebit.Add(tx.Amount)
		case model.TransactionCredit:
			t.TotalCredit = t.TotalCredit.Add(tx.Amount)
		}
		if t.LastActivity == nil || tx.Date.After(*t.LastActivity) {
			d := tx.Date
			t.LastActivity = &d
		}
	}
	if n := len(lines); n > 0 {
		t.Balance = lines[n-1].RunningBalance
	}
	t.Count = len(lines)
	return t
}

// Summarize builds the PartyBalance view of party from its transactions.
func Summarize(party *model.Party, txs []*model.Transaction) *model.PartyBalance {
	t := Fold(txs)
	return &model.PartyBalance{
		PartyID:      party.ID,
		PartyName:    party.Name,
		TotalCredit:  t.TotalCredit,
		TotalDebit:   t.TotalDebit,
		Balance:      t.Balance,
		LastActivity: t.LastActivity,
	}
}
