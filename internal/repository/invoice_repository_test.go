package repository

import (
	"context"
	"testing"
	"time"

	"github.com/nimasrn/backoffice-ledger/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInvoiceRepository(t *testing.T) {
	tdb := setupTestDB(t)
	db := tdb.DB
	repo := NewInvoiceRepository(db, NewIndexGuard(db, true), nil)
	ctx := context.Background()

	t.Run("numbers are sequenced per month", func(t *testing.T) {
		march := day(15)
		n, err := repo.NextNumber(ctx, march)
		require.NoError(t, err)
		assert.Equal(t, "INV-202403-0001", n)

		_, err = repo.Create(ctx, &model.Invoice{InvoiceNumber: n, Date: march, LedgerStatus: model.LedgerNone})
		require.NoError(t, err)

		n, err = repo.NextNumber(ctx, march)
		require.NoError(t, err)
		assert.Equal(t, "INV-202403-0002", n)

		april, err := repo.NextNumber(ctx, march.AddDate(0, 1, 0))
		require.NoError(t, err)
		assert.Equal(t, "INV-202404-0001", april)
	})

	t.Run("duplicate number", func(t *testing.T) {
		_, err := repo.Create(ctx, &model.Invoice{InvoiceNumber: "INV-202403-0001", Date: day(1), LedgerStatus: model.LedgerNone})
		assert.ErrorIs(t, err, ErrDuplicateInvoiceNo)
	})

	t.Run("ledger link", func(t *testing.T) {
		inv, err := repo.Create(ctx, &model.Invoice{
			InvoiceNumber: "INV-202403-0100",
			PartyID:       ptr(4),
			Date:          day(2),
			Items:         []model.InvoiceItem{{ProductID: 1, Quantity: 2, Price: decimal.NewFromInt(5), FinalPrice: decimal.NewFromInt(10)}},
			Subtotal:      decimal.NewFromInt(10),
			Total:         decimal.NewFromInt(10),
			LedgerStatus:  model.LedgerPending,
		})
		require.NoError(t, err)

		require.NoError(t, repo.SetLedgerStatus(ctx, inv.ID, model.LedgerFailed))
		got, err := repo.GetByID(ctx, inv.ID)
		require.NoError(t, err)
		assert.Equal(t, model.LedgerFailed, got.LedgerStatus)
		require.Len(t, got.Items, 1)
		assert.Equal(t, "10", got.Items[0].FinalPrice.String())

		require.NoError(t, repo.SetLedgerLink(ctx, inv.ID, 42))
		// a late failure report does not unlink
		require.NoError(t, repo.SetLedgerStatus(ctx, inv.ID, model.LedgerFailed))

		got, err = repo.GetByID(ctx, inv.ID)
		require.NoError(t, err)
		assert.Equal(t, model.LedgerLinked, got.LedgerStatus)
		assert.Equal(t, int64(42), *got.TransactionID)

		assert.ErrorIs(t, repo.SetLedgerLink(ctx, 999, 1), ErrInvoiceNotFound)
	})

	t.Run("unlinked invoices for the sweep", func(t *testing.T) {
		pending, err := repo.Create(ctx, &model.Invoice{InvoiceNumber: "INV-202403-0200", PartyID: ptr(5), Date: day(3), Total: decimal.NewFromInt(1), LedgerStatus: model.LedgerPending})
		require.NoError(t, err)

		got, err := repo.ListUnlinked(ctx, time.Now().Add(time.Minute), 10)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, pending.ID, got[0].ID)

		got, err = repo.ListUnlinked(ctx, time.Now().Add(-time.Hour), 10)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("list by party", func(t *testing.T) {
		list, advisory, err := repo.List(ctx, model.InvoiceFilter{PartyID: ptr(4)})
		require.NoError(t, err)
		assert.Nil(t, advisory)
		assert.Len(t, list, 1)

		all, _, err := repo.List(ctx, model.InvoiceFilter{})
		require.NoError(t, err)
		assert.Len(t, all, 3)
	})

	t.Run("list by ledger status uses the store index", func(t *testing.T) {
		pending := model.LedgerPending
		list, advisory, err := repo.List(ctx, model.InvoiceFilter{LedgerStatus: &pending})
		require.NoError(t, err)
		assert.Nil(t, advisory)
		require.Len(t, list, 1)
		assert.Equal(t, "INV-202403-0200", list[0].InvoiceNumber)

		list, advisory, err = repo.List(ctx, model.InvoiceFilter{PartyID: ptr(5), LedgerStatus: &pending})
		require.NoError(t, err)
		assert.Nil(t, advisory)
		assert.Len(t, list, 1)

		linked := model.LedgerLinked
		list, advisory, err = repo.List(ctx, model.InvoiceFilter{PartyID: ptr(5), LedgerStatus: &linked})
		require.NoError(t, err)
		assert.Nil(t, advisory)
		assert.Empty(t, list)
	})
}

func TestPartyRepository(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewPartyRepository(db)
	ctx := context.Background()

	p, err := repo.Create(ctx, &model.Party{Name: "Acme", Email: "ops@acme.test", OutstandingBalance: decimal.NewFromInt(500)})
	require.NoError(t, err)
	assert.True(t, p.OutstandingBalance.IsZero(), "balance is owned by the aggregator")

	require.NoError(t, repo.UpdateBalance(ctx, p.ID, decimal.RequireFromString("-12.34")))
	got, err := repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "-12.34", got.OutstandingBalance.String())

	assert.ErrorIs(t, repo.UpdateBalance(ctx, 999, decimal.Zero), ErrPartyNotFound)
	_, err = repo.GetByID(ctx, 999)
	assert.ErrorIs(t, err, ErrPartyNotFound)

	_, err = repo.Create(ctx, &model.Party{Name: "Beta"})
	require.NoError(t, err)
	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Acme", list[0].Name)
}
