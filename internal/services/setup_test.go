package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/nimasrn/backoffice-ledger/internal/model"
	"github.com/nimasrn/backoffice-ledger/internal/repository"
	"github.com/nimasrn/backoffice-ledger/pkg/pg"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type capturePublisher struct {
	mu   sync.Mutex
	jobs []model.ReconcileJob
}

func (c *capturePublisher) PublishJob(_ context.Context, job model.ReconcileJob) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.jobs = append(c.jobs, job)
	return nil
}

func (c *capturePublisher) Jobs() []model.ReconcileJob {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]model.ReconcileJob(nil), c.jobs...)
}

type testEnv struct {
	db        *pg.DB
	parties   *repository.PartyRepository
	txns      *repository.TransactionRepository
	invoices  *repository.InvoiceRepository
	orders    *repository.OrderRepository
	products  *repository.ProductRepository
	publisher *capturePublisher

	balances     *BalanceService
	transactions *TransactionService
	invoiceSvc   *InvoiceService
	orderSvc     *OrderService
	partySvc     *PartyService
	productSvc   *ProductService
}

var fastRetry = RetryPolicy{MaxRetries: 3, BaseDelay: time.Millisecond}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := pg.Wrap(repository.OpenSQLite(t))
	guard := repository.NewIndexGuard(db, true)

	env := &testEnv{
		db:        db,
		parties:   repository.NewPartyRepository(db),
		txns:      repository.NewTransactionRepository(db, guard, nil),
		invoices:  repository.NewInvoiceRepository(db, guard, nil),
		orders:    repository.NewOrderRepository(db, guard, nil),
		products:  repository.NewProductRepository(db),
		publisher: &capturePublisher{},
	}
	env.wire(env.parties, env.txns, env.invoices)
	return env
}

// wire builds the services over the given repositories so tests can swap
// in failing ones.
func (e *testEnv) wire(parties PartyRepository, txns TransactionRepository, invoices InvoiceRepository) {
	e.balances = NewBalanceService(parties, txns)
	e.transactions = NewTransactionService(txns, parties, e.balances, e.publisher)
	e.invoiceSvc = NewInvoiceService(e.db, invoices, parties, txns, e.transactions, e.publisher, fastRetry)
	e.orderSvc = NewOrderService(e.db, e.orders, e.products, parties, fastRetry)
	e.partySvc = NewPartyService(parties)
	e.productSvc = NewProductService(e.products)
}

func (e *testEnv) party(t *testing.T, name string) *model.Party {
	t.Helper()
	p, err := e.partySvc.Create(context.Background(), model.PartyCreateRequest{Name: name})
	require.NoError(t, err)
	return p
}

func (e *testEnv) product(t *testing.T, name string, qty int, price string) *model.Product {
	t.Helper()
	p, err := e.productSvc.Create(context.Background(), model.ProductCreateRequest{
		Name:     name,
		Quantity: qty,
		Price:    decimal.RequireFromString(price),
	})
	require.NoError(t, err)
	return p
}

func (e *testEnv) storedBalance(t *testing.T, partyID int64) string {
	t.Helper()
	p, err := e.parties.GetByID(context.Background(), partyID)
	require.NoError(t, err)
	return p.OutstandingBalance.String()
}

func amount(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func day(d int) time.Time {
	return time.Date(2024, time.March, d, 0, 0, 0, 0, time.UTC)
}
