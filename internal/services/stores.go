package services

import (
	"context"
	"time"

	"github.com/nimasrn/backoffice-ledger/internal/model"
	"github.com/nimasrn/backoffice-ledger/internal/query"
	"github.com/shopspring/decimal"
)

type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type PartyRepository interface {
	Create(ctx context.Context, p *model.Party) (*model.Party, error)
	GetByID(ctx context.Context, id int64) (*model.Party, error)
	List(ctx context.Context) ([]*model.Party, error)
	UpdateBalance(ctx context.Context, id int64, balance decimal.Decimal) error
}

type TransactionRepository interface {
	Create(ctx context.Context, txn *model.Transaction) (*model.Transaction, error)
	GetByID(ctx context.Context, id int64) (*model.Transaction, error)
	Update(ctx context.Context, txn *model.Transaction) (*model.Transaction, error)
	Delete(ctx context.Context, id int64) error
	FindByInvoiceID(ctx context.Context, invoiceID int64) (*model.Transaction, error)
	List(ctx context.Context, f model.TransactionFilter) ([]*model.Transaction, *query.Advisory, error)
}

type InvoiceRepository interface {
	Create(ctx context.Context, inv *model.Invoice) (*model.Invoice, error)
	GetByID(ctx context.Context, id int64) (*model.Invoice, error)
	NextNumber(ctx context.Context, date time.Time) (string, error)
	SetLedgerLink(ctx context.Context, id, transactionID int64) error
	SetLedgerStatus(ctx context.Context, id int64, status model.LedgerStatus) error
	List(ctx context.Context, f model.InvoiceFilter) ([]*model.Invoice, *query.Advisory, error)
	ListUnlinked(ctx context.Context, olderThan time.Time, limit int) ([]*model.Invoice, error)
}

type OrderRepository interface {
	Create(ctx context.Context, o *model.Order) (*model.Order, error)
	GetByID(ctx context.Context, id int64) (*model.Order, error)
	GetForUpdate(ctx context.Context, id int64) (*model.Order, error)
	UpdateStatus(ctx context.Context, id int64, from, to model.OrderStatus, completedAt *time.Time) error
	List(ctx context.Context, partyID *int64, limit int) ([]*model.Order, *query.Advisory, error)
}

type ProductRepository interface {
	Create(ctx context.Context, p *model.Product) (*model.Product, error)
	GetByID(ctx context.Context, id int64) (*model.Product, error)
	LockForUpdate(ctx context.Context, ids []int64) (map[int64]*model.Product, error)
	AdjustQuantity(ctx context.Context, id int64, delta int) error
}

// JobPublisher hands repair work to the reconciler.
type JobPublisher interface {
	PublishJob(ctx context.Context, job model.ReconcileJob) error
}
