package repository

import (
	"context"
	"errors"

	"github.com/nimasrn/backoffice-ledger/internal/model"
	"github.com/nimasrn/backoffice-ledger/internal/query"
	"github.com/nimasrn/backoffice-ledger/pkg/pg"
	"gorm.io/gorm"
)

type TransactionRepository struct {
	*pg.DB
	guard *IndexGuard
	sink  query.Sink
}

func NewTransactionRepository(db *pg.DB, guard *IndexGuard, sink query.Sink) *TransactionRepository {
	return &TransactionRepository{
		DB:    db,
		guard: guard,
		sink:  sink,
	}
}

func (r *TransactionRepository) Create(ctx context.Context, txn *model.Transaction) (*model.Transaction, error) {
	entity := toTransactionEntity(txn)

	if err := r.Write(ctx).Create(entity).Error; err != nil {
		if txn.InvoiceID != nil && pg.IsUniqueViolation(err) {
			return nil, ErrInvoiceAlreadyLinked
		}
		return nil, err
	}

	return toTransactionModel(entity), nil
}

func (r *TransactionRepository) GetByID(ctx context.Context, id int64) (*model.Transaction, error) {
	var entity TransactionEntity
	err := r.Read(ctx).Where("id = ?", id).First(&entity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}
	return toTransactionModel(&entity), nil
}

// FindByInvoiceID returns the receivable an invoice produced, or
// ErrTransactionNotFound if it has none yet.
func (r *TransactionRepository) FindByInvoiceID(ctx context.Context, invoiceID int64) (*model.Transaction, error) {
	var entity TransactionEntity
	err := r.Read(ctx).Where("invoice_id = ?", invoiceID).First(&entity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}
	return toTransactionModel(&entity), nil
}

// Update writes every mutable field of txn.
func (r *TransactionRepository) Update(ctx context.Context, txn *model.Transaction) (*model.Transaction, error) {
	entity := toTransactionEntity(txn)

	result := r.Write(ctx).
		Model(&TransactionEntity{ID: txn.ID}).
		Select("party_id", "type", "amount", "description", "reference", "date", "updated_at").
		Updates(entity)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrTransactionNotFound
	}

	return r.GetByID(ctx, txn.ID)
}

func (r *TransactionRepository) Delete(ctx context.Context, id int64) error {
	result := r.Write(ctx).Where("id = ?", id).Delete(&TransactionEntity{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrTransactionNotFound
	}
	return nil
}

// List returns the transactions matching f, newest business date first. When
// the composite index is missing the rows come back through the in-memory
// fallback and the advisory is returned alongside them.
func (r *TransactionRepository) List(ctx context.Context, f model.TransactionFilter) ([]*model.Transaction, *query.Advisory, error) {
	q := query.Query{
		Table: TransactionEntity{}.TableName(),
		Sort:  &query.Sort{Field: "date", Desc: true},
	}
	if f.PartyID != nil {
		q.Filters = append(q.Filters, query.Filter{Field: "party_id", Value: *f.PartyID})
	}
	if f.UserID != nil {
		q.Filters = append(q.Filters, query.Filter{Field: "user_id", Value: *f.UserID})
	}

	res, err := query.Run(ctx, r.sink, q, r.exec, transactionsNewestFirst)
	if err != nil {
		return nil, nil, err
	}
	return res.Items, res.Advisory, nil
}

func (r *TransactionRepository) exec(ctx context.Context, q query.Query) ([]*model.Transaction, error) {
	entities, err := find[TransactionEntity](ctx, r.Read(ctx), r.guard, q)
	if err != nil {
		return nil, err
	}
	return toTransactionModels(entities), nil
}

func transactionsNewestFirst(a, b *model.Transaction) bool {
	if !a.Date.Equal(b.Date) {
		return a.Date.After(b.Date)
	}
	return a.ID > b.ID
}
