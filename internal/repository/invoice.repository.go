package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/nimasrn/backoffice-ledger/internal/model"
	"github.com/nimasrn/backoffice-ledger/internal/query"
	"github.com/nimasrn/backoffice-ledger/pkg/pg"
	"gorm.io/gorm"
)

type InvoiceRepository struct {
	*pg.DB
	guard *IndexGuard
	sink  query.Sink
}

func NewInvoiceRepository(db *pg.DB, guard *IndexGuard, sink query.Sink) *InvoiceRepository {
	return &InvoiceRepository{
		DB:    db,
		guard: guard,
		sink:  sink,
	}
}

func (r *InvoiceRepository) Create(ctx context.Context, invoice *model.Invoice) (*model.Invoice, error) {
	entity := toInvoiceEntity(invoice)

	if err := r.Write(ctx).Create(entity).Error; err != nil {
		if pg.IsUniqueViolation(err) {
			return nil, ErrDuplicateInvoiceNo
		}
		return nil, err
	}

	return toInvoiceModel(entity), nil
}

func (r *InvoiceRepository) GetByID(ctx context.Context, id int64) (*model.Invoice, error) {
	var entity InvoiceEntity
	err := r.Read(ctx).Where("id = ?", id).First(&entity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvoiceNotFound
		}
		return nil, err
	}
	return toInvoiceModel(&entity), nil
}

// NumberPrefix is the monthly scope of invoice numbers, e.g. INV-202403-.
func NumberPrefix(date time.Time) string {
	return fmt.Sprintf("INV-%04d%02d-", date.Year(), int(date.Month()))
}

// NextNumber returns the next free invoice number in the month of date.
func (r *InvoiceRepository) NextNumber(ctx context.Context, date time.Time) (string, error) {
	prefix := NumberPrefix(date)

	var last []string
	err := r.Write(ctx).
		Model(&InvoiceEntity{}).
		Where("invoice_number LIKE ?", prefix+"%").
		Order("length(invoice_number) DESC").
		Order("invoice_number DESC").
		Limit(1).
		Pluck("invoice_number", &last).
		Error
	if err != nil {
		return "", err
	}

	seq := 0
	if len(last) > 0 {
		if n, err := strconv.Atoi(strings.TrimPrefix(last[0], prefix)); err == nil {
			seq = n
		}
	}
	return fmt.Sprintf("%s%04d", prefix, seq+1), nil
}

// SetLedgerLink records the receivable of an invoice and marks it linked.
func (r *InvoiceRepository) SetLedgerLink(ctx context.Context, id, transactionID int64) error {
	result := r.Write(ctx).
		Model(&InvoiceEntity{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"transaction_id": transactionID,
			"ledger_status":  string(model.LedgerLinked),
			"updated_at":     time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrInvoiceNotFound
	}
	return nil
}

// SetLedgerStatus changes the status of an invoice that is not linked yet.
// A linked invoice is left untouched.
func (r *InvoiceRepository) SetLedgerStatus(ctx context.Context, id int64, status model.LedgerStatus) error {
	result := r.Write(ctx).
		Model(&InvoiceEntity{}).
		Where("id = ? AND ledger_status <> ?", id, string(model.LedgerLinked)).
		Updates(map[string]any{
			"ledger_status": string(status),
			"updated_at":    time.Now(),
		})
	return result.Error
}

// List returns invoices newest first, optionally for one party.
func (r *InvoiceRepository) List(ctx context.Context, f model.InvoiceFilter) ([]*model.Invoice, *query.Advisory, error) {
	q := query.Query{
		Table: InvoiceEntity{}.TableName(),
		Sort:  &query.Sort{Field: "created_at", Desc: true},
	}
	if f.PartyID != nil {
		q.Filters = append(q.Filters, query.Filter{Field: "party_id", Value: *f.PartyID})
	}
	if f.LedgerStatus != nil {
		q.Filters = append(q.Filters, query.Filter{Field: "ledger_status", Value: string(*f.LedgerStatus)})
	}

	res, err := query.Run(ctx, r.sink, q, r.exec, invoicesNewestFirst)
	if err != nil {
		return nil, nil, err
	}
	return res.Items, res.Advisory, nil
}

// ListUnlinked returns invoices still waiting for their receivable that were
// created before olderThan, oldest first.
func (r *InvoiceRepository) ListUnlinked(ctx context.Context, olderThan time.Time, limit int) ([]*model.Invoice, error) {
	var entities []*InvoiceEntity
	err := r.Read(ctx).
		Where("ledger_status IN ?", []string{string(model.LedgerPending), string(model.LedgerFailed)}).
		Where("created_at < ?", olderThan).
		Order("created_at ASC").
		Limit(limit).
		Find(&entities).
		Error
	if err != nil {
		return nil, err
	}
	return toInvoiceModels(entities), nil
}

func (r *InvoiceRepository) exec(ctx context.Context, q query.Query) ([]*model.Invoice, error) {
	entities, err := find[InvoiceEntity](ctx, r.Read(ctx), r.guard, q)
	if err != nil {
		return nil, err
	}
	return toInvoiceModels(entities), nil
}

func invoicesNewestFirst(a, b *model.Invoice) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID > b.ID
}
