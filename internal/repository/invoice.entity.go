package repository

import (
	"time"

	"github.com/nimasrn/backoffice-ledger/internal/model"
	"github.com/shopspring/decimal"
)

type InvoiceEntity struct {
	ID            int64                       `db:"id"             gorm:"primaryKey;autoIncrement;column:id"`
	InvoiceNumber string                      `db:"invoice_number" gorm:"column:invoice_number;not null;uniqueIndex:idx_invoices_invoice_number"`
	PartyID       *int64                      `db:"party_id"       gorm:"column:party_id;index:idx_invoices_party_id_created_at,priority:1;index:idx_invoices_party_id_ledger_status_created_at,priority:1"`
	Date          time.Time                   `db:"date"           gorm:"column:date;not null"`
	Items         jsonList[model.InvoiceItem] `db:"items"          gorm:"column:items;type:text;not null"`
	Subtotal      decimal.Decimal             `db:"subtotal"       gorm:"column:subtotal;type:numeric(18,2);not null;default:0"`
	Discount      decimal.Decimal             `db:"discount"       gorm:"column:discount;type:numeric(18,2);not null;default:0"`
	Total         decimal.Decimal             `db:"total"          gorm:"column:total;type:numeric(18,2);not null;default:0"`
	TransactionID *int64                      `db:"transaction_id" gorm:"column:transaction_id"`
	LedgerStatus  string                      `db:"ledger_status"  gorm:"column:ledger_status;not null;default:pending;index:idx_invoices_ledger_status_created_at,priority:1;index:idx_invoices_party_id_ledger_status_created_at,priority:2"`
	CreatedAt     time.Time                   `db:"created_at"     gorm:"column:created_at;autoCreateTime;index:idx_invoices_party_id_created_at,priority:2;index:idx_invoices_ledger_status_created_at,priority:2;index:idx_invoices_party_id_ledger_status_created_at,priority:3"`
	UpdatedAt     time.Time                   `db:"updated_at"     gorm:"column:updated_at;autoUpdateTime"`
}

func (InvoiceEntity) TableName() string {
	return "invoices"
}

func toInvoiceEntity(m *model.Invoice) *InvoiceEntity {
	if m == nil {
		return nil
	}
	return &InvoiceEntity{
		ID:            m.ID,
		InvoiceNumber: m.InvoiceNumber,
		PartyID:       m.PartyID,
		Date:          m.Date,
		Items:         jsonList[model.InvoiceItem](m.Items),
		Subtotal:      m.Subtotal,
		Discount:      m.Discount,
		Total:         m.Total,
		TransactionID: m.TransactionID,
		LedgerStatus:  string(m.LedgerStatus),
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

func toInvoiceModel(e *InvoiceEntity) *model.Invoice {
	if e == nil {
		return nil
	}
	return &model.Invoice{
		ID:            e.ID,
		InvoiceNumber: e.InvoiceNumber,
		PartyID:       e.PartyID,
		Date:          e.Date,
		Items:         []model.InvoiceItem(e.Items),
		Subtotal:      e.Subtotal,
		Discount:      e.Discount,
		Total:         e.Total,
		TransactionID: e.TransactionID,
		LedgerStatus:  model.LedgerStatus(e.LedgerStatus),
		CreatedAt:     e.CreatedAt,
		UpdatedAt:     e.UpdatedAt,
	}
}

func toInvoiceModels(entities []*InvoiceEntity) []*model.Invoice {
	if entities == nil {
		return nil
	}
	models := make([]*model.Invoice, len(entities))
	for i, e := range entities {
		models[i] = toInvoiceModel(e)
	}
	return models
}
