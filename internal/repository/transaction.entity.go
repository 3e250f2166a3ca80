package repository

import (
	"time"

	"github.com/nimasrn/backoffice-ledger/internal/model"
)

type TransactionEntity struct {
	ID          int64        `db:"id"          gorm:"primaryKey;autoIncrement;column:id"`
	PartyID     int64        `db:"party_id"    gorm:"column:party_id;not null;index:idx_transactions_party_id_date,priority:1;index:idx_transactions_party_id_user_id_date,priority:1"`
	UserID      *int64       `db:"user_id"     gorm:"column:user_id;index:idx_transactions_party_id_user_id_date,priority:2;index:idx_transactions_user_id_date,priority:1"`
	InvoiceID   *int64       `db:"invoice_id"  gorm:"column:invoice_id;uniqueIndex:idx_transactions_invoice_id"`
	Type        string       `db:"type"        gorm:"column:type;not null"`
	Amount      legacyAmount `db:"amount"      gorm:"column:amount;type:numeric(18,2);not null"`
	Description string       `db:"description" gorm:"column:description"`
	Reference   string       `db:"reference"   gorm:"column:reference"`
	Date        time.Time    `db:"date"        gorm:"column:date;not null;index:idx_transactions_party_id_date,priority:2;index:idx_transactions_party_id_user_id_date,priority:3;index:idx_transactions_user_id_date,priority:2"`
	CreatedAt   time.Time    `db:"created_at"  gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time    `db:"updated_at"  gorm:"column:updated_at;autoUpdateTime"`
}

func (TransactionEntity) TableName() string {
	return "transactions"
}

func toTransactionEntity(m *model.Transaction) *TransactionEntity {
	if m == nil {
		return nil
	}
	return &TransactionEntity{
		ID:          m.ID,
		PartyID:     m.PartyID,
		UserID:      m.UserID,
		InvoiceID:   m.InvoiceID,
		Type:        string(m.Type),
		Amount:      newLegacyAmount(m.Amount),
		Description: m.Description,
		Reference:   m.Reference,
		Date:        m.Date,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

func toTransactionModel(e *TransactionEntity) *model.Transaction {
	if e == nil {
		return nil
	}
	return &model.Transaction{
		ID:          e.ID,
		PartyID:     e.PartyID,
		UserID:      e.UserID,
		InvoiceID:   e.InvoiceID,
		Type:        model.TransactionType(e.Type),
		Amount:      e.Amount.Decimal,
		Description: e.Description,
		Reference:   e.Reference,
		Date:        e.Date,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
}

func toTransactionModels(entities []*TransactionEntity) []*model.Transaction {
	if entities == nil {
		return nil
	}
	models := make([]*model.Transaction, len(entities))
	for i, e := range entities {
		models[i] = toTransactionModel(e)
	}
	return models
}
