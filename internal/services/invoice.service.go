package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/nimasrn/backoffice-ledger/internal/model"
	"github.com/nimasrn/backoffice-ledger/internal/query"
	"github.com/nimasrn/backoffice-ledger/internal/repository"
	"github.com/nimasrn/backoffice-ledger/pkg/logger"
	"github.com/nimasrn/backoffice-ledger/pkg/pg"
	"github.com/nimasrn/backoffice-ledger/pkg/prom"
	"github.com/pkg/errors"
)

type InvoiceService struct {
	db        Transactor
	invoices  InvoiceRepository
	parties   PartyRepository
	txnRepo   TransactionRepository
	ledger    *TransactionService
	publisher JobPublisher
	save      RetryPolicy
}

func NewInvoiceService(db Transactor, invoices InvoiceRepository, parties PartyRepository, txnRepo TransactionRepository, ledger *TransactionService, publisher JobPublisher, save RetryPolicy) *InvoiceService {
	return &InvoiceService{
		db:        db,
		invoices:  invoices,
		parties:   parties,
		txnRepo:   txnRepo,
		ledger:    ledger,
		publisher: publisher,
		save:      save,
	}
}

// Create saves the invoice and mirrors it in the ledger as one debit
// receivable. The save retries transient failures; the ledger step never
// fails the call. An invoice whose receivable could not be written is left
// with ledger status failed and queued for reconciliation.
func (s *InvoiceService) Create(ctx context.Context, req model.InvoiceCreateRequest) (*model.Invoice, error) {
	if err := req.Validate(); err != nil {
		return nil, &ValidationError{Field: "items", Reason: err.Error()}
	}
	if req.PartyID != nil && *req.PartyID != 0 {
		if _, err := s.parties.GetByID(ctx, *req.PartyID); err != nil {
			if errors.Is(err, repository.ErrPartyNotFound) {
				return nil, notFound("party", *req.PartyID)
			}
			return nil, storeError("get party", err)
		}
	} else {
		req.PartyID = nil
	}

	date := req.Date
	if date.IsZero() {
		date = time.Now()
	}
	items, subtotal, discount, total := model.PriceItems(req.Items)
	invoice := &model.Invoice{
		InvoiceNumber: req.InvoiceNumber,
		PartyID:       req.PartyID,
		Date:          model.CalendarDate(date),
		Items:         items,
		Subtotal:      subtotal,
		Discount:      discount,
		Total:         total,
		LedgerStatus:  model.LedgerNone,
	}
	if invoice.NeedsReceivable() {
		invoice.LedgerStatus = model.LedgerPending
	}

	saved, err := s.saveInvoice(ctx, invoice)
	if err != nil {
		return nil, err
	}
	logger.Info("invoice saved", "invoice_id", saved.ID, "invoice_number", saved.InvoiceNumber, "total", saved.Total.String())

	if !saved.NeedsReceivable() {
		return saved, nil
	}
	return s.bridge(ctx, saved), nil
}

func (s *InvoiceService) saveInvoice(ctx context.Context, invoice *model.Invoice) (*model.Invoice, error) {
	numbered := invoice.InvoiceNumber == ""
	retryable := func(err error) bool {
		return pg.IsConnectivity(err) || (numbered && errors.Is(err, repository.ErrDuplicateInvoiceNo))
	}

	var saved *model.Invoice
	err := s.save.Do(ctx, retryable, func(ctx context.Context) error {
		return s.db.WithinTransaction(ctx, func(ctx context.Context) error {
			candidate := *invoice
			if numbered {
				n, err := s.invoices.NextNumber(ctx, candidate.Date)
				if err != nil {
					return err
				}
				candidate.InvoiceNumber = n
			}
			created, err := s.invoices.Create(ctx, &candidate)
			if err != nil {
				return err
			}
			saved = created
			return nil
		})
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateInvoiceNo) {
			return nil, invalid("invoice_number", "already exists")
		}
		return nil, storeError("save invoice", err)
	}
	return saved, nil
}

// bridge links the receivable and reports the outcome on the invoice.
func (s *InvoiceService) bridge(ctx context.Context, invoice *model.Invoice) *model.Invoice {
	linked, err := s.link(ctx, invoice)
	if err == nil {
		prom.IncBridge("linked")
		return linked
	}

	prom.IncBridge("failed")
	logger.Error("invoice ledger bridge failed", "invoice_id", invoice.ID, "invoice_number", invoice.InvoiceNumber, "error", err)

	invoice.LedgerStatus = model.LedgerFailed
	if serr := s.invoices.SetLedgerStatus(ctx, invoice.ID, model.LedgerFailed); serr != nil {
		logger.Error("failed to mark invoice ledger status", "invoice_id", invoice.ID, "error", serr)
	}
	if s.publisher != nil {
		job := model.ReconcileJob{
			ID:        uuid.NewString(),
			Kind:      model.JobInvoiceLink,
			InvoiceID: invoice.ID,
			Reason:    err.Error(),
			CreatedAt: time.Now().UTC(),
		}
		if perr := s.publisher.PublishJob(ctx, job); perr != nil {
			logger.Error("failed to schedule invoice link", "invoice_id", invoice.ID, "error", perr)
		}
	}
	return invoice
}

// link makes sure exactly one receivable exists for the invoice and points
// the invoice at it. Safe to repeat.
func (s *InvoiceService) link(ctx context.Context, invoice *model.Invoice) (*model.Invoice, error) {
	txn, err := s.txnRepo.FindByInvoiceID(ctx, invoice.ID)
	if errors.Is(err, repository.ErrTransactionNotFound) {
		txn, err = s.createReceivable(ctx, invoice)
	}
	if err != nil {
		return nil, err
	}

	if err := s.invoices.SetLedgerLink(ctx, invoice.ID, txn.ID); err != nil {
		return nil, errors.Wrapf(err, "link invoice %d to transaction %d", invoice.ID, txn.ID)
	}

	out := *invoice
	out.TransactionID = &txn.ID
	out.LedgerStatus = model.LedgerLinked
	logger.Info("invoice linked to ledger", "invoice_id", invoice.ID, "transaction_id", txn.ID)
	return &out, nil
}

func (s *InvoiceService) createReceivable(ctx context.Context, invoice *model.Invoice) (*model.Transaction, error) {
	res, err := s.ledger.Create(ctx, model.TransactionCreateRequest{
		PartyID:     *invoice.PartyID,
		InvoiceID:   &invoice.ID,
		Type:        model.TransactionDebit,
		Amount:      invoice.Total,
		Description: "Invoice " + invoice.InvoiceNumber,
		Reference:   invoice.InvoiceNumber,
		Date:        invoice.Date,
	})
	if errors.Is(err, repository.ErrInvoiceAlreadyLinked) {
		// lost a race with another linker
		return s.txnRepo.FindByInvoiceID(ctx, invoice.ID)
	}
	if err != nil {
		return nil, err
	}
	return res.Transaction, nil
}

// ReconcileInvoice retries the ledger link of one invoice. Linked invoices
// and invoices that need no receivable are left as they are.
func (s *InvoiceService) ReconcileInvoice(ctx context.Context, id int64) (*model.Invoice, error) {
	invoice, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	switch {
	case invoice.LedgerStatus == model.LedgerLinked:
		return invoice, nil
	case !invoice.NeedsReceivable():
		if invoice.LedgerStatus != model.LedgerNone {
			if err := s.invoices.SetLedgerStatus(ctx, id, model.LedgerNone); err != nil {
				return nil, storeError("set ledger status", err)
			}
			invoice.LedgerStatus = model.LedgerNone
		}
		return invoice, nil
	}

	linked, err := s.link(ctx, invoice)
	if err != nil {
		prom.IncBridge("failed")
		return nil, storeError("reconcile invoice", err)
	}
	prom.IncBridge("reconciled")
	return linked, nil
}

// Unlinked lists invoices still waiting for their receivable.
func (s *InvoiceService) Unlinked(ctx context.Context, olderThan time.Time, limit int) ([]*model.Invoice, error) {
	invoices, err := s.invoices.ListUnlinked(ctx, olderThan, limit)
	if err != nil {
		return nil, storeError("list unlinked invoices", err)
	}
	return invoices, nil
}

func (s *InvoiceService) GetByID(ctx context.Context, id int64) (*model.Invoice, error) {
	invoice, err := s.invoices.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrInvoiceNotFound) {
			return nil, notFound("invoice", id)
		}
		return nil, storeError("get invoice", err)
	}
	return invoice, nil
}

func (s *InvoiceService) List(ctx context.Context, f model.InvoiceFilter) ([]*model.Invoice, *query.Advisory, error) {
	invoices, advisory, err := s.invoices.List(ctx, f)
	if err != nil {
		return nil, nil, storeError("list invoices", err)
	}
	return invoices, advisory, nil
}
