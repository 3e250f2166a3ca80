package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/nimasrn/backoffice-ledger/internal/model"
	"github.com/nimasrn/backoffice-ledger/internal/query"
	"github.com/nimasrn/backoffice-ledger/internal/repository"
	"github.com/nimasrn/backoffice-ledger/pkg/logger"
	"github.com/pkg/errors"
)

type TransactionService struct {
	txns      TransactionRepository
	parties   PartyRepository
	balances  *BalanceService
	publisher JobPublisher
}

func NewTransactionService(txns TransactionRepository, parties PartyRepository, balances *BalanceService, publisher JobPublisher) *TransactionService {
	return &TransactionService{
		txns:      txns,
		parties:   parties,
		balances:  balances,
		publisher: publisher,
	}
}

// Create records a ledger entry and refreshes the party balance before
// returning. A failed refresh does not undo the entry; the result is
// flagged stale instead.
func (s *TransactionService) Create(ctx context.Context, req model.TransactionCreateRequest) (*model.TransactionResult, error) {
	txn := &model.Transaction{
		PartyID:     req.PartyID,
		UserID:      req.UserID,
		InvoiceID:   req.InvoiceID,
		Type:        req.Type,
		Amount:      req.Amount,
		Description: req.Description,
		Reference:   req.Reference,
		Date:        req.Date,
	}
	if txn.Date.IsZero() {
		txn.Date = time.Now()
	}
	txn.Date = model.CalendarDate(txn.Date)

	if err := validateTransaction(txn); err != nil {
		return nil, err
	}
	if err := s.ensureParty(ctx, txn.PartyID); err != nil {
		return nil, err
	}

	created, err := s.txns.Create(ctx, txn)
	if err != nil {
		return nil, storeError("create transaction", err)
	}
	logger.Debug("transaction created", "transaction_id", created.ID, "party_id", created.PartyID)

	result := &model.TransactionResult{Transaction: created}
	s.refresh(ctx, result, created.PartyID)
	return result, nil
}

// Update applies patch. The prior party is always refreshed; when the entry
// moved to another party that party is refreshed too.
func (s *TransactionService) Update(ctx context.Context, id int64, patch model.TransactionPatch) (*model.TransactionResult, error) {
	existing, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	next := patch.Apply(*existing)
	next.Date = model.CalendarDate(next.Date)
	if err := validateTransaction(&next); err != nil {
		return nil, err
	}
	if existing.InvoiceID != nil && receivableChanged(existing, &next) {
		return nil, invalid("invoice_id", "entry is the receivable of an invoice; only description and date can change")
	}
	if next.PartyID != existing.PartyID {
		if err := s.ensureParty(ctx, next.PartyID); err != nil {
			return nil, err
		}
	}

	updated, err := s.txns.Update(ctx, &next)
	if err != nil {
		if errors.Is(err, repository.ErrTransactionNotFound) {
			return nil, notFound("transaction", id)
		}
		return nil, storeError("update transaction", err)
	}

	result := &model.TransactionResult{Transaction: updated}
	s.refresh(ctx, result, existing.PartyID)
	if updated.PartyID != existing.PartyID {
		s.refresh(ctx, result, updated.PartyID)
	}
	return result, nil
}

func (s *TransactionService) Delete(ctx context.Context, id int64) (*model.TransactionResult, error) {
	existing, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.InvoiceID != nil {
		return nil, invalid("invoice_id", "entry is the receivable of an invoice and cannot be deleted")
	}

	if err := s.txns.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrTransactionNotFound) {
			return nil, notFound("transaction", id)
		}
		return nil, storeError("delete transaction", err)
	}

	result := &model.TransactionResult{}
	s.refresh(ctx, result, existing.PartyID)
	return result, nil
}

func (s *TransactionService) GetByID(ctx context.Context, id int64) (*model.Transaction, error) {
	return s.get(ctx, id)
}

// ListByParty returns the party's entries newest first, optionally only
// those created by userID.
func (s *TransactionService) ListByParty(ctx context.Context, partyID int64, userID *int64) ([]*model.Transaction, *query.Advisory, error) {
	if err := s.ensureParty(ctx, partyID); err != nil {
		return nil, nil, err
	}
	txs, advisory, err := s.txns.List(ctx, model.TransactionFilter{PartyID: &partyID, UserID: userID})
	if err != nil {
		return nil, nil, storeError("list transactions", err)
	}
	return txs, advisory, nil
}

func (s *TransactionService) ListByUser(ctx context.Context, userID int64) ([]*model.Transaction, *query.Advisory, error) {
	txs, advisory, err := s.txns.List(ctx, model.TransactionFilter{UserID: &userID})
	if err != nil {
		return nil, nil, storeError("list transactions", err)
	}
	return txs, advisory, nil
}

// refresh recomputes one party. Failures are logged and handed to the
// reconciler; the caller still gets its committed write.
func (s *TransactionService) refresh(ctx context.Context, result *model.TransactionResult, partyID int64) {
	balance, err := s.balances.Recompute(ctx, partyID)
	if err == nil {
		result.Balances = append(result.Balances, balance)
		return
	}

	result.BalanceStale = true
	logger.Error("balance recompute failed after committed write", "party_id", partyID, "error", err)

	if s.publisher == nil {
		return
	}
	job := model.ReconcileJob{
		ID:        uuid.NewString(),
		Kind:      model.JobBalanceRecompute,
		PartyID:   partyID,
		Reason:    err.Error(),
		CreatedAt: time.Now().UTC(),
	}
	if perr := s.publisher.PublishJob(ctx, job); perr != nil {
		logger.Error("failed to schedule balance recompute", "party_id", partyID, "error", perr)
	}
}

func (s *TransactionService) get(ctx context.Context, id int64) (*model.Transaction, error) {
	txn, err := s.txns.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrTransactionNotFound) {
			return nil, notFound("transaction", id)
		}
		return nil, storeError("get transaction", err)
	}
	return txn, nil
}

func (s *TransactionService) ensureParty(ctx context.Context, partyID int64) error {
	if _, err := s.parties.GetByID(ctx, partyID); err != nil {
		if errors.Is(err, repository.ErrPartyNotFound) {
			return notFound("party", partyID)
		}
		return storeError("get party", err)
	}
	return nil
}

// receivableChanged reports whether an edit touches the fields an invoice's
// receivable mirrors.
func receivableChanged(prev, next *model.Transaction) bool {
	return prev.PartyID != next.PartyID ||
		prev.Type != next.Type ||
		!prev.Amount.Equal(next.Amount) ||
		prev.Reference != next.Reference
}

func validateTransaction(txn *model.Transaction) error {
	if txn.PartyID == 0 {
		return invalid("party_id", "is required")
	}
	if !txn.Type.Valid() {
		return invalid("type", "must be debit or credit")
	}
	if !txn.Amount.IsPositive() {
		return invalid("amount", "must be greater than zero")
	}
	return nil
}
