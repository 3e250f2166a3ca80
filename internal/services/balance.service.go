package services

import (
	"context"
	"time"

	"github.com/nimasrn/backoffice-ledger/internal/ledger"
	"github.com/nimasrn/backoffice-ledger/internal/model"
	"github.com/nimasrn/backoffice-ledger/internal/repository"
	"github.com/nimasrn/backoffice-ledger/pkg/prom"
	"github.com/pkg/errors"
)

// BalanceService derives party balances from the transaction stream. The
// outstanding balance stored on a party is a cache written only here.
type BalanceService struct {
	parties PartyRepository
	txns    TransactionRepository
}

func NewBalanceService(parties PartyRepository, txns TransactionRepository) *BalanceService {
	return &BalanceService{
		parties: parties,
		txns:    txns,
	}
}

// Recompute folds every transaction of the party and stores the balance.
// It is idempotent; concurrent calls over the same transactions converge.
func (s *BalanceService) Recompute(ctx context.Context, partyID int64) (*model.PartyBalance, error) {
	start := time.Now()

	party, err := s.party(ctx, partyID)
	if err != nil {
		return nil, err
	}

	txs, _, err := s.txns.List(ctx, model.TransactionFilter{PartyID: &partyID})
	if err != nil {
		return nil, storeError("list party transactions", err)
	}

	summary := ledger.Summarize(party, txs)
	if err := s.parties.UpdateBalance(ctx, partyID, summary.Balance); err != nil {
		if errors.Is(err, repository.ErrPartyNotFound) {
			return nil, notFound("party", partyID)
		}
		return nil, storeError("store balance", err)
	}

	prom.ObserveRecompute(time.Since(start).Seconds())
	return summary, nil
}

// GetPartyBalances summarizes every party. Nothing is persisted.
func (s *BalanceService) GetPartyBalances(ctx context.Context) ([]*model.PartyBalance, error) {
	parties, err := s.parties.List(ctx)
	if err != nil {
		return nil, storeError("list parties", err)
	}

	all, _, err := s.txns.List(ctx, model.TransactionFilter{})
	if err != nil {
		return nil, storeError("list transactions", err)
	}
	byParty := make(map[int64][]*model.Transaction, len(parties))
	for _, tx := range all {
		byParty[tx.PartyID] = append(byParty[tx.PartyID], tx)
	}

	out := make([]*model.PartyBalance, 0, len(parties))
	for _, p := range parties {
		out = append(out, ledger.Summarize(p, byParty[p.ID]))
	}
	return out, nil
}

// Statement lists the party's transactions oldest first with the running
// balance after each one. The last running value equals the balance.
func (s *BalanceService) Statement(ctx context.Context, partyID int64) (*model.Statement, error) {
	party, err := s.party(ctx, partyID)
	if err != nil {
		return nil, err
	}

	txs, _, err := s.txns.List(ctx, model.TransactionFilter{PartyID: &partyID})
	if err != nil {
		return nil, storeError("list party transactions", err)
	}

	lines := ledger.Running(txs)
	st := &model.Statement{Party: party, Lines: lines, Balance: ledger.Fold(txs).Balance}
	return st, nil
}

func (s *BalanceService) party(ctx context.Context, id int64) (*model.Party, error) {
	party, err := s.parties.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrPartyNotFound) {
			return nil, notFound("party", id)
		}
		return nil, storeError("get party", err)
	}
	return party, nil
}
