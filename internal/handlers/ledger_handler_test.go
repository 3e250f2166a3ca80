package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/nimasrn/backoffice-ledger/internal/model"
	"github.com/nimasrn/backoffice-ledger/internal/query"
	"github.com/nimasrn/backoffice-ledger/internal/services"
	xhttp "github.com/nimasrn/backoffice-ledger/pkg/http"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
)

type MockPartyService struct {
	mock.Mock
}

func (m *MockPartyService) Create(ctx context.Context, req model.PartyCreateRequest) (*model.Party, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Party), args.Error(1)
}

func (m *MockPartyService) GetByID(ctx context.Context, id int64) (*model.Party, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Party), args.Error(1)
}

func (m *MockPartyService) List(ctx context.Context) ([]*model.Party, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Party), args.Error(1)
}

type MockBalanceService struct {
	mock.Mock
}

func (m *MockBalanceService) Recompute(ctx context.Context, partyID int64) (*model.PartyBalance, error) {
	args := m.Called(ctx, partyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PartyBalance), args.Error(1)
}

func (m *MockBalanceService) GetPartyBalances(ctx context.Context) ([]*model.PartyBalance, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.PartyBalance), args.Error(1)
}

func (m *MockBalanceService) Statement(ctx context.Context, partyID int64) (*model.Statement, error) {
	args := m.Called(ctx, partyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Statement), args.Error(1)
}

type MockTransactionService struct {
	mock.Mock
}

func (m *MockTransactionService) Create(ctx context.Context, req model.TransactionCreateRequest) (*model.TransactionResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.TransactionResult), args.Error(1)
}

func (m *MockTransactionService) Update(ctx context.Context, id int64, patch model.TransactionPatch) (*model.TransactionResult, error) {
	args := m.Called(ctx, id, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.TransactionResult), args.Error(1)
}

func (m *MockTransactionService) Delete(ctx context.Context, id int64) (*model.TransactionResult, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.TransactionResult), args.Error(1)
}

func (m *MockTransactionService) GetByID(ctx context.Context, id int64) (*model.Transaction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Transaction), args.Error(1)
}

func (m *MockTransactionService) ListByParty(ctx context.Context, partyID int64, userID *int64) ([]*model.Transaction, *query.Advisory, error) {
	args := m.Called(ctx, partyID, userID)
	return listArgs[*model.Transaction](args)
}

func (m *MockTransactionService) ListByUser(ctx context.Context, userID int64) ([]*model.Transaction, *query.Advisory, error) {
	args := m.Called(ctx, userID)
	return listArgs[*model.Transaction](args)
}

func listArgs[T any](args mock.Arguments) ([]T, *query.Advisory, error) {
	var items []T
	if args.Get(0) != nil {
		items = args.Get(0).([]T)
	}
	var advisory *query.Advisory
	if args.Get(1) != nil {
		advisory = args.Get(1).(*query.Advisory)
	}
	return items, advisory, args.Error(2)
}

func setupTestContext(method, path string, body []byte) *xhttp.RequestCtx {
	ctx := &fasthttp.RequestCtx{}
	ctx.Request.Header.SetMethod(method)
	ctx.Request.SetRequestURI(path)
	if body != nil {
		ctx.Request.SetBody(body)
	}
	return ctx
}

func decodeError(t *testing.T, ctx *xhttp.RequestCtx) errorResponse {
	t.Helper()
	var resp errorResponse
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &resp))
	return resp
}

func newLedgerHandler() (*LedgerHandler, *MockPartyService, *MockBalanceService, *MockTransactionService) {
	parties := new(MockPartyService)
	balances := new(MockBalanceService)
	txns := new(MockTransactionService)
	return NewLedgerHandler(parties, balances, txns), parties, balances, txns
}

func TestLedgerHandler_CreateTransaction(t *testing.T) {
	t.Run("date only body is accepted", func(t *testing.T) {
		h, _, _, txns := newLedgerHandler()

		body := []byte(`{"party_id":7,"type":"debit","amount":"100.00","description":"goods","date":"2024-03-15"}`)
		result := &model.TransactionResult{
			Transaction: &model.Transaction{ID: 1, PartyID: 7, Type: model.TransactionDebit, Amount: decimal.RequireFromString("100")},
			Balances:    []*model.PartyBalance{{PartyID: 7, Balance: decimal.RequireFromString("100")}},
		}
		txns.On("Create", mock.Anything, mock.MatchedBy(func(r model.TransactionCreateRequest) bool {
			return r.PartyID == 7 &&
				r.Type == model.TransactionDebit &&
				r.Amount.Equal(decimal.RequireFromString("100")) &&
				r.Date.Equal(time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC))
		})).Return(result, nil)

		ctx := setupTestContext("POST", "/api/v1/transactions", body)
		h.CreateTransaction(ctx)

		assert.Equal(t, 201, ctx.Response.StatusCode())
		var resp model.TransactionResult
		require.NoError(t, json.Unmarshal(ctx.Response.Body(), &resp))
		assert.Equal(t, int64(1), resp.Transaction.ID)
		assert.False(t, resp.BalanceStale)
		txns.AssertExpectations(t)
	})

	t.Run("invalid JSON", func(t *testing.T) {
		h, _, _, _ := newLedgerHandler()

		ctx := setupTestContext("POST", "/api/v1/transactions", []byte("invalid json"))
		h.CreateTransaction(ctx)

		assert.Equal(t, 400, ctx.Response.StatusCode())
		assert.Contains(t, decodeError(t, ctx).Error, "invalid JSON")
	})

	t.Run("invalid date", func(t *testing.T) {
		h, _, _, _ := newLedgerHandler()

		ctx := setupTestContext("POST", "/api/v1/transactions", []byte(`{"party_id":7,"date":"15/03/2024"}`))
		h.CreateTransaction(ctx)

		assert.Equal(t, 400, ctx.Response.StatusCode())
	})

	t.Run("validation error carries the field", func(t *testing.T) {
		h, _, _, txns := newLedgerHandler()
		txns.On("Create", mock.Anything, mock.Anything).
			Return(nil, &services.ValidationError{Field: "amount", Reason: "must be positive"})

		ctx := setupTestContext("POST", "/api/v1/transactions", []byte(`{"party_id":7,"type":"credit","amount":-5}`))
		h.CreateTransaction(ctx)

		assert.Equal(t, 400, ctx.Response.StatusCode())
		resp := decodeError(t, ctx)
		assert.Equal(t, "validation", resp.Code)
		assert.Equal(t, "amount", resp.Field)
	})

	t.Run("missing party", func(t *testing.T) {
		h, _, _, txns := newLedgerHandler()
		txns.On("Create", mock.Anything, mock.Anything).
			Return(nil, &services.NotFoundError{Entity: "party", ID: 99})

		ctx := setupTestContext("POST", "/api/v1/transactions", []byte(`{"party_id":99,"type":"credit","amount":5}`))
		h.CreateTransaction(ctx)

		assert.Equal(t, 404, ctx.Response.StatusCode())
		resp := decodeError(t, ctx)
		assert.Equal(t, "party", resp.Entity)
		assert.Equal(t, int64(99), resp.ID)
	})

	t.Run("store unavailable", func(t *testing.T) {
		h, _, _, txns := newLedgerHandler()
		txns.On("Create", mock.Anything, mock.Anything).
			Return(nil, &services.ConnectivityError{Op: "create transaction", Err: errors.New("dial tcp: refused")})

		ctx := setupTestContext("POST", "/api/v1/transactions", []byte(`{"party_id":1,"type":"credit","amount":5}`))
		h.CreateTransaction(ctx)

		assert.Equal(t, 503, ctx.Response.StatusCode())
		assert.Equal(t, "unavailable", decodeError(t, ctx).Code)
	})

	t.Run("unexpected error", func(t *testing.T) {
		h, _, _, txns := newLedgerHandler()
		txns.On("Create", mock.Anything, mock.Anything).Return(nil, errors.New("boom"))

		ctx := setupTestContext("POST", "/api/v1/transactions", []byte(`{"party_id":1,"type":"credit","amount":5}`))
		h.CreateTransaction(ctx)

		assert.Equal(t, 500, ctx.Response.StatusCode())
	})
}

func TestLedgerHandler_UpdateTransaction(t *testing.T) {
	t.Run("only supplied fields are patched", func(t *testing.T) {
		h, _, _, txns := newLedgerHandler()

		txns.On("Update", mock.Anything, int64(5), mock.MatchedBy(func(p model.TransactionPatch) bool {
			return p.PartyID != nil && *p.PartyID == 2 &&
				p.Amount == nil && p.Type == nil &&
				p.Date != nil && p.Date.Equal(time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC))
		})).Return(&model.TransactionResult{BalanceStale: true}, nil)

		ctx := setupTestContext("PATCH", "/api/v1/transactions/5", []byte(`{"party_id":2,"date":"2024-04-01"}`))
		ctx.SetUserValue("id", "5")
		h.UpdateTransaction(ctx)

		assert.Equal(t, 200, ctx.Response.StatusCode())
		var resp model.TransactionResult
		require.NoError(t, json.Unmarshal(ctx.Response.Body(), &resp))
		assert.True(t, resp.BalanceStale)
		txns.AssertExpectations(t)
	})

	t.Run("bad id", func(t *testing.T) {
		h, _, _, txns := newLedgerHandler()

		ctx := setupTestContext("PATCH", "/api/v1/transactions/abc", []byte(`{}`))
		ctx.SetUserValue("id", "abc")
		h.UpdateTransaction(ctx)

		assert.Equal(t, 400, ctx.Response.StatusCode())
		txns.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestLedgerHandler_DeleteTransaction(t *testing.T) {
	h, _, _, txns := newLedgerHandler()
	txns.On("Delete", mock.Anything, int64(3)).
		Return(nil, &services.NotFoundError{Entity: "transaction", ID: 3})

	ctx := setupTestContext("DELETE", "/api/v1/transactions/3", nil)
	ctx.SetUserValue("id", "3")
	h.DeleteTransaction(ctx)

	assert.Equal(t, 404, ctx.Response.StatusCode())
	txns.AssertExpectations(t)
}

func TestLedgerHandler_ListPartyTransactions(t *testing.T) {
	t.Run("degraded query returns advisory", func(t *testing.T) {
		h, _, _, txns := newLedgerHandler()

		items := []*model.Transaction{{ID: 4}, {ID: 3}}
		advisory := &query.Advisory{
			Table:       "transactions",
			Index:       "idx_transactions_party_id_user_id_date",
			Remediation: "CREATE INDEX IF NOT EXISTS idx_transactions_party_id_user_id_date ON transactions (party_id, user_id, date)",
		}
		txns.On("ListByParty", mock.Anything, int64(7), mock.MatchedBy(func(u *int64) bool {
			return u != nil && *u == 3
		})).Return(items, advisory, nil)

		ctx := setupTestContext("GET", "/api/v1/parties/7/transactions?user_id=3", nil)
		ctx.SetUserValue("id", "7")
		h.ListPartyTransactions(ctx)

		assert.Equal(t, 200, ctx.Response.StatusCode())
		var resp listResponse[*model.Transaction]
		require.NoError(t, json.Unmarshal(ctx.Response.Body(), &resp))
		require.Len(t, resp.Items, 2)
		assert.Equal(t, int64(4), resp.Items[0].ID)
		require.NotNil(t, resp.Advisory)
		assert.Equal(t, advisory.Remediation, resp.Advisory.Remediation)
	})

	t.Run("empty list is not null", func(t *testing.T) {
		h, _, _, txns := newLedgerHandler()
		txns.On("ListByParty", mock.Anything, int64(7), (*int64)(nil)).Return(nil, nil, nil)

		ctx := setupTestContext("GET", "/api/v1/parties/7/transactions", nil)
		ctx.SetUserValue("id", "7")
		h.ListPartyTransactions(ctx)

		assert.Equal(t, 200, ctx.Response.StatusCode())
		assert.JSONEq(t, `{"items":[]}`, string(ctx.Response.Body()))
	})

	t.Run("bad user filter", func(t *testing.T) {
		h, _, _, _ := newLedgerHandler()

		ctx := setupTestContext("GET", "/api/v1/parties/7/transactions?user_id=x", nil)
		ctx.SetUserValue("id", "7")
		h.ListPartyTransactions(ctx)

		assert.Equal(t, 400, ctx.Response.StatusCode())
	})
}

func TestLedgerHandler_ListUserTransactions(t *testing.T) {
	h, _, _, txns := newLedgerHandler()
	txns.On("ListByUser", mock.Anything, int64(9)).Return([]*model.Transaction{{ID: 1, UserID: ptr(int64(9))}}, nil, nil)

	ctx := setupTestContext("GET", "/api/v1/users/9/transactions", nil)
	ctx.SetUserValue("id", "9")
	h.ListUserTransactions(ctx)

	assert.Equal(t, 200, ctx.Response.StatusCode())
	var resp listResponse[*model.Transaction]
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &resp))
	assert.Len(t, resp.Items, 1)
	assert.Nil(t, resp.Advisory)
}

func TestLedgerHandler_Parties(t *testing.T) {
	t.Run("create", func(t *testing.T) {
		h, parties, _, _ := newLedgerHandler()
		parties.On("Create", mock.Anything, model.PartyCreateRequest{Name: "Acme"}).
			Return(&model.Party{ID: 1, Name: "Acme"}, nil)

		ctx := setupTestContext("POST", "/api/v1/parties", []byte(`{"name":"Acme"}`))
		h.CreateParty(ctx)

		assert.Equal(t, 201, ctx.Response.StatusCode())
		parties.AssertExpectations(t)
	})

	t.Run("statement", func(t *testing.T) {
		h, _, balances, _ := newLedgerHandler()
		balances.On("Statement", mock.Anything, int64(1)).Return(&model.Statement{
			Party:   &model.Party{ID: 1, Name: "Acme"},
			Balance: decimal.RequireFromString("40"),
		}, nil)

		ctx := setupTestContext("GET", "/api/v1/parties/1/statement", nil)
		ctx.SetUserValue("id", "1")
		h.GetStatement(ctx)

		assert.Equal(t, 200, ctx.Response.StatusCode())
		var resp model.Statement
		require.NoError(t, json.Unmarshal(ctx.Response.Body(), &resp))
		assert.True(t, resp.Balance.Equal(decimal.RequireFromString("40")))
	})

	t.Run("recompute", func(t *testing.T) {
		h, _, balances, _ := newLedgerHandler()
		balances.On("Recompute", mock.Anything, int64(2)).
			Return(&model.PartyBalance{PartyID: 2, Balance: decimal.RequireFromString("-12.5")}, nil)

		ctx := setupTestContext("POST", "/api/v1/parties/2/recompute", nil)
		ctx.SetUserValue("id", "2")
		h.RecomputeBalance(ctx)

		assert.Equal(t, 200, ctx.Response.StatusCode())
		balances.AssertExpectations(t)
	})

	t.Run("balances", func(t *testing.T) {
		h, _, balances, _ := newLedgerHandler()
		balances.On("GetPartyBalances", mock.Anything).Return([]*model.PartyBalance{{PartyID: 1}, {PartyID: 2}}, nil)

		ctx := setupTestContext("GET", "/api/v1/balances", nil)
		h.GetPartyBalances(ctx)

		assert.Equal(t, 200, ctx.Response.StatusCode())
		var resp listResponse[*model.PartyBalance]
		require.NoError(t, json.Unmarshal(ctx.Response.Body(), &resp))
		assert.Len(t, resp.Items, 2)
	})
}

func ptr[T any](v T) *T { return &v }
