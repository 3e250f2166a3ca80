package model

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Party is a customer or supplier the business holds a running account with.
// OutstandingBalance is a cache of the party's ledger: positive means the
// party owes the business. It is written only by the balance aggregator.
type Party struct {
	ID                 int64           `json:"id"`
	Name               string          `json:"name"`
	Email              string          `json:"email,omitempty"`
	Phone              string          `json:"phone,omitempty"`
	Address            string          `json:"address,omitempty"`
	OutstandingBalance decimal.Decimal `json:"outstanding_balance"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

type PartyCreateRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

func (p PartyCreateRequest) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return errors.New("name is required")
	}
	return nil
}
