package helpers

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/nimasrn/backoffice-ledger/internal/model"
	"github.com/nimasrn/backoffice-ledger/internal/repository"
	"github.com/nimasrn/backoffice-ledger/pkg/pg"
	"github.com/nimasrn/backoffice-ledger/pkg/redis"
	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// SetupTestDB returns an in-memory store migrated with every entity, and
// the raw handle for tests that need to alter the schema.
func SetupTestDB(t *testing.T) (*pg.DB, *gorm.DB) {
	raw := repository.OpenSQLite(t)
	return pg.Wrap(raw), raw
}

func SetupTestRedis(t *testing.T) (*miniredis.Miniredis, redis.RedisAdapter) {
	mr := miniredis.RunT(t)

	// adapters are cached by connection name
	adapter, err := redis.NewRedisAdapter(t.Name()+"-"+mr.Addr(), "test:", &goredis.UniversalOptions{
		Addrs: []string{mr.Addr()},
	})
	require.NoError(t, err)

	return mr, adapter
}

func CreateTestParty(t *testing.T, db *pg.DB, name string) *model.Party {
	p, err := repository.NewPartyRepository(db).Create(context.Background(), &model.Party{Name: name})
	require.NoError(t, err)
	return p
}

func CreateTestProduct(t *testing.T, db *pg.DB, name string, quantity int, price string) *model.Product {
	p, err := repository.NewProductRepository(db).Create(context.Background(), &model.Product{
		Name:     name,
		Quantity: quantity,
		Price:    decimal.RequireFromString(price),
	})
	require.NoError(t, err)
	return p
}

func StockOf(t *testing.T, db *pg.DB, productID int64) int {
	p, err := repository.NewProductRepository(db).GetByID(context.Background(), productID)
	require.NoError(t, err)
	return p.Quantity
}

func WaitForCondition(t *testing.T, timeout time.Duration, condition func() bool) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return false
}

func AssertEventually(t *testing.T, timeout time.Duration, condition func() bool, msg string) {
	if !WaitForCondition(t, timeout, condition) {
		t.Fatal(msg)
	}
}

func Ptr[T any](v T) *T {
	return &v
}
