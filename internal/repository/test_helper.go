package repository

import (
	"testing"

	"github.com/nimasrn/backoffice-ledger/pkg/pg"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Entities lists every table the repositories own, in creation order.
func Entities() []any {
	return []any{&PartyEntity{}, &ProductEntity{}, &TransactionEntity{}, &InvoiceEntity{}, &OrderEntity{}}
}

type testDB struct {
	*pg.DB
	rawDB *gorm.DB
}

func setupTestDB(t *testing.T) *testDB {
	t.Helper()
	raw := OpenSQLite(t)
	return &testDB{
		DB:    pg.Wrap(raw),
		rawDB: raw,
	}
}

// OpenSQLite opens a migrated in-memory store. A single connection makes
// store transactions serialize the way row locks do on postgres.
func OpenSQLite(t testing.TB) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(Entities()...))
	return db
}
