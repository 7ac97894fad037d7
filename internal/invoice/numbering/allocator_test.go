package numbering

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/tradebook/internal/clock"
	saledomain "github.com/smallbiznis/tradebook/internal/sale/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var baseTime = time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC)

func setupAllocator(t *testing.T) (*Allocator, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&saledomain.Sale{}, &saledomain.SaleItem{}, &InvoiceSequence{}))

	a := New(Params{
		DB:    db,
		Log:   zap.NewNop(),
		Clock: clock.NewFakeClock(baseTime),
	})
	return a, db
}

func insertSale(t *testing.T, db *gorm.DB, id int64, invoiceNo string, createdAt time.Time) {
	t.Helper()
	require.NoError(t, db.Create(&saledomain.Sale{
		ID:           snowflake.ID(id),
		InvoiceNo:    invoiceNo,
		CustomerName: "Al Faisal & Co",
		SaleDate:     createdAt,
		CreatedAt:    createdAt,
		UpdatedAt:    createdAt,
	}).Error)
}

func TestNextWithoutSales(t *testing.T) {
	a, _ := setupAllocator(t)
	assert.Equal(t, "INV-0001", a.Next(context.Background()))
}

func TestNextIncrementsLatestByCreation(t *testing.T) {
	a, db := setupAllocator(t)
	insertSale(t, db, 1, "INV-0050", baseTime.Add(-2*time.Hour))
	insertSale(t, db, 2, "INV-0042", baseTime.Add(-time.Hour))

	assert.Equal(t, "INV-0043", a.Next(context.Background()))
}

func TestNextGrowsBeyondFourDigits(t *testing.T) {
	a, db := setupAllocator(t)
	insertSale(t, db, 1, "INV-9999", baseTime)

	assert.Equal(t, "INV-10000", a.Next(context.Background()))
}

func TestNextWithMalformedLatest(t *testing.T) {
	a, db := setupAllocator(t)
	insertSale(t, db, 1, "INV-0042", baseTime.Add(-time.Hour))
	insertSale(t, db, 2, "XYZ", baseTime)

	assert.Equal(t, "INV-0001", a.Next(context.Background()))
}

func TestNextDegradesOnLookupError(t *testing.T) {
	a, db := setupAllocator(t)
	require.NoError(t, db.Migrator().DropTable(&saledomain.Sale{}))

	assert.Equal(t, "INV-0001", a.Next(context.Background()))
}

func TestNextHasNoSideEffects(t *testing.T) {
	a, db := setupAllocator(t)
	insertSale(t, db, 1, "INV-0007", baseTime)

	assert.Equal(t, "INV-0008", a.Next(context.Background()))
	assert.Equal(t, "INV-0008", a.Next(context.Background()))

	var count int64
	require.NoError(t, db.Model(&InvoiceSequence{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestReserveIsMonotonic(t *testing.T) {
	a, db := setupAllocator(t)
	ctx := context.Background()

	first, err := a.Reserve(ctx, db)
	require.NoError(t, err)
	second, err := a.Reserve(ctx, db)
	require.NoError(t, err)

	assert.Equal(t, "INV-0001", first)
	assert.Equal(t, "INV-0002", second)
}

func TestReserveContinuesFromExistingSales(t *testing.T) {
	a, db := setupAllocator(t)
	ctx := context.Background()
	insertSale(t, db, 1, "INV-0042", baseTime)

	var got string
	err := db.Transaction(func(tx *gorm.DB) error {
		var err error
		got, err = a.Reserve(ctx, tx)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, "INV-0043", got)

	var seq InvoiceSequence
	require.NoError(t, db.First(&seq, "name = ?", SalesSequence).Error)
	assert.Equal(t, int64(43), seq.LastValue)
}

func TestReserveRolledBackWithTransaction(t *testing.T) {
	a, db := setupAllocator(t)
	ctx := context.Background()

	err := db.Transaction(func(tx *gorm.DB) error {
		if _, err := a.Reserve(ctx, tx); err != nil {
			return err
		}
		return fmt.Errorf("abort")
	})
	require.Error(t, err)

	got, err := a.Reserve(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, "INV-0001", got)
}
