package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/tradebook/internal/clock"
	"github.com/smallbiznis/tradebook/internal/config"
	"github.com/smallbiznis/tradebook/internal/invoice/numbering"
	"github.com/smallbiznis/tradebook/internal/sale/domain"
	"github.com/smallbiznis/tradebook/internal/sale/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var saleDay = time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)

type testEnv struct {
	svc   domain.Service
	db    *gorm.DB
	clock *clock.FakeClock
}

func setup(t *testing.T, numbers NumberReserver) testEnv {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Sale{}, &domain.SaleItem{}, &numbering.InvoiceSequence{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	fake := clock.NewFakeClock(saleDay)
	if numbers == nil {
		numbers = numbering.New(numbering.Params{DB: db, Log: zap.NewNop(), Clock: fake})
	}

	profile := config.DefaultCompanyProfile()
	profile.DefaultTermsDays = 7

	svc := New(Params{
		DB:      db,
		Log:     zap.NewNop(),
		GenID:   node,
		Clock:   fake,
		Repo:    repository.Provide(),
		Numbers: numbers,
		Company: config.NewStaticCompanyProfileHolder(profile),
	})
	return testEnv{svc: svc, db: db, clock: fake}
}

func items() []domain.CreateSaleItem {
	return []domain.CreateSaleItem{
		{Description: "Mangoes (box)", Quantity: decimal.NewFromInt(10), UnitPrice: decimal.RequireFromString("45.50")},
		{Description: "  ", Quantity: decimal.NewFromInt(99), UnitPrice: decimal.NewFromInt(99)},
		{Description: "Dates 1kg", Quantity: decimal.RequireFromString("2.5"), UnitPrice: decimal.NewFromInt(20)},
	}
}

func TestCreateSaleReservesSequentialNumbers(t *testing.T) {
	env := setup(t, nil)
	ctx := context.Background()

	first, err := env.svc.Create(ctx, domain.CreateSaleRequest{CustomerName: "Al Faisal & Co", Items: items()})
	require.NoError(t, err)
	env.clock.Advance(time.Minute)
	second, err := env.svc.Create(ctx, domain.CreateSaleRequest{CustomerName: "Green Grocer"})
	require.NoError(t, err)

	assert.Equal(t, "INV-0001", first.InvoiceNo)
	assert.Equal(t, "INV-0002", second.InvoiceNo)

	got, err := env.svc.GetByID(ctx, first.ID.String())
	require.NoError(t, err)
	require.Len(t, got.Items, 3)
	assert.Equal(t, 1, got.Items[0].Position)
	assert.Equal(t, "Dates 1kg", got.Items[2].Description)
	assert.True(t, decimal.RequireFromString("505").Equal(got.TotalAmount), got.TotalAmount.String())
}

func TestCreateSaleAppliesDefaultTerms(t *testing.T) {
	env := setup(t, nil)

	sale, err := env.svc.Create(context.Background(), domain.CreateSaleRequest{CustomerName: "Karim"})
	require.NoError(t, err)
	require.NotNil(t, sale.DueDate)
	assert.Equal(t, saleDay.AddDate(0, 0, 7), *sale.DueDate)
	assert.False(t, sale.Paid)
}

func TestCreatePaidSale(t *testing.T) {
	env := setup(t, nil)

	sale, err := env.svc.Create(context.Background(), domain.CreateSaleRequest{
		CustomerName:  "Karim",
		Paid:          true,
		PaymentMethod: domain.PaymentMethodOnline,
		Items:         items(),
	})
	require.NoError(t, err)
	assert.True(t, sale.Paid)
	assert.Nil(t, sale.DueDate)
	require.NotNil(t, sale.PaidAt)
	assert.Equal(t, saleDay, *sale.PaidAt)
	assert.True(t, sale.AmountReceived.Equal(sale.TotalAmount))
}

func TestCreateSaleValidation(t *testing.T) {
	env := setup(t, nil)
	ctx := context.Background()

	_, err := env.svc.Create(ctx, domain.CreateSaleRequest{})
	assert.ErrorIs(t, err, domain.ErrInvalidCustomerName)

	_, err = env.svc.Create(ctx, domain.CreateSaleRequest{
		CustomerName: "Karim",
		Items:        []domain.CreateSaleItem{{Description: "x", Quantity: decimal.NewFromInt(-1), UnitPrice: decimal.NewFromInt(1)}},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)

	_, err = env.svc.Create(ctx, domain.CreateSaleRequest{
		CustomerName: "Karim",
		Items:        []domain.CreateSaleItem{{Description: "x", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(-1)}},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidUnitPrice)

	_, err = env.svc.Create(ctx, domain.CreateSaleRequest{CustomerName: "Karim", Paid: true, PaymentMethod: "barter"})
	assert.ErrorIs(t, err, domain.ErrInvalidPaymentMethod)

	past := saleDay.AddDate(0, 0, -3)
	_, err = env.svc.Create(ctx, domain.CreateSaleRequest{CustomerName: "Karim", DueDate: &past})
	assert.ErrorIs(t, err, domain.ErrInvalidDueDate)
}

type mockReserver struct {
	mock.Mock
}

func (m *mockReserver) Reserve(ctx context.Context, tx *gorm.DB) (string, error) {
	args := m.Called(ctx, tx)
	return args.String(0), args.Error(1)
}

func TestCreateSaleRollsBackWhenReservationFails(t *testing.T) {
	reserver := &mockReserver{}
	reserver.On("Reserve", mock.Anything, mock.Anything).Return("", errors.New("counter unavailable"))
	env := setup(t, reserver)

	_, err := env.svc.Create(context.Background(), domain.CreateSaleRequest{CustomerName: "Karim", Items: items()})
	require.Error(t, err)

	var count int64
	require.NoError(t, env.db.Model(&domain.Sale{}).Count(&count).Error)
	assert.Zero(t, count)
	reserver.AssertExpectations(t)
}

func TestRecordPayment(t *testing.T) {
	env := setup(t, nil)
	ctx := context.Background()

	sale, err := env.svc.Create(ctx, domain.CreateSaleRequest{CustomerName: "Karim", Items: items()})
	require.NoError(t, err)

	paidAt := saleDay.AddDate(0, 0, 2)
	updated, err := env.svc.RecordPayment(ctx, domain.RecordPaymentRequest{
		SaleID: sale.ID.String(),
		Method: domain.PaymentMethodCheque,
		PaidAt: &paidAt,
	})
	require.NoError(t, err)
	assert.True(t, updated.Paid)
	require.NotNil(t, updated.PaymentMethod)
	assert.Equal(t, domain.PaymentMethodCheque, *updated.PaymentMethod)

	reloaded, err := env.svc.GetByID(ctx, sale.ID.String())
	require.NoError(t, err)
	assert.True(t, reloaded.Paid)
	require.NotNil(t, reloaded.PaidAt)
	assert.True(t, paidAt.Equal(*reloaded.PaidAt))
	assert.True(t, reloaded.AmountReceived.Equal(sale.TotalAmount))

	_, err = env.svc.RecordPayment(ctx, domain.RecordPaymentRequest{SaleID: sale.ID.String()})
	assert.ErrorIs(t, err, domain.ErrAlreadyPaid)

	_, err = env.svc.RecordPayment(ctx, domain.RecordPaymentRequest{SaleID: "1"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListAndListForCustomer(t *testing.T) {
	env := setup(t, nil)
	ctx := context.Background()

	for i, name := range []string{"Karim", "Green Grocer", "Karim"} {
		day := saleDay.AddDate(0, 0, i)
		_, err := env.svc.Create(ctx, domain.CreateSaleRequest{CustomerName: name, SaleDate: &day, Items: items()})
		require.NoError(t, err)
		env.clock.Advance(time.Minute)
	}

	all, err := env.svc.List(ctx, domain.ListSaleRequest{PageSize: 2})
	require.NoError(t, err)
	assert.Len(t, all.Sales, 2)
	assert.True(t, all.HasMore)
	assert.Equal(t, "INV-0003", all.Sales[0].InvoiceNo)

	unpaid := false
	karim, err := env.svc.List(ctx, domain.ListSaleRequest{CustomerName: "Karim", Paid: &unpaid})
	require.NoError(t, err)
	assert.Len(t, karim.Sales, 2)

	statement, err := env.svc.ListForCustomer(ctx, "Karim", nil, nil)
	require.NoError(t, err)
	require.Len(t, statement, 2)
	assert.Equal(t, "INV-0001", statement[0].InvoiceNo)
	assert.Equal(t, "INV-0003", statement[1].InvoiceNo)
	assert.Len(t, statement[0].Items, 3)

	from := saleDay.AddDate(0, 0, 1)
	ranged, err := env.svc.ListForCustomer(ctx, "Karim", &from, nil)
	require.NoError(t, err)
	require.Len(t, ranged, 1)
	assert.Equal(t, "INV-0003", ranged[0].InvoiceNo)
}
