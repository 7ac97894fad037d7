package service

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/tradebook/internal/clock"
	"github.com/smallbiznis/tradebook/internal/customer/domain"
	"github.com/smallbiznis/tradebook/internal/customer/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupService(t *testing.T) (domain.Service, *clock.FakeClock) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Customer{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	fake := clock.NewFakeClock(time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC))
	svc := New(Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: fake,
		Repo:  repository.Provide(),
	})
	return svc, fake
}

func TestCreateCustomer(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, domain.CreateCustomerRequest{
		Name:        "  Al Faisal & Co ",
		CompanyName: "Al Faisal Trading LLC",
		Phone:       "+971 4 555 0101",
		Email:       "accounts@alfaisal.example",
		Metadata:    map[string]any{"route": "north"},
	})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.Equal(t, "Al Faisal & Co", created.Name)

	got, err := svc.GetByID(ctx, domain.GetCustomerRequest{ID: created.ID.String()})
	require.NoError(t, err)
	assert.Equal(t, "Al Faisal Trading LLC", got.CompanyName)
	assert.Equal(t, "north", got.Metadata["route"])
}

func TestCreateCustomerValidation(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, domain.CreateCustomerRequest{Name: "  "})
	assert.ErrorIs(t, err, domain.ErrInvalidName)

	_, err = svc.Create(ctx, domain.CreateCustomerRequest{Name: "Karim", Email: "not-an-email"})
	assert.ErrorIs(t, err, domain.ErrInvalidEmail)

	_, err = svc.Create(ctx, domain.CreateCustomerRequest{Name: "Karim"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, domain.CreateCustomerRequest{Name: "Karim"})
	assert.ErrorIs(t, err, domain.ErrDuplicateName)
}

func TestGetByIDErrors(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	_, err := svc.GetByID(ctx, domain.GetCustomerRequest{ID: "abc"})
	assert.ErrorIs(t, err, domain.ErrInvalidID)

	_, err = svc.GetByID(ctx, domain.GetCustomerRequest{ID: "12345"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestFindByName(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, domain.CreateCustomerRequest{Name: "Green Grocer", Address: "12 Market Rd"})
	require.NoError(t, err)

	found, err := svc.FindByName(ctx, "Green Grocer")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "12 Market Rd", found.Address)

	missing, err := svc.FindByName(ctx, "Nobody")
	require.NoError(t, err)
	assert.Nil(t, missing)

	blank, err := svc.FindByName(ctx, " ")
	require.NoError(t, err)
	assert.Nil(t, blank)
}

func TestListCustomersPaginates(t *testing.T) {
	svc, fake := setupService(t)
	ctx := context.Background()

	for _, name := range []string{"Alpha", "Bravo", "Charlie"} {
		_, err := svc.Create(ctx, domain.CreateCustomerRequest{Name: name})
		require.NoError(t, err)
		fake.Advance(time.Minute)
	}

	first, err := svc.List(ctx, domain.ListCustomerRequest{PageSize: 2})
	require.NoError(t, err)
	require.Len(t, first.Customers, 2)
	assert.True(t, first.HasMore)
	assert.NotEmpty(t, first.NextPageToken)
	assert.Equal(t, "Charlie", first.Customers[0].Name)
	assert.Equal(t, "Bravo", first.Customers[1].Name)

	second, err := svc.List(ctx, domain.ListCustomerRequest{PageSize: 2, PageToken: first.NextPageToken})
	require.NoError(t, err)
	require.Len(t, second.Customers, 1)
	assert.False(t, second.HasMore)
	assert.Equal(t, "Alpha", second.Customers[0].Name)
}
