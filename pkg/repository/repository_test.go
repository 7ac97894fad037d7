package repository

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/tradebook/pkg/db/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type widget struct {
	ID    int64  `gorm:"primaryKey"`
	Name  string `gorm:"not null"`
	Group string
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&widget{}))
	return db
}

func TestStoreFindOneReturnsNilWhenMissing(t *testing.T) {
	store := ProvideStore[widget](newTestDB(t))

	got, err := store.FindOne(context.Background(), &widget{ID: 42})
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestStoreFindWithOptions(t *testing.T) {
	ctx := context.Background()
	store := ProvideStore[widget](newTestDB(t))

	require.NoError(t, store.BatchCreate(ctx, []*widget{
		{ID: 1, Name: "apples", Group: "fruit"},
		{ID: 2, Name: "bananas", Group: "fruit"},
		{ID: 3, Name: "carrots", Group: "veg"},
	}))

	got, err := store.Find(ctx, &widget{Group: "fruit"}, option.WithSortBy("id", "desc"), option.WithLimit(1))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "bananas", got[0].Name)

	count, err := store.Count(ctx, &widget{Group: "fruit"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestStoreUpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	store := ProvideStore[widget](newTestDB(t))
	require.NoError(t, store.Create(ctx, &widget{ID: 7, Name: "figs"}))

	require.NoError(t, store.Update(ctx, "7", map[string]any{"name": "dates"}))
	got, err := store.FindOne(ctx, &widget{ID: 7})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "dates", got.Name)

	require.NoError(t, store.Delete(ctx, "7"))
	got, err = store.FindOne(ctx, &widget{ID: 7})
	require.NoError(t, err)
	assert.Nil(t, got)
}
