package cart

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/floralane/flower-shop/internal/models"
	"github.com/floralane/flower-shop/internal/repo"
	"github.com/floralane/flower-shop/internal/service"
)

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&models.Product{}, &models.Cart{}, &models.CartItem{}))

	svc := &Service{
		Carts:   &repo.CartRepo{DB: db},
		Catalog: &repo.GormCatalog{DB: db},
	}
	return svc, db
}

func seedProduct(t *testing.T, db *gorm.DB, p models.Product) models.Product {
	t.Helper()
	require.NoError(t, db.Create(&p).Error)
	return p
}

func TestGetCreatesEmptyCart(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	cart, err := svc.Get(ctx, 7)
	require.NoError(t, err)
	require.Equal(t, uint(7), cart.UserID)
	require.Empty(t, cart.Items)
	require.Equal(t, 0.0, cart.TotalAmount)

	again, err := svc.Get(ctx, 7)
	require.NoError(t, err)
	require.Equal(t, cart.ID, again.ID)
}

func TestAddItemSnapshotsPrice(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	p := seedProduct(t, db, models.Product{Name: "Rose Bouquet", Description: "dozen red roses", Price: 450, InStock: true})

	cart, err := svc.AddItem(ctx, 1, p.ID, 2)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	require.Equal(t, 450.0, cart.Items[0].Price)
	require.Equal(t, "Rose Bouquet", cart.Items[0].Name)
	require.Equal(t, 900.0, cart.TotalAmount)
}

func TestAddItemUsesDiscountPrice(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	sale := 300.0
	p := seedProduct(t, db, models.Product{Name: "Tulip Mix", Description: "spring tulips", Price: 400, DiscountPrice: &sale, InStock: true})

	cart, err := svc.AddItem(ctx, 1, p.ID, 1)
	require.NoError(t, err)
	require.Equal(t, 300.0, cart.Items[0].Price)
}

func TestAddItemMergesQuantity(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	p := seedProduct(t, db, models.Product{Name: "Lily", Description: "white lily", Price: 120, InStock: true})

	_, err := svc.AddItem(ctx, 1, p.ID, 2)
	require.NoError(t, err)
	cart, err := svc.AddItem(ctx, 1, p.ID, 3)
	require.NoError(t, err)

	require.Len(t, cart.Items, 1)
	require.Equal(t, uint(5), cart.Items[0].Quantity)
	require.Equal(t, 600.0, cart.TotalAmount)
}

func TestReAddRefreshesPriceSnapshot(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	p := seedProduct(t, db, models.Product{Name: "Orchid", Description: "potted orchid", Price: 800, InStock: true})

	_, err := svc.AddItem(ctx, 1, p.ID, 1)
	require.NoError(t, err)

	require.NoError(t, db.Model(&models.Product{}).Where("id = ?", p.ID).Update("price", 650).Error)

	cart, err := svc.AddItem(ctx, 1, p.ID, 1)
	require.NoError(t, err)
	require.Equal(t, 650.0, cart.Items[0].Price)
	require.Equal(t, 1300.0, cart.TotalAmount)
}

func TestAddItemDefaultsQuantityToOne(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	p := seedProduct(t, db, models.Product{Name: "Fern", Description: "green fern", Price: 90, InStock: true})

	cart, err := svc.AddItem(ctx, 1, p.ID, 0)
	require.NoError(t, err)
	require.Equal(t, uint(1), cart.Items[0].Quantity)
}

func TestAddItemOutOfStock(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	p := seedProduct(t, db, models.Product{Name: "Peony", Description: "rare peony", Price: 500, InStock: false})

	_, err := svc.AddItem(ctx, 1, p.ID, 1)
	require.ErrorIs(t, err, service.ErrOutOfStock)
}

func TestAddItemUnknownProduct(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.AddItem(context.Background(), 1, 9999, 1)
	require.ErrorIs(t, err, service.ErrNotFound)
}

func TestUpdateItemQuantity(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	p := seedProduct(t, db, models.Product{Name: "Sunflower", Description: "tall sunflower", Price: 60, InStock: true})

	_, err := svc.AddItem(ctx, 1, p.ID, 1)
	require.NoError(t, err)

	cart, err := svc.UpdateItemQuantity(ctx, 1, p.ID, 4)
	require.NoError(t, err)
	require.Equal(t, uint(4), cart.Items[0].Quantity)
	require.Equal(t, 240.0, cart.TotalAmount)
}

func TestUpdateItemQuantityRejectsNonPositive(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	p := seedProduct(t, db, models.Product{Name: "Daisy", Description: "field daisy", Price: 30, InStock: true})
	_, err := svc.AddItem(ctx, 1, p.ID, 1)
	require.NoError(t, err)

	_, err = svc.UpdateItemQuantity(ctx, 1, p.ID, 0)
	require.ErrorIs(t, err, service.ErrInvalidArgument)
	_, err = svc.UpdateItemQuantity(ctx, 1, p.ID, -2)
	require.ErrorIs(t, err, service.ErrInvalidArgument)
}

func TestUpdateItemQuantityMissingLine(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	p := seedProduct(t, db, models.Product{Name: "Iris", Description: "blue iris", Price: 75, InStock: true})
	_, err := svc.AddItem(ctx, 1, p.ID, 1)
	require.NoError(t, err)

	_, err = svc.UpdateItemQuantity(ctx, 1, 424242, 2)
	require.ErrorIs(t, err, service.ErrNotFound)
}

func TestRemoveItemIdempotent(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	p := seedProduct(t, db, models.Product{Name: "Carnation", Description: "pink carnation", Price: 45, InStock: true})
	_, err := svc.AddItem(ctx, 1, p.ID, 2)
	require.NoError(t, err)

	cart, err := svc.RemoveItem(ctx, 1, p.ID)
	require.NoError(t, err)
	require.Empty(t, cart.Items)
	require.Equal(t, 0.0, cart.TotalAmount)

	cart, err = svc.RemoveItem(ctx, 1, p.ID)
	require.NoError(t, err)
	require.Empty(t, cart.Items)
}

func TestRemoveItemMissingCart(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.RemoveItem(context.Background(), 99, 1)
	require.ErrorIs(t, err, service.ErrNotFound)
}

func TestClear(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	p := seedProduct(t, db, models.Product{Name: "Rose", Description: "single rose", Price: 50, InStock: true})
	_, err := svc.AddItem(ctx, 1, p.ID, 3)
	require.NoError(t, err)

	require.NoError(t, svc.Clear(ctx, 1))

	cart, err := svc.Get(ctx, 1)
	require.NoError(t, err)
	require.Empty(t, cart.Items)
	require.Equal(t, 0.0, cart.TotalAmount)

	require.NoError(t, svc.Clear(ctx, 1))
	require.NoError(t, svc.Clear(ctx, 12345))
}
