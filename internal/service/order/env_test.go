package order

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/floralane/flower-shop/internal/config"
	"github.com/floralane/flower-shop/internal/delivery"
	"github.com/floralane/flower-shop/internal/models"
	"github.com/floralane/flower-shop/internal/payment"
	"github.com/floralane/flower-shop/internal/pricing"
	"github.com/floralane/flower-shop/internal/repo"
)

var testClock = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

type fakeGateway struct {
	intents     int
	refunds     []string
	refundErr   error
	intentState string
}

func (g *fakeGateway) CreateIntent(_ context.Context, order *models.Order) (*payment.Intent, error) {
	g.intents++
	return &payment.Intent{
		ID:           fmt.Sprintf("pi_test_%d", g.intents),
		ClientSecret: "cs_test",
		Status:       "requires_payment_method",
		Amount:       order.Total,
	}, nil
}

func (g *fakeGateway) Retrieve(_ context.Context, intentID string) (*payment.Intent, error) {
	return &payment.Intent{ID: intentID, Status: g.intentState}, nil
}

func (g *fakeGateway) Refund(_ context.Context, intentID string, amount float64, reason string) (*payment.Refund, error) {
	if g.refundErr != nil {
		return nil, g.refundErr
	}
	g.refunds = append(g.refunds, intentID)
	return &payment.Refund{ID: "re_test", Status: "succeeded", Amount: amount, IntentID: intentID}, nil
}

func (g *fakeGateway) VerifyWebhook(payload []byte, signature string) (*payment.WebhookEvent, error) {
	return nil, fmt.Errorf("not used in tests")
}

type fakeCourier struct {
	shipments int
	err       error
}

func (c *fakeCourier) CalculateRate(_ context.Context, _ models.Address, _ delivery.Package, serviceType string) (*delivery.Rate, error) {
	return &delivery.Rate{ServiceType: serviceType, Rate: 300, Currency: "usd"}, nil
}

func (c *fakeCourier) CreateShipment(_ context.Context, _ *models.Order) (*delivery.Shipment, error) {
	if c.err != nil {
		return nil, c.err
	}
	c.shipments++
	return &delivery.Shipment{
		ID:                fmt.Sprintf("shp_%d", c.shipments),
		TrackingNumber:    fmt.Sprintf("TRACK-%04d", c.shipments),
		Carrier:           "Flora Express",
		Status:            "created",
		EstimatedDelivery: testClock.Add(72 * time.Hour),
	}, nil
}

func (c *fakeCourier) Track(_ context.Context, _ string) ([]delivery.TrackingEvent, error) {
	return []delivery.TrackingEvent{{Status: "in_transit", Timestamp: testClock}}, nil
}

func (c *fakeCourier) Cancel(_ context.Context, _ string) error { return nil }

type fakeNotifier struct {
	mu        sync.Mutex
	confirmed []uint
	shipped   []uint
	delivered []uint
	changed   []models.OrderStatus
}

func (n *fakeNotifier) OrderConfirmed(_ context.Context, o *models.Order) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.confirmed = append(n.confirmed, o.ID)
}

func (n *fakeNotifier) OrderShipped(_ context.Context, o *models.Order, _ string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.shipped = append(n.shipped, o.ID)
}

func (n *fakeNotifier) OrderDelivered(_ context.Context, o *models.Order) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.delivered = append(n.delivered, o.ID)
}

func (n *fakeNotifier) StatusChanged(_ context.Context, _ *models.Order, s models.OrderStatus) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.changed = append(n.changed, s)
}

type testEnv struct {
	Svc      *Service
	DB       *gorm.DB
	Gateway  *fakeGateway
	Courier  *fakeCourier
	Notifier *fakeNotifier
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&models.User{}, &models.Product{}, &models.Cart{}, &models.CartItem{},
		&models.Order{}, &models.OrderItem{}, &models.InvoiceCounter{},
		&models.Coupon{}, &models.CouponUsage{},
	))

	gateway := &fakeGateway{}
	courier := &fakeCourier{}
	notifier := &fakeNotifier{}

	cfg := config.DefaultPricing()
	svc := &Service{
		Orders:  &repo.OrderRepo{DB: db},
		Users:   &repo.UserRepo{DB: db},
		Carts:   &repo.CartRepo{DB: db},
		Coupons: &repo.CouponRepo{DB: db},
		Catalog: &repo.GormCatalog{DB: db},
		Pricer:  pricing.NewEngine(cfg),
		Gateway: gateway,
		Courier: courier,
		Notify:  notifier,
		Cfg:     cfg,
		Now:     func() time.Time { return testClock },
	}
	return &testEnv{Svc: svc, DB: db, Gateway: gateway, Courier: courier, Notifier: notifier}
}

func (env *testEnv) seedUser(t *testing.T) *models.User {
	t.Helper()
	u := models.User{Name: "alice", Email: "alice@example.com", PasswordHash: "x", Role: "user"}
	require.NoError(t, env.DB.Create(&u).Error)
	return &u
}

func (env *testEnv) seedProduct(t *testing.T, p models.Product) *models.Product {
	t.Helper()
	require.NoError(t, env.DB.Create(&p).Error)
	return &p
}

func (env *testEnv) checkout(t *testing.T, userID uint, in CreateInput) *models.Order {
	t.Helper()
	order, err := env.Svc.Create(context.Background(), userID, in)
	require.NoError(t, err)
	return order
}

func basicInput(productID uint, qty uint) CreateInput {
	return CreateInput{
		Items:          []RequestedItem{{ProductID: productID, Quantity: qty}},
		PaymentMethod:  "card",
		DeliveryMethod: pricing.MethodStandard,
		ShippingAddress: models.Address{
			FirstName: "Alice", LastName: "Lee",
			Street: "12 Petal Rd", City: "Portland", State: "OR",
			PostalCode: "97201", Country: "US",
		},
	}
}
