package order

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
)

// fakeOrderRepository is an in-memory order.Repository
type fakeOrderRepository struct {
	mu     sync.Mutex
	orders map[uuid.UUID]*order.Order

	totalUpdates       int
	invoicePathUpdates int
}

func newFakeOrderRepository() *fakeOrderRepository {
	return &fakeOrderRepository{orders: make(map[uuid.UUID]*order.Order)}
}

func (r *fakeOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := *o
	return &copied, nil
}

func (r *fakeOrderRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]order.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]order.Order, 0, len(ids))
	for _, id := range ids {
		if o, ok := r.orders[id]; ok {
			result = append(result, *o)
		}
	}
	return result, nil
}

func (r *fakeOrderRepository) FindAll(ctx context.Context, filter shared.Filter) ([]order.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]order.Order, 0, len(r.orders))
	for _, o := range r.orders {
		result = append(result, *o)
	}
	return result, nil
}

func (r *fakeOrderRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.orders)), nil
}

func (r *fakeOrderRepository) Save(ctx context.Context, tx *gorm.DB, o *order.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *o
	r.orders[o.ID] = &copied
	return nil
}

func (r *fakeOrderRepository) UpdateTotal(ctx context.Context, tx *gorm.DB, o *order.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.totalUpdates++
	if stored, ok := r.orders[o.ID]; ok {
		stored.TotalPrice = o.TotalPrice
		stored.ChangeAmount = o.ChangeAmount
	}
	return nil
}

func (r *fakeOrderRepository) UpdateInvoicePath(ctx context.Context, id uuid.UUID, path *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.invoicePathUpdates++
	stored, ok := r.orders[id]
	if !ok {
		return shared.ErrNotFound
	}
	stored.InvoicePath = path
	return nil
}

func (r *fakeOrderRepository) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.orders[id]; !ok {
		return shared.ErrNotFound
	}
	delete(r.orders, id)
	return nil
}

// fakeProductRepository is an in-memory catalog.ProductRepository
type fakeProductRepository struct {
	mu       sync.Mutex
	products map[uuid.UUID]*catalog.Product
}

func newFakeProductRepository() *fakeProductRepository {
	return &fakeProductRepository{products: make(map[uuid.UUID]*catalog.Product)}
}

func (r *fakeProductRepository) add(p *catalog.Product) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.products[p.ID] = p
}

func (r *fakeProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := *p
	return &copied, nil
}

func (r *fakeProductRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]catalog.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]catalog.Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := r.products[id]; ok {
			result = append(result, *p)
		}
	}
	return result, nil
}

func (r *fakeProductRepository) FindAll(ctx context.Context, filter shared.Filter) ([]catalog.Product, error) {
	return nil, nil
}

func (r *fakeProductRepository) FindInStock(ctx context.Context, filter shared.Filter) ([]catalog.Product, error) {
	return nil, nil
}

func (r *fakeProductRepository) Save(ctx context.Context, product *catalog.Product) error {
	r.add(product)
	return nil
}

func (r *fakeProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.products, id)
	return nil
}

func (r *fakeProductRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	return int64(len(r.products)), nil
}

func (r *fakeProductRepository) DecrementStock(ctx context.Context, id uuid.UUID, quantity int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return shared.ErrNotFound
	}
	if p.Stock < quantity {
		return shared.ErrInsufficientStock
	}
	p.Stock -= quantity
	return nil
}

func (r *fakeProductRepository) WithTx(tx *gorm.DB) catalog.ProductRepository {
	return r
}

// fakeInvoiceManager records invoice lifecycle calls and signals attaches
type fakeInvoiceManager struct {
	mu       sync.Mutex
	orders   *fakeOrderRepository
	attached chan uuid.UUID
	failed   chan uuid.UUID
	deleted  []uuid.UUID
	fail     error
}

func newFakeInvoiceManager(orders *fakeOrderRepository) *fakeInvoiceManager {
	return &fakeInvoiceManager{
		orders:   orders,
		attached: make(chan uuid.UUID, 8),
		failed:   make(chan uuid.UUID, 8),
	}
}

func (m *fakeInvoiceManager) setFail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fail = err
}

func (m *fakeInvoiceManager) GenerateAndAttach(ctx context.Context, o *order.Order) error {
	m.mu.Lock()
	fail := m.fail
	m.mu.Unlock()
	if fail != nil {
		m.failed <- o.ID
		return fail
	}
	path := "invoices/invoice-" + o.ID.String() + ".pdf"
	o.SetInvoicePath(path)
	if err := m.orders.UpdateInvoicePath(ctx, o.ID, &path); err != nil {
		return err
	}
	m.attached <- o.ID
	return nil
}

func (m *fakeInvoiceManager) Delete(ctx context.Context, o *order.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, o.ID)
	return nil
}

func (m *fakeInvoiceManager) waitForAttach(t *testing.T) uuid.UUID {
	t.Helper()
	select {
	case id := <-m.attached:
		return id
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for invoice generation")
		return uuid.Nil
	}
}

func (m *fakeInvoiceManager) waitForFailure(t *testing.T) uuid.UUID {
	t.Helper()
	select {
	case id := <-m.failed:
		return id
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for failed invoice generation")
		return uuid.Nil
	}
}

type serviceFixture struct {
	service  *Service
	orders   *fakeOrderRepository
	products *fakeProductRepository
	invoices *fakeInvoiceManager
	sqlMock  sqlmock.Sqlmock
	conn     *sql.DB
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = mockDB.Close() })

	dialector := postgres.New(postgres.Config{Conn: mockDB, DriverName: "postgres"})
	gormDB, err := gorm.Open(dialector, &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)

	// Repositories are in-memory fakes, so transactions only begin and commit
	mock.MatchExpectationsInOrder(false)

	orders := newFakeOrderRepository()
	products := newFakeProductRepository()
	invoices := newFakeInvoiceManager(orders)

	return &serviceFixture{
		service:  NewService(gormDB, orders, products, invoices, nil),
		orders:   orders,
		products: products,
		invoices: invoices,
		sqlMock:  mock,
		conn:     mockDB,
	}
}

func (f *serviceFixture) expectTransactions(n int) {
	for i := 0; i < n; i++ {
		f.sqlMock.ExpectBegin()
		f.sqlMock.ExpectCommit()
	}
}

func (f *serviceFixture) addProduct(t *testing.T, name string, price int64, stock int) *catalog.Product {
	t.Helper()
	p, err := catalog.NewProduct(name, valueobject.NewMoneyIDR(decimal.NewFromInt(price)), stock)
	require.NoError(t, err)
	f.products.add(p)
	return p
}

func TestService_Create(t *testing.T) {
	t.Run("creates order, reduces stock and generates invoice", func(t *testing.T) {
		f := newServiceFixture(t)
		f.expectTransactions(1)
		kopi := f.addProduct(t, "Kopi Susu", 10000, 5)

		payment := decimal.NewFromInt(25000)
		resp, err := f.service.Create(context.Background(), CreateOrderRequest{
			Name:          "Budi",
			PaymentMethod: "cash",
			PaymentAmount: &payment,
			Items: []OrderItemRequest{
				{ProductID: &kopi.ID, Quantity: 2},
			},
		})

		require.NoError(t, err)
		assert.True(t, decimal.NewFromInt(20000).Equal(resp.TotalPrice))
		assert.True(t, decimal.NewFromInt(5000).Equal(resp.ChangeAmount))
		require.Len(t, resp.Items, 1)
		assert.Equal(t, "Kopi Susu", resp.Items[0].ProductName)

		// Stock reduced inside the commit
		stored, err := f.products.FindByID(context.Background(), kopi.ID)
		require.NoError(t, err)
		assert.Equal(t, 3, stored.Stock)

		// Invoice generated in the background
		assert.Equal(t, resp.ID, f.invoices.waitForAttach(t))
	})

	t.Run("rejects order exceeding stock", func(t *testing.T) {
		f := newServiceFixture(t)
		kopi := f.addProduct(t, "Kopi Susu", 10000, 1)

		_, err := f.service.Create(context.Background(), CreateOrderRequest{
			Name:          "Budi",
			PaymentMethod: "cash",
			Items: []OrderItemRequest{
				{ProductID: &kopi.ID, Quantity: 3},
			},
		})

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INSUFFICIENT_STOCK", domainErr.Code)

		// Nothing persisted, stock untouched
		stored, _ := f.products.FindByID(context.Background(), kopi.ID)
		assert.Equal(t, 1, stored.Stock)
	})

	t.Run("rejects unknown product", func(t *testing.T) {
		f := newServiceFixture(t)
		missing := uuid.New()

		_, err := f.service.Create(context.Background(), CreateOrderRequest{
			Name:          "Budi",
			PaymentMethod: "cash",
			Items:         []OrderItemRequest{{ProductID: &missing, Quantity: 1}},
		})

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "PRODUCT_NOT_FOUND", domainErr.Code)
	})

	t.Run("invoice failure does not fail the create", func(t *testing.T) {
		f := newServiceFixture(t)
		f.expectTransactions(1)
		f.invoices.setFail(assert.AnError)
		kopi := f.addProduct(t, "Kopi Susu", 10000, 5)

		resp, err := f.service.Create(context.Background(), CreateOrderRequest{
			Name:          "Budi",
			PaymentMethod: "transfer",
			Items:         []OrderItemRequest{{ProductID: &kopi.ID, Quantity: 1}},
		})

		require.NoError(t, err)
		assert.NotNil(t, resp)
	})

	t.Run("blank lines are kept without pricing", func(t *testing.T) {
		f := newServiceFixture(t)
		f.expectTransactions(1)

		resp, err := f.service.Create(context.Background(), CreateOrderRequest{
			Name:          "Budi",
			PaymentMethod: "cash",
			Items:         []OrderItemRequest{{ProductID: nil}},
		})

		require.NoError(t, err)
		require.Len(t, resp.Items, 1)
		assert.True(t, resp.TotalPrice.IsZero())
	})
}

func TestService_Update(t *testing.T) {
	create := func(t *testing.T, f *serviceFixture, p *catalog.Product, qty int) uuid.UUID {
		resp, err := f.service.Create(context.Background(), CreateOrderRequest{
			Name:          "Budi",
			PaymentMethod: "cash",
			Items:         []OrderItemRequest{{ProductID: &p.ID, Quantity: qty}},
		})
		require.NoError(t, err)
		f.invoices.waitForAttach(t)
		return resp.ID
	}

	t.Run("regenerates invoice when billed content changes", func(t *testing.T) {
		f := newServiceFixture(t)
		f.expectTransactions(2)
		kopi := f.addProduct(t, "Kopi Susu", 10000, 10)
		orderID := create(t, f, kopi, 2)

		newName := "Budi Santoso"
		_, err := f.service.Update(context.Background(), orderID, UpdateOrderRequest{Name: &newName})
		require.NoError(t, err)

		// Rename changes the invoice signature, so a regeneration runs
		assert.Equal(t, orderID, f.invoices.waitForAttach(t))
	})

	t.Run("update produces invoice when creation-time generation failed", func(t *testing.T) {
		f := newServiceFixture(t)
		f.expectTransactions(2)
		f.invoices.setFail(assert.AnError)
		kopi := f.addProduct(t, "Kopi Susu", 10000, 10)

		resp, err := f.service.Create(context.Background(), CreateOrderRequest{
			Name:          "Budi",
			PaymentMethod: "cash",
			Items:         []OrderItemRequest{{ProductID: &kopi.ID, Quantity: 2}},
		})
		require.NoError(t, err)
		f.invoices.waitForFailure(t)

		stored, err := f.service.GetByID(context.Background(), resp.ID)
		require.NoError(t, err)
		require.Nil(t, stored.InvoicePath)

		f.invoices.setFail(nil)
		newName := "Budi Santoso"
		_, err = f.service.Update(context.Background(), resp.ID, UpdateOrderRequest{Name: &newName})
		require.NoError(t, err)

		assert.Equal(t, resp.ID, f.invoices.waitForAttach(t))
		stored, err = f.service.GetByID(context.Background(), resp.ID)
		require.NoError(t, err)
		assert.NotNil(t, stored.InvoicePath)
	})

	t.Run("contact-only change leaves invoice alone", func(t *testing.T) {
		f := newServiceFixture(t)
		f.expectTransactions(2)
		kopi := f.addProduct(t, "Kopi Susu", 10000, 10)
		orderID := create(t, f, kopi, 2)

		email := "budi@example.com"
		_, err := f.service.Update(context.Background(), orderID, UpdateOrderRequest{Email: &email})
		require.NoError(t, err)

		select {
		case <-f.invoices.attached:
			t.Fatal("invoice should not be regenerated for a contact change")
		case <-time.After(100 * time.Millisecond):
		}
	})

	t.Run("replacing items does not reduce stock again", func(t *testing.T) {
		f := newServiceFixture(t)
		f.expectTransactions(2)
		kopi := f.addProduct(t, "Kopi Susu", 10000, 10)
		orderID := create(t, f, kopi, 2)

		_, err := f.service.Update(context.Background(), orderID, UpdateOrderRequest{
			Items: []OrderItemRequest{{ProductID: &kopi.ID, Quantity: 3}},
		})
		require.NoError(t, err)

		// Only the create decremented, from 10 to 8
		stored, _ := f.products.FindByID(context.Background(), kopi.ID)
		assert.Equal(t, 8, stored.Stock)

		resp, err := f.service.GetByID(context.Background(), orderID)
		require.NoError(t, err)
		assert.True(t, decimal.NewFromInt(30000).Equal(resp.TotalPrice))
	})

	t.Run("unknown order", func(t *testing.T) {
		f := newServiceFixture(t)

		_, err := f.service.Update(context.Background(), uuid.New(), UpdateOrderRequest{})
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "NOT_FOUND", domainErr.Code)
	})
}

func TestService_Delete(t *testing.T) {
	t.Run("removes order and its invoice artifact", func(t *testing.T) {
		f := newServiceFixture(t)
		f.expectTransactions(2)
		kopi := f.addProduct(t, "Kopi Susu", 10000, 10)

		resp, err := f.service.Create(context.Background(), CreateOrderRequest{
			Name:          "Budi",
			PaymentMethod: "cash",
			Items:         []OrderItemRequest{{ProductID: &kopi.ID, Quantity: 1}},
		})
		require.NoError(t, err)
		f.invoices.waitForAttach(t)

		require.NoError(t, f.service.Delete(context.Background(), resp.ID))

		_, err = f.service.GetByID(context.Background(), resp.ID)
		assert.Error(t, err)
		assert.Contains(t, f.invoices.deleted, resp.ID)
	})

	t.Run("unknown order", func(t *testing.T) {
		f := newServiceFixture(t)
		err := f.service.Delete(context.Background(), uuid.New())
		assert.Error(t, err)
	})
}

func TestService_Quote(t *testing.T) {
	t.Run("prices lines and computes change", func(t *testing.T) {
		f := newServiceFixture(t)
		kopi := f.addProduct(t, "Kopi Susu", 10000, 5)
		teh := f.addProduct(t, "Teh Manis", 5000, 5)

		payment := decimal.NewFromInt(50000)
		resp, err := f.service.Quote(context.Background(), QuoteRequest{
			Items: []OrderItemRequest{
				{ProductID: &kopi.ID, Quantity: 2},
				{ProductID: &teh.ID, Quantity: 3},
			},
			PaymentAmount: &payment,
		})

		require.NoError(t, err)
		require.Len(t, resp.Lines, 2)
		assert.True(t, decimal.NewFromInt(20000).Equal(resp.Lines[0].Total))
		assert.True(t, decimal.NewFromInt(15000).Equal(resp.Lines[1].Total))
		assert.True(t, decimal.NewFromInt(35000).Equal(resp.TotalPrice))
		assert.True(t, decimal.NewFromInt(15000).Equal(resp.ChangeAmount))
		assert.Empty(t, resp.Warnings)
	})

	t.Run("quantity defaults to one when product selected", func(t *testing.T) {
		f := newServiceFixture(t)
		kopi := f.addProduct(t, "Kopi Susu", 10000, 5)

		resp, err := f.service.Quote(context.Background(), QuoteRequest{
			Items: []OrderItemRequest{{ProductID: &kopi.ID}},
		})

		require.NoError(t, err)
		require.Len(t, resp.Lines, 1)
		assert.Equal(t, 1, resp.Lines[0].Quantity)
		assert.True(t, decimal.NewFromInt(10000).Equal(resp.TotalPrice))
	})

	t.Run("missing product contributes nothing", func(t *testing.T) {
		f := newServiceFixture(t)
		missing := uuid.New()

		resp, err := f.service.Quote(context.Background(), QuoteRequest{
			Items: []OrderItemRequest{{ProductID: &missing, Quantity: 2}},
		})

		require.NoError(t, err)
		require.Len(t, resp.Lines, 1)
		assert.True(t, resp.Lines[0].Total.IsZero())
		assert.True(t, resp.TotalPrice.IsZero())
		// The missing product surfaces as a clamp-to-zero warning
		require.Len(t, resp.Warnings, 1)
		assert.Equal(t, 0, resp.Warnings[0].Allowed)
	})

	t.Run("clamps quantity above stock with warning", func(t *testing.T) {
		f := newServiceFixture(t)
		kopi := f.addProduct(t, "Kopi Susu", 10000, 3)

		resp, err := f.service.Quote(context.Background(), QuoteRequest{
			Items: []OrderItemRequest{{ProductID: &kopi.ID, Quantity: 5}},
		})

		require.NoError(t, err)
		require.Len(t, resp.Warnings, 1)
		assert.Equal(t, kopi.ID, resp.Warnings[0].ProductID)
		assert.Equal(t, 5, resp.Warnings[0].Requested)
		assert.Equal(t, 3, resp.Warnings[0].Allowed)
	})

	t.Run("empty quote", func(t *testing.T) {
		f := newServiceFixture(t)

		resp, err := f.service.Quote(context.Background(), QuoteRequest{})
		require.NoError(t, err)
		assert.Empty(t, resp.Lines)
		assert.True(t, resp.TotalPrice.IsZero())
		assert.True(t, resp.ChangeAmount.IsZero())
	})
}
