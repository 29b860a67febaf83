package invoice

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
	"github.com/storefront/backend/internal/infrastructure/printing"
	"github.com/storefront/backend/internal/infrastructure/storage"
)

// fakeRenderer returns a canned PDF payload and records render requests
type fakeRenderer struct {
	mu       sync.Mutex
	requests []*printing.RenderRequest
	fail     error
}

func (r *fakeRenderer) Render(ctx context.Context, req *printing.RenderRequest) (*printing.RenderResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail != nil {
		return nil, r.fail
	}
	r.requests = append(r.requests, req)
	return &printing.RenderResult{PDFData: []byte("%PDF-1.7 fake"), RenderDuration: time.Millisecond}, nil
}

func (r *fakeRenderer) Close() error { return nil }

func (r *fakeRenderer) renderCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.requests)
}

// fakeOrderStore implements order.Repository over a map; only the methods the
// invoice service touches do real work.
type fakeOrderStore struct {
	mu     sync.Mutex
	orders map[uuid.UUID]*order.Order

	pathUpdates int
	updateErr   error
}

func newFakeOrderStore() *fakeOrderStore {
	return &fakeOrderStore{orders: make(map[uuid.UUID]*order.Order)}
}

func (r *fakeOrderStore) add(o *order.Order) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders[o.ID] = o
}

func (r *fakeOrderStore) FindByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := *o
	return &copied, nil
}

func (r *fakeOrderStore) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]order.Order, error) {
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

func (r *fakeOrderStore) FindAll(ctx context.Context, filter shared.Filter) ([]order.Order, error) {
	return nil, nil
}

func (r *fakeOrderStore) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	return 0, nil
}

func (r *fakeOrderStore) Save(ctx context.Context, tx *gorm.DB, o *order.Order) error {
	r.add(o)
	return nil
}

func (r *fakeOrderStore) UpdateTotal(ctx context.Context, tx *gorm.DB, o *order.Order) error {
	return nil
}

func (r *fakeOrderStore) UpdateInvoicePath(ctx context.Context, id uuid.UUID, path *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateErr != nil {
		return r.updateErr
	}
	r.pathUpdates++
	o, ok := r.orders[id]
	if !ok {
		return shared.ErrNotFound
	}
	o.InvoicePath = path
	return nil
}

func (r *fakeOrderStore) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.orders, id)
	return nil
}

func testCompany() printing.CompanyInfo {
	return printing.CompanyInfo{
		Name:    "Toko Sumber Rejeki",
		Address: "Jl. Melati No. 1, Jakarta",
		Phone:   "+62 812 0000 0000",
		Email:   "kontak@sumberrejeki.example",
	}
}

func buildOrder(t *testing.T) *order.Order {
	t.Helper()
	o, err := order.NewOrder("Siti Rahma", order.PaymentMethodCash)
	require.NoError(t, err)

	product, err := catalog.NewProduct("Keripik Singkong", valueobject.NewMoneyIDR(decimal.NewFromInt(15000)), 10)
	require.NoError(t, err)

	line := o.AddLine()
	require.NoError(t, o.SelectLineProduct(line.ID, product))
	require.NoError(t, o.SetLineQuantity(line.ID, 2))
	return o
}

func newInvoiceFixture() (*Service, *fakeOrderStore, *fakeRenderer, *storage.MemoryBlobStore) {
	orders := newFakeOrderStore()
	renderer := &fakeRenderer{}
	blobs := storage.NewMemoryBlobStore()
	svc := NewService(orders, renderer, blobs, testCompany(), 30*time.Second, nil)
	return svc, orders, renderer, blobs
}

func TestService_Generate(t *testing.T) {
	t.Run("renders and stores the PDF under a dated path", func(t *testing.T) {
		svc, orders, renderer, blobs := newInvoiceFixture()
		o := buildOrder(t)
		orders.add(o)

		path, err := svc.Generate(context.Background(), o)
		require.NoError(t, err)

		expected := fmt.Sprintf("invoices/invoice-%s-%s.pdf", o.ID, time.Now().Format("2006-01-02"))
		assert.Equal(t, expected, path)

		stored, err := blobs.Get(context.Background(), path)
		require.NoError(t, err)
		assert.Equal(t, []byte("%PDF-1.7 fake"), stored)

		require.Equal(t, 1, renderer.renderCount())
		req := renderer.requests[0]
		assert.Contains(t, req.HTML, "Siti Rahma")
		assert.Contains(t, req.HTML, "Keripik Singkong")
		assert.Contains(t, req.Title, o.InvoiceNumber())
	})

	t.Run("status follows the tendered amount", func(t *testing.T) {
		svc, orders, renderer, _ := newInvoiceFixture()
		o := buildOrder(t)
		orders.add(o)

		_, err := svc.Generate(context.Background(), o)
		require.NoError(t, err)
		assert.Contains(t, renderer.requests[0].HTML, ">Unpaid<")

		payment := decimal.NewFromInt(50000)
		require.NoError(t, o.SetPaymentAmount(&payment))

		_, err = svc.Generate(context.Background(), o)
		require.NoError(t, err)
		assert.Contains(t, renderer.requests[1].HTML, ">Paid<")
	})

	t.Run("render failure propagates without storing", func(t *testing.T) {
		svc, _, renderer, blobs := newInvoiceFixture()
		renderer.fail = errors.New("chrome unavailable")
		o := buildOrder(t)

		_, err := svc.Generate(context.Background(), o)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to render invoice")

		exists, _ := blobs.Exists(context.Background(), svc.PathFor(o))
		assert.False(t, exists)
	})

	t.Run("escapes markup in customer fields", func(t *testing.T) {
		svc, _, renderer, _ := newInvoiceFixture()
		o, err := order.NewOrder("<script>alert(1)</script>", order.PaymentMethodTransfer)
		require.NoError(t, err)

		_, err = svc.Generate(context.Background(), o)
		require.NoError(t, err)

		require.Equal(t, 1, renderer.renderCount())
		assert.NotContains(t, renderer.requests[0].HTML, "<script>")
	})
}

func TestService_GenerateAndAttach(t *testing.T) {
	t.Run("records the path on the order", func(t *testing.T) {
		svc, orders, _, _ := newInvoiceFixture()
		o := buildOrder(t)
		orders.add(o)

		require.NoError(t, svc.GenerateAndAttach(context.Background(), o))

		require.NotNil(t, o.InvoicePath)
		assert.True(t, strings.HasPrefix(*o.InvoicePath, "invoices/invoice-"))
		assert.Equal(t, 1, orders.pathUpdates)

		stored, err := orders.FindByID(context.Background(), o.ID)
		require.NoError(t, err)
		require.NotNil(t, stored.InvoicePath)
		assert.Equal(t, *o.InvoicePath, *stored.InvoicePath)
	})

	t.Run("removes the superseded artifact", func(t *testing.T) {
		svc, orders, _, blobs := newInvoiceFixture()
		o := buildOrder(t)
		orders.add(o)

		previous := "invoices/invoice-" + o.ID.String() + "-2026-01-01.pdf"
		require.NoError(t, blobs.Put(context.Background(), previous, []byte("old"), "application/pdf"))
		o.SetInvoicePath(previous)

		require.NoError(t, svc.GenerateAndAttach(context.Background(), o))

		exists, err := blobs.Exists(context.Background(), previous)
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("path persistence failure surfaces", func(t *testing.T) {
		svc, orders, _, _ := newInvoiceFixture()
		o := buildOrder(t)
		orders.add(o)
		orders.updateErr = errors.New("connection reset")

		err := svc.GenerateAndAttach(context.Background(), o)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to record invoice path")
	})
}

func TestService_Download(t *testing.T) {
	t.Run("serves an existing invoice", func(t *testing.T) {
		svc, orders, renderer, _ := newInvoiceFixture()
		o := buildOrder(t)
		orders.add(o)
		require.NoError(t, svc.GenerateAndAttach(context.Background(), o))
		before := renderer.renderCount()

		filename, data, err := svc.Download(context.Background(), o.ID)
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("Invoice-%s.pdf", o.ID), filename)
		assert.Equal(t, []byte("%PDF-1.7 fake"), data)
		assert.Equal(t, before, renderer.renderCount(), "no regeneration expected")
	})

	t.Run("generates on demand when the order has no invoice", func(t *testing.T) {
		svc, orders, renderer, _ := newInvoiceFixture()
		o := buildOrder(t)
		orders.add(o)

		filename, data, err := svc.Download(context.Background(), o.ID)
		require.NoError(t, err)
		assert.NotEmpty(t, filename)
		assert.NotEmpty(t, data)
		assert.Equal(t, 1, renderer.renderCount())

		stored, err := orders.FindByID(context.Background(), o.ID)
		require.NoError(t, err)
		assert.NotNil(t, stored.InvoicePath)
	})

	t.Run("regenerates when the referenced artifact is gone", func(t *testing.T) {
		svc, orders, _, blobs := newInvoiceFixture()
		o := buildOrder(t)
		orders.add(o)
		require.NoError(t, svc.GenerateAndAttach(context.Background(), o))
		require.NoError(t, blobs.Delete(context.Background(), *o.InvoicePath))

		_, data, err := svc.Download(context.Background(), o.ID)
		require.NoError(t, err)
		assert.NotEmpty(t, data)
	})

	t.Run("unknown order", func(t *testing.T) {
		svc, _, _, _ := newInvoiceFixture()

		_, _, err := svc.Download(context.Background(), uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestService_Delete(t *testing.T) {
	t.Run("removes the stored artifact", func(t *testing.T) {
		svc, orders, _, blobs := newInvoiceFixture()
		o := buildOrder(t)
		orders.add(o)
		require.NoError(t, svc.GenerateAndAttach(context.Background(), o))
		path := *o.InvoicePath

		require.NoError(t, svc.Delete(context.Background(), o))

		exists, _ := blobs.Exists(context.Background(), path)
		assert.False(t, exists)
	})

	t.Run("no-op without an invoice reference", func(t *testing.T) {
		svc, _, _, _ := newInvoiceFixture()
		o := buildOrder(t)

		assert.NoError(t, svc.Delete(context.Background(), o))
	})
}

func TestService_BulkGenerate(t *testing.T) {
	t.Run("skips orders with a live invoice", func(t *testing.T) {
		svc, orders, _, _ := newInvoiceFixture()

		withInvoice := buildOrder(t)
		orders.add(withInvoice)
		require.NoError(t, svc.GenerateAndAttach(context.Background(), withInvoice))

		without := buildOrder(t)
		orders.add(without)

		generated, err := svc.BulkGenerate(context.Background(), []uuid.UUID{withInvoice.ID, without.ID})
		require.NoError(t, err)
		assert.Equal(t, 1, generated)
	})

	t.Run("a failing order does not stop the run", func(t *testing.T) {
		svc, orders, renderer, _ := newInvoiceFixture()

		first := buildOrder(t)
		second := buildOrder(t)
		orders.add(first)
		orders.add(second)

		// Every render fails, so nothing is generated but no error surfaces
		renderer.fail = errors.New("chrome unavailable")

		generated, err := svc.BulkGenerate(context.Background(), []uuid.UUID{first.ID, second.ID})
		require.NoError(t, err)
		assert.Equal(t, 0, generated)
	})

	t.Run("unknown ids are ignored", func(t *testing.T) {
		svc, orders, _, _ := newInvoiceFixture()
		o := buildOrder(t)
		orders.add(o)

		generated, err := svc.BulkGenerate(context.Background(), []uuid.UUID{o.ID, uuid.New()})
		require.NoError(t, err)
		assert.Equal(t, 1, generated)
	})
}

func TestService_HasLiveInvoice(t *testing.T) {
	svc, orders, _, blobs := newInvoiceFixture()
	o := buildOrder(t)
	orders.add(o)

	live, err := svc.HasLiveInvoice(context.Background(), o)
	require.NoError(t, err)
	assert.False(t, live, "no reference yet")

	require.NoError(t, svc.GenerateAndAttach(context.Background(), o))
	live, err = svc.HasLiveInvoice(context.Background(), o)
	require.NoError(t, err)
	assert.True(t, live)

	require.NoError(t, blobs.Delete(context.Background(), *o.InvoicePath))
	live, err = svc.HasLiveInvoice(context.Background(), o)
	require.NoError(t, err)
	assert.False(t, live, "reference to a missing artifact is not live")
}
