package order

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
)

func newTestProduct(t *testing.T, name string, price int64, stock int) *catalog.Product {
	t.Helper()
	product, err := catalog.NewProduct(name, valueobject.NewMoneyIDR(decimal.NewFromInt(price)), stock)
	require.NoError(t, err)
	return product
}

func TestNewOrder(t *testing.T) {
	t.Run("valid order", func(t *testing.T) {
		o, err := NewOrder("Budi Santoso", PaymentMethodCash)

		require.NoError(t, err)
		assert.Equal(t, "Budi Santoso", o.Name)
		assert.Equal(t, PaymentMethodCash, o.PaymentMethod)
		assert.True(t, o.TotalPrice.IsZero())
		assert.True(t, o.ChangeAmount.IsZero())
		assert.Empty(t, o.Items)
		assert.NotEqual(t, uuid.Nil, o.ID)
	})

	t.Run("empty name rejected", func(t *testing.T) {
		_, err := NewOrder("   ", PaymentMethodCash)

		require.Error(t, err)
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INVALID_NAME", domainErr.Code)
	})

	t.Run("unknown payment method rejected", func(t *testing.T) {
		_, err := NewOrder("Budi", PaymentMethod("crypto"))

		require.Error(t, err)
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INVALID_PAYMENT_METHOD", domainErr.Code)
	})
}

func TestOrder_SelectLineProduct(t *testing.T) {
	o, err := NewOrder("Budi", PaymentMethodCash)
	require.NoError(t, err)

	product := newTestProduct(t, "Kopi Susu", 10000, 5)
	item := o.AddLine()

	require.NoError(t, o.SelectLineProduct(item.ID, product))

	t.Run("defaults quantity to one and snapshots price", func(t *testing.T) {
		line := o.GetItem(item.ID)
		require.NotNil(t, line)
		assert.Equal(t, 1, line.Quantity)
		assert.Equal(t, "Kopi Susu", line.ProductName)
		assert.True(t, line.UnitPrice.Equal(decimal.NewFromInt(10000)))
		assert.True(t, o.TotalPrice.Equal(decimal.NewFromInt(10000)))
	})

	t.Run("snapshot does not follow later price changes", func(t *testing.T) {
		require.NoError(t, product.SetPrice(valueobject.NewMoneyIDR(decimal.NewFromInt(99000))))
		o.Recalculate()

		line := o.GetItem(item.ID)
		assert.True(t, line.UnitPrice.Equal(decimal.NewFromInt(10000)))
		assert.True(t, o.TotalPrice.Equal(decimal.NewFromInt(10000)))
	})

	t.Run("unknown line rejected", func(t *testing.T) {
		err := o.SelectLineProduct(uuid.New(), product)

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "ITEM_NOT_FOUND", domainErr.Code)
	})
}

func TestOrder_ClearLineProduct(t *testing.T) {
	o, err := NewOrder("Budi", PaymentMethodCash)
	require.NoError(t, err)

	product := newTestProduct(t, "Kopi Susu", 10000, 5)
	item := o.AddLine()
	require.NoError(t, o.SelectLineProduct(item.ID, product))
	require.NoError(t, o.SetLineQuantity(item.ID, 3))

	require.NoError(t, o.ClearLineProduct(item.ID))

	line := o.GetItem(item.ID)
	assert.Nil(t, line.ProductID)
	assert.Empty(t, line.ProductName)
	assert.Zero(t, line.Quantity)
	assert.True(t, line.UnitPrice.IsZero())
	assert.True(t, line.TotalPrice.IsZero())
	assert.True(t, o.TotalPrice.IsZero())
}

func TestOrder_SetLineQuantity(t *testing.T) {
	o, err := NewOrder("Budi", PaymentMethodCash)
	require.NoError(t, err)

	product := newTestProduct(t, "Kopi Susu", 10000, 5)
	item := o.AddLine()

	t.Run("requires a selected product", func(t *testing.T) {
		err := o.SetLineQuantity(item.ID, 2)

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "NO_PRODUCT", domainErr.Code)
	})

	require.NoError(t, o.SelectLineProduct(item.ID, product))

	t.Run("recomputes line and order totals", func(t *testing.T) {
		require.NoError(t, o.SetLineQuantity(item.ID, 4))

		line := o.GetItem(item.ID)
		assert.True(t, line.TotalPrice.Equal(decimal.NewFromInt(40000)))
		assert.True(t, o.TotalPrice.Equal(decimal.NewFromInt(40000)))
	})

	t.Run("rejects quantities below one", func(t *testing.T) {
		err := o.SetLineQuantity(item.ID, 0)

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INVALID_QUANTITY", domainErr.Code)
	})
}

func TestOrder_CloneLine(t *testing.T) {
	o, err := NewOrder("Budi", PaymentMethodCash)
	require.NoError(t, err)

	product := newTestProduct(t, "Kopi Susu", 10000, 5)
	item := o.AddLine()
	require.NoError(t, o.SelectLineProduct(item.ID, product))
	require.NoError(t, o.SetLineQuantity(item.ID, 2))

	copied, err := o.CloneLine(item.ID)
	require.NoError(t, err)

	assert.NotEqual(t, item.ID, copied.ID)
	assert.Equal(t, item.ProductID, copied.ProductID)
	assert.Equal(t, 2, copied.Quantity)
	assert.Equal(t, 2, o.ItemCount())
	assert.True(t, o.TotalPrice.Equal(decimal.NewFromInt(40000)))
}

func TestOrder_RemoveLine(t *testing.T) {
	o, err := NewOrder("Budi", PaymentMethodCash)
	require.NoError(t, err)

	product := newTestProduct(t, "Kopi Susu", 10000, 5)
	first := o.AddLine()
	require.NoError(t, o.SelectLineProduct(first.ID, product))
	firstID := first.ID

	second := o.AddLine()
	require.NoError(t, o.SelectLineProduct(second.ID, product))

	require.NoError(t, o.RemoveLine(firstID))

	assert.Equal(t, 1, o.ItemCount())
	assert.True(t, o.TotalPrice.Equal(decimal.NewFromInt(10000)))

	err = o.RemoveLine(firstID)
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "ITEM_NOT_FOUND", domainErr.Code)
}

func TestOrder_SetPaymentAmount(t *testing.T) {
	o, err := NewOrder("Budi", PaymentMethodCash)
	require.NoError(t, err)

	coffee := newTestProduct(t, "Kopi Susu", 10000, 5)
	tea := newTestProduct(t, "Teh Manis", 5000, 5)

	line := o.AddLine()
	require.NoError(t, o.SelectLineProduct(line.ID, coffee))
	require.NoError(t, o.SetLineQuantity(line.ID, 2))

	empty := o.AddLine()
	require.NoError(t, o.SelectLineProduct(empty.ID, tea))
	require.NoError(t, o.ClearLineProduct(empty.ID))

	require.True(t, o.TotalPrice.Equal(decimal.NewFromInt(20000)))

	t.Run("computes change when overpaid", func(t *testing.T) {
		payment := decimal.NewFromInt(25000)
		require.NoError(t, o.SetPaymentAmount(&payment))

		assert.True(t, o.ChangeAmount.Equal(decimal.NewFromInt(5000)))
		assert.True(t, o.IsPaidInFull())
	})

	t.Run("no change when underpaid", func(t *testing.T) {
		payment := decimal.NewFromInt(15000)
		require.NoError(t, o.SetPaymentAmount(&payment))

		assert.True(t, o.ChangeAmount.IsZero())
		assert.False(t, o.IsPaidInFull())
	})

	t.Run("cleared payment resets change", func(t *testing.T) {
		require.NoError(t, o.SetPaymentAmount(nil))

		assert.Nil(t, o.PaymentAmount)
		assert.True(t, o.ChangeAmount.IsZero())
	})

	t.Run("negative payment rejected", func(t *testing.T) {
		payment := decimal.NewFromInt(-1)
		err := o.SetPaymentAmount(&payment)

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INVALID_PAYMENT", domainErr.Code)
	})
}

func TestOrder_InvoiceNumber(t *testing.T) {
	o, err := NewOrder("Budi", PaymentMethodCash)
	require.NoError(t, err)

	o.Number = 42
	assert.Equal(t, "000042", o.InvoiceNumber())

	o.Number = 1234567
	assert.Equal(t, "1234567", o.InvoiceNumber())
}

func TestOrder_InvoiceSignature(t *testing.T) {
	o, err := NewOrder("Budi", PaymentMethodCash)
	require.NoError(t, err)

	product := newTestProduct(t, "Kopi Susu", 10000, 5)
	item := o.AddLine()
	require.NoError(t, o.SelectLineProduct(item.ID, product))

	baseline := o.InvoiceSignature()

	t.Run("stable across non-invoice edits", func(t *testing.T) {
		o.SetContact("budi@example.com", "0812", "leave at door")
		payment := decimal.NewFromInt(50000)
		require.NoError(t, o.SetPaymentAmount(&payment))

		assert.Equal(t, baseline, o.InvoiceSignature())
	})

	t.Run("changes when items change", func(t *testing.T) {
		require.NoError(t, o.SetLineQuantity(item.ID, 3))

		assert.NotEqual(t, baseline, o.InvoiceSignature())
	})

	t.Run("changes when customer renamed", func(t *testing.T) {
		before := o.InvoiceSignature()
		require.NoError(t, o.Rename("Siti"))

		assert.NotEqual(t, before, o.InvoiceSignature())
	})
}

func TestOrder_InvoicePath(t *testing.T) {
	o, err := NewOrder("Budi", PaymentMethodCash)
	require.NoError(t, err)

	assert.False(t, o.HasInvoiceRef())

	o.SetInvoicePath("invoices/invoice-" + o.ID.String() + "-2026-08-31.pdf")
	assert.True(t, o.HasInvoiceRef())

	o.ClearInvoicePath()
	assert.False(t, o.HasInvoiceRef())
	assert.Nil(t, o.InvoicePath)
}
