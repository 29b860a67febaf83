package order

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
)

// Order represents a customer order aggregate root. It exclusively owns its
// line items: deleting an order deletes its items. TotalPrice and ChangeAmount
// are derived values, recomputed from the item set after every mutation.
type Order struct {
	shared.BaseEntity
	Number        int64           `gorm:"autoIncrement;uniqueIndex"` // Sequential number used for invoice numbering
	Name          string          `gorm:"type:varchar(200);not null"`
	Email         string          `gorm:"type:varchar(200)"`
	Phone         string          `gorm:"type:varchar(30)"`
	Notes         string          `gorm:"type:text"`
	PaymentMethod PaymentMethod   `gorm:"type:varchar(20);not null"`
	TotalPrice    decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	PaymentAmount *decimal.Decimal `gorm:"type:decimal(18,2)"`
	ChangeAmount  decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	InvoicePath   *string         `gorm:"type:varchar(500)"`
	Items         []OrderItem     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (Order) TableName() string {
	return "orders"
}

// NewOrder creates a new order for the given customer
func NewOrder(name string, paymentMethod PaymentMethod) (*Order, error) {
	if strings.TrimSpace(name) == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Customer name cannot be empty")
	}
	if !paymentMethod.IsValid() {
		return nil, shared.NewDomainError("INVALID_PAYMENT_METHOD", "Unknown payment method: "+string(paymentMethod))
	}

	return &Order{
		BaseEntity:    shared.NewBaseEntity(),
		Name:          strings.TrimSpace(name),
		PaymentMethod: paymentMethod,
		TotalPrice:    decimal.Zero,
		ChangeAmount:  decimal.Zero,
		Items:         make([]OrderItem, 0),
	}, nil
}

// SetContact updates the customer contact fields
func (o *Order) SetContact(email, phone, notes string) {
	o.Email = email
	o.Phone = phone
	o.Notes = notes
	o.UpdatedAt = time.Now()
}

// Rename updates the customer name
func (o *Order) Rename(name string) error {
	if strings.TrimSpace(name) == "" {
		return shared.NewDomainError("INVALID_NAME", "Customer name cannot be empty")
	}

	o.Name = strings.TrimSpace(name)
	o.UpdatedAt = time.Now()

	return nil
}

// AddLine appends an empty line item to the order and returns it
func (o *Order) AddLine() *OrderItem {
	item := newOrderItem(o.ID)
	o.Items = append(o.Items, *item)
	o.Recalculate()
	o.UpdatedAt = time.Now()
	return &o.Items[len(o.Items)-1]
}

// CloneLine duplicates an existing line under a fresh identity
func (o *Order) CloneLine(itemID uuid.UUID) (*OrderItem, error) {
	source := o.GetItem(itemID)
	if source == nil {
		return nil, shared.NewDomainError("ITEM_NOT_FOUND", "Order item not found")
	}

	copied := source.clone()
	o.Items = append(o.Items, *copied)
	o.Recalculate()
	o.UpdatedAt = time.Now()

	return &o.Items[len(o.Items)-1], nil
}

// RemoveLine removes a line item from the order
func (o *Order) RemoveLine(itemID uuid.UUID) error {
	for idx, item := range o.Items {
		if item.ID == itemID {
			o.Items = append(o.Items[:idx], o.Items[idx+1:]...)
			o.Recalculate()
			o.UpdatedAt = time.Now()
			return nil
		}
	}

	return shared.NewDomainError("ITEM_NOT_FOUND", "Order item not found")
}

// ClearLines removes every line item from the order
func (o *Order) ClearLines() {
	o.Items = o.Items[:0]
	o.Recalculate()
	o.UpdatedAt = time.Now()
}

// SelectLineProduct assigns a product to a line, snapshotting its price and
// defaulting quantity to 1
func (o *Order) SelectLineProduct(itemID uuid.UUID, product *catalog.Product) error {
	item := o.GetItem(itemID)
	if item == nil {
		return shared.NewDomainError("ITEM_NOT_FOUND", "Order item not found")
	}

	if err := item.SelectProduct(product); err != nil {
		return err
	}
	o.Recalculate()
	o.UpdatedAt = time.Now()

	return nil
}

// ClearLineProduct clears the product selection on a line, resetting its
// quantity, unit price and total to zero
func (o *Order) ClearLineProduct(itemID uuid.UUID) error {
	item := o.GetItem(itemID)
	if item == nil {
		return shared.NewDomainError("ITEM_NOT_FOUND", "Order item not found")
	}

	item.ClearProduct()
	o.Recalculate()
	o.UpdatedAt = time.Now()

	return nil
}

// SetLineQuantity updates a line's quantity
func (o *Order) SetLineQuantity(itemID uuid.UUID, quantity int) error {
	item := o.GetItem(itemID)
	if item == nil {
		return shared.NewDomainError("ITEM_NOT_FOUND", "Order item not found")
	}

	if err := item.SetQuantity(quantity); err != nil {
		return err
	}
	o.Recalculate()
	o.UpdatedAt = time.Now()

	return nil
}

// SetPaymentMethod updates how the order was paid
func (o *Order) SetPaymentMethod(method PaymentMethod) error {
	if !method.IsValid() {
		return shared.NewDomainError("INVALID_PAYMENT_METHOD", "Unknown payment method: "+string(method))
	}

	o.PaymentMethod = method
	o.UpdatedAt = time.Now()

	return nil
}

// SetPaymentAmount records the amount tendered and recomputes change
func (o *Order) SetPaymentAmount(amount *decimal.Decimal) error {
	if amount != nil && amount.IsNegative() {
		return shared.NewDomainError("INVALID_PAYMENT", "Payment amount cannot be negative")
	}

	o.PaymentAmount = amount
	o.Recalculate()
	o.UpdatedAt = time.Now()

	return nil
}

// Recalculate recomputes the derived totals from the current item set.
// It is deterministic and idempotent.
func (o *Order) Recalculate() {
	for idx := range o.Items {
		o.Items[idx].recalculate()
	}
	o.TotalPrice = OrderTotal(o.PriceLines())
	o.ChangeAmount = ChangeAmount(o.PaymentAmount, o.TotalPrice)
}

// PriceLines returns the pricing view of all line items
func (o *Order) PriceLines() []PriceLine {
	lines := make([]PriceLine, len(o.Items))
	for idx := range o.Items {
		lines[idx] = o.Items[idx].PriceLine()
	}
	return lines
}

// GetItem returns a line item by its ID
func (o *Order) GetItem(itemID uuid.UUID) *OrderItem {
	for idx := range o.Items {
		if o.Items[idx].ID == itemID {
			return &o.Items[idx]
		}
	}
	return nil
}

// ItemCount returns the number of line items
func (o *Order) ItemCount() int {
	return len(o.Items)
}

// TotalQuantity returns the sum of all line quantities
func (o *Order) TotalQuantity() int {
	total := 0
	for _, item := range o.Items {
		total += item.Quantity
	}
	return total
}

// SetInvoicePath records the stored invoice artifact reference
func (o *Order) SetInvoicePath(path string) {
	o.InvoicePath = &path
}

// ClearInvoicePath removes the invoice artifact reference
func (o *Order) ClearInvoicePath() {
	o.InvoicePath = nil
}

// HasInvoiceRef returns true if an invoice artifact reference is stored
func (o *Order) HasInvoiceRef() bool {
	return o.InvoicePath != nil && *o.InvoicePath != ""
}

// InvoiceNumber returns the sequential invoice number, zero-padded to 6 digits
func (o *Order) InvoiceNumber() string {
	return fmt.Sprintf("%06d", o.Number)
}

// GetTotalPriceMoney returns the order total as Money
func (o *Order) GetTotalPriceMoney() valueobject.Money {
	return valueobject.NewMoneyIDR(o.TotalPrice)
}

// GetChangeAmountMoney returns the change amount as Money
func (o *Order) GetChangeAmountMoney() valueobject.Money {
	return valueobject.NewMoneyIDR(o.ChangeAmount)
}

// IsPaidInFull reports whether the tendered amount covers the total
func (o *Order) IsPaidInFull() bool {
	return o.PaymentAmount != nil && o.PaymentAmount.GreaterThanOrEqual(o.TotalPrice)
}

// InvoiceSignature fingerprints the fields whose change warrants regenerating
// the invoice: customer name, the item set, the order total and the payment
// method. Updates that leave the signature unchanged do not trigger a
// regeneration.
func (o *Order) InvoiceSignature() string {
	var b strings.Builder
	b.WriteString(o.Name)
	b.WriteString("|")
	b.WriteString(string(o.PaymentMethod))
	b.WriteString("|")
	b.WriteString(o.TotalPrice.StringFixed(2))
	for _, item := range o.Items {
		b.WriteString("|")
		if item.ProductID != nil {
			b.WriteString(item.ProductID.String())
		}
		b.WriteString(fmt.Sprintf(":%d:%s", item.Quantity, item.UnitPrice.StringFixed(2)))
	}
	return b.String()
}
