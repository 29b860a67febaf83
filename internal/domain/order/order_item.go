package order

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/shared"
)

// OrderItem represents a line item within an order. The unit price is a
// snapshot copied from the product at selection time and does not follow
// later product price changes.
type OrderItem struct {
	shared.BaseEntity
	OrderID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID   *uuid.UUID      `gorm:"type:uuid;index"`
	ProductName string          `gorm:"type:varchar(200)"`
	Quantity    int             `gorm:"not null;default:0"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	TotalPrice  decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
}

// TableName returns the table name for GORM
func (OrderItem) TableName() string {
	return "order_items"
}

// newOrderItem creates an empty line attached to an order. A product must be
// selected before the line contributes to totals.
func newOrderItem(orderID uuid.UUID) *OrderItem {
	return &OrderItem{
		BaseEntity: shared.NewBaseEntity(),
		OrderID:    orderID,
		Quantity:   0,
		UnitPrice:  decimal.Zero,
		TotalPrice: decimal.Zero,
	}
}

// SelectProduct assigns a product to the line, defaulting quantity to 1 and
// snapshotting the product's current price.
func (i *OrderItem) SelectProduct(product *catalog.Product) error {
	if product == nil {
		return shared.NewDomainError("INVALID_PRODUCT", "Product is required")
	}

	productID := product.ID
	i.ProductID = &productID
	i.ProductName = product.Name
	i.Quantity = 1
	i.UnitPrice = product.Price
	i.recalculate()
	i.UpdatedAt = time.Now()

	return nil
}

// ClearProduct removes the product selection and resets quantity, unit price
// and total to zero so no stale values linger on the line.
func (i *OrderItem) ClearProduct() {
	i.ProductID = nil
	i.ProductName = ""
	i.Quantity = 0
	i.UnitPrice = decimal.Zero
	i.TotalPrice = decimal.Zero
	i.UpdatedAt = time.Now()
}

// SetQuantity updates the line quantity. A product must be selected first and
// the quantity must be at least 1.
func (i *OrderItem) SetQuantity(quantity int) error {
	if !i.HasProduct() {
		return shared.NewDomainError("NO_PRODUCT", "Select a product before setting quantity")
	}
	if quantity < 1 {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity must be at least 1 when a product is selected")
	}

	i.Quantity = quantity
	i.recalculate()
	i.UpdatedAt = time.Now()

	return nil
}

// HasProduct returns true if a product has been selected on this line
func (i *OrderItem) HasProduct() bool {
	return i.ProductID != nil && *i.ProductID != uuid.Nil
}

// PriceLine returns the pricing view of this line
func (i *OrderItem) PriceLine() PriceLine {
	return PriceLine{
		ProductID: i.ProductID,
		Quantity:  i.Quantity,
		UnitPrice: i.UnitPrice,
	}
}

// clone returns a copy of the line with a fresh identity, used by the
// line-clone edit action.
func (i *OrderItem) clone() *OrderItem {
	copied := *i
	copied.BaseEntity = shared.NewBaseEntity()
	return &copied
}

func (i *OrderItem) recalculate() {
	i.TotalPrice = LineTotal(i.PriceLine())
}
