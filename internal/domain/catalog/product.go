package catalog

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
)

const (
	maxProductNameLength = 200
)

// Product represents a sellable product in the catalog.
// It is the aggregate root for product-related operations.
type Product struct {
	shared.BaseEntity
	Name        string          `gorm:"type:varchar(200);not null"`
	Description string          `gorm:"type:text"`
	Price       decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"` // Selling price per unit
	Stock       int             `gorm:"not null;default:0"`
	IsActive    bool            `gorm:"not null;default:true"`
	CategoryID  *uuid.UUID      `gorm:"type:uuid;index"`
	ImagePath   string          `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (Product) TableName() string {
	return "products"
}

// NewProduct creates a new product
func NewProduct(name string, price valueobject.Money, stock int) (*Product, error) {
	if err := validateProductName(name); err != nil {
		return nil, err
	}
	if price.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Product price cannot be negative")
	}
	if stock < 0 {
		return nil, shared.NewDomainError("INVALID_STOCK", "Product stock cannot be negative")
	}

	return &Product{
		BaseEntity: shared.NewBaseEntity(),
		Name:       strings.TrimSpace(name),
		Price:      price.Amount(),
		Stock:      stock,
		IsActive:   true,
	}, nil
}

// Update updates the product's basic information
func (p *Product) Update(name, description string) error {
	if err := validateProductName(name); err != nil {
		return err
	}

	p.Name = strings.TrimSpace(name)
	p.Description = description
	p.UpdatedAt = time.Now()

	return nil
}

// SetPrice updates the selling price
func (p *Product) SetPrice(price valueobject.Money) error {
	if price.IsNegative() {
		return shared.NewDomainError("INVALID_PRICE", "Product price cannot be negative")
	}

	p.Price = price.Amount()
	p.UpdatedAt = time.Now()

	return nil
}

// SetStock replaces the stock quantity (admin restock/correction)
func (p *Product) SetStock(stock int) error {
	if stock < 0 {
		return shared.NewDomainError("INVALID_STOCK", "Product stock cannot be negative")
	}

	p.Stock = stock
	p.UpdatedAt = time.Now()

	return nil
}

// SetCategory assigns the product to a category
func (p *Product) SetCategory(categoryID *uuid.UUID) {
	p.CategoryID = categoryID
	p.UpdatedAt = time.Now()
}

// SetImagePath sets the product image reference
func (p *Product) SetImagePath(path string) {
	p.ImagePath = path
	p.UpdatedAt = time.Now()
}

// Activate marks the product as active (sellable)
func (p *Product) Activate() {
	p.IsActive = true
	p.UpdatedAt = time.Now()
}

// Deactivate marks the product as inactive
func (p *Product) Deactivate() {
	p.IsActive = false
	p.UpdatedAt = time.Now()
}

// IsInStock returns true if any stock is available
func (p *Product) IsInStock() bool {
	return p.Stock > 0
}

// HasSufficientStock returns true if the requested quantity can be fulfilled
func (p *Product) HasSufficientStock(quantity int) bool {
	return quantity >= 0 && p.Stock >= quantity
}

// GetPriceMoney returns the selling price as Money
func (p *Product) GetPriceMoney() valueobject.Money {
	return valueobject.NewMoneyIDR(p.Price)
}

func validateProductName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Product name cannot be empty")
	}
	if len(name) > maxProductNameLength {
		return shared.NewDomainError("INVALID_NAME", "Product name cannot exceed 200 characters")
	}
	return nil
}
