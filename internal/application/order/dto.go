package order

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/storefront/backend/internal/domain/inventory"
	"github.com/storefront/backend/internal/domain/order"
)

// OrderItemRequest represents a line item in a create/update request
type OrderItemRequest struct {
	ProductID *uuid.UUID `json:"product_id"`
	Quantity  int        `json:"quantity" binding:"omitempty,min=1"`
}

// CreateOrderRequest represents a request to create a new order
type CreateOrderRequest struct {
	Name          string             `json:"name" binding:"required,min=1,max=200"`
	Email         string             `json:"email" binding:"omitempty,email,max=200"`
	Phone         string             `json:"phone" binding:"max=30"`
	Notes         string             `json:"notes" binding:"max=2000"`
	PaymentMethod string             `json:"payment_method" binding:"required,payment_method"`
	PaymentAmount *decimal.Decimal   `json:"payment_amount"`
	Items         []OrderItemRequest `json:"items"`
}

// UpdateOrderRequest represents a request to update an order
type UpdateOrderRequest struct {
	Name          *string            `json:"name" binding:"omitempty,min=1,max=200"`
	Email         *string            `json:"email" binding:"omitempty,max=200"`
	Phone         *string            `json:"phone" binding:"omitempty,max=30"`
	Notes         *string            `json:"notes" binding:"omitempty,max=2000"`
	PaymentMethod *string            `json:"payment_method" binding:"omitempty,payment_method"`
	PaymentAmount *decimal.Decimal   `json:"payment_amount"`
	Items         []OrderItemRequest `json:"items"`
}

// QuoteRequest represents a pricing preview request for an order being edited
type QuoteRequest struct {
	Items         []OrderItemRequest `json:"items"`
	PaymentAmount *decimal.Decimal   `json:"payment_amount"`
}

// QuoteLineResponse is the pricing preview of a single line
type QuoteLineResponse struct {
	ProductID   *uuid.UUID      `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Total       decimal.Decimal `json:"total"`
}

// QuoteWarning surfaces an advisory stock clamp for a line
type QuoteWarning struct {
	ProductID uuid.UUID `json:"product_id"`
	Requested int       `json:"requested"`
	Allowed   int       `json:"allowed"`
	Message   string    `json:"message"`
}

// QuoteResponse is the pricing preview of an order being edited
type QuoteResponse struct {
	Lines        []QuoteLineResponse `json:"lines"`
	TotalPrice   decimal.Decimal     `json:"total_price"`
	ChangeAmount decimal.Decimal     `json:"change_amount"`
	Warnings     []QuoteWarning      `json:"warnings"`
}

// OrderItemResponse represents an order line item in API responses
type OrderItemResponse struct {
	ID          uuid.UUID       `json:"id"`
	ProductID   *uuid.UUID      `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TotalPrice  decimal.Decimal `json:"total_price"`
}

// OrderResponse represents an order in API responses
type OrderResponse struct {
	ID            uuid.UUID           `json:"id"`
	Number        int64               `json:"number"`
	InvoiceNumber string              `json:"invoice_number"`
	Name          string              `json:"name"`
	Email         string              `json:"email"`
	Phone         string              `json:"phone"`
	Notes         string              `json:"notes"`
	PaymentMethod string              `json:"payment_method"`
	TotalPrice    decimal.Decimal     `json:"total_price"`
	PaymentAmount *decimal.Decimal    `json:"payment_amount"`
	ChangeAmount  decimal.Decimal     `json:"change_amount"`
	InvoicePath   *string             `json:"invoice_path"`
	Items         []OrderItemResponse `json:"items"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

// OrderListFilter represents filter options for order list
type OrderListFilter struct {
	Search        string `form:"search"`
	PaymentMethod string `form:"payment_method" binding:"omitempty,payment_method"`
	Page          int    `form:"page" binding:"omitempty,min=1"`
	PageSize      int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy       string `form:"order_by"`
	OrderDir      string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// BulkInvoiceRequest represents a request to generate invoices for a set of
// orders
type BulkInvoiceRequest struct {
	OrderIDs []uuid.UUID `json:"order_ids" binding:"required,min=1"`
}

// BulkInvoiceResponse reports how many invoices a bulk run generated
type BulkInvoiceResponse struct {
	Generated int `json:"generated"`
}

// ToOrderResponse converts a domain Order to OrderResponse
func ToOrderResponse(o *order.Order) OrderResponse {
	items := make([]OrderItemResponse, len(o.Items))
	for i, item := range o.Items {
		items[i] = OrderItemResponse{
			ID:          item.ID,
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			TotalPrice:  item.TotalPrice,
		}
	}

	return OrderResponse{
		ID:            o.ID,
		Number:        o.Number,
		InvoiceNumber: o.InvoiceNumber(),
		Name:          o.Name,
		Email:         o.Email,
		Phone:         o.Phone,
		Notes:         o.Notes,
		PaymentMethod: o.PaymentMethod.String(),
		TotalPrice:    o.TotalPrice,
		PaymentAmount: o.PaymentAmount,
		ChangeAmount:  o.ChangeAmount,
		InvoicePath:   o.InvoicePath,
		Items:         items,
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}
}

// ToOrderResponses converts a slice of domain Orders to OrderResponses
func ToOrderResponses(orders []order.Order) []OrderResponse {
	responses := make([]OrderResponse, len(orders))
	for i := range orders {
		responses[i] = ToOrderResponse(&orders[i])
	}
	return responses
}

func toClampWarnings(results []inventory.ClampResult) []QuoteWarning {
	warnings := make([]QuoteWarning, 0, len(results))
	for _, r := range results {
		if !r.Clamped {
			continue
		}
		warnings = append(warnings, QuoteWarning{
			ProductID: r.ProductID,
			Requested: r.Requested,
			Allowed:   r.Allowed,
			Message:   r.Warning,
		})
	}
	return warnings
}
