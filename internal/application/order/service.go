// Package order implements the order workflow: editing with live pricing,
// commit-time stock checks, and invoice lifecycle hand-off.
package order

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/inventory"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/shared"
)

// InvoiceManager is the slice of the invoice service the order workflow needs
type InvoiceManager interface {
	// GenerateAndAttach generates the order's invoice and records its path
	GenerateAndAttach(ctx context.Context, o *order.Order) error
	// Delete removes the order's stored invoice artifact
	Delete(ctx context.Context, o *order.Order) error
}

// Service handles order-related business operations
type Service struct {
	db       *gorm.DB
	orders   order.Repository
	products catalog.ProductRepository
	invoices InvoiceManager
	logger   *zap.Logger

	// invoiceTimeout bounds the background invoice generation after create
	invoiceTimeout time.Duration
}

// NewService creates a new order Service
func NewService(
	db *gorm.DB,
	orders order.Repository,
	products catalog.ProductRepository,
	invoices InvoiceManager,
	logger *zap.Logger,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		db:             db,
		orders:         orders,
		products:       products,
		invoices:       invoices,
		logger:         logger,
		invoiceTimeout: 2 * time.Minute,
	}
}

// Create creates a new order: it applies the requested lines, runs the hard
// stock check, persists the order and decrements stock in one transaction,
// then kicks off invoice generation in the background. Invoice failures are
// logged, never surfaced to the caller.
func (s *Service) Create(ctx context.Context, req CreateOrderRequest) (*OrderResponse, error) {
	o, err := order.NewOrder(req.Name, order.PaymentMethod(req.PaymentMethod))
	if err != nil {
		return nil, err
	}
	o.SetContact(req.Email, req.Phone, req.Notes)
	if err := o.SetPaymentAmount(req.PaymentAmount); err != nil {
		return nil, err
	}

	if err := s.applyItems(ctx, o, req.Items); err != nil {
		return nil, err
	}

	ledger := inventory.NewStockLedger(s.products)
	if err := ledger.Validate(ctx, stockRequests(o)); err != nil {
		return nil, err
	}

	if err := s.commit(ctx, o, true); err != nil {
		return nil, err
	}

	s.generateInvoiceAsync(o.ID)

	response := ToOrderResponse(o)
	return &response, nil
}

// Update updates an order. When the change affects what the invoice shows,
// the invoice is regenerated and its new path is recorded silently. This also
// produces the invoice for orders whose creation-time generation failed.
func (s *Service) Update(ctx context.Context, orderID uuid.UUID, req UpdateOrderRequest) (*OrderResponse, error) {
	o, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	signature := o.InvoiceSignature()

	if req.Name != nil {
		if err := o.Rename(*req.Name); err != nil {
			return nil, err
		}
	}
	email, phone, notes := o.Email, o.Phone, o.Notes
	if req.Email != nil {
		email = *req.Email
	}
	if req.Phone != nil {
		phone = *req.Phone
	}
	if req.Notes != nil {
		notes = *req.Notes
	}
	o.SetContact(email, phone, notes)

	if req.PaymentMethod != nil {
		if err := o.SetPaymentMethod(order.PaymentMethod(*req.PaymentMethod)); err != nil {
			return nil, err
		}
	}
	if req.PaymentAmount != nil {
		if err := o.SetPaymentAmount(req.PaymentAmount); err != nil {
			return nil, err
		}
	}

	if req.Items != nil {
		o.ClearLines()
		if err := s.applyItems(ctx, o, req.Items); err != nil {
			return nil, err
		}

		ledger := inventory.NewStockLedger(s.products)
		if err := ledger.Validate(ctx, stockRequests(o)); err != nil {
			return nil, err
		}
	}

	if err := s.commit(ctx, o, false); err != nil {
		return nil, err
	}

	if o.InvoiceSignature() != signature {
		if err := s.invoices.GenerateAndAttach(ctx, o); err != nil {
			s.logger.Error("failed to regenerate invoice after order update",
				zap.String("order_id", o.ID.String()), zap.Error(err))
		}
	}

	response := ToOrderResponse(o)
	return &response, nil
}

// Delete deletes an order, its line items and its stored invoice
func (s *Service) Delete(ctx context.Context, orderID uuid.UUID) error {
	o, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return err
	}

	if err := s.invoices.Delete(ctx, o); err != nil {
		s.logger.Warn("failed to delete invoice artifact",
			zap.String("order_id", o.ID.String()), zap.Error(err))
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		return s.orders.Delete(ctx, tx, orderID)
	})
}

// GetByID retrieves an order with its items
func (s *Service) GetByID(ctx context.Context, orderID uuid.UUID) (*OrderResponse, error) {
	o, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	response := ToOrderResponse(o)
	return &response, nil
}

// List retrieves orders matching the filter, with pagination metadata
func (s *Service) List(ctx context.Context, filter OrderListFilter) (*shared.Paginated[OrderResponse], error) {
	domainFilter := shared.DefaultFilter()
	if filter.Page > 0 {
		domainFilter.Page = filter.Page
	}
	if filter.PageSize > 0 {
		domainFilter.PageSize = filter.PageSize
	}
	if filter.OrderBy != "" {
		domainFilter.OrderBy = filter.OrderBy
	}
	if filter.OrderDir != "" {
		domainFilter.OrderDir = filter.OrderDir
	}
	domainFilter.Search = filter.Search
	if filter.PaymentMethod != "" {
		domainFilter.Filters["payment_method"] = filter.PaymentMethod
	}

	orders, err := s.orders.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, err
	}
	total, err := s.orders.Count(ctx, domainFilter)
	if err != nil {
		return nil, err
	}

	page := shared.NewPaginated(ToOrderResponses(orders), total, domainFilter.Page, domainFilter.PageSize)
	return &page, nil
}

// Quote prices a set of requested lines without persisting anything. Lines
// whose product is missing contribute nothing; quantities above stock come
// back clamped with a warning instead of failing the edit.
func (s *Service) Quote(ctx context.Context, req QuoteRequest) (*QuoteResponse, error) {
	lines := make([]QuoteLineResponse, 0, len(req.Items))
	priceLines := make([]order.PriceLine, 0, len(req.Items))
	requests := make([]inventory.StockRequest, 0, len(req.Items))

	for _, item := range req.Items {
		line := QuoteLineResponse{ProductID: item.ProductID, Quantity: item.Quantity}

		if item.ProductID != nil && *item.ProductID != uuid.Nil {
			product, err := s.products.FindByID(ctx, *item.ProductID)
			if err != nil && !errors.Is(err, shared.ErrNotFound) {
				return nil, err
			}
			if product != nil {
				line.ProductName = product.Name
				line.UnitPrice = product.Price
				if line.Quantity == 0 {
					line.Quantity = 1
				}
			}
		}

		priceLine := order.PriceLine{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
		}
		line.Total = order.LineTotal(priceLine)

		lines = append(lines, line)
		priceLines = append(priceLines, priceLine)
		requests = append(requests, inventory.StockRequest{ProductID: item.ProductID, Quantity: line.Quantity})
	}

	ledger := inventory.NewStockLedger(s.products)
	clamps, err := ledger.Clamp(ctx, requests)
	if err != nil {
		return nil, err
	}

	total := order.OrderTotal(priceLines)
	return &QuoteResponse{
		Lines:        lines,
		TotalPrice:   total,
		ChangeAmount: order.ChangeAmount(req.PaymentAmount, total),
		Warnings:     toClampWarnings(clamps),
	}, nil
}

// applyItems adds the requested lines to the order. A line with a product
// reference must point at an existing product; its price is snapshotted at
// selection time. Lines without a product stay blank.
func (s *Service) applyItems(ctx context.Context, o *order.Order, items []OrderItemRequest) error {
	for _, item := range items {
		line := o.AddLine()

		if item.ProductID == nil || *item.ProductID == uuid.Nil {
			continue
		}

		product, err := s.products.FindByID(ctx, *item.ProductID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return shared.NewDomainError("PRODUCT_NOT_FOUND",
					"Product "+item.ProductID.String()+" not found")
			}
			return err
		}

		if err := o.SelectLineProduct(line.ID, product); err != nil {
			return err
		}
		if item.Quantity > 1 {
			if err := o.SetLineQuantity(line.ID, item.Quantity); err != nil {
				return err
			}
		}
	}

	return nil
}

// commit persists the order in a transaction. It performs a single corrective
// re-save when the stored total disagrees with the recomputed one, and on
// creation decrements stock within the same transaction.
func (s *Service) commit(ctx context.Context, o *order.Order, reduceStock bool) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.orders.Save(ctx, tx, o); err != nil {
			return err
		}

		expected := order.OrderTotal(o.PriceLines())
		if !o.TotalPrice.Equal(expected) {
			o.Recalculate()
			if err := s.orders.UpdateTotal(ctx, tx, o); err != nil {
				return err
			}
		}

		if reduceStock {
			ledger := inventory.NewStockLedger(s.products.WithTx(tx))
			if err := ledger.Reduce(ctx, stockRequests(o)); err != nil {
				return err
			}
		}

		return nil
	})
}

// generateInvoiceAsync generates the order's invoice in the background.
// Failures are logged; the order stands without an invoice until the next
// download or bulk run.
func (s *Service) generateInvoiceAsync(orderID uuid.UUID) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.invoiceTimeout)
		defer cancel()

		o, err := s.orders.FindByID(ctx, orderID)
		if err != nil {
			s.logger.Error("failed to load order for invoice generation",
				zap.String("order_id", orderID.String()), zap.Error(err))
			return
		}

		if err := s.invoices.GenerateAndAttach(ctx, o); err != nil {
			s.logger.Error("failed to generate invoice",
				zap.String("order_id", orderID.String()), zap.Error(err))
		}
	}()
}

func stockRequests(o *order.Order) []inventory.StockRequest {
	requests := make([]inventory.StockRequest, 0, len(o.Items))
	for _, item := range o.Items {
		requests = append(requests, inventory.StockRequest{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		})
	}
	return requests
}
