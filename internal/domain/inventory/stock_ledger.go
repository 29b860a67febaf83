// Package inventory holds the stock ledger: hard stock validation at commit
// time, the advisory quantity clamp used while an order is being edited, and
// the post-commit stock decrement.
package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/shared"
)

// StockRequest is one requested line: a product and the quantity the order
// wants to take from stock. Lines without a product reference are skipped.
type StockRequest struct {
	ProductID *uuid.UUID
	Quantity  int
}

// ClampResult is the outcome of an advisory clamp for a single line
type ClampResult struct {
	ProductID uuid.UUID
	Requested int
	Allowed   int
	Clamped   bool
	Warning   string
}

// StockLedger validates requested quantities against available stock and
// decrements stock when an order commits.
type StockLedger struct {
	products catalog.ProductRepository
}

// NewStockLedger creates a new StockLedger
func NewStockLedger(products catalog.ProductRepository) *StockLedger {
	return &StockLedger{products: products}
}

// Validate performs the hard commit-time check: every line with a product
// reference must point at an existing product with enough stock. Lines
// without a product or quantity are skipped. The returned error carries the
// first violation found.
func (l *StockLedger) Validate(ctx context.Context, requests []StockRequest) error {
	for _, req := range requests {
		if req.ProductID == nil || *req.ProductID == uuid.Nil || req.Quantity <= 0 {
			continue
		}

		product, err := l.products.FindByID(ctx, *req.ProductID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return shared.NewDomainError("PRODUCT_NOT_FOUND",
					fmt.Sprintf("Product %s no longer exists", req.ProductID))
			}
			return err
		}

		if !product.HasSufficientStock(req.Quantity) {
			return shared.NewDomainError("INSUFFICIENT_STOCK",
				fmt.Sprintf("Insufficient stock for %s: requested %d, available %d",
					product.Name, req.Quantity, product.Stock))
		}
	}

	return nil
}

// Clamp performs the advisory check used while editing: instead of rejecting
// a too-large quantity, it lowers it to the available stock and surfaces a
// warning. It never fails the edit.
func (l *StockLedger) Clamp(ctx context.Context, requests []StockRequest) ([]ClampResult, error) {
	results := make([]ClampResult, 0, len(requests))

	for _, req := range requests {
		if req.ProductID == nil || *req.ProductID == uuid.Nil {
			continue
		}

		product, err := l.products.FindByID(ctx, *req.ProductID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				results = append(results, ClampResult{
					ProductID: *req.ProductID,
					Requested: req.Quantity,
					Allowed:   0,
					Clamped:   true,
					Warning:   "Product is no longer available",
				})
				continue
			}
			return nil, err
		}

		result := ClampResult{
			ProductID: *req.ProductID,
			Requested: req.Quantity,
			Allowed:   req.Quantity,
		}
		if req.Quantity > product.Stock {
			result.Allowed = product.Stock
			result.Clamped = true
			result.Warning = fmt.Sprintf("Maximum quantity available for %s: %d", product.Name, product.Stock)
		}
		results = append(results, result)
	}

	return results, nil
}

// Reduce decrements stock for every valid line. It must run exactly once per
// committed order, inside the same transaction as the order persistence; it is
// not idempotent. The repository applies each decrement as a
// compare-and-decrement so stock can never go negative.
func (l *StockLedger) Reduce(ctx context.Context, requests []StockRequest) error {
	for _, req := range requests {
		if req.ProductID == nil || *req.ProductID == uuid.Nil || req.Quantity <= 0 {
			continue
		}

		if err := l.products.DecrementStock(ctx, *req.ProductID, req.Quantity); err != nil {
			return err
		}
	}

	return nil
}
