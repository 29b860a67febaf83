package order

import (
	"context"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// Repository defines the interface for order persistence
type Repository interface {
	// FindByID finds an order with its items by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)

	// FindByIDs finds multiple orders with their items
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]Order, error)

	// FindAll finds all orders matching the filter
	FindAll(ctx context.Context, filter shared.Filter) ([]Order, error)

	// Count counts orders matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)

	// Save persists an order and its item set inside tx, removing items that
	// are no longer part of the order
	Save(ctx context.Context, tx *gorm.DB, o *Order) error

	// UpdateTotal writes only the derived total columns. Used by the single
	// corrective re-save after a detected total mismatch; it performs a plain
	// column update and cannot cascade into another correction.
	UpdateTotal(ctx context.Context, tx *gorm.DB, o *Order) error

	// UpdateInvoicePath writes only the invoice artifact reference. It is a
	// silent update: no timestamps are touched and no lifecycle methods run,
	// so a regeneration can never re-trigger itself.
	UpdateInvoicePath(ctx context.Context, id uuid.UUID, path *string) error

	// Delete removes an order and cascades to its items
	Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
}
