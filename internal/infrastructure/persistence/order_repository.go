package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/shared"
)

// GormOrderRepository implements order.Repository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// Ensure GormOrderRepository implements order.Repository
var _ order.Repository = (*GormOrderRepository)(nil)

// FindByID finds an order with its items by ID
func (r *GormOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	var o order.Order
	if err := r.db.WithContext(ctx).Preload("Items").First(&o, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &o, nil
}

// FindByIDs finds multiple orders with their items
func (r *GormOrderRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]order.Order, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var orders []order.Order
	if err := r.db.WithContext(ctx).Preload("Items").
		Where("id IN ?", ids).Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// FindAll finds all orders matching the filter
func (r *GormOrderRepository) FindAll(ctx context.Context, filter shared.Filter) ([]order.Order, error) {
	var orders []order.Order
	query := r.applyFilter(r.db.WithContext(ctx).Model(&order.Order{}).Preload("Items"), filter)

	if err := query.Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// Count counts orders matching the filter
func (r *GormOrderRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applySearch(r.db.WithContext(ctx).Model(&order.Order{}), filter)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save persists an order and its item set inside tx. Items no longer present
// on the aggregate are removed; the remaining ones are upserted.
func (r *GormOrderRepository) Save(ctx context.Context, tx *gorm.DB, o *order.Order) error {
	db := r.tx(tx).WithContext(ctx)

	if err := db.Omit("Items").Save(o).Error; err != nil {
		return err
	}

	keep := make([]uuid.UUID, 0, len(o.Items))
	for idx := range o.Items {
		o.Items[idx].OrderID = o.ID
		keep = append(keep, o.Items[idx].ID)
	}

	query := db.Where("order_id = ?", o.ID)
	if len(keep) > 0 {
		query = query.Where("id NOT IN ?", keep)
	}
	if err := query.Delete(&order.OrderItem{}).Error; err != nil {
		return err
	}

	for idx := range o.Items {
		if err := db.Save(&o.Items[idx]).Error; err != nil {
			return err
		}
	}

	return nil
}

// UpdateTotal writes only the derived total columns. It is a plain column
// update that runs no lifecycle callbacks, so a corrective re-save cannot
// cascade into another correction.
func (r *GormOrderRepository) UpdateTotal(ctx context.Context, tx *gorm.DB, o *order.Order) error {
	return r.tx(tx).WithContext(ctx).Model(&order.Order{}).
		Where("id = ?", o.ID).
		UpdateColumns(map[string]interface{}{
			"total_price":   o.TotalPrice,
			"change_amount": o.ChangeAmount,
		}).Error
}

// UpdateInvoicePath writes only the invoice artifact reference, touching no
// timestamps and running no lifecycle callbacks.
func (r *GormOrderRepository) UpdateInvoicePath(ctx context.Context, id uuid.UUID, path *string) error {
	var value interface{}
	if path != nil {
		value = *path
	}
	result := r.db.WithContext(ctx).Model(&order.Order{}).
		Where("id = ?", id).
		UpdateColumn("invoice_path", value)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Delete removes an order; the items cascade at the database level
func (r *GormOrderRepository) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	db := r.tx(tx).WithContext(ctx)

	if err := db.Where("order_id = ?", id).Delete(&order.OrderItem{}).Error; err != nil {
		return err
	}

	result := db.Delete(&order.Order{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *GormOrderRepository) tx(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *GormOrderRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applySearch(query, filter)

	query = query.Order(fmt.Sprintf("%s %s",
		sortColumn(filter.OrderBy, orderSortColumns), sortDirection(filter.OrderDir)))

	if filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		if offset < 0 {
			offset = 0
		}
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	return query
}

func (r *GormOrderRepository) applySearch(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where("name ILIKE ? OR email ILIKE ? OR phone ILIKE ?", pattern, pattern, pattern)
	}
	if method, ok := filter.Filters["payment_method"]; ok {
		query = query.Where("payment_method = ?", method)
	}
	return query
}
