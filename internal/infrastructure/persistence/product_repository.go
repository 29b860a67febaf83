package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/shared"
)

// GormProductRepository persists catalog products through GORM.
type GormProductRepository struct {
	db *gorm.DB
}

func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

var _ catalog.ProductRepository = (*GormProductRepository)(nil)

// WithTx rebinds the repository to a running transaction.
func (r *GormProductRepository) WithTx(tx *gorm.DB) catalog.ProductRepository {
	return &GormProductRepository{db: tx}
}

func (r *GormProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	var p catalog.Product
	err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *GormProductRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]catalog.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var products []catalog.Product
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

func (r *GormProductRepository) FindAll(ctx context.Context, filter shared.Filter) ([]catalog.Product, error) {
	var products []catalog.Product
	q := r.search(r.db.WithContext(ctx).Model(&catalog.Product{}), filter)
	if err := q.Scopes(pageScope(filter)).Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// FindInStock narrows FindAll to active products with stock on hand, the
// view the order form works from.
func (r *GormProductRepository) FindInStock(ctx context.Context, filter shared.Filter) ([]catalog.Product, error) {
	var products []catalog.Product
	q := r.search(r.db.WithContext(ctx).Model(&catalog.Product{}), filter).
		Where("is_active = ? AND stock > 0", true)
	if err := q.Scopes(pageScope(filter)).Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

func (r *GormProductRepository) Save(ctx context.Context, product *catalog.Product) error {
	return r.db.WithContext(ctx).Save(product).Error
}

func (r *GormProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&catalog.Product{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *GormProductRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var n int64
	q := r.search(r.db.WithContext(ctx).Model(&catalog.Product{}), filter)
	if err := q.Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

// DecrementStock takes quantity units off a product's stock in one guarded
// UPDATE, so concurrent orders cannot drive stock negative. When the guard
// misses, a follow-up existence check decides between not-found and
// insufficient stock.
func (r *GormProductRepository) DecrementStock(ctx context.Context, id uuid.UUID, quantity int) error {
	if quantity <= 0 {
		return shared.NewDomainError("INVALID_QUANTITY", "Decrement quantity must be positive")
	}

	res := r.db.WithContext(ctx).Model(&catalog.Product{}).
		Where("id = ? AND stock >= ?", id, quantity).
		UpdateColumn("stock", gorm.Expr("stock - ?", quantity))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}

	var exists int64
	if err := r.db.WithContext(ctx).Model(&catalog.Product{}).
		Where("id = ?", id).Count(&exists).Error; err != nil {
		return err
	}
	if exists == 0 {
		return shared.ErrNotFound
	}
	return shared.ErrInsufficientStock
}

func (r *GormProductRepository) search(q *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		q = q.Where("name ILIKE ? OR description ILIKE ?", pattern, pattern)
	}
	if categoryID, ok := filter.Filters["category_id"]; ok {
		q = q.Where("category_id = ?", categoryID)
	}
	return q
}

// pageScope applies ordering and pagination from a shared.Filter. Ordering
// defaults to newest first; a zero PageSize disables pagination.
func pageScope(filter shared.Filter) func(*gorm.DB) *gorm.DB {
	return func(q *gorm.DB) *gorm.DB {
		q = q.Order(fmt.Sprintf("%s %s",
			sortColumn(filter.OrderBy, productSortColumns), sortDirection(filter.OrderDir)))

		if filter.PageSize > 0 {
			offset := (filter.Page - 1) * filter.PageSize
			if offset < 0 {
				offset = 0
			}
			q = q.Offset(offset).Limit(filter.PageSize)
		}
		return q
	}
}
