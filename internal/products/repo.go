package products

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/tradepost-labs/tradepost-backend/pkg/db/models"
	"github.com/tradepost-labs/tradepost-backend/pkg/pagination"
)

// Repository handles product persistence. Read paths exclude
// soft-deleted rows.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to product operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create persists a new product row.
func (r *Repository) Create(ctx context.Context, product *models.Product) error {
	if product == nil {
		return fmt.Errorf("product is required")
	}
	return r.db.WithContext(ctx).Create(product).Error
}

// FindByID loads a non-deleted product by id.
func (r *Repository) FindByID(ctx context.Context, id int64) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).
		Where("id = ? AND is_deleted = ?", id, false).
		First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// List returns a page of non-deleted products, newest first.
func (r *Repository) List(ctx context.Context, cursor *pagination.Cursor, limit int) ([]models.Product, error) {
	query := r.db.WithContext(ctx).
		Where("is_deleted = ?", false).
		Order("created_on DESC, id DESC").
		Limit(limit)

	if cursor != nil {
		query = query.Where(
			"(created_on < ?) OR (created_on = ? AND id < ?)",
			cursor.CreatedOn, cursor.CreatedOn, cursor.ID,
		)
	}

	var products []models.Product
	if err := query.Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// ListByStore returns all non-deleted products of a store, newest first.
func (r *Repository) ListByStore(ctx context.Context, storeID int64) ([]models.Product, error) {
	var products []models.Product
	if err := r.db.WithContext(ctx).
		Where("store_id = ? AND is_deleted = ?", storeID, false).
		Order("created_on DESC, id DESC").
		Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// UpdateActive applies the field patch to the product while it is live.
func (r *Repository) UpdateActive(ctx context.Context, id int64, updates map[string]any) (int64, error) {
	if len(updates) == 0 {
		return 0, fmt.Errorf("updates are required")
	}
	res := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND is_deleted = ?", id, false).
		Updates(updates)
	return res.RowsAffected, res.Error
}

// SoftDelete marks the product deleted.
func (r *Repository) SoftDelete(ctx context.Context, id, actorID int64, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND is_deleted = ?", id, false).
		Updates(map[string]any{
			"is_deleted": true,
			"deleted_on": now,
			"deleted_by": actorID,
		})
	return res.RowsAffected, res.Error
}
