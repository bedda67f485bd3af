package categories

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/tradepost-labs/tradepost-backend/pkg/db/models"
)

// Repository handles category persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to category operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create persists a new category row.
func (r *Repository) Create(ctx context.Context, category *models.Category) error {
	if category == nil {
		return fmt.Errorf("category is required")
	}
	return r.db.WithContext(ctx).Create(category).Error
}

// FindByID loads a non-deleted category by id.
func (r *Repository) FindByID(ctx context.Context, id int64) (*models.Category, error) {
	var category models.Category
	if err := r.db.WithContext(ctx).
		Where("id = ? AND is_deleted = ?", id, false).
		First(&category).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

// List returns all non-deleted categories, ordered by name.
func (r *Repository) List(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	if err := r.db.WithContext(ctx).
		Where("is_deleted = ?", false).
		Order("name ASC").
		Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

// SoftDelete marks the category deleted.
func (r *Repository) SoftDelete(ctx context.Context, id, actorID int64, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Category{}).
		Where("id = ? AND is_deleted = ?", id, false).
		Updates(map[string]any{
			"is_deleted": true,
			"deleted_on": now,
			"deleted_by": actorID,
		})
	return res.RowsAffected, res.Error
}
