package stores

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/tradepost-labs/tradepost-backend/pkg/db/models"
	"github.com/tradepost-labs/tradepost-backend/pkg/pagination"
)

// Repository handles store persistence. Read paths exclude soft-deleted
// rows so a removed store never blocks a new one with the same phone or
// owner.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to store operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create persists a new store row.
func (r *Repository) Create(ctx context.Context, store *models.Store) error {
	if store == nil {
		return fmt.Errorf("store is required")
	}
	return r.db.WithContext(ctx).Create(store).Error
}

// FindByID loads a non-deleted store by id.
func (r *Repository) FindByID(ctx context.Context, id int64) (*models.Store, error) {
	var store models.Store
	if err := r.db.WithContext(ctx).
		Where("id = ? AND is_deleted = ?", id, false).
		First(&store).Error; err != nil {
		return nil, err
	}
	return &store, nil
}

// FindActiveByOwner returns the owner's live store, if any.
func (r *Repository) FindActiveByOwner(ctx context.Context, ownerID int64) (*models.Store, error) {
	var store models.Store
	if err := r.db.WithContext(ctx).
		Where("store_owner_id = ? AND is_deleted = ?", ownerID, false).
		First(&store).Error; err != nil {
		return nil, err
	}
	return &store, nil
}

// FindActiveByPhone returns the live store holding the phone, if any.
func (r *Repository) FindActiveByPhone(ctx context.Context, phone string) (*models.Store, error) {
	var store models.Store
	if err := r.db.WithContext(ctx).
		Where("phone = ? AND is_deleted = ?", phone, false).
		First(&store).Error; err != nil {
		return nil, err
	}
	return &store, nil
}

// List returns a page of non-deleted stores, newest first.
func (r *Repository) List(ctx context.Context, cursor *pagination.Cursor, limit int) ([]models.Store, error) {
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

	var stores []models.Store
	if err := query.Find(&stores).Error; err != nil {
		return nil, err
	}
	return stores, nil
}

// UpdateActive applies the field patch to the store while it is live.
// Returns the rows matched so callers can distinguish a missed filter
// from success.
func (r *Repository) UpdateActive(ctx context.Context, id int64, updates map[string]any) (int64, error) {
	if len(updates) == 0 {
		return 0, fmt.Errorf("updates are required")
	}
	res := r.db.WithContext(ctx).
		Model(&models.Store{}).
		Where("id = ? AND is_deleted = ?", id, false).
		Updates(updates)
	return res.RowsAffected, res.Error
}

// DeleteCascade soft deletes the store, its products and the owner's
// store back-reference in one transaction. Step failures are aggregated
// so the rollback reason names every broken piece.
func (r *Repository) DeleteCascade(ctx context.Context, id, adminID int64, now time.Time) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var store models.Store
		if err := tx.
			Where("id = ? AND is_deleted = ?", id, false).
			First(&store).Error; err != nil {
			return err
		}

		deleted := map[string]any{
			"is_deleted": true,
			"deleted_on": now,
			"deleted_by": adminID,
		}

		var errs error
		if err := tx.Model(&models.Store{}).
			Where("id = ?", store.ID).
			Updates(deleted).Error; err != nil {
			errs = multierr.Append(errs, fmt.Errorf("soft delete store: %w", err))
		}
		if err := tx.Model(&models.Product{}).
			Where("store_id = ? AND is_deleted = ?", store.ID, false).
			Updates(deleted).Error; err != nil {
			errs = multierr.Append(errs, fmt.Errorf("soft delete products: %w", err))
		}
		if err := tx.Model(&models.User{}).
			Where("store_id = ?", store.ID).
			Updates(map[string]any{
				"store_id":   nil,
				"updated_on": now,
				"updated_by": adminID,
			}).Error; err != nil {
			errs = multierr.Append(errs, fmt.Errorf("unset owner store ref: %w", err))
		}
		return errs
	})
}
