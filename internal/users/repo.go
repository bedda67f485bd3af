package users

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/tradepost-labs/tradepost-backend/pkg/db/models"
	"github.com/tradepost-labs/tradepost-backend/pkg/enums"
	"github.com/tradepost-labs/tradepost-backend/pkg/pagination"
)

// Repository handles user persistence, including the weak store and
// store request back-references other features write through it.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to user operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create persists a new user row.
func (r *Repository) Create(ctx context.Context, user *models.User) error {
	if user == nil {
		return fmt.Errorf("user is required")
	}
	return r.db.WithContext(ctx).Create(user).Error
}

// FindByID loads a non-deleted user by id.
func (r *Repository) FindByID(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).
		Where("id = ? AND is_deleted = ?", id, false).
		First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByEmail loads a non-deleted user by email.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).
		Where("email = ? AND is_deleted = ?", email, false).
		First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// List returns a page of non-deleted users, newest first.
func (r *Repository) List(ctx context.Context, cursor *pagination.Cursor, limit int) ([]models.User, error) {
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

	var users []models.User
	if err := query.Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// UpdateActive applies the field patch to the user while they are live.
func (r *Repository) UpdateActive(ctx context.Context, id int64, updates map[string]any) (int64, error) {
	if len(updates) == 0 {
		return 0, fmt.Errorf("updates are required")
	}
	res := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ? AND is_deleted = ?", id, false).
		Updates(updates)
	return res.RowsAffected, res.Error
}

// SetStoreRef points the user at their current store.
func (r *Repository) SetStoreRef(ctx context.Context, userID, storeID int64) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", userID).
		Update("store_id", storeID).Error
}

// SetStoreRequestRef points the user at their pending store request.
func (r *Repository) SetStoreRequestRef(ctx context.Context, userID, requestID int64) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", userID).
		Update("store_request_id", requestID).Error
}

// ClearStoreRequestRef drops any pointer at the given store request.
// Keyed on the request id rather than the user id so the write is
// idempotent and safe to replay from the reconciler.
func (r *Repository) ClearStoreRequestRef(ctx context.Context, requestID int64) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("store_request_id = ?", requestID).
		Update("store_request_id", nil)
	return res.RowsAffected, res.Error
}

// DeleteCascade soft deletes the user together with their store, that
// store's products and any pending store request they created, in one
// transaction. Step failures are aggregated so the rollback reason
// names every broken piece.
func (r *Repository) DeleteCascade(ctx context.Context, id, adminID int64, now time.Time) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.
			Where("id = ? AND is_deleted = ?", id, false).
			First(&user).Error; err != nil {
			return err
		}

		deleted := map[string]any{
			"is_deleted": true,
			"deleted_on": now,
			"deleted_by": adminID,
		}

		var errs error
		if err := tx.Model(&models.User{}).
			Where("id = ?", user.ID).
			Updates(deleted).Error; err != nil {
			errs = multierr.Append(errs, fmt.Errorf("soft delete user: %w", err))
		}
		if user.StoreID != nil {
			if err := tx.Model(&models.Store{}).
				Where("id = ? AND is_deleted = ?", *user.StoreID, false).
				Updates(deleted).Error; err != nil {
				errs = multierr.Append(errs, fmt.Errorf("soft delete store: %w", err))
			}
			if err := tx.Model(&models.Product{}).
				Where("store_id = ? AND is_deleted = ?", *user.StoreID, false).
				Updates(deleted).Error; err != nil {
				errs = multierr.Append(errs, fmt.Errorf("soft delete products: %w", err))
			}
		}
		if err := tx.Model(&models.StoreRequest{}).
			Where("created_by = ? AND status = ? AND is_deleted = ?",
				user.ID, enums.StoreRequestStatusPending, false).
			Updates(deleted).Error; err != nil {
			errs = multierr.Append(errs, fmt.Errorf("soft delete pending store request: %w", err))
		}
		return errs
	})
}
