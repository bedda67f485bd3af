package storerequests

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/tradepost-labs/tradepost-backend/pkg/db/models"
	"github.com/tradepost-labs/tradepost-backend/pkg/enums"
	"github.com/tradepost-labs/tradepost-backend/pkg/pagination"
)

// Repository handles store request persistence. All read paths exclude
// soft-deleted rows; lifecycle writes are conditional updates filtered
// on the pending status so terminal rows can never transition again.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to store request operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create persists a new request row.
func (r *Repository) Create(ctx context.Context, request *models.StoreRequest) error {
	if request == nil {
		return fmt.Errorf("store request is required")
	}
	return r.db.WithContext(ctx).Create(request).Error
}

// FindByID loads a non-deleted request by id.
func (r *Repository) FindByID(ctx context.Context, id int64) (*models.StoreRequest, error) {
	var request models.StoreRequest
	if err := r.db.WithContext(ctx).
		Where("id = ? AND is_deleted = ?", id, false).
		First(&request).Error; err != nil {
		return nil, err
	}
	return &request, nil
}

// FindPendingByCreator returns the creator's live pending request, if any.
func (r *Repository) FindPendingByCreator(ctx context.Context, creatorID int64) (*models.StoreRequest, error) {
	var request models.StoreRequest
	if err := r.db.WithContext(ctx).
		Where("created_by = ? AND status = ? AND is_deleted = ?", creatorID, enums.StoreRequestStatusPending, false).
		First(&request).Error; err != nil {
		return nil, err
	}
	return &request, nil
}

// FindPendingByPhone returns a live pending request holding the phone, if any.
func (r *Repository) FindPendingByPhone(ctx context.Context, phone string) (*models.StoreRequest, error) {
	var request models.StoreRequest
	if err := r.db.WithContext(ctx).
		Where("phone = ? AND status = ? AND is_deleted = ?", phone, enums.StoreRequestStatusPending, false).
		First(&request).Error; err != nil {
		return nil, err
	}
	return &request, nil
}

// List returns a page of non-deleted requests, newest first.
func (r *Repository) List(ctx context.Context, cursor *pagination.Cursor, limit int) ([]models.StoreRequest, error) {
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

	var requests []models.StoreRequest
	if err := query.Find(&requests).Error; err != nil {
		return nil, err
	}
	return requests, nil
}

// ListByCreator returns all non-deleted requests created by the user,
// newest first.
func (r *Repository) ListByCreator(ctx context.Context, creatorID int64) ([]models.StoreRequest, error) {
	var requests []models.StoreRequest
	if err := r.db.WithContext(ctx).
		Where("created_by = ? AND is_deleted = ?", creatorID, false).
		Order("created_on DESC, id DESC").
		Find(&requests).Error; err != nil {
		return nil, err
	}
	return requests, nil
}

// UpdatePending applies the field patch to the request only while it is
// still pending, non-deleted and owned by the creator. Returns the rows
// matched so callers can distinguish a missed filter from success.
func (r *Repository) UpdatePending(ctx context.Context, id, creatorID int64, updates map[string]any) (int64, error) {
	if len(updates) == 0 {
		return 0, fmt.Errorf("updates are required")
	}
	res := r.db.WithContext(ctx).
		Model(&models.StoreRequest{}).
		Where("id = ? AND created_by = ? AND status = ? AND is_deleted = ?",
			id, creatorID, enums.StoreRequestStatusPending, false).
		Updates(updates)
	return res.RowsAffected, res.Error
}

// MarkApproved transitions the request pending -> approved.
func (r *Repository) MarkApproved(ctx context.Context, id, adminID int64, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.StoreRequest{}).
		Where("id = ? AND status = ? AND is_deleted = ?", id, enums.StoreRequestStatusPending, false).
		Updates(map[string]any{
			"status":      enums.StoreRequestStatusApproved,
			"approved_on": now,
			"approved_by": adminID,
			"updated_on":  now,
			"updated_by":  adminID,
		})
	return res.RowsAffected, res.Error
}

// MarkRejected transitions the request pending -> rejected with a reason.
func (r *Repository) MarkRejected(ctx context.Context, id, adminID int64, reason string, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.StoreRequest{}).
		Where("id = ? AND status = ? AND is_deleted = ?", id, enums.StoreRequestStatusPending, false).
		Updates(map[string]any{
			"status":        enums.StoreRequestStatusRejected,
			"reject_reason": reason,
			"rejected_on":   now,
			"rejected_by":   adminID,
			"updated_on":    now,
			"updated_by":    adminID,
		})
	return res.RowsAffected, res.Error
}

// SoftDeletePending marks the creator's pending request deleted.
func (r *Repository) SoftDeletePending(ctx context.Context, id, creatorID int64, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.StoreRequest{}).
		Where("id = ? AND created_by = ? AND status = ? AND is_deleted = ?",
			id, creatorID, enums.StoreRequestStatusPending, false).
		Updates(map[string]any{
			"is_deleted": true,
			"deleted_on": now,
			"deleted_by": creatorID,
		})
	return res.RowsAffected, res.Error
}
