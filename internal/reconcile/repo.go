package reconcile

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tradepost-labs/tradepost-backend/pkg/db"
	"github.com/tradepost-labs/tradepost-backend/pkg/db/models"
)

const taskConstraint = "ux_backref_tasks_request"

// Repository handles the back-reference cleanup queue.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to queue operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Enqueue records that the request's back-reference still needs
// clearing. One open task per request; re-enqueueing an already queued
// request reopens it instead of duplicating it.
func (r *Repository) Enqueue(ctx context.Context, storeRequestID int64) error {
	task := &models.BackrefTask{
		StoreRequestID: storeRequestID,
		CreatedOn:      time.Now().UTC(),
	}
	err := r.db.WithContext(ctx).Create(task).Error
	if err == nil {
		return nil
	}
	if !db.IsUniqueViolation(err, taskConstraint) {
		return err
	}
	now := time.Now().UTC()
	return r.db.WithContext(ctx).
		Model(&models.BackrefTask{}).
		Where("store_request_id = ?", storeRequestID).
		Updates(map[string]any{
			"done":       false,
			"attempts":   0,
			"last_error": nil,
			"updated_on": now,
		}).Error
}

// FetchPending returns up to limit open tasks that have attempts left,
// locking them against concurrent reconciler instances.
func (r *Repository) FetchPending(tx *gorm.DB, limit, maxAttempts int) ([]models.BackrefTask, error) {
	var tasks []models.BackrefTask
	if err := tx.
		Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
		Where("done = ? AND attempts < ?", false, maxAttempts).
		Order("created_on ASC").
		Limit(limit).
		Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

// MarkDoneTx closes the task.
func (r *Repository) MarkDoneTx(tx *gorm.DB, id int64) error {
	now := time.Now().UTC()
	return tx.Model(&models.BackrefTask{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"done":       true,
			"last_error": nil,
			"updated_on": now,
		}).Error
}

// MarkFailedTx records a failed attempt.
func (r *Repository) MarkFailedTx(tx *gorm.DB, id int64, attemptErr error) error {
	now := time.Now().UTC()
	msg := ""
	if attemptErr != nil {
		msg = attemptErr.Error()
	}
	return tx.Model(&models.BackrefTask{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"attempts":   gorm.Expr("attempts + 1"),
			"last_error": msg,
			"updated_on": now,
		}).Error
}
