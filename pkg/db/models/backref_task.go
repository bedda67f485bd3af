package models

import "time"

// BackrefTask queues a retryable cleanup of the users.store_request_id
// back-reference after a store request reached a terminal state but the
// follow-up clear failed. The clear is idempotent, so tasks may be
// re-applied safely.
type BackrefTask struct {
	ID             int64      `gorm:"column:id;primaryKey;autoIncrement"`
	StoreRequestID int64      `gorm:"column:store_request_id;not null;uniqueIndex:ux_backref_tasks_request"`
	Attempts       int        `gorm:"column:attempts;not null;default:0"`
	LastError      *string    `gorm:"column:last_error"`
	Done           bool       `gorm:"column:done;not null;default:false"`
	CreatedOn      time.Time  `gorm:"column:created_on;autoCreateTime"`
	UpdatedOn      *time.Time `gorm:"column:updated_on"`
}
