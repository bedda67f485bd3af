package models

import (
	"time"

	"github.com/tradepost-labs/tradepost-backend/pkg/enums"
)

// User represents the canonical identity entity. StoreID and
// StoreRequestID are weak back-references: they point at the user's
// current store and pending store request, and are cleared when the
// referenced row reaches a terminal or deleted state.
type User struct {
	ID             int64          `gorm:"column:id;primaryKey"`
	Name           string         `gorm:"column:name;not null"`
	Email          string         `gorm:"column:email;type:text;not null;uniqueIndex:ux_users_email"`
	PasswordHash   string         `gorm:"column:password_hash;not null"`
	Role           enums.UserRole `gorm:"column:role;type:text;not null;default:'subuser'"`
	StoreID        *int64         `gorm:"column:store_id"`
	StoreRequestID *int64         `gorm:"column:store_request_id"`
	IsDeleted      bool           `gorm:"column:is_deleted;not null;default:false"`
	DeletedOn      *time.Time     `gorm:"column:deleted_on"`
	DeletedBy      *int64         `gorm:"column:deleted_by"`
	CreatedOn      time.Time      `gorm:"column:created_on;autoCreateTime"`
	UpdatedOn      *time.Time     `gorm:"column:updated_on"`
	UpdatedBy      *int64         `gorm:"column:updated_by"`
}
