package models

import (
	"time"

	"github.com/tradepost-labs/tradepost-backend/pkg/enums"
)

// StoreRequest is a user's petition to open a store (insert) or change
// an existing one (update). A user may hold at most one pending,
// non-deleted request, and no two pending requests may claim the same
// phone number; both rules are backed by partial unique indexes.
type StoreRequest struct {
	ID           int64                    `gorm:"column:id;primaryKey"`
	Type         enums.StoreRequestType   `gorm:"column:request_type;type:text;not null"`
	Status       enums.StoreRequestStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	StoreID      *int64                   `gorm:"column:store_id"`
	StoreOwnerID *int64                   `gorm:"column:store_owner_id"`
	Name         *string                  `gorm:"column:name"`
	Location     *string                  `gorm:"column:location"`
	Phone        *string                  `gorm:"column:phone"`
	RejectReason *string                  `gorm:"column:reject_reason"`
	ApprovedOn   *time.Time               `gorm:"column:approved_on"`
	ApprovedBy   *int64                   `gorm:"column:approved_by"`
	RejectedOn   *time.Time               `gorm:"column:rejected_on"`
	RejectedBy   *int64                   `gorm:"column:rejected_by"`
	IsDeleted    bool                     `gorm:"column:is_deleted;not null;default:false"`
	DeletedOn    *time.Time               `gorm:"column:deleted_on"`
	DeletedBy    *int64                   `gorm:"column:deleted_by"`
	CreatedOn    time.Time                `gorm:"column:created_on;autoCreateTime"`
	CreatedBy    int64                    `gorm:"column:created_by;not null"`
	UpdatedOn    *time.Time               `gorm:"column:updated_on"`
	UpdatedBy    *int64                   `gorm:"column:updated_by"`
}
