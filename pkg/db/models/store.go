package models

import "time"

// Store represents an approved, operating storefront. Uniqueness of
// phone and owner is enforced by partial unique indexes scoped to
// non-deleted rows, so a deleted store never blocks a new one.
type Store struct {
	ID           int64      `gorm:"column:id;primaryKey"`
	Name         string     `gorm:"column:name;not null"`
	Location     string     `gorm:"column:location;not null"`
	Phone        string     `gorm:"column:phone;not null"`
	StoreOwnerID int64      `gorm:"column:store_owner_id;not null"`
	IsDeleted    bool       `gorm:"column:is_deleted;not null;default:false"`
	DeletedOn    *time.Time `gorm:"column:deleted_on"`
	DeletedBy    *int64     `gorm:"column:deleted_by"`
	CreatedOn    time.Time  `gorm:"column:created_on;autoCreateTime"`
	CreatedBy    int64      `gorm:"column:created_by;not null"`
	UpdatedOn    *time.Time `gorm:"column:updated_on"`
	UpdatedBy    *int64     `gorm:"column:updated_by"`
}
