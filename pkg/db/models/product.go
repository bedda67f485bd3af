package models

import "time"

// Product is a sellable item belonging to a store. Products are soft
// deleted together with their store.
type Product struct {
	ID                int64      `gorm:"column:id;primaryKey"`
	Name              string     `gorm:"column:name;not null"`
	Category          string     `gorm:"column:category;not null"`
	Description       string     `gorm:"column:description;not null"`
	AvailableQuantity int        `gorm:"column:available_quantity;not null;default:0"`
	StoreID           int64      `gorm:"column:store_id;not null"`
	IsDeleted         bool       `gorm:"column:is_deleted;not null;default:false"`
	DeletedOn         *time.Time `gorm:"column:deleted_on"`
	DeletedBy         *int64     `gorm:"column:deleted_by"`
	CreatedOn         time.Time  `gorm:"column:created_on;autoCreateTime"`
	CreatedBy         int64      `gorm:"column:created_by;not null"`
	UpdatedOn         *time.Time `gorm:"column:updated_on"`
	UpdatedBy         *int64     `gorm:"column:updated_by"`
}
