package models

import "time"

// Category is a curated product classification.
type Category struct {
	ID        int64      `gorm:"column:id;primaryKey"`
	Name      string     `gorm:"column:name;not null;uniqueIndex:ux_categories_name"`
	IsDeleted bool       `gorm:"column:is_deleted;not null;default:false"`
	DeletedOn *time.Time `gorm:"column:deleted_on"`
	DeletedBy *int64     `gorm:"column:deleted_by"`
	CreatedOn time.Time  `gorm:"column:created_on;autoCreateTime"`
	CreatedBy int64      `gorm:"column:created_by;not null"`
}
