package db

import (
	"gorm.io/gorm"
)

// NotDeleted filters out soft-deleted rows. Queries built with Table() bypass
// gorm's automatic soft-delete scope and need it applied explicitly.
//
// Example usage:
//
//	db.Table("panels").Scopes(db.NotDeleted()).Find(&results)
func NotDeleted() func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("deleted_at IS NULL")
	}
}
