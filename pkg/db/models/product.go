package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/erijustudio/storefront-backend/pkg/enums"
)

// Product represents a catalog listing. Prices are whole New Taiwan dollars.
type Product struct {
	ID            uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name          string              `gorm:"column:name;not null"`
	Description   *string             `gorm:"column:description"`
	Price         int                 `gorm:"column:price;not null"`
	OriginalPrice *int                `gorm:"column:original_price"`
	Image         string              `gorm:"column:image;not null;default:''"`
	Status        enums.ProductStatus `gorm:"column:status;type:product_status;not null;default:'active'"`
	SortOrder     int                 `gorm:"column:sort_order;not null;default:0"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName pins the table to the plural form used in migrations.
func (Product) TableName() string {
	return "products"
}

// OnSale reports whether the listing carries a struck-through original price.
func (p Product) OnSale() bool {
	return p.OriginalPrice != nil && *p.OriginalPrice > p.Price
}
