package products

import (
	"time"

	"github.com/google/uuid"

	"github.com/erijustudio/storefront-backend/pkg/db/models"
	"github.com/erijustudio/storefront-backend/pkg/enums"
	"github.com/erijustudio/storefront-backend/pkg/storage/publicurl"
)

// ProductDTO is the wire shape for catalog and admin listings. Image carries
// the fully resolved public URL, or empty when the row has no usable image.
type ProductDTO struct {
	ID            uuid.UUID           `json:"id"`
	Name          string              `json:"name"`
	Description   *string             `json:"description,omitempty"`
	Price         int                 `json:"price"`
	OriginalPrice *int                `json:"original_price,omitempty"`
	Image         string              `json:"image"`
	OnSale        bool                `json:"on_sale"`
	Status        enums.ProductStatus `json:"status"`
	SortOrder     int                 `json:"sort_order"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

func toDTO(p models.Product, resolver *publicurl.Resolver) ProductDTO {
	image := ""
	if resolver != nil {
		if resolved, ok := resolver.Resolve(p.Image); ok {
			image = resolved
		}
	}
	return ProductDTO{
		ID:            p.ID,
		Name:          p.Name,
		Description:   p.Description,
		Price:         p.Price,
		OriginalPrice: p.OriginalPrice,
		Image:         image,
		OnSale:        p.OnSale(),
		Status:        p.Status,
		SortOrder:     p.SortOrder,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}
