package products

import (
	"time"

	"github.com/tradepost-labs/tradepost-backend/pkg/db/models"
)

// ProductDTO exposes product data in API responses.
type ProductDTO struct {
	ID                int64      `json:"id,string"`
	Name              string     `json:"name"`
	Category          string     `json:"category"`
	Description       string     `json:"description"`
	AvailableQuantity int        `json:"available_quantity"`
	StoreID           int64      `json:"store_id,string"`
	CreatedOn         time.Time  `json:"created_on"`
	UpdatedOn         *time.Time `json:"updated_on,omitempty"`
}

// CreateProductInput captures the fields required to add a product.
type CreateProductInput struct {
	Name              string
	Category          string
	Description       string
	AvailableQuantity int
	StoreID           int64
}

// UpdateProductInput patches an existing product. Nil fields are left
// untouched.
type UpdateProductInput struct {
	Name              *string
	Category          *string
	Description       *string
	AvailableQuantity *int
}

// FromModel maps the persisted product into a DTO.
func FromModel(m *models.Product) *ProductDTO {
	if m == nil {
		return nil
	}
	return &ProductDTO{
		ID:                m.ID,
		Name:              m.Name,
		Category:          m.Category,
		Description:       m.Description,
		AvailableQuantity: m.AvailableQuantity,
		StoreID:           m.StoreID,
		CreatedOn:         m.CreatedOn,
		UpdatedOn:         m.UpdatedOn,
	}
}
