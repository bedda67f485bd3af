package categories

import (
	"time"

	"github.com/tradepost-labs/tradepost-backend/pkg/db/models"
)

// CategoryDTO exposes category data in API responses.
type CategoryDTO struct {
	ID        int64     `json:"id,string"`
	Name      string    `json:"name"`
	CreatedOn time.Time `json:"created_on"`
}

// FromModel maps the persisted category into a DTO.
func FromModel(m *models.Category) *CategoryDTO {
	if m == nil {
		return nil
	}
	return &CategoryDTO{
		ID:        m.ID,
		Name:      m.Name,
		CreatedOn: m.CreatedOn,
	}
}
