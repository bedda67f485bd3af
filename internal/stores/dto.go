package stores

import (
	"time"

	"github.com/tradepost-labs/tradepost-backend/pkg/db/models"
)

// StoreDTO exposes store data in API responses.
type StoreDTO struct {
	ID           int64      `json:"id,string"`
	Name         string     `json:"name"`
	Location     string     `json:"location"`
	Phone        string     `json:"phone"`
	StoreOwnerID int64      `json:"store_owner_id,string"`
	CreatedOn    time.Time  `json:"created_on"`
	UpdatedOn    *time.Time `json:"updated_on,omitempty"`
}

// CreateStoreInput captures the fields an admin submits when opening a
// store for an approved requestor.
type CreateStoreInput struct {
	Name         string
	Location     string
	Phone        string
	StoreOwnerID int64
}

// UpdateStoreInput patches an existing store. Nil fields are left
// untouched.
type UpdateStoreInput struct {
	Name     *string
	Location *string
	Phone    *string
}

// FromModel maps the persisted store into a DTO.
func FromModel(m *models.Store) *StoreDTO {
	if m == nil {
		return nil
	}
	return &StoreDTO{
		ID:           m.ID,
		Name:         m.Name,
		Location:     m.Location,
		Phone:        m.Phone,
		StoreOwnerID: m.StoreOwnerID,
		CreatedOn:    m.CreatedOn,
		UpdatedOn:    m.UpdatedOn,
	}
}
