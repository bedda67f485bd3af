package users

import (
	"time"

	"github.com/tradepost-labs/tradepost-backend/pkg/db/models"
	"github.com/tradepost-labs/tradepost-backend/pkg/enums"
)

// UserDTO exposes user data in API responses. The password hash never
// leaves the persistence layer.
type UserDTO struct {
	ID             int64          `json:"id,string"`
	Name           string         `json:"name"`
	Email          string         `json:"email"`
	Role           enums.UserRole `json:"role"`
	StoreID        *int64         `json:"store_id,string,omitempty"`
	StoreRequestID *int64         `json:"store_request_id,string,omitempty"`
	CreatedOn      time.Time      `json:"created_on"`
	UpdatedOn      *time.Time     `json:"updated_on,omitempty"`
}

// UpdateUserInput patches a user's profile fields. Nil fields are left
// untouched.
type UpdateUserInput struct {
	Name  *string
	Email *string
}

// FromModel maps the persisted user into a DTO.
func FromModel(m *models.User) *UserDTO {
	if m == nil {
		return nil
	}
	return &UserDTO{
		ID:             m.ID,
		Name:           m.Name,
		Email:          m.Email,
		Role:           m.Role,
		StoreID:        m.StoreID,
		StoreRequestID: m.StoreRequestID,
		CreatedOn:      m.CreatedOn,
		UpdatedOn:      m.UpdatedOn,
	}
}
