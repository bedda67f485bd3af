package storerequests

import (
	"time"

	"github.com/tradepost-labs/tradepost-backend/pkg/db/models"
	"github.com/tradepost-labs/tradepost-backend/pkg/enums"
)

// StoreRequestDTO exposes request data in API responses. IDs are
// serialized as strings so 64-bit values survive JSON number parsing.
type StoreRequestDTO struct {
	ID           int64                    `json:"id,string"`
	Type         enums.StoreRequestType   `json:"store_request_type"`
	Status       enums.StoreRequestStatus `json:"store_request_status"`
	StoreID      *int64                   `json:"store_id,string,omitempty"`
	Name         *string                  `json:"name,omitempty"`
	Location     *string                  `json:"location,omitempty"`
	Phone        *string                  `json:"phone,omitempty"`
	RejectReason *string                  `json:"reject_reason,omitempty"`
	ApprovedOn   *time.Time               `json:"approved_on,omitempty"`
	ApprovedBy   *int64                   `json:"approved_by,string,omitempty"`
	RejectedOn   *time.Time               `json:"rejected_on,omitempty"`
	RejectedBy   *int64                   `json:"rejected_by,string,omitempty"`
	CreatedOn    time.Time                `json:"created_on"`
	CreatedBy    int64                    `json:"created_by,string"`
	UpdatedOn    *time.Time               `json:"updated_on,omitempty"`
}

// CreateStoreRequestInput captures the fields a requestor may submit.
type CreateStoreRequestInput struct {
	Type     enums.StoreRequestType
	Name     *string
	Location *string
	Phone    *string
}

// UpdateStoreRequestInput patches a pending request. Nil fields are
// left untouched.
type UpdateStoreRequestInput struct {
	Name     *string
	Location *string
	Phone    *string
}

// FromModel maps the persisted request into a DTO.
func FromModel(m *models.StoreRequest) *StoreRequestDTO {
	if m == nil {
		return nil
	}
	return &StoreRequestDTO{
		ID:           m.ID,
		Type:         m.Type,
		Status:       m.Status,
		StoreID:      m.StoreID,
		Name:         m.Name,
		Location:     m.Location,
		Phone:        m.Phone,
		RejectReason: m.RejectReason,
		ApprovedOn:   m.ApprovedOn,
		ApprovedBy:   m.ApprovedBy,
		RejectedOn:   m.RejectedOn,
		RejectedBy:   m.RejectedBy,
		CreatedOn:    m.CreatedOn,
		CreatedBy:    m.CreatedBy,
		UpdatedOn:    m.UpdatedOn,
	}
}
