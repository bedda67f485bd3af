package controllers

import (
	"net/http"

	"github.com/tradepost-labs/tradepost-backend/api/middleware"
	"github.com/tradepost-labs/tradepost-backend/api/responses"
	"github.com/tradepost-labs/tradepost-backend/api/validators"
	"github.com/tradepost-labs/tradepost-backend/internal/storerequests"
	"github.com/tradepost-labs/tradepost-backend/pkg/enums"
	pkgerrors "github.com/tradepost-labs/tradepost-backend/pkg/errors"
	"github.com/tradepost-labs/tradepost-backend/pkg/logger"
)

type storeRequestCreatePayload struct {
	Type     string  `json:"store_request_type" validate:"required"`
	Name     *string `json:"name,omitempty"`
	Location *string `json:"location,omitempty"`
	Phone    *string `json:"phone,omitempty"`
}

func (p storeRequestCreatePayload) toInput() storerequests.CreateStoreRequestInput {
	return storerequests.CreateStoreRequestInput{
		Type:     enums.StoreRequestType(p.Type),
		Name:     p.Name,
		Location: p.Location,
		Phone:    p.Phone,
	}
}

type storeRequestUpdatePayload struct {
	Name     *string `json:"name,omitempty"`
	Location *string `json:"location,omitempty"`
	Phone    *string `json:"phone,omitempty"`
}

func (p storeRequestUpdatePayload) toInput() storerequests.UpdateStoreRequestInput {
	return storerequests.UpdateStoreRequestInput{
		Name:     p.Name,
		Location: p.Location,
		Phone:    p.Phone,
	}
}

type storeRequestRejectPayload struct {
	RejectReason string `json:"reject_reason" validate:"required"`
}

// StoreRequestCreate submits a new store request for the authenticated user.
func StoreRequestCreate(svc storerequests.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "store request service unavailable"))
			return
		}

		creatorID := middleware.UserIDFromContext(r.Context())
		if creatorID == 0 {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
			return
		}

		var payload storeRequestCreatePayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		created, err := svc.Create(r.Context(), creatorID, payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}

// StoreRequestUpdate patches the caller's pending request.
func StoreRequestUpdate(svc storerequests.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "store request service unavailable"))
			return
		}

		creatorID := middleware.UserIDFromContext(r.Context())
		if creatorID == 0 {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
			return
		}

		id, err := pathID(r, "storeRequestId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload storeRequestUpdatePayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		updated, err := svc.Update(r.Context(), creatorID, id, payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, updated)
	}
}

// StoreRequestApprove marks a pending request approved. Store creation
// stays a separate admin step.
func StoreRequestApprove(svc storerequests.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "store request service unavailable"))
			return
		}

		adminID := middleware.UserIDFromContext(r.Context())
		if adminID == 0 {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
			return
		}

		id, err := pathID(r, "storeRequestId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		approved, err := svc.Approve(r.Context(), adminID, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, approved)
	}
}

// StoreRequestReject declines a pending request with a reason.
func StoreRequestReject(svc storerequests.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "store request service unavailable"))
			return
		}

		adminID := middleware.UserIDFromContext(r.Context())
		if adminID == 0 {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
			return
		}

		id, err := pathID(r, "storeRequestId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload storeRequestRejectPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rejected, err := svc.Reject(r.Context(), adminID, id, payload.RejectReason)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, rejected)
	}
}

// StoreRequestDelete soft-deletes the caller's pending request.
func StoreRequestDelete(svc storerequests.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "store request service unavailable"))
			return
		}

		creatorID := middleware.UserIDFromContext(r.Context())
		if creatorID == 0 {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
			return
		}

		id, err := pathID(r, "storeRequestId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), creatorID, id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, nil)
	}
}

// StoreRequestList pages through every request, newest first.
func StoreRequestList(svc storerequests.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "store request service unavailable"))
			return
		}

		params, err := listParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items, next, err := svc.List(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, listEnvelope{Items: items, NextCursor: next})
	}
}

// StoreRequestGet fetches a single request by id.
func StoreRequestGet(svc storerequests.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "store request service unavailable"))
			return
		}

		id, err := pathID(r, "storeRequestId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		request, err := svc.GetByID(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, request)
	}
}

// StoreRequestsByRequestor returns the caller's own requests.
func StoreRequestsByRequestor(svc storerequests.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "store request service unavailable"))
			return
		}

		creatorID := middleware.UserIDFromContext(r.Context())
		if creatorID == 0 {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
			return
		}

		items, err := svc.ListByRequestor(r.Context(), creatorID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, items)
	}
}
