package storerequests

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/tradepost-labs/tradepost-backend/pkg/config"
	"github.com/tradepost-labs/tradepost-backend/pkg/db"
	"github.com/tradepost-labs/tradepost-backend/pkg/db/models"
	"github.com/tradepost-labs/tradepost-backend/pkg/enums"
	pkgerrors "github.com/tradepost-labs/tradepost-backend/pkg/errors"
	"github.com/tradepost-labs/tradepost-backend/pkg/logger"
	"github.com/tradepost-labs/tradepost-backend/pkg/metrics"
	"github.com/tradepost-labs/tradepost-backend/pkg/pagination"
)

const (
	creatorPendingConstraint = "ux_store_requests_creator_pending"
	phonePendingConstraint   = "ux_store_requests_phone_pending"
)

type requestRepository interface {
	Create(ctx context.Context, request *models.StoreRequest) error
	FindByID(ctx context.Context, id int64) (*models.StoreRequest, error)
	FindPendingByCreator(ctx context.Context, creatorID int64) (*models.StoreRequest, error)
	FindPendingByPhone(ctx context.Context, phone string) (*models.StoreRequest, error)
	List(ctx context.Context, cursor *pagination.Cursor, limit int) ([]models.StoreRequest, error)
	ListByCreator(ctx context.Context, creatorID int64) ([]models.StoreRequest, error)
	UpdatePending(ctx context.Context, id, creatorID int64, updates map[string]any) (int64, error)
	MarkApproved(ctx context.Context, id, adminID int64, now time.Time) (int64, error)
	MarkRejected(ctx context.Context, id, adminID int64, reason string, now time.Time) (int64, error)
	SoftDeletePending(ctx context.Context, id, creatorID int64, now time.Time) (int64, error)
}

type storeReader interface {
	FindActiveByOwner(ctx context.Context, ownerID int64) (*models.Store, error)
	FindActiveByPhone(ctx context.Context, phone string) (*models.Store, error)
}

type userBackrefWriter interface {
	SetStoreRequestRef(ctx context.Context, userID, requestID int64) error
	ClearStoreRequestRef(ctx context.Context, requestID int64) (int64, error)
}

type backrefQueue interface {
	Enqueue(ctx context.Context, storeRequestID int64) error
}

type idGenerator interface {
	NextID() int64
}

// Service exposes the store request lifecycle.
type Service interface {
	Create(ctx context.Context, creatorID int64, input CreateStoreRequestInput) (*StoreRequestDTO, error)
	Update(ctx context.Context, creatorID, id int64, input UpdateStoreRequestInput) (*StoreRequestDTO, error)
	Approve(ctx context.Context, adminID, id int64) (*StoreRequestDTO, error)
	Reject(ctx context.Context, adminID, id int64, reason string) (*StoreRequestDTO, error)
	Delete(ctx context.Context, creatorID, id int64) error
	List(ctx context.Context, params pagination.Params) ([]StoreRequestDTO, string, error)
	GetByID(ctx context.Context, id int64) (*StoreRequestDTO, error)
	ListByRequestor(ctx context.Context, creatorID int64) ([]StoreRequestDTO, error)
}

type service struct {
	repo    requestRepository
	stores  storeReader
	users   userBackrefWriter
	queue   backrefQueue
	ids     idGenerator
	cfg     config.ValidationConfig
	metrics *metrics.StoreRequestMetrics
	logg    *logger.Logger
}

// NewService builds the store request service with the provided collaborators.
func NewService(
	repo requestRepository,
	stores storeReader,
	users userBackrefWriter,
	queue backrefQueue,
	ids idGenerator,
	cfg config.ValidationConfig,
	reqMetrics *metrics.StoreRequestMetrics,
	logg *logger.Logger,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("store request repository required")
	}
	if stores == nil {
		return nil, fmt.Errorf("store reader required")
	}
	if users == nil {
		return nil, fmt.Errorf("user backref writer required")
	}
	if queue == nil {
		return nil, fmt.Errorf("backref queue required")
	}
	if ids == nil {
		return nil, fmt.Errorf("id generator required")
	}
	return &service{
		repo:    repo,
		stores:  stores,
		users:   users,
		queue:   queue,
		ids:     ids,
		cfg:     cfg,
		metrics: reqMetrics,
		logg:    logg,
	}, nil
}

func (s *service) Create(ctx context.Context, creatorID int64, input CreateStoreRequestInput) (*StoreRequestDTO, error) {
	if !input.Type.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("invalid storeRequestType: %s, must be one of ['insert', 'update']", input.Type))
	}

	if input.Type == enums.StoreRequestTypeInsert {
		if isBlank(input.Name) || isBlank(input.Location) || isBlank(input.Phone) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name, location and phone are required")
		}
	} else {
		if isBlank(input.Name) && isBlank(input.Location) && isBlank(input.Phone) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "Provide at least one value to create a store update request")
		}
	}

	if input.Phone != nil {
		if err := s.validatePhone(*input.Phone); err != nil {
			return nil, err
		}
	}

	// Ordered preconditions; the first failing check wins. The partial
	// unique indexes remain the authoritative guard for races.
	if err := s.checkNoPendingRequest(ctx, creatorID); err != nil {
		return nil, err
	}

	var ownStore *models.Store
	existing, err := s.stores.FindActiveByOwner(ctx, creatorID)
	switch {
	case err == nil:
		ownStore = existing
	case errors.Is(err, gorm.ErrRecordNotFound):
	default:
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup store by owner")
	}

	if input.Type == enums.StoreRequestTypeInsert && ownStore != nil {
		s.metrics.IncConflict("owner_store")
		return nil, pkgerrors.New(pkgerrors.CodeConflict,
			fmt.Sprintf("You already have a store: %s, you cannot have one more", ownStore.Name))
	}

	if input.Phone != nil {
		if err := s.checkPhoneUnclaimed(ctx, *input.Phone, 0, creatorID); err != nil {
			return nil, err
		}
	}

	now := time.Now().UTC()
	request := &models.StoreRequest{
		ID:        s.ids.NextID(),
		Type:      input.Type,
		Status:    enums.StoreRequestStatusPending,
		Name:      cloneStringPtr(input.Name),
		Location:  cloneStringPtr(input.Location),
		Phone:     cloneStringPtr(input.Phone),
		CreatedOn: now,
		CreatedBy: creatorID,
	}
	if input.Type == enums.StoreRequestTypeUpdate && ownStore != nil {
		request.StoreID = &ownStore.ID
		request.StoreOwnerID = &ownStore.StoreOwnerID
	}

	if err := s.repo.Create(ctx, request); err != nil {
		return nil, s.mapCreateError(err)
	}
	s.metrics.IncTransition("created")

	// Weak back-reference on the creator. The request row is already
	// authoritative, so a failed pointer write is logged, not surfaced.
	if err := s.users.SetStoreRequestRef(ctx, creatorID, request.ID); err != nil && s.logg != nil {
		fields := map[string]any{"store_request_id": request.ID, "user_id": creatorID}
		s.logg.Error(s.logg.WithFields(ctx, fields), "store_request.backref_set_failed", err)
	}

	return FromModel(request), nil
}

func (s *service) Update(ctx context.Context, creatorID, id int64, input UpdateStoreRequestInput) (*StoreRequestDTO, error) {
	if isBlank(input.Name) && isBlank(input.Location) && isBlank(input.Phone) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Provide at least one value to update")
	}

	updates := map[string]any{
		"updated_on": time.Now().UTC(),
		"updated_by": creatorID,
	}
	if input.Name != nil {
		updates["name"] = strings.TrimSpace(*input.Name)
	}
	if input.Location != nil {
		updates["location"] = strings.TrimSpace(*input.Location)
	}
	if input.Phone != nil {
		if err := s.validatePhone(*input.Phone); err != nil {
			return nil, err
		}
		if err := s.checkPhoneUnclaimed(ctx, *input.Phone, id, creatorID); err != nil {
			return nil, err
		}
		updates["phone"] = *input.Phone
	}

	affected, err := s.repo.UpdatePending(ctx, id, creatorID, updates)
	if err != nil {
		return nil, s.mapCreateError(err)
	}
	if affected == 0 {
		return nil, notFoundPending(id)
	}
	s.metrics.IncTransition("updated")

	return s.GetByID(ctx, id)
}

func (s *service) Approve(ctx context.Context, adminID, id int64) (*StoreRequestDTO, error) {
	now := time.Now().UTC()
	affected, err := s.repo.MarkApproved(ctx, id, adminID, now)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "approve store request")
	}
	if affected == 0 {
		return nil, notFoundPending(id)
	}
	s.metrics.IncTransition("approved")

	s.clearBackref(ctx, id)
	return s.GetByID(ctx, id)
}

func (s *service) Reject(ctx context.Context, adminID, id int64, reason string) (*StoreRequestDTO, error) {
	reason = strings.TrimSpace(reason)
	if len(reason) < s.rejectReasonMinLen() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("rejectReason must be at least %d characters long", s.rejectReasonMinLen()))
	}

	now := time.Now().UTC()
	affected, err := s.repo.MarkRejected(ctx, id, adminID, reason, now)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reject store request")
	}
	if affected == 0 {
		return nil, notFoundPending(id)
	}
	s.metrics.IncTransition("rejected")

	s.clearBackref(ctx, id)
	return s.GetByID(ctx, id)
}

func (s *service) Delete(ctx context.Context, creatorID, id int64) error {
	now := time.Now().UTC()
	affected, err := s.repo.SoftDeletePending(ctx, id, creatorID, now)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete store request")
	}
	if affected == 0 {
		return notFoundPending(id)
	}
	s.metrics.IncTransition("deleted")

	s.clearBackref(ctx, id)
	return nil
}

func (s *service) List(ctx context.Context, params pagination.Params) ([]StoreRequestDTO, string, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	limit := pagination.NormalizeLimit(params.Limit)
	rows, err := s.repo.List(ctx, cursor, pagination.LimitWithBuffer(params.Limit))
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list store requests")
	}

	nextCursor := ""
	if len(rows) > limit {
		rows = rows[:limit]
		last := rows[len(rows)-1]
		nextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedOn: last.CreatedOn, ID: last.ID})
	}

	dtos := make([]StoreRequestDTO, 0, len(rows))
	for i := range rows {
		dtos = append(dtos, *FromModel(&rows[i]))
	}
	return dtos, nextCursor, nil
}

func (s *service) GetByID(ctx context.Context, id int64) (*StoreRequestDTO, error) {
	request, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound,
				fmt.Sprintf("store request not found against storeRequestId: %d", id))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load store request")
	}
	return FromModel(request), nil
}

func (s *service) ListByRequestor(ctx context.Context, creatorID int64) ([]StoreRequestDTO, error) {
	rows, err := s.repo.ListByCreator(ctx, creatorID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list store requests by requestor")
	}
	dtos := make([]StoreRequestDTO, 0, len(rows))
	for i := range rows {
		dtos = append(dtos, *FromModel(&rows[i]))
	}
	return dtos, nil
}

// clearBackref drops the creator's users.store_request_id pointer after
// a terminal transition or delete. The transition itself is already
// committed, so failures are logged and queued for the reconciler
// instead of being surfaced to the caller.
func (s *service) clearBackref(ctx context.Context, requestID int64) {
	if _, err := s.users.ClearStoreRequestRef(ctx, requestID); err == nil {
		return
	} else if s.logg != nil {
		fields := map[string]any{"store_request_id": requestID}
		s.logg.Error(s.logg.WithFields(ctx, fields), "store_request.backref_clear_failed", err)
	}

	if err := s.queue.Enqueue(ctx, requestID); err != nil && s.logg != nil {
		fields := map[string]any{"store_request_id": requestID}
		s.logg.Error(s.logg.WithFields(ctx, fields), "store_request.backref_enqueue_failed", err)
	}
}

func (s *service) checkNoPendingRequest(ctx context.Context, creatorID int64) error {
	_, err := s.repo.FindPendingByCreator(ctx, creatorID)
	switch {
	case err == nil:
		s.metrics.IncConflict("pending_request")
		return pkgerrors.New(pkgerrors.CodeConflict,
			"You already have another 'pending' storeRequest, please update that")
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil
	default:
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup pending request")
	}
}

// checkPhoneUnclaimed enforces phone exclusivity against live pending
// requests (other than excludeRequestID) and against stores owned by
// someone other than the caller.
func (s *service) checkPhoneUnclaimed(ctx context.Context, phone string, excludeRequestID, callerID int64) error {
	pending, err := s.repo.FindPendingByPhone(ctx, phone)
	switch {
	case err == nil:
		if pending.ID != excludeRequestID {
			s.metrics.IncConflict("pending_phone")
			return pkgerrors.New(pkgerrors.CodeConflict, "'pending' store request exists with same phone")
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
	default:
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup pending request by phone")
	}

	store, err := s.stores.FindActiveByPhone(ctx, phone)
	switch {
	case err == nil:
		if store.StoreOwnerID != callerID {
			s.metrics.IncConflict("store_phone")
			return pkgerrors.New(pkgerrors.CodeConflict, "store exists with same phone")
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
	default:
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup store by phone")
	}

	return nil
}

// mapCreateError folds unique index violations from the insert race
// window back into the same conflict answers the precondition checks give.
func (s *service) mapCreateError(err error) error {
	switch {
	case db.IsUniqueViolation(err, creatorPendingConstraint):
		s.metrics.IncConflict("pending_request")
		return pkgerrors.Wrap(pkgerrors.CodeConflict, err,
			"You already have another 'pending' storeRequest, please update that")
	case db.IsUniqueViolation(err, phonePendingConstraint):
		s.metrics.IncConflict("pending_phone")
		return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "'pending' store request exists with same phone")
	default:
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist store request")
	}
}

func (s *service) validatePhone(phone string) error {
	length := s.cfg.PhoneLength
	if length <= 0 {
		length = 10
	}
	if len(phone) != length || !isDigits(phone) {
		return pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("phone must be a %d-digit number", length))
	}
	return nil
}

func (s *service) rejectReasonMinLen() int {
	if s.cfg.RejectReasonMinLen <= 0 {
		return 10
	}
	return s.cfg.RejectReasonMinLen
}

func notFoundPending(id int64) error {
	return pkgerrors.New(pkgerrors.CodeNotFound,
		fmt.Sprintf("'pending' store request not found against storeRequestId: %d", id))
}

func isBlank(value *string) bool {
	return value == nil || strings.TrimSpace(*value) == ""
}

func isDigits(value string) bool {
	if value == "" {
		return false
	}
	for _, r := range value {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func cloneStringPtr(value *string) *string {
	if value == nil {
		return nil
	}
	cpy := strings.TrimSpace(*value)
	return &cpy
}
