package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/assetdesk/asset-backend/internal/apperrors"
	"github.com/assetdesk/asset-backend/internal/database"
	"github.com/assetdesk/asset-backend/internal/models"
	"github.com/assetdesk/asset-backend/internal/pagination"
	"github.com/assetdesk/asset-backend/internal/query"
)

const (
	msgRequestOnlyAccepted = "Can only request returning for assignments with state 'Accepted'"
	msgResolveOnlyWaiting  = "Can only resolve return requests with state 'Waiting for returning'"
)

// ReturnRequestService drives the return of assigned assets
type ReturnRequestService struct {
	requests    ReturnRequestStore
	assignments AssignmentStore
	assets      AssetStore
	tx          Transactor
	clock       Clock
	logger      logrus.FieldLogger
}

func NewReturnRequestService(requests ReturnRequestStore, assignments AssignmentStore, assets AssetStore, tx Transactor, clock Clock, logger logrus.FieldLogger) *ReturnRequestService {
	return &ReturnRequestService{
		requests:    requests,
		assignments: assignments,
		assets:      assets,
		tx:          tx,
		clock:       clock,
		logger:      logger,
	}
}

// List returns the return requests of the caller's location
func (s *ReturnRequestService) List(ctx context.Context, caller models.Caller, req models.ReturnRequestListRequest) (pagination.Page[models.ReturnRequestListItem], error) {
	returnedDate, err := query.ParseDate("returnedDate", req.ReturnedDate)
	if err != nil {
		return pagination.Page[models.ReturnRequestListItem]{}, err
	}

	filter := database.ReturnRequestFilter{
		Location:     caller.Location,
		Search:       req.SearchTerm,
		States:       query.ParseSet(req.States, models.ParseReturnRequestState),
		ReturnedDate: returnedDate,
		Sort:         query.ParseSort(req.SortBy),
		Page:         req.Page,
	}

	items, total, err := s.requests.List(ctx, filter)
	if err != nil {
		return pagination.Page[models.ReturnRequestListItem]{}, err
	}
	return numbered(items, filter.Page, total, filter.Sort, func(no int, rr models.ReturnRequest) models.ReturnRequestListItem {
		return models.ReturnRequestListItem{No: no, ReturnRequest: rr}
	}), nil
}

// Create asks for an accepted assignment to be returned. Staff may only ask for their
// own assignments, admins for any assignment of their location.
func (s *ReturnRequestService) Create(ctx context.Context, caller models.Caller, req models.CreateReturnRequestRequest) (*models.ReturnRequest, error) {
	var errs apperrors.FieldErrors
	validateStruct(req, &errs)
	assignmentID, _ := parseUUIDField(&errs, "assignmentId", req.AssignmentID)
	if err := errs.Err(); err != nil {
		return nil, err
	}

	var created *models.ReturnRequest
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		assignment, err := s.assignments.GetByIDForUpdate(ctx, assignmentID)
		if err != nil {
			return err
		}
		if assignment == nil {
			return apperrors.NotFound("Assignment not found")
		}
		if caller.IsAdmin() {
			if !inScope(caller, assignment.AssetLocation) {
				return apperrors.NotFound("Assignment not found")
			}
		} else if assignment.AssigneeID != caller.UserID {
			return apperrors.Forbidden("You can only request returning for your own assignments")
		}

		if assignment.State != models.AssignmentStateAccepted ||
			!assignment.State.CanTransitionTo(models.AssignmentStateWaitingForReturning) {
			return apperrors.Conflict(msgRequestOnlyAccepted)
		}
		pending, err := s.requests.HasPendingForAssignment(ctx, assignment.ID)
		if err != nil {
			return err
		}
		if pending {
			return apperrors.Conflict("A return request is already waiting for this assignment")
		}

		request := &models.ReturnRequest{
			ID:           uuid.New(),
			AssignmentID: assignment.ID,
			RequesterID:  caller.UserID,
			State:        models.ReturnRequestStateWaitingForReturning,
			Audit:        models.Audit{CreatedAt: s.clock.Now(), CreatedBy: &caller.UserID},
		}
		if err := s.requests.Create(ctx, request); err != nil {
			return err
		}
		if err := s.assignments.UpdateState(ctx, assignment.ID, models.AssignmentStateWaitingForReturning, caller.UserID); err != nil {
			return err
		}

		created, err = s.reload(ctx, request.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"return_request_id": created.ID,
		"assignment_id":     created.AssignmentID,
		"actor":             caller.UserID,
	}).Info("Return requested")

	return created, nil
}

// Complete closes a request: the request is completed, the assignment returned and
// the asset available again, all in one transaction
func (s *ReturnRequestService) Complete(ctx context.Context, caller models.Caller, id uuid.UUID) (*models.ReturnRequest, error) {
	var completed *models.ReturnRequest
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		request, assignment, err := s.lockWaiting(ctx, caller, id)
		if err != nil {
			return err
		}
		if !assignment.State.CanTransitionTo(models.AssignmentStateReturned) {
			return apperrors.Conflict(msgResolveOnlyWaiting)
		}

		today := dateOnly(s.clock.Now())
		if err := s.requests.Complete(ctx, request.ID, caller.UserID, today); err != nil {
			return err
		}
		if err := s.assignments.UpdateState(ctx, assignment.ID, models.AssignmentStateReturned, caller.UserID); err != nil {
			return err
		}
		if err := s.assets.UpdateState(ctx, assignment.AssetID, models.AssetStateAvailable, caller.UserID); err != nil {
			return err
		}

		completed, err = s.reload(ctx, request.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"return_request_id": id,
		"assignment_id":     completed.AssignmentID,
		"asset_id":          completed.AssetID,
		"actor":             caller.UserID,
	}).Info("Return completed")

	return completed, nil
}

// Cancel drops a waiting request and puts the assignment back to Accepted.
// The asset never left Assigned, so it is not touched.
func (s *ReturnRequestService) Cancel(ctx context.Context, caller models.Caller, id uuid.UUID) error {
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		request, assignment, err := s.lockWaiting(ctx, caller, id)
		if err != nil {
			return err
		}
		if !assignment.State.CanTransitionTo(models.AssignmentStateAccepted) {
			return apperrors.Conflict(msgResolveOnlyWaiting)
		}

		if err := s.assignments.UpdateState(ctx, assignment.ID, models.AssignmentStateAccepted, caller.UserID); err != nil {
			return err
		}
		return s.requests.Cancel(ctx, request.ID, caller.UserID)
	})
	if err != nil {
		return err
	}

	s.logger.WithFields(logrus.Fields{"return_request_id": id, "actor": caller.UserID}).Info("Return request cancelled")
	return nil
}

// lockWaiting locks a waiting request of the caller's location and its assignment
func (s *ReturnRequestService) lockWaiting(ctx context.Context, caller models.Caller, id uuid.UUID) (*models.ReturnRequest, *models.Assignment, error) {
	request, err := s.requests.GetByIDForUpdate(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if request == nil || !inScope(caller, request.AssetLocation) {
		return nil, nil, apperrors.NotFound("Return request not found")
	}
	if request.State != models.ReturnRequestStateWaitingForReturning {
		return nil, nil, apperrors.Conflict(msgResolveOnlyWaiting)
	}

	assignment, err := s.assignments.GetByIDForUpdate(ctx, request.AssignmentID)
	if err != nil {
		return nil, nil, err
	}
	if assignment == nil {
		return nil, nil, apperrors.NotFound("Assignment not found")
	}
	return request, assignment, nil
}

func (s *ReturnRequestService) reload(ctx context.Context, id uuid.UUID) (*models.ReturnRequest, error) {
	request, err := s.requests.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if request == nil {
		return nil, apperrors.NotFound("Return request not found")
	}
	return request, nil
}
