package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/assetdesk/asset-backend/internal/apperrors"
	"github.com/assetdesk/asset-backend/internal/database"
	"github.com/assetdesk/asset-backend/internal/models"
	"github.com/assetdesk/asset-backend/internal/pagination"
	"github.com/assetdesk/asset-backend/internal/query"
)

const (
	msgEditOnlyWaiting    = "Can only edit assignments with state 'Waiting for acceptance'"
	msgRespondOnlyWaiting = "Can only respond to assignments with state 'Waiting for acceptance'"
	msgDeleteOnlyPending  = "Can only delete assignments with state 'Waiting for acceptance' or 'Declined'"
)

// AssignmentService drives the assignment lifecycle.
// Every transition re-reads and locks its rows inside one transaction.
type AssignmentService struct {
	assignments AssignmentStore
	assets      AssetStore
	users       UserStore
	tx          Transactor
	clock       Clock
	logger      logrus.FieldLogger
}

func NewAssignmentService(assignments AssignmentStore, assets AssetStore, users UserStore, tx Transactor, clock Clock, logger logrus.FieldLogger) *AssignmentService {
	return &AssignmentService{
		assignments: assignments,
		assets:      assets,
		users:       users,
		tx:          tx,
		clock:       clock,
		logger:      logger,
	}
}

// List returns the assignments of the caller's location
func (s *AssignmentService) List(ctx context.Context, caller models.Caller, req models.AssignmentListRequest) (pagination.Page[models.AssignmentListItem], error) {
	assignedDate, err := query.ParseDate("assignedDate", req.AssignedDate)
	if err != nil {
		return pagination.Page[models.AssignmentListItem]{}, err
	}

	filter := database.AssignmentFilter{
		Location:     caller.Location,
		Search:       req.SearchTerm,
		States:       query.ParseSet(req.States, models.ParseAssignmentState),
		AssignedDate: assignedDate,
		Sort:         query.ParseSort(req.SortBy),
		Page:         req.Page,
	}
	return s.list(ctx, filter)
}

// ListMine returns the caller's own assignments that still need attention,
// leaving out those dated in the future
func (s *AssignmentService) ListMine(ctx context.Context, caller models.Caller, req models.ListRequest) (pagination.Page[models.AssignmentListItem], error) {
	today := dateOnly(s.clock.Now())
	filter := database.AssignmentFilter{
		Location:           caller.Location,
		Search:             req.SearchTerm,
		States:             models.OpenAssignmentStates,
		AssigneeID:         &caller.UserID,
		AssignedOnOrBefore: &today,
		Sort:               query.ParseSort(req.SortBy),
		Page:               req.Page,
	}
	return s.list(ctx, filter)
}

func (s *AssignmentService) list(ctx context.Context, filter database.AssignmentFilter) (pagination.Page[models.AssignmentListItem], error) {
	items, total, err := s.assignments.List(ctx, filter)
	if err != nil {
		return pagination.Page[models.AssignmentListItem]{}, err
	}
	return numbered(items, filter.Page, total, filter.Sort, func(no int, a models.Assignment) models.AssignmentListItem {
		return models.AssignmentListItem{No: no, Assignment: a}
	}), nil
}

// Get shows an assignment to admins of its location and to its assignee
func (s *AssignmentService) Get(ctx context.Context, caller models.Caller, id uuid.UUID) (*models.Assignment, error) {
	assignment, err := s.assignments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if assignment == nil || !s.visible(caller, assignment) {
		return nil, apperrors.NotFound("Assignment not found")
	}
	return assignment, nil
}

func (s *AssignmentService) visible(caller models.Caller, a *models.Assignment) bool {
	if caller.IsAdmin() {
		return inScope(caller, a.AssetLocation)
	}
	return a.AssigneeID == caller.UserID
}

// Create hands an available asset to an active user of the caller's location.
// All field failures are reported together.
func (s *AssignmentService) Create(ctx context.Context, caller models.Caller, req models.CreateAssignmentRequest) (*models.Assignment, error) {
	var errs apperrors.FieldErrors
	validateStruct(req, &errs)
	assetID, assetOK := parseUUIDField(&errs, "assetId", req.AssetID)
	assigneeID, assigneeOK := parseUUIDField(&errs, "assigneeId", req.AssigneeID)
	assignedDate, dateOK := parseDateField(&errs, "assignedDate", req.AssignedDate)
	if dateOK && assignedDate.Before(dateOnly(s.clock.Now())) {
		errs.Add("assignedDate", "Assigned date must be today or later")
	}

	var created *models.Assignment
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if assetOK {
			if err := s.checkAsset(ctx, caller, assetID, nil, &errs); err != nil {
				return err
			}
		}
		if assigneeOK {
			if err := s.checkAssignee(ctx, caller, assigneeID, &errs); err != nil {
				return err
			}
		}
		if err := errs.Err(); err != nil {
			return err
		}

		assignment := &models.Assignment{
			ID:           uuid.New(),
			AssetID:      assetID,
			AssignorID:   caller.UserID,
			AssigneeID:   assigneeID,
			AssignedDate: assignedDate,
			Note:         strings.TrimSpace(req.Note),
			State:        models.AssignmentStateWaitingForAcceptance,
			Audit:        models.Audit{CreatedAt: s.clock.Now(), CreatedBy: &caller.UserID},
		}
		if err := s.assignments.Create(ctx, assignment); err != nil {
			return err
		}
		if err := s.assets.UpdateState(ctx, assetID, models.AssetStateAssigned, caller.UserID); err != nil {
			return err
		}

		reloaded, err := s.reload(ctx, assignment.ID)
		if err != nil {
			return err
		}
		created = reloaded
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"assignment_id": created.ID,
		"asset_id":      created.AssetID,
		"assignee_id":   created.AssigneeID,
		"actor":         caller.UserID,
	}).Info("Assignment created")

	return created, nil
}

// Update edits a waiting assignment. Only supplied fields are checked again, and the
// assigned date may not move before its current value.
func (s *AssignmentService) Update(ctx context.Context, caller models.Caller, id uuid.UUID, req models.UpdateAssignmentRequest) (*models.Assignment, error) {
	var updated *models.Assignment
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		assignment, err := s.lockInScope(ctx, caller, id)
		if err != nil {
			return err
		}
		if assignment.State != models.AssignmentStateWaitingForAcceptance {
			return apperrors.Conflict(msgEditOnlyWaiting)
		}

		var errs apperrors.FieldErrors
		validateStruct(req, &errs)

		previousAsset := assignment.AssetID
		if req.AssetID != nil {
			if assetID, ok := parseUUIDField(&errs, "assetId", *req.AssetID); ok && assetID != previousAsset {
				if err := s.checkAsset(ctx, caller, assetID, &assignment.ID, &errs); err != nil {
					return err
				}
				assignment.AssetID = assetID
			}
		}
		if req.AssigneeID != nil {
			if assigneeID, ok := parseUUIDField(&errs, "assigneeId", *req.AssigneeID); ok {
				if err := s.checkAssignee(ctx, caller, assigneeID, &errs); err != nil {
					return err
				}
				assignment.AssigneeID = assigneeID
			}
		}
		if req.AssignedDate != nil {
			if d, ok := parseDateField(&errs, "assignedDate", *req.AssignedDate); ok {
				if d.Before(dateOnly(assignment.AssignedDate)) {
					errs.Add("assignedDate", "Assigned date must not be earlier than the current assigned date")
				}
				assignment.AssignedDate = d
			}
		}
		if req.Note != nil {
			assignment.Note = strings.TrimSpace(*req.Note)
		}
		if err := errs.Err(); err != nil {
			return err
		}

		now := s.clock.Now()
		assignment.ModifiedAt = &now
		assignment.ModifiedBy = &caller.UserID
		if err := s.assignments.Update(ctx, assignment); err != nil {
			return err
		}
		if assignment.AssetID != previousAsset {
			if err := s.assets.UpdateState(ctx, previousAsset, models.AssetStateAvailable, caller.UserID); err != nil {
				return err
			}
			if err := s.assets.UpdateState(ctx, assignment.AssetID, models.AssetStateAssigned, caller.UserID); err != nil {
				return err
			}
		}

		updated, err = s.reload(ctx, assignment.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{"assignment_id": id, "actor": caller.UserID}).Info("Assignment updated")
	return updated, nil
}

// Delete soft-deletes an assignment nobody accepted. A waiting assignment frees its asset.
func (s *AssignmentService) Delete(ctx context.Context, caller models.Caller, id uuid.UUID) error {
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		assignment, err := s.lockInScope(ctx, caller, id)
		if err != nil {
			return err
		}

		switch assignment.State {
		case models.AssignmentStateWaitingForAcceptance:
			if err := s.assets.UpdateState(ctx, assignment.AssetID, models.AssetStateAvailable, caller.UserID); err != nil {
				return err
			}
		case models.AssignmentStateDeclined:
		default:
			return apperrors.Conflict(msgDeleteOnlyPending)
		}

		return s.assignments.SoftDelete(ctx, assignment.ID, caller.UserID)
	})
	if err != nil {
		return err
	}

	s.logger.WithFields(logrus.Fields{"assignment_id": id, "actor": caller.UserID}).Info("Assignment deleted")
	return nil
}

// Accept is the assignee taking the asset
func (s *AssignmentService) Accept(ctx context.Context, caller models.Caller, id uuid.UUID) (*models.Assignment, error) {
	return s.respond(ctx, caller, id, models.AssignmentStateAccepted)
}

// Decline is the assignee refusing the asset, which becomes available again
func (s *AssignmentService) Decline(ctx context.Context, caller models.Caller, id uuid.UUID) (*models.Assignment, error) {
	return s.respond(ctx, caller, id, models.AssignmentStateDeclined)
}

func (s *AssignmentService) respond(ctx context.Context, caller models.Caller, id uuid.UUID, next models.AssignmentState) (*models.Assignment, error) {
	var result *models.Assignment
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		assignment, err := s.assignments.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if assignment == nil {
			return apperrors.NotFound("Assignment not found")
		}
		if assignment.AssigneeID != caller.UserID {
			return apperrors.Forbidden("Only the assignee can respond to this assignment")
		}
		if assignment.State != models.AssignmentStateWaitingForAcceptance || !assignment.State.CanTransitionTo(next) {
			return apperrors.Conflict(msgRespondOnlyWaiting)
		}

		if err := s.assignments.UpdateState(ctx, assignment.ID, next, caller.UserID); err != nil {
			return err
		}
		if next == models.AssignmentStateDeclined {
			if err := s.assets.UpdateState(ctx, assignment.AssetID, models.AssetStateAvailable, caller.UserID); err != nil {
				return err
			}
		}

		result, err = s.reload(ctx, assignment.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"assignment_id": id,
		"state":         next,
		"actor":         caller.UserID,
	}).Info("Assignment answered")

	return result, nil
}

// lockInScope locks an assignment of the caller's location
func (s *AssignmentService) lockInScope(ctx context.Context, caller models.Caller, id uuid.UUID) (*models.Assignment, error) {
	assignment, err := s.assignments.GetByIDForUpdate(ctx, id)
	if err != nil {
		return nil, err
	}
	if assignment == nil || !inScope(caller, assignment.AssetLocation) {
		return nil, apperrors.NotFound("Assignment not found")
	}
	return assignment, nil
}

func (s *AssignmentService) reload(ctx context.Context, id uuid.UUID) (*models.Assignment, error) {
	assignment, err := s.assignments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if assignment == nil {
		return nil, apperrors.NotFound("Assignment not found")
	}
	return assignment, nil
}

// checkAsset records why assetID cannot be assigned, if it cannot.
// excludeID is the assignment being edited.
func (s *AssignmentService) checkAsset(ctx context.Context, caller models.Caller, assetID uuid.UUID, excludeID *uuid.UUID, errs *apperrors.FieldErrors) error {
	asset, err := s.assets.GetByIDForUpdate(ctx, assetID)
	if err != nil {
		return err
	}
	if asset == nil || !inScope(caller, asset.Location) {
		errs.Add("assetId", "Asset does not exist in your location")
		return nil
	}
	if asset.State != models.AssetStateAvailable {
		errs.Add("assetId", "Asset is not available for assignment")
		return nil
	}

	active, err := s.assignments.HasActiveForAsset(ctx, assetID, excludeID)
	if err != nil {
		return err
	}
	if active {
		errs.Add("assetId", "Asset already has an active assignment")
	}
	return nil
}

// checkAssignee records why assigneeID cannot receive an asset, if it cannot
func (s *AssignmentService) checkAssignee(ctx context.Context, caller models.Caller, assigneeID uuid.UUID, errs *apperrors.FieldErrors) error {
	user, err := s.users.GetByID(ctx, assigneeID)
	if err != nil {
		return err
	}
	if user == nil || !user.IsActive || !inScope(caller, user.Location) {
		errs.Add("assigneeId", "Assignee does not exist or is disabled in your location")
	}
	return nil
}
