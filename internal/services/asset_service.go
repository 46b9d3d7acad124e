package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/assetdesk/asset-backend/internal/apperrors"
	"github.com/assetdesk/asset-backend/internal/codegen"
	"github.com/assetdesk/asset-backend/internal/database"
	"github.com/assetdesk/asset-backend/internal/models"
	"github.com/assetdesk/asset-backend/internal/pagination"
	"github.com/assetdesk/asset-backend/internal/query"
)

// AssetService manages the asset inventory of an admin's location
type AssetService struct {
	assets      AssetStore
	categories  CategoryStore
	assignments AssignmentStore
	tx          Transactor
	clock       Clock
	logger      logrus.FieldLogger
}

func NewAssetService(assets AssetStore, categories CategoryStore, assignments AssignmentStore, tx Transactor, clock Clock, logger logrus.FieldLogger) *AssetService {
	return &AssetService{
		assets:      assets,
		categories:  categories,
		assignments: assignments,
		tx:          tx,
		clock:       clock,
		logger:      logger,
	}
}

// List returns one page of the caller's location inventory
func (s *AssetService) List(ctx context.Context, caller models.Caller, req models.AssetListRequest) (pagination.Page[models.Asset], error) {
	filter := database.AssetFilter{
		Location:   caller.Location,
		Search:     req.SearchTerm,
		States:     query.ParseSet(req.States, models.ParseAssetState),
		Categories: query.ParseStrings(req.Categories),
		Sort:       query.ParseSort(req.SortBy),
		Page:       req.Page,
	}

	assets, total, err := s.assets.List(ctx, filter)
	if err != nil {
		return pagination.Page[models.Asset]{}, err
	}
	return pagination.NewPage(assets, req.Page, total), nil
}

func (s *AssetService) Get(ctx context.Context, caller models.Caller, id uuid.UUID) (*models.Asset, error) {
	asset, err := s.assets.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if asset == nil || !inScope(caller, asset.Location) {
		return nil, apperrors.NotFound("Asset not found")
	}
	return asset, nil
}

// Create registers an asset in the caller's location under the next code of its category
func (s *AssetService) Create(ctx context.Context, caller models.Caller, req models.CreateAssetRequest) (*models.Asset, error) {
	var errs apperrors.FieldErrors
	validateStruct(req, &errs)
	categoryID, _ := parseUUIDField(&errs, "categoryId", req.CategoryID)
	installedDate, _ := parseDateField(&errs, "installedDate", req.InstalledDate)
	state, ok := parseEnumField(&errs, "state", req.State, models.ParseAssetState)
	if ok && state != models.AssetStateAvailable && state != models.AssetStateNotAvailable {
		errs.Add("state", "state must be Available or Not available")
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	asset := &models.Asset{
		ID:            uuid.New(),
		Name:          strings.TrimSpace(req.Name),
		State:         state,
		InstalledDate: installedDate,
		Location:      caller.Location,
		Specification: strings.TrimSpace(req.Specification),
		CategoryID:    categoryID,
		Audit:         models.Audit{CreatedAt: now, CreatedBy: &caller.UserID},
	}

	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		// The category lock serialises code generation per prefix
		category, err := s.categories.GetByIDForUpdate(ctx, categoryID)
		if err != nil {
			return err
		}
		if category == nil {
			return apperrors.Validation(apperrors.FieldError{Field: "categoryId", Message: "Category does not exist"})
		}

		last, err := s.assets.LastCodeWithPrefix(ctx, category.Prefix)
		if err != nil {
			return err
		}
		asset.Code = codegen.NextAssetCode(category.Prefix, last)
		asset.CategoryName = category.Name

		if err := s.assets.Create(ctx, asset); err != nil {
			if database.IsUniqueViolation(err) {
				return apperrors.Conflict("Asset code is already in use, please retry")
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"asset_id": asset.ID,
		"code":     asset.Code,
		"actor":    caller.UserID,
	}).Info("Asset created")

	return asset, nil
}

// Update edits an asset that is not assigned. State can never be set to Assigned here.
func (s *AssetService) Update(ctx context.Context, caller models.Caller, id uuid.UUID, req models.UpdateAssetRequest) (*models.Asset, error) {
	var updated *models.Asset
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		asset, err := s.assets.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if asset == nil || !inScope(caller, asset.Location) {
			return apperrors.NotFound("Asset not found")
		}
		if err := s.ensureNotAssigned(ctx, asset, "edit"); err != nil {
			return err
		}

		var errs apperrors.FieldErrors
		validateStruct(req, &errs)
		if req.Name != nil {
			if name := strings.TrimSpace(*req.Name); name == "" {
				errs.Add("name", "name is required")
			} else {
				asset.Name = name
			}
		}
		if req.Specification != nil {
			asset.Specification = strings.TrimSpace(*req.Specification)
		}
		if req.InstalledDate != nil {
			if d, ok := parseDateField(&errs, "installedDate", *req.InstalledDate); ok {
				asset.InstalledDate = d
			}
		}
		if req.State != nil {
			state, ok := parseEnumField(&errs, "state", *req.State, models.ParseAssetState)
			if ok && state == models.AssetStateAssigned {
				errs.Add("state", "state cannot be set to Assigned directly")
			} else if ok {
				asset.State = state
			}
		}
		if err := errs.Err(); err != nil {
			return err
		}

		now := s.clock.Now()
		asset.ModifiedAt = &now
		asset.ModifiedBy = &caller.UserID
		if err := s.assets.Update(ctx, asset); err != nil {
			return err
		}
		updated = asset
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{"asset_id": id, "actor": caller.UserID}).Info("Asset updated")
	return updated, nil
}

// Delete soft-deletes an asset that was never assigned
func (s *AssetService) Delete(ctx context.Context, caller models.Caller, id uuid.UUID) error {
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		asset, err := s.assets.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if asset == nil || !inScope(caller, asset.Location) {
			return apperrors.NotFound("Asset not found")
		}
		if err := s.ensureNotAssigned(ctx, asset, "delete"); err != nil {
			return err
		}

		historical, err := s.assignments.ExistsForAsset(ctx, asset.ID)
		if err != nil {
			return err
		}
		if historical {
			return apperrors.Conflict("Cannot delete the asset because it belongs to one or more historical assignments")
		}

		return s.assets.SoftDelete(ctx, asset.ID, caller.UserID)
	})
	if err != nil {
		return err
	}

	s.logger.WithFields(logrus.Fields{"asset_id": id, "actor": caller.UserID}).Info("Asset deleted")
	return nil
}

func (s *AssetService) ensureNotAssigned(ctx context.Context, asset *models.Asset, action string) error {
	if asset.State == models.AssetStateAssigned {
		return apperrors.Conflict(fmt.Sprintf("Cannot %s an asset that is currently assigned", action))
	}
	active, err := s.assignments.HasActiveForAsset(ctx, asset.ID, nil)
	if err != nil {
		return err
	}
	if active {
		return apperrors.Conflict(fmt.Sprintf("Cannot %s an asset that is currently assigned", action))
	}
	return nil
}
