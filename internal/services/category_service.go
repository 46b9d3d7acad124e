package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/assetdesk/asset-backend/internal/apperrors"
	"github.com/assetdesk/asset-backend/internal/database"
	"github.com/assetdesk/asset-backend/internal/models"
)

// CategoryService manages asset categories and their code prefixes
type CategoryService struct {
	categories CategoryStore
	clock      Clock
	logger     logrus.FieldLogger
}

func NewCategoryService(categories CategoryStore, clock Clock, logger logrus.FieldLogger) *CategoryService {
	return &CategoryService{categories: categories, clock: clock, logger: logger}
}

func (s *CategoryService) List(ctx context.Context) ([]models.Category, error) {
	return s.categories.List(ctx)
}

// Create adds a category. Names are unique, prefixes are two letters stored upper-case
// and unique regardless of case.
func (s *CategoryService) Create(ctx context.Context, caller models.Caller, req models.CreateCategoryRequest) (*models.Category, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Prefix = strings.ToUpper(strings.TrimSpace(req.Prefix))

	var errs apperrors.FieldErrors
	validateStruct(req, &errs)

	if !errs.Has("name") {
		exists, err := s.categories.ExistsByName(ctx, req.Name)
		if err != nil {
			return nil, err
		}
		if exists {
			errs.Add("name", "Category is already existed. Please enter a different category")
		}
	}
	if !errs.Has("prefix") {
		exists, err := s.categories.ExistsByPrefix(ctx, req.Prefix)
		if err != nil {
			return nil, err
		}
		if exists {
			errs.Add("prefix", "Prefix is already existed. Please enter a different prefix")
		}
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}

	category := &models.Category{
		ID:     uuid.New(),
		Name:   req.Name,
		Prefix: req.Prefix,
		Audit:  models.Audit{CreatedAt: s.clock.Now(), CreatedBy: &caller.UserID},
	}
	if err := s.categories.Create(ctx, category); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, apperrors.Conflict("Category name or prefix is already in use")
		}
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{"category_id": category.ID, "prefix": category.Prefix}).Info("Category created")
	return category, nil
}
