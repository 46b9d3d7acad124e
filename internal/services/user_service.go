package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/assetdesk/asset-backend/internal/apperrors"
	"github.com/assetdesk/asset-backend/internal/codegen"
	"github.com/assetdesk/asset-backend/internal/database"
	"github.com/assetdesk/asset-backend/internal/models"
	"github.com/assetdesk/asset-backend/internal/pagination"
	"github.com/assetdesk/asset-backend/internal/query"
	"github.com/assetdesk/asset-backend/internal/utils"
)

const minimumAge = 18

const (
	msgUnderAge        = "User is under 18. Please select a different date"
	msgJoinedUnderAge  = "User under the age of 18 may not join company. Please select a different date"
	msgJoinedWeekend   = "Joined date is Saturday or Sunday. Please select a different date"
	msgJoinedBeforeDOB = "Joined date must be after date of birth"
	msgOpenAssignments = "There are valid assignments belonging to this user. Please close all assignments before disabling user."
)

// UserService manages the users of an admin's location
type UserService struct {
	users       UserStore
	assignments AssignmentStore
	tokens      RefreshTokenStore
	tx          Transactor
	clock       Clock
	bcryptCost  int
	logger      logrus.FieldLogger
}

func NewUserService(users UserStore, assignments AssignmentStore, tokens RefreshTokenStore, tx Transactor, clock Clock, bcryptCost int, logger logrus.FieldLogger) *UserService {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &UserService{
		users:       users,
		assignments: assignments,
		tokens:      tokens,
		tx:          tx,
		clock:       clock,
		bcryptCost:  bcryptCost,
		logger:      logger,
	}
}

// List returns the active users of the caller's location
func (s *UserService) List(ctx context.Context, caller models.Caller, req models.UserListRequest) (pagination.Page[models.User], error) {
	filter := database.UserFilter{
		Location: caller.Location,
		Search:   req.SearchTerm,
		Types:    query.ParseSet(req.Types, models.ParseUserType),
		Sort:     query.ParseSort(req.SortBy),
		Page:     req.Page,
	}

	users, total, err := s.users.List(ctx, filter)
	if err != nil {
		return pagination.Page[models.User]{}, err
	}
	return pagination.NewPage(users, req.Page, total), nil
}

func (s *UserService) Get(ctx context.Context, caller models.Caller, id uuid.UUID) (*models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil || !user.IsActive || !inScope(caller, user.Location) {
		return nil, apperrors.NotFound("User not found")
	}
	return user, nil
}

// Create adds a user to the caller's location. The staff code, username and default
// password are generated, the password must be changed on first login.
func (s *UserService) Create(ctx context.Context, caller models.Caller, req models.CreateUserRequest) (*models.CreatedUser, error) {
	var errs apperrors.FieldErrors
	validateStruct(req, &errs)
	firstName := strings.TrimSpace(req.FirstName)
	lastName := strings.TrimSpace(req.LastName)
	if !errs.Has("firstName") && utils.BaseUsername(firstName, "") == "" {
		errs.Add("firstName", "firstName must contain letters")
	}
	dob, dobOK := parseDateField(&errs, "dateOfBirth", req.DateOfBirth)
	joined, joinedOK := parseDateField(&errs, "joinedDate", req.JoinedDate)
	gender, _ := parseEnumField(&errs, "gender", req.Gender, models.ParseGender)
	userType, _ := parseEnumField(&errs, "type", req.Type, models.ParseUserType)
	s.checkDates(&errs, dob, dobOK, joined, joinedOK)
	if err := errs.Err(); err != nil {
		return nil, err
	}

	user := &models.User{
		ID:          uuid.New(),
		FirstName:   firstName,
		LastName:    lastName,
		Type:        userType,
		Location:    caller.Location,
		Gender:      gender,
		DateOfBirth: dob,
		JoinedDate:  joined,
		IsActive:    true,
		Audit:       models.Audit{CreatedAt: s.clock.Now(), CreatedBy: &caller.UserID},
	}

	var password string
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.users.LockStaffCodes(ctx); err != nil {
			return err
		}
		last, err := s.users.LastStaffCode(ctx)
		if err != nil {
			return err
		}
		user.StaffCode = codegen.NextStaffCode(last)

		base := utils.BaseUsername(firstName, lastName)
		taken, err := s.users.UsernamesWithPrefix(ctx, base)
		if err != nil {
			return err
		}
		user.Username = utils.DisambiguateUsername(base, taken)

		password = utils.DefaultPassword(user.Username, dob)
		hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}
		user.PasswordHash = string(hash)

		if err := s.users.Create(ctx, user); err != nil {
			if database.IsUniqueViolation(err) {
				return apperrors.Conflict("Username or staff code is already in use, please retry")
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"user_id":    user.ID,
		"staff_code": user.StaffCode,
		"username":   user.Username,
		"actor":      caller.UserID,
	}).Info("User created")

	return &models.CreatedUser{User: *user, DefaultPassword: password}, nil
}

// Update edits the personal data and type of a user of the caller's location
func (s *UserService) Update(ctx context.Context, caller models.Caller, id uuid.UUID, req models.UpdateUserRequest) (*models.User, error) {
	var updated *models.User
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		user, err := s.lockActive(ctx, caller, id)
		if err != nil {
			return err
		}

		var errs apperrors.FieldErrors
		dob, joined := user.DateOfBirth, user.JoinedDate
		dobOK, joinedOK := true, true
		if req.DateOfBirth != nil {
			dob, dobOK = parseDateField(&errs, "dateOfBirth", *req.DateOfBirth)
		}
		if req.JoinedDate != nil {
			joined, joinedOK = parseDateField(&errs, "joinedDate", *req.JoinedDate)
		}
		if req.Gender != nil {
			if g, ok := parseEnumField(&errs, "gender", *req.Gender, models.ParseGender); ok {
				user.Gender = g
			}
		}
		if req.Type != nil {
			if t, ok := parseEnumField(&errs, "type", *req.Type, models.ParseUserType); ok {
				if t != user.Type && user.ID == caller.UserID {
					errs.Add("type", "You cannot change your own type")
				}
				user.Type = t
			}
		}
		s.checkDates(&errs, dob, dobOK, joined, joinedOK)
		if err := errs.Err(); err != nil {
			return err
		}

		now := s.clock.Now()
		user.DateOfBirth = dob
		user.JoinedDate = joined
		user.ModifiedAt = &now
		user.ModifiedBy = &caller.UserID
		if err := s.users.Update(ctx, user); err != nil {
			return err
		}
		updated = user
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{"user_id": id, "actor": caller.UserID}).Info("User updated")
	return updated, nil
}

// Disable deactivates a user without open assignments and revokes their sessions
func (s *UserService) Disable(ctx context.Context, caller models.Caller, id uuid.UUID) error {
	if id == caller.UserID {
		return apperrors.Conflict("You cannot disable yourself")
	}

	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		user, err := s.lockActive(ctx, caller, id)
		if err != nil {
			return err
		}
		open, err := s.assignments.HasOpenForAssignee(ctx, user.ID)
		if err != nil {
			return err
		}
		if open {
			return apperrors.Conflict(msgOpenAssignments)
		}

		if err := s.users.Disable(ctx, user.ID, caller.UserID); err != nil {
			return err
		}
		return s.tokens.RevokeAllForUser(ctx, user.ID)
	})
	if err != nil {
		return err
	}

	s.logger.WithFields(logrus.Fields{"user_id": id, "actor": caller.UserID}).Info("User disabled")
	return nil
}

// CanDisable reports whether Disable would be refused because of open assignments
func (s *UserService) CanDisable(ctx context.Context, caller models.Caller, id uuid.UUID) (bool, error) {
	user, err := s.Get(ctx, caller, id)
	if err != nil {
		return false, err
	}
	open, err := s.assignments.HasOpenForAssignee(ctx, user.ID)
	if err != nil {
		return false, err
	}
	return !open, nil
}

func (s *UserService) lockActive(ctx context.Context, caller models.Caller, id uuid.UUID) (*models.User, error) {
	user, err := s.users.GetByIDForUpdate(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil || !user.IsActive || !inScope(caller, user.Location) {
		return nil, apperrors.NotFound("User not found")
	}
	return user, nil
}

// checkDates applies the age and joining rules to whichever dates parsed
func (s *UserService) checkDates(errs *apperrors.FieldErrors, dob time.Time, dobOK bool, joined time.Time, joinedOK bool) {
	today := dateOnly(s.clock.Now())
	adulthood := dob.AddDate(minimumAge, 0, 0)

	if dobOK && adulthood.After(today) {
		errs.Add("dateOfBirth", msgUnderAge)
	}
	if !joinedOK {
		return
	}
	if dobOK {
		if !joined.After(dob) {
			errs.Add("joinedDate", msgJoinedBeforeDOB)
		} else if joined.Before(adulthood) {
			errs.Add("joinedDate", msgJoinedUnderAge)
		}
	}
	if wd := joined.Weekday(); wd == time.Saturday || wd == time.Sunday {
		errs.Add("joinedDate", msgJoinedWeekend)
	}
}
