package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/assetdesk/asset-backend/internal/apperrors"
	"github.com/assetdesk/asset-backend/internal/database"
	"github.com/assetdesk/asset-backend/internal/models"
)

// testNow is a Wednesday
var testNow = time.Date(2024, time.March, 13, 9, 30, 0, 0, time.UTC)

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

func quietLogger() logrus.FieldLogger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

var errInjected = errors.New("injected failure")

// world is an in-memory store shared by the fakes. RunInTx restores it when fn fails.
type world struct {
	categories  map[uuid.UUID]models.Category
	assets      map[uuid.UUID]models.Asset
	users       map[uuid.UUID]models.User
	assignments map[uuid.UUID]models.Assignment
	requests    map[uuid.UUID]models.ReturnRequest
	tokens      map[string]models.RefreshToken
	audit       []models.AuditLog

	failAssetState error
	failAudit      error
	lastUserFilter database.UserFilter
	txCount        int
}

func newWorld() *world {
	return &world{
		categories:  map[uuid.UUID]models.Category{},
		assets:      map[uuid.UUID]models.Asset{},
		users:       map[uuid.UUID]models.User{},
		assignments: map[uuid.UUID]models.Assignment{},
		requests:    map[uuid.UUID]models.ReturnRequest{},
		tokens:      map[string]models.RefreshToken{},
	}
}

func (w *world) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	w.txCount++
	categories, assets, users := maps.Clone(w.categories), maps.Clone(w.assets), maps.Clone(w.users)
	assignments, requests, tokens := maps.Clone(w.assignments), maps.Clone(w.requests), maps.Clone(w.tokens)
	if err := fn(ctx); err != nil {
		w.categories, w.assets, w.users = categories, assets, users
		w.assignments, w.requests, w.tokens = assignments, requests, tokens
		return err
	}
	return nil
}

func (w *world) addCategory(name, prefix string) models.Category {
	c := models.Category{ID: uuid.New(), Name: name, Prefix: prefix, Audit: models.Audit{CreatedAt: testNow}}
	w.categories[c.ID] = c
	return c
}

func (w *world) addUser(username string, role models.UserType, loc models.Location) models.User {
	u := models.User{
		ID:                uuid.New(),
		StaffCode:         fmt.Sprintf("SD%04d", len(w.users)+1),
		FirstName:         username,
		LastName:          "Test",
		Username:          username,
		Type:              role,
		Location:          loc,
		Gender:            models.GenderFemale,
		DateOfBirth:       time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC),
		JoinedDate:        time.Date(2015, 1, 5, 0, 0, 0, 0, time.UTC),
		IsActive:          true,
		IsPasswordUpdated: true,
		Audit:             models.Audit{CreatedAt: testNow},
	}
	w.users[u.ID] = u
	return u
}

func (w *world) addAsset(code string, category models.Category, state models.AssetState, loc models.Location) models.Asset {
	a := models.Asset{
		ID:            uuid.New(),
		Code:          code,
		Name:          "Laptop " + code,
		State:         state,
		InstalledDate: time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC),
		Location:      loc,
		CategoryID:    category.ID,
		Audit:         models.Audit{CreatedAt: testNow},
	}
	w.assets[a.ID] = a
	return a
}

func (w *world) asset(t *testing.T, id uuid.UUID) models.Asset {
	t.Helper()
	a, ok := w.assets[id]
	require.True(t, ok)
	return a
}

func (w *world) assignment(t *testing.T, id uuid.UUID) models.Assignment {
	t.Helper()
	a, ok := w.assignments[id]
	require.True(t, ok)
	return a
}

func (w *world) request(t *testing.T, id uuid.UUID) models.ReturnRequest {
	t.Helper()
	rr, ok := w.requests[id]
	require.True(t, ok)
	return rr
}

func callerOf(u models.User) models.Caller {
	return models.Caller{UserID: u.ID, Username: u.Username, Role: u.Type, Location: u.Location}
}

// requireKind asserts err is an application error of kind
func requireKind(t *testing.T, err error, kind apperrors.Kind) *apperrors.Error {
	t.Helper()
	require.Error(t, err)
	appErr, ok := apperrors.As(err)
	require.True(t, ok, "expected application error, got %v", err)
	require.Equal(t, kind, appErr.Kind, appErr.Error())
	return appErr
}

func fieldNames(appErr *apperrors.Error) []string {
	names := make([]string, 0, len(appErr.Fields))
	for _, f := range appErr.Fields {
		names = append(names, f.Field)
	}
	return names
}

func fieldMessageOf(appErr *apperrors.Error, field string) string {
	for _, f := range appErr.Fields {
		if f.Field == field {
			return f.Message
		}
	}
	return ""
}

func stamp(a *models.Audit, actor uuid.UUID) {
	now := testNow
	a.ModifiedAt = &now
	a.ModifiedBy = &actor
}

type categoryStore struct{ w *world }

func (s categoryStore) List(ctx context.Context) ([]models.Category, error) {
	out := slices.Collect(maps.Values(s.w.categories))
	slices.SortFunc(out, func(a, b models.Category) int { return strings.Compare(a.Name, b.Name) })
	return out, nil
}

func (s categoryStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	c, ok := s.w.categories[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (s categoryStore) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	return s.GetByID(ctx, id)
}

func (s categoryStore) ExistsByName(ctx context.Context, name string) (bool, error) {
	for _, c := range s.w.categories {
		if strings.EqualFold(c.Name, name) {
			return true, nil
		}
	}
	return false, nil
}

func (s categoryStore) ExistsByPrefix(ctx context.Context, prefix string) (bool, error) {
	for _, c := range s.w.categories {
		if strings.EqualFold(c.Prefix, prefix) {
			return true, nil
		}
	}
	return false, nil
}

func (s categoryStore) Create(ctx context.Context, c *models.Category) error {
	s.w.categories[c.ID] = *c
	return nil
}

type assetStore struct{ w *world }

func (s assetStore) List(ctx context.Context, f database.AssetFilter) ([]models.Asset, int, error) {
	var out []models.Asset
	for _, a := range s.w.assets {
		if a.Location == f.Location && !a.IsDeleted {
			out = append(out, a)
		}
	}
	return out, len(out), nil
}

func (s assetStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Asset, error) {
	a, ok := s.w.assets[id]
	if !ok || a.IsDeleted {
		return nil, nil
	}
	a.CategoryName = s.w.categories[a.CategoryID].Name
	return &a, nil
}

func (s assetStore) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Asset, error) {
	return s.GetByID(ctx, id)
}

func (s assetStore) LastCodeWithPrefix(ctx context.Context, prefix string) (string, error) {
	last := ""
	for _, a := range s.w.assets {
		if strings.HasPrefix(a.Code, prefix) && a.Code > last {
			last = a.Code
		}
	}
	return last, nil
}

func (s assetStore) Create(ctx context.Context, a *models.Asset) error {
	s.w.assets[a.ID] = *a
	return nil
}

func (s assetStore) Update(ctx context.Context, a *models.Asset) error {
	if _, ok := s.w.assets[a.ID]; !ok {
		return database.ErrNoRowsAffected
	}
	s.w.assets[a.ID] = *a
	return nil
}

func (s assetStore) UpdateState(ctx context.Context, id uuid.UUID, state models.AssetState, actor uuid.UUID) error {
	if s.w.failAssetState != nil {
		return s.w.failAssetState
	}
	a, ok := s.w.assets[id]
	if !ok {
		return database.ErrNoRowsAffected
	}
	a.State = state
	stamp(&a.Audit, actor)
	s.w.assets[id] = a
	return nil
}

func (s assetStore) SoftDelete(ctx context.Context, id uuid.UUID, actor uuid.UUID) error {
	a := s.w.assets[id]
	a.IsDeleted = true
	a.DeletedBy = &actor
	s.w.assets[id] = a
	return nil
}

type userStore struct{ w *world }

func (s userStore) List(ctx context.Context, f database.UserFilter) ([]models.User, int, error) {
	s.w.lastUserFilter = f
	var out []models.User
	for _, u := range s.w.users {
		if u.Location == f.Location && u.IsActive {
			out = append(out, u)
		}
	}
	return out, len(out), nil
}

func (s userStore) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	u, ok := s.w.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (s userStore) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.GetByID(ctx, id)
}

func (s userStore) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	for _, u := range s.w.users {
		if strings.EqualFold(u.Username, username) {
			return &u, nil
		}
	}
	return nil, nil
}

func (s userStore) UsernamesWithPrefix(ctx context.Context, base string) ([]string, error) {
	var out []string
	for _, u := range s.w.users {
		if strings.HasPrefix(strings.ToLower(u.Username), base) {
			out = append(out, u.Username)
		}
	}
	return out, nil
}

func (s userStore) LastStaffCode(ctx context.Context) (string, error) {
	last := ""
	for _, u := range s.w.users {
		if u.StaffCode > last {
			last = u.StaffCode
		}
	}
	return last, nil
}

func (s userStore) LockStaffCodes(ctx context.Context) error { return nil }

func (s userStore) Create(ctx context.Context, u *models.User) error {
	s.w.users[u.ID] = *u
	return nil
}

func (s userStore) Update(ctx context.Context, u *models.User) error {
	s.w.users[u.ID] = *u
	return nil
}

func (s userStore) Disable(ctx context.Context, id uuid.UUID, actor uuid.UUID) error {
	u := s.w.users[id]
	u.IsActive = false
	stamp(&u.Audit, actor)
	s.w.users[id] = u
	return nil
}

func (s userStore) UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error {
	u := s.w.users[id]
	u.PasswordHash = hash
	u.IsPasswordUpdated = true
	s.w.users[id] = u
	return nil
}

type assignmentStore struct{ w *world }

func (s assignmentStore) join(a models.Assignment) models.Assignment {
	asset := s.w.assets[a.AssetID]
	a.AssetCode, a.AssetName, a.AssetLocation = asset.Code, asset.Name, asset.Location
	a.AssignorUsername = s.w.users[a.AssignorID].Username
	a.AssigneeUsername = s.w.users[a.AssigneeID].Username
	return a
}

func (s assignmentStore) List(ctx context.Context, f database.AssignmentFilter) ([]models.Assignment, int, error) {
	var out []models.Assignment
	for _, a := range s.w.assignments {
		a = s.join(a)
		if a.IsDeleted || a.AssetLocation != f.Location {
			continue
		}
		if f.AssigneeID != nil && a.AssigneeID != *f.AssigneeID {
			continue
		}
		if len(f.States) > 0 && !slices.Contains(f.States, a.State) {
			continue
		}
		if f.AssignedOnOrBefore != nil && a.AssignedDate.After(*f.AssignedOnOrBefore) {
			continue
		}
		out = append(out, a)
	}
	return out, len(out), nil
}

func (s assignmentStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Assignment, error) {
	a, ok := s.w.assignments[id]
	if !ok || a.IsDeleted {
		return nil, nil
	}
	a = s.join(a)
	return &a, nil
}

func (s assignmentStore) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Assignment, error) {
	return s.GetByID(ctx, id)
}

func (s assignmentStore) HasActiveForAsset(ctx context.Context, assetID uuid.UUID, excludeID *uuid.UUID) (bool, error) {
	for _, a := range s.w.assignments {
		if a.IsDeleted || a.AssetID != assetID || !a.State.IsActive() {
			continue
		}
		if excludeID != nil && a.ID == *excludeID {
			continue
		}
		return true, nil
	}
	return false, nil
}

func (s assignmentStore) ExistsForAsset(ctx context.Context, assetID uuid.UUID) (bool, error) {
	for _, a := range s.w.assignments {
		if !a.IsDeleted && a.AssetID == assetID {
			return true, nil
		}
	}
	return false, nil
}

func (s assignmentStore) HasOpenForAssignee(ctx context.Context, userID uuid.UUID) (bool, error) {
	for _, a := range s.w.assignments {
		if !a.IsDeleted && a.AssigneeID == userID && slices.Contains(models.OpenAssignmentStates, a.State) {
			return true, nil
		}
	}
	return false, nil
}

func (s assignmentStore) Create(ctx context.Context, a *models.Assignment) error {
	s.w.assignments[a.ID] = *a
	return nil
}

func (s assignmentStore) Update(ctx context.Context, a *models.Assignment) error {
	s.w.assignments[a.ID] = *a
	return nil
}

func (s assignmentStore) UpdateState(ctx context.Context, id uuid.UUID, state models.AssignmentState, actor uuid.UUID) error {
	a, ok := s.w.assignments[id]
	if !ok {
		return database.ErrNoRowsAffected
	}
	a.State = state
	stamp(&a.Audit, actor)
	s.w.assignments[id] = a
	return nil
}

func (s assignmentStore) SoftDelete(ctx context.Context, id uuid.UUID, actor uuid.UUID) error {
	a := s.w.assignments[id]
	a.IsDeleted = true
	a.DeletedBy = &actor
	s.w.assignments[id] = a
	return nil
}

type returnRequestStore struct{ w *world }

func (s returnRequestStore) join(rr models.ReturnRequest) models.ReturnRequest {
	assignment := s.w.assignments[rr.AssignmentID]
	asset := s.w.assets[assignment.AssetID]
	rr.AssetID, rr.AssetCode, rr.AssetName, rr.AssetLocation = asset.ID, asset.Code, asset.Name, asset.Location
	rr.AssignedDate = assignment.AssignedDate
	rr.RequesterUsername = s.w.users[rr.RequesterID].Username
	if rr.AcceptorID != nil {
		name := s.w.users[*rr.AcceptorID].Username
		rr.AcceptorUsername = &name
	}
	return rr
}

func (s returnRequestStore) List(ctx context.Context, f database.ReturnRequestFilter) ([]models.ReturnRequest, int, error) {
	var out []models.ReturnRequest
	for _, rr := range s.w.requests {
		rr = s.join(rr)
		if !rr.IsDeleted && rr.AssetLocation == f.Location {
			out = append(out, rr)
		}
	}
	return out, len(out), nil
}

func (s returnRequestStore) GetByID(ctx context.Context, id uuid.UUID) (*models.ReturnRequest, error) {
	rr, ok := s.w.requests[id]
	if !ok || rr.IsDeleted {
		return nil, nil
	}
	rr = s.join(rr)
	return &rr, nil
}

func (s returnRequestStore) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.ReturnRequest, error) {
	return s.GetByID(ctx, id)
}

func (s returnRequestStore) HasPendingForAssignment(ctx context.Context, assignmentID uuid.UUID) (bool, error) {
	for _, rr := range s.w.requests {
		if !rr.IsDeleted && rr.AssignmentID == assignmentID && rr.State == models.ReturnRequestStateWaitingForReturning {
			return true, nil
		}
	}
	return false, nil
}

func (s returnRequestStore) Create(ctx context.Context, rr *models.ReturnRequest) error {
	s.w.requests[rr.ID] = *rr
	return nil
}

func (s returnRequestStore) Complete(ctx context.Context, id, acceptor uuid.UUID, returnedDate time.Time) error {
	rr := s.w.requests[id]
	rr.State = models.ReturnRequestStateCompleted
	rr.AcceptorID = &acceptor
	rr.ReturnedDate = &returnedDate
	stamp(&rr.Audit, acceptor)
	s.w.requests[id] = rr
	return nil
}

func (s returnRequestStore) Cancel(ctx context.Context, id, actor uuid.UUID) error {
	rr := s.w.requests[id]
	rr.AcceptorID = &actor
	rr.IsDeleted = true
	rr.DeletedBy = &actor
	s.w.requests[id] = rr
	return nil
}

type reportStore struct{ w *world }

func (s reportStore) CountsByCategory(ctx context.Context, location models.Location) ([]models.ReportRow, error) {
	rows := map[uuid.UUID]*models.ReportRow{}
	for id, c := range s.w.categories {
		rows[id] = &models.ReportRow{Category: c.Name}
	}
	for _, a := range s.w.assets {
		if a.IsDeleted || a.Location != location {
			continue
		}
		row := rows[a.CategoryID]
		row.Total++
		switch a.State {
		case models.AssetStateAssigned:
			row.Assigned++
		case models.AssetStateAvailable:
			row.Available++
		case models.AssetStateNotAvailable:
			row.NotAvailable++
		case models.AssetStateWaitingForRecycling:
			row.WaitingForRecycling++
		case models.AssetStateRecycled:
			row.Recycled++
		}
	}
	out := make([]models.ReportRow, 0, len(rows))
	for _, row := range rows {
		out = append(out, *row)
	}
	return out, nil
}

type auditStore struct{ w *world }

func (s auditStore) Insert(ctx context.Context, entry *models.AuditLog) error {
	if s.w.failAudit != nil {
		return s.w.failAudit
	}
	s.w.audit = append(s.w.audit, *entry)
	return nil
}

type tokenStore struct{ w *world }

func (s tokenStore) Store(ctx context.Context, userID uuid.UUID, token, ipAddress, userAgent string, expiresAt time.Time) error {
	s.w.tokens[token] = models.RefreshToken{ID: uuid.New(), UserID: userID, TokenHash: token, CreatedAt: testNow, ExpiresAt: expiresAt}
	return nil
}

func (s tokenStore) Get(ctx context.Context, token string) (*models.RefreshToken, error) {
	t, ok := s.w.tokens[token]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

func (s tokenStore) Touch(ctx context.Context, token string) error {
	t := s.w.tokens[token]
	now := testNow
	t.LastUsedAt = &now
	s.w.tokens[token] = t
	return nil
}

func (s tokenStore) Revoke(ctx context.Context, token string) error {
	if t, ok := s.w.tokens[token]; ok {
		t.Revoked = true
		s.w.tokens[token] = t
	}
	return nil
}

func (s tokenStore) RevokeAllForUser(ctx context.Context, userID uuid.UUID) error {
	for k, t := range s.w.tokens {
		if t.UserID == userID {
			t.Revoked = true
			s.w.tokens[k] = t
		}
	}
	return nil
}

// services wires every service to one world
type testServices struct {
	w           *world
	assets      *AssetService
	categories  *CategoryService
	users       *UserService
	assignments *AssignmentService
	returns     *ReturnRequestService
	reports     *ReportService
}

func newTestServices() *testServices {
	w := newWorld()
	clock := fixedClock{now: testNow}
	logger := quietLogger()
	return &testServices{
		w:           w,
		assets:      NewAssetService(assetStore{w}, categoryStore{w}, assignmentStore{w}, w, clock, logger),
		categories:  NewCategoryService(categoryStore{w}, clock, logger),
		users:       NewUserService(userStore{w}, assignmentStore{w}, tokenStore{w}, w, clock, 4, logger),
		assignments: NewAssignmentService(assignmentStore{w}, assetStore{w}, userStore{w}, w, clock, logger),
		returns:     NewReturnRequestService(returnRequestStore{w}, assignmentStore{w}, assetStore{w}, w, clock, logger),
		reports:     NewReportService(reportStore{w}, logger),
	}
}
