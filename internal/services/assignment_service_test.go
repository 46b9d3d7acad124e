package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/assetdesk/asset-backend/internal/apperrors"
	"github.com/assetdesk/asset-backend/internal/models"
	"github.com/assetdesk/asset-backend/internal/pagination"
)

type assignmentFixture struct {
	s     *testServices
	admin models.User
	staff models.User
	cat   models.Category
	asset models.Asset
}

func newAssignmentFixture() *assignmentFixture {
	s := newTestServices()
	cat := s.w.addCategory("Laptop", "LA")
	return &assignmentFixture{
		s:     s,
		admin: s.w.addUser("admin", models.UserTypeAdmin, models.LocationHCM),
		staff: s.w.addUser("staff", models.UserTypeStaff, models.LocationHCM),
		cat:   cat,
		asset: s.w.addAsset("LA000001", cat, models.AssetStateAvailable, models.LocationHCM),
	}
}

func (f *assignmentFixture) assign(t *testing.T, asset models.Asset, assignee models.User, date string) *models.Assignment {
	t.Helper()
	created, err := f.s.assignments.Create(context.Background(), callerOf(f.admin), models.CreateAssignmentRequest{
		AssetID:      asset.ID.String(),
		AssigneeID:   assignee.ID.String(),
		AssignedDate: date,
	})
	require.NoError(t, err)
	return created
}

func (f *assignmentFixture) accepted(t *testing.T) *models.Assignment {
	t.Helper()
	created := f.assign(t, f.asset, f.staff, "2024-03-13")
	accepted, err := f.s.assignments.Accept(context.Background(), callerOf(f.staff), created.ID)
	require.NoError(t, err)
	return accepted
}

func TestAssignmentLifecycle_EndToEnd(t *testing.T) {
	ctx := context.Background()
	f := newAssignmentFixture()
	w := f.s.w

	created, err := f.s.assignments.Create(ctx, callerOf(f.admin), models.CreateAssignmentRequest{
		AssetID:      f.asset.ID.String(),
		AssigneeID:   f.staff.ID.String(),
		AssignedDate: "2024-03-13",
		Note:         "  for onboarding ",
	})
	require.NoError(t, err)
	assert.Equal(t, models.AssignmentStateWaitingForAcceptance, created.State)
	assert.Equal(t, "LA000001", created.AssetCode)
	assert.Equal(t, "staff", created.AssigneeUsername)
	assert.Equal(t, "admin", created.AssignorUsername)
	assert.Equal(t, "for onboarding", created.Note)
	assert.Equal(t, models.AssetStateAssigned, w.asset(t, f.asset.ID).State)

	accepted, err := f.s.assignments.Accept(ctx, callerOf(f.staff), created.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AssignmentStateAccepted, accepted.State)

	rr, err := f.s.returns.Create(ctx, callerOf(f.staff), models.CreateReturnRequestRequest{AssignmentID: created.ID.String()})
	require.NoError(t, err)
	assert.Equal(t, models.ReturnRequestStateWaitingForReturning, rr.State)
	assert.Equal(t, "staff", rr.RequesterUsername)
	assert.Equal(t, models.AssignmentStateWaitingForReturning, w.assignment(t, created.ID).State)
	assert.Equal(t, models.AssetStateAssigned, w.asset(t, f.asset.ID).State)

	done, err := f.s.returns.Complete(ctx, callerOf(f.admin), rr.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReturnRequestStateCompleted, done.State)
	require.NotNil(t, done.ReturnedDate)
	assert.Equal(t, time.Date(2024, 3, 13, 0, 0, 0, 0, time.UTC), *done.ReturnedDate)
	require.NotNil(t, done.AcceptorUsername)
	assert.Equal(t, "admin", *done.AcceptorUsername)
	assert.Equal(t, models.AssignmentStateReturned, w.assignment(t, created.ID).State)
	assert.Equal(t, models.AssetStateAvailable, w.asset(t, f.asset.ID).State)

	// The returned asset can be handed out again
	f.assign(t, f.asset, f.staff, "2024-03-14")
}

func TestCreateAssignment_AccumulatesFieldErrors(t *testing.T) {
	f := newAssignmentFixture()

	_, err := f.s.assignments.Create(context.Background(), callerOf(f.admin), models.CreateAssignmentRequest{
		AssetID:      uuid.NewString(),
		AssigneeID:   "not-an-id",
		AssignedDate: "2024-03-12",
	})

	appErr := requireKind(t, err, apperrors.KindValidation)
	assert.ElementsMatch(t, []string{"assetId", "assigneeId", "assignedDate"}, fieldNames(appErr))
	assert.Equal(t, "Asset does not exist in your location", fieldMessageOf(appErr, "assetId"))
	assert.Empty(t, f.s.w.assignments)
}

func TestCreateAssignment_RequiresFields(t *testing.T) {
	f := newAssignmentFixture()

	_, err := f.s.assignments.Create(context.Background(), callerOf(f.admin), models.CreateAssignmentRequest{})

	appErr := requireKind(t, err, apperrors.KindValidation)
	assert.ElementsMatch(t, []string{"assetId", "assigneeId", "assignedDate"}, fieldNames(appErr))
}

func TestCreateAssignment_AssetAlreadyAssigned(t *testing.T) {
	f := newAssignmentFixture()
	other := f.s.w.addUser("other", models.UserTypeStaff, models.LocationHCM)
	f.assign(t, f.asset, f.staff, "2024-03-13")

	_, err := f.s.assignments.Create(context.Background(), callerOf(f.admin), models.CreateAssignmentRequest{
		AssetID:      f.asset.ID.String(),
		AssigneeID:   other.ID.String(),
		AssignedDate: "2024-03-13",
	})

	appErr := requireKind(t, err, apperrors.KindValidation)
	assert.Equal(t, []string{"assetId"}, fieldNames(appErr))
	assert.Len(t, f.s.w.assignments, 1)
}

func TestCreateAssignment_OutsideCallerLocation(t *testing.T) {
	f := newAssignmentFixture()
	remoteAsset := f.s.w.addAsset("LA000002", f.cat, models.AssetStateAvailable, models.LocationHN)
	remoteStaff := f.s.w.addUser("remote", models.UserTypeStaff, models.LocationHN)
	disabled := f.s.w.addUser("gone", models.UserTypeStaff, models.LocationHCM)
	u := f.s.w.users[disabled.ID]
	u.IsActive = false
	f.s.w.users[disabled.ID] = u

	for name, req := range map[string]models.CreateAssignmentRequest{
		"asset":    {AssetID: remoteAsset.ID.String(), AssigneeID: f.staff.ID.String(), AssignedDate: "2024-03-13"},
		"assignee": {AssetID: f.asset.ID.String(), AssigneeID: remoteStaff.ID.String(), AssignedDate: "2024-03-13"},
		"disabled": {AssetID: f.asset.ID.String(), AssigneeID: disabled.ID.String(), AssignedDate: "2024-03-13"},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := f.s.assignments.Create(context.Background(), callerOf(f.admin), req)
			requireKind(t, err, apperrors.KindValidation)
		})
	}
	assert.Equal(t, models.AssetStateAvailable, f.s.w.asset(t, f.asset.ID).State)
}

func TestCreateAssignment_RollsBackOnFailure(t *testing.T) {
	f := newAssignmentFixture()
	f.s.w.failAssetState = errInjected

	_, err := f.s.assignments.Create(context.Background(), callerOf(f.admin), models.CreateAssignmentRequest{
		AssetID:      f.asset.ID.String(),
		AssigneeID:   f.staff.ID.String(),
		AssignedDate: "2024-03-13",
	})

	assert.ErrorIs(t, err, errInjected)
	assert.Empty(t, f.s.w.assignments)
}

func TestRespondToAssignment(t *testing.T) {
	ctx := context.Background()

	t.Run("only the assignee", func(t *testing.T) {
		f := newAssignmentFixture()
		created := f.assign(t, f.asset, f.staff, "2024-03-13")

		_, err := f.s.assignments.Accept(ctx, callerOf(f.admin), created.ID)
		requireKind(t, err, apperrors.KindForbidden)
	})

	t.Run("only while waiting", func(t *testing.T) {
		f := newAssignmentFixture()
		accepted := f.accepted(t)

		_, err := f.s.assignments.Accept(ctx, callerOf(f.staff), accepted.ID)
		requireKind(t, err, apperrors.KindConflict)
		_, err = f.s.assignments.Decline(ctx, callerOf(f.staff), accepted.ID)
		requireKind(t, err, apperrors.KindConflict)
	})

	t.Run("decline frees the asset", func(t *testing.T) {
		f := newAssignmentFixture()
		created := f.assign(t, f.asset, f.staff, "2024-03-13")

		declined, err := f.s.assignments.Decline(ctx, callerOf(f.staff), created.ID)
		require.NoError(t, err)
		assert.Equal(t, models.AssignmentStateDeclined, declined.State)
		assert.Equal(t, models.AssetStateAvailable, f.s.w.asset(t, f.asset.ID).State)
	})
}

func TestUpdateAssignment(t *testing.T) {
	ctx := context.Background()

	t.Run("asset swap", func(t *testing.T) {
		f := newAssignmentFixture()
		replacement := f.s.w.addAsset("LA000002", f.cat, models.AssetStateAvailable, models.LocationHCM)
		created := f.assign(t, f.asset, f.staff, "2024-03-13")

		newID := replacement.ID.String()
		updated, err := f.s.assignments.Update(ctx, callerOf(f.admin), created.ID, models.UpdateAssignmentRequest{AssetID: &newID})
		require.NoError(t, err)
		assert.Equal(t, "LA000002", updated.AssetCode)
		assert.Equal(t, models.AssetStateAvailable, f.s.w.asset(t, f.asset.ID).State)
		assert.Equal(t, models.AssetStateAssigned, f.s.w.asset(t, replacement.ID).State)
	})

	t.Run("date cannot move back", func(t *testing.T) {
		f := newAssignmentFixture()
		created := f.assign(t, f.asset, f.staff, "2024-03-20")

		earlier := "2024-03-15"
		_, err := f.s.assignments.Update(ctx, callerOf(f.admin), created.ID, models.UpdateAssignmentRequest{AssignedDate: &earlier})
		appErr := requireKind(t, err, apperrors.KindValidation)
		assert.Equal(t, []string{"assignedDate"}, fieldNames(appErr))
		assert.Equal(t, time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC), f.s.w.assignment(t, created.ID).AssignedDate)
	})

	t.Run("only while waiting", func(t *testing.T) {
		f := newAssignmentFixture()
		accepted := f.accepted(t)

		note := "late edit"
		_, err := f.s.assignments.Update(ctx, callerOf(f.admin), accepted.ID, models.UpdateAssignmentRequest{Note: &note})
		requireKind(t, err, apperrors.KindConflict)
	})
}

func TestDeleteAssignment(t *testing.T) {
	ctx := context.Background()

	t.Run("waiting assignment frees asset", func(t *testing.T) {
		f := newAssignmentFixture()
		created := f.assign(t, f.asset, f.staff, "2024-03-13")

		require.NoError(t, f.s.assignments.Delete(ctx, callerOf(f.admin), created.ID))
		assert.True(t, f.s.w.assignment(t, created.ID).IsDeleted)
		assert.Equal(t, models.AssetStateAvailable, f.s.w.asset(t, f.asset.ID).State)
	})

	t.Run("accepted assignment is kept", func(t *testing.T) {
		f := newAssignmentFixture()
		accepted := f.accepted(t)

		err := f.s.assignments.Delete(ctx, callerOf(f.admin), accepted.ID)
		requireKind(t, err, apperrors.KindConflict)
		assert.False(t, f.s.w.assignment(t, accepted.ID).IsDeleted)
	})

	t.Run("other location", func(t *testing.T) {
		f := newAssignmentFixture()
		created := f.assign(t, f.asset, f.staff, "2024-03-13")
		remoteAdmin := f.s.w.addUser("hnadmin", models.UserTypeAdmin, models.LocationHN)

		err := f.s.assignments.Delete(ctx, callerOf(remoteAdmin), created.ID)
		requireKind(t, err, apperrors.KindNotFound)
	})
}

func TestGetAssignment_Visibility(t *testing.T) {
	ctx := context.Background()
	f := newAssignmentFixture()
	created := f.assign(t, f.asset, f.staff, "2024-03-13")
	colleague := f.s.w.addUser("colleague", models.UserTypeStaff, models.LocationHCM)
	remoteAdmin := f.s.w.addUser("hnadmin", models.UserTypeAdmin, models.LocationHN)

	_, err := f.s.assignments.Get(ctx, callerOf(f.admin), created.ID)
	assert.NoError(t, err)
	_, err = f.s.assignments.Get(ctx, callerOf(f.staff), created.ID)
	assert.NoError(t, err)

	_, err = f.s.assignments.Get(ctx, callerOf(colleague), created.ID)
	requireKind(t, err, apperrors.KindNotFound)
	_, err = f.s.assignments.Get(ctx, callerOf(remoteAdmin), created.ID)
	requireKind(t, err, apperrors.KindNotFound)
}

func TestListAssignments_ScopedToLocation(t *testing.T) {
	ctx := context.Background()
	f := newAssignmentFixture()
	f.assign(t, f.asset, f.staff, "2024-03-13")
	remoteAdmin := f.s.w.addUser("hnadmin", models.UserTypeAdmin, models.LocationHN)

	page, err := f.s.assignments.List(ctx, callerOf(remoteAdmin), models.AssignmentListRequest{
		ListRequest: models.ListRequest{Page: pagination.NewParams(1, 10, 10, 50)},
	})
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.Equal(t, 0, page.Metadata.TotalItems)

	page, err = f.s.assignments.List(ctx, callerOf(f.admin), models.AssignmentListRequest{
		ListRequest: models.ListRequest{Page: pagination.NewParams(1, 10, 10, 50)},
	})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, 1, page.Items[0].No)
}

func TestListAssignments_InvalidDateFilter(t *testing.T) {
	f := newAssignmentFixture()

	_, err := f.s.assignments.List(context.Background(), callerOf(f.admin), models.AssignmentListRequest{AssignedDate: "someday"})
	requireKind(t, err, apperrors.KindValidation)
}

func TestListMine_SkipsFutureAndOthers(t *testing.T) {
	ctx := context.Background()
	f := newAssignmentFixture()
	other := f.s.w.addUser("other", models.UserTypeStaff, models.LocationHCM)
	second := f.s.w.addAsset("LA000002", f.cat, models.AssetStateAvailable, models.LocationHCM)
	third := f.s.w.addAsset("LA000003", f.cat, models.AssetStateAvailable, models.LocationHCM)

	today := f.assign(t, f.asset, f.staff, "2024-03-13")
	f.assign(t, second, f.staff, "2024-03-20")
	f.assign(t, third, other, "2024-03-13")

	page, err := f.s.assignments.ListMine(ctx, callerOf(f.staff), models.ListRequest{Page: pagination.NewParams(1, 10, 10, 50)})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, today.ID, page.Items[0].ID)
}
