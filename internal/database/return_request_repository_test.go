package database

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/assetdesk/asset-backend/internal/models"
	"github.com/assetdesk/asset-backend/internal/pagination"
)

var returnRequestRowColumns = []string{
	"id", "assignment_id", "asset_id", "asset_code", "asset_name", "asset_location", "assigned_date",
	"requester_id", "requester_username", "acceptor_id", "acceptor_username",
	"returned_date", "state", "created_at", "created_by", "modified_at", "modified_by", "is_deleted",
}

func TestReturnRequestRepository_List(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewReturnRequestRepository(db)
	returned := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)

	where := `WHERE ast\.location = \$1 AND rr\.is_deleted = false` +
		` AND \(LOWER\(ast\.code\) LIKE \$2 .* OR LOWER\(ast\.name\) LIKE \$3 .* OR LOWER\(req\.username\) LIKE \$4 .*\)` +
		` AND rr\.state = ANY\(\$5\) AND rr\.returned_date::date = \$6::date`
	args := []interface{}{"HCM", "%lap%", "%lap%", "%lap%", `{"WaitingForReturning"}`, "2024-05-10"}

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM return_requests rr .* ` + where + `$`).
		WithArgs(args...).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	mock.ExpectQuery(where + ` ORDER BY ast\.code ASC, rr\.id ASC LIMIT \$7 OFFSET \$8$`).
		WithArgs(append(args, 10, 0)...).
		WillReturnRows(sqlmock.NewRows(returnRequestRowColumns).AddRow(
			uuid.NewString(), uuid.NewString(), uuid.NewString(), "LA000001", "Laptop", "HCM", returned,
			uuid.NewString(), "binhnv", nil, nil,
			nil, "WaitingForReturning", time.Now(), nil, nil, nil, false,
		))

	items, total, err := repo.List(context.Background(), ReturnRequestFilter{
		Location:     models.LocationHCM,
		Search:       "  LAP ",
		States:       []models.ReturnRequestState{models.ReturnRequestStateWaitingForReturning},
		ReturnedDate: &returned,
		Page:         pagination.Params{PageNumber: 1, PageSize: 10},
	})

	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, items, 1)
	assert.Equal(t, "binhnv", items[0].RequesterUsername)
	assert.Equal(t, models.LocationHCM, items[0].AssetLocation)
	assert.Nil(t, items[0].AcceptorID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReturnRequestRepository_ListOtherLocationIsEmpty(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewReturnRequestRepository(db)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM return_requests rr .* WHERE ast\.location = \$1 AND rr\.is_deleted = false$`).
		WithArgs("DN").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	items, total, err := repo.List(context.Background(), ReturnRequestFilter{
		Location: models.LocationDN,
		Page:     pagination.Params{PageNumber: 1, PageSize: 10},
	})

	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, items)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReturnRequestRepository_GetByIDMissing(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewReturnRequestRepository(db)
	id := uuid.New()

	mock.ExpectQuery(`WHERE rr\.id = \$1 AND rr\.is_deleted = false FOR UPDATE OF rr$`).
		WithArgs(id.String()).
		WillReturnError(sql.ErrNoRows)

	request, err := repo.GetByIDForUpdate(context.Background(), id)
	require.NoError(t, err)
	assert.Nil(t, request)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReturnRequestRepository_Complete(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewReturnRequestRepository(db)
	id, acceptor := uuid.New(), uuid.New()
	returned := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)

	mock.ExpectExec(`UPDATE return_requests SET state = \$2, acceptor_id = \$3, returned_date = \$4, modified_at = \$5, modified_by = \$3 WHERE id = \$1 AND is_deleted = false`).
		WithArgs(id.String(), "Completed", acceptor.String(), returned, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Complete(context.Background(), id, acceptor, returned))

	mock.ExpectExec(`UPDATE return_requests SET state`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	err := repo.Complete(context.Background(), id, acceptor, returned)
	assert.ErrorIs(t, err, ErrNoRowsAffected)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReturnRequestRepository_Cancel(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewReturnRequestRepository(db)
	id, actor := uuid.New(), uuid.New()

	mock.ExpectExec(`UPDATE return_requests SET acceptor_id = \$2, is_deleted = true, deleted_at = \$3, deleted_by = \$2 WHERE id = \$1 AND is_deleted = false`).
		WithArgs(id.String(), actor.String(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Cancel(context.Background(), id, actor))
	assert.NoError(t, mock.ExpectationsWereMet())
}
