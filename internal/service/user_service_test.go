package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JusticeBelleza/apdms-portal-sub000/internal/dto"
	"github.com/JusticeBelleza/apdms-portal-sub000/internal/models"
	appErrors "github.com/JusticeBelleza/apdms-portal-sub000/pkg/errors"
)

type mockUserRepo struct {
	users      map[string]*models.User
	listErr    error
	lastFilter models.UserFilter
}

func (m *mockUserRepo) List(_ context.Context, filter models.UserFilter) ([]models.User, int, error) {
	m.lastFilter = filter
	if m.listErr != nil {
		return nil, 0, m.listErr
	}
	var users []models.User
	for _, u := range m.users {
		if filter.Role != nil && u.Role != *filter.Role {
			continue
		}
		users = append(users, *u)
	}
	return users, len(users), nil
}

func (m *mockUserRepo) FindByID(_ context.Context, id string) (*models.User, error) {
	if user, ok := m.users[id]; ok {
		copy := *user
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func newUserRepoFixture() *mockUserRepo {
	return &mockUserRepo{users: map[string]*models.User{
		"u1": {ID: "u1", Email: "nurse@bangued.example", Role: models.RoleFacilityUser, FacilityID: strPtr("fac-1"), Active: true},
		"u2": {ID: "u2", Email: "pho@abra.example", Role: models.RolePHOUser, Active: true},
	}}
}

func TestUserServiceList(t *testing.T) {
	repo := newUserRepoFixture()
	svc := NewUserService(repo, nil, nil)

	_, _, err := svc.List(context.Background(), dto.UserListQuery{Role: "FACILITY_USER", PageSize: 500})
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	users, page, err := svc.List(context.Background(), dto.UserListQuery{Role: "FACILITY_USER"})
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "u1", users[0].ID)
	require.NotNil(t, repo.lastFilter.Role)
	assert.Equal(t, models.RoleFacilityUser, *repo.lastFilter.Role)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 20, page.PageSize)
	assert.Equal(t, 1, page.TotalCount)
}

func TestUserServiceListRejectsUnknownRole(t *testing.T) {
	svc := NewUserService(newUserRepoFixture(), nil, nil)
	_, _, err := svc.List(context.Background(), dto.UserListQuery{Role: "TEACHER"})
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestUserServiceListRepositoryError(t *testing.T) {
	repo := newUserRepoFixture()
	repo.listErr = errors.New("connection reset")
	svc := NewUserService(repo, nil, nil)

	_, _, err := svc.List(context.Background(), dto.UserListQuery{})
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)
}

func TestUserServiceGet(t *testing.T) {
	svc := NewUserService(newUserRepoFixture(), nil, nil)

	user, err := svc.Get(context.Background(), "u2")
	require.NoError(t, err)
	assert.Equal(t, models.RolePHOUser, user.Role)

	_, err = svc.Get(context.Background(), "missing")
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
