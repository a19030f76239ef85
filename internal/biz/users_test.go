package biz

import (
	"context"
	"testing"

	"xinyuan_tech/directory-service/internal/constants"
	"xinyuan_tech/directory-service/internal/errors"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirectoryUserRole(t *testing.T) {
	u := &DirectoryUser{UnsafeMetadata: map[string]interface{}{"role": "owner"}}
	assert.Equal(t, "owner", u.Role())

	// 未声明角色时缺省为 client
	assert.Equal(t, constants.RoleClient, (&DirectoryUser{}).Role())
	assert.Equal(t, constants.RoleClient, (&DirectoryUser{UnsafeMetadata: map[string]interface{}{"role": ""}}).Role())
	assert.Equal(t, constants.RoleClient, (&DirectoryUser{UnsafeMetadata: map[string]interface{}{"role": 7}}).Role())
}

func TestDirectoryUserGender(t *testing.T) {
	u := &DirectoryUser{UnsafeMetadata: map[string]interface{}{"gender": "male"}}
	assert.Equal(t, "male", u.Gender())
	assert.Equal(t, "", (&DirectoryUser{}).Gender())
}

func TestUserUsecaseGetUser(t *testing.T) {
	directory := newFakeDirectoryClient()
	directory.users["user_1"] = &DirectoryUser{ID: "user_1", FirstName: "An"}
	uc := NewUserUsecase(directory, log.DefaultLogger)

	u, err := uc.GetUser(context.Background(), "user_1")
	require.NoError(t, err)
	assert.Equal(t, "An", u.FirstName)

	_, err = uc.GetUser(context.Background(), "ghost")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeUserNotFound))
}

func TestUserUsecaseListUsersDefaults(t *testing.T) {
	directory := newFakeDirectoryClient()
	directory.users["user_1"] = &DirectoryUser{ID: "user_1"}
	uc := NewUserUsecase(directory, log.DefaultLogger)

	users, err := uc.ListUsers(context.Background(), 0, -5)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}
