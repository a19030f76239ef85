package biz

import (
	"context"

	"xinyuan_tech/directory-service/internal/constants"
	"xinyuan_tech/directory-service/internal/errors"

	"github.com/go-kratos/kratos/v2/log"
)

// UserUsecase 用户目录透传查询
type UserUsecase struct {
	directory DirectoryClient
	log       *log.Helper
}

func NewUserUsecase(directory DirectoryClient, logger log.Logger) *UserUsecase {
	return &UserUsecase{
		directory: directory,
		log:       log.NewHelper(logger),
	}
}

// ListUsers 分页获取用户列表
func (uc *UserUsecase) ListUsers(ctx context.Context, limit, offset int) ([]*DirectoryUser, error) {
	if limit < 1 {
		limit = constants.DefaultUserListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return uc.directory.ListUsers(ctx, limit, offset)
}

// GetUser 获取单个用户
func (uc *UserUsecase) GetUser(ctx context.Context, userID string) (*DirectoryUser, error) {
	user, err := uc.directory.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, errors.New(errors.ErrCodeUserNotFound, "User not found")
	}
	return user, nil
}

// Role 从 unsafe metadata 推导用户角色，缺省为 client
func (u *DirectoryUser) Role() string {
	if u.UnsafeMetadata != nil {
		if role, ok := u.UnsafeMetadata["role"].(string); ok && role != "" {
			return role
		}
	}
	return constants.RoleClient
}

// Gender 从 unsafe metadata 读取性别
func (u *DirectoryUser) Gender() string {
	if u.UnsafeMetadata != nil {
		if gender, ok := u.UnsafeMetadata["gender"].(string); ok {
			return gender
		}
	}
	return ""
}
