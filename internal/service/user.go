package service

import (
	"xinyuan_tech/directory-service/internal/biz"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/transport/http"
)

// UserService 外部用户目录查询 HTTP 接口
type UserService struct {
	uc  *biz.UserUsecase
	log *log.Helper
}

func NewUserService(uc *biz.UserUsecase, logger log.Logger) *UserService {
	return &UserService{
		uc:  uc,
		log: log.NewHelper(logger),
	}
}

// userBody 用户画像的对外表示
type userBody struct {
	ID           string `json:"id"`
	Email        string `json:"email,omitempty"`
	Username     string `json:"username,omitempty"`
	FullName     string `json:"fullName"`
	ImageURL     string `json:"imageUrl,omitempty"`
	Role         string `json:"role"`
	Gender       string `json:"gender,omitempty"`
	CreatedAt    int64  `json:"createdAt"`
	LastSignInAt int64  `json:"lastSignInAt,omitempty"`
}

func toUserBody(u *biz.DirectoryUser) *userBody {
	fullName := u.FirstName
	if u.LastName != "" {
		if fullName != "" {
			fullName += " "
		}
		fullName += u.LastName
	}
	return &userBody{
		ID:           u.ID,
		Email:        u.Email,
		Username:     u.Username,
		FullName:     fullName,
		ImageURL:     u.ImageURL,
		Role:         u.Role(),
		Gender:       u.Gender(),
		CreatedAt:    u.CreatedAt,
		LastSignInAt: u.LastSignInAt,
	}
}

// List GET /clerk/users 分页获取用户列表
func (s *UserService) List(ctx http.Context) error {
	users, err := s.uc.ListUsers(ctx, queryInt(ctx, "limit"), queryInt(ctx, "offset"))
	if err != nil {
		return err
	}
	bodies := make([]*userBody, len(users))
	for i, u := range users {
		bodies[i] = toUserBody(u)
	}
	return ctx.JSON(200, map[string]interface{}{
		"users": bodies,
		"count": len(bodies),
	})
}

// Get GET /clerk/users/{userId} 获取单个用户
func (s *UserService) Get(ctx http.Context) error {
	user, err := s.uc.GetUser(ctx, ctx.Vars().Get("userId"))
	if err != nil {
		return err
	}
	return ctx.JSON(200, toUserBody(user))
}
