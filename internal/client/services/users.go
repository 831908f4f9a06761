package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/cashtrack/internal/client/models"
)

type UserService interface {
	List(ctx context.Context) (models.Page[models.User], error)
	Get(ctx context.Context, id models.ID) (*models.User, error)
	Create(ctx context.Context, in models.UserInput) (*models.User, error)
	Update(ctx context.Context, id models.ID, in models.UserInput) (*models.User, error)
	Delete(ctx context.Context, id models.ID) error
	ChangePassword(ctx context.Context, id models.ID, password string) error
	ToggleStatus(ctx context.Context, id models.ID) (models.UserStatus, error)
}

type userService struct {
	api API
}

func NewUserService(api API) UserService {
	return &userService{api: api}
}

func userPath(id models.ID) string {
	return fmt.Sprintf("/auth/users/%d/", id)
}

func (s *userService) List(ctx context.Context) (models.Page[models.User], error) {
	var page models.Page[models.User]
	if err := s.api.Get(ctx, "/auth/users/", nil, &page); err != nil {
		return page, fmt.Errorf("list users: %w", err)
	}
	return page, nil
}

func (s *userService) Get(ctx context.Context, id models.ID) (*models.User, error) {
	var u models.User
	if err := s.api.Get(ctx, userPath(id), nil, &u); err != nil {
		return nil, fmt.Errorf("get user %d: %w", id, err)
	}
	return &u, nil
}

func (s *userService) Create(ctx context.Context, in models.UserInput) (*models.User, error) {
	if strings.TrimSpace(in.Email) == "" || in.Password == "" {
		return nil, invalid("email and password are required")
	}
	var u models.User
	if err := s.api.Post(ctx, "/auth/users/", in, &u); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return &u, nil
}

// Update changes name, role and status. Email and password are not
// updatable here.
func (s *userService) Update(ctx context.Context, id models.ID, in models.UserInput) (*models.User, error) {
	in.Email, in.Password = "", ""
	var u models.User
	if err := s.api.Patch(ctx, userPath(id), in, &u); err != nil {
		return nil, fmt.Errorf("update user %d: %w", id, err)
	}
	return &u, nil
}

func (s *userService) Delete(ctx context.Context, id models.ID) error {
	if err := s.api.Delete(ctx, userPath(id)); err != nil {
		return fmt.Errorf("delete user %d: %w", id, err)
	}
	return nil
}

func (s *userService) ChangePassword(ctx context.Context, id models.ID, password string) error {
	if password == "" {
		return invalid("password is required")
	}
	path := userPath(id) + "change-password/"
	if err := s.api.Post(ctx, path, map[string]string{"password": password}, nil); err != nil {
		return fmt.Errorf("change password of user %d: %w", id, err)
	}
	return nil
}

func (s *userService) ToggleStatus(ctx context.Context, id models.ID) (models.UserStatus, error) {
	var out struct {
		Status models.UserStatus `json:"status"`
	}
	if err := s.api.Post(ctx, userPath(id)+"toggle-status/", nil, &out); err != nil {
		return "", fmt.Errorf("toggle status of user %d: %w", id, err)
	}
	return out.Status, nil
}
