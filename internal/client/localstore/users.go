package localstore

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/dmitrijs2005/cashtrack/internal/client/models"
	"github.com/dmitrijs2005/cashtrack/internal/client/services"
)

// minPasswordLength mirrors the server's password rule.
const minPasswordLength = 8

type userView struct{ s *Store }

func (s *Store) userIndexLocked(id models.ID) int {
	return slices.IndexFunc(s.users, func(u models.User) bool { return u.ID == id })
}

func (v userView) List(context.Context) (models.Page[models.User], error) {
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()
	if _, err := v.s.requireLocked(models.PermManageUsers); err != nil {
		return models.Page[models.User]{}, err
	}
	users := slices.Clone(v.s.users)
	return models.Page[models.User]{Results: users, Count: len(users)}, nil
}

func (v userView) Get(_ context.Context, id models.ID) (*models.User, error) {
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()
	if _, err := v.s.requireLocked(models.PermManageUsers); err != nil {
		return nil, err
	}
	i := v.s.userIndexLocked(id)
	if i < 0 {
		return nil, notFound("user", id)
	}
	u := v.s.users[i]
	return &u, nil
}

func (v userView) Create(_ context.Context, in models.UserInput) (*models.User, error) {
	if strings.TrimSpace(in.Email) == "" || in.Password == "" {
		return nil, fmt.Errorf("%w: email and password are required", services.ErrInvalidInput)
	}

	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	if _, err := v.s.requireLocked(models.PermManageUsers); err != nil {
		return nil, err
	}
	if slices.ContainsFunc(v.s.users, func(u models.User) bool { return strings.EqualFold(u.Email, in.Email) }) {
		return nil, fmt.Errorf("%w: email %s already in use", services.ErrInvalidInput, in.Email)
	}

	var maxID models.ID
	for _, u := range v.s.users {
		maxID = max(maxID, u.ID)
	}
	created := v.s.now()
	u := models.User{
		ID:        maxID + 1,
		Email:     in.Email,
		Name:      in.Name,
		Role:      in.Role,
		Status:    in.Status,
		CreatedAt: &created,
	}
	if u.Role == "" {
		u.Role = models.RoleUser
	}
	if u.Status == "" {
		u.Status = models.StatusActive
	}
	v.s.users = append(v.s.users, u)
	return &u, nil
}

func (v userView) Update(_ context.Context, id models.ID, in models.UserInput) (*models.User, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	if _, err := v.s.requireLocked(models.PermManageUsers); err != nil {
		return nil, err
	}
	i := v.s.userIndexLocked(id)
	if i < 0 {
		return nil, notFound("user", id)
	}

	u := &v.s.users[i]
	if in.Name != "" {
		u.Name = in.Name
	}
	if in.Role != "" {
		u.Role = in.Role
	}
	if in.Status != "" {
		u.Status = in.Status
	}
	out := *u
	return &out, nil
}

func (v userView) Delete(_ context.Context, id models.ID) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	me, err := v.s.requireLocked(models.PermManageUsers)
	if err != nil {
		return err
	}
	if me.ID == id {
		return fmt.Errorf("%w: cannot delete the logged-in user", services.ErrInvalidInput)
	}
	i := v.s.userIndexLocked(id)
	if i < 0 {
		return notFound("user", id)
	}
	v.s.users = slices.Delete(v.s.users, i, i+1)
	return nil
}

// ChangePassword only validates: the demo store keeps no passwords.
func (v userView) ChangePassword(_ context.Context, id models.ID, password string) error {
	if len(password) < minPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", services.ErrInvalidInput, minPasswordLength)
	}
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()
	if _, err := v.s.requireLocked(models.PermManageUsers); err != nil {
		return err
	}
	if v.s.userIndexLocked(id) < 0 {
		return notFound("user", id)
	}
	return nil
}

func (v userView) ToggleStatus(_ context.Context, id models.ID) (models.UserStatus, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	if _, err := v.s.requireLocked(models.PermManageUsers); err != nil {
		return "", err
	}
	i := v.s.userIndexLocked(id)
	if i < 0 {
		return "", notFound("user", id)
	}
	u := &v.s.users[i]
	if u.Status == models.StatusActive {
		u.Status = models.StatusInactive
	} else {
		u.Status = models.StatusActive
	}
	return u.Status, nil
}
