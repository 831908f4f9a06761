package models

import "time"

type Role string

const (
	RoleAdmin    Role = "admin"
	RoleUser     Role = "user"
	RoleReadonly Role = "readonly"
)

type UserStatus string

const (
	StatusActive   UserStatus = "active"
	StatusInactive UserStatus = "inactive"
)

type User struct {
	ID          ID         `json:"id"`
	Email       string     `json:"email"`
	Name        string     `json:"name,omitempty"`
	Role        Role       `json:"role,omitempty"`
	Status      UserStatus `json:"status,omitempty"`
	CreatedAt   *time.Time `json:"created_at,omitempty"`
	IsSuperuser bool       `json:"is_superuser,omitempty"`
}

// DisplayName is the name when set, the email otherwise.
func (u User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}

func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin || u.IsSuperuser
}

// Can reports whether the user's role grants p.
func (u User) Can(p Permission) bool {
	if u.IsSuperuser {
		return true
	}
	return u.Role.Can(p)
}

// UserInput is the create/update payload. Password is only honoured on
// creation; use the change-password endpoint afterwards.
type UserInput struct {
	Email    string     `json:"email,omitempty"`
	Password string     `json:"password,omitempty"`
	Name     string     `json:"name,omitempty"`
	Role     Role       `json:"role,omitempty"`
	Status   UserStatus `json:"status,omitempty"`
}

// LoginResponse is returned by the login endpoint.
type LoginResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
	User    User   `json:"user"`
}
