package domain

import (
	"errors"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailAlreadyExists = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidEmail       = errors.New("invalid email format")
	ErrPasswordTooShort   = errors.New("password must be at least 8 characters long")
	ErrUserNameEmpty      = errors.New("name cannot be empty")
	ErrInvalidRole        = errors.New("invalid role (must be developer or manager)")
	ErrManagerRequired    = errors.New("developers must reference a manager")
	ErrInvalidManager     = errors.New("referenced manager does not exist or is not a manager")
	ErrWrongPassword      = errors.New("current password is incorrect")
	ErrNotDeveloper       = errors.New("only developers can be reassigned")
)

type Role string

const (
	RoleDeveloper Role = "developer"
	RoleManager   Role = "manager"
)

type Preferences struct {
	EmailNotifications    bool `json:"email_notifications" db:"email_notifications"`
	RealtimeNotifications bool `json:"realtime_notifications" db:"realtime_notifications"`
}

type User struct {
	ID            string      `json:"id" db:"id"`
	Email         string      `json:"email" db:"email"`
	Name          string      `json:"name" db:"name"`
	PasswordHash  string      `json:"-" db:"password_hash"`
	Role          Role        `json:"role" db:"role"`
	ManagerID     *string     `json:"manager_id,omitempty" db:"manager_id"`
	Team          string      `json:"team,omitempty" db:"team"`
	Preferences   Preferences `json:"preferences"`
	LogStreak     int         `json:"log_streak" db:"log_streak"`
	LongestStreak int         `json:"longest_streak" db:"longest_streak"`
	LastActive    time.Time   `json:"last_active" db:"last_active"`
	CreatedAt     time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at" db:"updated_at"`
}

func NewUser(id, email, name string, role Role, managerID string) (*User, error) {
	email = strings.TrimSpace(email)
	if !isValidEmail(email) {
		return nil, ErrInvalidEmail
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrUserNameEmpty
	}

	var mgr *string
	switch role {
	case RoleDeveloper:
		managerID = strings.TrimSpace(managerID)
		if managerID == "" {
			return nil, ErrManagerRequired
		}
		mgr = &managerID
	case RoleManager:
	default:
		return nil, ErrInvalidRole
	}

	now := time.Now().UTC()
	return &User{
		ID:        id,
		Email:     strings.ToLower(email),
		Name:      name,
		Role:      role,
		ManagerID: mgr,
		Preferences: Preferences{
			EmailNotifications:    true,
			RealtimeNotifications: true,
		},
		LastActive: now,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

func (u *User) SetPassword(plainPassword string) error {
	if utf8.RuneCountInString(plainPassword) < 8 {
		return ErrPasswordTooShort
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(plainPassword), 12)
	if err != nil {
		return err
	}

	u.PasswordHash = string(hash)
	u.UpdatedAt = time.Now().UTC()
	return nil
}

func (u *User) CheckPassword(plainPassword string) error {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(plainPassword))
}

func (u *User) Rename(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrUserNameEmpty
	}
	u.Name = name
	u.UpdatedAt = time.Now().UTC()
	return nil
}

func (u *User) ChangePassword(current, next string) error {
	if err := u.CheckPassword(current); err != nil {
		return ErrWrongPassword
	}
	return u.SetPassword(next)
}

// AssignManager moves a developer under another manager.
func (u *User) AssignManager(managerID, team string) error {
	if u.Role != RoleDeveloper {
		return ErrNotDeveloper
	}
	managerID = strings.TrimSpace(managerID)
	if managerID == "" {
		return ErrManagerRequired
	}
	u.ManagerID = &managerID
	u.Team = strings.TrimSpace(team)
	u.UpdatedAt = time.Now().UTC()
	return nil
}

func (u *User) IsManager() bool {
	return u.Role == RoleManager
}

func (u *User) ManagedBy(managerID string) bool {
	return u.ManagerID != nil && *u.ManagerID == managerID
}

func (u *User) UpdateStreak(current, longest int) {
	u.LogStreak = current
	u.LongestStreak = longest
	u.UpdatedAt = time.Now().UTC()
}

func isValidEmail(email string) bool {
	_, err := mail.ParseAddress(email)
	return err == nil
}
