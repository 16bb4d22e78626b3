package user

import (
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Roles
const (
	RoleAdmin      = "admin"
	RoleAccountant = "accountant"
	RoleStudent    = "student"
)

var StaffRoles = []string{RoleAdmin, RoleAccountant}

// User is a login identity. One per human; created once, mutated by profile
// updates, never deleted; deactivation only flips the active flag.
type User struct {
	ID           string    `json:"id"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Mobile       string    `json:"mobile"`
	Email        string    `json:"email"`
	Role         string    `json:"role"`
	IsActive     bool      `json:"is_active"`
	PasswordHash []byte    `json:"-"`
	CreatedBy    string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"` // UTC
	UpdatedAt    time.Time `json:"updated_at"` // UTC
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

func (u *User) IsStaff() bool {
	return u.Role == RoleAdmin || u.Role == RoleAccountant
}

// NewStaffUser contains information needed to create a back-office account.
type NewStaffUser struct {
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name"`
	Mobile    string `json:"mobile" validate:"required,mobile_in"`
	Email     string `json:"email" validate:"omitempty,email"`
	Role      string `json:"role" validate:"required,oneof=admin accountant"`
	Password  string `json:"password" validate:"required"`
}
