package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/instacad/backoffice/core"
	"github.com/instacad/backoffice/core/user"
)

const userColumns = `id, first_name, last_name, mobile, email, role, is_active, password_hash, created_by, created_at, updated_at`

type userRepository struct {
	repository
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(exec core.DBExecutor) *userRepository {
	return &userRepository{repository{exec: exec}}
}

type userRow struct {
	ID           string      `db:"id"`
	FirstName    string      `db:"first_name"`
	LastName     string      `db:"last_name"`
	Mobile       string      `db:"mobile"`
	Email        null.String `db:"email"`
	Role         string      `db:"role"`
	IsActive     bool        `db:"is_active"`
	PasswordHash []byte      `db:"password_hash"`
	CreatedBy    null.String `db:"created_by"`
	CreatedAt    time.Time   `db:"created_at"`
	UpdatedAt    time.Time   `db:"updated_at"`
}

func (repo userRepository) row(usr user.User) userRow {
	return userRow{
		ID:           usr.ID,
		FirstName:    usr.FirstName,
		LastName:     usr.LastName,
		Mobile:       usr.Mobile,
		Email:        null.NewString(usr.Email, usr.Email != ""),
		Role:         usr.Role,
		IsActive:     usr.IsActive,
		PasswordHash: usr.PasswordHash,
		CreatedBy:    null.NewString(usr.CreatedBy, usr.CreatedBy != ""),
		CreatedAt:    usr.CreatedAt.UTC(),
		UpdatedAt:    usr.UpdatedAt.UTC(),
	}
}

func (repo userRepository) unrow(r userRow) user.User {
	return user.User{
		ID:           r.ID,
		FirstName:    r.FirstName,
		LastName:     r.LastName,
		Mobile:       r.Mobile,
		Email:        r.Email.String,
		Role:         r.Role,
		IsActive:     r.IsActive,
		PasswordHash: r.PasswordHash,
		CreatedBy:    r.CreatedBy.String,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

// trapNoRowsErr maps psql "no rows" err to user.ErrNotFound
func (repo userRepository) trapNoRowsErr(err error, msg string) error {
	if errors.Cause(err) == sql.ErrNoRows {
		return user.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo userRepository) GetUserByID(ctx context.Context, id string, exec ...core.DBExecutor) (user.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return user.User{}, user.ErrNotFound
	}
	var r userRow
	q := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	if err := repo.getExec(exec).GetContext(ctx, &r, q, id); err != nil {
		return user.User{}, repo.trapNoRowsErr(err, "finding user by ID")
	}
	return repo.unrow(r), nil
}

func (repo userRepository) GetUserByMobile(ctx context.Context, mobile string, exec ...core.DBExecutor) (user.User, error) {
	var r userRow
	q := `SELECT ` + userColumns + ` FROM users WHERE mobile = $1`
	if err := repo.getExec(exec).GetContext(ctx, &r, q, mobile); err != nil {
		return user.User{}, repo.trapNoRowsErr(err, "finding user by mobile")
	}
	return repo.unrow(r), nil
}

func (repo userRepository) CreateUser(ctx context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	usr.ID = uuid.New().String()
	r := repo.row(usr)
	q := `
INSERT INTO users (` + userColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := repo.getExec(exec).ExecContext(ctx, q,
		r.ID, r.FirstName, r.LastName, r.Mobile, r.Email, r.Role, r.IsActive, r.PasswordHash, r.CreatedBy, r.CreatedAt, r.UpdatedAt)
	if err != nil {
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return usr, nil
}

func (repo userRepository) UpdateOrCreateUser(ctx context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	existing, err := repo.GetUserByMobile(ctx, usr.Mobile, exec...)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return repo.CreateUser(ctx, usr, exec...)
		}
		return user.User{}, err
	}

	usr.ID = existing.ID
	usr.CreatedAt = existing.CreatedAt
	r := repo.row(usr)
	q := `
UPDATE users
SET first_name = $2, last_name = $3, email = $4, role = $5, is_active = $6, password_hash = $7, updated_at = $8
WHERE id = $1`
	_, err = repo.getExec(exec).ExecContext(ctx, q,
		r.ID, r.FirstName, r.LastName, r.Email, r.Role, r.IsActive, r.PasswordHash, r.UpdatedAt)
	if err != nil {
		return user.User{}, errors.Wrap(err, "updating user")
	}
	return usr, nil
}

func (repo userRepository) SetUserActive(ctx context.Context, id string, isActive bool, exec ...core.DBExecutor) error {
	res, err := repo.getExec(exec).ExecContext(ctx,
		`UPDATE users SET is_active = $2, updated_at = $3 WHERE id = $1`,
		id, isActive, time.Now().UTC())
	if err != nil {
		return errors.Wrap(err, "updating user active flag")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return user.ErrNotFound
	}
	return nil
}
