package user

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	pkgerrors "github.com/pkg/errors"

	"github.com/instacad/backoffice/core"
)

var (
	// errors
	ErrNotFound = pkgerrors.New("user not found")
)

type (
	Repository interface {
		GetUserByID(ctx context.Context, id string, exec ...core.DBExecutor) (User, error)
		GetUserByMobile(ctx context.Context, mobile string, exec ...core.DBExecutor) (User, error)
		CreateUser(ctx context.Context, usr User, exec ...core.DBExecutor) (User, error)
		// UpdateOrCreateUser matches on mobile; used by the admin CLI.
		UpdateOrCreateUser(ctx context.Context, usr User, exec ...core.DBExecutor) (User, error)
		SetUserActive(ctx context.Context, id string, isActive bool, exec ...core.DBExecutor) error
	}

	Service struct {
		db       core.DB
		repo     Repository
		validate *validator.Validate
	}
)

func NewService(db core.DB, repo Repository, validate *validator.Validate) *Service {
	return &Service{db: db, repo: repo, validate: validate}
}

func (svc *Service) GetByID(ctx context.Context, id string) (User, error) {
	return svc.repo.GetUserByID(ctx, id)
}

func (svc *Service) GetByMobile(ctx context.Context, mobile string) (User, error) {
	return svc.repo.GetUserByMobile(ctx, core.CleanString(mobile))
}

// CreateStaff creates or updates a back-office account. An existing identity
// with the same mobile is updated in place rather than duplicated.
func (svc *Service) CreateStaff(ctx context.Context, nu NewStaffUser) (User, error) {
	nu.FirstName = core.CleanString(nu.FirstName)
	nu.LastName = core.CleanString(nu.LastName)
	nu.Mobile = core.CleanString(nu.Mobile)
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	if err := svc.validate.Struct(nu); err != nil {
		return User{}, err
	}

	now := time.Now().UTC()
	usr := User{
		FirstName: nu.FirstName,
		LastName:  nu.LastName,
		Mobile:    nu.Mobile,
		Email:     nu.Email,
		Role:      nu.Role,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, pkgerrors.Wrap(err, "hashing password")
	}
	return svc.repo.UpdateOrCreateUser(ctx, usr)
}

func (svc *Service) SetActive(ctx context.Context, id string, isActive bool) error {
	return svc.repo.SetUserActive(ctx, id, isActive)
}
