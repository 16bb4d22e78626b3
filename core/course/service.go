package course

import (
	"context"

	"github.com/pkg/errors"

	"github.com/instacad/backoffice/core"
)

var (
	// errors
	ErrNotFound = errors.New("course not found")
)

type (
	Repository interface {
		GetCourseByID(ctx context.Context, id string, exec ...core.DBExecutor) (Course, error)
		QueryActiveCourses(ctx context.Context, exec ...core.DBExecutor) ([]Course, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// GetActive returns the course only if it exists and is active.
func (svc *Service) GetActive(ctx context.Context, id string) (Course, error) {
	crs, err := svc.repo.GetCourseByID(ctx, id)
	if err != nil {
		return Course{}, err
	}
	if !crs.IsActive {
		return Course{}, ErrNotFound
	}
	return crs, nil
}

func (svc *Service) ListActive(ctx context.Context) ([]Course, error) {
	return svc.repo.QueryActiveCourses(ctx)
}
