package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/instacad/backoffice/core"
	"github.com/instacad/backoffice/core/course"
)

const courseColumns = `id, title, slug, base_course_fee, discount_percentage, discounted_course_fee,
hostel_available, hostel_fee, mess_available, mess_fee, duration_months, is_active, created_at, updated_at`

type courseRepository struct {
	repository
}

var _ course.Repository = (*courseRepository)(nil) // interface compliance check

func NewCourseRepository(exec core.DBExecutor) *courseRepository {
	return &courseRepository{repository{exec: exec}}
}

type courseRow struct {
	ID                  string          `db:"id"`
	Title               string          `db:"title"`
	Slug                string          `db:"slug"`
	BaseCourseFee       decimal.Decimal `db:"base_course_fee"`
	DiscountPercentage  decimal.Decimal `db:"discount_percentage"`
	DiscountedCourseFee decimal.Decimal `db:"discounted_course_fee"`
	HostelAvailable     bool            `db:"hostel_available"`
	HostelFee           decimal.Decimal `db:"hostel_fee"`
	MessAvailable       bool            `db:"mess_available"`
	MessFee             decimal.Decimal `db:"mess_fee"`
	DurationMonths      int             `db:"duration_months"`
	IsActive            bool            `db:"is_active"`
	CreatedAt           time.Time       `db:"created_at"`
	UpdatedAt           time.Time       `db:"updated_at"`
}

func (repo courseRepository) unrow(r courseRow) course.Course {
	return course.Course{
		ID:                  r.ID,
		Title:               r.Title,
		Slug:                r.Slug,
		BaseCourseFee:       r.BaseCourseFee,
		DiscountPercentage:  r.DiscountPercentage,
		DiscountedCourseFee: r.DiscountedCourseFee,
		HostelAvailable:     r.HostelAvailable,
		HostelFee:           r.HostelFee,
		MessAvailable:       r.MessAvailable,
		MessFee:             r.MessFee,
		DurationMonths:      r.DurationMonths,
		IsActive:            r.IsActive,
		CreatedAt:           r.CreatedAt,
		UpdatedAt:           r.UpdatedAt,
	}
}

func (repo courseRepository) GetCourseByID(ctx context.Context, id string, exec ...core.DBExecutor) (course.Course, error) {
	if _, err := uuid.Parse(id); err != nil {
		return course.Course{}, course.ErrNotFound
	}
	var r courseRow
	q := `SELECT ` + courseColumns + ` FROM courses WHERE id = $1`
	if err := repo.getExec(exec).GetContext(ctx, &r, q, id); err != nil {
		if errors.Cause(err) == sql.ErrNoRows {
			return course.Course{}, course.ErrNotFound
		}
		return course.Course{}, errors.Wrap(err, "finding course by ID")
	}
	return repo.unrow(r), nil
}

func (repo courseRepository) QueryActiveCourses(ctx context.Context, exec ...core.DBExecutor) ([]course.Course, error) {
	var rows []courseRow
	q := `SELECT ` + courseColumns + ` FROM courses WHERE is_active ORDER BY title`
	if err := repo.getExec(exec).SelectContext(ctx, &rows, q); err != nil {
		return nil, errors.Wrap(err, "querying active courses")
	}
	courses := make([]course.Course, 0, len(rows))
	for _, r := range rows {
		courses = append(courses, repo.unrow(r))
	}
	return courses, nil
}
