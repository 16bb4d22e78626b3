package dummydb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/instacad/backoffice/core"
	"github.com/instacad/backoffice/core/course"
)

type courseRepository struct {
	db *DB
}

var _ course.Repository = (*courseRepository)(nil) // interface compliance check

func NewCourseRepository(db *DB) *courseRepository {
	return &courseRepository{db: db}
}

// SeedCourse loads a catalog entry for tests.
func (db *DB) SeedCourse(crs course.Course) course.Course {
	db.mu.Lock()
	defer db.mu.Unlock()

	if crs.ID == "" {
		crs.ID = uuid.New().String()
	}
	c := crs
	db.courses[c.ID] = &c
	return crs
}

func (repo *courseRepository) GetCourseByID(ctx context.Context, id string, exec ...core.DBExecutor) (course.Course, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if crs, ok := repo.db.courses[id]; ok {
		return *crs, nil
	}
	return course.Course{}, course.ErrNotFound
}

func (repo *courseRepository) QueryActiveCourses(ctx context.Context, exec ...core.DBExecutor) ([]course.Course, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	courses := make([]course.Course, 0, len(repo.db.courses))
	for _, crs := range repo.db.courses {
		if crs.IsActive {
			courses = append(courses, *crs)
		}
	}
	sort.Slice(courses, func(i, j int) bool { return courses[i].Title < courses[j].Title })
	return courses, nil
}
