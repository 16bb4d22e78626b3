package dummydb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/instacad/backoffice/core"
	"github.com/instacad/backoffice/core/student"
)

type studentRepository struct {
	db *DB
}

var _ student.Repository = (*studentRepository)(nil) // interface compliance check

func NewStudentRepository(db *DB) *studentRepository {
	return &studentRepository{db: db}
}

func (repo *studentRepository) GetStudentByID(ctx context.Context, id string, exec ...core.DBExecutor) (student.Student, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if st, ok := repo.db.students[id]; ok && st.DeletedAt == nil {
		return *st, nil
	}
	return student.Student{}, student.ErrNotFound
}

func (repo *studentRepository) GetStudentByAadhar(ctx context.Context, aadhar string, exec ...core.DBExecutor) (student.Student, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if id, ok := repo.db.byAadhar[aadhar]; ok {
		if st := repo.db.students[id]; st.DeletedAt == nil {
			return *st, nil
		}
	}
	return student.Student{}, student.ErrNotFound
}

func (repo *studentRepository) GetStudentByUserID(ctx context.Context, userID string, exec ...core.DBExecutor) (student.Student, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if id, ok := repo.db.byUserID[userID]; ok {
		if st := repo.db.students[id]; st.DeletedAt == nil {
			return *st, nil
		}
	}
	return student.Student{}, student.ErrNotFound
}

// GetLastStudent includes tombstoned rows so the code sequence never reissues
// a deleted student's code.
func (repo *studentRepository) GetLastStudent(ctx context.Context, exec ...core.DBExecutor) (student.Student, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if n := len(repo.db.studentOrder); n > 0 {
		return *repo.db.students[repo.db.studentOrder[n-1]], nil
	}
	return student.Student{}, student.ErrNotFound
}

func (repo *studentRepository) CreateStudent(ctx context.Context, st student.Student, exec ...core.DBExecutor) (student.Student, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if err := repo.db.failCreateStudent; err != nil {
		repo.db.failCreateStudent = nil
		return student.Student{}, err
	}
	if _, taken := repo.db.byCode[st.StudentCode]; taken {
		return student.Student{}, student.ErrStudentCodeTaken
	}
	if _, taken := repo.db.byAadhar[st.AadharNumber]; taken {
		return student.Student{}, student.ErrAadharTaken
	}

	st.ID = uuid.New().String()
	s := st
	repo.db.students[s.ID] = &s
	repo.db.byCode[s.StudentCode] = s.ID
	repo.db.byAadhar[s.AadharNumber] = s.ID
	repo.db.byUserID[s.UserID] = s.ID
	repo.db.studentOrder = append(repo.db.studentOrder, s.ID)

	if tx := txOf(exec); tx != nil {
		tx.register(func() {
			delete(repo.db.students, s.ID)
			delete(repo.db.byCode, s.StudentCode)
			delete(repo.db.byAadhar, s.AadharNumber)
			delete(repo.db.byUserID, s.UserID)
			repo.db.studentOrder = repo.db.studentOrder[:len(repo.db.studentOrder)-1]
		})
	}
	return st, nil
}

func (repo *studentRepository) SetStudentLogin(ctx context.Context, id string, enabled bool, exec ...core.DBExecutor) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	st, ok := repo.db.students[id]
	if !ok || st.DeletedAt != nil {
		return student.ErrNotFound
	}
	orig := st.LoginEnabled
	st.LoginEnabled = enabled

	if tx := txOf(exec); tx != nil {
		tx.register(func() { st.LoginEnabled = orig })
	}
	return nil
}

func (repo *studentRepository) GetEnrollmentByID(ctx context.Context, id string, exec ...core.DBExecutor) (student.Enrollment, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if enr, ok := repo.db.enrollments[id]; ok {
		return *enr, nil
	}
	return student.Enrollment{}, student.ErrEnrollmentNotFound
}

// GetEnrollmentForUpdate behaves like GetEnrollmentByID; transactions are
// already serialized here so no extra locking is needed.
func (repo *studentRepository) GetEnrollmentForUpdate(ctx context.Context, id string, exec ...core.DBExecutor) (student.Enrollment, error) {
	return repo.GetEnrollmentByID(ctx, id, exec...)
}

func (repo *studentRepository) CreateEnrollment(ctx context.Context, enr student.Enrollment, exec ...core.DBExecutor) (student.Enrollment, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	enr.ID = uuid.New().String()
	e := enr
	repo.db.enrollments[e.ID] = &e

	if tx := txOf(exec); tx != nil {
		tx.register(func() { delete(repo.db.enrollments, e.ID) })
	}
	return enr, nil
}

func (repo *studentRepository) UpdateEnrollment(ctx context.Context, enr student.Enrollment, exec ...core.DBExecutor) (student.Enrollment, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	orig, ok := repo.db.enrollments[enr.ID]
	if !ok {
		return student.Enrollment{}, student.ErrEnrollmentNotFound
	}
	prev := *orig
	e := enr
	repo.db.enrollments[e.ID] = &e

	if tx := txOf(exec); tx != nil {
		tx.register(func() { repo.db.enrollments[prev.ID] = &prev })
	}
	return enr, nil
}

func (repo *studentRepository) QueryEnrollmentsByStudent(ctx context.Context, studentID string, exec ...core.DBExecutor) ([]student.Enrollment, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	enrs := make([]student.Enrollment, 0)
	for _, enr := range repo.db.enrollments {
		if enr.StudentID == studentID {
			enrs = append(enrs, *enr)
		}
	}
	sort.Slice(enrs, func(i, j int) bool { return enrs[i].CreatedAt.After(enrs[j].CreatedAt) })
	return enrs, nil
}
