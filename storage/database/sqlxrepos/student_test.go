package sqlxrepos

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/instacad/backoffice/core/student"
)

func setupMockStudentRepo(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, *studentRepository) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	sdb := sqlx.NewDb(db, "sqlmock")
	return sdb, mock, NewStudentRepository(sdb)
}

var studentColumnList = []string{
	"id", "user_id", "student_code", "name_on_id", "father_name", "mother_name", "date_of_birth", "gender",
	"address", "state", "city", "pincode", "aadhar_number", "enrollment_date", "login_enabled",
	"created_by", "created_at", "updated_at", "deleted_at",
}

func studentRows(id string) *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows(studentColumnList).AddRow(
		id, uuid.New().String(), "STI202500001", "Asha Verma", "Ram Verma", "Sita Verma", nil, "female",
		"12 MG Road", "Madhya Pradesh", "Indore", "452001", "123456789012", now, false,
		nil, now, now, nil,
	)
}

func TestStudentRepository_GetStudentByID(t *testing.T) {
	db, mock, repo := setupMockStudentRepo(t)
	defer db.Close()
	ctx := context.Background()

	id := uuid.New().String()
	mock.ExpectQuery(`FROM students WHERE id = \$1 AND deleted_at IS NULL`).
		WithArgs(id).
		WillReturnRows(studentRows(id))

	st, err := repo.GetStudentByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, st.ID)
	assert.Equal(t, "STI202500001", st.StudentCode)
	assert.Equal(t, "123456789012", st.AadharNumber)
	assert.True(t, st.DateOfBirth.IsZero())
	assert.Nil(t, st.DeletedAt)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepository_GetStudentByID_invalidUUID(t *testing.T) {
	db, mock, repo := setupMockStudentRepo(t)
	defer db.Close()

	// no query expected: the guard rejects before hitting the database
	_, err := repo.GetStudentByID(context.Background(), "not-a-uuid")
	assert.Equal(t, student.ErrNotFound, err)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepository_GetStudentByAadhar_notFound(t *testing.T) {
	db, mock, repo := setupMockStudentRepo(t)
	defer db.Close()

	mock.ExpectQuery(`FROM students WHERE aadhar_number = \$1 AND deleted_at IS NULL`).
		WithArgs("000000000000").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetStudentByAadhar(context.Background(), "000000000000")
	assert.Equal(t, student.ErrNotFound, err)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepository_GetLastStudent(t *testing.T) {
	db, mock, repo := setupMockStudentRepo(t)
	defer db.Close()

	id := uuid.New().String()
	mock.ExpectQuery(`FROM students ORDER BY created_at DESC, student_code DESC LIMIT 1`).
		WillReturnRows(studentRows(id))

	st, err := repo.GetLastStudent(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "STI202500001", st.StudentCode)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepository_GetLastStudent_emptyTable(t *testing.T) {
	db, mock, repo := setupMockStudentRepo(t)
	defer db.Close()

	mock.ExpectQuery(`FROM students ORDER BY created_at DESC`).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetLastStudent(context.Background())
	assert.Equal(t, student.ErrNotFound, err)

	require.NoError(t, mock.ExpectationsWereMet())
}

func newDBStudent() student.Student {
	now := time.Now().UTC()
	return student.Student{
		UserID:         uuid.New().String(),
		StudentCode:    "STI202500007",
		NameOnID:       "Asha Verma",
		Gender:         "female",
		AadharNumber:   "123456789012",
		EnrollmentDate: now,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func TestStudentRepository_CreateStudent(t *testing.T) {
	db, mock, repo := setupMockStudentRepo(t)
	defer db.Close()

	mock.ExpectExec(`INSERT INTO students`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	st, err := repo.CreateStudent(context.Background(), newDBStudent())
	require.NoError(t, err)
	_, err = uuid.Parse(st.ID)
	assert.NoError(t, err, "a fresh UUID is minted on insert")
	assert.Equal(t, "STI202500007", st.StudentCode)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepository_CreateStudent_uniqueViolations(t *testing.T) {
	tests := []struct {
		name    string
		dbErr   error
		wantErr error
	}{
		{
			name:    "student code taken",
			dbErr:   &pq.Error{Code: "23505", Constraint: "students_student_code_key"},
			wantErr: student.ErrStudentCodeTaken,
		},
		{
			name:    "aadhar taken",
			dbErr:   &pq.Error{Code: "23505", Constraint: "students_aadhar_number_key"},
			wantErr: student.ErrAadharTaken,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, repo := setupMockStudentRepo(t)
			defer db.Close()

			mock.ExpectExec(`INSERT INTO students`).WillReturnError(tt.dbErr)

			_, err := repo.CreateStudent(context.Background(), newDBStudent())
			assert.Equal(t, tt.wantErr, err)

			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestStudentRepository_CreateStudent_otherErrorIsWrapped(t *testing.T) {
	db, mock, repo := setupMockStudentRepo(t)
	defer db.Close()

	mock.ExpectExec(`INSERT INTO students`).
		WillReturnError(&pq.Error{Code: "23503", Constraint: "students_user_id_fkey"})

	_, err := repo.CreateStudent(context.Background(), newDBStudent())
	require.Error(t, err)
	assert.NotEqual(t, student.ErrStudentCodeTaken, err)
	assert.NotEqual(t, student.ErrAadharTaken, err)
	assert.Contains(t, err.Error(), "inserting student")

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepository_SetStudentLogin(t *testing.T) {
	db, mock, repo := setupMockStudentRepo(t)
	defer db.Close()

	id := uuid.New().String()
	mock.ExpectExec(`UPDATE students SET login_enabled = \$2`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.SetStudentLogin(context.Background(), id, true))

	mock.ExpectExec(`UPDATE students SET login_enabled = \$2`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.SetStudentLogin(context.Background(), id, false)
	assert.Equal(t, student.ErrNotFound, err)

	require.NoError(t, mock.ExpectationsWereMet())
}

var enrollmentColumnList = []string{
	"id", "student_id", "course_id", "status", "enrollment_date", "completion_date",
	"base_course_fee", "course_discount_amount", "course_discount_percentage", "discounted_course_fee",
	"is_hostel_opted", "hostel_fee", "is_mess_opted", "mess_fee", "extra_discount_amount",
	"pre_tax_total_fee", "taxable_amount", "igst_applicable", "sgst_percentage", "cgst_percentage", "igst_percentage",
	"sgst_amount", "cgst_amount", "igst_amount", "total_tax_amount", "total_payable_fee",
	"paid_amount", "due_amount", "remark", "created_by", "created_at", "updated_at",
}

func enrollmentRows(id string) *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows(enrollmentColumnList).AddRow(
		id, uuid.New().String(), uuid.New().String(), student.StatusInProgress, now, nil,
		"12500", "2500", "20", "10000",
		true, "2000", true, "1000", "0",
		"13000", "10000", false, "9", "9", "0",
		"900", "900", "0", "1800", "14800",
		"5000", "9800", nil, nil, now, now,
	)
}

func TestStudentRepository_GetEnrollmentForUpdate(t *testing.T) {
	db, mock, repo := setupMockStudentRepo(t)
	defer db.Close()

	id := uuid.New().String()
	mock.ExpectQuery(`FROM enrollments WHERE id = \$1 FOR UPDATE`).
		WithArgs(id).
		WillReturnRows(enrollmentRows(id))

	enr, err := repo.GetEnrollmentForUpdate(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, id, enr.ID)
	assert.True(t, enr.TotalPayableFee.Equal(decimal.RequireFromString("14800")))
	assert.True(t, enr.DueAmount.Equal(decimal.RequireFromString("9800")))

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepository_UpdateEnrollment_notFound(t *testing.T) {
	db, mock, repo := setupMockStudentRepo(t)
	defer db.Close()

	mock.ExpectExec(`UPDATE enrollments`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	_, err := repo.UpdateEnrollment(context.Background(), student.Enrollment{ID: uuid.New().String()})
	assert.Equal(t, student.ErrEnrollmentNotFound, err)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepository_QueryEnrollmentsByStudent(t *testing.T) {
	db, mock, repo := setupMockStudentRepo(t)
	defer db.Close()

	studentID := uuid.New().String()
	rows := enrollmentRows(uuid.New().String())
	mock.ExpectQuery(`FROM enrollments WHERE student_id = \$1 ORDER BY created_at DESC`).
		WithArgs(studentID).
		WillReturnRows(rows)

	enrs, err := repo.QueryEnrollmentsByStudent(context.Background(), studentID)
	require.NoError(t, err)
	require.Len(t, enrs, 1)
	assert.Equal(t, student.StatusInProgress, enrs[0].Status)

	require.NoError(t, mock.ExpectationsWereMet())
}
