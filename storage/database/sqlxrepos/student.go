package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/volatiletech/null/v8"

	"github.com/instacad/backoffice/core"
	"github.com/instacad/backoffice/core/student"
)

const studentColumns = `id, user_id, student_code, name_on_id, father_name, mother_name, date_of_birth, gender,
address, state, city, pincode, aadhar_number, enrollment_date, login_enabled, created_by, created_at, updated_at, deleted_at`

const enrollmentColumns = `id, student_id, course_id, status, enrollment_date, completion_date,
base_course_fee, course_discount_amount, course_discount_percentage, discounted_course_fee,
is_hostel_opted, hostel_fee, is_mess_opted, mess_fee, extra_discount_amount,
pre_tax_total_fee, taxable_amount, igst_applicable, sgst_percentage, cgst_percentage, igst_percentage,
sgst_amount, cgst_amount, igst_amount, total_tax_amount, total_payable_fee,
paid_amount, due_amount, remark, created_by, created_at, updated_at`

type studentRepository struct {
	repository
}

var _ student.Repository = (*studentRepository)(nil) // interface compliance check

func NewStudentRepository(exec core.DBExecutor) *studentRepository {
	return &studentRepository{repository{exec: exec}}
}

type studentRow struct {
	ID             string      `db:"id"`
	UserID         string      `db:"user_id"`
	StudentCode    string      `db:"student_code"`
	NameOnID       string      `db:"name_on_id"`
	FatherName     string      `db:"father_name"`
	MotherName     string      `db:"mother_name"`
	DateOfBirth    null.Time   `db:"date_of_birth"`
	Gender         string      `db:"gender"`
	Address        string      `db:"address"`
	State          string      `db:"state"`
	City           string      `db:"city"`
	Pincode        string      `db:"pincode"`
	AadharNumber   string      `db:"aadhar_number"`
	EnrollmentDate null.Time   `db:"enrollment_date"`
	LoginEnabled   bool        `db:"login_enabled"`
	CreatedBy      null.String `db:"created_by"`
	CreatedAt      time.Time   `db:"created_at"`
	UpdatedAt      time.Time   `db:"updated_at"`
	DeletedAt      null.Time   `db:"deleted_at"`
}

type enrollmentRow struct {
	ID             string    `db:"id"`
	StudentID      string    `db:"student_id"`
	CourseID       string    `db:"course_id"`
	Status         string    `db:"status"`
	EnrollmentDate time.Time `db:"enrollment_date"`
	CompletionDate null.Time `db:"completion_date"`

	BaseCourseFee            decimal.Decimal `db:"base_course_fee"`
	CourseDiscountAmount     decimal.Decimal `db:"course_discount_amount"`
	CourseDiscountPercentage decimal.Decimal `db:"course_discount_percentage"`
	DiscountedCourseFee      decimal.Decimal `db:"discounted_course_fee"`
	HostelOpted              bool            `db:"is_hostel_opted"`
	HostelFee                decimal.Decimal `db:"hostel_fee"`
	MessOpted                bool            `db:"is_mess_opted"`
	MessFee                  decimal.Decimal `db:"mess_fee"`
	ExtraDiscountAmount      decimal.Decimal `db:"extra_discount_amount"`

	PreTaxTotalFee  decimal.Decimal `db:"pre_tax_total_fee"`
	TaxableAmount   decimal.Decimal `db:"taxable_amount"`
	IGSTApplicable  bool            `db:"igst_applicable"`
	SGSTPercent     decimal.Decimal `db:"sgst_percentage"`
	CGSTPercent     decimal.Decimal `db:"cgst_percentage"`
	IGSTPercent     decimal.Decimal `db:"igst_percentage"`
	SGSTAmount      decimal.Decimal `db:"sgst_amount"`
	CGSTAmount      decimal.Decimal `db:"cgst_amount"`
	IGSTAmount      decimal.Decimal `db:"igst_amount"`
	TotalTaxAmount  decimal.Decimal `db:"total_tax_amount"`
	TotalPayableFee decimal.Decimal `db:"total_payable_fee"`

	PaidAmount decimal.Decimal `db:"paid_amount"`
	DueAmount  decimal.Decimal `db:"due_amount"`

	Remark    null.String `db:"remark"`
	CreatedBy null.String `db:"created_by"`
	CreatedAt time.Time   `db:"created_at"`
	UpdatedAt time.Time   `db:"updated_at"`
}

func (repo studentRepository) row(st student.Student) studentRow {
	return studentRow{
		ID:             st.ID,
		UserID:         st.UserID,
		StudentCode:    st.StudentCode,
		NameOnID:       st.NameOnID,
		FatherName:     st.FatherName,
		MotherName:     st.MotherName,
		DateOfBirth:    null.NewTime(st.DateOfBirth, !st.DateOfBirth.IsZero()),
		Gender:         st.Gender,
		Address:        st.Address,
		State:          st.State,
		City:           st.City,
		Pincode:        st.Pincode,
		AadharNumber:   st.AadharNumber,
		EnrollmentDate: null.NewTime(st.EnrollmentDate, !st.EnrollmentDate.IsZero()),
		LoginEnabled:   st.LoginEnabled,
		CreatedBy:      null.NewString(st.CreatedBy, st.CreatedBy != ""),
		CreatedAt:      st.CreatedAt.UTC(),
		UpdatedAt:      st.UpdatedAt.UTC(),
		DeletedAt:      null.TimeFromPtr(st.DeletedAt),
	}
}

func (repo studentRepository) unrow(r studentRow) student.Student {
	return student.Student{
		ID:             r.ID,
		UserID:         r.UserID,
		StudentCode:    r.StudentCode,
		NameOnID:       r.NameOnID,
		FatherName:     r.FatherName,
		MotherName:     r.MotherName,
		DateOfBirth:    r.DateOfBirth.Time,
		Gender:         r.Gender,
		Address:        r.Address,
		State:          r.State,
		City:           r.City,
		Pincode:        r.Pincode,
		AadharNumber:   r.AadharNumber,
		EnrollmentDate: r.EnrollmentDate.Time,
		LoginEnabled:   r.LoginEnabled,
		CreatedBy:      r.CreatedBy.String,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
		DeletedAt:      r.DeletedAt.Ptr(),
	}
}

func (repo studentRepository) rowEnr(enr student.Enrollment) enrollmentRow {
	return enrollmentRow{
		ID:             enr.ID,
		StudentID:      enr.StudentID,
		CourseID:       enr.CourseID,
		Status:         enr.Status,
		EnrollmentDate: enr.EnrollmentDate,
		CompletionDate: null.TimeFromPtr(enr.CompletionDate),

		BaseCourseFee:            enr.BaseCourseFee,
		CourseDiscountAmount:     enr.CourseDiscountAmount,
		CourseDiscountPercentage: enr.CourseDiscountPercentage,
		DiscountedCourseFee:      enr.DiscountedCourseFee,
		HostelOpted:              enr.HostelOpted,
		HostelFee:                enr.HostelFee,
		MessOpted:                enr.MessOpted,
		MessFee:                  enr.MessFee,
		ExtraDiscountAmount:      enr.ExtraDiscountAmount,

		PreTaxTotalFee:  enr.PreTaxTotalFee,
		TaxableAmount:   enr.TaxableAmount,
		IGSTApplicable:  enr.IGSTApplicable,
		SGSTPercent:     enr.SGSTPercent,
		CGSTPercent:     enr.CGSTPercent,
		IGSTPercent:     enr.IGSTPercent,
		SGSTAmount:      enr.SGSTAmount,
		CGSTAmount:      enr.CGSTAmount,
		IGSTAmount:      enr.IGSTAmount,
		TotalTaxAmount:  enr.TotalTaxAmount,
		TotalPayableFee: enr.TotalPayableFee,

		PaidAmount: enr.PaidAmount,
		DueAmount:  enr.DueAmount,

		Remark:    null.NewString(enr.Remark, enr.Remark != ""),
		CreatedBy: null.NewString(enr.CreatedBy, enr.CreatedBy != ""),
		CreatedAt: enr.CreatedAt.UTC(),
		UpdatedAt: enr.UpdatedAt.UTC(),
	}
}

func (repo studentRepository) unrowEnr(r enrollmentRow) student.Enrollment {
	return student.Enrollment{
		ID:             r.ID,
		StudentID:      r.StudentID,
		CourseID:       r.CourseID,
		Status:         r.Status,
		EnrollmentDate: r.EnrollmentDate,
		CompletionDate: r.CompletionDate.Ptr(),

		BaseCourseFee:            r.BaseCourseFee,
		CourseDiscountAmount:     r.CourseDiscountAmount,
		CourseDiscountPercentage: r.CourseDiscountPercentage,
		DiscountedCourseFee:      r.DiscountedCourseFee,
		HostelOpted:              r.HostelOpted,
		HostelFee:                r.HostelFee,
		MessOpted:                r.MessOpted,
		MessFee:                  r.MessFee,
		ExtraDiscountAmount:      r.ExtraDiscountAmount,

		PreTaxTotalFee:  r.PreTaxTotalFee,
		TaxableAmount:   r.TaxableAmount,
		IGSTApplicable:  r.IGSTApplicable,
		SGSTPercent:     r.SGSTPercent,
		CGSTPercent:     r.CGSTPercent,
		IGSTPercent:     r.IGSTPercent,
		SGSTAmount:      r.SGSTAmount,
		CGSTAmount:      r.CGSTAmount,
		IGSTAmount:      r.IGSTAmount,
		TotalTaxAmount:  r.TotalTaxAmount,
		TotalPayableFee: r.TotalPayableFee,

		PaidAmount: r.PaidAmount,
		DueAmount:  r.DueAmount,

		Remark:    r.Remark.String,
		CreatedBy: r.CreatedBy.String,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func (repo studentRepository) trapNoRowsErr(err error, msg string) error {
	if errors.Cause(err) == sql.ErrNoRows {
		return student.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo studentRepository) trapNoEnrErr(err error, msg string) error {
	if errors.Cause(err) == sql.ErrNoRows {
		return student.ErrEnrollmentNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo studentRepository) GetStudentByID(ctx context.Context, id string, exec ...core.DBExecutor) (student.Student, error) {
	if _, err := uuid.Parse(id); err != nil {
		return student.Student{}, student.ErrNotFound
	}
	var r studentRow
	q := `SELECT ` + studentColumns + ` FROM students WHERE id = $1 AND ` + notDeleted
	if err := repo.getExec(exec).GetContext(ctx, &r, q, id); err != nil {
		return student.Student{}, repo.trapNoRowsErr(err, "finding student by ID")
	}
	return repo.unrow(r), nil
}

func (repo studentRepository) GetStudentByAadhar(ctx context.Context, aadhar string, exec ...core.DBExecutor) (student.Student, error) {
	var r studentRow
	q := `SELECT ` + studentColumns + ` FROM students WHERE aadhar_number = $1 AND ` + notDeleted
	if err := repo.getExec(exec).GetContext(ctx, &r, q, aadhar); err != nil {
		return student.Student{}, repo.trapNoRowsErr(err, "finding student by aadhar")
	}
	return repo.unrow(r), nil
}

func (repo studentRepository) GetStudentByUserID(ctx context.Context, userID string, exec ...core.DBExecutor) (student.Student, error) {
	var r studentRow
	q := `SELECT ` + studentColumns + ` FROM students WHERE user_id = $1 AND ` + notDeleted
	if err := repo.getExec(exec).GetContext(ctx, &r, q, userID); err != nil {
		return student.Student{}, repo.trapNoRowsErr(err, "finding student by user ID")
	}
	return repo.unrow(r), nil
}

// GetLastStudent deliberately skips the tombstone filter: a deleted student
// still holds its code and the sequence must never reissue it.
func (repo studentRepository) GetLastStudent(ctx context.Context, exec ...core.DBExecutor) (student.Student, error) {
	var r studentRow
	q := `SELECT ` + studentColumns + ` FROM students ORDER BY created_at DESC, student_code DESC LIMIT 1`
	if err := repo.getExec(exec).GetContext(ctx, &r, q); err != nil {
		return student.Student{}, repo.trapNoRowsErr(err, "finding last student")
	}
	return repo.unrow(r), nil
}

func (repo studentRepository) CreateStudent(ctx context.Context, st student.Student, exec ...core.DBExecutor) (student.Student, error) {
	st.ID = uuid.New().String()
	r := repo.row(st)
	q := `
INSERT INTO students (` + studentColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`
	_, err := repo.getExec(exec).ExecContext(ctx, q,
		r.ID, r.UserID, r.StudentCode, r.NameOnID, r.FatherName, r.MotherName, r.DateOfBirth, r.Gender,
		r.Address, r.State, r.City, r.Pincode, r.AadharNumber, r.EnrollmentDate, r.LoginEnabled,
		r.CreatedBy, r.CreatedAt, r.UpdatedAt, r.DeletedAt)
	if err != nil {
		switch {
		case isUniqueViolation(err, "students_student_code_key"):
			return student.Student{}, student.ErrStudentCodeTaken
		case isUniqueViolation(err, "students_aadhar_number_key"):
			return student.Student{}, student.ErrAadharTaken
		}
		return student.Student{}, errors.Wrap(err, "inserting student")
	}
	return st, nil
}

func (repo studentRepository) SetStudentLogin(ctx context.Context, id string, enabled bool, exec ...core.DBExecutor) error {
	q := `UPDATE students SET login_enabled = $2, updated_at = $3 WHERE id = $1 AND ` + notDeleted
	res, err := repo.getExec(exec).ExecContext(ctx, q, id, enabled, time.Now().UTC())
	if err != nil {
		return errors.Wrap(err, "updating student login flag")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return student.ErrNotFound
	}
	return nil
}

func (repo studentRepository) GetEnrollmentByID(ctx context.Context, id string, exec ...core.DBExecutor) (student.Enrollment, error) {
	if _, err := uuid.Parse(id); err != nil {
		return student.Enrollment{}, student.ErrEnrollmentNotFound
	}
	var r enrollmentRow
	q := `SELECT ` + enrollmentColumns + ` FROM enrollments WHERE id = $1`
	if err := repo.getExec(exec).GetContext(ctx, &r, q, id); err != nil {
		return student.Enrollment{}, repo.trapNoEnrErr(err, "finding enrollment by ID")
	}
	return repo.unrowEnr(r), nil
}

// GetEnrollmentForUpdate takes a row-level write lock held until the
// enclosing transaction ends.
func (repo studentRepository) GetEnrollmentForUpdate(ctx context.Context, id string, exec ...core.DBExecutor) (student.Enrollment, error) {
	if _, err := uuid.Parse(id); err != nil {
		return student.Enrollment{}, student.ErrEnrollmentNotFound
	}
	var r enrollmentRow
	q := `SELECT ` + enrollmentColumns + ` FROM enrollments WHERE id = $1 FOR UPDATE`
	if err := repo.getExec(exec).GetContext(ctx, &r, q, id); err != nil {
		return student.Enrollment{}, repo.trapNoEnrErr(err, "locking enrollment")
	}
	return repo.unrowEnr(r), nil
}

func (repo studentRepository) CreateEnrollment(ctx context.Context, enr student.Enrollment, exec ...core.DBExecutor) (student.Enrollment, error) {
	enr.ID = uuid.New().String()
	r := repo.rowEnr(enr)
	q := `
INSERT INTO enrollments (` + enrollmentColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16,
        $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28, $29, $30, $31, $32)`
	_, err := repo.getExec(exec).ExecContext(ctx, q,
		r.ID, r.StudentID, r.CourseID, r.Status, r.EnrollmentDate, r.CompletionDate,
		r.BaseCourseFee, r.CourseDiscountAmount, r.CourseDiscountPercentage, r.DiscountedCourseFee,
		r.HostelOpted, r.HostelFee, r.MessOpted, r.MessFee, r.ExtraDiscountAmount,
		r.PreTaxTotalFee, r.TaxableAmount, r.IGSTApplicable, r.SGSTPercent, r.CGSTPercent, r.IGSTPercent,
		r.SGSTAmount, r.CGSTAmount, r.IGSTAmount, r.TotalTaxAmount, r.TotalPayableFee,
		r.PaidAmount, r.DueAmount, r.Remark, r.CreatedBy, r.CreatedAt, r.UpdatedAt)
	if err != nil {
		return student.Enrollment{}, errors.Wrap(err, "inserting enrollment")
	}
	return enr, nil
}

func (repo studentRepository) UpdateEnrollment(ctx context.Context, enr student.Enrollment, exec ...core.DBExecutor) (student.Enrollment, error) {
	r := repo.rowEnr(enr)
	q := `
UPDATE enrollments
SET status = $2, completion_date = $3, paid_amount = $4, due_amount = $5, remark = $6, updated_at = $7
WHERE id = $1`
	res, err := repo.getExec(exec).ExecContext(ctx, q,
		r.ID, r.Status, r.CompletionDate, r.PaidAmount, r.DueAmount, r.Remark, r.UpdatedAt)
	if err != nil {
		return student.Enrollment{}, errors.Wrap(err, "updating enrollment")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return student.Enrollment{}, student.ErrEnrollmentNotFound
	}
	return enr, nil
}

func (repo studentRepository) QueryEnrollmentsByStudent(ctx context.Context, studentID string, exec ...core.DBExecutor) ([]student.Enrollment, error) {
	var rows []enrollmentRow
	q := `SELECT ` + enrollmentColumns + ` FROM enrollments WHERE student_id = $1 ORDER BY created_at DESC`
	if err := repo.getExec(exec).SelectContext(ctx, &rows, q, studentID); err != nil {
		return nil, errors.Wrap(err, "querying enrollments")
	}
	enrs := make([]student.Enrollment, 0, len(rows))
	for _, r := range rows {
		enrs = append(enrs, repo.unrowEnr(r))
	}
	return enrs, nil
}
