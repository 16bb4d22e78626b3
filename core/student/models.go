package student

import (
	"time"

	"github.com/go-playground/validator/v10"
	pkgerrors "github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/instacad/backoffice/core"
)

// Enrollment statuses
const (
	StatusNotStarted = "not_started"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusDropped    = "dropped"
)

const dateLayout = "2006-01-02"

// Student is the profile record, 1:1 with a login identity. Exactly one
// Student exists per Aadhaar number; the student code is assigned once and
// never changes. Deletion is a tombstone, never physical.
type Student struct {
	ID             string     `json:"id"`
	UserID         string     `json:"-"`
	StudentCode    string     `json:"student_code"`
	NameOnID       string     `json:"name_on_id"`
	FatherName     string     `json:"father_name"`
	MotherName     string     `json:"mother_name"`
	DateOfBirth    time.Time  `json:"date_of_birth"`
	Gender         string     `json:"gender"`
	Address        string     `json:"address"`
	State          string     `json:"state"`
	City           string     `json:"city"`
	Pincode        string     `json:"pincode"`
	AadharNumber   string     `json:"aadhar_number"`
	EnrollmentDate time.Time  `json:"enrollment_date"`
	LoginEnabled   bool       `json:"login_enabled"`
	CreatedBy      string     `json:"-"`
	CreatedAt      time.Time  `json:"created_at"` // UTC
	UpdatedAt      time.Time  `json:"updated_at"` // UTC
	DeletedAt      *time.Time `json:"-"`
}

// Enrollment is an immutable snapshot of a course's fee template taken at
// enrollment time, plus the enrollment-specific choices and the computed
// breakdown. Course price changes never retroactively alter it. Invariants:
//
//	total_payable_fee = taxable_amount + total_tax_amount + hostel_fee + mess_fee
//	due_amount        = total_payable_fee - paid_amount
type Enrollment struct {
	ID             string     `json:"id"`
	StudentID      string     `json:"student_id"`
	CourseID       string     `json:"course_id"`
	Status         string     `json:"status"`
	EnrollmentDate time.Time  `json:"enrollment_date"`
	CompletionDate *time.Time `json:"completion_date"`

	// fee snapshot
	BaseCourseFee            decimal.Decimal `json:"base_course_fee"`
	CourseDiscountAmount     decimal.Decimal `json:"course_discount_amount"`
	CourseDiscountPercentage decimal.Decimal `json:"course_discount_percentage"`
	DiscountedCourseFee      decimal.Decimal `json:"discounted_course_fee"`
	HostelOpted              bool            `json:"is_hostel_opted"`
	HostelFee                decimal.Decimal `json:"hostel_fee"`
	MessOpted                bool            `json:"is_mess_opted"`
	MessFee                  decimal.Decimal `json:"mess_fee"`
	ExtraDiscountAmount      decimal.Decimal `json:"extra_discount_amount"`

	// computed breakdown
	PreTaxTotalFee  decimal.Decimal `json:"pre_tax_total_fee"`
	TaxableAmount   decimal.Decimal `json:"taxable_amount"`
	IGSTApplicable  bool            `json:"igst_applicable"`
	SGSTPercent     decimal.Decimal `json:"sgst_percentage"`
	CGSTPercent     decimal.Decimal `json:"cgst_percentage"`
	IGSTPercent     decimal.Decimal `json:"igst_percentage"`
	SGSTAmount      decimal.Decimal `json:"sgst_amount"`
	CGSTAmount      decimal.Decimal `json:"cgst_amount"`
	IGSTAmount      decimal.Decimal `json:"igst_amount"`
	TotalTaxAmount  decimal.Decimal `json:"total_tax_amount"`
	TotalPayableFee decimal.Decimal `json:"total_payable_fee"`

	PaidAmount decimal.Decimal `json:"paid_amount"`
	DueAmount  decimal.Decimal `json:"due_amount"`

	Remark    string    `json:"remark"`
	CreatedBy string    `json:"-"`
	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

// NewEnrollment is the admission payload: prospect identity + course choice
// + fee options + optional initial payment.
type NewEnrollment struct {
	AadharNumber   string `json:"aadhar_number" validate:"required,aadhar"`
	NameOnID       string `json:"name_on_id" validate:"required"`
	FatherName     string `json:"father_name"`
	MotherName     string `json:"mother_name"`
	DateOfBirth    string `json:"date_of_birth" validate:"omitempty,datetime=2006-01-02"`
	Gender         string `json:"gender" validate:"omitempty,oneof=male female other"`
	Address        string `json:"address"`
	State          string `json:"state"`
	City           string `json:"city"`
	Pincode        string `json:"pincode" validate:"omitempty,len=6,numeric"`
	Mobile         string `json:"mobile" validate:"required,mobile_in"`
	Email          string `json:"email" validate:"omitempty,email"`
	CourseID       string `json:"course_id" validate:"required,uuid4"`
	EnrollmentDate string `json:"enrollment_date" validate:"omitempty,datetime=2006-01-02"`
	Status         string `json:"status" validate:"omitempty,oneof=not_started in_progress completed dropped"`

	ExtraDiscountAmount decimal.Decimal `json:"extra_discount_amount"`
	HostelOpted         bool            `json:"is_hostel_opted"`
	MessOpted           bool            `json:"is_mess_opted"`
	IGSTApplicable      bool            `json:"igst_applicable"`

	PaidAmount    decimal.Decimal `json:"paid_amount"`
	PaymentMethod string          `json:"payment_method" validate:"omitempty,oneof=cash upi card bank_transfer cheque"`
	Remark        string          `json:"remark"`

	CreatedBy string `json:"-"`
}

func (ne *NewEnrollment) Validate(validate *validator.Validate) error {
	ne.AadharNumber = core.CleanString(ne.AadharNumber)
	ne.NameOnID = core.CleanString(ne.NameOnID)
	ne.Mobile = core.CleanString(ne.Mobile)
	ne.Email = core.CleanString(ne.Email, true /* lower */)

	if err := validate.Struct(ne); err != nil {
		return err
	}
	if ne.ExtraDiscountAmount.IsNegative() {
		return core.NewValidationError(nil,
			core.FieldError{Field: "extra_discount_amount", Error: "cannot be negative"})
	}
	if ne.PaidAmount.IsNegative() {
		return core.NewValidationError(nil,
			core.FieldError{Field: "paid_amount", Error: "cannot be negative"})
	}
	return nil
}

func (ne *NewEnrollment) Options() EnrollmentOptions {
	return EnrollmentOptions{
		ExtraDiscountAmount: ne.ExtraDiscountAmount,
		HostelOpted:         ne.HostelOpted,
		MessOpted:           ne.MessOpted,
		IGSTApplicable:      ne.IGSTApplicable,
	}
}

// enrollmentDate defaults to today when the payload omits it.
func (ne *NewEnrollment) enrollmentDate(now time.Time) time.Time {
	if ne.EnrollmentDate == "" {
		return now.Truncate(24 * time.Hour)
	}
	d, _ := time.Parse(dateLayout, ne.EnrollmentDate) // format already validated
	return d
}

func (ne *NewEnrollment) dateOfBirth() time.Time {
	if ne.DateOfBirth == "" {
		return time.Time{}
	}
	d, _ := time.Parse(dateLayout, ne.DateOfBirth)
	return d
}

// UpdateEnrollment defines what may change after admission: status/remark
// updates and due-balance top-ups. PaidAmount is the additional amount
// collected now, not the new total.
type UpdateEnrollment struct {
	Status         string           `json:"status" validate:"omitempty,oneof=not_started in_progress completed dropped"`
	CompletionDate string           `json:"completion_date" validate:"omitempty,datetime=2006-01-02"`
	Remark         string           `json:"remark"`
	PaidAmount     *decimal.Decimal `json:"paid_amount"`
	PaymentMethod  string           `json:"payment_method" validate:"omitempty,oneof=cash upi card bank_transfer cheque"`

	UpdatedBy string `json:"-"`
}

func (ue *UpdateEnrollment) Validate(validate *validator.Validate) error {
	if err := validate.Struct(ue); err != nil {
		return err
	}
	if ue.PaidAmount != nil && !ue.PaidAmount.IsPositive() {
		return core.NewValidationError(nil,
			core.FieldError{Field: "paid_amount", Error: "must be greater than zero"})
	}
	return nil
}

func (ue *UpdateEnrollment) completionDate() (*time.Time, error) {
	if ue.CompletionDate == "" {
		return nil, nil
	}
	d, err := time.Parse(dateLayout, ue.CompletionDate)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "parsing completion date")
	}
	return &d, nil
}

// EnrollmentResult is returned by a successful admission.
type EnrollmentResult struct {
	EnrollmentID string          `json:"enrollment_id"`
	StudentID    string          `json:"student_id"`
	StudentCode  string          `json:"student_code"`
	TotalFee     decimal.Decimal `json:"total_fee"`
	PaidAmount   decimal.Decimal `json:"paid_amount"`
	DueAmount    decimal.Decimal `json:"due_amount"`
}

// TopUpResult is returned after an enrollment update.
type TopUpResult struct {
	Status     string          `json:"status"`
	PaidAmount decimal.Decimal `json:"paid_amount"`
	DueAmount  decimal.Decimal `json:"due_amount"`
}

// AadharCheck is the admission-form dedup summary.
type AadharCheck struct {
	Exists  bool                `json:"exists"`
	Student *AadharCheckStudent `json:"student,omitempty"`
}

type AadharCheckStudent struct {
	ID          string              `json:"id"`
	StudentCode string              `json:"student_code"`
	Name        string              `json:"name"`
	Mobile      string              `json:"mobile"`
	Email       string              `json:"email"`
	Enrollments []EnrollmentSummary `json:"enrollments"`
}

type EnrollmentSummary struct {
	ID             string          `json:"id"`
	CourseID       string          `json:"course_id"`
	Status         string          `json:"status"`
	EnrollmentDate time.Time       `json:"enrollment_date"`
	TotalFee       decimal.Decimal `json:"total_fee"`
	PaidAmount     decimal.Decimal `json:"paid_amount"`
	DueAmount      decimal.Decimal `json:"due_amount"`
}
