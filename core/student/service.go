package student

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	pkgerrors "github.com/pkg/errors"

	"github.com/instacad/backoffice/core"
	"github.com/instacad/backoffice/core/audit"
	"github.com/instacad/backoffice/core/course"
	"github.com/instacad/backoffice/core/ledger"
	"github.com/instacad/backoffice/core/user"
)

var (
	// errors
	ErrNotFound           = pkgerrors.New("student not found")
	ErrEnrollmentNotFound = pkgerrors.New("enrollment not found")
	// ErrStudentCodeTaken is returned by repositories on a student_code
	// unique-constraint violation; the enrollment saga retries on it.
	ErrStudentCodeTaken = pkgerrors.New("student code already taken")
	// ErrAadharTaken is returned on an aadhar_number unique-constraint
	// violation (two concurrent admissions of the same person).
	ErrAadharTaken = pkgerrors.New("a student with this Aadhaar number already exists")
)

// maxCodeAttempts bounds the retry loop for student-code collisions under
// concurrent admissions. Each retry restarts the whole unit of work.
const maxCodeAttempts = 3

type (
	Repository interface {
		GetStudentByID(ctx context.Context, id string, exec ...core.DBExecutor) (Student, error)
		GetStudentByAadhar(ctx context.Context, aadhar string, exec ...core.DBExecutor) (Student, error)
		GetStudentByUserID(ctx context.Context, userID string, exec ...core.DBExecutor) (Student, error)
		// GetLastStudent returns the most recently created student,
		// including soft-deleted rows so codes are never reused.
		GetLastStudent(ctx context.Context, exec ...core.DBExecutor) (Student, error)
		CreateStudent(ctx context.Context, st Student, exec ...core.DBExecutor) (Student, error)
		SetStudentLogin(ctx context.Context, id string, enabled bool, exec ...core.DBExecutor) error

		GetEnrollmentByID(ctx context.Context, id string, exec ...core.DBExecutor) (Enrollment, error)
		// GetEnrollmentForUpdate locks the row for the enclosing transaction.
		GetEnrollmentForUpdate(ctx context.Context, id string, exec ...core.DBExecutor) (Enrollment, error)
		CreateEnrollment(ctx context.Context, enr Enrollment, exec ...core.DBExecutor) (Enrollment, error)
		UpdateEnrollment(ctx context.Context, enr Enrollment, exec ...core.DBExecutor) (Enrollment, error)
		QueryEnrollmentsByStudent(ctx context.Context, studentID string, exec ...core.DBExecutor) ([]Enrollment, error)
	}

	// Service orchestrates admissions: identity resolution, fee computation,
	// code generation, enrollment persistence and ledger writes happen in one
	// transaction per request, a consistent result or nothing at all.
	Service struct {
		db        core.DB
		repo      Repository
		usrRepo   user.Repository
		crsRepo   course.Repository
		ledger    *ledger.Writer
		auditRepo audit.Repository
		mailSvc   core.EmailService
		logger    core.Logger
		conf      *core.Config
		validate  *validator.Validate
	}
)

func NewService(
	db core.DB,
	repo Repository,
	usrRepo user.Repository,
	crsRepo course.Repository,
	ledgerWriter *ledger.Writer,
	auditRepo audit.Repository,
	mailSvc core.EmailService,
	logger core.Logger,
	conf *core.Config,
	validate *validator.Validate,
) *Service {
	return &Service{
		db:        db,
		repo:      repo,
		usrRepo:   usrRepo,
		crsRepo:   crsRepo,
		ledger:    ledgerWriter,
		auditRepo: auditRepo,
		mailSvc:   mailSvc,
		logger:    logger,
		conf:      conf,
		validate:  validate,
	}
}

// Enroll admits a prospect into a course. Preconditions are checked before
// the transaction opens; everything after (identity resolution, fee
// snapshot, code minting, enrollment insert, optional initial payment)
// commits or rolls back as one unit. A student-code collision restarts the
// unit of work (bounded).
func (svc *Service) Enroll(ctx context.Context, ne NewEnrollment) (EnrollmentResult, error) {
	if err := ne.Validate(svc.validate); err != nil {
		return EnrollmentResult{}, err
	}

	crs, err := svc.crsRepo.GetCourseByID(ctx, ne.CourseID)
	if err != nil {
		return EnrollmentResult{}, err
	}
	if !crs.IsActive {
		return EnrollmentResult{}, course.ErrNotFound
	}
	if ne.ExtraDiscountAmount.GreaterThan(crs.DiscountedCourseFee) {
		return EnrollmentResult{}, core.NewValidationError(
			pkgerrors.New("extra discount exceeds the discounted course fee"),
			core.FieldError{Field: "extra_discount_amount", Error: "cannot exceed the discounted course fee"},
		)
	}

	var res EnrollmentResult
	for attempt := 1; ; attempt++ {
		res, err = svc.enrollOnce(ctx, ne, crs)
		if pkgerrors.Cause(err) == ErrStudentCodeTaken && attempt < maxCodeAttempts {
			continue
		}
		break
	}
	if err != nil {
		if pkgerrors.Cause(err) == ErrStudentCodeTaken {
			return EnrollmentResult{}, pkgerrors.Wrap(err, "exhausted student code retries")
		}
		return EnrollmentResult{}, err
	}

	if ne.PaidAmount.IsPositive() {
		svc.sendReceipt(ne, crs, res)
	}
	return res, nil
}

func (svc *Service) enrollOnce(ctx context.Context, ne NewEnrollment, crs course.Course) (EnrollmentResult, error) {
	var res EnrollmentResult
	err := core.Atomic(ctx, svc.db, func(tx core.DBTransactor) error {
		st, err := svc.resolveIdentity(ctx, tx, ne)
		if err != nil {
			return err
		}

		fees, err := ComputeFees(crs, ne.Options(), svc.conf.Tax)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		status := ne.Status
		if status == "" {
			status = StatusNotStarted
		}
		enr := Enrollment{
			StudentID:      st.ID,
			CourseID:       crs.ID,
			Status:         status,
			EnrollmentDate: ne.enrollmentDate(now),

			BaseCourseFee:            crs.BaseCourseFee,
			CourseDiscountAmount:     core.PercentOf(crs.BaseCourseFee, crs.DiscountPercentage),
			CourseDiscountPercentage: crs.DiscountPercentage,
			DiscountedCourseFee:      crs.DiscountedCourseFee,
			HostelOpted:              ne.HostelOpted,
			HostelFee:                fees.HostelFee,
			MessOpted:                ne.MessOpted,
			MessFee:                  fees.MessFee,
			ExtraDiscountAmount:      ne.ExtraDiscountAmount,

			PreTaxTotalFee:  fees.PreTaxTotal,
			TaxableAmount:   fees.TaxableAmount,
			IGSTApplicable:  ne.IGSTApplicable,
			SGSTPercent:     fees.SGSTPercent,
			CGSTPercent:     fees.CGSTPercent,
			IGSTPercent:     fees.IGSTPercent,
			SGSTAmount:      fees.SGSTAmount,
			CGSTAmount:      fees.CGSTAmount,
			IGSTAmount:      fees.IGSTAmount,
			TotalTaxAmount:  fees.TotalTax,
			TotalPayableFee: fees.TotalPayable,

			PaidAmount: ne.PaidAmount,
			DueAmount:  fees.TotalPayable.Sub(ne.PaidAmount),

			Remark:    ne.Remark,
			CreatedBy: ne.CreatedBy,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if enr.DueAmount.LessThan(svc.conf.Enrollment.OverpaymentTolerance.Neg()) {
			return core.NewValidationError(
				pkgerrors.New("initial payment exceeds the total payable fee"),
				core.FieldError{Field: "paid_amount", Error: "cannot exceed the total payable fee"},
			)
		}

		if enr, err = svc.repo.CreateEnrollment(ctx, enr, tx); err != nil {
			return err
		}

		if ne.PaidAmount.IsPositive() {
			_, _, err = svc.ledger.RecordPayment(ctx, ledger.PaymentInput{
				StudentID:    st.ID,
				CourseID:     crs.ID,
				EnrollmentID: enr.ID,
				Amount:       ne.PaidAmount,
				Date:         enr.EnrollmentDate,
				Method:       ne.PaymentMethod,
				Description:  fmt.Sprintf("Course fee payment for %s", crs.Title),
				PayerName:    ne.NameOnID,
				PayerContact: ne.Mobile,
				PreviousDue:  fees.TotalPayable,
				CreatedBy:    ne.CreatedBy,
			}, tx)
			if err != nil {
				return err
			}
		}

		if _, err = svc.auditRepo.CreateEvent(ctx, audit.Event{
			Entity:   audit.EntityEnrollment,
			EntityID: enr.ID,
			Action:   audit.ActionCreate,
			EditorID: ne.CreatedBy,
			Note:     fmt.Sprintf("enrolled into course %s", crs.Title),
		}, tx); err != nil {
			return err
		}

		res = EnrollmentResult{
			EnrollmentID: enr.ID,
			StudentID:    st.ID,
			StudentCode:  st.StudentCode,
			TotalFee:     enr.TotalPayableFee,
			PaidAmount:   enr.PaidAmount,
			DueAmount:    enr.DueAmount,
		}
		return nil
	})
	return res, err
}

// resolveIdentity looks the prospect up by Aadhaar and reuses the existing
// student untouched; otherwise it checks the contact number for conflicts
// and creates a fresh identity + student with the next student code. Runs
// inside the enrollment transaction so a failure later unwinds the new rows.
func (svc *Service) resolveIdentity(ctx context.Context, tx core.DBTransactor, ne NewEnrollment) (Student, error) {
	st, err := svc.repo.GetStudentByAadhar(ctx, ne.AadharNumber, tx)
	if err == nil {
		return st, nil
	}
	if pkgerrors.Cause(err) != ErrNotFound {
		return Student{}, err
	}

	// brand-new person: one contact number = one student
	if existing, err := svc.usrRepo.GetUserByMobile(ctx, ne.Mobile, tx); err == nil {
		if _, err = svc.repo.GetStudentByUserID(ctx, existing.ID, tx); err == nil {
			return Student{}, core.NewConflictError("mobile number already registered with another student")
		} else if pkgerrors.Cause(err) != ErrNotFound {
			return Student{}, err
		}
		return Student{}, core.NewConflictError("mobile number already registered with another account")
	} else if pkgerrors.Cause(err) != user.ErrNotFound {
		return Student{}, err
	}

	now := time.Now().UTC()
	first, last := splitName(ne.NameOnID)
	usr := user.User{
		FirstName: first,
		LastName:  last,
		Mobile:    ne.Mobile,
		Email:     ne.Email,
		Role:      user.RoleStudent,
		IsActive:  true,
		CreatedBy: ne.CreatedBy,
		CreatedAt: now,
		UpdatedAt: now,
	}
	// default credential; replaced when the student first logs in
	if err = usr.SetPassword(ne.Mobile); err != nil {
		return Student{}, pkgerrors.Wrap(err, "hashing default credential")
	}
	if usr, err = svc.usrRepo.CreateUser(ctx, usr, tx); err != nil {
		return Student{}, pkgerrors.Wrap(err, "creating identity")
	}

	code, err := svc.nextStudentCode(ctx, tx, now)
	if err != nil {
		return Student{}, err
	}

	st = Student{
		UserID:         usr.ID,
		StudentCode:    code,
		NameOnID:       ne.NameOnID,
		FatherName:     ne.FatherName,
		MotherName:     ne.MotherName,
		DateOfBirth:    ne.dateOfBirth(),
		Gender:         ne.Gender,
		Address:        ne.Address,
		State:          ne.State,
		City:           ne.City,
		Pincode:        ne.Pincode,
		AadharNumber:   ne.AadharNumber,
		EnrollmentDate: ne.enrollmentDate(now),
		LoginEnabled:   true,
		CreatedBy:      ne.CreatedBy,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if st, err = svc.repo.CreateStudent(ctx, st, tx); err != nil {
		if pkgerrors.Cause(err) == ErrAadharTaken {
			return Student{}, core.NewConflictError("a student with this Aadhaar number already exists")
		}
		return Student{}, err
	}
	return st, nil
}

// nextStudentCode reads the latest code (tombstones included) and formats
// its successor. Uniqueness is enforced by the student_code constraint; a
// concurrent writer racing to the same code surfaces as ErrStudentCodeTaken
// from CreateStudent and the saga retries.
func (svc *Service) nextStudentCode(ctx context.Context, tx core.DBTransactor, now time.Time) (string, error) {
	var lastCode string
	last, err := svc.repo.GetLastStudent(ctx, tx)
	switch pkgerrors.Cause(err) {
	case nil:
		lastCode = last.StudentCode
	case ErrNotFound:
	default:
		return "", err
	}
	return NextStudentCode(svc.conf.Enrollment.StudentCodePrefix, lastCode, now)
}

// UpdateEnrollment applies status/remark changes and due-balance top-ups.
// The row is re-read under a write lock; paid/due update additively and the
// ledger captures the pre/post snapshot, all in one transaction.
func (svc *Service) UpdateEnrollment(ctx context.Context, enrollmentID string, ue UpdateEnrollment) (TopUpResult, error) {
	if err := ue.Validate(svc.validate); err != nil {
		return TopUpResult{}, err
	}

	var res TopUpResult
	err := core.Atomic(ctx, svc.db, func(tx core.DBTransactor) error {
		enr, err := svc.repo.GetEnrollmentForUpdate(ctx, enrollmentID, tx)
		if err != nil {
			return err
		}

		if ue.PaidAmount != nil {
			amount := *ue.PaidAmount
			newPaid := enr.PaidAmount.Add(amount)
			newDue := enr.TotalPayableFee.Sub(newPaid)
			if newDue.LessThan(svc.conf.Enrollment.OverpaymentTolerance.Neg()) {
				return core.NewValidationError(
					pkgerrors.Errorf("payment of %s exceeds the outstanding due of %s", amount, enr.DueAmount),
					core.FieldError{Field: "paid_amount", Error: "exceeds the outstanding due amount"},
				)
			}

			st, err := svc.repo.GetStudentByID(ctx, enr.StudentID, tx)
			if err != nil {
				return err
			}
			usr, err := svc.usrRepo.GetUserByID(ctx, st.UserID, tx)
			if err != nil {
				return err
			}
			crs, err := svc.crsRepo.GetCourseByID(ctx, enr.CourseID, tx)
			if err != nil {
				return err
			}

			if _, _, err = svc.ledger.RecordPayment(ctx, ledger.PaymentInput{
				StudentID:    enr.StudentID,
				CourseID:     enr.CourseID,
				EnrollmentID: enr.ID,
				Amount:       amount,
				Date:         time.Now().UTC(),
				Method:       ue.PaymentMethod,
				Description:  fmt.Sprintf("Additional payment for %s", crs.Title),
				PayerName:    st.NameOnID,
				PayerContact: usr.Mobile,
				PreviousDue:  enr.DueAmount,
				CreatedBy:    ue.UpdatedBy,
			}, tx); err != nil {
				return err
			}

			enr.PaidAmount = newPaid
			enr.DueAmount = newDue
		}

		if ue.Status != "" {
			enr.Status = ue.Status
		}
		completion, err := ue.completionDate()
		if err != nil {
			return err
		}
		if completion != nil {
			enr.CompletionDate = completion
		}
		if ue.Remark != "" {
			enr.Remark = ue.Remark
		}
		enr.UpdatedAt = time.Now().UTC()

		if enr, err = svc.repo.UpdateEnrollment(ctx, enr, tx); err != nil {
			return err
		}

		if _, err = svc.auditRepo.CreateEvent(ctx, audit.Event{
			Entity:   audit.EntityEnrollment,
			EntityID: enr.ID,
			Action:   audit.ActionUpdate,
			EditorID: ue.UpdatedBy,
			Note:     "enrollment updated",
		}, tx); err != nil {
			return err
		}

		res = TopUpResult{
			Status:     enr.Status,
			PaidAmount: enr.PaidAmount,
			DueAmount:  enr.DueAmount,
		}
		return nil
	})
	return res, err
}

// CalculateFees is the persist-nothing preview used by the admission form.
func (svc *Service) CalculateFees(ctx context.Context, courseID string, opts EnrollmentOptions) (FeeBreakdown, error) {
	crs, err := svc.crsRepo.GetCourseByID(ctx, courseID)
	if err != nil {
		return FeeBreakdown{}, err
	}
	if !crs.IsActive {
		return FeeBreakdown{}, course.ErrNotFound
	}
	return ComputeFees(crs, opts, svc.conf.Tax)
}

// CheckAadhar is the admission-form dedup lookup.
func (svc *Service) CheckAadhar(ctx context.Context, aadharNumber string) (AadharCheck, error) {
	aadharNumber = core.CleanString(aadharNumber)
	st, err := svc.repo.GetStudentByAadhar(ctx, aadharNumber)
	if err != nil {
		if pkgerrors.Cause(err) == ErrNotFound {
			return AadharCheck{Exists: false}, nil
		}
		return AadharCheck{}, err
	}
	usr, err := svc.usrRepo.GetUserByID(ctx, st.UserID)
	if err != nil {
		return AadharCheck{}, err
	}
	enrs, err := svc.repo.QueryEnrollmentsByStudent(ctx, st.ID)
	if err != nil {
		return AadharCheck{}, err
	}

	summaries := make([]EnrollmentSummary, 0, len(enrs))
	for _, enr := range enrs {
		summaries = append(summaries, EnrollmentSummary{
			ID:             enr.ID,
			CourseID:       enr.CourseID,
			Status:         enr.Status,
			EnrollmentDate: enr.EnrollmentDate,
			TotalFee:       enr.TotalPayableFee,
			PaidAmount:     enr.PaidAmount,
			DueAmount:      enr.DueAmount,
		})
	}
	return AadharCheck{
		Exists: true,
		Student: &AadharCheckStudent{
			ID:          st.ID,
			StudentCode: st.StudentCode,
			Name:        st.NameOnID,
			Mobile:      usr.Mobile,
			Email:       usr.Email,
			Enrollments: summaries,
		},
	}, nil
}

// PaymentHistory returns the payment trail for a student, optionally scoped
// to one enrollment (which must belong to that student).
func (svc *Service) PaymentHistory(ctx context.Context, studentID, enrollmentID string) ([]ledger.PaymentEntry, error) {
	if _, err := svc.repo.GetStudentByID(ctx, studentID); err != nil {
		return nil, err
	}
	if enrollmentID != "" {
		enr, err := svc.repo.GetEnrollmentByID(ctx, enrollmentID)
		if err != nil {
			return nil, err
		}
		if enr.StudentID != studentID {
			return nil, ErrEnrollmentNotFound
		}
	}
	return svc.ledger.Payments(ctx, studentID, enrollmentID)
}

// SetLoginEnabled toggles the student's portal access.
func (svc *Service) SetLoginEnabled(ctx context.Context, studentID string, enabled bool, editorID string) error {
	return core.Atomic(ctx, svc.db, func(tx core.DBTransactor) error {
		if _, err := svc.repo.GetStudentByID(ctx, studentID, tx); err != nil {
			return err
		}
		if err := svc.repo.SetStudentLogin(ctx, studentID, enabled, tx); err != nil {
			return err
		}
		_, err := svc.auditRepo.CreateEvent(ctx, audit.Event{
			Entity:   audit.EntityStudent,
			EntityID: studentID,
			Action:   audit.ActionUpdate,
			EditorID: editorID,
			Note:     fmt.Sprintf("login_enabled set to %t", enabled),
		}, tx)
		return err
	})
}

// GetStudent returns the profile, skipping tombstoned rows.
func (svc *Service) GetStudent(ctx context.Context, id string) (Student, error) {
	return svc.repo.GetStudentByID(ctx, id)
}

func (svc *Service) sendReceipt(ne NewEnrollment, crs course.Course, res EnrollmentResult) {
	if svc.mailSvc == nil || ne.Email == "" {
		return
	}
	body := fmt.Sprintf(
		"Dear %s,\n\nWe have received your payment of %s towards %s.\n"+
			"Student code: %s\nTotal fee: %s\nPaid: %s\nBalance due: %s\n\nThank you.",
		ne.NameOnID, res.PaidAmount, crs.Title,
		res.StudentCode, res.TotalFee, res.PaidAmount, res.DueAmount,
	)
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:      []mail.Address{{Name: ne.NameOnID, Address: ne.Email}},
		Subject: "Payment received - " + res.StudentCode,
		Body:    body,
	})
}

// splitName follows the admission form convention: first token is the first
// name, the rest is the last name.
func splitName(name string) (first, last string) {
	parts := strings.Fields(name)
	if len(parts) == 0 {
		return "", ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}
