package student_test

import (
	"context"
	"fmt"
	"io"
	"log"
	"sync"
	"testing"

	"github.com/google/uuid"
	pkgerrors "github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/instacad/backoffice/core"
	"github.com/instacad/backoffice/core/audit"
	"github.com/instacad/backoffice/core/course"
	"github.com/instacad/backoffice/core/ledger"
	"github.com/instacad/backoffice/core/student"
	logsvc "github.com/instacad/backoffice/services/logger"
	dummydb "github.com/instacad/backoffice/storage/database/dummy"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func testConf() *core.Config {
	return &core.Config{
		AppName: "Instacad",
		Tax: core.TaxRates{
			SGSTPercent: d("9"),
			CGSTPercent: d("9"),
			IGSTPercent: d("18"),
		},
		Enrollment: core.EnrollmentConfig{
			StudentCodePrefix: "STI",
		},
	}
}

func setup(t *testing.T) (*student.Service, *dummydb.DB, course.Course) {
	t.Helper()

	db, err := dummydb.Open()
	require.NoError(t, err)

	crs := db.SeedCourse(course.Course{
		ID:                  uuid.New().String(),
		Title:               "AutoCAD Professional",
		BaseCourseFee:       d("12500"),
		DiscountPercentage:  d("20"),
		DiscountedCourseFee: d("10000"),
		HostelAvailable:     true,
		HostelFee:           d("2000"),
		MessAvailable:       true,
		MessFee:             d("1000"),
		IsActive:            true,
	})

	validate, _ := core.NewValidator()
	svc := student.NewService(
		db,
		dummydb.NewStudentRepository(db),
		dummydb.NewUserRepository(db),
		dummydb.NewCourseRepository(db),
		ledger.NewWriter(dummydb.NewLedgerRepository(db)),
		dummydb.NewAuditRepository(db),
		nil, /* mailSvc */
		logsvc.NewStdLogger(log.New(io.Discard, "", 0)),
		testConf(),
		validate,
	)
	return svc, db, crs
}

func newEnrollment(courseID string) student.NewEnrollment {
	return student.NewEnrollment{
		AadharNumber:  "123456789012",
		NameOnID:      "Asha Verma",
		Mobile:        "9876543210",
		Email:         "asha@test.test",
		CourseID:      courseID,
		HostelOpted:   true,
		MessOpted:     true,
		PaidAmount:    d("5000"),
		PaymentMethod: "upi",
	}
}

func TestService_Enroll(t *testing.T) {
	svc, db, crs := setup(t)
	ctx := context.Background()

	res, err := svc.Enroll(ctx, newEnrollment(crs.ID))
	require.NoError(t, err)

	year, seq, err := student.ParseStudentCode("STI", res.StudentCode)
	require.NoError(t, err)
	assert.Equal(t, 1, seq)
	assert.NotZero(t, year)

	assert.True(t, res.TotalFee.Equal(d("14800")), "TotalFee = %s", res.TotalFee)
	assert.True(t, res.PaidAmount.Equal(d("5000")), "PaidAmount = %s", res.PaidAmount)
	assert.True(t, res.DueAmount.Equal(d("9800")), "DueAmount = %s", res.DueAmount)

	// one ledger transaction and one payment entry, both linked to the enrollment
	trs := db.Transactions()
	require.Len(t, trs, 1)
	assert.Equal(t, ledger.TypeIncome, trs[0].Type)
	assert.Equal(t, ledger.CourseFeeCategoryID, trs[0].CategoryID)
	assert.Equal(t, res.EnrollmentID, trs[0].EnrollmentID)
	assert.True(t, trs[0].Amount.Equal(d("5000")))

	pays := db.Payments()
	require.Len(t, pays, 1)
	assert.True(t, pays[0].PreviousDueAmount.Equal(d("14800")))
	assert.True(t, pays[0].RemainingDueAmount.Equal(d("9800")))

	// audit trail
	events := db.Events()
	require.Len(t, events, 1)
	assert.Equal(t, audit.EntityEnrollment, events[0].Entity)
	assert.Equal(t, audit.ActionCreate, events[0].Action)

	// the history endpoint sees the same entry
	history, err := svc.PaymentHistory(ctx, res.StudentID, res.EnrollmentID)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestService_Enroll_noPayment(t *testing.T) {
	svc, db, crs := setup(t)

	ne := newEnrollment(crs.ID)
	ne.PaidAmount = decimal.Zero
	res, err := svc.Enroll(context.Background(), ne)
	require.NoError(t, err)

	assert.True(t, res.DueAmount.Equal(d("14800")))
	assert.Empty(t, db.Transactions(), "no payment, no ledger rows")
	assert.Empty(t, db.Payments())
}

func TestService_Enroll_reusesExistingStudent(t *testing.T) {
	svc, _, crs := setup(t)
	ctx := context.Background()

	first, err := svc.Enroll(ctx, newEnrollment(crs.ID))
	require.NoError(t, err)

	// same person, second course: same student, same code
	ne := newEnrollment(crs.ID)
	ne.HostelOpted = false
	ne.MessOpted = false
	second, err := svc.Enroll(ctx, ne)
	require.NoError(t, err)

	assert.Equal(t, first.StudentID, second.StudentID)
	assert.Equal(t, first.StudentCode, second.StudentCode)
	assert.NotEqual(t, first.EnrollmentID, second.EnrollmentID)
}

func TestService_Enroll_mobileConflict(t *testing.T) {
	svc, db, crs := setup(t)
	ctx := context.Background()

	_, err := svc.Enroll(ctx, newEnrollment(crs.ID))
	require.NoError(t, err)
	paysBefore := len(db.Payments())

	// different person, same mobile
	ne := newEnrollment(crs.ID)
	ne.AadharNumber = "999456789012"
	_, err = svc.Enroll(ctx, ne)
	require.Error(t, err)
	if _, ok := pkgerrors.Cause(err).(*core.ConflictError); !ok {
		t.Fatalf("error = %v; want *core.ConflictError", err)
	}

	// the failed admission left nothing behind
	assert.Len(t, db.Payments(), paysBefore)
	_, err = svc.CheckAadhar(ctx, "999456789012")
	require.NoError(t, err)
}

func TestService_Enroll_ledgerFailureRollsBackEverything(t *testing.T) {
	svc, db, crs := setup(t)
	ctx := context.Background()

	db.FailNextPayment(pkgerrors.New("insert failed"))

	_, err := svc.Enroll(ctx, newEnrollment(crs.ID))
	require.Error(t, err)

	// no partial writes: the student and enrollment are gone too
	check, err := svc.CheckAadhar(ctx, "123456789012")
	require.NoError(t, err)
	assert.False(t, check.Exists)
	assert.Empty(t, db.Transactions())
	assert.Empty(t, db.Payments())
	assert.Empty(t, db.Events())

	// and the sequence was not consumed
	res, err := svc.Enroll(ctx, newEnrollment(crs.ID))
	require.NoError(t, err)
	_, seq, err := student.ParseStudentCode("STI", res.StudentCode)
	require.NoError(t, err)
	assert.Equal(t, 1, seq)
}

func TestService_Enroll_retriesOnCodeCollision(t *testing.T) {
	svc, db, crs := setup(t)

	db.FailNextCreateStudent(student.ErrStudentCodeTaken)

	res, err := svc.Enroll(context.Background(), newEnrollment(crs.ID))
	require.NoError(t, err, "a code collision must be retried")
	_, seq, err := student.ParseStudentCode("STI", res.StudentCode)
	require.NoError(t, err)
	assert.Equal(t, 1, seq)
}

func TestService_Enroll_concurrentCodesAreDistinct(t *testing.T) {
	svc, _, crs := setup(t)

	const n = 10
	codes := make([]string, n)
	errs := make([]error, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ne := newEnrollment(crs.ID)
			ne.AadharNumber = fmt.Sprintf("1234567890%02d", i)
			ne.Mobile = fmt.Sprintf("98765432%02d", i)
			ne.PaidAmount = decimal.Zero
			res, err := svc.Enroll(context.Background(), ne)
			codes[i], errs[i] = res.StudentCode, err
		}(i)
	}
	wg.Wait()

	seen := make(map[string]bool, n)
	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		assert.False(t, seen[codes[i]], "duplicate student code %s", codes[i])
		seen[codes[i]] = true
	}
}

func TestService_Enroll_rejectsOverpayment(t *testing.T) {
	svc, _, crs := setup(t)

	ne := newEnrollment(crs.ID)
	ne.PaidAmount = d("14800.01")
	_, err := svc.Enroll(context.Background(), ne)
	require.Error(t, err)
	if _, ok := pkgerrors.Cause(err).(*core.ValidationError); !ok {
		t.Fatalf("error = %v; want *core.ValidationError", err)
	}
}

func TestService_Enroll_rejectsExcessExtraDiscount(t *testing.T) {
	svc, _, crs := setup(t)

	ne := newEnrollment(crs.ID)
	ne.ExtraDiscountAmount = d("10000.01")
	_, err := svc.Enroll(context.Background(), ne)
	require.Error(t, err)
	if _, ok := pkgerrors.Cause(err).(*core.ValidationError); !ok {
		t.Fatalf("error = %v; want *core.ValidationError", err)
	}
}

func TestService_Enroll_inactiveCourse(t *testing.T) {
	svc, db, _ := setup(t)

	inactive := db.SeedCourse(course.Course{
		ID:                  uuid.New().String(),
		Title:               "Retired course",
		DiscountedCourseFee: d("5000"),
	})
	_, err := svc.Enroll(context.Background(), newEnrollment(inactive.ID))
	assert.Equal(t, course.ErrNotFound, pkgerrors.Cause(err))
}

func TestService_Enroll_invalidPayload(t *testing.T) {
	svc, _, crs := setup(t)

	tests := []struct {
		name   string
		mutate func(*student.NewEnrollment)
	}{
		{"bad aadhar", func(ne *student.NewEnrollment) { ne.AadharNumber = "12345" }},
		{"bad mobile", func(ne *student.NewEnrollment) { ne.Mobile = "1234567890" }},
		{"missing name", func(ne *student.NewEnrollment) { ne.NameOnID = "" }},
		{"bad course id", func(ne *student.NewEnrollment) { ne.CourseID = "not-a-uuid" }},
		{"bad payment method", func(ne *student.NewEnrollment) { ne.PaymentMethod = "gold" }},
		{"negative payment", func(ne *student.NewEnrollment) { ne.PaidAmount = d("-1") }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ne := newEnrollment(crs.ID)
			tt.mutate(&ne)
			if _, err := svc.Enroll(context.Background(), ne); err == nil {
				t.Error("Enroll() expected an error")
			}
		})
	}
}

func TestService_UpdateEnrollment_topUp(t *testing.T) {
	svc, db, crs := setup(t)
	ctx := context.Background()

	res, err := svc.Enroll(ctx, newEnrollment(crs.ID))
	require.NoError(t, err)

	amount := d("2000")
	got, err := svc.UpdateEnrollment(ctx, res.EnrollmentID, student.UpdateEnrollment{
		PaidAmount:    &amount,
		PaymentMethod: "cash",
		Status:        student.StatusInProgress,
	})
	require.NoError(t, err)

	assert.Equal(t, student.StatusInProgress, got.Status)
	assert.True(t, got.PaidAmount.Equal(d("7000")), "PaidAmount = %s", got.PaidAmount)
	assert.True(t, got.DueAmount.Equal(d("7800")), "DueAmount = %s", got.DueAmount)

	// the second payment entry snapshots the due before and after
	pays, err := svc.PaymentHistory(ctx, res.StudentID, res.EnrollmentID)
	require.NoError(t, err)
	require.Len(t, pays, 2)
	latest := pays[0]
	assert.True(t, latest.PreviousDueAmount.Equal(d("9800")))
	assert.True(t, latest.RemainingDueAmount.Equal(d("7800")))

	require.Len(t, db.Transactions(), 2)
}

func TestService_UpdateEnrollment_rejectsOverpayment(t *testing.T) {
	svc, _, crs := setup(t)
	ctx := context.Background()

	res, err := svc.Enroll(ctx, newEnrollment(crs.ID))
	require.NoError(t, err)

	amount := d("9800.01")
	_, err = svc.UpdateEnrollment(ctx, res.EnrollmentID, student.UpdateEnrollment{PaidAmount: &amount})
	require.Error(t, err)
	if _, ok := pkgerrors.Cause(err).(*core.ValidationError); !ok {
		t.Fatalf("error = %v; want *core.ValidationError", err)
	}

	// exact settlement is fine
	amount = d("9800")
	got, err := svc.UpdateEnrollment(ctx, res.EnrollmentID, student.UpdateEnrollment{PaidAmount: &amount})
	require.NoError(t, err)
	assert.True(t, got.DueAmount.IsZero(), "DueAmount = %s", got.DueAmount)
}

func TestService_UpdateEnrollment_notFound(t *testing.T) {
	svc, _, _ := setup(t)

	_, err := svc.UpdateEnrollment(context.Background(), uuid.New().String(), student.UpdateEnrollment{Remark: "x"})
	assert.Equal(t, student.ErrEnrollmentNotFound, pkgerrors.Cause(err))
}

func TestService_CalculateFees_persistsNothing(t *testing.T) {
	svc, db, crs := setup(t)
	ctx := context.Background()

	fees, err := svc.CalculateFees(ctx, crs.ID, student.EnrollmentOptions{HostelOpted: true, MessOpted: true})
	require.NoError(t, err)
	assert.True(t, fees.TotalPayable.Equal(d("14800")), "TotalPayable = %s", fees.TotalPayable)

	check, err := svc.CheckAadhar(ctx, "123456789012")
	require.NoError(t, err)
	assert.False(t, check.Exists)
	assert.Empty(t, db.Transactions())
}

func TestService_CheckAadhar(t *testing.T) {
	svc, _, crs := setup(t)
	ctx := context.Background()

	res, err := svc.Enroll(ctx, newEnrollment(crs.ID))
	require.NoError(t, err)

	check, err := svc.CheckAadhar(ctx, "123456789012")
	require.NoError(t, err)
	require.True(t, check.Exists)
	require.NotNil(t, check.Student)
	assert.Equal(t, res.StudentCode, check.Student.StudentCode)
	assert.Equal(t, "9876543210", check.Student.Mobile)
	require.Len(t, check.Student.Enrollments, 1)
	assert.True(t, check.Student.Enrollments[0].DueAmount.Equal(d("9800")))

	check, err = svc.CheckAadhar(ctx, "000000000000")
	require.NoError(t, err)
	assert.False(t, check.Exists)
	assert.Nil(t, check.Student)
}

func TestService_SetLoginEnabled(t *testing.T) {
	svc, db, crs := setup(t)
	ctx := context.Background()

	res, err := svc.Enroll(ctx, newEnrollment(crs.ID))
	require.NoError(t, err)

	require.NoError(t, svc.SetLoginEnabled(ctx, res.StudentID, false, ""))
	st, err := svc.GetStudent(ctx, res.StudentID)
	require.NoError(t, err)
	assert.False(t, st.LoginEnabled)

	// toggling writes its own audit event
	var updates int
	for _, ev := range db.Events() {
		if ev.Entity == audit.EntityStudent && ev.Action == audit.ActionUpdate {
			updates++
		}
	}
	assert.Equal(t, 1, updates)

	assert.Error(t, svc.SetLoginEnabled(ctx, uuid.New().String(), false, ""))
}

func TestService_PaymentHistory_scopesToOwner(t *testing.T) {
	svc, _, crs := setup(t)
	ctx := context.Background()

	first, err := svc.Enroll(ctx, newEnrollment(crs.ID))
	require.NoError(t, err)

	ne := newEnrollment(crs.ID)
	ne.AadharNumber = "222233334444"
	ne.Mobile = "9123456780"
	second, err := svc.Enroll(ctx, ne)
	require.NoError(t, err)

	// an enrollment of another student is invisible here
	_, err = svc.PaymentHistory(ctx, first.StudentID, second.EnrollmentID)
	assert.Equal(t, student.ErrEnrollmentNotFound, pkgerrors.Cause(err))

	pays, err := svc.PaymentHistory(ctx, first.StudentID, "")
	require.NoError(t, err)
	assert.Len(t, pays, 1)
}
