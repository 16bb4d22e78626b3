package ledger

import (
	"context"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/instacad/backoffice/core"
)

type (
	Repository interface {
		CreateTransaction(ctx context.Context, tr Transaction, exec ...core.DBExecutor) (Transaction, error)
		CreatePayment(ctx context.Context, p PaymentEntry, exec ...core.DBExecutor) (PaymentEntry, error)
		// QueryPayments returns entries for a student, newest first;
		// enrollmentID narrows to one enrollment when non-empty.
		QueryPayments(ctx context.Context, studentID, enrollmentID string, exec ...core.DBExecutor) ([]PaymentEntry, error)
	}

	// PaymentInput describes one money-collection event to be recorded.
	PaymentInput struct {
		StudentID    string
		CourseID     string
		EnrollmentID string
		Amount       decimal.Decimal
		Date         time.Time
		Method       string
		Description  string
		PayerName    string
		PayerContact string
		PreviousDue  decimal.Decimal
		CreatedBy    string
	}

	// Writer creates the general-ledger transaction and payment-history
	// entry for money collected against an enrollment. Both rows are written
	// through the caller's transaction so they commit or roll back with the
	// rest of the unit of work.
	Writer struct {
		repo Repository
	}
)

func NewWriter(repo Repository) *Writer {
	return &Writer{repo: repo}
}

// RecordPayment writes the Transaction/PaymentEntry pair for in.Amount.
// Only valid for a strictly positive amount.
func (w *Writer) RecordPayment(ctx context.Context, in PaymentInput, exec ...core.DBExecutor) (Transaction, PaymentEntry, error) {
	if !in.Amount.IsPositive() {
		return Transaction{}, PaymentEntry{}, core.NewValidationError(
			pkgerrors.New("payment amount must be greater than zero"),
			core.FieldError{Field: "paid_amount", Error: "must be greater than zero"},
		)
	}
	method := in.Method
	if method == "" {
		method = "cash"
	}
	now := time.Now().UTC()

	tr, err := w.repo.CreateTransaction(ctx, Transaction{
		Type:            TypeIncome,
		CategoryID:      CourseFeeCategoryID,
		StudentID:       in.StudentID,
		CourseID:        in.CourseID,
		EnrollmentID:    in.EnrollmentID,
		Amount:          in.Amount,
		TransactionDate: in.Date,
		PaymentMode:     method,
		Description:     in.Description,
		PayerName:       in.PayerName,
		PayerContact:    in.PayerContact,
		CreatedBy:       in.CreatedBy,
		CreatedAt:       now,
	}, exec...)
	if err != nil {
		return Transaction{}, PaymentEntry{}, pkgerrors.Wrap(err, "creating ledger transaction")
	}

	entry, err := w.repo.CreatePayment(ctx, PaymentEntry{
		StudentID:          in.StudentID,
		CourseID:           in.CourseID,
		EnrollmentID:       in.EnrollmentID,
		Type:               PaymentTypeCourseFee,
		Amount:             in.Amount,
		PaymentDate:        in.Date,
		PaymentMethod:      method,
		PreviousDueAmount:  in.PreviousDue,
		RemainingDueAmount: in.PreviousDue.Sub(in.Amount),
		CreatedBy:          in.CreatedBy,
		CreatedAt:          now,
	}, exec...)
	if err != nil {
		return Transaction{}, PaymentEntry{}, pkgerrors.Wrap(err, "creating payment entry")
	}
	return tr, entry, nil
}

// Payments is the read side consumed by the payment-history endpoint.
func (w *Writer) Payments(ctx context.Context, studentID, enrollmentID string) ([]PaymentEntry, error) {
	return w.repo.QueryPayments(ctx, studentID, enrollmentID)
}
