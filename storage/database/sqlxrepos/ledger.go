package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/volatiletech/null/v8"

	"github.com/instacad/backoffice/core"
	"github.com/instacad/backoffice/core/ledger"
)

const transactionColumns = `id, type, category_id, student_id, course_id, enrollment_id, amount,
transaction_date, payment_mode, description, payer_name, payer_contact, created_by, created_at`

const paymentColumns = `id, student_id, course_id, enrollment_id, type, amount, payment_date,
payment_method, previous_due_amount, remaining_due_amount, created_by, created_at`

type ledgerRepository struct {
	repository
}

var _ ledger.Repository = (*ledgerRepository)(nil) // interface compliance check

func NewLedgerRepository(exec core.DBExecutor) *ledgerRepository {
	return &ledgerRepository{repository{exec: exec}}
}

type transactionRow struct {
	ID              string          `db:"id"`
	Type            string          `db:"type"`
	CategoryID      int             `db:"category_id"`
	StudentID       null.String     `db:"student_id"`
	CourseID        null.String     `db:"course_id"`
	EnrollmentID    null.String     `db:"enrollment_id"`
	Amount          decimal.Decimal `db:"amount"`
	TransactionDate time.Time       `db:"transaction_date"`
	PaymentMode     string          `db:"payment_mode"`
	Description     string          `db:"description"`
	PayerName       string          `db:"payer_name"`
	PayerContact    string          `db:"payer_contact"`
	CreatedBy       null.String     `db:"created_by"`
	CreatedAt       time.Time       `db:"created_at"`
}

type paymentRow struct {
	ID                 string          `db:"id"`
	StudentID          string          `db:"student_id"`
	CourseID           string          `db:"course_id"`
	EnrollmentID       string          `db:"enrollment_id"`
	Type               string          `db:"type"`
	Amount             decimal.Decimal `db:"amount"`
	PaymentDate        time.Time       `db:"payment_date"`
	PaymentMethod      string          `db:"payment_method"`
	PreviousDueAmount  decimal.Decimal `db:"previous_due_amount"`
	RemainingDueAmount decimal.Decimal `db:"remaining_due_amount"`
	CreatedBy          null.String     `db:"created_by"`
	CreatedAt          time.Time       `db:"created_at"`
}

func (repo ledgerRepository) unrowPayment(r paymentRow) ledger.PaymentEntry {
	return ledger.PaymentEntry{
		ID:                 r.ID,
		StudentID:          r.StudentID,
		CourseID:           r.CourseID,
		EnrollmentID:       r.EnrollmentID,
		Type:               r.Type,
		Amount:             r.Amount,
		PaymentDate:        r.PaymentDate,
		PaymentMethod:      r.PaymentMethod,
		PreviousDueAmount:  r.PreviousDueAmount,
		RemainingDueAmount: r.RemainingDueAmount,
		CreatedBy:          r.CreatedBy.String,
		CreatedAt:          r.CreatedAt,
	}
}

func (repo ledgerRepository) CreateTransaction(ctx context.Context, tr ledger.Transaction, exec ...core.DBExecutor) (ledger.Transaction, error) {
	tr.ID = uuid.New().String()
	q := `
INSERT INTO transactions (` + transactionColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	_, err := repo.getExec(exec).ExecContext(ctx, q,
		tr.ID, tr.Type, tr.CategoryID,
		null.NewString(tr.StudentID, tr.StudentID != ""),
		null.NewString(tr.CourseID, tr.CourseID != ""),
		null.NewString(tr.EnrollmentID, tr.EnrollmentID != ""),
		tr.Amount, tr.TransactionDate, tr.PaymentMode, tr.Description, tr.PayerName, tr.PayerContact,
		null.NewString(tr.CreatedBy, tr.CreatedBy != ""), tr.CreatedAt.UTC())
	if err != nil {
		return ledger.Transaction{}, errors.Wrap(err, "inserting transaction")
	}
	return tr, nil
}

func (repo ledgerRepository) CreatePayment(ctx context.Context, p ledger.PaymentEntry, exec ...core.DBExecutor) (ledger.PaymentEntry, error) {
	p.ID = uuid.New().String()
	q := `
INSERT INTO student_payments (` + paymentColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := repo.getExec(exec).ExecContext(ctx, q,
		p.ID, p.StudentID, p.CourseID, p.EnrollmentID, p.Type, p.Amount, p.PaymentDate,
		p.PaymentMethod, p.PreviousDueAmount, p.RemainingDueAmount,
		null.NewString(p.CreatedBy, p.CreatedBy != ""), p.CreatedAt.UTC())
	if err != nil {
		return ledger.PaymentEntry{}, errors.Wrap(err, "inserting payment")
	}
	return p, nil
}

func (repo ledgerRepository) QueryPayments(ctx context.Context, studentID, enrollmentID string, exec ...core.DBExecutor) ([]ledger.PaymentEntry, error) {
	q := `SELECT ` + paymentColumns + ` FROM student_payments WHERE student_id = $1`
	args := []interface{}{studentID}
	if enrollmentID != "" {
		q += ` AND enrollment_id = $2`
		args = append(args, enrollmentID)
	}
	q += ` ORDER BY created_at DESC`

	var rows []paymentRow
	if err := repo.getExec(exec).SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying payments")
	}
	entries := make([]ledger.PaymentEntry, 0, len(rows))
	for _, r := range rows {
		entries = append(entries, repo.unrowPayment(r))
	}
	return entries, nil
}
