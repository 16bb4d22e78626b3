package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction types
const (
	TypeIncome  = "income"
	TypeExpense = "expense"
)

// Payment types
const (
	PaymentTypeCourseFee = "course_fee"
)

// Payment methods accepted at the counter.
var PaymentMethods = []string{"cash", "upi", "card", "bank_transfer", "cheque"}

// CourseFeeCategoryID is the seeded transaction category for course fee income.
const CourseFeeCategoryID = 1

// Transaction is an institution-wide income/expense record referencing at
// most one enrollment. Append-only: never updated, never deleted.
type Transaction struct {
	ID              string          `json:"id"`
	Type            string          `json:"type"`
	CategoryID      int             `json:"category_id"`
	StudentID       string          `json:"student_id"`
	CourseID        string          `json:"course_id"`
	EnrollmentID    string          `json:"enrollment_id"`
	Amount          decimal.Decimal `json:"amount"`
	TransactionDate time.Time       `json:"transaction_date"`
	PaymentMode     string          `json:"payment_mode"`
	Description     string          `json:"description"`
	PayerName       string          `json:"payer_name"`
	PayerContact    string          `json:"payer_contact"`
	CreatedBy       string          `json:"-"`
	CreatedAt       time.Time       `json:"created_at"` // UTC
}

// PaymentEntry records one payment event against one enrollment, capturing
// the due amount before and after. This is the authoritative trail for
// due-amount evolution. Append-only.
type PaymentEntry struct {
	ID                 string          `json:"id"`
	StudentID          string          `json:"student_id"`
	CourseID           string          `json:"course_id"`
	EnrollmentID       string          `json:"enrollment_id"`
	Type               string          `json:"type"`
	Amount             decimal.Decimal `json:"amount"`
	PaymentDate        time.Time       `json:"payment_date"`
	PaymentMethod      string          `json:"payment_method"`
	PreviousDueAmount  decimal.Decimal `json:"previous_due_amount"`
	RemainingDueAmount decimal.Decimal `json:"remaining_due_amount"`
	CreatedBy          string          `json:"-"`
	CreatedAt          time.Time       `json:"created_at"` // UTC
}
