package course

import (
	"time"

	"github.com/shopspring/decimal"
)

// Course is a catalog entry holding the fee template an enrollment snapshots.
// It is read-only from the enrollment core's perspective.
type Course struct {
	ID                  string          `json:"id"`
	Title               string          `json:"title"`
	Slug                string          `json:"slug"`
	BaseCourseFee       decimal.Decimal `json:"base_course_fee"`
	DiscountPercentage  decimal.Decimal `json:"discount_percentage"`
	DiscountedCourseFee decimal.Decimal `json:"discounted_course_fee"`
	HostelAvailable     bool            `json:"hostel_available"`
	HostelFee           decimal.Decimal `json:"hostel_fee"`
	MessAvailable       bool            `json:"mess_available"`
	MessFee             decimal.Decimal `json:"mess_fee"`
	DurationMonths      int             `json:"duration_months"`
	IsActive            bool            `json:"is_active"`
	CreatedAt           time.Time       `json:"created_at"` // UTC
	UpdatedAt           time.Time       `json:"updated_at"` // UTC
}
