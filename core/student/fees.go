package student

import (
	pkgerrors "github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/instacad/backoffice/core"
	"github.com/instacad/backoffice/core/course"
)

type (
	// EnrollmentOptions are the per-enrollment fee choices.
	EnrollmentOptions struct {
		ExtraDiscountAmount decimal.Decimal `json:"extra_discount_amount"`
		HostelOpted         bool            `json:"is_hostel_opted"`
		MessOpted           bool            `json:"is_mess_opted"`
		IGSTApplicable      bool            `json:"igst_applicable"`
	}

	// FeeBreakdown is the tax-inclusive result of ComputeFees. Exactly one
	// of IGSTAmount or the SGSTAmount/CGSTAmount pair is non-zero (for a
	// non-zero taxable amount and rate).
	FeeBreakdown struct {
		PreTaxTotal   decimal.Decimal `json:"pre_tax_total"`
		TaxableAmount decimal.Decimal `json:"taxable_amount"`
		HostelFee     decimal.Decimal `json:"hostel_fee"`
		MessFee       decimal.Decimal `json:"mess_fee"`
		SGSTPercent   decimal.Decimal `json:"sgst_percentage"`
		CGSTPercent   decimal.Decimal `json:"cgst_percentage"`
		IGSTPercent   decimal.Decimal `json:"igst_percentage"`
		SGSTAmount    decimal.Decimal `json:"sgst_amount"`
		CGSTAmount    decimal.Decimal `json:"cgst_amount"`
		IGSTAmount    decimal.Decimal `json:"igst_amount"`
		TotalTax      decimal.Decimal `json:"total_tax_amount"`
		TotalPayable  decimal.Decimal `json:"total_payable_fee"`
	}
)

// ComputeFees maps a course fee snapshot and enrollment options to a
// tax-inclusive fee breakdown. Pure and deterministic: no I/O, no state.
//
// Accommodation (hostel/mess) is never taxed. The tax split is mutually
// exclusive: a single IGST rate inter-state, an even SGST+CGST split
// intra-state. Every monetary result is rounded to 2 decimal places,
// half up, after each multiplication.
func ComputeFees(crs course.Course, opts EnrollmentOptions, rates core.TaxRates) (FeeBreakdown, error) {
	if opts.ExtraDiscountAmount.IsNegative() {
		return FeeBreakdown{}, core.NewValidationError(
			pkgerrors.New("extra discount cannot be negative"),
			core.FieldError{Field: "extra_discount_amount", Error: "cannot be negative"},
		)
	}
	if opts.ExtraDiscountAmount.GreaterThan(crs.DiscountedCourseFee) {
		return FeeBreakdown{}, core.NewValidationError(
			pkgerrors.New("extra discount exceeds the discounted course fee"),
			core.FieldError{Field: "extra_discount_amount", Error: "cannot exceed the discounted course fee"},
		)
	}

	var hostel, mess decimal.Decimal
	if opts.HostelOpted {
		hostel = core.RoundMoney(crs.HostelFee)
	}
	if opts.MessOpted {
		mess = core.RoundMoney(crs.MessFee)
	}

	taxable := core.RoundMoney(crs.DiscountedCourseFee.Sub(opts.ExtraDiscountAmount))
	preTax := taxable.Add(hostel).Add(mess)

	fb := FeeBreakdown{
		PreTaxTotal:   preTax,
		TaxableAmount: taxable,
		HostelFee:     hostel,
		MessFee:       mess,
	}
	if opts.IGSTApplicable {
		fb.IGSTPercent = rates.IGSTPercent
		fb.IGSTAmount = core.PercentOf(taxable, rates.IGSTPercent)
	} else {
		fb.SGSTPercent = rates.SGSTPercent
		fb.CGSTPercent = rates.CGSTPercent
		fb.SGSTAmount = core.PercentOf(taxable, rates.SGSTPercent)
		fb.CGSTAmount = core.PercentOf(taxable, rates.CGSTPercent)
	}
	fb.TotalTax = fb.SGSTAmount.Add(fb.CGSTAmount).Add(fb.IGSTAmount)
	fb.TotalPayable = preTax.Add(fb.TotalTax)
	return fb, nil
}
