package student

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/instacad/backoffice/core"
	"github.com/instacad/backoffice/core/course"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func testRates() core.TaxRates {
	return core.TaxRates{
		SGSTPercent: d("9"),
		CGSTPercent: d("9"),
		IGSTPercent: d("18"),
	}
}

func testCourse() course.Course {
	return course.Course{
		ID:                  "c1",
		Title:               "AutoCAD Professional",
		BaseCourseFee:       d("12500"),
		DiscountPercentage:  d("20"),
		DiscountedCourseFee: d("10000"),
		HostelAvailable:     true,
		HostelFee:           d("2000"),
		MessAvailable:       true,
		MessFee:             d("1000"),
		IsActive:            true,
	}
}

func TestComputeFees(t *testing.T) {
	crs := testCourse()
	rates := testRates()

	tests := []struct {
		name string
		opts EnrollmentOptions
		want FeeBreakdown
	}{
		{
			name: "intra-state with hostel and mess",
			opts: EnrollmentOptions{HostelOpted: true, MessOpted: true},
			want: FeeBreakdown{
				PreTaxTotal:   d("13000"),
				TaxableAmount: d("10000"),
				HostelFee:     d("2000"),
				MessFee:       d("1000"),
				SGSTPercent:   d("9"),
				CGSTPercent:   d("9"),
				SGSTAmount:    d("900"),
				CGSTAmount:    d("900"),
				TotalTax:      d("1800"),
				TotalPayable:  d("14800"),
			},
		},
		{
			name: "inter-state with hostel and mess",
			opts: EnrollmentOptions{HostelOpted: true, MessOpted: true, IGSTApplicable: true},
			want: FeeBreakdown{
				PreTaxTotal:   d("13000"),
				TaxableAmount: d("10000"),
				HostelFee:     d("2000"),
				MessFee:       d("1000"),
				IGSTPercent:   d("18"),
				IGSTAmount:    d("1800"),
				TotalTax:      d("1800"),
				TotalPayable:  d("14800"),
			},
		},
		{
			name: "course only",
			opts: EnrollmentOptions{},
			want: FeeBreakdown{
				PreTaxTotal:   d("10000"),
				TaxableAmount: d("10000"),
				SGSTPercent:   d("9"),
				CGSTPercent:   d("9"),
				SGSTAmount:    d("900"),
				CGSTAmount:    d("900"),
				TotalTax:      d("1800"),
				TotalPayable:  d("11800"),
			},
		},
		{
			name: "extra discount reduces the taxable amount only",
			opts: EnrollmentOptions{ExtraDiscountAmount: d("1000"), HostelOpted: true},
			want: FeeBreakdown{
				PreTaxTotal:   d("11000"),
				TaxableAmount: d("9000"),
				HostelFee:     d("2000"),
				SGSTPercent:   d("9"),
				CGSTPercent:   d("9"),
				SGSTAmount:    d("810"),
				CGSTAmount:    d("810"),
				TotalTax:      d("1620"),
				TotalPayable:  d("12620"),
			},
		},
		{
			name: "extra discount equal to the discounted fee zeroes the tax",
			opts: EnrollmentOptions{ExtraDiscountAmount: d("10000")},
			want: FeeBreakdown{
				PreTaxTotal:   d("0"),
				TaxableAmount: d("0"),
				SGSTPercent:   d("9"),
				CGSTPercent:   d("9"),
				SGSTAmount:    d("0"),
				CGSTAmount:    d("0"),
				TotalTax:      d("0"),
				TotalPayable:  d("0"),
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ComputeFees(crs, tt.opts, rates)
			if err != nil {
				t.Fatalf("ComputeFees() error = %v", err)
			}
			checkBreakdown(t, got, tt.want)
		})
	}
}

func TestComputeFees_rounding(t *testing.T) {
	crs := testCourse()
	crs.DiscountedCourseFee = d("1234.56")

	got, err := ComputeFees(crs, EnrollmentOptions{}, testRates())
	if err != nil {
		t.Fatalf("ComputeFees() error = %v", err)
	}
	// 1234.56 * 9% = 111.1104, rounded per component before summing
	if !got.SGSTAmount.Equal(d("111.11")) {
		t.Errorf("SGSTAmount = %s; want 111.11", got.SGSTAmount)
	}
	if !got.TotalTax.Equal(d("222.22")) {
		t.Errorf("TotalTax = %s; want 222.22", got.TotalTax)
	}
	if !got.TotalPayable.Equal(d("1456.78")) {
		t.Errorf("TotalPayable = %s; want 1456.78", got.TotalPayable)
	}
}

func TestComputeFees_halfUp(t *testing.T) {
	crs := testCourse()
	crs.DiscountedCourseFee = d("100.25")
	rates := core.TaxRates{SGSTPercent: d("5"), CGSTPercent: d("5"), IGSTPercent: d("10")}

	got, err := ComputeFees(crs, EnrollmentOptions{}, rates)
	if err != nil {
		t.Fatalf("ComputeFees() error = %v", err)
	}
	// 100.25 * 5% = 5.0125 -> 5.01; the half cent rounds up on 5.0150
	if !got.SGSTAmount.Equal(d("5.01")) {
		t.Errorf("SGSTAmount = %s; want 5.01", got.SGSTAmount)
	}

	crs.DiscountedCourseFee = d("100.30")
	got, err = ComputeFees(crs, EnrollmentOptions{}, rates)
	if err != nil {
		t.Fatalf("ComputeFees() error = %v", err)
	}
	// 100.30 * 5% = 5.0150 -> 5.02
	if !got.SGSTAmount.Equal(d("5.02")) {
		t.Errorf("SGSTAmount = %s; want 5.02", got.SGSTAmount)
	}
}

func TestComputeFees_invariants(t *testing.T) {
	crs := testCourse()
	rates := testRates()

	for _, opts := range []EnrollmentOptions{
		{},
		{HostelOpted: true},
		{MessOpted: true},
		{HostelOpted: true, MessOpted: true},
		{ExtraDiscountAmount: d("2500.50"), HostelOpted: true, MessOpted: true},
		{IGSTApplicable: true, HostelOpted: true},
	} {
		got, err := ComputeFees(crs, opts, rates)
		if err != nil {
			t.Fatalf("ComputeFees(%+v) error = %v", opts, err)
		}

		wantTotal := got.TaxableAmount.Add(got.TotalTax).Add(got.HostelFee).Add(got.MessFee)
		if !got.TotalPayable.Equal(wantTotal) {
			t.Errorf("TotalPayable = %s; want %s (opts %+v)", got.TotalPayable, wantTotal, opts)
		}

		// the split is mutually exclusive
		if opts.IGSTApplicable {
			if !got.SGSTAmount.IsZero() || !got.CGSTAmount.IsZero() {
				t.Errorf("SGST/CGST set on an inter-state enrollment: %s/%s", got.SGSTAmount, got.CGSTAmount)
			}
		} else if !got.IGSTAmount.IsZero() {
			t.Errorf("IGST set on an intra-state enrollment: %s", got.IGSTAmount)
		}

		// same input, same output
		again, _ := ComputeFees(crs, opts, rates)
		checkBreakdown(t, again, got)
	}
}

func TestComputeFees_invalidDiscount(t *testing.T) {
	crs := testCourse()
	rates := testRates()

	for _, extra := range []decimal.Decimal{d("-1"), d("10000.01")} {
		_, err := ComputeFees(crs, EnrollmentOptions{ExtraDiscountAmount: extra}, rates)
		if _, ok := err.(*core.ValidationError); !ok {
			t.Errorf("ComputeFees(extra=%s) error = %v; want *core.ValidationError", extra, err)
		}
	}
}

func checkBreakdown(t *testing.T, got, want FeeBreakdown) {
	t.Helper()
	checks := []struct {
		name      string
		got, want decimal.Decimal
	}{
		{"PreTaxTotal", got.PreTaxTotal, want.PreTaxTotal},
		{"TaxableAmount", got.TaxableAmount, want.TaxableAmount},
		{"HostelFee", got.HostelFee, want.HostelFee},
		{"MessFee", got.MessFee, want.MessFee},
		{"SGSTPercent", got.SGSTPercent, want.SGSTPercent},
		{"CGSTPercent", got.CGSTPercent, want.CGSTPercent},
		{"IGSTPercent", got.IGSTPercent, want.IGSTPercent},
		{"SGSTAmount", got.SGSTAmount, want.SGSTAmount},
		{"CGSTAmount", got.CGSTAmount, want.CGSTAmount},
		{"IGSTAmount", got.IGSTAmount, want.IGSTAmount},
		{"TotalTax", got.TotalTax, want.TotalTax},
		{"TotalPayable", got.TotalPayable, want.TotalPayable},
	}
	for _, c := range checks {
		if !c.got.Equal(c.want) {
			t.Errorf("%s = %s; want %s", c.name, c.got, c.want)
		}
	}
}
