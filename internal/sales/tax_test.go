package sales

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCalculateIntraStateSplitsGST(t *testing.T) {
	calc := NewTaxCalculator("Gujarat")

	out := calc.Calculate([]TaxLineInput{
		{Quantity: 10, UnitPrice: 100, TaxRate: 18},
	}, "Gujarat")

	require.InDelta(t, 1000.0, out.TotalAmount, 1e-9)
	require.InDelta(t, 90.0, out.CGST, 1e-9)
	require.InDelta(t, 90.0, out.SGST, 1e-9)
	require.Zero(t, out.IGST)
	require.InDelta(t, 180.0, out.TaxAmount, 1e-9)
	require.InDelta(t, 1180.0, out.GrandTotal, 1e-9)
}

func TestCalculateInterStateChargesIGST(t *testing.T) {
	calc := NewTaxCalculator("Gujarat")

	out := calc.Calculate([]TaxLineInput{
		{Quantity: 10, UnitPrice: 100, TaxRate: 18},
	}, "Maharashtra")

	require.Zero(t, out.CGST)
	require.Zero(t, out.SGST)
	require.InDelta(t, 180.0, out.IGST, 1e-9)
	require.InDelta(t, 1180.0, out.GrandTotal, 1e-9)
}

func TestCalculateJurisdictionMatchIgnoresCaseAndSpace(t *testing.T) {
	calc := NewTaxCalculator("Gujarat")

	out := calc.Calculate([]TaxLineInput{
		{Quantity: 1, UnitPrice: 100, TaxRate: 18},
	}, "  gujarat ")

	require.InDelta(t, 9.0, out.CGST, 1e-9)
	require.InDelta(t, 9.0, out.SGST, 1e-9)
	require.Zero(t, out.IGST)
}

func TestCalculateZeroRateLineCountsTowardTotalOnly(t *testing.T) {
	calc := NewTaxCalculator("Gujarat")

	out := calc.Calculate([]TaxLineInput{
		{Quantity: 2, UnitPrice: 50, TaxRate: 0},
		{Quantity: 1, UnitPrice: 200, TaxRate: 12},
	}, "Gujarat")

	require.InDelta(t, 300.0, out.TotalAmount, 1e-9)
	require.InDelta(t, 12.0, out.CGST, 1e-9)
	require.InDelta(t, 12.0, out.SGST, 1e-9)
	require.InDelta(t, 324.0, out.GrandTotal, 1e-9)
}

func TestCalculateZeroAmountLineExcludedFromTax(t *testing.T) {
	calc := NewTaxCalculator("Gujarat")

	out := calc.Calculate([]TaxLineInput{
		{Quantity: 5, UnitPrice: 0, TaxRate: 18},
	}, "Gujarat")

	require.Zero(t, out.TotalAmount)
	require.Zero(t, out.TaxAmount)
	require.InDelta(t, 5.0, out.TotalQuantity, 1e-9)
}

func TestCalculateGroupsByRate(t *testing.T) {
	calc := NewTaxCalculator("Gujarat")

	out := calc.Calculate([]TaxLineInput{
		{Quantity: 1, UnitPrice: 100, TaxRate: 18},
		{Quantity: 1, UnitPrice: 300, TaxRate: 18},
		{Quantity: 1, UnitPrice: 100, TaxRate: 5},
	}, "Kerala")

	// 18% on 400 plus 5% on 100.
	require.InDelta(t, 77.0, out.IGST, 1e-9)
	require.InDelta(t, 500.0, out.TotalAmount, 1e-9)
}

func TestCalculateSanitizesNonFiniteInput(t *testing.T) {
	calc := NewTaxCalculator("Gujarat")

	out := calc.Calculate([]TaxLineInput{
		{Quantity: math.NaN(), UnitPrice: 100, TaxRate: 18},
		{Quantity: 1, UnitPrice: math.Inf(1), TaxRate: 18},
	}, "Gujarat")

	require.Zero(t, out.TotalAmount)
	require.Zero(t, out.TaxAmount)
	require.False(t, math.IsNaN(out.GrandTotal))
}

func TestCalculateIsDeterministic(t *testing.T) {
	calc := NewTaxCalculator("Gujarat")
	lines := []TaxLineInput{
		{Quantity: 3, UnitPrice: 99.99, TaxRate: 18},
		{Quantity: 7, UnitPrice: 12.5, TaxRate: 5},
		{Quantity: 1, UnitPrice: 1000, TaxRate: 28},
	}

	first := calc.Calculate(lines, "Gujarat")
	for i := 0; i < 50; i++ {
		require.Equal(t, first, calc.Calculate(lines, "Gujarat"))
	}
}

func TestCalculateEmptyHomeStateFallsBack(t *testing.T) {
	calc := NewTaxCalculator("")
	require.Equal(t, DefaultHomeState, calc.HomeState())
}

func TestRound2(t *testing.T) {
	require.InDelta(t, 1.23, Round2(1.2345), 1e-9)
	require.InDelta(t, 1.24, Round2(1.235), 1e-9)
	require.InDelta(t, -1.23, Round2(-1.2349), 1e-9)
}

func TestFormatReferenceNumber(t *testing.T) {
	date := time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC)
	require.Equal(t, "Q-260831-000042", formatReferenceNumber(date, 42))
	require.Equal(t, "Q-260831-1000000", formatReferenceNumber(date, 1000000))
}
