package sales

import (
	"math"
	"strings"
)

// DefaultHomeState is used when no home jurisdiction is configured.
const DefaultHomeState = "Gujarat"

// TaxLineInput is one raw line as submitted by the caller.
type TaxLineInput struct {
	Quantity  float64
	UnitPrice float64
	TaxRate   float64
}

// TaxLine is a line with its server-computed amount.
type TaxLine struct {
	Quantity  float64
	UnitPrice float64
	TaxRate   float64
	Amount    float64
}

// TaxBreakdown is the full recomputed pricing of a quotation.
type TaxBreakdown struct {
	Lines         []TaxLine
	TotalQuantity float64
	TotalAmount   float64
	CGST          float64
	SGST          float64
	IGST          float64
	TaxAmount     float64
	GrandTotal    float64
}

// TaxCalculator splits GST between CGST+SGST and IGST depending on whether
// the billing state matches the business's home state.
type TaxCalculator struct {
	homeState string
}

// NewTaxCalculator constructs a calculator for the given home jurisdiction.
// An empty homeState falls back to DefaultHomeState.
func NewTaxCalculator(homeState string) *TaxCalculator {
	if strings.TrimSpace(homeState) == "" {
		homeState = DefaultHomeState
	}
	return &TaxCalculator{homeState: homeState}
}

// Calculate is a pure function: identical inputs always produce identical
// outputs. No rounding is applied here; two-decimal rounding happens only at
// the presentation boundary.
func (c *TaxCalculator) Calculate(lines []TaxLineInput, billingState string) TaxBreakdown {
	out := TaxBreakdown{Lines: make([]TaxLine, 0, len(lines))}

	// Lines with amount <= 0 or a negative rate still count toward the
	// pre-tax total but are excluded from the tax groups. This mirrors the
	// historical billing behaviour and is deliberate.
	groups := make(map[float64]float64)
	var order []float64
	for _, in := range lines {
		qty := sanitize(in.Quantity)
		price := sanitize(in.UnitPrice)
		rate := sanitize(in.TaxRate)
		amount := qty * price

		out.Lines = append(out.Lines, TaxLine{
			Quantity:  qty,
			UnitPrice: price,
			TaxRate:   rate,
			Amount:    amount,
		})
		out.TotalQuantity += qty
		out.TotalAmount += amount

		if rate >= 0 && amount > 0 {
			if _, seen := groups[rate]; !seen {
				order = append(order, rate)
			}
			groups[rate] += amount
		}
	}

	intraState := sameJurisdiction(billingState, c.homeState)
	for _, rate := range order {
		taxable := groups[rate]
		if intraState {
			half := rate / 2
			out.CGST += taxable * half / 100
			out.SGST += taxable * half / 100
		} else {
			out.IGST += taxable * rate / 100
		}
	}

	out.TaxAmount = out.CGST + out.SGST + out.IGST
	out.GrandTotal = out.TotalAmount + out.TaxAmount
	return out
}

// HomeState returns the configured home jurisdiction.
func (c *TaxCalculator) HomeState() string {
	return c.homeState
}

func sameJurisdiction(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

func sanitize(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// Round2 rounds to two decimals for presentation.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
