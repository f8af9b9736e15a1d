package lpg

import (
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestAllocateProportionalSplit(t *testing.T) {
	readings := []Reading{
		{OwnerID: 1, PreviousReading: dec("100"), CurrentReading: dec("130")}, // 30
		{OwnerID: 2, PreviousReading: dec("200"), CurrentReading: dec("250")}, // 50
		{OwnerID: 3, PreviousReading: dec("50"), CurrentReading: dec("70")},   // 20
	}

	allocs, err := Allocate(dec("1000"), decimal.Zero, readings)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if len(allocs) != 3 {
		t.Fatalf("got %d allocations, want 3", len(allocs))
	}

	wantPct := []string{"30", "50", "20"}
	wantSub := []string{"300", "500", "200"}
	for i, a := range allocs {
		if !a.Percentage.Equal(dec(wantPct[i])) {
			t.Errorf("owner %d percentage = %s, want %s", a.OwnerID, a.Percentage, wantPct[i])
		}
		if !a.Subtotal.Equal(dec(wantSub[i])) {
			t.Errorf("owner %d subtotal = %s, want %s", a.OwnerID, a.Subtotal, wantSub[i])
		}
		// no surcharge: total equals subtotal
		if !a.TotalAmount.Equal(a.Subtotal) {
			t.Errorf("owner %d total = %s, want %s", a.OwnerID, a.TotalAmount, a.Subtotal)
		}
	}
}

func TestAllocateSumsCloseUnderUnevenSplit(t *testing.T) {
	// three-way split of a bill that does not divide evenly
	readings := []Reading{
		{OwnerID: 1, PreviousReading: dec("0"), CurrentReading: dec("1")},
		{OwnerID: 2, PreviousReading: dec("0"), CurrentReading: dec("1")},
		{OwnerID: 3, PreviousReading: dec("0"), CurrentReading: dec("1")},
	}

	bill := dec("100")
	allocs, err := Allocate(bill, decimal.Zero, readings)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}

	pctSum, subSum := decimal.Zero, decimal.Zero
	for _, a := range allocs {
		pctSum = pctSum.Add(a.Percentage)
		subSum = subSum.Add(a.Subtotal)
	}

	tolerance := dec("0.000001")
	if pctSum.Sub(dec("100")).Abs().GreaterThan(tolerance) {
		t.Errorf("percentages sum to %s, want 100 within %s", pctSum, tolerance)
	}
	if subSum.Sub(bill).Abs().GreaterThan(tolerance) {
		t.Errorf("subtotals sum to %s, want %s within %s", subSum, bill, tolerance)
	}
}

func TestAllocateAppliesEfficiencySurcharge(t *testing.T) {
	readings := []Reading{
		{OwnerID: 1, PreviousReading: dec("0"), CurrentReading: dec("10")},
	}

	allocs, err := Allocate(dec("500"), dec("10"), readings)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if !allocs[0].Subtotal.Equal(dec("500")) {
		t.Errorf("subtotal = %s, want 500", allocs[0].Subtotal)
	}
	if !allocs[0].TotalAmount.Equal(dec("550")) {
		t.Errorf("total = %s, want 550", allocs[0].TotalAmount)
	}
}

func TestAllocateRejectsNonPositiveConsumption(t *testing.T) {
	cases := []struct {
		name     string
		readings []Reading
	}{
		{"no readings", nil},
		{"zero consumption", []Reading{
			{OwnerID: 1, PreviousReading: dec("100"), CurrentReading: dec("100")},
		}},
		{"net negative", []Reading{
			{OwnerID: 1, PreviousReading: dec("100"), CurrentReading: dec("90")},
			{OwnerID: 2, PreviousReading: dec("50"), CurrentReading: dec("55")},
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Allocate(dec("100"), decimal.Zero, tc.readings); err != ErrNoConsumption {
				t.Fatalf("err = %v, want ErrNoConsumption", err)
			}
		})
	}
}
