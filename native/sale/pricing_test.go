package sale

import (
	"math"
	"math/big"
	"testing"
)

func TestBatchQuoteEqualsSequentialSingles(t *testing.T) {
	start := wei("4586000000000000000")
	const base = uint64(10500)
	for _, sold := range []uint64{0, 1, 7, 23} {
		for _, units := range []uint64{1, 2, 5, 10} {
			batch, err := Cost(sold, units, start, base)
			if err != nil {
				t.Fatalf("cost(%d, %d): %v", sold, units, err)
			}
			sum := big.NewInt(0)
			for i := uint64(0); i < units; i++ {
				single, err := Cost(sold+i, 1, start, base)
				if err != nil {
					t.Fatalf("cost(%d, 1): %v", sold+i, err)
				}
				sum.Add(sum, single)
			}
			if batch.Cmp(sum) != 0 {
				t.Fatalf("cost(%d, %d) = %s but singles sum to %s", sold, units, batch, sum)
			}
		}
	}
}

func TestFivePercentCompounding(t *testing.T) {
	start := wei("4586000000000000000")
	first, err := Cost(0, 1, start, 10500)
	if err != nil {
		t.Fatalf("cost: %v", err)
	}
	if first.Cmp(start) != 0 {
		t.Fatalf("unit 0 priced at %s, want %s", first, start)
	}
	second, err := Cost(1, 1, start, 10500)
	if err != nil {
		t.Fatalf("cost: %v", err)
	}
	if second.Cmp(wei("4815300000000000000")) != 0 {
		t.Fatalf("unit 1 priced at %s, want 4815300000000000000", second)
	}
}

func TestThreePercentCompounding(t *testing.T) {
	start := wei("5000000000000000")
	next, err := Cost(1, 1, start, 10300)
	if err != nil {
		t.Fatalf("cost: %v", err)
	}
	if next.Cmp(wei("5150000000000000")) != 0 {
		t.Fatalf("unit 1 priced at %s, want 5150000000000000", next)
	}
}

func TestQuoteFromSpotAdvancesExactly(t *testing.T) {
	start := wei("4586000000000000000")
	const base = uint64(10500)
	total, next, err := quoteFromSpot(start, 3, base)
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	want, err := Cost(0, 3, start, base)
	if err != nil {
		t.Fatalf("cost: %v", err)
	}
	if total.Cmp(want) != 0 {
		t.Fatalf("quote %s, want %s", total, want)
	}
	unit3, err := Cost(3, 1, start, base)
	if err != nil {
		t.Fatalf("cost: %v", err)
	}
	if next.Cmp(unit3) != 0 {
		t.Fatalf("spot after 3 units %s, want %s", next, unit3)
	}
}

// A zero spot price never grows, so a quote for even the maximum unit count
// must return immediately instead of iterating per unit.
func TestZeroSpotQuoteTerminates(t *testing.T) {
	total, next, err := quoteFromSpot(big.NewInt(0), math.MaxUint64, 10500)
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	if total.Sign() != 0 || next.Sign() != 0 {
		t.Fatalf("zero spot quoted %s with next %s", total, next)
	}
	cost, err := Cost(math.MaxUint64, math.MaxUint64, big.NewInt(0), 10500)
	if err != nil {
		t.Fatalf("cost: %v", err)
	}
	if cost.Sign() != 0 {
		t.Fatalf("zero start cost %s", cost)
	}
}

func TestZeroUnitsQuoteIsFree(t *testing.T) {
	total, next, err := quoteFromSpot(wei("4586000000000000000"), 0, 10500)
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	if total.Sign() != 0 {
		t.Fatalf("zero units cost %s", total)
	}
	if next.Cmp(wei("4586000000000000000")) != 0 {
		t.Fatalf("zero units moved the spot price to %s", next)
	}
}
