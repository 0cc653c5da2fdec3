package sale

import (
	"math/big"

	"github.com/holiman/uint256"
)

// PriceBaseDenominator fixes the precision of the curve base: a base of
// 10500 means every sold unit raises the next unit's price by 5%.
const PriceBaseDenominator = 10_000

// advanceUnitPrice computes the price of the unit after one priced at p:
// floor(p * baseBps / 10000). Flooring per unit, never on the aggregate,
// keeps batch quotes exactly equal to summed single-unit quotes.
func advanceUnitPrice(p *uint256.Int, baseBps uint64) (*uint256.Int, error) {
	next, overflow := new(uint256.Int).MulOverflow(p, uint256.NewInt(baseBps))
	if overflow {
		return nil, ErrPriceOverflow
	}
	return next.Div(next, uint256.NewInt(PriceBaseDenominator)), nil
}

// quoteFromSpot sums the prices of the next units starting at the given spot
// price and returns both the total cost and the spot price left after the
// last unit.
func quoteFromSpot(spot *big.Int, units uint64, baseBps uint64) (total *big.Int, next *big.Int, err error) {
	if spot == nil {
		spot = big.NewInt(0)
	}
	price, overflow := uint256.FromBig(spot)
	if overflow {
		return nil, nil, ErrPriceOverflow
	}
	sum := new(uint256.Int)
	for i := uint64(0); i < units; i++ {
		// A zero price stays zero forever; the remaining units add nothing.
		if price.IsZero() {
			break
		}
		var carried bool
		if sum, carried = new(uint256.Int).AddOverflow(sum, price); carried {
			return nil, nil, ErrPriceOverflow
		}
		if price, err = advanceUnitPrice(price, baseBps); err != nil {
			return nil, nil, err
		}
	}
	return sum.ToBig(), price.ToBig(), nil
}

// Cost computes the total cost of purchasing units [totalSold,
// totalSold+units) under a curve that started at startPrice. It is a pure
// function of its arguments; the engine itself quotes from the cached spot
// price instead of replaying the whole curve, and the two agree exactly
// because both floor once per unit.
func Cost(totalSold, units uint64, startPrice *big.Int, baseBps uint64) (*big.Int, error) {
	if startPrice == nil {
		startPrice = big.NewInt(0)
	}
	price, overflow := uint256.FromBig(startPrice)
	if overflow {
		return nil, ErrPriceOverflow
	}
	var err error
	for i := uint64(0); i < totalSold; i++ {
		if price.IsZero() {
			break
		}
		if price, err = advanceUnitPrice(price, baseBps); err != nil {
			return nil, err
		}
	}
	total, _, err := quoteFromSpot(price.ToBig(), units, baseBps)
	return total, err
}
