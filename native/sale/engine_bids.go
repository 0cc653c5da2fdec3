package sale

import (
	"fmt"
	"math/big"

	"github.com/holiman/uint256"

	"spotsale/core/events"
)

// CreateBid opens a standing limit order. The deposit is debited from the
// owner's account immediately and stays locked in the bid; there is no
// close or refund entry point, the book only drains deposits through fills.
func (e *Engine) CreateBid(owner [20]byte, limitPrice, deposit *big.Int) (uint64, error) {
	st, err := e.requireState()
	if err != nil {
		return 0, err
	}
	// Values wider than 256 bits could never match the curve arithmetic.
	if limitPrice == nil || limitPrice.Sign() < 0 || limitPrice.BitLen() > 256 {
		return 0, ErrInvalidAmount
	}
	if deposit == nil || deposit.Sign() <= 0 || deposit.BitLen() > 256 {
		return 0, ErrInvalidAmount
	}
	if err := debitFunds(st, owner, deposit); err != nil {
		return 0, err
	}
	bid := &Bid{
		Owner:            owner,
		LimitPrice:       new(big.Int).Set(limitPrice),
		DepositRemaining: new(big.Int).Set(deposit),
	}
	id, err := st.BidAppend(bid)
	if err != nil {
		return 0, fmt.Errorf("append bid: %w", err)
	}
	active, err := st.ActiveBids()
	if err != nil {
		return 0, fmt.Errorf("load active bids: %w", err)
	}
	if err := st.PutActiveBids(append(active, id)); err != nil {
		return 0, fmt.Errorf("persist active bids: %w", err)
	}
	e.emit(events.BidCreated{ID: id, Owner: owner, LimitPrice: bid.LimitPrice, Deposit: bid.DepositRemaining})
	return id, nil
}

// Bid returns the stored bid record, inert ones included.
func (e *Engine) Bid(id uint64) (*Bid, error) {
	st, err := e.requireState()
	if err != nil {
		return nil, err
	}
	bid, ok, err := st.BidGet(id)
	if err != nil {
		return nil, fmt.Errorf("load bid: %w", err)
	}
	if !ok {
		return nil, ErrBidNotFound
	}
	return bid.Copy(), nil
}

// BidCount returns the number of bids ever created.
func (e *Engine) BidCount() (uint64, error) {
	st, err := e.requireState()
	if err != nil {
		return 0, err
	}
	return st.BidCount()
}

// ExecuteBids is the permissionless matching crank. Bids are visited in
// creation order, each greedily filling one unit at a time while the spot
// price stays within its limit and its deposit covers the unit. Unfillable
// bids are skipped, never aborting the crank; bids whose deposit hits zero
// leave the active set for good.
func (e *Engine) ExecuteBids() error {
	st, state, err := e.saleState()
	if err != nil {
		return err
	}
	active, err := st.ActiveBids()
	if err != nil {
		return fmt.Errorf("load active bids: %w", err)
	}
	spot, overflow := uint256.FromBig(state.SpotPrice)
	if overflow {
		return ErrPriceOverflow
	}
	stillActive := active[:0]
	mutated := false
	for _, id := range active {
		bid, ok, err := st.BidGet(id)
		if err != nil {
			return fmt.Errorf("load bid %d: %w", id, err)
		}
		if !ok || bid.DepositRemaining == nil || bid.DepositRemaining.Sign() == 0 {
			continue
		}
		bid = bid.Copy()
		// A record wider than the curve arithmetic can never fill; drop it
		// rather than stalling every bid behind it.
		limit, overflow := uint256.FromBig(bid.LimitPrice)
		if overflow {
			continue
		}
		deposit, overflow := uint256.FromBig(bid.DepositRemaining)
		if overflow {
			continue
		}
		units := uint64(0)
		paid := new(uint256.Int)
		for spot.Cmp(limit) <= 0 && deposit.Cmp(spot) >= 0 {
			deposit.Sub(deposit, spot)
			paid.Add(paid, spot)
			units++
			state.TotalSold++
			if spot, err = advanceUnitPrice(spot, state.PriceBaseBps); err != nil {
				return err
			}
		}
		if units > 0 {
			bid.DepositRemaining = deposit.ToBig()
			if err := st.BidPut(bid); err != nil {
				return fmt.Errorf("persist bid %d: %w", id, err)
			}
			if err := creditCoupons(st, bid.Owner, units); err != nil {
				return err
			}
			state.Collected.Add(state.Collected, paid.ToBig())
			mutated = true
			e.emit(events.BidFilled{
				ID:               id,
				Owner:            bid.Owner,
				Units:            units,
				Paid:             paid.ToBig(),
				DepositRemaining: new(big.Int).Set(bid.DepositRemaining),
			})
			e.emit(events.CouponCredited{Account: bid.Owner, Amount: units, Reason: "bid"})
		}
		if bid.DepositRemaining.Sign() > 0 {
			stillActive = append(stillActive, id)
		}
	}
	if err := st.PutActiveBids(append([]uint64(nil), stillActive...)); err != nil {
		return fmt.Errorf("persist active bids: %w", err)
	}
	if !mutated {
		return nil
	}
	state.SpotPrice = spot.ToBig()
	if err := st.PutSaleState(state); err != nil {
		return fmt.Errorf("persist sale state: %w", err)
	}
	return nil
}
