package sale

import (
	"fmt"
	"math/big"

	"github.com/holiman/uint256"

	"spotsale/core/events"
)

// StartPlan opens a recurring purchase plan. The deposit is debited from
// the owner immediately; the first cycle becomes due one interval after
// creation.
func (e *Engine) StartPlan(owner [20]byte, unitsPerCycle uint64, deposit *big.Int) (uint64, error) {
	st, err := e.requireState()
	if err != nil {
		return 0, err
	}
	if unitsPerCycle == 0 {
		return 0, ErrInvalidAmount
	}
	// Deposits wider than 256 bits could never match the curve arithmetic.
	if deposit == nil || deposit.Sign() <= 0 || deposit.BitLen() > 256 {
		return 0, ErrInvalidAmount
	}
	if err := debitFunds(st, owner, deposit); err != nil {
		return 0, err
	}
	plan := &Plan{
		Owner:            owner,
		UnitsPerCycle:    unitsPerCycle,
		DepositRemaining: new(big.Int).Set(deposit),
		LastExecutedAt:   e.now(),
		MinInterval:      e.planInterval,
	}
	id, err := st.PlanAppend(plan)
	if err != nil {
		return 0, fmt.Errorf("append plan: %w", err)
	}
	active, err := st.ActivePlans()
	if err != nil {
		return 0, fmt.Errorf("load active plans: %w", err)
	}
	if err := st.PutActivePlans(append(active, id)); err != nil {
		return 0, fmt.Errorf("persist active plans: %w", err)
	}
	e.emit(events.PlanStarted{
		ID:            id,
		Owner:         owner,
		UnitsPerCycle: unitsPerCycle,
		Deposit:       plan.DepositRemaining,
		MinInterval:   plan.MinInterval,
	})
	return id, nil
}

// Plan returns the stored plan record, inert ones included.
func (e *Engine) Plan(id uint64) (*Plan, error) {
	st, err := e.requireState()
	if err != nil {
		return nil, err
	}
	plan, ok, err := st.PlanGet(id)
	if err != nil {
		return nil, fmt.Errorf("load plan: %w", err)
	}
	if !ok {
		return nil, ErrPlanNotFound
	}
	return plan.Copy(), nil
}

// PlanCount returns the number of plans ever created.
func (e *Engine) PlanCount() (uint64, error) {
	st, err := e.requireState()
	if err != nil {
		return 0, err
	}
	return st.PlanCount()
}

// ExecutePlans is the permissionless schedule crank. Every due plan buys
// its configured batch, clamped to the whole units its remaining deposit
// affords; the cycle is consumed either way, so a partial fill never
// retries its shortfall. A plan that can no longer afford one unit leaves
// the active set permanently.
func (e *Engine) ExecutePlans() error {
	st, state, err := e.saleState()
	if err != nil {
		return err
	}
	active, err := st.ActivePlans()
	if err != nil {
		return fmt.Errorf("load active plans: %w", err)
	}
	now := e.now()
	spot, overflow := uint256.FromBig(state.SpotPrice)
	if overflow {
		return ErrPriceOverflow
	}
	stillActive := make([]uint64, 0, len(active))
	mutated := false
	for _, id := range active {
		plan, ok, err := st.PlanGet(id)
		if err != nil {
			return fmt.Errorf("load plan %d: %w", id, err)
		}
		if !ok || plan.DepositRemaining == nil || plan.DepositRemaining.Sign() == 0 {
			continue
		}
		if now-plan.LastExecutedAt < plan.MinInterval {
			stillActive = append(stillActive, id)
			continue
		}
		plan = plan.Copy()
		// A record wider than the curve arithmetic can never fill; drop it
		// rather than stalling the plans behind it.
		deposit, overflow := uint256.FromBig(plan.DepositRemaining)
		if overflow {
			continue
		}
		units := uint64(0)
		paid := new(uint256.Int)
		for units < plan.UnitsPerCycle && deposit.Cmp(spot) >= 0 {
			deposit.Sub(deposit, spot)
			paid.Add(paid, spot)
			units++
			state.TotalSold++
			if spot, err = advanceUnitPrice(spot, state.PriceBaseBps); err != nil {
				return err
			}
		}
		// The cycle is consumed even when the fill was partial or empty.
		plan.LastExecutedAt = now
		plan.DepositRemaining = deposit.ToBig()
		if err := st.PlanPut(plan); err != nil {
			return fmt.Errorf("persist plan %d: %w", id, err)
		}
		if units > 0 {
			if err := creditCoupons(st, plan.Owner, units); err != nil {
				return err
			}
			state.Collected.Add(state.Collected, paid.ToBig())
			mutated = true
			e.emit(events.CouponCredited{Account: plan.Owner, Amount: units, Reason: "plan"})
		}
		e.emit(events.PlanExecuted{
			ID:               id,
			Owner:            plan.Owner,
			Units:            units,
			Paid:             paid.ToBig(),
			DepositRemaining: new(big.Int).Set(plan.DepositRemaining),
		})
		// A deposit below the current unit price can never recover on a
		// strictly increasing curve; drop the plan from the active set.
		depositAfter, overflow := uint256.FromBig(plan.DepositRemaining)
		if overflow {
			return ErrPriceOverflow
		}
		if depositAfter.Sign() > 0 && depositAfter.Cmp(spot) >= 0 {
			stillActive = append(stillActive, id)
		}
	}
	if err := st.PutActivePlans(stillActive); err != nil {
		return fmt.Errorf("persist active plans: %w", err)
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

// EndPlan refunds the remaining deposit to the plan owner and leaves the
// plan permanently inert. Ending an already-ended plan refunds zero and is
// a no-op.
func (e *Engine) EndPlan(caller [20]byte, id uint64) error {
	st, err := e.requireState()
	if err != nil {
		return err
	}
	plan, ok, err := st.PlanGet(id)
	if err != nil {
		return fmt.Errorf("load plan: %w", err)
	}
	if !ok {
		return ErrPlanNotFound
	}
	if plan.Owner != caller {
		return ErrNotPlanOwner
	}
	refund := big.NewInt(0)
	if plan.DepositRemaining != nil {
		refund.Set(plan.DepositRemaining)
	}
	if refund.Sign() == 0 {
		return nil
	}
	plan = plan.Copy()
	plan.DepositRemaining = big.NewInt(0)
	if err := st.PlanPut(plan); err != nil {
		return fmt.Errorf("persist plan: %w", err)
	}
	if err := creditFunds(st, plan.Owner, refund); err != nil {
		return err
	}
	active, err := st.ActivePlans()
	if err != nil {
		return fmt.Errorf("load active plans: %w", err)
	}
	remaining := make([]uint64, 0, len(active))
	for _, activeID := range active {
		if activeID != id {
			remaining = append(remaining, activeID)
		}
	}
	if err := st.PutActivePlans(remaining); err != nil {
		return fmt.Errorf("persist active plans: %w", err)
	}
	e.emit(events.PlanEnded{ID: id, Owner: plan.Owner, Refunded: refund})
	return nil
}
