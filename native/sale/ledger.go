package sale

import (
	"fmt"
	"math"

	"spotsale/core/events"
)

// The coupon ledger is a plain account -> uint64 balance map. Every
// purchase path that does not immediately mint goes through these helpers,
// so balances can never go negative and a failed debit changes nothing.

func creditCoupons(st EngineState, addr [20]byte, n uint64) error {
	balance, err := st.Coupons(addr)
	if err != nil {
		return fmt.Errorf("load coupons: %w", err)
	}
	if balance > math.MaxUint64-n {
		return ErrInvalidAmount
	}
	return st.PutCoupons(addr, balance+n)
}

func debitCoupons(st EngineState, addr [20]byte, n uint64) error {
	balance, err := st.Coupons(addr)
	if err != nil {
		return fmt.Errorf("load coupons: %w", err)
	}
	if balance < n {
		return ErrInsufficientCoupons
	}
	return st.PutCoupons(addr, balance-n)
}

// Coupons reports the coupon balance of an account.
func (e *Engine) Coupons(addr [20]byte) (uint64, error) {
	st, err := e.requireState()
	if err != nil {
		return 0, err
	}
	return st.Coupons(addr)
}

// TransferCoupons moves n coupons between accounts as an atomic
// debit-then-credit. An insufficient sender balance fails the whole call
// with no partial transfer.
func (e *Engine) TransferCoupons(from, to [20]byte, n uint64) error {
	st, err := e.requireState()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrInvalidAmount
	}
	if err := debitCoupons(st, from, n); err != nil {
		return err
	}
	if err := creditCoupons(st, to, n); err != nil {
		return err
	}
	e.emit(events.CouponTransferred{From: from, To: to, Amount: n})
	return nil
}

// AirdropCoupons is the administrative credit with no debit counterpart,
// used for direct grants. Operator only.
func (e *Engine) AirdropCoupons(caller, account [20]byte, n uint64) error {
	if err := e.requireOperator(caller); err != nil {
		return err
	}
	st, err := e.requireState()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrInvalidAmount
	}
	if err := creditCoupons(st, account, n); err != nil {
		return err
	}
	e.emit(events.CouponCredited{Account: account, Amount: n, Reason: "airdrop"})
	return nil
}
