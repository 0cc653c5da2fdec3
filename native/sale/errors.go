package sale

import "errors"

var (
	// ErrSaleNotActive rejects purchases before the operator opens the sale.
	ErrSaleNotActive = errors.New("sale: sale not active")
	// ErrInsufficientPayment rejects purchases whose attached payment does
	// not cover the quoted cost.
	ErrInsufficientPayment = errors.New("sale: insufficient payment")
	// ErrInsufficientFunds rejects calls whose attached amount exceeds the
	// caller's account balance.
	ErrInsufficientFunds = errors.New("sale: insufficient funds")
	// ErrInsufficientCoupons rejects coupon debits beyond the balance.
	ErrInsufficientCoupons = errors.New("sale: insufficient coupons")
	// ErrInvalidProof rejects whitelist-gated calls with a bad merkle proof.
	ErrInvalidProof = errors.New("sale: invalid whitelist proof")
	// ErrItemNotFound is returned for ownership lookups on unminted ids.
	ErrItemNotFound = errors.New("sale: item not found")
	// ErrBidNotFound is returned for out-of-range bid ids.
	ErrBidNotFound = errors.New("sale: bid not found")
	// ErrPlanNotFound is returned for out-of-range plan ids.
	ErrPlanNotFound = errors.New("sale: plan not found")
	// ErrNotPlanOwner rejects end_plan calls from anyone but the owner.
	ErrNotPlanOwner = errors.New("sale: not plan owner")
	// ErrUnauthorized rejects administrative calls from non-operators.
	ErrUnauthorized = errors.New("sale: unauthorized")
	// ErrInvalidAmount rejects zero-unit or nil/negative-value requests.
	ErrInvalidAmount = errors.New("sale: invalid amount")
	// ErrInvalidPriceBase rejects curve bases at or below 1.0.
	ErrInvalidPriceBase = errors.New("sale: price base must exceed one")
	// ErrAlreadyMigrated rejects a second legacy migration for an account.
	ErrAlreadyMigrated = errors.New("sale: account already migrated")
	// ErrPriceOverflow is returned when curve arithmetic exceeds 256 bits.
	ErrPriceOverflow = errors.New("sale: price arithmetic overflow")

	errNilState = errors.New("sale engine: state not configured")
)
