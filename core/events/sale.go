package events

import "math/big"

const (
	// TypeSaleStarted is emitted once when the operator opens the sale.
	TypeSaleStarted = "sale.started"
	// TypeSpotSold is emitted for every completed purchase, whether the
	// units were minted directly or credited as coupons.
	TypeSpotSold = "sale.spot.sold"
	// TypeSpotMinted is emitted per item id assigned to an owner.
	TypeSpotMinted = "sale.spot.minted"
	// TypeCouponCredited is emitted whenever an account's coupon balance
	// increases (purchase, airdrop, migration, bid fill, plan execution).
	TypeCouponCredited = "sale.coupon.credited"
	// TypeCouponRedeemed is emitted when coupons are burned for freshly
	// minted items.
	TypeCouponRedeemed = "sale.coupon.redeemed"
	// TypeCouponTransferred is emitted on coupon transfers between accounts.
	TypeCouponTransferred = "sale.coupon.transferred"
	// TypeBidCreated is emitted when a standing bid enters the book.
	TypeBidCreated = "sale.bid.created"
	// TypeBidFilled is emitted per bid per crank run that filled at least
	// one unit.
	TypeBidFilled = "sale.bid.filled"
	// TypePlanStarted is emitted when a recurring purchase plan is opened.
	TypePlanStarted = "sale.plan.started"
	// TypePlanExecuted is emitted per plan cycle that was consumed, full or
	// partial.
	TypePlanExecuted = "sale.plan.executed"
	// TypePlanEnded is emitted when a plan owner closes the plan and the
	// remaining deposit is refunded.
	TypePlanEnded = "sale.plan.ended"
	// TypeWhitelistUpdated is emitted when the merkle root is replaced or
	// the whitelist toggle flips.
	TypeWhitelistUpdated = "sale.whitelist.updated"
	// TypePriceUpdated is emitted when the operator adjusts the spot price
	// or the curve base.
	TypePriceUpdated = "sale.price.updated"
	// TypeFundsWithdrawn is emitted when collected proceeds move to the
	// payout account.
	TypeFundsWithdrawn = "sale.funds.withdrawn"
)

// SaleStarted records the curve parameters in force when the sale opened.
type SaleStarted struct {
	SpotPrice    *big.Int
	PriceBaseBps uint64
}

// EventType implements the Event interface.
func (SaleStarted) EventType() string { return TypeSaleStarted }

// SpotSold captures a completed purchase through the sale controller.
type SpotSold struct {
	Buyer    [20]byte
	Units    uint64
	Paid     *big.Int
	AsCoupon bool
}

// EventType implements the Event interface.
func (SpotSold) EventType() string { return TypeSpotSold }

// SpotMinted captures a single item id assignment.
type SpotMinted struct {
	ItemID uint64
	Owner  [20]byte
}

// EventType implements the Event interface.
func (SpotMinted) EventType() string { return TypeSpotMinted }

// CouponCredited captures a coupon balance increase and its origin.
type CouponCredited struct {
	Account [20]byte
	Amount  uint64
	Reason  string
}

// EventType implements the Event interface.
func (CouponCredited) EventType() string { return TypeCouponCredited }

// CouponRedeemed captures coupons exchanged for minted items.
type CouponRedeemed struct {
	Account [20]byte
	Units   uint64
}

// EventType implements the Event interface.
func (CouponRedeemed) EventType() string { return TypeCouponRedeemed }

// CouponTransferred captures a coupon transfer between two accounts.
type CouponTransferred struct {
	From   [20]byte
	To     [20]byte
	Amount uint64
}

// EventType implements the Event interface.
func (CouponTransferred) EventType() string { return TypeCouponTransferred }

// BidCreated captures a new standing bid.
type BidCreated struct {
	ID         uint64
	Owner      [20]byte
	LimitPrice *big.Int
	Deposit    *big.Int
}

// EventType implements the Event interface.
func (BidCreated) EventType() string { return TypeBidCreated }

// BidFilled captures the outcome of one crank pass over one bid.
type BidFilled struct {
	ID               uint64
	Owner            [20]byte
	Units            uint64
	Paid             *big.Int
	DepositRemaining *big.Int
}

// EventType implements the Event interface.
func (BidFilled) EventType() string { return TypeBidFilled }

// PlanStarted captures a new recurring purchase plan.
type PlanStarted struct {
	ID            uint64
	Owner         [20]byte
	UnitsPerCycle uint64
	Deposit       *big.Int
	MinInterval   int64
}

// EventType implements the Event interface.
func (PlanStarted) EventType() string { return TypePlanStarted }

// PlanExecuted captures one consumed plan cycle. Units may be below the
// plan's configured batch when the remaining deposit clamped the fill, and
// zero when the plan went inert.
type PlanExecuted struct {
	ID               uint64
	Owner            [20]byte
	Units            uint64
	Paid             *big.Int
	DepositRemaining *big.Int
}

// EventType implements the Event interface.
func (PlanExecuted) EventType() string { return TypePlanExecuted }

// PlanEnded captures a closed plan and the refunded deposit.
type PlanEnded struct {
	ID       uint64
	Owner    [20]byte
	Refunded *big.Int
}

// EventType implements the Event interface.
func (PlanEnded) EventType() string { return TypePlanEnded }

// WhitelistUpdated captures the current gate configuration.
type WhitelistUpdated struct {
	Enabled bool
	Root    [32]byte
}

// EventType implements the Event interface.
func (WhitelistUpdated) EventType() string { return TypeWhitelistUpdated }

// PriceUpdated captures an administrative curve adjustment.
type PriceUpdated struct {
	SpotPrice    *big.Int
	PriceBaseBps uint64
}

// EventType implements the Event interface.
func (PriceUpdated) EventType() string { return TypePriceUpdated }

// FundsWithdrawn captures a payout of collected proceeds.
type FundsWithdrawn struct {
	Payout [20]byte
	Amount *big.Int
}

// EventType implements the Event interface.
func (FundsWithdrawn) EventType() string { return TypeFundsWithdrawn }
