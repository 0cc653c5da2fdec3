package sale

import (
	"fmt"
	"math/big"
	"time"

	"spotsale/core/events"
	"spotsale/core/types"
)

// EngineState is the narrow view of the state backend the engine needs.
// state/sale provides the persistent implementation; tests supply mocks.
type EngineState interface {
	SaleState() (*SaleState, error)
	PutSaleState(*SaleState) error
	GetAccount(addr [20]byte) (*types.Account, error)
	PutAccount(addr [20]byte, account *types.Account) error
	OwnerOf(itemID uint64) ([20]byte, bool, error)
	PutOwner(itemID uint64, owner [20]byte) error
	OwnedCount(addr [20]byte) (uint64, error)
	PutOwnedCount(addr [20]byte, count uint64) error
	Coupons(addr [20]byte) (uint64, error)
	PutCoupons(addr [20]byte, balance uint64) error
	BidCount() (uint64, error)
	BidGet(id uint64) (*Bid, bool, error)
	BidPut(*Bid) error
	BidAppend(*Bid) (uint64, error)
	ActiveBids() ([]uint64, error)
	PutActiveBids([]uint64) error
	PlanCount() (uint64, error)
	PlanGet(id uint64) (*Plan, bool, error)
	PlanPut(*Plan) error
	PlanAppend(*Plan) (uint64, error)
	ActivePlans() ([]uint64, error)
	PutActivePlans([]uint64) error
	Migrated(addr [20]byte) (bool, error)
	PutMigrated(addr [20]byte) error
}

// LegacyRegistry is the read-only view of the previous generation's
// ownership records, consulted by the one-time coupon migration.
type LegacyRegistry interface {
	HoldingsOf(addr [20]byte) (uint64, error)
}

// DefaultPlanInterval is the minimum spacing between plan cycles unless the
// engine is configured otherwise.
const DefaultPlanInterval = int64(30 * 24 * 60 * 60)

// Engine is the sale controller. It is the only component that mutates more
// than one ledger per call; every entry point validates first, mutates
// copies, and persists only on success.
type Engine struct {
	state        EngineState
	emitter      events.Emitter
	legacy       LegacyRegistry
	operator     [20]byte
	payout       [20]byte
	planInterval int64
	nowFn        func() int64
}

// NewEngine creates a sale engine with a no-op emitter and the default plan
// interval. Callers wire the state backend via SetState.
func NewEngine() *Engine {
	return &Engine{
		emitter:      events.NoopEmitter{},
		planInterval: DefaultPlanInterval,
		nowFn:        func() int64 { return time.Now().Unix() },
	}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state EngineState) { e.state = state }

// SetOperator configures the account allowed to call administrative
// entry points.
func (e *Engine) SetOperator(addr [20]byte) { e.operator = addr }

// SetPayout configures the account that receives withdrawn proceeds.
func (e *Engine) SetPayout(addr [20]byte) { e.payout = addr }

// SetLegacyRegistry configures the registry consulted by the one-time
// coupon migration.
func (e *Engine) SetLegacyRegistry(reg LegacyRegistry) { e.legacy = reg }

// SetPlanInterval overrides the minimum interval stamped onto new plans.
// Non-positive values reset the default.
func (e *Engine) SetPlanInterval(seconds int64) {
	if seconds <= 0 {
		e.planInterval = DefaultPlanInterval
		return
	}
	e.planInterval = seconds
}

// SetNowFunc overrides the time source, primarily so tests can drive the
// plan schedule deterministically.
func (e *Engine) SetNowFunc(now func() int64) {
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

// SetEmitter configures the event emitter. Passing nil resets it to a no-op.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

func (e *Engine) emit(evt events.Event) {
	if e == nil || e.emitter == nil {
		return
	}
	e.emitter.Emit(evt)
}

func (e *Engine) now() int64 {
	if e == nil || e.nowFn == nil {
		return time.Now().Unix()
	}
	return e.nowFn()
}

func (e *Engine) requireState() (EngineState, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	return e.state, nil
}

func (e *Engine) requireOperator(caller [20]byte) error {
	if caller != e.operator {
		return ErrUnauthorized
	}
	return nil
}

func (e *Engine) saleState() (EngineState, *SaleState, error) {
	st, err := e.requireState()
	if err != nil {
		return nil, nil, err
	}
	state, err := st.SaleState()
	if err != nil {
		return nil, nil, fmt.Errorf("load sale state: %w", err)
	}
	return st, state.Normalize().Clone(), nil
}

func getAccount(st EngineState, addr [20]byte) (*types.Account, error) {
	account, err := st.GetAccount(addr)
	if err != nil {
		return nil, fmt.Errorf("load account: %w", err)
	}
	return account.Normalize().Clone(), nil
}

// debitFunds removes amount from the account's balance, failing without
// side effects when the balance cannot cover it.
func debitFunds(st EngineState, addr [20]byte, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return ErrInvalidAmount
	}
	account, err := getAccount(st, addr)
	if err != nil {
		return err
	}
	if account.Balance.Cmp(amount) < 0 {
		return ErrInsufficientFunds
	}
	account.Balance.Sub(account.Balance, amount)
	return st.PutAccount(addr, account)
}

func creditFunds(st EngineState, addr [20]byte, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return ErrInvalidAmount
	}
	account, err := getAccount(st, addr)
	if err != nil {
		return err
	}
	account.Balance.Add(account.Balance, amount)
	return st.PutAccount(addr, account)
}

// mintSpots assigns the next units sequential item ids to owner and updates
// the dense ownership registry. The sale state is mutated in place; the
// caller persists it.
func (e *Engine) mintSpots(st EngineState, state *SaleState, owner [20]byte, units uint64) error {
	count, err := st.OwnedCount(owner)
	if err != nil {
		return fmt.Errorf("load owned count: %w", err)
	}
	for i := uint64(0); i < units; i++ {
		id := state.MintedCount
		if err := st.PutOwner(id, owner); err != nil {
			return fmt.Errorf("record owner of item %d: %w", id, err)
		}
		state.MintedCount++
		count++
		e.emit(events.SpotMinted{ItemID: id, Owner: owner})
	}
	return st.PutOwnedCount(owner, count)
}

// Purchase is the mint-family entry point. The buyer attaches payment from
// their account balance; anything beyond the quoted cost is retained by the
// sale rather than refunded, so callers are expected to send the exact
// quote.
func (e *Engine) Purchase(buyer [20]byte, units uint64, proof [][32]byte, asCoupon bool, payment *big.Int) error {
	st, state, err := e.saleState()
	if err != nil {
		return err
	}
	if units == 0 {
		return ErrInvalidAmount
	}
	if payment == nil || payment.Sign() < 0 {
		return ErrInvalidAmount
	}
	if !state.SaleActive {
		return ErrSaleNotActive
	}
	if err := CheckAccess(buyer, proof, state.WhitelistEnabled, state.WhitelistRoot); err != nil {
		return err
	}
	cost, nextSpot, err := quoteFromSpot(state.SpotPrice, units, state.PriceBaseBps)
	if err != nil {
		return err
	}
	if payment.Cmp(cost) < 0 {
		return ErrInsufficientPayment
	}
	if err := debitFunds(st, buyer, payment); err != nil {
		return err
	}
	state.Collected.Add(state.Collected, payment)
	state.TotalSold += units
	state.SpotPrice = nextSpot
	if asCoupon {
		if err := creditCoupons(st, buyer, units); err != nil {
			return err
		}
	} else if err := e.mintSpots(st, state, buyer, units); err != nil {
		return err
	}
	if err := st.PutSaleState(state); err != nil {
		return fmt.Errorf("persist sale state: %w", err)
	}
	e.emit(events.SpotSold{Buyer: buyer, Units: units, Paid: new(big.Int).Set(payment), AsCoupon: asCoupon})
	if asCoupon {
		e.emit(events.CouponCredited{Account: buyer, Amount: units, Reason: "purchase"})
	}
	return nil
}

// MintFromCoupons redeems prepaid coupons for freshly minted items. The
// purchase already happened at coupon-issue time, so neither the curve nor
// total_sold moves here.
func (e *Engine) MintFromCoupons(buyer [20]byte, units uint64) error {
	st, state, err := e.saleState()
	if err != nil {
		return err
	}
	if units == 0 {
		return ErrInvalidAmount
	}
	if err := debitCoupons(st, buyer, units); err != nil {
		return err
	}
	if err := e.mintSpots(st, state, buyer, units); err != nil {
		return err
	}
	if err := st.PutSaleState(state); err != nil {
		return fmt.Errorf("persist sale state: %w", err)
	}
	e.emit(events.CouponRedeemed{Account: buyer, Units: units})
	return nil
}

// CalcPrice quotes the cost of buying units at the current curve position.
func (e *Engine) CalcPrice(units uint64) (*big.Int, error) {
	_, state, err := e.saleState()
	if err != nil {
		return nil, err
	}
	cost, _, err := quoteFromSpot(state.SpotPrice, units, state.PriceBaseBps)
	return cost, err
}

// SpotPrice returns the price of the next unit.
func (e *Engine) SpotPrice() (*big.Int, error) {
	_, state, err := e.saleState()
	if err != nil {
		return nil, err
	}
	return state.SpotPrice, nil
}

// OwnerOf reports the owner of a minted item.
func (e *Engine) OwnerOf(itemID uint64) ([20]byte, error) {
	st, err := e.requireState()
	if err != nil {
		return [20]byte{}, err
	}
	owner, ok, err := st.OwnerOf(itemID)
	if err != nil {
		return [20]byte{}, fmt.Errorf("load owner: %w", err)
	}
	if !ok {
		return [20]byte{}, ErrItemNotFound
	}
	return owner, nil
}

// BalanceOf reports how many items the account holds.
func (e *Engine) BalanceOf(addr [20]byte) (uint64, error) {
	st, err := e.requireState()
	if err != nil {
		return 0, err
	}
	return st.OwnedCount(addr)
}

// TotalSupply reports the number of minted items, which lags TotalSold by
// the coupons still outstanding.
func (e *Engine) TotalSupply() (uint64, error) {
	_, state, err := e.saleState()
	if err != nil {
		return 0, err
	}
	return state.MintedCount, nil
}

// TotalSold reports the curve position: units sold through any path.
func (e *Engine) TotalSold() (uint64, error) {
	_, state, err := e.saleState()
	if err != nil {
		return 0, err
	}
	return state.TotalSold, nil
}

// TokenURI returns the metadata URI for a minted item. Until reveal every
// item serves the configured placeholder.
func (e *Engine) TokenURI(itemID uint64) (string, error) {
	_, state, err := e.saleState()
	if err != nil {
		return "", err
	}
	if itemID >= state.MintedCount {
		return "", ErrItemNotFound
	}
	return state.NotRevealedURI, nil
}

// FundsOf reports the native balance of an account.
func (e *Engine) FundsOf(addr [20]byte) (*big.Int, error) {
	st, err := e.requireState()
	if err != nil {
		return nil, err
	}
	account, err := getAccount(st, addr)
	if err != nil {
		return nil, err
	}
	return account.Balance, nil
}

// StartSale opens the sale. Operator only.
func (e *Engine) StartSale(caller [20]byte) error {
	if err := e.requireOperator(caller); err != nil {
		return err
	}
	st, state, err := e.saleState()
	if err != nil {
		return err
	}
	state.SaleActive = true
	if err := st.PutSaleState(state); err != nil {
		return err
	}
	e.emit(events.SaleStarted{SpotPrice: new(big.Int).Set(state.SpotPrice), PriceBaseBps: state.PriceBaseBps})
	return nil
}

// SetWhitelist replaces the whitelist merkle root wholesale. Operator only.
func (e *Engine) SetWhitelist(caller [20]byte, root [32]byte) error {
	if err := e.requireOperator(caller); err != nil {
		return err
	}
	st, state, err := e.saleState()
	if err != nil {
		return err
	}
	state.WhitelistRoot = root
	if err := st.PutSaleState(state); err != nil {
		return err
	}
	e.emit(events.WhitelistUpdated{Enabled: state.WhitelistEnabled, Root: root})
	return nil
}

// FlipWhitelistEnabled toggles the whitelist gate. Operator only.
func (e *Engine) FlipWhitelistEnabled(caller [20]byte) error {
	if err := e.requireOperator(caller); err != nil {
		return err
	}
	st, state, err := e.saleState()
	if err != nil {
		return err
	}
	state.WhitelistEnabled = !state.WhitelistEnabled
	if err := st.PutSaleState(state); err != nil {
		return err
	}
	e.emit(events.WhitelistUpdated{Enabled: state.WhitelistEnabled, Root: state.WhitelistRoot})
	return nil
}

// SetStartPrice replaces the price of the next unit. Units already sold are
// unaffected; the new price must be positive so the curve keeps increasing.
// Operator only.
func (e *Engine) SetStartPrice(caller [20]byte, price *big.Int) error {
	if err := e.requireOperator(caller); err != nil {
		return err
	}
	if price == nil || price.Sign() <= 0 || price.BitLen() > 256 {
		return ErrInvalidAmount
	}
	st, state, err := e.saleState()
	if err != nil {
		return err
	}
	state.SpotPrice = new(big.Int).Set(price)
	if err := st.PutSaleState(state); err != nil {
		return err
	}
	e.emit(events.PriceUpdated{SpotPrice: new(big.Int).Set(price), PriceBaseBps: state.PriceBaseBps})
	return nil
}

// SetPriceBase replaces the curve base, which must stay strictly above one
// so the curve keeps increasing. Operator only.
func (e *Engine) SetPriceBase(caller [20]byte, baseBps uint64) error {
	if err := e.requireOperator(caller); err != nil {
		return err
	}
	if baseBps <= PriceBaseDenominator {
		return ErrInvalidPriceBase
	}
	st, state, err := e.saleState()
	if err != nil {
		return err
	}
	state.PriceBaseBps = baseBps
	if err := st.PutSaleState(state); err != nil {
		return err
	}
	e.emit(events.PriceUpdated{SpotPrice: new(big.Int).Set(state.SpotPrice), PriceBaseBps: baseBps})
	return nil
}

// SetNotRevealedURI replaces the pre-reveal metadata URI. Operator only.
func (e *Engine) SetNotRevealedURI(caller [20]byte, uri string) error {
	if err := e.requireOperator(caller); err != nil {
		return err
	}
	st, state, err := e.saleState()
	if err != nil {
		return err
	}
	state.NotRevealedURI = uri
	return st.PutSaleState(state)
}

// Withdraw moves all collected proceeds to the payout account. Operator
// only.
func (e *Engine) Withdraw(caller [20]byte) (*big.Int, error) {
	if err := e.requireOperator(caller); err != nil {
		return nil, err
	}
	st, state, err := e.saleState()
	if err != nil {
		return nil, err
	}
	amount := new(big.Int).Set(state.Collected)
	if amount.Sign() == 0 {
		return amount, nil
	}
	state.Collected.SetInt64(0)
	if err := creditFunds(st, e.payout, amount); err != nil {
		return nil, err
	}
	if err := st.PutSaleState(state); err != nil {
		return nil, err
	}
	e.emit(events.FundsWithdrawn{Payout: e.payout, Amount: new(big.Int).Set(amount)})
	return amount, nil
}

// CreditFunds deposits native funds into an account so it can pay for
// purchases and crank deposits. Operator only.
func (e *Engine) CreditFunds(caller, account [20]byte, amount *big.Int) error {
	if err := e.requireOperator(caller); err != nil {
		return err
	}
	st, err := e.requireState()
	if err != nil {
		return err
	}
	return creditFunds(st, account, amount)
}
