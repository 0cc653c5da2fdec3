// Package sale persists the sale engine's ledgers in a key-value store.
// Records are RLP encoded under prefixed keys; append-only arenas (bids,
// plans) are addressed by sequential ids with a separate count key, and the
// crank-facing active-id lists are stored alongside so inert entries cost
// nothing to skip.
package sale

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"

	"spotsale/core/types"
	engine "spotsale/native/sale"
	"spotsale/storage"
)

var (
	keySaleState   = []byte("sale/state")
	keyBidCount    = []byte("sale/bids/count")
	keyActiveBids  = []byte("sale/bids/active")
	keyPlanCount   = []byte("sale/plans/count")
	keyActivePlans = []byte("sale/plans/active")

	prefixAccount  = []byte("sale/account/")
	prefixOwner    = []byte("sale/owner/")
	prefixOwned    = []byte("sale/owned/")
	prefixCoupons  = []byte("sale/coupons/")
	prefixBid      = []byte("sale/bid/")
	prefixPlan     = []byte("sale/plan/")
	prefixMigrated = []byte("sale/migrated/")
)

func addrKey(prefix []byte, addr [20]byte) []byte {
	return append(append([]byte(nil), prefix...), addr[:]...)
}

func idKey(prefix []byte, id uint64) []byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], id)
	return append(append([]byte(nil), prefix...), buf[:]...)
}

type storedSaleState struct {
	TotalSold        uint64
	MintedCount      uint64
	SaleActive       bool
	WhitelistEnabled bool
	WhitelistRoot    [32]byte
	SpotPrice        *big.Int
	PriceBaseBps     uint64
	NotRevealedURI   string
	Collected        *big.Int
}

type storedBid struct {
	ID               uint64
	Owner            [20]byte
	LimitPrice       *big.Int
	DepositRemaining *big.Int
}

type storedPlan struct {
	ID               uint64
	Owner            [20]byte
	UnitsPerCycle    uint64
	DepositRemaining *big.Int
	LastExecutedAt   uint64
	MinInterval      uint64
}

// Manager implements the engine's state interface on top of a
// storage.Database.
type Manager struct {
	db storage.Database
}

// NewManager wraps the given database.
func NewManager(db storage.Database) *Manager {
	return &Manager{db: db}
}

func (m *Manager) get(key []byte, out interface{}) (bool, error) {
	raw, err := m.db.Get(key)
	if errors.Is(err, storage.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := rlp.DecodeBytes(raw, out); err != nil {
		return false, fmt.Errorf("decode %q: %w", key, err)
	}
	return true, nil
}

func (m *Manager) put(key []byte, value interface{}) error {
	raw, err := rlp.EncodeToBytes(value)
	if err != nil {
		return fmt.Errorf("encode %q: %w", key, err)
	}
	return m.db.Put(key, raw)
}

// Initialized reports whether a sale state record exists yet, so the daemon
// knows when to seed genesis parameters from its configuration.
func (m *Manager) Initialized() (bool, error) {
	_, err := m.db.Get(keySaleState)
	if errors.Is(err, storage.ErrKeyNotFound) {
		return false, nil
	}
	return err == nil, err
}

// SaleState loads the engine-wide record, returning an empty state when
// none has been written yet.
func (m *Manager) SaleState() (*engine.SaleState, error) {
	var stored storedSaleState
	ok, err := m.get(keySaleState, &stored)
	if err != nil {
		return nil, err
	}
	if !ok {
		return (&engine.SaleState{}).Normalize(), nil
	}
	return (&engine.SaleState{
		TotalSold:        stored.TotalSold,
		MintedCount:      stored.MintedCount,
		SaleActive:       stored.SaleActive,
		WhitelistEnabled: stored.WhitelistEnabled,
		WhitelistRoot:    stored.WhitelistRoot,
		SpotPrice:        stored.SpotPrice,
		PriceBaseBps:     stored.PriceBaseBps,
		NotRevealedURI:   stored.NotRevealedURI,
		Collected:        stored.Collected,
	}).Normalize(), nil
}

// PutSaleState persists the engine-wide record.
func (m *Manager) PutSaleState(state *engine.SaleState) error {
	state = state.Normalize()
	return m.put(keySaleState, &storedSaleState{
		TotalSold:        state.TotalSold,
		MintedCount:      state.MintedCount,
		SaleActive:       state.SaleActive,
		WhitelistEnabled: state.WhitelistEnabled,
		WhitelistRoot:    state.WhitelistRoot,
		SpotPrice:        state.SpotPrice,
		PriceBaseBps:     state.PriceBaseBps,
		NotRevealedURI:   state.NotRevealedURI,
		Collected:        state.Collected,
	})
}

// GetAccount loads an account, returning a zero-balance account for unknown
// addresses.
func (m *Manager) GetAccount(addr [20]byte) (*types.Account, error) {
	account := &types.Account{}
	ok, err := m.get(addrKey(prefixAccount, addr), account)
	if err != nil {
		return nil, err
	}
	if !ok {
		return (&types.Account{}).Normalize(), nil
	}
	return account.Normalize(), nil
}

// PutAccount persists an account record.
func (m *Manager) PutAccount(addr [20]byte, account *types.Account) error {
	return m.put(addrKey(prefixAccount, addr), account.Normalize())
}

// OwnerOf resolves the owner of a minted item id.
func (m *Manager) OwnerOf(itemID uint64) ([20]byte, bool, error) {
	var owner [20]byte
	ok, err := m.get(idKey(prefixOwner, itemID), &owner)
	return owner, ok, err
}

// PutOwner records the owner of an item id.
func (m *Manager) PutOwner(itemID uint64, owner [20]byte) error {
	return m.put(idKey(prefixOwner, itemID), owner)
}

// OwnedCount reports how many items an address holds.
func (m *Manager) OwnedCount(addr [20]byte) (uint64, error) {
	var count uint64
	if _, err := m.get(addrKey(prefixOwned, addr), &count); err != nil {
		return 0, err
	}
	return count, nil
}

// PutOwnedCount persists an address's item count.
func (m *Manager) PutOwnedCount(addr [20]byte, count uint64) error {
	return m.put(addrKey(prefixOwned, addr), count)
}

// Coupons reports an address's coupon balance.
func (m *Manager) Coupons(addr [20]byte) (uint64, error) {
	var balance uint64
	if _, err := m.get(addrKey(prefixCoupons, addr), &balance); err != nil {
		return 0, err
	}
	return balance, nil
}

// PutCoupons persists an address's coupon balance.
func (m *Manager) PutCoupons(addr [20]byte, balance uint64) error {
	return m.put(addrKey(prefixCoupons, addr), balance)
}

// BidCount reports the number of bids ever appended.
func (m *Manager) BidCount() (uint64, error) {
	var count uint64
	if _, err := m.get(keyBidCount, &count); err != nil {
		return 0, err
	}
	return count, nil
}

// BidGet loads a bid by id.
func (m *Manager) BidGet(id uint64) (*engine.Bid, bool, error) {
	var stored storedBid
	ok, err := m.get(idKey(prefixBid, id), &stored)
	if err != nil || !ok {
		return nil, false, err
	}
	return &engine.Bid{
		ID:               stored.ID,
		Owner:            stored.Owner,
		LimitPrice:       stored.LimitPrice,
		DepositRemaining: stored.DepositRemaining,
	}, true, nil
}

// BidPut overwrites an existing bid record.
func (m *Manager) BidPut(bid *engine.Bid) error {
	return m.put(idKey(prefixBid, bid.ID), &storedBid{
		ID:               bid.ID,
		Owner:            bid.Owner,
		LimitPrice:       bid.LimitPrice,
		DepositRemaining: bid.DepositRemaining,
	})
}

// BidAppend assigns the next sequential id and persists the bid.
func (m *Manager) BidAppend(bid *engine.Bid) (uint64, error) {
	count, err := m.BidCount()
	if err != nil {
		return 0, err
	}
	bid.ID = count
	if err := m.BidPut(bid); err != nil {
		return 0, err
	}
	if err := m.put(keyBidCount, count+1); err != nil {
		return 0, err
	}
	return count, nil
}

// ActiveBids returns the ids of bids with a non-zero deposit.
func (m *Manager) ActiveBids() ([]uint64, error) {
	var ids []uint64
	if _, err := m.get(keyActiveBids, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

// PutActiveBids replaces the active bid id list.
func (m *Manager) PutActiveBids(ids []uint64) error {
	if ids == nil {
		ids = []uint64{}
	}
	return m.put(keyActiveBids, ids)
}

// PlanCount reports the number of plans ever appended.
func (m *Manager) PlanCount() (uint64, error) {
	var count uint64
	if _, err := m.get(keyPlanCount, &count); err != nil {
		return 0, err
	}
	return count, nil
}

// PlanGet loads a plan by id.
func (m *Manager) PlanGet(id uint64) (*engine.Plan, bool, error) {
	var stored storedPlan
	ok, err := m.get(idKey(prefixPlan, id), &stored)
	if err != nil || !ok {
		return nil, false, err
	}
	return &engine.Plan{
		ID:               stored.ID,
		Owner:            stored.Owner,
		UnitsPerCycle:    stored.UnitsPerCycle,
		DepositRemaining: stored.DepositRemaining,
		LastExecutedAt:   int64(stored.LastExecutedAt),
		MinInterval:      int64(stored.MinInterval),
	}, true, nil
}

// PlanPut overwrites an existing plan record.
func (m *Manager) PlanPut(plan *engine.Plan) error {
	return m.put(idKey(prefixPlan, plan.ID), &storedPlan{
		ID:               plan.ID,
		Owner:            plan.Owner,
		UnitsPerCycle:    plan.UnitsPerCycle,
		DepositRemaining: plan.DepositRemaining,
		LastExecutedAt:   uint64(plan.LastExecutedAt),
		MinInterval:      uint64(plan.MinInterval),
	})
}

// PlanAppend assigns the next sequential id and persists the plan.
func (m *Manager) PlanAppend(plan *engine.Plan) (uint64, error) {
	count, err := m.PlanCount()
	if err != nil {
		return 0, err
	}
	plan.ID = count
	if err := m.PlanPut(plan); err != nil {
		return 0, err
	}
	if err := m.put(keyPlanCount, count+1); err != nil {
		return 0, err
	}
	return count, nil
}

// ActivePlans returns the ids of plans that can still execute.
func (m *Manager) ActivePlans() ([]uint64, error) {
	var ids []uint64
	if _, err := m.get(keyActivePlans, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

// PutActivePlans replaces the active plan id list.
func (m *Manager) PutActivePlans(ids []uint64) error {
	if ids == nil {
		ids = []uint64{}
	}
	return m.put(keyActivePlans, ids)
}

// Migrated reports whether the account already received its legacy grant.
func (m *Manager) Migrated(addr [20]byte) (bool, error) {
	_, err := m.db.Get(addrKey(prefixMigrated, addr))
	if errors.Is(err, storage.ErrKeyNotFound) {
		return false, nil
	}
	return err == nil, err
}

// PutMigrated marks the account as migrated.
func (m *Manager) PutMigrated(addr [20]byte) error {
	return m.db.Put(addrKey(prefixMigrated, addr), []byte{0x01})
}

var _ engine.EngineState = (*Manager)(nil)
