package sale

import (
	"math/big"
	"testing"

	"spotsale/core/types"
	engine "spotsale/native/sale"
	"spotsale/storage"
)

func newTestManager() *Manager {
	return NewManager(storage.NewMemDB())
}

func testAddr(fill byte) [20]byte {
	var addr [20]byte
	for i := range addr {
		addr[i] = fill
	}
	return addr
}

func TestSaleStateRoundTrip(t *testing.T) {
	m := newTestManager()

	ok, err := m.Initialized()
	if err != nil || ok {
		t.Fatalf("fresh store reports initialized: %v %v", ok, err)
	}
	fresh, err := m.SaleState()
	if err != nil {
		t.Fatalf("load empty state: %v", err)
	}
	if fresh.TotalSold != 0 || fresh.SpotPrice.Sign() != 0 {
		t.Fatalf("empty state not zeroed")
	}

	state := &engine.SaleState{
		TotalSold:        12,
		MintedCount:      9,
		SaleActive:       true,
		WhitelistEnabled: true,
		WhitelistRoot:    [32]byte{0x42},
		SpotPrice:        big.NewInt(4586),
		PriceBaseBps:     10500,
		NotRevealedURI:   "ipfs://hidden.json",
		Collected:        big.NewInt(1336),
	}
	if err := m.PutSaleState(state); err != nil {
		t.Fatalf("persist state: %v", err)
	}
	ok, err = m.Initialized()
	if err != nil || !ok {
		t.Fatalf("store not initialized after write: %v %v", ok, err)
	}
	loaded, err := m.SaleState()
	if err != nil {
		t.Fatalf("reload state: %v", err)
	}
	if loaded.TotalSold != 12 || loaded.MintedCount != 9 || !loaded.SaleActive ||
		!loaded.WhitelistEnabled || loaded.WhitelistRoot != state.WhitelistRoot ||
		loaded.SpotPrice.Cmp(state.SpotPrice) != 0 || loaded.PriceBaseBps != 10500 ||
		loaded.NotRevealedURI != state.NotRevealedURI || loaded.Collected.Cmp(state.Collected) != 0 {
		t.Fatalf("reloaded state differs: %+v", loaded)
	}
}

func TestAccountRoundTrip(t *testing.T) {
	m := newTestManager()
	addr := testAddr(0xaa)

	empty, err := m.GetAccount(addr)
	if err != nil {
		t.Fatalf("load unknown account: %v", err)
	}
	if empty.Balance.Sign() != 0 {
		t.Fatalf("unknown account has balance %s", empty.Balance)
	}
	if err := m.PutAccount(addr, &types.Account{Nonce: 3, Balance: big.NewInt(777)}); err != nil {
		t.Fatalf("persist account: %v", err)
	}
	loaded, err := m.GetAccount(addr)
	if err != nil {
		t.Fatalf("reload account: %v", err)
	}
	if loaded.Nonce != 3 || loaded.Balance.Cmp(big.NewInt(777)) != 0 {
		t.Fatalf("reloaded account differs: %+v", loaded)
	}
}

func TestOwnershipAndCoupons(t *testing.T) {
	m := newTestManager()
	addr := testAddr(0xbb)

	if _, ok, err := m.OwnerOf(0); err != nil || ok {
		t.Fatalf("unminted id resolved: %v %v", ok, err)
	}
	if err := m.PutOwner(0, addr); err != nil {
		t.Fatalf("record owner: %v", err)
	}
	owner, ok, err := m.OwnerOf(0)
	if err != nil || !ok || owner != addr {
		t.Fatalf("owner lookup: %x %v %v", owner, ok, err)
	}
	if err := m.PutOwnedCount(addr, 4); err != nil {
		t.Fatalf("persist owned count: %v", err)
	}
	count, err := m.OwnedCount(addr)
	if err != nil || count != 4 {
		t.Fatalf("owned count: %d %v", count, err)
	}
	if err := m.PutCoupons(addr, 21); err != nil {
		t.Fatalf("persist coupons: %v", err)
	}
	coupons, err := m.Coupons(addr)
	if err != nil || coupons != 21 {
		t.Fatalf("coupons: %d %v", coupons, err)
	}
}

func TestBidArena(t *testing.T) {
	m := newTestManager()
	owner := testAddr(0xcc)

	id, err := m.BidAppend(&engine.Bid{
		Owner:            owner,
		LimitPrice:       big.NewInt(100),
		DepositRemaining: big.NewInt(250),
	})
	if err != nil || id != 0 {
		t.Fatalf("append first bid: %d %v", id, err)
	}
	id, err = m.BidAppend(&engine.Bid{
		Owner:            owner,
		LimitPrice:       big.NewInt(200),
		DepositRemaining: big.NewInt(300),
	})
	if err != nil || id != 1 {
		t.Fatalf("append second bid: %d %v", id, err)
	}
	count, err := m.BidCount()
	if err != nil || count != 2 {
		t.Fatalf("bid count: %d %v", count, err)
	}
	bid, ok, err := m.BidGet(1)
	if err != nil || !ok {
		t.Fatalf("bid lookup: %v %v", ok, err)
	}
	if bid.LimitPrice.Cmp(big.NewInt(200)) != 0 || bid.DepositRemaining.Cmp(big.NewInt(300)) != 0 {
		t.Fatalf("reloaded bid differs: %+v", bid)
	}
	bid.DepositRemaining = big.NewInt(0)
	if err := m.BidPut(bid); err != nil {
		t.Fatalf("overwrite bid: %v", err)
	}
	updated, _, _ := m.BidGet(1)
	if updated.DepositRemaining.Sign() != 0 {
		t.Fatalf("bid update lost")
	}
	if err := m.PutActiveBids([]uint64{0}); err != nil {
		t.Fatalf("persist active bids: %v", err)
	}
	active, err := m.ActiveBids()
	if err != nil || len(active) != 1 || active[0] != 0 {
		t.Fatalf("active bids: %v %v", active, err)
	}
}

func TestPlanArena(t *testing.T) {
	m := newTestManager()
	owner := testAddr(0xdd)

	id, err := m.PlanAppend(&engine.Plan{
		Owner:            owner,
		UnitsPerCycle:    3,
		DepositRemaining: big.NewInt(900),
		LastExecutedAt:   1_700_000_000,
		MinInterval:      3600,
	})
	if err != nil || id != 0 {
		t.Fatalf("append plan: %d %v", id, err)
	}
	plan, ok, err := m.PlanGet(0)
	if err != nil || !ok {
		t.Fatalf("plan lookup: %v %v", ok, err)
	}
	if plan.UnitsPerCycle != 3 || plan.LastExecutedAt != 1_700_000_000 || plan.MinInterval != 3600 {
		t.Fatalf("reloaded plan differs: %+v", plan)
	}
	if _, ok, _ := m.PlanGet(7); ok {
		t.Fatalf("out-of-range plan resolved")
	}
	if err := m.PutActivePlans(nil); err != nil {
		t.Fatalf("persist empty active plans: %v", err)
	}
	active, err := m.ActivePlans()
	if err != nil || len(active) != 0 {
		t.Fatalf("active plans: %v %v", active, err)
	}
}

func TestMigratedFlag(t *testing.T) {
	m := newTestManager()
	addr := testAddr(0xee)

	migrated, err := m.Migrated(addr)
	if err != nil || migrated {
		t.Fatalf("fresh account flagged: %v %v", migrated, err)
	}
	if err := m.PutMigrated(addr); err != nil {
		t.Fatalf("persist flag: %v", err)
	}
	migrated, err = m.Migrated(addr)
	if err != nil || !migrated {
		t.Fatalf("flag lost: %v %v", migrated, err)
	}
}

func TestEngineRunsOnPersistentState(t *testing.T) {
	m := newTestManager()
	if err := m.PutSaleState(&engine.SaleState{
		SaleActive:   true,
		SpotPrice:    big.NewInt(4586),
		PriceBaseBps: 10500,
		Collected:    big.NewInt(0),
	}); err != nil {
		t.Fatalf("seed state: %v", err)
	}
	operator := testAddr(0x01)
	buyer := testAddr(0xb0)
	e := engine.NewEngine()
	e.SetState(m)
	e.SetOperator(operator)
	if err := e.CreditFunds(operator, buyer, big.NewInt(1_000_000)); err != nil {
		t.Fatalf("credit funds: %v", err)
	}
	quote, err := e.CalcPrice(2)
	if err != nil {
		t.Fatalf("calc price: %v", err)
	}
	if err := e.Purchase(buyer, 2, nil, false, quote); err != nil {
		t.Fatalf("purchase: %v", err)
	}
	supply, err := e.TotalSupply()
	if err != nil || supply != 2 {
		t.Fatalf("supply %d %v", supply, err)
	}
	owner, err := e.OwnerOf(1)
	if err != nil || owner != buyer {
		t.Fatalf("owner of 1: %x %v", owner, err)
	}
}
