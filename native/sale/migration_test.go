package sale

import (
	"errors"
	"testing"
)

type mockLegacyRegistry struct {
	holdings map[[20]byte]uint64
}

func (m *mockLegacyRegistry) HoldingsOf(addr [20]byte) (uint64, error) {
	return m.holdings[addr], nil
}

func TestMigrationGrantsOneCouponPerLegacyItem(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	engine.SetLegacyRegistry(&mockLegacyRegistry{holdings: map[[20]byte]uint64{buyerAddr: 13}})

	granted, err := engine.MigrateLegacyHolders(operatorAddr, buyerAddr)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if granted != 13 {
		t.Fatalf("granted %d coupons, want 13", granted)
	}
	if got := mustCoupons(t, engine, buyerAddr); got != 13 {
		t.Fatalf("balance %d after migration, want 13", got)
	}
}

func TestMigrationNeverDoubleCredits(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	engine.SetLegacyRegistry(&mockLegacyRegistry{holdings: map[[20]byte]uint64{buyerAddr: 5}})

	if _, err := engine.MigrateLegacyHolders(operatorAddr, buyerAddr); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	granted, err := engine.MigrateLegacyHolders(operatorAddr, buyerAddr)
	if !errors.Is(err, ErrAlreadyMigrated) {
		t.Fatalf("expected ErrAlreadyMigrated, got %v", err)
	}
	if granted != 0 {
		t.Fatalf("second migration granted %d coupons", granted)
	}
	if got := mustCoupons(t, engine, buyerAddr); got != 5 {
		t.Fatalf("balance %d after re-migration, want 5", got)
	}
}

func TestMigrationFlagsZeroHolders(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	engine.SetLegacyRegistry(&mockLegacyRegistry{holdings: map[[20]byte]uint64{}})

	granted, err := engine.MigrateLegacyHolders(operatorAddr, buyerAddr)
	if err != nil || granted != 0 {
		t.Fatalf("zero-holder migration: %d, %v", granted, err)
	}
	if _, err := engine.MigrateLegacyHolders(operatorAddr, buyerAddr); !errors.Is(err, ErrAlreadyMigrated) {
		t.Fatalf("zero-holder account not flagged: %v", err)
	}
}

func TestMigrationRequiresOperator(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	engine.SetLegacyRegistry(&mockLegacyRegistry{holdings: map[[20]byte]uint64{}})

	if _, err := engine.MigrateLegacyHolders(buyerAddr, buyerAddr); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}
