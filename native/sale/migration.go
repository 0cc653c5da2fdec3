package sale

import (
	"errors"
	"fmt"

	"spotsale/core/events"
)

var errNilLegacyRegistry = errors.New("sale engine: legacy registry not configured")

// MigrateLegacyHolders grants one coupon per item the account held in the
// legacy registry. The grant is recorded behind a per-account migrated flag
// so a repeated invocation fails instead of double-crediting; idempotence
// does not depend on operator discipline. Operator only.
func (e *Engine) MigrateLegacyHolders(caller, account [20]byte) (uint64, error) {
	if err := e.requireOperator(caller); err != nil {
		return 0, err
	}
	st, err := e.requireState()
	if err != nil {
		return 0, err
	}
	if e.legacy == nil {
		return 0, errNilLegacyRegistry
	}
	migrated, err := st.Migrated(account)
	if err != nil {
		return 0, fmt.Errorf("load migrated flag: %w", err)
	}
	if migrated {
		return 0, ErrAlreadyMigrated
	}
	holdings, err := e.legacy.HoldingsOf(account)
	if err != nil {
		return 0, fmt.Errorf("legacy holdings: %w", err)
	}
	// One coupon per legacy item held. The flag is set even for accounts
	// with zero holdings so the registry is consulted at most once each.
	if holdings > 0 {
		if err := creditCoupons(st, account, holdings); err != nil {
			return 0, err
		}
	}
	if err := st.PutMigrated(account); err != nil {
		return 0, fmt.Errorf("persist migrated flag: %w", err)
	}
	if holdings > 0 {
		e.emit(events.CouponCredited{Account: account, Amount: holdings, Reason: "migration"})
	}
	return holdings, nil
}
