package sale

import "math/big"

// SaleState is the single engine-wide record. SpotPrice always holds the
// price of the next unit, i.e. start_price advanced once per unit already
// sold; administrative price changes replace it going forward and never
// touch units already sold.
type SaleState struct {
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

// Normalize replaces nil big integers with zeros.
func (s *SaleState) Normalize() *SaleState {
	if s == nil {
		return &SaleState{SpotPrice: big.NewInt(0), Collected: big.NewInt(0)}
	}
	if s.SpotPrice == nil {
		s.SpotPrice = big.NewInt(0)
	}
	if s.Collected == nil {
		s.Collected = big.NewInt(0)
	}
	return s
}

// Clone returns a deep copy so engine routines can mutate freely and only
// persist on success.
func (s *SaleState) Clone() *SaleState {
	if s == nil {
		return (&SaleState{}).Normalize()
	}
	clone := *s
	clone.SpotPrice = big.NewInt(0)
	clone.Collected = big.NewInt(0)
	if s.SpotPrice != nil {
		clone.SpotPrice.Set(s.SpotPrice)
	}
	if s.Collected != nil {
		clone.Collected.Set(s.Collected)
	}
	return &clone
}

// Bid is a standing limit order funded by a prepaid deposit. Bids are never
// deleted; a zero deposit leaves the record inert in the book.
type Bid struct {
	ID               uint64
	Owner            [20]byte
	LimitPrice       *big.Int
	DepositRemaining *big.Int
}

// Copy returns a deep copy to avoid callers mutating shared pointers.
func (b *Bid) Copy() *Bid {
	if b == nil {
		return nil
	}
	clone := *b
	if b.LimitPrice != nil {
		clone.LimitPrice = new(big.Int).Set(b.LimitPrice)
	}
	if b.DepositRemaining != nil {
		clone.DepositRemaining = new(big.Int).Set(b.DepositRemaining)
	}
	return &clone
}

// Plan is a recurring purchase commitment. A plan whose deposit can no
// longer afford a single unit, or that was ended by its owner, stays in the
// schedule as an inert record.
type Plan struct {
	ID               uint64
	Owner            [20]byte
	UnitsPerCycle    uint64
	DepositRemaining *big.Int
	LastExecutedAt   int64
	MinInterval      int64
}

// Copy returns a deep copy to avoid callers mutating shared pointers.
func (p *Plan) Copy() *Plan {
	if p == nil {
		return nil
	}
	clone := *p
	if p.DepositRemaining != nil {
		clone.DepositRemaining = new(big.Int).Set(p.DepositRemaining)
	}
	return &clone
}
