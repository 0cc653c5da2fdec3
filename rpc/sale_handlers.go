package rpc

import (
	"encoding/json"
	"time"
)

func decodeParams(raw json.RawMessage, out interface{}) *rpcError {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &rpcError{Code: codeInvalidParams, Message: "malformed params"}
	}
	return nil
}

func (s *Server) handleCalcPrice(raw json.RawMessage) (interface{}, *rpcError) {
	var params struct {
		Units uint64 `json:"units"`
	}
	if rpcErr := decodeParams(raw, &params); rpcErr != nil {
		return nil, rpcErr
	}
	price, err := s.engine.CalcPrice(params.Units)
	if err != nil {
		return nil, errorToRPC(err)
	}
	return formatWei(price), nil
}

func (s *Server) handleSpotPrice(json.RawMessage) (interface{}, *rpcError) {
	price, err := s.engine.SpotPrice()
	if err != nil {
		return nil, errorToRPC(err)
	}
	return formatWei(price), nil
}

func (s *Server) handleMint(raw json.RawMessage) (interface{}, *rpcError) {
	var params struct {
		From       string   `json:"from"`
		Units      uint64   `json:"units"`
		Proof      []string `json:"proof"`
		AsCoupon   bool     `json:"asCoupon"`
		PaymentWei string   `json:"paymentWei"`
	}
	if rpcErr := decodeParams(raw, &params); rpcErr != nil {
		return nil, rpcErr
	}
	buyer, rpcErr := parseAddress(params.From)
	if rpcErr != nil {
		return nil, rpcErr
	}
	payment, rpcErr := parseWei(params.PaymentWei)
	if rpcErr != nil {
		return nil, rpcErr
	}
	proof, rpcErr := parseProof(params.Proof)
	if rpcErr != nil {
		return nil, rpcErr
	}
	if err := s.engine.Purchase(buyer, params.Units, proof, params.AsCoupon, payment); err != nil {
		return nil, errorToRPC(err)
	}
	return true, nil
}

func (s *Server) handleMintFromCoupons(raw json.RawMessage) (interface{}, *rpcError) {
	var params struct {
		From  string `json:"from"`
		Units uint64 `json:"units"`
	}
	if rpcErr := decodeParams(raw, &params); rpcErr != nil {
		return nil, rpcErr
	}
	buyer, rpcErr := parseAddress(params.From)
	if rpcErr != nil {
		return nil, rpcErr
	}
	if err := s.engine.MintFromCoupons(buyer, params.Units); err != nil {
		return nil, errorToRPC(err)
	}
	return true, nil
}

func (s *Server) handleCoupons(raw json.RawMessage) (interface{}, *rpcError) {
	var params struct {
		Account string `json:"account"`
	}
	if rpcErr := decodeParams(raw, &params); rpcErr != nil {
		return nil, rpcErr
	}
	account, rpcErr := parseAddress(params.Account)
	if rpcErr != nil {
		return nil, rpcErr
	}
	balance, err := s.engine.Coupons(account)
	if err != nil {
		return nil, errorToRPC(err)
	}
	return balance, nil
}

func (s *Server) handleTransferCoupons(raw json.RawMessage) (interface{}, *rpcError) {
	var params struct {
		From   string `json:"from"`
		To     string `json:"to"`
		Amount uint64 `json:"amount"`
	}
	if rpcErr := decodeParams(raw, &params); rpcErr != nil {
		return nil, rpcErr
	}
	from, rpcErr := parseAddress(params.From)
	if rpcErr != nil {
		return nil, rpcErr
	}
	to, rpcErr := parseAddress(params.To)
	if rpcErr != nil {
		return nil, rpcErr
	}
	if err := s.engine.TransferCoupons(from, to, params.Amount); err != nil {
		return nil, errorToRPC(err)
	}
	return true, nil
}

func (s *Server) handleCreateBid(raw json.RawMessage) (interface{}, *rpcError) {
	var params struct {
		From          string `json:"from"`
		LimitPriceWei string `json:"limitPriceWei"`
		DepositWei    string `json:"depositWei"`
	}
	if rpcErr := decodeParams(raw, &params); rpcErr != nil {
		return nil, rpcErr
	}
	owner, rpcErr := parseAddress(params.From)
	if rpcErr != nil {
		return nil, rpcErr
	}
	limit, rpcErr := parseWei(params.LimitPriceWei)
	if rpcErr != nil {
		return nil, rpcErr
	}
	deposit, rpcErr := parseWei(params.DepositWei)
	if rpcErr != nil {
		return nil, rpcErr
	}
	id, err := s.engine.CreateBid(owner, limit, deposit)
	if err != nil {
		return nil, errorToRPC(err)
	}
	return id, nil
}

func (s *Server) handleBid(raw json.RawMessage) (interface{}, *rpcError) {
	var params struct {
		ID uint64 `json:"id"`
	}
	if rpcErr := decodeParams(raw, &params); rpcErr != nil {
		return nil, rpcErr
	}
	bid, err := s.engine.Bid(params.ID)
	if err != nil {
		return nil, errorToRPC(err)
	}
	return newBidView(bid), nil
}

func (s *Server) handleExecuteBids(json.RawMessage) (interface{}, *rpcError) {
	started := time.Now()
	if err := s.engine.ExecuteBids(); err != nil {
		return nil, errorToRPC(err)
	}
	s.metrics.ObserveCrank("bids", time.Since(started))
	return true, nil
}

func (s *Server) handleStartPlan(raw json.RawMessage) (interface{}, *rpcError) {
	var params struct {
		From          string `json:"from"`
		UnitsPerCycle uint64 `json:"unitsPerCycle"`
		DepositWei    string `json:"depositWei"`
	}
	if rpcErr := decodeParams(raw, &params); rpcErr != nil {
		return nil, rpcErr
	}
	owner, rpcErr := parseAddress(params.From)
	if rpcErr != nil {
		return nil, rpcErr
	}
	deposit, rpcErr := parseWei(params.DepositWei)
	if rpcErr != nil {
		return nil, rpcErr
	}
	id, err := s.engine.StartPlan(owner, params.UnitsPerCycle, deposit)
	if err != nil {
		return nil, errorToRPC(err)
	}
	return id, nil
}

func (s *Server) handlePlan(raw json.RawMessage) (interface{}, *rpcError) {
	var params struct {
		ID uint64 `json:"id"`
	}
	if rpcErr := decodeParams(raw, &params); rpcErr != nil {
		return nil, rpcErr
	}
	plan, err := s.engine.Plan(params.ID)
	if err != nil {
		return nil, errorToRPC(err)
	}
	return newPlanView(plan), nil
}

func (s *Server) handleExecutePlans(json.RawMessage) (interface{}, *rpcError) {
	started := time.Now()
	if err := s.engine.ExecutePlans(); err != nil {
		return nil, errorToRPC(err)
	}
	s.metrics.ObserveCrank("plans", time.Since(started))
	return true, nil
}

func (s *Server) handleEndPlan(raw json.RawMessage) (interface{}, *rpcError) {
	var params struct {
		From string `json:"from"`
		ID   uint64 `json:"id"`
	}
	if rpcErr := decodeParams(raw, &params); rpcErr != nil {
		return nil, rpcErr
	}
	owner, rpcErr := parseAddress(params.From)
	if rpcErr != nil {
		return nil, rpcErr
	}
	if err := s.engine.EndPlan(owner, params.ID); err != nil {
		return nil, errorToRPC(err)
	}
	return true, nil
}

func (s *Server) handleOwnerOf(raw json.RawMessage) (interface{}, *rpcError) {
	var params struct {
		ID uint64 `json:"id"`
	}
	if rpcErr := decodeParams(raw, &params); rpcErr != nil {
		return nil, rpcErr
	}
	owner, err := s.engine.OwnerOf(params.ID)
	if err != nil {
		return nil, errorToRPC(err)
	}
	return formatAddress(owner), nil
}

func (s *Server) handleBalanceOf(raw json.RawMessage) (interface{}, *rpcError) {
	var params struct {
		Account string `json:"account"`
	}
	if rpcErr := decodeParams(raw, &params); rpcErr != nil {
		return nil, rpcErr
	}
	account, rpcErr := parseAddress(params.Account)
	if rpcErr != nil {
		return nil, rpcErr
	}
	balance, err := s.engine.BalanceOf(account)
	if err != nil {
		return nil, errorToRPC(err)
	}
	return balance, nil
}

func (s *Server) handleTotalSupply(json.RawMessage) (interface{}, *rpcError) {
	supply, err := s.engine.TotalSupply()
	if err != nil {
		return nil, errorToRPC(err)
	}
	return supply, nil
}

func (s *Server) handleTotalSold(json.RawMessage) (interface{}, *rpcError) {
	sold, err := s.engine.TotalSold()
	if err != nil {
		return nil, errorToRPC(err)
	}
	return sold, nil
}

func (s *Server) handleTokenURI(raw json.RawMessage) (interface{}, *rpcError) {
	var params struct {
		ID uint64 `json:"id"`
	}
	if rpcErr := decodeParams(raw, &params); rpcErr != nil {
		return nil, rpcErr
	}
	uri, err := s.engine.TokenURI(params.ID)
	if err != nil {
		return nil, errorToRPC(err)
	}
	return uri, nil
}

func (s *Server) handleFunds(raw json.RawMessage) (interface{}, *rpcError) {
	var params struct {
		Account string `json:"account"`
	}
	if rpcErr := decodeParams(raw, &params); rpcErr != nil {
		return nil, rpcErr
	}
	account, rpcErr := parseAddress(params.Account)
	if rpcErr != nil {
		return nil, rpcErr
	}
	balance, err := s.engine.FundsOf(account)
	if err != nil {
		return nil, errorToRPC(err)
	}
	return formatWei(balance), nil
}

func (s *Server) handleStartSale(json.RawMessage) (interface{}, *rpcError) {
	if err := s.engine.StartSale(s.operator); err != nil {
		return nil, errorToRPC(err)
	}
	return true, nil
}

func (s *Server) handleWithdraw(json.RawMessage) (interface{}, *rpcError) {
	amount, err := s.engine.Withdraw(s.operator)
	if err != nil {
		return nil, errorToRPC(err)
	}
	return formatWei(amount), nil
}

func (s *Server) handleSetWhitelist(raw json.RawMessage) (interface{}, *rpcError) {
	var params struct {
		Root string `json:"root"`
	}
	if rpcErr := decodeParams(raw, &params); rpcErr != nil {
		return nil, rpcErr
	}
	root, rpcErr := parseHash(params.Root)
	if rpcErr != nil {
		return nil, rpcErr
	}
	if err := s.engine.SetWhitelist(s.operator, root); err != nil {
		return nil, errorToRPC(err)
	}
	return true, nil
}

func (s *Server) handleFlipWhitelistEnabled(json.RawMessage) (interface{}, *rpcError) {
	if err := s.engine.FlipWhitelistEnabled(s.operator); err != nil {
		return nil, errorToRPC(err)
	}
	return true, nil
}

func (s *Server) handleSetStartPrice(raw json.RawMessage) (interface{}, *rpcError) {
	var params struct {
		PriceWei string `json:"priceWei"`
	}
	if rpcErr := decodeParams(raw, &params); rpcErr != nil {
		return nil, rpcErr
	}
	price, rpcErr := parseWei(params.PriceWei)
	if rpcErr != nil {
		return nil, rpcErr
	}
	if err := s.engine.SetStartPrice(s.operator, price); err != nil {
		return nil, errorToRPC(err)
	}
	return true, nil
}

func (s *Server) handleSetPriceBase(raw json.RawMessage) (interface{}, *rpcError) {
	var params struct {
		BaseBps uint64 `json:"baseBps"`
	}
	if rpcErr := decodeParams(raw, &params); rpcErr != nil {
		return nil, rpcErr
	}
	if err := s.engine.SetPriceBase(s.operator, params.BaseBps); err != nil {
		return nil, errorToRPC(err)
	}
	return true, nil
}

func (s *Server) handleSetNotRevealedURI(raw json.RawMessage) (interface{}, *rpcError) {
	var params struct {
		URI string `json:"uri"`
	}
	if rpcErr := decodeParams(raw, &params); rpcErr != nil {
		return nil, rpcErr
	}
	if err := s.engine.SetNotRevealedURI(s.operator, params.URI); err != nil {
		return nil, errorToRPC(err)
	}
	return true, nil
}

func (s *Server) handleAirdrop(raw json.RawMessage) (interface{}, *rpcError) {
	var params struct {
		Account string `json:"account"`
		Amount  uint64 `json:"amount"`
	}
	if rpcErr := decodeParams(raw, &params); rpcErr != nil {
		return nil, rpcErr
	}
	account, rpcErr := parseAddress(params.Account)
	if rpcErr != nil {
		return nil, rpcErr
	}
	if err := s.engine.AirdropCoupons(s.operator, account, params.Amount); err != nil {
		return nil, errorToRPC(err)
	}
	return true, nil
}

func (s *Server) handleMigrateLegacy(raw json.RawMessage) (interface{}, *rpcError) {
	var params struct {
		Account string `json:"account"`
	}
	if rpcErr := decodeParams(raw, &params); rpcErr != nil {
		return nil, rpcErr
	}
	account, rpcErr := parseAddress(params.Account)
	if rpcErr != nil {
		return nil, rpcErr
	}
	granted, err := s.engine.MigrateLegacyHolders(s.operator, account)
	if err != nil {
		return nil, errorToRPC(err)
	}
	return granted, nil
}

func (s *Server) handleCreditFunds(raw json.RawMessage) (interface{}, *rpcError) {
	var params struct {
		Account   string `json:"account"`
		AmountWei string `json:"amountWei"`
	}
	if rpcErr := decodeParams(raw, &params); rpcErr != nil {
		return nil, rpcErr
	}
	account, rpcErr := parseAddress(params.Account)
	if rpcErr != nil {
		return nil, rpcErr
	}
	amount, rpcErr := parseWei(params.AmountWei)
	if rpcErr != nil {
		return nil, rpcErr
	}
	if err := s.engine.CreditFunds(s.operator, account, amount); err != nil {
		return nil, errorToRPC(err)
	}
	return true, nil
}
