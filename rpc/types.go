package rpc

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"spotsale/native/sale"
)

const (
	jsonRPCVersion  = "2.0"
	maxRequestBytes = 1 << 20 // 1 MiB
)

const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeServerError    = -32000
	codeUnauthorized   = -32001
	codeSaleError      = -32020
)

type rpcRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    string `json:"data,omitempty"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  interface{}     `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

// bidView is the wire form of a bid record; big integers travel as decimal
// strings.
type bidView struct {
	ID               uint64 `json:"id"`
	Owner            string `json:"owner"`
	LimitPrice       string `json:"limitPrice"`
	DepositRemaining string `json:"depositRemaining"`
}

// planView is the wire form of a plan record.
type planView struct {
	ID               uint64 `json:"id"`
	Owner            string `json:"owner"`
	UnitsPerCycle    uint64 `json:"unitsPerCycle"`
	DepositRemaining string `json:"depositRemaining"`
	LastExecutedAt   int64  `json:"lastExecutedAt"`
	MinInterval      int64  `json:"minInterval"`
}

func formatAddress(addr [20]byte) string {
	return "0x" + hex.EncodeToString(addr[:])
}

func formatWei(value *big.Int) string {
	if value == nil {
		return "0"
	}
	return value.String()
}

func newBidView(bid *sale.Bid) bidView {
	return bidView{
		ID:               bid.ID,
		Owner:            formatAddress(bid.Owner),
		LimitPrice:       formatWei(bid.LimitPrice),
		DepositRemaining: formatWei(bid.DepositRemaining),
	}
}

func newPlanView(plan *sale.Plan) planView {
	return planView{
		ID:               plan.ID,
		Owner:            formatAddress(plan.Owner),
		UnitsPerCycle:    plan.UnitsPerCycle,
		DepositRemaining: formatWei(plan.DepositRemaining),
		LastExecutedAt:   plan.LastExecutedAt,
		MinInterval:      plan.MinInterval,
	}
}

func parseAddress(value string) ([20]byte, *rpcError) {
	var addr [20]byte
	raw, err := hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(value), "0x"))
	if err != nil || len(raw) != 20 {
		return addr, &rpcError{Code: codeInvalidParams, Message: fmt.Sprintf("invalid address %q", value)}
	}
	copy(addr[:], raw)
	return addr, nil
}

func parseWei(value string) (*big.Int, *rpcError) {
	amount, ok := new(big.Int).SetString(strings.TrimSpace(value), 10)
	if !ok || amount.Sign() < 0 {
		return nil, &rpcError{Code: codeInvalidParams, Message: fmt.Sprintf("invalid wei amount %q", value)}
	}
	return amount, nil
}

func parseHash(value string) ([32]byte, *rpcError) {
	var hash [32]byte
	raw, err := hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(value), "0x"))
	if err != nil || len(raw) != 32 {
		return hash, &rpcError{Code: codeInvalidParams, Message: fmt.Sprintf("invalid hash %q", value)}
	}
	copy(hash[:], raw)
	return hash, nil
}

func parseProof(values []string) ([][32]byte, *rpcError) {
	proof := make([][32]byte, 0, len(values))
	for _, value := range values {
		node, rpcErr := parseHash(value)
		if rpcErr != nil {
			return nil, rpcErr
		}
		proof = append(proof, node)
	}
	return proof, nil
}

// errorToRPC maps engine errors onto the wire taxonomy. Domain failures all
// share one code and are distinguished by message; anything unrecognised is
// reported as a server error without leaking internals.
func errorToRPC(err error) *rpcError {
	switch {
	case errors.Is(err, sale.ErrUnauthorized):
		return &rpcError{Code: codeUnauthorized, Message: err.Error()}
	case errors.Is(err, sale.ErrSaleNotActive),
		errors.Is(err, sale.ErrInsufficientPayment),
		errors.Is(err, sale.ErrInsufficientFunds),
		errors.Is(err, sale.ErrInsufficientCoupons),
		errors.Is(err, sale.ErrInvalidProof),
		errors.Is(err, sale.ErrItemNotFound),
		errors.Is(err, sale.ErrBidNotFound),
		errors.Is(err, sale.ErrPlanNotFound),
		errors.Is(err, sale.ErrNotPlanOwner),
		errors.Is(err, sale.ErrInvalidAmount),
		errors.Is(err, sale.ErrInvalidPriceBase),
		errors.Is(err, sale.ErrAlreadyMigrated),
		errors.Is(err, sale.ErrPriceOverflow):
		return &rpcError{Code: codeSaleError, Message: err.Error()}
	default:
		return &rpcError{Code: codeServerError, Message: "internal error"}
	}
}
