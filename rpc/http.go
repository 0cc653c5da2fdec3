package rpc

import (
	"crypto/subtle"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"spotsale/native/sale"
	"spotsale/observability"
)

type handlerFunc func(params json.RawMessage) (interface{}, *rpcError)

// Arbitrary method names from malformed traffic are folded into one metric
// label to keep the cardinality bounded.
const methodUnknown = "unknown"

// Server exposes the sale engine over JSON-RPC. Public methods are open;
// administrative methods require the configured bearer token and execute as
// the operator account.
type Server struct {
	engine   *sale.Engine
	operator [20]byte

	authToken string
	logger    *slog.Logger
	metrics   *observability.SaleMetrics

	public map[string]handlerFunc
	admin  map[string]handlerFunc
}

// NewServer wires a server around the engine. An empty authToken disables
// the whole administrative surface rather than leaving it open.
func NewServer(engine *sale.Engine, operator [20]byte, authToken string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		engine:    engine,
		operator:  operator,
		authToken: strings.TrimSpace(authToken),
		logger:    logger,
		metrics:   observability.Sale(),
	}
	s.public = map[string]handlerFunc{
		"sale_calcPrice":       s.handleCalcPrice,
		"sale_spotPrice":       s.handleSpotPrice,
		"sale_mint":            s.handleMint,
		"sale_mintFromCoupons": s.handleMintFromCoupons,
		"sale_coupons":         s.handleCoupons,
		"sale_transferCoupons": s.handleTransferCoupons,
		"sale_createBid":       s.handleCreateBid,
		"sale_bid":             s.handleBid,
		"sale_executeBids":     s.handleExecuteBids,
		"sale_startPlan":       s.handleStartPlan,
		"sale_plan":            s.handlePlan,
		"sale_executePlans":    s.handleExecutePlans,
		"sale_endPlan":         s.handleEndPlan,
		"sale_ownerOf":         s.handleOwnerOf,
		"sale_balanceOf":       s.handleBalanceOf,
		"sale_totalSupply":     s.handleTotalSupply,
		"sale_totalSold":       s.handleTotalSold,
		"sale_tokenURI":        s.handleTokenURI,
		"sale_funds":           s.handleFunds,
	}
	s.admin = map[string]handlerFunc{
		"sale_startSale":            s.handleStartSale,
		"sale_withdraw":             s.handleWithdraw,
		"sale_setWhitelist":         s.handleSetWhitelist,
		"sale_flipWhitelistEnabled": s.handleFlipWhitelistEnabled,
		"sale_setStartPrice":        s.handleSetStartPrice,
		"sale_setPriceBase":         s.handleSetPriceBase,
		"sale_setNotRevealedURI":    s.handleSetNotRevealedURI,
		"sale_airdrop":              s.handleAirdrop,
		"sale_migrateLegacy":        s.handleMigrateLegacy,
		"sale_creditFunds":          s.handleCreditFunds,
	}
	return s
}

func (s *Server) authorized(r *http.Request) bool {
	if s.authToken == "" {
		return false
	}
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(strings.TrimSpace(token)), []byte(s.authToken)) == 1
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBytes))
	if err != nil {
		s.metrics.ObserveRequest(methodUnknown, "malformed")
		writeError(w, nil, &rpcError{Code: codeInvalidRequest, Message: "unable to read request"})
		return
	}
	var req rpcRequest
	if err := json.Unmarshal(body, &req); err != nil {
		s.metrics.ObserveRequest(methodUnknown, "malformed")
		writeError(w, nil, &rpcError{Code: codeParseError, Message: "invalid JSON"})
		return
	}
	if req.JSONRPC != jsonRPCVersion || req.Method == "" {
		s.metrics.ObserveRequest(methodUnknown, "malformed")
		writeError(w, req.ID, &rpcError{Code: codeInvalidRequest, Message: "invalid request"})
		return
	}

	handler, ok := s.public[req.Method]
	if !ok {
		if handler, ok = s.admin[req.Method]; ok && !s.authorized(r) {
			s.metrics.ObserveRequest(req.Method, "unauthorized")
			writeError(w, req.ID, &rpcError{Code: codeUnauthorized, Message: "unauthorized"})
			return
		}
	}
	if handler == nil {
		s.metrics.ObserveRequest(methodUnknown, "not_found")
		writeError(w, req.ID, &rpcError{Code: codeMethodNotFound, Message: "method not found"})
		return
	}

	result, rpcErr := handler(req.Params)
	if rpcErr != nil {
		s.metrics.ObserveRequest(req.Method, "error")
		s.logger.Warn("rpc call failed", "method", req.Method, "code", rpcErr.Code, "message", rpcErr.Message)
		writeError(w, req.ID, rpcErr)
		return
	}
	s.metrics.ObserveRequest(req.Method, "ok")
	writeResult(w, req.ID, result)
}

func writeResult(w http.ResponseWriter, id json.RawMessage, result interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(rpcResponse{JSONRPC: jsonRPCVersion, ID: id, Result: result})
}

func writeError(w http.ResponseWriter, id json.RawMessage, rpcErr *rpcError) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(rpcResponse{JSONRPC: jsonRPCVersion, ID: id, Error: rpcErr})
}
