package rpc

import (
	"bytes"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"spotsale/native/sale"
	"spotsale/observability"
	statesale "spotsale/state/sale"
	"spotsale/storage"
)

const testAuthToken = "test-operator-token"

var (
	testOperator = addr20(0x01)
	testBuyer    = addr20(0xb0)
)

func addr20(fill byte) [20]byte {
	var out [20]byte
	for i := range out {
		out[i] = fill
	}
	return out
}

func newTestServer(t *testing.T) (*httptest.Server, *sale.Engine) {
	t.Helper()
	manager := statesale.NewManager(storage.NewMemDB())
	if err := manager.PutSaleState(&sale.SaleState{
		SaleActive:   true,
		SpotPrice:    big.NewInt(4_586_000),
		PriceBaseBps: 10500,
		Collected:    big.NewInt(0),
	}); err != nil {
		t.Fatalf("seed sale state: %v", err)
	}
	engine := sale.NewEngine()
	engine.SetState(manager)
	engine.SetOperator(testOperator)
	engine.SetPayout(addr20(0x0f))

	server := httptest.NewServer(NewServer(engine, testOperator, testAuthToken, nil))
	t.Cleanup(server.Close)
	return server, engine
}

func call(t *testing.T, server *httptest.Server, token, method string, params interface{}) rpcResponse {
	t.Helper()
	payload := map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  method,
	}
	if params != nil {
		payload["params"] = params
	}
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	req, err := http.NewRequest(http.MethodPost, server.URL, bytes.NewReader(body))
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := server.Client().Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()
	var decoded rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return decoded
}

func resultString(t *testing.T, resp rpcResponse) string {
	t.Helper()
	if resp.Error != nil {
		t.Fatalf("unexpected rpc error: %+v", resp.Error)
	}
	value, ok := resp.Result.(string)
	if !ok {
		t.Fatalf("result %T is not a string", resp.Result)
	}
	return value
}

func TestMintFlowOverRPC(t *testing.T) {
	server, _ := newTestServer(t)

	resp := call(t, server, testAuthToken, "sale_creditFunds", map[string]interface{}{
		"account":   formatAddress(testBuyer),
		"amountWei": "100000000",
	})
	if resp.Error != nil {
		t.Fatalf("credit funds: %+v", resp.Error)
	}

	quote := resultString(t, call(t, server, "", "sale_calcPrice", map[string]interface{}{"units": 2}))
	resp = call(t, server, "", "sale_mint", map[string]interface{}{
		"from":       formatAddress(testBuyer),
		"units":      2,
		"paymentWei": quote,
	})
	if resp.Error != nil {
		t.Fatalf("mint: %+v", resp.Error)
	}

	supply := call(t, server, "", "sale_totalSupply", nil)
	if supply.Error != nil || supply.Result.(float64) != 2 {
		t.Fatalf("total supply: %+v", supply)
	}
	owner := resultString(t, call(t, server, "", "sale_ownerOf", map[string]interface{}{"id": 1}))
	if owner != formatAddress(testBuyer) {
		t.Fatalf("owner %s, want buyer", owner)
	}
}

func TestDomainErrorsMapToSaleCode(t *testing.T) {
	server, _ := newTestServer(t)

	resp := call(t, server, "", "sale_mintFromCoupons", map[string]interface{}{
		"from":  formatAddress(testBuyer),
		"units": 1,
	})
	if resp.Error == nil || resp.Error.Code != codeSaleError {
		t.Fatalf("expected sale error code, got %+v", resp.Error)
	}
	resp = call(t, server, "", "sale_ownerOf", map[string]interface{}{"id": 42})
	if resp.Error == nil || resp.Error.Code != codeSaleError {
		t.Fatalf("expected sale error for unminted id, got %+v", resp.Error)
	}
}

func TestAdminMethodsRequireToken(t *testing.T) {
	server, _ := newTestServer(t)

	resp := call(t, server, "", "sale_withdraw", nil)
	if resp.Error == nil || resp.Error.Code != codeUnauthorized {
		t.Fatalf("expected unauthorized, got %+v", resp.Error)
	}
	resp = call(t, server, "wrong-token", "sale_withdraw", nil)
	if resp.Error == nil || resp.Error.Code != codeUnauthorized {
		t.Fatalf("expected unauthorized for bad token, got %+v", resp.Error)
	}
	resp = call(t, server, testAuthToken, "sale_withdraw", nil)
	if resp.Error != nil {
		t.Fatalf("authorized withdraw failed: %+v", resp.Error)
	}
}

func TestUnknownMethod(t *testing.T) {
	server, _ := newTestServer(t)
	resp := call(t, server, "", "sale_notAThing", nil)
	if resp.Error == nil || resp.Error.Code != codeMethodNotFound {
		t.Fatalf("expected method not found, got %+v", resp.Error)
	}
}

func TestMalformedTrafficIsCounted(t *testing.T) {
	server, _ := newTestServer(t)
	requests := observability.Sale().Requests()
	malformedBefore := testutil.ToFloat64(requests.WithLabelValues(methodUnknown, "malformed"))
	notFoundBefore := testutil.ToFloat64(requests.WithLabelValues(methodUnknown, "not_found"))

	resp, err := server.Client().Post(server.URL, "application/json", strings.NewReader("{not json"))
	if err != nil {
		t.Fatalf("post garbage: %v", err)
	}
	resp.Body.Close()
	call(t, server, "", "sale_notAThing", nil)

	malformed := testutil.ToFloat64(requests.WithLabelValues(methodUnknown, "malformed")) - malformedBefore
	if malformed != 1 {
		t.Fatalf("malformed requests counted %v times, want 1", malformed)
	}
	notFound := testutil.ToFloat64(requests.WithLabelValues(methodUnknown, "not_found")) - notFoundBefore
	if notFound != 1 {
		t.Fatalf("unknown methods counted %v times, want 1", notFound)
	}
}

func TestBidAndPlanViews(t *testing.T) {
	server, _ := newTestServer(t)

	resp := call(t, server, testAuthToken, "sale_creditFunds", map[string]interface{}{
		"account":   formatAddress(testBuyer),
		"amountWei": "100000000",
	})
	if resp.Error != nil {
		t.Fatalf("credit funds: %+v", resp.Error)
	}
	resp = call(t, server, "", "sale_createBid", map[string]interface{}{
		"from":          formatAddress(testBuyer),
		"limitPriceWei": "5000000",
		"depositWei":    "9000000",
	})
	if resp.Error != nil {
		t.Fatalf("create bid: %+v", resp.Error)
	}
	bid := call(t, server, "", "sale_bid", map[string]interface{}{"id": 0})
	if bid.Error != nil {
		t.Fatalf("bid view: %+v", bid.Error)
	}
	view := bid.Result.(map[string]interface{})
	if view["depositRemaining"].(string) != "9000000" {
		t.Fatalf("bid view deposit: %+v", view)
	}
	missing := call(t, server, "", "sale_plan", map[string]interface{}{"id": 3})
	if missing.Error == nil || missing.Error.Code != codeSaleError {
		t.Fatalf("expected sale error for missing plan, got %+v", missing.Error)
	}
}
