package rpc

import (
	"bytes"
	"encoding/json"
	"math/big"
	"net/http/httptest"
	"testing"

	"presalechain/core/state"
	"presalechain/crypto"
	"presalechain/native/presale"
	"presalechain/storage"
)

const testToken = "secret-token"

func newTestServer(t *testing.T) *Server {
	t.Helper()
	db := storage.NewMemDB()
	t.Cleanup(db.Close)
	engine := presale.NewEngine(state.NewManager(db))
	engine.SetOracle(presale.NewStaticOracle(big.NewInt(144_000_000_000), 0))

	var authority [20]byte
	authority[0] = 0xA1
	srv := NewServer(engine, authority)
	srv.authToken = testToken
	return srv
}

func post(t *testing.T, srv *Server, token, method string, params ...interface{}) *RPCResponse {
	t.Helper()
	raw := make([]json.RawMessage, 0, len(params))
	for _, p := range params {
		encoded, err := json.Marshal(p)
		if err != nil {
			t.Fatalf("marshal params: %v", err)
		}
		raw = append(raw, encoded)
	}
	body, err := json.Marshal(&RPCRequest{JSONRPC: jsonRPCVersion, Method: method, Params: raw, ID: 1})
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}

	req := httptest.NewRequest("POST", "/", bytes.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	recorder := httptest.NewRecorder()
	srv.handle(recorder, req)

	resp := &RPCResponse{}
	if err := json.Unmarshal(recorder.Body.Bytes(), resp); err != nil {
		t.Fatalf("decode response: %v (%s)", err, recorder.Body.String())
	}
	return resp
}

func TestAdminMethodsRequireBearerToken(t *testing.T) {
	srv := newTestServer(t)

	resp := post(t, srv, "", "presale_open")
	if resp.Error == nil || resp.Error.Code != codeUnauthorized {
		t.Fatalf("expected unauthorized error, got %+v", resp.Error)
	}
	resp = post(t, srv, "wrong-token", "presale_open")
	if resp.Error == nil || resp.Error.Code != codeUnauthorized {
		t.Fatalf("expected unauthorized error, got %+v", resp.Error)
	}
}

func TestUnknownMethod(t *testing.T) {
	srv := newTestServer(t)
	resp := post(t, srv, "", "presale_unknown")
	if resp.Error == nil || resp.Error.Code != codeMethodNotFound {
		t.Fatalf("expected method not found, got %+v", resp.Error)
	}
}

func TestInitAndQueryState(t *testing.T) {
	srv := newTestServer(t)

	resp := post(t, srv, testToken, "presale_init", initParams{
		MinBuy:         "1000000000",
		FirstTierRate:  50_000_000,
		SecondTierRate: 50_000_000,
	})
	if resp.Error != nil {
		t.Fatalf("init: %+v", resp.Error)
	}

	resp = post(t, srv, "", "presale_getState")
	if resp.Error != nil {
		t.Fatalf("getState: %+v", resp.Error)
	}
	encoded, err := json.Marshal(resp.Result)
	if err != nil {
		t.Fatalf("marshal result: %v", err)
	}
	var result stateResult
	if err := json.Unmarshal(encoded, &result); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if result.Status != "uninitialized" {
		t.Fatalf("unexpected status %q", result.Status)
	}
	if result.MinBuy != "1000000000" {
		t.Fatalf("unexpected min buy %q", result.MinBuy)
	}
	if result.LastIterationID != -1 {
		t.Fatalf("unexpected last iteration %d", result.LastIterationID)
	}
}

func TestBuyOverRPC(t *testing.T) {
	srv := newTestServer(t)

	if resp := post(t, srv, testToken, "presale_init", initParams{MinBuy: "1000000000", FirstTierRate: 50_000_000, SecondTierRate: 50_000_000}); resp.Error != nil {
		t.Fatalf("init: %+v", resp.Error)
	}
	if resp := post(t, srv, testToken, "presale_open"); resp.Error != nil {
		t.Fatalf("open: %+v", resp.Error)
	}
	if resp := post(t, srv, testToken, "presale_createIteration", iterationParams{ID: 0, Price: "340000000", TotalSupply: "1000000000000000"}); resp.Error != nil {
		t.Fatalf("createIteration: %+v", resp.Error)
	}
	if resp := post(t, srv, testToken, "presale_openIteration", iterationParams{ID: 0}); resp.Error != nil {
		t.Fatalf("openIteration: %+v", resp.Error)
	}

	var buyer [20]byte
	buyer[0] = 0xB0
	buyerAddr := crypto.NewAddress(crypto.SalePrefix, buyer[:]).String()

	// The buyer account holds nothing, so settlement must fail cleanly.
	resp := post(t, srv, "", "presale_buy", buyParams{
		Buyer:     buyerAddr,
		Iteration: 0,
		Asset:     "USDC",
		Amount:    "72000000",
	})
	if resp.Error == nil || resp.Error.Code != codeServerError {
		t.Fatalf("expected settlement failure, got %+v", resp.Error)
	}

	resp = post(t, srv, "", "presale_buy", buyParams{
		Buyer:     buyerAddr,
		Iteration: 0,
		Asset:     "SHELLS",
		Amount:    "72000000",
	})
	if resp.Error == nil || resp.Error.Code != codeInvalidParams {
		t.Fatalf("expected invalid asset error, got %+v", resp.Error)
	}
}

func TestBuyValidationMapsToInvalidParams(t *testing.T) {
	srv := newTestServer(t)
	if resp := post(t, srv, testToken, "presale_init", initParams{MinBuy: "1000000000", FirstTierRate: 0, SecondTierRate: 0}); resp.Error != nil {
		t.Fatalf("init: %+v", resp.Error)
	}

	var buyer [20]byte
	buyerAddr := crypto.NewAddress(crypto.SalePrefix, buyer[:]).String()
	resp := post(t, srv, "", "presale_buy", buyParams{
		Buyer:     buyerAddr,
		Iteration: 0,
		Asset:     "USDC",
		Amount:    "garbage",
	})
	if resp.Error == nil || resp.Error.Code != codeInvalidParams {
		t.Fatalf("expected invalid params, got %+v", resp.Error)
	}
}

func TestParamObjectRequired(t *testing.T) {
	srv := newTestServer(t)
	resp := post(t, srv, "", "presale_getIteration")
	if resp.Error == nil || resp.Error.Code != codeInvalidParams {
		t.Fatalf("expected invalid params, got %+v", resp.Error)
	}
}

func TestRejectsWrongJSONRPCVersion(t *testing.T) {
	srv := newTestServer(t)
	body := []byte(`{"jsonrpc":"1.0","method":"presale_getState","id":1}`)
	req := httptest.NewRequest("POST", "/", bytes.NewReader(body))
	recorder := httptest.NewRecorder()
	srv.handle(recorder, req)

	resp := &RPCResponse{}
	if err := json.Unmarshal(recorder.Body.Bytes(), resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Error == nil || resp.Error.Code != codeInvalidRequest {
		t.Fatalf("expected invalid request, got %+v", resp.Error)
	}
}
