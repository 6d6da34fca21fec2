package rpc

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"

	"presalechain/crypto"
	"presalechain/native/presale"
)

type rpcHandler func(http.ResponseWriter, *RPCRequest)

func (s *Server) adminHandlers() map[string]rpcHandler {
	return map[string]rpcHandler{
		"presale_init":                   s.handleInit,
		"presale_setMinBuy":              s.handleSetMinBuy,
		"presale_setDefaultAdviserRates": s.handleSetDefaultAdviserRates,
		"presale_open":                   s.handleOpen,
		"presale_close":                  s.handleClose,
		"presale_createIteration":        s.handleCreateIteration,
		"presale_setIterationPrice":      s.handleSetIterationPrice,
		"presale_setIterationTotal":      s.handleSetIterationTotal,
		"presale_openIteration":          s.handleOpenIteration,
		"presale_closeIteration":         s.handleCloseIteration,
		"presale_initAdviser":            s.handleInitAdviser,
		"presale_setAdviserRates":        s.handleSetAdviserRates,
		"presale_enableAdviser":          s.handleEnableAdviser,
		"presale_disableAdviser":         s.handleDisableAdviser,
	}
}

func (s *Server) publicHandlers() map[string]rpcHandler {
	return map[string]rpcHandler{
		"presale_buy":          s.handleBuy,
		"presale_claim":        s.handleClaim,
		"presale_getState":     s.handleGetState,
		"presale_getIteration": s.handleGetIteration,
		"presale_getBuyer":     s.handleGetBuyer,
		"presale_getAdviser":   s.handleGetAdviser,
	}
}

func decodeParams(req *RPCRequest, out interface{}) error {
	if len(req.Params) != 1 {
		return fmt.Errorf("expected exactly one parameter object, got %d", len(req.Params))
	}
	return json.Unmarshal(req.Params[0], out)
}

func parseAddress(value string) ([20]byte, error) {
	var out [20]byte
	decoded, err := crypto.DecodeAddress(strings.TrimSpace(value))
	if err != nil {
		return out, err
	}
	copy(out[:], decoded.Bytes())
	return out, nil
}

func parseAmount(value string) (*big.Int, error) {
	amount, ok := new(big.Int).SetString(strings.TrimSpace(value), 10)
	if !ok {
		return nil, fmt.Errorf("invalid decimal amount %q", value)
	}
	return amount, nil
}

func parseSignature(value string) ([]byte, error) {
	trimmed := strings.TrimPrefix(strings.TrimSpace(value), "0x")
	sig, err := hex.DecodeString(trimmed)
	if err != nil {
		return nil, fmt.Errorf("invalid signature encoding: %w", err)
	}
	return sig, nil
}

func formatAddress(addr [20]byte) string {
	return crypto.NewAddress(crypto.SalePrefix, addr[:]).String()
}

func statusLabel(status presale.Status) string {
	switch status {
	case presale.StatusOpen:
		return "open"
	case presale.StatusClosed:
		return "closed"
	default:
		return "uninitialized"
	}
}

// writeEngineError maps ledger sentinels onto JSON-RPC error codes.
func writeEngineError(w http.ResponseWriter, id interface{}, err error) {
	switch {
	case errors.Is(err, presale.ErrUnauthorizedSigner):
		writeError(w, http.StatusForbidden, id, codeUnauthorized, err.Error(), nil)
	case errors.Is(err, presale.ErrInvalidAmount),
		errors.Is(err, presale.ErrRateTooLarge),
		errors.Is(err, presale.ErrMinBuyNotMet),
		errors.Is(err, presale.ErrOverflow),
		errors.Is(err, presale.ErrExpiredSignature),
		errors.Is(err, presale.ErrSignatureVerification),
		errors.Is(err, presale.ErrReplayedNonce):
		writeError(w, http.StatusBadRequest, id, codeInvalidParams, err.Error(), nil)
	default:
		writeError(w, http.StatusOK, id, codeServerError, err.Error(), nil)
	}
}

type initParams struct {
	MinBuy         string `json:"minBuy"`
	FirstTierRate  uint64 `json:"firstTierRate"`
	SecondTierRate uint64 `json:"secondTierRate"`
}

func (s *Server) handleInit(w http.ResponseWriter, req *RPCRequest) {
	var params initParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	minBuy, err := parseAmount(params.MinBuy)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	if err := s.engine.Init(s.authority, minBuy, params.FirstTierRate, params.SecondTierRate); err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]string{"authority": formatAddress(s.authority)})
}

func (s *Server) handleSetMinBuy(w http.ResponseWriter, req *RPCRequest) {
	var params struct {
		MinBuy string `json:"minBuy"`
	}
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	minBuy, err := parseAmount(params.MinBuy)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	if err := s.engine.SetMinBuy(s.authority, minBuy); err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, true)
}

func (s *Server) handleSetDefaultAdviserRates(w http.ResponseWriter, req *RPCRequest) {
	var params struct {
		FirstTierRate  uint64 `json:"firstTierRate"`
		SecondTierRate uint64 `json:"secondTierRate"`
	}
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	if err := s.engine.SetDefaultAdviserRates(s.authority, params.FirstTierRate, params.SecondTierRate); err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, true)
}

func (s *Server) handleOpen(w http.ResponseWriter, req *RPCRequest) {
	if err := s.engine.Open(s.authority); err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, true)
}

func (s *Server) handleClose(w http.ResponseWriter, req *RPCRequest) {
	if err := s.engine.Close(s.authority); err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, true)
}

type iterationParams struct {
	ID          int16  `json:"id"`
	Price       string `json:"price,omitempty"`
	TotalSupply string `json:"totalSupply,omitempty"`
}

func (s *Server) handleCreateIteration(w http.ResponseWriter, req *RPCRequest) {
	var params iterationParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	price, err := parseAmount(params.Price)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	total, err := parseAmount(params.TotalSupply)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	if err := s.engine.CreateIteration(s.authority, params.ID, price, total); err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, true)
}

func (s *Server) handleSetIterationPrice(w http.ResponseWriter, req *RPCRequest) {
	var params iterationParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	price, err := parseAmount(params.Price)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	if err := s.engine.SetIterationPrice(s.authority, params.ID, price); err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, true)
}

func (s *Server) handleSetIterationTotal(w http.ResponseWriter, req *RPCRequest) {
	var params iterationParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	total, err := parseAmount(params.TotalSupply)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	if err := s.engine.SetIterationTotal(s.authority, params.ID, total); err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, true)
}

func (s *Server) handleOpenIteration(w http.ResponseWriter, req *RPCRequest) {
	var params iterationParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	if err := s.engine.OpenIteration(s.authority, params.ID); err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, true)
}

func (s *Server) handleCloseIteration(w http.ResponseWriter, req *RPCRequest) {
	var params iterationParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	if err := s.engine.CloseIteration(s.authority, params.ID); err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, true)
}

type adviserParams struct {
	Code           string `json:"code"`
	FirstTierRate  uint64 `json:"firstTierRate,omitempty"`
	SecondTierRate uint64 `json:"secondTierRate,omitempty"`
}

func (s *Server) handleInitAdviser(w http.ResponseWriter, req *RPCRequest) {
	var params adviserParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	if err := s.engine.InitAdviser(s.authority, params.Code, params.FirstTierRate, params.SecondTierRate); err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, true)
}

func (s *Server) handleSetAdviserRates(w http.ResponseWriter, req *RPCRequest) {
	var params adviserParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	if err := s.engine.SetAdviserRates(s.authority, params.Code, params.FirstTierRate, params.SecondTierRate); err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, true)
}

func (s *Server) handleEnableAdviser(w http.ResponseWriter, req *RPCRequest) {
	var params adviserParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	if err := s.engine.EnableAdviser(s.authority, params.Code); err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, true)
}

func (s *Server) handleDisableAdviser(w http.ResponseWriter, req *RPCRequest) {
	var params adviserParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	if err := s.engine.DisableAdviser(s.authority, params.Code); err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, true)
}

type buyParams struct {
	Buyer     string `json:"buyer"`
	Iteration int16  `json:"iteration"`
	Code      string `json:"code,omitempty"`
	Asset     string `json:"asset"`
	Amount    string `json:"amount"`
}

type buyResult struct {
	TokenAmount string `json:"tokenAmount"`
}

func (s *Server) handleBuy(w http.ResponseWriter, req *RPCRequest) {
	var params buyParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	buyer, err := parseAddress(params.Buyer)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	amount, err := parseAmount(params.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}

	var tokenAmount *big.Int
	switch presale.Asset(strings.ToUpper(strings.TrimSpace(params.Asset))) {
	case presale.AssetNative:
		tokenAmount, err = s.engine.BuyNative(buyer, params.Iteration, params.Code, amount)
	case presale.AssetUSDC:
		tokenAmount, err = s.engine.BuyUSDC(buyer, params.Iteration, params.Code, amount)
	case presale.AssetUSDT:
		tokenAmount, err = s.engine.BuyUSDT(buyer, params.Iteration, params.Code, amount)
	default:
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, fmt.Sprintf("unknown asset %q", params.Asset), nil)
		return
	}
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, buyResult{TokenAmount: tokenAmount.String()})
}

type claimParams struct {
	Kind      string `json:"kind"`
	Claimer   string `json:"claimer"`
	Code      string `json:"code"`
	Deadline  int64  `json:"deadline"`
	Signature string `json:"signature"`
	Nonce     uint64 `json:"nonce"`
}

type claimResult struct {
	Amount string `json:"amount"`
}

func (s *Server) handleClaim(w http.ResponseWriter, req *RPCRequest) {
	var params claimParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	claimer, err := parseAddress(params.Claimer)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	signature, err := parseSignature(params.Signature)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}

	var amount *big.Int
	switch presale.ClaimKind(strings.ToUpper(strings.TrimSpace(params.Kind))) {
	case presale.ClaimNative:
		amount, err = s.engine.ClaimNativeReward(claimer, params.Code, params.Deadline, signature, params.Nonce)
	case presale.ClaimUSDC:
		amount, err = s.engine.ClaimUSDCReward(claimer, params.Code, params.Deadline, signature, params.Nonce)
	case presale.ClaimUSDT:
		amount, err = s.engine.ClaimUSDTReward(claimer, params.Code, params.Deadline, signature, params.Nonce)
	case presale.ClaimToken:
		amount, err = s.engine.ClaimTokenReward(claimer, params.Code, params.Deadline, signature, params.Nonce)
	default:
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, fmt.Sprintf("unknown claim kind %q", params.Kind), nil)
		return
	}
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, claimResult{Amount: amount.String()})
}

type stateResult struct {
	Authority       string `json:"authority"`
	Status          string `json:"status"`
	MinBuy          string `json:"minBuy"`
	FirstTierRate   uint64 `json:"firstTierRate"`
	SecondTierRate  uint64 `json:"secondTierRate"`
	TotalReleased   string `json:"totalReleased"`
	LastIterationID int16  `json:"lastIterationId"`
}

func (s *Server) handleGetState(w http.ResponseWriter, req *RPCRequest) {
	st, err := s.engine.State()
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, stateResult{
		Authority:       formatAddress(st.Authority),
		Status:          statusLabel(st.Status),
		MinBuy:          st.MinBuy.String(),
		FirstTierRate:   st.FirstTierRate,
		SecondTierRate:  st.SecondTierRate,
		TotalReleased:   st.TotalReleased.String(),
		LastIterationID: st.LastIterationID,
	})
}

type iterationResult struct {
	ID          int16  `json:"id"`
	Price       string `json:"price"`
	Sold        string `json:"sold"`
	TotalSupply string `json:"totalSupply"`
	Status      string `json:"status"`
}

func (s *Server) handleGetIteration(w http.ResponseWriter, req *RPCRequest) {
	var params iterationParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	iteration, err := s.engine.Iteration(params.ID)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, iterationResult{
		ID:          iteration.ID,
		Price:       iteration.Price.String(),
		Sold:        iteration.Sold.String(),
		TotalSupply: iteration.TotalSupply.String(),
		Status:      statusLabel(iteration.Status),
	})
}

type buyerResult struct {
	Owner   string `json:"owner"`
	Balance string `json:"balance"`
}

func (s *Server) handleGetBuyer(w http.ResponseWriter, req *RPCRequest) {
	var params struct {
		Owner string `json:"owner"`
	}
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	owner, err := parseAddress(params.Owner)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	buyer, err := s.engine.Buyer(owner)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, buyerResult{
		Owner:   formatAddress(buyer.Owner),
		Balance: buyer.Balance.String(),
	})
}

type adviserResult struct {
	Code           string `json:"code"`
	Enabled        bool   `json:"enabled"`
	FirstTierRate  uint64 `json:"firstTierRate"`
	SecondTierRate uint64 `json:"secondTierRate"`
	NativeReward   string `json:"nativeReward"`
	USDCReward     string `json:"usdcReward"`
	USDTReward     string `json:"usdtReward"`
	TokenReward    string `json:"tokenReward"`
	ClaimNonce     uint64 `json:"claimNonce"`
	EscrowAddress  string `json:"escrowAddress"`
}

func (s *Server) handleGetAdviser(w http.ResponseWriter, req *RPCRequest) {
	var params adviserParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	adviser, err := s.engine.Adviser(params.Code)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, adviserResult{
		Code:           adviser.Code,
		Enabled:        adviser.Enabled,
		FirstTierRate:  adviser.FirstTierRate,
		SecondTierRate: adviser.SecondTierRate,
		NativeReward:   adviser.NativeReward.String(),
		USDCReward:     adviser.USDCReward.String(),
		USDTReward:     adviser.USDTReward.String(),
		TokenReward:    adviser.TokenReward.String(),
		ClaimNonce:     adviser.ClaimNonce,
		EscrowAddress:  formatAddress(presale.AdviserEscrowAddress(adviser.Code)),
	})
}
