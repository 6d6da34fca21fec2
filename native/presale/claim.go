package presale

import (
	"math/big"
	"strings"
)

// ClaimKind selects which escrow field a voucher withdraws. Each currency is
// claimed independently; the token bookkeeping balance has its own kind.
type ClaimKind string

const (
	ClaimNative ClaimKind = "NATIVE"
	ClaimUSDC   ClaimKind = "USDC"
	ClaimUSDT   ClaimKind = "USDT"
	ClaimToken  ClaimKind = "TOKEN"
)

// ClaimNativeReward withdraws the adviser's escrowed native-asset commission.
func (e *Engine) ClaimNativeReward(claimer [20]byte, code string, deadline int64, signature []byte, nonce uint64) (*big.Int, error) {
	return e.claim(ClaimNative, claimer, code, deadline, signature, nonce)
}

// ClaimUSDCReward withdraws the adviser's escrowed USDC commission.
func (e *Engine) ClaimUSDCReward(claimer [20]byte, code string, deadline int64, signature []byte, nonce uint64) (*big.Int, error) {
	return e.claim(ClaimUSDC, claimer, code, deadline, signature, nonce)
}

// ClaimUSDTReward withdraws the adviser's escrowed USDT commission.
func (e *Engine) ClaimUSDTReward(claimer [20]byte, code string, deadline int64, signature []byte, nonce uint64) (*big.Int, error) {
	return e.claim(ClaimUSDT, claimer, code, deadline, signature, nonce)
}

// ClaimTokenReward settles the adviser's accrued token commission. The token
// balance is bookkeeping only, so no asset moves; the field is zeroed and the
// nonce advances like any other claim.
func (e *Engine) ClaimTokenReward(claimer [20]byte, code string, deadline int64, signature []byte, nonce uint64) (*big.Int, error) {
	return e.claim(ClaimToken, claimer, code, deadline, signature, nonce)
}

func (a *Adviser) escrowFor(kind ClaimKind) *big.Int {
	switch kind {
	case ClaimUSDC:
		return a.USDCReward
	case ClaimUSDT:
		return a.USDTReward
	case ClaimToken:
		return a.TokenReward
	default:
		return a.NativeReward
	}
}

func (a *Adviser) resetEscrow(kind ClaimKind) {
	switch kind {
	case ClaimUSDC:
		a.USDCReward = big.NewInt(0)
	case ClaimUSDT:
		a.USDTReward = big.NewInt(0)
	case ClaimToken:
		a.TokenReward = big.NewInt(0)
	default:
		a.NativeReward = big.NewInt(0)
	}
}

// claim validates the voucher and releases one escrow field. All checks run
// before the first write; on success the field is zeroed and the nonce
// incremented atomically with the transfer.
func (e *Engine) claim(kind ClaimKind, claimer [20]byte, code string, deadline int64, signature []byte, nonce uint64) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	state, err := e.requireState()
	if err != nil {
		return nil, err
	}
	code = strings.TrimSpace(code)
	adviser, ok, err := e.loadAdviser(code)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrAdviserNotFound
	}
	if deadline < e.now() {
		return nil, ErrExpiredSignature
	}
	// The message is reconstructed from the submitting claimer's own address,
	// so a voucher issued for another claimer cannot recover the authority.
	voucher := ClaimVoucher{Code: code, Claimer: claimer, Deadline: deadline}
	if err := voucher.Verify(signature, state.Authority); err != nil {
		return nil, err
	}
	if nonce != adviser.ClaimNonce {
		return nil, ErrReplayedNonce
	}
	amount := adviser.escrowFor(kind)
	if amount == nil || amount.Sign() == 0 {
		return nil, ErrNoEscrowBalance
	}
	amount = new(big.Int).Set(amount)

	// Transfer and bookkeeping commit through one staged batch so the escrow
	// field, nonce and account balances move together.
	batch := e.state.NewBatch()
	if kind != ClaimToken {
		asset := Asset(kind)
		escrowAddr := AdviserEscrowAddress(code)
		escrowAccount, err := e.state.GetAccount(escrowAddr[:])
		if err != nil {
			return nil, err
		}
		if assetBalance(escrowAccount, asset).Cmp(amount) < 0 {
			return nil, ErrInsufficientFunds
		}
		claimerAccount, err := e.state.GetAccount(claimer[:])
		if err != nil {
			return nil, err
		}
		setAssetBalance(escrowAccount, asset, new(big.Int).Sub(assetBalance(escrowAccount, asset), amount))
		setAssetBalance(claimerAccount, asset, new(big.Int).Add(assetBalance(claimerAccount, asset), amount))
		if err := batch.PutAccount(escrowAddr[:], escrowAccount); err != nil {
			return nil, err
		}
		if err := batch.PutAccount(claimer[:], claimerAccount); err != nil {
			return nil, err
		}
	}

	adviser.resetEscrow(kind)
	adviser.ClaimNonce++
	if err := writeAdviser(batch, adviser); err != nil {
		return nil, err
	}
	if err := batch.Write(); err != nil {
		return nil, err
	}

	e.emit(Claimed{Kind: kind, Code: code, Claimer: claimer, Amount: amount}.Event())
	return amount, nil
}
