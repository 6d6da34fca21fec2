package types

import "math/big"

// Account holds the per-address balances tracked by the presale ledger. The
// native asset funds buyNative deposits; the two stable assets are accounted
// at their own six-decimal precision.
type Account struct {
	Nonce         uint64
	BalanceNative *big.Int
	BalanceUSDC   *big.Int
	BalanceUSDT   *big.Int
}

// Copy returns a deep copy so callers can mutate balances freely.
func (a *Account) Copy() *Account {
	if a == nil {
		return nil
	}
	clone := &Account{Nonce: a.Nonce}
	if a.BalanceNative != nil {
		clone.BalanceNative = new(big.Int).Set(a.BalanceNative)
	}
	if a.BalanceUSDC != nil {
		clone.BalanceUSDC = new(big.Int).Set(a.BalanceUSDC)
	}
	if a.BalanceUSDT != nil {
		clone.BalanceUSDT = new(big.Int).Set(a.BalanceUSDT)
	}
	return clone
}
