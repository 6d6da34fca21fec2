package presale

import "math/big"

// Asset enumerates the deposit currencies accepted by the purchase engine.
type Asset string

const (
	// AssetNative is the chain's native asset, priced through the oracle.
	AssetNative Asset = "NATIVE"
	// AssetUSDC is the first fixed-decimal stable asset.
	AssetUSDC Asset = "USDC"
	// AssetUSDT is the second fixed-decimal stable asset.
	AssetUSDT Asset = "USDT"
)

// Status captures the lifecycle of the presale singleton and of an iteration.
type Status uint8

const (
	StatusUninitialized Status = iota
	StatusClosed
	StatusOpen
)

// Precision is the number of fixed-point decimals used for prices, rates and
// USD amounts throughout the ledger.
const Precision = 9

// StableScale normalises six-decimal stable deposits to nine-decimal USD
// fixed point (10^(Precision-6)).
const StableScale = 1_000

// State is the singleton configuration and status record for the presale. The
// authority is fixed at initialisation and gates every admin operation.
type State struct {
	Authority       [20]byte
	Status          Status
	MinBuy          *big.Int
	FirstTierRate   uint64
	SecondTierRate  uint64
	TotalReleased   *big.Int
	LastIterationID int16
}

// Clone returns a deep copy of the presale state.
func (s *State) Clone() *State {
	if s == nil {
		return nil
	}
	clone := *s
	if s.MinBuy != nil {
		clone.MinBuy = new(big.Int).Set(s.MinBuy)
	}
	if s.TotalReleased != nil {
		clone.TotalReleased = new(big.Int).Set(s.TotalReleased)
	}
	return &clone
}

// Iteration is one sale round with its own pricing and supply cap.
type Iteration struct {
	ID          int16
	Price       *big.Int
	Sold        *big.Int
	TotalSupply *big.Int
	Status      Status
}

// Clone returns a deep copy of the iteration record.
func (i *Iteration) Clone() *Iteration {
	if i == nil {
		return nil
	}
	clone := *i
	if i.Price != nil {
		clone.Price = new(big.Int).Set(i.Price)
	}
	if i.Sold != nil {
		clone.Sold = new(big.Int).Set(i.Sold)
	}
	if i.TotalSupply != nil {
		clone.TotalSupply = new(big.Int).Set(i.TotalSupply)
	}
	return &clone
}

// IsOpen reports whether the iteration currently accepts purchases.
func (i *Iteration) IsOpen() bool {
	return i != nil && i.Status == StatusOpen
}

// Buyer accumulates the tokens purchased by one owner across all iterations.
type Buyer struct {
	Owner   [20]byte
	Balance *big.Int
}

// Clone returns a deep copy of the buyer record.
func (b *Buyer) Clone() *Buyer {
	if b == nil {
		return nil
	}
	clone := *b
	if b.Balance != nil {
		clone.Balance = new(big.Int).Set(b.Balance)
	}
	return &clone
}

// Adviser is the commission and escrow accounting record for one referral
// code. Escrow balances accrue per deposit currency and are withdrawn through
// the claim-voucher protocol; ClaimNonce guards against voucher replay.
type Adviser struct {
	Code           string
	Enabled        bool
	FirstTierRate  uint64
	SecondTierRate uint64
	NativeReward   *big.Int
	USDCReward     *big.Int
	USDTReward     *big.Int
	TokenReward    *big.Int
	ClaimNonce     uint64
}

// Clone returns a deep copy of the adviser record.
func (a *Adviser) Clone() *Adviser {
	if a == nil {
		return nil
	}
	clone := *a
	if a.NativeReward != nil {
		clone.NativeReward = new(big.Int).Set(a.NativeReward)
	}
	if a.USDCReward != nil {
		clone.USDCReward = new(big.Int).Set(a.USDCReward)
	}
	if a.USDTReward != nil {
		clone.USDTReward = new(big.Int).Set(a.USDTReward)
	}
	if a.TokenReward != nil {
		clone.TokenReward = new(big.Int).Set(a.TokenReward)
	}
	return &clone
}
