package presale

import (
	"math/big"
	"strconv"
	"strings"

	"presalechain/core/types"
	repoCrypto "presalechain/crypto"
)

const (
	TypePurchasedNative = "presale.purchased.native"
	TypePurchasedUSDC   = "presale.purchased.usdc"
	TypePurchasedUSDT   = "presale.purchased.usdt"
	TypeClaimedNative   = "presale.claimed.native"
	TypeClaimedUSDC     = "presale.claimed.usdc"
	TypeClaimedUSDT     = "presale.claimed.usdt"
	TypeClaimedToken    = "presale.claimed.token"
)

// Purchased is emitted for every successful purchase, regardless of the
// deposit currency.
type Purchased struct {
	Asset       Asset
	IterationID int16
	Buyer       [20]byte
	Code        string
	Amount      *big.Int
	TokenAmount *big.Int
}

func (e Purchased) EventType() string {
	switch e.Asset {
	case AssetUSDC:
		return TypePurchasedUSDC
	case AssetUSDT:
		return TypePurchasedUSDT
	default:
		return TypePurchasedNative
	}
}

func (e Purchased) Event() *types.Event {
	amount := big.NewInt(0)
	if e.Amount != nil {
		amount = new(big.Int).Set(e.Amount)
	}
	tokenAmount := big.NewInt(0)
	if e.TokenAmount != nil {
		tokenAmount = new(big.Int).Set(e.TokenAmount)
	}
	return &types.Event{
		Type: e.EventType(),
		Attributes: map[string]string{
			"iteration":   strconv.Itoa(int(e.IterationID)),
			"buyer":       repoCrypto.NewAddress(repoCrypto.SalePrefix, e.Buyer[:]).String(),
			"code":        strings.TrimSpace(e.Code),
			"amount":      amount.String(),
			"tokenAmount": tokenAmount.String(),
		},
	}
}

// Claimed is emitted after a successful escrow withdrawal.
type Claimed struct {
	Kind    ClaimKind
	Code    string
	Claimer [20]byte
	Amount  *big.Int
}

func (e Claimed) EventType() string {
	switch e.Kind {
	case ClaimUSDC:
		return TypeClaimedUSDC
	case ClaimUSDT:
		return TypeClaimedUSDT
	case ClaimToken:
		return TypeClaimedToken
	default:
		return TypeClaimedNative
	}
}

func (e Claimed) Event() *types.Event {
	amount := big.NewInt(0)
	if e.Amount != nil {
		amount = new(big.Int).Set(e.Amount)
	}
	return &types.Event{
		Type: e.EventType(),
		Attributes: map[string]string{
			"code":    strings.TrimSpace(e.Code),
			"claimer": repoCrypto.NewAddress(repoCrypto.SalePrefix, e.Claimer[:]).String(),
			"amount":  amount.String(),
		},
	}
}
