package presale

import (
	"math/big"
	"strings"

	"presalechain/core/types"
)

var stableScale = new(big.Int).SetUint64(StableScale)

func assetBalance(account *types.Account, asset Asset) *big.Int {
	switch asset {
	case AssetUSDC:
		return account.BalanceUSDC
	case AssetUSDT:
		return account.BalanceUSDT
	default:
		return account.BalanceNative
	}
}

func setAssetBalance(account *types.Account, asset Asset, balance *big.Int) {
	switch asset {
	case AssetUSDC:
		account.BalanceUSDC = balance
	case AssetUSDT:
		account.BalanceUSDT = balance
	default:
		account.BalanceNative = balance
	}
}

// BuyNative purchases allocation in the identified round with the native
// asset, converting the deposit to USD through the price oracle. The token
// amount credited to the buyer is returned.
func (e *Engine) BuyNative(buyer [20]byte, iterationID int16, code string, amount *big.Int) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	return e.buy(AssetNative, buyer, iterationID, code, amount, func(amount *big.Int) (*big.Int, error) {
		if e.oracle == nil {
			return nil, ErrOraclePrice
		}
		price, err := e.oracle.NativeUSDPrice()
		if err != nil {
			return nil, err
		}
		return mulDiv(amount, price, fixedPointOne, maxTokenBits)
	})
}

// BuyUSDC purchases allocation with the first stable asset. The deposit is
// reinterpreted as USD at the stable asset's own decimal precision; no oracle
// reading is involved.
func (e *Engine) BuyUSDC(buyer [20]byte, iterationID int16, code string, amount *big.Int) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	return e.buy(AssetUSDC, buyer, iterationID, code, amount, stableUSDValue)
}

// BuyUSDT purchases allocation with the second stable asset.
func (e *Engine) BuyUSDT(buyer [20]byte, iterationID int16, code string, amount *big.Int) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	return e.buy(AssetUSDT, buyer, iterationID, code, amount, stableUSDValue)
}

// stableUSDValue normalises a six-decimal stable deposit to nine-decimal USD
// fixed point.
func stableUSDValue(amount *big.Int) (*big.Int, error) {
	return mulDiv(amount, stableScale, big.NewInt(1), maxTokenBits)
}

// buy performs the shared purchase path. Validation, conversion and the
// commission split all happen before the first write so any failure leaves
// state untouched.
func (e *Engine) buy(asset Asset, buyerAddr [20]byte, iterationID int16, code string, amount *big.Int, usdOf func(*big.Int) (*big.Int, error)) (*big.Int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if amount == nil || amount.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	if amount.BitLen() > maxCurrencyBits {
		return nil, ErrOverflow
	}
	state, err := e.requireState()
	if err != nil {
		return nil, err
	}
	if state.Status != StatusOpen {
		return nil, ErrPresaleNotOpen
	}
	iteration, ok, err := e.loadIteration(iterationID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrIterationNotFound
	}
	if !iteration.IsOpen() {
		return nil, ErrIterationNotOpen
	}
	usdValue, err := usdOf(amount)
	if err != nil {
		return nil, err
	}
	if usdValue.Cmp(state.MinBuy) < 0 {
		return nil, ErrMinBuyNotMet
	}
	tokenAmount, err := mulDiv(usdValue, fixedPointOne, iteration.Price, maxTokenBits)
	if err != nil {
		return nil, err
	}
	newSold, err := addBounded(iteration.Sold, tokenAmount, maxTokenBits)
	if err != nil {
		return nil, err
	}
	if newSold.Cmp(iteration.TotalSupply) > 0 {
		return nil, ErrSupplyExceeded
	}

	// Commission split. A disabled adviser leaves the purchase unreferred.
	code = strings.TrimSpace(code)
	firstTier := big.NewInt(0)
	secondTier := big.NewInt(0)
	var adviser *Adviser
	adviserCreated := false
	if code != "" {
		adviser, ok, err = e.loadAdviser(code)
		if err != nil {
			return nil, err
		}
		if !ok {
			adviser = &Adviser{
				Code:           code,
				Enabled:        true,
				FirstTierRate:  state.FirstTierRate,
				SecondTierRate: state.SecondTierRate,
				NativeReward:   big.NewInt(0),
				USDCReward:     big.NewInt(0),
				USDTReward:     big.NewInt(0),
				TokenReward:    big.NewInt(0),
			}
			adviserCreated = true
		}
		if adviser.Enabled {
			firstTier, err = mulDiv(amount, new(big.Int).SetUint64(adviser.FirstTierRate), fixedPointOne, maxCurrencyBits)
			if err != nil {
				return nil, err
			}
			secondTier, err = mulDiv(tokenAmount, new(big.Int).SetUint64(adviser.SecondTierRate), fixedPointOne, maxTokenBits)
			if err != nil {
				return nil, err
			}
		}
	}
	netAmount := new(big.Int).Sub(amount, firstTier)

	// Settlement: deposit leaves the buyer, the commission lands on the
	// adviser's escrow account and the remainder on the store account.
	buyerAccount, err := e.state.GetAccount(buyerAddr[:])
	if err != nil {
		return nil, err
	}
	if assetBalance(buyerAccount, asset).Cmp(amount) < 0 {
		return nil, ErrInsufficientFunds
	}
	storeAccount, err := e.state.GetAccount(e.store[:])
	if err != nil {
		return nil, err
	}
	var escrowAccount *types.Account
	var escrowAddr [20]byte
	if firstTier.Sign() > 0 {
		escrowAddr = AdviserEscrowAddress(code)
		escrowAccount, err = e.state.GetAccount(escrowAddr[:])
		if err != nil {
			return nil, err
		}
	}

	buyer, ok, err := e.loadBuyer(buyerAddr)
	if err != nil {
		return nil, err
	}
	if !ok {
		buyer = &Buyer{Owner: buyerAddr, Balance: big.NewInt(0)}
	}
	newBalance, err := addBounded(buyer.Balance, tokenAmount, maxTokenBits)
	if err != nil {
		return nil, err
	}
	newReleased, err := addBounded(state.TotalReleased, tokenAmount, maxTokenBits)
	if err != nil {
		return nil, err
	}
	if adviser != nil && adviser.Enabled {
		if firstTier.Sign() > 0 {
			switch asset {
			case AssetUSDC:
				adviser.USDCReward, err = addBounded(adviser.USDCReward, firstTier, maxCurrencyBits)
			case AssetUSDT:
				adviser.USDTReward, err = addBounded(adviser.USDTReward, firstTier, maxCurrencyBits)
			default:
				adviser.NativeReward, err = addBounded(adviser.NativeReward, firstTier, maxCurrencyBits)
			}
			if err != nil {
				return nil, err
			}
		}
		if secondTier.Sign() > 0 {
			adviser.TokenReward, err = addBounded(adviser.TokenReward, secondTier, maxTokenBits)
			if err != nil {
				return nil, err
			}
		}
	}

	// Commit. Every record lands in one staged batch so a backend failure
	// cannot leave a partial purchase behind.
	setAssetBalance(buyerAccount, asset, new(big.Int).Sub(assetBalance(buyerAccount, asset), amount))
	setAssetBalance(storeAccount, asset, new(big.Int).Add(assetBalance(storeAccount, asset), netAmount))
	batch := e.state.NewBatch()
	if err := batch.PutAccount(buyerAddr[:], buyerAccount); err != nil {
		return nil, err
	}
	if err := batch.PutAccount(e.store[:], storeAccount); err != nil {
		return nil, err
	}
	if escrowAccount != nil {
		setAssetBalance(escrowAccount, asset, new(big.Int).Add(assetBalance(escrowAccount, asset), firstTier))
		if err := batch.PutAccount(escrowAddr[:], escrowAccount); err != nil {
			return nil, err
		}
	}
	if adviser != nil && (adviserCreated || adviser.Enabled) {
		if err := writeAdviser(batch, adviser); err != nil {
			return nil, err
		}
	}
	buyer.Balance = newBalance
	if err := writeBuyer(batch, buyer); err != nil {
		return nil, err
	}
	iteration.Sold = newSold
	if err := writeIteration(batch, iteration); err != nil {
		return nil, err
	}
	state.TotalReleased = newReleased
	if err := writeState(batch, state); err != nil {
		return nil, err
	}
	if err := batch.Write(); err != nil {
		return nil, err
	}

	e.emit(Purchased{
		Asset:       asset,
		IterationID: iterationID,
		Buyer:       buyerAddr,
		Code:        code,
		Amount:      amount,
		TokenAmount: tokenAmount,
	}.Event())
	return tokenAmount, nil
}
