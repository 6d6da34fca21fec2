package presale

import (
	"math/big"

	"presalechain/core/state"
	"presalechain/core/types"
)

// engineState abstracts the subset of state manager functionality required by
// the presale engine: RLP-backed keyed records plus per-address accounts.
// Multi-record operations stage their writes through NewBatch so a backend
// failure cannot leave a partial commit behind.
type engineState interface {
	KVGet(key []byte, out interface{}) (bool, error)
	KVPut(key []byte, value interface{}) error
	GetAccount(addr []byte) (*types.Account, error)
	PutAccount(addr []byte, account *types.Account) error
	NewBatch() state.BatchWriter
}

// recordWriter is the write surface shared by the live state and a staged
// batch, so the same record encoders serve both paths.
type recordWriter interface {
	KVPut(key []byte, value interface{}) error
}

type storedState struct {
	Authority      [20]byte
	Status         uint8
	MinBuy         *big.Int
	FirstTierRate  uint64
	SecondTierRate uint64
	TotalReleased  *big.Int
	LastIteration  uint16
}

type storedIteration struct {
	ID          uint16
	Price       *big.Int
	Sold        *big.Int
	TotalSupply *big.Int
	Status      uint8
}

type storedBuyer struct {
	Owner   [20]byte
	Balance *big.Int
}

type storedAdviser struct {
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

func nonNil(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return v
}

func (e *Engine) loadState() (*State, bool, error) {
	var stored storedState
	ok, err := e.state.KVGet(presaleStateKey, &stored)
	if err != nil || !ok {
		return nil, false, err
	}
	return &State{
		Authority:       stored.Authority,
		Status:          Status(stored.Status),
		MinBuy:          nonNil(stored.MinBuy),
		FirstTierRate:   stored.FirstTierRate,
		SecondTierRate:  stored.SecondTierRate,
		TotalReleased:   nonNil(stored.TotalReleased),
		LastIterationID: int16(stored.LastIteration),
	}, true, nil
}

func (e *Engine) saveState(s *State) error {
	return writeState(e.state, s)
}

func writeState(w recordWriter, s *State) error {
	return w.KVPut(presaleStateKey, storedState{
		Authority:      s.Authority,
		Status:         uint8(s.Status),
		MinBuy:         nonNil(s.MinBuy),
		FirstTierRate:  s.FirstTierRate,
		SecondTierRate: s.SecondTierRate,
		TotalReleased:  nonNil(s.TotalReleased),
		LastIteration:  uint16(s.LastIterationID),
	})
}

func (e *Engine) loadIteration(id int16) (*Iteration, bool, error) {
	var stored storedIteration
	ok, err := e.state.KVGet(iterationKey(id), &stored)
	if err != nil || !ok {
		return nil, false, err
	}
	return &Iteration{
		ID:          int16(stored.ID),
		Price:       nonNil(stored.Price),
		Sold:        nonNil(stored.Sold),
		TotalSupply: nonNil(stored.TotalSupply),
		Status:      Status(stored.Status),
	}, true, nil
}

func (e *Engine) saveIteration(it *Iteration) error {
	return writeIteration(e.state, it)
}

func writeIteration(w recordWriter, it *Iteration) error {
	return w.KVPut(iterationKey(it.ID), storedIteration{
		ID:          uint16(it.ID),
		Price:       nonNil(it.Price),
		Sold:        nonNil(it.Sold),
		TotalSupply: nonNil(it.TotalSupply),
		Status:      uint8(it.Status),
	})
}

func (e *Engine) loadBuyer(owner [20]byte) (*Buyer, bool, error) {
	var stored storedBuyer
	ok, err := e.state.KVGet(buyerKey(owner), &stored)
	if err != nil || !ok {
		return nil, false, err
	}
	return &Buyer{Owner: stored.Owner, Balance: nonNil(stored.Balance)}, true, nil
}

func (e *Engine) saveBuyer(b *Buyer) error {
	return writeBuyer(e.state, b)
}

func writeBuyer(w recordWriter, b *Buyer) error {
	return w.KVPut(buyerKey(b.Owner), storedBuyer{
		Owner:   b.Owner,
		Balance: nonNil(b.Balance),
	})
}

func (e *Engine) loadAdviser(code string) (*Adviser, bool, error) {
	var stored storedAdviser
	ok, err := e.state.KVGet(adviserKey(code), &stored)
	if err != nil || !ok {
		return nil, false, err
	}
	return &Adviser{
		Code:           stored.Code,
		Enabled:        stored.Enabled,
		FirstTierRate:  stored.FirstTierRate,
		SecondTierRate: stored.SecondTierRate,
		NativeReward:   nonNil(stored.NativeReward),
		USDCReward:     nonNil(stored.USDCReward),
		USDTReward:     nonNil(stored.USDTReward),
		TokenReward:    nonNil(stored.TokenReward),
		ClaimNonce:     stored.ClaimNonce,
	}, true, nil
}

func (e *Engine) saveAdviser(a *Adviser) error {
	return writeAdviser(e.state, a)
}

func writeAdviser(w recordWriter, a *Adviser) error {
	return w.KVPut(adviserKey(a.Code), storedAdviser{
		Code:           a.Code,
		Enabled:        a.Enabled,
		FirstTierRate:  a.FirstTierRate,
		SecondTierRate: a.SecondTierRate,
		NativeReward:   nonNil(a.NativeReward),
		USDCReward:     nonNil(a.USDCReward),
		USDTReward:     nonNil(a.USDTReward),
		TokenReward:    nonNil(a.TokenReward),
		ClaimNonce:     a.ClaimNonce,
	})
}
