package presale

import (
	"errors"
	"math/big"
	"strings"
	"sync"
	"time"

	"presalechain/core/events"
	"presalechain/core/types"
)

var errNilState = errors.New("presale engine: state not configured")

type presaleEvent struct {
	evt *types.Event
}

func (e presaleEvent) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e presaleEvent) Event() *types.Event { return e.evt }

// Engine wires the presale ledger logic with external state, the price oracle
// and an event emitter. Every exported operation executes as one atomic unit:
// a single mutex serializes operations so concurrent callers observe each
// other's effect fully applied or not at all, and all validation and
// arithmetic happens before the first write, so a failure leaves the ledger
// untouched.
type Engine struct {
	mu      sync.Mutex
	state   engineState
	emitter events.Emitter
	oracle  PriceOracle
	store   [20]byte
	nowFn   func() int64
}

// NewEngine creates a presale engine with a no-op emitter. Callers can
// override the emitter via SetEmitter.
func NewEngine(state engineState) *Engine {
	return &Engine{
		state:   state,
		emitter: events.NoopEmitter{},
		nowFn:   func() int64 { return time.Now().Unix() },
	}
}

// SetOracle configures the native-asset price source used by BuyNative.
func (e *Engine) SetOracle(oracle PriceOracle) { e.oracle = oracle }

// SetStore configures the account receiving net purchase deposits.
func (e *Engine) SetStore(addr [20]byte) { e.store = addr }

// SetNowFunc overrides the time source used for voucher deadlines. Primarily
// intended for tests to provide deterministic timestamps.
func (e *Engine) SetNowFunc(now func() int64) {
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

// SetEmitter configures the event emitter used by the engine. Passing nil
// resets the emitter to a no-op implementation.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

func (e *Engine) emit(event *types.Event) {
	if e == nil || e.emitter == nil || event == nil {
		return
	}
	e.emitter.Emit(presaleEvent{evt: event})
}

func (e *Engine) now() int64 {
	if e == nil || e.nowFn == nil {
		return time.Now().Unix()
	}
	return e.nowFn()
}

// requireState loads the singleton or fails when init has not run yet.
func (e *Engine) requireState() (*State, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	state, ok, err := e.loadState()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotInitialized
	}
	return state, nil
}

// requireAuthority loads the singleton and checks the caller's signature
// against the configured authority.
func (e *Engine) requireAuthority(caller [20]byte) (*State, error) {
	state, err := e.requireState()
	if err != nil {
		return nil, err
	}
	if state.Authority != caller {
		return nil, ErrUnauthorizedSigner
	}
	return state, nil
}

// Init creates the presale singleton. The first caller becomes the authority;
// a second call fails. The presale starts without an active round and with
// purchases disabled until Open.
func (e *Engine) Init(authority [20]byte, minBuy *big.Int, firstTierRate, secondTierRate uint64) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok, err := e.loadState()
	if err != nil {
		return err
	}
	if ok {
		return ErrAlreadyInitialized
	}
	if minBuy == nil || minBuy.Sign() < 0 {
		return ErrInvalidAmount
	}
	if !validRate(firstTierRate) || !validRate(secondTierRate) {
		return ErrRateTooLarge
	}
	return e.saveState(&State{
		Authority:       authority,
		Status:          StatusUninitialized,
		MinBuy:          new(big.Int).Set(minBuy),
		FirstTierRate:   firstTierRate,
		SecondTierRate:  secondTierRate,
		TotalReleased:   big.NewInt(0),
		LastIterationID: -1,
	})
}

// SetMinBuy updates the minimum USD purchase, in fixed-point precision.
func (e *Engine) SetMinBuy(caller [20]byte, min *big.Int) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	state, err := e.requireAuthority(caller)
	if err != nil {
		return err
	}
	if min == nil || min.Sign() < 0 {
		return ErrInvalidAmount
	}
	state.MinBuy = new(big.Int).Set(min)
	return e.saveState(state)
}

// SetDefaultAdviserRates updates the rates inherited by lazily created
// advisers. Rates are fractions of 10^Precision and may not exceed it.
func (e *Engine) SetDefaultAdviserRates(caller [20]byte, firstTierRate, secondTierRate uint64) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	state, err := e.requireAuthority(caller)
	if err != nil {
		return err
	}
	if !validRate(firstTierRate) || !validRate(secondTierRate) {
		return ErrRateTooLarge
	}
	state.FirstTierRate = firstTierRate
	state.SecondTierRate = secondTierRate
	return e.saveState(state)
}

// Open enables purchases. The transition happens exactly once; a closed
// presale stays closed.
func (e *Engine) Open(caller [20]byte) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	state, err := e.requireAuthority(caller)
	if err != nil {
		return err
	}
	if state.Status != StatusUninitialized {
		return ErrAlreadyOpen
	}
	state.Status = StatusOpen
	return e.saveState(state)
}

// Close disables purchases permanently.
func (e *Engine) Close(caller [20]byte) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	state, err := e.requireAuthority(caller)
	if err != nil {
		return err
	}
	if state.Status != StatusOpen {
		return ErrPresaleNotOpen
	}
	state.Status = StatusClosed
	return e.saveState(state)
}

// CreateIteration registers a new sale round. Rounds start closed with
// nothing sold.
func (e *Engine) CreateIteration(caller [20]byte, id int16, price, totalSupply *big.Int) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	_, err := e.requireAuthority(caller)
	if err != nil {
		return err
	}
	if price == nil || price.Sign() <= 0 {
		return ErrInvalidAmount
	}
	if totalSupply == nil || totalSupply.Sign() < 0 {
		return ErrInvalidAmount
	}
	_, ok, err := e.loadIteration(id)
	if err != nil {
		return err
	}
	if ok {
		return ErrIterationExists
	}
	return e.saveIteration(&Iteration{
		ID:          id,
		Price:       new(big.Int).Set(price),
		Sold:        big.NewInt(0),
		TotalSupply: new(big.Int).Set(totalSupply),
		Status:      StatusClosed,
	})
}

// SetIterationPrice mutates the round's token price regardless of its status.
func (e *Engine) SetIterationPrice(caller [20]byte, id int16, price *big.Int) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	_, err := e.requireAuthority(caller)
	if err != nil {
		return err
	}
	if price == nil || price.Sign() <= 0 {
		return ErrInvalidAmount
	}
	iteration, ok, err := e.loadIteration(id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrIterationNotFound
	}
	iteration.Price = new(big.Int).Set(price)
	return e.saveIteration(iteration)
}

// SetIterationTotal mutates the round's supply cap regardless of its status.
// The cap can never drop below the amount already sold.
func (e *Engine) SetIterationTotal(caller [20]byte, id int16, total *big.Int) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	_, err := e.requireAuthority(caller)
	if err != nil {
		return err
	}
	if total == nil || total.Sign() < 0 {
		return ErrInvalidAmount
	}
	iteration, ok, err := e.loadIteration(id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrIterationNotFound
	}
	if iteration.Sold.Cmp(total) > 0 {
		return ErrSupplyBelowSold
	}
	iteration.TotalSupply = new(big.Int).Set(total)
	return e.saveIteration(iteration)
}

// OpenIteration transitions a round from Closed to Open. Other rounds are not
// touched; several rounds may sell at the same time. The singleton tracks the
// most recently opened round.
func (e *Engine) OpenIteration(caller [20]byte, id int16) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	state, err := e.requireAuthority(caller)
	if err != nil {
		return err
	}
	iteration, ok, err := e.loadIteration(id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrIterationNotFound
	}
	if iteration.Status == StatusOpen {
		return ErrIterationAlreadyOpen
	}
	iteration.Status = StatusOpen
	state.LastIterationID = id
	batch := e.state.NewBatch()
	if err := writeIteration(batch, iteration); err != nil {
		return err
	}
	if err := writeState(batch, state); err != nil {
		return err
	}
	return batch.Write()
}

// CloseIteration transitions a round from Open to Closed.
func (e *Engine) CloseIteration(caller [20]byte, id int16) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	_, err := e.requireAuthority(caller)
	if err != nil {
		return err
	}
	iteration, ok, err := e.loadIteration(id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrIterationNotFound
	}
	if iteration.Status != StatusOpen {
		return ErrIterationNotOpen
	}
	iteration.Status = StatusClosed
	return e.saveIteration(iteration)
}

// InitAdviser registers a referral code with custom commission rates.
func (e *Engine) InitAdviser(caller [20]byte, code string, firstTierRate, secondTierRate uint64) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	_, err := e.requireAuthority(caller)
	if err != nil {
		return err
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return ErrAdviserNotFound
	}
	if !validRate(firstTierRate) || !validRate(secondTierRate) {
		return ErrRateTooLarge
	}
	_, ok, err := e.loadAdviser(code)
	if err != nil {
		return err
	}
	if ok {
		return ErrCodeAlreadyExists
	}
	return e.saveAdviser(&Adviser{
		Code:           code,
		Enabled:        true,
		FirstTierRate:  firstTierRate,
		SecondTierRate: secondTierRate,
		NativeReward:   big.NewInt(0),
		USDCReward:     big.NewInt(0),
		USDTReward:     big.NewInt(0),
		TokenReward:    big.NewInt(0),
	})
}

// SetAdviserRates updates an existing adviser's commission rates.
func (e *Engine) SetAdviserRates(caller [20]byte, code string, firstTierRate, secondTierRate uint64) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	_, err := e.requireAuthority(caller)
	if err != nil {
		return err
	}
	if !validRate(firstTierRate) || !validRate(secondTierRate) {
		return ErrRateTooLarge
	}
	adviser, ok, err := e.loadAdviser(strings.TrimSpace(code))
	if err != nil {
		return err
	}
	if !ok {
		return ErrAdviserNotFound
	}
	adviser.FirstTierRate = firstTierRate
	adviser.SecondTierRate = secondTierRate
	return e.saveAdviser(adviser)
}

// EnableAdviser re-enables commission accrual for the code.
func (e *Engine) EnableAdviser(caller [20]byte, code string) error {
	return e.setAdviserEnabled(caller, code, true)
}

// DisableAdviser stops commission accrual for the code. Accrued escrow stays
// claimable.
func (e *Engine) DisableAdviser(caller [20]byte, code string) error {
	return e.setAdviserEnabled(caller, code, false)
}

func (e *Engine) setAdviserEnabled(caller [20]byte, code string, enabled bool) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	_, err := e.requireAuthority(caller)
	if err != nil {
		return err
	}
	adviser, ok, err := e.loadAdviser(strings.TrimSpace(code))
	if err != nil {
		return err
	}
	if !ok {
		return ErrAdviserNotFound
	}
	adviser.Enabled = enabled
	return e.saveAdviser(adviser)
}

// State returns a copy of the presale singleton.
func (e *Engine) State() (*State, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	state, err := e.requireState()
	if err != nil {
		return nil, err
	}
	return state.Clone(), nil
}

// Iteration returns a copy of the identified round.
func (e *Engine) Iteration(id int16) (*Iteration, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	iteration, ok, err := e.loadIteration(id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrIterationNotFound
	}
	return iteration.Clone(), nil
}

// Buyer returns a copy of the owner's cumulative purchase record. Unknown
// owners resolve to an empty record.
func (e *Engine) Buyer(owner [20]byte) (*Buyer, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	buyer, ok, err := e.loadBuyer(owner)
	if err != nil {
		return nil, err
	}
	if !ok {
		return &Buyer{Owner: owner, Balance: big.NewInt(0)}, nil
	}
	return buyer.Clone(), nil
}

// Adviser returns a copy of the referral record for the code.
func (e *Engine) Adviser(code string) (*Adviser, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	adviser, ok, err := e.loadAdviser(strings.TrimSpace(code))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrAdviserNotFound
	}
	return adviser.Clone(), nil
}
