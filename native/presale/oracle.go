package presale

import (
	"errors"
	"math/big"
	"sync"
	"time"
)

var (
	// ErrOraclePrice indicates the oracle returned no usable price.
	ErrOraclePrice = errors.New("presale: oracle price unavailable")
	// ErrOracleStale indicates the cached quote exceeded its freshness window.
	ErrOracleStale = errors.New("presale: oracle price stale")
)

// PriceOracle supplies the current USD price of the native asset, scaled by
// 10^Precision. The oracle's internals are an external concern; the engine
// only consumes the reading.
type PriceOracle interface {
	NativeUSDPrice() (*big.Int, error)
}

// StaticOracle serves a manually fed price with an optional freshness guard.
// Deployments point it at an off-process price feeder; tests pin it.
type StaticOracle struct {
	mu        sync.RWMutex
	price     *big.Int
	updatedAt time.Time
	maxAge    time.Duration
	now       func() time.Time
}

// NewStaticOracle creates an oracle serving the supplied fixed-point price.
// A zero maxAge disables staleness checks.
func NewStaticOracle(price *big.Int, maxAge time.Duration) *StaticOracle {
	o := &StaticOracle{maxAge: maxAge, now: time.Now}
	if price != nil {
		o.price = new(big.Int).Set(price)
		o.updatedAt = o.now()
	}
	return o
}

// SetClock overrides the time source (primarily for deterministic testing).
func (o *StaticOracle) SetClock(now func() time.Time) {
	if o == nil || now == nil {
		return
	}
	o.mu.Lock()
	o.now = now
	o.mu.Unlock()
}

// SetPrice replaces the served price and refreshes the quote timestamp.
func (o *StaticOracle) SetPrice(price *big.Int) error {
	if o == nil {
		return ErrOraclePrice
	}
	if price == nil || price.Sign() <= 0 {
		return ErrOraclePrice
	}
	o.mu.Lock()
	o.price = new(big.Int).Set(price)
	o.updatedAt = o.now()
	o.mu.Unlock()
	return nil
}

// NativeUSDPrice implements PriceOracle.
func (o *StaticOracle) NativeUSDPrice() (*big.Int, error) {
	if o == nil {
		return nil, ErrOraclePrice
	}
	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.price == nil || o.price.Sign() <= 0 {
		return nil, ErrOraclePrice
	}
	if o.maxAge > 0 && o.now().Sub(o.updatedAt) > o.maxAge {
		return nil, ErrOracleStale
	}
	return new(big.Int).Set(o.price), nil
}
