package engine

import (
	"math"
	"math/rand"
	"sort"
	"sync"
	"time"

	"nsplit-trader/pkg/utils"
)

const (
	// Random seed price range for a stock never seen before, emulating an
	// unknown market price.
	minSeedPrice = 50000
	maxSeedPrice = 100000

	// Hard floor keeping the walk away from non-positive prices.
	priceFloor = 1000
)

// PriceGenerator simulates per-stock prices with a geometric random walk.
// State is a map from stock code to last price; all access goes through the
// mutex so symbols never interfere with each other.
type PriceGenerator struct {
	mu         sync.Mutex
	prices     map[string]float64
	volatility float64
	rng        *rand.Rand
}

// NewPriceGenerator creates a generator with the given volatility in percent
// (e.g. 3 means a 3% standard deviation per update).
func NewPriceGenerator(volatilityPct float64) *PriceGenerator {
	return &PriceGenerator{
		prices:     make(map[string]float64),
		volatility: volatilityPct / 100,
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Peek returns the current price without advancing the walk, seeding the
// stock with a random price on first access.
func (g *PriceGenerator) Peek(stockCode string) float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.initLocked(stockCode)
}

// Update advances and returns the stock's price:
// new = old * (1 + N(0, volatility)), clamped to the floor and rounded to
// the minimum price increment.
func (g *PriceGenerator) Update(stockCode string) float64 {
	g.mu.Lock()
	defer g.mu.Unlock()

	old := g.initLocked(stockCode)
	next := old * (1 + g.rng.NormFloat64()*g.volatility)
	if next < priceFloor {
		next = priceFloor
	}
	next = utils.RoundPrice(next)
	g.prices[stockCode] = next
	return next
}

// SetPrice overrides the stock's current price.
func (g *PriceGenerator) SetPrice(stockCode string, price float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.prices[stockCode] = utils.RoundPrice(price)
}

// TrackedCodes returns every stock code that has been priced at least once,
// in deterministic order.
func (g *PriceGenerator) TrackedCodes() []string {
	g.mu.Lock()
	defer g.mu.Unlock()

	codes := make([]string, 0, len(g.prices))
	for code := range g.prices {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

func (g *PriceGenerator) initLocked(stockCode string) float64 {
	if p, ok := g.prices[stockCode]; ok {
		return p
	}
	p := float64(minSeedPrice + g.rng.Intn(maxSeedPrice-minSeedPrice+1))
	p = math.Max(p, priceFloor)
	g.prices[stockCode] = p
	return p
}
