package engine

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPeekSeedsUnknownStockWithinRange(t *testing.T) {
	g := NewPriceGenerator(3)

	price := g.Peek("SMSNG")
	assert.GreaterOrEqual(t, price, float64(minSeedPrice))
	assert.LessOrEqual(t, price, float64(maxSeedPrice))

	// Peek must not advance the walk.
	assert.Equal(t, price, g.Peek("SMSNG"))
}

func TestUpdateRoundsToMinimumIncrement(t *testing.T) {
	g := NewPriceGenerator(3)
	g.SetPrice("HYNIX", 50000)

	for i := 0; i < 100; i++ {
		p := g.Update("HYNIX")
		assert.Equal(t, math.Round(p*100)/100, p, "price must carry at most two decimals")
	}
}

func TestUpdateClampsToFloor(t *testing.T) {
	// Volatility of zero never moves the price, so a seed below the floor
	// must be pulled up on the first update.
	g := NewPriceGenerator(0)
	g.SetPrice("PENNY", 1)

	p := g.Update("PENNY")
	assert.Equal(t, float64(1000), p)
}

func TestUpdateIsIndependentPerStock(t *testing.T) {
	g := NewPriceGenerator(3)
	g.SetPrice("AAA", 60000)
	g.SetPrice("BBB", 70000)

	g.Update("AAA")
	assert.Equal(t, float64(70000), g.Peek("BBB"), "updating one stock must not touch another")
}

func TestSetPriceOverridesWalk(t *testing.T) {
	g := NewPriceGenerator(3)
	g.Peek("LGNRG")
	g.SetPrice("LGNRG", 12345.678)
	assert.Equal(t, 12345.68, g.Peek("LGNRG"))
}

func TestTrackedCodes(t *testing.T) {
	g := NewPriceGenerator(3)
	require.Empty(t, g.TrackedCodes())

	g.Peek("BBB")
	g.Peek("AAA")
	assert.Equal(t, []string{"AAA", "BBB"}, g.TrackedCodes())
}
