package market

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arshadjafri/defi-risk-platform/pkg/models"
)

type capturingPublisher struct {
	mu    sync.Mutex
	ticks []models.PriceTick
}

func (c *capturingPublisher) PublishTick(_ context.Context, tick models.PriceTick) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ticks = append(c.ticks, tick)
	return nil
}

func (c *capturingPublisher) published() []models.PriceTick {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.PriceTick, len(c.ticks))
	copy(out, c.ticks)
	return out
}

func TestSimulatorStep(t *testing.T) {
	sim := NewSimulator(SimulatorConfig{Symbols: []string{"BTC", "ETH", "USDC"}}, &capturingPublisher{})

	now := time.Now().UTC()
	ticks := sim.step(now)
	require.Len(t, ticks, 3)

	for _, tick := range ticks {
		assert.Greater(t, tick.Price, 0.0)
		assert.Greater(t, tick.Volume24h, 0.0)
		assert.Equal(t, now, tick.Timestamp)
	}

	// Prices walk from the reference quotes; a single 2% step cannot
	// move BTC far from its base.
	assert.InDelta(t, 43250.0, ticks[0].Price, 43250.0*0.2)
	assert.InDelta(t, 1.0, ticks[2].Price, 0.01)
}

func TestSimulatorStepWalksFromPreviousPrice(t *testing.T) {
	sim := NewSimulator(SimulatorConfig{Symbols: []string{"ETH"}}, &capturingPublisher{})

	prev := sim.step(time.Now().UTC())[0].Price
	next := sim.step(time.Now().UTC())[0].Price
	assert.InDelta(t, prev, next, prev*0.2)
}

func TestSimulatorDefaultsSymbolSet(t *testing.T) {
	sim := NewSimulator(SimulatorConfig{}, &capturingPublisher{})
	ticks := sim.step(time.Now().UTC())
	assert.Len(t, ticks, len(basePrices))
	assert.Equal(t, 2*time.Second, sim.config.Interval)
}

func TestSimulatorRunPublishes(t *testing.T) {
	publisher := &capturingPublisher{}
	sim := NewSimulator(SimulatorConfig{
		Symbols:  []string{"BTC", "ETH"},
		Interval: 5 * time.Millisecond,
	}, publisher)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sim.Run(ctx) }()

	assert.Eventually(t, func() bool {
		return len(publisher.published()) >= 4
	}, time.Second, 5*time.Millisecond)

	cancel()
	require.ErrorIs(t, <-done, context.Canceled)

	ticks := publisher.published()
	assert.Equal(t, "BTC", ticks[0].Symbol)
	assert.Equal(t, "ETH", ticks[1].Symbol)
}
