// Package gateway talks to the payment processor that settles charges.
package gateway

import (
	"context"
	"math/rand"
	"sync"

	"github.com/shopspring/decimal"
)

// Gateway charges payments. Both calls are keyed by the payment's
// transaction id, so repeating a charge returns the first outcome.
type Gateway interface {
	Charge(ctx context.Context, transactionID string, amount decimal.Decimal) (bool, error)
	CheckStatus(ctx context.Context, transactionID string) (paid, known bool, err error)
}

// Simulated approves a configurable share of charges at random. Outcomes
// are remembered per transaction id for the life of the process.
type Simulated struct {
	mu          sync.RWMutex
	outcomes    map[string]bool
	successRate float64
	roll        func() float64
}

// NewSimulated returns a gateway approving successRate (0..1) of charges.
func NewSimulated(successRate float64) *Simulated {
	return &Simulated{
		outcomes:    make(map[string]bool),
		successRate: successRate,
		roll:        rand.Float64,
	}
}

// WithRoll replaces the random source; roll must return values in [0, 1).
func (g *Simulated) WithRoll(roll func() float64) *Simulated {
	g.roll = roll
	return g
}

func (g *Simulated) Charge(ctx context.Context, transactionID string, _ decimal.Decimal) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if paid, ok := g.outcomes[transactionID]; ok {
		return paid, nil
	}
	paid := g.roll() < g.successRate
	g.outcomes[transactionID] = paid
	return paid, nil
}

func (g *Simulated) CheckStatus(_ context.Context, transactionID string) (bool, bool, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	paid, ok := g.outcomes[transactionID]
	return paid, ok, nil
}
