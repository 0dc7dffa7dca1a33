// Package payment talks to the payment authority that approves or declines
// a checkout charge.
package payment

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/sabscarpenter/skytravel/internal/logger"
)

const CodeLength = 5

// Charge is a single authorization request
type Charge struct {
	Reference   string
	TravelerID  string
	Amount      int
	PaymentCode string
}

// Decision is the authority's answer. Declines are not errors.
type Decision struct {
	Approved bool   `json:"approved"`
	Reason   string `json:"reason,omitempty"`
	CanRetry bool   `json:"canRetry"`
}

// Authority approves or declines charges, and returns the money of an
// approved charge whose booking could not be completed.
type Authority interface {
	Authorize(ctx context.Context, charge Charge) (*Decision, error)
	Refund(ctx context.Context, charge Charge) error
}

// SimulatedAuthority checks the payment code format and declines a fraction
// of well-formed charges at random.
type SimulatedAuthority struct {
	failureRate float64
	latency     time.Duration
	logger      logger.Logger

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewSimulatedAuthority(failureRate float64, latency time.Duration, log logger.Logger) *SimulatedAuthority {
	return &SimulatedAuthority{
		failureRate: failureRate,
		latency:     latency,
		logger:      log,
		rnd:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (a *SimulatedAuthority) Authorize(ctx context.Context, charge Charge) (*Decision, error) {
	a.logger.Info("Authorizing payment", "reference", charge.Reference, "amount", charge.Amount)

	if reason := validateCode(charge.PaymentCode); reason != "" {
		return &Decision{Approved: false, Reason: reason, CanRetry: false}, nil
	}
	if charge.Amount <= 0 {
		return &Decision{Approved: false, Reason: "Amount must be positive", CanRetry: false}, nil
	}

	if a.latency > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(a.latency):
		}
	}

	a.mu.Lock()
	declined := a.rnd.Float64() < a.failureRate
	a.mu.Unlock()

	if declined {
		a.logger.Warn("Payment declined (simulated)", "reference", charge.Reference)
		return &Decision{Approved: false, Reason: "Payment declined by provider", CanRetry: true}, nil
	}

	a.logger.Info("Payment authorized", "reference", charge.Reference)
	return &Decision{Approved: true}, nil
}

// Refund always succeeds unless ctx is done.
func (a *SimulatedAuthority) Refund(ctx context.Context, charge Charge) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	a.logger.Info("Payment refunded", "reference", charge.Reference, "amount", charge.Amount)
	return nil
}

func validateCode(code string) string {
	if len(code) != CodeLength {
		return "Payment code must be 5 digits"
	}
	for _, c := range code {
		if c < '0' || c > '9' {
			return "Payment code must contain only digits"
		}
	}
	return ""
}
