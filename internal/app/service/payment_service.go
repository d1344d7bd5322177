package service

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/shopsmith/storefront-backend/pkg/logger"
)

var ErrPaymentDeclined = errors.New("payment declined")

// Every third validation attempt is declined, mimicking an unreliable
// upstream processor.
const declineEvery = 3

// AttemptCounter issues the global, monotonically increasing attempt number.
// The Redis-backed implementation shares the sequence across processes; the
// in-memory one serves tests and deployments without Redis.
type AttemptCounter interface {
	Next(ctx context.Context) (int64, error)
}

type memoryCounter struct {
	n atomic.Int64
}

func NewMemoryCounter() AttemptCounter {
	return &memoryCounter{}
}

func (c *memoryCounter) Next(_ context.Context) (int64, error) {
	return c.n.Add(1), nil
}

type PaymentService interface {
	Validate(ctx context.Context, creditCard string) error
}

type paymentService struct {
	counter AttemptCounter
}

func NewPaymentService(counter AttemptCounter) PaymentService {
	return &paymentService{counter: counter}
}

// Validate accepts or declines a payment based purely on the global attempt
// sequence. The card content never influences the outcome.
func (s *paymentService) Validate(ctx context.Context, creditCard string) error {
	attempt, err := s.counter.Next(ctx)
	if err != nil {
		logger.Error("Failed to advance payment attempt counter", err)
		return err
	}

	logger.Info("Validating payment", map[string]interface{}{
		"attempt": attempt,
	})

	if attempt%declineEvery == 0 {
		logger.Warn("Payment declined", map[string]interface{}{
			"attempt": attempt,
		})
		return ErrPaymentDeclined
	}

	logger.Info("Payment accepted", map[string]interface{}{
		"attempt": attempt,
	})
	return nil
}
