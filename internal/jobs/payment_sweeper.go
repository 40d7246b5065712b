// Package jobs runs the portal's periodic background work
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// sweepTimeout bounds a single sweep run
const sweepTimeout = time.Minute

// PaymentExpirer is the interface that wraps expiry of abandoned payments
type PaymentExpirer interface {
	// Method ExpireStale fails PENDING payments older than ttl and returns how many were failed.
	ExpireStale(ctx context.Context, ttl time.Duration) (int, error)
}

// PaymentSweeper periodically fails payments the gateway never confirmed
type PaymentSweeper struct {
	cron    *cron.Cron
	expirer PaymentExpirer
	ttl     time.Duration
	logger  *zap.Logger
}

// NewPaymentSweeper creates a sweeper running on schedule, a standard cron spec or descriptor such as "@every 5m"
func NewPaymentSweeper(expirer PaymentExpirer, ttl time.Duration, schedule string, logger *zap.Logger) (*PaymentSweeper, error) {
	s := &PaymentSweeper{
		cron:    cron.New(),
		expirer: expirer,
		ttl:     ttl,
		logger:  logger,
	}
	if _, err := s.cron.AddFunc(schedule, s.Sweep); err != nil {
		return nil, fmt.Errorf("invalid sweep schedule %q: %w", schedule, err)
	}
	return s, nil
}

// Start starts the sweeper in the background
func (s *PaymentSweeper) Start() {
	s.cron.Start()
	s.logger.Info("Payment sweeper started", zap.Duration("ttl", s.ttl))
}

// Stop stops the sweeper and waits for a running sweep to finish
func (s *PaymentSweeper) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("Payment sweeper stopped")
}

// Sweep runs one expiry pass. Errors are logged; the next run retries.
func (s *PaymentSweeper) Sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	expired, err := s.expirer.ExpireStale(ctx, s.ttl)
	if err != nil {
		s.logger.Error("Failed to expire stale payments", zap.Error(err), zap.Int("expired", expired))
		return
	}
	if expired > 0 {
		s.logger.Info("Expired stale payments", zap.Int("count", expired))
	}
}
