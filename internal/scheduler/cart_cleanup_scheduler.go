package scheduler

import (
	"time"

	"github.com/robfig/cron/v3"
	"github.com/shopsmith/storefront-backend/internal/app/service"
	"github.com/shopsmith/storefront-backend/pkg/logger"
)

// CartCleanupScheduler periodically removes guest carts that have gone
// untouched longer than the configured window.
type CartCleanupScheduler struct {
	cron        *cron.Cron
	cartService service.CartService
	schedule    string
	maxAge      time.Duration
}

func NewCartCleanupScheduler(cartService service.CartService, schedule string, maxAge time.Duration) *CartCleanupScheduler {
	return &CartCleanupScheduler{
		cron:        cron.New(),
		cartService: cartService,
		schedule:    schedule,
		maxAge:      maxAge,
	}
}

func (s *CartCleanupScheduler) Start() error {
	_, err := s.cron.AddFunc(s.schedule, func() {
		logger.Info("Starting scheduled guest cart cleanup", map[string]interface{}{
			"max_age": s.maxAge.String(),
		})

		deleted, err := s.cartService.PurgeStaleGuestCarts(s.maxAge)
		if err != nil {
			logger.Error("Scheduled guest cart cleanup failed", err)
			return
		}

		logger.Info("Scheduled guest cart cleanup completed", map[string]interface{}{
			"deleted": deleted,
		})
	})
	if err != nil {
		logger.Error("Failed to register cart cleanup job", err)
		return err
	}

	s.cron.Start()
	logger.Info("Cart cleanup scheduler started", map[string]interface{}{
		"schedule": s.schedule,
	})
	return nil
}

func (s *CartCleanupScheduler) Stop() {
	logger.Info("Stopping cart cleanup scheduler...")
	s.cron.Stop()
	logger.Info("Cart cleanup scheduler stopped")
}
