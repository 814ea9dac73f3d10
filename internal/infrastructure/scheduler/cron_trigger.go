package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	"github.com/shop/backend/internal/domain/catalog"
	"go.uber.org/zap"
)

// ShopProvider lists the shops whose price lists should be refreshed
type ShopProvider interface {
	FindRefreshable(ctx context.Context) ([]catalog.Shop, error)
}

// CronTrigger enqueues a refresh job for every refreshable shop on a cron schedule.
// Specs use six fields with seconds first, e.g. "0 0 3 * * *".
type CronTrigger struct {
	spec      string
	scheduler *Scheduler
	shops     ShopProvider
	logger    *zap.Logger

	cron      *cron.Cron
	ctx       context.Context
	cancel    context.CancelFunc
	mu        sync.Mutex
	isRunning bool
}

// NewCronTrigger validates spec and creates a trigger
func NewCronTrigger(spec string, scheduler *Scheduler, shops ShopProvider, logger *zap.Logger) (*CronTrigger, error) {
	if _, err := cron.NewParser(cronParseOptions).Parse(spec); err != nil {
		return nil, fmt.Errorf("%w: cron %q: %v", ErrInvalidConfig, spec, err)
	}
	return &CronTrigger{
		spec:      spec,
		scheduler: scheduler,
		shops:     shops,
		logger:    logger,
	}, nil
}

const cronParseOptions = cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor

// Start registers the schedule and starts the cron runner
func (c *CronTrigger) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.isRunning {
		return nil
	}

	c.ctx, c.cancel = context.WithCancel(ctx)
	c.cron = cron.New(
		cron.WithParser(cron.NewParser(cronParseOptions)),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)
	if _, err := c.cron.AddFunc(c.spec, c.tick); err != nil {
		c.cancel()
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	c.cron.Start()
	c.isRunning = true

	c.logger.Info("Refresh cron trigger started", zap.String("schedule", c.spec))
	return nil
}

// Stop stops the cron runner and waits for a running tick to return
func (c *CronTrigger) Stop() {
	c.mu.Lock()
	if !c.isRunning {
		c.mu.Unlock()
		return
	}
	c.isRunning = false
	c.cancel()
	stopped := c.cron.Stop()
	c.mu.Unlock()

	<-stopped.Done()
	c.logger.Info("Refresh cron trigger stopped")
}

func (c *CronTrigger) tick() {
	if _, err := c.TriggerNow(c.ctx); err != nil {
		c.logger.Error("Failed to schedule price list refresh", zap.Error(err))
	}
}

// TriggerNow enqueues a job for each refreshable shop and returns how many
// were queued. Shops that cannot be queued are logged and skipped.
func (c *CronTrigger) TriggerNow(ctx context.Context) (int, error) {
	shops, err := c.shops.FindRefreshable(ctx)
	if err != nil {
		return 0, fmt.Errorf("list refreshable shops: %w", err)
	}

	queued := 0
	for _, shop := range shops {
		if _, err := c.scheduler.ScheduleShop(shop); err != nil {
			if errors.Is(err, ErrStopped) {
				return queued, err
			}
			c.logger.Warn("Failed to schedule shop refresh",
				zap.Int64("shop_id", shop.ID),
				zap.Error(err),
			)
			continue
		}
		queued++
	}

	c.logger.Info("Scheduled price list refresh",
		zap.Int("shops", len(shops)),
		zap.Int("queued", queued),
	)
	return queued, nil
}
