// Package scheduler
package scheduler

import (
	"context"
	"io"
	"log"
	"os"
	"time"

	"github.com/ebfarnell/podcastflow-pro-sub003/app/middleware"
	businessflow "github.com/ebfarnell/podcastflow-pro-sub003/business_flow"
	"github.com/ebfarnell/podcastflow-pro-sub003/config"
	"github.com/redis/go-redis/v9"
	"gopkg.in/natefinch/lumberjack.v2"
)

const sweeperLockKey = "inventory:sweeper:lock"

// ExpirationSweeper periodically expires overdue holds and returns their
// slots to available inventory. When redis is configured, a SetNX lock keeps
// multiple instances from sweeping the same rows at once; the conditional
// status flip makes a concurrent sweep harmless either way.
type ExpirationSweeper struct {
	reservationFlow businessflow.ReservationFlow
	rc              *redis.Client
	logger          *log.Logger
	interval        time.Duration
	batchSize       int
	lockTTL         time.Duration
}

// NewExpirationSweeper creates a new sweeper instance
func NewExpirationSweeper(
	reservationFlow businessflow.ReservationFlow,
	rc *redis.Client,
	inventoryCfg config.InventoryConfig,
	loggingCfg config.LoggingConfig,
) *ExpirationSweeper {
	interval := inventoryCfg.SweepInterval
	if interval <= 0 {
		interval = time.Minute
	}
	batchSize := inventoryCfg.SweepBatchSize
	if batchSize <= 0 {
		batchSize = 500
	}
	lockTTL := inventoryCfg.SweeperLockTTL
	if lockTTL <= 0 {
		lockTTL = 5 * time.Minute
	}

	s := &ExpirationSweeper{
		reservationFlow: reservationFlow,
		rc:              rc,
		interval:        interval,
		batchSize:       batchSize,
		lockTTL:         lockTTL,
	}
	s.initLogger(loggingCfg)

	return s
}

// initLogger configures a logger that writes to stdout and a rotating file
func (s *ExpirationSweeper) initLogger(cfg config.LoggingConfig) {
	var out io.Writer = os.Stdout
	if cfg.EnableSweeperLog && cfg.SweeperLogPath != "" {
		rotating := &lumberjack.Logger{
			Filename:   cfg.SweeperLogPath,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   cfg.Compress,
		}
		out = io.MultiWriter(os.Stdout, rotating)
	}
	s.logger = log.New(out, "sweeper ", log.LstdFlags|log.Lmicroseconds|log.LUTC)
}

// Start launches the sweeper loop in a background goroutine and returns a stop function
func (s *ExpirationSweeper) Start(parent context.Context) func() {
	ctx, cancel := context.WithCancel(parent)

	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.runOnce(ctx)

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.runOnce(ctx)
			}
		}
	}()

	return cancel
}

func (s *ExpirationSweeper) runOnce(ctx context.Context) {
	if !s.acquireLock(ctx) {
		s.logger.Printf("sweep skipped: another instance holds the lock")
		middleware.SweepRunsTotal.WithLabelValues("skipped").Inc()
		return
	}
	defer s.releaseLock(ctx)

	swept, err := s.reservationFlow.SweepExpired(ctx, s.batchSize)
	if err != nil {
		s.logger.Printf("sweep failed after %d holds: %v", swept, err)
		middleware.SweepRunsTotal.WithLabelValues("error").Inc()
		middleware.HoldsSweptTotal.Add(float64(swept))
		return
	}

	if swept > 0 {
		s.logger.Printf("swept %d expired holds", swept)
	}
	middleware.SweepRunsTotal.WithLabelValues("ok").Inc()
	middleware.HoldsSweptTotal.Add(float64(swept))
}

// acquireLock takes the distributed sweep lock. Without redis the sweeper
// runs unlocked, which is fine for a single instance.
func (s *ExpirationSweeper) acquireLock(ctx context.Context) bool {
	if s.rc == nil {
		return true
	}

	ok, err := s.rc.SetNX(ctx, sweeperLockKey, "1", s.lockTTL).Result()
	if err != nil {
		s.logger.Printf("lock acquisition failed, sweeping anyway: %v", err)
		return true
	}

	return ok
}

func (s *ExpirationSweeper) releaseLock(ctx context.Context) {
	if s.rc == nil {
		return
	}
	if err := s.rc.Del(ctx, sweeperLockKey).Err(); err != nil {
		s.logger.Printf("lock release failed: %v", err)
	}
}
