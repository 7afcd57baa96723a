package session

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// JanitorConfig configures the background sweep of expired sessions.
type JanitorConfig struct {
	Interval time.Duration
	Logger   *logrus.Logger
}

// Janitor periodically removes expired sessions from a Sweeper.
type Janitor struct {
	cfg     JanitorConfig
	sweeper Sweeper
	now     func() time.Time

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewJanitor(cfg JanitorConfig, sweeper Sweeper) *Janitor {
	if cfg.Interval <= 0 {
		cfg.Interval = 10 * time.Minute
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	return &Janitor{
		cfg:     cfg,
		sweeper: sweeper,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Start sweeps once immediately and then on every tick until Shutdown or ctx ends.
func (j *Janitor) Start(ctx context.Context) {
	ctx, j.cancel = context.WithCancel(ctx)
	j.wg.Add(1)
	go func() {
		defer j.wg.Done()
		j.loop(ctx)
	}()
}

func (j *Janitor) Shutdown() {
	if j.cancel != nil {
		j.cancel()
	}
	j.wg.Wait()
	j.cfg.Logger.Info("session janitor stopped")
}

// Sweep removes expired sessions once and reports how many were dropped.
func (j *Janitor) Sweep(ctx context.Context) (int64, error) {
	return j.sweeper.DestroyExpired(ctx, j.now())
}

func (j *Janitor) loop(ctx context.Context) {
	ticker := time.NewTicker(j.cfg.Interval)
	defer ticker.Stop()

	for {
		n, err := j.Sweep(ctx)
		switch {
		case err != nil && ctx.Err() == nil:
			j.cfg.Logger.WithError(err).Warn("sweep expired sessions")
		case n > 0:
			j.cfg.Logger.WithField("removed", n).Debug("swept expired sessions")
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
