package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Pruner deletes expired evidence sightings
type Pruner interface {
	PruneExpired(ctx context.Context) (int64, error)
}

// EvidencePruner runs the dedup-index cleanup on a cron schedule (with seconds)
type EvidencePruner struct {
	cron    *cron.Cron
	pruner  Pruner
	logger  *zap.Logger
	timeout time.Duration
	mu      sync.Mutex
	running bool
}

func NewEvidencePruner(pruner Pruner, logger *zap.Logger) *EvidencePruner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EvidencePruner{
		cron:    cron.New(cron.WithSeconds()),
		pruner:  pruner,
		logger:  logger,
		timeout: 5 * time.Minute,
	}
}

// Start registers the job and starts the scheduler
func (p *EvidencePruner) Start(schedule string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return fmt.Errorf("evidence pruner already running")
	}
	if _, err := p.cron.AddFunc(schedule, p.RunOnce); err != nil {
		return fmt.Errorf("invalid prune schedule %q: %w", schedule, err)
	}

	p.cron.Start()
	p.running = true
	p.logger.Info("Evidence pruner started", zap.String("schedule", schedule))
	return nil
}

// RunOnce prunes immediately
func (p *EvidencePruner) RunOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	start := time.Now()
	deleted, err := p.pruner.PruneExpired(ctx)
	if err != nil {
		p.logger.Error("Failed to prune evidence sightings", zap.Error(err))
		return
	}
	p.logger.Info("Pruned evidence sightings",
		zap.Int64("deleted", deleted),
		zap.Duration("took", time.Since(start)),
	)
}

// Stop waits for a running job to finish
func (p *EvidencePruner) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return
	}
	<-p.cron.Stop().Done()
	p.running = false
	p.logger.Info("Evidence pruner stopped")
}
