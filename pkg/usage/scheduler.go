package usage

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"parrot-hq/parrot/pkg/config"
)

// Scheduler prunes old ledger rows on a cron schedule, for example
// daily at 3 AM with "0 3 * * *".
type Scheduler struct {
	ledger *Ledger
	cfg    config.UsageConfig
	cron   *cron.Cron
	logger *slog.Logger

	mu      sync.Mutex
	running bool
}

// NewScheduler creates a pruning scheduler for the ledger.
func NewScheduler(ledger *Ledger, cfg config.UsageConfig) *Scheduler {
	return &Scheduler{
		ledger: ledger,
		cfg:    cfg,
		cron:   cron.New(),
		logger: slog.Default().With("component", "usage.scheduler"),
	}
}

// Start begins scheduled pruning. An empty schedule or zero retention
// disables pruning entirely.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cfg.PruneSchedule == "" || s.cfg.RetentionDays <= 0 {
		s.logger.Info("ledger pruning not configured, skipping scheduler")
		return nil
	}

	if _, err := cron.ParseStandard(s.cfg.PruneSchedule); err != nil {
		return fmt.Errorf("invalid prune schedule %q: %w", s.cfg.PruneSchedule, err)
	}

	if _, err := s.cron.AddFunc(s.cfg.PruneSchedule, s.runPrune); err != nil {
		return fmt.Errorf("failed to schedule pruning: %w", err)
	}

	s.cron.Start()
	s.running = true

	s.logger.Info("ledger pruning scheduled",
		"schedule", s.cfg.PruneSchedule,
		"retention_days", s.cfg.RetentionDays,
	)
	return nil
}

// Stop halts scheduled pruning and waits for an in-flight run.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	<-s.cron.Stop().Done()
	s.running = false
}

// PruneNow removes rows older than the retention window immediately.
func (s *Scheduler) PruneNow() (int64, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -s.cfg.RetentionDays)
	return s.ledger.Prune(cutoff)
}

func (s *Scheduler) runPrune() {
	removed, err := s.PruneNow()
	if err != nil {
		s.logger.Error("scheduled prune failed", "error", err)
		return
	}
	s.logger.Info("scheduled prune completed", "removed", removed)
}
