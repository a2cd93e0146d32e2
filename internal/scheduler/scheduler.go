// Package scheduler drives tenant parse cycles: a cron evaluation loop for
// automatic refreshes, manual triggers, per-tenant exclusivity and a global
// concurrency bound.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/feedarr/feedarr/internal/config"
	"github.com/feedarr/feedarr/internal/models"
	"github.com/feedarr/feedarr/internal/observability"
	"github.com/feedarr/feedarr/internal/repository"
)

// defaultSyncInterval is how often tenant schedules are evaluated.
const defaultSyncInterval = time.Minute

// Scheduler evaluates tenant cron schedules and launches parse cycles.
// Each tenant's schedule is evaluated in its own timezone, so a tenant in
// Europe/Berlin scheduled for 06:00 fires at 06:00 local time across DST
// transitions.
type Scheduler struct {
	mu sync.RWMutex

	tenantRepo repository.TenantRepository
	runner     *CycleRunner
	locks      *CycleLocks

	logger *slog.Logger
	parser cron.Parser

	syncInterval  time.Duration
	cycleTimeout  time.Duration
	maxConcurrent int
	slots         chan struct{}

	// Running state
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// now is injectable for tests.
	now func() time.Time
}

// New creates a scheduler.
func New(tenantRepo repository.TenantRepository, runner *CycleRunner, cfg config.SchedulerConfig) *Scheduler {
	maxConcurrent := cfg.MaxConcurrentCycles
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	cycleTimeout := cfg.CycleTimeout
	if cycleTimeout <= 0 {
		cycleTimeout = 15 * time.Minute
	}

	return &Scheduler{
		tenantRepo:    tenantRepo,
		runner:        runner,
		locks:         NewCycleLocks(),
		logger:        slog.Default(),
		parser:        cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow),
		syncInterval:  defaultSyncInterval,
		cycleTimeout:  cycleTimeout,
		maxConcurrent: maxConcurrent,
		slots:         make(chan struct{}, maxConcurrent),
		now:           time.Now,
	}
}

// WithLogger sets a custom logger.
func (s *Scheduler) WithLogger(logger *slog.Logger) *Scheduler {
	s.logger = observability.WithComponent(logger, "scheduler")
	return s
}

// WithSyncInterval overrides how often schedules are evaluated.
func (s *Scheduler) WithSyncInterval(interval time.Duration) *Scheduler {
	if interval > 0 {
		s.syncInterval = interval
	}
	return s
}

// Start begins the scheduler's background evaluation loop.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ctx != nil {
		return fmt.Errorf("scheduler already started")
	}

	s.ctx, s.cancel = context.WithCancel(ctx)

	s.wg.Add(1)
	go s.syncLoop()

	s.logger.Info("scheduler started",
		slog.Duration("sync_interval", s.syncInterval),
		slog.Duration("cycle_timeout", s.cycleTimeout),
		slog.Int("max_concurrent_cycles", s.maxConcurrent))

	return nil
}

// Stop stops the scheduler and waits for in-flight cycles to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Unlock()

	s.wg.Wait()

	s.mu.Lock()
	s.ctx = nil
	s.cancel = nil
	s.mu.Unlock()

	s.logger.Info("scheduler stopped")
}

// syncLoop periodically evaluates tenant schedules and launches due cycles.
func (s *Scheduler) syncLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.syncInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.runDue(s.ctx)
		}
	}
}

// runDue launches a cycle for every enabled tenant whose schedule fired
// within the last sync interval.
func (s *Scheduler) runDue(ctx context.Context) {
	tenants, err := s.tenantRepo.GetEnabled(ctx)
	if err != nil {
		s.logger.Error("failed to get tenants for scheduling", slog.Any("error", err))
		return
	}

	for _, tenant := range tenants {
		if !s.isDue(tenant) {
			continue
		}
		if err := s.launch(tenant, TriggerSchedule); err != nil {
			// A still-running cycle simply absorbs this tick.
			if err != models.ErrAlreadyRunning {
				s.logger.Error("failed to launch scheduled cycle",
					slog.String("tenant_id", tenant.ID.String()),
					slog.Any("error", err))
			}
		}
	}
}

// isDue checks whether the tenant's schedule fired within the last sync
// interval, evaluated in the tenant's timezone.
func (s *Scheduler) isDue(tenant *models.Tenant) bool {
	schedule, err := s.parser.Parse(tenant.EffectiveCron())
	if err != nil {
		s.logger.Warn("invalid cron expression",
			slog.String("tenant_id", tenant.ID.String()),
			slog.String("cron", tenant.CronSchedule),
			slog.Any("error", err))
		return false
	}

	loc, err := tenant.Location()
	if err != nil {
		s.logger.Warn("invalid tenant timezone, using UTC",
			slog.String("tenant_id", tenant.ID.String()),
			slog.String("timezone", tenant.Timezone))
		loc = time.UTC
	}

	now := s.now().In(loc)
	next := schedule.Next(now.Add(-s.syncInterval))
	return !next.After(now)
}

// TriggerParse starts a manual parse cycle for a tenant. The cycle runs in
// the background; the call returns as soon as it is accepted. Returns
// models.ErrAlreadyRunning when a cycle is already in flight and
// models.ErrTenantNotFound when the tenant does not exist.
func (s *Scheduler) TriggerParse(ctx context.Context, tenantID models.ULID) error {
	tenant, err := s.tenantRepo.GetByID(ctx, tenantID)
	if err != nil {
		return fmt.Errorf("getting tenant: %w", err)
	}
	if tenant == nil {
		return models.ErrTenantNotFound
	}

	return s.launch(tenant, TriggerManual)
}

// launch acquires the tenant's cycle lease and runs the cycle in the
// background. The lease is held for the cycle's whole lifetime, including
// time spent waiting for a concurrency slot.
func (s *Scheduler) launch(tenant *models.Tenant, trigger string) error {
	s.mu.RLock()
	ctx := s.ctx
	s.mu.RUnlock()
	if ctx == nil {
		return fmt.Errorf("scheduler not started")
	}

	lease, err := s.locks.Acquire(tenant.ID, trigger)
	if err != nil {
		return err
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.locks.Release(lease)

		select {
		case s.slots <- struct{}{}:
			defer func() { <-s.slots }()
		case <-ctx.Done():
			return
		}

		cycleCtx, cancel := context.WithTimeout(ctx, s.cycleTimeout)
		defer cancel()

		if _, err := s.runner.Run(cycleCtx, tenant, trigger); err != nil {
			// Run already recorded the failure; nothing more to do here.
			s.logger.Debug("cycle finished with error",
				slog.String("tenant_id", tenant.ID.String()),
				slog.Any("error", err))
		}
	}()

	return nil
}

// NextRun returns when the tenant's schedule next fires, in the tenant's
// timezone.
func (s *Scheduler) NextRun(tenant *models.Tenant) (time.Time, error) {
	schedule, err := s.parser.Parse(tenant.EffectiveCron())
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid cron expression: %w", err)
	}
	loc, err := tenant.Location()
	if err != nil {
		loc = time.UTC
	}
	return schedule.Next(s.now().In(loc)), nil
}

// ValidateCron validates a five-field cron expression.
func (s *Scheduler) ValidateCron(expr string) error {
	_, err := s.parser.Parse(expr)
	return err
}

// ActiveCycle describes one in-flight parse cycle.
type ActiveCycle struct {
	TenantID  models.ULID `json:"tenant_id"`
	Trigger   string      `json:"trigger"`
	StartedAt time.Time   `json:"started_at"`
}

// Status represents the scheduler's current state.
type Status struct {
	Running             bool          `json:"running"`
	SyncInterval        time.Duration `json:"sync_interval"`
	MaxConcurrentCycles int           `json:"max_concurrent_cycles"`
	ActiveCycles        []ActiveCycle `json:"active_cycles"`
}

// GetStatus returns the scheduler's current state.
func (s *Scheduler) GetStatus() Status {
	s.mu.RLock()
	running := s.ctx != nil && s.ctx.Err() == nil
	s.mu.RUnlock()

	leases := s.locks.Running()
	active := make([]ActiveCycle, 0, len(leases))
	for _, lease := range leases {
		active = append(active, ActiveCycle{
			TenantID:  lease.TenantID,
			Trigger:   lease.Trigger,
			StartedAt: lease.StartedAt,
		})
	}

	return Status{
		Running:             running,
		SyncInterval:        s.syncInterval,
		MaxConcurrentCycles: s.maxConcurrent,
		ActiveCycles:        active,
	}
}

// IsRunning reports whether a parse cycle is in flight for the tenant.
func (s *Scheduler) IsRunning(tenantID models.ULID) bool {
	return s.locks.IsRunning(tenantID)
}
