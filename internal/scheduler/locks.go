package scheduler

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/feedarr/feedarr/internal/models"
)

// Cycle trigger labels recorded in parse history.
const (
	TriggerSchedule = "schedule"
	TriggerManual   = "manual"
)

// CycleLease represents exclusive permission to run one parse cycle for a
// tenant. A lease is released when the cycle finishes, whatever the outcome.
type CycleLease struct {
	TenantID  models.ULID
	Token     string
	Trigger   string
	StartedAt time.Time
}

// CycleLocks enforces at most one in-flight parse cycle per tenant. A second
// acquisition attempt is rejected, never queued.
type CycleLocks struct {
	mu     sync.Mutex
	leases map[models.ULID]*CycleLease
}

// NewCycleLocks creates an empty lock registry.
func NewCycleLocks() *CycleLocks {
	return &CycleLocks{
		leases: make(map[models.ULID]*CycleLease),
	}
}

// Acquire takes the cycle lease for a tenant. Returns
// models.ErrAlreadyRunning when a cycle is already in flight.
func (l *CycleLocks) Acquire(tenantID models.ULID, trigger string) (*CycleLease, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, held := l.leases[tenantID]; held {
		return nil, models.ErrAlreadyRunning
	}

	lease := &CycleLease{
		TenantID:  tenantID,
		Token:     uuid.NewString(),
		Trigger:   trigger,
		StartedAt: time.Now(),
	}
	l.leases[tenantID] = lease
	return lease, nil
}

// Release returns a lease. Stale leases (token mismatch) are ignored so a
// double release cannot free a newer holder's lease.
func (l *CycleLocks) Release(lease *CycleLease) {
	if lease == nil {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	current, held := l.leases[lease.TenantID]
	if held && current.Token == lease.Token {
		delete(l.leases, lease.TenantID)
	}
}

// IsRunning reports whether a cycle is in flight for the tenant.
func (l *CycleLocks) IsRunning(tenantID models.ULID) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	_, held := l.leases[tenantID]
	return held
}

// Running returns a copy of all in-flight leases.
func (l *CycleLocks) Running() []*CycleLease {
	l.mu.Lock()
	defer l.mu.Unlock()

	leases := make([]*CycleLease, 0, len(l.leases))
	for _, lease := range l.leases {
		copied := *lease
		leases = append(leases, &copied)
	}
	return leases
}
