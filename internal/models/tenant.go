package models

import (
	"net/url"
	"strings"
	"time"

	"gorm.io/gorm"
)

// DefaultCronSchedule is the refresh schedule applied when a tenant
// does not configure one.
const DefaultCronSchedule = "0 */6 * * *"

// MaxSourceURLs caps the number of playlist sources per tenant.
const MaxSourceURLs = 50

// Tenant represents an isolated configuration: a set of upstream playlist
// and guide URLs plus the schedule and presentation settings that drive its
// published channel/event snapshot.
type Tenant struct {
	BaseModel

	// Token is the opaque secret identifying the tenant. Never logged.
	Token string `gorm:"uniqueIndex;not null;size:255" json:"token" masq:"secret"`

	// Name is an optional human-friendly label.
	Name string `gorm:"size:255" json:"name,omitempty"`

	// SourceURLs are the ordered playlist URLs. Order matters for merging:
	// later sources win on metadata collisions.
	SourceURLs StringList `gorm:"not null" json:"source_urls"`

	// EPGURLs are explicitly configured guide URLs. URLs discovered from
	// playlist headers (url-tvg) are fetched in addition to these.
	EPGURLs StringList `json:"epg_urls,omitempty"`

	// CronSchedule is the five-field cron expression for automatic refresh.
	CronSchedule string `gorm:"size:100;default:'0 */6 * * *'" json:"cron_schedule"`

	// Timezone is the IANA zone name the cron schedule is evaluated in.
	Timezone string `gorm:"size:64;default:'UTC'" json:"timezone"`

	// HostURL is the tenant's public base URL, used to recognise artwork
	// served from the local static mirror.
	HostURL string `gorm:"size:2048" json:"host_url,omitempty"`

	// PasswordHash is an opaque credential hash managed by the admin layer.
	PasswordHash string `gorm:"size:255" json:"-" masq:"secret"`

	// Enabled indicates whether the scheduler should refresh this tenant.
	// Nil is treated as enabled.
	Enabled *bool `gorm:"default:true" json:"enabled"`

	// SnapshotVersion increments on every published snapshot.
	SnapshotVersion int64 `gorm:"default:0" json:"snapshot_version"`

	// LastRunAt is when the last parse cycle finished (success or failure).
	LastRunAt *Time `json:"last_run_at,omitempty"`

	// LastSuccessAt is when the last successful snapshot was published.
	LastSuccessAt *Time `json:"last_success_at,omitempty"`

	// LastError holds the failure message of the last unsuccessful cycle.
	LastError string `gorm:"size:4096" json:"last_error,omitempty"`

	// ChannelCount and EventCount describe the current snapshot.
	ChannelCount int `gorm:"default:0" json:"channel_count"`
	EventCount   int `gorm:"default:0" json:"event_count"`
}

// TableName returns the table name for Tenant.
func (Tenant) TableName() string {
	return "tenants"
}

// Location resolves the tenant's timezone, defaulting to UTC.
func (t *Tenant) Location() (*time.Location, error) {
	if t.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(t.Timezone)
}

// IsEnabled returns whether the scheduler should refresh this tenant.
func (t *Tenant) IsEnabled() bool {
	return BoolVal(t.Enabled)
}

// EffectiveCron returns the cron schedule, falling back to the default.
func (t *Tenant) EffectiveCron() string {
	if t.CronSchedule == "" {
		return DefaultCronSchedule
	}
	return t.CronSchedule
}

// Sanitize trims whitespace from user-provided fields.
func (t *Tenant) Sanitize() {
	t.Token = strings.TrimSpace(t.Token)
	t.Name = strings.TrimSpace(t.Name)
	t.CronSchedule = strings.TrimSpace(t.CronSchedule)
	t.Timezone = strings.TrimSpace(t.Timezone)
	t.HostURL = strings.TrimSpace(t.HostURL)
	for i, u := range t.SourceURLs {
		t.SourceURLs[i] = strings.TrimSpace(u)
	}
	for i, u := range t.EPGURLs {
		t.EPGURLs[i] = strings.TrimSpace(u)
	}
}

// Validate performs basic validation on the tenant.
func (t *Tenant) Validate() error {
	t.Sanitize()

	if t.Token == "" {
		return ErrTokenRequired
	}
	if len(t.SourceURLs) == 0 {
		return ErrNoSources
	}
	if len(t.SourceURLs) > MaxSourceURLs {
		return ErrTooManySources
	}
	for _, raw := range append(append(StringList{}, t.SourceURLs...), t.EPGURLs...) {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return ErrInvalidURL
		}
	}
	if t.Timezone != "" {
		if _, err := time.LoadLocation(t.Timezone); err != nil {
			return ErrInvalidTimezone
		}
	}
	return nil
}

// BeforeCreate is a GORM hook that validates the tenant and generates ULID.
func (t *Tenant) BeforeCreate(tx *gorm.DB) error {
	if err := t.BaseModel.BeforeCreate(tx); err != nil {
		return err
	}
	return t.Validate()
}

// BeforeUpdate is a GORM hook that validates the tenant before update.
func (t *Tenant) BeforeUpdate(tx *gorm.DB) error {
	return t.Validate()
}
