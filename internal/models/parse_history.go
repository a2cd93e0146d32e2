package models

// Retention bounds for per-tenant diagnostics. Older records beyond these
// counts are pruned when new ones are appended.
const (
	ParseHistoryRetention = 50
	ParseErrorRetention   = 100
)

// ParseHistoryEntry records the outcome of one parse cycle for a tenant.
type ParseHistoryEntry struct {
	BaseModel

	// TenantID is the owning tenant.
	TenantID ULID `gorm:"not null;type:varchar(26);index:idx_history_tenant" json:"tenant_id"`

	// StartedAt is when the cycle began.
	StartedAt Time `gorm:"not null;index:idx_history_tenant" json:"started_at"`

	// Success indicates whether a snapshot was published.
	Success bool `gorm:"not null" json:"success"`

	// Trigger records what started the cycle ("schedule" or "manual").
	Trigger string `gorm:"size:20" json:"trigger,omitempty"`

	// ChannelCount and EventCount are the published snapshot sizes.
	ChannelCount int `gorm:"default:0" json:"channel_count"`
	EventCount   int `gorm:"default:0" json:"event_count"`

	// SourcesOK and SourcesFailed count the playlist/guide fetch outcomes.
	SourcesOK     int `gorm:"default:0" json:"sources_ok"`
	SourcesFailed int `gorm:"default:0" json:"sources_failed"`

	// WarningCount is the number of malformed entries skipped while parsing.
	WarningCount int `gorm:"default:0" json:"warning_count"`

	// DurationMs is the wall-clock duration of the cycle.
	DurationMs int64 `gorm:"default:0" json:"duration_ms"`

	// Error holds the failure message for unsuccessful cycles.
	Error string `gorm:"size:4096" json:"error,omitempty"`
}

// TableName returns the table name for ParseHistoryEntry.
func (ParseHistoryEntry) TableName() string {
	return "parse_history"
}

// ParseErrorKind categorises where in the cycle an error occurred.
type ParseErrorKind string

const (
	ParseErrorFetch ParseErrorKind = "fetch"
	ParseErrorParse ParseErrorKind = "parse"
	ParseErrorStore ParseErrorKind = "store"
)

// ParseErrorRecord is one entry in a tenant's bounded error log.
type ParseErrorRecord struct {
	BaseModel

	// TenantID is the owning tenant.
	TenantID ULID `gorm:"not null;type:varchar(26);index:idx_parse_error_tenant" json:"tenant_id"`

	// OccurredAt is when the error happened.
	OccurredAt Time `gorm:"not null;index:idx_parse_error_tenant" json:"occurred_at"`

	// Kind is the cycle phase that produced the error.
	Kind ParseErrorKind `gorm:"not null;size:20" json:"kind"`

	// SourceURL is the upstream URL involved, if any.
	SourceURL string `gorm:"size:2048" json:"source_url,omitempty"`

	// Message is the error text.
	Message string `gorm:"not null;size:4096" json:"message"`
}

// TableName returns the table name for ParseErrorRecord.
func (ParseErrorRecord) TableName() string {
	return "parse_errors"
}
