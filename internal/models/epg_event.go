package models

import (
	"gorm.io/gorm"
)

// EPGEvent represents a single programme in a tenant's published guide
// snapshot. Events are deduplicated per (tenant, channel, start) and
// replaced wholesale on every successful parse cycle.
type EPGEvent struct {
	BaseModel

	// TenantID is the owning tenant.
	TenantID ULID `gorm:"not null;type:varchar(26);uniqueIndex:idx_tenant_event,priority:1;index" json:"tenant_id"`

	// ChannelID references Channel.ChannelID within the same tenant.
	ChannelID string `gorm:"not null;size:255;uniqueIndex:idx_tenant_event,priority:2;index:idx_event_channel" json:"channel_id"`

	// Start and Stop are stored in UTC.
	Start Time  `gorm:"not null;uniqueIndex:idx_tenant_event,priority:3;index" json:"start"`
	Stop  *Time `json:"stop,omitempty"`

	Title       string `gorm:"not null;size:1024" json:"title"`
	Subtitle    string `gorm:"size:1024" json:"subtitle,omitempty"`
	Description string `gorm:"type:text" json:"description,omitempty"`
	Category    string `gorm:"size:255" json:"category,omitempty"`

	// IconURL is the programme artwork from the guide, if any.
	IconURL string `gorm:"size:2048" json:"icon_url,omitempty"`
}

// TableName returns the table name for EPGEvent.
func (EPGEvent) TableName() string {
	return "epg_events"
}

// Validate performs basic validation on the event.
func (e *EPGEvent) Validate() error {
	if e.ChannelID == "" {
		return ErrChannelIDRequired
	}
	if e.Title == "" {
		return ErrTitleRequired
	}
	if e.Start.IsZero() {
		return ErrStartTimeRequired
	}
	if e.Stop != nil && !e.Stop.After(e.Start) {
		return ErrInvalidTimeRange
	}
	return nil
}

// BeforeCreate is a GORM hook that validates the event and generates ULID.
func (e *EPGEvent) BeforeCreate(tx *gorm.DB) error {
	if err := e.BaseModel.BeforeCreate(tx); err != nil {
		return err
	}
	return e.Validate()
}
