package models

import (
	"strings"

	"gorm.io/gorm"
)

// Channel represents a single channel in a tenant's published snapshot.
// Channels are replaced wholesale on every successful parse cycle.
type Channel struct {
	BaseModel

	// TenantID is the owning tenant.
	TenantID ULID `gorm:"not null;type:varchar(26);uniqueIndex:idx_tenant_channel,priority:1;index" json:"tenant_id"`

	// ChannelID is the stable identifier within the tenant: the playlist
	// tvg-id when present, otherwise synthesized from the entry.
	ChannelID string `gorm:"not null;size:255;uniqueIndex:idx_tenant_channel,priority:2" json:"channel_id"`

	// Name is the display name.
	Name string `gorm:"not null;size:512" json:"name"`

	// LogoURL is the artwork URL carried in the playlist (tvg-logo), or the
	// generic placeholder URL when the playlist carried none.
	LogoURL string `gorm:"size:2048" json:"logo_url,omitempty"`

	// GroupTitle is the playlist group (category).
	GroupTitle string `gorm:"size:512" json:"group_title,omitempty"`

	// StreamURL is the primary stream location: the one from the
	// highest-precedence source that provided this channel.
	StreamURL string `gorm:"not null;size:2048" json:"stream_url"`

	// MirrorURLs are additional stream locations consolidated from other
	// sources that carried the same channel ID.
	MirrorURLs StringList `json:"mirror_urls,omitempty"`

	// SourceIndex records which source (position in the tenant's list) won
	// the metadata for this channel.
	SourceIndex int `gorm:"default:0" json:"source_index"`

	// IsEvent marks a transient event channel (a scheduled broadcast
	// detected from the channel name rather than a 24/7 channel).
	IsEvent bool `gorm:"default:false;index" json:"is_event"`

	// EventTitle is the extracted event name, e.g. "Team A @ Team B".
	EventTitle string `gorm:"size:512" json:"event_title,omitempty"`

	// EventCategory is the group the event was listed under.
	EventCategory string `gorm:"size:255" json:"event_category,omitempty"`

	// EventStart is the detected start time in UTC.
	EventStart *Time `json:"event_start,omitempty"`
}

// TableName returns the table name for Channel.
func (Channel) TableName() string {
	return "channels"
}

// AddMirrorURL records an alternate stream location, ignoring duplicates
// and the primary URL itself.
func (c *Channel) AddMirrorURL(url string) {
	if url == "" || url == c.StreamURL || c.MirrorURLs.Contains(url) {
		return
	}
	c.MirrorURLs = append(c.MirrorURLs, url)
}

// StreamURLs returns the primary URL followed by all mirrors.
func (c *Channel) StreamURLs() []string {
	urls := make([]string, 0, 1+len(c.MirrorURLs))
	urls = append(urls, c.StreamURL)
	return append(urls, c.MirrorURLs...)
}

// Sanitize trims whitespace from playlist-derived fields.
func (c *Channel) Sanitize() {
	c.ChannelID = strings.TrimSpace(c.ChannelID)
	c.Name = strings.TrimSpace(c.Name)
	c.LogoURL = strings.TrimSpace(c.LogoURL)
	c.GroupTitle = strings.TrimSpace(c.GroupTitle)
	c.StreamURL = strings.TrimSpace(c.StreamURL)
}

// Validate performs basic validation on the channel.
func (c *Channel) Validate() error {
	c.Sanitize()

	if c.ChannelID == "" {
		return ErrChannelIDRequired
	}
	if c.Name == "" {
		return ErrTitleRequired
	}
	if c.StreamURL == "" {
		return ErrStreamURLRequired
	}
	return nil
}

// BeforeCreate is a GORM hook that validates the channel and generates ULID.
func (c *Channel) BeforeCreate(tx *gorm.DB) error {
	if err := c.BaseModel.BeforeCreate(tx); err != nil {
		return err
	}
	return c.Validate()
}
