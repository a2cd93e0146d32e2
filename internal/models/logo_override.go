package models

import (
	"regexp"
	"strings"

	"gorm.io/gorm"
)

// LogoOverride maps a channel ID (exactly or by pattern) to a replacement
// artwork URL. Overrides sit at the top of the image resolution chain:
// exact matches beat patterns, and patterns apply in insertion order.
type LogoOverride struct {
	BaseModel

	// TenantID is the owning tenant.
	TenantID ULID `gorm:"not null;type:varchar(26);index:idx_override_tenant" json:"tenant_id"`

	// Match is the channel ID to match, or a regular expression when
	// IsPattern is set.
	Match string `gorm:"not null;size:512" json:"match"`

	// IsPattern indicates Match is a regular expression.
	IsPattern bool `gorm:"default:false" json:"is_pattern"`

	// TargetURL is the artwork URL to use instead.
	TargetURL string `gorm:"not null;size:2048" json:"target_url"`

	// Position preserves insertion order for first-match-wins evaluation.
	Position int `gorm:"not null;default:0;index:idx_override_tenant" json:"position"`
}

// TableName returns the table name for LogoOverride.
func (LogoOverride) TableName() string {
	return "logo_overrides"
}

// Matches reports whether the override applies to the given channel ID.
// Exact overrides compare case-sensitively; pattern overrides that fail to
// compile match nothing.
func (o *LogoOverride) Matches(channelID string) bool {
	if !o.IsPattern {
		return o.Match == channelID
	}
	re, err := regexp.Compile(o.Match)
	if err != nil {
		return false
	}
	return re.MatchString(channelID)
}

// Sanitize trims whitespace from user-provided fields.
func (o *LogoOverride) Sanitize() {
	o.Match = strings.TrimSpace(o.Match)
	o.TargetURL = strings.TrimSpace(o.TargetURL)
}

// Validate performs basic validation on the override.
func (o *LogoOverride) Validate() error {
	o.Sanitize()

	if o.Match == "" {
		return ErrMatchRequired
	}
	if o.TargetURL == "" {
		return ErrTargetURLRequired
	}
	if o.IsPattern {
		if _, err := regexp.Compile(o.Match); err != nil {
			return ErrInvalidPattern
		}
	}
	return nil
}

// BeforeCreate is a GORM hook that validates the override and generates ULID.
func (o *LogoOverride) BeforeCreate(tx *gorm.DB) error {
	if err := o.BaseModel.BeforeCreate(tx); err != nil {
		return err
	}
	return o.Validate()
}

// BeforeUpdate is a GORM hook that validates the override before update.
func (o *LogoOverride) BeforeUpdate(tx *gorm.DB) error {
	return o.Validate()
}
