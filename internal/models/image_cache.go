package models

import "fmt"

// ImageKind identifies the presentation variant of a channel image.
type ImageKind string

const (
	ImageKindLogo       ImageKind = "logo"
	ImageKindPoster     ImageKind = "poster"
	ImageKindBackground ImageKind = "background"
	ImageKindIcon       ImageKind = "icon"
)

// Valid reports whether the kind is one of the known variants.
func (k ImageKind) Valid() bool {
	switch k {
	case ImageKindLogo, ImageKindPoster, ImageKindBackground, ImageKindIcon:
		return true
	}
	return false
}

// Canvas returns the target dimensions for the kind.
func (k ImageKind) Canvas() (width, height int) {
	switch k {
	case ImageKindPoster:
		return 500, 750
	case ImageKindBackground:
		return 1024, 576
	case ImageKindIcon:
		return 256, 256
	default:
		return 500, 500
	}
}

// Monochrome reports whether the kind is rendered in grayscale.
func (k ImageKind) Monochrome() bool {
	return k == ImageKindIcon
}

// SizeKey returns the canonical "WxH" label for the kind's canvas.
func (k ImageKind) SizeKey() string {
	w, h := k.Canvas()
	return fmt.Sprintf("%dx%d", w, h)
}

// ImageOrigin records which resolution strategy produced a cached image:
// an override rule's URL, the local artwork mirror, a network fetch of the
// channel's own logo URL, or the generated placeholder.
type ImageOrigin string

const (
	ImageOriginOverride    ImageOrigin = "override"
	ImageOriginMirror      ImageOrigin = "mirror"
	ImageOriginNetwork     ImageOrigin = "network"
	ImageOriginPlaceholder ImageOrigin = "placeholder"
)

// ImageCacheEntry stores a fully processed channel image. Entries are keyed
// per tenant, channel, kind and canvas size; clearing a tenant's cache
// forces the resolution chain to run again from the top.
type ImageCacheEntry struct {
	BaseModel

	// TenantID is the owning tenant.
	TenantID ULID `gorm:"not null;type:varchar(26);uniqueIndex:idx_image_key,priority:1;index" json:"tenant_id"`

	// ChannelID references Channel.ChannelID within the same tenant.
	ChannelID string `gorm:"not null;size:255;uniqueIndex:idx_image_key,priority:2" json:"channel_id"`

	// Kind is the presentation variant.
	Kind ImageKind `gorm:"not null;size:20;uniqueIndex:idx_image_key,priority:3" json:"kind"`

	// SizeKey is the canvas size label, e.g. "500x750".
	SizeKey string `gorm:"not null;size:20;uniqueIndex:idx_image_key,priority:4" json:"size_key"`

	// Origin is the strategy that produced the image.
	Origin ImageOrigin `gorm:"not null;size:20" json:"origin"`

	// ContentType is the MIME type of Data.
	ContentType string `gorm:"not null;size:64" json:"content_type"`

	// Data is the encoded image payload.
	Data []byte `gorm:"not null" json:"-"`
}

// TableName returns the table name for ImageCacheEntry.
func (ImageCacheEntry) TableName() string {
	return "image_cache"
}
