package ingestor

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/feedarr/feedarr/internal/models"
	"github.com/feedarr/feedarr/internal/observability"
	"github.com/feedarr/feedarr/pkg/m3u"
)

// GenericLogoURL is substituted when a playlist entry carries no artwork at
// all, so every channel always has a resolvable logo reference.
const GenericLogoURL = "https://via.placeholder.com/240x135.png?text=No+Logo"

// defaultGroupTitle is applied to entries without any group information.
const defaultGroupTitle = "Other"

// Event channels are one-off broadcasts listed as channels. They are
// recognised by a date and a time both appearing in the entry name.
var (
	eventDatePattern = regexp.MustCompile(`(?i)\d{1,2}[/-]\d{1,2}[/-]\d{2,4}|\b(?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]*[ -]\d{1,2}(?:[, -]+\d{2,4})?`)
	eventTimePattern = regexp.MustCompile(`(?i)\d{1,2}:\d{2}(?::\d{2})?\s*(?:AM|PM)?\s*(?:ET|EST|EDT|CT|CST|CDT|MT|MST|MDT|PT|PST|PDT|UK|UTC)?\s*=?\s*`)
	eventTeamPattern = regexp.MustCompile(`(?i)^(?P<team1>.*?)\s(?:@|VS\.?)\s(?P<team2>.*)$`)
)

// PlaylistResult is the outcome of parsing one playlist source.
type PlaylistResult struct {
	// Channels in playlist order, already stamped with the source index.
	Channels []*models.Channel

	// EPGURLs are guide URLs discovered in the playlist (url-tvg header
	// attribute and per-entry attributes).
	EPGURLs []string

	// Warnings counts malformed entries that were skipped.
	Warnings int
}

// PlaylistParser converts raw M3U payloads into snapshot channels.
type PlaylistParser struct {
	logger *slog.Logger

	// now is injectable for tests; past events are dropped relative to it.
	now func() time.Time
}

// NewPlaylistParser creates a PlaylistParser.
func NewPlaylistParser(logger *slog.Logger) *PlaylistParser {
	if logger == nil {
		logger = slog.Default()
	}
	return &PlaylistParser{
		logger: observability.WithComponent(logger, "playlist-parser"),
		now:    time.Now,
	}
}

// Parse parses one playlist payload. sourceIndex is the position of the
// source in the tenant's ordered list; it decides merge precedence later.
// Compressed payloads (gzip, bzip2, xz) are detected automatically.
func (p *PlaylistParser) Parse(ctx context.Context, data []byte, sourceIndex int) (*PlaylistResult, error) {
	result := &PlaylistResult{}
	now := p.now().UTC()
	seenEPG := make(map[string]struct{})

	addEPGURL := func(url string) {
		url = strings.TrimSpace(url)
		if url == "" {
			return
		}
		if _, ok := seenEPG[url]; ok {
			return
		}
		seenEPG[url] = struct{}{}
		result.EPGURLs = append(result.EPGURLs, url)
	}

	parser := &m3u.Parser{
		OnHeader: func(header *m3u.Header) {
			for _, url := range header.TvgURLs {
				addEPGURL(url)
			}
		},
		OnEntry: func(entry *m3u.Entry) error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			if url := entry.Extra["url-tvg"]; url != "" {
				addEPGURL(url)
			}

			channel := p.entryToChannel(entry, sourceIndex, now)
			if channel == nil {
				return nil
			}
			result.Channels = append(result.Channels, channel)
			return nil
		},
		OnError: func(lineNum int, err error) {
			result.Warnings++
			p.logger.Debug("skipping malformed playlist entry",
				slog.Int("line", lineNum),
				slog.String("error", err.Error()),
			)
		},
	}

	if err := parser.ParseCompressed(bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("parsing playlist: %w", err)
	}

	return result, nil
}

// entryToChannel converts one playlist entry. Returns nil for entries that
// should be dropped (no URL, or an event that already started in the past).
func (p *PlaylistParser) entryToChannel(entry *m3u.Entry, sourceIndex int, now time.Time) *models.Channel {
	if entry.URL == "" {
		return nil
	}

	name := entry.TvgName
	if name == "" {
		name = entry.Title
	}
	if name == "" {
		name = "Unknown Channel"
	}

	group := entry.GroupTitle
	if group == "" {
		group = defaultGroupTitle
	}

	channel := &models.Channel{
		ChannelID:   entry.TvgID,
		Name:        name,
		LogoURL:     entry.TvgLogo,
		GroupTitle:  group,
		StreamURL:   entry.URL,
		SourceIndex: sourceIndex,
	}
	if channel.LogoURL == "" {
		channel.LogoURL = GenericLogoURL
	}

	if isEventName(name) {
		channel.IsEvent = true
		channel.EventCategory = group
		channel.EventTitle = extractEventTitle(name)

		if start := extractEventTime(name, now); start != nil {
			if start.Before(now) {
				// Already started; the listing is stale.
				return nil
			}
			startUTC := start.UTC()
			channel.EventStart = &startUTC
		}
	}

	if channel.ChannelID == "" {
		channel.ChannelID = synthesizeChannelID(channel)
	}

	return channel
}

// isEventName reports whether a channel name looks like a scheduled event
// listing: both a date and a time appear in it.
func isEventName(name string) bool {
	return eventDatePattern.MatchString(name) && eventTimePattern.MatchString(name)
}

// extractEventTitle strips date/time noise from an event name and formats
// team matchups as "Team A @ Team B".
func extractEventTitle(name string) string {
	cleaned := eventDatePattern.ReplaceAllString(name, "")
	cleaned = eventTimePattern.ReplaceAllString(cleaned, "")
	cleaned = strings.Trim(cleaned, " =-:")
	cleaned = strings.Join(strings.Fields(cleaned), " ")
	if cleaned == "" {
		return name
	}

	if m := eventTeamPattern.FindStringSubmatch(cleaned); m != nil {
		team1 := strings.TrimSpace(m[1])
		team2 := strings.TrimSpace(m[2])
		if team1 != "" && team2 != "" {
			return team1 + " @ " + team2
		}
	}
	return cleaned
}

// synthesizeChannelID derives a stable identifier for entries without a
// tvg-id. Events hash their title and start so recurring listings of the
// same matchup on different days stay distinct.
func synthesizeChannelID(c *models.Channel) string {
	var key string
	if c.IsEvent && c.EventStart != nil {
		key = c.EventTitle + "_" + c.EventStart.Format(time.RFC3339)
	} else {
		key = c.Name
	}
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}
