package ingestor

import (
	"time"

	"golang.org/x/text/cases"

	"github.com/feedarr/feedarr/internal/models"
)

// MergeChannels combines per-source channel batches into one set. Batches
// must be in source order: when two sources carry the same channel ID
// (compared case-insensitively), the later source's metadata wins and the
// earlier source's stream URLs are kept as mirrors. The surviving entry
// stays at the position where the channel first appeared.
func MergeChannels(batches ...[]*models.Channel) []*models.Channel {
	fold := cases.Fold()
	merged := make([]*models.Channel, 0)
	position := make(map[string]int)

	for _, batch := range batches {
		for _, channel := range batch {
			key := fold.String(channel.ChannelID)
			idx, seen := position[key]
			if !seen {
				position[key] = len(merged)
				merged = append(merged, channel)
				continue
			}

			previous := merged[idx]
			channel.AddMirrorURL(previous.StreamURL)
			for _, url := range previous.MirrorURLs {
				channel.AddMirrorURL(url)
			}
			merged[idx] = channel
		}
	}

	return merged
}

// MergeEvents combines per-source event batches into one deduplicated set.
// Events are identified by (channel ID, start time); on collisions the later
// batch wins, matching channel merge precedence.
func MergeEvents(batches ...[]*models.EPGEvent) []*models.EPGEvent {
	fold := cases.Fold()
	merged := make([]*models.EPGEvent, 0)
	position := make(map[string]int)

	for _, batch := range batches {
		for _, event := range batch {
			key := fold.String(event.ChannelID) + "\x00" + event.Start.UTC().Format(time.RFC3339)
			idx, seen := position[key]
			if !seen {
				position[key] = len(merged)
				merged = append(merged, event)
				continue
			}
			merged[idx] = event
		}
	}

	return merged
}
