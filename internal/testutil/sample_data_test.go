package testutil

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChannels(t *testing.T) {
	gen := NewSampleDataGeneratorWithSeed(42)

	channels := gen.Channels(25)
	require.Len(t, channels, 25)

	seen := make(map[string]bool)
	for _, ch := range channels {
		assert.NotEmpty(t, ch.ChannelID)
		assert.NotEmpty(t, ch.Name)
		assert.NotEmpty(t, ch.StreamURL)
		assert.False(t, seen[ch.ChannelID], "channel IDs must be unique")
		seen[ch.ChannelID] = true
	}
}

func TestChannels_Reproducible(t *testing.T) {
	first := NewSampleDataGeneratorWithSeed(7).Channels(10)
	second := NewSampleDataGeneratorWithSeed(7).Channels(10)

	for i := range first {
		assert.Equal(t, first[i].Name, second[i].Name)
		assert.Equal(t, first[i].GroupTitle, second[i].GroupTitle)
	}
}

func TestEvents(t *testing.T) {
	gen := NewSampleDataGeneratorWithSeed(42)
	channels := gen.Channels(3)
	start := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)

	events := gen.Events(channels, 12, start)
	require.Len(t, events, 12)

	// Per-channel schedules are contiguous: each event starts where the
	// previous one on the same channel stopped.
	last := make(map[string]time.Time)
	for _, ev := range events {
		if prev, ok := last[ev.ChannelID]; ok {
			assert.Equal(t, prev, time.Time(ev.Start))
		}
		require.NotNil(t, ev.Stop)
		assert.True(t, time.Time(*ev.Stop).After(time.Time(ev.Start)))
		last[ev.ChannelID] = time.Time(*ev.Stop)
	}
}

func TestRenderM3U(t *testing.T) {
	gen := NewSampleDataGeneratorWithSeed(42)
	channels := gen.Channels(2)

	playlist := gen.RenderM3U(channels, "https://epg.example.com/guide.xml")

	assert.True(t, strings.HasPrefix(playlist, `#EXTM3U url-tvg="https://epg.example.com/guide.xml"`))
	for _, ch := range channels {
		assert.Contains(t, playlist, `tvg-id="`+ch.ChannelID+`"`)
		assert.Contains(t, playlist, ch.StreamURL)
	}
}

func TestRenderXMLTV(t *testing.T) {
	gen := NewSampleDataGeneratorWithSeed(42)
	channels := gen.Channels(2)
	start := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
	events := gen.Events(channels, 4, start)

	doc := gen.RenderXMLTV(channels, events)

	assert.Contains(t, doc, `<tv generator-info-name="feedarr"`)
	assert.Contains(t, doc, "</tv>")
	assert.Contains(t, doc, `start="20260824120000 +0000"`)
	for _, ch := range channels {
		assert.Contains(t, doc, `<channel id="`+ch.ChannelID+`">`)
	}
}
