package ingestor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPlaylistParser(now time.Time) *PlaylistParser {
	p := NewPlaylistParser(nil)
	p.now = func() time.Time { return now }
	return p
}

func TestPlaylistParser_Parse(t *testing.T) {
	playlist := `#EXTM3U url-tvg="http://example.com/guide.xml"
#EXTINF:-1 tvg-id="news1.uk" tvg-name="NewsFirst One" tvg-logo="http://example.com/news1.png" group-title="UK",NewsFirst One HD
http://example.com/news1
#EXTINF:-1 tvg-id="view1.us" tvg-name="ViewMedia",ViewMedia
http://example.com/view1
`

	parser := newTestPlaylistParser(time.Now())
	result, err := parser.Parse(context.Background(), []byte(playlist), 2)
	require.NoError(t, err)

	require.Len(t, result.Channels, 2)
	assert.Equal(t, []string{"http://example.com/guide.xml"}, result.EPGURLs)
	assert.Zero(t, result.Warnings)

	news := result.Channels[0]
	assert.Equal(t, "news1.uk", news.ChannelID)
	assert.Equal(t, "NewsFirst One", news.Name)
	assert.Equal(t, "http://example.com/news1.png", news.LogoURL)
	assert.Equal(t, "UK", news.GroupTitle)
	assert.Equal(t, "http://example.com/news1", news.StreamURL)
	assert.Equal(t, 2, news.SourceIndex)
	assert.False(t, news.IsEvent)

	// No group and no logo fall back to defaults.
	view := result.Channels[1]
	assert.Equal(t, defaultGroupTitle, view.GroupTitle)
	assert.Equal(t, GenericLogoURL, view.LogoURL)
}

func TestPlaylistParser_SynthesizedChannelID(t *testing.T) {
	playlist := `#EXTM3U
#EXTINF:-1 tvg-name="No ID Channel",No ID Channel
http://example.com/noid
`

	parser := newTestPlaylistParser(time.Now())
	first, err := parser.Parse(context.Background(), []byte(playlist), 0)
	require.NoError(t, err)
	second, err := parser.Parse(context.Background(), []byte(playlist), 0)
	require.NoError(t, err)

	require.Len(t, first.Channels, 1)
	require.Len(t, second.Channels, 1)
	assert.NotEmpty(t, first.Channels[0].ChannelID)
	// Synthesis is deterministic across runs.
	assert.Equal(t, first.Channels[0].ChannelID, second.Channels[0].ChannelID)
	assert.Len(t, first.Channels[0].ChannelID, 64)
}

func TestPlaylistParser_EventDetection(t *testing.T) {
	now := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
	playlist := `#EXTM3U
#EXTINF:-1 tvg-name="Northvale @ Eastport 11/06/2026 8:15 PM ET" group-title="Football",Northvale @ Eastport
http://example.com/event1
#EXTINF:-1 tvg-name="Harbor City VS Lakeside 01/02/2026 7:00 PM ET" group-title="Basketball",Harbor City VS Lakeside
http://example.com/past
#EXTINF:-1 tvg-name="NewsFirst One",NewsFirst One
http://example.com/news1
`

	parser := newTestPlaylistParser(now)
	result, err := parser.Parse(context.Background(), []byte(playlist), 0)
	require.NoError(t, err)

	// The past event is dropped; the future event and plain channel stay.
	require.Len(t, result.Channels, 2)

	event := result.Channels[0]
	assert.True(t, event.IsEvent)
	assert.Equal(t, "Northvale @ Eastport", event.EventTitle)
	assert.Equal(t, "Football", event.EventCategory)
	require.NotNil(t, event.EventStart)
	// 8:15 PM ET on Nov 6 is 01:15 UTC the next day (EST).
	assert.Equal(t, time.Date(2026, 11, 7, 1, 15, 0, 0, time.UTC), *event.EventStart)

	assert.False(t, result.Channels[1].IsEvent)
}

func TestPlaylistParser_EventWithoutParsableTime(t *testing.T) {
	now := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
	// Has date and time patterns but the clock is nonsense, so no start is
	// extracted; the channel is kept as an event without a start.
	playlist := `#EXTM3U
#EXTINF:-1 tvg-name="Cup Final 12/25/2026 99:99" group-title="Football",Cup Final
http://example.com/final
`

	parser := newTestPlaylistParser(now)
	result, err := parser.Parse(context.Background(), []byte(playlist), 0)
	require.NoError(t, err)

	require.Len(t, result.Channels, 1)
	assert.True(t, result.Channels[0].IsEvent)
	assert.Nil(t, result.Channels[0].EventStart)
}

func TestPlaylistParser_PerEntryEPGURL(t *testing.T) {
	playlist := `#EXTM3U
#EXTINF:-1 tvg-id="ch1" url-tvg="http://example.com/ch1-guide.xml",Channel 1
http://example.com/ch1
#EXTINF:-1 tvg-id="ch2" url-tvg="http://example.com/ch1-guide.xml",Channel 2
http://example.com/ch2
`

	parser := newTestPlaylistParser(time.Now())
	result, err := parser.Parse(context.Background(), []byte(playlist), 0)
	require.NoError(t, err)

	// Duplicate guide URLs collapse to one.
	assert.Equal(t, []string{"http://example.com/ch1-guide.xml"}, result.EPGURLs)
}

func TestExtractEventTitle(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "teams with at separator",
			input:    "Northvale @ Eastport 11/06/2026 8:15 PM ET",
			expected: "Northvale @ Eastport",
		},
		{
			name:     "teams with vs separator",
			input:    "Harbor City VS Lakeside 01/02/2026 7:00 PM",
			expected: "Harbor City @ Lakeside",
		},
		{
			name:     "no teams",
			input:    "Monaco Grand Prix 05/24/2026 9:00 AM ET",
			expected: "Monaco Grand Prix",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, extractEventTitle(tt.input))
		})
	}
}
