// Package testutil provides test utilities including sample data generation.
package testutil

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/feedarr/feedarr/internal/models"
	"github.com/feedarr/feedarr/pkg/m3u"
	"github.com/feedarr/feedarr/pkg/xmltv"
)

// Standard fictional broadcasters for test data.
// NEVER use real brand names like BBC, ESPN, HBO, Sky, etc.
var (
	Broadcasters = []string{
		"StreamCast",
		"ViewMedia",
		"AeroVision",
		"GlobalStream",
		"NationalNet",
		"SportsCentral",
		"CinemaMax",
		"MusicMax",
		"NewsFirst",
		"PrimeTV",
	}

	ChannelVariants = []string{
		"One",
		"Two",
		"Three",
		"Prime",
		"Plus",
		"Max",
		"Gold",
		"Extra",
	}

	QualityVariants = []string{
		"HD",
		"SD",
		"4K",
		"UHD",
	}

	GroupTitles = []string{
		"News",
		"Sports",
		"Movies",
		"Entertainment",
		"Music",
		"Kids",
		"Documentary",
	}

	// ProgramTitles provides fictional program titles.
	// NEVER use real show names, movie titles, or trademarked content.
	ProgramTitles = []string{
		"Morning Report",
		"Midday Bulletin",
		"Evening Edition",
		"World Tonight",
		"Quiz Masters",
		"Talent Search",
		"Cooking Challenge",
		"City Hospital",
		"Crime Division",
		"Laugh Track",
		"Sports Central",
		"Match Day",
		"Nature World",
		"History Uncovered",
		"Cartoon Time",
		"Music Mix",
		"Chart Show",
	}

	// ProgramDurations contains common program lengths in minutes.
	ProgramDurations = []int{10, 15, 30, 60, 90, 120}
)

// SampleDataGenerator generates realistic but fictional playlist and guide
// data for testing.
type SampleDataGenerator struct {
	rng *rand.Rand
}

// NewSampleDataGenerator creates a new sample data generator with a random seed.
func NewSampleDataGenerator() *SampleDataGenerator {
	return &SampleDataGenerator{
		rng: rand.New(rand.NewSource(rand.Int63())),
	}
}

// NewSampleDataGeneratorWithSeed creates a new generator with a fixed seed
// for reproducibility.
func NewSampleDataGeneratorWithSeed(seed int64) *SampleDataGenerator {
	return &SampleDataGenerator{
		rng: rand.New(rand.NewSource(seed)),
	}
}

// RandomBroadcaster returns a random broadcaster name.
func (g *SampleDataGenerator) RandomBroadcaster() string {
	return Broadcasters[g.rng.Intn(len(Broadcasters))]
}

// RandomGroup returns a random group title.
func (g *SampleDataGenerator) RandomGroup() string {
	return GroupTitles[g.rng.Intn(len(GroupTitles))]
}

// ChannelName generates a fictional channel name like "StreamCast One HD".
func (g *SampleDataGenerator) ChannelName() string {
	name := g.RandomBroadcaster() + " " + ChannelVariants[g.rng.Intn(len(ChannelVariants))]
	if g.rng.Float64() < 0.5 {
		name += " " + QualityVariants[g.rng.Intn(len(QualityVariants))]
	}
	return name
}

// Channels generates count distinct sample channels.
func (g *SampleDataGenerator) Channels(count int) []*models.Channel {
	channels := make([]*models.Channel, count)
	for i := range channels {
		id := fmt.Sprintf("ch%04d.test", i+1)
		channels[i] = &models.Channel{
			ChannelID:   id,
			Name:        g.ChannelName(),
			LogoURL:     "https://logos.example.com/" + id + ".png",
			GroupTitle:  g.RandomGroup(),
			StreamURL:   "https://stream.example.com/" + id,
			SourceIndex: 0,
		}
	}
	return channels
}

// Events generates count guide events spread across the given channels,
// starting at start with random program durations.
func (g *SampleDataGenerator) Events(channels []*models.Channel, count int, start time.Time) []*models.EPGEvent {
	events := make([]*models.EPGEvent, 0, count)
	cursor := make([]time.Time, len(channels))
	for i := range cursor {
		cursor[i] = start
	}

	for i := 0; i < count; i++ {
		ci := i % len(channels)
		duration := time.Duration(ProgramDurations[g.rng.Intn(len(ProgramDurations))]) * time.Minute
		eventStart := cursor[ci]
		eventStop := eventStart.Add(duration)
		cursor[ci] = eventStop

		stop := models.Time(eventStop)
		events = append(events, &models.EPGEvent{
			ChannelID: channels[ci].ChannelID,
			Title:     ProgramTitles[g.rng.Intn(len(ProgramTitles))],
			Start:     models.Time(eventStart),
			Stop:      &stop,
		})
	}
	return events
}

// RenderM3U renders channels as an extended M3U playlist, optionally
// advertising a guide URL in the header.
func (g *SampleDataGenerator) RenderM3U(channels []*models.Channel, guideURL string) string {
	var b strings.Builder
	w := m3u.NewWriter(&b)
	_ = w.WriteHeaderWithGuide(guideURL)
	for _, ch := range channels {
		_ = w.WriteEntry(&m3u.Entry{
			TvgID:      ch.ChannelID,
			TvgName:    ch.Name,
			TvgLogo:    ch.LogoURL,
			GroupTitle: ch.GroupTitle,
			Title:      ch.Name,
			URL:        ch.StreamURL,
		})
	}
	return b.String()
}

// RenderXMLTV renders events as an XMLTV document.
func (g *SampleDataGenerator) RenderXMLTV(channels []*models.Channel, events []*models.EPGEvent) string {
	var b strings.Builder
	w := xmltv.NewWriter(&b)
	for _, ch := range channels {
		_ = w.WriteChannel(&xmltv.Channel{
			ID:          ch.ChannelID,
			DisplayName: ch.Name,
			Icon:        ch.LogoURL,
		})
	}
	for _, ev := range events {
		prog := &xmltv.Programme{
			Start:   time.Time(ev.Start),
			Channel: ev.ChannelID,
			Title:   ev.Title,
		}
		if ev.Stop != nil {
			prog.Stop = time.Time(*ev.Stop)
		}
		_ = w.WriteProgramme(prog)
	}
	_ = w.WriteFooter()
	return b.String()
}
