package ingestor

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/feedarr/feedarr/internal/models"
	"github.com/feedarr/feedarr/internal/observability"
	"github.com/feedarr/feedarr/pkg/xmltv"
)

// Guide window bounds. Programmes that ended before the grace window or
// start beyond the horizon are dropped at parse time.
const (
	guidePastGrace = 2 * time.Hour
	guideHorizon   = 30 * 24 * time.Hour
)

// GuideResult is the outcome of parsing one XMLTV source.
type GuideResult struct {
	// Events in document order, times normalised to UTC.
	Events []*models.EPGEvent

	// Warnings counts malformed programmes that were skipped.
	Warnings int
}

// GuideParser converts raw XMLTV payloads into snapshot events.
type GuideParser struct {
	logger  *slog.Logger
	horizon time.Duration

	// now is injectable for tests; the guide window is relative to it.
	now func() time.Time
}

// NewGuideParser creates a GuideParser.
func NewGuideParser(logger *slog.Logger) *GuideParser {
	if logger == nil {
		logger = slog.Default()
	}
	return &GuideParser{
		logger:  observability.WithComponent(logger, "guide-parser"),
		horizon: guideHorizon,
		now:     time.Now,
	}
}

// WithHorizon overrides how far ahead programmes are kept. Non-positive
// values leave the default in place.
func (g *GuideParser) WithHorizon(d time.Duration) *GuideParser {
	if d > 0 {
		g.horizon = d
	}
	return g
}

// Parse parses one XMLTV payload. Compressed payloads (gzip, bzip2, xz) are
// detected automatically.
func (g *GuideParser) Parse(ctx context.Context, data []byte) (*GuideResult, error) {
	result := &GuideResult{}
	now := g.now().UTC()
	earliest := now.Add(-guidePastGrace)
	latest := now.Add(g.horizon)

	parser := &xmltv.Parser{
		OnProgramme: func(prog *xmltv.Programme) error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			event := g.programmeToEvent(prog, earliest, latest)
			if event == nil {
				return nil
			}
			result.Events = append(result.Events, event)
			return nil
		},
		OnError: func(err error) {
			result.Warnings++
			g.logger.Debug("skipping malformed programme",
				slog.String("error", err.Error()),
			)
		},
	}

	if err := parser.ParseCompressed(bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("parsing guide: %w", err)
	}

	return result, nil
}

// programmeToEvent converts one programme. Returns nil for programmes
// missing required fields or outside the guide window.
func (g *GuideParser) programmeToEvent(prog *xmltv.Programme, earliest, latest time.Time) *models.EPGEvent {
	if prog.Channel == "" || prog.Start.IsZero() {
		return nil
	}

	start := prog.Start.UTC()
	if start.Before(earliest) || start.After(latest) {
		return nil
	}

	title := prog.Title
	if title == "" {
		title = "Unknown"
	}

	event := &models.EPGEvent{
		ChannelID:   prog.Channel,
		Start:       start,
		Title:       title,
		Subtitle:    prog.SubTitle,
		Description: prog.Description,
		Category:    prog.Category,
		IconURL:     prog.Icon,
	}
	if !prog.Stop.IsZero() {
		stop := prog.Stop.UTC()
		if stop.After(start) {
			event.Stop = &stop
		}
	}
	return event
}
