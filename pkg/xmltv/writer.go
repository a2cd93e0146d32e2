package xmltv

import (
	"encoding/xml"
	"fmt"
	"io"
	"time"
)

// Writer emits an XMLTV document incrementally: header, channel
// definitions, programmes, footer. The first write error is latched and
// returned from every subsequent call.
type Writer struct {
	w             io.Writer
	err           error
	headerWritten bool
	channelsDone  bool
}

// NewWriter creates a new XMLTV writer.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

func (w *Writer) line(format string, args ...any) {
	if w.err != nil {
		return
	}
	_, w.err = fmt.Fprintf(w.w, format+"\n", args...)
}

// WriteHeader writes the XML declaration and opens the tv element. It is
// called implicitly by the first channel or programme write.
func (w *Writer) WriteHeader() error {
	if w.headerWritten {
		return w.err
	}
	w.headerWritten = true
	w.line(`<?xml version="1.0" encoding="UTF-8"?>`)
	w.line(`<tv generator-info-name="feedarr" generator-info-url="https://github.com/feedarr/feedarr">`)
	return w.err
}

// WriteChannel writes a channel definition. All channels must be written
// before the first programme.
func (w *Writer) WriteChannel(ch *Channel) error {
	if err := w.WriteHeader(); err != nil {
		return err
	}
	if w.channelsDone {
		return fmt.Errorf("channels must be written before programmes")
	}

	w.line(`  <channel id="%s">`, xmlEscape(ch.ID))
	w.line(`    <display-name>%s</display-name>`, xmlEscape(ch.DisplayName))
	if ch.Icon != "" {
		w.line(`    <icon src="%s"/>`, xmlEscape(ch.Icon))
	}
	w.line(`  </channel>`)
	return w.err
}

// WriteProgramme writes one programme entry.
func (w *Writer) WriteProgramme(prog *Programme) error {
	if err := w.WriteHeader(); err != nil {
		return err
	}
	w.channelsDone = true

	w.line(`  <programme start="%s" stop="%s" channel="%s">`,
		formatTime(prog.Start), formatTime(prog.Stop), xmlEscape(prog.Channel))
	w.line(`    <title>%s</title>`, xmlEscape(prog.Title))
	if prog.SubTitle != "" {
		w.line(`    <sub-title>%s</sub-title>`, xmlEscape(prog.SubTitle))
	}
	if prog.Description != "" {
		w.line(`    <desc>%s</desc>`, xmlEscape(prog.Description))
	}
	if prog.Category != "" {
		w.line(`    <category>%s</category>`, xmlEscape(prog.Category))
	}
	if prog.Icon != "" {
		w.line(`    <icon src="%s"/>`, xmlEscape(prog.Icon))
	}
	w.line(`  </programme>`)
	return w.err
}

// WriteFooter closes the tv element.
func (w *Writer) WriteFooter() error {
	w.line(`</tv>`)
	return w.err
}

// formatTime renders a timestamp in XMLTV form, always in UTC.
func formatTime(t time.Time) string {
	return t.UTC().Format("20060102150405 +0000")
}

// xmlEscape escapes special XML characters.
func xmlEscape(s string) string {
	var buf []byte
	xml.EscapeText((*xmlEscapeWriter)(&buf), []byte(s))
	return string(buf)
}

type xmlEscapeWriter []byte

func (w *xmlEscapeWriter) Write(p []byte) (int, error) {
	*w = append(*w, p...)
	return len(p), nil
}
