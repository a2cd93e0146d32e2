// Package xmltv reads and writes XMLTV guide documents. Parsing is
// streaming and callback based so multi-hundred-megabyte guides never
// need to be held in memory as a document tree.
package xmltv

import (
	"bufio"
	"compress/bzip2"
	"compress/gzip"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/ulikunitz/xz"
)

// Programme is one guide entry. Only the fields feedarr carries into a
// snapshot are retained; unrecognised child elements are skipped.
type Programme struct {
	Channel     string
	Start       time.Time
	Stop        time.Time
	Title       string
	SubTitle    string
	Description string
	Category    string
	Icon        string
}

// Channel is a channel definition from the document head.
type Channel struct {
	ID          string
	DisplayName string
	Icon        string
}

// Parser streams an XMLTV document, invoking the callbacks as elements
// complete. A nil callback skips the corresponding elements entirely.
type Parser struct {
	// OnChannel is called for each channel definition.
	OnChannel func(channel *Channel) error

	// OnProgramme is called for each parsed programme.
	OnProgramme func(programme *Programme) error

	// OnError is called for recoverable parsing errors; the parse
	// continues with the next element.
	OnError func(err error)
}

// xmltvTimeFormats are tried in order. The first form also covers
// positive offsets like "+0100".
var xmltvTimeFormats = []string{
	"20060102150405 -0700",
	"20060102150405",
	"200601021504",
}

// parseTime parses an XMLTV timestamp such as "20260101120000 +0000".
func parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty time string")
	}
	for _, format := range xmltvTimeFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unable to parse time: %s", s)
}

// Parse consumes an uncompressed XMLTV document.
func (p *Parser) Parse(r io.Reader) error {
	decoder := xml.NewDecoder(r)
	decoder.Strict = false
	decoder.AutoClose = xml.HTMLAutoClose
	decoder.Entity = xml.HTMLEntity

	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("reading XML token: %w", err)
		}

		elem, ok := token.(xml.StartElement)
		if !ok {
			continue
		}

		switch elem.Name.Local {
		case "channel":
			if p.OnChannel == nil {
				_ = decoder.Skip()
				continue
			}
			channel, err := parseChannel(decoder, elem)
			if err != nil {
				p.recover(err)
				continue
			}
			if err := p.OnChannel(channel); err != nil {
				return fmt.Errorf("channel callback: %w", err)
			}

		case "programme":
			if p.OnProgramme == nil {
				_ = decoder.Skip()
				continue
			}
			programme, err := parseProgramme(decoder, elem)
			if err != nil {
				p.recover(err)
				continue
			}
			if err := p.OnProgramme(programme); err != nil {
				return fmt.Errorf("programme callback: %w", err)
			}
		}
	}

	return nil
}

// ParseCompressed parses an XMLTV payload that may be gzip, bzip2 or xz
// compressed, sniffing the magic bytes. Plain XML passes through.
func (p *Parser) ParseCompressed(r io.Reader) error {
	br := bufio.NewReader(r)

	header, err := br.Peek(6)
	if err != nil && err != io.EOF {
		return fmt.Errorf("peeking header: %w", err)
	}

	var reader io.Reader = br
	switch {
	case len(header) >= 2 && header[0] == 0x1f && header[1] == 0x8b:
		gzr, err := gzip.NewReader(br)
		if err != nil {
			return fmt.Errorf("creating gzip reader: %w", err)
		}
		defer gzr.Close()
		reader = gzr

	case len(header) >= 3 && header[0] == 'B' && header[1] == 'Z' && header[2] == 'h':
		reader = bzip2.NewReader(br)

	case len(header) >= 6 && header[0] == 0xfd && header[1] == '7' && header[2] == 'z' &&
		header[3] == 'X' && header[4] == 'Z' && header[5] == 0x00:
		xzr, err := xz.NewReader(br)
		if err != nil {
			return fmt.Errorf("creating xz reader: %w", err)
		}
		reader = xzr
	}

	return p.Parse(reader)
}

func (p *Parser) recover(err error) {
	if p.OnError != nil {
		p.OnError(err)
	}
}

// textOf decodes the character content of the current element.
func textOf(decoder *xml.Decoder, elem *xml.StartElement) (string, bool) {
	var s string
	if err := decoder.DecodeElement(&s, elem); err != nil {
		return "", false
	}
	return strings.TrimSpace(s), true
}

// iconSrc pulls the src attribute off an icon element and skips its body.
func iconSrc(decoder *xml.Decoder, elem *xml.StartElement) string {
	var src string
	for _, attr := range elem.Attr {
		if attr.Name.Local == "src" {
			src = attr.Value
		}
	}
	_ = decoder.Skip()
	return src
}

func parseChannel(decoder *xml.Decoder, start xml.StartElement) (*Channel, error) {
	channel := &Channel{}
	for _, attr := range start.Attr {
		if attr.Name.Local == "id" {
			channel.ID = attr.Value
		}
	}

	for {
		token, err := decoder.Token()
		if err != nil {
			return nil, err
		}

		switch elem := token.(type) {
		case xml.StartElement:
			switch elem.Name.Local {
			case "display-name":
				// The first display-name wins; alternates are ignored.
				if name, ok := textOf(decoder, &elem); ok && channel.DisplayName == "" {
					channel.DisplayName = name
				}
			case "icon":
				channel.Icon = iconSrc(decoder, &elem)
			default:
				_ = decoder.Skip()
			}
		case xml.EndElement:
			if elem.Name.Local == "channel" {
				return channel, nil
			}
		}
	}
}

func parseProgramme(decoder *xml.Decoder, start xml.StartElement) (*Programme, error) {
	prog := &Programme{}
	for _, attr := range start.Attr {
		switch attr.Name.Local {
		case "start":
			if t, err := parseTime(attr.Value); err == nil {
				prog.Start = t
			}
		case "stop":
			if t, err := parseTime(attr.Value); err == nil {
				prog.Stop = t
			}
		case "channel":
			prog.Channel = attr.Value
		}
	}

	for {
		token, err := decoder.Token()
		if err != nil {
			return nil, err
		}

		switch elem := token.(type) {
		case xml.StartElement:
			switch elem.Name.Local {
			case "title":
				if title, ok := textOf(decoder, &elem); ok && prog.Title == "" {
					prog.Title = title
				}
			case "sub-title":
				if sub, ok := textOf(decoder, &elem); ok {
					prog.SubTitle = sub
				}
			case "desc":
				if desc, ok := textOf(decoder, &elem); ok {
					prog.Description = desc
				}
			case "category":
				if cat, ok := textOf(decoder, &elem); ok && prog.Category == "" {
					prog.Category = cat
				}
			case "icon":
				prog.Icon = iconSrc(decoder, &elem)
			default:
				_ = decoder.Skip()
			}
		case xml.EndElement:
			if elem.Name.Local == "programme" {
				return prog, nil
			}
		}
	}
}
