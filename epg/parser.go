// Package epg parses XMLTV program-guide documents into a structured,
// time-sorted model and answers point and window queries against it.
//
// XMLTV is the de-facto EPG interchange format: a <tv> root containing
// <channel> elements keyed by id and <programme> elements referencing them.
// Parsing is deliberately forgiving: a malformed channel or programme is
// skipped so that one broken entry never costs the rest of the guide. Only
// a missing <tv> root is fatal.
package epg

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// ErrMissingRoot indicates the document has no <tv> root element.
var ErrMissingRoot = errors.New("invalid EPG document: missing tv root element")

// xmltvDateLayout is the XMLTV timestamp format: YYYYMMDDHHmmss ±HHMM
const xmltvDateLayout = "20060102150405 -0700"

// maxProgramAge is how far past a program's stop time it is kept in the
// parsed guide. Bounds the working set of long-running processes that
// refresh the guide periodically.
const maxProgramAge = time.Hour

// xmlChannel is the raw XML structure for <channel>.
type xmlChannel struct {
	ID          string `xml:"id,attr"`
	Lang        string `xml:"lang,attr"`
	DisplayName string `xml:"display-name"`
	Icon        struct {
		Src string `xml:"src,attr"`
	} `xml:"icon"`
}

// xmlProgramme is the raw XML structure for <programme>.
type xmlProgramme struct {
	Start      string `xml:"start,attr"`
	Stop       string `xml:"stop,attr"`
	Channel    string `xml:"channel,attr"`
	Lang       string `xml:"lang,attr"`
	Title      string `xml:"title"`
	SubTitle   string `xml:"sub-title"`
	Desc       string `xml:"desc"`
	Category   string `xml:"category"`
	Date       string `xml:"date"`
	EpisodeNum string `xml:"episode-num"`
	Icon       struct {
		Src string `xml:"src,attr"`
	} `xml:"icon"`
	Rating struct {
		Value string `xml:"value"`
	} `xml:"rating"`
}

// Parser converts raw XMLTV documents into Guide models.
type Parser struct {
	logger zerolog.Logger
}

// NewParser creates a Parser.
func NewParser(logger zerolog.Logger) *Parser {
	return &Parser{logger: logger}
}

// Parse parses an XMLTV document. Programs per channel come out sorted
// ascending by start and pruned of entries that ended more than an hour
// before now. Channel and programme elements may appear in any order.
// The only fatal condition is a missing <tv> root; individual malformed
// channels and programmes are skipped with a diagnostic.
func (p *Parser) Parse(data []byte, now time.Time) (*Guide, error) {
	guide := &Guide{
		Channels: make(map[string]Channel),
		Programs: make(map[string][]Program),
	}

	decoder := xml.NewDecoder(bytes.NewReader(data))
	sawRoot := false

	// Programmes are buffered and resolved against the channel map only after
	// the whole document is read, so a programme that precedes its channel
	// declaration still lands.
	var pending []xmlProgramme

	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			if !sawRoot {
				return nil, fmt.Errorf("%w: %v", ErrMissingRoot, err)
			}
			// A document that decays mid-stream still yields what was read.
			p.logger.Warn().Err(err).Msg("EPG document truncated, keeping partial guide")
			break
		}

		start, ok := token.(xml.StartElement)
		if !ok {
			continue
		}

		switch start.Name.Local {
		case "tv":
			sawRoot = true

		case "channel":
			if !sawRoot {
				continue
			}
			var raw xmlChannel
			if err := decoder.DecodeElement(&raw, &start); err != nil {
				p.logger.Debug().Err(err).Msg("Skipping malformed channel element")
				continue
			}
			if raw.ID == "" {
				p.logger.Debug().Str("name", raw.DisplayName).Msg("Skipping channel without id")
				continue
			}
			guide.Channels[raw.ID] = Channel{
				ID:          raw.ID,
				DisplayName: raw.DisplayName,
				Icon:        raw.Icon.Src,
				Language:    raw.Lang,
			}
			if _, ok := guide.Programs[raw.ID]; !ok {
				guide.Programs[raw.ID] = nil
			}

		case "programme":
			if !sawRoot {
				continue
			}
			var raw xmlProgramme
			if err := decoder.DecodeElement(&raw, &start); err != nil {
				p.logger.Debug().Err(err).Msg("Skipping malformed programme element")
				continue
			}
			pending = append(pending, raw)
		}
	}

	if !sawRoot {
		return nil, ErrMissingRoot
	}

	for _, raw := range pending {
		if _, known := guide.Channels[raw.Channel]; raw.Channel == "" || !known {
			continue
		}

		startTime, err := ParseDate(raw.Start)
		if err != nil {
			p.logger.Debug().Err(err).Str("channel", raw.Channel).Str("title", raw.Title).
				Msg("Skipping programme with unparsable start")
			continue
		}
		stopTime, err := ParseDate(raw.Stop)
		if err != nil {
			p.logger.Debug().Err(err).Str("channel", raw.Channel).Str("title", raw.Title).
				Msg("Skipping programme with unparsable stop")
			continue
		}

		guide.Programs[raw.Channel] = append(guide.Programs[raw.Channel], Program{
			Channel:    raw.Channel,
			Start:      startTime,
			Stop:       stopTime,
			StartRaw:   NormalizeDate(raw.Start),
			StopRaw:    NormalizeDate(raw.Stop),
			Title:      raw.Title,
			Desc:       raw.Desc,
			Category:   raw.Category,
			Rating:     raw.Rating.Value,
			Icon:       raw.Icon.Src,
			EpisodeNum: raw.EpisodeNum,
			Language:   raw.Lang,
			SubTitle:   raw.SubTitle,
			Date:       raw.Date,
		})
	}

	cutoff := now.Add(-maxProgramAge)
	for id, programs := range guide.Programs {
		sort.Slice(programs, func(i, j int) bool {
			return programs[i].Start.Before(programs[j].Start)
		})

		kept := programs[:0]
		for _, program := range programs {
			if !program.Stop.Before(cutoff) {
				kept = append(kept, program)
			}
		}
		guide.Programs[id] = kept
	}

	return guide, nil
}

// ParseDate resolves an XMLTV timestamp into a time.Time. Both the full
// "YYYYMMDDHHmmss ±HHMM" form and the bare 14-digit form (assumed UTC)
// are accepted.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	if t, err := time.Parse(xmltvDateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse("20060102150405", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse xmltv date %q: %w", s, err)
	}
	return t.UTC(), nil
}

// NormalizeDate rewrites a compact XMLTV timestamp into an ISO-8601-like
// form, YYYY-MM-DDTHH:MM:SS±HHMM, defaulting the offset to +0000 when
// absent. Any token that does not carry at least 14 leading digits is
// returned unchanged; this function never fails.
func NormalizeDate(s string) string {
	trimmed := strings.TrimSpace(s)
	if len(trimmed) < 14 {
		return s
	}
	for _, r := range trimmed[:14] {
		if r < '0' || r > '9' {
			return s
		}
	}

	offset := strings.ReplaceAll(strings.TrimSpace(trimmed[14:]), " ", "")
	if offset == "" {
		offset = "+0000"
	}

	return fmt.Sprintf("%s-%s-%sT%s:%s:%s%s",
		trimmed[0:4], trimmed[4:6], trimmed[6:8],
		trimmed[8:10], trimmed[10:12], trimmed[12:14],
		offset)
}
