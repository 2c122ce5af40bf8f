package scifile

import (
	"fmt"
	"path"
	"strings"
	"time"
)

// Descriptor holds the metadata encoded in a science file name.
type Descriptor struct {
	Mission    string
	Instrument string
	Level      string
	Timestamp  time.Time
	Version    string
}

// ParseError reports a filename that does not match the naming grammar.
type ParseError struct {
	Filename string
	Reason   string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse filename %q: %s", e.Filename, e.Reason)
}

// Timestamp layouts by product level. Raw telemetry names carry a
// day-of-year timestamp; calibrated products carry a calendar one.
const (
	rawTimeLayout        = "2006002-150405"
	calibratedTimeLayout = "20060102T150405"
)

var knownLevels = map[string]bool{
	"l0": true,
	"ql": true,
	"l1": true,
}

// Parse extracts a Descriptor from a science file name of the form
//
//	{mission}_{instrument}_{level}_{time}_v{version}.{ext}
//
// It is a pure string transform: no filesystem or network access, and it
// fails rather than guessing when the name does not match the grammar.
// The instrument segment is case-insensitive and normalized to lower case.
func Parse(filename string) (Descriptor, error) {
	base := path.Base(filename)
	ext := path.Ext(base)
	stem := strings.TrimSuffix(base, ext)

	parts := strings.Split(stem, "_")
	if len(parts) != 5 {
		return Descriptor{}, &ParseError{Filename: base, Reason: fmt.Sprintf("expected 5 underscore-separated segments, got %d", len(parts))}
	}

	mission, instrument, level, stamp, version := parts[0], parts[1], parts[2], parts[3], parts[4]

	if mission == "" || instrument == "" {
		return Descriptor{}, &ParseError{Filename: base, Reason: "empty mission or instrument segment"}
	}

	level = strings.ToLower(level)
	if !knownLevels[level] {
		return Descriptor{}, &ParseError{Filename: base, Reason: fmt.Sprintf("unknown level token %q", level)}
	}

	layout := calibratedTimeLayout
	if level == "l0" {
		layout = rawTimeLayout
	}
	ts, err := time.ParseInLocation(layout, stamp, time.UTC)
	if err != nil {
		return Descriptor{}, &ParseError{Filename: base, Reason: fmt.Sprintf("timestamp segment %q does not match layout %s", stamp, layout)}
	}

	if !strings.HasPrefix(version, "v") || len(version) < 2 {
		return Descriptor{}, &ParseError{Filename: base, Reason: fmt.Sprintf("version segment %q missing v prefix", version)}
	}

	return Descriptor{
		Mission:    strings.ToLower(mission),
		Instrument: strings.ToLower(instrument),
		Level:      level,
		Timestamp:  ts,
		Version:    strings.TrimPrefix(version, "v"),
	}, nil
}
