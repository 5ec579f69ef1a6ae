package epg

import "time"

// Channel represents a guide channel parsed from a <channel> element.
type Channel struct {
	ID          string
	DisplayName string
	Icon        string
	Language    string
}

// Program represents a single <programme> entry for a channel.
//
// Start and Stop are the resolved instants used for sorting and queries;
// StartRaw and StopRaw carry the normalized timestamp strings as they
// appeared in the document (best-effort, see NormalizeDate).
type Program struct {
	Channel    string
	Start      time.Time
	Stop       time.Time
	StartRaw   string
	StopRaw    string
	Title      string
	Desc       string
	Category   string
	Rating     string
	Icon       string
	EpisodeNum string
	Language   string
	SubTitle   string
	Date       string
}

// Guide is the parsed, time-sorted guide model. It is built once per Parse
// call and never mutated afterwards; a refreshed guide replaces it wholesale.
type Guide struct {
	Channels map[string]Channel
	Programs map[string][]Program
}
