package program

import (
	"errors"
	"strings"
	"time"
)

// Domain errors
var (
	ErrEmptyID        = errors.New("program id cannot be empty")
	ErrEmptyChannelID = errors.New("program channel_id cannot be empty")
	ErrInvalidPeriod  = errors.New("program end time must not be before start time")
)

// DetailItem is one heading/body pair of the extended program description.
type DetailItem struct {
	Heading string
	Body    string
}

// Genre is a major/middle genre classification.
type Genre struct {
	Major  string
	Middle string
}

// Params holds the attributes used to build a Program.
type Params struct {
	ID          string
	ChannelID   string
	Title       string
	Description string
	StartTime   time.Time
	EndTime     time.Time
	Detail      []DetailItem
	Genres      []Genre
}

// Program is a single broadcast slot on a channel.
type Program struct {
	id          string
	channelID   string
	title       string
	description string
	startTime   time.Time
	endTime     time.Time
	detail      []DetailItem
	genres      []Genre
}

// NewProgram creates a new Program.
// Returns ErrEmptyID or ErrEmptyChannelID when identifiers are missing and
// ErrInvalidPeriod when the slot ends before it starts.
func NewProgram(p Params) (Program, error) {
	id := strings.TrimSpace(p.ID)
	if id == "" {
		return Program{}, ErrEmptyID
	}
	channelID := strings.TrimSpace(p.ChannelID)
	if channelID == "" {
		return Program{}, ErrEmptyChannelID
	}
	if p.EndTime.Before(p.StartTime) {
		return Program{}, ErrInvalidPeriod
	}

	return Program{
		id:          id,
		channelID:   channelID,
		title:       strings.TrimSpace(p.Title),
		description: strings.TrimSpace(p.Description),
		startTime:   p.StartTime,
		endTime:     p.EndTime,
		detail:      append([]DetailItem(nil), p.Detail...),
		genres:      append([]Genre(nil), p.Genres...),
	}, nil
}

func (p Program) ID() string              { return p.id }
func (p Program) ChannelID() string       { return p.channelID }
func (p Program) Title() string           { return p.title }
func (p Program) Description() string     { return p.description }
func (p Program) StartTime() time.Time    { return p.startTime }
func (p Program) EndTime() time.Time      { return p.endTime }
func (p Program) Detail() []DetailItem    { return append([]DetailItem(nil), p.detail...) }
func (p Program) Genres() []Genre         { return append([]Genre(nil), p.genres...) }
func (p Program) Duration() time.Duration { return p.endTime.Sub(p.startTime) }

// Params returns the attributes of the program, suitable for serialization.
func (p Program) Params() Params {
	return Params{
		ID:          p.id,
		ChannelID:   p.channelID,
		Title:       p.title,
		Description: p.description,
		StartTime:   p.startTime,
		EndTime:     p.endTime,
		Detail:      p.Detail(),
		Genres:      p.Genres(),
	}
}

// IsOnAir reports whether the program is being broadcast at t.
func (p Program) IsOnAir(t time.Time) bool {
	return !p.startTime.After(t) && !p.endTime.Before(t)
}

// Present picks the program of channelID that is on air at now.
// When several overlap, the one that started last wins.
func Present(programs []Program, channelID string, now time.Time) (Program, bool) {
	var found Program
	ok := false
	for _, p := range programs {
		if p.channelID != channelID || !p.IsOnAir(now) {
			continue
		}
		if !ok || p.startTime.After(found.startTime) {
			found, ok = p, true
		}
	}
	return found, ok
}

// Following picks the earliest program of channelID starting at or after now.
func Following(programs []Program, channelID string, now time.Time) (Program, bool) {
	var found Program
	ok := false
	for _, p := range programs {
		if p.channelID != channelID || p.startTime.Before(now) {
			continue
		}
		if !ok || p.startTime.Before(found.startTime) {
			found, ok = p, true
		}
	}
	return found, ok
}

// EndingBy keeps the programs that end at or before limit.
func EndingBy(programs []Program, limit time.Time) []Program {
	kept := make([]Program, 0, len(programs))
	for _, p := range programs {
		if !p.endTime.After(limit) {
			kept = append(kept, p)
		}
	}
	return kept
}
