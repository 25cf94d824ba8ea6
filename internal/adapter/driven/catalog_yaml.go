package driven

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/alorle/tv-channels/internal/channel"
	"github.com/alorle/tv-channels/internal/port/driven"
	"github.com/alorle/tv-channels/internal/program"
)

// CatalogYAMLSource implements the CatalogSource port by reading a YAML file.
type CatalogYAMLSource struct {
	path string
}

// NewCatalogYAMLSource creates a catalog source for the file at path.
func NewCatalogYAMLSource(path string) *CatalogYAMLSource {
	return &CatalogYAMLSource{path: path}
}

type catalogFile struct {
	Channels []channelYAML `yaml:"channels"`
	Programs []programYAML `yaml:"programs"`
}

type channelYAML struct {
	ID            string `yaml:"id"`
	ChannelID     string `yaml:"channel_id"`
	Type          string `yaml:"channel_type"`
	Name          string `yaml:"channel_name"`
	NetworkID     int    `yaml:"network_id"`
	ServiceID     int    `yaml:"service_id"`
	RemoconID     int    `yaml:"remocon_id"`
	ChannelNumber string `yaml:"channel_number"`
	IsSubchannel  bool   `yaml:"is_subchannel"`
}

type programYAML struct {
	ID          string    `yaml:"id"`
	ChannelID   string    `yaml:"channel_id"`
	Title       string    `yaml:"title"`
	Description string    `yaml:"description"`
	StartTime   time.Time `yaml:"start_time"`
	EndTime     time.Time `yaml:"end_time"`
	Detail      []struct {
		Heading string `yaml:"heading"`
		Body    string `yaml:"body"`
	} `yaml:"detail"`
	Genres []struct {
		Major  string `yaml:"major"`
		Middle string `yaml:"middle"`
	} `yaml:"genre"`
}

// Load reads the file and validates every record.
func (s *CatalogYAMLSource) Load(ctx context.Context) (driven.CatalogSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return driven.CatalogSnapshot{}, err
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return driven.CatalogSnapshot{}, fmt.Errorf("failed to read catalog file: %w", err)
	}

	return ParseCatalogYAML(data)
}

// ParseCatalogYAML decodes and validates a catalog document.
func ParseCatalogYAML(data []byte) (driven.CatalogSnapshot, error) {
	var file catalogFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return driven.CatalogSnapshot{}, fmt.Errorf("failed to parse catalog file: %w", err)
	}

	snapshot := driven.CatalogSnapshot{
		Channels: make([]channel.Channel, 0, len(file.Channels)),
		Programs: make([]program.Program, 0, len(file.Programs)),
	}

	ids := make(map[string]bool, len(file.Channels))
	channelIDs := make(map[string]bool, len(file.Channels))
	for i, c := range file.Channels {
		ch, err := channel.NewChannel(channel.Params{
			ID:            c.ID,
			ChannelID:     c.ChannelID,
			Type:          channel.Type(c.Type),
			Name:          c.Name,
			NetworkID:     c.NetworkID,
			ServiceID:     c.ServiceID,
			RemoconID:     c.RemoconID,
			ChannelNumber: c.ChannelNumber,
			IsSubchannel:  c.IsSubchannel,
		})
		if err != nil {
			return driven.CatalogSnapshot{}, fmt.Errorf("channel %d (%s): %w", i, c.ID, err)
		}
		if ids[ch.ID()] || channelIDs[ch.ChannelID()] {
			return driven.CatalogSnapshot{}, fmt.Errorf("channel %d (%s): duplicate id", i, c.ID)
		}
		ids[ch.ID()] = true
		channelIDs[ch.ChannelID()] = true
		snapshot.Channels = append(snapshot.Channels, ch)
	}

	for i, p := range file.Programs {
		params := program.Params{
			ID:          p.ID,
			ChannelID:   p.ChannelID,
			Title:       p.Title,
			Description: p.Description,
			StartTime:   p.StartTime,
			EndTime:     p.EndTime,
		}
		for _, d := range p.Detail {
			params.Detail = append(params.Detail, program.DetailItem{Heading: d.Heading, Body: d.Body})
		}
		for _, g := range p.Genres {
			params.Genres = append(params.Genres, program.Genre{Major: g.Major, Middle: g.Middle})
		}

		prog, err := program.NewProgram(params)
		if err != nil {
			return driven.CatalogSnapshot{}, fmt.Errorf("program %d (%s): %w", i, p.ID, err)
		}
		if !channelIDs[prog.ChannelID()] {
			return driven.CatalogSnapshot{}, fmt.Errorf("program %d (%s): unknown channel %q", i, p.ID, prog.ChannelID())
		}
		snapshot.Programs = append(snapshot.Programs, prog)
	}

	return snapshot, nil
}
