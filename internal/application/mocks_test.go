package application

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/alorle/tv-channels/internal/channel"
	"github.com/alorle/tv-channels/internal/logo"
	"github.com/alorle/tv-channels/internal/port/driven"
	"github.com/alorle/tv-channels/internal/program"
)

// mockChannelRepository is a mock implementation of driven.ChannelRepository for testing.
// Unset funcs fall back to the channels slice.
type mockChannelRepository struct {
	channels []channel.Channel

	findByChannelIDFunc func(ctx context.Context, channelID string) (channel.Channel, error)
	findByNetworkFunc   func(ctx context.Context, networkID int) ([]channel.Channel, error)
	findAllFunc         func(ctx context.Context) ([]channel.Channel, error)
	replaceAllFunc      func(ctx context.Context, channels []channel.Channel) error
	pingFunc            func(ctx context.Context) error
}

func (m *mockChannelRepository) FindByID(_ context.Context, id string) (channel.Channel, error) {
	for _, ch := range m.channels {
		if ch.ID() == id {
			return ch, nil
		}
	}
	return channel.Channel{}, channel.ErrChannelNotFound
}

func (m *mockChannelRepository) FindByChannelID(ctx context.Context, channelID string) (channel.Channel, error) {
	if m.findByChannelIDFunc != nil {
		return m.findByChannelIDFunc(ctx, channelID)
	}
	for _, ch := range m.channels {
		if ch.ChannelID() == channelID {
			return ch, nil
		}
	}
	return channel.Channel{}, channel.ErrChannelNotFound
}

// FindByNetwork returns matches in slice order; tests list channels by ascending service id.
func (m *mockChannelRepository) FindByNetwork(ctx context.Context, networkID int) ([]channel.Channel, error) {
	if m.findByNetworkFunc != nil {
		return m.findByNetworkFunc(ctx, networkID)
	}
	var out []channel.Channel
	for _, ch := range m.channels {
		if ch.NetworkID() == networkID {
			out = append(out, ch)
		}
	}
	return out, nil
}

func (m *mockChannelRepository) FindByNetworkAndService(_ context.Context, networkID, serviceID int) (channel.Channel, error) {
	for _, ch := range m.channels {
		if ch.NetworkID() == networkID && ch.ServiceID() == serviceID {
			return ch, nil
		}
	}
	return channel.Channel{}, channel.ErrChannelNotFound
}

func (m *mockChannelRepository) FindAll(ctx context.Context) ([]channel.Channel, error) {
	if m.findAllFunc != nil {
		return m.findAllFunc(ctx)
	}
	return append([]channel.Channel{}, m.channels...), nil
}

func (m *mockChannelRepository) ReplaceAll(ctx context.Context, channels []channel.Channel) error {
	if m.replaceAllFunc != nil {
		return m.replaceAllFunc(ctx, channels)
	}
	m.channels = channels
	return nil
}

func (m *mockChannelRepository) Ping(ctx context.Context) error {
	if m.pingFunc != nil {
		return m.pingFunc(ctx)
	}
	return nil
}

// mockProgramRepository is a mock implementation of driven.ProgramRepository for testing.
type mockProgramRepository struct {
	programs []program.Program

	findBetweenFunc func(ctx context.Context, from, to time.Time) ([]program.Program, error)
	replaceAllFunc  func(ctx context.Context, programs []program.Program) error
}

func (m *mockProgramRepository) FindBetween(ctx context.Context, from, to time.Time) ([]program.Program, error) {
	if m.findBetweenFunc != nil {
		return m.findBetweenFunc(ctx, from, to)
	}
	return append([]program.Program{}, m.programs...), nil
}

func (m *mockProgramRepository) ReplaceAll(ctx context.Context, programs []program.Program) error {
	if m.replaceAllFunc != nil {
		return m.replaceAllFunc(ctx, programs)
	}
	m.programs = programs
	return nil
}

// mockLogoStore serves bundled logos from a map keyed by file stem.
type mockLogoStore struct {
	mu      sync.Mutex
	files   map[string][]byte
	lookups []string
}

func (m *mockLogoStore) Lookup(_ context.Context, key string) (logo.Asset, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lookups = append(m.lookups, key)
	data, ok := m.files[key]
	if !ok {
		return logo.Asset{}, false
	}
	return logo.Asset{Data: data, MediaType: logo.MediaTypePNG}, true
}

// mockRemoteLogoSource is a mock implementation of driven.RemoteLogoSource for testing.
type mockRemoteLogoSource struct {
	mu    sync.Mutex
	calls int

	fetchLogoFunc func(ctx context.Context, ch channel.Channel, endpoint string) (logo.Asset, error)
	pingFunc      func(ctx context.Context, endpoint string) error
}

func (m *mockRemoteLogoSource) FetchLogo(ctx context.Context, ch channel.Channel, endpoint string) (logo.Asset, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.fetchLogoFunc != nil {
		return m.fetchLogoFunc(ctx, ch, endpoint)
	}
	return logo.Asset{}, logo.ErrNotFound
}

func (m *mockRemoteLogoSource) Ping(ctx context.Context, endpoint string) error {
	if m.pingFunc != nil {
		return m.pingFunc(ctx, endpoint)
	}
	return nil
}

func (m *mockRemoteLogoSource) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// mockCatalogSource is a mock implementation of driven.CatalogSource for testing.
type mockCatalogSource struct {
	loadFunc func(ctx context.Context) (driven.CatalogSnapshot, error)
}

func (m *mockCatalogSource) Load(ctx context.Context) (driven.CatalogSnapshot, error) {
	return m.loadFunc(ctx)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func mustChannel(t *testing.T, p channel.Params) channel.Channel {
	t.Helper()
	if p.Name == "" {
		p.Name = p.ID
	}
	if p.ChannelID == "" {
		p.ChannelID = p.ID
	}
	ch, err := channel.NewChannel(p)
	if err != nil {
		t.Fatalf("failed to create channel %s: %v", p.ID, err)
	}
	return ch
}

func mustProgram(t *testing.T, id, channelID string, start, end time.Time) program.Program {
	t.Helper()
	p, err := program.NewProgram(program.Params{ID: id, ChannelID: channelID, Title: id, StartTime: start, EndTime: end})
	if err != nil {
		t.Fatalf("failed to create program %s: %v", id, err)
	}
	return p
}
