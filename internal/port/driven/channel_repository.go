package driven

import (
	"context"

	"github.com/alorle/tv-channels/internal/channel"
)

// ChannelRepository defines the interface for read access to the channel catalog
// plus the bulk replacement used by catalog sync.
// This is a driven port implemented by concrete adapters (e.g., BoltDB, go-memdb).
type ChannelRepository interface {
	// FindByID retrieves a channel by its catalog key ("NID32736-SID1024").
	// Returns channel.ErrChannelNotFound if the channel does not exist.
	FindByID(ctx context.Context, id string) (channel.Channel, error)

	// FindByChannelID retrieves a channel by its URL identifier ("gr011").
	// Returns channel.ErrChannelNotFound if the channel does not exist.
	FindByChannelID(ctx context.Context, channelID string) (channel.Channel, error)

	// FindByNetwork retrieves every channel of a network, ordered by ascending service id.
	FindByNetwork(ctx context.Context, networkID int) ([]channel.Channel, error)

	// FindByNetworkAndService retrieves the channel broadcasting the given service.
	// Returns channel.ErrChannelNotFound if the channel does not exist.
	FindByNetworkAndService(ctx context.Context, networkID, serviceID int) (channel.Channel, error)

	// FindAll retrieves all channels ordered by channel number, then remocon id.
	FindAll(ctx context.Context) ([]channel.Channel, error)

	// ReplaceAll atomically swaps the whole catalog for channels.
	ReplaceAll(ctx context.Context, channels []channel.Channel) error

	// Ping checks if the repository is accessible and operational.
	Ping(ctx context.Context) error
}
