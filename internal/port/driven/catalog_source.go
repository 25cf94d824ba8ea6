package driven

import (
	"context"

	"github.com/alorle/tv-channels/internal/channel"
	"github.com/alorle/tv-channels/internal/program"
)

// CatalogSnapshot is a complete, validated copy of the channel catalog and program guide.
type CatalogSnapshot struct {
	Channels []channel.Channel
	Programs []program.Program
}

// CatalogSource provides the authoritative catalog that repositories are synced from.
type CatalogSource interface {
	// Load reads and validates the whole catalog. A single invalid record
	// fails the load so a partial catalog is never applied.
	Load(ctx context.Context) (CatalogSnapshot, error)
}
