package driven

import (
	"context"

	"github.com/alorle/tv-channels/internal/channel"
	"github.com/alorle/tv-channels/internal/logo"
)

// BundledLogoStore gives access to logo images shipped with the server.
type BundledLogoStore interface {
	// Lookup returns the image stored under key. A missing file is reported
	// with found=false and is not an error.
	Lookup(ctx context.Context, key string) (asset logo.Asset, found bool)
}

// RemoteLogoSource fetches logos from an external recorder backend.
type RemoteLogoSource interface {
	// FetchLogo retrieves the logo of ch from the backend reachable at endpoint.
	// Returns logo.ErrNotFound when the backend has no logo for the channel;
	// any other error is a transport or protocol failure.
	FetchLogo(ctx context.Context, ch channel.Channel, endpoint string) (logo.Asset, error)

	// Ping checks that the backend at endpoint is reachable.
	Ping(ctx context.Context, endpoint string) error
}
