package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alorle/tv-channels/internal/logo"
	"github.com/alorle/tv-channels/internal/port/driven"
	"github.com/alorle/tv-channels/metrics"
)

// LogoService serves channel logos by URL identifier.
type LogoService struct {
	channels driven.ChannelRepository
	store    driven.BundledLogoStore
	resolver *LogoResolver
	backend  logo.BackendConfig
	logger   *slog.Logger
}

// NewLogoService creates a LogoService. backend is passed to the resolver on
// every request.
func NewLogoService(
	channels driven.ChannelRepository,
	store driven.BundledLogoStore,
	resolver *LogoResolver,
	backend logo.BackendConfig,
	logger *slog.Logger,
) *LogoService {
	return &LogoService{
		channels: channels,
		store:    store,
		resolver: resolver,
		backend:  backend,
		logger:   logger,
	}
}

// GetLogo returns the logo of the channel with the given URL identifier,
// falling back to the bundled default logo when the resolver finds nothing.
// Returns channel.ErrChannelNotFound for an unknown channel and
// logo.ErrNotFound when not even the default logo is available.
func (s *LogoService) GetLogo(ctx context.Context, channelID string) (logo.Asset, logo.Source, error) {
	start := time.Now()

	ch, err := s.channels.FindByChannelID(ctx, channelID)
	if err != nil {
		return logo.Asset{}, logo.SourceNone, err
	}

	asset, source := s.resolver.ResolveWithSource(ctx, ch, s.backend)
	if source == logo.SourceNone {
		var found bool
		asset, found = s.store.Lookup(ctx, logo.DefaultKey)
		if !found {
			s.logger.Error("default logo is missing from the bundled directory", "key", logo.DefaultKey)
			metrics.RecordLogoResolution(string(logo.SourceNone), time.Since(start))
			return logo.Asset{}, logo.SourceNone, fmt.Errorf("%w: no logo for channel %s", logo.ErrNotFound, channelID)
		}
		source = logo.SourceDefault
	}

	metrics.RecordLogoResolution(string(source), time.Since(start))
	return asset, source, nil
}
