package application

import (
	"context"
	"errors"
	"log/slog"
	"net"

	"github.com/alorle/tv-channels/circuitbreaker"
	"github.com/alorle/tv-channels/internal/channel"
	"github.com/alorle/tv-channels/internal/logo"
	"github.com/alorle/tv-channels/internal/port/driven"
	"github.com/alorle/tv-channels/metrics"
)

// LogoStrategy is one step of the logo resolution chain.
// Implementations report a miss with found=false and never return errors.
type LogoStrategy interface {
	// Source names the strategy for logs and metrics.
	Source(cfg logo.BackendConfig) logo.Source
	Resolve(ctx context.Context, ch channel.Channel, cfg logo.BackendConfig) (asset logo.Asset, found bool)
}

// LogoResolver tries its strategies in order and returns the first asset produced.
// It holds no per-request state and is safe for concurrent use.
type LogoResolver struct {
	strategies []LogoStrategy
	logger     *slog.Logger
}

// NewLogoResolver creates a resolver over an explicit strategy chain.
func NewLogoResolver(logger *slog.Logger, strategies ...LogoStrategy) *LogoResolver {
	return &LogoResolver{strategies: strategies, logger: logger}
}

// NewDefaultLogoResolver builds the standard chain: bundled file, hardcoded
// broadcaster table, sub-channel delegation, then the active remote backend.
func NewDefaultLogoResolver(
	store driven.BundledLogoStore,
	catalog driven.ChannelRepository,
	backends []RemoteBackend,
	logger *slog.Logger,
) *LogoResolver {
	return NewLogoResolver(logger,
		NewBundledLogoStrategy(store),
		NewHardcodedLogoStrategy(store, logger),
		NewSubchannelLogoStrategy(store, catalog, logger),
		NewBackendLogoStrategy(backends, logger),
	)
}

// Resolve returns the logo of ch, or found=false when no strategy has one.
func (r *LogoResolver) Resolve(ctx context.Context, ch channel.Channel, cfg logo.BackendConfig) (logo.Asset, bool) {
	asset, source := r.ResolveWithSource(ctx, ch, cfg)
	return asset, source != logo.SourceNone
}

// ResolveWithSource is Resolve that also names the strategy that produced the
// asset, logo.SourceNone on a miss.
func (r *LogoResolver) ResolveWithSource(ctx context.Context, ch channel.Channel, cfg logo.BackendConfig) (logo.Asset, logo.Source) {
	for _, s := range r.strategies {
		if asset, ok := s.Resolve(ctx, ch, cfg); ok {
			source := s.Source(cfg)
			r.logger.Debug("logo resolved", "channel", ch.ID(), "source", source)
			return asset, source
		}
	}
	r.logger.Debug("no logo source matched", "channel", ch.ID())
	return logo.Asset{}, logo.SourceNone
}

// BundledLogoStrategy looks for "<id>.png" in the bundled logo directory.
type BundledLogoStrategy struct {
	store driven.BundledLogoStore
}

// NewBundledLogoStrategy creates a strategy reading from the bundled logo store.
func NewBundledLogoStrategy(store driven.BundledLogoStore) *BundledLogoStrategy {
	return &BundledLogoStrategy{store: store}
}

// Source returns logo.SourceBundled.
func (s *BundledLogoStrategy) Source(logo.BackendConfig) logo.Source { return logo.SourceBundled }

// Resolve looks up the channel's own bundled file.
func (s *BundledLogoStrategy) Resolve(ctx context.Context, ch channel.Channel, _ logo.BackendConfig) (logo.Asset, bool) {
	return s.store.Lookup(ctx, ch.ID())
}

// HardcodedLogoStrategy serves the shared logo of broadcasters listed in
// logo.HardcodedKey.
type HardcodedLogoStrategy struct {
	store  driven.BundledLogoStore
	logger *slog.Logger
}

// NewHardcodedLogoStrategy creates a strategy for the hardcoded broadcaster table.
func NewHardcodedLogoStrategy(store driven.BundledLogoStore, logger *slog.Logger) *HardcodedLogoStrategy {
	return &HardcodedLogoStrategy{store: store, logger: logger}
}

// Source returns logo.SourceHardcoded.
func (s *HardcodedLogoStrategy) Source(logo.BackendConfig) logo.Source { return logo.SourceHardcoded }

// Resolve serves the table entry's bundled file. A listed key with no file is logged and missed.
func (s *HardcodedLogoStrategy) Resolve(ctx context.Context, ch channel.Channel, _ logo.BackendConfig) (logo.Asset, bool) {
	key, ok := logo.HardcodedKey(ch)
	if !ok {
		return logo.Asset{}, false
	}
	asset, found := s.store.Lookup(ctx, key)
	if !found {
		s.logger.Error("hardcoded logo is missing from the bundled directory", "channel", ch.ID(), "key", key)
	}
	return asset, found
}

// SubchannelLogoStrategy serves the bundled logo of a sub-channel's main channel.
type SubchannelLogoStrategy struct {
	store   driven.BundledLogoStore
	catalog driven.ChannelRepository
	logger  *slog.Logger
}

// NewSubchannelLogoStrategy creates a strategy that consults catalog for the main channel.
func NewSubchannelLogoStrategy(store driven.BundledLogoStore, catalog driven.ChannelRepository, logger *slog.Logger) *SubchannelLogoStrategy {
	return &SubchannelLogoStrategy{store: store, catalog: catalog, logger: logger}
}

// Source returns logo.SourceSubchannel.
func (s *SubchannelLogoStrategy) Source(logo.BackendConfig) logo.Source { return logo.SourceSubchannel }

// Resolve serves the main channel's bundled file for sub-channels only.
func (s *SubchannelLogoStrategy) Resolve(ctx context.Context, ch channel.Channel, _ logo.BackendConfig) (logo.Asset, bool) {
	if !ch.IsSubchannel() {
		return logo.Asset{}, false
	}

	main, err := MainChannel(ctx, s.catalog, ch)
	if err != nil {
		if !errors.Is(err, channel.ErrChannelNotFound) {
			s.logger.Warn("failed to look up main channel", "channel", ch.ID(), "error", err)
		}
		return logo.Asset{}, false
	}
	return s.store.Lookup(ctx, main.ID())
}

// MainChannel finds the main channel a sub-channel shares its logo with.
// GR sub-channels belong to the lowest service id of their network; BS
// sub-channels follow channel.MainBSServiceID. Other types have no main
// channel and yield channel.ErrChannelNotFound.
func MainChannel(ctx context.Context, catalog driven.ChannelRepository, ch channel.Channel) (channel.Channel, error) {
	switch ch.Type() {
	case channel.TypeGR:
		siblings, err := catalog.FindByNetwork(ctx, ch.NetworkID())
		if err != nil {
			return channel.Channel{}, err
		}
		if len(siblings) == 0 {
			return channel.Channel{}, channel.ErrChannelNotFound
		}
		return siblings[0], nil

	case channel.TypeBS:
		mainServiceID, ok := channel.MainBSServiceID(ch.ServiceID(), ch.ChannelNumber())
		if !ok {
			return channel.Channel{}, channel.ErrChannelNotFound
		}
		return catalog.FindByNetworkAndService(ctx, ch.NetworkID(), mainServiceID)

	default:
		return channel.Channel{}, channel.ErrChannelNotFound
	}
}

// RemoteBackend binds a backend kind to the adapter serving it.
type RemoteBackend struct {
	Kind   logo.BackendKind
	Source driven.RemoteLogoSource
	// Breaker guards Source. Optional.
	Breaker circuitbreaker.CircuitBreaker
}

// BackendLogoStrategy asks the backend selected by the BackendConfig for a logo.
type BackendLogoStrategy struct {
	backends map[logo.BackendKind]RemoteBackend
	logger   *slog.Logger
}

// NewBackendLogoStrategy creates a strategy dispatching to backends by kind.
func NewBackendLogoStrategy(backends []RemoteBackend, logger *slog.Logger) *BackendLogoStrategy {
	m := make(map[logo.BackendKind]RemoteBackend, len(backends))
	for _, b := range backends {
		m[b.Kind] = b
	}
	return &BackendLogoStrategy{backends: m, logger: logger}
}

// Source returns the label of the backend selected by cfg.
func (s *BackendLogoStrategy) Source(cfg logo.BackendConfig) logo.Source { return SourceFor(cfg.Kind) }

// SourceFor returns the source label of a backend kind.
func SourceFor(kind logo.BackendKind) logo.Source {
	switch kind {
	case logo.BackendMirakurun:
		return logo.SourceMirakurun
	case logo.BackendEDCB:
		return logo.SourceEDCB
	default:
		return logo.SourceNone
	}
}

// Resolve fetches from the backend selected by cfg. Every error is folded into a miss.
func (s *BackendLogoStrategy) Resolve(ctx context.Context, ch channel.Channel, cfg logo.BackendConfig) (logo.Asset, bool) {
	backend, ok := s.backends[cfg.Kind]
	if !ok {
		return logo.Asset{}, false
	}
	endpoint := cfg.Endpoint()
	if endpoint == "" {
		s.logger.Debug("backend has no endpoint configured", "backend", cfg.Kind)
		return logo.Asset{}, false
	}

	var asset logo.Asset
	fetch := func() error {
		var err error
		asset, err = backend.Source.FetchLogo(ctx, ch, endpoint)
		return err
	}

	var err error
	if backend.Breaker != nil {
		err = backend.Breaker.Execute(fetch)
	} else {
		err = fetch()
	}

	if err != nil {
		switch reason := failureReason(err); reason {
		case "not_found":
			s.logger.Debug("backend has no logo", "backend", cfg.Kind, "channel", ch.ID(), "error", err)
		case "circuit_open":
			metrics.RecordLogoBackendError(string(SourceFor(cfg.Kind)), reason)
			s.logger.Debug("backend skipped", "backend", cfg.Kind, "channel", ch.ID(), "error", err)
		default:
			metrics.RecordLogoBackendError(string(SourceFor(cfg.Kind)), reason)
			s.logger.Warn("backend logo request failed", "backend", cfg.Kind, "channel", ch.ID(), "reason", reason, "error", err)
		}
		return logo.Asset{}, false
	}
	if len(asset.Data) == 0 {
		return logo.Asset{}, false
	}
	return asset, true
}

// IsBackendFailure reports whether err from a RemoteLogoSource should count
// against the backend's circuit breaker. Clean misses do not.
func IsBackendFailure(err error) bool {
	return err != nil && !errors.Is(err, logo.ErrNotFound)
}

func failureReason(err error) string {
	var netErr net.Error
	switch {
	case errors.Is(err, logo.ErrNotFound):
		return "not_found"
	case errors.Is(err, circuitbreaker.ErrCircuitOpen), errors.Is(err, circuitbreaker.ErrHalfOpenLimitReached):
		return "circuit_open"
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &netErr) && netErr.Timeout():
		return "timeout"
	default:
		return "transport"
	}
}
