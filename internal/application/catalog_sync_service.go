package application

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/alorle/tv-channels/internal/port/driven"
	"github.com/alorle/tv-channels/metrics"
)

// CatalogSyncService loads the catalog from its authoritative source and
// replaces the contents of the repositories with it.
type CatalogSyncService struct {
	source      driven.CatalogSource
	channelRepo driven.ChannelRepository
	programRepo driven.ProgramRepository
	logger      *slog.Logger
}

// NewCatalogSyncService creates a new catalog sync service with the required dependencies.
func NewCatalogSyncService(
	source driven.CatalogSource,
	channelRepo driven.ChannelRepository,
	programRepo driven.ProgramRepository,
	logger *slog.Logger,
) *CatalogSyncService {
	return &CatalogSyncService{
		source:      source,
		channelRepo: channelRepo,
		programRepo: programRepo,
		logger:      logger,
	}
}

// Sync performs one reload. When loading or validation fails nothing is
// written and the previous catalog keeps being served.
func (s *CatalogSyncService) Sync(ctx context.Context) error {
	snapshot, err := s.source.Load(ctx)
	if err != nil {
		metrics.RecordCatalogSyncFailure()
		return fmt.Errorf("failed to load catalog: %w", err)
	}

	if err := s.channelRepo.ReplaceAll(ctx, snapshot.Channels); err != nil {
		metrics.RecordCatalogSyncFailure()
		return fmt.Errorf("failed to store channels: %w", err)
	}
	if err := s.programRepo.ReplaceAll(ctx, snapshot.Programs); err != nil {
		metrics.RecordCatalogSyncFailure()
		return fmt.Errorf("failed to store programs: %w", err)
	}

	metrics.SetCatalogChannels(len(snapshot.Channels))
	s.logger.Info("catalog synced", "channels", len(snapshot.Channels), "programs", len(snapshot.Programs))
	return nil
}
