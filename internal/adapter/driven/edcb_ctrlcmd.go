package driven

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alorle/tv-channels/internal/channel"
	"github.com/alorle/tv-channels/internal/edcb"
	"github.com/alorle/tv-channels/internal/logo"
)

const (
	edcbLogoIni      = "LogoData.ini"
	edcbLogoDir      = `LogoData\`
	edcbLogoWildcard = edcbLogoDir + "*.*"
)

// EDCBCtrlCmdAdapter implements the RemoteLogoSource port by reading the logo
// cache of EpgTimerSrv over the CtrlCmd file copy command.
type EDCBCtrlCmdAdapter struct {
	timeout time.Duration
	logger  *slog.Logger
}

// NewEDCBCtrlCmdAdapter creates a new EDCB adapter. timeout bounds each
// CtrlCmd round trip.
func NewEDCBCtrlCmdAdapter(timeout time.Duration, logger *slog.Logger) *EDCBCtrlCmdAdapter {
	return &EDCBCtrlCmdAdapter{timeout: timeout, logger: logger}
}

// FetchLogo looks the service up in LogoData.ini, picks the best logo type
// present in the LogoData directory and downloads that file.
func (a *EDCBCtrlCmdAdapter) FetchLogo(ctx context.Context, ch channel.Channel, endpoint string) (logo.Asset, error) {
	client, err := a.client(endpoint)
	if err != nil {
		return logo.Asset{}, err
	}

	files, err := client.SendFileCopy2(ctx, []string{edcbLogoIni, edcbLogoWildcard})
	if err != nil {
		return logo.Asset{}, fmt.Errorf("failed to read logo index: %w", err)
	}
	if len(files) != 2 {
		return logo.Asset{}, fmt.Errorf("%w: expected 2 index files, got %d", logo.ErrNotFound, len(files))
	}

	ini := edcb.DecodeText(files[0].Data)
	listing := edcb.DecodeText(files[1].Data)

	logoID := edcb.ParseLogoIndex(ini, ch.NetworkID(), ch.ServiceID())
	if logoID < 0 {
		return logo.Asset{}, fmt.Errorf("%w: no logo id for service %d/%d", logo.ErrNotFound, ch.NetworkID(), ch.ServiceID())
	}

	name, ok := edcb.FindLogoFile(listing, ch.NetworkID(), logoID)
	if !ok {
		return logo.Asset{}, fmt.Errorf("%w: no logo file for logo id %d", logo.ErrNotFound, logoID)
	}

	a.logger.Debug("downloading logo from edcb", "channel_id", ch.ChannelID(), "file", name)

	files, err = client.SendFileCopy2(ctx, []string{edcbLogoDir + name})
	if err != nil {
		return logo.Asset{}, fmt.Errorf("failed to read logo file %s: %w", name, err)
	}
	if len(files) != 1 || len(files[0].Data) == 0 {
		return logo.Asset{}, fmt.Errorf("%w: logo file %s is missing or empty", logo.ErrNotFound, name)
	}

	return logo.Asset{Data: files[0].Data, MediaType: logo.MediaTypeFromFilename(name)}, nil
}

// Ping checks that EpgTimerSrv accepts connections at endpoint.
func (a *EDCBCtrlCmdAdapter) Ping(ctx context.Context, endpoint string) error {
	client, err := a.client(endpoint)
	if err != nil {
		return err
	}
	return client.Ping(ctx)
}

func (a *EDCBCtrlCmdAdapter) client(endpoint string) (*edcb.Client, error) {
	addr, err := edcb.ParseEndpoint(endpoint)
	if err != nil {
		return nil, err
	}
	return edcb.NewClient(addr, a.timeout), nil
}
