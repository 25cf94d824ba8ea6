package driven

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/alorle/tv-channels/internal/channel"
	"github.com/alorle/tv-channels/internal/logo"
)

// maxLogoSize caps the body read from a remote logo endpoint.
const maxLogoSize = 8 << 20

// MirakurunHTTPAdapter implements the RemoteLogoSource port using the
// Mirakurun HTTP API.
type MirakurunHTTPAdapter struct {
	httpClient *http.Client
	timeout    time.Duration
	logger     *slog.Logger
}

// NewMirakurunHTTPAdapter creates a new HTTP adapter for Mirakurun.
// timeout bounds each request, connection setup included.
func NewMirakurunHTTPAdapter(timeout time.Duration, logger *slog.Logger) *MirakurunHTTPAdapter {
	return &MirakurunHTTPAdapter{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		timeout: timeout,
		logger:  logger,
	}
}

// MirakurunServiceID combines a network id and a service id the way Mirakurun
// addresses services: both zero-padded to five digits and read as one number.
func MirakurunServiceID(networkID, serviceID int) int64 {
	return int64(networkID)*100000 + int64(serviceID)
}

// FetchLogo retrieves the logo of ch from GET {baseURL}/api/services/{id}/logo.
// Mirakurun answers 503 when it has not received a logo for the service yet.
func (a *MirakurunHTTPAdapter) FetchLogo(ctx context.Context, ch channel.Channel, baseURL string) (logo.Asset, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	serviceID := MirakurunServiceID(ch.NetworkID(), ch.ServiceID())
	reqURL := fmt.Sprintf("%s/api/services/%d/logo", strings.TrimRight(baseURL, "/"), serviceID)

	a.logger.Debug("requesting logo from mirakurun", "channel_id", ch.ChannelID(), "url", reqURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return logo.Asset{}, fmt.Errorf("failed to create logo request: %w", err)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return logo.Asset{}, fmt.Errorf("failed to get logo: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusServiceUnavailable, http.StatusNotFound:
		return logo.Asset{}, fmt.Errorf("%w: mirakurun returned status %d", logo.ErrNotFound, resp.StatusCode)
	default:
		return logo.Asset{}, fmt.Errorf("mirakurun returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxLogoSize+1))
	if err != nil {
		return logo.Asset{}, fmt.Errorf("failed to read logo body: %w", err)
	}
	if len(data) > maxLogoSize {
		return logo.Asset{}, fmt.Errorf("mirakurun logo body exceeds %d bytes", maxLogoSize)
	}
	if len(data) == 0 {
		return logo.Asset{}, fmt.Errorf("%w: mirakurun returned an empty body", logo.ErrNotFound)
	}

	return logo.Asset{Data: data, MediaType: logo.MediaTypePNG}, nil
}

// Ping checks that Mirakurun answers GET {baseURL}/api/status.
func (a *MirakurunHTTPAdapter) Ping(ctx context.Context, baseURL string) error {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(baseURL, "/")+"/api/status", nil)
	if err != nil {
		return fmt.Errorf("failed to create status request: %w", err)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to connect to mirakurun: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("mirakurun status returned %d", resp.StatusCode)
	}
	return nil
}
