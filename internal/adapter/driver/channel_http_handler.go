package driver

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/oapi-codegen/runtime"

	"github.com/alorle/tv-channels/internal/application"
	"github.com/alorle/tv-channels/internal/channel"
	"github.com/alorle/tv-channels/internal/logo"
	"github.com/alorle/tv-channels/internal/program"
)

// ChannelHTTPHandler handles HTTP requests for channel information and logos.
type ChannelHTTPHandler struct {
	channels   *application.ChannelService
	logos      *application.LogoService
	logoMaxAge time.Duration
	logger     *slog.Logger
}

// NewChannelHTTPHandler creates a new HTTP handler for channels.
// logoMaxAge is advertised to clients in the Cache-Control header of logo responses.
func NewChannelHTTPHandler(
	channels *application.ChannelService,
	logos *application.LogoService,
	logoMaxAge time.Duration,
	logger *slog.Logger,
) *ChannelHTTPHandler {
	return &ChannelHTTPHandler{
		channels:   channels,
		logos:      logos,
		logoMaxAge: logoMaxAge,
		logger:     logger,
	}
}

// errorResponse represents a JSON error response.
type errorResponse struct {
	Error string `json:"error"`
}

// genreResponse represents a program genre in JSON format.
type genreResponse struct {
	Major  string `json:"major"`
	Middle string `json:"middle"`
}

// programResponse represents a program in JSON format.
type programResponse struct {
	ID          string          `json:"id"`
	ChannelID   string          `json:"channel_id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Detail      detailResponse  `json:"detail"`
	StartTime   string          `json:"start_time"`
	EndTime     string          `json:"end_time"`
	Duration    float64         `json:"duration"`
	Genre       []genreResponse `json:"genre"`
}

// channelResponse represents a channel in JSON format.
type channelResponse struct {
	ID               string           `json:"id"`
	ChannelID        string           `json:"channel_id"`
	NetworkID        int              `json:"network_id"`
	ServiceID        int              `json:"service_id"`
	RemoconID        int              `json:"remocon_id"`
	ChannelNumber    string           `json:"channel_number"`
	ChannelType      string           `json:"channel_type"`
	ChannelName      string           `json:"channel_name"`
	IsSubchannel     bool             `json:"is_subchannel"`
	IsDisplay        bool             `json:"is_display"`
	ProgramPresent   *programResponse `json:"program_present"`
	ProgramFollowing *programResponse `json:"program_following"`
}

// detailResponse renders the extended description as a JSON object whose
// keys keep the broadcast order.
type detailResponse []program.DetailItem

func (d detailResponse) MarshalJSON() ([]byte, error) {
	var b strings.Builder
	b.WriteByte('{')
	for i, item := range d {
		if i > 0 {
			b.WriteByte(',')
		}
		key, err := json.Marshal(item.Heading)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(item.Body)
		if err != nil {
			return nil, err
		}
		b.Write(key)
		b.WriteByte(':')
		b.Write(value)
	}
	b.WriteByte('}')
	return []byte(b.String()), nil
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// ServeHTTP routes the request to the appropriate handler based on path.
func (h *ChannelHTTPHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/channels"), "/")

	// GET /channels
	if path == "" {
		h.handleList(w, r)
		return
	}

	parts := strings.Split(path, "/")
	if len(parts) > 2 || (len(parts) == 2 && parts[1] != "logo") {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	var channelID string
	err := runtime.BindStyledParameterWithOptions("simple", "channel_id", parts[0], &channelID, runtime.BindStyledParameterOptions{
		ParamLocation: runtime.ParamLocationPath,
		Explode:       false,
		Required:      true,
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid channel_id: %v", err))
		return
	}

	// GET /channels/{channel_id}/logo
	if len(parts) == 2 {
		h.handleLogo(w, r, channelID)
		return
	}
	// GET /channels/{channel_id}
	h.handleGet(w, r, channelID)
}

func toProgramResponse(p *program.Program) *programResponse {
	if p == nil {
		return nil
	}
	genres := make([]genreResponse, 0, len(p.Genres()))
	for _, g := range p.Genres() {
		genres = append(genres, genreResponse{Major: g.Major, Middle: g.Middle})
	}
	return &programResponse{
		ID:          p.ID(),
		ChannelID:   p.ChannelID(),
		Title:       p.Title(),
		Description: p.Description(),
		Detail:      detailResponse(p.Detail()),
		StartTime:   p.StartTime().Format(time.RFC3339),
		EndTime:     p.EndTime().Format(time.RFC3339),
		Duration:    p.Duration().Seconds(),
		Genre:       genres,
	}
}

// toChannelResponse converts a channel view to an API response.
func toChannelResponse(v application.ChannelView) channelResponse {
	ch := v.Channel
	return channelResponse{
		ID:               ch.ID(),
		ChannelID:        ch.ChannelID(),
		NetworkID:        ch.NetworkID(),
		ServiceID:        ch.ServiceID(),
		RemoconID:        ch.RemoconID(),
		ChannelNumber:    ch.ChannelNumber(),
		ChannelType:      string(ch.Type()),
		ChannelName:      ch.Name(),
		IsSubchannel:     ch.IsSubchannel(),
		IsDisplay:        v.IsDisplay,
		ProgramPresent:   toProgramResponse(v.Present),
		ProgramFollowing: toProgramResponse(v.Following),
	}
}

// handleList handles GET /channels
func (h *ChannelHTTPHandler) handleList(w http.ResponseWriter, r *http.Request) {
	groups, err := h.channels.ListChannels(r.Context())
	if err != nil {
		h.logger.Error("failed to list channels", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	response := make(map[string][]channelResponse, len(groups))
	for typ, views := range groups {
		list := make([]channelResponse, len(views))
		for i, v := range views {
			list[i] = toChannelResponse(v)
		}
		response[string(typ)] = list
	}

	writeJSON(w, http.StatusOK, response)
}

// handleGet handles GET /channels/{channel_id}
func (h *ChannelHTTPHandler) handleGet(w http.ResponseWriter, r *http.Request, channelID string) {
	view, err := h.channels.GetChannel(r.Context(), channelID)
	if err != nil {
		h.writeLookupError(w, channelID, err)
		return
	}

	writeJSON(w, http.StatusOK, toChannelResponse(view))
}

// handleLogo handles GET /channels/{channel_id}/logo
func (h *ChannelHTTPHandler) handleLogo(w http.ResponseWriter, r *http.Request, channelID string) {
	asset, source, err := h.logos.GetLogo(r.Context(), channelID)
	if err != nil {
		if errors.Is(err, logo.ErrNotFound) {
			writeError(w, http.StatusNotFound, "logo not found")
			return
		}
		h.writeLookupError(w, channelID, err)
		return
	}

	w.Header().Set("Content-Type", string(asset.MediaType))
	w.Header().Set("Content-Length", strconv.Itoa(len(asset.Data)))
	w.Header().Set("Cache-Control", fmt.Sprintf("public, max-age=%d", int(h.logoMaxAge.Seconds())))
	w.Header().Set("X-Logo-Source", string(source))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(asset.Data)
}

// writeLookupError maps a channel lookup failure to a response. An unknown
// channel id is reported as 422 like the rest of the API.
func (h *ChannelHTTPHandler) writeLookupError(w http.ResponseWriter, channelID string, err error) {
	if errors.Is(err, channel.ErrChannelNotFound) {
		writeError(w, http.StatusUnprocessableEntity, "specified channel_id was not found")
		return
	}
	h.logger.Error("failed to look up channel", "channel_id", channelID, "error", err)
	writeError(w, http.StatusInternalServerError, "internal server error")
}
