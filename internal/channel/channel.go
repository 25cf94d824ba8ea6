package channel

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Domain errors
var (
	ErrEmptyID         = errors.New("channel id cannot be empty")
	ErrEmptyChannelID  = errors.New("channel channel_id cannot be empty")
	ErrEmptyName       = errors.New("channel name cannot be empty")
	ErrInvalidType     = errors.New("invalid channel type")
	ErrInvalidService  = errors.New("network id and service id must be positive")
	ErrChannelNotFound = errors.New("channel not found")
)

// Type is the broadcast type of a channel.
type Type string

const (
	TypeGR        Type = "GR"
	TypeBS        Type = "BS"
	TypeCS        Type = "CS"
	TypeCATV      Type = "CATV"
	TypeSKY       Type = "SKY"
	TypeSTARDIGIO Type = "STARDIGIO"
)

// Types lists every broadcast type in display order.
var Types = []Type{TypeGR, TypeBS, TypeCS, TypeCATV, TypeSKY, TypeSTARDIGIO}

// ParseType converts a string into a Type.
// Returns ErrInvalidType if the string is not one of the known broadcast types.
func ParseType(s string) (Type, error) {
	for _, t := range Types {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidType, s)
}

// Params holds the attributes used to build a Channel.
type Params struct {
	ID            string
	ChannelID     string
	Type          Type
	Name          string
	NetworkID     int
	ServiceID     int
	RemoconID     int
	ChannelNumber string
	IsSubchannel  bool
}

// Channel is a broadcast service as known by the channel catalog.
// It is immutable; resolvers receive it by value.
type Channel struct {
	id            string
	channelID     string
	channelType   Type
	name          string
	networkID     int
	serviceID     int
	remoconID     int
	channelNumber string
	isSubchannel  bool
}

// NewChannel creates a new Channel from the given parameters.
// It trims string fields and validates that identifiers are present and
// that the broadcast type is known.
func NewChannel(p Params) (Channel, error) {
	id := strings.TrimSpace(p.ID)
	if id == "" {
		return Channel{}, ErrEmptyID
	}
	channelID := strings.TrimSpace(p.ChannelID)
	if channelID == "" {
		return Channel{}, ErrEmptyChannelID
	}
	name := strings.TrimSpace(p.Name)
	if name == "" {
		return Channel{}, ErrEmptyName
	}
	if _, err := ParseType(string(p.Type)); err != nil {
		return Channel{}, err
	}
	if p.NetworkID <= 0 || p.ServiceID <= 0 {
		return Channel{}, ErrInvalidService
	}

	return Channel{
		id:            id,
		channelID:     channelID,
		channelType:   p.Type,
		name:          name,
		networkID:     p.NetworkID,
		serviceID:     p.ServiceID,
		remoconID:     p.RemoconID,
		channelNumber: strings.TrimSpace(p.ChannelNumber),
		isSubchannel:  p.IsSubchannel,
	}, nil
}

// ID returns the stable catalog key, e.g. "NID32736-SID1024".
// Bundled logo files are named after it.
func (c Channel) ID() string { return c.id }

// ChannelID returns the URL-facing identifier, e.g. "gr011".
func (c Channel) ChannelID() string { return c.channelID }

// Type returns the broadcast type.
func (c Channel) Type() Type { return c.channelType }

// Name returns the display name.
func (c Channel) Name() string { return c.name }

// NetworkID returns the original network id (NID).
func (c Channel) NetworkID() int { return c.networkID }

// ServiceID returns the service id (SID).
func (c Channel) ServiceID() int { return c.serviceID }

// RemoconID returns the remote-control number.
func (c Channel) RemoconID() int { return c.remoconID }

// ChannelNumber returns the zero-padded channel number, e.g. "011" or "211".
func (c Channel) ChannelNumber() string { return c.channelNumber }

// IsSubchannel reports whether the channel is multiplexed under a main channel.
func (c Channel) IsSubchannel() bool { return c.isSubchannel }

// Params returns the attributes of the channel, suitable for serialization.
func (c Channel) Params() Params {
	return Params{
		ID:            c.id,
		ChannelID:     c.channelID,
		Type:          c.channelType,
		Name:          c.name,
		NetworkID:     c.networkID,
		ServiceID:     c.serviceID,
		RemoconID:     c.remoconID,
		ChannelNumber: c.channelNumber,
		IsSubchannel:  c.isSubchannel,
	}
}

// MainBSServiceID computes the service id of the main channel for a BS sub-channel.
// NHK BS is special-cased (102 -> 101, 104 -> 103); every other broadcaster uses
// the first two digits of the channel number followed by "1".
// Returns false if the channel number is too short or not numeric.
func MainBSServiceID(serviceID int, channelNumber string) (int, bool) {
	switch serviceID {
	case 102:
		return 101, true
	case 104:
		return 103, true
	}

	if len(channelNumber) < 2 {
		return 0, false
	}
	mainID, err := strconv.Atoi(channelNumber[:2] + "1")
	if err != nil {
		return 0, false
	}
	return mainID, true
}
