package driven

import (
	"context"
	"encoding/json"
	"errors"

	"go.etcd.io/bbolt"

	"github.com/alorle/tv-channels/internal/channel"
)

const (
	channelsBucket = "channels"
)

// ChannelBoltDBRepository implements the ChannelRepository port using BoltDB.
type ChannelBoltDBRepository struct {
	db *bbolt.DB
}

// NewChannelBoltDBRepository creates a new BoltDB-backed channel repository.
// It initializes the required bucket if it doesn't exist.
func NewChannelBoltDBRepository(db *bbolt.DB) (*ChannelBoltDBRepository, error) {
	if db == nil {
		return nil, errors.New("db cannot be nil")
	}

	err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(channelsBucket))
		return err
	})
	if err != nil {
		return nil, err
	}

	return &ChannelBoltDBRepository{db: db}, nil
}

// channelDTO is used for JSON serialization.
type channelDTO struct {
	ID            string `json:"id"`
	ChannelID     string `json:"channel_id"`
	Type          string `json:"channel_type"`
	Name          string `json:"channel_name"`
	NetworkID     int    `json:"network_id"`
	ServiceID     int    `json:"service_id"`
	RemoconID     int    `json:"remocon_id"`
	ChannelNumber string `json:"channel_number"`
	IsSubchannel  bool   `json:"is_subchannel"`
}

func channelToDTO(ch channel.Channel) channelDTO {
	p := ch.Params()
	return channelDTO{
		ID:            p.ID,
		ChannelID:     p.ChannelID,
		Type:          string(p.Type),
		Name:          p.Name,
		NetworkID:     p.NetworkID,
		ServiceID:     p.ServiceID,
		RemoconID:     p.RemoconID,
		ChannelNumber: p.ChannelNumber,
		IsSubchannel:  p.IsSubchannel,
	}
}

func dtoToChannel(dto channelDTO) (channel.Channel, error) {
	return channel.NewChannel(channel.Params{
		ID:            dto.ID,
		ChannelID:     dto.ChannelID,
		Type:          channel.Type(dto.Type),
		Name:          dto.Name,
		NetworkID:     dto.NetworkID,
		ServiceID:     dto.ServiceID,
		RemoconID:     dto.RemoconID,
		ChannelNumber: dto.ChannelNumber,
		IsSubchannel:  dto.IsSubchannel,
	})
}

// FindByID retrieves a channel by its catalog key from BoltDB.
func (r *ChannelBoltDBRepository) FindByID(ctx context.Context, id string) (channel.Channel, error) {
	if err := ctx.Err(); err != nil {
		return channel.Channel{}, err
	}

	var ch channel.Channel

	err := r.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(channelsBucket))
		if bucket == nil {
			return errors.New("channels bucket not found")
		}

		data := bucket.Get([]byte(id))
		if data == nil {
			return channel.ErrChannelNotFound
		}

		var dto channelDTO
		if err := json.Unmarshal(data, &dto); err != nil {
			return err
		}

		reconstructed, err := dtoToChannel(dto)
		if err != nil {
			return err
		}

		ch = reconstructed
		return nil
	})

	return ch, err
}

// FindByChannelID retrieves a channel by its URL identifier.
func (r *ChannelBoltDBRepository) FindByChannelID(ctx context.Context, channelID string) (channel.Channel, error) {
	return r.findFirst(ctx, func(ch channel.Channel) bool {
		return ch.ChannelID() == channelID
	})
}

// FindByNetworkAndService retrieves the channel broadcasting a service.
func (r *ChannelBoltDBRepository) FindByNetworkAndService(ctx context.Context, networkID, serviceID int) (channel.Channel, error) {
	return r.findFirst(ctx, func(ch channel.Channel) bool {
		return ch.NetworkID() == networkID && ch.ServiceID() == serviceID
	})
}

// FindByNetwork retrieves all channels of a network ordered by service id.
func (r *ChannelBoltDBRepository) FindByNetwork(ctx context.Context, networkID int) ([]channel.Channel, error) {
	channels, err := r.scan(ctx, func(ch channel.Channel) bool {
		return ch.NetworkID() == networkID
	})
	if err != nil {
		return nil, err
	}
	sortByServiceID(channels)
	return channels, nil
}

// FindAll retrieves all channels from BoltDB.
func (r *ChannelBoltDBRepository) FindAll(ctx context.Context) ([]channel.Channel, error) {
	channels, err := r.scan(ctx, func(channel.Channel) bool { return true })
	if err != nil {
		return nil, err
	}
	sortForListing(channels)
	return channels, nil
}

// ReplaceAll drops every stored channel and writes channels in a single transaction.
func (r *ChannelBoltDBRepository) ReplaceAll(ctx context.Context, channels []channel.Channel) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return r.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket([]byte(channelsBucket)); err != nil && !errors.Is(err, bbolt.ErrBucketNotFound) {
			return err
		}
		bucket, err := tx.CreateBucket([]byte(channelsBucket))
		if err != nil {
			return err
		}

		for _, ch := range channels {
			data, err := json.Marshal(channelToDTO(ch))
			if err != nil {
				return err
			}
			if err := bucket.Put([]byte(ch.ID()), data); err != nil {
				return err
			}
		}
		return nil
	})
}

// Ping checks if the BoltDB database is accessible and operational.
func (r *ChannelBoltDBRepository) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return r.db.View(func(tx *bbolt.Tx) error {
		if tx.Bucket([]byte(channelsBucket)) == nil {
			return errors.New("channels bucket not found")
		}
		return nil
	})
}

func (r *ChannelBoltDBRepository) findFirst(ctx context.Context, match func(channel.Channel) bool) (channel.Channel, error) {
	channels, err := r.scan(ctx, match)
	if err != nil {
		return channel.Channel{}, err
	}
	if len(channels) == 0 {
		return channel.Channel{}, channel.ErrChannelNotFound
	}
	return channels[0], nil
}

// scan walks the bucket in key order and collects matching channels.
func (r *ChannelBoltDBRepository) scan(ctx context.Context, match func(channel.Channel) bool) ([]channel.Channel, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	channels := []channel.Channel{}

	err := r.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(channelsBucket))
		if bucket == nil {
			return errors.New("channels bucket not found")
		}

		return bucket.ForEach(func(k, v []byte) error {
			var dto channelDTO
			if err := json.Unmarshal(v, &dto); err != nil {
				return err
			}

			ch, err := dtoToChannel(dto)
			if err != nil {
				return err
			}

			if match(ch) {
				channels = append(channels, ch)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	return channels, nil
}
