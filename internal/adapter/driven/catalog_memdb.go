package driven

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hashicorp/go-memdb"

	"github.com/alorle/tv-channels/internal/channel"
	"github.com/alorle/tv-channels/internal/program"
)

const (
	channelsTable = "channels"
	programsTable = "programs"
)

// channelRecord is the row stored in go-memdb. Indexed fields are copied out
// of the channel because memdb indexers read exported struct fields.
type channelRecord struct {
	ID        string
	ChannelID string
	NetworkID int
	ServiceID int
	Channel   channel.Channel
}

type programRecord struct {
	ID      string
	Program program.Program
}

// NewCatalogMemDB creates an empty in-memory catalog with channel and program tables.
func NewCatalogMemDB() (*memdb.MemDB, error) {
	schema := &memdb.DBSchema{
		Tables: map[string]*memdb.TableSchema{
			channelsTable: {
				Name: channelsTable,
				Indexes: map[string]*memdb.IndexSchema{
					"id": {
						Name:    "id",
						Unique:  true,
						Indexer: &memdb.StringFieldIndex{Field: "ID"},
					},
					"channel_id": {
						Name:    "channel_id",
						Unique:  true,
						Indexer: &memdb.StringFieldIndex{Field: "ChannelID"},
					},
					"network": {
						Name:    "network",
						Indexer: &memdb.IntFieldIndex{Field: "NetworkID"},
					},
					"network_service": {
						Name:   "network_service",
						Unique: true,
						Indexer: &memdb.CompoundIndex{
							Indexes: []memdb.Indexer{
								&memdb.IntFieldIndex{Field: "NetworkID"},
								&memdb.IntFieldIndex{Field: "ServiceID"},
							},
						},
					},
				},
			},
			programsTable: {
				Name: programsTable,
				Indexes: map[string]*memdb.IndexSchema{
					"id": {
						Name:    "id",
						Unique:  true,
						Indexer: &memdb.StringFieldIndex{Field: "ID"},
					},
				},
			},
		},
	}

	return memdb.NewMemDB(schema)
}

// ChannelMemDBRepository implements the ChannelRepository port on top of go-memdb.
type ChannelMemDBRepository struct {
	db *memdb.MemDB
}

// NewChannelMemDBRepository creates a channel repository backed by db.
func NewChannelMemDBRepository(db *memdb.MemDB) (*ChannelMemDBRepository, error) {
	if db == nil {
		return nil, errors.New("db cannot be nil")
	}
	return &ChannelMemDBRepository{db: db}, nil
}

// FindByID retrieves a channel by its catalog key.
func (r *ChannelMemDBRepository) FindByID(ctx context.Context, id string) (channel.Channel, error) {
	return r.first(ctx, "id", id)
}

// FindByChannelID retrieves a channel by its URL identifier.
func (r *ChannelMemDBRepository) FindByChannelID(ctx context.Context, channelID string) (channel.Channel, error) {
	return r.first(ctx, "channel_id", channelID)
}

// FindByNetworkAndService retrieves the channel broadcasting a service.
func (r *ChannelMemDBRepository) FindByNetworkAndService(ctx context.Context, networkID, serviceID int) (channel.Channel, error) {
	return r.first(ctx, "network_service", networkID, serviceID)
}

// FindByNetwork retrieves all channels of a network ordered by service id.
func (r *ChannelMemDBRepository) FindByNetwork(ctx context.Context, networkID int) ([]channel.Channel, error) {
	channels, err := r.list(ctx, "network", networkID)
	if err != nil {
		return nil, err
	}
	sortByServiceID(channels)
	return channels, nil
}

// FindAll retrieves all channels.
func (r *ChannelMemDBRepository) FindAll(ctx context.Context) ([]channel.Channel, error) {
	channels, err := r.list(ctx, "id")
	if err != nil {
		return nil, err
	}
	sortForListing(channels)
	return channels, nil
}

// ReplaceAll swaps the channel table contents in a single write transaction.
// Readers keep seeing the previous catalog until the commit.
func (r *ChannelMemDBRepository) ReplaceAll(ctx context.Context, channels []channel.Channel) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	txn := r.db.Txn(true)
	defer txn.Abort()

	if _, err := txn.DeleteAll(channelsTable, "id"); err != nil {
		return err
	}
	for _, ch := range channels {
		rec := &channelRecord{
			ID:        ch.ID(),
			ChannelID: ch.ChannelID(),
			NetworkID: ch.NetworkID(),
			ServiceID: ch.ServiceID(),
			Channel:   ch,
		}
		if err := txn.Insert(channelsTable, rec); err != nil {
			return fmt.Errorf("failed to insert channel %s: %w", ch.ID(), err)
		}
	}

	txn.Commit()
	return nil
}

// Ping always succeeds for the in-memory catalog unless ctx is done.
func (r *ChannelMemDBRepository) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (r *ChannelMemDBRepository) first(ctx context.Context, index string, args ...interface{}) (channel.Channel, error) {
	if err := ctx.Err(); err != nil {
		return channel.Channel{}, err
	}

	txn := r.db.Txn(false)
	defer txn.Abort()

	raw, err := txn.First(channelsTable, index, args...)
	if err != nil {
		return channel.Channel{}, err
	}
	if raw == nil {
		return channel.Channel{}, channel.ErrChannelNotFound
	}
	return raw.(*channelRecord).Channel, nil
}

func (r *ChannelMemDBRepository) list(ctx context.Context, index string, args ...interface{}) ([]channel.Channel, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	txn := r.db.Txn(false)
	defer txn.Abort()

	it, err := txn.Get(channelsTable, index, args...)
	if err != nil {
		return nil, err
	}

	channels := []channel.Channel{}
	for raw := it.Next(); raw != nil; raw = it.Next() {
		channels = append(channels, raw.(*channelRecord).Channel)
	}
	return channels, nil
}

// ProgramMemDBRepository implements the ProgramRepository port on top of go-memdb.
type ProgramMemDBRepository struct {
	db *memdb.MemDB
}

// NewProgramMemDBRepository creates a program repository backed by db.
func NewProgramMemDBRepository(db *memdb.MemDB) (*ProgramMemDBRepository, error) {
	if db == nil {
		return nil, errors.New("db cannot be nil")
	}
	return &ProgramMemDBRepository{db: db}, nil
}

// FindBetween retrieves programs on air at some point between from and to.
func (r *ProgramMemDBRepository) FindBetween(ctx context.Context, from, to time.Time) ([]program.Program, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	txn := r.db.Txn(false)
	defer txn.Abort()

	it, err := txn.Get(programsTable, "id")
	if err != nil {
		return nil, err
	}

	programs := []program.Program{}
	for raw := it.Next(); raw != nil; raw = it.Next() {
		p := raw.(*programRecord).Program
		if overlaps(p, from, to) {
			programs = append(programs, p)
		}
	}
	sortByStartTime(programs)
	return programs, nil
}

// ReplaceAll swaps the program table contents in a single write transaction.
func (r *ProgramMemDBRepository) ReplaceAll(ctx context.Context, programs []program.Program) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	txn := r.db.Txn(true)
	defer txn.Abort()

	if _, err := txn.DeleteAll(programsTable, "id"); err != nil {
		return err
	}
	for _, p := range programs {
		if err := txn.Insert(programsTable, &programRecord{ID: p.ID(), Program: p}); err != nil {
			return fmt.Errorf("failed to insert program %s: %w", p.ID(), err)
		}
	}

	txn.Commit()
	return nil
}
