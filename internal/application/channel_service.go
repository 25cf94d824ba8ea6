package application

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alorle/tv-channels/internal/channel"
	"github.com/alorle/tv-channels/internal/port/driven"
	"github.com/alorle/tv-channels/internal/program"
)

// programWindow is how far ahead the guide is read for present/following.
const programWindow = 24 * time.Hour

// ChannelView is a channel together with its current and next program.
type ChannelView struct {
	Channel   channel.Channel
	IsDisplay bool
	Present   *program.Program
	Following *program.Program
}

// ChannelService provides use cases for browsing the channel catalog.
// It depends only on domain packages and port interfaces.
type ChannelService struct {
	channelRepo driven.ChannelRepository
	programRepo driven.ProgramRepository
	now         func() time.Time
}

// NewChannelService creates a new ChannelService with the given repositories.
func NewChannelService(channelRepo driven.ChannelRepository, programRepo driven.ProgramRepository) *ChannelService {
	return &ChannelService{
		channelRepo: channelRepo,
		programRepo: programRepo,
		now:         time.Now,
	}
}

// ListChannels returns every channel grouped by broadcast type. Every type in
// channel.Types has an entry, possibly empty. Within a group channels keep the
// catalog order.
func (s *ChannelService) ListChannels(ctx context.Context) (map[channel.Type][]ChannelView, error) {
	now := s.now()

	var (
		channels []channel.Channel
		programs []program.Program
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		channels, err = s.channelRepo.FindAll(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		programs, err = s.programRepo.FindBetween(gctx, now, now.Add(programWindow))
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	programs = program.EndingBy(programs, now.Add(programWindow))

	groups := make(map[channel.Type][]ChannelView, len(channel.Types))
	for _, t := range channel.Types {
		groups[t] = []ChannelView{}
	}
	for _, ch := range channels {
		groups[ch.Type()] = append(groups[ch.Type()], newChannelView(ch, programs, now))
	}
	return groups, nil
}

// GetChannel returns one channel by its URL identifier.
// Returns channel.ErrChannelNotFound if the channel does not exist.
func (s *ChannelService) GetChannel(ctx context.Context, channelID string) (ChannelView, error) {
	now := s.now()

	var (
		ch       channel.Channel
		programs []program.Program
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		ch, err = s.channelRepo.FindByChannelID(gctx, channelID)
		return err
	})
	g.Go(func() error {
		var err error
		programs, err = s.programRepo.FindBetween(gctx, now, now.Add(programWindow))
		return err
	})
	if err := g.Wait(); err != nil {
		return ChannelView{}, err
	}
	programs = program.EndingBy(programs, now.Add(programWindow))

	return newChannelView(ch, programs, now), nil
}

// newChannelView attaches the present and following programs. A sub-channel
// with nothing on air is hidden from listings.
func newChannelView(ch channel.Channel, programs []program.Program, now time.Time) ChannelView {
	view := ChannelView{Channel: ch, IsDisplay: true}
	if p, ok := program.Present(programs, ch.ChannelID(), now); ok {
		view.Present = &p
	}
	if p, ok := program.Following(programs, ch.ChannelID(), now); ok {
		view.Following = &p
	}
	if ch.IsSubchannel() && view.Present == nil {
		view.IsDisplay = false
	}
	return view
}
