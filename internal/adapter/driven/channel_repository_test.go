package driven

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/alorle/tv-channels/internal/channel"
	"github.com/alorle/tv-channels/internal/port/driven"
	"github.com/alorle/tv-channels/internal/program"
)

// testChannelRepository runs the behaviour every ChannelRepository adapter shares.
func testChannelRepository(t *testing.T, newRepo func(t *testing.T) driven.ChannelRepository) {
	ctx := context.Background()

	t.Run("empty catalog", func(t *testing.T) {
		repo := newRepo(t)

		all, err := repo.FindAll(ctx)
		if err != nil {
			t.Fatalf("FindAll failed: %v", err)
		}
		if len(all) != 0 {
			t.Errorf("expected no channels, got %d", len(all))
		}
		if _, err := repo.FindByID(ctx, "NID32736-SID1024"); !errors.Is(err, channel.ErrChannelNotFound) {
			t.Errorf("expected ErrChannelNotFound, got %v", err)
		}
		if err := repo.Ping(ctx); err != nil {
			t.Errorf("expected ping to succeed, got %v", err)
		}
	})

	t.Run("lookups", func(t *testing.T) {
		repo := newRepo(t)
		if err := repo.ReplaceAll(ctx, sampleChannels(t)); err != nil {
			t.Fatalf("ReplaceAll failed: %v", err)
		}

		ch, err := repo.FindByID(ctx, "NID4-SID212")
		if err != nil {
			t.Fatalf("FindByID failed: %v", err)
		}
		if ch.ChannelID() != "bs212" || !ch.IsSubchannel() || ch.ChannelNumber() != "212" {
			t.Errorf("unexpected channel %+v", ch.Params())
		}

		ch, err = repo.FindByChannelID(ctx, "gr011")
		if err != nil {
			t.Fatalf("FindByChannelID failed: %v", err)
		}
		if ch.Name() != "NHK総合1・東京" {
			t.Errorf("expected NHK総合1・東京, got %s", ch.Name())
		}

		ch, err = repo.FindByNetworkAndService(ctx, 4, 211)
		if err != nil {
			t.Fatalf("FindByNetworkAndService failed: %v", err)
		}
		if ch.ID() != "NID4-SID211" {
			t.Errorf("expected NID4-SID211, got %s", ch.ID())
		}

		if _, err := repo.FindByChannelID(ctx, "gr999"); !errors.Is(err, channel.ErrChannelNotFound) {
			t.Errorf("expected ErrChannelNotFound, got %v", err)
		}
		if _, err := repo.FindByNetworkAndService(ctx, 4, 999); !errors.Is(err, channel.ErrChannelNotFound) {
			t.Errorf("expected ErrChannelNotFound, got %v", err)
		}
	})

	t.Run("find by network orders by service id", func(t *testing.T) {
		repo := newRepo(t)
		if err := repo.ReplaceAll(ctx, sampleChannels(t)); err != nil {
			t.Fatalf("ReplaceAll failed: %v", err)
		}

		got, err := repo.FindByNetwork(ctx, 32736)
		if err != nil {
			t.Fatalf("FindByNetwork failed: %v", err)
		}
		if want := []string{"gr011", "gr012"}; !reflect.DeepEqual(channelIDs(got), want) {
			t.Errorf("expected %v, got %v", want, channelIDs(got))
		}

		got, err = repo.FindByNetwork(ctx, 1)
		if err != nil {
			t.Fatalf("FindByNetwork failed: %v", err)
		}
		if len(got) != 0 {
			t.Errorf("expected no channels for unknown network, got %v", channelIDs(got))
		}
	})

	t.Run("find all orders by channel number", func(t *testing.T) {
		repo := newRepo(t)
		if err := repo.ReplaceAll(ctx, sampleChannels(t)); err != nil {
			t.Fatalf("ReplaceAll failed: %v", err)
		}

		got, err := repo.FindAll(ctx)
		if err != nil {
			t.Fatalf("FindAll failed: %v", err)
		}
		if want := []string{"gr011", "gr012", "bs211", "bs212"}; !reflect.DeepEqual(channelIDs(got), want) {
			t.Errorf("expected %v, got %v", want, channelIDs(got))
		}
	})

	t.Run("replace all drops previous catalog", func(t *testing.T) {
		repo := newRepo(t)
		if err := repo.ReplaceAll(ctx, sampleChannels(t)); err != nil {
			t.Fatalf("ReplaceAll failed: %v", err)
		}
		replacement := []channel.Channel{
			mustChannel(t, channel.Params{ID: "NID7-SID400", ChannelID: "cs400", Type: channel.TypeCS, NetworkID: 7, ServiceID: 400, ChannelNumber: "400"}),
		}
		if err := repo.ReplaceAll(ctx, replacement); err != nil {
			t.Fatalf("ReplaceAll failed: %v", err)
		}

		got, err := repo.FindAll(ctx)
		if err != nil {
			t.Fatalf("FindAll failed: %v", err)
		}
		if want := []string{"cs400"}; !reflect.DeepEqual(channelIDs(got), want) {
			t.Errorf("expected %v, got %v", want, channelIDs(got))
		}
		if _, err := repo.FindByChannelID(ctx, "gr011"); !errors.Is(err, channel.ErrChannelNotFound) {
			t.Errorf("expected previous channel to be gone, got %v", err)
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		repo := newRepo(t)
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		if _, err := repo.FindAll(cctx); !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
		if err := repo.ReplaceAll(cctx, nil); !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})
}

// testProgramRepository runs the behaviour every ProgramRepository adapter shares.
func testProgramRepository(t *testing.T, newRepo func(t *testing.T) driven.ProgramRepository) {
	ctx := context.Background()
	base := mustTime(t, "2024-04-01T12:00:00+09:00")

	t.Run("find between returns overlapping programs by start time", func(t *testing.T) {
		repo := newRepo(t)
		programs := []program.Program{
			mustProgram(t, "p3", "gr011", base.Add(2*time.Hour), time.Hour),
			mustProgram(t, "p1", "gr011", base.Add(-time.Hour), 90*time.Minute),
			mustProgram(t, "p0", "gr011", base.Add(-3*time.Hour), time.Hour),
			mustProgram(t, "p2", "bs211", base.Add(30*time.Minute), time.Hour),
			mustProgram(t, "p4", "gr011", base.Add(30*time.Hour), time.Hour),
		}
		if err := repo.ReplaceAll(ctx, programs); err != nil {
			t.Fatalf("ReplaceAll failed: %v", err)
		}

		got, err := repo.FindBetween(ctx, base, base.Add(24*time.Hour))
		if err != nil {
			t.Fatalf("FindBetween failed: %v", err)
		}
		if want := []string{"p1", "p2", "p3"}; !reflect.DeepEqual(programIDs(got), want) {
			t.Errorf("expected %v, got %v", want, programIDs(got))
		}

		p := got[0]
		if p.ChannelID() != "gr011" || p.Title() != "Program p1" {
			t.Errorf("unexpected program %+v", p.Params())
		}
		if !p.StartTime().Equal(base.Add(-time.Hour)) || !p.EndTime().Equal(base.Add(30*time.Minute)) {
			t.Errorf("unexpected period %v - %v", p.StartTime(), p.EndTime())
		}
		if len(p.Detail()) != 1 || p.Detail()[0].Heading != "出演者" {
			t.Errorf("expected detail to survive storage, got %+v", p.Detail())
		}
		if len(p.Genres()) != 1 || p.Genres()[0].Major != "ニュース／報道" {
			t.Errorf("expected genres to survive storage, got %+v", p.Genres())
		}
	})

	t.Run("replace all drops previous guide", func(t *testing.T) {
		repo := newRepo(t)
		if err := repo.ReplaceAll(ctx, []program.Program{mustProgram(t, "old", "gr011", base, time.Hour)}); err != nil {
			t.Fatalf("ReplaceAll failed: %v", err)
		}
		if err := repo.ReplaceAll(ctx, []program.Program{mustProgram(t, "new", "gr011", base, time.Hour)}); err != nil {
			t.Fatalf("ReplaceAll failed: %v", err)
		}

		got, err := repo.FindBetween(ctx, base, base.Add(time.Hour))
		if err != nil {
			t.Fatalf("FindBetween failed: %v", err)
		}
		if want := []string{"new"}; !reflect.DeepEqual(programIDs(got), want) {
			t.Errorf("expected %v, got %v", want, programIDs(got))
		}
	})
}

func mustTime(t *testing.T, s string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t.Fatalf("bad time %q: %v", s, err)
	}
	return ts
}
