package driver

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"testing/fstest"
	"time"

	"github.com/alorle/tv-channels/internal/adapter/driven"
	"github.com/alorle/tv-channels/internal/application"
	"github.com/alorle/tv-channels/internal/channel"
	"github.com/alorle/tv-channels/internal/logo"
	"github.com/alorle/tv-channels/internal/program"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func mustChannel(t *testing.T, p channel.Params) channel.Channel {
	t.Helper()
	ch, err := channel.NewChannel(p)
	if err != nil {
		t.Fatalf("failed to create channel %s: %v", p.ID, err)
	}
	return ch
}

func mustProgram(t *testing.T, p program.Params) program.Program {
	t.Helper()
	pr, err := program.NewProgram(p)
	if err != nil {
		t.Fatalf("failed to create program %s: %v", p.ID, err)
	}
	return pr
}

// testServer bundles the handlers under test over an in-memory catalog.
type testServer struct {
	channelRepo *driven.ChannelMemDBRepository
	programRepo *driven.ProgramMemDBRepository
	logos       fstest.MapFS
	channels    *application.ChannelService
	logoService *application.LogoService
	handler     *ChannelHTTPHandler
}

func newTestServer(t *testing.T, backend logo.BackendConfig, backends ...application.RemoteBackend) *testServer {
	t.Helper()

	db, err := driven.NewCatalogMemDB()
	if err != nil {
		t.Fatalf("failed to create memdb: %v", err)
	}
	channelRepo, err := driven.NewChannelMemDBRepository(db)
	if err != nil {
		t.Fatalf("failed to create channel repository: %v", err)
	}
	programRepo, err := driven.NewProgramMemDBRepository(db)
	if err != nil {
		t.Fatalf("failed to create program repository: %v", err)
	}

	now := time.Now()
	channels := []channel.Channel{
		mustChannel(t, channel.Params{ID: "NID32736-SID1024", ChannelID: "gr011", Type: channel.TypeGR, Name: "TOKYO MX1", NetworkID: 32736, ServiceID: 1024, RemoconID: 1, ChannelNumber: "011"}),
		mustChannel(t, channel.Params{ID: "NID32736-SID1025", ChannelID: "gr012", Type: channel.TypeGR, Name: "TOKYO MX2", NetworkID: 32736, ServiceID: 1025, RemoconID: 1, ChannelNumber: "012", IsSubchannel: true}),
		mustChannel(t, channel.Params{ID: "NID4-SID211", ChannelID: "bs211", Type: channel.TypeBS, Name: "BS11イレブン", NetworkID: 4, ServiceID: 211, RemoconID: 11, ChannelNumber: "211"}),
		mustChannel(t, channel.Params{ID: "NID6-SID55", ChannelID: "cs055", Type: channel.TypeCS, Name: "ショップチャンネル", NetworkID: 6, ServiceID: 55, RemoconID: 55, ChannelNumber: "055"}),
	}
	programs := []program.Program{
		mustProgram(t, program.Params{
			ID:        "NID32736-SID1024-EID1",
			ChannelID: "gr011",
			Title:     "ニュース7",
			StartTime: now.Add(-10 * time.Minute),
			EndTime:   now.Add(20 * time.Minute),
			Detail: []program.DetailItem{
				{Heading: "番組内容", Body: "国内外のニュース"},
				{Heading: "出演者", Body: "キャスター"},
			},
			Genres: []program.Genre{{Major: "ニュース・報道", Middle: "定時・総合"}},
		}),
		mustProgram(t, program.Params{
			ID:        "NID32736-SID1024-EID2",
			ChannelID: "gr011",
			Title:     "天気予報",
			StartTime: now.Add(20 * time.Minute),
			EndTime:   now.Add(30 * time.Minute),
		}),
	}
	if err := channelRepo.ReplaceAll(context.Background(), channels); err != nil {
		t.Fatalf("failed to seed channels: %v", err)
	}
	if err := programRepo.ReplaceAll(context.Background(), programs); err != nil {
		t.Fatalf("failed to seed programs: %v", err)
	}

	logos := fstest.MapFS{
		"NID32736-SID1024.png": {Data: []byte("\x89PNG nhk")},
		"default.png":          {Data: []byte("\x89PNG default")},
	}
	store := driven.NewLogoFSStore(logos, discardLogger())
	resolver := application.NewDefaultLogoResolver(store, channelRepo, backends, discardLogger())

	s := &testServer{
		channelRepo: channelRepo,
		programRepo: programRepo,
		logos:       logos,
		channels:    application.NewChannelService(channelRepo, programRepo),
		logoService: application.NewLogoService(channelRepo, store, resolver, backend, discardLogger()),
	}
	s.handler = NewChannelHTTPHandler(s.channels, s.logoService, 30*24*time.Hour, discardLogger())
	return s
}
