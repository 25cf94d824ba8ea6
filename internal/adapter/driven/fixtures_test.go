package driven

import (
	"testing"
	"time"

	"github.com/alorle/tv-channels/internal/channel"
	"github.com/alorle/tv-channels/internal/program"
)

func mustChannel(t *testing.T, p channel.Params) channel.Channel {
	t.Helper()
	if p.Name == "" {
		p.Name = p.ID
	}
	ch, err := channel.NewChannel(p)
	if err != nil {
		t.Fatalf("failed to create channel %s: %v", p.ID, err)
	}
	return ch
}

func mustProgram(t *testing.T, id, channelID string, start time.Time, d time.Duration) program.Program {
	t.Helper()
	p, err := program.NewProgram(program.Params{
		ID:        id,
		ChannelID: channelID,
		Title:     "Program " + id,
		StartTime: start,
		EndTime:   start.Add(d),
		Detail:    []program.DetailItem{{Heading: "出演者", Body: "山田太郎"}},
		Genres:    []program.Genre{{Major: "ニュース／報道", Middle: "定時・総合"}},
	})
	if err != nil {
		t.Fatalf("failed to create program %s: %v", id, err)
	}
	return p
}

// sampleChannels returns a small catalog: two GR services sharing network
// 32736 (listed out of service id order) and a BS main/sub pair.
func sampleChannels(t *testing.T) []channel.Channel {
	t.Helper()
	return []channel.Channel{
		mustChannel(t, channel.Params{ID: "NID32736-SID1025", ChannelID: "gr012", Type: channel.TypeGR, Name: "NHK総合1・東京 サブ", NetworkID: 32736, ServiceID: 1025, RemoconID: 1, ChannelNumber: "012", IsSubchannel: true}),
		mustChannel(t, channel.Params{ID: "NID32736-SID1024", ChannelID: "gr011", Type: channel.TypeGR, Name: "NHK総合1・東京", NetworkID: 32736, ServiceID: 1024, RemoconID: 1, ChannelNumber: "011"}),
		mustChannel(t, channel.Params{ID: "NID4-SID211", ChannelID: "bs211", Type: channel.TypeBS, Name: "BS11イレブン", NetworkID: 4, ServiceID: 211, RemoconID: 11, ChannelNumber: "211"}),
		mustChannel(t, channel.Params{ID: "NID4-SID212", ChannelID: "bs212", Type: channel.TypeBS, Name: "BS11 サブ", NetworkID: 4, ServiceID: 212, RemoconID: 11, ChannelNumber: "212", IsSubchannel: true}),
	}
}

func channelIDs(channels []channel.Channel) []string {
	ids := make([]string, len(channels))
	for i, ch := range channels {
		ids[i] = ch.ChannelID()
	}
	return ids
}

func programIDs(programs []program.Program) []string {
	ids := make([]string, len(programs))
	for i, p := range programs {
		ids[i] = p.ID()
	}
	return ids
}
