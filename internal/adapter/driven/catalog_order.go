package driven

import (
	"sort"
	"time"

	"github.com/alorle/tv-channels/internal/channel"
	"github.com/alorle/tv-channels/internal/program"
)

func sortByServiceID(channels []channel.Channel) {
	sort.SliceStable(channels, func(i, j int) bool {
		return channels[i].ServiceID() < channels[j].ServiceID()
	})
}

func sortForListing(channels []channel.Channel) {
	sort.SliceStable(channels, func(i, j int) bool {
		if channels[i].ChannelNumber() != channels[j].ChannelNumber() {
			return channels[i].ChannelNumber() < channels[j].ChannelNumber()
		}
		return channels[i].RemoconID() < channels[j].RemoconID()
	})
}

func sortByStartTime(programs []program.Program) {
	sort.SliceStable(programs, func(i, j int) bool {
		return programs[i].StartTime().Before(programs[j].StartTime())
	})
}

// overlaps reports whether p is on air at some point in [from, to].
func overlaps(p program.Program, from, to time.Time) bool {
	return !p.EndTime().Before(from) && !p.StartTime().After(to)
}
