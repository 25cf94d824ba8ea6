package logo

import (
	"strings"

	"github.com/alorle/tv-channels/internal/channel"
)

type hardcodedEntry struct {
	namePrefix string
	key        string
}

// Terrestrial broadcasters whose logo does not vary by region. Cable
// community channels use different NID/SID per region, so they are matched
// by name as well.
var hardcodedGR = []hardcodedEntry{
	{namePrefix: "NHK総合", key: "NID32736-SID1024"},
	{namePrefix: "NHKEテレ", key: "NID32737-SID1032"},
	{namePrefix: "J:COMテレビ", key: "NID32397-SID23656"},
	{namePrefix: "J:COMチャンネル", key: "NID32399-SID23672"},
	{namePrefix: "eo光チャンネル", key: "NID32127-SID41080"},
	{namePrefix: "ZTV", key: "NID32047-SID46200"},
}

// StarDigioKey is shared by every STARDIGIO channel; they have no artwork of their own.
const StarDigioKey = "NID1-SID400"

// HardcodedKey returns the bundled logo key for channels whose logo is known
// in advance. Only GR channels are matched by name prefix (first match wins,
// case-sensitive); STARDIGIO channels always map to StarDigioKey.
func HardcodedKey(ch channel.Channel) (string, bool) {
	switch ch.Type() {
	case channel.TypeGR:
		for _, e := range hardcodedGR {
			if strings.HasPrefix(ch.Name(), e.namePrefix) {
				return e.key, true
			}
		}
	case channel.TypeSTARDIGIO:
		return StarDigioKey, true
	}
	return "", false
}
