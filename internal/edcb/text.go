package edcb

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/unicode"
)

var (
	bomUTF16LE = []byte{0xff, 0xfe}
	bomUTF8    = []byte{0xef, 0xbb, 0xbf}
)

// DecodeText converts a text file returned by EpgTimerSrv into a string.
// Files carrying a UTF-16LE or UTF-8 byte order mark are decoded accordingly,
// BOM-less valid UTF-8 is taken as is, and anything else is Shift_JIS, the
// legacy encoding EDCB writes its ini files in.
func DecodeText(b []byte) string {
	switch {
	case len(b) == 0:
		return ""
	case bytes.HasPrefix(b, bomUTF16LE):
		out, err := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder().Bytes(b[2:])
		if err != nil {
			return ""
		}
		return string(out)
	case bytes.HasPrefix(b, bomUTF8):
		return strings.ToValidUTF8(string(b[3:]), "\uFFFD")
	case utf8.Valid(b):
		return string(b)
	}

	out, err := japanese.ShiftJIS.NewDecoder().Bytes(b)
	if err != nil {
		return strings.ToValidUTF8(string(b), "\uFFFD")
	}
	return string(out)
}
