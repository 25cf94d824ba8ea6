package edcb

import (
	"fmt"
	"strconv"
	"strings"
)

// LogoTypePreference lists logo type codes from best to worst quality.
// The order is significant; the numeric values are not.
var LogoTypePreference = []int{5, 2, 4, 1, 3, 0}

// ParseLogoIndex looks up the logo id of a service in the contents of
// LogoData.ini. Keys are the network and service ids as 4-digit hex
// ("7FE00400=1"). Returns -1 when the service is missing or its value is not
// an integer.
func ParseLogoIndex(ini string, networkID, serviceID int) int {
	target := fmt.Sprintf("%04X%04X", networkID, serviceID)
	for _, line := range splitLines(ini) {
		key, value, ok := strings.Cut(line, "=")
		if !ok || strings.ToUpper(strings.TrimSpace(key)) != target {
			continue
		}
		id, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return -1
		}
		return id
	}
	return -1
}

// ParseLogoDirectory finds the file name of a logo in a LogoData directory
// listing. Each listing line is three space-separated metadata fields
// followed by the file name; logo files are named
// "NNNN_LLL_VVV_TT.ext" (network id, logo id, version in hex, type in decimal).
func ParseLogoDirectory(index string, networkID, logoID, logoType int) (string, bool) {
	prefix := fmt.Sprintf("%04X_%03X_", networkID, logoID)
	typeTag := fmt.Sprintf("_%02d.", logoType)
	for _, line := range splitLines(index) {
		fields := strings.SplitN(line, " ", 4)
		if len(fields) != 4 {
			continue
		}
		name := fields[3]
		if len(name) < 16 {
			continue
		}
		if strings.ToUpper(name[0:9]) == prefix && name[12:16] == typeTag {
			return name, true
		}
	}
	return "", false
}

// FindLogoFile returns the best available logo file for a logo id, trying
// types in LogoTypePreference order.
func FindLogoFile(index string, networkID, logoID int) (string, bool) {
	for _, logoType := range LogoTypePreference {
		if name, ok := ParseLogoDirectory(index, networkID, logoID, logoType); ok {
			return name, true
		}
	}
	return "", false
}

func splitLines(s string) []string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.FieldsFunc(s, func(r rune) bool { return r == '\n' || r == '\r' })
}
