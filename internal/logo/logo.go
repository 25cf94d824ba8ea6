// Package logo holds the channel logo domain: image assets, the backend
// configuration that selects a remote logo source, and the table of
// broadcasters whose logo is the same everywhere.
package logo

import (
	"errors"
	"path"
	"strings"
)

// ErrNotFound is returned by logo sources that have no image for a channel.
var ErrNotFound = errors.New("logo not found")

// MediaType is the MIME type of a logo image.
type MediaType string

const (
	MediaTypePNG MediaType = "image/png"
	MediaTypeBMP MediaType = "image/bmp"
)

// MediaTypeFromFilename infers the media type from a file extension.
// ".bmp" in any case is a bitmap; everything else is treated as PNG.
func MediaTypeFromFilename(name string) MediaType {
	if strings.EqualFold(path.Ext(name), ".bmp") {
		return MediaTypeBMP
	}
	return MediaTypePNG
}

// Asset is a resolved logo image.
type Asset struct {
	Data      []byte
	MediaType MediaType
}

// Source names the strategy that produced an asset.
type Source string

const (
	SourceBundled    Source = "bundled"
	SourceHardcoded  Source = "hardcoded"
	SourceSubchannel Source = "subchannel"
	SourceMirakurun  Source = "mirakurun"
	SourceEDCB       Source = "edcb"
	SourceDefault    Source = "default"
	SourceNone       Source = "none"
)

// DefaultKey is the bundled logo used when nothing else matches.
const DefaultKey = "default"
