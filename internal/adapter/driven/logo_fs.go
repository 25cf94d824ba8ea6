package driven

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"strings"

	"github.com/alorle/tv-channels/internal/logo"
)

// LogoFSStore implements the BundledLogoStore port over a file system holding
// "<key>.png" files, usually os.DirFS of the bundled logo directory.
type LogoFSStore struct {
	fsys   fs.FS
	logger *slog.Logger
}

// NewLogoFSStore creates a bundled logo store reading from fsys.
func NewLogoFSStore(fsys fs.FS, logger *slog.Logger) *LogoFSStore {
	return &LogoFSStore{fsys: fsys, logger: logger}
}

// Lookup returns the bytes of "<key>.png". Keys that would escape the
// directory are never found.
func (s *LogoFSStore) Lookup(ctx context.Context, key string) (logo.Asset, bool) {
	if ctx.Err() != nil {
		return logo.Asset{}, false
	}

	name := key + ".png"
	if key == "" || strings.ContainsAny(key, `/\`) || !fs.ValidPath(name) {
		return logo.Asset{}, false
	}

	info, err := fs.Stat(s.fsys, name)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("failed to stat bundled logo", "key", key, "error", err)
		}
		return logo.Asset{}, false
	}
	if info.IsDir() {
		return logo.Asset{}, false
	}

	data, err := fs.ReadFile(s.fsys, name)
	if err != nil {
		s.logger.Warn("failed to read bundled logo", "key", key, "error", err)
		return logo.Asset{}, false
	}

	return logo.Asset{Data: data, MediaType: logo.MediaTypePNG}, true
}
