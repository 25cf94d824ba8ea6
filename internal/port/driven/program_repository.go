package driven

import (
	"context"
	"time"

	"github.com/alorle/tv-channels/internal/program"
)

// ProgramRepository defines the interface for program guide persistence.
type ProgramRepository interface {
	// FindBetween retrieves programs that end at or after from and start at or
	// before to, ordered by start time.
	FindBetween(ctx context.Context, from, to time.Time) ([]program.Program, error)

	// ReplaceAll atomically swaps every stored program for programs.
	ReplaceAll(ctx context.Context, programs []program.Program) error
}
