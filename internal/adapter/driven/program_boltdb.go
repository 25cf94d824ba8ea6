package driven

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.etcd.io/bbolt"

	"github.com/alorle/tv-channels/internal/program"
)

const (
	programsBucket = "programs"
)

// ProgramBoltDBRepository implements the ProgramRepository port using BoltDB.
type ProgramBoltDBRepository struct {
	db *bbolt.DB
}

// NewProgramBoltDBRepository creates a new BoltDB-backed program repository.
func NewProgramBoltDBRepository(db *bbolt.DB) (*ProgramBoltDBRepository, error) {
	if db == nil {
		return nil, errors.New("db cannot be nil")
	}

	err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(programsBucket))
		return err
	})
	if err != nil {
		return nil, err
	}

	return &ProgramBoltDBRepository{db: db}, nil
}

type detailItemDTO struct {
	Heading string `json:"heading"`
	Body    string `json:"body"`
}

type genreDTO struct {
	Major  string `json:"major"`
	Middle string `json:"middle"`
}

// programDTO is used for JSON serialization.
type programDTO struct {
	ID          string          `json:"id"`
	ChannelID   string          `json:"channel_id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	StartTime   string          `json:"start_time"`
	EndTime     string          `json:"end_time"`
	Detail      []detailItemDTO `json:"detail"`
	Genres      []genreDTO      `json:"genre"`
}

func programToDTO(p program.Program) programDTO {
	dto := programDTO{
		ID:          p.ID(),
		ChannelID:   p.ChannelID(),
		Title:       p.Title(),
		Description: p.Description(),
		StartTime:   p.StartTime().Format(time.RFC3339),
		EndTime:     p.EndTime().Format(time.RFC3339),
	}
	for _, d := range p.Detail() {
		dto.Detail = append(dto.Detail, detailItemDTO{Heading: d.Heading, Body: d.Body})
	}
	for _, g := range p.Genres() {
		dto.Genres = append(dto.Genres, genreDTO{Major: g.Major, Middle: g.Middle})
	}
	return dto
}

func dtoToProgram(dto programDTO) (program.Program, error) {
	start, err := time.Parse(time.RFC3339, dto.StartTime)
	if err != nil {
		return program.Program{}, err
	}
	end, err := time.Parse(time.RFC3339, dto.EndTime)
	if err != nil {
		return program.Program{}, err
	}

	params := program.Params{
		ID:          dto.ID,
		ChannelID:   dto.ChannelID,
		Title:       dto.Title,
		Description: dto.Description,
		StartTime:   start,
		EndTime:     end,
	}
	for _, d := range dto.Detail {
		params.Detail = append(params.Detail, program.DetailItem{Heading: d.Heading, Body: d.Body})
	}
	for _, g := range dto.Genres {
		params.Genres = append(params.Genres, program.Genre{Major: g.Major, Middle: g.Middle})
	}
	return program.NewProgram(params)
}

// FindBetween retrieves programs on air at some point between from and to.
func (r *ProgramBoltDBRepository) FindBetween(ctx context.Context, from, to time.Time) ([]program.Program, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	programs := []program.Program{}

	err := r.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(programsBucket))
		if bucket == nil {
			return errors.New("programs bucket not found")
		}

		return bucket.ForEach(func(k, v []byte) error {
			var dto programDTO
			if err := json.Unmarshal(v, &dto); err != nil {
				return err
			}

			p, err := dtoToProgram(dto)
			if err != nil {
				return err
			}

			if overlaps(p, from, to) {
				programs = append(programs, p)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sortByStartTime(programs)
	return programs, nil
}

// ReplaceAll drops every stored program and writes programs in a single transaction.
func (r *ProgramBoltDBRepository) ReplaceAll(ctx context.Context, programs []program.Program) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return r.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket([]byte(programsBucket)); err != nil && !errors.Is(err, bbolt.ErrBucketNotFound) {
			return err
		}
		bucket, err := tx.CreateBucket([]byte(programsBucket))
		if err != nil {
			return err
		}

		for _, p := range programs {
			data, err := json.Marshal(programToDTO(p))
			if err != nil {
				return err
			}
			if err := bucket.Put([]byte(p.ID()), data); err != nil {
				return err
			}
		}
		return nil
	})
}
