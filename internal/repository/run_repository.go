package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	apperrors "github.com/spec-kit/milestone-tracker/pkg/util"
)

// Run is one archived replay.
type Run struct {
	ID           uuid.UUID
	Digest       string
	CommandCount int
	ResultCount  int
	Results      json.RawMessage
	CreatedAt    time.Time
}

// RunRepository persists replay runs.
type RunRepository interface {
	Save(ctx context.Context, run *Run) error
	Get(ctx context.Context, id uuid.UUID) (*Run, error)
	LatestByDigest(ctx context.Context, digest string) (*Run, error)
}

type runRepository struct {
	pool *pgxpool.Pool
}

// NewRunRepository builds repository.
func NewRunRepository(pool *pgxpool.Pool) RunRepository {
	return &runRepository{pool: pool}
}

func (r *runRepository) Save(ctx context.Context, run *Run) error {
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	const query = `
        INSERT INTO replay_runs (id, digest, command_count, result_count, results)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING created_at`
	return r.pool.QueryRow(ctx, query,
		run.ID,
		run.Digest,
		run.CommandCount,
		run.ResultCount,
		[]byte(run.Results),
	).Scan(&run.CreatedAt)
}

func (r *runRepository) Get(ctx context.Context, id uuid.UUID) (*Run, error) {
	const query = `
        SELECT id, digest, command_count, result_count, results, created_at
        FROM replay_runs WHERE id=$1`
	return r.scanOne(ctx, query, id)
}

func (r *runRepository) LatestByDigest(ctx context.Context, digest string) (*Run, error) {
	const query = `
        SELECT id, digest, command_count, result_count, results, created_at
        FROM replay_runs WHERE digest=$1 ORDER BY created_at DESC LIMIT 1`
	return r.scanOne(ctx, query, digest)
}

func (r *runRepository) scanOne(ctx context.Context, query string, arg any) (*Run, error) {
	var (
		run     Run
		results []byte
	)
	err := r.pool.QueryRow(ctx, query, arg).Scan(
		&run.ID,
		&run.Digest,
		&run.CommandCount,
		&run.ResultCount,
		&results,
		&run.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("replay run not found", nil)
		}
		return nil, err
	}
	run.Results = results
	return &run, nil
}
