package handlers

import (
	"context"
	"encoding/json"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/milestone-tracker/internal/api/dto"
	"github.com/spec-kit/milestone-tracker/internal/command"
	"github.com/spec-kit/milestone-tracker/internal/domain"
	"github.com/spec-kit/milestone-tracker/internal/observability"
	"github.com/spec-kit/milestone-tracker/internal/repository"
	apperrors "github.com/spec-kit/milestone-tracker/pkg/util"
)

type replayRequest struct {
	Users    []dto.UserRecord  `json:"users"`
	Commands []command.Command `json:"commands"`
}

// ReplayHandler runs command scripts through the replay engine.
type ReplayHandler struct {
	processor *command.Processor
	cache     repository.ResultCache
	runs      repository.RunRepository
	metrics   *observability.Metrics
	logger    *zap.Logger
}

// NewReplayHandler constructs handler. runs may be nil when the archive is
// disabled.
func NewReplayHandler(processor *command.Processor, cache repository.ResultCache, runs repository.RunRepository,
	metrics *observability.Metrics, logger *zap.Logger) *ReplayHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReplayHandler{processor: processor, cache: cache, runs: runs, metrics: metrics, logger: logger}
}

// Replay POST /v1/replays. With the archive enabled, an input that was
// already archived answers 200 with the stored run; a new input is archived
// and answers 201. Results come from the cache when present, otherwise from
// a fresh replay.
func (h *ReplayHandler) Replay(c *fiber.Ctx) error {
	var req replayRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	users, err := dto.UsersToDomain(req.Users)
	if err != nil {
		return err
	}

	digest, err := requestDigest(req)
	if err != nil {
		return apperrors.NewInternalError(err)
	}

	ctx := c.UserContext()
	if h.runs != nil {
		run, err := h.runs.LatestByDigest(ctx, digest)
		switch {
		case err == nil:
			h.metrics.RecordReplay(true)
			return c.JSON(fiber.Map{"data": runResponse(run, true)})
		case !apperrors.IsCode(err, apperrors.CodeNotFound):
			return err
		}
	}

	encoded, cached, err := h.results(ctx, digest, users, req.Commands)
	if err != nil {
		return err
	}
	h.metrics.RecordReplay(cached)

	if h.runs == nil {
		return c.JSON(fiber.Map{"data": dto.ReplayResponse{
			Digest:   digest,
			Cached:   cached,
			Commands: len(req.Commands),
			Results:  encoded,
		}})
	}

	run := &repository.Run{
		Digest:       digest,
		CommandCount: len(req.Commands),
		ResultCount:  resultCount(encoded),
		Results:      encoded,
	}
	if err := h.runs.Save(ctx, run); err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": runResponse(run, cached)})
}

// results returns the encoded results for digest, from the cache when
// possible. The flag reports a cache hit.
func (h *ReplayHandler) results(ctx context.Context, digest string, users []*domain.User, commands []command.Command) (json.RawMessage, bool, error) {
	if h.cache != nil {
		cached, ok, err := h.cache.Get(ctx, digest)
		if err != nil {
			h.logger.Warn("result cache lookup failed", zap.String("digest", digest), zap.Error(err))
		} else if ok {
			return cached, true, nil
		}
	}

	results, err := h.processor.Replay(ctx, users, commands)
	if err != nil {
		return nil, false, err
	}
	encoded, err := command.EncodeResults(results)
	if err != nil {
		return nil, false, apperrors.NewInternalError(err)
	}
	if h.cache != nil {
		if err := h.cache.Set(ctx, digest, encoded); err != nil {
			h.logger.Warn("result cache store failed", zap.String("digest", digest), zap.Error(err))
		}
	}
	return encoded, false, nil
}

// GetRun GET /v1/replays/:id.
func (h *ReplayHandler) GetRun(c *fiber.Ctx) error {
	if h.runs == nil {
		return apperrors.NewNotFound("replay archive is disabled", nil)
	}
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return apperrors.NewValidationError("invalid run id", map[string]any{"id": c.Params("id")})
	}
	run, err := h.runs.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": runResponse(run, false)})
}

func requestDigest(req replayRequest) (string, error) {
	users, err := json.Marshal(req.Users)
	if err != nil {
		return "", err
	}
	commands, err := json.Marshal(req.Commands)
	if err != nil {
		return "", err
	}
	return repository.Digest(users, commands), nil
}

func runResponse(run *repository.Run, cached bool) dto.ReplayResponse {
	createdAt := run.CreatedAt
	return dto.ReplayResponse{
		ID:        run.ID.String(),
		Digest:    run.Digest,
		Cached:    cached,
		Commands:  run.CommandCount,
		CreatedAt: &createdAt,
		Results:   run.Results,
	}
}

// resultCount counts the elements of an encoded results array.
func resultCount(encoded []byte) int {
	var items []json.RawMessage
	if err := json.Unmarshal(encoded, &items); err != nil {
		return 0
	}
	return len(items)
}
