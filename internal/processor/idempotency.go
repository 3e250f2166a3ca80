package processor

import (
	"context"
	"strconv"
	"time"

	"github.com/nimasrn/backoffice-ledger/pkg/logger"
	"github.com/nimasrn/backoffice-ledger/pkg/redis"
	"github.com/pkg/errors"
)

var (
	ErrAlreadyProcessed = errors.New("job already processed")
	ErrJobLocked        = errors.New("job is being processed by another worker")
)

type IdempotencyConfig struct {
	LockTTL            time.Duration
	ProcessedTTL       time.Duration
	LockKeyPrefix      string
	ProcessedKeyPrefix string
}

func DefaultIdempotencyConfig() IdempotencyConfig {
	return IdempotencyConfig{
		LockTTL:            30 * time.Second,
		ProcessedTTL:       24 * time.Hour,
		LockKeyPrefix:      "reconcile:lock:",
		ProcessedKeyPrefix: "reconcile:done:",
	}
}

// IdempotencyService guards reconcile jobs so a redelivered or duplicated
// job ID runs at most once to completion.
type IdempotencyService struct {
	redis  redis.RedisAdapter
	config IdempotencyConfig
}

func NewIdempotencyService(redisAdapter redis.RedisAdapter, config IdempotencyConfig) *IdempotencyService {
	return &IdempotencyService{
		redis:  redisAdapter,
		config: config,
	}
}

// Claim takes the short-lived processing lock for jobID.
func (s *IdempotencyService) Claim(ctx context.Context, jobID string) (*Claim, error) {
	done, err := s.IsProcessed(ctx, jobID)
	if err != nil {
		// the job handlers are idempotent, so a failed check only risks a repeat
		logger.Warn("failed to check processed marker", "job_id", jobID, "error", err)
	} else if done {
		return nil, ErrAlreadyProcessed
	}

	value := []byte(strconv.FormatInt(time.Now().UnixNano(), 10))
	acquired, err := s.redis.SetNX(ctx, s.config.LockKeyPrefix+jobID, value, s.config.LockTTL)
	if err != nil {
		return nil, errors.Wrapf(err, "acquire lock for job %s", jobID)
	}
	if !acquired {
		return nil, ErrJobLocked
	}

	return &Claim{JobID: jobID, service: s, held: true}, nil
}

func (s *IdempotencyService) IsProcessed(ctx context.Context, jobID string) (bool, error) {
	n, err := s.redis.Exist(ctx, s.config.ProcessedKeyPrefix+jobID)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Claim is a held processing lock.
type Claim struct {
	JobID   string
	service *IdempotencyService
	held    bool
}

// Done records the job as processed and drops the lock.
func (c *Claim) Done(ctx context.Context) error {
	s := c.service
	if err := s.redis.Set(ctx, s.config.ProcessedKeyPrefix+c.JobID, []byte("1"), s.config.ProcessedTTL); err != nil {
		return errors.Wrapf(err, "mark job %s processed", c.JobID)
	}
	return c.Release(ctx)
}

// Release drops the lock so a later delivery can retry the job.
func (c *Claim) Release(ctx context.Context) error {
	if c == nil || !c.held {
		return nil
	}
	if err := c.service.redis.Del(ctx, c.service.config.LockKeyPrefix+c.JobID); err != nil {
		logger.Warn("failed to release job lock", "job_id", c.JobID, "error", err)
		return err
	}
	c.held = false
	return nil
}
