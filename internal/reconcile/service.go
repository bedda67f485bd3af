package reconcile

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"gorm.io/gorm"

	"github.com/tradepost-labs/tradepost-backend/pkg/config"
	"github.com/tradepost-labs/tradepost-backend/pkg/db/models"
	"github.com/tradepost-labs/tradepost-backend/pkg/logger"
	"github.com/tradepost-labs/tradepost-backend/pkg/metrics"
)

const (
	defaultBatchSize   = 50
	defaultPollMs      = 500
	defaultMaxAttempts = 10
	maxBackoff         = 10 * time.Second
	jitterWindow       = 250 * time.Millisecond

	taskKindBackref = "backref_clear"
)

var jitterSource = rand.New(rand.NewSource(time.Now().UnixNano()))

type dbClient interface {
	Ping(context.Context) error
	WithTx(context.Context, func(tx *gorm.DB) error) error
}

type taskRepository interface {
	FetchPending(tx *gorm.DB, limit, maxAttempts int) ([]models.BackrefTask, error)
	MarkDoneTx(tx *gorm.DB, id int64) error
	MarkFailedTx(tx *gorm.DB, id int64, attemptErr error) error
}

type backrefClearer interface {
	ClearStoreRequestRef(ctx context.Context, requestID int64) (int64, error)
}

// ServiceParams bundles the dependencies required to build the reconciler.
type ServiceParams struct {
	Logger     *logger.Logger
	DB         dbClient
	Repository taskRepository
	Users      backrefClearer
	Metrics    *metrics.ReconcilerMetrics
	Config     config.ReconcilerConfig
}

// Service drains the back-reference cleanup queue. The clear it applies
// is idempotent, so a task can be retried any number of times.
type Service struct {
	logg         *logger.Logger
	db           dbClient
	repo         taskRepository
	users        backrefClearer
	metrics      *metrics.ReconcilerMetrics
	batchSize    int
	maxAttempts  int
	pollInterval time.Duration
}

// NewService builds the reconciler with the provided dependencies.
func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if params.DB == nil {
		return nil, errors.New("database client is required")
	}
	if params.Repository == nil {
		return nil, errors.New("task repository is required")
	}
	if params.Users == nil {
		return nil, errors.New("user backref clearer is required")
	}

	batch := params.Config.BatchSize
	if batch <= 0 {
		batch = defaultBatchSize
	}
	pollMs := params.Config.PollIntervalMS
	if pollMs <= 0 {
		pollMs = defaultPollMs
	}
	maxAttempts := params.Config.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}

	return &Service{
		logg:         params.Logger,
		db:           params.DB,
		repo:         params.Repository,
		users:        params.Users,
		metrics:      params.Metrics,
		batchSize:    batch,
		maxAttempts:  maxAttempts,
		pollInterval: time.Duration(pollMs) * time.Millisecond,
	}, nil
}

// Run polls the queue until the context is canceled.
func (s *Service) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	if err := s.db.Ping(ctx); err != nil {
		s.logg.Error(ctx, "database ping failed", err)
		return fmt.Errorf("database ping failed: %w", err)
	}

	interval := s.pollInterval
	backoff := interval

	for {
		select {
		case <-ctx.Done():
			s.logg.Info(ctx, "reconciler context canceled")
			return ctx.Err()
		default:
		}

		processed, err := s.ProcessBatch(ctx)
		if err != nil {
			s.logg.Error(ctx, "reconciler batch error", err)
			backoff = nextBackoff(backoff, interval, maxBackoff)
			if err := s.sleep(ctx, withJitter(backoff)); err != nil {
				return err
			}
			continue
		}

		backoff = interval

		if processed {
			continue
		}

		if err := s.sleep(ctx, withJitter(interval)); err != nil {
			return err
		}
	}
}

// ProcessBatch drains one batch of pending tasks. Returns whether any
// task was picked up so the caller can skip the idle sleep.
func (s *Service) ProcessBatch(ctx context.Context) (bool, error) {
	started := time.Now()
	processed := false

	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		tasks, err := s.repo.FetchPending(tx, s.batchSize, s.maxAttempts)
		if err != nil {
			return err
		}
		if len(tasks) == 0 {
			return nil
		}

		processed = true
		for _, task := range tasks {
			if _, err := s.users.ClearStoreRequestRef(ctx, task.StoreRequestID); err != nil {
				s.metrics.IncFailure(taskKindBackref)
				fields := map[string]any{
					"task_id":          task.ID,
					"store_request_id": task.StoreRequestID,
					"attempts":         task.Attempts + 1,
				}
				s.logg.Error(s.logg.WithFields(ctx, fields), "reconcile.backref_clear_failed", err)
				if markErr := s.repo.MarkFailedTx(tx, task.ID, err); markErr != nil {
					return markErr
				}
				continue
			}

			s.metrics.IncSuccess(taskKindBackref)
			if err := s.repo.MarkDoneTx(tx, task.ID); err != nil {
				return err
			}
		}
		return nil
	})

	s.metrics.ObserveDuration(taskKindBackref, time.Since(started))
	return processed, err
}

func (s *Service) sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func nextBackoff(current, base, ceiling time.Duration) time.Duration {
	if current <= 0 {
		return base
	}
	next := current * 2
	if next > ceiling {
		return ceiling
	}
	return next
}

func withJitter(d time.Duration) time.Duration {
	if d <= 0 {
		return d
	}
	return d + time.Duration(jitterSource.Int63n(int64(jitterWindow)))
}
