package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/smallbiznis/grantgate/internal/clock"
	"github.com/smallbiznis/grantgate/internal/config"
	obsmetrics "github.com/smallbiznis/grantgate/internal/observability/metrics"
	usagedomain "github.com/smallbiznis/grantgate/internal/usage/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type ServiceParam struct {
	fx.In

	Cfg     config.Config
	Log     *zap.Logger
	Clock   clock.Clock
	Store   usagedomain.Store
	Locker  usagedomain.KeyLocker `optional:"true"`
	Metrics *obsmetrics.Metrics   `optional:"true"`
}

type Service struct {
	log     *zap.Logger
	clock   clock.Clock
	store   usagedomain.Store
	locker  usagedomain.KeyLocker
	metrics *obsmetrics.Metrics
	limit   int64
}

func NewService(p ServiceParam) usagedomain.Service {
	limit := p.Cfg.Usage.MonthlyLimit
	if limit <= 0 {
		limit = config.DefaultMonthlyLimit
	}
	clk := p.Clock
	if clk == nil {
		clk = clock.System{}
	}
	return &Service{
		log:     p.Log.Named("usage.service"),
		clock:   clk,
		store:   p.Store,
		locker:  p.Locker,
		metrics: p.Metrics,
		limit:   limit,
	}
}

func (s *Service) Limit() int64 {
	return s.limit
}

func (s *Service) GetUsage(ctx context.Context, userID int64, featureName string) (usagedomain.Usage, error) {
	key, err := normalizeKey(userID, featureName)
	if err != nil {
		return usagedomain.Usage{}, err
	}

	var usage usagedomain.Usage
	err = s.withLock(ctx, key, func() error {
		counter, dirty, err := s.load(ctx, key)
		if err != nil {
			return err
		}
		if dirty {
			if err := s.store.Set(ctx, counter); err != nil {
				return s.storageError("set", err)
			}
		}
		usage = usagedomain.NewUsage(counter.Count, s.limit, counter.ResetAt)
		return nil
	})
	return usage, err
}

func (s *Service) RecordUsage(ctx context.Context, userID int64, featureName string) (usagedomain.Usage, error) {
	key, err := normalizeKey(userID, featureName)
	if err != nil {
		return usagedomain.Usage{}, err
	}

	var usage usagedomain.Usage
	err = s.withLock(ctx, key, func() error {
		counter, _, err := s.load(ctx, key)
		if err != nil {
			return err
		}
		counter.Count++
		counter.UpdatedAt = s.clock.Now()
		if err := s.store.Set(ctx, counter); err != nil {
			return s.storageError("set", err)
		}
		usage = usagedomain.NewUsage(counter.Count, s.limit, counter.ResetAt)
		return nil
	})
	if err != nil {
		return usagedomain.Usage{}, err
	}

	s.metrics.ObserveUsageRecord(key.FeatureName)
	if usage.Count > s.limit {
		s.log.Debug("usage recorded beyond limit",
			zap.Int64("user_id", key.UserID),
			zap.String("feature_name", key.FeatureName),
			zap.Int64("count", usage.Count),
		)
	}
	return usage, nil
}

// ListUsage reports every counter of the user. Elapsed windows are shown as
// reset without being written back.
func (s *Service) ListUsage(ctx context.Context, userID int64) ([]usagedomain.FeatureUsage, error) {
	if userID <= 0 {
		return nil, usagedomain.ErrInvalidUserID
	}

	counters, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, s.storageError("list", err)
	}

	now := s.clock.Now()
	out := make([]usagedomain.FeatureUsage, 0, len(counters))
	for _, counter := range counters {
		if counter.Stale(now) {
			counter.Count = 0
			counter.ResetAt = usagedomain.NextReset(now)
		}
		out = append(out, usagedomain.FeatureUsage{
			FeatureName: counter.FeatureName,
			Usage:       usagedomain.NewUsage(counter.Count, s.limit, counter.ResetAt),
		})
	}
	return out, nil
}

// load returns the live counter for key. dirty is set when the counter was
// created or reset and has not been persisted yet.
func (s *Service) load(ctx context.Context, key usagedomain.CounterKey) (usagedomain.UsageCounter, bool, error) {
	counter, found, err := s.store.Get(ctx, key)
	if err != nil {
		return usagedomain.UsageCounter{}, false, s.storageError("get", err)
	}

	now := s.clock.Now()
	if !found {
		return usagedomain.UsageCounter{
			UserID:      key.UserID,
			FeatureName: key.FeatureName,
			ResetAt:     usagedomain.NextReset(now),
			CreatedAt:   now,
			UpdatedAt:   now,
		}, true, nil
	}

	if counter.Count < 0 {
		counter.Count = 0
	}
	if counter.Stale(now) {
		s.log.Debug("usage window elapsed",
			zap.Int64("user_id", key.UserID),
			zap.String("feature_name", key.FeatureName),
			zap.Int64("previous_count", counter.Count),
			zap.Time("previous_reset_at", counter.ResetAt),
		)
		counter.Count = 0
		counter.ResetAt = usagedomain.NextReset(now)
		counter.UpdatedAt = now
		s.metrics.ObserveUsageReset(key.FeatureName)
		return counter, true, nil
	}
	return counter, false, nil
}

func (s *Service) withLock(ctx context.Context, key usagedomain.CounterKey, fn func() error) error {
	if s.locker == nil {
		return fn()
	}
	unlock, err := s.locker.Lock(ctx, lockKey(key))
	if err != nil {
		return s.storageError("lock", err)
	}
	defer unlock()
	return fn()
}

func (s *Service) storageError(op string, err error) error {
	if errors.Is(err, usagedomain.ErrStorageUnavailable) {
		return err
	}
	s.metrics.ObserveStoreError(op)
	s.log.Error("usage store failure", zap.String("op", op), zap.Error(err))
	return fmt.Errorf("%w: %s: %v", usagedomain.ErrStorageUnavailable, op, err)
}

func normalizeKey(userID int64, featureName string) (usagedomain.CounterKey, error) {
	if userID <= 0 {
		return usagedomain.CounterKey{}, usagedomain.ErrInvalidUserID
	}
	featureName = strings.TrimSpace(featureName)
	if featureName == "" {
		return usagedomain.CounterKey{}, usagedomain.ErrInvalidFeatureName
	}
	return usagedomain.CounterKey{UserID: userID, FeatureName: featureName}, nil
}

func lockKey(key usagedomain.CounterKey) string {
	return strconv.FormatInt(key.UserID, 10) + "|" + key.FeatureName
}
