package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	redis "github.com/redis/go-redis/v9"
	usagedomain "github.com/smallbiznis/grantgate/internal/usage/domain"
)

const keyUsageUser = "usage:user:%d"

// redisCounter is the persisted shape: {"count": n, "resetDate": <unix ms>}.
type redisCounter struct {
	Count     int64 `json:"count"`
	ResetDate int64 `json:"resetDate"`
}

type redisStore struct {
	client redis.UniversalClient
}

// NewRedis returns a store keeping one hash per user, one field per feature.
func NewRedis(client redis.UniversalClient) usagedomain.Store {
	return &redisStore{client: client}
}

func (s *redisStore) Get(ctx context.Context, key usagedomain.CounterKey) (usagedomain.UsageCounter, bool, error) {
	raw, err := s.client.HGet(ctx, fmt.Sprintf(keyUsageUser, key.UserID), key.FeatureName).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return usagedomain.UsageCounter{}, false, nil
		}
		return usagedomain.UsageCounter{}, false, err
	}
	counter, err := decodeCounter(key.UserID, key.FeatureName, raw)
	if err != nil {
		return usagedomain.UsageCounter{}, false, err
	}
	return counter, true, nil
}

func (s *redisStore) Set(ctx context.Context, counter usagedomain.UsageCounter) error {
	payload, err := json.Marshal(redisCounter{
		Count:     counter.Count,
		ResetDate: counter.ResetAt.UnixMilli(),
	})
	if err != nil {
		return err
	}
	return s.client.HSet(ctx, fmt.Sprintf(keyUsageUser, counter.UserID), counter.FeatureName, payload).Err()
}

func (s *redisStore) ListByUser(ctx context.Context, userID int64) ([]usagedomain.UsageCounter, error) {
	fields, err := s.client.HGetAll(ctx, fmt.Sprintf(keyUsageUser, userID)).Result()
	if err != nil {
		return nil, err
	}
	out := make([]usagedomain.UsageCounter, 0, len(fields))
	for feature, raw := range fields {
		counter, err := decodeCounter(userID, feature, []byte(raw))
		if err != nil {
			return nil, err
		}
		out = append(out, counter)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FeatureName < out[j].FeatureName })
	return out, nil
}

func decodeCounter(userID int64, feature string, raw []byte) (usagedomain.UsageCounter, error) {
	var value redisCounter
	if err := json.Unmarshal(raw, &value); err != nil {
		return usagedomain.UsageCounter{}, fmt.Errorf("decode usage counter %s/%s: %w", strconv.FormatInt(userID, 10), feature, err)
	}
	if value.Count < 0 {
		value.Count = 0
	}
	return usagedomain.UsageCounter{
		UserID:      userID,
		FeatureName: feature,
		Count:       value.Count,
		ResetAt:     time.UnixMilli(value.ResetDate).UTC(),
	}, nil
}
