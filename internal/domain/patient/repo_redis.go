package patient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"
)

const redisKeyPrefix = "copilot:patient:"

type repoRedis struct {
	client *redis.Client
}

func NewRepoRedis(client *redis.Client) Repository {
	return &repoRedis{client: client}
}

func redisKey(patientID string) string {
	return redisKeyPrefix + patientID
}

func (r *repoRedis) Save(ctx context.Context, rec *Record) error {
	body, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode patient record: %w", err)
	}
	if err := r.client.Set(ctx, redisKey(rec.PatientID), body, 0).Err(); err != nil {
		return fmt.Errorf("save patient record: %w", err)
	}
	return nil
}

func (r *repoRedis) Get(ctx context.Context, patientID string) (*Record, error) {
	body, err := r.client.Get(ctx, redisKey(patientID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get patient record: %w", err)
	}
	var rec Record
	if err := json.Unmarshal(body, &rec); err != nil {
		return nil, fmt.Errorf("decode patient record: %w", err)
	}
	return &rec, nil
}
