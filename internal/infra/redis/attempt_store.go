package redis

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"mdcat-quiz-client/internal/domain"
	"github.com/redis/go-redis/v9"
)

const (
	progressKeyPrefix = "quiz:attempt:"
	resultKeyPrefix   = "quiz:result:"
)

// AttemptStore keeps attempt state in Redis, one JSON value per key.
// In-progress snapshots carry a TTL so abandoned attempts age out; finalized
// results are kept until an explicit ClearAll. All operations are
// best-effort: a dead Redis degrades to "no local cache", never to an error
// surfaced past the store.
type AttemptStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewAttemptStore(client *redis.Client, ttl time.Duration) *AttemptStore {
	return &AttemptStore{client: client, ttl: ttl}
}

func progressKey(quizID int) string {
	return progressKeyPrefix + strconv.Itoa(quizID)
}

func resultKey(attemptID int) string {
	return resultKeyPrefix + strconv.Itoa(attemptID)
}

func (s *AttemptStore) SaveProgress(snapshot domain.AttemptSnapshot) {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return
	}
	_ = s.client.Set(context.Background(), progressKey(snapshot.QuizID), data, s.ttl).Err()
}

func (s *AttemptStore) LoadProgress(quizID int) (domain.AttemptSnapshot, bool) {
	data, err := s.client.Get(context.Background(), progressKey(quizID)).Bytes()
	if err != nil {
		return domain.AttemptSnapshot{}, false
	}
	var snapshot domain.AttemptSnapshot
	if json.Unmarshal(data, &snapshot) != nil {
		return domain.AttemptSnapshot{}, false
	}
	return snapshot, true
}

func (s *AttemptStore) ClearProgress(quizID int) {
	_ = s.client.Del(context.Background(), progressKey(quizID)).Err()
}

func (s *AttemptStore) SaveResult(result domain.AttemptResult) {
	data, err := json.Marshal(result)
	if err != nil {
		return
	}
	_ = s.client.Set(context.Background(), resultKey(result.AttemptID), data, 0).Err()
}

func (s *AttemptStore) LoadResult(attemptID int) (domain.AttemptResult, bool) {
	data, err := s.client.Get(context.Background(), resultKey(attemptID)).Bytes()
	if err != nil {
		return domain.AttemptResult{}, false
	}
	var result domain.AttemptResult
	if json.Unmarshal(data, &result) != nil {
		return domain.AttemptResult{}, false
	}
	return result, true
}

func (s *AttemptStore) ListResults() []domain.AttemptResult {
	results := make([]domain.AttemptResult, 0)
	for _, data := range s.scan(resultKeyPrefix) {
		var result domain.AttemptResult
		if json.Unmarshal(data, &result) == nil {
			results = append(results, result)
		}
	}
	return results
}

func (s *AttemptStore) ListInProgress() []domain.AttemptSnapshot {
	snapshots := make([]domain.AttemptSnapshot, 0)
	for _, data := range s.scan(progressKeyPrefix) {
		var snapshot domain.AttemptSnapshot
		if json.Unmarshal(data, &snapshot) == nil {
			snapshots = append(snapshots, snapshot)
		}
	}
	return snapshots
}

func (s *AttemptStore) ClearAll() {
	ctx := context.Background()
	for _, prefix := range []string{progressKeyPrefix, resultKeyPrefix} {
		keys, err := s.client.Keys(ctx, prefix+"*").Result()
		if err != nil || len(keys) == 0 {
			continue
		}
		_ = s.client.Del(ctx, keys...).Err()
	}
}

func (s *AttemptStore) scan(prefix string) [][]byte {
	ctx := context.Background()
	keys, err := s.client.Keys(ctx, prefix+"*").Result()
	if err != nil {
		return nil
	}
	values := make([][]byte, 0, len(keys))
	for _, key := range keys {
		data, err := s.client.Get(ctx, key).Bytes()
		if err != nil {
			continue
		}
		values = append(values, data)
	}
	return values
}
