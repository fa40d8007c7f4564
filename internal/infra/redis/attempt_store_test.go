package redis

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"mdcat-quiz-client/internal/domain"
)

func newTestStore(t *testing.T, ttl time.Duration) (*AttemptStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewAttemptStore(client, ttl), mr
}

func TestProgressRoundTrip(t *testing.T) {
	store, _ := newTestStore(t, time.Hour)

	if _, ok := store.LoadProgress(5); ok {
		t.Fatal("expected no progress before save")
	}

	store.SaveProgress(domain.AttemptSnapshot{
		QuizID:       5,
		AttemptID:    42,
		StartedAt:    "2026-01-02T10:00:00Z",
		CurrentIndex: 1,
		Answers:      map[int]int{101: 3},
	})

	loaded, ok := store.LoadProgress(5)
	if !ok || loaded.AttemptID != 42 || loaded.Answers[101] != 3 {
		t.Fatalf("snapshot mismatch: %+v ok=%v", loaded, ok)
	}
}

func TestProgressExpiresWithTTL(t *testing.T) {
	store, mr := newTestStore(t, time.Minute)
	store.SaveProgress(domain.AttemptSnapshot{QuizID: 5, AttemptID: 42})

	mr.FastForward(2 * time.Minute)

	if _, ok := store.LoadProgress(5); ok {
		t.Fatal("expected progress to expire")
	}
}

func TestResultsDoNotExpire(t *testing.T) {
	store, mr := newTestStore(t, time.Minute)
	store.SaveResult(domain.AttemptResult{AttemptID: 42, QuizID: 5, Score: 3})

	mr.FastForward(24 * time.Hour)

	result, ok := store.LoadResult(42)
	if !ok || result.Score != 3 {
		t.Fatalf("expected result to persist, got %+v ok=%v", result, ok)
	}
}

func TestCorruptValueReadsAsAbsent(t *testing.T) {
	store, mr := newTestStore(t, time.Hour)
	mr.Set("quiz:attempt:5", "{not json")

	if _, ok := store.LoadProgress(5); ok {
		t.Fatal("corrupt value should read as absent")
	}
}

func TestListingsAreSeparatedByPrefix(t *testing.T) {
	store, _ := newTestStore(t, time.Hour)
	store.SaveProgress(domain.AttemptSnapshot{QuizID: 5, AttemptID: 42})
	store.SaveProgress(domain.AttemptSnapshot{QuizID: 6, AttemptID: 43})
	store.SaveResult(domain.AttemptResult{AttemptID: 42, QuizID: 5})

	if got := len(store.ListInProgress()); got != 2 {
		t.Fatalf("expected two in-progress snapshots, got %d", got)
	}
	if got := len(store.ListResults()); got != 1 {
		t.Fatalf("expected one result, got %d", got)
	}
}

func TestClearAllEmptiesBothNamespaces(t *testing.T) {
	store, _ := newTestStore(t, time.Hour)
	store.SaveProgress(domain.AttemptSnapshot{QuizID: 5})
	store.SaveResult(domain.AttemptResult{AttemptID: 42})

	store.ClearAll()

	if len(store.ListInProgress()) != 0 || len(store.ListResults()) != 0 {
		t.Fatal("expected empty store after ClearAll")
	}
}

func TestDeadRedisDegradesToEmpty(t *testing.T) {
	store, mr := newTestStore(t, time.Hour)
	store.SaveProgress(domain.AttemptSnapshot{QuizID: 5, AttemptID: 42})
	mr.Close()

	store.SaveProgress(domain.AttemptSnapshot{QuizID: 6})
	if _, ok := store.LoadProgress(5); ok {
		t.Fatal("expected no progress from a dead backend")
	}
	if got := len(store.ListInProgress()); got != 0 {
		t.Fatalf("expected empty listing from a dead backend, got %d", got)
	}
}
