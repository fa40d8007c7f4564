package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"mdcat-quiz-client/internal/domain"
)

func newTestStore(t *testing.T) *AttemptStore {
	t.Helper()
	store, err := NewAttemptStore(context.Background(), filepath.Join(t.TempDir(), "attempts.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestProgressRoundTrip(t *testing.T) {
	store := newTestStore(t)

	if _, ok := store.LoadProgress(5); ok {
		t.Fatal("expected no progress in a fresh database")
	}

	store.SaveProgress(domain.AttemptSnapshot{
		QuizID:       5,
		AttemptID:    42,
		StartedAt:    "2026-01-02T10:00:00Z",
		CurrentIndex: 2,
		Answers:      map[int]int{101: 3, 102: 1},
	})

	loaded, ok := store.LoadProgress(5)
	if !ok || loaded.AttemptID != 42 || len(loaded.Answers) != 2 {
		t.Fatalf("snapshot mismatch: %+v ok=%v", loaded, ok)
	}
}

func TestSaveProgressUpserts(t *testing.T) {
	store := newTestStore(t)
	store.SaveProgress(domain.AttemptSnapshot{QuizID: 5, CurrentIndex: 0})
	store.SaveProgress(domain.AttemptSnapshot{QuizID: 5, CurrentIndex: 4})

	loaded, ok := store.LoadProgress(5)
	if !ok || loaded.CurrentIndex != 4 {
		t.Fatalf("expected latest snapshot, got %+v ok=%v", loaded, ok)
	}
	if got := len(store.ListInProgress()); got != 1 {
		t.Fatalf("expected one row after upsert, got %d", got)
	}
}

func TestProgressSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "attempts.db")

	store, err := NewAttemptStore(ctx, path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	store.SaveProgress(domain.AttemptSnapshot{QuizID: 5, AttemptID: 42})
	store.SaveResult(domain.AttemptResult{AttemptID: 42, QuizID: 5, Score: 3})
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := NewAttemptStore(ctx, path)
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	defer reopened.Close()

	if _, ok := reopened.LoadProgress(5); !ok {
		t.Fatal("expected progress to survive reopen")
	}
	result, ok := reopened.LoadResult(42)
	if !ok || result.Score != 3 {
		t.Fatalf("result mismatch after reopen: %+v ok=%v", result, ok)
	}
}

func TestListResultsNewestFirst(t *testing.T) {
	store := newTestStore(t)
	store.SaveResult(domain.AttemptResult{AttemptID: 41, QuizID: 5, StartedAt: "2026-01-01T09:00:00Z"})
	store.SaveResult(domain.AttemptResult{AttemptID: 42, QuizID: 5, StartedAt: "2026-01-02T09:00:00Z"})

	results := store.ListResults()
	if len(results) != 2 {
		t.Fatalf("expected two results, got %d", len(results))
	}
	if results[0].AttemptID != 42 {
		t.Fatalf("expected newest result first, got attempt %d", results[0].AttemptID)
	}
}

func TestClearAllEmptiesBothTables(t *testing.T) {
	store := newTestStore(t)
	store.SaveProgress(domain.AttemptSnapshot{QuizID: 5})
	store.SaveResult(domain.AttemptResult{AttemptID: 42})

	store.ClearAll()

	if len(store.ListInProgress()) != 0 || len(store.ListResults()) != 0 {
		t.Fatal("expected empty store after ClearAll")
	}
}
