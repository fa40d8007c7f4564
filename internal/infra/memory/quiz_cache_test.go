package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"mdcat-quiz-client/internal/domain"
)

type countingQuizAPI struct {
	mu       sync.Mutex
	getCalls int
	err      error
}

func (f *countingQuizAPI) GetQuiz(ctx context.Context, quizID int) (domain.Quiz, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getCalls++
	if f.err != nil {
		return domain.Quiz{}, f.err
	}
	return domain.Quiz{ID: quizID, Title: "Biology MCQs"}, nil
}

func (f *countingQuizAPI) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.getCalls
}

func (f *countingQuizAPI) StartAttempt(ctx context.Context, quizID int) (domain.AttemptStart, error) {
	return domain.AttemptStart{ID: 42, QuizID: quizID}, nil
}

func (f *countingQuizAPI) AttemptQuestions(ctx context.Context, attemptID int) ([]domain.Question, error) {
	return nil, nil
}

func (f *countingQuizAPI) SaveAnswer(ctx context.Context, attemptID, questionID, choiceID int) error {
	return nil
}

func (f *countingQuizAPI) SubmitAttempt(ctx context.Context, attemptID, timeTakenSeconds int) (domain.AttemptSubmission, error) {
	return domain.AttemptSubmission{AttemptID: attemptID}, nil
}

func TestCacheHitSkipsBackend(t *testing.T) {
	api := &countingQuizAPI{}
	cache := NewQuizCache(api, time.Hour)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		quiz, err := cache.GetQuiz(ctx, 5)
		if err != nil {
			t.Fatalf("get quiz: %v", err)
		}
		if quiz.ID != 5 {
			t.Fatalf("quiz mismatch: %+v", quiz)
		}
	}
	if api.calls() != 1 {
		t.Fatalf("expected one backend fetch, got %d", api.calls())
	}
}

func TestDistinctQuizzesCachedSeparately(t *testing.T) {
	api := &countingQuizAPI{}
	cache := NewQuizCache(api, time.Hour)
	ctx := context.Background()

	if _, err := cache.GetQuiz(ctx, 5); err != nil {
		t.Fatalf("get quiz 5: %v", err)
	}
	if _, err := cache.GetQuiz(ctx, 6); err != nil {
		t.Fatalf("get quiz 6: %v", err)
	}
	if api.calls() != 2 {
		t.Fatalf("expected two backend fetches, got %d", api.calls())
	}
}

func TestExpiredEntryRefetches(t *testing.T) {
	api := &countingQuizAPI{}
	cache := NewQuizCache(api, time.Hour)
	now := time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)
	cache.clock = func() time.Time { return now }
	ctx := context.Background()

	if _, err := cache.GetQuiz(ctx, 5); err != nil {
		t.Fatalf("get quiz: %v", err)
	}
	now = now.Add(2 * time.Hour)
	if _, err := cache.GetQuiz(ctx, 5); err != nil {
		t.Fatalf("get quiz after expiry: %v", err)
	}
	if api.calls() != 2 {
		t.Fatalf("expected refetch after expiry, got %d calls", api.calls())
	}
}

func TestErrorsAreNotCached(t *testing.T) {
	api := &countingQuizAPI{err: errors.New("backend down")}
	cache := NewQuizCache(api, time.Hour)
	ctx := context.Background()

	if _, err := cache.GetQuiz(ctx, 5); err == nil {
		t.Fatal("expected error")
	}
	api.mu.Lock()
	api.err = nil
	api.mu.Unlock()

	quiz, err := cache.GetQuiz(ctx, 5)
	if err != nil {
		t.Fatalf("expected recovery after backend error: %v", err)
	}
	if quiz.ID != 5 {
		t.Fatalf("quiz mismatch: %+v", quiz)
	}
	if api.calls() != 2 {
		t.Fatalf("expected two backend fetches, got %d", api.calls())
	}
}

func TestConcurrentFetchesCoalesce(t *testing.T) {
	api := &countingQuizAPI{}
	cache := NewQuizCache(api, time.Hour)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := cache.GetQuiz(ctx, 5); err != nil {
				t.Errorf("get quiz: %v", err)
			}
		}()
	}
	wg.Wait()

	if api.calls() != 1 {
		t.Fatalf("expected coalesced fetch, got %d calls", api.calls())
	}
}
