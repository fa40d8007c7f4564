package memory

import (
	"sync"

	"mdcat-quiz-client/internal/domain"
)

// AttemptStore is an in-memory implementation of attempt.ProgressStore,
// used in tests and as the fallback when no durable backend is configured.
type AttemptStore struct {
	mu       sync.RWMutex
	progress map[int]domain.AttemptSnapshot
	results  map[int]domain.AttemptResult
}

func NewAttemptStore() *AttemptStore {
	return &AttemptStore{
		progress: make(map[int]domain.AttemptSnapshot),
		results:  make(map[int]domain.AttemptResult),
	}
}

func (s *AttemptStore) SaveProgress(snapshot domain.AttemptSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.progress[snapshot.QuizID] = snapshot
}

func (s *AttemptStore) LoadProgress(quizID int) (domain.AttemptSnapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snapshot, ok := s.progress[quizID]
	return snapshot, ok
}

func (s *AttemptStore) ClearProgress(quizID int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.progress, quizID)
}

func (s *AttemptStore) SaveResult(result domain.AttemptResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[result.AttemptID] = result
}

func (s *AttemptStore) LoadResult(attemptID int) (domain.AttemptResult, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result, ok := s.results[attemptID]
	return result, ok
}

// ListResults returns all finalized results in unspecified order; callers
// sort on StartedAt for display.
func (s *AttemptStore) ListResults() []domain.AttemptResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	results := make([]domain.AttemptResult, 0, len(s.results))
	for _, result := range s.results {
		results = append(results, result)
	}
	return results
}

func (s *AttemptStore) ListInProgress() []domain.AttemptSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snapshots := make([]domain.AttemptSnapshot, 0, len(s.progress))
	for _, snapshot := range s.progress {
		snapshots = append(snapshots, snapshot)
	}
	return snapshots
}

// ClearAll removes every result and in-progress snapshot. Confirmation is a
// caller responsibility.
func (s *AttemptStore) ClearAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.progress = make(map[int]domain.AttemptSnapshot)
	s.results = make(map[int]domain.AttemptResult)
}
