package file

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"mdcat-quiz-client/internal/domain"
)

const (
	progressPrefix = "attempt_"
	resultPrefix   = "result_"
)

// AttemptStore persists attempt state as one JSON file per key under a
// directory, mirroring the per-key layout of the product's browser storage.
// Every operation degrades to a no-op or empty result on I/O or decode
// failure: loss of the local cache must never block the remote-backed flow.
type AttemptStore struct {
	dir string
}

// NewAttemptStore creates the directory if needed. Even the constructor is
// best-effort; a store rooted at an unwritable directory simply behaves as
// empty.
func NewAttemptStore(dir string) *AttemptStore {
	_ = os.MkdirAll(dir, 0o755)
	return &AttemptStore{dir: dir}
}

func (s *AttemptStore) progressPath(quizID int) string {
	return filepath.Join(s.dir, fmt.Sprintf("%s%d.json", progressPrefix, quizID))
}

func (s *AttemptStore) resultPath(attemptID int) string {
	return filepath.Join(s.dir, fmt.Sprintf("%s%d.json", resultPrefix, attemptID))
}

func (s *AttemptStore) SaveProgress(snapshot domain.AttemptSnapshot) {
	writeJSON(s.progressPath(snapshot.QuizID), snapshot)
}

func (s *AttemptStore) LoadProgress(quizID int) (domain.AttemptSnapshot, bool) {
	var snapshot domain.AttemptSnapshot
	if !readJSON(s.progressPath(quizID), &snapshot) {
		return domain.AttemptSnapshot{}, false
	}
	return snapshot, true
}

func (s *AttemptStore) ClearProgress(quizID int) {
	_ = os.Remove(s.progressPath(quizID))
}

func (s *AttemptStore) SaveResult(result domain.AttemptResult) {
	writeJSON(s.resultPath(result.AttemptID), result)
}

func (s *AttemptStore) LoadResult(attemptID int) (domain.AttemptResult, bool) {
	var result domain.AttemptResult
	if !readJSON(s.resultPath(attemptID), &result) {
		return domain.AttemptResult{}, false
	}
	return result, true
}

func (s *AttemptStore) ListResults() []domain.AttemptResult {
	results := make([]domain.AttemptResult, 0)
	for _, path := range s.list(resultPrefix) {
		var result domain.AttemptResult
		if readJSON(path, &result) {
			results = append(results, result)
		}
	}
	return results
}

func (s *AttemptStore) ListInProgress() []domain.AttemptSnapshot {
	snapshots := make([]domain.AttemptSnapshot, 0)
	for _, path := range s.list(progressPrefix) {
		var snapshot domain.AttemptSnapshot
		if readJSON(path, &snapshot) {
			snapshots = append(snapshots, snapshot)
		}
	}
	return snapshots
}

func (s *AttemptStore) ClearAll() {
	for _, path := range s.list(progressPrefix) {
		_ = os.Remove(path)
	}
	for _, path := range s.list(resultPrefix) {
		_ = os.Remove(path)
	}
}

func (s *AttemptStore) list(prefix string) []string {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil
	}
	paths := make([]string, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, ".json") {
			continue
		}
		paths = append(paths, filepath.Join(s.dir, name))
	}
	return paths
}

func writeJSON(path string, value any) {
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	_ = os.WriteFile(path, data, 0o644)
}

// readJSON reports false for missing files and for corrupt payloads alike;
// both read as "absent".
func readJSON(path string, out any) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	return json.Unmarshal(data, out) == nil
}
