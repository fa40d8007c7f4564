package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"mdcat-quiz-client/internal/domain"
	sqlitemigrations "mdcat-quiz-client/internal/infra/sqlite/migrations"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/migrate"
)

// AttemptStore is the durable local archive, a single SQLite file. Rows hold
// the snapshot/result as a JSON blob keyed by id, so the stored shape can
// evolve without schema migrations; rows that no longer decode read as
// absent. Constructing the store can fail; once constructed, every operation
// is best-effort like the other store backends.
type AttemptStore struct {
	db *bun.DB
}

func NewAttemptStore(ctx context.Context, path string) (*AttemptStore, error) {
	if strings.TrimSpace(path) == "" {
		path = "mdcat-quiz.db"
	}

	sqldb, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())

	migrator := migrate.NewMigrator(db, sqlitemigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &AttemptStore{db: db}, nil
}

func (s *AttemptStore) Close() error {
	return s.db.Close()
}

func (s *AttemptStore) SaveProgress(snapshot domain.AttemptSnapshot) {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return
	}
	_, _ = s.db.ExecContext(context.Background(),
		`INSERT INTO attempt_progress (quiz_id, data, updated_at_unix) VALUES (?, ?, ?)
		 ON CONFLICT(quiz_id) DO UPDATE SET data = excluded.data, updated_at_unix = excluded.updated_at_unix`,
		snapshot.QuizID, string(data), time.Now().UTC().Unix())
}

func (s *AttemptStore) LoadProgress(quizID int) (domain.AttemptSnapshot, bool) {
	var raw string
	err := s.db.QueryRowContext(context.Background(),
		`SELECT data FROM attempt_progress WHERE quiz_id = ?`, quizID).Scan(&raw)
	if err != nil {
		return domain.AttemptSnapshot{}, false
	}
	var snapshot domain.AttemptSnapshot
	if json.Unmarshal([]byte(raw), &snapshot) != nil {
		return domain.AttemptSnapshot{}, false
	}
	return snapshot, true
}

func (s *AttemptStore) ClearProgress(quizID int) {
	_, _ = s.db.ExecContext(context.Background(),
		`DELETE FROM attempt_progress WHERE quiz_id = ?`, quizID)
}

func (s *AttemptStore) SaveResult(result domain.AttemptResult) {
	data, err := json.Marshal(result)
	if err != nil {
		return
	}
	_, _ = s.db.ExecContext(context.Background(),
		`INSERT INTO attempt_results (attempt_id, quiz_id, started_at, data) VALUES (?, ?, ?, ?)
		 ON CONFLICT(attempt_id) DO UPDATE SET data = excluded.data`,
		result.AttemptID, result.QuizID, result.StartedAt, string(data))
}

func (s *AttemptStore) LoadResult(attemptID int) (domain.AttemptResult, bool) {
	var raw string
	err := s.db.QueryRowContext(context.Background(),
		`SELECT data FROM attempt_results WHERE attempt_id = ?`, attemptID).Scan(&raw)
	if err != nil {
		return domain.AttemptResult{}, false
	}
	var result domain.AttemptResult
	if json.Unmarshal([]byte(raw), &result) != nil {
		return domain.AttemptResult{}, false
	}
	return result, true
}

func (s *AttemptStore) ListResults() []domain.AttemptResult {
	results := make([]domain.AttemptResult, 0)
	rows, err := s.db.QueryContext(context.Background(),
		`SELECT data FROM attempt_results ORDER BY started_at DESC`)
	if err != nil {
		return results
	}
	defer rows.Close()
	for rows.Next() {
		var raw string
		if rows.Scan(&raw) != nil {
			continue
		}
		var result domain.AttemptResult
		if json.Unmarshal([]byte(raw), &result) == nil {
			results = append(results, result)
		}
	}
	return results
}

func (s *AttemptStore) ListInProgress() []domain.AttemptSnapshot {
	snapshots := make([]domain.AttemptSnapshot, 0)
	rows, err := s.db.QueryContext(context.Background(),
		`SELECT data FROM attempt_progress ORDER BY updated_at_unix DESC`)
	if err != nil {
		return snapshots
	}
	defer rows.Close()
	for rows.Next() {
		var raw string
		if rows.Scan(&raw) != nil {
			continue
		}
		var snapshot domain.AttemptSnapshot
		if json.Unmarshal([]byte(raw), &snapshot) == nil {
			snapshots = append(snapshots, snapshot)
		}
	}
	return snapshots
}

func (s *AttemptStore) ClearAll() {
	ctx := context.Background()
	_, _ = s.db.ExecContext(ctx, `DELETE FROM attempt_progress`)
	_, _ = s.db.ExecContext(ctx, `DELETE FROM attempt_results`)
}
