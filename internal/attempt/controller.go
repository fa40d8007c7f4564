package attempt

import (
	"context"
	"sync"
	"time"

	"mdcat-quiz-client/internal/domain"
)

// QuizAPI is the remote backend contract the controller depends on.
type QuizAPI interface {
	GetQuiz(ctx context.Context, quizID int) (domain.Quiz, error)
	StartAttempt(ctx context.Context, quizID int) (domain.AttemptStart, error)
	AttemptQuestions(ctx context.Context, attemptID int) ([]domain.Question, error)
	SaveAnswer(ctx context.Context, attemptID, questionID, choiceID int) error
	SubmitAttempt(ctx context.Context, attemptID, timeTakenSeconds int) (domain.AttemptSubmission, error)
}

// ProgressStore persists attempt state locally. Implementations absorb
// storage failures: a lost local cache degrades the resume path, it never
// blocks the remote-backed flow.
type ProgressStore interface {
	SaveProgress(snapshot domain.AttemptSnapshot)
	LoadProgress(quizID int) (domain.AttemptSnapshot, bool)
	ClearProgress(quizID int)
	SaveResult(result domain.AttemptResult)
}

const defaultDebounce = 500 * time.Millisecond

// Controller drives one quiz attempt: resume-or-create, answer recording,
// debounced local persistence, and submission. Mutations synchronously update
// in-memory state (the source of truth for session continuity); remote answer
// saves are fire-and-forget and the full snapshot is written to the store
// after a quiet period.
type Controller struct {
	api      QuizAPI
	store    ProgressStore
	debounce time.Duration
	now      func() time.Time

	mu          sync.Mutex
	quiz        domain.Quiz
	questions   []domain.Question
	snapshot    domain.AttemptSnapshot
	loaded      bool
	saving      bool
	lastSavedAt time.Time
	submitting  bool
	submitted   bool
	startErr    error
	timer       *time.Timer
	dirty       bool
}

func NewController(api QuizAPI, store ProgressStore) *Controller {
	return NewControllerWithClock(api, store, defaultDebounce, time.Now)
}

// NewControllerWithClock allows deterministic timestamps and short debounce
// intervals in tests.
func NewControllerWithClock(api QuizAPI, store ProgressStore, debounce time.Duration, now func() time.Time) *Controller {
	if debounce <= 0 {
		debounce = defaultDebounce
	}
	return &Controller{
		api:      api,
		store:    store,
		debounce: debounce,
		now:      now,
	}
}

// Load fetches quiz metadata and either resumes the locally saved attempt or
// starts a fresh remote one. A quiz fetch failure is terminal ("quiz not
// available"); a start failure is retryable via EnsureAttempt and recorded in
// StartErr without blocking read access to the question content.
func (c *Controller) Load(ctx context.Context, quizID int) error {
	quiz, err := c.api.GetQuiz(ctx, quizID)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.quiz = quiz
	c.questions = quiz.Questions
	c.snapshot = domain.AttemptSnapshot{
		QuizID:    quiz.ID,
		StartedAt: c.now().UTC().Format(time.RFC3339),
		Answers:   make(map[int]int),
	}
	c.loaded = true
	c.mu.Unlock()

	if saved, ok := c.store.LoadProgress(quiz.ID); ok {
		c.restore(saved)
	} else if err := c.EnsureAttempt(ctx); err != nil {
		return nil // recorded in startErr; question content stays readable
	}

	c.refreshQuestions(ctx)
	return nil
}

// restore adopts a previously saved snapshot verbatim. No new remote attempt
// is created on this path.
func (c *Controller) restore(saved domain.AttemptSnapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if saved.Answers != nil {
		c.snapshot.Answers = saved.Answers
	}
	if saved.StartedAt != "" {
		c.snapshot.StartedAt = saved.StartedAt
	}
	c.snapshot.AttemptID = saved.AttemptID
	c.snapshot.CurrentIndex = saved.CurrentIndex
	c.clampIndexLocked()
}

// EnsureAttempt creates the remote attempt if one does not exist yet. It is
// the retry path after a failed start; the initial empty snapshot is
// persisted immediately on success.
func (c *Controller) EnsureAttempt(ctx context.Context) error {
	c.mu.Lock()
	if c.snapshot.AttemptID != 0 {
		c.mu.Unlock()
		return nil
	}
	quizID := c.snapshot.QuizID
	c.mu.Unlock()

	started, err := c.api.StartAttempt(ctx, quizID)
	c.mu.Lock()
	if err != nil {
		c.startErr = err
		c.mu.Unlock()
		return err
	}
	c.startErr = nil
	c.snapshot.AttemptID = started.ID
	if started.StartedAt != "" {
		c.snapshot.StartedAt = started.StartedAt
	}
	snapshot := c.snapshotLocked()
	c.mu.Unlock()

	c.store.SaveProgress(snapshot)
	return nil
}

// refreshQuestions swaps in the attempt's authoritative question list once an
// attempt id is known. Stale local answers for removed questions stay in the
// map; the remote submission is the source of truth for scoring.
func (c *Controller) refreshQuestions(ctx context.Context) {
	c.mu.Lock()
	attemptID := c.snapshot.AttemptID
	c.mu.Unlock()
	if attemptID == 0 {
		return
	}

	questions, err := c.api.AttemptQuestions(ctx, attemptID)
	if err != nil {
		return
	}
	c.mu.Lock()
	c.questions = questions
	c.clampIndexLocked()
	c.mu.Unlock()
}

func (c *Controller) clampIndexLocked() {
	if len(c.questions) == 0 {
		c.snapshot.CurrentIndex = 0
		return
	}
	if c.snapshot.CurrentIndex >= len(c.questions) {
		c.snapshot.CurrentIndex = len(c.questions) - 1
	}
	if c.snapshot.CurrentIndex < 0 {
		c.snapshot.CurrentIndex = 0
	}
}

// SelectAnswer records the choice for the current question: the in-memory map
// is updated synchronously, a best-effort remote save fires in the
// background, and the debounced snapshot write is (re)scheduled.
func (c *Controller) SelectAnswer(ctx context.Context, choiceID int) {
	c.mu.Lock()
	if c.snapshot.CurrentIndex >= len(c.questions) {
		c.mu.Unlock()
		return
	}
	question := c.questions[c.snapshot.CurrentIndex]
	c.snapshot.Answers[question.ID] = choiceID
	attemptID := c.snapshot.AttemptID
	c.markDirtyLocked()
	c.mu.Unlock()

	if attemptID != 0 {
		// In-flight saves are never cancelled; they complete or fail silently
		// after the fact. Failure is recovered implicitly: submit resends the
		// full set.
		saveCtx := context.WithoutCancel(ctx)
		go func() {
			_ = c.api.SaveAnswer(saveCtx, attemptID, question.ID, choiceID)
		}()
	}
}

// NextQuestion advances the question pointer, clamped at the last question.
func (c *Controller) NextQuestion() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.snapshot.CurrentIndex < len(c.questions)-1 {
		c.snapshot.CurrentIndex++
		c.markDirtyLocked()
	}
}

// PreviousQuestion moves the question pointer back, clamped at zero.
func (c *Controller) PreviousQuestion() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.snapshot.CurrentIndex > 0 {
		c.snapshot.CurrentIndex--
		c.markDirtyLocked()
	}
}

// markDirtyLocked resets the debounce timer so rapid mutations coalesce into
// a single storage write containing the most recent state.
func (c *Controller) markDirtyLocked() {
	c.saving = true
	c.dirty = true
	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = time.AfterFunc(c.debounce, c.flush)
}

func (c *Controller) flush() {
	c.mu.Lock()
	if !c.dirty || c.submitted {
		c.mu.Unlock()
		return
	}
	snapshot := c.snapshotLocked()
	c.dirty = false
	c.mu.Unlock()

	c.store.SaveProgress(snapshot)

	c.mu.Lock()
	if !c.dirty {
		c.saving = false
	}
	c.lastSavedAt = c.now()
	c.mu.Unlock()
}

// snapshotLocked deep-copies the snapshot so store writes never alias the
// live answer map.
func (c *Controller) snapshotLocked() domain.AttemptSnapshot {
	answers := make(map[int]int, len(c.snapshot.Answers))
	for questionID, choiceID := range c.snapshot.Answers {
		answers[questionID] = choiceID
	}
	copied := c.snapshot
	copied.Answers = answers
	return copied
}

// Submit finalizes the attempt. Re-entrant calls while one is outstanding get
// ErrSubmitInFlight and cause no second remote call. On success the result is
// persisted, the in-progress snapshot is cleared, and the pending debounce
// write is cancelled; on failure the snapshot stays intact so the user can
// retry without losing answers.
func (c *Controller) Submit(ctx context.Context) (int, error) {
	c.mu.Lock()
	if c.submitting {
		c.mu.Unlock()
		return 0, domain.ErrSubmitInFlight
	}
	if c.snapshot.AttemptID == 0 {
		c.mu.Unlock()
		return 0, domain.ErrAttemptNotStarted
	}
	c.submitting = true
	attemptID := c.snapshot.AttemptID
	startedAt := c.snapshot.StartedAt
	quizID := c.snapshot.QuizID
	answers := c.snapshotLocked().Answers
	c.mu.Unlock()

	elapsed := c.elapsedSeconds(startedAt)
	submission, err := c.api.SubmitAttempt(ctx, attemptID, elapsed)
	if err != nil {
		c.mu.Lock()
		c.submitting = false
		c.mu.Unlock()
		return 0, err
	}

	c.mu.Lock()
	c.submitted = true
	c.dirty = false
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.saving = false
	c.mu.Unlock()

	c.store.SaveResult(domain.AttemptResult{
		AttemptID:        submission.AttemptID,
		QuizID:           submission.QuizID,
		StartedAt:        startedAt,
		SubmittedAt:      submission.SubmittedAt,
		Answers:          answers,
		Score:            submission.Score,
		TotalQuestions:   submission.TotalQuestions,
		TimeTakenSeconds: elapsed,
	})
	c.store.ClearProgress(quizID)
	return submission.AttemptID, nil
}

func (c *Controller) elapsedSeconds(startedAt string) int {
	started, err := time.Parse(time.RFC3339, startedAt)
	if err != nil {
		return 0
	}
	elapsed := int(c.now().Sub(started) / time.Second)
	if elapsed < 0 {
		return 0
	}
	return elapsed
}

// Close stops the debounce timer and forces a final synchronous write of any
// pending state, so teardown loses nothing.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.mu.Unlock()
	c.flush()
}

// Quiz returns the loaded quiz metadata.
func (c *Controller) Quiz() domain.Quiz {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.quiz
}

// Questions returns the attempt's current question list.
func (c *Controller) Questions() []domain.Question {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.questions
}

// CurrentQuestion returns the question under the pointer. ok is false when
// the question set is loaded but empty, which callers must distinguish from
// "still loading" (see Loaded).
func (c *Controller) CurrentQuestion() (domain.Question, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.snapshot.CurrentIndex >= len(c.questions) {
		return domain.Question{}, false
	}
	return c.questions[c.snapshot.CurrentIndex], true
}

// Loaded reports whether quiz metadata has been fetched.
func (c *Controller) Loaded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loaded
}

// Empty reports a loaded-but-questionless quiz.
func (c *Controller) Empty() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loaded && len(c.questions) == 0
}

func (c *Controller) CurrentIndex() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot.CurrentIndex
}

// Progress is the 0-100 completion fraction based on the question pointer.
func (c *Controller) Progress() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.questions) == 0 {
		return 0
	}
	return float64(c.snapshot.CurrentIndex+1) / float64(len(c.questions)) * 100
}

func (c *Controller) AnsweredCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.snapshot.Answers)
}

// Answers returns a copy of the answer map.
func (c *Controller) Answers() map[int]int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked().Answers
}

func (c *Controller) AttemptID() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot.AttemptID
}

func (c *Controller) StartedAt() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot.StartedAt
}

// Saving is true from the moment a mutation occurs until the debounced write
// completes. User-facing feedback only, not used for correctness.
func (c *Controller) Saving() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.saving
}

// LastSavedAt is the wall-clock time of the most recent completed write; zero
// before the first flush.
func (c *Controller) LastSavedAt() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastSavedAt
}

func (c *Controller) Submitting() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.submitting
}

// StartErr is the last failure from creating the remote attempt, nil once a
// start has succeeded. Submission requires a started attempt.
func (c *Controller) StartErr() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.startErr
}
