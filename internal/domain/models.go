package domain

// Choice is one selectable answer for a question.
type Choice struct {
	ID   int    `json:"id"`
	Text string `json:"text"`
}

// Question is a multiple-choice question as served by the backend.
type Question struct {
	ID      int      `json:"id"`
	Text    string   `json:"text"`
	Choices []Choice `json:"choices"`
}

// Quiz is quiz metadata plus its question list.
type Quiz struct {
	ID          int        `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Category    string     `json:"category"`
	CreatedAt   string     `json:"created_at"`
	Questions   []Question `json:"questions"`
}

// AttemptSnapshot is the locally cached, in-progress state of an attempt.
// AttemptID stays zero until the remote attempt has been created.
type AttemptSnapshot struct {
	QuizID       int         `json:"quizId"`
	AttemptID    int         `json:"attemptId,omitempty"`
	StartedAt    string      `json:"startedAt"`
	CurrentIndex int         `json:"currentIndex"`
	Answers      map[int]int `json:"answers"`
}

// AttemptResult is the immutable, finalized outcome of a submitted attempt.
type AttemptResult struct {
	AttemptID        int         `json:"attemptId"`
	QuizID           int         `json:"quizId"`
	StartedAt        string      `json:"startedAt"`
	SubmittedAt      string      `json:"submittedAt"`
	Answers          map[int]int `json:"answers"`
	Score            int         `json:"score"`
	TotalQuestions   int         `json:"totalQuestions"`
	TimeTakenSeconds int         `json:"timeTakenSeconds"`
}

// AttemptStart is the backend's response to starting an attempt.
type AttemptStart struct {
	ID        int    `json:"id"`
	QuizID    int    `json:"quiz"`
	Status    string `json:"status"`
	StartedAt string `json:"started_at"`
}

// AttemptSubmission is the backend's response to submitting an attempt.
type AttemptSubmission struct {
	AttemptID      int    `json:"attempt_id"`
	QuizID         int    `json:"quiz_id"`
	Score          int    `json:"score"`
	TotalQuestions int    `json:"total_questions"`
	SubmittedAt    string `json:"submitted_at"`
}

// TaskState is the lifecycle state of an async explanation task.
type TaskState string

const (
	TaskQueued  TaskState = "QUEUED"
	TaskRunning TaskState = "RUNNING"
	TaskSuccess TaskState = "SUCCESS"
	TaskFailure TaskState = "FAILURE"
)

// Terminal reports whether the task will make no further progress.
func (s TaskState) Terminal() bool {
	return s == TaskSuccess || s == TaskFailure
}

// TaskStatus is a point-in-time view of an explanation task.
type TaskStatus struct {
	TaskID string    `json:"task_id"`
	State  TaskState `json:"state"`
	Result string    `json:"result,omitempty"`
}

// User identifies the authenticated account, as reported by auth/me/.
type User struct {
	ID        int    `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}
