package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"sync"
	"time"

	"mdcat-quiz-client/internal/domain"
	"github.com/go-playground/validator/v10"
)

// APIError is a non-2xx backend response that carries a human-readable detail.
type APIError struct {
	Status int
	Detail string
}

func (e *APIError) Error() string {
	if strings.TrimSpace(e.Detail) == "" {
		return fmt.Sprintf("request failed with status %d", e.Status)
	}
	return e.Detail
}

// Client talks to the exam-prep backend API. Credentials live in HttpOnly
// cookies managed by the jar; a 401 on a non-auth endpoint triggers one
// refresh-and-retry before the error is surfaced.
type Client struct {
	baseURL    string
	httpClient *http.Client
	validate   *validator.Validate

	mu            sync.Mutex
	refreshFailed bool
}

func NewClient(baseURL string, timeout time.Duration) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("cookie jar: %w", err)
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
			Jar:     jar,
		},
		validate: validator.New(),
	}, nil
}

type detailResponse struct {
	Detail string `json:"detail"`
}

func isAuthEndpoint(path string) bool {
	return strings.HasPrefix(path, "/auth/")
}

// doJSON issues a request and decodes a 2xx body into out (when non-nil).
// Status mapping: 401 -> domain.ErrUnauthorized, 429 -> domain.ErrRateLimited,
// other >=400 -> *APIError. Decode failures become *domain.ProtocolError.
func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	resp, raw, err := c.roundTrip(ctx, method, path, body)
	if err != nil {
		return err
	}

	if resp.StatusCode == http.StatusUnauthorized && !isAuthEndpoint(path) && c.tryRefresh(ctx) {
		resp, raw, err = c.roundTrip(ctx, method, path, body)
		if err != nil {
			return err
		}
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return domain.ErrUnauthorized
	case resp.StatusCode == http.StatusTooManyRequests:
		return domain.ErrRateLimited
	case resp.StatusCode >= 400:
		apiErr := &APIError{Status: resp.StatusCode}
		var detail detailResponse
		if json.Unmarshal(raw, &detail) == nil {
			apiErr.Detail = detail.Detail
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &domain.ProtocolError{Endpoint: path, Err: err}
	}
	if err := c.validate.Struct(out); err != nil {
		return &domain.ProtocolError{Endpoint: path, Err: err}
	}
	return nil
}

func (c *Client) roundTrip(ctx context.Context, method, path string, body any) (*http.Response, []byte, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, nil, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("read response: %w", err)
	}
	return resp, raw, nil
}

// tryRefresh attempts one token refresh. Once a refresh fails, further 401s
// are surfaced immediately until the next successful login.
func (c *Client) tryRefresh(ctx context.Context) bool {
	c.mu.Lock()
	failed := c.refreshFailed
	c.mu.Unlock()
	if failed {
		return false
	}
	if err := c.Refresh(ctx); err != nil {
		c.mu.Lock()
		c.refreshFailed = true
		c.mu.Unlock()
		return false
	}
	return true
}

// Login authenticates with the backend; the session cookies land in the jar.
func (c *Client) Login(ctx context.Context, username, password string) error {
	err := c.doJSON(ctx, http.MethodPost, "/auth/login/", map[string]string{
		"username": username,
		"password": password,
	}, nil)
	if err == nil {
		c.mu.Lock()
		c.refreshFailed = false
		c.mu.Unlock()
	}
	return err
}

// Logout invalidates the backend session.
func (c *Client) Logout(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodPost, "/auth/logout/", struct{}{}, nil)
}

// Refresh rotates the access token using the refresh cookie.
func (c *Client) Refresh(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodPost, "/auth/refresh/", struct{}{}, nil)
}

type meResponse struct {
	User userPayload `json:"user" validate:"required"`
}

type userPayload struct {
	ID        int    `json:"id" validate:"required"`
	Username  string `json:"username" validate:"required"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// Me returns the authenticated user, or domain.ErrUnauthorized when the
// backend does not recognize the credentials.
func (c *Client) Me(ctx context.Context) (domain.User, error) {
	var out meResponse
	if err := c.doJSON(ctx, http.MethodGet, "/auth/me/", nil, &out); err != nil {
		return domain.User{}, err
	}
	return domain.User{
		ID:        out.User.ID,
		Username:  out.User.Username,
		Email:     out.User.Email,
		FirstName: out.User.FirstName,
		LastName:  out.User.LastName,
	}, nil
}

type choicePayload struct {
	ID   int    `json:"id" validate:"required"`
	Text string `json:"text"`
}

type questionPayload struct {
	ID      int             `json:"id" validate:"required"`
	Text    string          `json:"text"`
	Choices []choicePayload `json:"choices" validate:"dive"`
}

type quizResponse struct {
	ID          int               `json:"id" validate:"required"`
	Title       string            `json:"title" validate:"required"`
	Description string            `json:"description"`
	Category    string            `json:"category"`
	CreatedAt   string            `json:"created_at"`
	Questions   []questionPayload `json:"questions" validate:"dive"`
}

// GetQuiz fetches quiz metadata and its question list.
func (c *Client) GetQuiz(ctx context.Context, quizID int) (domain.Quiz, error) {
	var out quizResponse
	err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/quizzes/%d/", quizID), nil, &out)
	if err != nil {
		return domain.Quiz{}, quizNotFound(err)
	}
	return domain.Quiz{
		ID:          out.ID,
		Title:       out.Title,
		Description: out.Description,
		Category:    out.Category,
		CreatedAt:   out.CreatedAt,
		Questions:   toQuestions(out.Questions),
	}, nil
}

type attemptStartResponse struct {
	ID        int    `json:"id" validate:"required"`
	Quiz      int    `json:"quiz" validate:"required"`
	Status    string `json:"status"`
	StartedAt string `json:"started_at" validate:"required"`
}

// StartAttempt creates a fresh remote attempt for the quiz.
func (c *Client) StartAttempt(ctx context.Context, quizID int) (domain.AttemptStart, error) {
	var out attemptStartResponse
	err := c.doJSON(ctx, http.MethodPost, fmt.Sprintf("/quizzes/%d/start/", quizID), struct{}{}, &out)
	if err != nil {
		return domain.AttemptStart{}, quizNotFound(err)
	}
	return domain.AttemptStart{
		ID:        out.ID,
		QuizID:    out.Quiz,
		Status:    out.Status,
		StartedAt: out.StartedAt,
	}, nil
}

type attemptQuestionsResponse struct {
	AttemptID int               `json:"attempt_id" validate:"required"`
	QuizID    int               `json:"quiz_id" validate:"required"`
	Questions []questionPayload `json:"questions" validate:"dive"`
}

// AttemptQuestions fetches the authoritative question list for an attempt.
// It may differ from the quiz metadata's list if content changed server-side.
func (c *Client) AttemptQuestions(ctx context.Context, attemptID int) ([]domain.Question, error) {
	var out attemptQuestionsResponse
	err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/attempts/%d/questions/", attemptID), nil, &out)
	if err != nil {
		return nil, err
	}
	return toQuestions(out.Questions), nil
}

// SaveAnswer records a single answer remotely. Callers treat it as
// best-effort: the final submission resends the full answer set.
func (c *Client) SaveAnswer(ctx context.Context, attemptID, questionID, choiceID int) error {
	return c.doJSON(ctx, http.MethodPost, fmt.Sprintf("/attempts/%d/answer/", attemptID), map[string]int{
		"question_id": questionID,
		"choice_id":   choiceID,
	}, nil)
}

type attemptSubmitResponse struct {
	AttemptID      int    `json:"attempt_id" validate:"required"`
	QuizID         int    `json:"quiz_id" validate:"required"`
	Score          int    `json:"score" validate:"min=0"`
	TotalQuestions int    `json:"total_questions" validate:"min=0"`
	SubmittedAt    string `json:"submitted_at" validate:"required"`
}

// SubmitAttempt finalizes the attempt and returns the scored outcome.
func (c *Client) SubmitAttempt(ctx context.Context, attemptID, timeTakenSeconds int) (domain.AttemptSubmission, error) {
	var out attemptSubmitResponse
	err := c.doJSON(ctx, http.MethodPost, fmt.Sprintf("/attempts/%d/submit/", attemptID), map[string]int{
		"time_taken_seconds": timeTakenSeconds,
	}, &out)
	if err != nil {
		return domain.AttemptSubmission{}, err
	}
	return domain.AttemptSubmission{
		AttemptID:      out.AttemptID,
		QuizID:         out.QuizID,
		Score:          out.Score,
		TotalQuestions: out.TotalQuestions,
		SubmittedAt:    out.SubmittedAt,
	}, nil
}

type attemptResultResponse struct {
	AttemptID        int    `json:"attempt_id" validate:"required"`
	QuizID           int    `json:"quiz_id" validate:"required"`
	Score            int    `json:"score" validate:"min=0"`
	TotalQuestions   int    `json:"total_questions" validate:"min=0"`
	StartedAt        string `json:"started_at"`
	SubmittedAt      string `json:"submitted_at"`
	TimeTakenSeconds int    `json:"time_taken_seconds" validate:"min=0"`
}

// AttemptResult fetches the backend's record of a finished attempt, used when
// the local archive has no copy.
func (c *Client) AttemptResult(ctx context.Context, attemptID int) (domain.AttemptResult, error) {
	var out attemptResultResponse
	err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/attempts/%d/results/", attemptID), nil, &out)
	if err != nil {
		return domain.AttemptResult{}, err
	}
	return domain.AttemptResult{
		AttemptID:        out.AttemptID,
		QuizID:           out.QuizID,
		Score:            out.Score,
		TotalQuestions:   out.TotalQuestions,
		StartedAt:        out.StartedAt,
		SubmittedAt:      out.SubmittedAt,
		TimeTakenSeconds: out.TimeTakenSeconds,
	}, nil
}

type generateExplanationResponse struct {
	TaskID string `json:"task_id" validate:"required"`
	Status string `json:"status"`
}

// RequestExplanation enqueues AI explanation generation for a question and
// returns the task id to poll. Backend rate limits surface as ErrRateLimited.
func (c *Client) RequestExplanation(ctx context.Context, questionID int) (string, error) {
	var out generateExplanationResponse
	err := c.doJSON(ctx, http.MethodPost, fmt.Sprintf("/questions/%d/generate-explanation/", questionID), struct{}{}, &out)
	if err != nil {
		return "", err
	}
	return out.TaskID, nil
}

type taskStatusResponse struct {
	TaskID string `json:"task_id" validate:"required"`
	State  string `json:"state" validate:"required,oneof=QUEUED RUNNING SUCCESS FAILURE"`
	Result string `json:"result"`
}

// TaskStatus reports the current state of an explanation task. A 404 maps to
// ErrTaskNotFound, which pollers treat as "not registered yet".
func (c *Client) TaskStatus(ctx context.Context, taskID string) (domain.TaskStatus, error) {
	var out taskStatusResponse
	err := c.doJSON(ctx, http.MethodGet, "/tasks/status/"+taskID+"/", nil, &out)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
			return domain.TaskStatus{}, domain.ErrTaskNotFound
		}
		return domain.TaskStatus{}, err
	}
	return domain.TaskStatus{
		TaskID: out.TaskID,
		State:  domain.TaskState(out.State),
		Result: out.Result,
	}, nil
}

func toQuestions(payload []questionPayload) []domain.Question {
	questions := make([]domain.Question, 0, len(payload))
	for _, q := range payload {
		choices := make([]domain.Choice, 0, len(q.Choices))
		for _, choice := range q.Choices {
			choices = append(choices, domain.Choice{ID: choice.ID, Text: choice.Text})
		}
		questions = append(questions, domain.Question{ID: q.ID, Text: q.Text, Choices: choices})
	}
	return questions
}

func quizNotFound(err error) error {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
		return domain.ErrQuizNotFound
	}
	return err
}
