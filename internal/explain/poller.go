package explain

import (
	"context"
	"errors"
	"sync"
	"time"

	"mdcat-quiz-client/internal/domain"
)

// TaskAPI is the slice of the backend contract the poller needs.
type TaskAPI interface {
	RequestExplanation(ctx context.Context, questionID int) (string, error)
	TaskStatus(ctx context.Context, taskID string) (domain.TaskStatus, error)
}

// State is the poller's lifecycle state.
type State string

const (
	StateIdle       State = "idle"
	StateRequesting State = "requesting"
	StatePolling    State = "polling"
	StateSucceeded  State = "succeeded"
	StateFailed     State = "failed"
)

const (
	defaultInterval = time.Second
	// 120 one-second polls bounds a stuck backend task to ~2 minutes.
	defaultMaxPolls = 120
)

// Poller requests AI explanation generation for a question and polls the task
// status until a terminal state. Polling is time-triggered on a fixed
// interval; status calls run sequentially on the ticker, so a slow round-trip
// coalesces ticks instead of stacking in-flight polls. State is observable
// concurrently; task state is never persisted across runs.
type Poller struct {
	api      TaskAPI
	interval time.Duration
	maxPolls int

	mu     sync.Mutex
	state  State
	taskID string
	result string
	err    error
}

func NewPoller(api TaskAPI) *Poller {
	return NewPollerWithInterval(api, defaultInterval, defaultMaxPolls)
}

// NewPollerWithInterval is used by tests and by config-driven wiring.
func NewPollerWithInterval(api TaskAPI, interval time.Duration, maxPolls int) *Poller {
	if interval <= 0 {
		interval = defaultInterval
	}
	if maxPolls <= 0 {
		maxPolls = defaultMaxPolls
	}
	return &Poller{
		api:      api,
		interval: interval,
		maxPolls: maxPolls,
		state:    StateIdle,
	}
}

// Run executes one full request-and-poll cycle. Calling it again after a
// failure starts a fresh task, never a resume. The returned error is also
// retained for Err.
func (p *Poller) Run(ctx context.Context, questionID int) error {
	p.transition(StateRequesting, "", "", nil)

	taskID, err := p.api.RequestExplanation(ctx, questionID)
	if err != nil {
		p.transition(StateFailed, "", "", err)
		return err
	}
	p.transition(StatePolling, taskID, "", nil)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for polls := 0; polls < p.maxPolls; {
		select {
		case <-ctx.Done():
			p.transition(StateFailed, taskID, "", ctx.Err())
			return ctx.Err()
		case <-ticker.C:
		}
		polls++

		status, err := p.api.TaskStatus(ctx, taskID)
		if err != nil {
			// The broker may not have registered the task yet; that is
			// "still pending", not a failure.
			if errors.Is(err, domain.ErrTaskNotFound) {
				continue
			}
			p.transition(StateFailed, taskID, "", err)
			return err
		}

		switch status.State {
		case domain.TaskSuccess:
			p.transition(StateSucceeded, taskID, status.Result, nil)
			return nil
		case domain.TaskFailure:
			err := errors.New("explanation generation failed")
			p.transition(StateFailed, taskID, "", err)
			return err
		}
	}

	p.transition(StateFailed, taskID, "", domain.ErrPollTimeout)
	return domain.ErrPollTimeout
}

func (p *Poller) transition(state State, taskID, result string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state = state
	p.taskID = taskID
	p.result = result
	p.err = err
}

func (p *Poller) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *Poller) TaskID() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.taskID
}

// Result is the generated explanation; meaningful only in StateSucceeded.
func (p *Poller) Result() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.result
}

func (p *Poller) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}
