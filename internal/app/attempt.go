package app

import (
	"sync"
	"time"

	"quizhub-service/internal/domain"
)

// AttemptState is the play-session state of an attempt.
type AttemptState string

const (
	StateAwaitingAnswer AttemptState = "awaiting_answer"
	StateAnswered       AttemptState = "answered"
	StateFinished       AttemptState = "finished"
)

// Attempt event types pushed to subscribers.
const (
	EventSnapshot     = "snapshot"
	EventTick         = "tick"
	EventAnswered     = "answered"
	EventAdvanced     = "advanced"
	EventFinished     = "finished"
	EventSubmitted    = "submitted"
	EventSubmitFailed = "submit_failed"
)

// QuestionView is a question as shown to the player; the correct index is never included.
type QuestionView struct {
	QuestionText string   `json:"questionText"`
	Options      []string `json:"options"`
}

// AttemptSnapshot is a point-in-time view of an attempt.
type AttemptSnapshot struct {
	ID                   string           `json:"id"`
	QuizID               string           `json:"quizId"`
	QuizTitle            string           `json:"quizTitle"`
	UserID               string           `json:"userId"`
	State                AttemptState     `json:"state"`
	CurrentIndex         int              `json:"currentIndex"`
	TotalQuestions       int              `json:"totalQuestions"`
	Question             *QuestionView    `json:"question,omitempty"`
	SelectedOption       *int             `json:"selectedOption,omitempty"`
	Feedback             *domain.Feedback `json:"feedback,omitempty"`
	Answers              []int            `json:"answers"`
	FeedbackScore        int              `json:"feedbackScore"`
	RemainingTimeSeconds int              `json:"remainingTimeSeconds"`
	StartedAt            time.Time        `json:"startedAt"`
	FinishedAt           *time.Time       `json:"finishedAt,omitempty"`
	Submitted            bool             `json:"submitted"`
	Result               *domain.Result   `json:"result,omitempty"`
	SubmitError          string           `json:"submitError,omitempty"`
}

// AttemptEvent is pushed to subscribers on every state change.
type AttemptEvent struct {
	Type    string          `json:"type"`
	Attempt AttemptSnapshot `json:"attempt"`
}

// Attempt is one user's timed run through a quiz.
// len(answers) == currentIndex holds in every non-finished state.
type Attempt struct {
	id        string
	quiz      domain.Quiz
	principal Principal
	now       func() time.Time

	mu            sync.Mutex
	state         AttemptState
	currentIndex  int
	selected      int
	feedback      domain.Feedback
	answers       []int
	feedbackScore int
	remaining     int
	startedAt     time.Time
	finishedAt    time.Time
	submitting    bool
	submitted     bool
	result        *domain.Result
	submitErr     error
	subscribers   map[chan AttemptEvent]struct{}
	closed        bool

	done     chan struct{}
	doneOnce sync.Once
}

func newAttempt(id string, quiz domain.Quiz, principal Principal, now func() time.Time) *Attempt {
	return &Attempt{
		id:          id,
		quiz:        quiz,
		principal:   principal,
		now:         now,
		state:       StateAwaitingAnswer,
		selected:    domain.NoAnswer,
		answers:     make([]int, 0, len(quiz.Questions)),
		remaining:   quiz.DurationMinutes() * 60,
		startedAt:   now(),
		subscribers: make(map[chan AttemptEvent]struct{}),
		done:        make(chan struct{}),
	}
}

func (a *Attempt) ID() string { return a.id }

// Done is closed once the attempt is finished or abandoned.
func (a *Attempt) Done() <-chan struct{} { return a.done }

func (a *Attempt) ownedBy(userID string) bool {
	return a.principal.User.ID == userID
}

// SelectOption records the choice for the current question and returns advisory feedback.
// Repeated calls while Answered are no-ops that return the original feedback.
func (a *Attempt) SelectOption(option int) (domain.Feedback, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	switch a.state {
	case StateFinished:
		return domain.Feedback{}, domain.ErrAttemptFinished
	case StateAnswered:
		return a.feedback, nil
	}
	if option < 0 || option >= len(a.quiz.Questions[a.currentIndex].Options) {
		return domain.Feedback{}, domain.Invalid("option", "must be between 0 and %d", len(a.quiz.Questions[a.currentIndex].Options)-1)
	}

	a.selected = option
	a.feedback = domain.ImmediateFeedback(a.quiz.Questions[a.currentIndex], option)
	a.feedbackScore += a.feedback.Points
	a.state = StateAnswered
	a.broadcastLocked(EventAnswered)
	return a.feedback, nil
}

// Advance appends the selected option and moves on; after the last question
// the attempt finishes. finished is true only on that transition.
func (a *Attempt) Advance() (finished bool, err error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	switch a.state {
	case StateFinished:
		return false, domain.ErrAttemptFinished
	case StateAwaitingAnswer:
		return false, domain.ErrNotAnswered
	}

	a.answers = append(a.answers, a.selected)
	if a.currentIndex == len(a.quiz.Questions)-1 {
		a.finishLocked()
		return true, nil
	}
	a.currentIndex++
	a.selected = domain.NoAnswer
	a.feedback = domain.Feedback{}
	a.state = StateAwaitingAnswer
	a.broadcastLocked(EventAdvanced)
	return false, nil
}

// Tick decrements the countdown by one second and expires the attempt at zero.
func (a *Attempt) Tick() (finished bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.state == StateFinished {
		return false
	}
	if a.remaining > 0 {
		a.remaining--
	}
	if a.remaining == 0 {
		return a.expireLocked()
	}
	a.broadcastLocked(EventTick)
	return false
}

// TimeExpire finishes the attempt now: the current selection (or NoAnswer) is
// recorded and every remaining question is padded with NoAnswer.
func (a *Attempt) TimeExpire() (finished bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.expireLocked()
}

func (a *Attempt) expireLocked() bool {
	if a.state == StateFinished {
		return false
	}
	if a.state == StateAnswered {
		a.answers = append(a.answers, a.selected)
	} else {
		a.answers = append(a.answers, domain.NoAnswer)
	}
	for len(a.answers) < len(a.quiz.Questions) {
		a.answers = append(a.answers, domain.NoAnswer)
	}
	a.finishLocked()
	return true
}

func (a *Attempt) finishLocked() {
	a.state = StateFinished
	a.finishedAt = a.now()
	a.selected = domain.NoAnswer
	a.stop()
	a.broadcastLocked(EventFinished)
}

func (a *Attempt) stop() {
	a.doneOnce.Do(func() { close(a.done) })
}

// beginSubmit hands out the finished answer list at most once at a time.
// It returns false when the attempt is still running, already submitted or in flight.
func (a *Attempt) beginSubmit() (domain.Submission, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.state != StateFinished || a.submitted || a.submitting {
		return domain.Submission{}, false
	}
	a.submitting = true
	return domain.Submission{
		AttemptID:        a.id,
		QuizID:           a.quiz.ID,
		Answers:          append([]int(nil), a.answers...),
		TimeTakenSeconds: a.timeTakenLocked(),
	}, true
}

func (a *Attempt) endSubmit(result domain.Result, err error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.submitting = false
	if err != nil {
		a.submitErr = err
		a.broadcastLocked(EventSubmitFailed)
		return
	}
	a.submitted = true
	a.submitErr = nil
	a.result = &result
	a.broadcastLocked(EventSubmitted)
}

func (a *Attempt) timeTakenLocked() int {
	taken := a.quiz.DurationMinutes()*60 - a.remaining
	if taken < 0 {
		return 0
	}
	return taken
}

func (a *Attempt) finishedBefore(cutoff time.Time) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state == StateFinished && !a.submitting && a.finishedAt.Before(cutoff)
}

// Snapshot returns the current view of the attempt.
func (a *Attempt) Snapshot() AttemptSnapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.snapshotLocked()
}

func (a *Attempt) snapshotLocked() AttemptSnapshot {
	snap := AttemptSnapshot{
		ID:                   a.id,
		QuizID:               a.quiz.ID,
		QuizTitle:            a.quiz.Title,
		UserID:               a.principal.User.ID,
		State:                a.state,
		CurrentIndex:         a.currentIndex,
		TotalQuestions:       len(a.quiz.Questions),
		Answers:              append([]int{}, a.answers...),
		FeedbackScore:        a.feedbackScore,
		RemainingTimeSeconds: a.remaining,
		StartedAt:            a.startedAt,
		Submitted:            a.submitted,
	}
	if a.state != StateFinished {
		q := a.quiz.Questions[a.currentIndex]
		snap.Question = &QuestionView{
			QuestionText: q.QuestionText,
			Options:      append([]string(nil), q.Options...),
		}
	}
	if a.state == StateAnswered {
		selected := a.selected
		fb := a.feedback
		snap.SelectedOption = &selected
		snap.Feedback = &fb
	}
	if a.state == StateFinished {
		finishedAt := a.finishedAt
		snap.FinishedAt = &finishedAt
	}
	if a.result != nil {
		result := *a.result
		snap.Result = &result
	}
	if a.submitErr != nil {
		snap.SubmitError = a.submitErr.Error()
	}
	return snap
}

func (a *Attempt) subscribe() (<-chan AttemptEvent, func()) {
	ch := make(chan AttemptEvent, 8)

	a.mu.Lock()
	// ch is empty, so the send cannot block.
	ch <- AttemptEvent{Type: EventSnapshot, Attempt: a.snapshotLocked()}
	if a.closed {
		close(ch)
	} else {
		a.subscribers[ch] = struct{}{}
	}
	a.mu.Unlock()

	cancel := func() {
		a.mu.Lock()
		if _, ok := a.subscribers[ch]; ok {
			delete(a.subscribers, ch)
			close(ch)
		}
		a.mu.Unlock()
	}
	return ch, cancel
}

func (a *Attempt) closeSubscribers() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.closed = true
	for ch := range a.subscribers {
		delete(a.subscribers, ch)
		close(ch)
	}
}

func (a *Attempt) broadcastLocked(eventType string) {
	if len(a.subscribers) == 0 {
		return
	}
	ev := AttemptEvent{Type: eventType, Attempt: a.snapshotLocked()}
	for ch := range a.subscribers {
		select {
		case ch <- ev:
		default:
			// Slow subscriber: drop the oldest event rather than block the attempt.
			select {
			case <-ch:
			default:
			}
			ch <- ev
		}
	}
}
