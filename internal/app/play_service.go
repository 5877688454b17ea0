package app

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"quizhub-service/internal/domain"
	"quizhub-service/internal/logger"
)

const submitTimeout = 10 * time.Second

// PlayService runs timed quiz attempts and submits each one exactly once when it finishes.
type PlayService struct {
	quizzes     QuizRepository
	submissions *SubmissionService
	clock       Clock
	retention   time.Duration
	log         *logger.Logger

	mu       sync.RWMutex
	attempts map[string]*Attempt
	wg       sync.WaitGroup
}

func NewPlayService(quizzes QuizRepository, submissions *SubmissionService, clock Clock, retention time.Duration, log *logger.Logger) *PlayService {
	if clock == nil {
		clock = SystemClock()
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &PlayService{
		quizzes:     quizzes,
		submissions: submissions,
		clock:       clock,
		retention:   retention,
		log:         log,
		attempts:    make(map[string]*Attempt),
	}
}

// Start loads the quiz and begins a countdown of duration*60 seconds.
func (s *PlayService) Start(ctx context.Context, p Principal, quizID string) (AttemptSnapshot, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return AttemptSnapshot{}, err
	}
	if len(quiz.Questions) == 0 {
		return AttemptSnapshot{}, domain.Invalid("questions", "quiz has no questions")
	}

	a := newAttempt(uuid.NewString(), quiz, p, s.clock.Now)
	s.mu.Lock()
	s.attempts[a.id] = a
	s.mu.Unlock()

	ticker := s.clock.NewTicker(time.Second)
	s.wg.Add(1)
	go s.run(a, ticker)

	s.log.Info("attempt started", "attempt", a.id, "quiz", quiz.ID, "user", p.User.ID)
	return a.Snapshot(), nil
}

func (s *PlayService) run(a *Attempt, ticker Ticker) {
	defer s.wg.Done()
	defer ticker.Stop()
	for {
		select {
		case <-a.Done():
			return
		case <-ticker.C():
			if a.Tick() {
				s.log.Info("attempt expired", "attempt", a.id)
				s.submit(a)
				return
			}
		}
	}
}

// Get returns the attempt snapshot for its owner.
func (s *PlayService) Get(_ context.Context, p Principal, attemptID string) (AttemptSnapshot, error) {
	a, err := s.lookup(p, attemptID)
	if err != nil {
		return AttemptSnapshot{}, err
	}
	return a.Snapshot(), nil
}

// Select records an option for the current question.
func (s *PlayService) Select(_ context.Context, p Principal, attemptID string, option int) (AttemptSnapshot, error) {
	a, err := s.lookup(p, attemptID)
	if err != nil {
		return AttemptSnapshot{}, err
	}
	if _, err := a.SelectOption(option); err != nil {
		return AttemptSnapshot{}, err
	}
	return a.Snapshot(), nil
}

// Advance moves to the next question; finishing the last one submits synchronously.
func (s *PlayService) Advance(_ context.Context, p Principal, attemptID string) (AttemptSnapshot, error) {
	a, err := s.lookup(p, attemptID)
	if err != nil {
		return AttemptSnapshot{}, err
	}
	finished, err := a.Advance()
	if err != nil {
		return AttemptSnapshot{}, err
	}
	if finished {
		s.submit(a)
	}
	return a.Snapshot(), nil
}

// RetrySubmit resubmits a finished attempt whose previous submission failed.
// Already submitted attempts are returned unchanged.
func (s *PlayService) RetrySubmit(_ context.Context, p Principal, attemptID string) (AttemptSnapshot, error) {
	a, err := s.lookup(p, attemptID)
	if err != nil {
		return AttemptSnapshot{}, err
	}
	if a.Snapshot().State != StateFinished {
		return AttemptSnapshot{}, domain.Invalid("state", "attempt is still running")
	}
	s.submit(a)
	return a.Snapshot(), nil
}

// Subscribe returns a channel of attempt events, starting with a snapshot.
// The caller must invoke the returned cancel function to avoid leaks.
func (s *PlayService) Subscribe(_ context.Context, p Principal, attemptID string) (<-chan AttemptEvent, func(), error) {
	a, err := s.lookup(p, attemptID)
	if err != nil {
		return nil, nil, err
	}
	ch, cancel := a.subscribe()
	return ch, cancel, nil
}

// Abandon stops the countdown and drops the attempt without submitting.
func (s *PlayService) Abandon(_ context.Context, p Principal, attemptID string) error {
	a, err := s.lookup(p, attemptID)
	if err != nil {
		return err
	}
	s.remove(a)
	s.log.Info("attempt abandoned", "attempt", a.id)
	return nil
}

// Sweep drops finished attempts older than the retention window and returns how many went.
func (s *PlayService) Sweep(now time.Time) int {
	cutoff := now.Add(-s.retention)
	s.mu.RLock()
	var stale []*Attempt
	for _, a := range s.attempts {
		if a.finishedBefore(cutoff) {
			stale = append(stale, a)
		}
	}
	s.mu.RUnlock()

	for _, a := range stale {
		s.remove(a)
	}
	return len(stale)
}

// RunSweeper sweeps on every interval until ctx is done.
func (s *PlayService) RunSweeper(ctx context.Context, interval time.Duration) error {
	ticker := s.clock.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C():
			if n := s.Sweep(s.clock.Now()); n > 0 {
				s.log.Debug("swept attempts", "count", n)
			}
		}
	}
}

// Close stops every running countdown. Unfinished attempts are dropped.
func (s *PlayService) Close() {
	s.mu.Lock()
	attempts := make([]*Attempt, 0, len(s.attempts))
	for _, a := range s.attempts {
		attempts = append(attempts, a)
	}
	s.mu.Unlock()
	for _, a := range attempts {
		s.remove(a)
	}
	s.wg.Wait()
}

// Active reports the number of attempts held in memory.
func (s *PlayService) Active() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.attempts)
}

func (s *PlayService) lookup(p Principal, attemptID string) (*Attempt, error) {
	s.mu.RLock()
	a, ok := s.attempts[attemptID]
	s.mu.RUnlock()
	if !ok {
		return nil, domain.ErrAttemptNotFound
	}
	if !a.ownedBy(p.User.ID) {
		return nil, domain.ErrForbidden
	}
	return a, nil
}

func (s *PlayService) remove(a *Attempt) {
	s.mu.Lock()
	delete(s.attempts, a.id)
	s.mu.Unlock()
	a.stop()
	a.closeSubscribers()
}

func (s *PlayService) submit(a *Attempt) {
	sub, ok := a.beginSubmit()
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), submitTimeout)
	defer cancel()

	result, err := s.submissions.Submit(ctx, a.principal, sub)
	if errors.Is(err, domain.ErrDuplicateSubmission) {
		// An earlier try committed even though it reported failure.
		if stored, found, lookupErr := s.submissions.AttemptResult(ctx, a.principal.User.ID, sub.AttemptID); lookupErr == nil && found {
			_, stored.Correct = domain.AuthoritativeScore(a.quiz, sub.Answers)
			result, err = stored, nil
		}
	}
	if err != nil {
		s.log.Error("attempt submission failed", "attempt", a.id, "error", err)
	} else {
		s.log.Info("attempt submitted", "attempt", a.id, "score", result.Score)
	}
	a.endSubmit(result, err)
}
