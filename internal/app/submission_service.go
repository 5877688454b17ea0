package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"quizhub-service/internal/domain"
	"quizhub-service/internal/logger"
)

// SubmissionService turns raw answer lists into persisted results.
// The score is always recomputed here; client-side feedback is never trusted.
type SubmissionService struct {
	quizzes  QuizRepository
	results  ResultRepository
	sessions SessionRepository
	now      func() time.Time
	log      *logger.Logger

	// guestMu serialises the read-modify-write of guest session scores.
	guestMu sync.Mutex
}

func NewSubmissionService(quizzes QuizRepository, results ResultRepository, sessions SessionRepository, log *logger.Logger) *SubmissionService {
	if log == nil {
		log = logger.NewNop()
	}
	return &SubmissionService{
		quizzes:  quizzes,
		results:  results,
		sessions: sessions,
		now:      time.Now,
		log:      log,
	}
}

// Submit scores the answers, appends a Result and credits the user.
// Registered users are credited in the store; guests only in their session.
// The returned Result carries the per-question Correct flags.
func (s *SubmissionService) Submit(ctx context.Context, p Principal, sub domain.Submission) (domain.Result, error) {
	if p.User.ID == "" {
		return domain.Result{}, domain.ErrUnauthorized
	}
	quiz, err := s.quizzes.GetQuiz(ctx, sub.QuizID)
	if err != nil {
		if errors.Is(err, domain.ErrQuizNotFound) {
			return domain.Result{}, err
		}
		return domain.Result{}, fmt.Errorf("%w: load quiz: %v", domain.ErrSubmissionFailed, err)
	}

	score, correct := domain.AuthoritativeScore(quiz, sub.Answers)
	timeTaken := sub.TimeTakenSeconds
	if timeTaken < 0 {
		timeTaken = 0
	}
	result := domain.Result{
		ID:               uuid.NewString(),
		UserID:           p.User.ID,
		QuizID:           quiz.ID,
		AttemptID:        sub.AttemptID,
		Score:            score,
		TotalQuestions:   len(quiz.Questions),
		TimeTakenSeconds: timeTaken,
		CreatedAt:        s.now().UTC(),
	}

	if p.User.IsGuest() {
		err = s.recordGuest(ctx, p, result)
	} else {
		_, err = s.results.RecordResult(ctx, result)
	}
	if err != nil {
		return domain.Result{}, mapStoreError(err)
	}

	s.log.Info("result recorded", "user", result.UserID, "quiz", result.QuizID, "score", result.Score, "guest", p.User.IsGuest())
	result.Correct = correct
	return result, nil
}

func (s *SubmissionService) recordGuest(ctx context.Context, p Principal, result domain.Result) error {
	s.guestMu.Lock()
	defer s.guestMu.Unlock()

	session, err := s.sessions.GetSession(ctx, p.SessionID)
	if err != nil {
		return err
	}
	if session.User.ID != p.User.ID {
		return domain.ErrForbidden
	}

	// The append is the idempotency point, so it must come after the credit.
	credited := session
	credited.User.TotalScore += result.Score
	if err := s.sessions.SaveSession(ctx, credited); err != nil {
		return err
	}
	if err := s.results.RecordGuestResult(ctx, result); err != nil {
		if rbErr := s.sessions.SaveSession(ctx, session); rbErr != nil {
			s.log.Error("guest credit rollback failed", "session", p.SessionID, "error", rbErr)
		}
		return err
	}
	return nil
}

// AttemptResult returns the result already recorded for attemptID, if any.
func (s *SubmissionService) AttemptResult(ctx context.Context, userID, attemptID string) (domain.Result, bool, error) {
	if attemptID == "" {
		return domain.Result{}, false, nil
	}
	results, err := s.results.ListResultsByUser(ctx, userID)
	if err != nil {
		return domain.Result{}, false, err
	}
	for _, r := range results {
		if r.AttemptID == attemptID {
			return r, true, nil
		}
	}
	return domain.Result{}, false, nil
}

// ListResults returns a user's results, newest first.
func (s *SubmissionService) ListResults(ctx context.Context, userID string) ([]domain.Result, error) {
	results, err := s.results.ListResultsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if results == nil {
		results = []domain.Result{}
	}
	return results, nil
}

func mapStoreError(err error) error {
	switch {
	case errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, domain.ErrDuplicateSubmission),
		errors.Is(err, domain.ErrSessionNotFound),
		errors.Is(err, domain.ErrForbidden):
		return err
	}
	return fmt.Errorf("%w: %v", domain.ErrSubmissionFailed, err)
}
