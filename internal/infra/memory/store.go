package memory

import (
	"context"
	"sort"
	"sync"

	"quizhub-service/internal/domain"
)

// Store keeps quizzes, users and results in process memory.
// One mutex guards all three so a result append and its score credit are atomic.
type Store struct {
	mu sync.RWMutex

	quizzes   map[string]domain.Quiz
	quizOrder []string // newest first

	users        []*domain.User // creation order
	usersByID    map[string]*domain.User
	usersByEmail map[string]*domain.User

	results    []domain.Result
	attemptIDs map[string]struct{}
}

func NewStore() *Store {
	return &Store{
		quizzes:      make(map[string]domain.Quiz),
		usersByID:    make(map[string]*domain.User),
		usersByEmail: make(map[string]*domain.User),
		attemptIDs:   make(map[string]struct{}),
	}
}

func (s *Store) LoadQuiz(_ context.Context, quizID string) (domain.Quiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	quiz, ok := s.quizzes[quizID]
	if !ok {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	return quiz.Clone(), nil
}

func (s *Store) ListQuizzes(_ context.Context) ([]domain.Quiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Quiz, 0, len(s.quizOrder))
	for _, id := range s.quizOrder {
		out = append(out, s.quizzes[id].Clone())
	}
	return out, nil
}

// SaveQuiz prepends new quizzes and replaces existing ones in place.
func (s *Store) SaveQuiz(_ context.Context, quiz domain.Quiz) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.quizzes[quiz.ID]; !ok {
		s.quizOrder = append([]string{quiz.ID}, s.quizOrder...)
	}
	s.quizzes[quiz.ID] = quiz.Clone()
	return nil
}

func (s *Store) CreateUser(_ context.Context, user domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.usersByEmail[user.Email]; ok {
		return domain.ErrEmailTaken
	}
	if _, ok := s.usersByID[user.ID]; ok {
		return domain.Invalid("id", "user %q already exists", user.ID)
	}
	u := user.Clone()
	s.users = append(s.users, &u)
	s.usersByID[u.ID] = &u
	s.usersByEmail[u.Email] = &u
	return nil
}

func (s *Store) GetUser(_ context.Context, userID string) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.usersByID[userID]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	return u.Clone(), nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.usersByEmail[email]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	return u.Clone(), nil
}

func (s *Store) UpdateProfile(_ context.Context, userID string, update domain.ProfileUpdate) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.usersByID[userID]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	update.Apply(u)
	return u.Clone(), nil
}

func (s *Store) TopUsers(_ context.Context, limit int) ([]domain.User, error) {
	s.mu.RLock()
	ranked := make([]domain.User, 0, len(s.users))
	for _, u := range s.users {
		ranked = append(ranked, u.Clone())
	}
	s.mu.RUnlock()

	// SliceStable keeps creation order among equal scores.
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].TotalScore > ranked[j].TotalScore
	})
	if limit >= 0 && limit < len(ranked) {
		ranked = ranked[:limit]
	}
	return ranked, nil
}

func (s *Store) RecordResult(_ context.Context, result domain.Result) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.usersByID[result.UserID]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	if err := s.appendResultLocked(result); err != nil {
		return domain.User{}, err
	}
	u.TotalScore += result.Score
	return u.Clone(), nil
}

func (s *Store) RecordGuestResult(_ context.Context, result domain.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.appendResultLocked(result)
}

func (s *Store) appendResultLocked(result domain.Result) error {
	if result.AttemptID != "" {
		if _, dup := s.attemptIDs[result.AttemptID]; dup {
			return domain.ErrDuplicateSubmission
		}
		s.attemptIDs[result.AttemptID] = struct{}{}
	}
	s.results = append(s.results, result)
	return nil
}

func (s *Store) ListResultsByUser(_ context.Context, userID string) ([]domain.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Result, 0)
	for i := len(s.results) - 1; i >= 0; i-- {
		if s.results[i].UserID == userID {
			out = append(out, s.results[i])
		}
	}
	return out, nil
}

// Results returns every stored result in append order.
func (s *Store) Results() []domain.Result {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Result(nil), s.results...)
}

// UserCount reports how many registered users are stored.
func (s *Store) UserCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users)
}
