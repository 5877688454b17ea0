package app

import (
	"context"

	"quizhub-service/internal/domain"
)

// QuizRepository loads quiz content (from cache/backing store).
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}

// QuizCache is a read-through QuizRepository whose entries can be dropped after writes.
type QuizCache interface {
	QuizRepository
	Invalidate(ctx context.Context, quizID string)
}

// QuizCatalog is the durable quiz store.
type QuizCatalog interface {
	LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
	// ListQuizzes returns quizzes newest first.
	ListQuizzes(ctx context.Context) ([]domain.Quiz, error)
	// SaveQuiz inserts a new quiz or replaces the one with the same id.
	SaveQuiz(ctx context.Context, quiz domain.Quiz) error
}

// UserRepository stores registered users. Guests never reach it.
type UserRepository interface {
	// CreateUser fails with domain.ErrEmailTaken when the email is already present.
	CreateUser(ctx context.Context, user domain.User) error
	GetUser(ctx context.Context, userID string) (domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)
	// UpdateProfile changes profile fields only; totalScore is never touched here.
	UpdateProfile(ctx context.Context, userID string, update domain.ProfileUpdate) (domain.User, error)
	// TopUsers orders by totalScore desc, ties by creation order.
	TopUsers(ctx context.Context, limit int) ([]domain.User, error)
}

// ResultRepository is the append-only result log.
type ResultRepository interface {
	// RecordResult appends the result and adds its score to the user's totalScore
	// inside one critical section. Unknown users fail with domain.ErrUserNotFound
	// and duplicate attempt ids with domain.ErrDuplicateSubmission; nothing is written then.
	RecordResult(ctx context.Context, result domain.Result) (domain.User, error)
	// RecordGuestResult appends a result for a user that only exists in a session.
	RecordGuestResult(ctx context.Context, result domain.Result) error
	// ListResultsByUser returns results newest first.
	ListResultsByUser(ctx context.Context, userID string) ([]domain.Result, error)
}

// Store is a backing store serving catalog, users and results.
type Store interface {
	QuizCatalog
	UserRepository
	ResultRepository
}

// SessionRepository abstracts how login sessions are stored (in-memory, Redis, etc).
type SessionRepository interface {
	SaveSession(ctx context.Context, session domain.Session) error
	// GetSession fails with domain.ErrSessionNotFound for unknown or expired sessions.
	GetSession(ctx context.Context, sessionID string) (domain.Session, error)
	DeleteSession(ctx context.Context, sessionID string) error
}

// QuizGenerator is the external prompt-to-quiz service.
type QuizGenerator interface {
	GenerateQuiz(ctx context.Context, req GenerateRequest) (domain.GeneratedQuiz, error)
}

// Principal is the authenticated caller of a use case.
type Principal struct {
	SessionID string
	User      domain.User
}
