package postgres

import (
	"time"

	"github.com/uptrace/bun"

	"quizhub-service/internal/domain"
)

type quizRow struct {
	bun.BaseModel `bun:"table:quizzes"`

	ID        string      `bun:"id,pk"`
	Data      domain.Quiz `bun:"data,type:jsonb,notnull"`
	CreatedAt time.Time   `bun:"created_at,notnull"`
	UpdatedAt time.Time   `bun:"updated_at,notnull"`
}

type userRow struct {
	bun.BaseModel `bun:"table:users"`

	ID           string    `bun:"id,pk"`
	Username     string    `bun:"username,notnull"`
	Email        string    `bun:"email,notnull"`
	PasswordHash string    `bun:"password_hash,notnull"`
	Role         string    `bun:"role,notnull"`
	Organization string    `bun:"organization,notnull"`
	AvatarURL    string    `bun:"avatar_url,notnull"`
	TotalScore   int       `bun:"total_score,notnull"`
	Badges       []string  `bun:"badges,type:jsonb,notnull"`
	CreatedAt    time.Time `bun:"created_at,notnull"`
}

type resultRow struct {
	bun.BaseModel `bun:"table:results"`

	ID               string    `bun:"id,pk"`
	UserID           string    `bun:"user_id,notnull"`
	QuizID           string    `bun:"quiz_id,notnull"`
	AttemptID        string    `bun:"attempt_id,nullzero"`
	Score            int       `bun:"score,notnull"`
	TotalQuestions   int       `bun:"total_questions,notnull"`
	TimeTakenSeconds int       `bun:"time_taken_seconds,notnull"`
	CreatedAt        time.Time `bun:"created_at,notnull"`
}

func newQuizRow(q domain.Quiz) *quizRow {
	return &quizRow{ID: q.ID, Data: q, CreatedAt: q.CreatedAt, UpdatedAt: q.UpdatedAt}
}

func newUserRow(u domain.User) *userRow {
	badges := u.Badges
	if badges == nil {
		badges = []string{}
	}
	return &userRow{
		ID:           u.ID,
		Username:     u.Username,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Role:         string(u.Role),
		Organization: u.Organization,
		AvatarURL:    u.AvatarURL,
		TotalScore:   u.TotalScore,
		Badges:       badges,
		CreatedAt:    u.CreatedAt,
	}
}

func (r *userRow) toDomain() domain.User {
	return domain.User{
		ID:           r.ID,
		Username:     r.Username,
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		Role:         domain.Role(r.Role),
		Organization: r.Organization,
		AvatarURL:    r.AvatarURL,
		TotalScore:   r.TotalScore,
		Badges:       r.Badges,
		CreatedAt:    r.CreatedAt,
	}
}

func newResultRow(r domain.Result) *resultRow {
	return &resultRow{
		ID:               r.ID,
		UserID:           r.UserID,
		QuizID:           r.QuizID,
		AttemptID:        r.AttemptID,
		Score:            r.Score,
		TotalQuestions:   r.TotalQuestions,
		TimeTakenSeconds: r.TimeTakenSeconds,
		CreatedAt:        r.CreatedAt,
	}
}

func (r *resultRow) toDomain() domain.Result {
	return domain.Result{
		ID:               r.ID,
		UserID:           r.UserID,
		QuizID:           r.QuizID,
		AttemptID:        r.AttemptID,
		Score:            r.Score,
		TotalQuestions:   r.TotalQuestions,
		TimeTakenSeconds: r.TimeTakenSeconds,
		CreatedAt:        r.CreatedAt,
	}
}
