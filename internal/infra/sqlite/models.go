package sqlite

import (
	"time"

	"quizhub-service/internal/domain"
)

type quizModel struct {
	ID          string            `gorm:"primaryKey"`
	Title       string            `gorm:"not null"`
	Description string            `gorm:"not null;default:''"`
	Category    string            `gorm:"not null"`
	Difficulty  string            `gorm:"not null"`
	Duration    int               `gorm:"not null"`
	Questions   []domain.Question `gorm:"serializer:json;not null"`
	CreatedBy   string            `gorm:"not null;default:''"`
	CreatedAt   time.Time         `gorm:"index"`
	UpdatedAt   time.Time
}

func (quizModel) TableName() string { return "quizzes" }

type userModel struct {
	ID           string   `gorm:"primaryKey"`
	Username     string   `gorm:"not null"`
	Email        string   `gorm:"uniqueIndex;not null"`
	PasswordHash string   `gorm:"not null;default:''"`
	Role         string   `gorm:"not null"`
	Organization string   `gorm:"not null;default:''"`
	AvatarURL    string   `gorm:"not null;default:''"`
	TotalScore   int      `gorm:"not null;default:0;index"`
	Badges       []string `gorm:"serializer:json"`
	CreatedAt    time.Time
}

func (userModel) TableName() string { return "users" }

type resultModel struct {
	ID               string  `gorm:"primaryKey"`
	UserID           string  `gorm:"index;not null"`
	QuizID           string  `gorm:"not null"`
	AttemptID        *string `gorm:"uniqueIndex"`
	Score            int     `gorm:"not null"`
	TotalQuestions   int     `gorm:"not null"`
	TimeTakenSeconds int     `gorm:"not null"`
	CreatedAt        time.Time
}

func (resultModel) TableName() string { return "results" }

func toQuizModel(q domain.Quiz) quizModel {
	return quizModel{
		ID:          q.ID,
		Title:       q.Title,
		Description: q.Description,
		Category:    q.Category,
		Difficulty:  string(q.Difficulty),
		Duration:    q.Duration,
		Questions:   q.Questions,
		CreatedBy:   q.CreatedBy,
		CreatedAt:   q.CreatedAt,
		UpdatedAt:   q.UpdatedAt,
	}
}

func (m quizModel) toDomain() domain.Quiz {
	return domain.Quiz{
		ID:          m.ID,
		Title:       m.Title,
		Description: m.Description,
		Category:    m.Category,
		Difficulty:  domain.Difficulty(m.Difficulty),
		Duration:    m.Duration,
		Questions:   m.Questions,
		CreatedBy:   m.CreatedBy,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

func toUserModel(u domain.User) userModel {
	badges := u.Badges
	if badges == nil {
		badges = []string{}
	}
	return userModel{
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

func (m userModel) toDomain() domain.User {
	badges := m.Badges
	if badges == nil {
		badges = []string{}
	}
	return domain.User{
		ID:           m.ID,
		Username:     m.Username,
		Email:        m.Email,
		PasswordHash: m.PasswordHash,
		Role:         domain.Role(m.Role),
		Organization: m.Organization,
		AvatarURL:    m.AvatarURL,
		TotalScore:   m.TotalScore,
		Badges:       badges,
		CreatedAt:    m.CreatedAt,
	}
}

func toResultModel(r domain.Result) resultModel {
	m := resultModel{
		ID:               r.ID,
		UserID:           r.UserID,
		QuizID:           r.QuizID,
		Score:            r.Score,
		TotalQuestions:   r.TotalQuestions,
		TimeTakenSeconds: r.TimeTakenSeconds,
		CreatedAt:        r.CreatedAt,
	}
	if r.AttemptID != "" {
		attemptID := r.AttemptID
		m.AttemptID = &attemptID
	}
	return m
}

func (m resultModel) toDomain() domain.Result {
	r := domain.Result{
		ID:               m.ID,
		UserID:           m.UserID,
		QuizID:           m.QuizID,
		Score:            m.Score,
		TotalQuestions:   m.TotalQuestions,
		TimeTakenSeconds: m.TimeTakenSeconds,
		CreatedAt:        m.CreatedAt,
	}
	if m.AttemptID != nil {
		r.AttemptID = *m.AttemptID
	}
	return r
}
