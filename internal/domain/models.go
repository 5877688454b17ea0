package domain

import (
	"net/url"
	"time"
)

const (
	// OptionsPerQuestion is the fixed number of choices every question carries.
	OptionsPerQuestion = 4
	// DefaultDurationMinutes applies when a quiz does not set its own duration.
	DefaultDurationMinutes = 5
	// PointsPerCorrectAnswer is awarded for every exact match.
	PointsPerCorrectAnswer = 10
	// NoAnswer marks a question that was never answered (e.g. time ran out).
	NoAnswer = -1
)

// Difficulty is the closed set of quiz difficulty levels.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "Easy"
	DifficultyMedium Difficulty = "Medium"
	DifficultyHard   Difficulty = "Hard"
)

func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// Role is the closed set of user roles.
type Role string

const (
	RoleStudent Role = "Student"
	RoleTeacher Role = "Teacher"
	RoleAdmin   Role = "Admin"
	RoleGuest   Role = "Guest"
)

func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleTeacher, RoleAdmin, RoleGuest:
		return true
	}
	return false
}

// Question models an MCQ question with exactly one correct option.
type Question struct {
	QuestionText       string   `json:"questionText"`
	Options            []string `json:"options"`
	CorrectAnswerIndex int      `json:"correctAnswerIndex"`
}

// Quiz is a published collection of questions.
type Quiz struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Category    string     `json:"category"`
	Difficulty  Difficulty `json:"difficulty"`
	Duration    int        `json:"duration"` // minutes
	Questions   []Question `json:"questions"`
	CreatedBy   string     `json:"createdBy,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// DurationMinutes returns the configured duration or the default one.
func (q Quiz) DurationMinutes() int {
	if q.Duration <= 0 {
		return DefaultDurationMinutes
	}
	return q.Duration
}

// TimeLimit is the full countdown of a play session against this quiz.
func (q Quiz) TimeLimit() time.Duration {
	return time.Duration(q.DurationMinutes()) * time.Minute
}

// MaxScore is the score of an attempt with every answer correct.
func (q Quiz) MaxScore() int {
	return len(q.Questions) * PointsPerCorrectAnswer
}

// User is a registered or guest account.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	Organization string    `json:"organization"`
	AvatarURL    string    `json:"avatarUrl"`
	TotalScore   int       `json:"totalScore"`
	Badges       []string  `json:"badges"`
	CreatedAt    time.Time `json:"createdAt"`
}

func (u User) IsGuest() bool {
	return u.Role == RoleGuest
}

// AvatarFor builds the default avatar URL for a seed (usually the username).
func AvatarFor(seed string) string {
	return "https://api.dicebear.com/7.x/avataaars/svg?seed=" + url.QueryEscape(seed)
}

// Session binds a bearer token to exactly one current user.
// Guest users live only here; registered users are refreshed from the store.
type Session struct {
	ID        string    `json:"id"`
	User      User      `json:"user"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// Result is the immutable record of a finished attempt.
type Result struct {
	ID               string    `json:"id"`
	UserID           string    `json:"userId"`
	QuizID           string    `json:"quizId"`
	AttemptID        string    `json:"attemptId,omitempty"`
	Score            int       `json:"score"`
	TotalQuestions   int       `json:"totalQuestions"`
	TimeTakenSeconds int       `json:"timeTakenSeconds"`
	CreatedAt        time.Time `json:"createdAt"`
	// Correct marks each question answered correctly. Only set on the submit response; never stored.
	Correct []bool `json:"correct,omitempty"`
}

// Submission is the raw answer list of a completed attempt.
// AttemptID is optional; when set it acts as an idempotency key.
type Submission struct {
	AttemptID        string
	QuizID           string
	Answers          []int
	TimeTakenSeconds int
}

// GeneratedQuiz is the payload returned by the external quiz generator.
type GeneratedQuiz struct {
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	QuestionsArray []Question `json:"questionsArray"`
}

// ProfileUpdate carries the editable profile fields; nil means unchanged.
type ProfileUpdate struct {
	Username     *string   `json:"username,omitempty"`
	Organization *string   `json:"organization,omitempty"`
	AvatarURL    *string   `json:"avatarUrl,omitempty"`
	Badges       *[]string `json:"badges,omitempty"`
}

// Apply copies the set fields onto user.
func (p ProfileUpdate) Apply(user *User) {
	if p.Username != nil {
		user.Username = *p.Username
	}
	if p.Organization != nil {
		user.Organization = *p.Organization
	}
	if p.AvatarURL != nil {
		user.AvatarURL = *p.AvatarURL
	}
	if p.Badges != nil {
		user.Badges = append([]string(nil), (*p.Badges)...)
	}
}

// Clone returns a deep copy so callers cannot mutate stored questions.
func (q Quiz) Clone() Quiz {
	out := q
	if q.Questions != nil {
		out.Questions = make([]Question, len(q.Questions))
		for i, question := range q.Questions {
			question.Options = append([]string(nil), question.Options...)
			out.Questions[i] = question
		}
	}
	return out
}

// Clone returns a copy with its own badge slice.
func (u User) Clone() User {
	out := u
	if u.Badges != nil {
		out.Badges = append([]string(nil), u.Badges...)
	}
	return out
}
