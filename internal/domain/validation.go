package domain

import (
	"fmt"
	"strings"
)

// ValidateQuestion admits a question only when its text and all four options are non-empty
// and the correct index points at one of them.
func ValidateQuestion(q Question) error {
	if strings.TrimSpace(q.QuestionText) == "" {
		return Invalid("questionText", "question text is required")
	}
	if len(q.Options) != OptionsPerQuestion {
		return Invalid("options", "exactly %d options are required, got %d", OptionsPerQuestion, len(q.Options))
	}
	for i, opt := range q.Options {
		if strings.TrimSpace(opt) == "" {
			return Invalid(fmt.Sprintf("options[%d]", i), "option text is required")
		}
	}
	if q.CorrectAnswerIndex < 0 || q.CorrectAnswerIndex >= OptionsPerQuestion {
		return Invalid("correctAnswerIndex", "must be between 0 and %d", OptionsPerQuestion-1)
	}
	return nil
}

// NormalizeQuiz trims free text and fills defaults for difficulty and duration.
func NormalizeQuiz(q *Quiz) {
	q.Title = strings.TrimSpace(q.Title)
	q.Description = strings.TrimSpace(q.Description)
	q.Category = strings.TrimSpace(q.Category)
	if q.Difficulty == "" {
		q.Difficulty = DifficultyMedium
	}
	if q.Duration == 0 {
		q.Duration = DefaultDurationMinutes
	}
	for i := range q.Questions {
		q.Questions[i].QuestionText = strings.TrimSpace(q.Questions[i].QuestionText)
		for j := range q.Questions[i].Options {
			q.Questions[i].Options[j] = strings.TrimSpace(q.Questions[i].Options[j])
		}
	}
}

// ValidateQuiz checks a quiz is publishable. Call NormalizeQuiz first.
func ValidateQuiz(q Quiz) error {
	if q.Title == "" {
		return Invalid("title", "title is required")
	}
	if q.Category == "" {
		return Invalid("category", "category is required")
	}
	if !q.Difficulty.Valid() {
		return Invalid("difficulty", "must be one of Easy, Medium, Hard")
	}
	if q.Duration <= 0 {
		return Invalid("duration", "must be a positive number of minutes")
	}
	if len(q.Questions) == 0 {
		return Invalid("questions", "at least one question is required")
	}
	for i, question := range q.Questions {
		if err := ValidateQuestion(question); err != nil {
			if ve, ok := err.(*ValidationError); ok {
				return &ValidationError{Field: fmt.Sprintf("questions[%d].%s", i, ve.Field), Message: ve.Message}
			}
			return err
		}
	}
	return nil
}
