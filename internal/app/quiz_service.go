package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"quizhub-service/internal/domain"
	"quizhub-service/internal/logger"
)

// GeneratedCategory is the category given to every AI drafted quiz.
const GeneratedCategory = "AI Generated"

// GenerateRequest describes an AI-assisted quiz draft.
type GenerateRequest struct {
	Topic        string            `json:"topic"`
	Difficulty   domain.Difficulty `json:"difficulty"`
	NumQuestions int               `json:"numQuestions"`
	Duration     int               `json:"duration"`
	Context      string            `json:"context,omitempty"`
	// Save publishes the draft right away.
	Save bool `json:"save"`
}

// QuizService contains the catalog and authoring use cases.
type QuizService struct {
	catalog   QuizCatalog
	cache     QuizCache
	generator QuizGenerator
	now       func() time.Time
	log       *logger.Logger
}

// NewQuizService wires the catalog and its read cache. generator may be nil.
func NewQuizService(catalog QuizCatalog, cache QuizCache, generator QuizGenerator, log *logger.Logger) *QuizService {
	if log == nil {
		log = logger.NewNop()
	}
	return &QuizService{catalog: catalog, cache: cache, generator: generator, now: time.Now, log: log}
}

// ListQuizzes returns the catalog newest first.
func (s *QuizService) ListQuizzes(ctx context.Context) ([]domain.Quiz, error) {
	quizzes, err := s.catalog.ListQuizzes(ctx)
	if err != nil {
		return nil, err
	}
	if quizzes == nil {
		quizzes = []domain.Quiz{}
	}
	return quizzes, nil
}

// GetQuiz reads through the cache. Unknown ids fail with domain.ErrQuizNotFound.
func (s *QuizService) GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	return s.cache.GetQuiz(ctx, quizID)
}

// CreateQuiz validates and publishes a new quiz.
func (s *QuizService) CreateQuiz(ctx context.Context, author Principal, quiz domain.Quiz) (domain.Quiz, error) {
	domain.NormalizeQuiz(&quiz)
	if err := domain.ValidateQuiz(quiz); err != nil {
		return domain.Quiz{}, err
	}
	if quiz.ID == "" {
		quiz.ID = uuid.NewString()
	} else if _, err := s.catalog.LoadQuiz(ctx, quiz.ID); err == nil {
		return domain.Quiz{}, domain.Invalid("id", "quiz %q already exists", quiz.ID)
	} else if !errors.Is(err, domain.ErrQuizNotFound) {
		return domain.Quiz{}, err
	}

	now := s.now().UTC()
	quiz.CreatedBy = author.User.ID
	quiz.CreatedAt = now
	quiz.UpdatedAt = now
	if err := s.catalog.SaveQuiz(ctx, quiz); err != nil {
		return domain.Quiz{}, fmt.Errorf("save quiz: %w", err)
	}
	s.log.Info("quiz created", "quiz", quiz.ID, "author", author.User.ID, "questions", len(quiz.Questions))
	return quiz, nil
}

// SaveQuiz replaces an existing quiz. Only its creator or an admin may edit it;
// quizzes without a creator are editable by any registered user.
func (s *QuizService) SaveQuiz(ctx context.Context, author Principal, quizID string, quiz domain.Quiz) (domain.Quiz, error) {
	existing, err := s.catalog.LoadQuiz(ctx, quizID)
	if err != nil {
		return domain.Quiz{}, err
	}
	if !canEdit(author.User, existing) {
		return domain.Quiz{}, domain.ErrForbidden
	}

	domain.NormalizeQuiz(&quiz)
	if err := domain.ValidateQuiz(quiz); err != nil {
		return domain.Quiz{}, err
	}
	quiz.ID = existing.ID
	quiz.CreatedBy = existing.CreatedBy
	quiz.CreatedAt = existing.CreatedAt
	quiz.UpdatedAt = s.now().UTC()
	if err := s.catalog.SaveQuiz(ctx, quiz); err != nil {
		return domain.Quiz{}, fmt.Errorf("save quiz: %w", err)
	}
	s.cache.Invalidate(ctx, quiz.ID)
	s.log.Info("quiz updated", "quiz", quiz.ID, "author", author.User.ID)
	return quiz, nil
}

// GenerateQuiz asks the external generator for a draft. Drafts are only checked
// structurally; their content is trusted as-is.
func (s *QuizService) GenerateQuiz(ctx context.Context, author Principal, req GenerateRequest) (domain.Quiz, error) {
	if s.generator == nil {
		return domain.Quiz{}, domain.ErrGeneratorUnavailable
	}
	req.Topic = strings.TrimSpace(req.Topic)
	if req.Topic == "" {
		return domain.Quiz{}, domain.Invalid("topic", "topic is required")
	}
	if req.Difficulty == "" {
		req.Difficulty = domain.DifficultyMedium
	}
	if !req.Difficulty.Valid() {
		return domain.Quiz{}, domain.Invalid("difficulty", "must be one of Easy, Medium, Hard")
	}
	if req.NumQuestions <= 0 {
		req.NumQuestions = 5
	}
	if req.NumQuestions > 20 {
		return domain.Quiz{}, domain.Invalid("numQuestions", "at most 20 questions can be generated")
	}
	if req.Duration <= 0 {
		req.Duration = domain.DefaultDurationMinutes
	}

	generated, err := s.generator.GenerateQuiz(ctx, req)
	if err != nil {
		s.log.Error("quiz generation failed", "topic", req.Topic, "error", err)
		return domain.Quiz{}, err
	}
	draft := domain.Quiz{
		Title:       generated.Title,
		Description: generated.Description,
		Category:    GeneratedCategory,
		Difficulty:  req.Difficulty,
		Duration:    req.Duration,
		Questions:   generated.QuestionsArray,
	}
	if draft.Title == "" {
		draft.Title = req.Topic
	}
	if !req.Save {
		domain.NormalizeQuiz(&draft)
		return draft, nil
	}
	return s.CreateQuiz(ctx, author, draft)
}

func canEdit(user domain.User, quiz domain.Quiz) bool {
	if user.Role == domain.RoleAdmin {
		return true
	}
	if quiz.CreatedBy == "" {
		return !user.IsGuest()
	}
	return quiz.CreatedBy == user.ID
}
