package memory

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"quizhub-service/internal/domain"
)

func TestQuizCacheCaches(t *testing.T) {
	store := NewStore()
	if err := store.SaveQuiz(context.Background(), sampleQuiz("quiz-1")); err != nil {
		t.Fatalf("seed: %v", err)
	}
	loader := &countingLoader{QuizLoader: store}
	cache := NewQuizCache(loader, time.Minute)

	if _, err := cache.GetQuiz(context.Background(), "quiz-1"); err != nil {
		t.Fatalf("get quiz: %v", err)
	}
	if loader.calls.Load() != 1 {
		t.Fatalf("expected loader once, got %d", loader.calls.Load())
	}

	if _, err := cache.GetQuiz(context.Background(), "quiz-1"); err != nil {
		t.Fatalf("get quiz 2: %v", err)
	}
	if loader.calls.Load() != 1 {
		t.Fatalf("expected cache hit, loader calls %d", loader.calls.Load())
	}
}

func TestQuizCacheInvalidate(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	quiz := sampleQuiz("quiz-1")
	_ = store.SaveQuiz(ctx, quiz)
	cache := NewQuizCache(store, time.Minute)

	if _, err := cache.GetQuiz(ctx, "quiz-1"); err != nil {
		t.Fatalf("get quiz: %v", err)
	}
	quiz.Title = "Renamed"
	_ = store.SaveQuiz(ctx, quiz)

	got, _ := cache.GetQuiz(ctx, "quiz-1")
	if got.Title == "Renamed" {
		t.Fatalf("expected stale cached copy before invalidation")
	}
	cache.Invalidate(ctx, "quiz-1")
	got, _ = cache.GetQuiz(ctx, "quiz-1")
	if got.Title != "Renamed" {
		t.Fatalf("expected fresh copy after invalidation, got %q", got.Title)
	}
}

func TestQuizCacheReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	_ = store.SaveQuiz(ctx, sampleQuiz("quiz-1"))
	cache := NewQuizCache(store, time.Minute)

	first, _ := cache.GetQuiz(ctx, "quiz-1")
	first.Questions[0].Options[0] = "mutated"

	second, _ := cache.GetQuiz(ctx, "quiz-1")
	if second.Questions[0].Options[0] == "mutated" {
		t.Fatalf("cached quiz was mutated through a returned copy")
	}
}

func TestQuizCacheMissingQuiz(t *testing.T) {
	cache := NewQuizCache(NewStore(), time.Minute)
	if _, err := cache.GetQuiz(context.Background(), "nope"); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected ErrQuizNotFound, got %v", err)
	}
}

type countingLoader struct {
	QuizLoader
	calls atomic.Int32
}

func (l *countingLoader) LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	l.calls.Add(1)
	return l.QuizLoader.LoadQuiz(ctx, quizID)
}

func sampleQuiz(id string) domain.Quiz {
	return domain.Quiz{
		ID:         id,
		Title:      "Arithmetic",
		Category:   "Math",
		Difficulty: domain.DifficultyEasy,
		Duration:   1,
		Questions: []domain.Question{
			{QuestionText: "What is 2 + 2?", Options: []string{"3", "4", "5", "6"}, CorrectAnswerIndex: 1},
		},
	}
}
