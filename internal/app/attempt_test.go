package app

import (
	"errors"
	"testing"
	"time"

	"quizhub-service/internal/domain"
)

func threeQuestionQuiz() domain.Quiz {
	q := func(text string, correct int) domain.Question {
		return domain.Question{QuestionText: text, Options: []string{"a", "b", "c", "d"}, CorrectAnswerIndex: correct}
	}
	return domain.Quiz{
		ID:        "quiz-3",
		Title:     "Three",
		Duration:  1,
		Questions: []domain.Question{q("one", 1), q("two", 1), q("three", 1)},
	}
}

func newTestAttempt(quiz domain.Quiz) *Attempt {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	return newAttempt("att-1", quiz, Principal{User: domain.User{ID: "u1"}}, func() time.Time { return now })
}

func TestAttemptTimeExpireAtFirstQuestion(t *testing.T) {
	a := newTestAttempt(threeQuestionQuiz())

	if !a.TimeExpire() {
		t.Fatalf("expected expiry to finish the attempt")
	}
	snap := a.Snapshot()
	if snap.State != StateFinished {
		t.Fatalf("expected finished, got %s", snap.State)
	}
	want := []int{-1, -1, -1}
	if len(snap.Answers) != len(want) {
		t.Fatalf("expected answers %v, got %v", want, snap.Answers)
	}
	for i := range want {
		if snap.Answers[i] != want[i] {
			t.Fatalf("expected answers %v, got %v", want, snap.Answers)
		}
	}
	if a.TimeExpire() {
		t.Fatalf("second expiry must not finish again")
	}
	if _, ok := a.beginSubmit(); !ok {
		t.Fatalf("expected first submission to be handed out")
	}
	if _, ok := a.beginSubmit(); ok {
		t.Fatalf("submission must be handed out once")
	}
}

func TestAttemptExpireKeepsCurrentSelection(t *testing.T) {
	a := newTestAttempt(threeQuestionQuiz())
	if _, err := a.SelectOption(1); err != nil {
		t.Fatalf("select: %v", err)
	}
	if _, err := a.Advance(); err != nil {
		t.Fatalf("advance: %v", err)
	}
	if _, err := a.SelectOption(2); err != nil {
		t.Fatalf("select: %v", err)
	}
	a.TimeExpire()

	got := a.Snapshot().Answers
	if len(got) != 3 || got[0] != 1 || got[1] != 2 || got[2] != -1 {
		t.Fatalf("unexpected answers %v", got)
	}
}

func TestAttemptInvariantAnswersMatchIndex(t *testing.T) {
	a := newTestAttempt(threeQuestionQuiz())
	check := func() {
		t.Helper()
		snap := a.Snapshot()
		if snap.State != StateFinished && len(snap.Answers) != snap.CurrentIndex {
			t.Fatalf("len(answers)=%d currentIndex=%d", len(snap.Answers), snap.CurrentIndex)
		}
	}

	check()
	for i := 0; i < 3; i++ {
		if _, err := a.Advance(); !errors.Is(err, domain.ErrNotAnswered) {
			t.Fatalf("expected ErrNotAnswered, got %v", err)
		}
		check()
		if _, err := a.SelectOption(0); err != nil {
			t.Fatalf("select: %v", err)
		}
		check()
		finished, err := a.Advance()
		if err != nil {
			t.Fatalf("advance: %v", err)
		}
		if finished != (i == 2) {
			t.Fatalf("finished=%v at question %d", finished, i)
		}
		check()
	}
	if _, err := a.SelectOption(0); !errors.Is(err, domain.ErrAttemptFinished) {
		t.Fatalf("expected ErrAttemptFinished, got %v", err)
	}
}

func TestAttemptSelectIsNoOpWhenAnswered(t *testing.T) {
	a := newTestAttempt(threeQuestionQuiz())
	fb, err := a.SelectOption(1)
	if err != nil || !fb.Correct || fb.Points != domain.PointsPerCorrectAnswer {
		t.Fatalf("expected correct feedback, got %+v %v", fb, err)
	}
	again, err := a.SelectOption(3)
	if err != nil {
		t.Fatalf("repeat select: %v", err)
	}
	if again != fb {
		t.Fatalf("repeat select changed feedback: %+v", again)
	}
	snap := a.Snapshot()
	if *snap.SelectedOption != 1 || snap.FeedbackScore != 10 {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
}

func TestAttemptRejectsOutOfRangeOption(t *testing.T) {
	a := newTestAttempt(threeQuestionQuiz())
	if _, err := a.SelectOption(4); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if a.Snapshot().State != StateAwaitingAnswer {
		t.Fatalf("state must not change on rejected option")
	}
}

func TestAttemptTickCountsDownAndExpires(t *testing.T) {
	a := newTestAttempt(threeQuestionQuiz())
	for i := 0; i < 59; i++ {
		if a.Tick() {
			t.Fatalf("expired early at tick %d", i)
		}
	}
	if got := a.Snapshot().RemainingTimeSeconds; got != 1 {
		t.Fatalf("expected 1s left, got %d", got)
	}
	if !a.Tick() {
		t.Fatalf("expected expiry on the last tick")
	}
	sub, ok := a.beginSubmit()
	if !ok || sub.TimeTakenSeconds != 60 || sub.AttemptID != "att-1" {
		t.Fatalf("unexpected submission %+v", sub)
	}
}

func TestAttemptSnapshotHidesCorrectAnswer(t *testing.T) {
	a := newTestAttempt(threeQuestionQuiz())
	snap := a.Snapshot()
	if snap.Question == nil || snap.Question.QuestionText != "one" || len(snap.Question.Options) != 4 {
		t.Fatalf("unexpected question view %+v", snap.Question)
	}
	if snap.Feedback != nil {
		t.Fatalf("feedback must be hidden before an answer")
	}
}
