package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"quizhub-service/internal/domain"
)

func TestStoreListsQuizzesNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	_ = store.SaveQuiz(ctx, sampleQuiz("a"))
	_ = store.SaveQuiz(ctx, sampleQuiz("b"))
	replaced := sampleQuiz("a")
	replaced.Title = "Replaced"
	_ = store.SaveQuiz(ctx, replaced)

	quizzes, _ := store.ListQuizzes(ctx)
	if len(quizzes) != 2 {
		t.Fatalf("expected 2 quizzes, got %d", len(quizzes))
	}
	if quizzes[0].ID != "b" || quizzes[1].ID != "a" {
		t.Fatalf("unexpected order: %s, %s", quizzes[0].ID, quizzes[1].ID)
	}
	if quizzes[1].Title != "Replaced" {
		t.Fatalf("expected replacement in place, got %q", quizzes[1].Title)
	}
}

func TestStoreDuplicateEmailLeavesUsersUnchanged(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	if err := store.CreateUser(ctx, user("u1", "a@x.io", 0)); err != nil {
		t.Fatalf("create: %v", err)
	}
	err := store.CreateUser(ctx, user("u2", "a@x.io", 0))
	if !errors.Is(err, domain.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
	if store.UserCount() != 1 {
		t.Fatalf("expected 1 user, got %d", store.UserCount())
	}
}

func TestStoreRecordResultCreditsUser(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	_ = store.CreateUser(ctx, user("u1", "a@x.io", 100))

	updated, err := store.RecordResult(ctx, domain.Result{ID: "r1", UserID: "u1", QuizID: "q", Score: 20})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if updated.TotalScore != 120 {
		t.Fatalf("expected 120, got %d", updated.TotalScore)
	}
	if len(store.Results()) != 1 {
		t.Fatalf("expected one result")
	}
}

func TestStoreRecordResultUnknownUserWritesNothing(t *testing.T) {
	store := NewStore()
	_, err := store.RecordResult(context.Background(), domain.Result{ID: "r1", UserID: "ghost", Score: 10})
	if !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	if len(store.Results()) != 0 {
		t.Fatalf("expected no results written")
	}
}

func TestStoreRejectsDuplicateAttempt(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	_ = store.CreateUser(ctx, user("u1", "a@x.io", 0))

	if _, err := store.RecordResult(ctx, domain.Result{ID: "r1", UserID: "u1", AttemptID: "att", Score: 10}); err != nil {
		t.Fatalf("record: %v", err)
	}
	if _, err := store.RecordResult(ctx, domain.Result{ID: "r2", UserID: "u1", AttemptID: "att", Score: 10}); !errors.Is(err, domain.ErrDuplicateSubmission) {
		t.Fatalf("expected ErrDuplicateSubmission, got %v", err)
	}
	u, _ := store.GetUser(ctx, "u1")
	if u.TotalScore != 10 {
		t.Fatalf("duplicate must not credit twice, got %d", u.TotalScore)
	}
}

func TestStoreConcurrentResultsAreAtomic(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	_ = store.CreateUser(ctx, user("u1", "a@x.io", 0))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = store.RecordResult(ctx, domain.Result{UserID: "u1", Score: 10})
		}()
	}
	wg.Wait()

	u, _ := store.GetUser(ctx, "u1")
	if u.TotalScore != 500 || len(store.Results()) != 50 {
		t.Fatalf("expected 500 points over 50 results, got %d over %d", u.TotalScore, len(store.Results()))
	}
}

// Assumes ties keep registration order.
func TestStoreTopUsersStableOnTies(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	_ = store.CreateUser(ctx, user("first", "1@x.io", 50))
	_ = store.CreateUser(ctx, user("top", "2@x.io", 90))
	_ = store.CreateUser(ctx, user("second", "3@x.io", 50))

	top, _ := store.TopUsers(ctx, 10)
	if len(top) != 3 {
		t.Fatalf("expected 3 users, got %d", len(top))
	}
	if top[0].ID != "top" || top[1].ID != "first" || top[2].ID != "second" {
		t.Fatalf("unexpected order: %s %s %s", top[0].ID, top[1].ID, top[2].ID)
	}

	top, _ = store.TopUsers(ctx, 2)
	if len(top) != 2 {
		t.Fatalf("expected limit 2, got %d", len(top))
	}
}

func TestStoreUpdateProfileKeepsScore(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	_ = store.CreateUser(ctx, user("u1", "a@x.io", 40))

	name := "Renamed"
	badges := []string{"Veteran"}
	updated, err := store.UpdateProfile(ctx, "u1", domain.ProfileUpdate{Username: &name, Badges: &badges})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Username != "Renamed" || updated.TotalScore != 40 || len(updated.Badges) != 1 {
		t.Fatalf("unexpected user: %+v", updated)
	}
	if _, err := store.UpdateProfile(ctx, "missing", domain.ProfileUpdate{}); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestSessionStoreExpiry(t *testing.T) {
	ctx := context.Background()
	sessions := NewSessionStore()
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	sessions.now = func() time.Time { return now }

	_ = sessions.SaveSession(ctx, domain.Session{ID: "s1", User: user("u1", "a@x.io", 0), ExpiresAt: now.Add(time.Minute)})
	if _, err := sessions.GetSession(ctx, "s1"); err != nil {
		t.Fatalf("get: %v", err)
	}

	now = now.Add(2 * time.Minute)
	if _, err := sessions.GetSession(ctx, "s1"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected expired session, got %v", err)
	}

	_ = sessions.SaveSession(ctx, domain.Session{ID: "s2", ExpiresAt: now.Add(time.Hour)})
	_ = sessions.DeleteSession(ctx, "s2")
	if _, err := sessions.GetSession(ctx, "s2"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected deleted session, got %v", err)
	}
}

func user(id, email string, score int) domain.User {
	return domain.User{ID: id, Username: id, Email: email, Role: domain.RoleStudent, TotalScore: score}
}
