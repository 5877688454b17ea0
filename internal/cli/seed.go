package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"quizhub-service/internal/app"
	"quizhub-service/internal/auth"
	"quizhub-service/internal/config"
	"quizhub-service/internal/domain"
	"quizhub-service/internal/logger"
)

const demoPassword = "password"

// NewSeedCmd loads the demo users and quizzes into the configured store.
func NewSeedCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load demo users and quizzes",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadOrDefault(*configPath)
			if err != nil {
				return err
			}
			log, err := logger.New(cfg.Log.Mode)
			if err != nil {
				return err
			}
			defer log.Sync()

			b, err := openBackend(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer b.Close()
			return seedDemo(cmd.Context(), b.store, log)
		},
	}
}

type demoUser struct {
	username     string
	email        string
	role         domain.Role
	organization string
	avatarSeed   string
	totalScore   int
	badges       []string
}

var demoUsers = []demoUser{
	{"QuizMaster99", "qm@test.com", domain.RoleTeacher, "Tech University", "Felix", 1250, []string{"Veteran"}},
	{"ReactNinja", "rn@test.com", domain.RoleStudent, "Code High", "Aneka", 980, []string{"Speedster"}},
	{"AI_Explorer", "ai@test.com", domain.RoleStudent, "Future Academy", "Jack", 850, nil},
	{"FullStackDev", "fsd@test.com", domain.RoleTeacher, "Dev Bootcamp", "Midnight", 1100, []string{"Sharpshooter"}},
	{"Newbie", "nb@test.com", domain.RoleStudent, "Primary School", "Coco", 200, nil},
}

func demoQuizzes(base time.Time) []domain.Quiz {
	return []domain.Quiz{
		{
			ID:          "general-science",
			Title:       "General Science",
			Description: "Basic science questions for everyone.",
			Category:    "Science",
			Difficulty:  domain.DifficultyEasy,
			Duration:    domain.DefaultDurationMinutes,
			Questions: []domain.Question{
				{QuestionText: "What is the chemical symbol for Gold?", Options: []string{"Go", "Gd", "Au", "Ag"}, CorrectAnswerIndex: 2},
				{QuestionText: "Which planet is known as the Red Planet?", Options: []string{"Earth", "Mars", "Jupiter", "Saturn"}, CorrectAnswerIndex: 1},
			},
			CreatedAt: base,
			UpdatedAt: base,
		},
		{
			ID:          "react-fundamentals",
			Title:       "React Fundamentals",
			Description: "Test your knowledge of React hooks and components.",
			Category:    "Programming",
			Difficulty:  domain.DifficultyMedium,
			Duration:    domain.DefaultDurationMinutes,
			Questions: []domain.Question{
				{QuestionText: "Which hook is used to handle side effects?", Options: []string{"useState", "useEffect", "useContext", "useReducer"}, CorrectAnswerIndex: 1},
				{QuestionText: "What is the virtual DOM?", Options: []string{
					"A direct copy of the HTML DOM",
					"A lightweight copy of the DOM kept in memory",
					"A browser extension",
					"A database for React",
				}, CorrectAnswerIndex: 1},
				{QuestionText: "How do you pass data to child components?", Options: []string{"State", "Props", "Redux", "Context"}, CorrectAnswerIndex: 1},
			},
			CreatedAt: base.Add(time.Second),
			UpdatedAt: base.Add(time.Second),
		},
	}
}

// seedDemo is idempotent: existing emails and quiz ids are left alone.
func seedDemo(ctx context.Context, store app.Store, log *logger.Logger) error {
	hash, err := auth.HashPassword(demoPassword)
	if err != nil {
		return err
	}
	base := time.Now().UTC()

	users := 0
	for i, du := range demoUsers {
		if _, err := store.GetUserByEmail(ctx, du.email); err == nil {
			continue
		} else if !errors.Is(err, domain.ErrUserNotFound) {
			return fmt.Errorf("seed user %s: %w", du.email, err)
		}
		badges := du.badges
		if badges == nil {
			badges = []string{}
		}
		err := store.CreateUser(ctx, domain.User{
			ID:           uuid.NewString(),
			Username:     du.username,
			Email:        du.email,
			PasswordHash: hash,
			Role:         du.role,
			Organization: du.organization,
			AvatarURL:    domain.AvatarFor(du.avatarSeed),
			TotalScore:   du.totalScore,
			Badges:       badges,
			CreatedAt:    base.Add(time.Duration(i) * time.Millisecond),
		})
		if err != nil && !errors.Is(err, domain.ErrEmailTaken) {
			return fmt.Errorf("seed user %s: %w", du.email, err)
		}
		users++
	}

	quizzes := 0
	for _, q := range demoQuizzes(base) {
		if _, err := store.LoadQuiz(ctx, q.ID); err == nil {
			continue
		} else if !errors.Is(err, domain.ErrQuizNotFound) {
			return fmt.Errorf("seed quiz %s: %w", q.ID, err)
		}
		if err := store.SaveQuiz(ctx, q); err != nil {
			return fmt.Errorf("seed quiz %s: %w", q.ID, err)
		}
		quizzes++
	}

	log.Info("demo data seeded", "users", users, "quizzes", quizzes)
	return nil
}
