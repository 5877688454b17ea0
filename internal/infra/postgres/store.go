package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"quizhub-service/internal/domain"
)

const uniqueViolation = "23505"

// Store implements the catalog, user and result repositories on Postgres via bun.
type Store struct {
	db *bun.DB
}

// Open connects with the pgdriver DSN; run migrations before serving traffic.
func Open(dsn string) *Store {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	return NewStore(bun.NewDB(sqldb, pgdialect.New()))
}

func NewStore(db *bun.DB) *Store {
	return &Store{db: db}
}

// DB exposes the bun handle for migrations.
func (s *Store) DB() *bun.DB { return s.db }

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *Store) LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	row := new(quizRow)
	err := s.db.NewSelect().Model(row).Where("id = ?", quizID).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Quiz{}, domain.ErrQuizNotFound
		}
		return domain.Quiz{}, fmt.Errorf("load quiz: %w", err)
	}
	return row.Data, nil
}

func (s *Store) ListQuizzes(ctx context.Context) ([]domain.Quiz, error) {
	var rows []quizRow
	if err := s.db.NewSelect().Model(&rows).OrderExpr("created_at DESC, id ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("list quizzes: %w", err)
	}
	out := make([]domain.Quiz, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Data)
	}
	return out, nil
}

func (s *Store) SaveQuiz(ctx context.Context, quiz domain.Quiz) error {
	_, err := s.db.NewInsert().
		Model(newQuizRow(quiz)).
		On("CONFLICT (id) DO UPDATE").
		Set("data = EXCLUDED.data").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("save quiz: %w", err)
	}
	return nil
}

func (s *Store) CreateUser(ctx context.Context, user domain.User) error {
	_, err := s.db.NewInsert().Model(newUserRow(user)).Exec(ctx)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrEmailTaken
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (s *Store) GetUser(ctx context.Context, userID string) (domain.User, error) {
	return s.getUser(ctx, s.db, "id = ?", userID)
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	return s.getUser(ctx, s.db, "email = ?", email)
}

func (s *Store) getUser(ctx context.Context, db bun.IDB, where string, arg any) (domain.User, error) {
	row := new(userRow)
	if err := db.NewSelect().Model(row).Where(where, arg).Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.User{}, domain.ErrUserNotFound
		}
		return domain.User{}, fmt.Errorf("load user: %w", err)
	}
	return row.toDomain(), nil
}

func (s *Store) UpdateProfile(ctx context.Context, userID string, update domain.ProfileUpdate) (domain.User, error) {
	var user domain.User
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		q := tx.NewUpdate().Model((*userRow)(nil)).Where("id = ?", userID)
		changed := false
		if update.Username != nil {
			q = q.Set("username = ?", *update.Username)
			changed = true
		}
		if update.Organization != nil {
			q = q.Set("organization = ?", *update.Organization)
			changed = true
		}
		if update.AvatarURL != nil {
			q = q.Set("avatar_url = ?", *update.AvatarURL)
			changed = true
		}
		if update.Badges != nil {
			badges := *update.Badges
			if badges == nil {
				badges = []string{}
			}
			q = q.Set("badges = ?", badges)
			changed = true
		}
		if changed {
			if _, err := q.Exec(ctx); err != nil {
				return fmt.Errorf("update profile: %w", err)
			}
		}
		var err error
		user, err = s.getUser(ctx, tx, "id = ?", userID)
		return err
	})
	return user, err
}

func (s *Store) TopUsers(ctx context.Context, limit int) ([]domain.User, error) {
	var rows []userRow
	q := s.db.NewSelect().Model(&rows).OrderExpr("total_score DESC, seq ASC")
	if limit >= 0 {
		q = q.Limit(limit)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("top users: %w", err)
	}
	out := make([]domain.User, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toDomain())
	}
	return out, nil
}

// RecordResult inserts the result and increments total_score in one transaction.
func (s *Store) RecordResult(ctx context.Context, result domain.Result) (domain.User, error) {
	var user domain.User
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewUpdate().
			Model((*userRow)(nil)).
			Set("total_score = total_score + ?", result.Score).
			Where("id = ?", result.UserID).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("credit user: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return domain.ErrUserNotFound
		}
		if err := insertResult(ctx, tx, result); err != nil {
			return err
		}
		user, err = s.getUser(ctx, tx, "id = ?", result.UserID)
		return err
	})
	return user, err
}

func (s *Store) RecordGuestResult(ctx context.Context, result domain.Result) error {
	return insertResult(ctx, s.db, result)
}

func insertResult(ctx context.Context, db bun.IDB, result domain.Result) error {
	if _, err := db.NewInsert().Model(newResultRow(result)).Exec(ctx); err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateSubmission
		}
		return fmt.Errorf("insert result: %w", err)
	}
	return nil
}

func (s *Store) ListResultsByUser(ctx context.Context, userID string) ([]domain.Result, error) {
	var rows []resultRow
	err := s.db.NewSelect().Model(&rows).Where("user_id = ?", userID).OrderExpr("created_at DESC").Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	out := make([]domain.Result, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toDomain())
	}
	return out, nil
}

func isUniqueViolation(err error) bool {
	var pgErr pgdriver.Error
	return errors.As(err, &pgErr) && pgErr.Field('C') == uniqueViolation
}
