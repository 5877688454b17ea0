package sqlite

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"quizhub-service/internal/domain"
	"quizhub-service/internal/logger"
)

// Store implements the catalog, user and result repositories on an embedded SQLite file.
type Store struct {
	db  *gorm.DB
	log *logger.Logger
}

// Open opens (or creates) the database at path and migrates the schema.
// Use "file::memory:?cache=shared" for a throwaway database.
func Open(path string, log *logger.Logger) (*Store, error) {
	if log == nil {
		log = logger.NewNop()
	}
	db, err := gorm.Open(gormsqlite.Open(path), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// SQLite allows one writer; a single connection keeps transactions from tripping over locks.
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&quizModel{}, &userModel{}, &resultModel{}); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("migrate sqlite: %w", err)
	}
	log = log.With("store", "sqlite")
	log.Info("sqlite store opened", "path", path)
	return &Store{db: db, log: log}, nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *Store) LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	var m quizModel
	err := s.db.WithContext(ctx).Where("id = ?", quizID).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("load quiz: %w", err)
	}
	return m.toDomain(), nil
}

func (s *Store) ListQuizzes(ctx context.Context) ([]domain.Quiz, error) {
	var rows []quizModel
	if err := s.db.WithContext(ctx).Order("created_at DESC, rowid DESC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list quizzes: %w", err)
	}
	out := make([]domain.Quiz, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

// SaveQuiz upserts by primary key.
func (s *Store) SaveQuiz(ctx context.Context, quiz domain.Quiz) error {
	m := toQuizModel(quiz)
	if err := s.db.WithContext(ctx).Save(&m).Error; err != nil {
		return fmt.Errorf("save quiz: %w", err)
	}
	return nil
}

func (s *Store) CreateUser(ctx context.Context, user domain.User) error {
	m := toUserModel(user)
	err := s.db.WithContext(ctx).Create(&m).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return domain.ErrEmailTaken
	}
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (s *Store) GetUser(ctx context.Context, userID string) (domain.User, error) {
	return getUser(s.db.WithContext(ctx), "id = ?", userID)
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	return getUser(s.db.WithContext(ctx), "email = ?", email)
}

func getUser(tx *gorm.DB, where string, arg any) (domain.User, error) {
	var m userModel
	err := tx.Where(where, arg).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.User{}, domain.ErrUserNotFound
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("load user: %w", err)
	}
	return m.toDomain(), nil
}

func (s *Store) UpdateProfile(ctx context.Context, userID string, update domain.ProfileUpdate) (domain.User, error) {
	updates := map[string]interface{}{}
	if update.Username != nil {
		updates["username"] = *update.Username
	}
	if update.Organization != nil {
		updates["organization"] = *update.Organization
	}
	if update.AvatarURL != nil {
		updates["avatar_url"] = *update.AvatarURL
	}
	if update.Badges != nil {
		badges := *update.Badges
		if badges == nil {
			badges = []string{}
		}
		raw, err := json.Marshal(badges)
		if err != nil {
			return domain.User{}, err
		}
		updates["badges"] = string(raw)
	}

	var user domain.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(updates) > 0 {
			res := tx.Model(&userModel{}).Where("id = ?", userID).Updates(updates)
			if res.Error != nil {
				return fmt.Errorf("update profile: %w", res.Error)
			}
		}
		var err error
		user, err = getUser(tx, "id = ?", userID)
		return err
	})
	return user, err
}

func (s *Store) TopUsers(ctx context.Context, limit int) ([]domain.User, error) {
	var rows []userModel
	q := s.db.WithContext(ctx).Order("total_score DESC, rowid ASC")
	if limit >= 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("top users: %w", err)
	}
	out := make([]domain.User, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

// RecordResult inserts the result and increments total_score in one transaction.
func (s *Store) RecordResult(ctx context.Context, result domain.Result) (domain.User, error) {
	var user domain.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&userModel{}).
			Where("id = ?", result.UserID).
			UpdateColumn("total_score", gorm.Expr("total_score + ?", result.Score))
		if res.Error != nil {
			return fmt.Errorf("credit user: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return domain.ErrUserNotFound
		}
		if err := insertResult(tx, result); err != nil {
			return err
		}
		var err error
		user, err = getUser(tx, "id = ?", result.UserID)
		return err
	})
	return user, err
}

func (s *Store) RecordGuestResult(ctx context.Context, result domain.Result) error {
	return insertResult(s.db.WithContext(ctx), result)
}

func insertResult(tx *gorm.DB, result domain.Result) error {
	m := toResultModel(result)
	err := tx.Create(&m).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return domain.ErrDuplicateSubmission
	}
	if err != nil {
		return fmt.Errorf("insert result: %w", err)
	}
	return nil
}

func (s *Store) ListResultsByUser(ctx context.Context, userID string) ([]domain.Result, error) {
	var rows []resultModel
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC, rowid DESC").Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	out := make([]domain.Result, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}
