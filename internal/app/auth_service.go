package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"quizhub-service/internal/auth"
	"quizhub-service/internal/domain"
	"quizhub-service/internal/logger"
)

const (
	guestUsername     = "Guest Explorer"
	guestOrganization = "Guest Session"
)

// RegisterInput is the registration form.
type RegisterInput struct {
	Username     string      `json:"username"`
	Email        string      `json:"email"`
	Password     string      `json:"password"`
	Role         domain.Role `json:"role"`
	Organization string      `json:"organization"`
}

// AuthResult is returned by every call that opens a session.
type AuthResult struct {
	Token     string      `json:"token"`
	User      domain.User `json:"user"`
	ExpiresAt time.Time   `json:"expiresAt"`
}

// AuthService owns registration, login and session lookup.
type AuthService struct {
	users    UserRepository
	sessions SessionRepository
	tokens   *auth.TokenIssuer
	ttl      time.Duration
	now      func() time.Time
	log      *logger.Logger
}

func NewAuthService(users UserRepository, sessions SessionRepository, tokens *auth.TokenIssuer, ttl time.Duration, log *logger.Logger) *AuthService {
	if log == nil {
		log = logger.NewNop()
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &AuthService{users: users, sessions: sessions, tokens: tokens, ttl: ttl, now: time.Now, log: log}
}

// Register creates a user and opens a session for them.
// A duplicate email fails with domain.ErrEmailTaken and leaves the store unchanged.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (AuthResult, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = normalizeEmail(in.Email)
	in.Organization = strings.TrimSpace(in.Organization)
	if in.Role == "" {
		in.Role = domain.RoleStudent
	}

	switch {
	case in.Username == "":
		return AuthResult{}, domain.Invalid("username", "username is required")
	case !strings.Contains(in.Email, "@"):
		return AuthResult{}, domain.Invalid("email", "a valid email is required")
	case in.Password == "":
		return AuthResult{}, domain.Invalid("password", "password is required")
	case !in.Role.Valid() || in.Role == domain.RoleGuest:
		return AuthResult{}, domain.Invalid("role", "must be one of Student, Teacher, Admin")
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return AuthResult{}, fmt.Errorf("hash password: %w", err)
	}
	user := domain.User{
		ID:           uuid.NewString(),
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		Role:         in.Role,
		Organization: in.Organization,
		AvatarURL:    domain.AvatarFor(in.Username),
		TotalScore:   0,
		Badges:       []string{},
		CreatedAt:    s.now().UTC(),
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return AuthResult{}, err
	}
	s.log.Info("user registered", "user", user.ID, "role", user.Role)
	return s.openSession(ctx, user)
}

// Login opens a session for an existing user.
func (s *AuthService) Login(ctx context.Context, email, password string) (AuthResult, error) {
	user, err := s.users.GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return AuthResult{}, domain.ErrUnknownEmail
		}
		return AuthResult{}, err
	}
	if !auth.CheckPassword(user.PasswordHash, password) {
		return AuthResult{}, domain.ErrInvalidCredentials
	}
	return s.openSession(ctx, user)
}

// LoginAsGuest opens a session for a fresh guest. Guests are never stored as users.
func (s *AuthService) LoginAsGuest(ctx context.Context) (AuthResult, error) {
	id := "guest_" + uuid.NewString()
	guest := domain.User{
		ID:           id,
		Username:     guestUsername,
		Email:        "",
		Role:         domain.RoleGuest,
		Organization: guestOrganization,
		AvatarURL:    domain.AvatarFor(id),
		TotalScore:   0,
		Badges:       []string{},
		CreatedAt:    s.now().UTC(),
	}
	return s.openSession(ctx, guest)
}

// Logout ends the session behind token. Unknown tokens are ignored.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	sessionID, err := s.tokens.Parse(token)
	if err != nil {
		return nil
	}
	return s.sessions.DeleteSession(ctx, sessionID)
}

// Authenticate resolves a bearer token to its principal.
// Registered users are re-read so the totalScore is current.
func (s *AuthService) Authenticate(ctx context.Context, token string) (Principal, error) {
	sessionID, err := s.tokens.Parse(token)
	if err != nil {
		return Principal{}, domain.ErrUnauthorized
	}
	session, err := s.sessions.GetSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return Principal{}, domain.ErrUnauthorized
		}
		return Principal{}, err
	}
	user := session.User
	if !user.IsGuest() {
		user, err = s.users.GetUser(ctx, session.User.ID)
		if err != nil {
			if errors.Is(err, domain.ErrUserNotFound) {
				return Principal{}, domain.ErrUnauthorized
			}
			return Principal{}, err
		}
	}
	return Principal{SessionID: sessionID, User: user}, nil
}

// UpdateProfile edits profile fields. Guests are edited inside their session only.
func (s *AuthService) UpdateProfile(ctx context.Context, p Principal, update domain.ProfileUpdate) (domain.User, error) {
	if update.Username != nil {
		name := strings.TrimSpace(*update.Username)
		if name == "" {
			return domain.User{}, domain.Invalid("username", "username cannot be empty")
		}
		update.Username = &name
	}
	if update.Organization != nil {
		org := strings.TrimSpace(*update.Organization)
		update.Organization = &org
	}

	if !p.User.IsGuest() {
		return s.users.UpdateProfile(ctx, p.User.ID, update)
	}

	session, err := s.sessions.GetSession(ctx, p.SessionID)
	if err != nil {
		return domain.User{}, err
	}
	update.Apply(&session.User)
	if err := s.sessions.SaveSession(ctx, session); err != nil {
		return domain.User{}, err
	}
	return session.User, nil
}

func (s *AuthService) openSession(ctx context.Context, user domain.User) (AuthResult, error) {
	now := s.now().UTC()
	user.PasswordHash = ""
	session := domain.Session{
		ID:        uuid.NewString(),
		User:      user,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.sessions.SaveSession(ctx, session); err != nil {
		return AuthResult{}, fmt.Errorf("save session: %w", err)
	}
	token, err := s.tokens.Issue(session.ID, user.ID, session.ExpiresAt)
	if err != nil {
		return AuthResult{}, err
	}
	return AuthResult{Token: token, User: user, ExpiresAt: session.ExpiresAt}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
