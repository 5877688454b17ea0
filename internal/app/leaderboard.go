package app

import (
	"context"

	"quizhub-service/internal/domain"
)

const DefaultLeaderboardSize = 10

// LeaderboardEntry is one ranked row of the global leaderboard.
type LeaderboardEntry struct {
	Rank       int      `json:"rank"`
	UserID     string   `json:"userId"`
	Username   string   `json:"username"`
	AvatarURL  string   `json:"avatarUrl"`
	Role       string   `json:"role"`
	TotalScore int      `json:"totalScore"`
	Badges     []string `json:"badges"`
}

// LeaderboardService projects registered users by totalScore. It holds no state;
// every read is recomputed from the user store.
type LeaderboardService struct {
	users       UserRepository
	defaultSize int
}

func NewLeaderboardService(users UserRepository, defaultSize int) *LeaderboardService {
	if defaultSize <= 0 {
		defaultSize = DefaultLeaderboardSize
	}
	return &LeaderboardService{users: users, defaultSize: defaultSize}
}

// DefaultSize is the board size used when a caller does not ask for one.
func (s *LeaderboardService) DefaultSize() int { return s.defaultSize }

// TopN returns min(n, |users|) entries ordered by totalScore desc, ties by creation order.
func (s *LeaderboardService) TopN(ctx context.Context, n int) ([]LeaderboardEntry, error) {
	if n <= 0 {
		return []LeaderboardEntry{}, nil
	}
	users, err := s.users.TopUsers(ctx, n)
	if err != nil {
		return nil, err
	}
	entries := make([]LeaderboardEntry, 0, len(users))
	for i, u := range users {
		entries = append(entries, entryFor(i+1, u))
	}
	return entries, nil
}

func entryFor(rank int, u domain.User) LeaderboardEntry {
	badges := u.Badges
	if badges == nil {
		badges = []string{}
	}
	return LeaderboardEntry{
		Rank:       rank,
		UserID:     u.ID,
		Username:   u.Username,
		AvatarURL:  u.AvatarURL,
		Role:       string(u.Role),
		TotalScore: u.TotalScore,
		Badges:     badges,
	}
}
