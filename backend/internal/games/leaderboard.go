package games

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"go.uber.org/zap"
)

// PlayerScore accumulates a player's results for one game type
type PlayerScore struct {
	UserName    string `json:"user_name"`
	Points      int    `json:"points"`
	Wins        int    `json:"wins"`
	GamesPlayed int    `json:"games_played"`
}

// RankedScore is a leaderboard row
type RankedScore struct {
	UserID string
	PlayerScore
}

// Leaderboard is the shared score file keyed by (game type, user ID). Writes
// are last-writer-wins; two games finishing at once can race at the file level
// and that loss is accepted.
type Leaderboard struct {
	mu     sync.Mutex
	path   string
	scores map[GameType]map[string]*PlayerScore
	logger *zap.Logger
}

// NewLeaderboard loads the leaderboard file from dataDir, starting empty when
// missing or unreadable
func NewLeaderboard(dataDir string, logger *zap.Logger) *Leaderboard {
	lb := &Leaderboard{
		path:   filepath.Join(dataDir, "leaderboard.json"),
		scores: make(map[GameType]map[string]*PlayerScore),
		logger: logger,
	}

	data, err := os.ReadFile(lb.path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("Failed to read leaderboard, starting empty",
				zap.String("path", lb.path),
				zap.Error(err),
			)
		}
		return lb
	}
	if err := json.Unmarshal(data, &lb.scores); err != nil {
		logger.Warn("Failed to parse leaderboard, starting empty",
			zap.String("path", lb.path),
			zap.Error(err),
		)
		lb.scores = make(map[GameType]map[string]*PlayerScore)
	}
	return lb
}

// AddScore records points for a player and persists the whole board
func (lb *Leaderboard) AddScore(game GameType, userID, userName string, points int, won bool) {
	lb.mu.Lock()
	defer lb.mu.Unlock()

	byUser, ok := lb.scores[game]
	if !ok {
		byUser = make(map[string]*PlayerScore)
		lb.scores[game] = byUser
	}
	score, ok := byUser[userID]
	if !ok {
		score = &PlayerScore{}
		byUser[userID] = score
	}

	score.UserName = userName
	score.Points += points
	score.GamesPlayed++
	if won {
		score.Wins++
	}

	lb.saveLocked()
}

// Top returns the top n players for a game, ranked by points
func (lb *Leaderboard) Top(game GameType, n int) []RankedScore {
	lb.mu.Lock()
	defer lb.mu.Unlock()

	ranked := make([]RankedScore, 0, len(lb.scores[game]))
	for userID, score := range lb.scores[game] {
		ranked = append(ranked, RankedScore{UserID: userID, PlayerScore: *score})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Points != ranked[j].Points {
			return ranked[i].Points > ranked[j].Points
		}
		return ranked[i].Wins > ranked[j].Wins
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// Score returns a single player's record for a game
func (lb *Leaderboard) Score(game GameType, userID string) (PlayerScore, bool) {
	lb.mu.Lock()
	defer lb.mu.Unlock()

	if score, ok := lb.scores[game][userID]; ok {
		return *score, true
	}
	return PlayerScore{}, false
}

func (lb *Leaderboard) saveLocked() {
	data, err := json.MarshalIndent(lb.scores, "", "  ")
	if err != nil {
		lb.logger.Error("Failed to marshal leaderboard", zap.Error(err))
		return
	}
	if err := os.MkdirAll(filepath.Dir(lb.path), 0o755); err != nil {
		lb.logger.Error("Failed to create leaderboard directory", zap.Error(err))
		return
	}
	if err := os.WriteFile(lb.path, data, 0o644); err != nil {
		// Degraded mode: keep serving in-memory scores
		lb.logger.Error("Failed to persist leaderboard",
			zap.String("path", lb.path),
			zap.Error(err),
		)
	}
}
