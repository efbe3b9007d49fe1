package games

import (
	"math/rand"
	"strings"
	"time"

	apperrors "paco-bot/backend/pkg/errors"

	"github.com/google/uuid"
)

const (
	rpsTimeout   = 60 * time.Second
	rpsWinPoints = 5
)

// RPSMove is one of rock, paper, scissors
type RPSMove string

const (
	MoveRock     RPSMove = "rock"
	MovePaper    RPSMove = "paper"
	MoveScissors RPSMove = "scissors"
)

// ParseRPSMove validates a move string at the boundary
func ParseRPSMove(s string) (RPSMove, bool) {
	switch RPSMove(strings.ToLower(strings.TrimSpace(s))) {
	case MoveRock:
		return MoveRock, true
	case MovePaper:
		return MovePaper, true
	case MoveScissors:
		return MoveScissors, true
	default:
		return "", false
	}
}

// beats reports whether a beats b
func (a RPSMove) beats(b RPSMove) bool {
	switch a {
	case MoveRock:
		return b == MoveScissors
	case MovePaper:
		return b == MoveRock
	case MoveScissors:
		return b == MovePaper
	}
	return false
}

type rpsState struct {
	botMove     RPSMove // vs-bot variant
	pvp         bool
	challenger  string
	opponent    string
	moves       map[string]RPSMove // pvp: userID -> move
}

// RPSOutcome reports a resolved rock-paper-scissors round
type RPSOutcome struct {
	Resolved bool
	Draw     bool
	WinnerID string
	LoserID  string
	BotMove  RPSMove
	Moves    map[string]RPSMove
	Points   int
	Waiting  bool // pvp: one player still to move
}

// RPS runs rock-paper-scissors: a quick vs-bot round per channel, and a
// player-vs-player variant keyed by a synthetic game ID
type RPS struct {
	m     *Manager
	randf func(n int) int
}

// NewRPS creates the rock-paper-scissors game service
func NewRPS(m *Manager) *RPS {
	return &RPS{m: m, randf: rand.Intn}
}

// StartVsBot begins a vs-bot round: the bot locks in a hidden move, and the
// player's next move resolves the round
func (r *RPS) StartVsBot(channelID string, onTimeout func()) error {
	moves := []RPSMove{MoveRock, MovePaper, MoveScissors}
	sess := &Session{
		Type:      GameRPS,
		ChannelID: channelID,
		Data:      &rpsState{botMove: moves[r.randf(3)]},
	}
	return r.m.Start(sess, rpsTimeout, func(s *Session) {
		if onTimeout != nil {
			onTimeout()
		}
	})
}

// PlayVsBot resolves the channel's vs-bot round with the player's move
func (r *RPS) PlayVsBot(channelID, userID, userName string, move RPSMove) (RPSOutcome, error) {
	sess, ok := r.m.Get(GameRPS, channelID)
	if !ok {
		return RPSOutcome{}, apperrors.NewNoActiveGame(string(GameRPS), channelID)
	}

	sess.Lock()
	st := sess.Data.(*rpsState)
	if st.pvp {
		sess.Unlock()
		return RPSOutcome{}, apperrors.NewNoActiveGame(string(GameRPS), channelID)
	}
	botMove := st.botMove
	sess.Unlock()

	out := RPSOutcome{Resolved: true, BotMove: botMove}
	switch {
	case move == botMove:
		out.Draw = true
		if !r.m.End(sess, StatusWon) {
			return RPSOutcome{}, apperrors.NewNoActiveGame(string(GameRPS), channelID)
		}
	case move.beats(botMove):
		out.WinnerID = userID
		if !r.m.End(sess, StatusWon) {
			return RPSOutcome{}, apperrors.NewNoActiveGame(string(GameRPS), channelID)
		}
		r.m.Leaderboard().AddScore(GameRPS, userID, userName, rpsWinPoints, true)
		out.Points = rpsWinPoints
	default:
		out.LoserID = userID
		if !r.m.End(sess, StatusLost) {
			return RPSOutcome{}, apperrors.NewNoActiveGame(string(GameRPS), channelID)
		}
	}
	return out, nil
}

// Challenge starts a PvP game between two users and returns its game ID
func (r *RPS) Challenge(channelID, challengerID, opponentID string, onTimeout func(gameID string)) (string, error) {
	gameID := uuid.NewString()
	sess := &Session{
		ID:        gameID,
		Type:      GameRPS,
		ChannelID: channelID,
		Data: &rpsState{
			pvp:        true,
			challenger: challengerID,
			opponent:   opponentID,
			moves:      make(map[string]RPSMove),
		},
	}

	err := r.m.Start(sess, rpsTimeout, func(s *Session) {
		if onTimeout != nil {
			onTimeout(gameID)
		}
	})
	if err != nil {
		return "", err
	}
	return gameID, nil
}

// PlayPvP records a player's move in a PvP game, resolving once both moved
func (r *RPS) PlayPvP(gameID, userID, userName string, move RPSMove) (RPSOutcome, error) {
	sess, ok := r.m.GetByID(GameRPS, gameID)
	if !ok {
		return RPSOutcome{}, apperrors.NewNoActiveGame(string(GameRPS), gameID)
	}

	sess.Lock()
	st := sess.Data.(*rpsState)
	if !st.pvp || (userID != st.challenger && userID != st.opponent) {
		sess.Unlock()
		return RPSOutcome{}, apperrors.NewNoActiveGame(string(GameRPS), gameID)
	}
	st.moves[userID] = move
	if len(st.moves) < 2 {
		sess.Unlock()
		return RPSOutcome{Waiting: true}, nil
	}
	challengerMove := st.moves[st.challenger]
	opponentMove := st.moves[st.opponent]
	challenger, opponent := st.challenger, st.opponent
	sess.Unlock()

	out := RPSOutcome{
		Resolved: true,
		Moves:    map[string]RPSMove{challenger: challengerMove, opponent: opponentMove},
	}
	switch {
	case challengerMove == opponentMove:
		out.Draw = true
	case challengerMove.beats(opponentMove):
		out.WinnerID, out.LoserID = challenger, opponent
	default:
		out.WinnerID, out.LoserID = opponent, challenger
	}

	if !r.m.End(sess, StatusWon) {
		return RPSOutcome{}, apperrors.NewNoActiveGame(string(GameRPS), gameID)
	}
	if out.WinnerID != "" {
		r.m.Leaderboard().AddScore(GameRPS, out.WinnerID, userName, rpsWinPoints, true)
		out.Points = rpsWinPoints
	}
	return out, nil
}
