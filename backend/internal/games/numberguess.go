package games

import (
	"math/rand"
	"time"

	apperrors "paco-bot/backend/pkg/errors"
)

const (
	numberGuessTimeout  = 2 * time.Minute
	numberGuessMax      = 100
	numberGuessAttempts = 7
	numberGuessPoints   = 12
)

type numberGuessState struct {
	target   int
	attempts int
}

// NumberGuessOutcome reports the effect of one number guess
type NumberGuessOutcome struct {
	Won          bool
	Lost         bool
	TooHigh      bool
	TooLow       bool
	Points       int
	AttemptsLeft int
	Target       int // populated on win or loss
}

// NumberGuess runs per-channel guess-the-number rounds (1..100, 7 attempts)
type NumberGuess struct {
	m     *Manager
	randf func(n int) int
}

// NewNumberGuess creates the number-guess game service
func NewNumberGuess(m *Manager) *NumberGuess {
	return &NumberGuess{m: m, randf: rand.Intn}
}

// Start begins a round. onTimeout receives the target when time runs out.
func (n *NumberGuess) Start(channelID string, onTimeout func(target int)) error {
	target := n.randf(numberGuessMax) + 1
	sess := &Session{
		Type:      GameNumberGuess,
		ChannelID: channelID,
		Data:      &numberGuessState{target: target},
	}

	return n.m.Start(sess, numberGuessTimeout, func(s *Session) {
		if onTimeout != nil {
			onTimeout(target)
		}
	})
}

// Guess submits a number. Exact hit wins; otherwise the outcome says which
// direction to go, and running out of attempts loses the round.
func (n *NumberGuess) Guess(channelID, userID, userName string, guess int) (NumberGuessOutcome, error) {
	sess, ok := n.m.Get(GameNumberGuess, channelID)
	if !ok {
		return NumberGuessOutcome{}, apperrors.NewNoActiveGame(string(GameNumberGuess), channelID)
	}

	sess.Lock()
	st := sess.Data.(*numberGuessState)
	st.attempts++
	attemptsLeft := numberGuessAttempts - st.attempts
	target := st.target
	sess.Unlock()

	out := NumberGuessOutcome{AttemptsLeft: attemptsLeft}
	switch {
	case guess == target:
		points := numberGuessPoints + attemptsLeft
		if n.m.End(sess, StatusWon) {
			n.m.Leaderboard().AddScore(GameNumberGuess, userID, userName, points, true)
			out.Won = true
			out.Points = points
			out.Target = target
		}
	case attemptsLeft <= 0:
		if n.m.End(sess, StatusLost) {
			out.Lost = true
			out.Target = target
		}
	case guess > target:
		out.TooHigh = true
	default:
		out.TooLow = true
	}
	return out, nil
}
