package games

import (
	"math/rand"
	"strings"
	"time"

	apperrors "paco-bot/backend/pkg/errors"
)

const (
	triviaTimeout    = 30 * time.Second
	triviaBasePoints = 10
	triviaSpeedBonus = 10
)

type triviaState struct {
	question TriviaQuestion
	timeout  time.Duration
}

// Trivia runs single-question trivia rounds per channel
type Trivia struct {
	m     *Manager
	randf func(n int) int
}

// NewTrivia creates the trivia game service
func NewTrivia(m *Manager) *Trivia {
	return &Trivia{m: m, randf: rand.Intn}
}

// Start begins a trivia round in the channel. onTimeout receives the correct
// answer when nobody got it in time.
func (t *Trivia) Start(channelID string, onTimeout func(answer string)) (TriviaQuestion, error) {
	q := triviaBank[t.randf(len(triviaBank))]
	sess := &Session{
		Type:      GameTrivia,
		ChannelID: channelID,
		Data:      &triviaState{question: q, timeout: triviaTimeout},
	}

	err := t.m.Start(sess, triviaTimeout, func(s *Session) {
		if onTimeout != nil {
			onTimeout(q.Answer)
		}
	})
	if err != nil {
		return TriviaQuestion{}, err
	}
	return q, nil
}

// Guess submits an answer. A correct answer wins the round and scores
// speed-scaled points; a wrong answer leaves the session untouched.
func (t *Trivia) Guess(channelID, userID, userName, answer string) (bool, int, error) {
	sess, ok := t.m.Get(GameTrivia, channelID)
	if !ok {
		return false, 0, apperrors.NewNoActiveGame(string(GameTrivia), channelID)
	}
	st := sess.Data.(*triviaState)

	if !answersMatch(answer, st.question.Answer) {
		return false, 0, nil
	}

	points := speedPoints(triviaBasePoints, triviaSpeedBonus, sess.Elapsed(), st.timeout)
	// The timer may have fired between Get and End; score only if we actually
	// retired the session
	if !t.m.End(sess, StatusWon) {
		return false, 0, apperrors.NewNoActiveGame(string(GameTrivia), channelID)
	}
	t.m.Leaderboard().AddScore(GameTrivia, userID, userName, points, true)
	return true, points, nil
}

// answersMatch compares a guess against the expected answer, case and
// whitespace insensitive
func answersMatch(guess, answer string) bool {
	return strings.EqualFold(strings.TrimSpace(guess), strings.TrimSpace(answer))
}

// speedPoints scales bonus points by how much of the allotted time remained
func speedPoints(base, bonus int, elapsed, timeout time.Duration) int {
	if timeout <= 0 || elapsed >= timeout {
		return base
	}
	remaining := float64(timeout-elapsed) / float64(timeout)
	return base + int(float64(bonus)*remaining)
}
