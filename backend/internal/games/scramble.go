package games

import (
	"math/rand"
	"strings"
	"time"

	apperrors "paco-bot/backend/pkg/errors"
)

const (
	scrambleTimeout    = 60 * time.Second
	scrambleBasePoints = 10
	scrambleSpeedBonus = 15
)

type scrambleState struct {
	word      string
	scrambled string
	timeout   time.Duration
}

// Scramble runs per-channel word-unscramble rounds
type Scramble struct {
	m     *Manager
	randf func(n int) int
}

// NewScramble creates the word-scramble game service
func NewScramble(m *Manager) *Scramble {
	return &Scramble{m: m, randf: rand.Intn}
}

// Start begins a scramble round and returns the scrambled word. onTimeout
// receives the answer when nobody solved it in time.
func (s *Scramble) Start(channelID string, onTimeout func(word string)) (string, error) {
	word := wordBank[s.randf(len(wordBank))]
	scrambled := s.shuffle(word)
	sess := &Session{
		Type:      GameScramble,
		ChannelID: channelID,
		Data:      &scrambleState{word: word, scrambled: scrambled, timeout: scrambleTimeout},
	}

	err := s.m.Start(sess, scrambleTimeout, func(sess *Session) {
		if onTimeout != nil {
			onTimeout(word)
		}
	})
	if err != nil {
		return "", err
	}
	return scrambled, nil
}

// Guess submits an unscrambled word. Correct wins with speed-scaled points;
// wrong leaves the session running.
func (s *Scramble) Guess(channelID, userID, userName, guess string) (bool, int, error) {
	sess, ok := s.m.Get(GameScramble, channelID)
	if !ok {
		return false, 0, apperrors.NewNoActiveGame(string(GameScramble), channelID)
	}
	st := sess.Data.(*scrambleState)

	if !strings.EqualFold(strings.TrimSpace(guess), st.word) {
		return false, 0, nil
	}

	points := speedPoints(scrambleBasePoints, scrambleSpeedBonus, sess.Elapsed(), st.timeout)
	if !s.m.End(sess, StatusWon) {
		return false, 0, apperrors.NewNoActiveGame(string(GameScramble), channelID)
	}
	s.m.Leaderboard().AddScore(GameScramble, userID, userName, points, true)
	return true, points, nil
}

// shuffle permutes the word's letters, retrying until the result differs from
// the original so the round is never trivially solved
func (s *Scramble) shuffle(word string) string {
	runes := []rune(word)
	for attempt := 0; attempt < 10; attempt++ {
		for i := len(runes) - 1; i > 0; i-- {
			j := s.randf(i + 1)
			runes[i], runes[j] = runes[j], runes[i]
		}
		if string(runes) != word {
			break
		}
	}
	return string(runes)
}
