package games

import (
	"math/rand"
	"strings"
	"time"
	"unicode"

	apperrors "paco-bot/backend/pkg/errors"
)

const (
	hangmanTimeout    = 5 * time.Minute
	hangmanMaxWrong   = 6
	hangmanBasePoints = 15
	hangmanWordBonus  = 10
)

type hangmanState struct {
	word    string
	guessed map[rune]bool
	wrong   int
}

// HangmanOutcome reports the effect of one hangman guess
type HangmanOutcome struct {
	Hit      bool // letter (or word) was in the word
	Won      bool
	Lost     bool
	Points   int
	Wrong    int    // wrong-guess count after this guess
	Display  string // current revealed word, e.g. "p _ t h o n"
	Word     string // full word, populated on win or loss
	Repeated bool   // letter was already guessed
}

// Hangman runs per-channel hangman sessions
type Hangman struct {
	m     *Manager
	randf func(n int) int
}

// NewHangman creates the hangman game service
func NewHangman(m *Manager) *Hangman {
	return &Hangman{m: m, randf: rand.Intn}
}

// Start begins a hangman round. onTimeout receives the word when time runs out.
func (h *Hangman) Start(channelID string, onTimeout func(word string)) (string, error) {
	word := wordBank[h.randf(len(wordBank))]
	st := &hangmanState{word: word, guessed: make(map[rune]bool)}
	sess := &Session{
		Type:      GameHangman,
		ChannelID: channelID,
		Data:      st,
	}

	err := h.m.Start(sess, hangmanTimeout, func(s *Session) {
		if onTimeout != nil {
			onTimeout(word)
		}
	})
	if err != nil {
		return "", err
	}
	return st.display(), nil
}

// Guess submits a single letter or a whole word. Correct letters reveal
// without touching the wrong-guess count; misses increment it, and hitting
// the max transitions the session to Lost and removes it.
func (h *Hangman) Guess(channelID, userID, userName, guess string) (HangmanOutcome, error) {
	sess, ok := h.m.Get(GameHangman, channelID)
	if !ok {
		return HangmanOutcome{}, apperrors.NewNoActiveGame(string(GameHangman), channelID)
	}

	sess.Lock()
	st := sess.Data.(*hangmanState)
	guess = strings.ToLower(strings.TrimSpace(guess))

	var out HangmanOutcome
	switch {
	case len([]rune(guess)) == 1:
		out = h.guessLetter(st, []rune(guess)[0])
	default:
		out = h.guessWord(st, guess)
	}
	out.Wrong = st.wrong
	out.Display = st.display()
	sess.Unlock()

	switch {
	case out.Won:
		points := hangmanBasePoints + hangmanWordBonus - st.wrong
		if points < 1 {
			points = 1
		}
		if h.m.End(sess, StatusWon) {
			h.m.Leaderboard().AddScore(GameHangman, userID, userName, points, true)
			out.Points = points
			out.Word = st.word
		}
	case out.Lost:
		if h.m.End(sess, StatusLost) {
			out.Word = st.word
		}
	}
	return out, nil
}

// Display returns the current revealed word for the channel's session
func (h *Hangman) Display(channelID string) (string, int, error) {
	sess, ok := h.m.Get(GameHangman, channelID)
	if !ok {
		return "", 0, apperrors.NewNoActiveGame(string(GameHangman), channelID)
	}
	sess.Lock()
	defer sess.Unlock()
	st := sess.Data.(*hangmanState)
	return st.display(), st.wrong, nil
}

func (h *Hangman) guessLetter(st *hangmanState, letter rune) HangmanOutcome {
	letter = unicode.ToLower(letter)
	if st.guessed[letter] {
		return HangmanOutcome{Repeated: true, Hit: strings.ContainsRune(st.word, letter)}
	}
	st.guessed[letter] = true

	if !strings.ContainsRune(st.word, letter) {
		st.wrong++
		return HangmanOutcome{Lost: st.wrong >= hangmanMaxWrong}
	}

	return HangmanOutcome{Hit: true, Won: st.allRevealed()}
}

func (h *Hangman) guessWord(st *hangmanState, word string) HangmanOutcome {
	if word == st.word {
		for _, r := range st.word {
			st.guessed[r] = true
		}
		return HangmanOutcome{Hit: true, Won: true}
	}
	st.wrong++
	return HangmanOutcome{Lost: st.wrong >= hangmanMaxWrong}
}

func (st *hangmanState) allRevealed() bool {
	for _, r := range st.word {
		if !st.guessed[r] {
			return false
		}
	}
	return true
}

func (st *hangmanState) display() string {
	parts := make([]string, 0, len(st.word))
	for _, r := range st.word {
		if st.guessed[r] {
			parts = append(parts, string(r))
		} else {
			parts = append(parts, "_")
		}
	}
	return strings.Join(parts, " ")
}
