package games

import (
	"math/rand"
	"time"

	apperrors "paco-bot/backend/pkg/errors"
)

const (
	quizRounds     = 5
	quizTimeout    = 3 * time.Minute
	quizBasePoints = 5
)

type quizState struct {
	questions []TriviaQuestion
	round     int
	names     map[string]string // userID -> name, captured per scoring answer
}

// QuizOutcome reports the effect of one quiz answer
type QuizOutcome struct {
	Correct      bool
	Points       int
	Finished     bool
	NextQuestion *TriviaQuestion
}

// Quiz is the multi-round trivia variant: one shared timer for the whole run,
// questions advance on correct answers, and every participant's points land on
// the quiz leaderboard when the run finishes.
type Quiz struct {
	m       *Manager
	randf   func(n int) int
	timeout time.Duration
}

// NewQuiz creates the quiz game service
func NewQuiz(m *Manager) *Quiz {
	return &Quiz{m: m, randf: rand.Intn, timeout: quizTimeout}
}

// Start begins a quiz run in the channel and returns the first question
func (q *Quiz) Start(channelID string, onTimeout func(scores map[string]int)) (TriviaQuestion, error) {
	questions := make([]TriviaQuestion, 0, quizRounds)
	seen := make(map[int]bool)
	for len(questions) < quizRounds && len(seen) < len(triviaBank) {
		i := q.randf(len(triviaBank))
		if seen[i] {
			continue
		}
		seen[i] = true
		questions = append(questions, triviaBank[i])
	}

	sess := &Session{
		Type:      GameQuiz,
		ChannelID: channelID,
		Data:      &quizState{questions: questions, names: make(map[string]string)},
	}

	// The timer goroutine races in-flight Answer calls that fetched the
	// session before it expired, so it only ever touches a locked snapshot
	err := q.m.Start(sess, q.timeout, func(s *Session) {
		scores, names := quizSnapshot(s)
		q.recordScores(scores, names)
		if onTimeout != nil {
			onTimeout(scores)
		}
	})
	if err != nil {
		return TriviaQuestion{}, err
	}
	return questions[0], nil
}

// Answer submits an answer for the current round
func (q *Quiz) Answer(channelID, userID, userName, answer string) (QuizOutcome, error) {
	sess, ok := q.m.Get(GameQuiz, channelID)
	if !ok {
		return QuizOutcome{}, apperrors.NewNoActiveGame(string(GameQuiz), channelID)
	}
	sess.Lock()
	defer sess.Unlock()
	st := sess.Data.(*quizState)

	if st.round >= len(st.questions) {
		return QuizOutcome{}, nil
	}
	if !answersMatch(answer, st.questions[st.round].Answer) {
		return QuizOutcome{}, nil
	}

	sess.Scores[userID] += quizBasePoints
	st.names[userID] = userName
	st.round++

	if st.round >= len(st.questions) {
		if q.m.End(sess, StatusWon) {
			q.recordScores(sess.Scores, st.names)
		}
		return QuizOutcome{Correct: true, Points: quizBasePoints, Finished: true}, nil
	}

	next := st.questions[st.round]
	return QuizOutcome{Correct: true, Points: quizBasePoints, NextQuestion: &next}, nil
}

// Scores returns the current per-user score map for the channel's quiz
func (q *Quiz) Scores(channelID string) (map[string]int, bool) {
	sess, ok := q.m.Get(GameQuiz, channelID)
	if !ok {
		return nil, false
	}
	sess.Lock()
	defer sess.Unlock()
	out := make(map[string]int, len(sess.Scores))
	for k, v := range sess.Scores {
		out[k] = v
	}
	return out, true
}

// recordScores flushes a finished run's points to the leaderboard. Callers
// either hold the session lock or pass a snapshot.
func (q *Quiz) recordScores(scores map[string]int, names map[string]string) {
	for userID, points := range scores {
		name := names[userID]
		if name == "" {
			name = userID
		}
		q.m.Leaderboard().AddScore(GameQuiz, userID, name, points, false)
	}
}

// quizSnapshot copies the score and name maps under the session lock
func quizSnapshot(s *Session) (map[string]int, map[string]string) {
	s.Lock()
	defer s.Unlock()
	st := s.Data.(*quizState)
	scores := make(map[string]int, len(s.Scores))
	for k, v := range s.Scores {
		scores[k] = v
	}
	names := make(map[string]string, len(st.names))
	for k, v := range st.names {
		names[k] = v
	}
	return scores, names
}
