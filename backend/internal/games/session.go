package games

import (
	"strings"
	"sync"
	"time"

	apperrors "paco-bot/backend/pkg/errors"

	"go.uber.org/zap"
)

// GameType is the closed set of games the bot runs. Strings from the command
// boundary are validated through ParseGameType before reaching any session
// logic.
type GameType string

const (
	GameTrivia      GameType = "trivia"
	GameHangman     GameType = "hangman"
	GameScramble    GameType = "scramble"
	GameNumberGuess GameType = "numberguess"
	GameQuiz        GameType = "quiz"
	GameRPS         GameType = "rps"
)

// ParseGameType validates a game type string at the boundary
func ParseGameType(s string) (GameType, error) {
	switch GameType(strings.ToLower(strings.TrimSpace(s))) {
	case GameTrivia:
		return GameTrivia, nil
	case GameHangman:
		return GameHangman, nil
	case GameScramble:
		return GameScramble, nil
	case GameNumberGuess:
		return GameNumberGuess, nil
	case GameQuiz:
		return GameQuiz, nil
	case GameRPS:
		return GameRPS, nil
	default:
		return "", apperrors.NewInvalidGameType(s)
	}
}

// Status is the session lifecycle state. Terminal statuses remove the session.
type Status int

const (
	StatusActive Status = iota
	StatusWon
	StatusLost
	StatusTimedOut
	StatusForceEnded
)

func (s Status) String() string {
	switch s {
	case StatusActive:
		return "active"
	case StatusWon:
		return "won"
	case StatusLost:
		return "lost"
	case StatusTimedOut:
		return "timed_out"
	case StatusForceEnded:
		return "force_ended"
	default:
		return "unknown"
	}
}

// Session is one running game. Game-specific state lives in Data; lifecycle
// (status, timer, scores) is managed here so every retiring transition cancels
// the timer as a postcondition.
type Session struct {
	ID        string
	Type      GameType
	ChannelID string
	StartedAt time.Time
	Scores    map[string]int
	Data      interface{}

	// mu guards Scores and Data; discordgo dispatches events on separate
	// goroutines, so two guesses can arrive concurrently
	mu     sync.Mutex
	status Status
	timer  *time.Timer
}

// Lock guards game-specific state for a guess/answer sequence
func (s *Session) Lock() { s.mu.Lock() }

// Unlock releases the guard taken by Lock
func (s *Session) Unlock() { s.mu.Unlock() }

// Status returns the session's lifecycle state. Only the manager mutates it.
func (s *Session) Status() Status { return s.status }

// Elapsed returns time since the session started
func (s *Session) Elapsed() time.Duration { return time.Since(s.StartedAt) }

// Manager owns all active game sessions. At most one active session per
// (game type, channel); PvP sessions are keyed by their synthetic game ID
// instead of the channel.
type Manager struct {
	mu          sync.Mutex
	sessions    map[string]*Session
	leaderboard *Leaderboard
	logger      *zap.Logger
}

// NewManager creates the session manager
func NewManager(leaderboard *Leaderboard, logger *zap.Logger) *Manager {
	return &Manager{
		sessions:    make(map[string]*Session),
		leaderboard: leaderboard,
		logger:      logger,
	}
}

// Leaderboard exposes the shared score store
func (m *Manager) Leaderboard() *Leaderboard { return m.leaderboard }

func sessionKey(typ GameType, channelID string) string {
	return string(typ) + ":" + channelID
}

// Start registers a new session. A start request while a session of the same
// type is active in the channel is rejected with no state change. onTimeout
// fires if the timer expires with the session still active; by then the
// session is already retired and removed.
func (m *Manager) Start(sess *Session, timeout time.Duration, onTimeout func(*Session)) error {
	key := sessionKey(sess.Type, sess.ChannelID)
	if sess.ID != "" {
		key = sessionKey(sess.Type, sess.ID)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.sessions[key]; exists {
		return apperrors.NewGameInProgress(string(sess.Type), sess.ChannelID)
	}

	sess.status = StatusActive
	sess.StartedAt = time.Now()
	if sess.Scores == nil {
		sess.Scores = make(map[string]int)
	}
	if timeout > 0 {
		sess.timer = time.AfterFunc(timeout, func() {
			m.expire(key, onTimeout)
		})
	}
	m.sessions[key] = sess

	m.logger.Info("Game session started",
		zap.String("game", string(sess.Type)),
		zap.String("channel_id", sess.ChannelID),
		zap.Duration("timeout", timeout),
	)
	return nil
}

// Get returns the active session for a game type in a channel
func (m *Manager) Get(typ GameType, channelID string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[sessionKey(typ, channelID)]
	return sess, ok
}

// GetByID returns a session keyed by its synthetic ID (PvP games)
func (m *Manager) GetByID(typ GameType, id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[sessionKey(typ, id)]
	return sess, ok
}

// End retires a session with a terminal status, cancels its timer, and removes
// it. Returns false if the session was already gone (e.g. the timer fired
// first); callers must treat that as a no-op.
func (m *Manager) End(sess *Session, status Status) bool {
	key := sessionKey(sess.Type, sess.ChannelID)
	if sess.ID != "" {
		key = sessionKey(sess.Type, sess.ID)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.sessions[key]
	if !ok || current != sess {
		return false
	}
	m.retireLocked(key, sess, status)
	return true
}

// ForceEnd ends whatever session of the given type is active in the channel
func (m *Manager) ForceEnd(typ GameType, channelID string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := sessionKey(typ, channelID)
	sess, ok := m.sessions[key]
	if !ok {
		return nil, false
	}
	m.retireLocked(key, sess, StatusForceEnded)
	return sess, true
}

// Active returns the number of running sessions
func (m *Manager) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// expire handles the timer firing. A stale timer racing a just-finished
// session finds the map entry gone and does nothing.
func (m *Manager) expire(key string, onTimeout func(*Session)) {
	m.mu.Lock()
	sess, ok := m.sessions[key]
	if !ok || sess.status != StatusActive {
		m.mu.Unlock()
		return
	}
	m.retireLocked(key, sess, StatusTimedOut)
	m.mu.Unlock()

	if onTimeout != nil {
		onTimeout(sess)
	}
}

// retireLocked is the single place sessions leave the map. Cancelling the
// timer here makes "no live timer after a terminal transition" hold for every
// exit path.
func (m *Manager) retireLocked(key string, sess *Session, status Status) {
	if sess.timer != nil {
		sess.timer.Stop()
		sess.timer = nil
	}
	sess.status = status
	delete(m.sessions, key)

	m.logger.Info("Game session ended",
		zap.String("game", string(sess.Type)),
		zap.String("channel_id", sess.ChannelID),
		zap.String("status", status.String()),
		zap.Duration("duration", time.Since(sess.StartedAt)),
	)
}
