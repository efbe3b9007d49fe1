package discord

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"paco-bot/backend/internal/games"
	apperrors "paco-bot/backend/pkg/errors"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// GamesHub glues the game state machines to Discord: starting rounds from
// commands, routing plain channel messages to active sessions as guesses, and
// announcing timeouts.
type GamesHub struct {
	manager     *games.Manager
	trivia      *games.Trivia
	quiz        *games.Quiz
	hangman     *games.Hangman
	scramble    *games.Scramble
	numberGuess *games.NumberGuess
	rps         *games.RPS
	logger      *zap.Logger

	pvpMu        sync.Mutex
	pvpByChannel map[string]string // channelID -> pending PvP game ID
}

// NewGamesHub creates the games hub around a shared session manager
func NewGamesHub(manager *games.Manager, logger *zap.Logger) *GamesHub {
	return &GamesHub{
		manager:     manager,
		trivia:      games.NewTrivia(manager),
		quiz:        games.NewQuiz(manager),
		hangman:     games.NewHangman(manager),
		scramble:    games.NewScramble(manager),
		numberGuess: games.NewNumberGuess(manager),
		rps:         games.NewRPS(manager),
		logger:      logger,

		pvpByChannel: make(map[string]string),
	}
}

// Manager exposes the session manager for the admin API
func (g *GamesHub) Manager() *games.Manager { return g.manager }

// StartGame starts a round of the given type in the channel and announces it
func (g *GamesHub) StartGame(s *discordgo.Session, channelID string, game games.GameType) string {
	announce := func(msg string) {
		if _, err := s.ChannelMessageSend(channelID, msg); err != nil {
			g.logger.Error("Failed to announce game event",
				zap.String("channel_id", channelID),
				zap.Error(err),
			)
		}
	}

	switch game {
	case games.GameTrivia:
		q, err := g.trivia.Start(channelID, func(answer string) {
			announce(fmt.Sprintf("⏰ Time's up! The answer was **%s**.", answer))
		})
		if err != nil {
			return startError(err)
		}
		return fmt.Sprintf("🧠 **Trivia time!** %s\n*You have 30 seconds — just type your answer.*", q.Question)

	case games.GameQuiz:
		q, err := g.quiz.Start(channelID, func(scores map[string]int) {
			announce("⏰ Quiz over! Final scores are on the leaderboard.")
		})
		if err != nil {
			return startError(err)
		}
		return fmt.Sprintf("📝 **Quiz started!** 5 questions, 3 minutes.\n**Question 1:** %s", q.Question)

	case games.GameHangman:
		display, err := g.hangman.Start(channelID, func(word string) {
			announce(fmt.Sprintf("⏰ Time's up! The word was **%s**.", word))
		})
		if err != nil {
			return startError(err)
		}
		return fmt.Sprintf("🪢 **Hangman!** `%s`\n*Guess a letter, or the whole word. %d wrong guesses allowed.*", display, 6)

	case games.GameScramble:
		scrambled, err := g.scramble.Start(channelID, func(word string) {
			announce(fmt.Sprintf("⏰ Time's up! The word was **%s**.", word))
		})
		if err != nil {
			return startError(err)
		}
		return fmt.Sprintf("🔀 **Unscramble this:** `%s`\n*First correct answer within 60 seconds wins!*", scrambled)

	case games.GameNumberGuess:
		err := g.numberGuess.Start(channelID, func(target int) {
			announce(fmt.Sprintf("⏰ Time's up! The number was **%d**.", target))
		})
		if err != nil {
			return startError(err)
		}
		return "🔢 **I'm thinking of a number between 1 and 100.** You have 7 guesses — go!"

	case games.GameRPS:
		err := g.rps.StartVsBot(channelID, func() {
			announce("⏰ Rock-paper-scissors round expired.")
		})
		if err != nil {
			return startError(err)
		}
		return "✊ **Rock, paper, scissors!** I've locked in my move — type yours."

	default:
		return "I don't know that game!"
	}
}

// ForceEnd ends an active session of the given type in the channel
func (g *GamesHub) ForceEnd(channelID string, game games.GameType) string {
	if _, ok := g.manager.ForceEnd(game, channelID); !ok {
		return fmt.Sprintf("No active %s game here.", game)
	}
	return fmt.Sprintf("🛑 The %s game has been ended.", game)
}

// HandleGuess routes a plain channel message to whatever session is active in
// the channel. Returns true when the message was consumed as a game move.
func (g *GamesHub) HandleGuess(s *discordgo.Session, m *discordgo.MessageCreate, content string) bool {
	channelID := m.ChannelID
	userID := m.Author.ID
	userName := m.Author.Username

	if _, ok := g.manager.Get(games.GameNumberGuess, channelID); ok {
		if n, err := strconv.Atoi(content); err == nil {
			g.announceNumberGuess(s, channelID, userName, g.mustNumberGuess(channelID, userID, userName, n))
			return true
		}
	}

	if _, ok := g.manager.Get(games.GameRPS, channelID); ok {
		if move, valid := games.ParseRPSMove(content); valid {
			out, err := g.rps.PlayVsBot(channelID, userID, userName, move)
			if err == nil {
				g.announceRPS(s, channelID, userName, move, out)
				return true
			}
		}
	}

	if _, ok := g.manager.Get(games.GameHangman, channelID); ok {
		if isHangmanGuess(content) {
			out, err := g.hangman.Guess(channelID, userID, userName, content)
			if err == nil {
				g.announceHangman(s, channelID, userName, out)
				return true
			}
		}
	}

	if _, ok := g.manager.Get(games.GameScramble, channelID); ok {
		if won, points, err := g.scramble.Guess(channelID, userID, userName, content); err == nil && won {
			g.send(s, channelID, fmt.Sprintf("🎉 **%s** unscrambled it! +%d points.", userName, points))
			return true
		}
	}

	if _, ok := g.manager.Get(games.GameQuiz, channelID); ok {
		out, err := g.quiz.Answer(channelID, userID, userName, content)
		if err == nil && out.Correct {
			msg := fmt.Sprintf("✅ **%s** got it! +%d points.", userName, out.Points)
			if out.Finished {
				msg += "\n🏁 **Quiz complete!** Scores saved to the leaderboard."
			} else if out.NextQuestion != nil {
				msg += fmt.Sprintf("\n**Next question:** %s", out.NextQuestion.Question)
			}
			g.send(s, channelID, msg)
			return true
		}
	}

	if _, ok := g.manager.Get(games.GameTrivia, channelID); ok {
		if won, points, err := g.trivia.Guess(channelID, userID, userName, content); err == nil && won {
			g.send(s, channelID, fmt.Sprintf("🎉 **%s** nailed it! +%d points.", userName, points))
			return true
		}
	}

	return false
}

func (g *GamesHub) mustNumberGuess(channelID, userID, userName string, n int) games.NumberGuessOutcome {
	out, err := g.numberGuess.Guess(channelID, userID, userName, n)
	if err != nil {
		return games.NumberGuessOutcome{}
	}
	return out
}

func (g *GamesHub) announceNumberGuess(s *discordgo.Session, channelID, userName string, out games.NumberGuessOutcome) {
	switch {
	case out.Won:
		g.send(s, channelID, fmt.Sprintf("🎉 **%s** guessed it — the number was **%d**! +%d points.", userName, out.Target, out.Points))
	case out.Lost:
		g.send(s, channelID, fmt.Sprintf("💀 Out of guesses! The number was **%d**.", out.Target))
	case out.TooHigh:
		g.send(s, channelID, fmt.Sprintf("📉 Too high! %d guesses left.", out.AttemptsLeft))
	case out.TooLow:
		g.send(s, channelID, fmt.Sprintf("📈 Too low! %d guesses left.", out.AttemptsLeft))
	}
}

func (g *GamesHub) announceRPS(s *discordgo.Session, channelID, userName string, move games.RPSMove, out games.RPSOutcome) {
	switch {
	case out.Draw:
		g.send(s, channelID, fmt.Sprintf("🤝 We both played **%s** — it's a draw!", out.BotMove))
	case out.WinnerID != "":
		g.send(s, channelID, fmt.Sprintf("🎉 **%s** beats my **%s** — you win! +%d points.", move, out.BotMove, out.Points))
	default:
		g.send(s, channelID, fmt.Sprintf("😎 My **%s** beats your **%s**. Better luck next time, %s!", out.BotMove, move, userName))
	}
}

func (g *GamesHub) announceHangman(s *discordgo.Session, channelID, userName string, out games.HangmanOutcome) {
	switch {
	case out.Won:
		g.send(s, channelID, fmt.Sprintf("🎉 **%s** solved it — the word was **%s**! +%d points.", userName, out.Word, out.Points))
	case out.Lost:
		g.send(s, channelID, fmt.Sprintf("💀 Hangman complete... the word was **%s**.", out.Word))
	case out.Repeated:
		g.send(s, channelID, fmt.Sprintf("`%s` — that letter was already guessed. (%d/%d wrong)", out.Display, out.Wrong, 6))
	case out.Hit:
		g.send(s, channelID, fmt.Sprintf("✅ `%s` (%d/%d wrong)", out.Display, out.Wrong, 6))
	default:
		g.send(s, channelID, fmt.Sprintf("❌ `%s` (%d/%d wrong)", out.Display, out.Wrong, 6))
	}
}

// ChallengeRPS starts a PvP rock-paper-scissors game in the channel with the
// challenger's move already locked in
func (g *GamesHub) ChallengeRPS(s *discordgo.Session, channelID, challengerID, challengerName, opponentID string, move games.RPSMove) string {
	g.pvpMu.Lock()
	if _, pending := g.pvpByChannel[channelID]; pending {
		g.pvpMu.Unlock()
		return "⚠️ There's already a pending challenge in this channel!"
	}
	g.pvpMu.Unlock()

	gameID, err := g.rps.Challenge(channelID, challengerID, opponentID, func(id string) {
		g.clearPvP(channelID)
		g.send(s, channelID, "⏰ The rock-paper-scissors challenge expired.")
	})
	if err != nil {
		return startError(err)
	}

	g.pvpMu.Lock()
	g.pvpByChannel[channelID] = gameID
	g.pvpMu.Unlock()

	if _, err := g.rps.PlayPvP(gameID, challengerID, challengerName, move); err != nil {
		g.clearPvP(channelID)
		return "Couldn't start the challenge, sorry!"
	}
	return fmt.Sprintf("⚔️ **%s** challenges <@%s> to rock-paper-scissors! Answer with `/rps <move>` within 60 seconds.",
		challengerName, opponentID)
}

// PlayPvPMove routes a move into the channel's pending PvP game, if any.
// Returns the announcement and true when a PvP game consumed the move.
func (g *GamesHub) PlayPvPMove(channelID, userID, userName string, move games.RPSMove) (string, bool) {
	g.pvpMu.Lock()
	gameID, ok := g.pvpByChannel[channelID]
	g.pvpMu.Unlock()
	if !ok {
		return "", false
	}

	out, err := g.rps.PlayPvP(gameID, userID, userName, move)
	if err != nil {
		g.clearPvP(channelID)
		return "", false
	}
	if out.Waiting {
		return "🤫 Move locked in. Waiting for the other player...", true
	}

	g.clearPvP(channelID)
	switch {
	case out.Draw:
		return "🤝 Both players chose the same move — it's a draw!", true
	default:
		return fmt.Sprintf("🏆 <@%s> wins the challenge! +%d points.", out.WinnerID, out.Points), true
	}
}

func (g *GamesHub) clearPvP(channelID string) {
	g.pvpMu.Lock()
	delete(g.pvpByChannel, channelID)
	g.pvpMu.Unlock()
}

func (g *GamesHub) send(s *discordgo.Session, channelID, msg string) {
	if _, err := s.ChannelMessageSend(channelID, msg); err != nil {
		g.logger.Error("Failed to send game message",
			zap.String("channel_id", channelID),
			zap.Error(err),
		)
	}
}

// isHangmanGuess accepts single letters and single plausible words, keeping
// ordinary chatter out of the game
func isHangmanGuess(content string) bool {
	content = strings.TrimSpace(content)
	if strings.ContainsAny(content, " \t\n") {
		return false
	}
	if len(content) == 0 || len(content) > 20 {
		return false
	}
	for _, r := range strings.ToLower(content) {
		if r < 'a' || r > 'z' {
			return false
		}
	}
	return true
}

func startError(err error) string {
	var inProgress *apperrors.ErrGameInProgress
	if errors.As(err, &inProgress) {
		return "⚠️ A game of that type is already in progress in this channel!"
	}
	return "Couldn't start the game, sorry!"
}
