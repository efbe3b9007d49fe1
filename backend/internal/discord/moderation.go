package discord

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	apperrors "paco-bot/backend/pkg/errors"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// maxMentionsPerMessage is the mass-mention threshold
const maxMentionsPerMessage = 5

var inviteLinkPattern = regexp.MustCompile(`(?i)discord(?:\.gg|(?:app)?\.com/invite)/\S+`)

// ModLogEntry is one appended row in the moderation log (JSON lines)
type ModLogEntry struct {
	ID        string    `json:"id"`
	Action    string    `json:"action"`
	Rule      string    `json:"rule"`
	UserID    string    `json:"user_id"`
	UserName  string    `json:"user_name"`
	ChannelID string    `json:"channel_id"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Moderator applies the message filters: banned words, invite links, and
// mass mentions. Offending messages are deleted, the author is warned, and an
// entry is appended to the mod log.
type Moderator struct {
	mu          sync.Mutex
	bannedWords []string
	logPath     string
	logger      *zap.Logger
}

// NewModerator creates the moderation filter. The mod log lives at
// dataDir/modlog.jsonl.
func NewModerator(dataDir string, bannedWords []string, logger *zap.Logger) *Moderator {
	return &Moderator{
		bannedWords: bannedWords,
		logPath:     filepath.Join(dataDir, "modlog.jsonl"),
		logger:      logger,
	}
}

// Check inspects a message and enforces the filters. Returns true when the
// message was removed.
func (mod *Moderator) Check(s *discordgo.Session, m *discordgo.MessageCreate) bool {
	rule := mod.match(m)
	if rule == "" {
		return false
	}

	if err := s.ChannelMessageDelete(m.ChannelID, m.ID); err != nil {
		// Missing permission: report through the channel, don't retry
		mod.logger.Warn("Failed to delete message",
			zap.String("rule", rule),
			zap.Error(apperrors.NewDiscordPermissionDenied("delete message", m.ChannelID, err)),
		)
		_, _ = s.ChannelMessageSend(m.ChannelID,
			"⚠️ That message violates the server rules, but I don't have permission to remove it.")
		mod.appendLog("delete_failed", rule, m)
		return false
	}

	warning := fmt.Sprintf("<@%s> your message was removed (%s). Please keep it friendly!", m.Author.ID, ruleDescription(rule))
	if _, err := s.ChannelMessageSend(m.ChannelID, warning); err != nil {
		mod.logger.Error("Failed to send moderation warning",
			zap.String("channel_id", m.ChannelID),
			zap.Error(err),
		)
	}

	mod.appendLog("delete", rule, m)
	return true
}

func (mod *Moderator) match(m *discordgo.MessageCreate) string {
	lower := strings.ToLower(m.Content)
	for _, w := range mod.bannedWords {
		if w != "" && strings.Contains(lower, strings.ToLower(w)) {
			return "banned_word"
		}
	}
	if inviteLinkPattern.MatchString(m.Content) {
		return "invite_link"
	}
	if len(m.Mentions) > maxMentionsPerMessage {
		return "mass_mention"
	}
	return ""
}

// appendLog writes one JSONL row; failures are logged and ignored so
// moderation never blocks on disk
func (mod *Moderator) appendLog(action, rule string, m *discordgo.MessageCreate) {
	entry := ModLogEntry{
		ID:        uuid.NewString(),
		Action:    action,
		Rule:      rule,
		UserID:    m.Author.ID,
		UserName:  m.Author.Username,
		ChannelID: m.ChannelID,
		Content:   m.Content,
		Timestamp: time.Now(),
	}
	data, err := json.Marshal(entry)
	if err != nil {
		mod.logger.Error("Failed to marshal mod log entry", zap.Error(err))
		return
	}

	mod.mu.Lock()
	defer mod.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(mod.logPath), 0o755); err != nil {
		mod.logger.Error("Failed to create mod log directory", zap.Error(err))
		return
	}
	f, err := os.OpenFile(mod.logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		mod.logger.Error("Failed to open mod log", zap.Error(err))
		return
	}
	defer f.Close()
	if _, err := f.Write(append(data, '\n')); err != nil {
		mod.logger.Error("Failed to append mod log entry", zap.Error(err))
	}
}

func ruleDescription(rule string) string {
	switch rule {
	case "banned_word":
		return "inappropriate language"
	case "invite_link":
		return "server invite links aren't allowed"
	case "mass_mention":
		return "too many mentions"
	default:
		return rule
	}
}
