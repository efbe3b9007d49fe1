package memory

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	// maxStoredMessages bounds the per-channel message history on disk
	maxStoredMessages = 50
	// maxTopics bounds the recent topic tag set
	maxTopics = 5
)

// MessageEntry is a single remembered channel message
type MessageEntry struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	UserName  string    `json:"user_name"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	IsBot     bool      `json:"is_bot"`
	ReplyToID string    `json:"reply_to_id,omitempty"`
}

// ChannelMemory is the per-channel conversation record
type ChannelMemory struct {
	ChannelID    string         `json:"channel_id"`
	ChannelName  string         `json:"channel_name"`
	Messages     []MessageEntry `json:"messages"`
	Topics       []string       `json:"topics"`
	LastActivity time.Time      `json:"last_activity"`
}

// ChannelStore keeps per-channel memory with file persistence and a TTL read
// cache. Every inbound message mutates it; saves run in the background.
type ChannelStore struct {
	mu     sync.Mutex
	fs     *fileStore
	logger *zap.Logger
}

// NewChannelStore creates a channel memory store rooted at dataDir/channels
func NewChannelStore(dataDir string, logger *zap.Logger) *ChannelStore {
	return &ChannelStore{
		fs:     newFileStore(filepath.Join(dataDir, "channels"), logger),
		logger: logger,
	}
}

// Record appends a message to the channel's memory, updates topic tags, and
// schedules a background save
func (s *ChannelStore) Record(channelID, channelName string, entry MessageEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	mem := s.getLocked(channelID)
	mem.ChannelName = channelName
	mem.Messages = append(mem.Messages, entry)
	if len(mem.Messages) > maxStoredMessages {
		mem.Messages = mem.Messages[len(mem.Messages)-maxStoredMessages:]
	}
	mem.LastActivity = entry.Timestamp

	if topic := DetectTopic(entry.Content); topic != "" {
		mem.Topics = pushBounded(mem.Topics, topic, maxTopics)
	}

	s.fs.cache.SetDefault(channelID, mem)
	s.fs.enqueueSave(channelFile(channelID), mem)
}

// Recent returns up to n of the channel's most recent messages, oldest first
func (s *ChannelStore) Recent(channelID string, n int) []MessageEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	mem := s.getLocked(channelID)
	if len(mem.Messages) <= n {
		return append([]MessageEntry(nil), mem.Messages...)
	}
	return append([]MessageEntry(nil), mem.Messages[len(mem.Messages)-n:]...)
}

// Topics returns the channel's recent topic tags
func (s *ChannelStore) Topics(channelID string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.getLocked(channelID).Topics...)
}

// Close flushes pending background saves; used on shutdown
func (s *ChannelStore) Close(ctx context.Context) error {
	return s.fs.Close(ctx)
}

func (s *ChannelStore) getLocked(channelID string) *ChannelMemory {
	if v, ok := s.fs.cache.Get(channelID); ok {
		return v.(*ChannelMemory)
	}

	mem := &ChannelMemory{ChannelID: channelID}
	if err := s.fs.load(channelFile(channelID), mem); err != nil {
		// Missing file means a fresh channel; anything else is degraded mode
		if !isNotExist(err) {
			s.logger.Warn("Failed to load channel memory, starting fresh",
				zap.String("channel_id", channelID),
				zap.Error(err),
			)
		}
		mem = &ChannelMemory{ChannelID: channelID}
	}
	s.fs.cache.SetDefault(channelID, mem)
	return mem
}

func channelFile(channelID string) string {
	return fmt.Sprintf("%s.json", channelID)
}

// DetectTopic classifies message content into a coarse topic tag. Empty string
// means no recognizable topic.
func DetectTopic(content string) string {
	lower := strings.ToLower(content)
	switch {
	case containsAny(lower, "error", "bug", "broken", "help", "issue", "crash"):
		return "support"
	case containsAny(lower, "code", "function", "deploy", "api", "golang", "python", "javascript"):
		return "code"
	case containsAny(lower, "release", "feature", "roadmap", "pricing", "plan"):
		return "product"
	case containsAny(lower, "game", "trivia", "hangman", "play"):
		return "games"
	default:
		return ""
	}
}

func pushBounded(list []string, v string, max int) []string {
	for _, existing := range list {
		if existing == v {
			return list
		}
	}
	list = append(list, v)
	if len(list) > max {
		list = list[len(list)-max:]
	}
	return list
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func isNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
