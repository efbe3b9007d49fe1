package memory

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	// maxRecentChannels bounds the per-user recent-channel list
	maxRecentChannels = 5
	// maxInteractions bounds the per-user interaction log
	maxInteractions = 50
	// maxPreferredTopics bounds the per-user topic set
	maxPreferredTopics = 10
)

// Interaction is one remembered exchange with a user
type Interaction struct {
	Type      string    `json:"type"` // e.g. "question", "mentioned", "game"
	ChannelID string    `json:"channel_id"`
	Timestamp time.Time `json:"timestamp"`
}

// UserMemory is the per-user profile record
type UserMemory struct {
	UserID          string            `json:"user_id"`
	UserName        string            `json:"user_name"`
	FirstSeen       time.Time         `json:"first_seen"`
	LastSeen        time.Time         `json:"last_seen"`
	MessageCount    int               `json:"message_count"`
	PreferredTopics []string          `json:"preferred_topics"`
	Preferences     map[string]string `json:"preferences"`
	RecentChannels  []string          `json:"recent_channels"`
	Interactions    []Interaction     `json:"interactions"`
}

// UserStore keeps per-user memory with the same cache+file pattern as
// ChannelStore
type UserStore struct {
	mu     sync.Mutex
	fs     *fileStore
	logger *zap.Logger
}

// NewUserStore creates a user memory store rooted at dataDir/users
func NewUserStore(dataDir string, logger *zap.Logger) *UserStore {
	return &UserStore{
		fs:     newFileStore(filepath.Join(dataDir, "users"), logger),
		logger: logger,
	}
}

// Touch records activity for a user and schedules a background save
func (s *UserStore) Touch(userID, userName, channelID, interactionType, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	mem := s.getLocked(userID)
	if mem.FirstSeen.IsZero() {
		mem.FirstSeen = now
	}
	mem.UserName = userName
	mem.LastSeen = now
	mem.MessageCount++
	mem.RecentChannels = pushBounded(mem.RecentChannels, channelID, maxRecentChannels)

	if topic := DetectTopic(content); topic != "" {
		mem.PreferredTopics = pushBounded(mem.PreferredTopics, topic, maxPreferredTopics)
	}

	if interactionType != "" {
		mem.Interactions = append(mem.Interactions, Interaction{
			Type:      interactionType,
			ChannelID: channelID,
			Timestamp: now,
		})
		if len(mem.Interactions) > maxInteractions {
			mem.Interactions = mem.Interactions[len(mem.Interactions)-maxInteractions:]
		}
	}

	s.fs.cache.SetDefault(userID, mem)
	s.fs.enqueueSave(userFile(userID), mem)
}

// Get returns a copy of the user's memory
func (s *UserStore) Get(userID string) UserMemory {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.getLocked(userID)
}

// SetPreference stores a key/value preference for the user
func (s *UserStore) SetPreference(userID, key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	mem := s.getLocked(userID)
	if mem.Preferences == nil {
		mem.Preferences = make(map[string]string)
	}
	mem.Preferences[key] = value
	s.fs.cache.SetDefault(userID, mem)
	s.fs.enqueueSave(userFile(userID), mem)
}

// Summary renders a short natural-language description of the user for
// prompt context
func (s *UserStore) Summary(userID string) string {
	s.mu.Lock()
	mem := *s.getLocked(userID)
	s.mu.Unlock()

	if mem.MessageCount == 0 {
		return "This user is new here."
	}

	var parts []string
	parts = append(parts, fmt.Sprintf("%s has sent %d messages", displayName(mem), mem.MessageCount))
	if len(mem.PreferredTopics) > 0 {
		parts = append(parts, fmt.Sprintf("often talks about %s", strings.Join(mem.PreferredTopics, ", ")))
	}
	if len(mem.RecentChannels) > 0 {
		parts = append(parts, fmt.Sprintf("recently active in %d channels", len(mem.RecentChannels)))
	}
	if n := len(mem.Interactions); n > 0 {
		parts = append(parts, fmt.Sprintf("last interaction was a %s", mem.Interactions[n-1].Type))
	}
	return strings.Join(parts, "; ") + "."
}

// Close flushes pending background saves; used on shutdown
func (s *UserStore) Close(ctx context.Context) error {
	return s.fs.Close(ctx)
}

func (s *UserStore) getLocked(userID string) *UserMemory {
	if v, ok := s.fs.cache.Get(userID); ok {
		return v.(*UserMemory)
	}

	mem := &UserMemory{UserID: userID}
	if err := s.fs.load(userFile(userID), mem); err != nil {
		if !isNotExist(err) {
			s.logger.Warn("Failed to load user memory, starting fresh",
				zap.String("user_id", userID),
				zap.Error(err),
			)
		}
		mem = &UserMemory{UserID: userID}
	}
	s.fs.cache.SetDefault(userID, mem)
	return mem
}

func userFile(userID string) string {
	return fmt.Sprintf("%s.json", userID)
}

func displayName(mem UserMemory) string {
	if mem.UserName != "" {
		return mem.UserName
	}
	return "This user"
}
