package discord

import (
	"context"
	"fmt"
	"strings"
	"time"

	"paco-bot/backend/internal/chatbot"
	"paco-bot/backend/internal/hub"
	"paco-bot/backend/internal/memory"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

const responseTimeout = 45 * time.Second

// Handler processes inbound Discord messages: moderation first, then prefix
// commands and game guesses, then the chatbot response pipeline.
type Handler struct {
	evaluator *chatbot.Evaluator
	assembler *chatbot.Assembler
	chain     *chatbot.Chain
	cfgStore  *chatbot.ConfigStore
	channels  *memory.ChannelStore
	users     *memory.UserStore
	hubClient *hub.Client
	gamesHub  *GamesHub
	moderator *Moderator
	prefix    string
	logger    *zap.Logger
}

// NewHandler creates the message handler
func NewHandler(
	evaluator *chatbot.Evaluator,
	assembler *chatbot.Assembler,
	chain *chatbot.Chain,
	cfgStore *chatbot.ConfigStore,
	channels *memory.ChannelStore,
	users *memory.UserStore,
	hubClient *hub.Client,
	gamesHub *GamesHub,
	moderator *Moderator,
	prefix string,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		evaluator: evaluator,
		assembler: assembler,
		chain:     chain,
		cfgStore:  cfgStore,
		channels:  channels,
		users:     users,
		hubClient: hubClient,
		gamesHub:  gamesHub,
		moderator: moderator,
		prefix:    prefix,
		logger:    logger,
	}
}

// HandleMessage is registered as the MessageCreate handler. A top-level
// recover keeps an unexpected panic in any branch from taking the process
// down; the user gets an apology instead.
func (h *Handler) HandleMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("Panic in message handler",
				zap.Any("panic", r),
				zap.String("channel_id", m.ChannelID),
			)
			_, _ = s.ChannelMessageSend(m.ChannelID, "Sorry, something went wrong on my end. Please try again!")
		}
	}()

	// Ignore our own messages and other bots
	if m.Author.ID == s.State.User.ID || m.Author.Bot {
		return
	}

	content := strings.TrimSpace(m.Content)
	if content == "" {
		return
	}

	if h.moderator != nil && h.moderator.Check(s, m) {
		// Message was removed; nothing else to do with it
		return
	}

	channelName := h.channelName(s, m.ChannelID)

	// Record the message before deciding anything so memory reflects the
	// whole channel, not just messages we answered
	h.channels.Record(m.ChannelID, channelName, memory.MessageEntry{
		ID:        m.ID,
		UserID:    m.Author.ID,
		UserName:  m.Author.Username,
		Content:   content,
		Timestamp: time.Now(),
		IsBot:     false,
		ReplyToID: referencedID(m),
	})

	if h.handlePrefixCommand(s, m, content) {
		return
	}

	if h.gamesHub != nil && h.gamesHub.HandleGuess(s, m, content) {
		return
	}

	inbound := &chatbot.InboundMessage{
		ID:          m.ID,
		ChannelID:   m.ChannelID,
		ChannelName: channelName,
		UserID:      m.Author.ID,
		UserName:    m.Author.Username,
		Content:     content,
		Mentions:    mentionIDs(m),
		IsReply:     m.MessageReference != nil,
	}

	decision := h.evaluator.Evaluate(inbound, s.State.User.ID)
	if !decision.ShouldRespond {
		return
	}

	// A reply_chain decision is tentative: only answer if the replied-to
	// message is ours
	if decision.Reason == chatbot.ReasonReplyChain && !h.isReplyToBot(s, m) {
		return
	}

	h.logger.Info("Responding to message",
		zap.String("channel_id", m.ChannelID),
		zap.String("user_id", m.Author.ID),
		zap.String("trigger", string(decision.Reason)),
	)

	h.users.Touch(m.Author.ID, m.Author.Username, m.ChannelID, string(decision.Reason), content)

	h.respond(s, m, channelName, content)
}

// respond runs the full pipeline for a message that passed trigger evaluation
func (h *Handler) respond(s *discordgo.Session, m *discordgo.MessageCreate, channelName, content string) {
	ctx, cancel := context.WithTimeout(context.Background(), responseTimeout)
	defer cancel()

	// Typing indicator while the chain runs; refreshed every few seconds
	// since Discord expires it quickly
	stopTyping := h.startTyping(ctx, s, m.ChannelID)
	defer stopTyping()

	persona := chatbot.PersonaForChannel(channelName)
	cfg := h.cfgStore.Get()

	prompt := h.assembler.Build(ctx, m.ChannelID, m.Author.ID, content, s.State.User.ID)

	result := h.chain.Respond(ctx, chatbot.Request{
		AgentID:      persona.ID,
		ChannelID:    m.ChannelID,
		ChannelName:  channelName,
		UserID:       m.Author.ID,
		Prompt:       prompt,
		SystemPrompt: chatbot.SystemPrompt(persona, cfg.Personality),
	})

	if result.RateLimit {
		msg := fmt.Sprintf("You're sending messages a bit fast! Try again in %d seconds.",
			int(result.RetryAfter.Seconds())+1)
		h.send(s, m.ChannelID, msg)
		return
	}
	if !result.Success || result.Response == "" {
		// The chain's terminal fallback cannot fail, so this is unreachable in
		// practice; log it if it ever happens
		h.logger.Error("Response chain produced no response",
			zap.String("channel_id", m.ChannelID),
		)
		return
	}

	h.send(s, m.ChannelID, result.Response)

	h.channels.Record(m.ChannelID, channelName, memory.MessageEntry{
		UserID:    s.State.User.ID,
		UserName:  persona.Name,
		Content:   result.Response,
		Timestamp: time.Now(),
		IsBot:     true,
		ReplyToID: m.ID,
	})
}

// handlePrefixCommand serves the legacy text triggers: "?kb <query>" and
// "!paco <question>"
func (h *Handler) handlePrefixCommand(s *discordgo.Session, m *discordgo.MessageCreate, content string) bool {
	switch {
	case strings.HasPrefix(content, "?kb "):
		query := strings.TrimSpace(strings.TrimPrefix(content, "?kb "))
		if query == "" {
			return true
		}
		h.handleKBQuery(s, m.ChannelID, query)
		return true

	case strings.HasPrefix(content, h.prefix+"paco "):
		question := strings.TrimSpace(strings.TrimPrefix(content, h.prefix+"paco "))
		if question == "" {
			return true
		}
		h.users.Touch(m.Author.ID, m.Author.Username, m.ChannelID, "question", question)
		h.respond(s, m, h.channelName(s, m.ChannelID), question)
		return true
	}
	return false
}

func (h *Handler) handleKBQuery(s *discordgo.Session, channelID, query string) {
	ctx, cancel := context.WithTimeout(context.Background(), responseTimeout)
	defer cancel()

	results, err := h.hubClient.SearchKB(ctx, query, 3)
	if err != nil {
		h.logger.Warn("KB search failed", zap.String("query", query), zap.Error(err))
		h.send(s, channelID, "I couldn't reach the knowledge base right now. Try again in a bit!")
		return
	}
	if len(results) == 0 {
		h.send(s, channelID, fmt.Sprintf("No knowledge base results for **%s**.", query))
		return
	}

	embed := &discordgo.MessageEmbed{
		Title: fmt.Sprintf("Knowledge base: %s", query),
		Color: embedColorInfo,
	}
	for _, r := range results {
		summary := r.Summary
		if summary == "" {
			summary = truncate(r.Content, 200)
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  r.Title,
			Value: summary,
		})
	}
	if _, err := s.ChannelMessageSendEmbed(channelID, embed); err != nil {
		h.logger.Error("Failed to send KB embed",
			zap.String("channel_id", channelID),
			zap.Error(err),
		)
	}
}

// isReplyToBot fetches the referenced message and checks its author
func (h *Handler) isReplyToBot(s *discordgo.Session, m *discordgo.MessageCreate) bool {
	ref := m.MessageReference
	if ref == nil || ref.MessageID == "" {
		return false
	}
	// The referenced message is often already in the create payload
	if m.ReferencedMessage != nil && m.ReferencedMessage.Author != nil {
		return m.ReferencedMessage.Author.ID == s.State.User.ID
	}
	referenced, err := s.ChannelMessage(ref.ChannelID, ref.MessageID)
	if err != nil {
		h.logger.Debug("Failed to fetch referenced message", zap.Error(err))
		return false
	}
	return referenced.Author != nil && referenced.Author.ID == s.State.User.ID
}

func (h *Handler) startTyping(ctx context.Context, s *discordgo.Session, channelID string) func() {
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(8 * time.Second)
		defer ticker.Stop()
		_ = s.ChannelTyping(channelID)
		for {
			select {
			case <-ctx.Done():
				return
			case <-done:
				return
			case <-ticker.C:
				_ = s.ChannelTyping(channelID)
			}
		}
	}()
	return func() { close(done) }
}

func (h *Handler) channelName(s *discordgo.Session, channelID string) string {
	if ch, err := s.State.Channel(channelID); err == nil && ch.Name != "" {
		return ch.Name
	}
	if ch, err := s.Channel(channelID); err == nil {
		return ch.Name
	}
	return channelID
}

func (h *Handler) send(s *discordgo.Session, channelID, content string) {
	SendLongMessage(s, channelID, content, h.logger)
}

func mentionIDs(m *discordgo.MessageCreate) []string {
	ids := make([]string, 0, len(m.Mentions))
	for _, u := range m.Mentions {
		ids = append(ids, u.ID)
	}
	return ids
}

func referencedID(m *discordgo.MessageCreate) string {
	if m.MessageReference != nil {
		return m.MessageReference.MessageID
	}
	return ""
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
