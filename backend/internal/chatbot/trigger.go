package chatbot

import (
	"math/rand"
	"strings"
)

// TriggerReason identifies why the pipeline engaged (or declined) for a message
type TriggerReason string

const (
	ReasonDisabled   TriggerReason = "disabled"
	ReasonMentioned  TriggerReason = "mentioned"
	ReasonReplyChain TriggerReason = "reply_chain"
	ReasonQuestion   TriggerReason = "question"
	ReasonKeyword    TriggerReason = "keyword"
	ReasonRandom     TriggerReason = "random"
	ReasonNoTrigger  TriggerReason = "no_trigger"
)

// Decision is the trigger evaluator's verdict for a single message
type Decision struct {
	ShouldRespond bool
	Reason        TriggerReason
}

// InboundMessage is the platform-independent view of a received message
type InboundMessage struct {
	ID                 string
	ChannelID          string
	ChannelName        string
	UserID             string
	UserName           string
	Content            string
	Mentions           []string // user IDs mentioned in the message
	IsReply            bool
	ReferencedAuthorID string // author of the replied-to message, if known
	IsBot              bool
}

// Evaluator decides whether the response pipeline should run for a message.
// It has no side effects; only the random-response branch is nondeterministic,
// and its source is injectable for tests.
type Evaluator struct {
	store *ConfigStore
	randf func() float64
}

// NewEvaluator creates a trigger evaluator backed by the given config store
func NewEvaluator(store *ConfigStore) *Evaluator {
	return &Evaluator{
		store: store,
		randf: rand.Float64,
	}
}

// Evaluate runs the trigger rules in order, first match wins.
//
// A reply_chain decision is tentative: the caller must verify that the
// referenced message's author is the bot before actually answering, so the
// bot does not butt into reply chains aimed at other users.
func (e *Evaluator) Evaluate(m *InboundMessage, botID string) Decision {
	if !e.store.ChannelEnabled(m.ChannelID) {
		return Decision{ShouldRespond: false, Reason: ReasonDisabled}
	}

	if e.isMentioned(m, botID) {
		return Decision{ShouldRespond: true, Reason: ReasonMentioned}
	}

	if m.IsReply {
		return Decision{ShouldRespond: true, Reason: ReasonReplyChain}
	}

	cfg := e.store.Get()

	if cfg.RespondToQuestions && strings.HasSuffix(strings.TrimSpace(m.Content), "?") {
		return Decision{ShouldRespond: true, Reason: ReasonQuestion}
	}

	lower := strings.ToLower(m.Content)
	for _, kw := range cfg.TriggerKeywords {
		if kw != "" && strings.Contains(lower, strings.ToLower(kw)) {
			return Decision{ShouldRespond: true, Reason: ReasonKeyword}
		}
	}

	for _, ch := range cfg.RandomChannels {
		if ch == m.ChannelID || ch == m.ChannelName {
			if e.randf() < cfg.RandomProbability {
				return Decision{ShouldRespond: true, Reason: ReasonRandom}
			}
			break
		}
	}

	return Decision{ShouldRespond: false, Reason: ReasonNoTrigger}
}

func (e *Evaluator) isMentioned(m *InboundMessage, botID string) bool {
	for _, id := range m.Mentions {
		if id == botID {
			return true
		}
	}
	return strings.Contains(m.Content, "<@"+botID+">") ||
		strings.Contains(m.Content, "<@!"+botID+">")
}

// StripMention removes bot-mention markup from message content
func StripMention(content, botID string) string {
	content = strings.ReplaceAll(content, "<@"+botID+">", "")
	content = strings.ReplaceAll(content, "<@!"+botID+">", "")
	return strings.TrimSpace(content)
}
