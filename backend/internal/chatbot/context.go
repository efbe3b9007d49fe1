package chatbot

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"paco-bot/backend/internal/hub"
	"paco-bot/backend/internal/memory"

	"go.uber.org/zap"
)

const (
	// promptHistoryLen is how many stored channel messages feed the prompt
	promptHistoryLen = 10
	// kbExcerptLimit is the maximum knowledge-base excerpts appended
	kbExcerptLimit = 3
	// kbKeywordLimit is how many extracted keywords form the search query
	kbKeywordLimit = 3
)

// HistorySource supplies recent channel messages for prompt context
type HistorySource interface {
	Recent(channelID string, n int) []memory.MessageEntry
}

// ProfileSource supplies a short user summary for prompt context
type ProfileSource interface {
	Summary(userID string) string
}

// KBSearcher retrieves knowledge-base excerpts by keyword query
type KBSearcher interface {
	SearchKB(ctx context.Context, query string, limit int) ([]hub.KBResult, error)
}

// Assembler merges channel history, a user profile summary, and optional
// knowledge-base snippets into a single prompt string. It does not bound the
// total prompt size; truncation, if any, happens at the provider boundary.
type Assembler struct {
	history HistorySource
	profile ProfileSource
	kb      KBSearcher // nil disables KB augmentation
	logger  *zap.Logger
}

// NewAssembler creates a context assembler. kb may be nil.
func NewAssembler(history HistorySource, profile ProfileSource, kb KBSearcher, logger *zap.Logger) *Assembler {
	return &Assembler{
		history: history,
		profile: profile,
		kb:      kb,
		logger:  logger,
	}
}

// Build assembles the prompt for a message. botID strips mention markup from
// the user's text.
func (a *Assembler) Build(ctx context.Context, channelID, userID, text, botID string) string {
	var b strings.Builder

	recent := a.history.Recent(channelID, promptHistoryLen)
	if len(recent) > 0 {
		b.WriteString("Recent conversation:\n")
		for _, m := range recent {
			if m.IsBot {
				fmt.Fprintf(&b, "[BOT] %s: %s\n", m.UserName, m.Content)
			} else {
				fmt.Fprintf(&b, "%s: %s\n", m.UserName, m.Content)
			}
		}
		b.WriteString("\n")
	}

	if summary := a.profile.Summary(userID); summary != "" {
		fmt.Fprintf(&b, "About this user: %s\n\n", summary)
	}

	cleaned := StripMention(text, botID)

	if a.kb != nil {
		if topic := memory.DetectTopic(cleaned); topic == "support" || topic == "code" || topic == "product" {
			a.appendKBExcerpts(ctx, &b, cleaned)
		}
	}

	fmt.Fprintf(&b, "User message: %s", cleaned)
	return b.String()
}

func (a *Assembler) appendKBExcerpts(ctx context.Context, b *strings.Builder, text string) {
	keywords := ExtractKeywords(text, kbKeywordLimit)
	if len(keywords) == 0 {
		return
	}

	query := strings.Join(keywords, " ")
	results, err := a.kb.SearchKB(ctx, query, kbExcerptLimit)
	if err != nil {
		a.logger.Debug("KB search failed, continuing without excerpts",
			zap.String("query", query),
			zap.Error(err),
		)
		return
	}
	if len(results) == 0 {
		return
	}

	b.WriteString("Relevant knowledge base excerpts:\n")
	for _, r := range results {
		excerpt := r.Summary
		if excerpt == "" {
			excerpt = r.Content
		}
		fmt.Fprintf(b, "- %s: %s\n", r.Title, excerpt)
	}
	b.WriteString("\n")
}

var stopwords = map[string]bool{
	"a": true, "an": true, "the": true, "is": true, "are": true, "was": true,
	"be": true, "been": true, "do": true, "does": true, "did": true, "how": true,
	"what": true, "when": true, "where": true, "why": true, "who": true,
	"i": true, "you": true, "we": true, "they": true, "it": true, "this": true,
	"that": true, "my": true, "your": true, "me": true, "to": true, "of": true,
	"in": true, "on": true, "for": true, "with": true, "and": true, "or": true,
	"not": true, "can": true, "could": true, "would": true, "should": true,
	"have": true, "has": true, "had": true, "get": true, "got": true,
}

// ExtractKeywords returns up to limit content words from text, stopword
// filtered, ranked by frequency with first appearance as the tiebreak
func ExtractKeywords(text string, limit int) []string {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9')
	})

	counts := make(map[string]int)
	firstSeen := make(map[string]int)
	for i, w := range words {
		if len(w) < 3 || stopwords[w] {
			continue
		}
		if _, ok := counts[w]; !ok {
			firstSeen[w] = i
		}
		counts[w]++
	}

	keywords := make([]string, 0, len(counts))
	for w := range counts {
		keywords = append(keywords, w)
	}
	sort.Slice(keywords, func(i, j int) bool {
		if counts[keywords[i]] != counts[keywords[j]] {
			return counts[keywords[i]] > counts[keywords[j]]
		}
		return firstSeen[keywords[i]] < firstSeen[keywords[j]]
	})

	if len(keywords) > limit {
		keywords = keywords[:limit]
	}
	return keywords
}
