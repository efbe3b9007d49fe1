package chatbot

import (
	"context"
	"errors"
	"strings"
	"testing"

	"paco-bot/backend/internal/hub"
	"paco-bot/backend/internal/memory"

	"go.uber.org/zap"
)

type mockHistory struct {
	entries []memory.MessageEntry
}

func (m *mockHistory) Recent(channelID string, n int) []memory.MessageEntry {
	return m.entries
}

type mockProfile struct {
	summary string
}

func (m *mockProfile) Summary(userID string) string { return m.summary }

type mockKB struct {
	results []hub.KBResult
	err     error
	queries []string
}

func (m *mockKB) SearchKB(ctx context.Context, query string, limit int) ([]hub.KBResult, error) {
	m.queries = append(m.queries, query)
	return m.results, m.err
}

func TestAssembler_BuildOrdering(t *testing.T) {
	history := &mockHistory{entries: []memory.MessageEntry{
		{UserName: "alice", Content: "hi all"},
		{UserName: "Paco", Content: "hello!", IsBot: true},
	}}
	profile := &mockProfile{summary: "alice has sent 5 messages."}

	a := NewAssembler(history, profile, nil, zap.NewNop())
	prompt := a.Build(context.Background(), "chan-1", "user-1", "what's up?", "bot-123")

	histIdx := strings.Index(prompt, "Recent conversation:")
	userIdx := strings.Index(prompt, "About this user:")
	msgIdx := strings.Index(prompt, "User message: what's up?")
	if histIdx < 0 || userIdx < 0 || msgIdx < 0 {
		t.Fatalf("Missing sections in prompt:\n%s", prompt)
	}
	if !(histIdx < userIdx && userIdx < msgIdx) {
		t.Errorf("Sections out of order:\n%s", prompt)
	}
	if !strings.Contains(prompt, "[BOT] Paco: hello!") {
		t.Error("Bot messages should carry the [BOT] marker")
	}
	if !strings.Contains(prompt, "alice: hi all") {
		t.Error("User messages should be plain name: content lines")
	}
}

func TestAssembler_EmptySourcesOmitSections(t *testing.T) {
	a := NewAssembler(&mockHistory{}, &mockProfile{}, nil, zap.NewNop())
	prompt := a.Build(context.Background(), "chan-1", "user-1", "hello", "bot-123")

	if strings.Contains(prompt, "Recent conversation:") {
		t.Error("Empty history should omit the conversation section")
	}
	if strings.Contains(prompt, "About this user:") {
		t.Error("Empty summary should omit the user section")
	}
	if prompt != "User message: hello" {
		t.Errorf("Unexpected prompt: %q", prompt)
	}
}

func TestAssembler_StripsMentionMarkup(t *testing.T) {
	a := NewAssembler(&mockHistory{}, &mockProfile{}, nil, zap.NewNop())
	prompt := a.Build(context.Background(), "chan-1", "user-1", "<@bot-123> hello", "bot-123")

	if !strings.HasSuffix(prompt, "User message: hello") {
		t.Errorf("Mention markup should be stripped: %q", prompt)
	}
}

func TestAssembler_KBExcerptsOnSupportTopics(t *testing.T) {
	kb := &mockKB{results: []hub.KBResult{
		{Title: "Install guide", Summary: "Run the installer."},
	}}
	a := NewAssembler(&mockHistory{}, &mockProfile{}, kb, zap.NewNop())

	prompt := a.Build(context.Background(), "chan-1", "user-1",
		"I hit an error installing the tool, please help", "bot-123")

	if !strings.Contains(prompt, "Relevant knowledge base excerpts:") {
		t.Fatalf("Expected KB section for a support-topic message:\n%s", prompt)
	}
	if !strings.Contains(prompt, "Install guide: Run the installer.") {
		t.Error("KB excerpt missing")
	}
	if len(kb.queries) != 1 {
		t.Fatalf("Expected one KB query, got %v", kb.queries)
	}
}

func TestAssembler_NoKBForSmallTalk(t *testing.T) {
	kb := &mockKB{results: []hub.KBResult{{Title: "x", Summary: "y"}}}
	a := NewAssembler(&mockHistory{}, &mockProfile{}, kb, zap.NewNop())

	a.Build(context.Background(), "chan-1", "user-1", "good morning friends", "bot-123")

	if len(kb.queries) != 0 {
		t.Errorf("Small talk must not query the KB, got %v", kb.queries)
	}
}

func TestAssembler_KBFailureIsSilent(t *testing.T) {
	kb := &mockKB{err: errors.New("hub down")}
	a := NewAssembler(&mockHistory{}, &mockProfile{}, kb, zap.NewNop())

	prompt := a.Build(context.Background(), "chan-1", "user-1",
		"I hit an error installing the tool, please help", "bot-123")

	if strings.Contains(prompt, "Relevant knowledge base excerpts:") {
		t.Error("Failed KB search should add nothing")
	}
	if !strings.Contains(prompt, "User message:") {
		t.Error("Prompt should still carry the user message")
	}
}

func TestExtractKeywords(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		limit int
		want  []string
	}{
		{
			name:  "frequency then first seen",
			text:  "deploy the deploy server with docker",
			limit: 3,
			want:  []string{"deploy", "server", "docker"},
		},
		{
			name:  "stopwords and short words dropped",
			text:  "how do I fix it on my PC",
			limit: 3,
			want:  []string{"fix"},
		},
		{
			name:  "empty input",
			text:  "",
			limit: 3,
			want:  []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractKeywords(tt.text, tt.limit)
			if len(got) != len(tt.want) {
				t.Fatalf("Expected %v, got %v", tt.want, got)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("Expected %v, got %v", tt.want, got)
					break
				}
			}
		})
	}
}
