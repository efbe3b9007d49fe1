package chatbot

import (
	"testing"

	"go.uber.org/zap"
)

const testBotID = "bot-123"

func newTestStore(t *testing.T) *ConfigStore {
	t.Helper()
	return NewConfigStore(t.TempDir(), zap.NewNop())
}

func TestEvaluate_DisabledChannelWinsOverEverything(t *testing.T) {
	store := newTestStore(t)
	err := store.Update(func(cfg *Config) {
		cfg.Channels["chan-1"] = ChannelConfig{Enabled: false}
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	e := NewEvaluator(store)
	// Mention, question, and keyword all present; disabled still wins
	d := e.Evaluate(&InboundMessage{
		ChannelID: "chan-1",
		Content:   "<@" + testBotID + "> hey paco, how do I deploy?",
		Mentions:  []string{testBotID},
	}, testBotID)

	if d.ShouldRespond {
		t.Error("Disabled channel must never respond")
	}
	if d.Reason != ReasonDisabled {
		t.Errorf("Expected reason %q, got %q", ReasonDisabled, d.Reason)
	}
}

func TestEvaluate_MentionBeatsQuestion(t *testing.T) {
	e := NewEvaluator(newTestStore(t))

	d := e.Evaluate(&InboundMessage{
		ChannelID: "chan-1",
		Content:   "<@" + testBotID + "> what is this?",
		Mentions:  []string{testBotID},
	}, testBotID)

	if !d.ShouldRespond || d.Reason != ReasonMentioned {
		t.Errorf("Expected mentioned, got %+v", d)
	}
}

func TestEvaluate_MentionMarkupWithoutMentionsSlice(t *testing.T) {
	e := NewEvaluator(newTestStore(t))

	d := e.Evaluate(&InboundMessage{
		ChannelID: "chan-1",
		Content:   "<@!" + testBotID + "> hello",
	}, testBotID)

	if !d.ShouldRespond || d.Reason != ReasonMentioned {
		t.Errorf("Nickname mention markup should trigger, got %+v", d)
	}
}

func TestEvaluate_ReplyChainIsTentative(t *testing.T) {
	e := NewEvaluator(newTestStore(t))

	d := e.Evaluate(&InboundMessage{
		ChannelID: "chan-1",
		Content:   "sounds good",
		IsReply:   true,
	}, testBotID)

	// The evaluator says yes; the caller verifies the replied-to author
	if !d.ShouldRespond || d.Reason != ReasonReplyChain {
		t.Errorf("Expected reply_chain, got %+v", d)
	}
}

func TestEvaluate_Question(t *testing.T) {
	e := NewEvaluator(newTestStore(t))

	d := e.Evaluate(&InboundMessage{
		ChannelID: "chan-1",
		Content:   "does anyone know the answer?  ",
	}, testBotID)

	if !d.ShouldRespond || d.Reason != ReasonQuestion {
		t.Errorf("Expected question, got %+v", d)
	}
}

func TestEvaluate_QuestionRespectsConfigFlag(t *testing.T) {
	store := newTestStore(t)
	if err := store.Update(func(cfg *Config) { cfg.RespondToQuestions = false }); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	e := NewEvaluator(store)

	d := e.Evaluate(&InboundMessage{
		ChannelID: "chan-1",
		Content:   "does anyone know the answer?",
	}, testBotID)

	if d.ShouldRespond {
		t.Errorf("Questions disabled, expected no trigger, got %+v", d)
	}
}

func TestEvaluate_KeywordCaseInsensitive(t *testing.T) {
	e := NewEvaluator(newTestStore(t))

	d := e.Evaluate(&InboundMessage{
		ChannelID: "chan-1",
		Content:   "I love PACO so much",
	}, testBotID)

	if !d.ShouldRespond || d.Reason != ReasonKeyword {
		t.Errorf("Expected keyword, got %+v", d)
	}
}

func TestEvaluate_RandomOnlyInConfiguredChannels(t *testing.T) {
	store := newTestStore(t)
	err := store.Update(func(cfg *Config) {
		cfg.RandomChannels = []string{"chan-random"}
		cfg.RandomProbability = 0.5
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	e := NewEvaluator(store)
	e.randf = func() float64 { return 0.1 } // below probability: would fire

	d := e.Evaluate(&InboundMessage{
		ChannelID: "chan-random",
		Content:   "just chatting",
	}, testBotID)
	if !d.ShouldRespond || d.Reason != ReasonRandom {
		t.Errorf("Expected random in configured channel, got %+v", d)
	}

	d = e.Evaluate(&InboundMessage{
		ChannelID: "chan-other",
		Content:   "just chatting",
	}, testBotID)
	if d.ShouldRespond {
		t.Errorf("Random must not fire outside configured channels, got %+v", d)
	}
}

func TestEvaluate_RandomRespectsProbability(t *testing.T) {
	store := newTestStore(t)
	err := store.Update(func(cfg *Config) {
		cfg.RandomChannels = []string{"chan-random"}
		cfg.RandomProbability = 0.05
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	e := NewEvaluator(store)
	e.randf = func() float64 { return 0.9 } // above probability: no fire

	d := e.Evaluate(&InboundMessage{
		ChannelID: "chan-random",
		Content:   "just chatting",
	}, testBotID)

	if d.ShouldRespond {
		t.Errorf("Expected no trigger, got %+v", d)
	}
	if d.Reason != ReasonNoTrigger {
		t.Errorf("Expected no_trigger, got %q", d.Reason)
	}
}

func TestStripMention(t *testing.T) {
	got := StripMention("<@bot-123> hello <@!bot-123> world", "bot-123")
	if got != "hello  world" {
		t.Errorf("Unexpected strip result: %q", got)
	}
}
