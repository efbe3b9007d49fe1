package chatbot

import (
	"strings"
)

// FallbackIntent is the canned intent matched when every live backend failed
type FallbackIntent string

const (
	IntentHelp    FallbackIntent = "help"
	IntentBug     FallbackIntent = "bug"
	IntentStream  FallbackIntent = "stream"
	IntentGeneric FallbackIntent = "generic"
)

var fallbackTemplates = map[FallbackIntent]string{
	IntentHelp: "I'm having trouble reaching my brain right now, but here's what I can tell you: " +
		"use `/kb <query>` to search the knowledge base, or `/ask paco <question>` to ask me directly once I'm back online. " +
		"A moderator can also help you out in the meantime!",
	IntentBug: "That sounds like it might be a bug! I can't reach the Hub right now to file a ticket, " +
		"so please post the details in the support channel or try `/ticket` again in a few minutes.",
	IntentStream: "I can't check the stream status right now, but keep an eye on the announcements channel — " +
		"that's always the first place to know when we go live!",
	IntentGeneric: "My backend is taking a nap right now, but I'm still here! " +
		"Try again in a bit, or use `/kb` to search the knowledge base directly.",
}

// Fallback produces a canned response when no live backend answered.
// This is the terminal step of the chain and cannot fail.
type Fallback struct{}

// NewFallback creates the static fallback responder
func NewFallback() *Fallback {
	return &Fallback{}
}

// Respond classifies the prompt into an intent and returns the matching template
func (f *Fallback) Respond(prompt string) (string, FallbackIntent) {
	intent := classifyIntent(prompt)
	return fallbackTemplates[intent], intent
}

func classifyIntent(prompt string) FallbackIntent {
	lower := strings.ToLower(prompt)
	switch {
	case containsAny(lower, "help", "how do i", "how to", "deploy", "install", "setup", "docs"):
		return IntentHelp
	case containsAny(lower, "bug", "error", "broken", "crash", "not working", "issue"):
		return IntentBug
	case containsAny(lower, "stream", "live", "going live", "twitch", "youtube"):
		return IntentStream
	default:
		return IntentGeneric
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
