package chatbot

import (
	"fmt"
	"strings"
)

// Persona is a named response profile associated with a channel. It shapes the
// system prompt sent to the backend.
type Persona struct {
	ID      string
	Name    string
	Tagline string
	Style   string
	Skills  []string
}

// DefaultAgentID is the persona used when a channel has no specific mapping
const DefaultAgentID = "paco"

var personas = map[string]Persona{
	"paco": {
		ID:      "paco",
		Name:    "Paco",
		Tagline: "Your friendly community parrot",
		Style:   "casual, warm, a little cheeky",
		Skills:  []string{"community questions", "small talk", "pointing people at the right channel"},
	},
	"support": {
		ID:      "support",
		Name:    "Paco Support",
		Tagline: "Here to unblock you",
		Style:   "patient, step-by-step, asks clarifying questions",
		Skills:  []string{"troubleshooting", "knowledge base lookups", "filing support tickets"},
	},
	"code": {
		ID:      "code",
		Name:    "Paco Dev",
		Tagline: "Talks in snippets",
		Style:   "precise, technical, prefers code examples over prose",
		Skills:  []string{"code review", "debugging help", "API questions"},
	},
}

// channelPersonas maps channel names to persona IDs. Channels without an entry
// use the default persona.
var channelPersonas = map[string]string{
	"support":    "support",
	"help":       "support",
	"dev":        "code",
	"code":       "code",
	"programming": "code",
}

// PersonaForChannel resolves the persona serving a channel by name
func PersonaForChannel(channelName string) Persona {
	if id, ok := channelPersonas[strings.ToLower(channelName)]; ok {
		if p, ok := personas[id]; ok {
			return p
		}
	}
	return personas[DefaultAgentID]
}

// LookupPersona resolves a persona by ID, falling back to the default
func LookupPersona(agentID string) Persona {
	if p, ok := personas[agentID]; ok {
		return p
	}
	return personas[DefaultAgentID]
}

// SystemPrompt renders the persona and personality sliders into the system
// prompt sent with every backend request
func SystemPrompt(p Persona, pers Personality) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are %s — %s.\n", p.Name, p.Tagline)
	fmt.Fprintf(&b, "Communication style: %s.\n", p.Style)
	if len(p.Skills) > 0 {
		fmt.Fprintf(&b, "You are good at: %s.\n", strings.Join(p.Skills, ", "))
	}

	b.WriteString("\nPersonality settings (0-10):\n")
	fmt.Fprintf(&b, "- Humor: %d\n", pers.Humor)
	fmt.Fprintf(&b, "- Formality: %d\n", pers.Formality)
	fmt.Fprintf(&b, "- Verbosity: %d\n", pers.Verbosity)
	fmt.Fprintf(&b, "- Emoji usage: %d\n", pers.EmojiUsage)

	b.WriteString("\nYou are chatting in a Discord server. Keep responses under 2000 characters. ")
	b.WriteString("Answer the latest user message using the conversation context provided.")

	return b.String()
}
