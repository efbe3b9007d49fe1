package discord

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

func modMessage(content string, mentions int) *discordgo.MessageCreate {
	m := &discordgo.MessageCreate{
		Message: &discordgo.Message{
			ID:        "msg-1",
			ChannelID: "chan-1",
			Content:   content,
			Author:    &discordgo.User{ID: "user-1", Username: "alice"},
		},
	}
	for i := 0; i < mentions; i++ {
		m.Mentions = append(m.Mentions, &discordgo.User{ID: "mention"})
	}
	return m
}

func TestModerator_Match(t *testing.T) {
	mod := NewModerator(t.TempDir(), []string{"badword", "worse"}, zap.NewNop())

	tests := []struct {
		name     string
		message  *discordgo.MessageCreate
		wantRule string
	}{
		{"clean message", modMessage("hello everyone", 0), ""},
		{"banned word", modMessage("that is a BADWORD right there", 0), "banned_word"},
		{"invite link", modMessage("join us at discord.gg/abc123", 0), "invite_link"},
		{"invite link long form", modMessage("https://discordapp.com/invite/xyz", 0), "invite_link"},
		{"mass mention", modMessage("hey everyone", maxMentionsPerMessage+1), "mass_mention"},
		{"mentions at limit pass", modMessage("hey folks", maxMentionsPerMessage), ""},
		{"banned word wins over invite", modMessage("badword discord.gg/abc", 0), "banned_word"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := mod.match(tt.message); got != tt.wantRule {
				t.Errorf("match() = %q, want %q", got, tt.wantRule)
			}
		})
	}
}

func TestModerator_AppendLog(t *testing.T) {
	dir := t.TempDir()
	mod := NewModerator(dir, nil, zap.NewNop())

	mod.appendLog("delete", "invite_link", modMessage("discord.gg/abc", 0))
	mod.appendLog("delete", "banned_word", modMessage("another one", 0))

	f, err := os.Open(filepath.Join(dir, "modlog.jsonl"))
	if err != nil {
		t.Fatalf("failed to open mod log: %v", err)
	}
	defer f.Close()

	var entries []ModLogEntry
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var entry ModLogEntry
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			t.Fatalf("failed to parse mod log line: %v", err)
		}
		entries = append(entries, entry)
	}

	if len(entries) != 2 {
		t.Fatalf("expected 2 log entries, got %d", len(entries))
	}
	if entries[0].Rule != "invite_link" || entries[1].Rule != "banned_word" {
		t.Errorf("unexpected rules: %q, %q", entries[0].Rule, entries[1].Rule)
	}
	if entries[0].ID == "" || entries[0].ID == entries[1].ID {
		t.Error("expected distinct non-empty entry IDs")
	}
	if entries[0].UserName != "alice" {
		t.Errorf("unexpected user name: %q", entries[0].UserName)
	}
}

func TestRuleDescription(t *testing.T) {
	if got := ruleDescription("banned_word"); got != "inappropriate language" {
		t.Errorf("unexpected description: %q", got)
	}
	if got := ruleDescription("custom_rule"); got != "custom_rule" {
		t.Errorf("unknown rules should pass through, got %q", got)
	}
}
