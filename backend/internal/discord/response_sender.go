package discord

import (
	"fmt"
	"strings"
	"time"

	apperrors "paco-bot/backend/pkg/errors"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

const (
	// maxMessageLength is Discord's hard character limit per message
	maxMessageLength = 2000
	// partIndicatorReserve leaves room for the "(Part X/Y)" suffix
	partIndicatorReserve = 20

	embedColorInfo    = 0x5865F2 // Discord blurple
	embedColorSuccess = 0x57F287
	embedColorWarn    = 0xFEE75C
	embedColorError   = 0xED4245
)

// SendLongMessage sends content to a channel, chunking it when it exceeds
// Discord's limit. Chunks get a part indicator and a short pause between them.
func SendLongMessage(s *discordgo.Session, channelID, content string, logger *zap.Logger) {
	if len(content) <= maxMessageLength {
		if _, err := s.ChannelMessageSend(channelID, content); err != nil {
			logger.Error("Failed to send message",
				zap.Error(apperrors.NewDiscordMessageSendFailed(channelID, err)),
			)
		}
		return
	}

	chunks := splitMessage(content, maxMessageLength-partIndicatorReserve)
	for i, chunk := range chunks {
		msg := chunk
		if len(chunks) > 1 {
			msg = fmt.Sprintf("%s\n*(Part %d/%d)*", chunk, i+1, len(chunks))
		}
		if _, err := s.ChannelMessageSend(channelID, msg); err != nil {
			logger.Error("Failed to send message chunk",
				zap.Int("chunk", i+1),
				zap.Int("total_chunks", len(chunks)),
				zap.Error(apperrors.NewDiscordMessageSendFailed(channelID, err)),
			)
			break
		}
		if i < len(chunks)-1 {
			time.Sleep(100 * time.Millisecond)
		}
	}
}

// splitMessage splits content into chunks of at most maxLen, preferring line
// boundaries and keeping fenced code blocks intact when they fit
func splitMessage(content string, maxLen int) []string {
	if len(content) <= maxLen {
		return []string{content}
	}

	var chunks []string
	var current strings.Builder
	var codeBlock strings.Builder
	inCode := false

	flush := func() {
		if current.Len() > 0 {
			chunks = append(chunks, current.String())
			current.Reset()
		}
	}
	appendPart := func(part string) {
		if current.Len() > 0 && current.Len()+1+len(part) > maxLen {
			flush()
		}
		if len(part) > maxLen {
			// A single oversized block: hard-split it
			for len(part) > maxLen {
				flush()
				chunks = append(chunks, part[:maxLen])
				part = part[maxLen:]
			}
		}
		if current.Len() > 0 {
			current.WriteByte('\n')
		}
		current.WriteString(part)
	}

	for _, line := range strings.Split(content, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			if inCode {
				codeBlock.WriteString(line)
				appendPart(codeBlock.String())
				codeBlock.Reset()
				inCode = false
			} else {
				inCode = true
				codeBlock.WriteString(line)
				codeBlock.WriteByte('\n')
			}
			continue
		}
		if inCode {
			codeBlock.WriteString(line)
			codeBlock.WriteByte('\n')
			continue
		}
		appendPart(line)
	}
	if inCode && codeBlock.Len() > 0 {
		appendPart(codeBlock.String())
	}
	flush()

	return chunks
}
