package discord

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// Welcome posts join/leave embeds to a configured channel. An empty channel ID
// disables the flow.
type Welcome struct {
	channelID string
	logger    *zap.Logger
}

// NewWelcome creates the welcome flow
func NewWelcome(channelID string, logger *zap.Logger) *Welcome {
	return &Welcome{channelID: channelID, logger: logger}
}

// HandleMemberJoin is registered as the GuildMemberAdd handler
func (w *Welcome) HandleMemberJoin(s *discordgo.Session, e *discordgo.GuildMemberAdd) {
	if w.channelID == "" || e.User == nil || e.User.Bot {
		return
	}

	embed := &discordgo.MessageEmbed{
		Title:       "👋 Welcome!",
		Description: fmt.Sprintf("Hey <@%s>, welcome to the server! Say hi, check out the rules, and ask Paco anything with `/ask`.", e.User.ID),
		Color:       embedColorSuccess,
		Thumbnail:   avatarThumbnail(e.User),
	}
	if _, err := s.ChannelMessageSendEmbed(w.channelID, embed); err != nil {
		w.logger.Warn("Failed to send welcome message",
			zap.String("user_id", e.User.ID),
			zap.Error(err),
		)
	}
}

// HandleMemberLeave is registered as the GuildMemberRemove handler
func (w *Welcome) HandleMemberLeave(s *discordgo.Session, e *discordgo.GuildMemberRemove) {
	if w.channelID == "" || e.User == nil || e.User.Bot {
		return
	}

	embed := &discordgo.MessageEmbed{
		Description: fmt.Sprintf("**%s** has left the server. Safe travels! 🫡", e.User.Username),
		Color:       embedColorWarn,
	}
	if _, err := s.ChannelMessageSendEmbed(w.channelID, embed); err != nil {
		w.logger.Warn("Failed to send leave message",
			zap.String("user_id", e.User.ID),
			zap.Error(err),
		)
	}
}

func avatarThumbnail(u *discordgo.User) *discordgo.MessageEmbedThumbnail {
	if u.Avatar == "" {
		return nil
	}
	return &discordgo.MessageEmbedThumbnail{URL: u.AvatarURL("128")}
}
