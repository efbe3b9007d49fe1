package discord

import (
	"context"
	"fmt"
	"strings"

	"paco-bot/backend/internal/chatbot"
	"paco-bot/backend/internal/games"
	"paco-bot/backend/internal/hub"
	"paco-bot/backend/internal/memory"
	apperrors "paco-bot/backend/pkg/errors"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// Commands owns the slash command surface: registration against the Discord
// API and dispatch of incoming interactions.
type Commands struct {
	chain     *chatbot.Chain
	assembler *chatbot.Assembler
	cfgStore  *chatbot.ConfigStore
	users     *memory.UserStore
	hubClient *hub.Client
	gamesHub  *GamesHub
	logger    *zap.Logger

	registered []*discordgo.ApplicationCommand
}

// NewCommands creates the slash command dispatcher
func NewCommands(
	chain *chatbot.Chain,
	assembler *chatbot.Assembler,
	cfgStore *chatbot.ConfigStore,
	users *memory.UserStore,
	hubClient *hub.Client,
	gamesHub *GamesHub,
	logger *zap.Logger,
) *Commands {
	return &Commands{
		chain:     chain,
		assembler: assembler,
		cfgStore:  cfgStore,
		users:     users,
		hubClient: hubClient,
		gamesHub:  gamesHub,
		logger:    logger,
	}
}

func commandDefinitions() []*discordgo.ApplicationCommand {
	gameChoices := []*discordgo.ApplicationCommandOptionChoice{
		{Name: "trivia", Value: string(games.GameTrivia)},
		{Name: "hangman", Value: string(games.GameHangman)},
		{Name: "scramble", Value: string(games.GameScramble)},
		{Name: "numberguess", Value: string(games.GameNumberGuess)},
		{Name: "quiz", Value: string(games.GameQuiz)},
		{Name: "rps", Value: string(games.GameRPS)},
	}
	moveChoices := []*discordgo.ApplicationCommandOptionChoice{
		{Name: "rock", Value: string(games.MoveRock)},
		{Name: "paper", Value: string(games.MovePaper)},
		{Name: "scissors", Value: string(games.MoveScissors)},
	}
	manageGuild := int64(discordgo.PermissionManageServer)

	return []*discordgo.ApplicationCommand{
		{
			Name:        "ask",
			Description: "Ask Paco a question",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "question",
					Description: "What do you want to know?",
					Required:    true,
				},
			},
		},
		{
			Name:        "kb",
			Description: "Search the knowledge base",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "query",
					Description: "Search terms",
					Required:    true,
				},
			},
		},
		{
			Name:        "ticket",
			Description: "Open a support ticket",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "subject",
					Description: "Short summary of the problem",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "details",
					Description: "What happened, and what you expected",
					Required:    true,
				},
			},
		},
		{
			Name:        "preference",
			Description: "Save a personal preference for Paco to remember",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "name",
					Description: "What the preference is called, e.g. language",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "value",
					Description: "The value to remember",
					Required:    true,
				},
			},
		},
		{
			Name:        "trivia",
			Description: "Start a trivia round",
		},
		{
			Name:        "quiz",
			Description: "Start a 5-question quiz",
		},
		{
			Name:        "hangman",
			Description: "Start a hangman game",
		},
		{
			Name:        "scramble",
			Description: "Start a word scramble",
		},
		{
			Name:        "guess",
			Description: "Start a number guessing game",
		},
		{
			Name:        "rps",
			Description: "Play rock-paper-scissors, against me or another member",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "move",
					Description: "Your move",
					Required:    true,
					Choices:     moveChoices,
				},
				{
					Type:        discordgo.ApplicationCommandOptionUser,
					Name:        "opponent",
					Description: "Challenge another member instead of the bot",
					Required:    false,
				},
			},
		},
		{
			Name:        "endgame",
			Description: "End an active game in this channel",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "game",
					Description: "Which game to end",
					Required:    true,
					Choices:     gameChoices,
				},
			},
		},
		{
			Name:        "leaderboard",
			Description: "Show the top players for a game",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "game",
					Description: "Which game",
					Required:    true,
					Choices:     gameChoices,
				},
			},
		},
		{
			Name:                     "chatbot",
			Description:              "Manage the chatbot in this channel",
			DefaultMemberPermissions: &manageGuild,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "enable",
					Description: "Enable chatbot responses in this channel",
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "disable",
					Description: "Disable chatbot responses in this channel",
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "status",
					Description: "Show the chatbot settings for this channel",
				},
			},
		},
	}
}

// Register creates the application commands. Existing commands with the same
// names are overwritten by Discord, so this is safe to run on every startup.
func (c *Commands) Register(s *discordgo.Session) error {
	appID := s.State.User.ID
	for _, def := range commandDefinitions() {
		created, err := s.ApplicationCommandCreate(appID, "", def)
		if err != nil {
			return fmt.Errorf("registering /%s: %w", def.Name, err)
		}
		c.registered = append(c.registered, created)
		c.logger.Info("Registered slash command", zap.String("command", def.Name))
	}
	return nil
}

// Unregister removes the commands created by Register
func (c *Commands) Unregister(s *discordgo.Session) {
	appID := s.State.User.ID
	for _, cmd := range c.registered {
		if err := s.ApplicationCommandDelete(appID, "", cmd.ID); err != nil {
			c.logger.Warn("Failed to delete slash command",
				zap.String("command", cmd.Name),
				zap.Error(err),
			)
		}
	}
	c.registered = nil
}

// HandleInteraction is registered as the InteractionCreate handler
func (c *Commands) HandleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("Panic in interaction handler",
				zap.Any("panic", r),
				zap.String("command", i.ApplicationCommandData().Name),
			)
		}
	}()

	data := i.ApplicationCommandData()
	switch data.Name {
	case "ask":
		c.handleAsk(s, i, data)
	case "kb":
		c.handleKB(s, i, data)
	case "ticket":
		c.handleTicket(s, i, data)
	case "preference":
		c.handlePreference(s, i, data)
	case "trivia":
		c.respond(s, i, c.gamesHub.StartGame(s, i.ChannelID, games.GameTrivia))
	case "quiz":
		c.respond(s, i, c.gamesHub.StartGame(s, i.ChannelID, games.GameQuiz))
	case "hangman":
		c.respond(s, i, c.gamesHub.StartGame(s, i.ChannelID, games.GameHangman))
	case "scramble":
		c.respond(s, i, c.gamesHub.StartGame(s, i.ChannelID, games.GameScramble))
	case "guess":
		c.respond(s, i, c.gamesHub.StartGame(s, i.ChannelID, games.GameNumberGuess))
	case "rps":
		c.handleRPS(s, i, data)
	case "endgame":
		c.handleEndGame(s, i, data)
	case "leaderboard":
		c.handleLeaderboard(s, i, data)
	case "chatbot":
		c.handleChatbotAdmin(s, i, data)
	default:
		c.logger.Warn("Unknown slash command", zap.String("command", data.Name))
	}
}

// handleAsk runs the response pipeline for a direct question. The interaction
// is deferred first since providers can take longer than Discord's 3 second
// acknowledgement window.
func (c *Commands) handleAsk(s *discordgo.Session, i *discordgo.InteractionCreate, data discordgo.ApplicationCommandInteractionData) {
	question := strings.TrimSpace(optionString(data, "question"))
	if question == "" {
		c.respondEphemeral(s, i, "Ask me something!")
		return
	}
	if !c.cfgStore.ChannelEnabled(i.ChannelID) {
		c.logger.Debug("Ask rejected", zap.Error(apperrors.NewChannelDisabled(i.ChannelID)))
		c.respondEphemeral(s, i, "The chatbot is disabled in this channel. A moderator can turn it back on with /chatbot enable.")
		return
	}

	if err := c.deferResponse(s, i); err != nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), responseTimeout)
	defer cancel()

	user := interactionUser(i)
	channelName := channelNameFor(s, i.ChannelID)
	persona := chatbot.PersonaForChannel(channelName)
	cfg := c.cfgStore.Get()

	c.users.Touch(user.ID, user.Username, i.ChannelID, "question", question)

	prompt := c.assembler.Build(ctx, i.ChannelID, user.ID, question, s.State.User.ID)
	result := c.chain.Respond(ctx, chatbot.Request{
		AgentID:      persona.ID,
		ChannelID:    i.ChannelID,
		ChannelName:  channelName,
		UserID:       user.ID,
		Prompt:       prompt,
		SystemPrompt: chatbot.SystemPrompt(persona, cfg.Personality),
	})

	switch {
	case result.RateLimit:
		c.followUp(s, i, fmt.Sprintf("You're sending messages a bit fast! Try again in %d seconds.",
			int(result.RetryAfter.Seconds())+1))
	case result.Response != "":
		c.followUp(s, i, result.Response)
	default:
		c.followUp(s, i, "Sorry, I couldn't come up with an answer. Try again?")
	}
}

func (c *Commands) handleKB(s *discordgo.Session, i *discordgo.InteractionCreate, data discordgo.ApplicationCommandInteractionData) {
	query := strings.TrimSpace(optionString(data, "query"))
	if query == "" {
		c.respondEphemeral(s, i, "Give me something to search for!")
		return
	}

	if err := c.deferResponse(s, i); err != nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), responseTimeout)
	defer cancel()

	results, err := c.hubClient.SearchKB(ctx, query, 3)
	if err != nil {
		c.logger.Warn("KB search failed", zap.String("query", query), zap.Error(err))
		c.followUp(s, i, "I couldn't reach the knowledge base right now. Try again in a bit!")
		return
	}
	if len(results) == 0 {
		c.followUp(s, i, fmt.Sprintf("No knowledge base results for **%s**.", query))
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
	if _, err := s.FollowupMessageCreate(i.Interaction, true, &discordgo.WebhookParams{
		Embeds: []*discordgo.MessageEmbed{embed},
	}); err != nil {
		c.logger.Error("Failed to send KB followup", zap.Error(err))
	}
}

func (c *Commands) handleTicket(s *discordgo.Session, i *discordgo.InteractionCreate, data discordgo.ApplicationCommandInteractionData) {
	subject := strings.TrimSpace(optionString(data, "subject"))
	details := strings.TrimSpace(optionString(data, "details"))
	if subject == "" || details == "" {
		c.respondEphemeral(s, i, "Both a subject and details are needed for a ticket.")
		return
	}

	if err := c.deferResponse(s, i); err != nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), responseTimeout)
	defer cancel()

	user := interactionUser(i)
	ticket, err := c.hubClient.CreateTicket(ctx, hub.TicketRequest{
		Title:       subject,
		Description: details,
		Priority:    "normal",
		Category:    "discord",
		Customer:    user.Username,
		Tags:        []string{"discord", "user:" + user.ID},
	})
	if err != nil {
		c.logger.Warn("Ticket creation failed", zap.Error(err))
		c.followUp(s, i, "I couldn't open a ticket right now. Please try again, or ping a moderator.")
		return
	}

	c.followUp(s, i, fmt.Sprintf("🎫 Ticket **%s** opened: *%s*\nThe support team will follow up here or by DM.",
		ticket.ID, subject))
}

// handlePreference stores a user preference that later feeds into prompt
// context through the user's memory summary.
func (c *Commands) handlePreference(s *discordgo.Session, i *discordgo.InteractionCreate, data discordgo.ApplicationCommandInteractionData) {
	name := strings.ToLower(strings.TrimSpace(optionString(data, "name")))
	value := strings.TrimSpace(optionString(data, "value"))
	if name == "" || value == "" {
		c.respondEphemeral(s, i, "Both a name and a value are needed, e.g. `/preference name:language value:Spanish`.")
		return
	}

	user := interactionUser(i)
	c.users.SetPreference(user.ID, name, value)
	c.respondEphemeral(s, i, fmt.Sprintf("Got it! I'll remember your **%s** is **%s**.", name, value))
}

func (c *Commands) handleRPS(s *discordgo.Session, i *discordgo.InteractionCreate, data discordgo.ApplicationCommandInteractionData) {
	move, ok := games.ParseRPSMove(optionString(data, "move"))
	if !ok {
		c.respondEphemeral(s, i, "That move isn't rock, paper, or scissors!")
		return
	}
	user := interactionUser(i)

	// A pending PvP challenge in the channel takes priority, so the opponent
	// can answer with a plain /rps <move>
	if msg, consumed := c.gamesHub.PlayPvPMove(i.ChannelID, user.ID, user.Username, move); consumed {
		c.respond(s, i, msg)
		return
	}

	if opponent := optionUser(data, "opponent", s); opponent != nil {
		if opponent.ID == user.ID {
			c.respondEphemeral(s, i, "You can't challenge yourself!")
			return
		}
		if opponent.Bot {
			c.respondEphemeral(s, i, "Leave the move out to play against me instead.")
			return
		}
		c.respond(s, i, c.gamesHub.ChallengeRPS(s, i.ChannelID, user.ID, user.Username, opponent.ID, move))
		return
	}

	// Vs-bot: start a round if none is active, then play the move into it
	if _, active := c.gamesHub.Manager().Get(games.GameRPS, i.ChannelID); !active {
		if err := c.gamesHub.rps.StartVsBot(i.ChannelID, nil); err != nil {
			c.respond(s, i, startError(err))
			return
		}
	}
	out, err := c.gamesHub.rps.PlayVsBot(i.ChannelID, user.ID, user.Username, move)
	if err != nil {
		c.respond(s, i, "Couldn't play that round, sorry!")
		return
	}
	switch {
	case out.Draw:
		c.respond(s, i, fmt.Sprintf("🤝 We both played **%s** — it's a draw!", out.BotMove))
	case out.WinnerID != "":
		c.respond(s, i, fmt.Sprintf("🎉 **%s** beats my **%s** — you win! +%d points.", move, out.BotMove, out.Points))
	default:
		c.respond(s, i, fmt.Sprintf("😎 My **%s** beats your **%s**. Better luck next time!", out.BotMove, move))
	}
}

func (c *Commands) handleEndGame(s *discordgo.Session, i *discordgo.InteractionCreate, data discordgo.ApplicationCommandInteractionData) {
	game, err := games.ParseGameType(optionString(data, "game"))
	if err != nil {
		c.respondEphemeral(s, i, "I don't know that game!")
		return
	}
	c.respond(s, i, c.gamesHub.ForceEnd(i.ChannelID, game))
}

func (c *Commands) handleLeaderboard(s *discordgo.Session, i *discordgo.InteractionCreate, data discordgo.ApplicationCommandInteractionData) {
	game, err := games.ParseGameType(optionString(data, "game"))
	if err != nil {
		c.respondEphemeral(s, i, "I don't know that game!")
		return
	}

	top := c.gamesHub.Manager().Leaderboard().Top(game, 10)
	if len(top) == 0 {
		c.respond(s, i, fmt.Sprintf("Nobody has scored in %s yet. Be the first!", game))
		return
	}

	var b strings.Builder
	for rank, p := range top {
		fmt.Fprintf(&b, "**%d.** %s — %d pts (%d wins, %d played)\n",
			rank+1, p.UserName, p.Points, p.Wins, p.GamesPlayed)
	}
	embed := &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("🏆 %s leaderboard", game),
		Description: b.String(),
		Color:       embedColorSuccess,
	}
	if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{embed},
		},
	}); err != nil {
		c.logger.Error("Failed to respond to leaderboard command", zap.Error(err))
	}
}

func (c *Commands) handleChatbotAdmin(s *discordgo.Session, i *discordgo.InteractionCreate, data discordgo.ApplicationCommandInteractionData) {
	if len(data.Options) == 0 {
		return
	}
	sub := data.Options[0].Name
	channelID := i.ChannelID

	switch sub {
	case "enable", "disable":
		enabled := sub == "enable"
		ch := c.cfgStore.Get().Channels[channelID]
		ch.Enabled = enabled
		if err := c.cfgStore.SetChannel(channelID, ch); err != nil {
			c.logger.Error("Failed to update chatbot config", zap.Error(err))
			c.respondEphemeral(s, i, "Couldn't save the setting, sorry.")
			return
		}
		if enabled {
			c.respond(s, i, "✅ Chatbot responses are now **enabled** in this channel.")
		} else {
			c.respond(s, i, "🔇 Chatbot responses are now **disabled** in this channel.")
		}

	case "status":
		cfg := c.cfgStore.Get()
		ch, configured := cfg.Channels[channelID]
		enabled := cfg.Enabled
		if configured {
			enabled = ch.Enabled
		}
		c.respondEphemeral(s, i, fmt.Sprintf(
			"Enabled: **%t**\nKeywords: %s\nRandom reply chance: %.0f%%",
			enabled,
			strings.Join(cfg.TriggerKeywords, ", "),
			cfg.RandomProbability*100,
		))
	}
}

func (c *Commands) respond(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Content: content},
	}); err != nil {
		c.logger.Error("Failed to respond to interaction",
			zap.String("command", i.ApplicationCommandData().Name),
			zap.Error(err),
		)
	}
}

func (c *Commands) respondEphemeral(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	}); err != nil {
		c.logger.Error("Failed to respond to interaction", zap.Error(err))
	}
}

func (c *Commands) deferResponse(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	})
	if err != nil {
		c.logger.Error("Failed to defer interaction", zap.Error(err))
	}
	return err
}

func (c *Commands) followUp(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	if _, err := s.FollowupMessageCreate(i.Interaction, true, &discordgo.WebhookParams{
		Content: content,
	}); err != nil {
		c.logger.Error("Failed to send followup", zap.Error(err))
	}
}

func optionString(data discordgo.ApplicationCommandInteractionData, name string) string {
	for _, opt := range data.Options {
		if opt.Name == name && opt.Type == discordgo.ApplicationCommandOptionString {
			return opt.StringValue()
		}
	}
	return ""
}

func optionUser(data discordgo.ApplicationCommandInteractionData, name string, s *discordgo.Session) *discordgo.User {
	for _, opt := range data.Options {
		if opt.Name == name && opt.Type == discordgo.ApplicationCommandOptionUser {
			return opt.UserValue(s)
		}
	}
	return nil
}

// interactionUser works in both guild channels (Member set) and DMs (User set)
func interactionUser(i *discordgo.InteractionCreate) *discordgo.User {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User
	}
	return i.User
}

func channelNameFor(s *discordgo.Session, channelID string) string {
	if ch, err := s.State.Channel(channelID); err == nil && ch.Name != "" {
		return ch.Name
	}
	if ch, err := s.Channel(channelID); err == nil {
		return ch.Name
	}
	return channelID
}
