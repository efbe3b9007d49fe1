package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"paco-bot/backend/internal/api"
	"paco-bot/backend/internal/chatbot"
	"paco-bot/backend/internal/discord"
	"paco-bot/backend/internal/games"
	"paco-bot/backend/internal/hub"
	"paco-bot/backend/internal/memory"
	"paco-bot/backend/pkg/config"
	"paco-bot/backend/pkg/logger"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load configuration: %v", err))
	}

	// Initialize logger
	if err := logger.Init(cfg.Env); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	log := logger.Get()
	log.Info("Starting Paco bot...")

	if cfg.DiscordBotToken == "" {
		log.Fatal("DISCORD_BOT_TOKEN is required")
	}

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		log.Fatal("Failed to create data directory", zap.Error(err))
	}

	// Memory and configuration stores
	channels := memory.NewChannelStore(cfg.DataDir, logger.Named("memory.channels"))
	users := memory.NewUserStore(cfg.DataDir, logger.Named("memory.users"))
	cfgStore := chatbot.NewConfigStore(cfg.DataDir, logger.Named("chatbot.config"))

	// Paco Hub client
	hubClient := hub.NewClient(cfg.HubURL, cfg.HubAPIKey, cfg.HubTimeout, cfg.HubRatePerSec, logger.Named("hub"))

	// Response chain: Hub first, then direct providers, terminal fallback last
	providers := []chatbot.Provider{chatbot.NewHubProvider(hubClient)}
	if cfg.ProviderAAPIKey != "" {
		providers = append(providers,
			chatbot.NewOpenAIProvider("openai", cfg.ProviderAAPIKey, cfg.ProviderAModel, logger.Named("provider.openai")))
	}
	if cfg.ProviderBAPIKey != "" {
		providers = append(providers,
			chatbot.NewCompatibleProvider("groq", cfg.ProviderBURL, cfg.ProviderBAPIKey, cfg.ProviderBModel, logger.Named("provider.groq")))
	}

	limiter := chatbot.NewRateLimiter(cfg.RateLimitWindow, cfg.RateLimitMax)
	cache := chatbot.NewResponseCache(cfg.ResponseCacheTTL, cfg.ResponseCacheSize, logger.Named("cache"))
	chain := chatbot.NewChain(limiter, cache, providers, logger.Named("chain"))

	evaluator := chatbot.NewEvaluator(cfgStore)
	assembler := chatbot.NewAssembler(channels, users, hubClient, logger.Named("context"))

	// Games
	leaderboard := games.NewLeaderboard(cfg.DataDir, logger.Named("leaderboard"))
	manager := games.NewManager(leaderboard, logger.Named("games"))
	gamesHub := discord.NewGamesHub(manager, logger.Named("games.hub"))

	// Moderation and welcome
	moderator := discord.NewModerator(cfg.DataDir, cfg.BannedWords, logger.Named("moderation"))
	var welcome *discord.Welcome
	if cfg.WelcomeChannelID != "" {
		welcome = discord.NewWelcome(cfg.WelcomeChannelID, logger.Named("welcome"))
	}

	messageHandler := discord.NewHandler(
		evaluator, assembler, chain, cfgStore,
		channels, users, hubClient,
		gamesHub, moderator, cfg.CommandPrefix,
		logger.Named("discord"),
	)
	commands := discord.NewCommands(
		chain, assembler, cfgStore, users, hubClient, gamesHub,
		logger.Named("commands"),
	)

	// Create Discord session
	dg, err := discordgo.New("Bot " + cfg.DiscordBotToken)
	if err != nil {
		log.Fatal("Failed to create Discord session", zap.Error(err))
	}

	dg.AddHandler(func(s *discordgo.Session, m *discordgo.MessageCreate) {
		messageHandler.HandleMessage(s, m)
	})
	dg.AddHandler(func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		commands.HandleInteraction(s, i)
	})
	if welcome != nil {
		dg.AddHandler(func(s *discordgo.Session, e *discordgo.GuildMemberAdd) {
			welcome.HandleMemberJoin(s, e)
		})
		dg.AddHandler(func(s *discordgo.Session, e *discordgo.GuildMemberRemove) {
			welcome.HandleMemberLeave(s, e)
		})
	}

	// Required intents:
	// - IntentsGuilds: channel metadata for the state cache
	// - IntentsGuildMessages + MessageContent: read messages in guild channels
	// - IntentsDirectMessages: read DM messages
	// - IntentsGuildMembers: member join/leave events for welcome flows
	dg.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsDirectMessages |
		discordgo.IntentsGuildMembers |
		discordgo.IntentMessageContent

	// Open connection
	if err := dg.Open(); err != nil {
		log.Fatal("Failed to open Discord connection", zap.Error(err))
	}
	defer dg.Close()

	if err := commands.Register(dg); err != nil {
		log.Error("Failed to register slash commands", zap.Error(err))
	}

	// Admin API alongside the gateway connection
	adminSrv := api.NewServer(":"+cfg.AdminPort, cfg.IsProduction(), cfgStore, leaderboard, logger.Named("api"))
	go func() {
		if err := adminSrv.Start(); err != nil {
			log.Error("Admin API stopped", zap.Error(err))
		}
	}()

	log.Info("Paco bot is running. Press CTRL-C to exit.")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down...")

	commands.Unregister(dg)

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := adminSrv.Shutdown(ctx); err != nil {
		log.Error("Admin API shutdown failed", zap.Error(err))
	}

	// Flush pending memory writes before exit
	if err := channels.Close(ctx); err != nil {
		log.Error("Channel memory flush failed", zap.Error(err))
	}
	if err := users.Close(ctx); err != nil {
		log.Error("User memory flush failed", zap.Error(err))
	}

	log.Info("Paco bot exited")
}
