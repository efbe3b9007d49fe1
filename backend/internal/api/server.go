package api

import (
	"context"
	"net/http"
	"time"

	"paco-bot/backend/internal/chatbot"
	"paco-bot/backend/internal/games"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Server is the local admin HTTP API: health, chatbot config inspection and
// editing, and leaderboard reads. It is meant to sit behind localhost or an
// internal network, not the public internet.
type Server struct {
	cfgStore    *chatbot.ConfigStore
	leaderboard *games.Leaderboard
	logger      *zap.Logger
	srv         *http.Server
}

// NewServer builds the admin API around the shared stores
func NewServer(addr string, production bool, cfgStore *chatbot.ConfigStore, leaderboard *games.Leaderboard, logger *zap.Logger) *Server {
	if production {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		cfgStore:    cfgStore,
		leaderboard: leaderboard,
		logger:      logger,
	}

	router := gin.New()
	router.Use(ginLogger(logger))
	router.Use(gin.Recovery())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")
	{
		api.GET("/chatbot/config", s.getConfig)
		api.PUT("/chatbot/config", s.putConfig)
		api.GET("/leaderboard/:game", s.getLeaderboard)
	}

	s.srv = &http.Server{
		Addr:    addr,
		Handler: router,
	}
	return s
}

// Start blocks serving HTTP until Shutdown is called
func (s *Server) Start() error {
	s.logger.Info("Admin API listening", zap.String("addr", s.srv.Addr))
	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *Server) getConfig(c *gin.Context) {
	cfg := s.cfgStore.Get()
	c.JSON(http.StatusOK, cfg)
}

// putConfig replaces the mutable chatbot settings wholesale. Per-channel
// overrides not present in the request body are dropped, which is what an
// admin pushing a full config expects.
func (s *Server) putConfig(c *gin.Context) {
	var req chatbot.Config
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.RandomProbability < 0 || req.RandomProbability > 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "random_probability must be between 0 and 1"})
		return
	}

	err := s.cfgStore.Update(func(cfg *chatbot.Config) {
		*cfg = req
		if cfg.Channels == nil {
			cfg.Channels = make(map[string]chatbot.ChannelConfig)
		}
	})
	if err != nil {
		s.logger.Error("Failed to persist chatbot config", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save config"})
		return
	}

	c.JSON(http.StatusOK, s.cfgStore.Get())
}

func (s *Server) getLeaderboard(c *gin.Context) {
	game, err := games.ParseGameType(c.Param("game"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Unknown game"})
		return
	}

	top := s.leaderboard.Top(game, 25)
	rows := make([]gin.H, 0, len(top))
	for rank, p := range top {
		rows = append(rows, gin.H{
			"rank":         rank + 1,
			"user_id":      p.UserID,
			"user_name":    p.UserName,
			"points":       p.Points,
			"wins":         p.Wins,
			"games_played": p.GamesPlayed,
		})
	}
	c.JSON(http.StatusOK, gin.H{
		"game":    string(game),
		"players": rows,
	})
}

// ginLogger routes request logs through zap instead of gin's default writer
func ginLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		if raw != "" {
			path = path + "?" + raw
		}

		log.Info("HTTP Request",
			zap.Int("status", status),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Duration("latency", latency),
			zap.String("ip", c.ClientIP()),
		)
	}
}
