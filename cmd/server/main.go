package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/freeeve/conquest/internal/auth"
	"github.com/freeeve/conquest/internal/bot"
	"github.com/freeeve/conquest/internal/config"
	"github.com/freeeve/conquest/internal/handler"
	"github.com/freeeve/conquest/internal/logger"
	"github.com/freeeve/conquest/internal/middleware"
	"github.com/freeeve/conquest/internal/repository"
	"github.com/freeeve/conquest/internal/repository/postgres"
	redisrepo "github.com/freeeve/conquest/internal/repository/redis"
	"github.com/freeeve/conquest/internal/service"
	"github.com/freeeve/conquest/internal/session"
	"github.com/freeeve/conquest/pkg/conquest"
)

// botPace is the delay between a bot's moves.
const botPace = 100 * time.Millisecond

func main() {
	logger.Init()
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	log.Info().Str("port", cfg.Port).Bool("requireAuth", cfg.RequireAuth).
		Str("placement", cfg.PlacementMode).Str("reinforcement", cfg.ReinforcementMode).
		Msg("Config loaded")

	board := loadBoard(cfg.BoardFile)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Storage: both backends are optional.
	var (
		cache    repository.MatchCache
		results  repository.ResultRepository
		messages repository.MessageRepository
	)
	if cfg.RedisURL != "" {
		redisClient, err := redisrepo.NewClient(cfg.RedisURL, cfg.SnapshotTTL)
		if err != nil {
			log.Fatal().Err(err).Msg("Redis connection failed")
		}
		defer redisClient.Close()
		cache = redisClient
	}
	if cfg.DatabaseURL != "" {
		db, err := postgres.Connect(cfg.DatabaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("Database connection failed")
		}
		defer db.Close()
		if err := postgres.Migrate(ctx, db); err != nil {
			log.Fatal().Err(err).Msg("Database migration failed")
		}
		results = postgres.NewResultRepo(db)
		messages = postgres.NewMessageRepo(db)
	}

	// Sessions
	placement := conquest.Mode(cfg.PlacementMode)
	reinforcement := conquest.Mode(cfg.ReinforcementMode)
	reg := session.NewRegistry(func(id string) *conquest.Match {
		return conquest.NewMatch(id, board, conquest.Options{
			PlacementMode:     placement,
			ReinforcementMode: reinforcement,
		})
	})

	recorder := service.NewRecorder(cache, results, messages, 0)
	go recorder.Run(ctx)

	// Auth
	jwtMgr := auth.NewJWTManager(cfg.JWTSecret)
	var google *auth.OAuthProvider
	if cfg.GoogleEnabled() {
		google = auth.NewGoogleOAuth(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL)
	}

	// WebSocket hub and match service
	wsHub := handler.NewHub()
	matchSvc := service.NewMatchService(reg, wsHub, recorder, nil)

	var tokens bot.TokenSource
	if cfg.RequireAuth {
		tokens = func(name string) (string, error) {
			pair, err := jwtMgr.IssueGuest(name)
			if err != nil {
				return "", err
			}
			return pair.AccessToken, nil
		}
	}
	bots := bot.NewSpawner(ctx, cfg.BotServerURL, board, botPace, tokens)
	matchSvc.SetBotSpawner(bots)

	janitor := service.NewJanitor(matchSvc, 30*time.Second)
	go janitor.Start(ctx)

	// Handlers
	authHandler := handler.NewAuthHandler(google, jwtMgr)
	gameHandler := handler.NewGameHandler(matchSvc, board, results, cache)
	messageHandler := handler.NewMessageHandler(messages)
	wsHandler := handler.NewWSHandler(wsHub, matchSvc, jwtMgr, handler.WSOptions{
		RequireAuth: cfg.RequireAuth,
		IntentRate:  cfg.IntentRate,
		IntentBurst: cfg.IntentBurst,
	})

	// Router
	mux := http.NewServeMux()

	// Health
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Auth (public)
	mux.HandleFunc("POST /auth/guest", authHandler.Guest)
	mux.HandleFunc("POST /auth/refresh", authHandler.RefreshToken)
	if google != nil {
		mux.HandleFunc("GET /auth/google/login", authHandler.GoogleLogin)
		mux.HandleFunc("GET /auth/google/callback", authHandler.GoogleCallback)
	}

	// API routes; identity is optional except on /me
	api := http.NewServeMux()
	api.HandleFunc("GET /board", gameHandler.Board)
	api.HandleFunc("GET /games", gameHandler.ListGames)
	api.HandleFunc("GET /games/{id}", gameHandler.GetGame)
	api.HandleFunc("GET /games/{id}/chat", messageHandler.ListMessages)
	api.HandleFunc("GET /results", gameHandler.ListResults)
	api.HandleFunc("GET /results/{id}", gameHandler.GetResult)
	api.Handle("GET /me", auth.Middleware(jwtMgr, true)(http.HandlerFunc(handler.GetMe)))

	mux.Handle("/api/v1/", http.StripPrefix("/api/v1",
		middleware.Chain(api, auth.Middleware(jwtMgr, false), middleware.JSON)))

	// WebSocket (auth via query param, not middleware)
	mux.HandleFunc("GET /ws", wsHandler.ServeWS)

	// Apply global middleware
	root := middleware.Chain(mux,
		middleware.Recover,
		middleware.Logger,
		middleware.CORS("*"),
		middleware.RateLimit(rate.Limit(50), 100),
	)

	srv := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     root,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server")

	cancel()
	bots.Wait()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server shutdown error")
	}
	log.Info().Msg("Server stopped")
}

// loadBoard reads BOARD_FILE when set and falls back to the standard board.
func loadBoard(path string) *conquest.Board {
	if path == "" {
		return conquest.StandardBoard()
	}
	f, err := os.Open(path)
	if err != nil {
		log.Fatal().Err(err).Str("path", path).Msg("Failed to open board file")
	}
	defer f.Close()

	board, err := conquest.LoadBoard(f)
	if err != nil {
		log.Fatal().Err(err).Str("path", path).Msg("Failed to load board file")
	}
	if err := board.Validate(); err != nil {
		log.Fatal().Err(err).Str("path", path).Msg("Board failed validation")
	}
	log.Info().Str("path", path).Int("territories", board.TerritoryCount()).Msg("Board loaded")
	return board
}
