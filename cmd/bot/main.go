package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/freeeve/conquest/internal/bot"
)

func main() {
	url := flag.String("url", "http://localhost:3000", "server base URL")
	strategyName := flag.String("strategy", "continent", "bot strategy (continent, challenger, random)")
	players := flag.Int("players", 3, "number of bots in the match")
	game := flag.String("game", "bot-match", "game name to create")
	pace := flag.Duration("pace", 100*time.Millisecond, "delay between each bot move")
	login := flag.Bool("login", true, "sign bots in as guests before connecting")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})
	if *debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	if _, err := bot.StrategyForName(*strategyName); err != nil {
		log.Fatal().Err(err).Msg("Bad strategy")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		log.Info().Msg("Received shutdown signal")
		cancel()
	}()

	orch := bot.NewOrchestrator(*url, *strategyName, *players, *pace, *login)
	winner, err := orch.Run(ctx, *game)
	if err != nil {
		log.Fatal().Err(err).Msg("Bot orchestrator failed")
	}
	log.Info().Str("winner", winner).Msg("Bot game completed successfully")
}
