package main

import (
	"flag"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"nearby.live/cache"
	"nearby.live/config"
	"nearby.live/server"
)

func initLogger() zerolog.Logger {
	output := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	}
	logger := zerolog.New(output).With().Timestamp().Str("app", "nearby").Logger()
	zlog.Logger = logger
	return logger
}

func main() {
	configPath := flag.String("config", "", "path to toml config file")
	flag.Parse()

	log := initLogger()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}

	presence := cache.New(cfg.RedisURL, log)
	defer presence.Close()

	srv := server.New(log, presence)
	defer srv.Close()

	mux := http.NewServeMux()

	// serve the embedded map client by default
	mux.HandleFunc("/", server.MapHandler)
	mux.HandleFunc("/connect", srv.ConnectHandler)
	mux.HandleFunc("/sessions", srv.GetSessionsHandler)

	log.Info().Str("addr", cfg.Addr).Msg("server running")

	if err := http.ListenAndServe(cfg.Addr, server.WithCors(cfg.CorsOrigins, mux)); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}
