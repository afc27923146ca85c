package main

import (
	"net/http"
	"os"
	"time"

	"github.com/gorilla/mux"
	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/cwchen/tidecal/pkg/cache"
	"github.com/cwchen/tidecal/pkg/cwa"
	"github.com/cwchen/tidecal/pkg/handlers"
	"github.com/cwchen/tidecal/pkg/metrics"
)

type Config struct {
	Port   string `default:"8080"`
	Prefix string `default:"/"`

	Env      string `default:"production"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	CWAAPIKey   string        `envconfig:"CWA_API_KEY"`
	CWABaseURL  string        `envconfig:"CWA_BASE_URL"`
	HTTPTimeout time.Duration `envconfig:"HTTP_TIMEOUT" default:"30s"`

	CacheTTL  time.Duration `envconfig:"CACHE_TTL" default:"6h"`
	CacheSize int           `envconfig:"CACHE_SIZE" default:"256"`
}

func initLogging(env Config) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	level, err := zerolog.ParseLevel(env.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	// Console logger for development environments.
	if env.Env == "local" || env.Env == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout})
	}
}

func main() {
	var env Config
	if err := envconfig.Process("", &env); err != nil {
		log.Fatal().Err(err).Msg("reading configuration")
	}
	initLogging(env)

	if env.CWAAPIKey == "" {
		log.Warn().Msg("CWA_API_KEY is not set; feed requests will fail upstream")
	}

	client := cwa.New(cwa.Options{
		BaseURL: env.CWABaseURL,
		APIKey:  env.CWAAPIKey,
		Timeout: env.HTTPTimeout,
	})

	// Caching is a deployment policy, not a hard-coded behavior: a zero
	// TTL disables the cache and every request is served fresh.
	var feedCache *cache.Feed
	if env.CacheTTL > 0 {
		var err error
		feedCache, err = cache.NewFeed(env.CacheSize, env.CacheTTL)
		if err != nil {
			log.Fatal().Err(err).Msg("creating feed cache")
		}
	}

	r := mux.NewRouter().StrictSlash(true)
	s := r.PathPrefix(env.Prefix).Subrouter()
	handlers.Register(s, handlers.Deps{
		Client:        client,
		Cache:         feedCache,
		APIConfigured: env.CWAAPIKey != "",
	})

	srv := &http.Server{
		Handler:      metrics.LatencyHandler(r),
		Addr:         "0.0.0.0:" + env.Port,
		WriteTimeout: 15 * time.Second,
		ReadTimeout:  15 * time.Second,
	}
	log.Info().Str("addr", srv.Addr).Str("prefix", env.Prefix).Msg("listening and serving")
	log.Fatal().Err(srv.ListenAndServe()).Msg("server exited")
}
