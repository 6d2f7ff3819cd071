package main

import (
	"math/rand"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"circuit-court/internal/config"
	"circuit-court/internal/logging"
	"circuit-court/internal/oracle"
	httptransport "circuit-court/internal/transport/http"
	"circuit-court/internal/trial"
	"circuit-court/internal/ws"
)

func main() {
	cfg, err := config.LoadApp()
	if err != nil {
		panic(err)
	}
	logging.Init(cfg.Log)

	judge := newOracle(cfg.Oracle)
	store := trial.NewStore(rand.New(rand.NewSource(time.Now().UnixNano())))
	coord := trial.NewCoordinator(store, judge, rand.New(rand.NewSource(time.Now().UnixNano())))
	gateway := ws.NewServer(coord)
	router := httptransport.NewRouter(store, gateway)

	server := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	log.Info().Str("addr", cfg.Server.HTTPAddr).Msg("court server listening")
	log.Fatal().Err(server.ListenAndServe()).Msg("server stopped")
}

func newOracle(cfg config.OracleConfig) oracle.Oracle {
	var backend oracle.Oracle
	if cfg.LLMBaseURL != "" {
		log.Info().Str("base_url", cfg.LLMBaseURL).Str("model", cfg.LLMModel).Msg("using LLM judge")
		backend = oracle.NewLLM(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModel)
	} else {
		log.Info().Msg("using scripted judge")
		backend = oracle.Scripted{}
	}
	return &oracle.Gate{
		Inner:      backend,
		MaxWords:   cfg.MaxWords,
		MaxRetries: cfg.MaxRetries,
		Timeout:    time.Duration(cfg.TimeoutMS) * time.Millisecond,
	}
}
