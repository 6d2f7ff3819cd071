package config

import "github.com/caarlos0/env/v11"

// BotConfig configures the scripted advocate client. An empty JoinCode makes
// the bot create a session, print the code and wait for an opponent.
type BotConfig struct {
	WSURL    string `env:"WS_URL" envDefault:"ws://localhost:8080/ws"`
	JoinCode string `env:"JOIN_CODE"`
}

func LoadBot() (BotConfig, error) {
	var cfg BotConfig
	err := env.Parse(&cfg)
	return cfg, err
}
