package config

import "github.com/caarlos0/env/v11"

// OracleConfig selects and bounds the judge backend. An empty LLMBaseURL
// means the scripted judge.
type OracleConfig struct {
	LLMBaseURL string `env:"LLM_BASE_URL"`
	LLMAPIKey  string `env:"LLM_API_KEY"`
	LLMModel   string `env:"LLM_MODEL" envDefault:"neuralmagic/Meta-Llama-3.1-8B-Instruct-quantized.w4a16"`

	TimeoutMS  int `env:"ORACLE_TIMEOUT_MS" envDefault:"30000"`
	MaxRetries int `env:"ORACLE_MAX_RETRIES" envDefault:"2"`
	MaxWords   int `env:"ORACLE_MAX_WORDS" envDefault:"300"`
}

func LoadOracle() (OracleConfig, error) {
	var cfg OracleConfig
	err := env.Parse(&cfg)
	return cfg, err
}
