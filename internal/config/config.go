// /internal/config/config.go
package config

import (
	"log"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

func init() {
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found, falling back to system environment variables")
	}
}

type Config struct {
	DataRoot    string `env:"PSYCHE_DATA_ROOT" envDefault:"data"`
	StoragePath string `env:"PSYCHE_STORAGE_PATH" envDefault:"data/psyche.json"`
	AIProvider  string `env:"AI_PROVIDER" envDefault:"pollinations"`

	InputFile  string `env:"PSYCHE_INPUT_FILE" envDefault:"input.txt"`
	OutputFile string `env:"PSYCHE_OUTPUT_FILE" envDefault:"output.txt"`
	MindLog    string `env:"PSYCHE_MIND_LOG" envDefault:"mind.log"`

	BeatInterval     time.Duration `env:"PSYCHE_BEAT_INTERVAL" envDefault:"1s"`
	ConsolidateAfter time.Duration `env:"PSYCHE_CONSOLIDATE_AFTER" envDefault:"10m"`

	DeepBurst         int     `env:"PSYCHE_DEEP_BURST" envDefault:"4"`
	DeepRefillPerMin  float64 `env:"PSYCHE_DEEP_REFILL_PER_MIN" envDefault:"0.5"`
	CheapBurst        int     `env:"PSYCHE_CHEAP_BURST" envDefault:"12"`
	CheapRefillPerMin float64 `env:"PSYCHE_CHEAP_REFILL_PER_MIN" envDefault:"2"`
}

func New() *Config {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		log.Fatalf("[CONFIG] parse failed: %v", err)
	}
	return cfg
}
