package app

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/renal-diet-poc/server/internal/agent/model"
	"github.com/renal-diet-poc/server/internal/core"
	errx "github.com/renal-diet-poc/server/internal/core/error"
	logx "github.com/renal-diet-poc/server/pkg/logger"
	"github.com/renal-diet-poc/server/pkg/postgres"
	pkgredis "github.com/renal-diet-poc/server/pkg/redis"
)

// Config defines every configurable parameter, sourced from environment
// variables (loaded from .env for local runs).
type Config struct {
	Env      string `envconfig:"APP_ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL"`

	// LLM provider
	APIKey  string `envconfig:"GEMINI_API_KEY" required:"true"`
	BaseURL string `envconfig:"GEMINI_BASE_URL"`

	Router     model.RouterModelConfig
	Generation model.GenerationModelConfig
	Embedding  model.EmbeddingConfig

	Retrieval model.RetrievalConfig
	Vector    model.VectorStoreConfig
	Ingest    model.IngestConfig
	WebSearch model.WebSearchConfig

	Workflow model.WorkflowConfig
	Server   model.ServerConfig

	// Infrastructure
	Redis    pkgredis.Config
	Postgres postgres.Config
}

// LoadConfig reads envFile when it exists and then the process environment.
func LoadConfig(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			logx.Warn().Err(err).Str("file", envFile).Msg("could not load env file")
		}
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, errx.Config("failed to process environment config: %v", err)
	}
	return cfg, nil
}

func (c Config) Environment() core.Environment {
	return core.ParseEnvironment(c.Env)
}

// ServerTimeouts parses the HTTP timeouts.
func (c Config) ServerTimeouts() (read, write, shutdown time.Duration, err error) {
	parse := func(name, v string) (time.Duration, error) {
		d, err := time.ParseDuration(v)
		if err != nil {
			return 0, errx.Config("invalid %s %q: %v", name, v, err)
		}
		return d, nil
	}
	if read, err = parse("HTTP_READ_TIMEOUT", c.Server.ReadTimeout); err != nil {
		return
	}
	if write, err = parse("HTTP_WRITE_TIMEOUT", c.Server.WriteTimeout); err != nil {
		return
	}
	shutdown, err = parse("HTTP_SHUTDOWN_TIMEOUT", c.Server.ShutdownTimeout)
	return
}

func (c Config) String() string {
	return fmt.Sprintf("env=%s backend=%s retriever=%s k=%d router=%s generation=%s embedding=%s",
		c.Env, c.Vector.Backend, c.Retrieval.Type, c.Retrieval.K,
		c.Router.Model, c.Generation.Model, c.Embedding.Model)
}
