package config

import (
	"context"
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// App holds core runtime configuration shared across services.
type App struct {
	Name                    string        `env:"APP_NAME" envDefault:"question-service"`
	Env                     string        `env:"APP_ENV" envDefault:"development"`
	LogLevel                string        `env:"LOG_LEVEL" envDefault:"info"`
	HTTPAddr                string        `env:"HTTP_ADDR" envDefault:"0.0.0.0:8080"`
	GracefulShutdownTimeout time.Duration `env:"GRACEFUL_SHUTDOWN_SECONDS" envDefault:"20s"`

	Postgres  Postgres
	Redis     Redis
	Security  Security
	LLM       LLM
	Retrieval Retrieval
	Pool      Pool
	Feedback  Feedback
}

// Postgres captures connection info for the SQL database.
type Postgres struct {
	Host     string `env:"PG_HOST,notEmpty"`
	Port     int    `env:"PG_PORT" envDefault:"5432"`
	User     string `env:"PG_USER,notEmpty"`
	Password string `env:"PG_PASSWORD,notEmpty"`
	Database string `env:"PG_DATABASE,notEmpty"`
	SSLMode  string `env:"PG_SSL_MODE" envDefault:"disable"`
	MaxConns int    `env:"PG_MAX_CONNS" envDefault:"10"`
}

// DSN renders the keyword/value connection string shared by pgxpool and goose.
// Pool sizing is applied separately since database/sql rejects pool_* keys.
func (p Postgres) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode)
}

// Redis holds pool and pub/sub configuration.
type Redis struct {
	Addr     string `env:"REDIS_ADDR,notEmpty"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
	PoolSize int    `env:"REDIS_POOL_SIZE" envDefault:"20"`
}

// Security stores the secret used to sign admin tokens.
type Security struct {
	JWTSecret string        `env:"JWT_SECRET,notEmpty"`
	TokenTTL  time.Duration `env:"ADMIN_TOKEN_TTL" envDefault:"12h"`
}

// LLM configures the OpenAI-compatible chat completion backend.
type LLM struct {
	APIKey      string        `env:"LLM_API_KEY" envDefault:""`
	BaseURL     string        `env:"LLM_BASE_URL" envDefault:""`
	Model       string        `env:"LLM_MODEL" envDefault:"gpt-4o-mini"`
	Timeout     time.Duration `env:"LLM_TIMEOUT" envDefault:"30s"`
	Temperature float32       `env:"LLM_TEMPERATURE" envDefault:"0.7"`
	MaxTokens   int           `env:"LLM_MAX_TOKENS" envDefault:"1024"`
}

// Retrieval tunes guideline context lookup.
type Retrieval struct {
	TopK int `env:"RETRIEVAL_TOP_K" envDefault:"1"`
}

// Pool governs the pre-generated question pool.
type Pool struct {
	KeyPrefix       string        `env:"POOL_KEY_PREFIX" envDefault:"question"`
	PrewarmInterval time.Duration `env:"POOL_PREWARM_INTERVAL" envDefault:"0s"`
	MinSize         int           `env:"POOL_MIN_SIZE" envDefault:"5"`
	GenerationPace  time.Duration `env:"POOL_GENERATION_PACE" envDefault:"1s"`
	MaxBatch        int           `env:"POOL_MAX_BATCH" envDefault:"50"`
	// GenerateTimeout bounds a live generation shared by concurrent requests.
	GenerateTimeout time.Duration `env:"POOL_GENERATE_TIMEOUT" envDefault:"90s"`
	// Targets are "topic:difficulty[:kind]" entries the prewarmer keeps topped up.
	Targets []string `env:"POOL_PREWARM_TARGETS" envSeparator:"," envDefault:""`
}

// Feedback configures the live vote stream.
type Feedback struct {
	Channel string `env:"FEEDBACK_CHANNEL" envDefault:"feedback:updates"`
}

// Load parses environment variables into App config.
func Load(ctx context.Context) (*App, error) {
	cfg := &App{}
	if err := Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse fills any config section from the environment. Tools that only need
// one section, like the migrator, use it directly.
func Parse(section any) error {
	if err := env.ParseWithOptions(section, env.Options{RequiredIfNoDef: true}); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}
