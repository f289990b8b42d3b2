package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"cortex/pkg/errors"
)

type Config struct {
	App           AppConfig
	Server        ServerConfig
	Analysis      AnalysisConfig
	LLM           LLMConfig
	Business      BusinessConfig
	Memory        MemoryConfig
	Cache         CacheConfig
	Workflow      WorkflowConfig
	Events        EventsConfig
	Redis         RedisConfig
	Kafka         KafkaConfig
	ErrorTracking ErrorTrackingConfig
}

type AppConfig struct {
	Name     string `envconfig:"APP_NAME" default:"cortex"`
	Env      string `envconfig:"APP_ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	Version  string `envconfig:"APP_VERSION" default:"dev"`
}

type ServerConfig struct {
	Port            int           `envconfig:"HTTP_PORT" default:"8080"`
	ReadTimeout     time.Duration `envconfig:"HTTP_READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `envconfig:"HTTP_WRITE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `envconfig:"HTTP_SHUTDOWN_TIMEOUT" default:"30s"`
}

// AnalysisConfig configures the external ML analysis backend client
type AnalysisConfig struct {
	BaseURL           string        `envconfig:"ANALYSIS_BASE_URL" default:"http://127.0.0.1:8000"`
	RequestTimeout    time.Duration `envconfig:"ANALYSIS_REQUEST_TIMEOUT" default:"15s"`
	MaxAttempts       int           `envconfig:"ANALYSIS_MAX_ATTEMPTS" default:"3"`
	HealthMaxAttempts int           `envconfig:"ANALYSIS_HEALTH_MAX_ATTEMPTS" default:"3"`
	HealthDelay       time.Duration `envconfig:"ANALYSIS_HEALTH_DELAY" default:"1s"`
	RateLimitRPS      float64       `envconfig:"ANALYSIS_RATE_LIMIT_RPS" default:"10"`
	RateLimitBurst    int           `envconfig:"ANALYSIS_RATE_LIMIT_BURST" default:"20"`
}

type LLMConfig struct {
	Provider     string  `envconfig:"LLM_PROVIDER" default:"gemini"`
	GeminiKey    string  `envconfig:"GEMINI_API_KEY"`
	GeminiModel  string  `envconfig:"GEMINI_MODEL" default:"gemini-2.0-flash"`
	OpenAIKey    string  `envconfig:"OPENAI_API_KEY"`
	OpenAIModel  string  `envconfig:"OPENAI_MODEL" default:"gpt-4o-mini"`
	Temperature  float64 `envconfig:"LLM_TEMPERATURE" default:"0.7"`
	MaxTokens    int     `envconfig:"LLM_MAX_TOKENS" default:"2048"`
	RateLimitRPS float64 `envconfig:"LLM_RATE_LIMIT_RPS" default:"2"`
}

// BusinessConfig seeds the default business context for API sessions
type BusinessConfig struct {
	Industry    string   `envconfig:"BUSINESS_INDUSTRY" default:"Technology"`
	CompanySize string   `envconfig:"BUSINESS_COMPANY_SIZE" default:"Enterprise"`
	Revenue     float64  `envconfig:"BUSINESS_REVENUE" default:"1000000000"`
	Employees   int      `envconfig:"BUSINESS_EMPLOYEES" default:"5000"`
	MarketShare float64  `envconfig:"BUSINESS_MARKET_SHARE" default:"15"`
	GrowthRate  float64  `envconfig:"BUSINESS_GROWTH_RATE" default:"8.5"`
	Efficiency  float64  `envconfig:"BUSINESS_EFFICIENCY" default:"0.85"`
	RiskScore   float64  `envconfig:"BUSINESS_RISK_SCORE" default:"0.3"`
	Priorities  []string `envconfig:"BUSINESS_PRIORITIES" default:"Digital Transformation,Cost Optimization,Market Expansion"`
}

// MemoryConfig bounds the per-agent conversation memory
type MemoryConfig struct {
	MaxTurns     int `envconfig:"MEMORY_MAX_TURNS" default:"200"`
	MaxInsights  int `envconfig:"MEMORY_MAX_INSIGHTS" default:"500"`
	MaxDecisions int `envconfig:"MEMORY_MAX_DECISIONS" default:"500"`
}

// CacheConfig bounds the analyzer result caches
type CacheConfig struct {
	Backend    string        `envconfig:"CACHE_BACKEND" default:"memory"` // memory|redis
	RiskTTL    time.Duration `envconfig:"CACHE_RISK_TTL" default:"30m"`
	MarketTTL  time.Duration `envconfig:"CACHE_MARKET_TTL" default:"15m"`
	MaxEntries int           `envconfig:"CACHE_MAX_ENTRIES" default:"1024"`
}

type WorkflowConfig struct {
	MaxRetained      int           `envconfig:"WORKFLOW_MAX_RETAINED" default:"256"`
	ActionTimeout    time.Duration `envconfig:"WORKFLOW_ACTION_TIMEOUT" default:"60s"`
	RetryMaxAttempts int           `envconfig:"WORKFLOW_RETRY_MAX_ATTEMPTS" default:"3"`
	RetryBackoff     time.Duration `envconfig:"WORKFLOW_RETRY_BACKOFF" default:"500ms"`
}

type EventsConfig struct {
	KafkaEnabled     bool   `envconfig:"EVENTS_KAFKA_ENABLED" default:"false"`
	KafkaTopic       string `envconfig:"EVENTS_KAFKA_TOPIC" default:"cortex.workflow.events"`
	WebSocketEnabled bool   `envconfig:"EVENTS_WEBSOCKET_ENABLED" default:"true"`
}

type RedisConfig struct {
	Host     string `envconfig:"REDIS_HOST" default:"localhost"`
	Port     int    `envconfig:"REDIS_PORT" default:"6379"`
	Password string `envconfig:"REDIS_PASSWORD"`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type KafkaConfig struct {
	Brokers []string `envconfig:"KAFKA_BROKERS" default:"localhost:9092"`
}

type ErrorTrackingConfig struct {
	Enabled     bool   `envconfig:"ERROR_TRACKING_ENABLED" default:"false"`
	SentryDSN   string `envconfig:"SENTRY_DSN"`
	Environment string `envconfig:"SENTRY_ENVIRONMENT" default:"production"`
}

// Load reads configuration from environment variables
// It first tries to load .env file (useful for local development)
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to process env config")
	}

	return &cfg, nil
}
