package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	ProjectDir   string `json:"project_dir"`
	ResultsDir   string `json:"results_dir"`
	DataDir      string `json:"data_dir"`
	DataCacheDir string `json:"data_cache_dir"`

	LLMProvider  string `json:"llm_provider"`
	LLMModel     string `json:"llm_model"`
	LLMMaxTokens int    `json:"llm_max_tokens"`

	OpenAIAPIKey   string `json:"openai_api_key"`
	OpenAIBaseURL  string `json:"openai_base_url"`
	DeepSeekAPIKey string `json:"deepseek_api_key"`

	OnlineTools bool   `json:"online_tools"`
	Debug       bool   `json:"debug"`
	LogLevel    string `json:"log_level"`
	Env         string `json:"env"`
	MetricsAddr string `json:"metrics_addr"`

	// Eino Debug configuration
	EinoDebugEnabled bool `json:"eino_debug_enabled"`
	EinoDebugPort    int  `json:"eino_debug_port"`

	CacheEnabled  bool   `json:"cache_enabled"`
	CacheBackend  string `json:"cache_backend"`
	RedisAddr     string `json:"redis_addr"`
	RedisPassword string `json:"-"`
	RedisDB       int    `json:"redis_db"`

	// Longport API Configuration
	LongportAppKey      string `json:"longport_app_key"`
	LongportAppSecret   string `json:"-"`
	LongportAccessToken string `json:"-"`

	// Market/Social data
	FinnhubAPIKey            string `json:"-"`
	FinnhubRequestsPerMinute int    `json:"finnhub_requests_per_minute"`
	RedditUserAgent          string `json:"reddit_user_agent"`
	CoinGeckoAPIKey          string `json:"-"`

	RoundTableMaxParallel int `json:"round_table_max_parallel"`
}

func DefaultConfig() *Config {
	currentDir, _ := os.Getwd()

	cfg := &Config{
		ProjectDir:   currentDir,
		ResultsDir:   filepath.Join(currentDir, "results"),
		DataDir:      filepath.Join(currentDir, "data"),
		DataCacheDir: filepath.Join(currentDir, "data", "cache"),

		LLMProvider:  "deepseek",
		LLMModel:     "deepseek-chat",
		LLMMaxTokens: 4096,

		OnlineTools: true,
		Debug:       false,
		LogLevel:    "info",
		Env:         "development",

		EinoDebugEnabled: false,
		EinoDebugPort:    52538,

		CacheEnabled: true,
		CacheBackend: "file",
		RedisAddr:    "localhost:6379",

		FinnhubRequestsPerMinute: 60,
		RedditUserAgent:          "ai-hedge-fund/1.0",

		RoundTableMaxParallel: 2,
	}

	// Load environment variables from .env file
	_ = godotenv.Load()

	cfg.loadFromEnv()

	return cfg
}

func (c *Config) loadFromEnv() {
	if val := os.Getenv("PROJECT_DIR"); val != "" {
		c.ProjectDir = val
	}
	if val := os.Getenv("RESULTS_DIR"); val != "" {
		c.ResultsDir = val
	}
	if val := os.Getenv("DATA_DIR"); val != "" {
		c.DataDir = val
	}
	if val := os.Getenv("DATA_CACHE_DIR"); val != "" {
		c.DataCacheDir = val
	}

	if val := os.Getenv("LLM_PROVIDER"); val != "" {
		c.LLMProvider = strings.ToLower(val)
	}
	if val := os.Getenv("LLM_MODEL"); val != "" {
		c.LLMModel = val
	}
	if val := os.Getenv("LLM_MAX_TOKENS"); val != "" {
		if v, err := strconv.Atoi(val); err == nil {
			c.LLMMaxTokens = v
		}
	}
	if val := os.Getenv("OPENAI_API_KEY"); val != "" {
		c.OpenAIAPIKey = val
	}
	if val := os.Getenv("OPENAI_BASE_URL"); val != "" {
		c.OpenAIBaseURL = val
	}
	if val := os.Getenv("DEEPSEEK_API_KEY"); val != "" {
		c.DeepSeekAPIKey = val
	}

	if val := os.Getenv("ONLINE_TOOLS"); val != "" {
		if enabled, err := strconv.ParseBool(val); err == nil {
			c.OnlineTools = enabled
		}
	}
	if val := os.Getenv("HEDGEFUND_DEBUG"); val != "" {
		if enabled, err := strconv.ParseBool(val); err == nil {
			c.Debug = enabled
		}
	}
	if val := os.Getenv("LOG_LEVEL"); val != "" {
		c.LogLevel = val
	}
	if val := os.Getenv("APP_ENV"); val != "" {
		c.Env = val
	}
	if val := os.Getenv("METRICS_ADDR"); val != "" {
		c.MetricsAddr = val
	}

	if val := os.Getenv("EINO_DEBUG_ENABLED"); val != "" {
		if enabled, err := strconv.ParseBool(val); err == nil {
			c.EinoDebugEnabled = enabled
		}
	}
	if val := os.Getenv("EINO_DEBUG_PORT"); val != "" {
		if port, err := strconv.Atoi(val); err == nil {
			c.EinoDebugPort = port
		}
	}

	if val := os.Getenv("CACHE_ENABLED"); val != "" {
		if cache, err := strconv.ParseBool(val); err == nil {
			c.CacheEnabled = cache
		}
	}
	if val := os.Getenv("CACHE_BACKEND"); val != "" {
		c.CacheBackend = strings.ToLower(val)
	}
	if val := os.Getenv("REDIS_ADDR"); val != "" {
		c.RedisAddr = val
	}
	if val := os.Getenv("REDIS_PASSWORD"); val != "" {
		c.RedisPassword = val
	}
	if val := os.Getenv("REDIS_DB"); val != "" {
		if db, err := strconv.Atoi(val); err == nil {
			c.RedisDB = db
		}
	}

	if val := os.Getenv("LONGPORT_APP_KEY"); val != "" {
		c.LongportAppKey = val
	}
	if val := os.Getenv("LONGPORT_APP_SECRET"); val != "" {
		c.LongportAppSecret = val
	}
	if val := os.Getenv("LONGPORT_ACCESS_TOKEN"); val != "" {
		c.LongportAccessToken = val
	}

	if val := os.Getenv("FINNHUB_API_KEY"); val != "" {
		c.FinnhubAPIKey = val
	}
	if val := os.Getenv("FINNHUB_REQUESTS_PER_MINUTE"); val != "" {
		if v, err := strconv.Atoi(val); err == nil {
			c.FinnhubRequestsPerMinute = v
		}
	}
	if val := os.Getenv("REDDIT_USER_AGENT"); val != "" {
		c.RedditUserAgent = val
	}
	if val := os.Getenv("COINGECKO_API_KEY"); val != "" {
		c.CoinGeckoAPIKey = val
	}

	if val := os.Getenv("ROUND_TABLE_MAX_PARALLEL"); val != "" {
		if v, err := strconv.Atoi(val); err == nil {
			c.RoundTableMaxParallel = v
		}
	}
}

// LLMAPIKey returns the key matching the configured provider.
func (c *Config) LLMAPIKey() string {
	if c.LLMProvider == "openai" {
		return c.OpenAIAPIKey
	}
	return c.DeepSeekAPIKey
}

// HasLongport reports whether all Longport credentials are set.
func (c *Config) HasLongport() bool {
	return c.LongportAppKey != "" && c.LongportAppSecret != "" && c.LongportAccessToken != ""
}

// Validate checks the settings a run cannot start without.
func (c *Config) Validate() error {
	var errs []error
	switch c.LLMProvider {
	case "openai", "deepseek":
	default:
		errs = append(errs, fmt.Errorf("unsupported llm provider %q", c.LLMProvider))
	}
	if c.LLMModel == "" {
		errs = append(errs, errors.New("llm model is empty"))
	}
	if c.LLMAPIKey() == "" {
		errs = append(errs, fmt.Errorf("api key for provider %s is not set", c.LLMProvider))
	}
	switch c.CacheBackend {
	case "file", "redis":
	default:
		errs = append(errs, fmt.Errorf("unsupported cache backend %q", c.CacheBackend))
	}
	if c.RoundTableMaxParallel < 1 {
		errs = append(errs, errors.New("round table parallelism must be at least 1"))
	}
	return errors.Join(errs...)
}

func (c *Config) EnsureDirectories() error {
	dirs := []string{c.ProjectDir, c.ResultsDir, c.DataDir, c.DataCacheDir}
	for _, dir := range dirs {
		path := strings.TrimSpace(dir)
		if path == "" {
			continue
		}
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", path, err)
		}
	}
	return nil
}
