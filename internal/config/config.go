package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server      ServerConfig
	DB          DBConfig
	Redis       RedisConfig
	Logger      LoggerConfig
	LLM         LLMConfig
	Exercise    ExerciseConfig
	Evaluation  EvaluationConfig
	Mistakes    MistakesConfig
	Cache       CacheConfig
	JWT         JWTConfig
	GoogleOAuth GoogleOAuthConfig
}

type ServerConfig struct {
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DBConfig describes the relational store. Driver is "oracle" (go-ora) or "pgx" (PostgreSQL).
type DBConfig struct {
	Driver   string
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type RedisConfig struct {
	Address  string
	Password string
	DB       int
}

type LoggerConfig struct {
	Level string
	Env   string
}

// LLMConfig selects and configures the generative model provider.
type LLMConfig struct {
	Provider  string // gemini, ollama or openai
	Model     string
	APIKey    string
	ServerURL string // ollama only
	Timeout   time.Duration
}

type ExerciseConfig struct {
	Topics           []string
	NativeLanguage   string
	AllowPartial     bool
	InferMissingType bool
}

type EvaluationConfig struct {
	ScoringPolicy string // server, caller or model
	Temperature   float64
}

type MistakesConfig struct {
	KeepLimit   int
	RecentLimit int
}

type CacheConfig struct {
	LeaderboardTTL time.Duration
	CoachingTTL    time.Duration
}

type JWTConfig struct {
	SecretKey       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
}

type GoogleOAuthConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// Enabled reports whether Google sign-in is configured.
func (g GoogleOAuthConfig) Enabled() bool {
	return g.ClientID != "" && g.ClientSecret != ""
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8090)
	v.SetDefault("server.read_timeout", 20)
	v.SetDefault("server.write_timeout", 60)

	v.SetDefault("db.driver", "pgx")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.ssl_mode", "disable")

	v.SetDefault("redis.address", "localhost:6379")
	v.SetDefault("redis.db", 0)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.env", "development")

	v.SetDefault("llm.provider", "gemini")
	v.SetDefault("llm.model", "gemini-2.5-flash")
	v.SetDefault("llm.server_url", "http://localhost:11434")
	v.SetDefault("llm.timeout", 30)

	v.SetDefault("exercise.topics", []string{"Fruits", "Animals", "Family Members", "Colors", "Jobs", "Food", "Clothes"})
	v.SetDefault("exercise.native_language", "Turkish")
	v.SetDefault("exercise.allow_partial", false)
	v.SetDefault("exercise.infer_missing_type", false)

	v.SetDefault("evaluation.scoring_policy", "server")
	v.SetDefault("evaluation.temperature", 0.3)

	v.SetDefault("mistakes.keep_limit", 50)
	v.SetDefault("mistakes.recent_limit", 10)

	v.SetDefault("cache.leaderboard_ttl", 60)
	v.SetDefault("cache.coaching_ttl", 3600)

	v.SetDefault("jwt.access_token_ttl", 30)
	v.SetDefault("jwt.refresh_token_ttl", 7*24*60)
}

func LoadConfig() (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	if os.Getenv("ENV") == "test" {
		v.AddConfigPath("../../config")
		v.AddConfigPath("../../")
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if configFile := v.ConfigFileUsed(); configFile != "" {
		absPath, _ := filepath.Abs(configFile)
		fmt.Printf("Using config file: %s\n", absPath)
	}

	cfg := fromViper(v)

	// Secrets commonly arrive through the environment under their conventional names.
	if password := os.Getenv("DB_PASSWORD"); password != "" {
		cfg.DB.Password = password
	}
	if password := os.Getenv("REDIS_PASSWORD"); password != "" {
		cfg.Redis.Password = password
	}
	if key := os.Getenv("LLM_API_KEY"); key != "" {
		cfg.LLM.APIKey = key
	}
	if key := os.Getenv("GEMINI_API_KEY"); key != "" && cfg.LLM.APIKey == "" && cfg.LLM.Provider == "gemini" {
		cfg.LLM.APIKey = key
	}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" && cfg.LLM.APIKey == "" && cfg.LLM.Provider == "openai" {
		cfg.LLM.APIKey = key
	}
	if secret := os.Getenv("JWT_SECRET_KEY"); secret != "" {
		cfg.JWT.SecretKey = secret
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		Server: ServerConfig{
			Port:         v.GetInt("server.port"),
			ReadTimeout:  v.GetDuration("server.read_timeout") * time.Second,
			WriteTimeout: v.GetDuration("server.write_timeout") * time.Second,
		},
		DB: DBConfig{
			Driver:   v.GetString("db.driver"),
			Host:     v.GetString("db.host"),
			Port:     v.GetInt("db.port"),
			User:     v.GetString("db.user"),
			Password: v.GetString("db.password"),
			DBName:   v.GetString("db.name"),
			SSLMode:  v.GetString("db.ssl_mode"),
		},
		Redis: RedisConfig{
			Address:  v.GetString("redis.address"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Logger: LoggerConfig{
			Level: v.GetString("logger.level"),
			Env:   v.GetString("logger.env"),
		},
		LLM: LLMConfig{
			Provider:  v.GetString("llm.provider"),
			Model:     v.GetString("llm.model"),
			APIKey:    v.GetString("llm.api_key"),
			ServerURL: v.GetString("llm.server_url"),
			Timeout:   v.GetDuration("llm.timeout") * time.Second,
		},
		Exercise: ExerciseConfig{
			Topics:           v.GetStringSlice("exercise.topics"),
			NativeLanguage:   v.GetString("exercise.native_language"),
			AllowPartial:     v.GetBool("exercise.allow_partial"),
			InferMissingType: v.GetBool("exercise.infer_missing_type"),
		},
		Evaluation: EvaluationConfig{
			ScoringPolicy: v.GetString("evaluation.scoring_policy"),
			Temperature:   v.GetFloat64("evaluation.temperature"),
		},
		Mistakes: MistakesConfig{
			KeepLimit:   v.GetInt("mistakes.keep_limit"),
			RecentLimit: v.GetInt("mistakes.recent_limit"),
		},
		Cache: CacheConfig{
			LeaderboardTTL: v.GetDuration("cache.leaderboard_ttl") * time.Second,
			CoachingTTL:    v.GetDuration("cache.coaching_ttl") * time.Second,
		},
		JWT: JWTConfig{
			SecretKey:       v.GetString("jwt.secret_key"),
			AccessTokenTTL:  v.GetDuration("jwt.access_token_ttl") * time.Minute,
			RefreshTokenTTL: v.GetDuration("jwt.refresh_token_ttl") * time.Minute,
		},
		GoogleOAuth: GoogleOAuthConfig{
			ClientID:     v.GetString("google_oauth.client_id"),
			ClientSecret: v.GetString("google_oauth.client_secret"),
			RedirectURL:  v.GetString("google_oauth.redirect_url"),
		},
	}
}

// Validate checks settings that would otherwise fail late at request time.
func (c *Config) Validate() error {
	if len(c.JWT.SecretKey) < 32 {
		return errors.New("jwt.secret_key must be at least 32 bytes long")
	}
	switch c.DB.Driver {
	case "oracle", "pgx":
	default:
		return fmt.Errorf("unsupported db.driver %q (expected oracle or pgx)", c.DB.Driver)
	}
	switch c.LLM.Provider {
	case "gemini", "openai":
		if c.LLM.APIKey == "" {
			return fmt.Errorf("llm.api_key is required for provider %s", c.LLM.Provider)
		}
	case "ollama":
	default:
		return fmt.Errorf("unsupported llm.provider %q", c.LLM.Provider)
	}
	switch c.Evaluation.ScoringPolicy {
	case "server", "caller", "model":
	default:
		return fmt.Errorf("unsupported evaluation.scoring_policy %q", c.Evaluation.ScoringPolicy)
	}
	if c.Mistakes.KeepLimit <= 0 {
		return errors.New("mistakes.keep_limit must be positive")
	}
	if c.LLM.Timeout <= 0 {
		return errors.New("llm.timeout must be positive")
	}
	return nil
}

// GetDSN builds the data source name for the configured driver.
func (c *Config) GetDSN() string {
	if c.DB.Driver == "oracle" {
		return fmt.Sprintf("oracle://%s:%s@%s:%d/%s",
			c.DB.User,
			c.DB.Password,
			c.DB.Host,
			c.DB.Port,
			c.DB.DBName,
		)
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.DB.User,
		c.DB.Password,
		c.DB.Host,
		c.DB.Port,
		c.DB.DBName,
		c.DB.SSLMode,
	)
}
