package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Metadata provider selection values for METADATA_PROVIDER.
const (
	MetadataProviderYtdlp = "ytdlp"
	MetadataProviderAPI   = "api"
)

// Config holds application configuration loaded from environment.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	AWS      AWSConfig
	OpenAI   OpenAIConfig
	Google   GoogleConfig
	YouTube  YouTubeConfig
	Pipeline PipelineConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port               string
	ReadTimeout        int
	WriteTimeout       int
	CORSAllowedOrigins string // comma-separated, or "*" for all
	SiteURL            string // public base URL used in auth redirects and the landing page
	CookieDomain       string
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	URL      string // if set, used as-is (e.g. postgres://localhost:5432/shortreel?sslmode=disable)
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// AWSConfig holds AWS credentials and the S3 bucket for media artifacts.
type AWSConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	MediaBucket     string
}

// OpenAIConfig holds the speech-to-text / translation API settings.
type OpenAIConfig struct {
	APIKey string
	Model  string // chat model used for translation
}

// GoogleConfig holds OAuth client settings for the login flow.
type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	StateTTLMin  int // lifetime of signed OAuth state tokens
}

// YouTubeConfig holds video platform access settings.
type YouTubeConfig struct {
	APIKey           string // required only when MetadataProvider == "api"
	Cookies          string // optional pre-authenticated cookie blob ("name=value; name2=value2")
	MetadataProvider string // "ytdlp" or "api"
}

// PipelineConfig holds local staging and request shaping settings.
type PipelineConfig struct {
	WorkDir            string // scratch root for downloads and frames; empty = os.TempDir()
	DefaultScreenshots int
	RateLimitPerMinute int
}

// DSN returns the PostgreSQL connection string.
// If DatabaseConfig.URL is set (DATABASE_URL env), it is used as-is; otherwise built from components.
func (c DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode,
	)
}

// Load reads configuration from environment, with optional .env file.
func Load() (*Config, error) {
	_ = godotenv.Load()
	_ = godotenv.Load(".env.development")

	readTimeout, _ := strconv.Atoi(getEnv("READ_TIMEOUT_SEC", "60"))
	writeTimeout, _ := strconv.Atoi(getEnv("WRITE_TIMEOUT_SEC", "300"))

	cfg := &Config{
		Server: ServerConfig{
			Port:               getEnv("PORT", "3000"),
			ReadTimeout:        readTimeout,
			WriteTimeout:       writeTimeout,
			CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
			SiteURL:            getEnv("SITE_URL", "http://localhost:3000"),
			CookieDomain:       getEnv("COOKIE_DOMAIN", "localhost"),
		},
		Database: DatabaseConfig{
			URL:      getEnv("DATABASE_URL", ""),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			DBName:   getEnv("DB_NAME", "shortreel"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		AWS: AWSConfig{
			Region:          getEnv("AWS_REGION", "us-east-1"),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			MediaBucket:     getEnv("AWS_S3_MEDIA_BUCKET", "videos"),
		},
		OpenAI: OpenAIConfig{
			APIKey: getEnv("OPENAI_API_KEY", ""),
			Model:  getEnv("AI_MODEL", "gpt-4o-mini-2024-07-18"),
		},
		Google: GoogleConfig{
			ClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
			ClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
			StateTTLMin:  getEnvInt("GOOGLE_STATE_TTL_MIN", 10),
		},
		YouTube: YouTubeConfig{
			APIKey:           getEnv("YOUTUBE_API_KEY", ""),
			Cookies:          getEnv("YOUTUBE_COOKIES", ""),
			MetadataProvider: getEnv("METADATA_PROVIDER", MetadataProviderAPI),
		},
		Pipeline: PipelineConfig{
			WorkDir:            getEnv("PIPELINE_WORK_DIR", ""),
			DefaultScreenshots: getEnvInt("DEFAULT_SCREENSHOTS", 3),
			RateLimitPerMinute: getEnvInt("PROCESS_RATE_LIMIT_PER_MIN", 10),
		},
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate fails fast on missing required settings so a misconfigured
// process never starts accepting requests.
func (c *Config) Validate() error {
	var missing []string
	// Either a full connection URL or the complete component set.
	if c.Database.URL == "" &&
		(c.Database.Host == "" || c.Database.User == "" || c.Database.Password == "" || c.Database.DBName == "") {
		missing = append(missing, "DATABASE_URL")
	}
	if c.OpenAI.APIKey == "" {
		missing = append(missing, "OPENAI_API_KEY")
	}
	if c.Google.ClientID == "" {
		missing = append(missing, "GOOGLE_CLIENT_ID")
	}
	if c.Google.ClientSecret == "" {
		missing = append(missing, "GOOGLE_CLIENT_SECRET")
	}
	if c.YouTube.MetadataProvider == MetadataProviderAPI && c.YouTube.APIKey == "" {
		missing = append(missing, "YOUTUBE_API_KEY")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}
	switch c.YouTube.MetadataProvider {
	case MetadataProviderYtdlp, MetadataProviderAPI:
	default:
		return fmt.Errorf("invalid METADATA_PROVIDER %q: must be %q or %q",
			c.YouTube.MetadataProvider, MetadataProviderYtdlp, MetadataProviderAPI)
	}
	return nil
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
