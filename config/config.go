package config

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/comparador-uy/backend/internal/domain"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig
	Backends map[string]BackendConfig
	Resolver ResolverConfig
	Cache    CacheConfig
	HTTP     HTTPConfig
	Browser  BrowserConfig
	Log      LogConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// BackendConfig describes one competitor storefront
type BackendConfig struct {
	BaseURL        string   `mapstructure:"base_url"`
	SearchPath     string   `mapstructure:"search_path"`
	SearchPagePath string   `mapstructure:"search_page_path"`
	PageSize       int      `mapstructure:"page_size"`
	Brands         []string `mapstructure:"brands"`
}

// ResolverConfig holds matching configuration
type ResolverConfig struct {
	ScoreThreshold int `mapstructure:"score_threshold"`
	MaxVariants    int `mapstructure:"max_variants"`
}

// CacheConfig holds cache-related configuration
type CacheConfig struct {
	Type      string        `mapstructure:"type"` // "memory" or "redis"
	RedisURL  string        `mapstructure:"redis_url"`
	TTL       time.Duration `mapstructure:"ttl"`
	Prefix    string        `mapstructure:"prefix"`
	Retention time.Duration `mapstructure:"retention"`
}

// HTTPConfig holds outbound storefront request settings
type HTTPConfig struct {
	Timeout            time.Duration `mapstructure:"timeout"`
	UserAgent          string        `mapstructure:"user_agent"`
	AcceptLanguage     string        `mapstructure:"accept_language"`
	RatePerSecond      float64       `mapstructure:"rate_per_second"`
	Burst              int           `mapstructure:"burst"`
	FollowProductPages int           `mapstructure:"follow_product_pages"`
	MaxRetries         int           `mapstructure:"max_retries"`
}

// BrowserConfig holds headless browser settings
type BrowserConfig struct {
	Enabled           bool          `mapstructure:"enabled"`
	InstallDriver     bool          `mapstructure:"install_driver"`
	NavigationTimeout time.Duration `mapstructure:"navigation_timeout"`
	MaxProductPages   int           `mapstructure:"max_product_pages"`
	Locale            string        `mapstructure:"locale"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // "console" or "json"
}

// defaultBackends are the storefronts configured out of the box
var defaultBackends = map[string]string{
	"tata":     "https://tata.com.uy",
	"eldorado": "https://www.eldorado.com.uy",
	"elclon":   "https://www.elclon.com.uy",
	"mily":     "https://www.mily.com.uy",
}

// Load loads configuration from .env, environment variables and config files.
// configFile overrides the config file search when non-empty.
func Load(configFile string) (*Config, error) {
	// .env is optional; real environment variables win over it
	_ = godotenv.Load()

	v := viper.New()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/comparador/")
	}

	// Environment variable settings
	v.SetEnvPrefix("COMPARADOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set default values
	setDefaults(v)
	bindLegacyEnv(v)

	// Read config file (optional - will use env vars if file doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Validate configuration
	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"*"})

	// Backend defaults
	for key, baseURL := range defaultBackends {
		prefix := "backends." + key + "."
		v.SetDefault(prefix+"base_url", baseURL)
		v.SetDefault(prefix+"search_path", domain.DefaultSearchPath)
		v.SetDefault(prefix+"search_page_path", domain.DefaultSearchPagePath)
		v.SetDefault(prefix+"page_size", domain.DefaultPageSize)
	}

	// Resolver defaults
	v.SetDefault("resolver.score_threshold", 3)
	v.SetDefault("resolver.max_variants", 0)

	// Cache defaults
	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.ttl", "6h")
	v.SetDefault("cache.prefix", "comparador:")
	v.SetDefault("cache.retention", "48h")

	// Outbound HTTP defaults
	v.SetDefault("http.timeout", "15s")
	v.SetDefault("http.user_agent", "Mozilla/5.0")
	v.SetDefault("http.accept_language", "es-UY,es;q=0.9")
	v.SetDefault("http.rate_per_second", 5)
	v.SetDefault("http.burst", 10)
	v.SetDefault("http.follow_product_pages", 3)
	v.SetDefault("http.max_retries", 1)

	// Browser defaults
	v.SetDefault("browser.enabled", true)
	v.SetDefault("browser.install_driver", false)
	v.SetDefault("browser.navigation_timeout", "45s")
	v.SetDefault("browser.max_product_pages", 3)
	v.SetDefault("browser.locale", "es-UY")

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
}

// bindLegacyEnv keeps the historical TATA_BASE style variables working
func bindLegacyEnv(v *viper.Viper) {
	for key := range defaultBackends {
		_ = v.BindEnv(
			"backends."+key+".base_url",
			"COMPARADOR_BACKENDS_"+strings.ToUpper(key)+"_BASE_URL",
			strings.ToUpper(key)+"_BASE",
		)
	}
}

// validate validates the configuration
func validate(config *Config) error {
	if len(config.BackendProfiles()) == 0 {
		return fmt.Errorf("at least one backend with a base_url is required")
	}

	if config.Cache.Type != "memory" && config.Cache.Type != "redis" {
		return fmt.Errorf("cache type must be 'memory' or 'redis', got: %s", config.Cache.Type)
	}

	if config.Cache.Type == "redis" && config.Cache.RedisURL == "" {
		return fmt.Errorf("Redis URL is required when cache type is 'redis'")
	}

	if config.Cache.TTL <= 0 {
		return fmt.Errorf("cache ttl must be positive, got: %s", config.Cache.TTL)
	}

	if config.Resolver.ScoreThreshold < 1 {
		return fmt.Errorf("resolver score_threshold must be at least 1, got: %d", config.Resolver.ScoreThreshold)
	}

	if config.HTTP.Timeout <= 0 {
		return fmt.Errorf("http timeout must be positive, got: %s", config.HTTP.Timeout)
	}

	return nil
}

// BackendProfiles returns the configured backends with a base URL, ordered by key
func (c *Config) BackendProfiles() []domain.Backend {
	profiles := make([]domain.Backend, 0, len(c.Backends))
	for key, b := range c.Backends {
		baseURL := strings.TrimSpace(b.BaseURL)
		if baseURL == "" {
			continue
		}

		var brands domain.BrandVocabulary
		for _, brand := range b.Brands {
			brands = append(brands, strings.ToLower(strings.TrimSpace(brand)))
		}

		profiles = append(profiles, domain.Backend{
			Key:            strings.ToLower(key),
			BaseURL:        baseURL,
			SearchPath:     b.SearchPath,
			SearchPagePath: b.SearchPagePath,
			PageSize:       b.PageSize,
			Brands:         brands,
		})
	}

	sort.Slice(profiles, func(i, j int) bool {
		return profiles[i].Key < profiles[j].Key
	})
	return profiles
}
