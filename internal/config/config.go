package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Matching MatchingConfig
}

type AppConfig struct {
	AppName     string `validate:"required"`
	Environment string `validate:"required"`
	HTTPPort    string `validate:"required"`
	LogJSON     bool
	Debug       bool
}

type DatabaseConfig struct {
	DBHost         string
	DBPort         string
	DBName         string
	DBUser         string
	DBPassword     string
	DBSSLMode      string
	ConnectTimeout time.Duration
	PoolMaxConns   int32
	PoolMinConns   int32
}

// Enabled reports whether a snapshot store is configured. Without one the
// engine starts empty and is fed purely through upsert hooks.
func (c DatabaseConfig) Enabled() bool {
	return c.DBHost != ""
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	CacheTTL time.Duration
}

func (c RedisConfig) Enabled() bool {
	return c.Host != ""
}

type MatchingConfig struct {
	DefaultSearchRadiusKm  float64       `validate:"gt=0"`
	HoldTTL                time.Duration `validate:"gt=0"`
	HoldSweepInterval      time.Duration `validate:"gt=0"`
	ReputationHalfLifeDays float64       `validate:"gt=0"`
	ReputationPrior        float64       `validate:"gte=0,lte=5"`
	WeightSkill            float64       `validate:"gte=0"`
	WeightDistance         float64       `validate:"gte=0"`
	WeightReputation       float64       `validate:"gte=0"`
	WeightUrgency          float64       `validate:"gte=0"`
	TaxonomyDistanceLimit  int           `validate:"gte=0"`
	PageSizeDefault        int           `validate:"gt=0"`
	PageSizeMax            int           `validate:"gt=0,gtefield=PageSizeDefault"`
}

func Load() (Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	cfg := Config{
		App: AppConfig{
			AppName:     v.GetString("APP_NAME"),
			Environment: v.GetString("APP_ENV"),
			HTTPPort:    v.GetString("HTTP_PORT"),
			LogJSON:     v.GetBool("LOG_JSON"),
			Debug:       v.GetBool("LOG_DEBUG"),
		},
		Database: DatabaseConfig{
			DBHost:         v.GetString("DB_HOST"),
			DBPort:         v.GetString("DB_PORT"),
			DBName:         v.GetString("DB_NAME"),
			DBUser:         v.GetString("DB_USER"),
			DBPassword:     v.GetString("DB_PASSWORD"),
			DBSSLMode:      v.GetString("DB_SSL_MODE"),
			ConnectTimeout: v.GetDuration("DB_CONNECT_TIMEOUT"),
			PoolMaxConns:   v.GetInt32("DB_POOL_MAX_CONNS"),
			PoolMinConns:   v.GetInt32("DB_POOL_MIN_CONNS"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetString("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
			CacheTTL: v.GetDuration("REDIS_CACHE_TTL"),
		},
		Matching: MatchingConfig{
			DefaultSearchRadiusKm:  v.GetFloat64("MATCH_DEFAULT_SEARCH_RADIUS_KM"),
			HoldTTL:                time.Duration(v.GetInt("MATCH_HOLD_TTL_SECONDS")) * time.Second,
			HoldSweepInterval:      time.Duration(v.GetInt("MATCH_HOLD_SWEEP_SECONDS")) * time.Second,
			ReputationHalfLifeDays: v.GetFloat64("MATCH_REPUTATION_HALF_LIFE_DAYS"),
			ReputationPrior:        v.GetFloat64("MATCH_REPUTATION_PRIOR"),
			WeightSkill:            v.GetFloat64("MATCH_WEIGHT_SKILL"),
			WeightDistance:         v.GetFloat64("MATCH_WEIGHT_DISTANCE"),
			WeightReputation:       v.GetFloat64("MATCH_WEIGHT_REPUTATION"),
			WeightUrgency:          v.GetFloat64("MATCH_WEIGHT_URGENCY"),
			TaxonomyDistanceLimit:  v.GetInt("MATCH_TAXONOMY_DISTANCE_LIMIT"),
			PageSizeDefault:        v.GetInt("MATCH_PAGE_SIZE_DEFAULT"),
			PageSizeMax:            v.GetInt("MATCH_PAGE_SIZE_MAX"),
		},
	}

	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_NAME", "skill-connect")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("HTTP_PORT", "8080")
	v.SetDefault("LOG_JSON", false)
	v.SetDefault("LOG_DEBUG", false)

	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_CONNECT_TIMEOUT", "5s")

	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_CACHE_TTL", "60s")

	v.SetDefault("MATCH_DEFAULT_SEARCH_RADIUS_KM", 25.0)
	v.SetDefault("MATCH_HOLD_TTL_SECONDS", 120)
	v.SetDefault("MATCH_HOLD_SWEEP_SECONDS", 30)
	v.SetDefault("MATCH_REPUTATION_HALF_LIFE_DAYS", 90.0)
	v.SetDefault("MATCH_REPUTATION_PRIOR", 3.0)
	v.SetDefault("MATCH_WEIGHT_SKILL", 0.4)
	v.SetDefault("MATCH_WEIGHT_DISTANCE", 0.25)
	v.SetDefault("MATCH_WEIGHT_REPUTATION", 0.2)
	v.SetDefault("MATCH_WEIGHT_URGENCY", 0.15)
	v.SetDefault("MATCH_TAXONOMY_DISTANCE_LIMIT", 2)
	v.SetDefault("MATCH_PAGE_SIZE_DEFAULT", 20)
	v.SetDefault("MATCH_PAGE_SIZE_MAX", 100)
}
