package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"dealflow-engine/internal/logging"
)

type Providers struct {
	PlacesBaseURL     string  `yaml:"places_base_url" json:"places_base_url"`
	ReviewBaseURL     string  `yaml:"review_base_url" json:"review_base_url"`
	ReviewModel       string  `yaml:"review_model" json:"review_model"`
	TimeoutSeconds    int     `yaml:"timeout_seconds" json:"timeout_seconds"`
	RequestsPerSecond float64 `yaml:"requests_per_second" json:"requests_per_second"`
	Burst             int     `yaml:"burst" json:"burst"`
	UserAgent         string  `yaml:"user_agent" json:"user_agent"`
}

// Discovery holds the cost ceilings of one search run.
type Discovery struct {
	MaxBaseKeywords   int     `yaml:"max_base_keywords" json:"max_base_keywords"`
	MaxKeywords       int     `yaml:"max_keywords" json:"max_keywords"`
	MaxPages          int     `yaml:"max_pages" json:"max_pages"`
	PageSettleMillis  int     `yaml:"page_settle_ms" json:"page_settle_ms"`
	SearchWorkers     int     `yaml:"search_workers" json:"search_workers"`
	DetailCap         int     `yaml:"detail_cap" json:"detail_cap"`
	DetailWorkers     int     `yaml:"detail_workers" json:"detail_workers"`
	MinReviews        int     `yaml:"min_reviews" json:"min_reviews"`
	MinRating         float64 `yaml:"min_rating" json:"min_rating"`
	SurvivorCap       int     `yaml:"survivor_cap" json:"survivor_cap"`
	TargetMax         int     `yaml:"target_max" json:"target_max"`
	ReviewBudget      int     `yaml:"review_budget" json:"review_budget"`
	HomepageMaxChars  int     `yaml:"homepage_max_chars" json:"homepage_max_chars"`
	ReviewTemperature float64 `yaml:"review_temperature" json:"review_temperature"`
}

type Config struct {
	App struct {
		Addr    string `yaml:"addr" json:"addr"`
		DataDir string `yaml:"data_dir" json:"data_dir"`
	} `yaml:"app" json:"app"`

	Logging logging.Config `yaml:"logging" json:"logging"`

	Auth struct {
		Issuer string `yaml:"issuer" json:"issuer"`
	} `yaml:"auth" json:"auth"`

	Providers Providers `yaml:"providers" json:"providers"`
	Discovery Discovery `yaml:"discovery" json:"discovery"`

	Store struct {
		Driver string `yaml:"driver" json:"driver"` // sqlite | postgres
		DSN    string `yaml:"dsn" json:"dsn"`
	} `yaml:"store" json:"store"`

	Cache struct {
		RedisAddr       string `yaml:"redis_addr" json:"redis_addr"`
		GeocodeTTLHours int    `yaml:"geocode_ttl_hours" json:"geocode_ttl_hours"`
	} `yaml:"cache" json:"cache"`
}

func DefaultDiscovery() Discovery {
	return Discovery{
		MaxBaseKeywords:   8,
		MaxKeywords:       12,
		MaxPages:          3,
		PageSettleMillis:  2000,
		SearchWorkers:     4,
		DetailCap:         80,
		DetailWorkers:     8,
		MinReviews:        3,
		MinRating:         3.5,
		SurvivorCap:       60,
		TargetMax:         15,
		ReviewBudget:      30,
		HomepageMaxChars:  6000,
		ReviewTemperature: 0.2,
	}
}

func Default() Config {
	var cfg Config
	cfg.App.Addr = "127.0.0.1:38471"
	cfg.Logging.Level = "info"
	cfg.Auth.Issuer = "dealflow"
	cfg.Providers = Providers{
		PlacesBaseURL:     "https://maps.googleapis.com/maps/api",
		ReviewBaseURL:     "https://api.openai.com/v1",
		ReviewModel:       "gpt-4o-mini",
		TimeoutSeconds:    20,
		RequestsPerSecond: 10,
		Burst:             5,
		UserAgent:         "DealflowBot/1.0 (+off-market discovery)",
	}
	cfg.Discovery = DefaultDiscovery()
	cfg.Store.Driver = "sqlite"
	cfg.Cache.GeocodeTTLHours = 24 * 30
	return cfg
}

// Load reads path over Default(), so a partial file keeps default limits.
func Load(path string) (Config, error) {
	cfg := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, err
	}
	OverlayEnv(&cfg)
	return cfg, nil
}
