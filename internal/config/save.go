package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

func Validate(cfg Config) error {
	var errs []string

	if strings.TrimSpace(cfg.App.Addr) == "" {
		errs = append(errs, "app.addr is required")
	}

	switch cfg.Store.Driver {
	case "sqlite":
	case "postgres":
		if strings.TrimSpace(cfg.Store.DSN) == "" {
			errs = append(errs, "store.dsn is required when store.driver=postgres")
		}
	default:
		errs = append(errs, fmt.Sprintf("store.driver must be sqlite or postgres, got %q", cfg.Store.Driver))
	}

	positive := func(name string, v int) {
		if v <= 0 {
			errs = append(errs, fmt.Sprintf("discovery.%s must be > 0", name))
		}
	}
	d := cfg.Discovery
	positive("max_base_keywords", d.MaxBaseKeywords)
	positive("max_keywords", d.MaxKeywords)
	positive("max_pages", d.MaxPages)
	positive("search_workers", d.SearchWorkers)
	positive("detail_cap", d.DetailCap)
	positive("detail_workers", d.DetailWorkers)
	positive("survivor_cap", d.SurvivorCap)
	positive("target_max", d.TargetMax)
	positive("review_budget", d.ReviewBudget)
	positive("homepage_max_chars", d.HomepageMaxChars)
	if d.PageSettleMillis < 0 {
		errs = append(errs, "discovery.page_settle_ms must be >= 0")
	}
	if d.MinReviews < 0 {
		errs = append(errs, "discovery.min_reviews must be >= 0")
	}
	if d.MinRating < 0 || d.MinRating > 5 {
		errs = append(errs, "discovery.min_rating must be 0..5")
	}
	if d.ReviewTemperature < 0 || d.ReviewTemperature > 1 {
		errs = append(errs, "discovery.review_temperature must be 0..1")
	}

	if cfg.Providers.TimeoutSeconds <= 0 {
		errs = append(errs, "providers.timeout_seconds must be > 0")
	}
	if cfg.Providers.RequestsPerSecond <= 0 {
		errs = append(errs, "providers.requests_per_second must be > 0")
	}

	if len(errs) > 0 {
		return errors.New("config validation failed:\n- " + strings.Join(errs, "\n- "))
	}
	return nil
}

func SaveAtomic(path string, cfg Config) error {
	if err := Validate(cfg); err != nil {
		return err
	}

	b, err := yaml.Marshal(&cfg)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	tmp := path + ".tmp"
	bak := path + ".bak"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}

	_ = os.Remove(bak)
	_ = os.Rename(path, bak)

	return os.Rename(tmp, path)
}
