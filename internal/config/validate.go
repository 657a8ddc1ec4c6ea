package config

import (
	"fmt"
	"net/url"
	"strings"
)

type Validation struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func (v *Validation) addErr(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}
func (v *Validation) addWarn(format string, args ...any) {
	v.Warnings = append(v.Warnings, fmt.Sprintf(format, args...))
}
func (v Validation) OK() bool { return len(v.Errors) == 0 }

// NormalizeAndValidate returns a normalized copy plus everything worth
// telling the operator about it.
func NormalizeAndValidate(cfg Config) (Config, Validation) {
	out := cfg
	var res Validation

	out.Store.Driver = strings.ToLower(strings.TrimSpace(out.Store.Driver))
	out.Providers.PlacesBaseURL = strings.TrimRight(strings.TrimSpace(out.Providers.PlacesBaseURL), "/")
	out.Providers.ReviewBaseURL = strings.TrimRight(strings.TrimSpace(out.Providers.ReviewBaseURL), "/")

	if err := Validate(out); err != nil {
		for _, line := range strings.Split(err.Error(), "\n- ")[1:] {
			res.addErr("%s", line)
		}
	}

	for name, raw := range map[string]string{
		"providers.places_base_url": out.Providers.PlacesBaseURL,
		"providers.review_base_url": out.Providers.ReviewBaseURL,
	} {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			res.addErr("%s must be an absolute URL, got %q", name, raw)
		}
	}

	d := out.Discovery
	if d.TargetMax > d.ReviewBudget {
		res.addWarn("discovery.target_max (%d) exceeds review_budget (%d); the budget will always stop first.", d.TargetMax, d.ReviewBudget)
	}
	if d.SurvivorCap > d.DetailCap {
		res.addWarn("discovery.survivor_cap (%d) exceeds detail_cap (%d) and has no effect.", d.SurvivorCap, d.DetailCap)
	}
	if d.MaxKeywords < d.MaxBaseKeywords {
		res.addWarn("discovery.max_keywords (%d) is below max_base_keywords (%d); base keywords are never dropped.", d.MaxKeywords, d.MaxBaseKeywords)
	}
	if d.PageSettleMillis < 1500 {
		res.addWarn("discovery.page_settle_ms is %d; next-page tokens usually need ~2s before they are valid.", d.PageSettleMillis)
	}
	if d.ReviewBudget > 100 {
		res.addWarn("discovery.review_budget is %d; every review is a paid model call.", d.ReviewBudget)
	}
	if strings.TrimSpace(out.Cache.RedisAddr) == "" {
		res.addWarn("cache.redis_addr is empty; geocode results will not be cached.")
	}

	return out, res
}
