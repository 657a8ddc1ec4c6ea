package config

import (
	"os"
	"strings"
)

// OverlayEnv lets deployment override where the engine listens and which
// store it writes to without editing the YAML.
func OverlayEnv(cfg *Config) {
	set := func(dst *string, key string) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			*dst = v
		}
	}
	set(&cfg.App.Addr, "DEALFLOW_ADDR")
	set(&cfg.App.DataDir, "DEALFLOW_DATA_DIR")
	set(&cfg.Store.Driver, "DEALFLOW_STORE_DRIVER")
	set(&cfg.Store.DSN, "DEALFLOW_STORE_DSN")
	set(&cfg.Cache.RedisAddr, "DEALFLOW_REDIS_ADDR")
	set(&cfg.Logging.Level, "DEALFLOW_LOG_LEVEL")
}
