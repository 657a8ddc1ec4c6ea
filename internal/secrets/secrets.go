package secrets

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/zalando/go-keyring"

	"dealflow-engine/internal/domain"
)

// KeyringService groups the engine's secrets in the OS keychain.
const KeyringService = "dealflow"

const (
	PlacesAPIKey = "PLACES_API_KEY"
	ReviewAPIKey = "REVIEW_API_KEY"
	JWTSecret    = "JWT_SECRET"
)

var known = map[string]bool{
	PlacesAPIKey: true,
	ReviewAPIKey: true,
	JWTSecret:    true,
}

func Known(name string) bool { return known[name] }

// LoadDotEnv loads KEY=VALUE files into the process environment. Missing
// files are skipped; real env vars win over file values.
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		if _, err := os.Stat(p); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// Get resolves a secret from the environment first, then the keychain.
func Get(name string) (string, error) {
	if v := strings.TrimSpace(os.Getenv(name)); v != "" {
		return v, nil
	}
	v, err := keyring.Get(KeyringService, name)
	if err == nil && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v), nil
	}
	return "", fmt.Errorf("%s not found in env or keychain: %w", name, domain.ErrNotConfigured)
}

func Set(name, value string) error {
	if !Known(name) {
		return fmt.Errorf("unknown secret %q", name)
	}
	if strings.TrimSpace(value) == "" {
		return errors.New("secret value is empty")
	}
	return keyring.Set(KeyringService, name, value)
}

func Delete(name string) error {
	if !Known(name) {
		return fmt.Errorf("unknown secret %q", name)
	}
	return keyring.Delete(KeyringService, name)
}
