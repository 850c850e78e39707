// Package envfile locates and reads the .env files used by the deployment
// commands.
package envfile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joho/godotenv"
)

// ErrNotFound is returned by Find when no env file exists.
var ErrNotFound = errors.New("no .env file found in: .env, ../.env")

// Find returns the env file to use. An explicit path is tried as given and
// relative to the parent directory; otherwise .env and ../.env are searched.
func Find(explicit string) (string, error) {
	if explicit != "" {
		if exists(explicit) {
			return explicit, nil
		}
		if !filepath.IsAbs(explicit) {
			parent := filepath.Join("..", explicit)
			if exists(parent) {
				return parent, nil
			}
		}
		return "", fmt.Errorf("%s: %w", explicit, os.ErrNotExist)
	}

	for _, path := range []string{".env", filepath.Join("..", ".env")} {
		if exists(path) {
			return path, nil
		}
	}
	return "", ErrNotFound
}

// Read parses an env file. Empty values and "your-..." placeholders are
// dropped.
func Read(path string) (map[string]string, error) {
	values, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	for k, v := range values {
		if v == "" || strings.HasPrefix(v, "your-") {
			delete(values, k)
		}
	}
	return values, nil
}

// Load reads path and exports its values into the process environment,
// leaving variables that are already set untouched. Empty values are kept
// since USE_TLS and USE_INTERNET_FACING_ALB are presence flags. It returns the
// names it set, sorted.
func Load(path string) ([]string, error) {
	values, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	var set []string
	for k, v := range values {
		if _, ok := os.LookupEnv(k); ok {
			continue
		}
		if err := os.Setenv(k, v); err != nil {
			return nil, fmt.Errorf("setting %s: %w", k, err)
		}
		set = append(set, k)
	}
	sort.Strings(set)
	return set, nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
